// ABOUTME: Connectivity Oracle: a best-effort, side-effect-free "are we online" check.
// ABOUTME: HTTPProbe asks the mirror's health endpoint; Static and Func serve tests and offline setups.
package connectivity

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// Oracle answers whether a remote call is worth attempting right now. The
// answer is a point-in-time guess; the call that follows may still fail.
type Oracle interface {
	IsOnline(ctx context.Context) bool
}

// Static always returns the same answer.
type Static bool

// IsOnline returns the fixed answer.
func (s Static) IsOnline(context.Context) bool {
	return bool(s)
}

// Func adapts a function to an Oracle.
type Func func(ctx context.Context) bool

// IsOnline calls f.
func (f Func) IsOnline(ctx context.Context) bool {
	return f(ctx)
}

// DefaultProbeTimeout bounds a single reachability probe.
const DefaultProbeTimeout = 3 * time.Second

// HTTPProbe reports online when the probe URL answers with any HTTP response.
// Connection failures mean offline. A probe that times out is ambiguous and
// reports online, leaving the real remote call to fail if the network is down.
type HTTPProbe struct {
	URL     string
	Timeout time.Duration
	Client  *http.Client
}

// NewHTTPProbe creates a probe for url with the default timeout.
func NewHTTPProbe(url string) *HTTPProbe {
	return &HTTPProbe{URL: url, Timeout: DefaultProbeTimeout, Client: http.DefaultClient}
}

// IsOnline issues one GET against the probe URL.
func (p *HTTPProbe) IsOnline(ctx context.Context) bool {
	if p.URL == "" {
		return true
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return true
	}
	resp, err := client.Do(req)
	if err == nil {
		_ = resp.Body.Close()
		return true
	}
	return isTimeout(err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
