// ABOUTME: Tests for the connectivity oracles.
// ABOUTME: Uses httptest servers for reachable, unreachable and slow probe targets.
package connectivity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStaticAndFunc(t *testing.T) {
	ctx := context.Background()
	assert.True(t, Static(true).IsOnline(ctx))
	assert.False(t, Static(false).IsOnline(ctx))

	calls := 0
	f := Func(func(context.Context) bool {
		calls++
		return calls > 1
	})
	assert.False(t, f.IsOnline(ctx))
	assert.True(t, f.IsOnline(ctx))
}

func TestHTTPProbeAnyResponseIsOnline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	assert.True(t, NewHTTPProbe(srv.URL).IsOnline(context.Background()))
}

func TestHTTPProbeConnectionRefusedIsOffline(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	assert.False(t, NewHTTPProbe(url).IsOnline(context.Background()))
}

func TestHTTPProbeTimeoutIsAmbiguousOnline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	probe := &HTTPProbe{URL: srv.URL, Timeout: 50 * time.Millisecond}
	assert.True(t, probe.IsOnline(context.Background()))
}

func TestHTTPProbeWithoutURLIsOnline(t *testing.T) {
	assert.True(t, (&HTTPProbe{}).IsOnline(context.Background()))
}
