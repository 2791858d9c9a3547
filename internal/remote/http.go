// ABOUTME: HTTP REST client for the lift mirror server.
// ABOUTME: Each call is one request; 401 maps to ErrAuthRequired and other failures to RemoteError.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const apiPrefix = "/api/v1"

// HTTPMirror talks to a mirror server over its REST surface.
type HTTPMirror struct {
	baseURL  string
	identity TokenIdentity
	client   *http.Client
}

// HTTPOption configures an HTTPMirror.
type HTTPOption func(*HTTPMirror)

// WithHTTPClient replaces the default client, e.g. to set transport timeouts.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(m *HTTPMirror) {
		m.client = c
	}
}

// NewHTTPMirror creates a client for the server at baseURL using a bearer token.
func NewHTTPMirror(baseURL, token string, opts ...HTTPOption) *HTTPMirror {
	m := &HTTPMirror{
		baseURL:  strings.TrimRight(baseURL, "/"),
		identity: TokenIdentity{Token: token},
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Compile-time check that HTTPMirror implements Mirror.
var _ Mirror = (*HTTPMirror)(nil)

type idResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// UserID returns the user named by the bearer token.
func (m *HTTPMirror) UserID(ctx context.Context) (string, error) {
	return m.identity.UserID(ctx)
}

func (m *HTTPMirror) CreateWorkout(ctx context.Context, rec WorkoutRecord) (string, error) {
	var out idResponse
	if err := m.do(ctx, "create workout", http.MethodPost, "/workouts", rec, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (m *HTTPMirror) UpdateWorkout(ctx context.Context, id string, patch WorkoutPatch) error {
	return m.do(ctx, "update workout", http.MethodPatch, "/workouts/"+url.PathEscape(id), patch, nil)
}

func (m *HTTPMirror) DeleteWorkout(ctx context.Context, id string) error {
	return m.do(ctx, "delete workout", http.MethodDelete, "/workouts/"+url.PathEscape(id), nil, nil)
}

func (m *HTTPMirror) ListWorkouts(ctx context.Context) ([]Workout, error) {
	var out []Workout
	if err := m.do(ctx, "list workouts", http.MethodGet, "/workouts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *HTTPMirror) CreateExercise(ctx context.Context, rec ExerciseRecord) (string, error) {
	var out idResponse
	path := "/workouts/" + url.PathEscape(rec.WorkoutID) + "/exercises"
	if err := m.do(ctx, "create exercise", http.MethodPost, path, rec, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (m *HTTPMirror) UpdateExercise(ctx context.Context, id string, patch ExercisePatch) error {
	return m.do(ctx, "update exercise", http.MethodPatch, "/exercises/"+url.PathEscape(id), patch, nil)
}

func (m *HTTPMirror) DeleteExercise(ctx context.Context, id string) error {
	return m.do(ctx, "delete exercise", http.MethodDelete, "/exercises/"+url.PathEscape(id), nil, nil)
}

func (m *HTTPMirror) ListExercises(ctx context.Context, workoutID string) ([]Exercise, error) {
	var out []Exercise
	path := "/workouts/" + url.PathEscape(workoutID) + "/exercises"
	if err := m.do(ctx, "list exercises", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *HTTPMirror) CreateSet(ctx context.Context, rec SetRecord) (string, error) {
	var out idResponse
	path := "/exercises/" + url.PathEscape(rec.ExerciseID) + "/sets"
	if err := m.do(ctx, "create set", http.MethodPost, path, rec, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (m *HTTPMirror) UpdateSet(ctx context.Context, id string, patch SetPatch) error {
	return m.do(ctx, "update set", http.MethodPatch, "/sets/"+url.PathEscape(id), patch, nil)
}

func (m *HTTPMirror) DeleteSet(ctx context.Context, id string) error {
	return m.do(ctx, "delete set", http.MethodDelete, "/sets/"+url.PathEscape(id), nil, nil)
}

func (m *HTTPMirror) ListSets(ctx context.Context, exerciseID string) ([]Set, error) {
	var out []Set
	path := "/exercises/" + url.PathEscape(exerciseID) + "/sets"
	if err := m.do(ctx, "list sets", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// do issues one request. No retries happen here.
func (m *HTTPMirror) do(ctx context.Context, op, method, path string, body, out any) error {
	if m.identity.Token == "" {
		return AuthRequired(op)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &RemoteError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+apiPrefix+path, reader)
	if err != nil {
		return &RemoteError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+m.identity.Token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return &RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return AuthRequired(op)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e errorResponse
		msg := http.StatusText(resp.StatusCode)
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Error != "" {
			msg = e.Error
		}
		return &RemoteError{Op: op, Status: resp.StatusCode, Err: errors.New(msg)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RemoteError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
