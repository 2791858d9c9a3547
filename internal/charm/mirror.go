// ABOUTME: Remote mirror backend storing workouts, exercises and sets in Charm KV.
// ABOUTME: Records are JSON keyed by external id, so repeated creates land on the same key.
package charm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/lift/internal/remote"
)

// Mirror implements remote.Mirror over a Charm KV client. The remote id of a
// record is its external id.
type Mirror struct {
	client   *Client
	identify func(ctx context.Context) (string, error)
}

// MirrorOption configures a Mirror.
type MirrorOption func(*Mirror)

// WithIdentity overrides how the Charm account is resolved.
func WithIdentity(fn func(ctx context.Context) (string, error)) MirrorOption {
	return func(m *Mirror) {
		m.identify = fn
	}
}

// NewMirror creates a mirror over client.
func NewMirror(client *Client, opts ...MirrorOption) *Mirror {
	m := &Mirror{
		client: client,
		identify: func(context.Context) (string, error) {
			return AccountID()
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ remote.Mirror = (*Mirror)(nil)

// UserID returns the Charm account id.
func (m *Mirror) UserID(ctx context.Context) (string, error) {
	id, err := m.identify(ctx)
	if err != nil || id == "" {
		return "", remote.AuthRequired("charm identity")
	}
	return id, nil
}

func (m *Mirror) authorize(ctx context.Context, op string) error {
	if _, err := m.UserID(ctx); err != nil {
		return remote.AuthRequired(op)
	}
	return nil
}

func failed(op string, err error) error {
	if errors.Is(err, errReadOnly) {
		return &remote.RemoteError{Op: op, Status: http.StatusConflict, Err: err}
	}
	return &remote.RemoteError{Op: op, Err: err}
}

func load[T any](c *Client, op, key, id string) (*T, error) {
	data, err := c.get(key)
	if errors.Is(err, errNoKey) {
		return nil, remote.NotFound(op, id)
	}
	if err != nil {
		return nil, failed(op, err)
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, failed(op, fmt.Errorf("decode %s: %w", key, err))
	}
	return &v, nil
}

func save(c *Client, op, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return failed(op, fmt.Errorf("encode %s: %w", key, err))
	}
	if err := c.set(key, data); err != nil {
		return failed(op, err)
	}
	return nil
}

func remove(c *Client, op, key, id string) error {
	if _, err := c.get(key); err != nil {
		if errors.Is(err, errNoKey) {
			return remote.NotFound(op, id)
		}
		return failed(op, err)
	}
	if err := c.delete(key); err != nil {
		return failed(op, err)
	}
	return nil
}

func list[T any](c *Client, op, prefix string, keep func(*T) bool) ([]T, error) {
	values, err := c.listByPrefix(prefix)
	if err != nil {
		return nil, failed(op, err)
	}
	out := []T{}
	for _, data := range values {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			continue
		}
		if keep == nil || keep(&v) {
			out = append(out, v)
		}
	}
	return out, nil
}

func checkExternalID(op, externalID string) error {
	if _, err := uuid.Parse(externalID); err != nil {
		return &remote.RemoteError{Op: op, Status: http.StatusBadRequest, Err: fmt.Errorf("invalid external id %q", externalID)}
	}
	return nil
}

// CreateWorkout stores a workout under its external id.
func (m *Mirror) CreateWorkout(ctx context.Context, rec remote.WorkoutRecord) (string, error) {
	const op = "create workout"
	if err := m.authorize(ctx, op); err != nil {
		return "", err
	}
	if err := checkExternalID(op, rec.ExternalID); err != nil {
		return "", err
	}
	key := WorkoutPrefix + rec.ExternalID
	if existing, err := load[remote.Workout](m.client, op, key, rec.ExternalID); err == nil {
		return existing.ID, nil
	}
	w := remote.Workout{ID: rec.ExternalID, WorkoutRecord: rec}
	if err := save(m.client, op, key, w); err != nil {
		return "", err
	}
	return w.ID, nil
}

// UpdateWorkout applies a field-scoped patch.
func (m *Mirror) UpdateWorkout(ctx context.Context, id string, patch remote.WorkoutPatch) error {
	const op = "update workout"
	if err := m.authorize(ctx, op); err != nil {
		return err
	}
	key := WorkoutPrefix + id
	w, err := load[remote.Workout](m.client, op, key, id)
	if err != nil {
		return err
	}
	patch.Apply(&w.WorkoutRecord)
	return save(m.client, op, key, w)
}

// DeleteWorkout removes a workout record; children are left to the caller.
func (m *Mirror) DeleteWorkout(ctx context.Context, id string) error {
	const op = "delete workout"
	if err := m.authorize(ctx, op); err != nil {
		return err
	}
	return remove(m.client, op, WorkoutPrefix+id, id)
}

// ListWorkouts returns every workout ordered by start time.
func (m *Mirror) ListWorkouts(ctx context.Context) ([]remote.Workout, error) {
	const op = "list workouts"
	if err := m.authorize(ctx, op); err != nil {
		return nil, err
	}
	out, err := list[remote.Workout](m.client, op, WorkoutPrefix, nil)
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

// CreateExercise stores an exercise; the parent workout must exist.
func (m *Mirror) CreateExercise(ctx context.Context, rec remote.ExerciseRecord) (string, error) {
	const op = "create exercise"
	if err := m.authorize(ctx, op); err != nil {
		return "", err
	}
	if err := checkExternalID(op, rec.ExternalID); err != nil {
		return "", err
	}
	key := ExercisePrefix + rec.ExternalID
	if existing, err := load[remote.Exercise](m.client, op, key, rec.ExternalID); err == nil {
		return existing.ID, nil
	}
	if _, err := load[remote.Workout](m.client, op, WorkoutPrefix+rec.WorkoutID, rec.WorkoutID); err != nil {
		return "", err
	}
	e := remote.Exercise{ID: rec.ExternalID, ExerciseRecord: rec}
	if err := save(m.client, op, key, e); err != nil {
		return "", err
	}
	return e.ID, nil
}

// UpdateExercise applies a field-scoped patch.
func (m *Mirror) UpdateExercise(ctx context.Context, id string, patch remote.ExercisePatch) error {
	const op = "update exercise"
	if err := m.authorize(ctx, op); err != nil {
		return err
	}
	key := ExercisePrefix + id
	e, err := load[remote.Exercise](m.client, op, key, id)
	if err != nil {
		return err
	}
	patch.Apply(&e.ExerciseRecord)
	return save(m.client, op, key, e)
}

// DeleteExercise removes an exercise record.
func (m *Mirror) DeleteExercise(ctx context.Context, id string) error {
	const op = "delete exercise"
	if err := m.authorize(ctx, op); err != nil {
		return err
	}
	return remove(m.client, op, ExercisePrefix+id, id)
}

// ListExercises returns a workout's exercises in order.
func (m *Mirror) ListExercises(ctx context.Context, workoutID string) ([]remote.Exercise, error) {
	const op = "list exercises"
	if err := m.authorize(ctx, op); err != nil {
		return nil, err
	}
	out, err := list(m.client, op, ExercisePrefix, func(e *remote.Exercise) bool {
		return e.WorkoutID == workoutID
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order == out[j].Order {
			return out[i].ID < out[j].ID
		}
		return out[i].Order < out[j].Order
	})
	return out, nil
}

// storedSet keeps the creation time so sets list in the order they were logged.
type storedSet struct {
	remote.Set
	CreatedAt time.Time `json:"created_at"`
}

// CreateSet stores a set; the parent exercise must exist.
func (m *Mirror) CreateSet(ctx context.Context, rec remote.SetRecord) (string, error) {
	const op = "create set"
	if err := m.authorize(ctx, op); err != nil {
		return "", err
	}
	if err := checkExternalID(op, rec.ExternalID); err != nil {
		return "", err
	}
	key := SetPrefix + rec.ExternalID
	if existing, err := load[storedSet](m.client, op, key, rec.ExternalID); err == nil {
		return existing.ID, nil
	}
	if _, err := load[remote.Exercise](m.client, op, ExercisePrefix+rec.ExerciseID, rec.ExerciseID); err != nil {
		return "", err
	}
	s := storedSet{Set: remote.Set{ID: rec.ExternalID, SetRecord: rec}, CreatedAt: time.Now().UTC()}
	if err := save(m.client, op, key, s); err != nil {
		return "", err
	}
	return s.ID, nil
}

// UpdateSet applies a field-scoped patch.
func (m *Mirror) UpdateSet(ctx context.Context, id string, patch remote.SetPatch) error {
	const op = "update set"
	if err := m.authorize(ctx, op); err != nil {
		return err
	}
	key := SetPrefix + id
	s, err := load[storedSet](m.client, op, key, id)
	if err != nil {
		return err
	}
	patch.Apply(&s.SetRecord)
	return save(m.client, op, key, s)
}

// DeleteSet removes a set record.
func (m *Mirror) DeleteSet(ctx context.Context, id string) error {
	const op = "delete set"
	if err := m.authorize(ctx, op); err != nil {
		return err
	}
	return remove(m.client, op, SetPrefix+id, id)
}

// ListSets returns an exercise's sets in creation order.
func (m *Mirror) ListSets(ctx context.Context, exerciseID string) ([]remote.Set, error) {
	const op = "list sets"
	if err := m.authorize(ctx, op); err != nil {
		return nil, err
	}
	stored, err := list(m.client, op, SetPrefix, func(s *storedSet) bool {
		return s.ExerciseID == exerciseID
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(stored, func(i, j int) bool {
		if stored[i].CreatedAt.Equal(stored[j].CreatedAt) {
			return stored[i].ID < stored[j].ID
		}
		return stored[i].CreatedAt.Before(stored[j].CreatedAt)
	})
	out := make([]remote.Set, 0, len(stored))
	for _, s := range stored {
		out = append(out, s.Set)
	}
	return out, nil
}
