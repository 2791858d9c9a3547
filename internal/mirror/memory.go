// ABOUTME: In-memory mirror Store for development servers and tests.
// ABOUTME: Lists are ordered the same way as the database-backed stores.
package mirror

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/harperreed/lift/internal/remote"
)

type owned[T any] struct {
	user string
	seq  int64
	rec  T
}

// MemoryStore keeps every record in maps guarded by one mutex.
type MemoryStore struct {
	mu         sync.Mutex
	seq        int64
	workouts   map[string]*owned[remote.Workout]
	exercises  map[string]*owned[remote.Exercise]
	sets       map[string]*owned[remote.Set]
	byExternal map[string]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		workouts:   make(map[string]*owned[remote.Workout]),
		exercises:  make(map[string]*owned[remote.Exercise]),
		sets:       make(map[string]*owned[remote.Set]),
		byExternal: make(map[string]string),
	}
}

var _ Store = (*MemoryStore)(nil)

func externalKey(kind, user, externalID string) string {
	return kind + "\x00" + user + "\x00" + externalID
}

// lookup returns the record only if user owns it.
func lookup[T any](m map[string]*owned[T], user, id string) (*owned[T], bool) {
	o, ok := m[id]
	if !ok || o.user != user {
		return nil, false
	}
	return o, true
}

func (s *MemoryStore) next() int64 {
	s.seq++
	return s.seq
}

func (s *MemoryStore) CreateWorkout(_ context.Context, userID string, rec remote.WorkoutRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := externalKey("workout", userID, rec.ExternalID)
	if id, ok := s.byExternal[key]; ok {
		return id, nil
	}
	id := uuid.NewString()
	s.workouts[id] = &owned[remote.Workout]{user: userID, seq: s.next(), rec: remote.Workout{ID: id, WorkoutRecord: rec}}
	s.byExternal[key] = id
	return id, nil
}

func (s *MemoryStore) UpdateWorkout(_ context.Context, userID, id string, patch remote.WorkoutPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := lookup(s.workouts, userID, id)
	if !ok {
		return ErrNotFound
	}
	patch.Apply(&o.rec.WorkoutRecord)
	return nil
}

func (s *MemoryStore) DeleteWorkout(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := lookup(s.workouts, userID, id)
	if !ok {
		return ErrNotFound
	}
	delete(s.workouts, id)
	delete(s.byExternal, externalKey("workout", userID, o.rec.ExternalID))
	return nil
}

func (s *MemoryStore) ListWorkouts(_ context.Context, userID string) ([]remote.Workout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []remote.Workout{}
	for _, o := range s.workouts {
		if o.user == userID {
			out = append(out, o.rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

func (s *MemoryStore) CreateExercise(_ context.Context, userID string, rec remote.ExerciseRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := externalKey("exercise", userID, rec.ExternalID)
	if id, ok := s.byExternal[key]; ok {
		return id, nil
	}
	if _, ok := lookup(s.workouts, userID, rec.WorkoutID); !ok {
		return "", ErrNotFound
	}
	id := uuid.NewString()
	s.exercises[id] = &owned[remote.Exercise]{user: userID, seq: s.next(), rec: remote.Exercise{ID: id, ExerciseRecord: rec}}
	s.byExternal[key] = id
	return id, nil
}

func (s *MemoryStore) UpdateExercise(_ context.Context, userID, id string, patch remote.ExercisePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := lookup(s.exercises, userID, id)
	if !ok {
		return ErrNotFound
	}
	patch.Apply(&o.rec.ExerciseRecord)
	return nil
}

func (s *MemoryStore) DeleteExercise(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := lookup(s.exercises, userID, id)
	if !ok {
		return ErrNotFound
	}
	delete(s.exercises, id)
	delete(s.byExternal, externalKey("exercise", userID, o.rec.ExternalID))
	return nil
}

func (s *MemoryStore) ListExercises(_ context.Context, userID, workoutID string) ([]remote.Exercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := lookup(s.workouts, userID, workoutID); !ok {
		return nil, ErrNotFound
	}
	var found []*owned[remote.Exercise]
	for _, o := range s.exercises {
		if o.user == userID && o.rec.WorkoutID == workoutID {
			found = append(found, o)
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].rec.Order == found[j].rec.Order {
			return found[i].seq < found[j].seq
		}
		return found[i].rec.Order < found[j].rec.Order
	})
	out := make([]remote.Exercise, 0, len(found))
	for _, o := range found {
		out = append(out, o.rec)
	}
	return out, nil
}

func (s *MemoryStore) CreateSet(_ context.Context, userID string, rec remote.SetRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := externalKey("set", userID, rec.ExternalID)
	if id, ok := s.byExternal[key]; ok {
		return id, nil
	}
	if _, ok := lookup(s.exercises, userID, rec.ExerciseID); !ok {
		return "", ErrNotFound
	}
	id := uuid.NewString()
	s.sets[id] = &owned[remote.Set]{user: userID, seq: s.next(), rec: remote.Set{ID: id, SetRecord: rec}}
	s.byExternal[key] = id
	return id, nil
}

func (s *MemoryStore) UpdateSet(_ context.Context, userID, id string, patch remote.SetPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := lookup(s.sets, userID, id)
	if !ok {
		return ErrNotFound
	}
	patch.Apply(&o.rec.SetRecord)
	return nil
}

func (s *MemoryStore) DeleteSet(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := lookup(s.sets, userID, id)
	if !ok {
		return ErrNotFound
	}
	delete(s.sets, id)
	delete(s.byExternal, externalKey("set", userID, o.rec.ExternalID))
	return nil
}

func (s *MemoryStore) ListSets(_ context.Context, userID, exerciseID string) ([]remote.Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := lookup(s.exercises, userID, exerciseID); !ok {
		return nil, ErrNotFound
	}
	var found []*owned[remote.Set]
	for _, o := range s.sets {
		if o.user == userID && o.rec.ExerciseID == exerciseID {
			found = append(found, o)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].seq < found[j].seq })
	out := make([]remote.Set, 0, len(found))
	for _, o := range found {
		out = append(out, o.rec)
	}
	return out, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
