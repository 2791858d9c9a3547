// ABOUTME: In-memory Mirror for tests with per-operation call counters and failure injection.
// ABOUTME: Deduplicates creates by external id and never cascades deletes, like the real server.
package remotetest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/harperreed/lift/internal/remote"
)

// Operation names used for call counting and failure injection.
const (
	OpCreateWorkout  = "create_workout"
	OpUpdateWorkout  = "update_workout"
	OpDeleteWorkout  = "delete_workout"
	OpListWorkouts   = "list_workouts"
	OpCreateExercise = "create_exercise"
	OpUpdateExercise = "update_exercise"
	OpDeleteExercise = "delete_exercise"
	OpListExercises  = "list_exercises"
	OpCreateSet      = "create_set"
	OpUpdateSet      = "update_set"
	OpDeleteSet      = "delete_set"
	OpListSets       = "list_sets"
)

// Memory is a thread-safe in-memory Mirror.
type Memory struct {
	mu sync.Mutex

	user       string
	nextID     int
	workouts   map[string]remote.Workout
	exercises  map[string]remote.Exercise
	sets       map[string]remote.Set
	byExternal map[string]string

	calls    map[string]int
	failNext map[string][]error
	failAll  error

	// BeforeCall, when set, runs at the start of every call outside the lock.
	BeforeCall func(op string)
}

// Compile-time check that Memory implements Mirror.
var _ remote.Mirror = (*Memory)(nil)

// NewMemory creates an empty mirror signed in as "test-user".
func NewMemory() *Memory {
	return &Memory{
		user:       "test-user",
		workouts:   make(map[string]remote.Workout),
		exercises:  make(map[string]remote.Exercise),
		sets:       make(map[string]remote.Set),
		byExternal: make(map[string]string),
		calls:      make(map[string]int),
		failNext:   make(map[string][]error),
	}
}

// SetUser changes the signed-in user; empty signs out.
func (m *Memory) SetUser(user string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = user
}

// FailNext makes the next call of op return err.
func (m *Memory) FailNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext[op] = append(m.failNext[op], err)
}

// FailAll makes every call return err until cleared with nil.
func (m *Memory) FailAll(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAll = err
}

// Calls returns how many times op was invoked.
func (m *Memory) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// TotalCalls returns the number of invocations across all operations.
func (m *Memory) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

// ResetCalls zeroes the call counters.
func (m *Memory) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = make(map[string]int)
}

// Counts returns the number of stored workouts, exercises and sets.
func (m *Memory) Counts() (workouts, exercises, sets int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workouts), len(m.exercises), len(m.sets)
}

// Workout returns a stored workout.
func (m *Memory) Workout(id string) (remote.Workout, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workouts[id]
	return w, ok
}

// Exercise returns a stored exercise.
func (m *Memory) Exercise(id string) (remote.Exercise, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exercises[id]
	return e, ok
}

// Set returns a stored set.
func (m *Memory) Set(id string) (remote.Set, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sets[id]
	return s, ok
}

// begin records the call and returns any injected failure. Callers hold m.mu.
func (m *Memory) begin(op string) error {
	m.calls[op]++
	if m.user == "" {
		return remote.AuthRequired(op)
	}
	if m.failAll != nil {
		return m.failAll
	}
	if queue := m.failNext[op]; len(queue) > 0 {
		m.failNext[op] = queue[1:]
		return queue[0]
	}
	return nil
}

func (m *Memory) enter(op string) error {
	if m.BeforeCall != nil {
		m.BeforeCall(op)
	}
	m.mu.Lock()
	return m.begin(op)
}

func (m *Memory) newID(kind string) string {
	m.nextID++
	return fmt.Sprintf("%s-%06d", kind, m.nextID)
}

// UserID returns the signed-in user.
func (m *Memory) UserID(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == "" {
		return "", remote.AuthRequired("identity")
	}
	return m.user, nil
}

func (m *Memory) CreateWorkout(_ context.Context, rec remote.WorkoutRecord) (string, error) {
	err := m.enter(OpCreateWorkout)
	defer m.mu.Unlock()
	if err != nil {
		return "", err
	}
	if id, ok := m.byExternal[rec.ExternalID]; ok && rec.ExternalID != "" {
		return id, nil
	}
	id := m.newID("w")
	m.workouts[id] = remote.Workout{ID: id, WorkoutRecord: rec}
	m.byExternal[rec.ExternalID] = id
	return id, nil
}

func (m *Memory) UpdateWorkout(_ context.Context, id string, patch remote.WorkoutPatch) error {
	err := m.enter(OpUpdateWorkout)
	defer m.mu.Unlock()
	if err != nil {
		return err
	}
	w, ok := m.workouts[id]
	if !ok {
		return remote.NotFound("update workout", id)
	}
	patch.Apply(&w.WorkoutRecord)
	m.workouts[id] = w
	return nil
}

func (m *Memory) DeleteWorkout(_ context.Context, id string) error {
	err := m.enter(OpDeleteWorkout)
	defer m.mu.Unlock()
	if err != nil {
		return err
	}
	w, ok := m.workouts[id]
	if !ok {
		return remote.NotFound("delete workout", id)
	}
	delete(m.byExternal, w.ExternalID)
	delete(m.workouts, id)
	return nil
}

func (m *Memory) ListWorkouts(_ context.Context) ([]remote.Workout, error) {
	err := m.enter(OpListWorkouts)
	defer m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]remote.Workout, 0, len(m.workouts))
	for _, w := range m.workouts {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *Memory) CreateExercise(_ context.Context, rec remote.ExerciseRecord) (string, error) {
	err := m.enter(OpCreateExercise)
	defer m.mu.Unlock()
	if err != nil {
		return "", err
	}
	if _, ok := m.workouts[rec.WorkoutID]; !ok {
		return "", remote.NotFound("create exercise", rec.WorkoutID)
	}
	if id, ok := m.byExternal[rec.ExternalID]; ok && rec.ExternalID != "" {
		return id, nil
	}
	id := m.newID("e")
	m.exercises[id] = remote.Exercise{ID: id, ExerciseRecord: rec}
	m.byExternal[rec.ExternalID] = id
	return id, nil
}

func (m *Memory) UpdateExercise(_ context.Context, id string, patch remote.ExercisePatch) error {
	err := m.enter(OpUpdateExercise)
	defer m.mu.Unlock()
	if err != nil {
		return err
	}
	e, ok := m.exercises[id]
	if !ok {
		return remote.NotFound("update exercise", id)
	}
	patch.Apply(&e.ExerciseRecord)
	m.exercises[id] = e
	return nil
}

func (m *Memory) DeleteExercise(_ context.Context, id string) error {
	err := m.enter(OpDeleteExercise)
	defer m.mu.Unlock()
	if err != nil {
		return err
	}
	e, ok := m.exercises[id]
	if !ok {
		return remote.NotFound("delete exercise", id)
	}
	delete(m.byExternal, e.ExternalID)
	delete(m.exercises, id)
	return nil
}

func (m *Memory) ListExercises(_ context.Context, workoutID string) ([]remote.Exercise, error) {
	err := m.enter(OpListExercises)
	defer m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	var out []remote.Exercise
	for _, e := range m.exercises {
		if e.WorkoutID == workoutID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (m *Memory) CreateSet(_ context.Context, rec remote.SetRecord) (string, error) {
	err := m.enter(OpCreateSet)
	defer m.mu.Unlock()
	if err != nil {
		return "", err
	}
	if _, ok := m.exercises[rec.ExerciseID]; !ok {
		return "", remote.NotFound("create set", rec.ExerciseID)
	}
	if id, ok := m.byExternal[rec.ExternalID]; ok && rec.ExternalID != "" {
		return id, nil
	}
	id := m.newID("s")
	m.sets[id] = remote.Set{ID: id, SetRecord: rec}
	m.byExternal[rec.ExternalID] = id
	return id, nil
}

func (m *Memory) UpdateSet(_ context.Context, id string, patch remote.SetPatch) error {
	err := m.enter(OpUpdateSet)
	defer m.mu.Unlock()
	if err != nil {
		return err
	}
	s, ok := m.sets[id]
	if !ok {
		return remote.NotFound("update set", id)
	}
	patch.Apply(&s.SetRecord)
	m.sets[id] = s
	return nil
}

func (m *Memory) DeleteSet(_ context.Context, id string) error {
	err := m.enter(OpDeleteSet)
	defer m.mu.Unlock()
	if err != nil {
		return err
	}
	s, ok := m.sets[id]
	if !ok {
		return remote.NotFound("delete set", id)
	}
	delete(m.byExternal, s.ExternalID)
	delete(m.sets, id)
	return nil
}

func (m *Memory) ListSets(_ context.Context, exerciseID string) ([]remote.Set, error) {
	err := m.enter(OpListSets)
	defer m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	var out []remote.Set
	for _, s := range m.sets {
		if s.ExerciseID == exerciseID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
