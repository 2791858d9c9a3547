// ABOUTME: User-facing training-log operations: write locally first, then propagate in the background.
// ABOUTME: Only local storage errors reach callers; sync failures are logged by the syncer.
package workouts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/storage"
	liftsync "github.com/harperreed/lift/internal/sync"
)

// ErrSyncDisabled is returned by explicit sync requests when no mirror is configured.
var ErrSyncDisabled = errors.New("sync is not configured")

// ErrInvalidInput reports a rejected argument.
var ErrInvalidInput = errors.New("invalid input")

// Service runs training-log operations against the local store and keeps the
// remote mirror eventually consistent.
type Service struct {
	store  storage.Repository
	syncer *liftsync.Syncer
	inline bool
	manual bool
	logger *log.Logger

	wg sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithSyncer enables propagation to a remote mirror.
func WithSyncer(s *liftsync.Syncer) Option {
	return func(svc *Service) {
		svc.syncer = s
	}
}

// Inline runs propagation synchronously inside each operation.
func Inline() Option {
	return func(svc *Service) {
		svc.inline = true
	}
}

// Manual turns off automatic propagation. Changes reach the mirror only
// through SyncNow.
func Manual() Option {
	return func(svc *Service) {
		svc.manual = true
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *log.Logger) Option {
	return func(svc *Service) {
		if logger != nil {
			svc.logger = logger
		}
	}
}

// New creates a Service over store.
func New(store storage.Repository, opts ...Option) *Service {
	svc := &Service{store: store, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// SyncEnabled reports whether a mirror is configured.
func (s *Service) SyncEnabled() bool {
	return s.syncer != nil
}

// Flush waits for every scheduled propagation to finish.
func (s *Service) Flush() {
	s.wg.Wait()
}

// schedule runs fn after the local write has returned. Propagation is never
// cancelled once started, so it runs on a fresh context.
func (s *Service) schedule(what string, fn func(ctx context.Context)) {
	if s.syncer == nil || s.manual {
		return
	}
	s.logger.Debug("scheduling propagation", "what", what)
	if s.inline {
		fn(context.Background())
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(context.Background())
	}()
}

func (s *Service) propagate(ref models.Ref) {
	s.schedule(ref.String(), func(ctx context.Context) {
		_, _ = s.syncer.Propagate(ctx, ref)
	})
}

func (s *Service) propagateTree(workoutID int64) {
	s.schedule(models.WorkoutRef(workoutID).String(), func(ctx context.Context) {
		_, _ = s.syncer.PropagateTree(ctx, workoutID)
	})
}

func (s *Service) pushFields(ref models.Ref, fields ...liftsync.Field) {
	s.schedule(ref.String(), func(ctx context.Context) {
		_, _ = s.syncer.PushFields(ctx, ref, fields...)
	})
}

func (s *Service) drainDeletes() {
	s.schedule("pending deletes", func(ctx context.Context) {
		_, _ = s.syncer.DrainTombstones(ctx)
	})
}

// StartWorkout creates the new active workout; any previously active one is ended.
func (s *Service) StartWorkout(ctx context.Context, name string) (*models.Workout, error) {
	if name == "" {
		name = "Workout " + time.Now().Format("2006-01-02")
	}
	previous, err := s.store.GetActiveWorkout(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	w := models.NewWorkout(name)
	if err := s.store.CreateWorkout(ctx, w); err != nil {
		return nil, err
	}

	if previous != nil {
		s.pushFields(previous.Ref(), liftsync.FieldActive)
	}
	s.propagate(w.Ref())
	return w, nil
}

// ActiveWorkout returns the workout in progress with its exercises and sets.
func (s *Service) ActiveWorkout(ctx context.Context) (*models.WorkoutDetail, error) {
	w, err := s.store.GetActiveWorkout(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.GetWorkoutDetail(ctx, w.ID)
}

// GetWorkout returns a workout with its exercises and sets.
func (s *Service) GetWorkout(ctx context.Context, id int64) (*models.WorkoutDetail, error) {
	return s.store.GetWorkoutDetail(ctx, id)
}

// ListWorkouts lists performed workouts, most recent first.
func (s *Service) ListWorkouts(ctx context.Context, limit int) ([]*models.Workout, error) {
	return s.store.ListWorkouts(ctx, storage.WorkoutFilter{Limit: limit})
}

// ListTemplates lists saved templates.
func (s *Service) ListTemplates(ctx context.Context) ([]*models.Workout, error) {
	return s.store.ListWorkouts(ctx, storage.WorkoutFilter{Templates: true})
}

// CountWorkouts counts performed workouts.
func (s *Service) CountWorkouts(ctx context.Context) (int, error) {
	return s.store.CountWorkouts(ctx, false)
}

// RenameWorkout changes a workout's name.
func (s *Service) RenameWorkout(ctx context.Context, id int64, name string) error {
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}
	if err := s.store.RenameWorkout(ctx, id, name); err != nil {
		return err
	}
	s.pushFields(models.WorkoutRef(id), liftsync.FieldName)
	return nil
}

// EndResult is the outcome of ending a workout.
type EndResult struct {
	Workout  *models.WorkoutDetail
	Template *models.WorkoutDetail
}

// EndWorkout marks a workout finished. With saveAsTemplate, a deep copy is
// kept as a template that shares no rows or remote records with the session.
// Ending and copying commit together or not at all.
func (s *Service) EndWorkout(ctx context.Context, id int64, saveAsTemplate bool, templateName string) (*EndResult, error) {
	result := &EndResult{}
	err := s.store.RunInTransaction(ctx, func(tx *storage.Tx) error {
		if err := tx.SetWorkoutActive(ctx, id, false); err != nil {
			return err
		}
		if !saveAsTemplate {
			return nil
		}
		tmpl, err := tx.DuplicateWorkout(ctx, id, storage.CopyOptions{
			Name:          templateName,
			AsTemplate:    true,
			KeepCompleted: true,
		})
		if err != nil {
			return err
		}
		result.Template = tmpl
		return nil
	})
	if err != nil {
		return nil, err
	}

	detail, err := s.store.GetWorkoutDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	result.Workout = detail

	s.propagateTree(id)
	if result.Template != nil {
		s.propagateTree(result.Template.ID)
	}
	return result, nil
}

// SaveAsTemplate copies any workout into a new template.
func (s *Service) SaveAsTemplate(ctx context.Context, id int64, name string) (*models.WorkoutDetail, error) {
	tmpl, err := s.store.DuplicateWorkout(ctx, id, storage.CopyOptions{
		Name:          name,
		AsTemplate:    true,
		KeepCompleted: true,
	})
	if err != nil {
		return nil, err
	}
	s.propagateTree(tmpl.ID)
	return tmpl, nil
}

// StartFromTemplate starts a new active workout copied from a template, with
// every set reset to not completed.
func (s *Service) StartFromTemplate(ctx context.Context, templateID int64, name string) (*models.WorkoutDetail, error) {
	tmpl, err := s.store.GetWorkout(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if !tmpl.IsTemplate {
		return nil, fmt.Errorf("%w: workout %d is not a template", ErrInvalidInput, templateID)
	}
	previous, err := s.store.GetActiveWorkout(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	w, err := s.store.DuplicateWorkout(ctx, templateID, storage.CopyOptions{Name: name, Active: true})
	if err != nil {
		return nil, err
	}
	if previous != nil {
		s.pushFields(previous.Ref(), liftsync.FieldActive)
	}
	s.propagateTree(w.ID)
	return w, nil
}

// DeleteWorkout deletes a workout with all of its exercises and sets.
func (s *Service) DeleteWorkout(ctx context.Context, id int64) error {
	return s.delete(ctx, models.WorkoutRef(id))
}

func (s *Service) delete(ctx context.Context, ref models.Ref) error {
	if s.syncer == nil {
		var err error
		switch ref.Kind {
		case models.KindWorkout:
			err = s.store.DeleteWorkout(ctx, ref.ID, nil)
		case models.KindExercise:
			err = s.store.DeleteExercise(ctx, ref.ID, nil)
		case models.KindSet:
			err = s.store.DeleteSet(ctx, ref.ID, nil)
		}
		return err
	}

	// A create still in flight would link after the tombstones are computed.
	s.Flush()
	pending, err := s.syncer.DeleteLocal(ctx, ref)
	if err != nil {
		return err
	}
	if pending > 0 {
		s.drainDeletes()
	}
	return nil
}

// AddExercise appends an exercise of a catalog type to a workout.
func (s *Service) AddExercise(ctx context.Context, workoutID int64, exerciseType string) (*models.Exercise, error) {
	created, err := s.AddExercises(ctx, workoutID, []string{exerciseType})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

// AddExercises appends several exercises at once; either all are added or none.
func (s *Service) AddExercises(ctx context.Context, workoutID int64, types []string) ([]*models.Exercise, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("%w: no exercise types given", ErrInvalidInput)
	}
	for _, t := range types {
		if _, err := s.store.GetExerciseType(ctx, t); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown exercise type %q", ErrInvalidInput, t)
			}
			return nil, err
		}
	}

	created, err := s.store.AddExercises(ctx, workoutID, types)
	if err != nil {
		return nil, err
	}
	for _, e := range created {
		s.propagate(e.Ref())
	}
	return created, nil
}

// ReorderExercises sets the exercise order of a workout atomically.
func (s *Service) ReorderExercises(ctx context.Context, workoutID int64, orderedIDs []int64) error {
	current, err := s.store.ListExercises(ctx, workoutID)
	if err != nil {
		return err
	}
	if len(current) != len(orderedIDs) {
		return fmt.Errorf("%w: expected %d exercise ids, got %d", ErrInvalidInput, len(current), len(orderedIDs))
	}
	seen := make(map[int64]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if seen[id] {
			return fmt.Errorf("%w: exercise %d listed twice", ErrInvalidInput, id)
		}
		seen[id] = true
	}

	if err := s.store.ReorderExercises(ctx, workoutID, orderedIDs); err != nil {
		return err
	}
	position := make(map[int64]int, len(orderedIDs))
	for i, id := range orderedIDs {
		position[id] = i
	}
	for _, e := range current {
		if e.Order != position[e.ID] {
			s.pushFields(e.Ref(), liftsync.FieldOrder)
		}
	}
	return nil
}

// MoveExercise moves one exercise to a zero-based position within its workout.
func (s *Service) MoveExercise(ctx context.Context, exerciseID int64, position int) error {
	e, err := s.store.GetExercise(ctx, exerciseID)
	if err != nil {
		return err
	}
	current, err := s.store.ListExercises(ctx, e.WorkoutID)
	if err != nil {
		return err
	}
	if position < 0 || position >= len(current) {
		return fmt.Errorf("%w: position %d out of range 0-%d", ErrInvalidInput, position, len(current)-1)
	}

	ids := make([]int64, 0, len(current))
	for _, c := range current {
		if c.ID != exerciseID {
			ids = append(ids, c.ID)
		}
	}
	ids = append(ids[:position], append([]int64{exerciseID}, ids[position:]...)...)
	return s.ReorderExercises(ctx, e.WorkoutID, ids)
}

// DeleteExercise deletes an exercise and its sets.
func (s *Service) DeleteExercise(ctx context.Context, id int64) error {
	return s.delete(ctx, models.ExerciseRef(id))
}

// AddSet adds a set to an exercise.
func (s *Service) AddSet(ctx context.Context, exerciseID int64, weight *float64, reps *int, completed bool) (*models.WorkoutSet, error) {
	if weight != nil && *weight < 0 {
		return nil, fmt.Errorf("%w: weight must not be negative", ErrInvalidInput)
	}
	if reps != nil && *reps < 0 {
		return nil, fmt.Errorf("%w: reps must not be negative", ErrInvalidInput)
	}
	ws := models.NewWorkoutSet(exerciseID).WithCompleted(completed)
	ws.Weight = weight
	ws.Reps = reps
	if err := s.store.CreateSet(ctx, ws); err != nil {
		return nil, err
	}
	s.propagate(ws.Ref())
	return ws, nil
}

// UpdateSet changes a set's weight, reps or completion.
func (s *Service) UpdateSet(ctx context.Context, id int64, u storage.SetUpdate) error {
	if u.Weight != nil && *u.Weight < 0 {
		return fmt.Errorf("%w: weight must not be negative", ErrInvalidInput)
	}
	if u.Reps != nil && *u.Reps < 0 {
		return fmt.Errorf("%w: reps must not be negative", ErrInvalidInput)
	}
	if err := s.store.UpdateSet(ctx, id, u); err != nil {
		return err
	}
	if u.Empty() {
		return nil
	}

	var fields []liftsync.Field
	if u.Weight != nil {
		fields = append(fields, liftsync.FieldWeight)
	}
	if u.Reps != nil {
		fields = append(fields, liftsync.FieldReps)
	}
	if u.Completed != nil {
		fields = append(fields, liftsync.FieldCompleted)
	}
	s.pushFields(models.SetRef(id), fields...)
	return nil
}

// CompleteSet marks a set done or not done.
func (s *Service) CompleteSet(ctx context.Context, id int64, done bool) error {
	return s.UpdateSet(ctx, id, storage.SetUpdate{Completed: &done})
}

// DeleteSet deletes a set.
func (s *Service) DeleteSet(ctx context.Context, id int64) error {
	return s.delete(ctx, models.SetRef(id))
}

// ListExerciseTypes searches the exercise catalog.
func (s *Service) ListExerciseTypes(ctx context.Context, search string) ([]*models.ExerciseType, error) {
	return s.store.ListExerciseTypes(ctx, search)
}

// GetExerciseType returns one catalog entry.
func (s *Service) GetExerciseType(ctx context.Context, id string) (*models.ExerciseType, error) {
	return s.store.GetExerciseType(ctx, id)
}

// SyncStatus counts rows still waiting on the mirror.
func (s *Service) SyncStatus(ctx context.Context) (*storage.SyncSummary, error) {
	return s.store.SyncSummary(ctx)
}

// SyncNow runs a reconciliation sweep synchronously.
func (s *Service) SyncNow(ctx context.Context) (liftsync.SweepReport, error) {
	if s.syncer == nil {
		return liftsync.SweepReport{}, ErrSyncDisabled
	}
	s.Flush()
	return s.syncer.SweepAll(ctx)
}

// Pull seeds the local store with remote records it does not have.
func (s *Service) Pull(ctx context.Context) (liftsync.PullReport, error) {
	if s.syncer == nil {
		return liftsync.PullReport{}, ErrSyncDisabled
	}
	s.Flush()
	return s.syncer.PullRemote(ctx)
}
