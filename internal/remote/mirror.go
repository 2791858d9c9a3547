// ABOUTME: Remote Mirror contract shared by every backend and the mirror server.
// ABOUTME: One create/update/delete/list call per synced entity kind, single attempt, no retries.
package remote

import (
	"context"
	"time"
)

// WorkoutRecord is the mirrored state of a workout.
type WorkoutRecord struct {
	ExternalID string    `json:"external_id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Active     bool      `json:"active"`
	IsTemplate bool      `json:"is_template"`
}

// Workout is a workout as stored remotely.
type Workout struct {
	ID string `json:"id"`
	WorkoutRecord
}

// WorkoutPatch is a field-scoped workout update; nil fields are unchanged.
type WorkoutPatch struct {
	Name       *string    `json:"name,omitempty"`
	StartTime  *time.Time `json:"start_time,omitempty"`
	Active     *bool      `json:"active,omitempty"`
	IsTemplate *bool      `json:"is_template,omitempty"`
}

// ExerciseRecord is the mirrored state of an exercise. WorkoutID is the
// parent's remote id.
type ExerciseRecord struct {
	ExternalID string `json:"external_id"`
	WorkoutID  string `json:"workout_id"`
	Type       string `json:"type"`
	Order      int    `json:"order"`
}

// Exercise is an exercise as stored remotely.
type Exercise struct {
	ID string `json:"id"`
	ExerciseRecord
}

// ExercisePatch is a field-scoped exercise update.
type ExercisePatch struct {
	Type  *string `json:"type,omitempty"`
	Order *int    `json:"order,omitempty"`
}

// SetRecord is the mirrored state of a set. ExerciseID is the parent's remote id.
type SetRecord struct {
	ExternalID string   `json:"external_id"`
	ExerciseID string   `json:"exercise_id"`
	Weight     *float64 `json:"weight,omitempty"`
	Reps       *int     `json:"reps,omitempty"`
	Completed  bool     `json:"completed"`
}

// Set is a set as stored remotely.
type Set struct {
	ID string `json:"id"`
	SetRecord
}

// SetPatch is a field-scoped set update.
type SetPatch struct {
	Weight    *float64 `json:"weight,omitempty"`
	Reps      *int     `json:"reps,omitempty"`
	Completed *bool    `json:"completed,omitempty"`
}

// Identity reports the authenticated user every mirror call is scoped to.
type Identity interface {
	// UserID returns the current user, or an error wrapping ErrAuthRequired.
	UserID(ctx context.Context) (string, error)
}

// Mirror is the remote replica. Every call is a single attempt that either
// fully succeeds or returns an error; retry policy belongs to the caller.
// Creates are deduplicated by ExternalID: repeating a create returns the id
// of the record made the first time.
type Mirror interface {
	Identity

	CreateWorkout(ctx context.Context, rec WorkoutRecord) (string, error)
	UpdateWorkout(ctx context.Context, id string, patch WorkoutPatch) error
	DeleteWorkout(ctx context.Context, id string) error
	ListWorkouts(ctx context.Context) ([]Workout, error)

	CreateExercise(ctx context.Context, rec ExerciseRecord) (string, error)
	UpdateExercise(ctx context.Context, id string, patch ExercisePatch) error
	DeleteExercise(ctx context.Context, id string) error
	ListExercises(ctx context.Context, workoutID string) ([]Exercise, error)

	CreateSet(ctx context.Context, rec SetRecord) (string, error)
	UpdateSet(ctx context.Context, id string, patch SetPatch) error
	DeleteSet(ctx context.Context, id string) error
	ListSets(ctx context.Context, exerciseID string) ([]Set, error)
}

// FullWorkoutPatch builds a patch carrying every mirrored workout field.
func FullWorkoutPatch(rec WorkoutRecord) WorkoutPatch {
	return WorkoutPatch{
		Name:       &rec.Name,
		StartTime:  &rec.StartTime,
		Active:     &rec.Active,
		IsTemplate: &rec.IsTemplate,
	}
}

// FullExercisePatch builds a patch carrying every mirrored exercise field.
func FullExercisePatch(rec ExerciseRecord) ExercisePatch {
	return ExercisePatch{Type: &rec.Type, Order: &rec.Order}
}

// FullSetPatch builds a patch carrying every mirrored set field.
func FullSetPatch(rec SetRecord) SetPatch {
	return SetPatch{Weight: rec.Weight, Reps: rec.Reps, Completed: &rec.Completed}
}

// Apply copies the patch's set fields onto rec.
func (p WorkoutPatch) Apply(rec *WorkoutRecord) {
	if p.Name != nil {
		rec.Name = *p.Name
	}
	if p.StartTime != nil {
		rec.StartTime = *p.StartTime
	}
	if p.Active != nil {
		rec.Active = *p.Active
	}
	if p.IsTemplate != nil {
		rec.IsTemplate = *p.IsTemplate
	}
}

// Apply copies the patch's set fields onto rec.
func (p ExercisePatch) Apply(rec *ExerciseRecord) {
	if p.Type != nil {
		rec.Type = *p.Type
	}
	if p.Order != nil {
		rec.Order = *p.Order
	}
}

// Apply copies the patch's set fields onto rec.
func (p SetPatch) Apply(rec *SetRecord) {
	if p.Weight != nil {
		w := *p.Weight
		rec.Weight = &w
	}
	if p.Reps != nil {
		r := *p.Reps
		rec.Reps = &r
	}
	if p.Completed != nil {
		rec.Completed = *p.Completed
	}
}
