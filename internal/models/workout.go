// ABOUTME: Workout, Exercise and WorkoutSet models for the local-first training log.
// ABOUTME: Each synced row carries a SyncState linking it to its remote mirror record.
package models

import (
	"time"
)

// SyncState is the replication bookkeeping shared by every synced row.
//
// Revision is bumped by each local change to a mirrored field. SyncedRevision
// records the revision last confirmed by the remote mirror. A row is synced
// when it has a remote identity and nothing changed since the last push.
type SyncState struct {
	RemoteID       *string `json:"remote_id,omitempty" yaml:"remote_id,omitempty"`
	Revision       int64   `json:"revision" yaml:"revision"`
	SyncedRevision int64   `json:"synced_revision" yaml:"synced_revision"`
}

// Synced reports whether the current local state has a faithful remote counterpart.
func (s SyncState) Synced() bool {
	return s.RemoteID != nil && s.SyncedRevision == s.Revision
}

// Linked reports whether the row has a remote identity, synced or not.
func (s SyncState) Linked() bool {
	return s.RemoteID != nil
}

// RemoteIDOrEmpty returns the remote id, or "" when the row was never linked.
func (s SyncState) RemoteIDOrEmpty() string {
	if s.RemoteID == nil {
		return ""
	}
	return *s.RemoteID
}

// Workout is a performed session or, when IsTemplate is set, a reusable blueprint.
type Workout struct {
	ID         int64     `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	StartTime  time.Time `json:"start_time" yaml:"start_time"`
	Active     bool      `json:"active" yaml:"active"`
	IsTemplate bool      `json:"is_template" yaml:"is_template"`
	SyncState  `yaml:",inline"`

	// ExerciseNames is populated by list queries, in exercise order.
	ExerciseNames []string `json:"exercise_names,omitempty" yaml:"exercise_names,omitempty"`
}

// NewWorkout creates an active, unsynced workout starting now.
func NewWorkout(name string) *Workout {
	return &Workout{
		Name:      name,
		StartTime: time.Now().UTC(),
		Active:    true,
		SyncState: SyncState{Revision: 1},
	}
}

// NewTemplate creates an inactive template workout.
func NewTemplate(name string) *Workout {
	w := NewWorkout(name)
	w.Active = false
	w.IsTemplate = true
	return w
}

// WithStartTime sets a custom start timestamp.
func (w *Workout) WithStartTime(t time.Time) *Workout {
	w.StartTime = t.UTC()
	return w
}

// Ref returns the workout's entity reference.
func (w *Workout) Ref() Ref {
	return Ref{Kind: KindWorkout, ID: w.ID}
}

// Exercise is one exercise performed within a workout.
type Exercise struct {
	ID        int64  `json:"id" yaml:"id"`
	Type      string `json:"type" yaml:"type"`
	WorkoutID int64  `json:"workout_id" yaml:"workout_id"`
	Order     int    `json:"order" yaml:"order"`
	SyncState `yaml:",inline"`
}

// NewExercise creates an unsynced exercise of the given type.
func NewExercise(workoutID int64, exerciseType string) *Exercise {
	return &Exercise{
		Type:      exerciseType,
		WorkoutID: workoutID,
		SyncState: SyncState{Revision: 1},
	}
}

// Ref returns the exercise's entity reference.
func (e *Exercise) Ref() Ref {
	return Ref{Kind: KindExercise, ID: e.ID}
}

// WorkoutSet is one set of an exercise. Weight and reps may be unset on templates.
type WorkoutSet struct {
	ID         int64    `json:"id" yaml:"id"`
	Weight     *float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
	Reps       *int     `json:"reps,omitempty" yaml:"reps,omitempty"`
	Completed  bool     `json:"completed" yaml:"completed"`
	ExerciseID int64    `json:"exercise_id" yaml:"exercise_id"`
	SyncState  `yaml:",inline"`
}

// NewWorkoutSet creates an unsynced, not yet completed set.
func NewWorkoutSet(exerciseID int64) *WorkoutSet {
	return &WorkoutSet{
		ExerciseID: exerciseID,
		SyncState:  SyncState{Revision: 1},
	}
}

// WithWeight sets the weight.
func (s *WorkoutSet) WithWeight(weight float64) *WorkoutSet {
	s.Weight = &weight
	return s
}

// WithReps sets the rep count.
func (s *WorkoutSet) WithReps(reps int) *WorkoutSet {
	s.Reps = &reps
	return s
}

// WithCompleted marks the set as performed.
func (s *WorkoutSet) WithCompleted(completed bool) *WorkoutSet {
	s.Completed = completed
	return s
}

// Ref returns the set's entity reference.
func (s *WorkoutSet) Ref() Ref {
	return Ref{Kind: KindSet, ID: s.ID}
}

// ExerciseDetail is an exercise with its sets and resolved type name.
type ExerciseDetail struct {
	Exercise `yaml:",inline"`
	TypeName string       `json:"type_name,omitempty" yaml:"type_name,omitempty"`
	Sets     []WorkoutSet `json:"sets" yaml:"sets"`
}

// WorkoutDetail is a workout with its full exercise/set subtree.
type WorkoutDetail struct {
	Workout   `yaml:",inline"`
	Exercises []ExerciseDetail `json:"exercises" yaml:"exercises"`
}
