// ABOUTME: Storage contract for the reference mirror server.
// ABOUTME: Every call is scoped to one user; records owned by someone else look missing.
package mirror

import (
	"context"
	"errors"

	"github.com/harperreed/lift/internal/remote"
)

// ErrNotFound is returned when a record does not exist for the calling user.
var ErrNotFound = errors.New("record not found")

// Store persists mirrored records. Creates are deduplicated on
// (userID, ExternalID) and return the id assigned the first time. Deleting a
// parent never removes its children.
type Store interface {
	CreateWorkout(ctx context.Context, userID string, rec remote.WorkoutRecord) (string, error)
	UpdateWorkout(ctx context.Context, userID, id string, patch remote.WorkoutPatch) error
	DeleteWorkout(ctx context.Context, userID, id string) error
	ListWorkouts(ctx context.Context, userID string) ([]remote.Workout, error)

	// CreateExercise fails with ErrNotFound unless rec.WorkoutID belongs to userID.
	CreateExercise(ctx context.Context, userID string, rec remote.ExerciseRecord) (string, error)
	UpdateExercise(ctx context.Context, userID, id string, patch remote.ExercisePatch) error
	DeleteExercise(ctx context.Context, userID, id string) error
	ListExercises(ctx context.Context, userID, workoutID string) ([]remote.Exercise, error)

	// CreateSet fails with ErrNotFound unless rec.ExerciseID belongs to userID.
	CreateSet(ctx context.Context, userID string, rec remote.SetRecord) (string, error)
	UpdateSet(ctx context.Context, userID, id string, patch remote.SetPatch) error
	DeleteSet(ctx context.Context, userID, id string) error
	ListSets(ctx context.Context, userID, exerciseID string) ([]remote.Set, error)

	Close() error
}
