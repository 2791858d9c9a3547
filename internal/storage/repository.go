// ABOUTME: Repository interface for the local training-log store.
// ABOUTME: Consumers depend on this contract; *DB is the SQLite implementation.
package storage

import (
	"context"

	"github.com/harperreed/lift/internal/models"
)

// Repository defines the storage interface for the training log.
type Repository interface {
	// Workout operations
	CreateWorkout(ctx context.Context, w *models.Workout) error
	GetWorkout(ctx context.Context, id int64) (*models.Workout, error)
	GetActiveWorkout(ctx context.Context) (*models.Workout, error)
	GetWorkoutDetail(ctx context.Context, id int64) (*models.WorkoutDetail, error)
	ListWorkouts(ctx context.Context, filter WorkoutFilter) ([]*models.Workout, error)
	CountWorkouts(ctx context.Context, templates bool) (int, error)
	RenameWorkout(ctx context.Context, id int64, name string) error
	SetWorkoutActive(ctx context.Context, id int64, active bool) error
	DuplicateWorkout(ctx context.Context, sourceID int64, opts CopyOptions) (*models.WorkoutDetail, error)
	ImportWorkout(ctx context.Context, detail *models.WorkoutDetail) error
	DeleteWorkout(ctx context.Context, id int64, tombstones []Tombstone) error

	// Exercise operations
	CreateExercise(ctx context.Context, e *models.Exercise) error
	AddExercises(ctx context.Context, workoutID int64, types []string) ([]*models.Exercise, error)
	GetExercise(ctx context.Context, id int64) (*models.Exercise, error)
	ListExercises(ctx context.Context, workoutID int64) ([]*models.Exercise, error)
	ChangeExerciseType(ctx context.Context, id int64, exerciseType string) error
	ReorderExercises(ctx context.Context, workoutID int64, orderedIDs []int64) error
	ImportExercise(ctx context.Context, ed *models.ExerciseDetail) error
	DeleteExercise(ctx context.Context, id int64, tombstones []Tombstone) error

	// Set operations
	CreateSet(ctx context.Context, s *models.WorkoutSet) error
	GetSet(ctx context.Context, id int64) (*models.WorkoutSet, error)
	ListSets(ctx context.Context, exerciseID int64) ([]*models.WorkoutSet, error)
	UpdateSet(ctx context.Context, id int64, u SetUpdate) error
	ImportSet(ctx context.Context, s *models.WorkoutSet) error
	DeleteSet(ctx context.Context, id int64, tombstones []Tombstone) error

	// Catalog
	GetExerciseType(ctx context.Context, id string) (*models.ExerciseType, error)
	ListExerciseTypes(ctx context.Context, search string) ([]*models.ExerciseType, error)

	// Replication bookkeeping
	MarkSynced(ctx context.Context, ref models.Ref, remoteID string, revision int64) error
	ListUnsynced(ctx context.Context, kind models.Kind) ([]int64, error)
	WorkoutsNeedingSync(ctx context.Context) ([]int64, error)
	FindByRemoteID(ctx context.Context, kind models.Kind, remoteID string) (int64, error)
	AddTombstones(ctx context.Context, tombstones []Tombstone) error
	ListTombstones(ctx context.Context) ([]Tombstone, error)
	HasTombstone(ctx context.Context, kind models.Kind, remoteID string) (bool, error)
	ClearTombstone(ctx context.Context, id int64) error
	SyncSummary(ctx context.Context) (*SyncSummary, error)

	RunInTransaction(ctx context.Context, fn func(tx *Tx) error) error
	Close() error
}

// Compile-time check that DB implements Repository.
var _ Repository = (*DB)(nil)
