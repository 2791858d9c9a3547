// ABOUTME: Behavior suite every mirror Store implementation must pass.
// ABOUTME: Run from each store's tests with a constructor for a fresh or shared store.
package mirrortest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/lift/internal/mirror"
	"github.com/harperreed/lift/internal/remote"
)

// Run exercises store semantics. Each subtest uses fresh user ids, so a
// single database may back every call to newStore.
func Run(t *testing.T, newStore func(t *testing.T) mirror.Store) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s mirror.Store)
	}{
		{"CreateDeduplicatesByExternalID", testCreateDedupes},
		{"ChildRequiresOwnedParent", testChildRequiresParent},
		{"OtherUsersRecordsLookMissing", testOwnership},
		{"UpdateAppliesOnlyPatchedFields", testUpdatePatch},
		{"DeleteDoesNotCascade", testDeleteNoCascade},
		{"ListsAreOrdered", testListOrdering},
		{"RecreateAfterDelete", testRecreateAfterDelete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			tt.fn(t, s)
		})
	}
}

func newUser() string { return "user-" + uuid.NewString() }
func newExt() string  { return uuid.NewString() }

func seed(t *testing.T, s mirror.Store, user string) (workoutID, exerciseID, setID string) {
	t.Helper()
	ctx := context.Background()
	var err error
	workoutID, err = s.CreateWorkout(ctx, user, remote.WorkoutRecord{ExternalID: newExt(), Name: "Seed", StartTime: time.Now().UTC().Truncate(time.Millisecond)})
	require.NoError(t, err)
	exerciseID, err = s.CreateExercise(ctx, user, remote.ExerciseRecord{ExternalID: newExt(), WorkoutID: workoutID, Type: "Barbell_Squat"})
	require.NoError(t, err)
	reps := 5
	setID, err = s.CreateSet(ctx, user, remote.SetRecord{ExternalID: newExt(), ExerciseID: exerciseID, Reps: &reps})
	require.NoError(t, err)
	return workoutID, exerciseID, setID
}

func testCreateDedupes(t *testing.T, s mirror.Store) {
	ctx := context.Background()
	user := newUser()
	rec := remote.WorkoutRecord{ExternalID: newExt(), Name: "Push", StartTime: time.Now().UTC()}

	first, err := s.CreateWorkout(ctx, user, rec)
	require.NoError(t, err)
	second, err := s.CreateWorkout(ctx, user, rec)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := s.CreateWorkout(ctx, newUser(), rec)
	require.NoError(t, err)
	assert.NotEqual(t, first, other, "dedupe is per user")

	list, err := s.ListWorkouts(ctx, user)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, rec.ExternalID, list[0].ExternalID)
}

func testChildRequiresParent(t *testing.T, s mirror.Store) {
	ctx := context.Background()
	user := newUser()

	_, err := s.CreateExercise(ctx, user, remote.ExerciseRecord{ExternalID: newExt(), WorkoutID: uuid.NewString(), Type: "Plank"})
	assert.ErrorIs(t, err, mirror.ErrNotFound)
	_, err = s.CreateSet(ctx, user, remote.SetRecord{ExternalID: newExt(), ExerciseID: uuid.NewString()})
	assert.ErrorIs(t, err, mirror.ErrNotFound)
}

func testOwnership(t *testing.T, s mirror.Store) {
	ctx := context.Background()
	owner, intruder := newUser(), newUser()
	workoutID, exerciseID, setID := seed(t, s, owner)

	name := "hijacked"
	assert.ErrorIs(t, s.UpdateWorkout(ctx, intruder, workoutID, remote.WorkoutPatch{Name: &name}), mirror.ErrNotFound)
	assert.ErrorIs(t, s.DeleteExercise(ctx, intruder, exerciseID), mirror.ErrNotFound)
	assert.ErrorIs(t, s.DeleteSet(ctx, intruder, setID), mirror.ErrNotFound)
	_, err := s.CreateExercise(ctx, intruder, remote.ExerciseRecord{ExternalID: newExt(), WorkoutID: workoutID, Type: "Plank"})
	assert.ErrorIs(t, err, mirror.ErrNotFound)
	_, err = s.ListSets(ctx, intruder, exerciseID)
	assert.ErrorIs(t, err, mirror.ErrNotFound)

	list, err := s.ListWorkouts(ctx, intruder)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = s.ListWorkouts(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Seed", list[0].Name)
}

func testUpdatePatch(t *testing.T, s mirror.Store) {
	ctx := context.Background()
	user := newUser()
	workoutID, exerciseID, setID := seed(t, s, user)

	active := true
	require.NoError(t, s.UpdateWorkout(ctx, user, workoutID, remote.WorkoutPatch{Active: &active}))
	workouts, err := s.ListWorkouts(ctx, user)
	require.NoError(t, err)
	assert.True(t, workouts[0].Active)
	assert.Equal(t, "Seed", workouts[0].Name)

	order := 3
	require.NoError(t, s.UpdateExercise(ctx, user, exerciseID, remote.ExercisePatch{Order: &order}))
	exercises, err := s.ListExercises(ctx, user, workoutID)
	require.NoError(t, err)
	assert.Equal(t, 3, exercises[0].Order)
	assert.Equal(t, "Barbell_Squat", exercises[0].Type)

	done := true
	weight := 102.5
	require.NoError(t, s.UpdateSet(ctx, user, setID, remote.SetPatch{Completed: &done, Weight: &weight}))
	sets, err := s.ListSets(ctx, user, exerciseID)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.True(t, sets[0].Completed)
	require.NotNil(t, sets[0].Weight)
	assert.InDelta(t, 102.5, *sets[0].Weight, 0.001)
	require.NotNil(t, sets[0].Reps)
	assert.Equal(t, 5, *sets[0].Reps)

	assert.ErrorIs(t, s.UpdateSet(ctx, user, uuid.NewString(), remote.SetPatch{Completed: &done}), mirror.ErrNotFound)
}

func testDeleteNoCascade(t *testing.T, s mirror.Store) {
	ctx := context.Background()
	user := newUser()
	workoutID, exerciseID, setID := seed(t, s, user)

	require.NoError(t, s.DeleteExercise(ctx, user, exerciseID))
	assert.ErrorIs(t, s.DeleteExercise(ctx, user, exerciseID), mirror.ErrNotFound)

	// The orphaned set is still addressable until deleted explicitly.
	require.NoError(t, s.DeleteSet(ctx, user, setID))
	require.NoError(t, s.DeleteWorkout(ctx, user, workoutID))

	list, err := s.ListWorkouts(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testListOrdering(t *testing.T, s mirror.Store) {
	ctx := context.Background()
	user := newUser()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	later, err := s.CreateWorkout(ctx, user, remote.WorkoutRecord{ExternalID: newExt(), Name: "Later", StartTime: base.Add(time.Hour)})
	require.NoError(t, err)
	earlier, err := s.CreateWorkout(ctx, user, remote.WorkoutRecord{ExternalID: newExt(), Name: "Earlier", StartTime: base})
	require.NoError(t, err)

	workouts, err := s.ListWorkouts(ctx, user)
	require.NoError(t, err)
	require.Len(t, workouts, 2)
	assert.Equal(t, earlier, workouts[0].ID)
	assert.Equal(t, later, workouts[1].ID)
	assert.True(t, base.Equal(workouts[0].StartTime))

	second, err := s.CreateExercise(ctx, user, remote.ExerciseRecord{ExternalID: newExt(), WorkoutID: earlier, Type: "Plank", Order: 1})
	require.NoError(t, err)
	first, err := s.CreateExercise(ctx, user, remote.ExerciseRecord{ExternalID: newExt(), WorkoutID: earlier, Type: "Pullups", Order: 0})
	require.NoError(t, err)
	exercises, err := s.ListExercises(ctx, user, earlier)
	require.NoError(t, err)
	require.Len(t, exercises, 2)
	assert.Equal(t, first, exercises[0].ID)
	assert.Equal(t, second, exercises[1].ID)

	var setIDs []string
	for i := 0; i < 3; i++ {
		reps := 10 - i
		id, err := s.CreateSet(ctx, user, remote.SetRecord{ExternalID: newExt(), ExerciseID: first, Reps: &reps})
		require.NoError(t, err)
		setIDs = append(setIDs, id)
	}
	sets, err := s.ListSets(ctx, user, first)
	require.NoError(t, err)
	require.Len(t, sets, 3)
	for i, set := range sets {
		assert.Equal(t, setIDs[i], set.ID, "sets list in creation order")
	}
}

func testRecreateAfterDelete(t *testing.T, s mirror.Store) {
	ctx := context.Background()
	user := newUser()
	rec := remote.WorkoutRecord{ExternalID: newExt(), Name: "Again", StartTime: time.Now().UTC()}

	first, err := s.CreateWorkout(ctx, user, rec)
	require.NoError(t, err)
	require.NoError(t, s.DeleteWorkout(ctx, user, first))

	second, err := s.CreateWorkout(ctx, user, rec)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
