// ABOUTME: Tests for the workouts service: local-first writes, background propagation and deletes.
// ABOUTME: Runs against real SQLite and an in-memory mirror.

package workouts

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/lift/internal/connectivity"
	"github.com/harperreed/lift/internal/remote"
	"github.com/harperreed/lift/internal/remote/remotetest"
	"github.com/harperreed/lift/internal/storage"
	liftsync "github.com/harperreed/lift/internal/sync"
)

type fixture struct {
	svc    *Service
	db     *storage.DB
	mirror *remotetest.Memory
	online *atomic.Bool
}

func setup(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "lift.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mirror := remotetest.NewMemory()
	online := &atomic.Bool{}
	online.Store(true)
	oracle := connectivity.Func(func(context.Context) bool { return online.Load() })
	syncer := liftsync.New(db, mirror, oracle, "install-test", liftsync.WithLogger(log.New(io.Discard)))

	svc := New(db, append([]Option{WithSyncer(syncer)}, opts...)...)
	t.Cleanup(svc.Flush)
	return &fixture{svc: svc, db: db, mirror: mirror, online: online}
}

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int) *int           { return &v }

func TestStartWorkoutPropagatesInBackground(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	w, err := f.svc.StartWorkout(ctx, "Legs")
	require.NoError(t, err)
	assert.True(t, w.Active)

	f.svc.Flush()

	got, err := f.db.GetWorkout(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, got.Synced())
	assert.Equal(t, 1, f.mirror.Calls(remotetest.OpCreateWorkout))
}

func TestStartWorkoutDefaultsName(t *testing.T) {
	f := setup(t, Inline())
	w, err := f.svc.StartWorkout(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, w.Name, "Workout ")
}

func TestStartWorkoutEndsPreviousOnMirror(t *testing.T) {
	f := setup(t, Inline())
	ctx := context.Background()

	first, err := f.svc.StartWorkout(ctx, "First")
	require.NoError(t, err)
	second, err := f.svc.StartWorkout(ctx, "Second")
	require.NoError(t, err)

	active, err := f.svc.ActiveWorkout(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	old, err := f.db.GetWorkout(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, old.Active)
	assert.True(t, old.Synced())

	remoteOld, ok := f.mirror.Workout(old.RemoteIDOrEmpty())
	require.True(t, ok)
	assert.False(t, remoteOld.Active)
}

func TestLocalWriteSucceedsWhileOffline(t *testing.T) {
	f := setup(t)
	f.online.Store(false)
	ctx := context.Background()

	w, err := f.svc.StartWorkout(ctx, "Basement gym")
	require.NoError(t, err)
	e, err := f.svc.AddExercise(ctx, w.ID, "Barbell_Squat")
	require.NoError(t, err)
	_, err = f.svc.AddSet(ctx, e.ID, ptrFloat(100), ptrInt(5), false)
	require.NoError(t, err)
	f.svc.Flush()

	assert.Equal(t, 0, f.mirror.TotalCalls())
	status, err := f.svc.SyncStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, status.Total())

	f.online.Store(true)
	report, err := f.svc.SyncNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Linked)

	status, err = f.svc.SyncStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, status.Total())
}

func TestManualModeDefersToSyncNow(t *testing.T) {
	f := setup(t, Manual())
	ctx := context.Background()

	w, err := f.svc.StartWorkout(ctx, "Manual")
	require.NoError(t, err)
	_, err = f.svc.AddExercise(ctx, w.ID, "Barbell_Squat")
	require.NoError(t, err)
	f.svc.Flush()
	assert.Equal(t, 0, f.mirror.TotalCalls())

	report, err := f.svc.SyncNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Linked)
}

func TestSyncFailureIsNotReturnedToCaller(t *testing.T) {
	f := setup(t, Inline())
	ctx := context.Background()
	f.mirror.FailAll(&remote.RemoteError{Op: "create workout", Status: 503, Err: errors.New("down")})

	w, err := f.svc.StartWorkout(ctx, "Resilient")
	require.NoError(t, err)

	got, err := f.db.GetWorkout(ctx, w.ID)
	require.NoError(t, err)
	assert.False(t, got.Linked())
}

func TestAddExerciseRejectsUnknownType(t *testing.T) {
	f := setup(t, Inline())
	ctx := context.Background()
	w, err := f.svc.StartWorkout(ctx, "Typo")
	require.NoError(t, err)

	_, err = f.svc.AddExercises(ctx, w.ID, []string{"Barbell_Squat", "Not_A_Lift"})
	require.ErrorIs(t, err, ErrInvalidInput)

	exercises, err := f.db.ListExercises(ctx, w.ID)
	require.NoError(t, err)
	assert.Empty(t, exercises)
}

func TestAddExerciseToMissingWorkout(t *testing.T) {
	f := setup(t, Inline())
	_, err := f.svc.AddExercise(context.Background(), 999, "Barbell_Squat")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCompleteSetPushesOnlyCompletion(t *testing.T) {
	f := setup(t, Inline())
	ctx := context.Background()

	w, err := f.svc.StartWorkout(ctx, "Bench day")
	require.NoError(t, err)
	e, err := f.svc.AddExercise(ctx, w.ID, "Barbell_Bench_Press")
	require.NoError(t, err)
	ws, err := f.svc.AddSet(ctx, e.ID, ptrFloat(80), ptrInt(5), false)
	require.NoError(t, err)

	require.NoError(t, f.svc.CompleteSet(ctx, ws.ID, true))

	got, err := f.db.GetSet(ctx, ws.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.True(t, got.Synced())

	remoteSet, ok := f.mirror.Set(got.RemoteIDOrEmpty())
	require.True(t, ok)
	assert.True(t, remoteSet.Completed)
	assert.Equal(t, 1, f.mirror.Calls(remotetest.OpUpdateSet))
}

func TestUpdateSetRejectsNegativeValues(t *testing.T) {
	f := setup(t, Inline())
	err := f.svc.UpdateSet(context.Background(), 1, storage.SetUpdate{Reps: ptrInt(-1)})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestMoveExerciseReordersAndPushesOrder(t *testing.T) {
	f := setup(t, Inline())
	ctx := context.Background()

	w, err := f.svc.StartWorkout(ctx, "Full body")
	require.NoError(t, err)
	created, err := f.svc.AddExercises(ctx, w.ID, []string{"Barbell_Squat", "Barbell_Bench_Press", "Barbell_Deadlift"})
	require.NoError(t, err)

	require.NoError(t, f.svc.MoveExercise(ctx, created[2].ID, 0))

	exercises, err := f.db.ListExercises(ctx, w.ID)
	require.NoError(t, err)
	require.Len(t, exercises, 3)
	assert.Equal(t, created[2].ID, exercises[0].ID)
	assert.Equal(t, created[0].ID, exercises[1].ID)
	assert.Equal(t, created[1].ID, exercises[2].ID)

	for _, e := range exercises {
		assert.True(t, e.Synced(), "exercise %d", e.ID)
		re, ok := f.mirror.Exercise(e.RemoteIDOrEmpty())
		require.True(t, ok)
		assert.Equal(t, e.Order, re.Order)
	}
}

func TestReorderRejectsDuplicates(t *testing.T) {
	f := setup(t, Inline())
	ctx := context.Background()
	w, err := f.svc.StartWorkout(ctx, "Dup")
	require.NoError(t, err)
	created, err := f.svc.AddExercises(ctx, w.ID, []string{"Barbell_Squat", "Plank"})
	require.NoError(t, err)

	err = f.svc.ReorderExercises(ctx, w.ID, []int64{created[0].ID, created[0].ID})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestEndWorkoutAsTemplate(t *testing.T) {
	f := setup(t, Inline())
	ctx := context.Background()

	w, err := f.svc.StartWorkout(ctx, "Pull")
	require.NoError(t, err)
	e, err := f.svc.AddExercise(ctx, w.ID, "Pullups")
	require.NoError(t, err)
	_, err = f.svc.AddSet(ctx, e.ID, nil, ptrInt(10), true)
	require.NoError(t, err)

	res, err := f.svc.EndWorkout(ctx, w.ID, true, "Pull template")
	require.NoError(t, err)
	require.NotNil(t, res.Template)
	assert.False(t, res.Workout.Active)
	assert.True(t, res.Template.IsTemplate)
	assert.Equal(t, "Pull template", res.Template.Name)

	tmpl, err := f.db.GetWorkoutDetail(ctx, res.Template.ID)
	require.NoError(t, err)
	assert.True(t, tmpl.Synced())
	assert.NotEqual(t, res.Workout.RemoteIDOrEmpty(), tmpl.RemoteIDOrEmpty())
	assert.Equal(t, 2, f.mirror.Calls(remotetest.OpCreateWorkout))

	templates, err := f.svc.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 1)
}

func TestEndWorkoutRollsBackWhenTemplateCopyFails(t *testing.T) {
	f := setup(t, Inline())
	ctx := context.Background()

	w, err := f.svc.StartWorkout(ctx, "Push")
	require.NoError(t, err)
	_, err = f.svc.AddExercise(ctx, w.ID, "Pullups")
	require.NoError(t, err)

	raw, err := sql.Open("sqlite", f.db.Path())
	require.NoError(t, err)
	_, err = raw.ExecContext(ctx, `
		CREATE TRIGGER reject_templates BEFORE INSERT ON workouts
		WHEN NEW.is_template = 1
		BEGIN SELECT RAISE(ABORT, 'templates disabled'); END`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	_, err = f.svc.EndWorkout(ctx, w.ID, true, "Push template")
	require.Error(t, err)

	got, err := f.db.GetWorkout(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)

	templates, err := f.svc.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Empty(t, templates)
}

func TestStartFromTemplateResetsCompletion(t *testing.T) {
	f := setup(t, Inline())
	ctx := context.Background()

	w, err := f.svc.StartWorkout(ctx, "Squat")
	require.NoError(t, err)
	e, err := f.svc.AddExercise(ctx, w.ID, "Barbell_Squat")
	require.NoError(t, err)
	_, err = f.svc.AddSet(ctx, e.ID, ptrFloat(120), ptrInt(3), true)
	require.NoError(t, err)
	tmpl, err := f.svc.SaveAsTemplate(ctx, w.ID, "Squat template")
	require.NoError(t, err)

	next, err := f.svc.StartFromTemplate(ctx, tmpl.ID, "")
	require.NoError(t, err)
	assert.True(t, next.Active)
	assert.False(t, next.IsTemplate)
	require.Len(t, next.Exercises, 1)
	require.Len(t, next.Exercises[0].Sets, 1)
	assert.False(t, next.Exercises[0].Sets[0].Completed)

	_, err = f.svc.StartFromTemplate(ctx, w.ID, "")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteWorkoutRemovesRemoteTree(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	w, err := f.svc.StartWorkout(ctx, "Gone")
	require.NoError(t, err)
	e, err := f.svc.AddExercise(ctx, w.ID, "Dumbbell_Bicep_Curl")
	require.NoError(t, err)
	_, err = f.svc.AddSet(ctx, e.ID, ptrFloat(12.5), ptrInt(12), false)
	require.NoError(t, err)
	f.svc.Flush()

	require.NoError(t, f.svc.DeleteWorkout(ctx, w.ID))
	f.svc.Flush()

	_, err = f.db.GetWorkout(ctx, w.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	workouts, exercises, sets := f.mirror.Counts()
	assert.Zero(t, workouts)
	assert.Zero(t, exercises)
	assert.Zero(t, sets)

	status, err := f.svc.SyncStatus(ctx)
	require.NoError(t, err)
	assert.Zero(t, status.PendingDeletes)
}

func TestDeleteWaitsForInFlightCreate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	w, err := f.svc.StartWorkout(ctx, "Quick")
	require.NoError(t, err)
	e, err := f.svc.AddExercise(ctx, w.ID, "Pullups")
	require.NoError(t, err)
	f.svc.Flush()

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	f.mirror.BeforeCall = func(op string) {
		if op == remotetest.OpCreateSet {
			select {
			case started <- struct{}{}:
			default:
			}
			<-release
		}
	}

	ws, err := f.svc.AddSet(ctx, e.ID, nil, ptrInt(5), false)
	require.NoError(t, err)
	<-started

	deleted := make(chan error, 1)
	go func() { deleted <- f.svc.DeleteSet(ctx, ws.ID) }()
	time.Sleep(20 * time.Millisecond)
	close(release)
	require.NoError(t, <-deleted)
	f.svc.Flush()

	_, err = f.db.GetSet(ctx, ws.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, _, sets := f.mirror.Counts()
	assert.Zero(t, sets)

	status, err := f.svc.SyncStatus(ctx)
	require.NoError(t, err)
	assert.Zero(t, status.PendingDeletes)
}

func TestDeleteSetNotFound(t *testing.T) {
	f := setup(t, Inline())
	err := f.svc.DeleteSet(context.Background(), 42)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestServiceWithoutSyncer(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "lift.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()

	svc := New(db)
	assert.False(t, svc.SyncEnabled())

	w, err := svc.StartWorkout(ctx, "Local only")
	require.NoError(t, err)
	e, err := svc.AddExercise(ctx, w.ID, "Plank")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteExercise(ctx, e.ID))
	require.NoError(t, svc.DeleteWorkout(ctx, w.ID))

	_, err = svc.SyncNow(ctx)
	require.ErrorIs(t, err, ErrSyncDisabled)
	_, err = svc.Pull(ctx)
	require.ErrorIs(t, err, ErrSyncDisabled)

	tombstones, err := db.ListTombstones(ctx)
	require.NoError(t, err)
	assert.Empty(t, tombstones)
}

func TestCountAndListWorkouts(t *testing.T) {
	f := setup(t, Inline())
	ctx := context.Background()
	for _, name := range []string{"A", "B", "C"} {
		_, err := f.svc.StartWorkout(ctx, name)
		require.NoError(t, err)
	}
	n, err := f.svc.CountWorkouts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	list, err := f.svc.ListWorkouts(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	types, err := f.svc.ListExerciseTypes(ctx, "squat")
	require.NoError(t, err)
	assert.NotEmpty(t, types)

}
