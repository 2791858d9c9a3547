// ABOUTME: Tests the mirror HTTP surface through remote.HTTPMirror, the client lift uses.
// ABOUTME: Covers auth, status mapping, ownership and an end-to-end sync over HTTP.
package mirror_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/lift/internal/connectivity"
	"github.com/harperreed/lift/internal/mirror"
	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/remote"
	"github.com/harperreed/lift/internal/storage"
	liftsync "github.com/harperreed/lift/internal/sync"
)

const testSecret = "test-secret"

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(mirror.NewRouter(mirror.NewMemoryStore(), testSecret, log.New(io.Discard)))
	t.Cleanup(srv.Close)
	return srv
}

func clientFor(t *testing.T, srv *httptest.Server, user string) *remote.HTTPMirror {
	t.Helper()
	token, err := mirror.IssueToken(testSecret, user, time.Hour)
	require.NoError(t, err)
	return remote.NewHTTPMirror(srv.URL, token)
}

func TestPing(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "pong")
}

func TestAPIRequiresBearerToken(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/workouts")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	forged, err := mirror.IssueToken("another-secret", "mallory", time.Hour)
	require.NoError(t, err)
	_, err = remote.NewHTTPMirror(srv.URL, forged).ListWorkouts(context.Background())
	assert.ErrorIs(t, err, remote.ErrAuthRequired)

	expired, err := mirror.IssueToken(testSecret, "alice", -time.Minute)
	require.NoError(t, err)
	_, err = remote.NewHTTPMirror(srv.URL, expired).ListWorkouts(context.Background())
	assert.ErrorIs(t, err, remote.ErrAuthRequired)
}

func TestIssueTokenValidation(t *testing.T) {
	_, err := mirror.IssueToken("", "alice", time.Hour)
	assert.Error(t, err)
	_, err = mirror.IssueToken(testSecret, "", time.Hour)
	assert.Error(t, err)

	token, err := mirror.IssueToken(testSecret, "alice", time.Hour)
	require.NoError(t, err)
	user, err := remote.TokenIdentity{Token: token}.UserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
}

func TestHTTPMirrorRoundTrip(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	c := clientFor(t, srv, "alice")

	rec := remote.WorkoutRecord{ExternalID: uuid.NewString(), Name: "Legs", StartTime: time.Now().UTC().Truncate(time.Second), Active: true}
	wid, err := c.CreateWorkout(ctx, rec)
	require.NoError(t, err)
	again, err := c.CreateWorkout(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, wid, again)

	eid, err := c.CreateExercise(ctx, remote.ExerciseRecord{ExternalID: uuid.NewString(), WorkoutID: wid, Type: "Barbell_Squat"})
	require.NoError(t, err)
	weight, reps := 100.0, 5
	sid, err := c.CreateSet(ctx, remote.SetRecord{ExternalID: uuid.NewString(), ExerciseID: eid, Weight: &weight, Reps: &reps})
	require.NoError(t, err)

	done := true
	require.NoError(t, c.UpdateSet(ctx, sid, remote.SetPatch{Completed: &done}))
	sets, err := c.ListSets(ctx, eid)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.True(t, sets[0].Completed)
	assert.Equal(t, 5, *sets[0].Reps)

	inactive := false
	require.NoError(t, c.UpdateWorkout(ctx, wid, remote.WorkoutPatch{Active: &inactive}))
	workouts, err := c.ListWorkouts(ctx)
	require.NoError(t, err)
	require.Len(t, workouts, 1)
	assert.False(t, workouts[0].Active)
	assert.Equal(t, "Legs", workouts[0].Name)

	require.NoError(t, c.DeleteSet(ctx, sid))
	err = c.DeleteSet(ctx, sid)
	assert.True(t, remote.IsNotFound(err))
}

func TestHTTPMirrorStatusMapping(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	alice := clientFor(t, srv, "alice")
	bob := clientFor(t, srv, "bob")

	wid, err := alice.CreateWorkout(ctx, remote.WorkoutRecord{ExternalID: uuid.NewString(), Name: "Mine"})
	require.NoError(t, err)

	_, err = bob.CreateExercise(ctx, remote.ExerciseRecord{ExternalID: uuid.NewString(), WorkoutID: wid, Type: "Plank"})
	assert.True(t, remote.IsNotFound(err), "another user's workout is invisible")
	assert.True(t, remote.IsNotFound(bob.DeleteWorkout(ctx, wid)))

	_, err = alice.CreateWorkout(ctx, remote.WorkoutRecord{Name: "No external id"})
	var re *remote.RemoteError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusBadRequest, re.Status)
	assert.Contains(t, re.Error(), "external_id")

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/workouts", strings.NewReader("{not json"))
	require.NoError(t, err)
	token, err := mirror.IssueToken(testSecret, "alice", time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSyncOverHTTP(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	db, err := storage.Open(filepath.Join(t.TempDir(), "lift.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	client := clientFor(t, srv, "alice")
	syncer := liftsync.New(db, client, connectivity.NewHTTPProbe(srv.URL+"/ping"), "install-http",
		liftsync.WithLogger(log.New(io.Discard)))

	w := models.NewWorkout("Pull Day")
	require.NoError(t, db.CreateWorkout(ctx, w))
	e := models.NewExercise(w.ID, "Pullups")
	require.NoError(t, db.CreateExercise(ctx, e))
	require.NoError(t, db.CreateSet(ctx, models.NewWorkoutSet(e.ID).WithReps(8)))
	require.NoError(t, db.CreateSet(ctx, models.NewWorkoutSet(e.ID).WithReps(6)))

	report, err := syncer.SweepAll(ctx)
	require.NoError(t, err)
	assert.False(t, report.Offline)
	assert.Equal(t, 4, report.Linked)

	detail, err := db.GetWorkoutDetail(ctx, w.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.RemoteID)
	remoteExercises, err := client.ListExercises(ctx, *detail.RemoteID)
	require.NoError(t, err)
	require.Len(t, remoteExercises, 1)
	remoteSets, err := client.ListSets(ctx, remoteExercises[0].ID)
	require.NoError(t, err)
	assert.Len(t, remoteSets, 2)

	// A second install pulls the same tree down.
	other, err := storage.Open(filepath.Join(t.TempDir(), "other.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = other.Close() })
	puller := liftsync.New(other, client, connectivity.Static(true), "install-other",
		liftsync.WithLogger(log.New(io.Discard)))
	pulled, err := puller.PullRemote(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pulled.Workouts)
	assert.Equal(t, 1, pulled.Exercises)
	assert.Equal(t, 2, pulled.Sets)
}
