// ABOUTME: Row scanning helpers shared by the workout, exercise and set queries.
// ABOUTME: Converts nullable SQLite columns into model pointer fields.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/harperreed/lift/internal/models"
)

// timeLayout keeps stored timestamps fixed-width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

const (
	workoutColumns  = `id, name, start_time, active, is_template, remote_id, revision, synced_revision`
	exerciseColumns = `id, type, workout_id, "order", remote_id, revision, synced_revision`
	setColumns      = `id, weight, reps, completed, exercise_id, remote_id, revision, synced_revision`
)

type scanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Parse(time.RFC3339Nano, s)
	}
	return t, nil
}

func nullableRemoteID(s models.SyncState) sql.NullString {
	if s.RemoteID == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s.RemoteID, Valid: true}
}

func remoteIDPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func scanWorkout(row scanner) (*models.Workout, error) {
	var (
		w         models.Workout
		startTime string
		remoteID  sql.NullString
	)
	err := row.Scan(&w.ID, &w.Name, &startTime, &w.Active, &w.IsTemplate,
		&remoteID, &w.Revision, &w.SyncedRevision)
	if err != nil {
		return nil, err
	}
	w.StartTime, err = parseTime(startTime)
	if err != nil {
		return nil, fmt.Errorf("parse start_time: %w", err)
	}
	w.RemoteID = remoteIDPtr(remoteID)
	return &w, nil
}

func scanExercise(row scanner) (*models.Exercise, error) {
	var (
		e        models.Exercise
		remoteID sql.NullString
	)
	if err := row.Scan(&e.ID, &e.Type, &e.WorkoutID, &e.Order,
		&remoteID, &e.Revision, &e.SyncedRevision); err != nil {
		return nil, err
	}
	e.RemoteID = remoteIDPtr(remoteID)
	return &e, nil
}

func scanSet(row scanner) (*models.WorkoutSet, error) {
	var (
		s        models.WorkoutSet
		weight   sql.NullFloat64
		reps     sql.NullInt64
		remoteID sql.NullString
	)
	if err := row.Scan(&s.ID, &weight, &reps, &s.Completed, &s.ExerciseID,
		&remoteID, &s.Revision, &s.SyncedRevision); err != nil {
		return nil, err
	}
	if weight.Valid {
		v := weight.Float64
		s.Weight = &v
	}
	if reps.Valid {
		v := int(reps.Int64)
		s.Reps = &v
	}
	s.RemoteID = remoteIDPtr(remoteID)
	return &s, nil
}
