// ABOUTME: Set CRUD operations for SQLite storage.
// ABOUTME: Updates are field-scoped so only supplied fields change.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/harperreed/lift/internal/models"
)

// SetUpdate carries the fields to change on a set; nil fields are left alone.
type SetUpdate struct {
	Weight    *float64
	Reps      *int
	Completed *bool
}

// Empty reports whether the update changes nothing.
func (u SetUpdate) Empty() bool {
	return u.Weight == nil && u.Reps == nil && u.Completed == nil
}

// CreateSet stores a new set under an existing exercise.
func (o ops) CreateSet(ctx context.Context, s *models.WorkoutSet) error {
	if _, err := o.GetExercise(ctx, s.ExerciseID); err != nil {
		return err
	}
	return o.insertSet(ctx, s)
}

func (o ops) insertSet(ctx context.Context, s *models.WorkoutSet) error {
	if s.Revision == 0 {
		s.Revision = 1
	}
	var (
		weight sql.NullFloat64
		reps   sql.NullInt64
	)
	if s.Weight != nil {
		weight = sql.NullFloat64{Float64: *s.Weight, Valid: true}
	}
	if s.Reps != nil {
		reps = sql.NullInt64{Int64: int64(*s.Reps), Valid: true}
	}
	res, err := o.q.ExecContext(ctx, `
		INSERT INTO sets (weight, reps, completed, exercise_id, remote_id, revision, synced_revision)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		weight, reps, s.Completed, s.ExerciseID,
		nullableRemoteID(s.SyncState), s.Revision, s.SyncedRevision,
	)
	if err != nil {
		return wrapErr("create set", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return wrapErr("create set", err)
	}
	s.ID = id
	return nil
}

// ImportSet inserts a set keeping its sync state.
func (o ops) ImportSet(ctx context.Context, s *models.WorkoutSet) error {
	return o.insertSet(ctx, s)
}

// GetSet retrieves a set by ID.
func (o ops) GetSet(ctx context.Context, id int64) (*models.WorkoutSet, error) {
	s, err := scanSet(o.q.QueryRowContext(ctx,
		`SELECT `+setColumns+` FROM sets WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("set %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, wrapErr("get set", err)
	}
	return s, nil
}

// ListSets lists an exercise's sets in creation order.
func (o ops) ListSets(ctx context.Context, exerciseID int64) ([]*models.WorkoutSet, error) {
	rows, err := o.q.QueryContext(ctx, `
		SELECT `+setColumns+` FROM sets
		WHERE exercise_id = ?
		ORDER BY id`, exerciseID)
	if err != nil {
		return nil, wrapErr("list sets", err)
	}
	defer rows.Close()

	var sets []*models.WorkoutSet
	for rows.Next() {
		s, err := scanSet(rows)
		if err != nil {
			return nil, wrapErr("scan set", err)
		}
		sets = append(sets, s)
	}
	return sets, wrapErr("list sets", rows.Err())
}

// UpdateSet changes the supplied fields and bumps the revision.
func (o ops) UpdateSet(ctx context.Context, id int64, u SetUpdate) error {
	if u.Empty() {
		_, err := o.GetSet(ctx, id)
		return err
	}
	var (
		assignments []string
		args        []any
	)
	if u.Weight != nil {
		assignments = append(assignments, "weight = ?")
		args = append(args, *u.Weight)
	}
	if u.Reps != nil {
		assignments = append(assignments, "reps = ?")
		args = append(args, *u.Reps)
	}
	if u.Completed != nil {
		assignments = append(assignments, "completed = ?")
		args = append(args, *u.Completed)
	}
	assignments = append(assignments, "revision = revision + 1")
	args = append(args, id)

	res, err := o.q.ExecContext(ctx,
		`UPDATE sets SET `+strings.Join(assignments, ", ")+` WHERE id = ?`, args...)
	return checkAffected("update set", "set", id, res, err)
}

// DeleteSet removes a set, recording tombstones.
func (o ops) DeleteSet(ctx context.Context, id int64, tombstones []Tombstone) error {
	if err := o.addTombstones(ctx, tombstones); err != nil {
		return err
	}
	res, err := o.q.ExecContext(ctx, `DELETE FROM sets WHERE id = ?`, id)
	return checkAffected("delete set", "set", id, res, err)
}

// DeleteSet removes a set and records tombstones atomically.
func (d *DB) DeleteSet(ctx context.Context, id int64, tombstones []Tombstone) error {
	return d.RunInTransaction(ctx, func(tx *Tx) error {
		return tx.DeleteSet(ctx, id, tombstones)
	})
}
