// ABOUTME: Exercise CRUD operations for SQLite storage.
// ABOUTME: Appends exercises in order and reorders them atomically.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/harperreed/lift/internal/models"
)

// CreateExercise appends an exercise after the workout's last exercise.
func (o ops) CreateExercise(ctx context.Context, e *models.Exercise) error {
	if _, err := o.GetWorkout(ctx, e.WorkoutID); err != nil {
		return err
	}
	var next int
	err := o.q.QueryRowContext(ctx, `
		SELECT COALESCE(MAX("order") + 1, 0) FROM exercises WHERE workout_id = ?`,
		e.WorkoutID).Scan(&next)
	if err != nil {
		return wrapErr("next exercise order", err)
	}
	e.Order = next
	return o.insertExercise(ctx, e)
}

// CreateExercise appends an exercise in one transaction.
func (d *DB) CreateExercise(ctx context.Context, e *models.Exercise) error {
	return d.RunInTransaction(ctx, func(tx *Tx) error {
		return tx.CreateExercise(ctx, e)
	})
}

// AddExercises appends one exercise per type, in the given order.
func (d *DB) AddExercises(ctx context.Context, workoutID int64, types []string) ([]*models.Exercise, error) {
	var created []*models.Exercise
	err := d.RunInTransaction(ctx, func(tx *Tx) error {
		created = created[:0]
		for _, t := range types {
			e := models.NewExercise(workoutID, t)
			if err := tx.CreateExercise(ctx, e); err != nil {
				return err
			}
			created = append(created, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (o ops) insertExercise(ctx context.Context, e *models.Exercise) error {
	if e.Revision == 0 {
		e.Revision = 1
	}
	res, err := o.q.ExecContext(ctx, `
		INSERT INTO exercises (type, workout_id, "order", remote_id, revision, synced_revision)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.Type, e.WorkoutID, e.Order,
		nullableRemoteID(e.SyncState), e.Revision, e.SyncedRevision,
	)
	if err != nil {
		return wrapErr("create exercise", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return wrapErr("create exercise", err)
	}
	e.ID = id
	return nil
}

// GetExercise retrieves an exercise by ID.
func (o ops) GetExercise(ctx context.Context, id int64) (*models.Exercise, error) {
	e, err := scanExercise(o.q.QueryRowContext(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("exercise %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, wrapErr("get exercise", err)
	}
	return e, nil
}

// ListExercises lists a workout's exercises by order.
func (o ops) ListExercises(ctx context.Context, workoutID int64) ([]*models.Exercise, error) {
	rows, err := o.q.QueryContext(ctx, `
		SELECT `+exerciseColumns+` FROM exercises
		WHERE workout_id = ?
		ORDER BY "order", id`, workoutID)
	if err != nil {
		return nil, wrapErr("list exercises", err)
	}
	defer rows.Close()

	var exercises []*models.Exercise
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, wrapErr("scan exercise", err)
		}
		exercises = append(exercises, e)
	}
	return exercises, wrapErr("list exercises", rows.Err())
}

// ChangeExerciseType swaps the exercise's catalog type.
func (o ops) ChangeExerciseType(ctx context.Context, id int64, exerciseType string) error {
	res, err := o.q.ExecContext(ctx, `
		UPDATE exercises SET type = ?, revision = revision + 1
		WHERE id = ?`, exerciseType, id)
	return checkAffected("change exercise type", "exercise", id, res, err)
}

// ReorderExercises rewrites the order of a workout's exercises so that
// orderedIDs[i] gets order i. Every id must belong to the workout.
func (o ops) ReorderExercises(ctx context.Context, workoutID int64, orderedIDs []int64) error {
	for i, id := range orderedIDs {
		res, err := o.q.ExecContext(ctx, `
			UPDATE exercises
			SET "order" = ?, revision = revision + CASE WHEN "order" = ? THEN 0 ELSE 1 END
			WHERE id = ? AND workout_id = ?`, i, i, id, workoutID)
		if err := checkAffected("reorder exercises", "exercise", id, res, err); err != nil {
			return err
		}
	}
	return nil
}

// ReorderExercises applies the new order atomically: either every exercise
// takes its new position or none does.
func (d *DB) ReorderExercises(ctx context.Context, workoutID int64, orderedIDs []int64) error {
	return d.RunInTransaction(ctx, func(tx *Tx) error {
		return tx.ReorderExercises(ctx, workoutID, orderedIDs)
	})
}

// DeleteExercise removes an exercise and its sets, recording tombstones.
func (o ops) DeleteExercise(ctx context.Context, id int64, tombstones []Tombstone) error {
	if err := o.addTombstones(ctx, tombstones); err != nil {
		return err
	}
	res, err := o.q.ExecContext(ctx, `DELETE FROM exercises WHERE id = ?`, id)
	return checkAffected("delete exercise", "exercise", id, res, err)
}

// DeleteExercise removes an exercise and records tombstones atomically.
func (d *DB) DeleteExercise(ctx context.Context, id int64, tombstones []Tombstone) error {
	return d.RunInTransaction(ctx, func(tx *Tx) error {
		return tx.DeleteExercise(ctx, id, tombstones)
	})
}

// ImportExercise inserts an exercise and its sets under an existing workout,
// keeping each row's order and sync state.
func (o ops) ImportExercise(ctx context.Context, ed *models.ExerciseDetail) error {
	if err := o.insertExercise(ctx, &ed.Exercise); err != nil {
		return err
	}
	for i := range ed.Sets {
		ed.Sets[i].ExerciseID = ed.ID
		if err := o.insertSet(ctx, &ed.Sets[i]); err != nil {
			return err
		}
	}
	return nil
}

// ImportExercise inserts an exercise subtree in one transaction.
func (d *DB) ImportExercise(ctx context.Context, ed *models.ExerciseDetail) error {
	return d.RunInTransaction(ctx, func(tx *Tx) error {
		return tx.ImportExercise(ctx, ed)
	})
}
