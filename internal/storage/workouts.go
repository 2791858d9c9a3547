// ABOUTME: Workout CRUD operations for SQLite storage.
// ABOUTME: Enforces a single active workout and cascades deletes to exercises and sets.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/harperreed/lift/internal/models"
)

// WorkoutFilter narrows ListWorkouts.
type WorkoutFilter struct {
	// Templates selects templates when true and performed workouts when false.
	Templates bool
	// Limit caps the result size; zero means unlimited.
	Limit int
}

// CreateWorkout stores a new workout. If it is active, every other workout is
// deactivated first.
func (o ops) CreateWorkout(ctx context.Context, w *models.Workout) error {
	if w.Active {
		if err := o.deactivateAll(ctx, 0); err != nil {
			return err
		}
	}
	return o.insertWorkout(ctx, w)
}

// CreateWorkout stores a new workout atomically with the deactivation of others.
func (d *DB) CreateWorkout(ctx context.Context, w *models.Workout) error {
	return d.RunInTransaction(ctx, func(tx *Tx) error {
		return tx.CreateWorkout(ctx, w)
	})
}

func (o ops) insertWorkout(ctx context.Context, w *models.Workout) error {
	if w.Revision == 0 {
		w.Revision = 1
	}
	res, err := o.q.ExecContext(ctx, `
		INSERT INTO workouts (name, start_time, active, is_template, remote_id, revision, synced_revision)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.Name, formatTime(w.StartTime), w.Active, w.IsTemplate,
		nullableRemoteID(w.SyncState), w.Revision, w.SyncedRevision,
	)
	if err != nil {
		return wrapErr("create workout", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return wrapErr("create workout", err)
	}
	w.ID = id
	return nil
}

// deactivateAll clears the active flag on every workout except keepID.
func (o ops) deactivateAll(ctx context.Context, keepID int64) error {
	_, err := o.q.ExecContext(ctx, `
		UPDATE workouts SET active = 0, revision = revision + 1
		WHERE active = 1 AND id != ?`, keepID)
	return wrapErr("deactivate workouts", err)
}

// GetWorkout retrieves a workout by ID.
func (o ops) GetWorkout(ctx context.Context, id int64) (*models.Workout, error) {
	w, err := scanWorkout(o.q.QueryRowContext(ctx,
		`SELECT `+workoutColumns+` FROM workouts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("workout %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, wrapErr("get workout", err)
	}
	return w, nil
}

// GetActiveWorkout returns the most recently started active workout.
func (o ops) GetActiveWorkout(ctx context.Context) (*models.Workout, error) {
	w, err := scanWorkout(o.q.QueryRowContext(ctx, `
		SELECT `+workoutColumns+` FROM workouts
		WHERE active = 1
		ORDER BY start_time DESC, id DESC
		LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("active workout: %w", ErrNotFound)
	}
	if err != nil {
		return nil, wrapErr("get active workout", err)
	}
	return w, nil
}

// ListWorkouts lists workouts or templates, most recent first, each with its
// exercise names in order.
func (o ops) ListWorkouts(ctx context.Context, filter WorkoutFilter) ([]*models.Workout, error) {
	query := `SELECT ` + workoutColumns + ` FROM workouts WHERE is_template = ? ORDER BY start_time DESC, id DESC`
	args := []any{filter.Templates}
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := o.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list workouts", err)
	}
	var workouts []*models.Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			_ = rows.Close()
			return nil, wrapErr("scan workout", err)
		}
		workouts = append(workouts, w)
	}
	if err := rows.Close(); err != nil {
		return nil, wrapErr("list workouts", err)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list workouts", err)
	}

	if err := o.attachExerciseNames(ctx, workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

// attachExerciseNames fills ExerciseNames using the catalog name when known
// and the raw type id otherwise.
func (o ops) attachExerciseNames(ctx context.Context, workouts []*models.Workout) error {
	if len(workouts) == 0 {
		return nil
	}
	byID := make(map[int64]*models.Workout, len(workouts))
	placeholders := make([]string, 0, len(workouts))
	args := make([]any, 0, len(workouts))
	for _, w := range workouts {
		byID[w.ID] = w
		placeholders = append(placeholders, "?")
		args = append(args, w.ID)
	}

	rows, err := o.q.QueryContext(ctx, `
		SELECT e.workout_id, COALESCE(et.name, e.type)
		FROM exercises e
		LEFT JOIN exercise_types et ON et.id = e.type
		WHERE e.workout_id IN (`+strings.Join(placeholders, ",")+`)
		ORDER BY e.workout_id, e."order", e.id`, args...)
	if err != nil {
		return wrapErr("list exercise names", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			workoutID int64
			name      string
		)
		if err := rows.Scan(&workoutID, &name); err != nil {
			return wrapErr("scan exercise name", err)
		}
		if w, ok := byID[workoutID]; ok {
			w.ExerciseNames = append(w.ExerciseNames, name)
		}
	}
	return wrapErr("list exercise names", rows.Err())
}

// CountWorkouts counts workouts or templates.
func (o ops) CountWorkouts(ctx context.Context, templates bool) (int, error) {
	var n int
	err := o.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM workouts WHERE is_template = ?`, templates).Scan(&n)
	if err != nil {
		return 0, wrapErr("count workouts", err)
	}
	return n, nil
}

// RenameWorkout changes a workout's name.
func (o ops) RenameWorkout(ctx context.Context, id int64, name string) error {
	res, err := o.q.ExecContext(ctx, `
		UPDATE workouts SET name = ?, revision = revision + 1
		WHERE id = ?`, name, id)
	return checkAffected("rename workout", "workout", id, res, err)
}

// SetWorkoutActive flips the active flag. Activating a workout deactivates all others.
func (o ops) SetWorkoutActive(ctx context.Context, id int64, active bool) error {
	if active {
		if err := o.deactivateAll(ctx, id); err != nil {
			return err
		}
	}
	res, err := o.q.ExecContext(ctx, `
		UPDATE workouts SET active = ?, revision = revision + 1
		WHERE id = ? AND active != ?`, active, id, active)
	if err != nil {
		return wrapErr("set workout active", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either missing or already in the requested state.
		if _, err := o.GetWorkout(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// SetWorkoutActive flips the active flag atomically with deactivating others.
func (d *DB) SetWorkoutActive(ctx context.Context, id int64, active bool) error {
	return d.RunInTransaction(ctx, func(tx *Tx) error {
		return tx.SetWorkoutActive(ctx, id, active)
	})
}

// DeleteWorkout removes a workout, cascading to its exercises and sets, and
// records the given remote deletions in the same transaction.
func (o ops) DeleteWorkout(ctx context.Context, id int64, tombstones []Tombstone) error {
	if err := o.addTombstones(ctx, tombstones); err != nil {
		return err
	}
	res, err := o.q.ExecContext(ctx, `DELETE FROM workouts WHERE id = ?`, id)
	return checkAffected("delete workout", "workout", id, res, err)
}

// DeleteWorkout removes a workout and records tombstones atomically.
func (d *DB) DeleteWorkout(ctx context.Context, id int64, tombstones []Tombstone) error {
	return d.RunInTransaction(ctx, func(tx *Tx) error {
		return tx.DeleteWorkout(ctx, id, tombstones)
	})
}

// GetWorkoutDetail loads a workout with all exercises and sets.
func (o ops) GetWorkoutDetail(ctx context.Context, id int64) (*models.WorkoutDetail, error) {
	w, err := o.GetWorkout(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &models.WorkoutDetail{Workout: *w, Exercises: []models.ExerciseDetail{}}

	rows, err := o.q.QueryContext(ctx, `
		SELECT e.id, e.type, e.workout_id, e."order", e.remote_id, e.revision, e.synced_revision,
			COALESCE(et.name, '')
		FROM exercises e
		LEFT JOIN exercise_types et ON et.id = e.type
		WHERE e.workout_id = ?
		ORDER BY e."order", e.id`, id)
	if err != nil {
		return nil, wrapErr("list exercises", err)
	}
	for rows.Next() {
		var (
			ed       models.ExerciseDetail
			remoteID sql.NullString
		)
		if err := rows.Scan(&ed.ID, &ed.Type, &ed.WorkoutID, &ed.Order,
			&remoteID, &ed.Revision, &ed.SyncedRevision, &ed.TypeName); err != nil {
			_ = rows.Close()
			return nil, wrapErr("scan exercise", err)
		}
		ed.RemoteID = remoteIDPtr(remoteID)
		ed.Sets = []models.WorkoutSet{}
		detail.Exercises = append(detail.Exercises, ed)
	}
	if err := rows.Close(); err != nil {
		return nil, wrapErr("list exercises", err)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list exercises", err)
	}

	for i := range detail.Exercises {
		sets, err := o.ListSets(ctx, detail.Exercises[i].ID)
		if err != nil {
			return nil, err
		}
		for _, s := range sets {
			detail.Exercises[i].Sets = append(detail.Exercises[i].Sets, *s)
		}
	}
	return detail, nil
}

// CopyOptions controls how DuplicateWorkout shapes the copy.
type CopyOptions struct {
	Name       string
	AsTemplate bool
	Active     bool
	// KeepCompleted preserves each set's completed flag; otherwise copies start incomplete.
	KeepCompleted bool
}

// DuplicateWorkout deep-copies a workout into a new, unsynced workout with
// fresh ids. The copy shares no rows with the source.
func (o ops) DuplicateWorkout(ctx context.Context, sourceID int64, opts CopyOptions) (*models.WorkoutDetail, error) {
	src, err := o.GetWorkoutDetail(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	name := opts.Name
	if name == "" {
		name = src.Name
	}
	w := models.NewWorkout(name)
	w.Active = opts.Active
	w.IsTemplate = opts.AsTemplate
	if err := o.CreateWorkout(ctx, w); err != nil {
		return nil, err
	}

	copyDetail := &models.WorkoutDetail{Workout: *w, Exercises: []models.ExerciseDetail{}}
	for _, se := range src.Exercises {
		e := models.NewExercise(w.ID, se.Type)
		e.Order = se.Order
		if err := o.insertExercise(ctx, e); err != nil {
			return nil, err
		}
		ed := models.ExerciseDetail{Exercise: *e, TypeName: se.TypeName, Sets: []models.WorkoutSet{}}
		for _, ss := range se.Sets {
			s := models.NewWorkoutSet(e.ID)
			s.Weight = ss.Weight
			s.Reps = ss.Reps
			s.Completed = opts.KeepCompleted && ss.Completed
			if err := o.insertSet(ctx, s); err != nil {
				return nil, err
			}
			ed.Sets = append(ed.Sets, *s)
		}
		copyDetail.Exercises = append(copyDetail.Exercises, ed)
	}
	return copyDetail, nil
}

// DuplicateWorkout deep-copies a workout in one transaction.
func (d *DB) DuplicateWorkout(ctx context.Context, sourceID int64, opts CopyOptions) (*models.WorkoutDetail, error) {
	var out *models.WorkoutDetail
	err := d.RunInTransaction(ctx, func(tx *Tx) error {
		var err error
		out, err = tx.DuplicateWorkout(ctx, sourceID, opts)
		return err
	})
	return out, err
}

// ImportWorkout inserts a complete workout tree, keeping each row's sync state.
func (o ops) ImportWorkout(ctx context.Context, detail *models.WorkoutDetail) error {
	if err := o.insertWorkout(ctx, &detail.Workout); err != nil {
		return err
	}
	for i := range detail.Exercises {
		detail.Exercises[i].WorkoutID = detail.ID
		if err := o.ImportExercise(ctx, &detail.Exercises[i]); err != nil {
			return err
		}
	}
	return nil
}

// ImportWorkout inserts a complete workout tree in one transaction.
func (d *DB) ImportWorkout(ctx context.Context, detail *models.WorkoutDetail) error {
	return d.RunInTransaction(ctx, func(tx *Tx) error {
		return tx.ImportWorkout(ctx, detail)
	})
}

func checkAffected(op, kind string, id int64, res sql.Result, err error) error {
	if err != nil {
		return wrapErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	return nil
}
