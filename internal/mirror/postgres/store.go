// ABOUTME: PostgreSQL mirror Store on a pgx connection pool.
// ABOUTME: Tables are created on open; creates dedupe on (user_id, external_id) with ON CONFLICT.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harperreed/lift/internal/mirror"
	"github.com/harperreed/lift/internal/remote"
)

const schema = `
CREATE TABLE IF NOT EXISTS mirror_workouts (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	external_id TEXT NOT NULL,
	name        TEXT NOT NULL DEFAULT '',
	start_time  TIMESTAMPTZ NOT NULL,
	active      BOOLEAN NOT NULL DEFAULT FALSE,
	is_template BOOLEAN NOT NULL DEFAULT FALSE,
	UNIQUE (user_id, external_id)
);

CREATE TABLE IF NOT EXISTS mirror_exercises (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	external_id TEXT NOT NULL,
	workout_id  TEXT NOT NULL,
	type        TEXT NOT NULL,
	ord         INT NOT NULL DEFAULT 0,
	seq         BIGSERIAL,
	UNIQUE (user_id, external_id)
);
CREATE INDEX IF NOT EXISTS idx_mirror_exercises_workout ON mirror_exercises(user_id, workout_id);

CREATE TABLE IF NOT EXISTS mirror_sets (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	external_id TEXT NOT NULL,
	exercise_id TEXT NOT NULL,
	weight      DOUBLE PRECISION,
	reps        INT,
	completed   BOOLEAN NOT NULL DEFAULT FALSE,
	seq         BIGSERIAL,
	UNIQUE (user_id, external_id)
);
CREATE INDEX IF NOT EXISTS idx_mirror_sets_exercise ON mirror_sets(user_id, exercise_id);
`

// Store implements mirror.Store on PostgreSQL. Parent ids are plain columns
// without foreign keys so deleting a parent leaves its children in place.
type Store struct {
	pool *pgxpool.Pool
}

var _ mirror.Store = (*Store)(nil)

// Open connects to dsn, verifies the connection and creates missing tables.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Migrate ensures the mirror tables exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// existing returns the id already assigned to (userID, externalID) in table.
func (s *Store) existing(ctx context.Context, table, userID, externalID string) (string, bool, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM `+table+` WHERE user_id = $1 AND external_id = $2`,
		userID, externalID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (s *Store) owns(ctx context.Context, table, userID, id string) error {
	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM `+table+` WHERE id = $1 AND user_id = $2`, id, userID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return mirror.ErrNotFound
	}
	return err
}

// insert runs an ON CONFLICT DO NOTHING insert. A concurrent create of the
// same external id loses the race and reads the winner's id.
func (s *Store) insert(ctx context.Context, table, userID, externalID, query string, args ...any) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx, query, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		id, ok, err := s.existing(ctx, table, userID, externalID)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("%s: insert conflicted but no row found", table)
		}
		return id, nil
	}
	return id, err
}

func affected(tag interface{ RowsAffected() int64 }, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return mirror.ErrNotFound
	}
	return nil
}

func (s *Store) CreateWorkout(ctx context.Context, userID string, rec remote.WorkoutRecord) (string, error) {
	if id, ok, err := s.existing(ctx, "mirror_workouts", userID, rec.ExternalID); err != nil || ok {
		return id, err
	}
	return s.insert(ctx, "mirror_workouts", userID, rec.ExternalID, `
		INSERT INTO mirror_workouts (id, user_id, external_id, name, start_time, active, is_template)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, external_id) DO NOTHING
		RETURNING id`,
		uuid.NewString(), userID, rec.ExternalID, rec.Name, rec.StartTime.UTC(), rec.Active, rec.IsTemplate)
}

func (s *Store) UpdateWorkout(ctx context.Context, userID, id string, patch remote.WorkoutPatch) error {
	var start *time.Time
	if patch.StartTime != nil {
		t := patch.StartTime.UTC()
		start = &t
	}
	return affected(s.pool.Exec(ctx, `
		UPDATE mirror_workouts SET
			name = COALESCE($3, name),
			start_time = COALESCE($4, start_time),
			active = COALESCE($5, active),
			is_template = COALESCE($6, is_template)
		WHERE id = $1 AND user_id = $2`,
		id, userID, patch.Name, start, patch.Active, patch.IsTemplate))
}

func (s *Store) DeleteWorkout(ctx context.Context, userID, id string) error {
	return affected(s.pool.Exec(ctx, `DELETE FROM mirror_workouts WHERE id = $1 AND user_id = $2`, id, userID))
}

func (s *Store) ListWorkouts(ctx context.Context, userID string) ([]remote.Workout, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, external_id, name, start_time, active, is_template
		FROM mirror_workouts WHERE user_id = $1
		ORDER BY start_time, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workouts := []remote.Workout{}
	for rows.Next() {
		var w remote.Workout
		if err := rows.Scan(&w.ID, &w.ExternalID, &w.Name, &w.StartTime, &w.Active, &w.IsTemplate); err != nil {
			return nil, err
		}
		w.StartTime = w.StartTime.UTC()
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}

func (s *Store) CreateExercise(ctx context.Context, userID string, rec remote.ExerciseRecord) (string, error) {
	if id, ok, err := s.existing(ctx, "mirror_exercises", userID, rec.ExternalID); err != nil || ok {
		return id, err
	}
	if err := s.owns(ctx, "mirror_workouts", userID, rec.WorkoutID); err != nil {
		return "", err
	}
	return s.insert(ctx, "mirror_exercises", userID, rec.ExternalID, `
		INSERT INTO mirror_exercises (id, user_id, external_id, workout_id, type, ord)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, external_id) DO NOTHING
		RETURNING id`,
		uuid.NewString(), userID, rec.ExternalID, rec.WorkoutID, rec.Type, rec.Order)
}

func (s *Store) UpdateExercise(ctx context.Context, userID, id string, patch remote.ExercisePatch) error {
	return affected(s.pool.Exec(ctx, `
		UPDATE mirror_exercises SET
			type = COALESCE($3, type),
			ord = COALESCE($4, ord)
		WHERE id = $1 AND user_id = $2`,
		id, userID, patch.Type, patch.Order))
}

func (s *Store) DeleteExercise(ctx context.Context, userID, id string) error {
	return affected(s.pool.Exec(ctx, `DELETE FROM mirror_exercises WHERE id = $1 AND user_id = $2`, id, userID))
}

func (s *Store) ListExercises(ctx context.Context, userID, workoutID string) ([]remote.Exercise, error) {
	if err := s.owns(ctx, "mirror_workouts", userID, workoutID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, external_id, workout_id, type, ord
		FROM mirror_exercises WHERE user_id = $1 AND workout_id = $2
		ORDER BY ord, seq`, userID, workoutID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exercises := []remote.Exercise{}
	for rows.Next() {
		var e remote.Exercise
		if err := rows.Scan(&e.ID, &e.ExternalID, &e.WorkoutID, &e.Type, &e.Order); err != nil {
			return nil, err
		}
		exercises = append(exercises, e)
	}
	return exercises, rows.Err()
}

func (s *Store) CreateSet(ctx context.Context, userID string, rec remote.SetRecord) (string, error) {
	if id, ok, err := s.existing(ctx, "mirror_sets", userID, rec.ExternalID); err != nil || ok {
		return id, err
	}
	if err := s.owns(ctx, "mirror_exercises", userID, rec.ExerciseID); err != nil {
		return "", err
	}
	return s.insert(ctx, "mirror_sets", userID, rec.ExternalID, `
		INSERT INTO mirror_sets (id, user_id, external_id, exercise_id, weight, reps, completed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, external_id) DO NOTHING
		RETURNING id`,
		uuid.NewString(), userID, rec.ExternalID, rec.ExerciseID, rec.Weight, rec.Reps, rec.Completed)
}

func (s *Store) UpdateSet(ctx context.Context, userID, id string, patch remote.SetPatch) error {
	return affected(s.pool.Exec(ctx, `
		UPDATE mirror_sets SET
			weight = COALESCE($3, weight),
			reps = COALESCE($4, reps),
			completed = COALESCE($5, completed)
		WHERE id = $1 AND user_id = $2`,
		id, userID, patch.Weight, patch.Reps, patch.Completed))
}

func (s *Store) DeleteSet(ctx context.Context, userID, id string) error {
	return affected(s.pool.Exec(ctx, `DELETE FROM mirror_sets WHERE id = $1 AND user_id = $2`, id, userID))
}

func (s *Store) ListSets(ctx context.Context, userID, exerciseID string) ([]remote.Set, error) {
	if err := s.owns(ctx, "mirror_exercises", userID, exerciseID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, external_id, exercise_id, weight, reps, completed
		FROM mirror_sets WHERE user_id = $1 AND exercise_id = $2
		ORDER BY seq`, userID, exerciseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sets := []remote.Set{}
	for rows.Next() {
		var st remote.Set
		if err := rows.Scan(&st.ID, &st.ExternalID, &st.ExerciseID, &st.Weight, &st.Reps, &st.Completed); err != nil {
			return nil, err
		}
		sets = append(sets, st)
	}
	return sets, rows.Err()
}
