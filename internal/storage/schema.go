// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: Defines workouts, exercises, sets, the exercise catalog and pending remote deletes.
package storage

// initSchema creates or updates the database schema.
//
// The synced column is derived, so a row can never claim to be synced while
// lacking a remote id or while holding edits newer than the last push.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS workouts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		start_time TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 0,
		is_template INTEGER NOT NULL DEFAULT 0,
		remote_id TEXT,
		revision INTEGER NOT NULL DEFAULT 1,
		synced_revision INTEGER NOT NULL DEFAULT 0,
		synced INTEGER GENERATED ALWAYS AS (remote_id IS NOT NULL AND synced_revision = revision) VIRTUAL
	);

	CREATE TABLE IF NOT EXISTS exercises (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		workout_id INTEGER NOT NULL,
		"order" INTEGER NOT NULL DEFAULT 0,
		remote_id TEXT,
		revision INTEGER NOT NULL DEFAULT 1,
		synced_revision INTEGER NOT NULL DEFAULT 0,
		synced INTEGER GENERATED ALWAYS AS (remote_id IS NOT NULL AND synced_revision = revision) VIRTUAL,
		FOREIGN KEY (workout_id) REFERENCES workouts(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS sets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		weight REAL,
		reps INTEGER,
		completed INTEGER NOT NULL DEFAULT 0,
		exercise_id INTEGER NOT NULL,
		remote_id TEXT,
		revision INTEGER NOT NULL DEFAULT 1,
		synced_revision INTEGER NOT NULL DEFAULT 0,
		synced INTEGER GENERATED ALWAYS AS (remote_id IS NOT NULL AND synced_revision = revision) VIRTUAL,
		FOREIGN KEY (exercise_id) REFERENCES exercises(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS exercise_types (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		instructions TEXT NOT NULL DEFAULT '[]',
		primary_muscles TEXT NOT NULL DEFAULT '[]',
		secondary_muscles TEXT NOT NULL DEFAULT '[]',
		level TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS pending_deletes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		remote_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE (kind, remote_id)
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_workouts_single_active ON workouts(active) WHERE active = 1;
	CREATE UNIQUE INDEX IF NOT EXISTS idx_workouts_remote ON workouts(remote_id) WHERE remote_id IS NOT NULL;
	CREATE UNIQUE INDEX IF NOT EXISTS idx_exercises_remote ON exercises(remote_id) WHERE remote_id IS NOT NULL;
	CREATE UNIQUE INDEX IF NOT EXISTS idx_sets_remote ON sets(remote_id) WHERE remote_id IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_workouts_start ON workouts(start_time DESC);
	CREATE INDEX IF NOT EXISTS idx_exercises_workout ON exercises(workout_id, "order");
	CREATE INDEX IF NOT EXISTS idx_sets_exercise ON sets(exercise_id);
	`

	_, err := d.db.Exec(schema)
	return err
}
