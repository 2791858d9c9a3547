// ABOUTME: Replication bookkeeping: remote links, unsynced queries and pending remote deletes.
// ABOUTME: Used by the sync engine; the CLI only reads the summary.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/lift/internal/models"
)

// Tombstone is a remote record that must be deleted once the mirror is reachable.
type Tombstone struct {
	ID        int64       `json:"id"`
	Kind      models.Kind `json:"kind"`
	RemoteID  string      `json:"remote_id"`
	CreatedAt time.Time   `json:"created_at"`
}

// SyncSummary counts rows still waiting on the remote mirror.
type SyncSummary struct {
	Unsynced       map[models.Kind]int `json:"unsynced"`
	PendingDeletes int                 `json:"pending_deletes"`
}

// Total returns the number of outstanding items.
func (s SyncSummary) Total() int {
	n := s.PendingDeletes
	for _, c := range s.Unsynced {
		n += c
	}
	return n
}

func tableFor(kind models.Kind) (string, error) {
	switch kind {
	case models.KindWorkout:
		return "workouts", nil
	case models.KindExercise:
		return "exercises", nil
	case models.KindSet:
		return "sets", nil
	}
	return "", fmt.Errorf("unknown entity kind %q", kind)
}

// MarkSynced links a row to its remote record and records which local
// revision the remote now reflects. If the row changed after that revision was
// read, it stays unsynced.
func (o ops) MarkSynced(ctx context.Context, ref models.Ref, remoteID string, revision int64) error {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return err
	}
	res, err := o.q.ExecContext(ctx,
		`UPDATE `+table+` SET remote_id = ?, synced_revision = ? WHERE id = ?`,
		remoteID, revision, ref.ID)
	return checkAffected("mark synced", string(ref.Kind), ref.ID, res, err)
}

// ListUnsynced returns the ids of rows of a kind that are not synced.
func (o ops) ListUnsynced(ctx context.Context, kind models.Kind) ([]int64, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	return o.queryIDs(ctx, "list unsynced "+string(kind),
		`SELECT id FROM `+table+` WHERE synced = 0 ORDER BY id`)
}

// WorkoutsNeedingSync returns workouts that are unsynced themselves or own
// an unsynced exercise or set.
func (o ops) WorkoutsNeedingSync(ctx context.Context) ([]int64, error) {
	return o.queryIDs(ctx, "list workouts needing sync", `
		SELECT w.id FROM workouts w
		WHERE w.synced = 0
		OR EXISTS (
			SELECT 1 FROM exercises e
			WHERE e.workout_id = w.id
			AND (e.synced = 0 OR EXISTS (
				SELECT 1 FROM sets s WHERE s.exercise_id = e.id AND s.synced = 0
			))
		)
		ORDER BY w.start_time, w.id`)
}

// FindByRemoteID returns the local id linked to a remote record.
func (o ops) FindByRemoteID(ctx context.Context, kind models.Kind, remoteID string) (int64, error) {
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	var id int64
	err = o.q.QueryRowContext(ctx,
		`SELECT id FROM `+table+` WHERE remote_id = ?`, remoteID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%s with remote id %s: %w", kind, remoteID, ErrNotFound)
	}
	if err != nil {
		return 0, wrapErr("find by remote id", err)
	}
	return id, nil
}

func (o ops) addTombstones(ctx context.Context, tombstones []Tombstone) error {
	now := formatTime(time.Now())
	for _, t := range tombstones {
		if t.RemoteID == "" {
			continue
		}
		_, err := o.q.ExecContext(ctx, `
			INSERT INTO pending_deletes (kind, remote_id, created_at)
			VALUES (?, ?, ?)
			ON CONFLICT (kind, remote_id) DO NOTHING`,
			string(t.Kind), t.RemoteID, now)
		if err != nil {
			return wrapErr("record pending delete", err)
		}
	}
	return nil
}

// AddTombstones records remote deletions without touching local rows.
func (o ops) AddTombstones(ctx context.Context, tombstones []Tombstone) error {
	return o.addTombstones(ctx, tombstones)
}

// ListTombstones returns pending remote deletes, leaves before parents.
func (o ops) ListTombstones(ctx context.Context) ([]Tombstone, error) {
	rows, err := o.q.QueryContext(ctx, `
		SELECT id, kind, remote_id, created_at FROM pending_deletes
		ORDER BY CASE kind WHEN 'set' THEN 0 WHEN 'exercise' THEN 1 ELSE 2 END, id`)
	if err != nil {
		return nil, wrapErr("list pending deletes", err)
	}
	defer rows.Close()

	var out []Tombstone
	for rows.Next() {
		var (
			t         Tombstone
			kind      string
			createdAt string
		)
		if err := rows.Scan(&t.ID, &kind, &t.RemoteID, &createdAt); err != nil {
			return nil, wrapErr("scan pending delete", err)
		}
		t.Kind = models.Kind(kind)
		if t.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, wrapErr("parse pending delete time", err)
		}
		out = append(out, t)
	}
	return out, wrapErr("list pending deletes", rows.Err())
}

// HasTombstone reports whether a remote record is still waiting to be deleted.
func (o ops) HasTombstone(ctx context.Context, kind models.Kind, remoteID string) (bool, error) {
	var n int
	err := o.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pending_deletes WHERE kind = ? AND remote_id = ?`,
		string(kind), remoteID).Scan(&n)
	if err != nil {
		return false, wrapErr("check pending delete", err)
	}
	return n > 0, nil
}

// ClearTombstone drops a pending delete once the remote record is gone.
func (o ops) ClearTombstone(ctx context.Context, id int64) error {
	_, err := o.q.ExecContext(ctx, `DELETE FROM pending_deletes WHERE id = ?`, id)
	return wrapErr("clear pending delete", err)
}

// SyncSummary counts unsynced rows per kind and pending deletes.
func (o ops) SyncSummary(ctx context.Context) (*SyncSummary, error) {
	summary := &SyncSummary{Unsynced: make(map[models.Kind]int, len(models.AllKinds))}
	for _, kind := range models.AllKinds {
		table, _ := tableFor(kind)
		var n int
		if err := o.q.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM `+table+` WHERE synced = 0`).Scan(&n); err != nil {
			return nil, wrapErr("count unsynced", err)
		}
		summary.Unsynced[kind] = n
	}
	if err := o.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pending_deletes`).Scan(&summary.PendingDeletes); err != nil {
		return nil, wrapErr("count pending deletes", err)
	}
	return summary, nil
}

func (o ops) queryIDs(ctx context.Context, op, query string, args ...any) ([]int64, error) {
	rows, err := o.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, wrapErr(op, err)
		}
		ids = append(ids, id)
	}
	return ids, wrapErr(op, rows.Err())
}
