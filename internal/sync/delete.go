// ABOUTME: Delete propagation through pending-delete tombstones.
// ABOUTME: Local deletes always succeed; remote deletes are drained children-first whenever online.
package sync

import (
	"context"
	"fmt"

	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/remote"
	"github.com/harperreed/lift/internal/storage"
)

// Tombstones lists the remote records that must disappear when ref is deleted
// locally, leaves first. Unlinked entities contribute nothing.
func (s *Syncer) Tombstones(ctx context.Context, ref models.Ref) ([]storage.Tombstone, error) {
	var out []storage.Tombstone
	add := func(kind models.Kind, state models.SyncState) {
		if state.Linked() {
			out = append(out, storage.Tombstone{Kind: kind, RemoteID: *state.RemoteID})
		}
	}

	switch ref.Kind {
	case models.KindWorkout:
		detail, err := s.store.GetWorkoutDetail(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		for _, e := range detail.Exercises {
			for _, ws := range e.Sets {
				add(models.KindSet, ws.SyncState)
			}
		}
		for _, e := range detail.Exercises {
			add(models.KindExercise, e.SyncState)
		}
		add(models.KindWorkout, detail.SyncState)

	case models.KindExercise:
		e, err := s.store.GetExercise(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		sets, err := s.store.ListSets(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		for _, ws := range sets {
			add(models.KindSet, ws.SyncState)
		}
		add(models.KindExercise, e.SyncState)

	case models.KindSet:
		ws, err := s.store.GetSet(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		add(models.KindSet, ws.SyncState)

	default:
		return nil, fmt.Errorf("unknown entity kind %q", ref.Kind)
	}
	return out, nil
}

// DeleteLocal removes ref and its descendants locally and records tombstones
// for everything that had a remote identity, in one transaction. Only storage
// errors are returned.
func (s *Syncer) DeleteLocal(ctx context.Context, ref models.Ref) (int, error) {
	tombstones, err := s.Tombstones(ctx, ref)
	if err != nil {
		return 0, err
	}

	switch ref.Kind {
	case models.KindWorkout:
		err = s.store.DeleteWorkout(ctx, ref.ID, tombstones)
	case models.KindExercise:
		err = s.store.DeleteExercise(ctx, ref.ID, tombstones)
	case models.KindSet:
		err = s.store.DeleteSet(ctx, ref.ID, tombstones)
	}
	if err != nil {
		return 0, err
	}

	if len(tombstones) == 0 {
		s.logger.Info("nothing remote to delete", "ref", ref)
	}
	return len(tombstones), nil
}

// DrainReport counts the result of draining pending deletes.
type DrainReport struct {
	Deleted int
	Missing int
	Failed  int
}

// Cleared returns the number of tombstones removed.
func (r DrainReport) Cleared() int {
	return r.Deleted + r.Missing
}

// DrainTombstones issues the pending remote deletes, sets before exercises
// before workouts. A delete of a record already gone remotely clears its
// tombstone. Failures stay pending for the next sweep.
func (s *Syncer) DrainTombstones(ctx context.Context) (DrainReport, error) {
	var report DrainReport
	if !s.oracle.IsOnline(ctx) {
		s.logger.Debug("offline, leaving pending deletes")
		return report, nil
	}

	v, err, _ := s.flight.Do("pending-deletes", func() (any, error) {
		return s.drain(ctx)
	})
	if r, ok := v.(DrainReport); ok {
		report = r
	}
	return report, err
}

func (s *Syncer) drain(ctx context.Context) (DrainReport, error) {
	var report DrainReport
	tombstones, err := s.store.ListTombstones(ctx)
	if err != nil {
		return report, err
	}

	for _, t := range tombstones {
		err := s.deleteRemote(ctx, t)
		switch {
		case err == nil:
			report.Deleted++
		case remote.IsNotFound(err):
			report.Missing++
		default:
			report.Failed++
			s.logger.Warn("remote delete failed", "kind", t.Kind, "remote_id", t.RemoteID, "err", err)
			if isAuth(err) {
				return report, nil
			}
			continue
		}
		if err := s.store.ClearTombstone(ctx, t.ID); err != nil {
			return report, fmt.Errorf("clear pending delete: %w", err)
		}
	}
	return report, nil
}

func (s *Syncer) deleteRemote(ctx context.Context, t storage.Tombstone) error {
	switch t.Kind {
	case models.KindWorkout:
		return s.mirror.DeleteWorkout(ctx, t.RemoteID)
	case models.KindExercise:
		return s.mirror.DeleteExercise(ctx, t.RemoteID)
	case models.KindSet:
		return s.mirror.DeleteSet(ctx, t.RemoteID)
	}
	return fmt.Errorf("unknown entity kind %q", t.Kind)
}
