// ABOUTME: Sync Orchestrator: dependency-ordered, idempotent propagation of local entities to the mirror.
// ABOUTME: Parents are linked before children; failures are logged and left for the next sweep.
package sync

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/harperreed/lift/internal/connectivity"
	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/remote"
	"github.com/harperreed/lift/internal/storage"
)

// Syncer propagates local changes to a remote mirror.
type Syncer struct {
	store     storage.Repository
	mirror    remote.Mirror
	oracle    connectivity.Oracle
	installID string
	logger    *log.Logger

	// flight collapses concurrent propagate calls for the same entity into one attempt.
	flight singleflight.Group
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithLogger sets the logger. A nil logger keeps the default.
func WithLogger(logger *log.Logger) Option {
	return func(s *Syncer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Syncer. installID must be stable for the lifetime of the
// local database so repeated creates map to the same external ids.
func New(store storage.Repository, mirror remote.Mirror, oracle connectivity.Oracle, installID string, opts ...Option) *Syncer {
	s := &Syncer{
		store:     store,
		mirror:    mirror,
		oracle:    oracle,
		installID: installID,
		logger:    log.NewWithOptions(os.Stderr, log.Options{Prefix: "sync"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Logger returns the syncer's logger.
func (s *Syncer) Logger() *log.Logger {
	return s.logger
}

// Online reports the oracle's current answer.
func (s *Syncer) Online(ctx context.Context) bool {
	return s.oracle.IsOnline(ctx)
}

// Propagate pushes one entity, linking its parent chain first when needed.
// Offline and already-synced entities are Skipped without any remote call.
func (s *Syncer) Propagate(ctx context.Context, ref models.Ref) (Outcome, error) {
	if !s.oracle.IsOnline(ctx) {
		s.logger.Debug("offline, skipping", "ref", ref)
		return Skipped, nil
	}
	out, err := s.propagate(ctx, ref)
	if err != nil {
		s.logger.Warn("propagate failed", "kind", ref.Kind, "id", ref.ID, "err", err)
	}
	return out, err
}

func (s *Syncer) propagate(ctx context.Context, ref models.Ref) (Outcome, error) {
	v, err, _ := s.flight.Do(ref.String(), func() (any, error) {
		return s.push(ctx, ref)
	})
	out, _ := v.(Outcome)
	if err != nil {
		return Failed, err
	}
	return out, nil
}

// push is the per-entity state machine. Callers go through propagate.
func (s *Syncer) push(ctx context.Context, ref models.Ref) (Outcome, error) {
	n, err := s.load(ctx, ref)
	if err != nil {
		return Failed, fmt.Errorf("load %s: %w", ref, err)
	}
	if n.state.Synced() {
		return Skipped, nil
	}

	var parentRemoteID string
	if n.parent != nil {
		parentRemoteID, err = s.ensureParent(ctx, *n.parent)
		if err != nil {
			return Failed, err
		}
	}

	remoteID, err := s.send(ctx, n, parentRemoteID)
	if err != nil {
		return Failed, err
	}

	// Conditional write-back: if the row changed while the push was in
	// flight its revision moved on and it stays unsynced.
	err = s.store.MarkSynced(ctx, ref, remoteID, n.state.Revision)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted locally while the create was in flight.
		if err := s.store.AddTombstones(ctx, []storage.Tombstone{{Kind: ref.Kind, RemoteID: remoteID}}); err != nil {
			return Failed, fmt.Errorf("record pending delete for %s: %w", ref, err)
		}
		s.logger.Info("entity deleted during push, remote delete pending", "ref", ref, "remote_id", remoteID)
		return Skipped, nil
	}
	if err != nil {
		return Failed, fmt.Errorf("record remote id for %s: %w", ref, err)
	}
	s.logger.Debug("linked", "ref", ref, "remote_id", remoteID)
	return Linked, nil
}

// ensureParent returns the parent's remote id, propagating the parent first
// when it has none.
func (s *Syncer) ensureParent(ctx context.Context, parent models.Ref) (string, error) {
	p, err := s.load(ctx, parent)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrParentUnsynced, parent, err)
	}
	if p.state.Linked() {
		return *p.state.RemoteID, nil
	}

	if _, err := s.propagate(ctx, parent); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrParentUnsynced, parent, err)
	}
	p, err = s.load(ctx, parent)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrParentUnsynced, parent, err)
	}
	if !p.state.Linked() {
		return "", fmt.Errorf("%w: %s", ErrParentUnsynced, parent)
	}
	return *p.state.RemoteID, nil
}

// send creates the remote record for an unlinked entity or rewrites every
// mirrored field of a linked one. A linked record that vanished remotely is
// created again.
func (s *Syncer) send(ctx context.Context, n *node, parentRemoteID string) (string, error) {
	if n.state.Linked() {
		err := n.patch(ctx, *n.state.RemoteID, nil)
		if err == nil {
			return *n.state.RemoteID, nil
		}
		if !remote.IsNotFound(err) {
			return "", err
		}
		s.logger.Info("remote record missing, recreating", "ref", n.ref, "remote_id", *n.state.RemoteID)
	}
	return n.create(ctx, remote.ExternalID(s.installID, n.ref), parentRemoteID)
}

// PushFields sends a field-scoped update for an entity that already has a
// remote identity. Unlinked entities are skipped: the value stays local until
// a full propagation carries it. The row is marked synced only when the
// pushed change was its sole outstanding one.
func (s *Syncer) PushFields(ctx context.Context, ref models.Ref, fields ...Field) (Outcome, error) {
	if !s.oracle.IsOnline(ctx) {
		s.logger.Debug("offline, skipping field update", "ref", ref)
		return Skipped, nil
	}
	n, err := s.load(ctx, ref)
	if err != nil {
		return Failed, fmt.Errorf("load %s: %w", ref, err)
	}
	if !n.state.Linked() {
		s.logger.Debug("not linked, change stays local", "ref", ref)
		return Skipped, nil
	}
	if n.state.Synced() {
		return Skipped, nil
	}

	if err := n.patch(ctx, *n.state.RemoteID, fields); err != nil {
		s.logger.Warn("field update failed", "kind", ref.Kind, "id", ref.ID, "fields", fields, "err", err)
		return Failed, err
	}
	if n.state.SyncedRevision != n.state.Revision-1 {
		// Other changes are still outstanding; the full pass will mark it.
		return Linked, nil
	}
	if err := s.store.MarkSynced(ctx, ref, *n.state.RemoteID, n.state.Revision); err != nil {
		return Failed, fmt.Errorf("record sync for %s: %w", ref, err)
	}
	return Linked, nil
}

// TreeReport counts outcomes of a whole-subtree propagation.
type TreeReport struct {
	Linked  int
	Skipped int
	Failed  int
}

func (r *TreeReport) add(out Outcome) {
	switch out {
	case Linked:
		r.Linked++
	case Skipped:
		r.Skipped++
	case Failed:
		r.Failed++
	}
}

// Merge adds other's counts into r.
func (r *TreeReport) Merge(other TreeReport) {
	r.Linked += other.Linked
	r.Skipped += other.Skipped
	r.Failed += other.Failed
}

// PropagateTree pushes a workout, then each exercise in order, then each
// exercise's sets. A failed node aborts its own subtree but not its siblings.
func (s *Syncer) PropagateTree(ctx context.Context, workoutID int64) (TreeReport, error) {
	var report TreeReport
	if !s.oracle.IsOnline(ctx) {
		s.logger.Debug("offline, skipping workout tree", "workout", workoutID)
		report.add(Skipped)
		return report, nil
	}

	wref := models.WorkoutRef(workoutID)
	out, err := s.propagate(ctx, wref)
	report.add(out)
	if out == Failed {
		s.logger.Warn("workout sync failed", "id", workoutID, "err", err)
		return report, nil
	}

	exercises, err := s.store.ListExercises(ctx, workoutID)
	if err != nil {
		return report, fmt.Errorf("list exercises: %w", err)
	}
	for _, e := range exercises {
		out, err := s.propagate(ctx, e.Ref())
		report.add(out)
		if out == Failed {
			s.logger.Warn("exercise sync failed", "id", e.ID, "err", err)
			continue
		}

		sets, err := s.store.ListSets(ctx, e.ID)
		if err != nil {
			return report, fmt.Errorf("list sets: %w", err)
		}
		for _, ws := range sets {
			out, err := s.propagate(ctx, ws.Ref())
			report.add(out)
			if out == Failed {
				s.logger.Warn("set sync failed", "id", ws.ID, "err", err)
			}
		}
	}
	return report, nil
}

// isAuth reports whether err means no identity is available.
func isAuth(err error) bool {
	return errors.Is(err, remote.ErrAuthRequired)
}
