// ABOUTME: Reconciliation Sweep: retries every pending delete and every workout with unsynced rows.
// ABOUTME: Workouts are processed sequentially and one failure never stops the pass.
package sync

import (
	"context"
	"fmt"
)

// SweepReport summarizes one sweep.
type SweepReport struct {
	Workouts          int
	Linked            int
	Skipped           int
	Failed            int
	TombstonesCleared int
	TombstonesFailed  int
	Offline           bool
}

// SweepAll drains pending deletes, then propagates the subtree of every
// workout that is unsynced itself or owns an unsynced exercise or set.
func (s *Syncer) SweepAll(ctx context.Context) (SweepReport, error) {
	var report SweepReport
	if !s.oracle.IsOnline(ctx) {
		s.logger.Debug("offline, skipping sweep")
		report.Offline = true
		return report, nil
	}

	drained, err := s.DrainTombstones(ctx)
	report.TombstonesCleared = drained.Cleared()
	report.TombstonesFailed = drained.Failed
	if err != nil {
		s.logger.Warn("draining pending deletes failed", "err", err)
	}

	ids, err := s.store.WorkoutsNeedingSync(ctx)
	if err != nil {
		return report, fmt.Errorf("list workouts needing sync: %w", err)
	}

	var total TreeReport
	for _, id := range ids {
		tree, err := s.PropagateTree(ctx, id)
		total.Merge(tree)
		report.Workouts++
		if err != nil {
			s.logger.Warn("workout sweep failed", "id", id, "err", err)
		}
	}
	report.Linked = total.Linked
	report.Skipped = total.Skipped
	report.Failed = total.Failed

	s.logger.Info("sweep complete",
		"workouts", report.Workouts,
		"linked", report.Linked,
		"failed", report.Failed,
		"deletes_cleared", report.TombstonesCleared)
	return report, nil
}
