// ABOUTME: One-way downward pull that seeds the local store from the mirror.
// ABOUTME: Inserts remote records unknown locally as already synced; existing rows are never merged.
package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/remote"
	"github.com/harperreed/lift/internal/storage"
)

// PullReport counts rows inserted by a pull.
type PullReport struct {
	Workouts  int
	Exercises int
	Sets      int
	// Existing counts remote workouts already present locally.
	Existing int
}

func linkedState(remoteID string) models.SyncState {
	id := remoteID
	return models.SyncState{RemoteID: &id, Revision: 1, SyncedRevision: 1}
}

// PullRemote lists every workout owned by the current identity, with its
// exercises and sets, and inserts whatever the local store does not know.
// Pulled workouts are inactive. Local edits to known records always win, and
// records deleted locally stay deleted: pending deletes are drained first and
// anything still waiting on a remote delete is skipped.
func (s *Syncer) PullRemote(ctx context.Context) (PullReport, error) {
	var report PullReport
	if !s.oracle.IsOnline(ctx) {
		return report, ErrOffline
	}
	if _, err := s.mirror.UserID(ctx); err != nil {
		return report, err
	}

	if _, err := s.DrainTombstones(ctx); err != nil {
		s.logger.Warn("draining pending deletes before pull failed", "err", err)
	}

	workouts, err := s.mirror.ListWorkouts(ctx)
	if err != nil {
		return report, fmt.Errorf("list remote workouts: %w", err)
	}

	for _, rw := range workouts {
		deleted, err := s.store.HasTombstone(ctx, models.KindWorkout, rw.ID)
		if err != nil {
			return report, err
		}
		if deleted {
			continue
		}
		localID, err := s.store.FindByRemoteID(ctx, models.KindWorkout, rw.ID)
		switch {
		case err == nil:
			report.Existing++
			if err := s.pullExercises(ctx, localID, rw.ID, &report); err != nil {
				return report, err
			}
		case errors.Is(err, storage.ErrNotFound):
			if err := s.pullWorkout(ctx, rw, &report); err != nil {
				return report, err
			}
		default:
			return report, err
		}
	}

	s.logger.Info("pull complete",
		"workouts", report.Workouts,
		"exercises", report.Exercises,
		"sets", report.Sets,
		"existing", report.Existing)
	return report, nil
}

// pullWorkout fetches a whole remote tree and inserts it in one transaction.
func (s *Syncer) pullWorkout(ctx context.Context, rw remote.Workout, report *PullReport) error {
	state := linkedState(rw.ID)
	if rw.Active {
		// Pulled workouts are inserted inactive; the mirror must learn that.
		state.Revision++
	}
	detail := &models.WorkoutDetail{
		Workout: models.Workout{
			Name:       rw.Name,
			StartTime:  rw.StartTime,
			IsTemplate: rw.IsTemplate,
			SyncState:  state,
		},
	}

	exercises, err := s.mirror.ListExercises(ctx, rw.ID)
	if err != nil {
		return fmt.Errorf("list remote exercises: %w", err)
	}
	var sets int
	for _, re := range exercises {
		deleted, err := s.store.HasTombstone(ctx, models.KindExercise, re.ID)
		if err != nil {
			return err
		}
		if deleted {
			continue
		}
		ed, err := s.fetchExercise(ctx, re)
		if err != nil {
			return err
		}
		sets += len(ed.Sets)
		detail.Exercises = append(detail.Exercises, *ed)
	}

	if err := s.store.ImportWorkout(ctx, detail); err != nil {
		return fmt.Errorf("insert pulled workout: %w", err)
	}
	report.Workouts++
	report.Exercises += len(detail.Exercises)
	report.Sets += sets
	return nil
}

// pullExercises fills in exercises and sets missing under a known workout.
func (s *Syncer) pullExercises(ctx context.Context, workoutID int64, remoteWorkoutID string, report *PullReport) error {
	exercises, err := s.mirror.ListExercises(ctx, remoteWorkoutID)
	if err != nil {
		return fmt.Errorf("list remote exercises: %w", err)
	}
	for _, re := range exercises {
		deleted, err := s.store.HasTombstone(ctx, models.KindExercise, re.ID)
		if err != nil {
			return err
		}
		if deleted {
			continue
		}
		localID, err := s.store.FindByRemoteID(ctx, models.KindExercise, re.ID)
		if err == nil {
			if err := s.pullSets(ctx, localID, re.ID, report); err != nil {
				return err
			}
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}

		ed, err := s.fetchExercise(ctx, re)
		if err != nil {
			return err
		}
		ed.WorkoutID = workoutID
		if err := s.store.ImportExercise(ctx, ed); err != nil {
			return fmt.Errorf("insert pulled exercise: %w", err)
		}
		report.Exercises++
		report.Sets += len(ed.Sets)
	}
	return nil
}

// pullSets inserts sets missing under a known exercise.
func (s *Syncer) pullSets(ctx context.Context, exerciseID int64, remoteExerciseID string, report *PullReport) error {
	sets, err := s.mirror.ListSets(ctx, remoteExerciseID)
	if err != nil {
		return fmt.Errorf("list remote sets: %w", err)
	}
	for _, rs := range sets {
		deleted, err := s.store.HasTombstone(ctx, models.KindSet, rs.ID)
		if err != nil {
			return err
		}
		if deleted {
			continue
		}
		_, err = s.store.FindByRemoteID(ctx, models.KindSet, rs.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		ws := pulledSet(rs)
		ws.ExerciseID = exerciseID
		if err := s.store.ImportSet(ctx, &ws); err != nil {
			return fmt.Errorf("insert pulled set: %w", err)
		}
		report.Sets++
	}
	return nil
}

func (s *Syncer) fetchExercise(ctx context.Context, re remote.Exercise) (*models.ExerciseDetail, error) {
	sets, err := s.mirror.ListSets(ctx, re.ID)
	if err != nil {
		return nil, fmt.Errorf("list remote sets: %w", err)
	}
	ed := &models.ExerciseDetail{
		Exercise: models.Exercise{
			Type:      re.Type,
			Order:     re.Order,
			SyncState: linkedState(re.ID),
		},
	}
	for _, rs := range sets {
		deleted, err := s.store.HasTombstone(ctx, models.KindSet, rs.ID)
		if err != nil {
			return nil, err
		}
		if !deleted {
			ed.Sets = append(ed.Sets, pulledSet(rs))
		}
	}
	return ed, nil
}

func pulledSet(rs remote.Set) models.WorkoutSet {
	return models.WorkoutSet{
		Weight:    rs.Weight,
		Reps:      rs.Reps,
		Completed: rs.Completed,
		SyncState: linkedState(rs.ID),
	}
}
