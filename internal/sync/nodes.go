// ABOUTME: Uniform view over workouts, exercises and sets for the propagation algorithm.
// ABOUTME: Each node knows its sync state, its parent, and how to create or patch its remote record.
package sync

import (
	"context"
	"fmt"

	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/remote"
)

// Field names a mirrored field for field-scoped pushes.
type Field string

const (
	FieldName      Field = "name"
	FieldStartTime Field = "start_time"
	FieldActive    Field = "active"
	FieldTemplate  Field = "is_template"
	FieldType      Field = "type"
	FieldOrder     Field = "order"
	FieldWeight    Field = "weight"
	FieldReps      Field = "reps"
	FieldCompleted Field = "completed"
)

// node is one local entity as the orchestrator sees it.
type node struct {
	ref    models.Ref
	state  models.SyncState
	parent *models.Ref

	// create sends the entity as a new remote record under parentRemoteID.
	create func(ctx context.Context, externalID, parentRemoteID string) (string, error)
	// patch sends the given fields, or every mirrored field when fields is empty.
	patch func(ctx context.Context, remoteID string, fields []Field) error
}

func has(fields []Field, f Field) bool {
	if len(fields) == 0 {
		return true
	}
	for _, x := range fields {
		if x == f {
			return true
		}
	}
	return false
}

// load reads the entity behind ref and binds its remote operations.
func (s *Syncer) load(ctx context.Context, ref models.Ref) (*node, error) {
	switch ref.Kind {
	case models.KindWorkout:
		w, err := s.store.GetWorkout(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		rec := remote.WorkoutRecord{
			Name:       w.Name,
			StartTime:  w.StartTime,
			Active:     w.Active,
			IsTemplate: w.IsTemplate,
		}
		return &node{
			ref:   ref,
			state: w.SyncState,
			create: func(ctx context.Context, externalID, _ string) (string, error) {
				rec.ExternalID = externalID
				return s.mirror.CreateWorkout(ctx, rec)
			},
			patch: func(ctx context.Context, remoteID string, fields []Field) error {
				var p remote.WorkoutPatch
				if has(fields, FieldName) {
					p.Name = &rec.Name
				}
				if has(fields, FieldStartTime) {
					p.StartTime = &rec.StartTime
				}
				if has(fields, FieldActive) {
					p.Active = &rec.Active
				}
				if has(fields, FieldTemplate) {
					p.IsTemplate = &rec.IsTemplate
				}
				return s.mirror.UpdateWorkout(ctx, remoteID, p)
			},
		}, nil

	case models.KindExercise:
		e, err := s.store.GetExercise(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		parent := models.WorkoutRef(e.WorkoutID)
		rec := remote.ExerciseRecord{Type: e.Type, Order: e.Order}
		return &node{
			ref:    ref,
			state:  e.SyncState,
			parent: &parent,
			create: func(ctx context.Context, externalID, parentRemoteID string) (string, error) {
				rec.ExternalID = externalID
				rec.WorkoutID = parentRemoteID
				return s.mirror.CreateExercise(ctx, rec)
			},
			patch: func(ctx context.Context, remoteID string, fields []Field) error {
				var p remote.ExercisePatch
				if has(fields, FieldType) {
					p.Type = &rec.Type
				}
				if has(fields, FieldOrder) {
					p.Order = &rec.Order
				}
				return s.mirror.UpdateExercise(ctx, remoteID, p)
			},
		}, nil

	case models.KindSet:
		ws, err := s.store.GetSet(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		parent := models.ExerciseRef(ws.ExerciseID)
		rec := remote.SetRecord{Weight: ws.Weight, Reps: ws.Reps, Completed: ws.Completed}
		return &node{
			ref:    ref,
			state:  ws.SyncState,
			parent: &parent,
			create: func(ctx context.Context, externalID, parentRemoteID string) (string, error) {
				rec.ExternalID = externalID
				rec.ExerciseID = parentRemoteID
				return s.mirror.CreateSet(ctx, rec)
			},
			patch: func(ctx context.Context, remoteID string, fields []Field) error {
				var p remote.SetPatch
				if has(fields, FieldWeight) {
					p.Weight = rec.Weight
				}
				if has(fields, FieldReps) {
					p.Reps = rec.Reps
				}
				if has(fields, FieldCompleted) {
					p.Completed = &rec.Completed
				}
				return s.mirror.UpdateSet(ctx, remoteID, p)
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown entity kind %q", ref.Kind)
}
