// ABOUTME: MCP tool implementations for the lift training log.
// ABOUTME: Starts and ends workouts, logs exercises and sets, and triggers sync.
package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/lift/internal/storage"
	"github.com/harperreed/lift/internal/workouts"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "start_workout",
		Description: "Start a new workout, optionally from a template. Ends any workout in progress.",
	}, s.handleStartWorkout)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_workouts",
		Description: "List recent workouts or saved templates",
	}, s.handleListWorkouts)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_workout",
		Description: "Get a workout with its exercises and sets (defaults to the active workout)",
	}, s.handleGetWorkout)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_exercise_types",
		Description: "Search the exercise catalog by name or muscle",
	}, s.handleListExerciseTypes)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_exercise",
		Description: "Add an exercise from the catalog to a workout (defaults to the active workout)",
	}, s.handleAddExercise)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_set",
		Description: "Log a set for an exercise",
	}, s.handleAddSet)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "complete_set",
		Description: "Mark a set as done, or not done with undo",
	}, s.handleCompleteSet)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "end_workout",
		Description: "Finish a workout, optionally saving it as a template",
	}, s.handleEndWorkout)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "delete_workout",
		Description: "Delete a workout with all its exercises and sets",
	}, s.handleDeleteWorkout)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "sync_now",
		Description: "Push every unsynced change to the remote mirror",
	}, s.handleSyncNow)
}

// Tool input/output types

type startWorkoutInput struct {
	Name       string `json:"name,omitempty" jsonschema:"description=Workout name, defaults to today's date"`
	TemplateID int64  `json:"template_id,omitempty" jsonschema:"description=Template to copy exercises and sets from"`
}

type workoutOutput struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

type listWorkoutsInput struct {
	Templates bool `json:"templates,omitempty" jsonschema:"description=List templates instead of performed workouts"`
	Limit     int  `json:"limit,omitempty" jsonschema:"description=Max results (default 20)"`
}

type workoutRefInput struct {
	ID int64 `json:"id,omitempty" jsonschema:"description=Workout ID, defaults to the active workout"`
}

type listExerciseTypesInput struct {
	Search string `json:"search,omitempty" jsonschema:"description=Substring of name or muscle group"`
}

type addExerciseInput struct {
	WorkoutID int64  `json:"workout_id,omitempty" jsonschema:"description=Workout ID, defaults to the active workout"`
	Type      string `json:"type" jsonschema:"description=Exercise type ID from list_exercise_types,required"`
}

type addSetInput struct {
	ExerciseID int64    `json:"exercise_id" jsonschema:"description=Exercise ID,required"`
	Weight     *float64 `json:"weight,omitempty" jsonschema:"description=Weight lifted"`
	Reps       *int     `json:"reps,omitempty" jsonschema:"description=Repetitions"`
	Completed  bool     `json:"completed,omitempty" jsonschema:"description=Whether the set is already done"`
}

type completeSetInput struct {
	SetID int64 `json:"set_id" jsonschema:"description=Set ID,required"`
	Undo  bool  `json:"undo,omitempty" jsonschema:"description=Mark the set not done instead"`
}

type endWorkoutInput struct {
	ID             int64  `json:"id,omitempty" jsonschema:"description=Workout ID, defaults to the active workout"`
	SaveAsTemplate bool   `json:"save_as_template,omitempty" jsonschema:"description=Also save a copy as a template"`
	TemplateName   string `json:"template_name,omitempty" jsonschema:"description=Name for the saved template"`
}

type idOutput struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

type simpleOutput struct {
	Message string `json:"message"`
}

// Tool handlers

func (s *Server) resolveWorkout(ctx context.Context, id int64) (int64, error) {
	if id != 0 {
		return id, nil
	}
	active, err := s.svc.ActiveWorkout(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, fmt.Errorf("no workout in progress; pass an id or call start_workout")
	}
	if err != nil {
		return 0, err
	}
	return active.ID, nil
}

func (s *Server) handleStartWorkout(ctx context.Context, req *mcp.CallToolRequest, input startWorkoutInput) (*mcp.CallToolResult, workoutOutput, error) {
	if input.TemplateID != 0 {
		w, err := s.svc.StartFromTemplate(ctx, input.TemplateID, input.Name)
		if err != nil {
			return nil, workoutOutput{}, fmt.Errorf("failed to start from template: %w", err)
		}
		return nil, workoutOutput{
			ID:      w.ID,
			Name:    w.Name,
			Message: fmt.Sprintf("Started %s from template with %d exercises (ID: %d)", w.Name, len(w.Exercises), w.ID),
		}, nil
	}

	w, err := s.svc.StartWorkout(ctx, input.Name)
	if err != nil {
		return nil, workoutOutput{}, fmt.Errorf("failed to start workout: %w", err)
	}
	return nil, workoutOutput{
		ID:      w.ID,
		Name:    w.Name,
		Message: fmt.Sprintf("Started %s (ID: %d)", w.Name, w.ID),
	}, nil
}

func (s *Server) handleListWorkouts(ctx context.Context, req *mcp.CallToolRequest, input listWorkoutsInput) (*mcp.CallToolResult, any, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	var list any
	var n int
	if input.Templates {
		templates, err := s.svc.ListTemplates(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list templates: %w", err)
		}
		list, n = templates, len(templates)
	} else {
		sessions, err := s.svc.ListWorkouts(ctx, input.Limit)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list workouts: %w", err)
		}
		list, n = sessions, len(sessions)
	}

	if n == 0 {
		return nil, map[string]any{"message": "No workouts found."}, nil
	}
	return nil, map[string]any{"workouts": list}, nil
}

func (s *Server) handleGetWorkout(ctx context.Context, req *mcp.CallToolRequest, input workoutRefInput) (*mcp.CallToolResult, any, error) {
	id, err := s.resolveWorkout(ctx, input.ID)
	if err != nil {
		return nil, nil, err
	}
	w, err := s.svc.GetWorkout(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("workout not found: %d", id)
	}
	return nil, w, nil
}

func (s *Server) handleListExerciseTypes(ctx context.Context, req *mcp.CallToolRequest, input listExerciseTypesInput) (*mcp.CallToolResult, any, error) {
	types, err := s.svc.ListExerciseTypes(ctx, input.Search)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list exercise types: %w", err)
	}
	if len(types) == 0 {
		return nil, map[string]any{"message": "No exercise types found."}, nil
	}
	return nil, map[string]any{"types": types}, nil
}

func (s *Server) handleAddExercise(ctx context.Context, req *mcp.CallToolRequest, input addExerciseInput) (*mcp.CallToolResult, idOutput, error) {
	workoutID, err := s.resolveWorkout(ctx, input.WorkoutID)
	if err != nil {
		return nil, idOutput{}, err
	}
	e, err := s.svc.AddExercise(ctx, workoutID, input.Type)
	if err != nil {
		return nil, idOutput{}, fmt.Errorf("failed to add exercise: %w", err)
	}
	return nil, idOutput{
		ID:      e.ID,
		Message: fmt.Sprintf("Added %s to workout %d (exercise ID: %d)", input.Type, workoutID, e.ID),
	}, nil
}

func (s *Server) handleAddSet(ctx context.Context, req *mcp.CallToolRequest, input addSetInput) (*mcp.CallToolResult, idOutput, error) {
	ws, err := s.svc.AddSet(ctx, input.ExerciseID, input.Weight, input.Reps, input.Completed)
	if err != nil {
		return nil, idOutput{}, fmt.Errorf("failed to add set: %w", err)
	}
	return nil, idOutput{
		ID:      ws.ID,
		Message: fmt.Sprintf("Logged set %s (set ID: %d)", describeSet(input.Weight, input.Reps), ws.ID),
	}, nil
}

func describeSet(weight *float64, reps *int) string {
	switch {
	case weight != nil && reps != nil:
		return fmt.Sprintf("%.2f x %d", *weight, *reps)
	case weight != nil:
		return fmt.Sprintf("%.2f", *weight)
	case reps != nil:
		return fmt.Sprintf("%d reps", *reps)
	}
	return "without weight or reps"
}

func (s *Server) handleCompleteSet(ctx context.Context, req *mcp.CallToolRequest, input completeSetInput) (*mcp.CallToolResult, simpleOutput, error) {
	if err := s.svc.CompleteSet(ctx, input.SetID, !input.Undo); err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to update set: %w", err)
	}
	state := "done"
	if input.Undo {
		state = "not done"
	}
	return nil, simpleOutput{Message: fmt.Sprintf("Set %d marked %s", input.SetID, state)}, nil
}

func (s *Server) handleEndWorkout(ctx context.Context, req *mcp.CallToolRequest, input endWorkoutInput) (*mcp.CallToolResult, simpleOutput, error) {
	id, err := s.resolveWorkout(ctx, input.ID)
	if err != nil {
		return nil, simpleOutput{}, err
	}
	res, err := s.svc.EndWorkout(ctx, id, input.SaveAsTemplate, input.TemplateName)
	if err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to end workout: %w", err)
	}

	msg := fmt.Sprintf("Ended %s", res.Workout.Name)
	if res.Template != nil {
		msg += fmt.Sprintf(" and saved template %s (ID: %d)", res.Template.Name, res.Template.ID)
	}
	return nil, simpleOutput{Message: msg}, nil
}

func (s *Server) handleDeleteWorkout(ctx context.Context, req *mcp.CallToolRequest, input workoutRefInput) (*mcp.CallToolResult, simpleOutput, error) {
	if input.ID == 0 {
		return nil, simpleOutput{}, fmt.Errorf("id is required")
	}
	if err := s.svc.DeleteWorkout(ctx, input.ID); err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to delete workout: %w", err)
	}
	return nil, simpleOutput{Message: fmt.Sprintf("Deleted workout: %d", input.ID)}, nil
}

func (s *Server) handleSyncNow(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
	report, err := s.svc.SyncNow(ctx)
	if errors.Is(err, workouts.ErrSyncDisabled) {
		return nil, map[string]any{"message": "Sync is not configured."}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("sync failed: %w", err)
	}
	return nil, report, nil
}
