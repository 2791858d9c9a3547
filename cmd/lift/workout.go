// ABOUTME: CLI commands for workouts and templates.
// ABOUTME: Supports start, list, show, rename, end, from-template, and template list/save.
package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/storage"
)

var (
	workoutLimit        int
	workoutEndTemplate  bool
	workoutTemplateName string
)

var workoutCmd = &cobra.Command{
	Use:     "workout",
	Aliases: []string{"w"},
	Short:   "Manage workouts",
	Long: `Track workout sessions made of exercises and sets.

Only one workout is active at a time. Starting a new one ends the previous.
Commands that take an optional workout id default to the active workout.

WORKFLOW:

  1. Start a workout:      lift workout start "Leg Day"
  2. Add exercises:        lift exercise add Barbell_Squat Leg_Press
  3. Log sets:             lift set add <exercise-id> --weight 100 --reps 5
  4. Finish it:            lift workout end --template

COMMANDS:

  start          Start a new workout
  from-template  Start a workout copied from a template
  list           List recent workouts
  show           View a workout with its exercises and sets
  rename         Rename a workout
  end            Finish a workout, optionally saving it as a template
  delete         Delete a workout and everything in it`,
}

var workoutStartCmd = &cobra.Command{
	Use:   "start [name]",
	Short: "Start a new workout",
	Long: `Start a new workout. The name defaults to today's date.

Examples:
  lift workout start
  lift workout start "Push Day"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		w, err := svc.StartWorkout(cmd.Context(), name)
		if err != nil {
			return fmt.Errorf("failed to start workout: %w", err)
		}

		color.Green("✓ Started %s", w.Name)
		fmt.Printf("  ID: %d\n", w.ID)
		return nil
	},
}

var workoutFromTemplateCmd = &cobra.Command{
	Use:   "from-template <template-id> [name]",
	Short: "Start a workout from a template",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		templateID, err := parseID(args[0])
		if err != nil {
			return err
		}
		name := ""
		if len(args) > 1 {
			name = args[1]
		}
		w, err := svc.StartFromTemplate(cmd.Context(), templateID, name)
		if err != nil {
			return fmt.Errorf("failed to start from template: %w", err)
		}

		color.Green("✓ Started %s", w.Name)
		printDetail(w)
		return nil
	},
}

var workoutListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List workouts",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := svc.ListWorkouts(cmd.Context(), workoutLimit)
		if err != nil {
			return fmt.Errorf("failed to list workouts: %w", err)
		}
		if len(list) == 0 {
			fmt.Println("No workouts found.")
			return nil
		}
		printWorkouts(list)
		return nil
	},
}

var workoutShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show workout details",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := resolveWorkout(cmd.Context(), args)
		if err != nil {
			return err
		}
		printDetail(w)
		return nil
	},
}

var workoutRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a workout",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := svc.RenameWorkout(cmd.Context(), id, args[1]); err != nil {
			return fmt.Errorf("failed to rename workout: %w", err)
		}
		color.Green("✓ Renamed workout %d to %s", id, args[1])
		return nil
	},
}

var workoutEndCmd = &cobra.Command{
	Use:   "end [id]",
	Short: "Finish a workout",
	Long: `Finish a workout (the active one by default).

With --template a copy is saved as a template that later workouts can start from.

Examples:
  lift workout end
  lift workout end 12 --template --name "Push A"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := resolveWorkout(cmd.Context(), args)
		if err != nil {
			return err
		}
		result, err := svc.EndWorkout(cmd.Context(), w.ID, workoutEndTemplate, workoutTemplateName)
		if err != nil {
			return fmt.Errorf("failed to end workout: %w", err)
		}

		color.Green("✓ Finished %s", result.Workout.Name)
		fmt.Printf("  Duration: %s\n", time.Since(result.Workout.StartTime).Round(time.Minute))
		if result.Template != nil {
			fmt.Printf("  Saved template %d: %s\n", result.Template.ID, result.Template.Name)
		}
		return nil
	},
}

var templateCmd = &cobra.Command{
	Use:     "template",
	Aliases: []string{"t"},
	Short:   "Manage workout templates",
}

var templateListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := svc.ListTemplates(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list templates: %w", err)
		}
		if len(list) == 0 {
			fmt.Println("No templates found.")
			return nil
		}
		printWorkouts(list)
		return nil
	},
}

var templateSaveCmd = &cobra.Command{
	Use:   "save <workout-id> [name]",
	Short: "Save a copy of a workout as a template",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		name := ""
		if len(args) > 1 {
			name = args[1]
		}
		tmpl, err := svc.SaveAsTemplate(cmd.Context(), id, name)
		if err != nil {
			return fmt.Errorf("failed to save template: %w", err)
		}
		color.Green("✓ Saved template %s", tmpl.Name)
		fmt.Printf("  ID: %d\n", tmpl.ID)
		return nil
	},
}

func init() {
	workoutListCmd.Flags().IntVarP(&workoutLimit, "limit", "n", 20, "max number of results")
	workoutEndCmd.Flags().BoolVar(&workoutEndTemplate, "template", false, "save a copy as a template")
	workoutEndCmd.Flags().StringVar(&workoutTemplateName, "name", "", "template name (defaults to the workout name)")

	workoutCmd.AddCommand(workoutStartCmd)
	workoutCmd.AddCommand(workoutFromTemplateCmd)
	workoutCmd.AddCommand(workoutListCmd)
	workoutCmd.AddCommand(workoutShowCmd)
	workoutCmd.AddCommand(workoutRenameCmd)
	workoutCmd.AddCommand(workoutEndCmd)
	rootCmd.AddCommand(workoutCmd)

	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateSaveCmd)
	rootCmd.AddCommand(templateCmd)
}

// resolveWorkout loads the workout named by args[0], or the active workout.
func resolveWorkout(ctx context.Context, args []string) (*models.WorkoutDetail, error) {
	if len(args) == 0 {
		w, err := svc.ActiveWorkout(ctx)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("no active workout; start one with 'lift workout start'")
		}
		return w, err
	}
	id, err := parseID(args[0])
	if err != nil {
		return nil, err
	}
	w, err := svc.GetWorkout(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("workout not found: %s", args[0])
	}
	return w, nil
}

func printWorkouts(list []*models.Workout) {
	faint := color.New(color.Faint)
	for _, w := range list {
		marker := " "
		if w.Active {
			marker = color.GreenString("●")
		}
		fmt.Printf("%s %s %s %s %s\n",
			marker,
			faint.Sprint(padRight(fmt.Sprint(w.ID), 5)),
			faint.Sprint(w.StartTime.Local().Format("2006-01-02 15:04")),
			padRight(truncate(w.Name, 24), 24),
			faint.Sprint(truncate(strings.Join(w.ExerciseNames, ", "), 50)))
	}
}

func printDetail(w *models.WorkoutDetail) {
	faint := color.New(color.Faint)
	kind := "Workout"
	if w.IsTemplate {
		kind = "Template"
	}
	fmt.Printf("%s %d: %s\n", kind, w.ID, w.Name)
	fmt.Printf("Started: %s\n", w.StartTime.Local().Format("2006-01-02 15:04"))
	if w.Active {
		color.Green("In progress")
	}
	fmt.Printf("Sync: %s\n", syncLabel(w.SyncState))

	for _, e := range w.Exercises {
		name := e.TypeName
		if name == "" {
			name = e.Type
		}
		fmt.Printf("\n%s %s\n", faint.Sprintf("[%d]", e.ID), name)
		if len(e.Sets) == 0 {
			fmt.Println(faint.Sprint("  no sets"))
		}
		for i, s := range e.Sets {
			check := " "
			if s.Completed {
				check = color.GreenString("✓")
			}
			fmt.Printf("  %s %d. %s x %s %s\n", check, i+1, formatWeight(s.Weight), formatReps(s.Reps), faint.Sprintf("(set %d)", s.ID))
		}
	}
}

func syncLabel(s models.SyncState) string {
	switch {
	case s.Synced():
		return color.GreenString("synced")
	case s.Linked():
		return color.YellowString("changed locally")
	default:
		return color.YellowString("local only")
	}
}

func formatWeight(w *float64) string {
	if w == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *w)
}

func formatReps(r *int) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprint(*r)
}
