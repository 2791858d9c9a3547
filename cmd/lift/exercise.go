// ABOUTME: CLI commands for adding and ordering exercises within a workout.
// ABOUTME: Exercise types come from the bundled catalog; see 'lift types list'.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var exerciseWorkout int64

var exerciseCmd = &cobra.Command{
	Use:     "exercise",
	Aliases: []string{"ex", "e"},
	Short:   "Manage exercises in a workout",
}

var exerciseAddCmd = &cobra.Command{
	Use:   "add <type> [type...]",
	Short: "Add exercises to a workout",
	Long: `Add one or more exercises to a workout (the active one by default).

Types are catalog ids such as Barbell_Squat. Search with 'lift types list squat'.

Examples:
  lift exercise add Barbell_Squat
  lift exercise add Pullups Dips --workout 12`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var target []string
		if exerciseWorkout > 0 {
			target = []string{fmt.Sprint(exerciseWorkout)}
		}
		w, err := resolveWorkout(cmd.Context(), target)
		if err != nil {
			return err
		}

		added, err := svc.AddExercises(cmd.Context(), w.ID, args)
		if err != nil {
			return fmt.Errorf("failed to add exercise: %w", err)
		}
		for _, e := range added {
			color.Green("✓ Added %s", e.Type)
			fmt.Printf("  ID: %d\n", e.ID)
		}
		return nil
	},
}

var exerciseReorderCmd = &cobra.Command{
	Use:   "reorder <workout-id> <exercise-id>...",
	Short: "Set the order of every exercise in a workout",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		workoutID, err := parseID(args[0])
		if err != nil {
			return err
		}
		ids := make([]int64, 0, len(args)-1)
		for _, a := range args[1:] {
			id, err := parseID(a)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		if err := svc.ReorderExercises(cmd.Context(), workoutID, ids); err != nil {
			return fmt.Errorf("failed to reorder exercises: %w", err)
		}
		color.Green("✓ Reordered %d exercises", len(ids))
		return nil
	},
}

var exerciseMoveCmd = &cobra.Command{
	Use:   "move <exercise-id> <position>",
	Short: "Move an exercise to a position (1 is first)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		position, err := parseID(args[1])
		if err != nil {
			return fmt.Errorf("invalid position: %s", args[1])
		}
		if err := svc.MoveExercise(cmd.Context(), id, int(position)-1); err != nil {
			return fmt.Errorf("failed to move exercise: %w", err)
		}
		color.Green("✓ Moved exercise %d to position %d", id, position)
		return nil
	},
}

func init() {
	exerciseAddCmd.Flags().Int64VarP(&exerciseWorkout, "workout", "w", 0, "workout id (defaults to the active workout)")

	exerciseCmd.AddCommand(exerciseAddCmd)
	exerciseCmd.AddCommand(exerciseReorderCmd)
	exerciseCmd.AddCommand(exerciseMoveCmd)
	rootCmd.AddCommand(exerciseCmd)
}
