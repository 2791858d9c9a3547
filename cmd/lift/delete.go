// ABOUTME: CLI commands for deleting workouts, exercises and sets.
// ABOUTME: Deletes cascade locally; the mirror copies are removed leaves first.
package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newDeleteCmd(kind string, del func(ctx context.Context, id int64) error) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"del", "rm"},
		Short:   "Delete a " + kind,
		Long: fmt.Sprintf(`Delete a %s by id, along with everything it contains.

CAUTION:

  This permanently deletes the %s on this device and on the mirror.
  There is no undo.`, kind, kind),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := del(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to delete %s: %w", kind, err)
			}
			color.Yellow("✗ Deleted %s %d", kind, id)
			return nil
		},
	}
}

func init() {
	workoutCmd.AddCommand(newDeleteCmd("workout", func(ctx context.Context, id int64) error {
		return svc.DeleteWorkout(ctx, id)
	}))
	exerciseCmd.AddCommand(newDeleteCmd("exercise", func(ctx context.Context, id int64) error {
		return svc.DeleteExercise(ctx, id)
	}))
	setCmd.AddCommand(newDeleteCmd("set", func(ctx context.Context, id int64) error {
		return svc.DeleteSet(ctx, id)
	}))
}
