// ABOUTME: CLI commands for logging sets.
// ABOUTME: Handles add, field-scoped update, and done/undo completion toggles.
package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/lift/internal/storage"
)

var (
	setWeight string
	setReps   string
	setDone   bool
)

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Log sets for an exercise",
}

var setAddCmd = &cobra.Command{
	Use:   "add <exercise-id>",
	Short: "Add a set to an exercise",
	Long: `Add a set to an exercise. Weight and reps may be left out, e.g. on templates.

Examples:
  lift set add 3 --weight 80 --reps 8
  lift set add 3 --reps 12 --done`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exerciseID, err := parseID(args[0])
		if err != nil {
			return err
		}
		weight, reps, err := parseSetValues(setWeight, setReps)
		if err != nil {
			return err
		}

		s, err := svc.AddSet(cmd.Context(), exerciseID, weight, reps, setDone)
		if err != nil {
			return fmt.Errorf("failed to add set: %w", err)
		}

		color.Green("✓ Added set")
		fmt.Printf("  %s %s x %s\n",
			color.New(color.Faint).Sprintf("%d", s.ID),
			formatWeight(s.Weight), formatReps(s.Reps))
		return nil
	},
}

var setUpdateCmd = &cobra.Command{
	Use:   "update <set-id>",
	Short: "Change a set's weight or reps",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		weight, reps, err := parseSetValues(setWeight, setReps)
		if err != nil {
			return err
		}
		u := storage.SetUpdate{Weight: weight, Reps: reps}
		if u.Empty() {
			return fmt.Errorf("nothing to update: pass --weight or --reps")
		}
		if err := svc.UpdateSet(cmd.Context(), id, u); err != nil {
			return fmt.Errorf("failed to update set: %w", err)
		}
		color.Green("✓ Updated set %d", id)
		return nil
	},
}

var setDoneCmd = &cobra.Command{
	Use:   "done <set-id>",
	Short: "Mark a set as completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return completeSet(cmd, args[0], true)
	},
}

var setUndoCmd = &cobra.Command{
	Use:   "undo <set-id>",
	Short: "Mark a set as not completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return completeSet(cmd, args[0], false)
	},
}

func completeSet(cmd *cobra.Command, arg string, done bool) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	if err := svc.CompleteSet(cmd.Context(), id, done); err != nil {
		return fmt.Errorf("failed to update set: %w", err)
	}
	if done {
		color.Green("✓ Set %d done", id)
	} else {
		color.Yellow("↺ Set %d not done", id)
	}
	return nil
}

// parseSetValues parses optional weight and reps flags; empty means unset.
func parseSetValues(weightStr, repsStr string) (*float64, *int, error) {
	var weight *float64
	var reps *int
	if weightStr != "" {
		w, err := strconv.ParseFloat(weightStr, 64)
		if err != nil || w < 0 {
			return nil, nil, fmt.Errorf("invalid weight: %s", weightStr)
		}
		weight = &w
	}
	if repsStr != "" {
		r, err := strconv.Atoi(repsStr)
		if err != nil || r < 0 {
			return nil, nil, fmt.Errorf("invalid reps: %s", repsStr)
		}
		reps = &r
	}
	return weight, reps, nil
}

func init() {
	for _, c := range []*cobra.Command{setAddCmd, setUpdateCmd} {
		c.Flags().StringVar(&setWeight, "weight", "", "weight lifted")
		c.Flags().StringVar(&setReps, "reps", "", "repetitions")
	}
	setAddCmd.Flags().BoolVar(&setDone, "done", false, "mark the set as completed")

	setCmd.AddCommand(setAddCmd)
	setCmd.AddCommand(setUpdateCmd)
	setCmd.AddCommand(setDoneCmd)
	setCmd.AddCommand(setUndoCmd)
	rootCmd.AddCommand(setCmd)
}
