// ABOUTME: CLI commands for browsing the exercise catalog.
// ABOUTME: Searches by name or muscle and shows instructions for one type.
package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var typesLimit int

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "Browse the exercise catalog",
}

var typesListCmd = &cobra.Command{
	Use:     "list [search]",
	Aliases: []string{"ls"},
	Short:   "List exercise types",
	Long: `List exercise types, optionally filtered by a search term matched against
names and muscles.

OUTPUT FORMAT:

  Each line shows: ID  NAME  PRIMARY MUSCLES

  Use the ID with 'lift exercise add'.

EXAMPLES:

  lift types list              # First 20 types
  lift types list bench        # Types matching "bench"
  lift types list glutes -n 50`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		search := ""
		if len(args) > 0 {
			search = args[0]
		}
		list, err := svc.ListExerciseTypes(cmd.Context(), search)
		if err != nil {
			return fmt.Errorf("failed to list exercise types: %w", err)
		}
		if len(list) == 0 {
			fmt.Println("No exercise types found.")
			return nil
		}

		faint := color.New(color.Faint)
		for i, t := range list {
			if typesLimit > 0 && i >= typesLimit {
				fmt.Println(faint.Sprintf("... %d more", len(list)-typesLimit))
				break
			}
			fmt.Printf("%s %s %s\n",
				padRight(truncate(t.ID, 32), 32),
				padRight(truncate(t.Name, 32), 32),
				faint.Sprint(strings.Join(t.PrimaryMuscles, ", ")))
		}
		return nil
	},
}

var typesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an exercise type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := svc.GetExerciseType(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("exercise type not found: %s", args[0])
		}

		fmt.Printf("%s (%s)\n", t.Name, t.ID)
		if t.Level != "" {
			fmt.Printf("Level: %s\n", t.Level)
		}
		if len(t.PrimaryMuscles) > 0 {
			fmt.Printf("Primary: %s\n", strings.Join(t.PrimaryMuscles, ", "))
		}
		if len(t.SecondaryMuscles) > 0 {
			fmt.Printf("Secondary: %s\n", strings.Join(t.SecondaryMuscles, ", "))
		}
		if len(t.Instructions) > 0 {
			fmt.Println("\nInstructions:")
			for i, step := range t.Instructions {
				fmt.Printf("  %d. %s\n", i+1, step)
			}
		}
		return nil
	},
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func init() {
	typesListCmd.Flags().IntVarP(&typesLimit, "limit", "n", 20, "max number of results (0 for all)")

	typesCmd.AddCommand(typesListCmd)
	typesCmd.AddCommand(typesShowCmd)
	rootCmd.AddCommand(typesCmd)
}
