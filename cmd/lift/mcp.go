// ABOUTME: CLI command for starting the MCP server.
// ABOUTME: Runs a stdio MCP server over the workouts service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harperreed/lift/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

The server communicates via stdin/stdout.

CLAUDE DESKTOP CONFIGURATION:

  {
    "mcpServers": {
      "lift": {
        "command": "lift",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  start_workout        Start a workout, optionally from a template
  list_workouts        List recent workouts or templates
  get_workout          Get a workout with exercises and sets
  list_exercise_types  Search the exercise catalog
  add_exercise         Add an exercise to a workout
  add_set              Log a set
  complete_set         Mark a set done or not done
  end_workout          Finish a workout, optionally as a template
  delete_workout       Delete a workout
  sync_now             Push unsynced changes to the mirror

AVAILABLE RESOURCES:

  lift://active   The workout in progress
  lift://sync     Unsynced change counts`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(svc)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
		}()

		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
