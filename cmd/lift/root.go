// ABOUTME: Root Cobra command for the lift CLI.
// ABOUTME: Opens the local store, the configured mirror and the workouts service around each command.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/harperreed/lift/internal/config"
	"github.com/harperreed/lift/internal/storage"
	liftsync "github.com/harperreed/lift/internal/sync"
	"github.com/harperreed/lift/internal/workouts"
)

var (
	verbose bool

	store   *storage.DB
	backend *config.Remote
	svc     *workouts.Service
)

var rootCmd = &cobra.Command{
	Use:   "lift",
	Short: "Local-first strength training log",
	Long: `Lift is a CLI for logging strength workouts on this device and mirroring
them to a remote server in the background.

QUICK START:

  $ lift workout start "Push Day"          # Start a workout (ends any active one)
  $ lift exercise add Barbell_Bench_Press  # Add an exercise to the active workout
  $ lift set add 3 --weight 80 --reps 8    # Log a set for exercise 3
  $ lift set done 7                        # Mark set 7 as completed
  $ lift workout end --template            # Finish and save as a template

Every change is written locally first. When a mirror is configured the change
is pushed right after; if that fails it is retried by the next 'lift sync now'.

SYNC:

  $ lift sync login --server https://lift.example.com --token <token>
  $ lift sync link                         # Use Charm Cloud instead
  $ lift sync status
  $ lift sync now

MCP INTEGRATION:

  Run 'lift mcp' to start the Model Context Protocol server:

  {
    "mcpServers": {
      "lift": { "command": "lift", "args": ["mcp"] }
    }
  }

DATA STORAGE:

  Workouts are stored in SQLite at ~/.local/share/lift/lift.db.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !needsService(cmd) {
			return nil
		}
		return openService()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeService()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log sync activity")
}

// needsService reports whether cmd touches the training log.
func needsService(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "help", "completion", "install-skill", "login", "logout", "link":
		return false
	}
	return true
}

func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "lift"})
	logger.SetLevel(log.WarnLevel)
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// openService wires store, mirror and service. A mirror that cannot be opened
// leaves the CLI working locally.
func openService() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err = cfg.OpenStorage()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	logger := newLogger()
	opts := []workouts.Option{workouts.WithLogger(logger)}

	sc, err := liftsync.LoadConfig()
	if err != nil {
		logger.Warn("sync config unreadable, sync disabled", "err", err)
	} else {
		backend, err = cfg.OpenRemote(sc)
		if err != nil {
			logger.Warn("mirror unavailable, working locally", "backend", cfg.GetBackend(), "err", err)
			backend = nil
		}
		if backend != nil {
			syncer := liftsync.New(store, backend.Mirror, backend.Oracle, sc.InstallID, liftsync.WithLogger(logger))
			opts = append(opts, workouts.WithSyncer(syncer))
			if !sc.AutoSync {
				opts = append(opts, workouts.Manual())
			}
		}
	}

	svc = workouts.New(store, opts...)
	return nil
}

// closeService waits for background propagation, then releases resources.
func closeService() error {
	if svc != nil {
		svc.Flush()
		svc = nil
	}
	if backend != nil {
		_ = backend.Close()
		backend = nil
	}
	if store != nil {
		err := store.Close()
		store = nil
		return err
	}
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id: %s", s)
	}
	return id, nil
}
