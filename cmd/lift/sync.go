// ABOUTME: CLI commands for mirroring the training log to a remote server or Charm Cloud.
// ABOUTME: Supports login, link, logout, status, now, pull, and repair.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/charmbracelet/charm/kv"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/lift/internal/charm"
	"github.com/harperreed/lift/internal/config"
	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/remote"
	liftsync "github.com/harperreed/lift/internal/sync"
	"github.com/harperreed/lift/internal/workouts"
)

var (
	loginServer string
	loginToken  string
	loginProbe  string
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	Aliases: []string{"s"},
	Short:   "Mirror workouts to a remote server",
	Long: `Mirror the training log to a lift-mirror server or to Charm Cloud.

Changes are saved on this device first and pushed right after. Anything that
could not be pushed (offline, server down, signed out) stays marked as
unsynced until the next 'lift sync now'.

GETTING STARTED:

  With a lift-mirror server (token from 'lift-mirror token --user <you>'):
     lift sync login --server https://lift.example.com --token <token>

  With Charm Cloud (uses your SSH key):
     lift sync link

COMMANDS:

  login    Use a lift-mirror server
  link     Use Charm Cloud
  logout   Stop mirroring (local data is kept)
  status   Show backend, identity and unsynced counts
  now      Push every unsynced change
  pull     Copy workouts from the mirror that this device does not have
  repair   Repair the local Charm KV database`,
}

var syncLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Mirror to a lift-mirror server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginServer == "" || loginToken == "" {
			return fmt.Errorf("--server and --token are required")
		}
		claims, err := remote.ParseTokenUnverified(loginToken)
		if err != nil {
			return fmt.Errorf("invalid token: %w", err)
		}

		sc, err := liftsync.LoadConfig()
		if err != nil {
			return err
		}
		sc.Server = loginServer
		sc.Token = loginToken
		sc.ProbeURL = loginProbe
		if err := liftsync.SaveConfig(sc); err != nil {
			return fmt.Errorf("failed to save sync config: %w", err)
		}
		if err := setBackend(config.BackendHTTP); err != nil {
			return err
		}

		color.Green("✓ Logged in as %s", claims.UserID)
		fmt.Printf("  Server: %s\n", loginServer)
		fmt.Println("Run 'lift sync now' to push existing workouts.")
		return nil
	},
}

var syncLinkCmd = &cobra.Command{
	Use:   "link",
	Short: "Mirror to Charm Cloud",
	Long: `Link this device to your Charm account and mirror workouts there.

If you don't have a Charm account, one will be created using your SSH key.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		charmCmd := exec.Command("charm", "link")
		charmCmd.Stdin = os.Stdin
		charmCmd.Stdout = os.Stdout
		charmCmd.Stderr = os.Stderr

		if err := charmCmd.Run(); err != nil {
			return fmt.Errorf("failed to link: %w\n\nMake sure 'charm' CLI is installed: go install github.com/charmbracelet/charm@latest", err)
		}
		if err := setBackend(config.BackendCharm); err != nil {
			return err
		}

		color.Green("\n✓ Device linked to Charm")
		if id, err := charm.AccountID(); err == nil {
			fmt.Println("  Charm ID:", id)
		}
		fmt.Println("Run 'lift sync now' to push existing workouts.")
		return nil
	},
}

var syncLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Stop mirroring",
	Long: `Forget the mirror credentials. Local workouts are kept and keep their
unsynced marks, so logging back in pushes everything that changed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := liftsync.LoadConfig()
		if err != nil {
			return err
		}
		if err := sc.Logout(); err != nil {
			return fmt.Errorf("failed to save sync config: %w", err)
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.GetBackend() == config.BackendCharm {
			if err := setBackend(config.BackendNone); err != nil {
				return err
			}
		}
		color.Green("✓ Logged out")
		fmt.Println("Your local workouts are preserved.")
		return nil
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		fmt.Println("Backend:", cfg.GetBackend())

		if backend == nil {
			color.Yellow("Sync is not configured")
			fmt.Println("\nRun 'lift sync login' or 'lift sync link' to start mirroring.")
		} else {
			if sc, err := liftsync.LoadConfig(); err == nil && sc.Server != "" && cfg.GetBackend() == config.BackendHTTP {
				fmt.Println("Server:", sc.Server)
			}
			if user, err := backend.Mirror.UserID(ctx); err != nil {
				color.Yellow("Signed out: %v", err)
			} else {
				fmt.Println("User:", user)
			}
			if backend.Oracle.IsOnline(ctx) {
				color.Green("✓ Mirror reachable")
			} else {
				color.Yellow("⚠ Mirror unreachable")
			}
		}

		summary, err := svc.SyncStatus(ctx)
		if err != nil {
			return fmt.Errorf("failed to read sync status: %w", err)
		}
		fmt.Println()
		fmt.Printf("  Unsynced workouts:  %d\n", summary.Unsynced[models.KindWorkout])
		fmt.Printf("  Unsynced exercises: %d\n", summary.Unsynced[models.KindExercise])
		fmt.Printf("  Unsynced sets:      %d\n", summary.Unsynced[models.KindSet])
		fmt.Printf("  Pending deletes:    %d\n", summary.PendingDeletes)
		return nil
	},
}

var syncNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Push every unsynced change",
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := svc.SyncNow(cmd.Context())
		if errors.Is(err, workouts.ErrSyncDisabled) {
			color.Yellow("Sync is not configured")
			return nil
		}
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		if report.Offline {
			color.Yellow("⚠ Mirror unreachable, nothing pushed")
			return nil
		}

		color.Green("✓ Sync complete")
		fmt.Printf("  Workouts checked: %d\n", report.Workouts)
		fmt.Printf("  Records pushed:   %d\n", report.Linked)
		fmt.Printf("  Deletes applied:  %d\n", report.TombstonesCleared)
		if report.Failed > 0 || report.TombstonesFailed > 0 {
			color.Yellow("  Failed: %d (retried on next sync)", report.Failed+report.TombstonesFailed)
		}
		return nil
	},
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Copy missing workouts from the mirror",
	Long: `Copy workouts that exist on the mirror but not on this device, for example
after setting up a new device. Workouts already on this device are left alone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := svc.Pull(cmd.Context())
		if errors.Is(err, workouts.ErrSyncDisabled) {
			color.Yellow("Sync is not configured")
			return nil
		}
		if err != nil {
			return fmt.Errorf("pull failed: %w", err)
		}

		color.Green("✓ Pull complete")
		fmt.Printf("  Workouts:  %d new, %d already here\n", report.Workouts, report.Existing)
		fmt.Printf("  Exercises: %d\n", report.Exercises)
		fmt.Printf("  Sets:      %d\n", report.Sets)
		return nil
	},
}

var syncRepairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Repair the Charm KV database",
	Long: `Repair Charm KV corruption by checkpointing WAL, removing SHM files, checking integrity, and vacuuming.

Only relevant with the Charm backend. Run with --force to attempt recovery even if integrity checks fail.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		// The open backend holds the KV lock.
		if backend != nil {
			_ = backend.Close()
			backend = nil
		}

		fmt.Println("Repairing lift Charm database...")
		result, err := kv.Repair(charm.DBName, force)

		if result.WalCheckpointed {
			color.Green("  ✓ WAL checkpointed")
		}
		if result.ShmRemoved {
			color.Green("  ✓ SHM file removed")
		}
		if result.IntegrityOK {
			color.Green("  ✓ Integrity check passed")
		} else {
			color.Red("  ✗ Integrity check failed")
		}
		if result.Vacuumed {
			color.Green("  ✓ Database vacuumed")
		}

		if err != nil {
			if !force {
				color.Yellow("\nRun with --force to attempt recovery.")
			}
			return fmt.Errorf("repair failed: %w", err)
		}

		color.Green("\n✓ Repair complete")
		return nil
	},
}

func setBackend(name string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.Backend = name
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

func init() {
	syncLoginCmd.Flags().StringVar(&loginServer, "server", "", "lift-mirror server URL")
	syncLoginCmd.Flags().StringVar(&loginToken, "token", "", "access token")
	syncLoginCmd.Flags().StringVar(&loginProbe, "probe", "", "connectivity probe URL (default: <server>/ping)")
	syncRepairCmd.Flags().Bool("force", false, "Attempt recovery even if integrity checks fail")

	syncCmd.AddCommand(syncLoginCmd)
	syncCmd.AddCommand(syncLinkCmd)
	syncCmd.AddCommand(syncLogoutCmd)
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncNowCmd)
	syncCmd.AddCommand(syncPullCmd)
	syncCmd.AddCommand(syncRepairCmd)

	rootCmd.AddCommand(syncCmd)
}
