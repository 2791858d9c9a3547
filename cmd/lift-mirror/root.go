// ABOUTME: Root command for lift-mirror with the shared config flag.
// ABOUTME: Configuration comes from config.yaml in --config-dir and LIFT_MIRROR_* variables.
package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/harperreed/lift/internal/mirror"
)

var (
	configDir string
	logger    = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "lift-mirror"})
)

var rootCmd = &cobra.Command{
	Use:   "lift-mirror",
	Short: "Remote mirror server for lift",
	Long: `lift-mirror stores the replicas that lift clients push. Each user's records are
private to their token; creates are deduplicated on the client's external id.

CONFIGURATION:

  config.yaml in --config-dir, overridden by environment variables:

    LIFT_MIRROR_SERVER_ADDRESS   listen address (default :8080)
    LIFT_MIRROR_STORE_DRIVER     memory | postgres | mongo
    LIFT_MIRROR_STORE_URI        Postgres DSN or MongoDB URI
    LIFT_MIRROR_STORE_DATABASE   MongoDB database (default lift)
    LIFT_MIRROR_JWT_SECRET       token signing secret (required)
    LIFT_MIRROR_JWT_EXPIRATION   token lifetime (default 720h)`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory containing config.yaml")
}

func loadConfig() (mirror.Config, error) {
	cfg, err := mirror.LoadConfig(configDir)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}
