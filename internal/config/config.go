// ABOUTME: Lift client configuration with data directory and mirror backend selection.
// ABOUTME: Factories open the local store and the configured remote mirror.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harperreed/lift/internal/charm"
	"github.com/harperreed/lift/internal/connectivity"
	"github.com/harperreed/lift/internal/remote"
	"github.com/harperreed/lift/internal/storage"
	liftsync "github.com/harperreed/lift/internal/sync"
)

// Mirror backends.
const (
	BackendHTTP  = "http"
	BackendCharm = "charm"
	BackendNone  = "none"
)

// Config stores lift client configuration.
type Config struct {
	// Backend selects the remote mirror: "http" (default), "charm" or "none".
	Backend string `json:"backend,omitempty"`

	// DataDir is the directory holding lift.db.
	// Supports ~ expansion for home directory. Defaults to ~/.local/share/lift.
	DataDir string `json:"data_dir,omitempty"`
}

// GetBackend returns the configured backend, defaulting to "http".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return BackendHTTP
	}
	return c.Backend
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// DBPath returns the local database path.
func (c *Config) DBPath() string {
	return filepath.Join(c.GetDataDir(), "lift.db")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage opens the local SQLite store.
func (c *Config) OpenStorage() (*storage.DB, error) {
	return storage.Open(c.DBPath())
}

// Remote is an opened mirror backend with its reachability oracle.
type Remote struct {
	Mirror remote.Mirror
	Oracle connectivity.Oracle
	close  func() error
}

// Close releases the backend.
func (r *Remote) Close() error {
	if r == nil || r.close == nil {
		return nil
	}
	return r.close()
}

// OpenRemote opens the configured mirror backend. It returns nil when sync is
// disabled or the http backend has no server yet.
func (c *Config) OpenRemote(sc *liftsync.Config) (*Remote, error) {
	switch c.GetBackend() {
	case BackendNone:
		return nil, nil
	case BackendHTTP:
		if sc == nil || sc.Server == "" {
			return nil, nil
		}
		return &Remote{
			Mirror: remote.NewHTTPMirror(sc.Server, sc.Token),
			Oracle: connectivity.NewHTTPProbe(sc.EffectiveProbeURL()),
		}, nil
	case BackendCharm:
		client, err := charm.Open()
		if err != nil {
			return nil, err
		}
		return &Remote{
			Mirror: charm.NewMirror(client),
			Oracle: connectivity.NewHTTPProbe("https://" + os.Getenv("CHARM_HOST")),
			close:  client.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown backend: %q", c.Backend)
	}
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "lift", "config.json")
}

// Load reads config from disk.
func Load() (*Config, error) {
	path := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
