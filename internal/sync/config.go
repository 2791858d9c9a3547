// ABOUTME: Sync configuration for the remote mirror.
// ABOUTME: Stores server, bearer token, probe URL and the stable install id behind external ids.
package sync

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Config stores sync settings.
type Config struct {
	Server    string `json:"server"`
	Token     string `json:"token,omitempty"`
	InstallID string `json:"install_id"`
	ProbeURL  string `json:"probe_url,omitempty"`
	AutoSync  bool   `json:"auto_sync"`
}

// ConfigDir returns the XDG config directory for lift.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "lift")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "lift")
}

// ConfigPath returns the path to the sync config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "sync.json")
}

// LoadConfig loads sync config from disk. The first load generates and
// persists the install id; it must never change afterwards or repeated
// creates would stop deduplicating.
func LoadConfig() (*Config, error) {
	cfg := &Config{AutoSync: true}
	data, err := os.ReadFile(ConfigPath())
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read sync config: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse sync config: %w", err)
		}
	}
	if cfg.InstallID == "" {
		cfg.InstallID = GenerateInstallID()
		if err := SaveConfig(cfg); err != nil {
			return nil, fmt.Errorf("persist install id: %w", err)
		}
	}
	return cfg, nil
}

// SaveConfig persists sync config to disk.
func SaveConfig(cfg *Config) error {
	if err := os.MkdirAll(ConfigDir(), 0750); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(ConfigPath(), data, 0600)
}

// IsConfigured returns true if a server and token are set.
func (c *Config) IsConfigured() bool {
	return c.Server != "" && c.Token != ""
}

// EffectiveProbeURL returns the probe URL, defaulting to the server's /ping.
func (c *Config) EffectiveProbeURL() string {
	if c.ProbeURL != "" {
		return c.ProbeURL
	}
	if c.Server == "" {
		return ""
	}
	return strings.TrimRight(c.Server, "/") + "/ping"
}

// Logout forgets the token but keeps the install id.
func (c *Config) Logout() error {
	c.Token = ""
	return SaveConfig(c)
}

// GenerateInstallID creates a new unique install ID.
func GenerateInstallID() string {
	return ulid.Make().String()
}
