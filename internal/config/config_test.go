// ABOUTME: Tests for lift client configuration.
// ABOUTME: Covers load, save, defaults, backend selection, and path expansion.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/harperreed/lift/internal/remote"
	liftsync "github.com/harperreed/lift/internal/sync"
)

func TestGetBackendDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.GetBackend(); got != BackendHTTP {
		t.Errorf("GetBackend() = %q, want %q", got, BackendHTTP)
	}
}

func TestGetBackendExplicit(t *testing.T) {
	cfg := &Config{Backend: BackendCharm}
	if got := cfg.GetBackend(); got != BackendCharm {
		t.Errorf("GetBackend() = %q, want %q", got, BackendCharm)
	}
}

func TestGetDataDirDefault(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	cfg := &Config{}
	if got := cfg.GetDataDir(); got != filepath.Join("/tmp/xdg-data", "lift") {
		t.Errorf("GetDataDir() = %q", got)
	}
}

func TestGetDataDirExplicit(t *testing.T) {
	cfg := &Config{DataDir: "/tmp/lift-test"}
	if got := cfg.GetDataDir(); got != "/tmp/lift-test" {
		t.Errorf("GetDataDir() = %q, want %q", got, "/tmp/lift-test")
	}
	if got := cfg.DBPath(); got != "/tmp/lift-test/lift.db" {
		t.Errorf("DBPath() = %q", got)
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"/tmp/foo", "/tmp/foo"},
		{"~", home},
		{"~/data/lift", filepath.Join(home, "data/lift")},
		{"data/lift", "data/lift"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadNonExistentConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with no config file should not error: %v", err)
	}
	if cfg.Backend != "" || cfg.DataDir != "" {
		t.Errorf("Expected zero config, got %+v", cfg)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "nonexistent"))

	cfg := &Config{Backend: BackendNone, DataDir: "/tmp/lift-data"}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "nonexistent", "lift")); err != nil {
		t.Errorf("Expected config directory to be created: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("Loaded %+v, want %+v", loaded, cfg)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	configDir := filepath.Join(tmpDir, "lift")
	if err := os.MkdirAll(configDir, 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte("invalid json"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Error("Expected error for invalid JSON config")
	}
}

func TestGetConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	want := filepath.Join(tmpDir, "lift", "config.json")
	if got := GetConfigPath(); got != want {
		t.Errorf("GetConfigPath() = %q, want %q", got, want)
	}
}

func TestOpenStorage(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &Config{DataDir: tmpDir}

	db, err := cfg.OpenStorage()
	if err != nil {
		t.Fatalf("OpenStorage() failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Join(tmpDir, "lift.db")); err != nil {
		t.Errorf("Expected lift.db to be created: %v", err)
	}
}

func TestOpenRemoteNone(t *testing.T) {
	cfg := &Config{Backend: BackendNone}
	r, err := cfg.OpenRemote(&liftsync.Config{Server: "https://example.test", Token: "t"})
	if err != nil {
		t.Fatalf("OpenRemote() failed: %v", err)
	}
	if r != nil {
		t.Error("Expected no remote for backend none")
	}
}

func TestOpenRemoteHTTPWithoutServer(t *testing.T) {
	cfg := &Config{}
	r, err := cfg.OpenRemote(&liftsync.Config{})
	if err != nil {
		t.Fatalf("OpenRemote() failed: %v", err)
	}
	if r != nil {
		t.Error("Expected no remote before a server is configured")
	}
}

func TestOpenRemoteHTTP(t *testing.T) {
	cfg := &Config{Backend: BackendHTTP}
	r, err := cfg.OpenRemote(&liftsync.Config{Server: "https://mirror.example.test", Token: "tok"})
	if err != nil {
		t.Fatalf("OpenRemote() failed: %v", err)
	}
	defer r.Close()

	if _, ok := r.Mirror.(*remote.HTTPMirror); !ok {
		t.Errorf("Expected *remote.HTTPMirror, got %T", r.Mirror)
	}
	if r.Oracle == nil {
		t.Error("Expected an oracle")
	}
}

func TestOpenRemoteInvalidBackend(t *testing.T) {
	cfg := &Config{Backend: "carrier-pigeon"}
	if _, err := cfg.OpenRemote(&liftsync.Config{}); err == nil {
		t.Error("Expected error for invalid backend")
	}
}

func TestConfigJSONOmitsEmpty(t *testing.T) {
	data, err := json.Marshal(&Config{})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("Expected empty JSON object, got %s", string(data))
	}
}
