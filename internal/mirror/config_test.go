// ABOUTME: Tests mirror server configuration loading and validation.
// ABOUTME: Exercises defaults, config.yaml, and LIFT_MIRROR_ environment overrides.
package mirror_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/lift/internal/mirror"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := mirror.LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, mirror.DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "lift", cfg.Store.Database)
	assert.Equal(t, 720*time.Hour, cfg.JWT.Expiration)
	assert.Error(t, cfg.Validate(), "a secret is required")
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  address: ":9090"
store:
  driver: postgres
  uri: postgres://lift@localhost/lift
jwt:
  secret: from-file
  expiration: 1h
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("LIFT_MIRROR_JWT_SECRET", "from-env")

	cfg, err := mirror.LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, mirror.DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://lift@localhost/lift", cfg.Store.URI)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, time.Hour, cfg.JWT.Expiration)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0o600))

	_, err := mirror.LoadConfig(dir)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     mirror.Config
		wantErr bool
	}{
		{"memory with secret", mirror.Config{Store: mirror.StoreConfig{Driver: mirror.DriverMemory}, JWT: mirror.JWTConfig{Secret: "s"}}, false},
		{"mongo without uri", mirror.Config{Store: mirror.StoreConfig{Driver: mirror.DriverMongo}, JWT: mirror.JWTConfig{Secret: "s"}}, true},
		{"mongo with uri", mirror.Config{Store: mirror.StoreConfig{Driver: mirror.DriverMongo, URI: "mongodb://localhost"}, JWT: mirror.JWTConfig{Secret: "s"}}, false},
		{"unknown driver", mirror.Config{Store: mirror.StoreConfig{Driver: "redis"}, JWT: mirror.JWTConfig{Secret: "s"}}, true},
		{"missing secret", mirror.Config{Store: mirror.StoreConfig{Driver: mirror.DriverMemory}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
