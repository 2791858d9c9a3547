// ABOUTME: Mirror server configuration loaded by viper from config.yaml and LIFT_MIRROR_* env vars.
// ABOUTME: Selects the store driver and holds the JWT signing settings.
package mirror

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config holds all mirror server settings.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	JWT    JWTConfig    `mapstructure:"jwt"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// StoreConfig selects the backing store. URI is a Postgres DSN or a MongoDB
// connection string; Database names the Mongo database.
type StoreConfig struct {
	Driver   string `mapstructure:"driver"`
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// LoadConfig reads config.yaml from path, if present, and overlays
// LIFT_MIRROR_ environment variables (server.address -> LIFT_MIRROR_SERVER_ADDRESS).
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("LIFT_MIRROR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.address", ":8080")
	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("store.uri", "")
	v.SetDefault("store.database", "lift")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "720h")

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required (LIFT_MIRROR_JWT_SECRET)")
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres, DriverMongo:
		if c.Store.URI == "" {
			return fmt.Errorf("store.uri is required for driver %q", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}
