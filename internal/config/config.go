package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/certify/pkg/auth"
	"github.com/JaimeStill/certify/pkg/database"
	"github.com/JaimeStill/certify/pkg/pubsub"
	"github.com/JaimeStill/certify/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvCertifyEnv             = "CERTIFY_ENV"
	EnvCertifyShutdownTimeout = "CERTIFY_SHUTDOWN_TIMEOUT"
	EnvCertifyVersion         = "CERTIFY_VERSION"
)

var databaseEnv = &database.Env{
	URL:             "CERTIFY_DB_URL",
	Host:            "CERTIFY_DB_HOST",
	Port:            "CERTIFY_DB_PORT",
	Name:            "CERTIFY_DB_NAME",
	User:            "CERTIFY_DB_USER",
	Password:        "CERTIFY_DB_PASSWORD",
	SSLMode:         "CERTIFY_DB_SSL_MODE",
	MaxOpenConns:    "CERTIFY_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "CERTIFY_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "CERTIFY_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "CERTIFY_DB_CONN_TIMEOUT",
	PingRetries:     "CERTIFY_DB_PING_RETRIES",
	PingBackoff:     "CERTIFY_DB_PING_BACKOFF",
}

var storageEnv = &storage.Env{
	ContainerName:    "CERTIFY_STORAGE_CONTAINER_NAME",
	ConnectionString: "CERTIFY_STORAGE_CONNECTION_STRING",
	AccountURL:       "CERTIFY_STORAGE_ACCOUNT_URL",
	MaxRetries:       "CERTIFY_STORAGE_MAX_RETRIES",
}

var authEnv = &auth.Env{
	Issuer:    "CERTIFY_AUTH_ISSUER",
	ClientID:  "CERTIFY_AUTH_CLIENT_ID",
	JWKSURL:   "CERTIFY_AUTH_JWKS_URL",
	RoleClaim: "CERTIFY_AUTH_ROLE_CLAIM",
}

var notifyEnv = &pubsub.Env{
	RedisURL:       "CERTIFY_NOTIFY_REDIS_URL",
	Channel:        "CERTIFY_NOTIFY_CHANNEL",
	Buffer:         "CERTIFY_NOTIFY_BUFFER",
	PublishTimeout: "CERTIFY_NOTIFY_PUBLISH_TIMEOUT",
}

// Config is the root configuration for the certification service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Auth            auth.Config     `toml:"auth"`
	Notify          pubsub.Config   `toml:"notify"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the CERTIFY_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvCertifyEnv); env != "" {
		return env
	}
	return "local"
}

// Production reports whether the service runs with production error output.
func (c *Config) Production() bool {
	return c.Env() == "production"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	return LoadFrom(BaseConfigFile)
}

// LoadFrom is Load with an explicit base config path.
func LoadFrom(base string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(base); err == nil {
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// LoadDatabase finalizes only the database section. Commands that need a
// connection and nothing else use it so storage and auth settings stay optional.
func LoadDatabase() (*database.Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}
	if err := cfg.Database.Finalize(databaseEnv); err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	return &cfg.Database, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Auth.Merge(&overlay.Auth)
	c.Notify.Merge(&overlay.Notify)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Notify.Finalize(notifyEnv); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvCertifyShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvCertifyVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvCertifyEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
