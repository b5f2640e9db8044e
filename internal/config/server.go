package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

const (
	EnvServerHost              = "CERTIFY_SERVER_HOST"
	EnvServerPort              = "CERTIFY_SERVER_PORT"
	EnvServerReadTimeout       = "CERTIFY_SERVER_READ_TIMEOUT"
	EnvServerReadHeaderTimeout = "CERTIFY_SERVER_READ_HEADER_TIMEOUT"
	EnvServerWriteTimeout      = "CERTIFY_SERVER_WRITE_TIMEOUT"
	EnvServerDrainTimeout      = "CERTIFY_SERVER_DRAIN_TIMEOUT"
	EnvServerMaxBodyBytes      = "CERTIFY_SERVER_MAX_BODY_BYTES"
)

// ServerConfig holds HTTP listener parameters. WriteTimeout does not bound
// notification streams; those clear their own deadlines.
type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	ReadTimeout       string `toml:"read_timeout"`
	ReadHeaderTimeout string `toml:"read_header_timeout"`
	WriteTimeout      string `toml:"write_timeout"`
	DrainTimeout      string `toml:"drain_timeout"`
	MaxBodyBytes      int64  `toml:"max_body_bytes"`
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration { return duration(c.ReadTimeout) }
func (c *ServerConfig) ReadHeaderTimeoutDuration() time.Duration { return duration(c.ReadHeaderTimeout) }
func (c *ServerConfig) WriteTimeoutDuration() time.Duration { return duration(c.WriteTimeout) }

// DrainTimeoutDuration bounds how long in-flight requests may finish after
// shutdown begins.
func (c *ServerConfig) DrainTimeoutDuration() time.Duration { return duration(c.DrainTimeout) }

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	if overlay.MaxBodyBytes != 0 {
		c.MaxBodyBytes = overlay.MaxBodyBytes
	}
	for dst, src := range c.durations(overlay) {
		if src != "" {
			*dst = src
		}
	}
}

// durations pairs each duration field with its overlay value.
func (c *ServerConfig) durations(overlay *ServerConfig) map[*string]string {
	return map[*string]string{
		&c.ReadTimeout:       overlay.ReadTimeout,
		&c.ReadHeaderTimeout: overlay.ReadHeaderTimeout,
		&c.WriteTimeout:      overlay.WriteTimeout,
		&c.DrainTimeout:      overlay.DrainTimeout,
	}
}

func (c *ServerConfig) loadDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 1 << 20
	}
	c.Host = orDefault(c.Host, "0.0.0.0")
	c.ReadTimeout = orDefault(c.ReadTimeout, "1m")
	c.ReadHeaderTimeout = orDefault(c.ReadHeaderTimeout, "10s")
	c.WriteTimeout = orDefault(c.WriteTimeout, "1m")
	c.DrainTimeout = orDefault(c.DrainTimeout, "30s")
}

func (c *ServerConfig) loadEnv() {
	if v := os.Getenv(EnvServerHost); v != "" {
		c.Host = v
	}
	if v := os.Getenv(EnvServerPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv(EnvServerMaxBodyBytes); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.MaxBodyBytes = n
		}
	}
	c.Merge(&ServerConfig{
		ReadTimeout:       os.Getenv(EnvServerReadTimeout),
		ReadHeaderTimeout: os.Getenv(EnvServerReadHeaderTimeout),
		WriteTimeout:      os.Getenv(EnvServerWriteTimeout),
		DrainTimeout:      os.Getenv(EnvServerDrainTimeout),
	})
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.MaxBodyBytes < 1 {
		return fmt.Errorf("invalid max_body_bytes: %d", c.MaxBodyBytes)
	}
	fields := []struct{ name, value string }{
		{"read_timeout", c.ReadTimeout},
		{"read_header_timeout", c.ReadHeaderTimeout},
		{"write_timeout", c.WriteTimeout},
		{"drain_timeout", c.DrainTimeout},
	}
	for _, f := range fields {
		if _, err := time.ParseDuration(f.value); err != nil {
			return fmt.Errorf("invalid %s: %w", f.name, err)
		}
	}
	return nil
}

func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
