package pubsub

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds notification bus settings. An empty RedisURL keeps delivery in-process.
type Config struct {
	RedisURL       string `toml:"redis_url"`
	Channel        string `toml:"channel"`
	Buffer         int    `toml:"buffer"`
	PublishTimeout string `toml:"publish_timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	RedisURL       string
	Channel        string
	Buffer         string
	PublishTimeout string
}

// PublishTimeoutDuration bounds a single publish.
func (c *Config) PublishTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.PublishTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.RedisURL != "" {
		c.RedisURL = overlay.RedisURL
	}
	if overlay.Channel != "" {
		c.Channel = overlay.Channel
	}
	if overlay.Buffer != 0 {
		c.Buffer = overlay.Buffer
	}
	if overlay.PublishTimeout != "" {
		c.PublishTimeout = overlay.PublishTimeout
	}
}

func (c *Config) loadDefaults() {
	if c.Channel == "" {
		c.Channel = "certify:notifications"
	}
	if c.Buffer == 0 {
		c.Buffer = 64
	}
	if c.PublishTimeout == "" {
		c.PublishTimeout = "2s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.RedisURL != "" {
		if v := os.Getenv(env.RedisURL); v != "" {
			c.RedisURL = v
		}
	}
	if env.Channel != "" {
		if v := os.Getenv(env.Channel); v != "" {
			c.Channel = v
		}
	}
	if env.Buffer != "" {
		if v := os.Getenv(env.Buffer); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Buffer = n
			}
		}
	}
	if env.PublishTimeout != "" {
		if v := os.Getenv(env.PublishTimeout); v != "" {
			c.PublishTimeout = v
		}
	}
}

func (c *Config) validate() error {
	if c.Buffer <= 0 {
		return fmt.Errorf("buffer must be positive")
	}
	if d, err := time.ParseDuration(c.PublishTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid publish_timeout: %q", c.PublishTimeout)
	}
	return nil
}
