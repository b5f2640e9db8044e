package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/JaimeStill/certify/pkg/middleware"
	"github.com/JaimeStill/certify/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "CERTIFY_CORS_ENABLED",
	Origins:          "CERTIFY_CORS_ORIGINS",
	AllowedMethods:   "CERTIFY_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "CERTIFY_CORS_ALLOWED_HEADERS",
	AllowCredentials: "CERTIFY_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "CERTIFY_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "CERTIFY_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "CERTIFY_PAGINATION_MAX_PAGE_SIZE",
}

const (
	EnvAPIBasePath            = "CERTIFY_API_BASE_PATH"
	EnvAPIProgressConcurrency = "CERTIFY_API_PROGRESS_CONCURRENCY"
)

// APIConfig holds API routing, CORS, and pagination settings.
type APIConfig struct {
	BasePath string `toml:"base_path"`
	// ProgressConcurrency bounds the per-category fan-out of contest progress.
	ProgressConcurrency int                   `toml:"progress_concurrency"`
	CORS                middleware.CORSConfig `toml:"cors"`
	Pagination          pagination.Config     `toml:"pagination"`
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if c.ProgressConcurrency < 1 {
		return fmt.Errorf("progress_concurrency must be positive")
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.ProgressConcurrency != 0 {
		c.ProgressConcurrency = overlay.ProgressConcurrency
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.ProgressConcurrency == 0 {
		c.ProgressConcurrency = 4
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvAPIProgressConcurrency); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ProgressConcurrency = n
		}
	}
}
