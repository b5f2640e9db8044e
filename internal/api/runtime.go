package api

import (
	"github.com/JaimeStill/certify/internal/config"
	"github.com/JaimeStill/certify/internal/infrastructure"
	"github.com/JaimeStill/certify/internal/notifications"
	"github.com/JaimeStill/certify/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Notifications       notifications.System
	Pagination          pagination.Config
	ProgressConcurrency int
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	logger := infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    logger,
			Clock:     infra.Clock,
			Database:  infra.Database,
			Storage:   infra.Storage,
			Auth:      infra.Auth,
			Bus:       infra.Bus,
		},
		Notifications:       notifications.New(infra.Bus, infra.Clock, cfg.Notify.PublishTimeoutDuration(), logger),
		Pagination:          cfg.API.Pagination,
		ProgressConcurrency: cfg.API.ProgressConcurrency,
	}
}
