// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, storage, auth, notification bus)
// that domain systems require.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jonboulle/clockwork"

	"github.com/JaimeStill/certify/internal/config"
	"github.com/JaimeStill/certify/pkg/auth"
	"github.com/JaimeStill/certify/pkg/database"
	"github.com/JaimeStill/certify/pkg/lifecycle"
	"github.com/JaimeStill/certify/pkg/pubsub"
	"github.com/JaimeStill/certify/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Clock     clockwork.Clock
	Database  database.System
	Storage   storage.System
	Auth      auth.System
	Bus       pubsub.System
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	bus, err := pubsub.New(&cfg.Notify, logger)
	if err != nil {
		return nil, fmt.Errorf("notification bus init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Clock:     clockwork.NewRealClock(),
		Database:  db,
		Storage:   store,
		Auth:      auth.New(&cfg.Auth, logger),
		Bus:       bus,
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if err := i.Auth.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("auth start failed: %w", err)
	}
	if err := i.Bus.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("notification bus start failed: %w", err)
	}
	return nil
}
