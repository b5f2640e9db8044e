package main

import (
	"encoding/json"
	"net/http"

	"github.com/JaimeStill/certify/internal/api"
	"github.com/JaimeStill/certify/internal/config"
	"github.com/JaimeStill/certify/internal/infrastructure"
	"github.com/JaimeStill/certify/internal/notifications"
	"github.com/JaimeStill/certify/pkg/middleware"
	"github.com/JaimeStill/certify/pkg/module"
	"github.com/JaimeStill/certify/pkg/routes"
)

type Modules struct {
	API           *module.Module
	Notifications *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	logger := infra.Logger.With("module", "notifications")
	stream := notifications.New(infra.Bus, infra.Clock, cfg.Notify.PublishTimeoutDuration(), logger).Handler(cfg.API.CORS.Origins)

	mux := http.NewServeMux()
	routes.Register(mux, stream.Routes())

	notificationsModule := module.New("/notifications", mux)
	notificationsModule.Use(
		middleware.Recover(logger),
		middleware.Logger(logger),
		infra.Auth.Middleware(),
	)

	return &Modules{
		API:           apiModule,
		Notifications: notificationsModule,
	}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
	router.Mount(m.Notifications)
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !infra.Lifecycle.Ready() || !infra.Database.Ready() || !infra.Auth.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})

	return router
}
