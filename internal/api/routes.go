package api

import (
	"net/http"

	"github.com/JaimeStill/certify/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, runtime *Runtime) {
	routes.Register(
		mux,
		domain.Events.Handler().Routes(),
		domain.Scores.Handler().Routes(),
		domain.Progress.Handler().Routes(),
		domain.Certifications.Handler().Routes(),
		domain.Removals.Handler().Routes(),
		newArchiveHandler(runtime.Storage, runtime.Logger).routes(),
	)
}
