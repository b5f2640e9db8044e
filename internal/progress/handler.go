package progress

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/certify/pkg/apperr"
	"github.com/JaimeStill/certify/pkg/authz"
	"github.com/JaimeStill/certify/pkg/handlers"
	"github.com/JaimeStill/certify/pkg/routes"
)

// Handler serves contest certification progress.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a progress Handler.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "progress"),
	}
}

// Routes returns the route group definition for progress endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/contests/{id}",
		Routes: []routes.Route{
			{
				Method:     "GET",
				Pattern:    "/certification-progress",
				Handler:    h.Contest,
				Middleware: []routes.Middleware{authz.Require(authz.ProgressRead, h.logger)},
			},
		},
	}
}

// Contest returns per-category progress for a contest.
func (h *Handler) Contest(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathUUID(r, "id")
	if err != nil {
		handlers.RespondAppError(w, h.logger, err)
		return
	}

	p, err := h.sys.Contest(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, apperr.HTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, p)
}
