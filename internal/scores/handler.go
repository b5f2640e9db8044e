package scores

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/certify/pkg/auth"
	"github.com/JaimeStill/certify/pkg/authz"
	"github.com/JaimeStill/certify/pkg/handlers"
	"github.com/JaimeStill/certify/pkg/pagination"
	"github.com/JaimeStill/certify/pkg/routes"
)

// Handler provides HTTP endpoints for the score store.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "scores"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for score endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/categories/{id}",
		Routes: []routes.Route{
			{
				Method:     "GET",
				Pattern:    "/scores",
				Handler:    h.List,
				Middleware: []routes.Middleware{authz.Require(authz.ScoresRead, h.logger)},
			},
			{
				Method:     "POST",
				Pattern:    "/scores",
				Handler:    h.Submit,
				Middleware: []routes.Middleware{authz.Require(authz.ScoresWrite, h.logger)},
			},
			{
				Method:     "GET",
				Pattern:    "/score-status",
				Handler:    h.Status,
				Middleware: []routes.Middleware{authz.Require(authz.ScoresRead, h.logger)},
			},
		},
	}
}

// List returns a page of the category's scores. Judges only see their own.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.FromRequest(r)
	if err != nil {
		handlers.RespondAppError(w, h.logger, err)
		return
	}

	id, err := handlers.PathUUID(r, "id")
	if err != nil {
		handlers.RespondAppError(w, h.logger, err)
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())
	if actor.Role == authz.RoleJudge {
		filters.JudgeID = &actor.ID
	}

	result, err := h.sys.List(r.Context(), id, page, filters)
	if err != nil {
		handlers.RespondAppError(w, h.logger, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Submit records the acting judge's score.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.FromRequest(r)
	if err != nil {
		handlers.RespondAppError(w, h.logger, err)
		return
	}

	id, err := handlers.PathUUID(r, "id")
	if err != nil {
		handlers.RespondAppError(w, h.logger, err)
		return
	}

	var cmd SubmitCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondAppError(w, h.logger, err)
		return
	}

	score, created, err := h.sys.Submit(r.Context(), id, cmd, *actor)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	handlers.RespondMessage(w, status, score, "score recorded")
}

// Status returns the certification summary of the category's scores.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathUUID(r, "id")
	if err != nil {
		handlers.RespondAppError(w, h.logger, err)
		return
	}

	s, err := h.sys.Status(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, s)
}
