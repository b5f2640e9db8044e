package removals

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/certify/pkg/auth"
	"github.com/JaimeStill/certify/pkg/authz"
	"github.com/JaimeStill/certify/pkg/handlers"
	"github.com/JaimeStill/certify/pkg/pagination"
	"github.com/JaimeStill/certify/pkg/routes"
)

// Handler provides HTTP endpoints for score removal requests.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "removals"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for the removal workflow.
func (h *Handler) Routes() routes.Group {
	require := func(permission string) []routes.Middleware {
		return []routes.Middleware{authz.Require(permission, h.logger)}
	}

	return routes.Group{
		Prefix: "/score-removal-requests",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, Middleware: require(authz.RemovalsRead)},
			{Method: "POST", Pattern: "", Handler: h.Create, Middleware: require(authz.RemovalsCreate)},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find, Middleware: require(authz.RemovalsRead)},
			{Method: "POST", Pattern: "/{id}/sign", Handler: h.Sign, Middleware: require(authz.RemovalsSign)},
			{Method: "POST", Pattern: "/{id}/reject", Handler: h.Reject, Middleware: require(authz.RemovalsReject)},
			{Method: "POST", Pattern: "/{id}/execute", Handler: h.Execute, Middleware: require(authz.RemovalsExecute)},
		},
	}
}

// List returns a page of removal requests. Judges only see their own.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.FromRequest(r)
	if err != nil {
		handlers.RespondAppError(w, h.logger, err)
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())
	if actor.Role == authz.RoleJudge {
		filters.JudgeID = &actor.ID
	}

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondAppError(w, h.logger, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single removal request.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathUUID(r, "id")
	if err != nil {
		handlers.RespondAppError(w, h.logger, err)
		return
	}

	req, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, req)
}

// Create opens a removal request.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.FromRequest(r)
	if err != nil {
		handlers.RespondAppError(w, h.logger, err)
		return
	}

	var cmd CreateCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondAppError(w, h.logger, err)
		return
	}

	req, err := h.sys.Create(r.Context(), cmd, *actor)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondMessage(w, http.StatusCreated, req, "removal request created")
}

// Sign records the caller's role signature.
func (h *Handler) Sign(w http.ResponseWriter, r *http.Request) {
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

	var cmd SignCommand
	if r.ContentLength != 0 {
		if err := handlers.DecodeJSON(r, &cmd); err != nil {
			handlers.RespondAppError(w, h.logger, err)
			return
		}
	}

	result, err := h.sys.Sign(r.Context(), id, cmd, *actor)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondMessage(w, http.StatusOK, result, "removal request signed")
}

// Reject closes the request without deleting scores.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
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

	var cmd RejectCommand
	if r.ContentLength != 0 {
		if err := handlers.DecodeJSON(r, &cmd); err != nil {
			handlers.RespondAppError(w, h.logger, err)
			return
		}
	}

	req, err := h.sys.Reject(r.Context(), id, cmd, *actor)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondMessage(w, http.StatusOK, req, "removal request rejected")
}

// Execute deletes the judge's scores and revokes the stale certifications.
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.sys.Execute(r.Context(), id, *actor)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondMessage(w, http.StatusOK, result, "removal request executed")
}
