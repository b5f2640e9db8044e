package events

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/certify/pkg/auth"
	"github.com/JaimeStill/certify/pkg/authz"
	"github.com/JaimeStill/certify/pkg/handlers"
	"github.com/JaimeStill/certify/pkg/pagination"
	"github.com/JaimeStill/certify/pkg/routes"
)

// Handler provides HTTP endpoints for event setup and the Board lock.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "events"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for event, contest, and category setup.
func (h *Handler) Routes() routes.Group {
	require := func(permission string) []routes.Middleware {
		return []routes.Middleware{authz.Require(permission, h.logger)}
	}

	return routes.Group{
		Children: []routes.Group{
			{
				Prefix: "/events",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "", Handler: h.List, Middleware: require(authz.EventsRead)},
					{Method: "POST", Pattern: "", Handler: h.Create, Middleware: require(authz.EventsWrite)},
					{Method: "GET", Pattern: "/{id}", Handler: h.Find, Middleware: require(authz.EventsRead)},
					{Method: "POST", Pattern: "/{id}/contests", Handler: h.CreateContest, Middleware: require(authz.EventsWrite)},
					{Method: "POST", Pattern: "/{id}/lock", Handler: h.Lock, Middleware: require(authz.EventsLock)},
					{Method: "POST", Pattern: "/{id}/unlock", Handler: h.Unlock, Middleware: require(authz.EventsAdmin)},
					{Method: "POST", Pattern: "/{id}/archive", Handler: h.Archive, Middleware: require(authz.EventsAdmin)},
					{Method: "POST", Pattern: "/{id}/restore", Handler: h.Restore, Middleware: require(authz.EventsAdmin)},
				},
			},
			{
				Prefix: "/contests",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/{id}/categories", Handler: h.CreateCategory, Middleware: require(authz.EventsWrite)},
				},
			},
			{
				Prefix: "/categories",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "/{id}", Handler: h.FindCategory, Middleware: require(authz.EventsRead)},
				},
			},
		},
	}
}

// List returns a paginated list of events.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondAppError(w, h.logger, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns an event with its contests.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathUUID(r, "id")
	if err != nil {
		handlers.RespondAppError(w, h.logger, err)
		return
	}

	evt, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, evt)
}

// Create creates an event.
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

	evt, err := h.sys.Create(r.Context(), cmd, *actor)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, evt)
}

// CreateContest adds a contest to an event.
func (h *Handler) CreateContest(w http.ResponseWriter, r *http.Request) {
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

	var cmd CreateContestCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondAppError(w, h.logger, err)
		return
	}

	contest, err := h.sys.CreateContest(r.Context(), id, cmd, *actor)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, contest)
}

// CreateCategory adds a category with criteria and assignments to a contest.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
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

	var cmd CreateCategoryCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondAppError(w, h.logger, err)
		return
	}

	category, err := h.sys.CreateCategory(r.Context(), id, cmd, *actor)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, category)
}

// FindCategory returns a category with its criteria and assignments.
func (h *Handler) FindCategory(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathUUID(r, "id")
	if err != nil {
		handlers.RespondAppError(w, h.logger, err)
		return
	}

	category, err := h.sys.FindCategory(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, category)
}

// Lock performs the Board final lock.
func (h *Handler) Lock(w http.ResponseWriter, r *http.Request) {
	id, actor, ok := h.target(w, r)
	if !ok {
		return
	}

	evt, changed, err := h.sys.Lock(r.Context(), id, *actor)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	message := "event locked"
	if !changed {
		message = "event already locked"
	}
	handlers.RespondMessage(w, http.StatusOK, evt, message)
}

// Unlock clears the event lock.
func (h *Handler) Unlock(w http.ResponseWriter, r *http.Request) {
	id, actor, ok := h.target(w, r)
	if !ok {
		return
	}

	evt, err := h.sys.Unlock(r.Context(), id, *actor)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondMessage(w, http.StatusOK, evt, "event unlocked")
}

// Archive writes the certification archive and marks the event archived.
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	id, actor, ok := h.target(w, r)
	if !ok {
		return
	}

	evt, err := h.sys.Archive(r.Context(), id, *actor)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondMessage(w, http.StatusOK, evt, "event archived")
}

// Restore clears the archived flag.
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	id, actor, ok := h.target(w, r)
	if !ok {
		return
	}

	evt, err := h.sys.Restore(r.Context(), id, *actor)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondMessage(w, http.StatusOK, evt, "event restored")
}

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (uuid.UUID, *auth.Identity, bool) {
	actor, err := auth.FromRequest(r)
	if err != nil {
		handlers.RespondAppError(w, h.logger, err)
		return uuid.Nil, nil, false
	}

	id, err := handlers.PathUUID(r, "id")
	if err != nil {
		handlers.RespondAppError(w, h.logger, err)
		return uuid.Nil, nil, false
	}

	return id, actor, true
}
