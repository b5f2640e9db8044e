package certifications

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/certify/pkg/auth"
	"github.com/JaimeStill/certify/pkg/authz"
	"github.com/JaimeStill/certify/pkg/handlers"
	"github.com/JaimeStill/certify/pkg/routes"
)

// Handler provides HTTP endpoints for certification gates and resets.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a certification Handler.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "certifications"),
	}
}

// Routes returns the route group definition for certification endpoints.
func (h *Handler) Routes() routes.Group {
	require := func(permission string) []routes.Middleware {
		return []routes.Middleware{authz.Require(permission, h.logger)}
	}

	return routes.Group{
		Children: []routes.Group{
			{
				Prefix: "/categories/{id}",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/certify", Handler: h.CertifyScores, Middleware: require(authz.ScoresCertify)},
					{Method: "GET", Pattern: "/final-certification", Handler: h.FinalStatus, Middleware: require(authz.CertificationsFinal)},
					{Method: "POST", Pattern: "/final-certification", Handler: h.SubmitFinal, Middleware: require(authz.CertificationsFinal)},
					{Method: "GET", Pattern: "/certifications", Handler: h.List, Middleware: require(authz.CertificationsRead)},
					{Method: "POST", Pattern: "/certifications/reset", Handler: h.Reset, Middleware: require(authz.CertificationsReset)},
				},
			},
			{
				Prefix: "/contests/{id}",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/certify", Handler: h.CertifyContest, Middleware: require(authz.CertificationsContest)},
					{Method: "GET", Pattern: "/certifications", Handler: h.ListContest, Middleware: require(authz.CertificationsRead)},
				},
			},
		},
	}
}

// CertifyScores certifies the category's scores under the caller's role.
func (h *Handler) CertifyScores(w http.ResponseWriter, r *http.Request) {
	id, actor, cmd, ok := h.signRequest(w, r)
	if !ok {
		return
	}

	result, err := h.sys.CertifyScores(r.Context(), id, cmd, *actor)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondMessage(w, http.StatusOK, result, "scores certified")
}

// FinalStatus returns the category's final certification readiness.
func (h *Handler) FinalStatus(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathUUID(r, "id")
	if err != nil {
		handlers.RespondAppError(w, h.logger, err)
		return
	}

	p, err := h.sys.FinalStatus(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, p)
}

// SubmitFinal writes the category's Auditor certification.
func (h *Handler) SubmitFinal(w http.ResponseWriter, r *http.Request) {
	id, actor, cmd, ok := h.signRequest(w, r)
	if !ok {
		return
	}

	c, err := h.sys.SubmitFinal(r.Context(), id, cmd, *actor)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondMessage(w, http.StatusCreated, c, "final certification submitted")
}

// CertifyContest writes the contest's Board certification.
func (h *Handler) CertifyContest(w http.ResponseWriter, r *http.Request) {
	id, actor, cmd, ok := h.signRequest(w, r)
	if !ok {
		return
	}

	c, err := h.sys.CertifyContest(r.Context(), id, cmd, *actor)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondMessage(w, http.StatusCreated, c, "contest certified")
}

// Reset revokes a certification and its downstream records.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
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

	var cmd ResetCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondAppError(w, h.logger, err)
		return
	}

	result, err := h.sys.Reset(r.Context(), id, cmd, *actor)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondMessage(w, http.StatusOK, result, "certification reset")
}

// List returns every certification of a category, revoked ones included.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathUUID(r, "id")
	if err != nil {
		handlers.RespondAppError(w, h.logger, err)
		return
	}

	certs, err := h.sys.List(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, certs)
}

// ListContest returns the certification history of a contest and its
// categories. Query parameters role and active narrow the result.
func (h *Handler) ListContest(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathUUID(r, "id")
	if err != nil {
		handlers.RespondAppError(w, h.logger, err)
		return
	}

	certs, err := h.sys.ListContest(r.Context(), id, HistoryFiltersFromQuery(r.URL.Query()))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, certs)
}

// signRequest reads the caller, the path id, and an optional SignCommand body.
func (h *Handler) signRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, *auth.Identity, SignCommand, bool) {
	var cmd SignCommand

	actor, err := auth.FromRequest(r)
	if err != nil {
		handlers.RespondAppError(w, h.logger, err)
		return uuid.Nil, nil, cmd, false
	}

	id, err := handlers.PathUUID(r, "id")
	if err != nil {
		handlers.RespondAppError(w, h.logger, err)
		return uuid.Nil, nil, cmd, false
	}

	if r.ContentLength != 0 {
		if err := handlers.DecodeJSON(r, &cmd); err != nil {
			handlers.RespondAppError(w, h.logger, err)
			return uuid.Nil, nil, cmd, false
		}
	}

	return id, actor, cmd, true
}
