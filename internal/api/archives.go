package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/JaimeStill/certify/pkg/apperr"
	"github.com/JaimeStill/certify/pkg/authz"
	"github.com/JaimeStill/certify/pkg/handlers"
	"github.com/JaimeStill/certify/pkg/routes"
	"github.com/JaimeStill/certify/pkg/storage"
)

const archivePrefix = "archives/"

// archiveHandler serves the certification snapshots written when an event is archived.
type archiveHandler struct {
	store  storage.System
	logger *slog.Logger
}

func newArchiveHandler(store storage.System, logger *slog.Logger) *archiveHandler {
	return &archiveHandler{
		store:  store,
		logger: logger.With("handler", "archives"),
	}
}

func (h *archiveHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/archives",
		Routes: []routes.Route{
			{
				Method:     "GET",
				Pattern:    "/{key...}",
				Handler:    h.download,
				Middleware: []routes.Middleware{authz.Require(authz.EventsAdmin, h.logger)},
			},
		},
	}
}

func (h *archiveHandler) download(w http.ResponseWriter, r *http.Request) {
	key := archivePrefix + strings.TrimPrefix(r.PathValue("key"), archivePrefix)
	if !strings.HasSuffix(key, ".json") {
		handlers.RespondAppError(w, h.logger, apperr.ErrInvalidID.WithDetails(map[string]string{"key": key}))
		return
	}

	body, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", path.Base(key)),
	)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("archive download interrupted", "key", key, "error", err)
	}
}
