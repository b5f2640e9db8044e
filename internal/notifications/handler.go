package notifications

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/JaimeStill/certify/pkg/auth"
	"github.com/JaimeStill/certify/pkg/authz"
	"github.com/JaimeStill/certify/pkg/handlers"
	"github.com/JaimeStill/certify/pkg/pubsub"
	"github.com/JaimeStill/certify/pkg/routes"
)

const writeTimeout = 5 * time.Second

// Handler streams notifications over WebSocket.
type Handler struct {
	bus            pubsub.Bus
	logger         *slog.Logger
	originPatterns []string
}

// NewHandler creates a stream handler. originPatterns accepts either host
// patterns or full origins; full origins are reduced to their host.
func NewHandler(bus pubsub.Bus, logger *slog.Logger, originPatterns []string) *Handler {
	return &Handler{
		bus:            bus,
		logger:         logger.With("handler", "notifications"),
		originPatterns: hostPatterns(originPatterns),
	}
}

// Routes returns the route group for the notification stream.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Routes: []routes.Route{
			{
				Method:     "GET",
				Pattern:    "/stream",
				Handler:    h.Stream,
				Middleware: []routes.Middleware{authz.Require(authz.NotificationsStream, h.logger)},
			},
		},
	}
}

// Stream upgrades the connection and forwards every notification addressed
// to the caller's role. The optional types query parameter narrows the feed
// to a comma-separated list of notification types.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	id, err := auth.FromRequest(r)
	if err != nil {
		handlers.RespondAppError(w, h.logger, err)
		return
	}

	// Streams outlive the server's per-request timeouts.
	rc := http.NewResponseController(w)
	rc.SetReadDeadline(time.Time{})
	rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	sub := h.bus.Subscribe()
	defer sub.Close()

	types := parseTypes(r.URL.Query().Get("types"))
	ctx := conn.CloseRead(r.Context())

	h.logger.Info("stream opened", "user", id.ID, "role", id.Role)

	ready := map[string]any{"type": "ready", "role": id.Role}
	if err := write(ctx, conn, ready); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("stream closed", "user", id.ID, "dropped", sub.Dropped())
			conn.Close(websocket.StatusNormalClosure, "closed")
			return
		case evt, ok := <-sub.C:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "shutting down")
				return
			}
			if !Visible(evt, id.Role, types) {
				continue
			}
			if err := write(ctx, conn, evt); err != nil {
				h.logger.Warn("stream write failed", "user", id.ID, "error", err)
				conn.Close(websocket.StatusInternalError, "write failed")
				return
			}
		}
	}
}

// Visible reports whether evt should be delivered to a subscriber with role,
// optionally restricted to types. ADMIN receives every event.
func Visible(evt pubsub.Event, role string, types []string) bool {
	if len(types) > 0 && !slices.Contains(types, evt.Type) {
		return false
	}
	return role == authz.RoleAdmin || evt.Addressed(role)
}

func write(ctx context.Context, conn *websocket.Conn, v any) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, v)
}

func parseTypes(raw string) []string {
	if raw == "" {
		return nil
	}
	var types []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	return types
}

func hostPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, o)
	}
	return patterns
}
