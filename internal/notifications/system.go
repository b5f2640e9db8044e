// Package notifications publishes workflow events to the bus and streams them
// to connected clients.
package notifications

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/JaimeStill/certify/pkg/pubsub"
)

// DefaultPublishTimeout bounds a publish when New is given no timeout.
const DefaultPublishTimeout = 2 * time.Second

// Publisher emits a notification after a state change has committed.
// Publishing is fire-and-forget: failures are logged, never returned.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data any, audience ...string)
}

// System publishes notifications and serves the stream endpoint.
type System interface {
	Publisher
	Handler(originPatterns []string) *Handler
}

type notifier struct {
	bus     pubsub.Bus
	clock   clockwork.Clock
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a notification system over bus. Each publish runs detached
// from the caller's cancellation but gives up after timeout.
func New(bus pubsub.Bus, clock clockwork.Clock, timeout time.Duration, logger *slog.Logger) System {
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	return &notifier{
		bus:     bus,
		clock:   clock,
		timeout: timeout,
		logger:  logger.With("system", "notifications"),
	}
}

func (n *notifier) Handler(originPatterns []string) *Handler {
	return NewHandler(n.bus, n.logger, originPatterns)
}

func (n *notifier) Publish(ctx context.Context, eventType string, data any, audience ...string) {
	evt, err := pubsub.NewEvent(eventType, n.clock.Now(), data, audience...)
	if err != nil {
		n.logger.Error("notification build failed", "type", eventType, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	if err := n.bus.Publish(ctx, evt); err != nil {
		n.logger.Warn("notification publish failed", "type", eventType, "id", evt.ID, "error", err)
		return
	}

	n.logger.Debug("notification published", "type", eventType, "id", evt.ID)
}

// Discard is a Publisher that drops every notification.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, string, any, ...string) {}
