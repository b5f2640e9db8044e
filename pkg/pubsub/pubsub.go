// Package pubsub fans domain events out to in-process subscribers, optionally
// bridged across instances through a Redis channel.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/certify/pkg/lifecycle"
)

// Event is a published notification. Audience lists the roles the event is
// addressed to; an empty audience reaches every subscriber.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Audience   []string        `json:"audience,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
	Origin     string          `json:"origin,omitempty"`
}

// NewEvent marshals data into a new Event.
func NewEvent(eventType string, at time.Time, data any, audience ...string) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Audience:   audience,
		Data:       raw,
		OccurredAt: at.UTC(),
	}, nil
}

// Addressed reports whether the event is visible to role.
func (e Event) Addressed(role string) bool {
	return len(e.Audience) == 0 || slices.Contains(e.Audience, role)
}

// Bus publishes events and hands out subscriptions.
type Bus interface {
	Publish(ctx context.Context, evt Event) error
	Subscribe() *Subscription
}

// System is a Bus with lifecycle hooks.
type System interface {
	Bus
	Start(lc *lifecycle.Coordinator) error
}

// Subscription receives events on C until closed. Events that arrive while
// the buffer is full are dropped and counted.
type Subscription struct {
	C <-chan Event

	ch      chan Event
	id      uint64
	hub     *hub
	dropped atomic.Uint64
	once    sync.Once
}

// Dropped returns the number of events discarded because the subscriber fell behind.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Close removes the subscription from the bus and closes C.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s.id)
	})
}

type hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	next   uint64
	buffer int
}

func newHub(buffer int) *hub {
	return &hub{
		subs:   make(map[uint64]*Subscription),
		buffer: buffer,
	}
}

func (h *hub) subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	ch := make(chan Event, h.buffer)
	sub := &Subscription{C: ch, ch: ch, id: h.next, hub: h}
	h.subs[sub.id] = sub
	return sub
}

func (h *hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(sub.ch)
	}
}

func (h *hub) deliver(evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		select {
		case sub.ch <- evt:
		default:
			sub.dropped.Add(1)
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.ch)
	}
}

type memory struct {
	hub    *hub
	logger *slog.Logger
}

// NewMemory creates an in-process bus.
func NewMemory(buffer int, logger *slog.Logger) System {
	return &memory{
		hub:    newHub(buffer),
		logger: logger.With("system", "pubsub"),
	}
}

// New creates the bus described by cfg: Redis-bridged when RedisURL is set,
// in-process otherwise.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	if cfg.RedisURL == "" {
		return NewMemory(cfg.Buffer, logger), nil
	}
	return NewRedis(cfg, logger)
}

func (m *memory) Publish(_ context.Context, evt Event) error {
	m.hub.deliver(evt)
	return nil
}

func (m *memory) Subscribe() *Subscription {
	return m.hub.subscribe()
}

func (m *memory) Start(lc *lifecycle.Coordinator) error {
	m.logger.Info("in-process notification bus ready")
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		m.hub.closeAll()
	})
	return nil
}
