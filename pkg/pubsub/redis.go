package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/JaimeStill/certify/pkg/lifecycle"
)

type redisBus struct {
	client  *redis.Client
	channel string
	origin  string
	hub     *hub
	logger  *slog.Logger

	mu sync.Mutex
	ps *redis.PubSub
}

// NewRedis creates a bus that delivers locally and relays every event through
// a Redis channel so subscribers on other instances receive it too.
func NewRedis(cfg *Config, logger *slog.Logger) (System, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	return &redisBus{
		client:  redis.NewClient(opts),
		channel: cfg.Channel,
		origin:  uuid.NewString(),
		hub:     newHub(cfg.Buffer),
		logger:  logger.With("system", "pubsub", "transport", "redis"),
	}, nil
}

func (b *redisBus) Publish(ctx context.Context, evt Event) error {
	b.hub.deliver(evt)

	evt.Origin = b.origin
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", b.channel, err)
	}
	return nil
}

func (b *redisBus) Subscribe() *Subscription {
	return b.hub.subscribe()
}

func (b *redisBus) Start(lc *lifecycle.Coordinator) error {
	b.logger.Info("starting redis notification bridge", "channel", b.channel)

	lc.OnStartup(func() error {
		ctx := lc.Context()
		if err := b.client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}

		ps := b.client.Subscribe(ctx, b.channel)
		if _, err := ps.Receive(ctx); err != nil {
			ps.Close()
			return fmt.Errorf("redis subscribe %s: %w", b.channel, err)
		}

		b.mu.Lock()
		b.ps = ps
		b.mu.Unlock()

		go b.relay(ps)
		b.logger.Info("redis notification bridge ready")
		return nil
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()

		b.mu.Lock()
		if b.ps != nil {
			b.ps.Close()
		}
		b.mu.Unlock()

		b.hub.closeAll()
		if err := b.client.Close(); err != nil {
			b.logger.Error("redis close failed", "error", err)
		}
	})

	return nil
}

func (b *redisBus) relay(ps *redis.PubSub) {
	for msg := range ps.Channel() {
		var evt Event
		if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
			b.logger.Warn("discarding malformed notification", "error", err)
			continue
		}
		if evt.Origin == b.origin {
			continue
		}
		b.hub.deliver(evt)
	}
}
