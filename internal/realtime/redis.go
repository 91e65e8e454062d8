package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RelayChannel is the redis pub/sub channel carrying every envelope.
const RelayChannel = "household-api:realtime"

const publishTimeout = 2 * time.Second

type envelope struct {
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// RedisBroadcaster relays events through redis so that every server process
// delivers them to its own connected clients.
type RedisBroadcaster struct {
	client *redis.Client
	hub    *Hub
	logger *zap.Logger
}

// NewRedisBroadcaster creates a RedisBroadcaster delivering into hub.
func NewRedisBroadcaster(client *redis.Client, hub *Hub, logger *zap.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, hub: hub, logger: logger}
}

// Publish sends the event to the relay. When redis is unreachable the event
// is delivered to local clients only.
func (b *RedisBroadcaster) Publish(channel, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Error("marshal realtime payload", zap.String("event", event), zap.Error(err))
		return
	}
	msg, err := json.Marshal(envelope{Channel: channel, Event: event, Data: data})
	if err != nil {
		b.logger.Error("marshal realtime envelope", zap.String("event", event), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := b.client.Publish(ctx, RelayChannel, msg).Err(); err != nil {
		b.logger.Warn("redis publish failed, delivering locally",
			zap.String("channel", channel),
			zap.String("event", event),
			zap.Error(err),
		)
		b.hub.Publish(channel, event, json.RawMessage(data))
	}
}

// Run subscribes to the relay and hands every envelope to the local hub. It
// returns when ctx is cancelled or the subscription fails.
func (b *RedisBroadcaster) Run(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, RelayChannel)
	defer pubsub.Close()

	// Wait for the subscription confirmation so no message published after
	// Run starts is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warn("discarding malformed relay envelope", zap.Error(err))
				continue
			}
			b.hub.Publish(env.Channel, env.Event, env.Data)
		}
	}
}
