package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"wellbe/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

type relayMessage struct {
	UserID string          `json:"userId"`
	Frame  json.RawMessage `json:"frame"`
}

// RedisRelay fans notifications out across instances: Publish writes to a
// Redis channel and Run forwards every message to the local Hub.
type RedisRelay struct {
	client  *redis.Client
	channel string
	hub     *Hub
	logger  *zap.Logger
}

func NewRedisRelay(client *redis.Client, channel string, hub *Hub, logger *zap.Logger) *RedisRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRelay{client: client, channel: channel, hub: hub, logger: logger}
}

// Publish implements notification.Publisher.
func (r *RedisRelay) Publish(ctx context.Context, userID string, n *models.Notification) error {
	frame, err := json.Marshal(Envelope{Type: "notification", Data: n})
	if err != nil {
		return fmt.Errorf("relay: failed to encode notification: %w", err)
	}
	payload, err := json.Marshal(relayMessage{UserID: userID, Frame: frame})
	if err != nil {
		return fmt.Errorf("relay: failed to encode message: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("relay: publish to %s failed: %w", r.channel, err)
	}
	return nil
}

// Run subscribes to the relay channel until ctx is cancelled. ready, when
// non-nil, is closed once the subscription is confirmed.
func (r *RedisRelay) Run(ctx context.Context, ready chan<- struct{}) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("relay: subscribe to %s failed: %w", r.channel, err)
	}
	if ready != nil {
		close(ready)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var m relayMessage
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				r.logger.Warn("relay: dropping malformed message", zap.Error(err))
				continue
			}
			r.hub.Deliver(m.UserID, m.Frame)
		}
	}
}
