package reactive

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Channel is the broadcast primitive the bridge runs on: at-least-once,
// ordered per publisher, no write coordination required.
type Channel interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}

// Subscription is one open subscriber handle on a channel.
type Subscription interface {
	// Receive blocks until the next message or ctx cancellation.
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

// RedisChannel implements Channel on Redis pub/sub.
type RedisChannel struct {
	client *redis.Client
}

// NewRedisChannel wraps an existing Redis client.
func NewRedisChannel(client *redis.Client) *RedisChannel {
	return &RedisChannel{client: client}
}

// Publish broadcasts payload on the named channel.
func (c *RedisChannel) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := c.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish on %s: %w", channel, err)
	}
	return nil
}

// Subscribe opens a subscription and waits for the server confirmation so a
// publish immediately after Subscribe returns is not lost.
func (c *RedisChannel) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	pubsub := c.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}
	return &redisSubscription{pubsub: pubsub}, nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
}

func (s *redisSubscription) Receive(ctx context.Context) ([]byte, error) {
	msg, err := s.pubsub.ReceiveMessage(ctx)
	if err != nil {
		return nil, err
	}
	return []byte(msg.Payload), nil
}

func (s *redisSubscription) Close() error {
	return s.pubsub.Close()
}
