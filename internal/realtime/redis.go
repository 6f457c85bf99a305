package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisPublisher emits document events on per-document Redis pub/sub
// channels.
type RedisPublisher struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedisPublisher connects using a redis:// URL.
func NewRedisPublisher(redisURL string, logger *zap.Logger) (*RedisPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisPublisher{client: client, log: logger}, nil
}

// NewRedisPublisherWithClient wraps an existing client. Used by tests.
func NewRedisPublisherWithClient(client *redis.Client, logger *zap.Logger) *RedisPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPublisher{client: client, log: logger}
}

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		p.log.Error("realtime event marshal failed", zap.String("type", event.Type), zap.Error(err))
		return err
	}

	if err := p.client.Publish(ctx, Subject(event.DocumentID), data).Err(); err != nil {
		p.log.Error("realtime publish failed",
			zap.String("channel", Subject(event.DocumentID)),
			zap.String("type", event.Type),
			zap.Error(err))
		return err
	}
	return nil
}

// Close closes the underlying client.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
