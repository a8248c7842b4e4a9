package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/api-sage/savings-ledger/src/internal/domain"
	"github.com/api-sage/savings-ledger/src/internal/logger"
	"github.com/redis/go-redis/v9"
)

// redisPublishClient is the part of redis.UniversalClient the publisher uses.
type redisPublishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher publishes ledger events on a Redis pub/sub channel.
type RedisPublisher struct {
	client  redisPublishClient
	channel string
}

var _ domain.EventPublisher = (*RedisPublisher)(nil)

func NewRedisPublisher(client redisPublishClient, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, event domain.LedgerEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal ledger event: %w", err)
	}

	receivers, err := p.client.Publish(ctx, p.channel, payload).Result()
	if err != nil {
		return fmt.Errorf("publish ledger event to %s: %w", p.channel, err)
	}

	logger.Info("ledger event published", logger.Fields{
		"driver":    "redis",
		"channel":   p.channel,
		"type":      event.Type,
		"accountId": event.AccountID,
		"receivers": receivers,
	})
	return nil
}

// Close is a no-op; the Redis client is owned by the caller.
func (p *RedisPublisher) Close() error { return nil }
