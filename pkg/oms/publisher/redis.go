package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/joripage/lightengine/pkg/orderbook"
	"github.com/redis/go-redis/v9"
)

type redisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// DepthKey is both the key holding the latest snapshot and the channel it is
// announced on.
func DepthKey(instrument string) string {
	return "depth:" + instrument
}

// RedisDepthPublisher stores the latest depth of each book and publishes it
// to subscribers. A zero ttl keeps snapshots forever.
type RedisDepthPublisher struct {
	client redisClient
	ttl    time.Duration
}

func NewRedisDepthPublisher(client redisClient, ttl time.Duration) *RedisDepthPublisher {
	return &RedisDepthPublisher{client: client, ttl: ttl}
}

func (p *RedisDepthPublisher) PublishDepth(ctx context.Context, snapshot orderbook.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	key := DepthKey(snapshot.Instrument)
	if err := p.client.Set(ctx, key, payload, p.ttl).Err(); err != nil {
		return err
	}
	return p.client.Publish(ctx, key, payload).Err()
}
