package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const memberCountTTL = 30 * time.Second

// RedisStore handles Redis operations: realtime insert fanout between server
// instances, the member-count cache, and rate limit counters.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Client exposes the underlying client for middleware that needs raw
// pipelining (rate limiter).
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// insertTopic is the pub/sub topic carrying insert events for one channel.
func insertTopic(channelID int64) string {
	return fmt.Sprintf("realtime:channel:%d:inserts", channelID)
}

// memberCountKey caches a channel's member count.
func memberCountKey(channelID int64) string {
	return fmt.Sprintf("channel:%d:member_count", channelID)
}

// PublishInsert fans an insert event out to every server instance.
func (s *RedisStore) PublishInsert(ctx context.Context, channelID int64, payload []byte) error {
	return s.client.Publish(ctx, insertTopic(channelID), payload).Err()
}

// SubscribeInserts subscribes to insert events for every channel. The caller
// owns the returned PubSub and must close it.
func (s *RedisStore) SubscribeInserts(ctx context.Context) *redis.PubSub {
	return s.client.PSubscribe(ctx, "realtime:channel:*:inserts")
}

// GetMemberCount returns the cached member count for a channel, or false when
// the cache is cold.
func (s *RedisStore) GetMemberCount(ctx context.Context, channelID int64) (int64, bool) {
	val, err := s.client.Get(ctx, memberCountKey(channelID)).Result()
	if err != nil {
		return 0, false
	}
	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return count, true
}

// SetMemberCount caches a channel's member count with a short TTL.
func (s *RedisStore) SetMemberCount(ctx context.Context, channelID int64, count int64) {
	s.client.Set(ctx, memberCountKey(channelID), count, memberCountTTL)
}

// InvalidateMemberCount drops the cached count after a join.
func (s *RedisStore) InvalidateMemberCount(ctx context.Context, channelID int64) {
	s.client.Del(ctx, memberCountKey(channelID))
}
