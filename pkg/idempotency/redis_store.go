package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces idempotency keys in Redis.
const DefaultKeyPrefix = "jobkit:idempotency"

// RedisStore implements Store with SET key value NX PX ttl.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Redis-backed store. An empty prefix uses DefaultKeyPrefix.
func NewRedisStore(client redis.UniversalClient, prefix string) (*RedisStore, error) {
	if client == nil {
		return nil, ErrRedisClientNil
	}
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

// SetIfAbsent atomically records key with value for ttl. When the key exists
// its current value is read back; a key that expires in between is claimed
// on a second SETNX.
func (s *RedisStore) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, string, error) {
	k := s.prefix + ":" + key
	for range 2 {
		created, err := s.client.SetNX(ctx, k, value, ttl).Result()
		if err != nil || created {
			return created, "", err
		}
		existing, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return false, "", err
		}
		return false, existing, nil
	}
	return false, "", nil
}
