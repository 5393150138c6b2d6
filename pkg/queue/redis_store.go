package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces queue keys in Redis.
const DefaultKeyPrefix = "jobkit:queue"

// RedisStore keeps each job type in a Redis list: RPUSH to enqueue, LPOP to
// dequeue. LPOP is atomic, so concurrent consumers never receive the same job.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix overrides the list key prefix.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisStore creates a job store backed by client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, ErrRedisClientNil
	}
	s := &RedisStore{client: client, prefix: DefaultKeyPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Key returns the list key for job type t.
func (s *RedisStore) Key(t Type) string {
	return s.prefix + ":" + string(t)
}

// Push appends job to the tail of its type's list.
func (s *RedisStore) Push(ctx context.Context, job *Job) error {
	data, err := encodeJob(job)
	if err != nil {
		return err
	}
	if err := s.client.RPush(ctx, s.Key(job.Type()), data).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", job.Type(), err)
	}
	return nil
}

// Pop removes and returns the head of t's list. A job that fails to decode
// is consumed and reported with ErrDecodeJob.
func (s *RedisStore) Pop(ctx context.Context, t Type) (*Job, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownJobType, t)
	}
	data, err := s.client.LPop(ctx, s.Key(t)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrQueueEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("lpop %s: %w", t, err)
	}
	return decodeJob(data)
}

// Len returns the number of queued jobs of type t.
func (s *RedisStore) Len(ctx context.Context, t Type) (int64, error) {
	n, err := s.client.LLen(ctx, s.Key(t)).Result()
	if err != nil {
		return 0, fmt.Errorf("llen %s: %w", t, err)
	}
	return n, nil
}
