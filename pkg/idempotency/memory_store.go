package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store for tests and single-instance setups.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]record
	now     func() time.Time
}

type record struct {
	value   string
	expires time.Time
}

// NewMemoryStore creates an empty store. A nil clock defaults to time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{records: make(map[string]record), now: now}
}

// SetIfAbsent records key with value until now+ttl unless a live record exists.
func (s *MemoryStore) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, string, error) {
	if err := ctx.Err(); err != nil {
		return false, "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if rec, ok := s.records[key]; ok && now.Before(rec.expires) {
		return false, rec.value, nil
	}
	s.records[key] = record{value: value, expires: now.Add(ttl)}
	return true, "", nil
}
