package queue

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-process JobStore for tests and single-binary setups.
// Jobs are stored encoded so callers never share state with queued copies.
type MemoryStore struct {
	mu     sync.Mutex
	queues map[Type][][]byte
}

// NewMemoryStore creates an empty in-memory job store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{queues: make(map[Type][][]byte)}
}

// Push appends job to the tail of its type's list.
func (s *MemoryStore) Push(ctx context.Context, job *Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeJob(job)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[job.Type()] = append(s.queues[job.Type()], data)
	return nil
}

// Pop removes and returns the head of t's list.
func (s *MemoryStore) Pop(ctx context.Context, t Type) (*Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownJobType, t)
	}

	s.mu.Lock()
	q := s.queues[t]
	if len(q) == 0 {
		s.mu.Unlock()
		return nil, ErrQueueEmpty
	}
	data := q[0]
	q[0] = nil
	s.queues[t] = q[1:]
	s.mu.Unlock()

	return decodeJob(data)
}

// Len returns the number of queued jobs of type t.
func (s *MemoryStore) Len(ctx context.Context, t Type) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.queues[t])), nil
}
