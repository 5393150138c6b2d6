package booking

import (
	"context"
	"sync"
)

// MemoryRepository is an in-memory Repository. Stored values are copies.
type MemoryRepository struct {
	mu       sync.RWMutex
	bookings map[string]Booking
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{bookings: make(map[string]Booking)}
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (r *MemoryRepository) Create(ctx context.Context, b *Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.ID == "" {
		return ErrMissingID
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[b.ID]; ok {
		return ErrAlreadyExists
	}
	r.bookings[b.ID] = *b
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, b *Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[b.ID]; !ok {
		return ErrNotFound
	}
	r.bookings[b.ID] = *b
	return nil
}
