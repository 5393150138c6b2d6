package payment

import (
	"context"
	"sync"
)

// MemoryRepository is an in-memory Repository. Stored values are copies.
type MemoryRepository struct {
	mu       sync.RWMutex
	payments map[string]Payment
	order    []string
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{payments: make(map[string]Payment)}
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

// LatestForBooking returns the payment with the newest CreatedAt. Ties go to
// the one created last.
func (r *MemoryRepository) LatestForBooking(ctx context.Context, bookingID string) (*Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *Payment
	for _, id := range r.order {
		p := r.payments[id]
		if p.BookingID != bookingID {
			continue
		}
		if latest == nil || !p.CreatedAt.Before(latest.CreatedAt) {
			latest = &p
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

func (r *MemoryRepository) Create(ctx context.Context, p *Payment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.ID == "" {
		return ErrMissingID
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.payments[p.ID]; ok {
		return ErrAlreadyExists
	}
	r.payments[p.ID] = *p
	r.order = append(r.order, p.ID)
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, p *Payment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.payments[p.ID]; !ok {
		return ErrNotFound
	}
	r.payments[p.ID] = *p
	return nil
}
