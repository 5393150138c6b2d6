package crm

import "time"

// Backoff computes the delay before a retry.
type Backoff struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultBackoff starts at one second and caps at thirty.
func DefaultBackoff() Backoff {
	return Backoff{BaseDelay: time.Second, MaxDelay: 30 * time.Second}
}

// Delay returns min(BaseDelay * 2^(attempt-1), MaxDelay) for the given
// 1-based attempt. There is no jitter.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	base := b.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	limit := b.MaxDelay
	if limit <= 0 {
		limit = 30 * time.Second
	}

	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= limit {
			return limit
		}
	}
	return min(delay, limit)
}
