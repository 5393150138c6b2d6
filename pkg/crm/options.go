package crm

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/jobkit/pkg/idempotency"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithAlerter sets the receiver for failures that need operator attention.
func WithAlerter(a Alerter) Option {
	return func(c *Client) {
		if a != nil {
			c.alerter = a
		}
	}
}

// WithGuard enables idempotency checks on creation calls.
func WithGuard(g *idempotency.Guard) Option {
	return func(c *Client) { c.guard = g }
}

// WithBackoff overrides the retry delays.
func WithBackoff(b Backoff) Option {
	return func(c *Client) { c.backoff = b }
}

// WithMaxRetries overrides the number of retries after the first attempt.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithRequestTimeout sets the per-attempt timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithSleeper replaces the backoff wait. Tests use it to record delays.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}
