package notification

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrymomot/jobkit/pkg/crm"
)

var (
	ErrRecipientNotFound = errors.New("notification recipient not found")
	ErrUnknownTemplate   = errors.New("no template for notification type")
	ErrRenderFailed      = errors.New("failed to render notification")
	ErrDeliveryFailed    = errors.New("notification delivery failed")
	ErrEmailSenderNil    = errors.New("email sender is required")
)

// DeliveryError reports a message that no channel delivered. It matches
// ErrDeliveryFailed and every channel error with errors.Is.
type DeliveryError struct {
	Channels map[Channel]error
}

func (e *DeliveryError) Error() string {
	parts := make([]string, 0, len(e.Channels))
	for ch, err := range e.Channels {
		parts = append(parts, fmt.Sprintf("%s: %v", ch, err))
	}
	sort.Strings(parts)
	return ErrDeliveryFailed.Error() + ": " + strings.Join(parts, "; ")
}

func (e *DeliveryError) Unwrap() []error {
	errs := []error{ErrDeliveryFailed}
	for _, err := range e.Channels {
		errs = append(errs, err)
	}
	return errs
}

// Retryable reports whether any failed channel could succeed on a retry.
// Each channel is judged on its own, so a permanent SMS failure does not
// hide a transient email failure.
func (e *DeliveryError) Retryable() bool {
	for _, err := range e.Channels {
		if crm.IsRetryable(err) {
			return true
		}
	}
	return false
}
