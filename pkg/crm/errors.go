package crm

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/jobkit/pkg/idempotency"
)

var (
	ErrRequestFailed   = errors.New("crm request failed")
	ErrMissingToken    = errors.New("crm token is required")
	ErrInvalidBaseURL  = errors.New("invalid crm base url")
	ErrMarshalRequest  = errors.New("failed to marshal crm request")
	ErrDecodeResponse  = errors.New("failed to decode crm response")
	ErrMissingLocation = errors.New("crm location id is required")
	ErrMissingCalendar = errors.New("crm calendar id is required")
	ErrMissingContact  = errors.New("crm contact id is required")
	ErrEmptyMessage    = errors.New("sms message cannot be empty")
)

// APIError carries the classification of the last failed attempt.
type APIError struct {
	Method         string
	Path           string
	Attempts       int
	Classification Classification
	Body           string
	Err            error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("crm %s %s failed after %d attempt(s): %s [%s]",
		e.Method, e.Path, e.Attempts, e.Classification.Message, e.Classification.Category)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *APIError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrRequestFailed, e.Err}
	}
	return []error{ErrRequestFailed}
}

// Retryable reports whether the failure could succeed if the job runs again.
func (e *APIError) Retryable() bool { return e.Classification.Retryable }

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

// IsRetryable reports whether err is a CRM failure worth retrying at the
// job level. The first error in the chain with a Retryable method decides;
// *APIError is one. Duplicate creations, missing input and encoding failures
// are never retryable; other errors are.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	for _, target := range nonRetryable {
		if errors.Is(err, target) {
			return false
		}
	}
	return true
}

var nonRetryable = []error{
	idempotency.ErrDuplicateRequest,
	ErrMissingToken,
	ErrMissingLocation,
	ErrMissingCalendar,
	ErrMissingContact,
	ErrEmptyMessage,
	ErrMarshalRequest,
	ErrDecodeResponse,
}
