package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type identifies a job kind. Each type has its own FIFO queue.
type Type string

const (
	TypeNotification      Type = "notification"
	TypeBookingProcessing Type = "booking-processing"
	TypePaymentProcessing Type = "payment-processing"
)

// Types lists every job type in lane order.
var Types = []Type{TypeNotification, TypeBookingProcessing, TypePaymentProcessing}

// Valid reports whether t is a recognised job type.
func (t Type) Valid() bool {
	switch t {
	case TypeNotification, TypeBookingProcessing, TypePaymentProcessing:
		return true
	}
	return false
}

func (t Type) String() string { return string(t) }

// DefaultMaxRetries is used when neither the job nor the client sets a ceiling.
const DefaultMaxRetries = 3

// Payload is the type-specific part of a job. The set of variants is closed:
// NotificationPayload, BookingPayload and PaymentPayload.
type Payload interface {
	JobType() Type
	isPayload()
}

// Job is a unit of deferred work.
//
// RetryCount is only ever changed by the worker and stays within [0, MaxRetries].
type Job struct {
	ID           string
	CreatedAt    time.Time
	ScheduledFor *time.Time
	RetryCount   int
	MaxRetries   int
	Payload      Payload
}

// Type returns the job type derived from the payload variant.
func (j *Job) Type() Type {
	if j == nil || j.Payload == nil {
		return ""
	}
	return j.Payload.JobType()
}

// Due reports whether the job may be processed at now.
func (j *Job) Due(now time.Time) bool {
	return j.ScheduledFor == nil || !now.Before(*j.ScheduledFor)
}

// CanRetry reports whether a failed attempt may be re-enqueued.
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

type envelope struct {
	ID           string          `json:"id"`
	Type         Type            `json:"type"`
	Payload      json.RawMessage `json:"payload"`
	CreatedAt    time.Time       `json:"created_at"`
	ScheduledFor *time.Time      `json:"scheduled_for,omitempty"`
	RetryCount   int             `json:"retry_count"`
	MaxRetries   int             `json:"max_retries"`
}

// MarshalJSON encodes the job as a tagged envelope.
func (j Job) MarshalJSON() ([]byte, error) {
	if j.Payload == nil {
		return nil, ErrUnknownJobType
	}
	payload, err := json.Marshal(j.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", j.Payload.JobType(), err)
	}
	return json.Marshal(envelope{
		ID:           j.ID,
		Type:         j.Payload.JobType(),
		Payload:      payload,
		CreatedAt:    j.CreatedAt,
		ScheduledFor: j.ScheduledFor,
		RetryCount:   j.RetryCount,
		MaxRetries:   j.MaxRetries,
	})
}

// UnmarshalJSON decodes a tagged envelope into the matching payload variant.
func (j *Job) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	var payload Payload
	switch env.Type {
	case TypeNotification:
		var p NotificationPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		payload = p
	case TypeBookingProcessing:
		var p BookingPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		payload = p
	case TypePaymentProcessing:
		var p PaymentPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		payload = p
	default:
		return fmt.Errorf("%w: %q", ErrUnknownJobType, env.Type)
	}

	*j = Job{
		ID:           env.ID,
		CreatedAt:    env.CreatedAt,
		ScheduledFor: env.ScheduledFor,
		RetryCount:   env.RetryCount,
		MaxRetries:   env.MaxRetries,
		Payload:      payload,
	}
	return nil
}

// Result is produced once per processing attempt. It is logged, never stored.
type Result struct {
	Success     bool      `json:"success"`
	JobID       string    `json:"job_id"`
	ProcessedAt time.Time `json:"processed_at"`
	Value       any       `json:"result,omitempty"`
	Error       string    `json:"error,omitempty"`

	// Permanent marks a failure that must not be retried.
	Permanent bool `json:"-"`
}
