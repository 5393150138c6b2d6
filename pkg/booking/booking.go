package booking

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending           Status = "PENDING"
	StatusPaymentPending    Status = "PAYMENT_PENDING"
	StatusConfirmed         Status = "CONFIRMED"
	StatusCancelledByClient Status = "CANCELLED_BY_CLIENT"
	StatusCancelledByStaff  Status = "CANCELLED_BY_STAFF"
	StatusCompleted         Status = "COMPLETED"
)

// Cancelled reports whether s is one of the cancelled states.
func (s Status) Cancelled() bool {
	return s == StatusCancelledByClient || s == StatusCancelledByStaff
}

// Terminal reports whether no further transitions are possible from s.
func (s Status) Terminal() bool {
	return s.Cancelled() || s == StatusCompleted
}

// Booking is the part of a booking record the job processors touch.
type Booking struct {
	ID                string
	Status            Status
	ScheduledDateTime time.Time
	CustomerName      string
	CustomerEmail     string
	CustomerPhone     string
	ServiceName       string
	Notes             string
	AssignedAgentID   string
	CRMContactID      string
	CRMAppointmentID  string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// FirstName returns the first word of the customer name.
func (b *Booking) FirstName() string {
	first, _, _ := strings.Cut(strings.TrimSpace(b.CustomerName), " ")
	return first
}

// AppendNote adds a free-text audit line to Notes.
func (b *Booking) AppendNote(note string) {
	if b.Notes == "" {
		b.Notes = note
		return
	}
	b.Notes += "\n" + note
}

// RescheduleNote formats the audit line written on reschedule.
func RescheduleNote(to, now time.Time) string {
	return fmt.Sprintf("Rescheduled to %s - %s", to.UTC().Format(time.RFC3339), now.UTC().Format(time.RFC3339))
}

// CancellationNote formats the audit line written on cancellation.
func CancellationNote(reason string, now time.Time) string {
	if reason == "" {
		reason = "no reason given"
	}
	return fmt.Sprintf("Cancellation: %s - %s", reason, now.UTC().Format(time.RFC3339))
}
