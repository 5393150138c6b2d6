package crm

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrymomot/jobkit/pkg/idempotency"
)

// Appointment is a calendar booking for a contact.
type Appointment struct {
	ContactID string
	Start     time.Time
	End       time.Time
	Title     string
	Address   string
	Notes     string
}

type createAppointmentRequest struct {
	CalendarID        string `json:"calendarId"`
	LocationID        string `json:"locationId"`
	ContactID         string `json:"contactId"`
	StartTime         string `json:"startTime"`
	EndTime           string `json:"endTime,omitempty"`
	Title             string `json:"title"`
	AppointmentStatus string `json:"appointmentStatus"`
	AssignedUserID    string `json:"assignedUserId,omitempty"`
	Address           string `json:"address,omitempty"`
	Notes             string `json:"notes,omitempty"`
}

type createAppointmentResponse struct {
	ID string `json:"id"`
}

// CreateAppointment books an appointment on the configured calendar.
//
// The call is keyed by calendar, start time and contact. When a guard is
// configured, a second call with the same key inside the guard's TTL fails
// with idempotency.ErrDuplicateRequest and no request is sent.
func (c *Client) CreateAppointment(ctx context.Context, appt Appointment) (string, error) {
	if c.calendarID == "" {
		return "", ErrMissingCalendar
	}
	if appt.ContactID == "" {
		return "", ErrMissingContact
	}

	key := idempotency.AppointmentKey(c.calendarID, appt.Start, appt.ContactID)
	if c.guard != nil {
		if err := c.guard.Acquire(ctx, key); err != nil {
			return "", err
		}
	}

	title := appt.Title
	if title == "" {
		title = c.appointmentTitle
	}
	body := createAppointmentRequest{
		CalendarID:        c.calendarID,
		LocationID:        c.locationID,
		ContactID:         appt.ContactID,
		StartTime:         appt.Start.UTC().Format(time.RFC3339),
		Title:             title,
		AppointmentStatus: "confirmed",
		AssignedUserID:    c.assignedUserID,
		Address:           appt.Address,
		Notes:             appt.Notes,
	}
	if !appt.End.IsZero() {
		body.EndTime = appt.End.UTC().Format(time.RFC3339)
	}

	res := c.Do(ctx, Request{
		Method:         http.MethodPost,
		Path:           "/calendars/events/appointments",
		Body:           body,
		IdempotencyKey: key,
	})

	var out createAppointmentResponse
	if err := res.Decode(&out); err != nil {
		return "", err
	}
	return out.ID, nil
}
