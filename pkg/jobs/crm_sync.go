package jobs

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/jobkit/pkg/booking"
	"github.com/dmitrymomot/jobkit/pkg/crm"
	"github.com/dmitrymomot/jobkit/pkg/logger"
)

// crmTags returns the contact tags recorded for a booking event.
func crmTags(event booking.Event, bk *booking.Booking) []string {
	var tags []string
	switch event {
	case booking.EventConfirm:
		tags = []string{"Booking:Confirmed", "Status:Booking_Confirmed"}
	case booking.EventCancelByClient, booking.EventCancelByStaff:
		tags = []string{"Booking:Cancelled", "Status:Booking_Cancelled"}
	case booking.EventReschedule:
		tags = []string{"Booking:Rescheduled", "Status:Booking_Rescheduled"}
	default:
		return nil
	}
	if bk.ServiceName != "" {
		tags = append(tags, "Service:"+bk.ServiceName)
	}
	return tags
}

// syncCRM mirrors bk to the CRM: the contact is upserted and tagged, and on
// confirm an appointment is created unless one is already recorded.
// It reports whether bk gained CRM ids that need saving.
func (b base) syncCRM(ctx context.Context, event booking.Event, bk *booking.Booking) (bool, error) {
	if b.crm == nil || (bk.CustomerEmail == "" && bk.CustomerPhone == "") {
		return false, nil
	}

	changed := false
	contactID := bk.CRMContactID
	if contactID == "" {
		id, err := b.crm.UpsertContact(ctx, crm.Contact{
			Name:   bk.CustomerName,
			Email:  bk.CustomerEmail,
			Phone:  bk.CustomerPhone,
			Source: "booking",
		})
		if err != nil {
			return false, fmt.Errorf("crm upsert contact: %w", err)
		}
		contactID, bk.CRMContactID, changed = id, id, true
	}

	if err := b.crm.AddContactTags(ctx, contactID, crmTags(event, bk)...); err != nil {
		return changed, fmt.Errorf("crm tag contact: %w", err)
	}

	if event == booking.EventConfirm && bk.CRMAppointmentID == "" {
		id, err := b.crm.CreateAppointment(ctx, crm.Appointment{
			ContactID: contactID,
			Start:     bk.ScheduledDateTime,
			End:       bk.ScheduledDateTime.Add(b.appointmentDuration),
			Title:     bk.ServiceName,
			Notes:     "Booking " + bk.ID,
		})
		if err != nil {
			return changed, fmt.Errorf("crm create appointment: %w", err)
		}
		bk.CRMAppointmentID, changed = id, true
	}

	b.logger.DebugContext(ctx, "booking synced to crm",
		logger.BookingID(bk.ID),
		logger.Action(string(event)),
	)
	return changed, nil
}
