// Package booking holds the booking record, its status transition table and
// repositories (in-memory and PostgreSQL).
//
// Statuses move PENDING → (PAYMENT_PENDING →) CONFIRMED and from any open
// status to CANCELLED_BY_CLIENT or CANCELLED_BY_STAFF. Cancelled and
// COMPLETED bookings are terminal. Reschedule keeps the status and only
// changes ScheduledDateTime. Apply enforces the table and reports illegal
// moves with ErrIllegalTransition.
package booking
