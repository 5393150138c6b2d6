// Package jobs implements the handlers behind the three job queues.
//
// NotificationProcessor, BookingProcessor and PaymentProcessor implement
// queue.NotificationHandler, queue.BookingHandler and queue.PaymentHandler
// and are wired into a queue.Router:
//
//	router := queue.NewRouter(
//	    queue.WithNotificationHandler(notifications),
//	    queue.WithBookingHandler(bookings),
//	    queue.WithPaymentHandler(payments),
//	)
//
// Status changes go through the booking and payment transition tables.
// Failures a retry cannot fix (unknown records, illegal transitions, bad
// input, duplicate requests, non-retryable CRM errors) are returned as
// queue.Permanent so the worker discards the job at once.
//
// Once a status change is stored, the follow-up customer notification is
// best effort: its failure is logged and the job still succeeds, so a
// retry never repeats a payment or booking change. CRM sync errors are
// returned; a retried confirm only completes the CRM mirror.
package jobs
