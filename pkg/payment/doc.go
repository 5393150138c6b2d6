// Package payment holds the payment record, its status transition table and
// repositories (in-memory and PostgreSQL).
//
// A payment is created PENDING, captured to COMPLETED or expired to FAILED
// once it has been pending for PendingTTL. Refunds are accepted only from
// COMPLETED: refunding the whole refundable amount moves it to REFUNDED, a
// smaller amount to PARTIALLY_REFUNDED. Amounts are integer minor units.
package payment
