package payment

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a payment.
type Status string

const (
	StatusPending           Status = "PENDING"
	StatusCompleted         Status = "COMPLETED"
	StatusFailed            Status = "FAILED"
	StatusRefunded          Status = "REFUNDED"
	StatusPartiallyRefunded Status = "PARTIALLY_REFUNDED"
)

// PendingTTL is how long a payment may stay PENDING before a payment-check
// expires it.
const PendingTTL = 24 * time.Hour

// DefaultCurrency is used when a create request names none.
const DefaultCurrency = "USD"

// Payment is a charge against a booking. Amounts are minor currency units.
type Payment struct {
	ID             string
	BookingID      string
	Amount         int64
	RefundedAmount int64
	Currency       string
	Status         Status
	Provider       string
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Refundable is the amount still available for refund.
func (p *Payment) Refundable() int64 {
	return p.Amount - p.RefundedAmount
}

// Expired reports whether p has been PENDING for longer than PendingTTL.
func (p *Payment) Expired(now time.Time) bool {
	return p.Status == StatusPending && now.Sub(p.CreatedAt) > PendingTTL
}

// AppendNote adds a free-text audit line to Notes.
func (p *Payment) AppendNote(note string) {
	if p.Notes == "" {
		p.Notes = note
		return
	}
	p.Notes += "\n" + note
}

// FormatAmount renders minor units as "12.34 USD".
func FormatAmount(amount int64, currency string) string {
	sign := ""
	if amount < 0 {
		sign, amount = "-", -amount
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, currency)
}
