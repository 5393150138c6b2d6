package payment

import "errors"

var (
	ErrNotFound            = errors.New("payment not found")
	ErrAlreadyExists       = errors.New("payment already exists")
	ErrBookingNotFound     = errors.New("payment references unknown booking")
	ErrIllegalTransition   = errors.New("illegal payment status transition")
	ErrRefundExceedsAmount = errors.New("refund exceeds refundable amount")
	ErrInvalidAmount       = errors.New("payment amount must be positive")
	ErrMissingID           = errors.New("payment id is required")
)
