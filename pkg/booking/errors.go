package booking

import "errors"

var (
	ErrNotFound          = errors.New("booking not found")
	ErrAlreadyExists     = errors.New("booking already exists")
	ErrIllegalTransition = errors.New("illegal booking status transition")
	ErrMissingID         = errors.New("booking id is required")
)
