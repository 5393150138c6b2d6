package idempotency

import "errors"

// Code is the error code reported for rejected duplicates.
const Code = "DUPLICATE_REQUEST"

var (
	ErrDuplicateRequest = errors.New("duplicate request")
	ErrEmptyKey         = errors.New("idempotency key cannot be empty")
	ErrStoreNil         = errors.New("idempotency store cannot be nil")
	ErrRedisClientNil   = errors.New("redis client cannot be nil")
)
