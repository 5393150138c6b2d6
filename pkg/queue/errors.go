package queue

import "errors"

var (
	ErrJobNil            = errors.New("job cannot be nil")
	ErrUnknownJobType    = errors.New("unknown job type")
	ErrInvalidRetryCount = errors.New("retry count must be within [0, max retries]")
	ErrEnqueueFailed     = errors.New("failed to enqueue job")
	ErrQueueEmpty        = errors.New("queue is empty")
	ErrDecodeJob         = errors.New("failed to decode job")
	ErrStoreNil          = errors.New("job store cannot be nil")
	ErrProcessorNil      = errors.New("processor cannot be nil")
	ErrHandlerNotFound   = errors.New("no handler registered for job type")
	ErrWorkerRunning     = errors.New("worker is already running")
	ErrWorkerNotRunning  = errors.New("worker is not running")
	ErrDrainerNil        = errors.New("drainer cannot be nil")
	ErrDrainInProgress   = errors.New("drain already in progress")
	ErrRedisClientNil    = errors.New("redis client cannot be nil")
	ErrPanicRecovered    = errors.New("processor panicked")
)

// permanentError wraps failures that retrying cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as non-retryable. The worker discards the job on the
// first such failure. Permanent(nil) returns nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	if IsPermanent(err) {
		return err
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err, or anything it wraps, was marked Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
