package queue

import (
	"context"
	"encoding/json"
	"fmt"
)

// JobStore is a set of named FIFO lists, one per job type.
//
// Push appends to the tail and Pop removes from the head. Pop returns
// ErrQueueEmpty when there is nothing to take. Implementations must be safe
// for concurrent use; a popped job is delivered to exactly one caller.
type JobStore interface {
	Push(ctx context.Context, job *Job) error
	Pop(ctx context.Context, t Type) (*Job, error)
	Len(ctx context.Context, t Type) (int64, error)
}

func encodeJob(job *Job) ([]byte, error) {
	if job == nil {
		return nil, ErrJobNil
	}
	if !job.Type().Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownJobType, job.Type())
	}
	return json.Marshal(job)
}

func decodeJob(data []byte) (*Job, error) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeJob, err)
	}
	return &job, nil
}
