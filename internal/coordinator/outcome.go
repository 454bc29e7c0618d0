package coordinator

import (
	"context"
	"errors"
	"time"
)

// OutcomeStatus tags the result of a bounded collaborator call.
type OutcomeStatus string

const (
	OutcomeOK       OutcomeStatus = "ok"
	OutcomeTimedOut OutcomeStatus = "timed_out"
	OutcomeFailed   OutcomeStatus = "failed"
)

// Outcome is the explicit result of a fan-out task. The merge step consumes
// these tags instead of relying on suppressed errors: a non-OK outcome from
// an auxiliary judge degrades to an empty contribution, never to an aborted
// request.
type Outcome[T any] struct {
	Status OutcomeStatus
	Value  T
	Err    error
}

// OK reports whether the call produced a usable value.
func (o Outcome[T]) OK() bool { return o.Status == OutcomeOK }

// Reason describes a non-OK outcome for logs and events.
func (o Outcome[T]) Reason() string {
	if o.Err != nil {
		return o.Err.Error()
	}
	return string(o.Status)
}

// Call runs fn under a bounded deadline and tags the result.
func Call[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) Outcome[T] {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	value, err := fn(ctx)
	switch {
	case err == nil:
		return Outcome[T]{Status: OutcomeOK, Value: value}
	case errors.Is(err, context.DeadlineExceeded):
		return Outcome[T]{Status: OutcomeTimedOut, Err: err}
	default:
		return Outcome[T]{Status: OutcomeFailed, Err: err}
	}
}
