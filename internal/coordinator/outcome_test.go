package coordinator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCallOK(t *testing.T) {
	outcome := Call(context.Background(), time.Second, func(context.Context) (int, error) {
		return 42, nil
	})
	assert.True(t, outcome.OK())
	assert.Equal(t, OutcomeOK, outcome.Status)
	assert.Equal(t, 42, outcome.Value)
}

func TestCallFailed(t *testing.T) {
	boom := errors.New("boom")
	outcome := Call(context.Background(), time.Second, func(context.Context) (int, error) {
		return 0, boom
	})
	assert.False(t, outcome.OK())
	assert.Equal(t, OutcomeFailed, outcome.Status)
	assert.Equal(t, "boom", outcome.Reason())
}

func TestCallTimedOut(t *testing.T) {
	outcome := Call(context.Background(), 10*time.Millisecond, func(ctx context.Context) (int, error) {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(time.Second):
			return 1, nil
		}
	})
	assert.Equal(t, OutcomeTimedOut, outcome.Status)
	assert.NotEmpty(t, outcome.Reason())
}

func TestCallZeroTimeoutMeansUnbounded(t *testing.T) {
	outcome := Call(context.Background(), 0, func(ctx context.Context) (string, error) {
		_, hasDeadline := ctx.Deadline()
		assert.False(t, hasDeadline)
		return "done", nil
	})
	assert.True(t, outcome.OK())
	assert.Equal(t, "done", outcome.Value)
}
