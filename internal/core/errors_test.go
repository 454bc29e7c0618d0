package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorFormatting(t *testing.T) {
	err := ErrValidation("EMPTY_INPUT", "no concepts provided")
	assert.Equal(t, "[validation] EMPTY_INPUT: no concepts provided", err.Error())

	withCause := ErrTransport("dial failed").WithCause(errors.New("connection refused"))
	assert.Equal(t, "[transport] TRANSPORT: dial failed (connection refused)", withCause.Error())
}

func TestDomainErrorUnwrap(t *testing.T) {
	cause := errors.New("root")
	err := ErrUpstream("JUDGE_DOWN", "critic unreachable").WithCause(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestDomainErrorIsMatchesCategoryAndCode(t *testing.T) {
	a := ErrSessionMiss("s-1")
	b := ErrSessionMiss("s-2")
	assert.True(t, errors.Is(a, b), "same category and code should match")

	assert.False(t, errors.Is(a, ErrTimeout("slow")))
	assert.False(t, errors.Is(a, errors.New("plain")))
}

func TestDomainErrorIsThroughWrapping(t *testing.T) {
	inner := ErrRequiredAgent("SimilarityAgent", "round 1 failed")
	wrapped := fmt.Errorf("infer: %w", inner)

	var de *DomainError
	require.True(t, errors.As(wrapped, &de))
	assert.Equal(t, ErrCatAgent, de.Category)
}

func TestIsRecoverable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"upstream judge failure", ErrUpstream("CRITIC_DOWN", "down"), true},
		{"session miss", ErrSessionMiss("s-1"), true},
		{"timeout", ErrTimeout("judge timed out"), true},
		{"agent failure", ErrRequiredAgent("RelationAgent", "closed"), false},
		{"extraction failure", ErrExtraction("endpoint down"), false},
		{"validation", ErrValidation("BAD", "bad"), false},
		{"transport", ErrTransport("broken pipe"), false},
		{"internal", ErrInternal("oops"), false},
		{"wrapped recoverable", fmt.Errorf("call: %w", ErrTimeout("slow")), true},
		{"foreign error", errors.New("plain"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRecoverable(tt.err))
		})
	}
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, ErrCatExtraction, CategoryOf(ErrExtraction("down")))
	assert.Equal(t, ErrCatSession, CategoryOf(fmt.Errorf("wrap: %w", ErrSessionMiss("s"))))
	assert.Equal(t, ErrCatInternal, CategoryOf(errors.New("plain")))
}
