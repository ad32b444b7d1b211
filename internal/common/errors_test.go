package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserError(t *testing.T) {
	inner := errors.New("disk full")
	err := NewUserError("could not save run", inner)

	assert.Equal(t, "could not save run: disk full", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "bare", (&UserError{UserMessage: "bare"}).Error())
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "rate limit", err: fmt.Errorf("wrapped: %w", ErrAggregatorRateLimit), want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "explicit retryable", err: &RetryableError{Err: errors.New("x"), Retryable: true}, want: true},
		{name: "explicit permanent", err: &RetryableError{Err: errors.New("x"), Retryable: false}, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
