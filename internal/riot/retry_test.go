package riot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastPolicy keeps test sleeps in the microsecond range.
func fastPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:             10,
		AppRateLimitWait:     60 * time.Microsecond,
		MethodRateLimitWait:  30 * time.Microsecond,
		DefaultRateLimitWait: 2 * time.Microsecond,
		TransientBase:        5 * time.Microsecond,
		TransientStep:        3 * time.Microsecond,
		TransientMax:         30 * time.Microsecond,
	}
}

func TestDelayFor_RateLimited(t *testing.T) {
	r := NewRetrier(zerolog.Nop())

	tests := []struct {
		name string
		err  *APIError
		want time.Duration
	}{
		{"explicit retry-after wins", &APIError{StatusCode: 429, RetryAfter: 3 * time.Second, Scope: ScopeApplication}, 3 * time.Second},
		{"application scope", &APIError{StatusCode: 429, Scope: ScopeApplication}, 60 * time.Second},
		{"method scope", &APIError{StatusCode: 429, Scope: ScopeMethod}, 30 * time.Second},
		{"unknown scope", &APIError{StatusCode: 429}, 2 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.delayFor(0, tt.err, nil))
		})
	}
}

func TestDelayFor_TransientProgression(t *testing.T) {
	r := NewRetrier(zerolog.Nop())
	err := &APIError{StatusCode: 502}

	assert.Equal(t, 5*time.Second, r.delayFor(0, err, nil))
	assert.Equal(t, 8*time.Second, r.delayFor(1, err, nil))
	assert.Equal(t, 11*time.Second, r.delayFor(2, err, nil))
	assert.Equal(t, 30*time.Second, r.delayFor(9, err, nil), "capped at 30s")
}

func TestDo_PermanentErrorIsNotRetried(t *testing.T) {
	r := NewRetrierWithPolicy(fastPolicy(), zerolog.Nop())

	calls := 0
	err := r.Do(context.Background(), "fetch", func() error {
		calls++
		return &APIError{StatusCode: 403, Endpoint: "fetch"}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_NotFoundIsNotRetried(t *testing.T) {
	r := NewRetrierWithPolicy(fastPolicy(), zerolog.Nop())

	calls := 0
	err := r.Do(context.Background(), "fetch", func() error {
		calls++
		return ErrNotFound
	})

	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, calls)
}

func TestDo_RateLimitedThenSuccess(t *testing.T) {
	r := NewRetrierWithPolicy(fastPolicy(), zerolog.Nop())

	calls := 0
	err := r.Do(context.Background(), "fetch", func() error {
		calls++
		if calls == 1 {
			return &APIError{StatusCode: 429, Scope: ScopeMethod}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDo_AttemptCapYieldsLastError(t *testing.T) {
	policy := fastPolicy()
	policy.Attempts = 4
	r := NewRetrierWithPolicy(policy, zerolog.Nop())

	calls := 0
	sentinel := &APIError{StatusCode: 503, Endpoint: "fetch"}
	err := r.Do(context.Background(), "fetch", func() error {
		calls++
		return sentinel
	})

	require.Error(t, err)
	assert.Equal(t, 4, calls)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 503, apiErr.StatusCode)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&APIError{StatusCode: 429}))
	assert.True(t, IsRetryable(&APIError{StatusCode: 500}))
	assert.True(t, IsRetryable(errors.New("connection reset")))
	assert.False(t, IsRetryable(&APIError{StatusCode: 400}))
	assert.False(t, IsRetryable(ErrNotFound))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(nil))
}
