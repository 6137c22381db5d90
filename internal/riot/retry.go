package riot

import (
	"context"
	"errors"
	"time"

	"github.com/YuToutCourt/ZhonyaS/internal/constants"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog"
)

// RetryPolicy bounds the retry loop and fixes the backoff durations. The
// rate-limit waits follow the X-Rate-Limit-Type heuristic (application-wide
// limits are the slowest to drain, per-method ones recover faster); when the
// server sends an explicit Retry-After it always wins.
type RetryPolicy struct {
	Attempts             uint
	AppRateLimitWait     time.Duration
	MethodRateLimitWait  time.Duration
	DefaultRateLimitWait time.Duration
	TransientBase        time.Duration
	TransientStep        time.Duration
	TransientMax         time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:             constants.MaxFetchAttempts,
		AppRateLimitWait:     constants.AppRateLimitWait,
		MethodRateLimitWait:  constants.MethodRateLimitWait,
		DefaultRateLimitWait: constants.DefaultRateLimitWait,
		TransientBase:        constants.TransientBackoffBase,
		TransientStep:        constants.TransientBackoffStep,
		TransientMax:         constants.TransientBackoffMax,
	}
}

// Retrier is the single place backoff policy lives; every external call
// funnels through Do so the policy stays uniform.
type Retrier struct {
	policy RetryPolicy
	logger zerolog.Logger
}

func NewRetrier(logger zerolog.Logger) *Retrier {
	return NewRetrierWithPolicy(DefaultRetryPolicy(), logger)
}

func NewRetrierWithPolicy(policy RetryPolicy, logger zerolog.Logger) *Retrier {
	return &Retrier{policy: policy, logger: logger}
}

// Do invokes op until it succeeds, fails permanently, or the attempt cap is
// exhausted. The returned error on exhaustion is the last failure; callers
// treat it as "this one item failed", never as a fatal job error.
func (r *Retrier) Do(ctx context.Context, name string, op func() error) error {
	return retry.Do(op,
		retry.Context(ctx),
		retry.Attempts(r.policy.Attempts),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsRetryable),
		retry.DelayType(r.delayFor),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Warn().
				Err(err).
				Str("call", name).
				Uint("attempt", n+1).
				Uint("max_attempts", r.policy.Attempts).
				Msg("retrying external call")
		}),
	)
}

// delayFor maps a classified failure to its wait. Attempt numbers are
// zero-based: the first transient retry waits the base, each further one
// adds a step, capped at TransientMax.
func (r *Retrier) delayFor(n uint, err error, _ *retry.Config) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RateLimited() {
		if apiErr.RetryAfter > 0 {
			return apiErr.RetryAfter
		}
		switch apiErr.Scope {
		case ScopeApplication:
			return r.policy.AppRateLimitWait
		case ScopeMethod:
			return r.policy.MethodRateLimitWait
		default:
			return r.policy.DefaultRateLimitWait
		}
	}

	d := r.policy.TransientBase + time.Duration(n)*r.policy.TransientStep
	if d > r.policy.TransientMax {
		d = r.policy.TransientMax
	}
	return d
}
