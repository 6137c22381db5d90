package riot

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound marks a 404 from the API: the resource does not exist and
// retrying cannot help.
var ErrNotFound = errors.New("riot: not found")

// LimitScope is the X-Rate-Limit-Type hint returned with a 429. The mapping
// to wait times is a heuristic calibrated against the documented limits, not
// a guarantee; see the retry policy.
type LimitScope string

const (
	ScopeApplication LimitScope = "application"
	ScopeMethod      LimitScope = "method"
	ScopeUnknown     LimitScope = ""
)

// APIError carries a non-2xx response. RetryAfter is zero when the server
// gave no Retry-After header.
type APIError struct {
	StatusCode int
	RetryAfter time.Duration
	Scope      LimitScope
	Endpoint   string
}

func (e *APIError) Error() string {
	if e.RateLimited() {
		return fmt.Sprintf("riot: %s rate limited (scope=%q retry_after=%s)", e.Endpoint, e.Scope, e.RetryAfter)
	}
	return fmt.Sprintf("riot: %s returned status %d", e.Endpoint, e.StatusCode)
}

func (e *APIError) RateLimited() bool { return e.StatusCode == 429 }

func (e *APIError) Transient() bool { return e.StatusCode >= 500 }

// IsRetryable reports whether the retry coordinator should attempt the call
// again. Rate limits and 5xx responses are retryable, as are transport-level
// failures that never produced a status code. 404s and the remaining 4xx
// family are permanent.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.RateLimited() || apiErr.Transient()
	}
	return true
}
