package platform

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrAuthExpired means the platform refused the credential. The distribution
// engine refreshes once and retries once before surfacing needs_reconnect.
var ErrAuthExpired = errors.New("platform auth expired")

// RateLimitedError defers the operation instead of failing it. RetryAfter
// carries the platform-supplied hint when one exists, otherwise zero.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("platform rate limited, retry after %s", e.RetryAfter)
	}
	return "platform rate limited"
}

// RejectedError is permanent: the platform refused the listing itself
// (policy violation, blocked category). Never retried.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return "platform rejected listing: " + e.Reason
}

// TransientError wraps network errors and 5xx responses. Eligible for the
// bounded retry loop.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "transient platform failure: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err in a TransientError unless it is nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether the failure is worth retrying. A timed-out
// adapter call counts as transient.
func IsTransient(err error) bool {
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func IsRateLimited(err error) (*RateLimitedError, bool) {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}

func IsRejected(err error) (*RejectedError, bool) {
	var re *RejectedError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
