// Package retry re-issues provider API requests that failed for reasons
// expected to clear on their own: throttling, gateway errors and timeouts.
//
// It is deliberately separate from the convergence poller. The poller
// waits for a resource to change state; retry only repeats a single
// request whose transport or status code was transient.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"time"

	"nathanbeddoewebdev/provctl/internal/domain"
)

// Policy bounds how often and how slowly a request is repeated.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultPolicy suits interactive CLI calls against public APIs.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:  4,
		BaseDelay: 250 * time.Millisecond,
		MaxDelay:  4 * time.Second,
	}
}

// Once disables retrying.
func Once() Policy {
	return Policy{Attempts: 1}
}

// StatusError is returned for a response whose status code says the
// request may succeed later.
type StatusError struct {
	Code int

	// RetryAfter is the server's requested wait, zero when it sent none.
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.Code, http.StatusText(e.Code))
}

// Unwrap lets callers match throttling with domain.ErrRateLimited.
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusTooManyRequests {
		return domain.ErrRateLimited
	}
	return nil
}

// CheckStatus returns a *StatusError for 429, 502, 503 and 504 responses
// and nil for everything else. The body is left to the caller.
func CheckStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
	default:
		return nil
	}
	e := &StatusError{Code: resp.StatusCode}
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		e.RetryAfter = time.Duration(secs) * time.Second
	}
	return e
}

// Transient reports whether err is worth another attempt.
func Transient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, domain.ErrRateLimited) {
		return true
	}
	var status *StatusError
	if errors.As(err, &status) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Do calls fn until it succeeds, returns a non-transient error, the
// policy runs out of attempts or ctx is done. The last error is returned.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := max(p.Attempts, 1)

	var err error
	for attempt := 1; ; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			if err != nil {
				return err
			}
			return cerr
		}

		err = fn(ctx)
		if err == nil || attempt == attempts || !Transient(err) {
			return err
		}

		wait := p.delay(attempt, err)
		if wait <= 0 {
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}

// delay is exponential backoff with full jitter. A server-sent
// Retry-After raises the floor, still capped at MaxDelay.
func (p Policy) delay(attempt int, err error) time.Duration {
	var wait time.Duration
	if p.BaseDelay > 0 {
		backoff := p.BaseDelay << (attempt - 1)
		if backoff <= 0 || (p.MaxDelay > 0 && backoff > p.MaxDelay) {
			backoff = p.MaxDelay
		}
		wait = rand.N(backoff + 1)
	}

	var status *StatusError
	if errors.As(err, &status) && status.RetryAfter > wait {
		wait = status.RetryAfter
	}
	if p.MaxDelay > 0 && wait > p.MaxDelay {
		wait = p.MaxDelay
	}
	return wait
}
