package converge

import (
	"errors"
	"fmt"
	"strings"

	"nathanbeddoewebdev/provctl/internal/domain"
)

// Reason classifies a convergence failure.
type Reason int

const (
	// PartialFailure means one handle settled into a failure state.
	PartialFailure Reason = iota + 1

	// Timeout means attempts were exhausted with handles still pending.
	Timeout
)

func (r Reason) String() string {
	switch r {
	case PartialFailure:
		return "partial failure"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is returned by Poller.Await when convergence does not succeed.
type Error struct {
	Reason Reason

	// Handle is the offending handle for PartialFailure.
	Handle domain.Handle

	// LastSeen holds every handle as of the final attempt.
	LastSeen []domain.Handle

	Attempts int
}

func (e *Error) Error() string {
	switch e.Reason {
	case PartialFailure:
		return fmt.Sprintf("convergence failed: %s reached status %q", e.Handle, e.Handle.Status)
	case Timeout:
		parts := make([]string, 0, len(e.LastSeen))
		for _, h := range e.LastSeen {
			parts = append(parts, fmt.Sprintf("%s=%s", h.Name, h.Status))
		}
		return fmt.Sprintf("convergence timed out after %d attempts (%s)", e.Attempts, strings.Join(parts, ", "))
	default:
		return "convergence failed"
	}
}

// IsTimeout reports whether err is a convergence timeout.
func IsTimeout(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Reason == Timeout
}

// IsPartialFailure reports whether err is a fail-fast convergence failure.
func IsPartialFailure(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Reason == PartialFailure
}
