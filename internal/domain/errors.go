package domain

import "errors"

// Sentinel errors for cross-provider error classification.
// Providers should wrap these so the orchestration layer can handle error
// categories uniformly without importing provider-specific SDKs.
//
//	return fmt.Errorf("failed to get volume: %w", domain.ErrNotFound)
var (
	// ErrNotFound indicates the requested resource does not exist.
	// Callers treat it as a control-flow signal, never as a crash.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized indicates the request was rejected due to
	// invalid, expired, or missing credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates the provider throttled the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrConflict indicates a state or uniqueness conflict, such as
	// a duplicate name or an operation on a resource in a
	// transitional state.
	ErrConflict = errors.New("conflict")

	// ErrUnsupported indicates the provider lacks a capability.
	ErrUnsupported = errors.New("not supported by provider")
)

// APIError wraps any provider failure that is not one of the sentinels
// above, recording which operation failed.
type APIError struct {
	Op  string
	Err error
}

func (e *APIError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *APIError) Unwrap() error { return e.Err }

// IsNotFound reports whether err carries ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
