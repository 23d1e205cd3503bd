package auth

import (
	"errors"

	"nathanbeddoewebdev/provctl/internal/util"
)

const ServiceName = "provctl"

var (
	ErrTokenNotFound = errors.New("auth token not found")
	ErrEmptyToken    = errors.New("auth token is empty")
)

// Store holds one secret per credential key. Keys are provider names
// ("hetzner") or "<provider>-<field>" for multi-key providers.
type Store interface {
	SetToken(provider string, token string) error
	GetToken(provider string) (string, error)
	DeleteToken(provider string) error
}

// DefaultStore returns the standard auth store: the OS keychain, with
// PROVCTL_<PROVIDER>_TOKEN environment variables as a fallback.
func DefaultStore() Store {
	return WithEnvFallback(NewKeyringStore(ServiceName))
}

// NormalizeProvider normalizes a provider name for consistent key lookup.
func NormalizeProvider(provider string) string {
	return util.NormalizeKey(provider)
}
