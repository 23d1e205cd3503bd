package auth

import (
	"errors"
	"os"
	"strings"
)

// EnvStore reads tokens from the environment when the wrapped store has
// none. Writes and deletes go to the wrapped store only.
type EnvStore struct {
	Store
	lookup func(string) (string, bool)
}

// WithEnvFallback wraps s with an environment fallback.
func WithEnvFallback(s Store) *EnvStore {
	return &EnvStore{Store: s, lookup: os.LookupEnv}
}

// EnvVar returns the environment variable consulted for provider, e.g.
// PROVCTL_PORKBUN_SECRETAPIKEY_TOKEN for "porkbun-secretapikey".
func EnvVar(provider string) string {
	key := strings.ToUpper(NormalizeProvider(provider))
	key = strings.NewReplacer("-", "_", ".", "_").Replace(key)
	return "PROVCTL_" + key + "_TOKEN"
}

func (e *EnvStore) GetToken(provider string) (string, error) {
	token, err := e.Store.GetToken(provider)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, ErrTokenNotFound) {
		return "", err
	}
	if v, ok := e.lookup(EnvVar(provider)); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), nil
	}
	return "", ErrTokenNotFound
}
