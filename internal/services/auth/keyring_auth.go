package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringStore keeps credentials in the OS keychain, one entry per
// credential key under a single service name.
type KeyringStore struct {
	serviceName string
}

// NewKeyringStore returns a store under serviceName, or ServiceName when
// it is empty.
func NewKeyringStore(serviceName string) *KeyringStore {
	if serviceName == "" {
		serviceName = ServiceName
	}
	return &KeyringStore{serviceName: serviceName}
}

// SetToken stores token trimmed. Empty tokens are rejected so a blank
// paste cannot replace a working credential.
func (k *KeyringStore) SetToken(provider string, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	err := keyring.Set(k.serviceName, NormalizeProvider(provider), token)
	if errors.Is(err, keyring.ErrSetDataTooBig) {
		return fmt.Errorf("credential for %s is too large for the keychain: %w", provider, err)
	}
	return err
}

func (k *KeyringStore) GetToken(provider string) (string, error) {
	token, err := keyring.Get(k.serviceName, NormalizeProvider(provider))
	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, keyring.ErrNotFound):
		return "", ErrTokenNotFound
	}
	return "", fmt.Errorf("read %s credential from keychain: %w", provider, err)
}

func (k *KeyringStore) DeleteToken(provider string) error {
	err := keyring.Delete(k.serviceName, NormalizeProvider(provider))
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrTokenNotFound
	}
	return err
}
