// Package sshkeys reads and compares OpenSSH public keys handed to the
// servers command.
package sshkeys

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var validPrefixes = []string{"ssh-rsa", "ssh-ed25519", "ssh-dss", "ecdsa-sha2-", "sk-ssh-ed25519@", "sk-ecdsa-sha2-"}

// ExpandHomePath expands a leading ~/ to the user's home directory.
func ExpandHomePath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to determine home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}

	return path, nil
}

// ReadAndValidatePublicKey reads a public key from disk and validates it.
func ReadAndValidatePublicKey(path string) (string, error) {
	expanded, err := ExpandHomePath(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to read SSH key file: %w", err)
	}

	publicKey := strings.TrimSpace(string(data))
	if publicKey == "" {
		return "", fmt.Errorf("SSH key file %s is empty", path)
	}

	return ValidatePublicKey(publicKey)
}

// ValidatePublicKey performs basic validation on an SSH public key string
// and returns it trimmed.
func ValidatePublicKey(publicKey string) (string, error) {
	publicKey = strings.TrimSpace(publicKey)
	if publicKey == "" {
		return "", fmt.Errorf("SSH key cannot be empty")
	}

	if strings.Contains(publicKey, "PRIVATE KEY") {
		return "", fmt.Errorf("file appears to contain a private key; please provide the public key (.pub file)")
	}

	for _, prefix := range validPrefixes {
		if strings.HasPrefix(publicKey, prefix) {
			if len(strings.Fields(publicKey)) < 2 {
				return "", fmt.Errorf("SSH public key has no key data")
			}
			return publicKey, nil
		}
	}

	return "", fmt.Errorf("file does not appear to be a valid SSH public key (expected ssh-rsa, ssh-ed25519, or ecdsa-sha2-*)")
}

// SameKey reports whether two public keys carry the same type and key
// data. Comments are ignored.
func SameKey(a, b string) bool {
	fa, fb := strings.Fields(a), strings.Fields(b)
	if len(fa) < 2 || len(fb) < 2 {
		return false
	}
	return fa[0] == fb[0] && fa[1] == fb[1]
}

// SuggestKeyName suggests a key name based on the path. The stock
// id_* file names are replaced by the hostname.
func SuggestKeyName(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	if name == "id_ed25519" || name == "id_rsa" || name == "id_ecdsa" {
		if hostname, err := os.Hostname(); err == nil && strings.TrimSpace(hostname) != "" {
			return strings.TrimSpace(hostname)
		}
	}

	return name
}
