package util

import (
	"fmt"
	"strings"
)

const (
	maxHostnameLen = 253
	maxLabelLen    = 63
)

// ValidateServerName checks that name is usable as a server hostname:
// at least two characters, at most 253, made of dot-separated RFC 1123
// labels of up to 63 letters, digits and hyphens that neither start nor
// end with a hyphen.
func ValidateServerName(name string) error {
	if len(name) < 2 {
		return fmt.Errorf("server name must be at least 2 characters, got %d", len(name))
	}
	if len(name) > maxHostnameLen {
		return fmt.Errorf("server name must be at most %d characters, got %d", maxHostnameLen, len(name))
	}

	for _, label := range strings.Split(name, ".") {
		if err := checkLabel(label); err != nil {
			return fmt.Errorf("server name %q: %w", name, err)
		}
	}
	return nil
}

func checkLabel(label string) error {
	switch {
	case label == "":
		return fmt.Errorf("empty label (leading, trailing or doubled period)")
	case len(label) > maxLabelLen:
		return fmt.Errorf("label %q is longer than %d characters", label, maxLabelLen)
	case label[0] == '-' || label[len(label)-1] == '-':
		return fmt.Errorf("label %q must not start or end with a hyphen", label)
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		if !isAlphanumeric(c) && c != '-' {
			return fmt.Errorf("invalid character %q (only letters, digits, hyphens and periods are allowed)", c)
		}
	}
	return nil
}

func isAlphanumeric(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
