package services

import (
	"fmt"
	"net"
	"strings"

	"nathanbeddoewebdev/provctl/internal/dns/domain"
)

// DefaultTTL is the TTL applied to new zones and to records that do not
// specify one.
const DefaultTTL = 300

const (
	maxHostnameLength = 255
	maxLabelLength    = 63
)

// resolvableTypes are the record types a resolution request may carry.
var resolvableTypes = map[domain.RecordType]bool{
	domain.RecordTypeA:     true,
	domain.RecordTypeAAAA:  true,
	domain.RecordTypeCNAME: true,
}

// normalizeDomain lowercases and strips a single trailing dot.
func normalizeDomain(d string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(d), "."))
}

// ValidateHostname reports whether name is a syntactically valid hostname:
// at most 255 characters, made of dot-separated labels of 1 to 63
// alphanumerics or hyphens that neither start nor end with a hyphen.
// One trailing dot is allowed.
func ValidateHostname(name string) error {
	name = strings.TrimSuffix(name, ".")
	if name == "" {
		return fmt.Errorf("hostname cannot be empty")
	}
	if len(name) > maxHostnameLength {
		return fmt.Errorf("hostname %q is longer than %d characters", name, maxHostnameLength)
	}
	for label := range strings.SplitSeq(name, ".") {
		if err := validateLabel(label); err != nil {
			return fmt.Errorf("hostname %q: %w", name, err)
		}
	}
	return nil
}

func validateLabel(label string) error {
	if label == "" {
		return fmt.Errorf("empty label")
	}
	if len(label) > maxLabelLength {
		return fmt.Errorf("label %q is longer than %d characters", label, maxLabelLength)
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return fmt.Errorf("label %q cannot start or end with a hyphen", label)
	}
	for _, r := range label {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !isAlnum && r != '-' {
			return fmt.Errorf("label %q contains invalid character %q", label, r)
		}
	}
	return nil
}

// validateRecordType returns an error if t cannot be resolved.
func validateRecordType(t domain.RecordType) error {
	if !resolvableTypes[t] {
		return fmt.Errorf("unsupported record type %q (want A, AAAA or CNAME)", t)
	}
	return nil
}

// validateContent checks that the value is appropriate for the record type.
func validateContent(t domain.RecordType, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("record value cannot be empty")
	}

	switch t {
	case domain.RecordTypeA:
		ip := net.ParseIP(value)
		if ip == nil || ip.To4() == nil {
			return fmt.Errorf("A record value must be a valid IPv4 address, got %q", value)
		}
	case domain.RecordTypeAAAA:
		ip := net.ParseIP(value)
		if ip == nil || ip.To4() != nil {
			return fmt.Errorf("AAAA record value must be a valid IPv6 address, got %q", value)
		}
	case domain.RecordTypeCNAME:
		if err := ValidateHostname(value); err != nil {
			return fmt.Errorf("CNAME record value: %w", err)
		}
	}

	return nil
}
