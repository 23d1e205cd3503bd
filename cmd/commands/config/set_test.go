package config

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"nathanbeddoewebdev/provctl/internal/config"
	dnsdomain "nathanbeddoewebdev/provctl/internal/dns/domain"
	dnsproviders "nathanbeddoewebdev/provctl/internal/dns/providers"
	"nathanbeddoewebdev/provctl/internal/services/auth"
)

// setupTestConfig points the config package at a temp file.
func setupTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	config.SetPath(path)
	t.Cleanup(config.ResetPath)
	return path
}

// registerTestDNSProvider registers a stub provider in the DNS registry.
func registerTestDNSProvider(t *testing.T, name string) {
	t.Helper()
	dnsproviders.Reset()
	t.Cleanup(dnsproviders.Reset)
	dnsproviders.Register(name, func(auth.Store, dnsproviders.Settings) (dnsdomain.Provider, error) {
		return nil, nil
	})
}

// execConfig runs the config command with args and returns what was
// written to stdout and stderr along with the command error.
func execConfig(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func TestSet_DNSProvider(t *testing.T) {
	setupTestConfig(t)
	registerTestDNSProvider(t, "route53")

	stdout, _, err := execConfig(t, "set", "dns-provider", "Route53")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, `"route53"`) {
		t.Errorf("expected confirmation with provider name, got: %s", stdout)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.DNSProvider != "route53" {
		t.Errorf("expected DNSProvider %q, got %q", "route53", cfg.DNSProvider)
	}
}

func TestSet_DNSProvider_Unknown(t *testing.T) {
	setupTestConfig(t)
	registerTestDNSProvider(t, "cloudflare")

	_, _, err := execConfig(t, "set", "dns-provider", "nonexistent")
	if err == nil || !strings.Contains(err.Error(), "unknown DNS provider") {
		t.Errorf("expected 'unknown DNS provider' error, got: %v", err)
	}

	cfg, _ := config.Load()
	if cfg.DNSProvider != "" {
		t.Errorf("rejected value was persisted: %q", cfg.DNSProvider)
	}
}

func TestSet_PreservesCaseForFreeformValues(t *testing.T) {
	setupTestConfig(t)

	if _, _, err := execConfig(t, "set", "cloudflare-account-id", "AbC123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, _ := config.Load()
	if cfg.CloudflareAccountID != "AbC123" {
		t.Errorf("CloudflareAccountID = %q, want AbC123", cfg.CloudflareAccountID)
	}
}

func TestSet_EmptyValueClears(t *testing.T) {
	path := setupTestConfig(t)
	cfg := &config.Config{Location: "hel1"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	stdout, _, err := execConfig(t, "set", "location", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "location cleared") {
		t.Errorf("stdout = %q", stdout)
	}

	cfg, _ = config.Load()
	if cfg.Location != "" {
		t.Errorf("Location = %q, want empty", cfg.Location)
	}
}

func TestSet_UnknownKey(t *testing.T) {
	setupTestConfig(t)

	_, _, err := execConfig(t, "set", "bogus-key", "value")
	if err == nil || !strings.Contains(err.Error(), "unknown configuration key") {
		t.Errorf("expected 'unknown configuration key' error, got: %v", err)
	}
}
