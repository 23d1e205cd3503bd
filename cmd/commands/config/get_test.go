package config

import (
	"strings"
	"testing"

	"nathanbeddoewebdev/provctl/internal/config"
)

func TestGet_DNSProvider_NotSet(t *testing.T) {
	setupTestConfig(t)

	stdout, _, err := execConfig(t, "get", "dns-provider")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "not set") {
		t.Errorf("expected 'not set', got: %s", stdout)
	}
}

func TestGet_DNSProvider_Set(t *testing.T) {
	path := setupTestConfig(t)

	cfg := &config.Config{DNSProvider: "porkbun"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	stdout, _, err := execConfig(t, "get", "DNS-Provider")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(stdout) != "porkbun" {
		t.Errorf("expected 'porkbun', got: %s", stdout)
	}
}

func TestGet_ListsAllKeys(t *testing.T) {
	path := setupTestConfig(t)

	cfg := &config.Config{Location: "hel1"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	stdout, _, err := execConfig(t, "get")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range config.KeyNames() {
		if !strings.Contains(stdout, name) {
			t.Errorf("listing missing key %q:\n%s", name, stdout)
		}
	}
	for _, line := range strings.Split(stdout, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "location":
			if fields[1] != "hel1" || fields[2] != "hel1" {
				t.Errorf("location line = %q", line)
			}
		case "server-type":
			if !strings.Contains(line, "(not set)") || fields[len(fields)-1] != config.DefaultServerType {
				t.Errorf("server-type line = %q", line)
			}
		}
	}
}

func TestGet_UnknownKey(t *testing.T) {
	setupTestConfig(t)

	_, _, err := execConfig(t, "get", "bogus-key")
	if err == nil || !strings.Contains(err.Error(), "unknown configuration key") {
		t.Errorf("expected 'unknown configuration key' error, got: %v", err)
	}
}
