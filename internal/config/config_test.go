package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent", "config.json")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(&Config{}, cfg); diff != "" {
		t.Errorf("expected zero config (-want +got):\n%s", diff)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "provctl", "config.json")

	want := &Config{DNSProvider: "route53", Location: "nbg1", StorageEndpoint: "https://fsn1.your-objectstorage.com"}
	if err := want.SaveTo(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestSave_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "deep")
	path := filepath.Join(dir, "config.json")

	cfg := &Config{Location: "hel1"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file at %s: %v", path, err)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json}"), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestSave_OverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	first := &Config{ServerType: "cx22"}
	if err := first.SaveTo(path); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	second := &Config{ServerType: "cpx31"}
	if err := second.SaveTo(path); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got.ServerType != "cpx31" {
		t.Errorf("expected ServerType %q, got %q", "cpx31", got.ServerType)
	}
}

func TestEffective(t *testing.T) {
	cfg := &Config{Location: "hel1", CloudflareAccountID: "acct"}

	got := cfg.Effective()
	want := Config{
		DNSProvider:         DefaultDNSProvider,
		Location:            "hel1",
		ServerType:          DefaultServerType,
		Image:               DefaultImage,
		LoadBalancerType:    DefaultLoadBalancerType,
		StorageRegion:       DefaultStorageRegion,
		AWSRegion:           DefaultAWSRegion,
		CloudflareAccountID: "acct",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Effective() mismatch (-want +got):\n%s", diff)
	}
	if cfg.ServerType != "" {
		t.Error("Effective() must not modify the receiver")
	}
}
