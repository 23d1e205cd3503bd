package config

import (
	"fmt"
	"strings"
)

// KeySpec describes a single configuration key.
type KeySpec struct {
	// Name is the CLI-facing key name (e.g. "dns-provider").
	Name string

	// Description is a short human-readable explanation shown in help text.
	Description string

	// Get returns the current value for this key from a loaded Config.
	Get func(cfg *Config) string

	// Set applies a value for this key to the given Config (in memory only;
	// the caller is responsible for calling Save).
	Set func(cfg *Config, value string)
}

// Keys is the authoritative list of all supported configuration keys.
// To add a new option: add a field to Config and append a KeySpec here.
var Keys = []KeySpec{
	{
		Name:        "dns-provider",
		Description: "DNS provider used for zones and records (cloudflare, route53, porkbun)",
		Get:         func(cfg *Config) string { return cfg.DNSProvider },
		Set:         func(cfg *Config, v string) { cfg.DNSProvider = v },
	},
	{
		Name:        "location",
		Description: "Hetzner location for new resources (default fsn1)",
		Get:         func(cfg *Config) string { return cfg.Location },
		Set:         func(cfg *Config, v string) { cfg.Location = v },
	},
	{
		Name:        "server-type",
		Description: "Server type for new servers (default cx22)",
		Get:         func(cfg *Config) string { return cfg.ServerType },
		Set:         func(cfg *Config, v string) { cfg.ServerType = v },
	},
	{
		Name:        "image",
		Description: "Image for new servers (default ubuntu-24.04)",
		Get:         func(cfg *Config) string { return cfg.Image },
		Set:         func(cfg *Config, v string) { cfg.Image = v },
	},
	{
		Name:        "load-balancer-type",
		Description: "Load balancer type (default lb11)",
		Get:         func(cfg *Config) string { return cfg.LoadBalancerType },
		Set:         func(cfg *Config, v string) { cfg.LoadBalancerType = v },
	},
	{
		Name:        "storage-endpoint",
		Description: "S3-compatible object storage endpoint; empty means Amazon S3",
		Get:         func(cfg *Config) string { return cfg.StorageEndpoint },
		Set:         func(cfg *Config, v string) { cfg.StorageEndpoint = v },
	},
	{
		Name:        "storage-region",
		Description: "Object storage region (default fsn1)",
		Get:         func(cfg *Config) string { return cfg.StorageRegion },
		Set:         func(cfg *Config, v string) { cfg.StorageRegion = v },
	},
	{
		Name:        "aws-region",
		Description: "AWS region for RDS and Route 53 (default eu-central-1)",
		Get:         func(cfg *Config) string { return cfg.AWSRegion },
		Set:         func(cfg *Config, v string) { cfg.AWSRegion = v },
	},
	{
		Name:        "cloudflare-account-id",
		Description: "Cloudflare account used when creating zones",
		Get:         func(cfg *Config) string { return cfg.CloudflareAccountID },
		Set:         func(cfg *Config, v string) { cfg.CloudflareAccountID = v },
	},
}

// Lookup returns the KeySpec for the given name, or nil if not found.
// The name is matched case-insensitively after trimming whitespace.
func Lookup(name string) *KeySpec {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for i := range Keys {
		if Keys[i].Name == normalized {
			return &Keys[i]
		}
	}
	return nil
}

// KeyNames returns the names of all registered keys.
func KeyNames() []string {
	names := make([]string, len(Keys))
	for i, k := range Keys {
		names[i] = k.Name
	}
	return names
}

// KeysHelp builds a formatted block listing all available keys and their
// descriptions, suitable for inclusion in Cobra Long help text.
func KeysHelp() string {
	if len(Keys) == 0 {
		return ""
	}

	// Find the longest key name for alignment.
	maxLen := 0
	for _, k := range Keys {
		if len(k.Name) > maxLen {
			maxLen = len(k.Name)
		}
	}

	var b strings.Builder
	b.WriteString("Available keys:\n")
	for _, k := range Keys {
		fmt.Fprintf(&b, "  %-*s   %s\n", maxLen, k.Name, k.Description)
	}
	return b.String()
}
