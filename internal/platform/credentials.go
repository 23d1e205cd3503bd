package platform

import "nathanbeddoewebdev/provctl/internal/util"

// CredentialKey describes a single credential field for a provider.
type CredentialKey struct {
	// Key is the suffix appended to the provider name to form the keychain key.
	// Single-token providers leave it empty and store under "<provider>".
	Key string

	// Prompt is the human-readable label shown when prompting the user.
	Prompt string

	// Secret masks the input.
	Secret bool
}

// CredentialSpec describes the complete credential scheme for a provider.
type CredentialSpec struct {
	// Provider is the normalized store name (e.g. "hetzner", "storage").
	Provider    string
	DisplayName string
	Keys        []CredentialKey
}

// KeychainKey returns the keychain key for k: the provider name for
// single-token providers, otherwise "<provider>-<key>".
func (s CredentialSpec) KeychainKey(k CredentialKey) string {
	if k.Key == "" {
		return s.Provider
	}
	return s.Provider + "-" + k.Key
}

var knownSpecs = []CredentialSpec{
	{
		Provider:    "hetzner",
		DisplayName: "Hetzner Cloud",
		Keys:        []CredentialKey{{Prompt: "API Token", Secret: true}},
	},
	{
		Provider:    "cloudflare",
		DisplayName: "Cloudflare",
		Keys:        []CredentialKey{{Prompt: "Account API Token (not Global API Key)", Secret: true}},
	},
	{
		Provider:    "porkbun",
		DisplayName: "Porkbun",
		Keys: []CredentialKey{
			{Key: "apikey", Prompt: "API Key", Secret: true},
			{Key: "secretapikey", Prompt: "Secret API Key", Secret: true},
		},
	},
	{
		Provider:    StorageCredential,
		DisplayName: "Object Storage (S3)",
		Keys:        []CredentialKey{{Prompt: "Access key and secret as ACCESS:SECRET", Secret: true}},
	},
	{
		Provider:    AWSCredential,
		DisplayName: "AWS (Route 53, RDS)",
		Keys:        []CredentialKey{{Prompt: "Access key and secret as ACCESS:SECRET", Secret: true}},
	},
}

// LookupCredentials returns the CredentialSpec for providerName, or nil.
func LookupCredentials(providerName string) *CredentialSpec {
	normalized := util.NormalizeKey(providerName)
	for i := range knownSpecs {
		if knownSpecs[i].Provider == normalized {
			return &knownSpecs[i]
		}
	}
	return nil
}

// AllCredentials returns a copy of all credential specs.
func AllCredentials() []CredentialSpec {
	out := make([]CredentialSpec, len(knownSpecs))
	copy(out, knownSpecs)
	return out
}
