package providers

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"nathanbeddoewebdev/provctl/internal/dns/domain"
	"nathanbeddoewebdev/provctl/internal/services/auth"
	"nathanbeddoewebdev/provctl/internal/util"
)

// Settings carries non-secret provider configuration.
type Settings struct {
	// CloudflareAccountID is required to create Cloudflare zones.
	CloudflareAccountID string

	// AWSRegion is used by the Route 53 client.
	AWSRegion string
}

// Factory is a constructor function that builds a DNS Provider given an
// auth store and provider settings.
type Factory func(store auth.Store, settings Settings) (domain.Provider, error)

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

// Register adds a factory under its normalised name. Empty names, nil
// factories and duplicates panic at startup.
func Register(name string, factory Factory) {
	normalizedName := util.NormalizeKey(name)
	if normalizedName == "" {
		panic("dns/providers: empty provider name")
	}
	if factory == nil {
		panic("dns/providers: nil factory")
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[normalizedName]; exists {
		panic(fmt.Sprintf("dns/providers: provider %q already registered", name))
	}

	registry[normalizedName] = factory
}

// Get builds the named provider. Credentials come from store.
func Get(name string, store auth.Store, settings Settings) (domain.Provider, error) {
	mu.RLock()
	factory, ok := registry[util.NormalizeKey(name)]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("dns/providers: unknown provider %q (registered: %s)", name, strings.Join(List(), ", "))
	}

	return factory(store, settings)
}

// List returns the registered names in sorted order.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Reset clears the registry. Tests only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	registry = map[string]Factory{}
}
