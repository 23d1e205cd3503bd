package providers

import (
	"errors"
	"strings"
	"testing"

	"nathanbeddoewebdev/provctl/internal/dns/domain"
	"nathanbeddoewebdev/provctl/internal/services/auth"

	"github.com/google/go-cmp/cmp"
)

func TestRegistry_GetAndList(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	RegisterRoute53()
	RegisterCloudflare()
	RegisterPorkbun()

	if diff := cmp.Diff([]string{"cloudflare", "porkbun", "route53"}, List()); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}

	store := auth.NewMockStore()
	_ = store.SetToken("cloudflare", "tok")
	p, err := Get(" Cloudflare ", store, Settings{})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p == nil {
		t.Fatal("Get() returned nil provider")
	}

	_, err = Get("gandi", store, Settings{})
	if err == nil || !strings.Contains(err.Error(), "registered: cloudflare, porkbun, route53") {
		t.Errorf("Get(unknown) error = %v", err)
	}
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	factory := func(auth.Store, Settings) (domain.Provider, error) { return nil, errors.New("unused") }
	Register("porkbun", factory)

	defer func() {
		if recover() == nil {
			t.Error("duplicate Register did not panic")
		}
	}()
	Register("PorkBun", factory)
}
