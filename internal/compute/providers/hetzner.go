package providers

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"nathanbeddoewebdev/provctl/internal/domain"
	"nathanbeddoewebdev/provctl/internal/services/auth"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// Compile-time check that HetznerProvider satisfies Provider.
var _ Provider = (*HetznerProvider)(nil)

// HetznerProvider implements Provider using the Hetzner Cloud API.
//
// Hetzner reports most transitions through actions rather than resource
// status fields, so the provider remembers the actions it started and
// folds their state into the handles it returns.
type HetznerProvider struct {
	client  *hcloud.Client
	actions *actionTracker
}

// NewHetznerProvider creates a HetznerProvider with the given hcloud client options.
// Default options (application name) are applied first; callers can override them.
func NewHetznerProvider(opts ...hcloud.ClientOption) *HetznerProvider {
	defaults := []hcloud.ClientOption{
		hcloud.WithApplication("provctl", "0.1.0"),
	}
	allOpts := append(defaults, opts...)
	return &HetznerProvider{
		client:  hcloud.NewClient(allOpts...),
		actions: newActionTracker(),
	}
}

// RegisterHetzner registers the Hetzner provider factory with the global registry.
func RegisterHetzner() {
	Register("hetzner", func(store auth.Store) (Provider, error) {
		token, err := store.GetToken("hetzner")
		if err != nil {
			return nil, fmt.Errorf("hetzner auth: %w", err)
		}

		return NewHetznerProvider(hcloud.WithToken(token)), nil
	})
}

func (h *HetznerProvider) GetDisplayName() string {
	return "Hetzner"
}

// parseID converts a handle ID to the numeric ID Hetzner expects.
func parseID(kind domain.Kind, id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s ID %q: %w", kind, id, err)
	}
	return n, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// mapError classifies an hcloud error into the domain sentinels. The
// result is always an *domain.APIError naming the failed operation.
func mapError(op string, err error) error {
	var sentinel error
	switch {
	case hcloud.IsError(err, hcloud.ErrorCodeNotFound):
		sentinel = domain.ErrNotFound
	case hcloud.IsError(err, hcloud.ErrorCodeUnauthorized, hcloud.ErrorCodeForbidden):
		sentinel = domain.ErrUnauthorized
	case hcloud.IsError(err, hcloud.ErrorCodeRateLimitExceeded):
		sentinel = domain.ErrRateLimited
	case hcloud.IsError(err, hcloud.ErrorCodeConflict, hcloud.ErrorCodeLocked, hcloud.ErrorCodeUniquenessError):
		sentinel = domain.ErrConflict
	}
	if sentinel != nil {
		err = fmt.Errorf("%w: %w", sentinel, err)
	}
	return &domain.APIError{Op: op, Err: err}
}

// notFound builds the error returned when a GetByID finds nothing.
func notFound(kind domain.Kind, id string) error {
	return &domain.APIError{Op: "get " + string(kind), Err: fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)}
}

// --- action tracking ---

type actionState int

const (
	actionsDone actionState = iota
	actionsRunning
	actionsFailed
)

// actionTracker remembers in-flight actions per resource.
type actionTracker struct {
	mu      sync.Mutex
	pending map[string][]int64
}

func newActionTracker() *actionTracker {
	return &actionTracker{pending: map[string][]int64{}}
}

func trackKey(kind domain.Kind, id int64) string {
	return string(kind) + ":" + formatID(id)
}

func (t *actionTracker) track(key string, actions ...*hcloud.Action) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, a := range actions {
		if a != nil {
			t.pending[key] = append(t.pending[key], a.ID)
		}
	}
}

// state refreshes the actions tracked for key. Finished actions are
// forgotten; failed ones are kept so the failure stays visible.
func (t *actionTracker) state(ctx context.Context, client *hcloud.Client, key string) (actionState, error) {
	t.mu.Lock()
	ids := append([]int64(nil), t.pending[key]...)
	t.mu.Unlock()

	result := actionsDone
	var keep []int64
	for _, id := range ids {
		action, _, err := client.Action.GetByID(ctx, id)
		if err != nil {
			return actionsDone, mapError("get action", err)
		}
		if action == nil {
			continue
		}
		switch action.Status {
		case hcloud.ActionStatusRunning:
			keep = append(keep, id)
			if result != actionsFailed {
				result = actionsRunning
			}
		case hcloud.ActionStatusError:
			keep = append(keep, id)
			result = actionsFailed
		}
	}

	t.mu.Lock()
	if len(keep) == 0 {
		delete(t.pending, key)
	} else {
		t.pending[key] = keep
	}
	t.mu.Unlock()

	return result, nil
}

func (t *actionTracker) forget(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, key)
}
