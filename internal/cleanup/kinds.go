package cleanup

import (
	"fmt"
	"strings"

	"nathanbeddoewebdev/provctl/internal/domain"
)

// skipNames maps the user-facing skip names to the kinds they remove.
var skipNames = map[string]domain.Kind{
	"servers":       domain.KindServer,
	"files":         domain.KindContainer,
	"dns":           domain.KindDNSZone,
	"loadbalancers": domain.KindLoadBalancer,
	"certificates":  domain.KindCertificate,
	"images":        domain.KindImage,
	"databases":     domain.KindDatabase,
	"volumes":       domain.KindVolume,
	"networks":      domain.KindNetwork,
}

// SkipNames lists the accepted skip names in sweep order.
func SkipNames() []string {
	names := make([]string, 0, len(skipNames))
	for _, kind := range Order {
		for name, k := range skipNames {
			if k == kind {
				names = append(names, name)
			}
		}
	}
	return names
}

// KindsWithout returns Order minus the kinds named in skip. The result is
// never nil, so skipping every kind yields a plan that sweeps nothing.
func KindsWithout(skip []string) ([]domain.Kind, error) {
	drop := map[domain.Kind]bool{}
	for _, name := range skip {
		kind, ok := skipNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown resource kind %q (valid: %s)", name, strings.Join(SkipNames(), ", "))
		}
		drop[kind] = true
	}
	kinds := make([]domain.Kind, 0, len(Order))
	for _, kind := range Order {
		if !drop[kind] {
			kinds = append(kinds, kind)
		}
	}
	return kinds, nil
}
