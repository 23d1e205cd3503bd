package providers

import (
	"context"
	"fmt"
	"net"

	"nathanbeddoewebdev/provctl/internal/domain"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// CreateNetwork creates a private network with a single cloud subnet
// spanning the whole range.
func (h *HetznerProvider) CreateNetwork(ctx context.Context, opts domain.CreateNetworkOpts) (domain.Handle, error) {
	_, ipRange, err := net.ParseCIDR(opts.CIDR)
	if err != nil {
		return domain.Handle{}, fmt.Errorf("invalid network range %q: %w", opts.CIDR, err)
	}

	zone := hcloud.NetworkZoneEUCentral
	if opts.Zone != "" {
		zone = hcloud.NetworkZone(opts.Zone)
	}

	network, _, err := h.client.Network.Create(ctx, hcloud.NetworkCreateOpts{
		Name:    opts.Name,
		IPRange: ipRange,
		Labels:  opts.Labels,
		Subnets: []hcloud.NetworkSubnet{{
			Type:        hcloud.NetworkSubnetTypeCloud,
			IPRange:     ipRange,
			NetworkZone: zone,
		}},
	})
	if err != nil {
		return domain.Handle{}, mapError("create network", err)
	}
	return toNetworkHandle(network), nil
}

func (h *HetznerProvider) GetNetwork(ctx context.Context, id string) (domain.Handle, error) {
	numericID, err := parseID(domain.KindNetwork, id)
	if err != nil {
		return domain.Handle{}, err
	}

	network, _, err := h.client.Network.GetByID(ctx, numericID)
	if err != nil {
		return domain.Handle{}, mapError("get network", err)
	}
	if network == nil {
		return domain.Handle{}, notFound(domain.KindNetwork, id)
	}
	return toNetworkHandle(network), nil
}

func (h *HetznerProvider) ListNetworks(ctx context.Context) ([]domain.Handle, error) {
	networks, err := h.client.Network.All(ctx)
	if err != nil {
		return nil, mapError("list networks", err)
	}

	handles := make([]domain.Handle, 0, len(networks))
	for _, n := range networks {
		handles = append(handles, toNetworkHandle(n))
	}
	return handles, nil
}

func (h *HetznerProvider) DeleteNetwork(ctx context.Context, id string) error {
	numericID, err := parseID(domain.KindNetwork, id)
	if err != nil {
		return err
	}

	if _, err := h.client.Network.Delete(ctx, &hcloud.Network{ID: numericID}); err != nil {
		return mapError("delete network", err)
	}
	return nil
}

// toNetworkHandle marks every network isolated: Hetzner has no shared
// default network, only user-created private ones.
func toNetworkHandle(n *hcloud.Network) domain.Handle {
	attrs := map[string]any{
		domain.AttrIsolated: true,
		"servers":           len(n.Servers),
	}
	if n.IPRange != nil {
		attrs["cidr"] = n.IPRange.String()
	}

	return domain.Handle{
		ID:         formatID(n.ID),
		Kind:       domain.KindNetwork,
		Name:       n.Name,
		Status:     domain.StatusActive,
		Attributes: attrs,
	}
}
