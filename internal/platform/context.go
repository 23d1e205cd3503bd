// Package platform bundles the provider clients a command works with.
//
// A Context is built once at process start and passed to the orchestrator
// and the cleaner. Any field may be nil when its provider is not
// configured; callers treat a nil field as a missing capability.
package platform

import (
	"context"
	"fmt"
	"log/slog"

	dnsdomain "nathanbeddoewebdev/provctl/internal/dns/domain"
	"nathanbeddoewebdev/provctl/internal/domain"
)

// Context holds the provider clients for one invocation.
type Context struct {
	Servers       domain.ServerAPI
	LoadBalancers domain.LoadBalancerAPI
	Volumes       domain.VolumeAPI
	Networks      domain.NetworkAPI
	Images        domain.ImageAPI
	Certificates  domain.CertificateAPI
	SSHKeys       domain.SSHKeyAPI
	Containers    domain.ContainerAPI
	Databases     domain.DatabaseAPI
	DNS           dnsdomain.Provider

	Logger *slog.Logger
}

// Log returns the context logger, or a discarding logger when unset.
func (c *Context) Log() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// Refresh re-fetches h from the provider responsible for its kind.
func (c *Context) Refresh(ctx context.Context, h domain.Handle) (domain.Handle, error) {
	switch h.Kind {
	case domain.KindServer:
		if c.Servers != nil {
			return c.Servers.GetServer(ctx, h.ID)
		}
	case domain.KindLoadBalancer:
		if c.LoadBalancers != nil {
			return c.LoadBalancers.GetLoadBalancer(ctx, h.ID)
		}
	case domain.KindVolume:
		if c.Volumes != nil {
			return c.Volumes.GetVolume(ctx, h.ID)
		}
	case domain.KindNetwork:
		if c.Networks != nil {
			return c.Networks.GetNetwork(ctx, h.ID)
		}
	case domain.KindImage:
		if c.Images != nil {
			return c.Images.GetImage(ctx, h.ID)
		}
	case domain.KindDatabase:
		if c.Databases != nil {
			return c.Databases.GetDatabase(ctx, h.ID)
		}
	case domain.KindContainer:
		if c.Containers != nil {
			return c.Containers.GetContainer(ctx, h.ID)
		}
	case domain.KindDNSZone:
		if c.DNS != nil {
			zone, err := c.DNS.FindZoneByName(ctx, h.Name)
			if err != nil {
				return domain.Handle{}, err
			}
			return ZoneHandle(*zone), nil
		}
	default:
		return domain.Handle{}, fmt.Errorf("refresh %s: %w", h, domain.ErrUnsupported)
	}
	return domain.Handle{}, fmt.Errorf("refresh %s: no %s provider configured: %w", h, h.Kind, domain.ErrUnsupported)
}

// ZoneHandle converts a DNS zone to a handle.
func ZoneHandle(z dnsdomain.Zone) domain.Handle {
	status := z.Status
	if status == "" {
		status = domain.StatusActive
	}
	return domain.Handle{
		ID:     z.ID,
		Kind:   domain.KindDNSZone,
		Name:   z.Name,
		Status: status,
	}
}
