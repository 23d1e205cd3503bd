package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"nathanbeddoewebdev/provctl/internal/dns/services"
)

// LoadBalancerSpec puts a load balancer in front of existing servers.
type LoadBalancerSpec struct {
	FQDN      string
	ServerIDs []string
	Location  string
	TLS       bool
	ErrorPage string
}

// BuildLoadBalancer runs the load balancer, health monitor, error page
// and DNS stages of a topology against servers that already exist. The
// DNS stage is skipped with a warning when no DNS provider is configured.
func (o *Orchestrator) BuildLoadBalancer(ctx context.Context, spec LoadBalancerSpec) (*Topology, error) {
	if err := services.ValidateHostname(spec.FQDN); err != nil {
		return nil, fmt.Errorf("fqdn: %w", err)
	}
	if len(spec.ServerIDs) == 0 {
		return nil, fmt.Errorf("at least one server is required")
	}
	switch {
	case o.pc.Servers == nil:
		return nil, missing("server")
	case o.pc.LoadBalancers == nil:
		return nil, missing("load balancer")
	case spec.TLS && o.pc.Certificates == nil:
		return nil, missing("certificate")
	}

	topo := &Topology{}
	for _, id := range spec.ServerIDs {
		srv, err := o.pc.Servers.GetServer(ctx, id)
		if err != nil {
			return topo, fmt.Errorf("server %s: %w", id, err)
		}
		topo.Servers = append(topo.Servers, srv)
	}

	ts := TopologySpec{
		FQDN:      strings.ToLower(strings.TrimSuffix(spec.FQDN, ".")),
		Servers:   BatchSpec{Location: o.orDefault(spec.Location, topo.Servers[0].Attr("location"))},
		TLS:       spec.TLS,
		ErrorPage: spec.ErrorPage,
	}

	if err := o.stageLoadBalancer(ctx, ts, topo); err != nil {
		return topo, fmt.Errorf("load balancer stage: %w", err)
	}
	if err := o.stageHealthMonitor(ctx, ts, topo); err != nil {
		return topo, fmt.Errorf("health monitor stage: %w", err)
	}
	if err := o.stageErrorPage(ctx, ts, topo); err != nil {
		return topo, fmt.Errorf("error page stage: %w", err)
	}
	if o.resolver == nil {
		o.warn("dns", "no DNS provider configured; add a record for %s yourself", ts.FQDN)
		return topo, nil
	}
	if err := o.stageDNS(ctx, ts, topo); err != nil {
		return topo, fmt.Errorf("dns stage: %w", err)
	}
	return topo, nil
}

// ResolveDNS adds one record through the domain resolver, creating the
// zone when neither the name nor its parent has one.
func (o *Orchestrator) ResolveDNS(ctx context.Context, req services.ResolutionRequest) (*services.Resolution, error) {
	if o.resolver == nil {
		return nil, missing("DNS")
	}
	res, err := o.resolver.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	if res.Created {
		o.emit("dns", "created zone %s", res.Zone.Name)
	}
	o.emit("dns", "added %s record %s -> %s", res.Record.Type, res.Record.Name, res.Record.Value)
	return res, nil
}
