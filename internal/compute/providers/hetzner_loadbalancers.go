package providers

import (
	"context"
	"fmt"
	"strings"

	"nathanbeddoewebdev/provctl/internal/domain"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// CreateLoadBalancer creates a load balancer with one service and a
// server target per node.
func (h *HetznerProvider) CreateLoadBalancer(ctx context.Context, opts domain.CreateLoadBalancerOpts) (domain.Handle, error) {
	protocol, err := lbProtocol(opts.Protocol)
	if err != nil {
		return domain.Handle{}, err
	}

	destination := opts.DestinationPort
	if destination == 0 {
		destination = opts.Port
	}
	service := hcloud.LoadBalancerCreateOptsService{
		Protocol:        protocol,
		ListenPort:      hcloud.Ptr(opts.Port),
		DestinationPort: hcloud.Ptr(destination),
	}
	if protocol == hcloud.LoadBalancerServiceProtocolHTTPS {
		service.HTTP = &hcloud.LoadBalancerCreateOptsServiceHTTP{}
		for _, certID := range opts.CertificateIDs {
			id, err := parseID(domain.KindCertificate, certID)
			if err != nil {
				return domain.Handle{}, err
			}
			service.HTTP.Certificates = append(service.HTTP.Certificates, &hcloud.Certificate{ID: id})
		}
	}

	algorithm := hcloud.LoadBalancerAlgorithmTypeRoundRobin
	if strings.EqualFold(opts.Algorithm, "LEAST_CONNECTIONS") {
		algorithm = hcloud.LoadBalancerAlgorithmTypeLeastConnections
	}

	hcloudOpts := hcloud.LoadBalancerCreateOpts{
		Name:             opts.Name,
		LoadBalancerType: &hcloud.LoadBalancerType{Name: opts.Type},
		Algorithm:        &hcloud.LoadBalancerAlgorithm{Type: algorithm},
		Services:         []hcloud.LoadBalancerCreateOptsService{service},
	}
	if opts.Location != "" {
		hcloudOpts.Location = &hcloud.Location{Name: opts.Location}
	}
	if opts.NetworkID != "" {
		id, err := parseID(domain.KindNetwork, opts.NetworkID)
		if err != nil {
			return domain.Handle{}, err
		}
		hcloudOpts.Network = &hcloud.Network{ID: id}
	}

	for _, node := range opts.Nodes {
		id, err := parseID(domain.KindServer, node.ServerID)
		if err != nil {
			return domain.Handle{}, err
		}
		hcloudOpts.Targets = append(hcloudOpts.Targets, hcloud.LoadBalancerCreateOptsTarget{
			Type:         hcloud.LoadBalancerTargetTypeServer,
			Server:       hcloud.LoadBalancerCreateOptsTargetServer{Server: &hcloud.Server{ID: id}},
			UsePrivateIP: hcloud.Ptr(node.UsePrivateIP),
		})
	}

	result, _, err := h.client.LoadBalancer.Create(ctx, hcloudOpts)
	if err != nil {
		return domain.Handle{}, mapError("create load balancer", err)
	}

	h.actions.track(trackKey(domain.KindLoadBalancer, result.LoadBalancer.ID), result.Action)

	handle := toLoadBalancerHandle(result.LoadBalancer)
	handle.Status = domain.StatusPendingUpdate
	return handle, nil
}

// GetLoadBalancer derives the status from the actions started on it:
// PENDING_UPDATE while one runs, ERROR if one failed, ACTIVE otherwise.
func (h *HetznerProvider) GetLoadBalancer(ctx context.Context, id string) (domain.Handle, error) {
	numericID, err := parseID(domain.KindLoadBalancer, id)
	if err != nil {
		return domain.Handle{}, err
	}

	lb, _, err := h.client.LoadBalancer.GetByID(ctx, numericID)
	if err != nil {
		return domain.Handle{}, mapError("get load balancer", err)
	}
	if lb == nil {
		return domain.Handle{}, notFound(domain.KindLoadBalancer, id)
	}

	handle := toLoadBalancerHandle(lb)
	state, err := h.actions.state(ctx, h.client, trackKey(domain.KindLoadBalancer, lb.ID))
	if err != nil {
		return domain.Handle{}, err
	}
	switch state {
	case actionsRunning:
		handle.Status = domain.StatusPendingUpdate
	case actionsFailed:
		handle.Status = domain.StatusError
	}
	return handle, nil
}

func (h *HetznerProvider) ListLoadBalancers(ctx context.Context) ([]domain.Handle, error) {
	lbs, err := h.client.LoadBalancer.All(ctx)
	if err != nil {
		return nil, mapError("list load balancers", err)
	}

	handles := make([]domain.Handle, 0, len(lbs))
	for _, lb := range lbs {
		handles = append(handles, toLoadBalancerHandle(lb))
	}
	return handles, nil
}

func (h *HetznerProvider) DeleteLoadBalancer(ctx context.Context, id string) error {
	numericID, err := parseID(domain.KindLoadBalancer, id)
	if err != nil {
		return err
	}

	if _, err := h.client.LoadBalancer.Delete(ctx, &hcloud.LoadBalancer{ID: numericID}); err != nil {
		return mapError("delete load balancer", err)
	}
	h.actions.forget(trackKey(domain.KindLoadBalancer, numericID))
	return nil
}

// SetHealthMonitor updates the health check of the service listening on
// monitor.Port. The check targets the service's destination port.
func (h *HetznerProvider) SetHealthMonitor(ctx context.Context, id string, monitor domain.HealthMonitor) error {
	numericID, err := parseID(domain.KindLoadBalancer, id)
	if err != nil {
		return err
	}

	lb, _, err := h.client.LoadBalancer.GetByID(ctx, numericID)
	if err != nil {
		return mapError("get load balancer", err)
	}
	if lb == nil {
		return notFound(domain.KindLoadBalancer, id)
	}

	var service *hcloud.LoadBalancerService
	for i := range lb.Services {
		if lb.Services[i].ListenPort == monitor.Port {
			service = &lb.Services[i]
			break
		}
	}
	if service == nil {
		return fmt.Errorf("load balancer %s has no service on port %d: %w", id, monitor.Port, domain.ErrNotFound)
	}

	check := &hcloud.LoadBalancerUpdateServiceOptsHealthCheck{
		Protocol: hcloud.LoadBalancerServiceProtocolTCP,
		Port:     hcloud.Ptr(service.DestinationPort),
		Interval: hcloud.Ptr(monitor.Delay),
		Timeout:  hcloud.Ptr(monitor.Timeout),
		Retries:  hcloud.Ptr(monitor.Attempts),
	}
	if monitor.Type == domain.MonitorHTTP {
		check.Protocol = hcloud.LoadBalancerServiceProtocolHTTP
		path := monitor.Path
		if path == "" {
			path = "/"
		}
		check.HTTP = &hcloud.LoadBalancerUpdateServiceOptsHealthCheckHTTP{Path: hcloud.Ptr(path)}
	}

	action, _, err := h.client.LoadBalancer.UpdateService(ctx, lb, monitor.Port, hcloud.LoadBalancerUpdateServiceOpts{
		HealthCheck: check,
	})
	if err != nil {
		return mapError("update load balancer service", err)
	}
	h.actions.track(trackKey(domain.KindLoadBalancer, lb.ID), action)
	return nil
}

func lbProtocol(p string) (hcloud.LoadBalancerServiceProtocol, error) {
	switch strings.ToUpper(p) {
	case "", domain.ProtocolHTTP:
		return hcloud.LoadBalancerServiceProtocolHTTP, nil
	case domain.ProtocolHTTPS:
		return hcloud.LoadBalancerServiceProtocolHTTPS, nil
	case domain.ProtocolTCP:
		return hcloud.LoadBalancerServiceProtocolTCP, nil
	}
	return "", fmt.Errorf("unsupported load balancer protocol %q", p)
}

func toLoadBalancerHandle(lb *hcloud.LoadBalancer) domain.Handle {
	attrs := map[string]any{
		domain.AttrNetworks: len(lb.PrivateNet),
	}
	if lb.PublicNet.IPv4.IP != nil {
		attrs[domain.AttrVIPv4] = lb.PublicNet.IPv4.IP.String()
	}
	if lb.PublicNet.IPv6.IP != nil {
		attrs[domain.AttrVIPv6] = lb.PublicNet.IPv6.IP.String()
	}
	if len(lb.PrivateNet) > 0 && lb.PrivateNet[0].IP != nil {
		attrs[domain.AttrPrivateIPv4] = lb.PrivateNet[0].IP.String()
	}
	if lb.LoadBalancerType != nil {
		attrs["load_balancer_type"] = lb.LoadBalancerType.Name
	}

	return domain.Handle{
		ID:         formatID(lb.ID),
		Kind:       domain.KindLoadBalancer,
		Name:       lb.Name,
		Status:     domain.StatusActive,
		Attributes: attrs,
	}
}
