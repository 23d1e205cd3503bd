package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nathanbeddoewebdev/provctl/internal/certs"
	"nathanbeddoewebdev/provctl/internal/converge"
	dnsdomain "nathanbeddoewebdev/provctl/internal/dns/domain"
	"nathanbeddoewebdev/provctl/internal/dns/services"
	"nathanbeddoewebdev/provctl/internal/domain"
	"nathanbeddoewebdev/provctl/internal/util"
)

// Topology defaults.
const (
	NetworkCIDR      = "192.168.99.0/24"
	MinVolumeSizeGB  = 100
	MaxVolumeSizeGB  = 1024
	ErrorPageKey     = "error.html"
	backupNameLength = 12
)

// DefaultMonitor is the health check installed on every load balancer.
var DefaultMonitor = domain.HealthMonitor{
	Type:     domain.MonitorConnect,
	Delay:    5 * time.Second,
	Timeout:  2 * time.Second,
	Attempts: 1,
}

// TopologySpec describes a load-balanced web tier behind a DNS name.
type TopologySpec struct {
	// FQDN names the load balancer and receives an A record for its VIP.
	FQDN string

	Servers BatchSpec

	// Network creates "<fqdn>-net" and attaches servers and the load
	// balancer to it. Load balancer nodes then use private addresses.
	Network bool

	// TLS terminates HTTPS on the load balancer with a self-signed
	// certificate for FQDN.
	TLS bool

	// ErrorPage is custom HTML served on backend failure. Empty skips
	// the stage.
	ErrorPage string

	// BackupErrorPage stores ErrorPage in a new randomly named container.
	BackupErrorPage bool

	// VolumeSizeGB attaches one "<server>_vol" volume per server.
	// Zero skips volumes.
	VolumeSizeGB int
}

// Validate checks the topology before anything is created.
func (s TopologySpec) Validate() error {
	if err := services.ValidateHostname(s.FQDN); err != nil {
		return fmt.Errorf("fqdn: %w", err)
	}
	if s.Servers.Count < 1 {
		return fmt.Errorf("at least one server is required")
	}
	if s.VolumeSizeGB != 0 && (s.VolumeSizeGB < MinVolumeSizeGB || s.VolumeSizeGB > MaxVolumeSizeGB) {
		return fmt.Errorf("volume size must be between %d and %d GB, got %d", MinVolumeSizeGB, MaxVolumeSizeGB, s.VolumeSizeGB)
	}
	if s.BackupErrorPage && s.ErrorPage == "" {
		return fmt.Errorf("an error page backup needs an error page")
	}
	return nil
}

// Topology is everything BuildTopology created, as far as it got.
type Topology struct {
	Network      *domain.Handle
	Servers      []domain.Handle
	Certificate  *domain.Handle
	LoadBalancer *domain.Handle
	DNS          *services.Resolution
	Volumes      []domain.Handle

	// BackupContainer holds the error page copy, when requested.
	BackupContainer string
}

// Handles lists every created resource, for reporting.
func (t *Topology) Handles() []domain.Handle {
	var out []domain.Handle
	if t.Network != nil {
		out = append(out, *t.Network)
	}
	out = append(out, t.Servers...)
	if t.Certificate != nil {
		out = append(out, *t.Certificate)
	}
	if t.LoadBalancer != nil {
		out = append(out, *t.LoadBalancer)
	}
	out = append(out, t.Volumes...)
	return out
}

// BuildTopology runs the stages in order: network, servers, load balancer
// (with its certificate when TLS is set), health monitor, error page, DNS,
// volumes and the error page backup.
func (o *Orchestrator) BuildTopology(ctx context.Context, spec TopologySpec) (*Topology, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	spec.FQDN = strings.ToLower(strings.TrimSuffix(spec.FQDN, "."))
	if err := o.checkTopologyProviders(spec); err != nil {
		return nil, err
	}

	topo := &Topology{}

	if spec.Network {
		if err := o.stageNetwork(ctx, spec, topo); err != nil {
			return topo, fmt.Errorf("network stage: %w", err)
		}
	}

	batch := spec.Servers
	if batch.BaseName == "" {
		batch.BaseName = strings.SplitN(spec.FQDN, ".", 2)[0]
	}
	if topo.Network != nil {
		batch.NetworkIDs = append(batch.NetworkIDs, topo.Network.ID)
	}
	servers, err := o.BuildServers(ctx, batch, WaitBuild)
	topo.Servers = servers
	if err != nil {
		return topo, fmt.Errorf("server stage: %w", err)
	}

	if err := o.stageLoadBalancer(ctx, spec, topo); err != nil {
		return topo, fmt.Errorf("load balancer stage: %w", err)
	}
	if err := o.stageHealthMonitor(ctx, spec, topo); err != nil {
		return topo, fmt.Errorf("health monitor stage: %w", err)
	}
	if err := o.stageErrorPage(ctx, spec, topo); err != nil {
		return topo, fmt.Errorf("error page stage: %w", err)
	}
	if err := o.stageDNS(ctx, spec, topo); err != nil {
		return topo, fmt.Errorf("dns stage: %w", err)
	}
	if spec.VolumeSizeGB > 0 {
		if err := o.stageVolumes(ctx, spec, topo); err != nil {
			return topo, fmt.Errorf("volume stage: %w", err)
		}
	}
	if spec.BackupErrorPage {
		if err := o.stageBackup(ctx, spec, topo); err != nil {
			return topo, fmt.Errorf("backup stage: %w", err)
		}
	}

	return topo, nil
}

func (o *Orchestrator) checkTopologyProviders(spec TopologySpec) error {
	switch {
	case o.pc.Servers == nil:
		return missing("server")
	case o.pc.LoadBalancers == nil:
		return missing("load balancer")
	case o.resolver == nil:
		return missing("DNS")
	case spec.Network && o.pc.Networks == nil:
		return missing("network")
	case spec.TLS && o.pc.Certificates == nil:
		return missing("certificate")
	case spec.VolumeSizeGB > 0 && o.pc.Volumes == nil:
		return missing("volume")
	case spec.BackupErrorPage && o.pc.Containers == nil:
		return missing("object storage")
	}
	return nil
}

func (o *Orchestrator) stageNetwork(ctx context.Context, spec TopologySpec, topo *Topology) error {
	network, err := o.pc.Networks.CreateNetwork(ctx, domain.CreateNetworkOpts{
		Name: spec.FQDN + "-net",
		CIDR: NetworkCIDR,
	})
	if err != nil {
		return err
	}
	topo.Network = &network
	o.emit("network", "created network %s (%s)", network.Name, NetworkCIDR)

	ready, err := o.await(ctx, "network", domain.KindNetwork, converge.BuildComplete, []domain.Handle{network})
	if err != nil {
		return err
	}
	topo.Network = &ready[0]
	return nil
}

func (o *Orchestrator) stageLoadBalancer(ctx context.Context, spec TopologySpec, topo *Topology) error {
	opts := domain.CreateLoadBalancerOpts{
		Name:      spec.FQDN,
		Type:      o.opts.LoadBalancerType,
		Location:  o.orDefault(spec.Servers.Location, o.opts.Location),
		Algorithm: domain.AlgorithmRoundRobin,
		Protocol:  domain.ProtocolHTTP,
		Port:      80,
	}
	if topo.Network != nil {
		opts.NetworkID = topo.Network.ID
	}
	for _, srv := range topo.Servers {
		opts.Nodes = append(opts.Nodes, domain.LoadBalancerNode{
			ServerID:     srv.ID,
			UsePrivateIP: topo.Network != nil,
		})
	}

	if spec.TLS {
		pair, err := certs.SelfSigned(spec.FQDN, 0)
		if err != nil {
			return err
		}
		cert, err := o.pc.Certificates.UploadCertificate(ctx, domain.UploadCertificateOpts{
			Name:           spec.FQDN + "-cert",
			CertificatePEM: pair.CertificatePEM,
			PrivateKeyPEM:  pair.PrivateKeyPEM,
		})
		if err != nil {
			return fmt.Errorf("upload certificate: %w", err)
		}
		topo.Certificate = &cert
		o.emit("ssl", "uploaded self-signed certificate %s", cert.Name)

		opts.Protocol = domain.ProtocolHTTPS
		opts.Port = 443
		opts.DestinationPort = 80
		opts.CertificateIDs = []string{cert.ID}
	}

	lb, err := o.pc.LoadBalancers.CreateLoadBalancer(ctx, opts)
	if err != nil {
		return err
	}
	topo.LoadBalancer = &lb
	o.emit("loadbalancer", "created load balancer %s with %d node(s)", lb.Name, len(opts.Nodes))

	return o.waitLoadBalancer(ctx, "loadbalancer", topo)
}

func (o *Orchestrator) waitLoadBalancer(ctx context.Context, stage string, topo *Topology) error {
	ready, err := o.await(ctx, stage, domain.KindLoadBalancer, converge.BuildComplete, []domain.Handle{*topo.LoadBalancer})
	if err != nil {
		return err
	}
	topo.LoadBalancer = &ready[0]
	return nil
}

func (o *Orchestrator) stageHealthMonitor(ctx context.Context, spec TopologySpec, topo *Topology) error {
	monitor := DefaultMonitor
	monitor.Port = 80
	if spec.TLS {
		monitor.Port = 443
	}
	if err := o.pc.LoadBalancers.SetHealthMonitor(ctx, topo.LoadBalancer.ID, monitor); err != nil {
		return err
	}
	o.emit("monitor", "added %s health monitor to %s", monitor.Type, topo.LoadBalancer.Name)
	return o.waitLoadBalancer(ctx, "monitor", topo)
}

func (o *Orchestrator) stageErrorPage(ctx context.Context, spec TopologySpec, topo *Topology) error {
	if spec.ErrorPage == "" {
		return nil
	}
	setter, ok := o.pc.LoadBalancers.(domain.ErrorPageSetter)
	if !ok {
		o.warn("errorpage", "load balancer provider cannot serve a custom error page; skipping")
		return nil
	}
	if err := setter.SetErrorPage(ctx, topo.LoadBalancer.ID, spec.ErrorPage); err != nil {
		return err
	}
	o.emit("errorpage", "set custom error page on %s", topo.LoadBalancer.Name)
	return o.waitLoadBalancer(ctx, "errorpage", topo)
}

func (o *Orchestrator) stageDNS(ctx context.Context, spec TopologySpec, topo *Topology) error {
	vip := topo.LoadBalancer.Attr(domain.AttrVIPv4)
	if vip == "" {
		return fmt.Errorf("load balancer %s has no public IPv4 address", topo.LoadBalancer.Name)
	}
	res, err := o.resolver.Resolve(ctx, services.ResolutionRequest{
		FQDN:  spec.FQDN,
		Type:  dnsdomain.RecordTypeA,
		Value: vip,
	})
	if err != nil {
		return err
	}
	topo.DNS = res
	o.emit("dns", "added A record %s -> %s in zone %s", spec.FQDN, vip, res.Zone.Name)
	return nil
}

// stageVolumes creates the volumes, waits until they can be attached,
// attaches each to its server and waits for all of them to be in use.
func (o *Orchestrator) stageVolumes(ctx context.Context, spec TopologySpec, topo *Topology) error {
	for _, srv := range topo.Servers {
		vol, err := o.pc.Volumes.CreateVolume(ctx, domain.CreateVolumeOpts{
			Name:     srv.Name + "_vol",
			SizeGB:   spec.VolumeSizeGB,
			Location: o.orDefault(srv.Attr("location"), o.orDefault(spec.Servers.Location, o.opts.Location)),
			Format:   "ext4",
		})
		if err != nil {
			return fmt.Errorf("create volume for %s: %w", srv.Name, err)
		}
		topo.Volumes = append(topo.Volumes, vol)
		o.emit("volumes", "created %d GB volume %s", spec.VolumeSizeGB, vol.Name)
	}

	available, err := o.await(ctx, "volumes", domain.KindVolume, volumeAvailable, topo.Volumes)
	if err != nil {
		return err
	}
	topo.Volumes = available

	for i, vol := range topo.Volumes {
		if err := o.pc.Volumes.AttachVolume(ctx, vol.ID, topo.Servers[i].ID); err != nil {
			return fmt.Errorf("attach %s to %s: %w", vol.Name, topo.Servers[i].Name, err)
		}
		o.emit("volumes", "attaching %s to %s", vol.Name, topo.Servers[i].Name)
	}

	attached, err := o.await(ctx, "volumes", domain.KindVolume, converge.VolumeAttached, topo.Volumes)
	if err != nil {
		return err
	}
	topo.Volumes = attached
	return nil
}

func (o *Orchestrator) stageBackup(ctx context.Context, spec TopologySpec, topo *Topology) error {
	name, err := util.RandomString(backupNameLength, util.LowerAlphanumeric)
	if err != nil {
		return err
	}
	if _, err := o.pc.Containers.CreateContainer(ctx, name); err != nil {
		return err
	}
	topo.BackupContainer = name
	if err := o.pc.Containers.PutObject(ctx, name, ErrorPageKey, strings.NewReader(spec.ErrorPage), "text/html"); err != nil {
		return err
	}
	o.emit("backup", "backed up error page to %s/%s", name, ErrorPageKey)
	return nil
}
