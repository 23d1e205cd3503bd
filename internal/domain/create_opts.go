package domain

import "time"

// CreateServerOpts holds the parameters for creating a compute instance.
type CreateServerOpts struct {
	// Name is the server hostname. Required.
	Name string

	// ServerType is the provider size slug (e.g. "cx22"). Required.
	ServerType string

	// Image is the image name or ID to boot from. Required.
	Image string

	// Location is the provider location slug (e.g. "fsn1").
	// Empty lets the provider choose.
	Location string

	// NetworkIDs attaches the server to these private networks at creation.
	NetworkIDs []string

	// SSHKeys lists SSH key names or IDs to install.
	// When empty, providers that support it return a root password.
	SSHKeys []string

	// Labels are attached to the server as key/value metadata.
	Labels map[string]string
}

// LoadBalancer protocols.
const (
	ProtocolHTTP  = "HTTP"
	ProtocolHTTPS = "HTTPS"
	ProtocolTCP   = "TCP"
)

// AlgorithmRoundRobin is the default balancing algorithm.
const AlgorithmRoundRobin = "ROUND_ROBIN"

// LoadBalancerNode is a backend server behind a load balancer.
type LoadBalancerNode struct {
	ServerID string

	// UsePrivateIP routes traffic over the attached private network.
	UsePrivateIP bool
}

// CreateLoadBalancerOpts holds the parameters for creating a load balancer.
type CreateLoadBalancerOpts struct {
	Name      string
	Type      string
	Location  string
	Algorithm string

	// Protocol is HTTP, HTTPS or TCP. HTTPS terminates TLS with
	// CertificateIDs.
	Protocol        string
	Port            int
	DestinationPort int

	Nodes []LoadBalancerNode

	// NetworkID attaches the load balancer to a private network.
	NetworkID string

	CertificateIDs []string
}

// Health monitor types.
const (
	MonitorConnect = "CONNECT"
	MonitorHTTP    = "HTTP"
)

// HealthMonitor configures load balancer health checking.
type HealthMonitor struct {
	Type     string
	Port     int
	Delay    time.Duration
	Timeout  time.Duration
	Attempts int

	// Path is used by HTTP monitors only.
	Path string
}

// CreateVolumeOpts holds the parameters for creating a block volume.
type CreateVolumeOpts struct {
	Name     string
	SizeGB   int
	Location string

	// ServerID attaches the volume at creation when set.
	ServerID string

	// Format is the filesystem to create, e.g. "ext4". Empty leaves
	// the volume unformatted.
	Format string
}

// CreateNetworkOpts holds the parameters for creating a private network.
type CreateNetworkOpts struct {
	Name string

	// CIDR is the network range, e.g. "192.168.99.0/24".
	CIDR string

	// Zone is the provider network zone. Empty means the provider default.
	Zone string

	Labels map[string]string
}

// UploadCertificateOpts holds PEM-encoded certificate material.
type UploadCertificateOpts struct {
	Name           string
	CertificatePEM string
	PrivateKeyPEM  string
}

// CreateDatabaseOpts holds the parameters for a hosted database instance.
type CreateDatabaseOpts struct {
	// Name is the instance identifier.
	Name string

	Engine        string
	InstanceClass string
	SizeGB        int

	// DBName is the schema created inside the instance.
	DBName   string
	Username string
	Password string
}
