package domain

import (
	"context"
	"io"
)

// ServerAPI manages compute instances.
type ServerAPI interface {
	CreateServer(ctx context.Context, opts CreateServerOpts) (Handle, error)
	GetServer(ctx context.Context, id string) (Handle, error)
	ListServers(ctx context.Context) ([]Handle, error)
	DeleteServer(ctx context.Context, id string) error
}

// SSHKeyAPI manages the account SSH keys new servers can be created with.
type SSHKeyAPI interface {
	// EnsureSSHKey returns the account key holding publicKey, uploading
	// it under name when the account has no such key yet.
	EnsureSSHKey(ctx context.Context, name, publicKey string) (Handle, error)
}

// LoadBalancerAPI manages load balancers.
type LoadBalancerAPI interface {
	CreateLoadBalancer(ctx context.Context, opts CreateLoadBalancerOpts) (Handle, error)
	GetLoadBalancer(ctx context.Context, id string) (Handle, error)
	ListLoadBalancers(ctx context.Context) ([]Handle, error)
	DeleteLoadBalancer(ctx context.Context, id string) error

	// SetHealthMonitor configures the health check of the listener on
	// monitor.Port. The load balancer re-enters a transitional status.
	SetHealthMonitor(ctx context.Context, id string, monitor HealthMonitor) error
}

// ErrorPageSetter is implemented by load balancer providers that can
// serve a custom error page. It is optional.
type ErrorPageSetter interface {
	SetErrorPage(ctx context.Context, id string, html string) error
}

// VolumeAPI manages block-storage volumes.
type VolumeAPI interface {
	CreateVolume(ctx context.Context, opts CreateVolumeOpts) (Handle, error)
	GetVolume(ctx context.Context, id string) (Handle, error)
	ListVolumes(ctx context.Context) ([]Handle, error)
	DeleteVolume(ctx context.Context, id string) error
	AttachVolume(ctx context.Context, volumeID, serverID string) error
}

// NetworkAPI manages private networks.
type NetworkAPI interface {
	CreateNetwork(ctx context.Context, opts CreateNetworkOpts) (Handle, error)
	GetNetwork(ctx context.Context, id string) (Handle, error)
	ListNetworks(ctx context.Context) ([]Handle, error)
	DeleteNetwork(ctx context.Context, id string) error
}

// ImageAPI manages machine images.
type ImageAPI interface {
	CreateImageFromServer(ctx context.Context, serverID, name string) (Handle, error)
	GetImage(ctx context.Context, id string) (Handle, error)
	ListImages(ctx context.Context) ([]Handle, error)
	DeleteImage(ctx context.Context, id string) error
}

// CertificateAPI manages TLS certificates held by the provider.
type CertificateAPI interface {
	UploadCertificate(ctx context.Context, opts UploadCertificateOpts) (Handle, error)
	ListCertificates(ctx context.Context) ([]Handle, error)
	DeleteCertificate(ctx context.Context, id string) error
}

// ContainerAPI manages object-storage containers and their objects.
// Containers are identified by name.
type ContainerAPI interface {
	CreateContainer(ctx context.Context, name string) (Handle, error)
	GetContainer(ctx context.Context, name string) (Handle, error)
	ListContainers(ctx context.Context) ([]Handle, error)
	ListObjects(ctx context.Context, container string) ([]Object, error)
	PutObject(ctx context.Context, container, key string, body io.Reader, contentType string) error
	DeleteObject(ctx context.Context, container, key string) error
	DeleteContainer(ctx context.Context, name string) error

	// EnableWebsite serves the container as a static site and returns
	// the public website hostname.
	EnableWebsite(ctx context.Context, name, indexKey, errorKey string) (string, error)
}

// DatabaseAPI manages hosted database instances.
type DatabaseAPI interface {
	CreateDatabase(ctx context.Context, opts CreateDatabaseOpts) (Handle, error)
	GetDatabase(ctx context.Context, id string) (Handle, error)
	ListDatabases(ctx context.Context) ([]Handle, error)
	DeleteDatabase(ctx context.Context, id string) error
}

// Object is a single entry in a container.
type Object struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}
