package providers

import "nathanbeddoewebdev/provctl/internal/domain"

// Provider is a compute cloud exposing every resource kind provctl
// provisions on it.
type Provider interface {
	GetDisplayName() string

	domain.ServerAPI
	domain.LoadBalancerAPI
	domain.VolumeAPI
	domain.NetworkAPI
	domain.ImageAPI
	domain.CertificateAPI
	domain.SSHKeyAPI
}
