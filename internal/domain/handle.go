package domain

import (
	"fmt"
	"maps"
)

// Kind identifies the type of remote resource a Handle refers to.
type Kind string

const (
	KindServer       Kind = "server"
	KindLoadBalancer Kind = "load_balancer"
	KindVolume       Kind = "volume"
	KindNetwork      Kind = "network"
	KindContainer    Kind = "container"
	KindDatabase     Kind = "database"
	KindImage        Kind = "image"
	KindDNSZone      Kind = "dns_zone"
	KindDNSRecord    Kind = "dns_record"
	KindCertificate  Kind = "certificate"
	KindSSHKey       Kind = "ssh_key"
)

// Normalised status values. Adapters translate provider-specific strings
// into these so that convergence targets can be written once.
const (
	StatusActive        = "ACTIVE"
	StatusBuild         = "BUILD"
	StatusError         = "ERROR"
	StatusPendingUpdate = "PENDING_UPDATE"
	StatusDeleted       = "DELETED"

	// Volume statuses follow block-storage conventions.
	StatusAvailable = "available"
	StatusInUse     = "in-use"
	StatusCreating  = "creating"
	StatusVolError  = "error"
)

// Well-known attribute keys.
const (
	AttrPublicIPv4     = "public_ipv4"
	AttrPublicIPv6     = "public_ipv6"
	AttrPrivateIPv4    = "private_ipv4"
	AttrNetworks       = "networks"
	AttrIsolated       = "isolated"
	AttrImageType      = "image_type"
	AttrObjectCount    = "object_count"
	AttrVIPv4          = "vip_ipv4"
	AttrVIPv6          = "vip_ipv6"
	AttrProviderStatus = "provider_status"
	AttrEndpoint       = "endpoint"
	AttrLinuxDevice    = "linux_device"
	AttrRootPassword   = "root_password"
	AttrWebsiteURL     = "website_url"
	AttrFingerprint    = "fingerprint"
)

// ImageTypeBase marks provider-owned images that can never be deleted.
const ImageTypeBase = "base"

// Handle is the local, possibly stale view of a remote resource.
//
// Handles are produced only by provider calls. Status is authoritative
// only immediately after the call that returned the handle.
type Handle struct {
	ID         string         `json:"id"`
	Kind       Kind           `json:"kind"`
	Name       string         `json:"name"`
	Status     string         `json:"status"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// String returns a short description such as `server "web1" (42)`.
func (h Handle) String() string {
	return fmt.Sprintf("%s %q (%s)", h.Kind, h.Name, h.ID)
}

// Attr returns the string form of an attribute, or "" when absent.
func (h Handle) Attr(key string) string {
	v, ok := h.Attributes[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Bool returns a boolean attribute, false when absent or not a bool.
func (h Handle) Bool(key string) bool {
	b, _ := h.Attributes[key].(bool)
	return b
}

// Int returns an integer attribute, with ok=false when absent.
func (h Handle) Int(key string) (int, bool) {
	switch v := h.Attributes[key].(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	}
	return 0, false
}

// Clone returns a copy of h whose attribute map is not shared.
func (h Handle) Clone() Handle {
	out := h
	out.Attributes = maps.Clone(h.Attributes)
	return out
}
