package providers

import (
	"context"
	"fmt"
	"strconv"

	"nathanbeddoewebdev/provctl/internal/domain"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// CreateServer creates a new server on Hetzner Cloud.
// It maps domain.CreateServerOpts to the hcloud SDK, resolving SSH key
// names to their IDs where required by the API.
func (h *HetznerProvider) CreateServer(ctx context.Context, opts domain.CreateServerOpts) (domain.Handle, error) {
	hcloudOpts := hcloud.ServerCreateOpts{
		Name:       opts.Name,
		ServerType: &hcloud.ServerType{Name: opts.ServerType},
		Image:      imageRef(opts.Image),
		Labels:     opts.Labels,
	}

	if opts.Location != "" {
		hcloudOpts.Location = &hcloud.Location{Name: opts.Location}
	}

	for _, netID := range opts.NetworkIDs {
		id, err := parseID(domain.KindNetwork, netID)
		if err != nil {
			return domain.Handle{}, err
		}
		hcloudOpts.Networks = append(hcloudOpts.Networks, &hcloud.Network{ID: id})
	}

	// The SDK requires SSH key IDs in the request body, so we resolve
	// each name-or-ID through the API before creating the server.
	for _, key := range opts.SSHKeys {
		sshKey, _, err := h.client.SSHKey.Get(ctx, key)
		if err != nil {
			return domain.Handle{}, mapError("resolve ssh key", err)
		}
		if sshKey == nil {
			return domain.Handle{}, fmt.Errorf("SSH key %q: %w", key, domain.ErrNotFound)
		}
		hcloudOpts.SSHKeys = append(hcloudOpts.SSHKeys, sshKey)
	}

	result, _, err := h.client.Server.Create(ctx, hcloudOpts)
	if err != nil {
		return domain.Handle{}, mapError("create server", err)
	}

	key := trackKey(domain.KindServer, result.Server.ID)
	h.actions.track(key, result.Action)
	h.actions.track(key, result.NextActions...)

	handle := toServerHandle(result.Server)

	// Surface the root password if one was generated (i.e. no SSH keys were provided).
	if result.RootPassword != "" {
		handle.Attributes[domain.AttrRootPassword] = result.RootPassword
	}

	return handle, nil
}

// GetServer fetches a server and folds its creation actions into the status.
func (h *HetznerProvider) GetServer(ctx context.Context, id string) (domain.Handle, error) {
	numericID, err := parseID(domain.KindServer, id)
	if err != nil {
		return domain.Handle{}, err
	}

	srv, _, err := h.client.Server.GetByID(ctx, numericID)
	if err != nil {
		return domain.Handle{}, mapError("get server", err)
	}
	if srv == nil {
		return domain.Handle{}, notFound(domain.KindServer, id)
	}

	handle := toServerHandle(srv)
	state, err := h.actions.state(ctx, h.client, trackKey(domain.KindServer, srv.ID))
	if err != nil {
		return domain.Handle{}, err
	}
	if state == actionsFailed {
		handle.Status = domain.StatusError
	}
	return handle, nil
}

// ListServers retrieves all servers from the Hetzner Cloud API.
func (h *HetznerProvider) ListServers(ctx context.Context) ([]domain.Handle, error) {
	hzServers, err := h.client.Server.All(ctx)
	if err != nil {
		return nil, mapError("list servers", err)
	}

	handles := make([]domain.Handle, 0, len(hzServers))
	for _, s := range hzServers {
		handles = append(handles, toServerHandle(s))
	}

	return handles, nil
}

// DeleteServer removes a server by its ID. The ID must be a numeric string
// matching the Hetzner server ID.
func (h *HetznerProvider) DeleteServer(ctx context.Context, id string) error {
	numericID, err := parseID(domain.KindServer, id)
	if err != nil {
		return err
	}

	if _, _, err := h.client.Server.DeleteWithResult(ctx, &hcloud.Server{ID: numericID}); err != nil {
		return mapError("delete server", err)
	}
	h.actions.forget(trackKey(domain.KindServer, numericID))

	return nil
}

// imageRef accepts an image name or a numeric image ID.
func imageRef(image string) *hcloud.Image {
	if id, err := strconv.ParseInt(image, 10, 64); err == nil {
		return &hcloud.Image{ID: id}
	}
	return &hcloud.Image{Name: image}
}

// serverStatus normalises Hetzner server states.
func serverStatus(s hcloud.ServerStatus) string {
	switch s {
	case hcloud.ServerStatusRunning:
		return domain.StatusActive
	case hcloud.ServerStatusInitializing, hcloud.ServerStatusStarting,
		hcloud.ServerStatusRebuilding, hcloud.ServerStatusMigrating:
		return domain.StatusBuild
	case hcloud.ServerStatusOff, hcloud.ServerStatusStopping:
		return "SHUTOFF"
	case hcloud.ServerStatusDeleting:
		return domain.StatusDeleted
	}
	return "UNKNOWN"
}

// toServerHandle converts an hcloud.Server to a handle.
func toServerHandle(s *hcloud.Server) domain.Handle {
	attrs := map[string]any{
		domain.AttrProviderStatus: string(s.Status),
		domain.AttrNetworks:       len(s.PrivateNet),
	}

	if !s.PublicNet.IPv4.IsUnspecified() {
		attrs[domain.AttrPublicIPv4] = s.PublicNet.IPv4.IP.String()
	}

	if !s.PublicNet.IPv6.IsUnspecified() {
		attrs[domain.AttrPublicIPv6] = s.PublicNet.IPv6.IP.String()
	}

	if len(s.PrivateNet) > 0 && s.PrivateNet[0].IP != nil {
		attrs[domain.AttrPrivateIPv4] = s.PrivateNet[0].IP.String()
	}

	if s.ServerType != nil {
		attrs["server_type"] = s.ServerType.Name
	}

	if s.Location != nil {
		attrs["location"] = s.Location.Name
	}

	return domain.Handle{
		ID:         formatID(s.ID),
		Kind:       domain.KindServer,
		Name:       s.Name,
		Status:     serverStatus(s.Status),
		Attributes: attrs,
	}
}
