package providers

import (
	"context"

	"nathanbeddoewebdev/provctl/internal/domain"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// CreateVolume creates a block volume, attaching it at creation when
// opts.ServerID is set.
func (h *HetznerProvider) CreateVolume(ctx context.Context, opts domain.CreateVolumeOpts) (domain.Handle, error) {
	hcloudOpts := hcloud.VolumeCreateOpts{
		Name: opts.Name,
		Size: opts.SizeGB,
	}
	if opts.Format != "" {
		hcloudOpts.Format = hcloud.Ptr(opts.Format)
	}

	// Hetzner rejects a location alongside a server; the volume lands in
	// the server's location.
	if opts.ServerID != "" {
		id, err := parseID(domain.KindServer, opts.ServerID)
		if err != nil {
			return domain.Handle{}, err
		}
		hcloudOpts.Server = &hcloud.Server{ID: id}
	} else if opts.Location != "" {
		hcloudOpts.Location = &hcloud.Location{Name: opts.Location}
	}

	result, _, err := h.client.Volume.Create(ctx, hcloudOpts)
	if err != nil {
		return domain.Handle{}, mapError("create volume", err)
	}

	key := trackKey(domain.KindVolume, result.Volume.ID)
	h.actions.track(key, result.Action)
	h.actions.track(key, result.NextActions...)

	handle := toVolumeHandle(result.Volume)
	handle.Status = domain.StatusCreating
	return handle, nil
}

// GetVolume reports "creating" while an action on the volume runs,
// "in-use" once attached and "error" when an action failed.
func (h *HetznerProvider) GetVolume(ctx context.Context, id string) (domain.Handle, error) {
	numericID, err := parseID(domain.KindVolume, id)
	if err != nil {
		return domain.Handle{}, err
	}

	vol, _, err := h.client.Volume.GetByID(ctx, numericID)
	if err != nil {
		return domain.Handle{}, mapError("get volume", err)
	}
	if vol == nil {
		return domain.Handle{}, notFound(domain.KindVolume, id)
	}

	handle := toVolumeHandle(vol)
	state, err := h.actions.state(ctx, h.client, trackKey(domain.KindVolume, vol.ID))
	if err != nil {
		return domain.Handle{}, err
	}
	switch state {
	case actionsRunning:
		handle.Status = domain.StatusCreating
	case actionsFailed:
		handle.Status = domain.StatusVolError
	}
	return handle, nil
}

func (h *HetznerProvider) ListVolumes(ctx context.Context) ([]domain.Handle, error) {
	vols, err := h.client.Volume.All(ctx)
	if err != nil {
		return nil, mapError("list volumes", err)
	}

	handles := make([]domain.Handle, 0, len(vols))
	for _, v := range vols {
		handles = append(handles, toVolumeHandle(v))
	}
	return handles, nil
}

func (h *HetznerProvider) DeleteVolume(ctx context.Context, id string) error {
	numericID, err := parseID(domain.KindVolume, id)
	if err != nil {
		return err
	}

	if _, err := h.client.Volume.Delete(ctx, &hcloud.Volume{ID: numericID}); err != nil {
		return mapError("delete volume", err)
	}
	h.actions.forget(trackKey(domain.KindVolume, numericID))
	return nil
}

func (h *HetznerProvider) AttachVolume(ctx context.Context, volumeID, serverID string) error {
	volID, err := parseID(domain.KindVolume, volumeID)
	if err != nil {
		return err
	}
	srvID, err := parseID(domain.KindServer, serverID)
	if err != nil {
		return err
	}

	action, _, err := h.client.Volume.Attach(ctx, &hcloud.Volume{ID: volID}, &hcloud.Server{ID: srvID})
	if err != nil {
		return mapError("attach volume", err)
	}
	h.actions.track(trackKey(domain.KindVolume, volID), action)
	return nil
}

func volumeStatus(v *hcloud.Volume) string {
	switch {
	case v.Status == hcloud.VolumeStatusCreating:
		return domain.StatusCreating
	case v.Server != nil:
		return domain.StatusInUse
	case v.Status == hcloud.VolumeStatusAvailable:
		return domain.StatusAvailable
	}
	return domain.StatusVolError
}

func toVolumeHandle(v *hcloud.Volume) domain.Handle {
	attrs := map[string]any{
		domain.AttrProviderStatus: string(v.Status),
		"size_gb":                 v.Size,
	}
	if v.LinuxDevice != "" {
		attrs[domain.AttrLinuxDevice] = v.LinuxDevice
	}
	if v.Server != nil {
		attrs["server_id"] = formatID(v.Server.ID)
	}

	return domain.Handle{
		ID:         formatID(v.ID),
		Kind:       domain.KindVolume,
		Name:       v.Name,
		Status:     volumeStatus(v),
		Attributes: attrs,
	}
}
