package providers

import (
	"context"

	"nathanbeddoewebdev/provctl/internal/domain"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// CreateImageFromServer snapshots a server. Hetzner snapshots have no
// name, so name is stored as the description.
func (h *HetznerProvider) CreateImageFromServer(ctx context.Context, serverID, name string) (domain.Handle, error) {
	id, err := parseID(domain.KindServer, serverID)
	if err != nil {
		return domain.Handle{}, err
	}

	result, _, err := h.client.Server.CreateImage(ctx, &hcloud.Server{ID: id}, &hcloud.ServerCreateImageOpts{
		Type:        hcloud.ImageTypeSnapshot,
		Description: hcloud.Ptr(name),
	})
	if err != nil {
		return domain.Handle{}, mapError("create image", err)
	}

	h.actions.track(trackKey(domain.KindImage, result.Image.ID), result.Action)

	handle := toImageHandle(result.Image)
	handle.Status = domain.StatusBuild
	return handle, nil
}

func (h *HetznerProvider) GetImage(ctx context.Context, id string) (domain.Handle, error) {
	numericID, err := parseID(domain.KindImage, id)
	if err != nil {
		return domain.Handle{}, err
	}

	img, _, err := h.client.Image.GetByID(ctx, numericID)
	if err != nil {
		return domain.Handle{}, mapError("get image", err)
	}
	if img == nil {
		return domain.Handle{}, notFound(domain.KindImage, id)
	}

	handle := toImageHandle(img)
	state, err := h.actions.state(ctx, h.client, trackKey(domain.KindImage, img.ID))
	if err != nil {
		return domain.Handle{}, err
	}
	if state == actionsFailed {
		handle.Status = domain.StatusError
	}
	return handle, nil
}

func (h *HetznerProvider) ListImages(ctx context.Context) ([]domain.Handle, error) {
	images, err := h.client.Image.All(ctx)
	if err != nil {
		return nil, mapError("list images", err)
	}

	handles := make([]domain.Handle, 0, len(images))
	for _, img := range images {
		handles = append(handles, toImageHandle(img))
	}
	return handles, nil
}

func (h *HetznerProvider) DeleteImage(ctx context.Context, id string) error {
	numericID, err := parseID(domain.KindImage, id)
	if err != nil {
		return err
	}

	if _, err := h.client.Image.Delete(ctx, &hcloud.Image{ID: numericID}); err != nil {
		return mapError("delete image", err)
	}
	h.actions.forget(trackKey(domain.KindImage, numericID))
	return nil
}

func imageStatus(s hcloud.ImageStatus) string {
	switch s {
	case hcloud.ImageStatusAvailable:
		return domain.StatusActive
	case hcloud.ImageStatusCreating:
		return domain.StatusBuild
	}
	return domain.StatusError
}

// imageType folds Hetzner's provider-owned system and app images into
// the "base" type, which is never deleted.
func imageType(t hcloud.ImageType) string {
	switch t {
	case hcloud.ImageTypeSystem, hcloud.ImageTypeApp:
		return domain.ImageTypeBase
	}
	return string(t)
}

func toImageHandle(img *hcloud.Image) domain.Handle {
	name := img.Name
	if name == "" {
		name = img.Description
	}

	return domain.Handle{
		ID:     formatID(img.ID),
		Kind:   domain.KindImage,
		Name:   name,
		Status: imageStatus(img.Status),
		Attributes: map[string]any{
			domain.AttrImageType:      imageType(img.Type),
			domain.AttrProviderStatus: string(img.Status),
		},
	}
}
