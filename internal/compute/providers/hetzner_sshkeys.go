package providers

import (
	"context"

	"nathanbeddoewebdev/provctl/internal/domain"
	"nathanbeddoewebdev/provctl/internal/sshkeys"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// EnsureSSHKey reuses an account key with the same key material, whatever
// its name. Otherwise the key is uploaded under name; Hetzner rejects a
// name that is already taken by a different key.
func (h *HetznerProvider) EnsureSSHKey(ctx context.Context, name, publicKey string) (domain.Handle, error) {
	keys, err := h.client.SSHKey.All(ctx)
	if err != nil {
		return domain.Handle{}, mapError("list ssh keys", err)
	}
	for _, k := range keys {
		if sshkeys.SameKey(k.PublicKey, publicKey) {
			return toSSHKeyHandle(k), nil
		}
	}

	key, _, err := h.client.SSHKey.Create(ctx, hcloud.SSHKeyCreateOpts{
		Name:      name,
		PublicKey: publicKey,
	})
	if err != nil {
		return domain.Handle{}, mapError("create ssh key", err)
	}
	return toSSHKeyHandle(key), nil
}

func toSSHKeyHandle(k *hcloud.SSHKey) domain.Handle {
	return domain.Handle{
		ID:         formatID(k.ID),
		Kind:       domain.KindSSHKey,
		Name:       k.Name,
		Status:     domain.StatusActive,
		Attributes: map[string]any{domain.AttrFingerprint: k.Fingerprint},
	}
}
