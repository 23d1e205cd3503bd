package providers

import (
	"context"

	"nathanbeddoewebdev/provctl/internal/domain"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// UploadCertificate stores PEM certificate material for TLS termination.
func (h *HetznerProvider) UploadCertificate(ctx context.Context, opts domain.UploadCertificateOpts) (domain.Handle, error) {
	cert, _, err := h.client.Certificate.Create(ctx, hcloud.CertificateCreateOpts{
		Name:        opts.Name,
		Type:        hcloud.CertificateTypeUploaded,
		Certificate: opts.CertificatePEM,
		PrivateKey:  opts.PrivateKeyPEM,
	})
	if err != nil {
		return domain.Handle{}, mapError("upload certificate", err)
	}
	return toCertificateHandle(cert), nil
}

func (h *HetznerProvider) ListCertificates(ctx context.Context) ([]domain.Handle, error) {
	certs, err := h.client.Certificate.All(ctx)
	if err != nil {
		return nil, mapError("list certificates", err)
	}

	handles := make([]domain.Handle, 0, len(certs))
	for _, c := range certs {
		handles = append(handles, toCertificateHandle(c))
	}
	return handles, nil
}

func (h *HetznerProvider) DeleteCertificate(ctx context.Context, id string) error {
	numericID, err := parseID(domain.KindCertificate, id)
	if err != nil {
		return err
	}

	if _, err := h.client.Certificate.Delete(ctx, &hcloud.Certificate{ID: numericID}); err != nil {
		return mapError("delete certificate", err)
	}
	return nil
}

func toCertificateHandle(c *hcloud.Certificate) domain.Handle {
	attrs := map[string]any{}
	if len(c.DomainNames) > 0 {
		attrs["domains"] = append([]string(nil), c.DomainNames...)
	}
	if !c.NotValidAfter.IsZero() {
		attrs["not_valid_after"] = c.NotValidAfter
	}

	return domain.Handle{
		ID:         formatID(c.ID),
		Kind:       domain.KindCertificate,
		Name:       c.Name,
		Status:     domain.StatusActive,
		Attributes: attrs,
	}
}
