package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"nathanbeddoewebdev/provctl/internal/awsconf"
	computeproviders "nathanbeddoewebdev/provctl/internal/compute/providers"
	"nathanbeddoewebdev/provctl/internal/config"
	"nathanbeddoewebdev/provctl/internal/dbaas"
	dnsproviders "nathanbeddoewebdev/provctl/internal/dns/providers"
	"nathanbeddoewebdev/provctl/internal/services/auth"
	"nathanbeddoewebdev/provctl/internal/storage"
)

// ComputeProvider is the compute provider name used by Build.
const ComputeProvider = "hetzner"

// Credential store entries read by Build.
const (
	StorageCredential = "storage"
	AWSCredential     = "aws"
)

// Build assembles a Context from configuration and stored credentials.
//
// Providers whose credentials are missing are left nil and logged at
// debug level. Any other failure is returned.
func Build(ctx context.Context, cfg config.Config, store auth.Store, logger *slog.Logger) (*Context, error) {
	cfg = cfg.Effective()
	pc := &Context{Logger: logger}
	log := pc.Log()

	compute, err := computeproviders.Get(ComputeProvider, store)
	switch {
	case errors.Is(err, auth.ErrTokenNotFound):
		log.Debug("compute provider not configured", "provider", ComputeProvider)
	case err != nil:
		return nil, err
	default:
		pc.Servers = compute
		pc.LoadBalancers = compute
		pc.Volumes = compute
		pc.Networks = compute
		pc.Images = compute
		pc.Certificates = compute
		pc.SSHKeys = compute
	}

	dns, err := dnsproviders.Get(cfg.DNSProvider, store, dnsproviders.Settings{
		CloudflareAccountID: cfg.CloudflareAccountID,
		AWSRegion:           cfg.AWSRegion,
	})
	switch {
	case errors.Is(err, auth.ErrTokenNotFound):
		log.Debug("dns provider not configured", "provider", cfg.DNSProvider)
	case err != nil:
		return nil, err
	default:
		pc.DNS = dns
	}

	keys, err := storedKeyPair(store, StorageCredential)
	switch {
	case errors.Is(err, auth.ErrTokenNotFound):
		log.Debug("object storage not configured")
	case err != nil:
		return nil, err
	default:
		containers, err := storage.New(ctx, storage.Config{
			Endpoint:  cfg.StorageEndpoint,
			Region:    cfg.StorageRegion,
			Keys:      keys,
			PathStyle: cfg.StorageEndpoint != "",
		})
		if err != nil {
			return nil, fmt.Errorf("object storage: %w", err)
		}
		pc.Containers = containers
	}

	keys, err = storedKeyPair(store, AWSCredential)
	switch {
	case errors.Is(err, auth.ErrTokenNotFound):
		log.Debug("database service not configured")
	case err != nil:
		return nil, err
	default:
		awsCfg, err := awsconf.Load(ctx, cfg.AWSRegion, keys)
		if err != nil {
			return nil, fmt.Errorf("database service: %w", err)
		}
		pc.Databases = dbaas.New(awsCfg)
	}

	return pc, nil
}

func storedKeyPair(store auth.Store, name string) (awsconf.KeyPair, error) {
	raw, err := store.GetToken(name)
	if err != nil {
		return awsconf.KeyPair{}, err
	}
	keys, err := awsconf.ParseKeyPair(raw)
	if err != nil {
		return awsconf.KeyPair{}, fmt.Errorf("%s credential: %w", name, err)
	}
	return keys, nil
}
