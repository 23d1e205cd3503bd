// Package awsconf builds aws-sdk-go-v2 configurations from credentials
// held in the auth store.
package awsconf

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// KeyPair is an access key and its secret.
type KeyPair struct {
	AccessKey string
	SecretKey string
}

// ParseKeyPair splits a stored "access:secret" credential.
func ParseKeyPair(raw string) (KeyPair, error) {
	access, secret, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok || access == "" || secret == "" {
		return KeyPair{}, fmt.Errorf("credential must have the form ACCESS_KEY:SECRET_KEY")
	}
	return KeyPair{AccessKey: access, SecretKey: secret}, nil
}

// Load returns an AWS config for region. A zero KeyPair falls back to the
// SDK's default credential chain (environment, shared files, IMDS).
func Load(ctx context.Context, region string, keys KeyPair) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	if keys.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(keys.AccessKey, keys.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}
