package awsconf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyPair(t *testing.T) {
	kp, err := ParseKeyPair("AKIA123:s3cr3t:with:colons\n")
	require.NoError(t, err)
	assert.Equal(t, "AKIA123", kp.AccessKey)
	assert.Equal(t, "s3cr3t:with:colons", kp.SecretKey)
}

func TestParseKeyPair_Invalid(t *testing.T) {
	for _, raw := range []string{"", "nocolon", ":secret", "access:"} {
		_, err := ParseKeyPair(raw)
		assert.Error(t, err, "input %q", raw)
	}
}

func TestLoad_StaticCredentials(t *testing.T) {
	cfg, err := Load(context.Background(), "eu-central-1", KeyPair{AccessKey: "a", SecretKey: "s"})
	require.NoError(t, err)
	assert.Equal(t, "eu-central-1", cfg.Region)

	creds, err := cfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", creds.AccessKeyID)
	assert.Equal(t, "s", creds.SecretAccessKey)
}
