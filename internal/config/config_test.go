package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.Bucket)
	assert.Empty(t, cfg.Prefix)
	assert.Empty(t, cfg.Distribution)
	assert.Zero(t, cfg.RateLimit)
	assert.False(t, cfg.Quiet)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("S3IDX_BUCKET", "my-download-bucket")
	t.Setenv("S3IDX_PREFIX", "releases")
	t.Setenv("S3IDX_REGION", "eu-north-1")
	t.Setenv("S3IDX_PROFILE", "prod")
	t.Setenv("S3IDX_DISTRIBUTION", "E2EXAMPLE123")
	t.Setenv("S3IDX_RATE_LIMIT", "25")
	t.Setenv("S3IDX_QUIET", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "my-download-bucket", cfg.Bucket)
	assert.Equal(t, "releases", cfg.Prefix)
	assert.Equal(t, "eu-north-1", cfg.Region)
	assert.Equal(t, "prod", cfg.Profile)
	assert.Equal(t, "E2EXAMPLE123", cfg.Distribution)
	assert.Equal(t, float64(25), cfg.RateLimit)
	assert.True(t, cfg.Quiet)
}

func TestLoadStripsTrailingPrefixSeparators(t *testing.T) {
	t.Setenv("S3IDX_PREFIX", "releases/v1/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "releases/v1", cfg.Prefix)
}

func TestLoadCustomEndpoint(t *testing.T) {
	t.Setenv("S3IDX_ENDPOINT", "http://localhost:9000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", cfg.Endpoint)
}
