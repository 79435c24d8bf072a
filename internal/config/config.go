// Package config provides environment-driven defaults for the CLI.
//
// Every flag of the build command can also be supplied through an
// S3IDX_-prefixed environment variable (e.g. S3IDX_BUCKET,
// S3IDX_DISTRIBUTION). Precedence is flags > environment > manifest >
// built-in defaults; this package only covers the environment layer.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "S3IDX"

// Config holds environment-supplied defaults for a reindex run.
type Config struct {
	// Bucket is the bucket whose listings are maintained.
	Bucket string `mapstructure:"bucket"`

	// Prefix restricts the run to keys under this path prefix.
	Prefix string `mapstructure:"prefix"`

	// Region is the AWS region.
	Region string `mapstructure:"region"`

	// Endpoint is a custom endpoint URL for S3-compatible storage.
	Endpoint string `mapstructure:"endpoint"`

	// Profile is the AWS credential profile name.
	Profile string `mapstructure:"profile"`

	// Distribution is the CloudFront distribution ID to invalidate.
	Distribution string `mapstructure:"distribution"`

	// RateLimit caps listing requests per second. Zero means unlimited.
	RateLimit float64 `mapstructure:"rate_limit"`

	// Quiet suppresses progress narration.
	Quiet bool `mapstructure:"quiet"`
}

// Load reads configuration from S3IDX_-prefixed environment variables and
// built-in defaults.
func Load() (*Config, error) {
	vp := viper.New()
	vp.SetEnvPrefix(envPrefix)
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	setDefaults(vp)

	var cfg Config
	if err := vp.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Prefix = strings.TrimRight(cfg.Prefix, "/")

	return &cfg, nil
}

func setDefaults(vp *viper.Viper) {
	// Register keys so AutomaticEnv picks them up during Unmarshal.
	vp.SetDefault("bucket", "")
	vp.SetDefault("prefix", "")
	vp.SetDefault("region", "")
	vp.SetDefault("endpoint", "")
	vp.SetDefault("profile", "")
	vp.SetDefault("distribution", "")
	vp.SetDefault("rate_limit", 0.0)
	vp.SetDefault("quiet", false)
}
