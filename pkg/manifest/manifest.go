// Package manifest provides loading and validation of reindex job manifests.
//
// A job manifest is a YAML or JSON file that configures all aspects of a
// reindex run: storage connection, index scope, and cache invalidation.
//
// Manifests are validated against a JSON Schema to ensure correctness before
// execution. The schema enforces strict typing and disallows unknown
// properties.
//
// Example manifest (YAML):
//
//	version: "1.0"
//	connection:
//	  bucket: my-download-bucket
//	  region: eu-north-1
//	index:
//	  prefix: releases
//	  excludes:
//	    - "**/.well-known"
//	cache:
//	  distribution: E2EXAMPLE123
package manifest

// Manifest represents a validated reindex job manifest.
//
// Required fields are Version and Connection. Index, Cache and Output are
// optional with sensible defaults.
type Manifest struct {
	// Schema is an optional JSON Schema reference for editor support.
	Schema string `json:"$schema,omitempty" yaml:"$schema,omitempty"`

	// Version is the manifest schema version. Must be "1.0".
	Version string `json:"version" yaml:"version"`

	// Connection configures the storage provider.
	Connection ConnectionConfig `json:"connection" yaml:"connection"`

	// Index configures the reindex scope (optional).
	Index IndexConfig `json:"index,omitempty" yaml:"index,omitempty"`

	// Cache configures downstream cache invalidation (optional).
	Cache CacheConfig `json:"cache,omitempty" yaml:"cache,omitempty"`

	// Output configures decision record output (optional).
	Output OutputConfig `json:"output,omitempty" yaml:"output,omitempty"`
}

// ConnectionConfig configures the storage provider connection.
type ConnectionConfig struct {
	// Bucket is the bucket whose listings are maintained.
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region (e.g., "us-east-1"). Optional.
	Region string `json:"region,omitempty" yaml:"region,omitempty"`

	// Endpoint is a custom endpoint URL for S3-compatible storage. Optional.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// Profile is the AWS credential profile name. Optional.
	Profile string `json:"profile,omitempty" yaml:"profile,omitempty"`
}

// IndexConfig configures what gets reindexed and how.
type IndexConfig struct {
	// Prefix restricts the run to keys under this path prefix.
	// Trailing separators are stripped. Optional; empty means the whole
	// bucket.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Excludes are glob patterns for directories to leave untouched.
	Excludes []string `json:"excludes,omitempty" yaml:"excludes,omitempty"`

	// RateLimit caps listing requests per second. Zero means unlimited.
	RateLimit float64 `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
}

// CacheConfig configures downstream cache invalidation.
type CacheConfig struct {
	// Distribution is the CloudFront distribution ID to invalidate.
	// Empty skips invalidation entirely.
	Distribution string `json:"distribution,omitempty" yaml:"distribution,omitempty"`
}

// OutputConfig configures decision record output.
type OutputConfig struct {
	// Destination is where JSONL records go: "stdout", "none", or a
	// "file:" path. Optional.
	Destination string `json:"destination,omitempty" yaml:"destination,omitempty"`

	// Progress controls progress narration. Optional; defaults to true.
	Progress *bool `json:"progress,omitempty" yaml:"progress,omitempty"`
}

// Defaults for optional manifest fields.
const (
	// DefaultDestination is the default decision record destination.
	DefaultDestination = "none"

	// DefaultProgress is the default value for progress narration.
	DefaultProgress = true
)

// ApplyDefaults fills in default values for optional fields.
//
// This should be called after loading and validating the manifest to ensure
// all optional fields have sensible values.
func (m *Manifest) ApplyDefaults() {
	if m.Output.Destination == "" {
		m.Output.Destination = DefaultDestination
	}
	if m.Output.Progress == nil {
		defaultProgress := DefaultProgress
		m.Output.Progress = &defaultProgress
	}
}

// ProgressEnabled returns whether progress narration should be emitted.
// Returns the configured value, or DefaultProgress if not set.
func (o *OutputConfig) ProgressEnabled() bool {
	if o.Progress == nil {
		return DefaultProgress
	}
	return *o.Progress
}
