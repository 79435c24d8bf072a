package cmd

import (
	"errors"
	"fmt"
	"strings"
)

// URI parsing errors
var (
	// ErrInvalidURI indicates the URI could not be parsed.
	ErrInvalidURI = errors.New("invalid URI")

	// ErrUnsupportedProvider indicates the URI scheme is not supported.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrMissingBucket indicates the URI is missing a bucket name.
	ErrMissingBucket = errors.New("missing bucket name")
)

// ObjectURI represents a parsed storage URI.
//
// Example URIs:
//   - s3://bucket
//   - s3://bucket/prefix
//   - s3://bucket/prefix/
type ObjectURI struct {
	// Provider is the storage provider (e.g., "s3").
	Provider string

	// Bucket is the bucket name.
	Bucket string

	// Prefix is the path prefix, with trailing separators stripped.
	// May be empty for bucket root.
	Prefix string
}

// String returns the URI in canonical form.
func (u *ObjectURI) String() string {
	if u.Prefix != "" {
		return fmt.Sprintf("%s://%s/%s/", u.Provider, u.Bucket, u.Prefix)
	}
	return fmt.Sprintf("%s://%s/", u.Provider, u.Bucket)
}

// ParseURI parses a storage URI into its components.
//
// Returns an error if the URI is malformed or uses an unsupported provider.
func ParseURI(uri string) (*ObjectURI, error) {
	if uri == "" {
		return nil, fmt.Errorf("%w: empty URI", ErrInvalidURI)
	}

	schemeEnd := strings.Index(uri, "://")
	if schemeEnd == -1 {
		return nil, fmt.Errorf("%w: missing scheme (expected s3://...)", ErrInvalidURI)
	}

	providerName := strings.ToLower(uri[:schemeEnd])
	if providerName != "s3" {
		return nil, fmt.Errorf("%w: %s (supported: s3)", ErrUnsupportedProvider, providerName)
	}

	remainder := uri[schemeEnd+3:]
	if remainder == "" {
		return nil, fmt.Errorf("%w: in %s", ErrMissingBucket, uri)
	}

	var bucket, prefix string
	slashIdx := strings.Index(remainder, "/")
	if slashIdx == -1 {
		bucket = remainder
	} else {
		bucket = remainder[:slashIdx]
		prefix = remainder[slashIdx+1:]
	}

	if bucket == "" {
		return nil, fmt.Errorf("%w: in %s", ErrMissingBucket, uri)
	}

	return &ObjectURI{
		Provider: providerName,
		Bucket:   bucket,
		Prefix:   strings.TrimRight(prefix, "/"),
	}, nil
}
