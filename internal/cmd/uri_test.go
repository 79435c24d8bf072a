package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		name   string
		uri    string
		bucket string
		prefix string
	}{
		{"bucket only", "s3://my-bucket", "my-bucket", ""},
		{"bucket with slash", "s3://my-bucket/", "my-bucket", ""},
		{"bucket and prefix", "s3://my-bucket/releases", "my-bucket", "releases"},
		{"trailing slash stripped", "s3://my-bucket/releases/", "my-bucket", "releases"},
		{"nested prefix", "s3://my-bucket/a/b/c/", "my-bucket", "a/b/c"},
		{"uppercase scheme", "S3://my-bucket/x", "my-bucket", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := ParseURI(tt.uri)
			require.NoError(t, err)
			assert.Equal(t, "s3", u.Provider)
			assert.Equal(t, tt.bucket, u.Bucket)
			assert.Equal(t, tt.prefix, u.Prefix)
		})
	}
}

func TestParseURIErrors(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		wantErr error
	}{
		{"empty", "", ErrInvalidURI},
		{"no scheme", "my-bucket/prefix", ErrInvalidURI},
		{"unsupported scheme", "gs://bucket/x", ErrUnsupportedProvider},
		{"missing bucket", "s3://", ErrMissingBucket},
		{"empty bucket", "s3:///prefix", ErrMissingBucket},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseURI(tt.uri)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestObjectURIString(t *testing.T) {
	u := &ObjectURI{Provider: "s3", Bucket: "b", Prefix: "a/c"}
	assert.Equal(t, "s3://b/a/c/", u.String())

	u = &ObjectURI{Provider: "s3", Bucket: "b"}
	assert.Equal(t, "s3://b/", u.String())
}
