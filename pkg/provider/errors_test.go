package provider

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProviderErrorFormat(t *testing.T) {
	err := &ProviderError{
		Op:       "PutObject",
		Provider: ProviderS3,
		Bucket:   "my-bucket",
		Key:      "docs/index.html",
		Err:      ErrAccessDenied,
	}

	msg := err.Error()
	assert.Contains(t, msg, "PutObject")
	assert.Contains(t, msg, "my-bucket")
	assert.Contains(t, msg, "docs/index.html")
}

func TestProviderErrorUnwrap(t *testing.T) {
	err := &ProviderError{Op: "List", Err: ErrThrottled}

	assert.ErrorIs(t, err, ErrThrottled)
	assert.True(t, IsThrottled(err))
	assert.True(t, IsThrottled(fmt.Errorf("outer: %w", err)))
}

func TestSentinelHelpers(t *testing.T) {
	assert.True(t, IsNotFound(ErrNotFound))
	assert.True(t, IsAccessDenied(ErrAccessDenied))
	assert.True(t, IsBucketNotFound(ErrBucketNotFound))
	assert.True(t, IsInvalidCredentials(ErrInvalidCredentials))
	assert.True(t, IsProviderUnavailable(ErrProviderUnavailable))
	assert.True(t, IsIntegrityMismatch(ErrIntegrityMismatch))

	assert.False(t, IsNotFound(errors.New("other")))
	assert.False(t, IsIntegrityMismatch(nil))
}
