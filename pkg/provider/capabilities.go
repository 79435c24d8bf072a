package provider

import "context"

// Optional provider capability interfaces.
//
// These interfaces are used for feature detection (type assertions). The core
// Provider interface remains intentionally small.

// IntegrityPutter can create/overwrite objects with end-to-end integrity
// verification.
//
// The digest is the raw (unencoded) MD5 of body. Implementations must hand
// it to the backend so the backend can verify the received bytes, and must
// return ErrIntegrityMismatch if the backend rejects the digest.
type IntegrityPutter interface {
	PutObject(ctx context.Context, key string, body []byte, digest []byte, contentType string) error
}

// ObjectDeleter can delete objects.
//
// Deleting a key that does not exist is not an error.
type ObjectDeleter interface {
	DeleteObject(ctx context.Context, key string) error
}
