// Package invalidation defines the cache invalidation abstraction.
//
// Invalidators receive the deduplicated set of directory paths touched by a
// reconcile run and ask the downstream cache layer to drop them. The caller
// supplies a per-run reference so repeated runs are never deduplicated by
// the cache layer.
package invalidation

import (
	"context"
	"errors"
	"fmt"
)

// Invalidator issues batch cache invalidations by path.
type Invalidator interface {
	// Invalidate requests invalidation of the given paths.
	//
	// Paths are absolute with a leading slash (e.g. "/photos/2019/").
	// The reference must be unique per run; implementations that split the
	// batch into multiple requests derive per-request references from it.
	Invalidate(ctx context.Context, paths []string, reference string) error

	// Close releases any resources held by the invalidator.
	Close() error
}

// Sentinel errors for invalidation operations.
var (
	// ErrDistributionNotFound indicates the distribution does not exist.
	ErrDistributionNotFound = errors.New("distribution not found")

	// ErrAccessDenied indicates insufficient permissions.
	ErrAccessDenied = errors.New("access denied")

	// ErrQuotaExceeded indicates the cache layer rejected the request due to
	// path-count or rate quotas.
	ErrQuotaExceeded = errors.New("invalidation quota exceeded")

	// ErrServiceUnavailable indicates the cache service is unavailable.
	ErrServiceUnavailable = errors.New("invalidation service unavailable")
)

// InvalidationError wraps cache-layer errors with context.
type InvalidationError struct {
	// Distribution is the cache distribution identifier.
	Distribution string

	// Paths is the number of paths in the failing request.
	Paths int

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *InvalidationError) Error() string {
	return fmt.Sprintf("invalidate %s (%d paths): %v", e.Distribution, e.Paths, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *InvalidationError) Unwrap() error {
	return e.Err
}

// IsQuotaExceeded returns true if the error indicates a quota rejection.
func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

// IsDistributionNotFound returns true if the error indicates a missing distribution.
func IsDistributionNotFound(err error) bool {
	return errors.Is(err, ErrDistributionNotFound)
}
