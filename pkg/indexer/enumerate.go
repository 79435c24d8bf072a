package indexer

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/mhagander/s3indexbuilder/pkg/provider"
)

// EnumerateOptions configures a full-prefix enumeration.
type EnumerateOptions struct {
	// Prefix restricts enumeration to keys under this prefix.
	// Empty string enumerates the whole bucket.
	Prefix string

	// RateLimit caps listing requests per second. Zero means unlimited.
	RateLimit float64
}

// Enumerate drains the provider's paginated listing into a single slice.
//
// Directory completion needs global knowledge of all keys, so the sequence
// is materialized before tree construction begins. Enumeration is
// forward-only and single-pass; any page failure aborts with no partial
// result, before any mutation has happened.
func Enumerate(ctx context.Context, p provider.Provider, opts EnumerateOptions) ([]provider.ObjectSummary, error) {
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	var records []provider.ObjectSummary
	var token string

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		result, err := p.List(ctx, provider.ListOptions{
			Prefix:            opts.Prefix,
			ContinuationToken: token,
		})
		if err != nil {
			return nil, err
		}

		records = append(records, result.Objects...)

		if !result.IsTruncated || result.ContinuationToken == "" {
			return records, nil
		}
		token = result.ContinuationToken
	}
}
