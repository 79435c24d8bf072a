// Package cloudfront implements the invalidation interface for Amazon CloudFront.
package cloudfront

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/aws/smithy-go"

	"github.com/mhagander/s3indexbuilder/pkg/invalidation"
)

// MaxPathsPerRequest is the CloudFront limit on paths per CreateInvalidation
// call. Batches larger than this are split into multiple requests.
const MaxPathsPerRequest = 3000

// Invalidator issues CloudFront invalidations for a single distribution.
type Invalidator struct {
	client       *cloudfront.Client
	distribution string
}

var _ invalidation.Invalidator = (*Invalidator)(nil)

// New creates a CloudFront invalidator using the SDK default credential chain.
//
// CloudFront is a global service; the profile is the only connection knob.
func New(ctx context.Context, distribution, profile string) (*Invalidator, error) {
	if distribution == "" {
		return nil, errors.New("cloudfront: distribution id is required")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, &invalidation.InvalidationError{Distribution: distribution, Err: err}
	}

	return &Invalidator{
		client:       cloudfront.NewFromConfig(awsCfg),
		distribution: distribution,
	}, nil
}

// pathBatch is one CreateInvalidation request's worth of paths.
type pathBatch struct {
	paths []string
	ref   string
}

// splitBatches splits paths into chunks of at most MaxPathsPerRequest.
// Each chunk after the first carries a suffixed caller reference, so no
// request is deduplicated against an earlier run or an earlier chunk.
func splitBatches(paths []string, reference string) []pathBatch {
	batches := make([]pathBatch, 0, (len(paths)+MaxPathsPerRequest-1)/MaxPathsPerRequest)

	for chunk := 0; len(paths) > 0; chunk++ {
		n := len(paths)
		if n > MaxPathsPerRequest {
			n = MaxPathsPerRequest
		}

		ref := reference
		if chunk > 0 {
			ref = fmt.Sprintf("%s-%d", reference, chunk)
		}

		batches = append(batches, pathBatch{paths: paths[:n], ref: ref})
		paths = paths[n:]
	}

	return batches
}

// Invalidate issues one CreateInvalidation call per chunk of at most
// MaxPathsPerRequest paths.
func (i *Invalidator) Invalidate(ctx context.Context, paths []string, reference string) error {
	for _, batch := range splitBatches(paths, reference) {
		_, err := i.client.CreateInvalidation(ctx, &cloudfront.CreateInvalidationInput{
			DistributionId: aws.String(i.distribution),
			InvalidationBatch: &types.InvalidationBatch{
				CallerReference: aws.String(batch.ref),
				Paths: &types.Paths{
					Quantity: aws.Int32(int32(len(batch.paths))),
					Items:    batch.paths,
				},
			},
		})
		if err != nil {
			return i.wrapError(len(batch.paths), err)
		}
	}

	return nil
}

// Close releases any resources held by the invalidator.
// The CloudFront client doesn't require explicit cleanup, but this satisfies the interface.
func (i *Invalidator) Close() error {
	return nil
}

// wrapError converts CloudFront errors to invalidation errors with sentinel errors.
func (i *Invalidator) wrapError(pathCount int, err error) error {
	wrapped := &invalidation.InvalidationError{
		Distribution: i.distribution,
		Paths:        pathCount,
		Err:          err,
	}

	var noSuchDistribution *types.NoSuchDistribution
	var tooMany *types.TooManyInvalidationsInProgress
	var batchTooLarge *types.BatchTooLarge
	var accessDenied *types.AccessDenied

	switch {
	case errors.As(err, &noSuchDistribution):
		wrapped.Err = invalidation.ErrDistributionNotFound
		return wrapped
	case errors.As(err, &tooMany), errors.As(err, &batchTooLarge):
		wrapped.Err = invalidation.ErrQuotaExceeded
		return wrapped
	case errors.As(err, &accessDenied):
		wrapped.Err = invalidation.ErrAccessDenied
		return wrapped
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchDistribution":
			wrapped.Err = invalidation.ErrDistributionNotFound
		case "TooManyInvalidationsInProgress", "BatchTooLarge", "Throttling":
			wrapped.Err = invalidation.ErrQuotaExceeded
		case "AccessDenied", "Forbidden":
			wrapped.Err = invalidation.ErrAccessDenied
		case "ServiceUnavailable", "InternalError":
			wrapped.Err = invalidation.ErrServiceUnavailable
		}
		return wrapped
	}

	errMsg := err.Error()
	switch {
	case strings.Contains(errMsg, "NoSuchDistribution"):
		wrapped.Err = invalidation.ErrDistributionNotFound
	case strings.Contains(errMsg, "TooManyInvalidationsInProgress") || strings.Contains(errMsg, "BatchTooLarge") || strings.Contains(errMsg, "429"):
		wrapped.Err = invalidation.ErrQuotaExceeded
	case strings.Contains(errMsg, "AccessDenied") || strings.Contains(errMsg, "403"):
		wrapped.Err = invalidation.ErrAccessDenied
	case strings.Contains(errMsg, "ServiceUnavailable") || strings.Contains(errMsg, "503"):
		wrapped.Err = invalidation.ErrServiceUnavailable
	}

	return wrapped
}
