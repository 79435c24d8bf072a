package indexer

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhagander/s3indexbuilder/pkg/provider"
)

// pagedProvider implements provider.Provider, serving pre-built pages in
// sequence to exercise continuation-token draining.
type pagedProvider struct {
	pages     [][]provider.ObjectSummary
	listErr   error
	errOnPage int
	calls     int
	prefixes  []string
}

func (p *pagedProvider) List(ctx context.Context, opts provider.ListOptions) (*provider.ListResult, error) {
	p.prefixes = append(p.prefixes, opts.Prefix)

	page := 0
	if opts.ContinuationToken != "" {
		n, err := strconv.Atoi(opts.ContinuationToken)
		if err != nil {
			return nil, err
		}
		page = n
	}
	p.calls++

	if p.listErr != nil && page == p.errOnPage {
		return nil, p.listErr
	}

	result := &provider.ListResult{Objects: p.pages[page]}
	if page < len(p.pages)-1 {
		result.IsTruncated = true
		result.ContinuationToken = strconv.Itoa(page + 1)
	}
	return result, nil
}

func (p *pagedProvider) Close() error { return nil }

func TestEnumerateDrainsAllPages(t *testing.T) {
	p := &pagedProvider{
		pages: [][]provider.ObjectSummary{
			{obj("a.txt", 1), obj("b.txt", 2)},
			{obj("c.txt", 3)},
			{obj("d.txt", 4)},
		},
	}

	records, err := Enumerate(context.Background(), p, EnumerateOptions{})
	require.NoError(t, err)

	require.Len(t, records, 4)
	assert.Equal(t, "a.txt", records[0].Key)
	assert.Equal(t, "d.txt", records[3].Key)
	assert.Equal(t, 3, p.calls)
}

func TestEnumerateSinglePage(t *testing.T) {
	p := &pagedProvider{
		pages: [][]provider.ObjectSummary{
			{obj("only.txt", 1)},
		},
	}

	records, err := Enumerate(context.Background(), p, EnumerateOptions{})
	require.NoError(t, err)

	assert.Len(t, records, 1)
	assert.Equal(t, 1, p.calls)
}

func TestEnumerateEmptyBucket(t *testing.T) {
	p := &pagedProvider{
		pages: [][]provider.ObjectSummary{nil},
	}

	records, err := Enumerate(context.Background(), p, EnumerateOptions{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestEnumeratePassesPrefix(t *testing.T) {
	p := &pagedProvider{
		pages: [][]provider.ObjectSummary{
			{obj("releases/v1/pkg.tar.gz", 1)},
		},
	}

	_, err := Enumerate(context.Background(), p, EnumerateOptions{Prefix: "releases"})
	require.NoError(t, err)
	assert.Equal(t, []string{"releases"}, p.prefixes)
}

func TestEnumerateAbortsOnPageError(t *testing.T) {
	boom := errors.New("listing failed")
	p := &pagedProvider{
		pages: [][]provider.ObjectSummary{
			{obj("a.txt", 1)},
			{obj("b.txt", 2)},
		},
		listErr:   boom,
		errOnPage: 1,
	}

	records, err := Enumerate(context.Background(), p, EnumerateOptions{})
	require.ErrorIs(t, err, boom)
	assert.Nil(t, records, "no partial result on failure")
}

func TestEnumerateRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &pagedProvider{
		pages: [][]provider.ObjectSummary{{obj("a.txt", 1)}},
	}

	_, err := Enumerate(ctx, p, EnumerateOptions{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, p.calls)
}

func TestEnumerateWithRateLimit(t *testing.T) {
	// A generous limit should not change results, only pace calls.
	p := &pagedProvider{
		pages: [][]provider.ObjectSummary{
			{obj("a.txt", 1)},
			{obj("b.txt", 2)},
		},
	}

	records, err := Enumerate(context.Background(), p, EnumerateOptions{RateLimit: 1000})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
