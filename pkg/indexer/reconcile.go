package indexer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/mhagander/s3indexbuilder/pkg/output"
	"github.com/mhagander/s3indexbuilder/pkg/provider"
)

// Action is a per-directory reconcile outcome.
type Action string

const (
	// ActionCreate writes a listing where none existed.
	ActionCreate Action = "create"

	// ActionUpdate overwrites a listing whose digest changed.
	ActionUpdate Action = "update"

	// ActionDelete removes a listing whose directory no longer exists.
	ActionDelete Action = "delete"

	// ActionSkip leaves an up-to-date listing untouched.
	ActionSkip Action = "skip"
)

// Store is the storage surface the reconciler mutates.
type Store interface {
	provider.IntegrityPutter
	provider.ObjectDeleter
}

// Config configures a reconcile run.
type Config struct {
	// DryRun computes and reports all decisions without writing, deleting
	// or registering invalidations for flush.
	DryRun bool

	// Excludes are doublestar patterns matched against directory paths.
	// Matching directories are left entirely untouched: no write, no
	// delete, no invalidation.
	Excludes []string
}

// Validate checks that the exclude patterns are well-formed.
func (c *Config) Validate() error {
	for _, pat := range c.Excludes {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("invalid exclude pattern %q", pat)
		}
	}
	return nil
}

// Summary contains aggregate statistics from a completed reconcile run.
type Summary struct {
	// Directories is the number of content directories considered,
	// after ancestor completion.
	Directories int

	// Created, Updated, Deleted and Skipped count per-directory outcomes.
	Created int
	Updated int
	Deleted int
	Skipped int

	// Excluded counts directories left untouched by exclude patterns.
	Excluded int

	// InvalidationPaths is the deduplicated, sorted set of cache paths
	// touched by create/update/delete outcomes.
	InvalidationPaths []string

	// Duration is the total time spent reconciling.
	Duration time.Duration
}

// Changed reports whether the run performed (or, dry-run, would perform)
// any mutation.
func (s *Summary) Changed() bool {
	return s.Created+s.Updated+s.Deleted > 0
}

// Reconciler drives one pass of listing reconciliation over a completed
// tree.
//
// Reconciler is safe for single use only. Create a new Reconciler for each
// run.
type Reconciler struct {
	tree   *Tree
	store  Store
	config Config
	logger *zap.Logger
	writer output.Writer

	invalidations map[string]struct{}
}

// New creates a reconciler for the given tree.
//
// The tree must already be completed (see Tree.Complete). Use WithLogger
// and WithWriter to attach observability after creation.
func New(tree *Tree, store Store, cfg Config) *Reconciler {
	return &Reconciler{
		tree:          tree,
		store:         store,
		config:        cfg,
		logger:        zap.NewNop(),
		writer:        output.Discard{},
		invalidations: make(map[string]struct{}),
	}
}

// WithLogger sets the logger decisions are narrated on.
// Returns the reconciler for method chaining.
func (r *Reconciler) WithLogger(l *zap.Logger) *Reconciler {
	r.logger = l
	return r
}

// WithWriter sets the JSONL writer decision records are emitted on.
// Returns the reconciler for method chaining.
func (r *Reconciler) WithWriter(w output.Writer) *Reconciler {
	r.writer = w
	return r
}

// Run executes the reconcile pass and returns summary statistics.
//
// The delete pass runs first, over listing documents whose directory is
// absent from the content mapping; it is disjoint from the create/update/
// skip pass over content directories. Any storage error aborts the run
// immediately: objects already written stay written, there is no rollback
// and no retry.
func (r *Reconciler) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{Directories: len(r.tree.Contents)}

	if err := r.deleteStale(ctx, summary); err != nil {
		return nil, err
	}

	for _, dir := range r.tree.Directories() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if r.excluded(dir) {
			summary.Excluded++
			r.logger.Debug("Directory excluded", zap.String("directory", dir))
			continue
		}
		if err := r.reconcileDir(ctx, dir, summary); err != nil {
			return nil, err
		}
	}

	summary.InvalidationPaths = r.paths()
	summary.Duration = time.Since(start)
	return summary, nil
}

// deleteStale removes listing documents for directories that no longer
// exist in the content mapping.
func (r *Reconciler) deleteStale(ctx context.Context, summary *Summary) error {
	stale := make([]string, 0)
	for dir := range r.tree.Listings {
		if _, ok := r.tree.Contents[dir]; !ok {
			stale = append(stale, dir)
		}
	}
	sort.Strings(stale)

	for _, dir := range stale {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.excluded(dir) {
			summary.Excluded++
			r.logger.Debug("Stale directory excluded", zap.String("directory", dir))
			continue
		}

		key := ListingKey(dir)
		if !r.config.DryRun {
			if err := r.store.DeleteObject(ctx, key); err != nil {
				r.writeError(ctx, output.ErrCodeDelete, err, key)
				return fmt.Errorf("delete stale listing: %w", err)
			}
		}

		summary.Deleted++
		r.register(dir)
		r.logger.Info("Removed stale listing",
			zap.String("directory", dir),
			zap.String("key", key),
			zap.Bool("dry_run", r.config.DryRun))
		r.writeAction(ctx, &output.ActionRecord{
			Action:         string(ActionDelete),
			Directory:      dir,
			Key:            key,
			PreviousDigest: r.tree.Listings[dir].ETag,
			DryRun:         r.config.DryRun,
		})
	}

	return nil
}

// reconcileDir renders dir's listing and applies the skip/create/update
// decision.
func (r *Reconciler) reconcileDir(ctx context.Context, dir string, summary *Summary) error {
	listing := Render(r.tree, dir)
	digest := listing.HexDigest()
	key := ListingKey(dir)

	existing, exists := r.tree.Listings[dir]
	action := ActionCreate
	if exists {
		if existing.ETag == digest {
			summary.Skipped++
			r.logger.Debug("Listing up to date",
				zap.String("directory", dir),
				zap.String("digest", digest))
			r.writeAction(ctx, &output.ActionRecord{
				Action:    string(ActionSkip),
				Directory: dir,
				Key:       key,
				Digest:    digest,
			})
			return nil
		}
		action = ActionUpdate
	}

	if !r.config.DryRun {
		if err := r.store.PutObject(ctx, key, listing.Body, listing.Digest[:], ListingContentType); err != nil {
			code := output.ErrCodeWrite
			if provider.IsIntegrityMismatch(err) {
				code = output.ErrCodeIntegrityMismatch
			}
			r.writeError(ctx, code, err, key)
			return fmt.Errorf("write listing: %w", err)
		}
	}

	switch action {
	case ActionCreate:
		summary.Created++
		r.logger.Info("Generated new listing",
			zap.String("directory", dir),
			zap.String("key", key),
			zap.String("digest", digest),
			zap.Bool("dry_run", r.config.DryRun))
	case ActionUpdate:
		summary.Updated++
		r.logger.Info("Updated listing",
			zap.String("directory", dir),
			zap.String("key", key),
			zap.String("digest_from", existing.ETag),
			zap.String("digest_to", digest),
			zap.Bool("dry_run", r.config.DryRun))
	}

	r.register(dir)
	r.writeAction(ctx, &output.ActionRecord{
		Action:         string(action),
		Directory:      dir,
		Key:            key,
		PreviousDigest: existing.ETag,
		Digest:         digest,
		Size:           int64(len(listing.Body)),
		DryRun:         r.config.DryRun,
	})
	return nil
}

// register adds dir's cache path to the invalidation set.
func (r *Reconciler) register(dir string) {
	r.invalidations[InvalidationPath(dir)] = struct{}{}
}

// paths returns the accumulated invalidation paths in sorted order.
func (r *Reconciler) paths() []string {
	paths := make([]string, 0, len(r.invalidations))
	for p := range r.invalidations {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// excluded reports whether dir matches any exclude pattern.
// Malformed patterns are rejected by Config.Validate, so Match errors
// cannot occur here; a pattern that fails to match is simply not applied.
func (r *Reconciler) excluded(dir string) bool {
	for _, pat := range r.config.Excludes {
		if ok, err := doublestar.Match(pat, dir); err == nil && ok {
			return true
		}
	}
	return false
}

// writeAction emits a decision record, best effort.
func (r *Reconciler) writeAction(ctx context.Context, rec *output.ActionRecord) {
	if err := r.writer.WriteAction(ctx, rec); err != nil {
		r.logger.Warn("Failed to write action record", zap.Error(err))
	}
}

// writeError emits an error record, best effort.
func (r *Reconciler) writeError(ctx context.Context, code string, err error, key string) {
	werr := r.writer.WriteError(ctx, &output.ErrorRecord{
		Code:    code,
		Message: err.Error(),
		Key:     key,
	})
	if werr != nil {
		r.logger.Warn("Failed to write error record", zap.Error(werr))
	}
}
