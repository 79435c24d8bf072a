package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mhagander/s3indexbuilder/internal/config"
	"github.com/mhagander/s3indexbuilder/internal/observability"
	"github.com/mhagander/s3indexbuilder/pkg/indexer"
	"github.com/mhagander/s3indexbuilder/pkg/invalidation"
	"github.com/mhagander/s3indexbuilder/pkg/invalidation/cloudfront"
	"github.com/mhagander/s3indexbuilder/pkg/manifest"
	"github.com/mhagander/s3indexbuilder/pkg/output"
	"github.com/mhagander/s3indexbuilder/pkg/provider"
	"github.com/mhagander/s3indexbuilder/pkg/provider/s3"
)

var buildCmd = &cobra.Command{
	Use:   "build [s3://bucket[/prefix/] | bucket [prefix]]",
	Short: "Reconcile directory listings for a bucket",
	Long: `Reconcile index.html directory listings for a bucket.

The bucket and prefix come from the URI (or bare bucket-name) argument, a
job manifest (--job), or S3IDX_-prefixed environment variables; flags take
precedence.

Example:
  s3indexbuilder build s3://my-download-bucket/
  s3indexbuilder build my-download-bucket releases/
  s3indexbuilder build s3://my-download-bucket/releases/ --distribution E2EXAMPLE123
  s3indexbuilder build --job reindex.yaml --dry-run
  s3indexbuilder build s3://my-download-bucket/ --exclude '**/.well-known' --quiet`,
	Args: cobra.MaximumNArgs(2),
	RunE: runBuild,
}

var (
	buildJobPath      string
	buildPrefix       string
	buildRegion       string
	buildProfile      string
	buildEndpoint     string
	buildDistribution string
	buildExcludes     []string
	buildRateLimit    float64
	buildOutput       string
	buildQuiet        bool
	buildDryRun       bool
)

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&buildJobPath, "job", "j", "", "Path to job manifest")
	buildCmd.Flags().StringVar(&buildPrefix, "prefix", "", "Path prefix to operate on (trailing separators stripped)")
	buildCmd.Flags().StringVarP(&buildRegion, "region", "r", "", "AWS region")
	buildCmd.Flags().StringVarP(&buildProfile, "profile", "p", "", "AWS profile")
	buildCmd.Flags().StringVar(&buildEndpoint, "endpoint", "", "Custom S3 endpoint")
	buildCmd.Flags().StringVar(&buildDistribution, "distribution", "", "CloudFront distribution ID to invalidate")
	buildCmd.Flags().StringArrayVar(&buildExcludes, "exclude", nil, "Glob pattern for directories to leave untouched (repeatable)")
	buildCmd.Flags().Float64Var(&buildRateLimit, "rate-limit", 0, "Max listing requests per second (0 = unlimited)")
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "Decision record destination (none|stdout|file:<path>)")
	buildCmd.Flags().BoolVarP(&buildQuiet, "quiet", "q", false, "Suppress progress narration")
	buildCmd.Flags().BoolVar(&buildDryRun, "dry-run", false, "Compute and report decisions without writing")
}

// buildSettings is the fully resolved configuration for one run.
type buildSettings struct {
	bucket       string
	prefix       string
	region       string
	profile      string
	endpoint     string
	distribution string
	excludes     []string
	rateLimit    float64
	destination  string
	quiet        bool
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	settings, err := resolveBuildSettings(cmd, args)
	if err != nil {
		return err
	}

	if settings.quiet {
		observability.SetCLILevel(zapcore.WarnLevel)
	}

	if settings.bucket == "" {
		return exitError(foundry.ExitInvalidArgument, "No bucket specified",
			errors.New("pass an s3:// URI, a --job manifest, or set S3IDX_BUCKET"))
	}

	reconCfg := indexer.Config{
		DryRun:   buildDryRun,
		Excludes: settings.excludes,
	}
	if err := reconCfg.Validate(); err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid exclude patterns", err)
	}

	jobID := uuid.New().String()

	prov, err := s3.New(ctx, s3.Config{
		Bucket:   settings.bucket,
		Region:   settings.region,
		Endpoint: settings.endpoint,
		Profile:  settings.profile,
		// Force path-style URLs when custom endpoint is set.
		// S3-compatible services (moto, MinIO, etc.) require this.
		ForcePathStyle: settings.endpoint != "",
	})
	if err != nil {
		observability.CLILogger.Error("Failed to create provider", zap.Error(err))
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to connect to storage provider", err)
	}
	defer func() { _ = prov.Close() }()

	observability.CLILogger.Info("Starting reindex",
		zap.String("job_id", jobID),
		zap.String("bucket", settings.bucket),
		zap.String("prefix", settings.prefix),
		zap.Bool("dry_run", buildDryRun))

	records, err := indexer.Enumerate(ctx, prov, indexer.EnumerateOptions{
		Prefix:    settings.prefix,
		RateLimit: settings.rateLimit,
	})
	if err != nil {
		observability.CLILogger.Error("Enumeration failed", zap.Error(err))
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to enumerate bucket", err)
	}

	tree := indexer.Split(records)
	if len(tree.Contents) == 0 {
		observability.CLILogger.Info("No files found, nothing to do",
			zap.String("bucket", settings.bucket),
			zap.String("prefix", settings.prefix))
		return nil
	}
	tree.Complete(settings.prefix)

	writer, cleanup, err := createWriter(settings, jobID)
	if err != nil {
		observability.CLILogger.Error("Failed to create writer", zap.Error(err))
		return exitError(foundry.ExitFileWriteError, "Failed to create output", err)
	}
	defer cleanup()

	rec := indexer.New(tree, prov, reconCfg).
		WithLogger(observability.CLILogger).
		WithWriter(writer)

	summary, err := rec.Run(ctx)
	if err != nil {
		return classifyReconcileError(err)
	}

	if err := writer.WriteSummary(ctx, &output.SummaryRecord{
		Directories:       summary.Directories,
		Created:           summary.Created,
		Updated:           summary.Updated,
		Deleted:           summary.Deleted,
		Skipped:           summary.Skipped,
		Excluded:          summary.Excluded,
		InvalidationPaths: summary.InvalidationPaths,
		Duration:          summary.Duration,
		DurationHuman:     summary.Duration.Round(time.Millisecond).String(),
		DryRun:            buildDryRun,
	}); err != nil {
		observability.CLILogger.Warn("Failed to write summary record", zap.Error(err))
	}

	observability.CLILogger.Info("Reconcile completed",
		zap.String("job_id", jobID),
		zap.Int("directories", summary.Directories),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("deleted", summary.Deleted),
		zap.Int("skipped", summary.Skipped),
		zap.Int("excluded", summary.Excluded),
		zap.Duration("duration", summary.Duration))

	return flushInvalidations(ctx, settings, summary, jobID, writer)
}

// flushInvalidations issues the single end-of-run invalidation batch.
//
// By this point all storage mutations are committed, so a failure here
// leaves a consistent origin with a stale cache; it is reported distinctly.
func flushInvalidations(ctx context.Context, settings *buildSettings, summary *indexer.Summary, jobID string, writer output.Writer) error {
	if len(summary.InvalidationPaths) == 0 || settings.distribution == "" {
		return nil
	}
	if buildDryRun {
		observability.CLILogger.Info("Dry run: skipping cache invalidation",
			zap.Int("paths", len(summary.InvalidationPaths)))
		return nil
	}

	inv, err := cloudfront.New(ctx, settings.distribution, settings.profile)
	if err != nil {
		observability.CLILogger.Error("Failed to create invalidator", zap.Error(err))
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to connect to cache service", err)
	}
	defer func() { _ = inv.Close() }()

	if err := inv.Invalidate(ctx, summary.InvalidationPaths, jobID); err != nil {
		if werr := writer.WriteError(ctx, &output.ErrorRecord{
			Code:    output.ErrCodeInvalidation,
			Message: err.Error(),
		}); werr != nil {
			observability.CLILogger.Warn("Failed to write error record", zap.Error(werr))
		}
		observability.CLILogger.Error("Cache invalidation failed; listings at origin are correct but cached copies may be stale",
			zap.String("distribution", settings.distribution),
			zap.Int("paths", len(summary.InvalidationPaths)),
			zap.Error(err))
		if invalidation.IsQuotaExceeded(err) {
			return exitError(foundry.ExitExternalServiceUnavailable, "Cache invalidation quota exceeded", err)
		}
		return exitError(foundry.ExitExternalServiceUnavailable, "Cache invalidation failed", err)
	}

	observability.CLILogger.Info("Issued cache invalidation",
		zap.String("distribution", settings.distribution),
		zap.Int("paths", len(summary.InvalidationPaths)))
	return nil
}

// classifyReconcileError maps reconcile failures onto distinct reports.
func classifyReconcileError(err error) error {
	if provider.IsIntegrityMismatch(err) {
		observability.CLILogger.Error("Write integrity check failed, content was corrupted in transit", zap.Error(err))
		return exitError(foundry.ExitExternalServiceUnavailable, "Listing write failed integrity verification", err)
	}
	observability.CLILogger.Error("Reconcile failed", zap.Error(err))
	return exitError(foundry.ExitExternalServiceUnavailable, "Reconcile failed", err)
}

// resolveBuildSettings merges flags, the optional manifest, and environment
// defaults. Precedence: flags > manifest > environment.
func resolveBuildSettings(cmd *cobra.Command, args []string) (*buildSettings, error) {
	envCfg, err := config.Load()
	if err != nil {
		return nil, exitError(foundry.ExitInvalidArgument, "Invalid environment configuration", err)
	}

	settings := &buildSettings{
		bucket:       envCfg.Bucket,
		prefix:       envCfg.Prefix,
		region:       envCfg.Region,
		profile:      envCfg.Profile,
		endpoint:     envCfg.Endpoint,
		distribution: envCfg.Distribution,
		rateLimit:    envCfg.RateLimit,
		quiet:        envCfg.Quiet,
		destination:  manifest.DefaultDestination,
	}

	if buildJobPath != "" {
		m, err := manifest.Load(buildJobPath)
		if err != nil {
			observability.CLILogger.Error("Failed to load manifest",
				zap.String("path", buildJobPath),
				zap.Error(err))
			return nil, exitError(foundry.ExitInvalidArgument, "Invalid manifest", err)
		}

		settings.bucket = m.Connection.Bucket
		settings.prefix = strings.TrimRight(m.Index.Prefix, "/")
		if m.Connection.Region != "" {
			settings.region = m.Connection.Region
		}
		if m.Connection.Profile != "" {
			settings.profile = m.Connection.Profile
		}
		if m.Connection.Endpoint != "" {
			settings.endpoint = m.Connection.Endpoint
		}
		if m.Cache.Distribution != "" {
			settings.distribution = m.Cache.Distribution
		}
		if len(m.Index.Excludes) > 0 {
			settings.excludes = m.Index.Excludes
		}
		if m.Index.RateLimit > 0 {
			settings.rateLimit = m.Index.RateLimit
		}
		settings.destination = m.Output.Destination
		if !m.Output.ProgressEnabled() {
			settings.quiet = true
		}
	}

	if len(args) > 0 {
		if strings.Contains(args[0], "://") {
			if len(args) > 1 {
				return nil, exitError(foundry.ExitInvalidArgument, "Too many arguments",
					errors.New("a URI argument already carries the prefix"))
			}
			parsed, err := ParseURI(args[0])
			if err != nil {
				observability.CLILogger.Error("Invalid URI", zap.String("uri", args[0]), zap.Error(err))
				return nil, exitError(foundry.ExitInvalidArgument, "Invalid URI", err)
			}
			settings.bucket = parsed.Bucket
			settings.prefix = parsed.Prefix
		} else {
			settings.bucket = args[0]
			if len(args) > 1 {
				settings.prefix = strings.TrimRight(args[1], "/")
			}
		}
	}

	// Explicit flags win over manifest and environment.
	if cmd.Flags().Changed("prefix") {
		settings.prefix = strings.TrimRight(buildPrefix, "/")
	}
	if cmd.Flags().Changed("region") {
		settings.region = buildRegion
	}
	if cmd.Flags().Changed("profile") {
		settings.profile = buildProfile
	}
	if cmd.Flags().Changed("endpoint") {
		settings.endpoint = buildEndpoint
	}
	if cmd.Flags().Changed("distribution") {
		settings.distribution = buildDistribution
	}
	if cmd.Flags().Changed("exclude") {
		settings.excludes = buildExcludes
	}
	if cmd.Flags().Changed("rate-limit") {
		settings.rateLimit = buildRateLimit
	}
	if cmd.Flags().Changed("output") {
		settings.destination = buildOutput
	}
	if buildQuiet {
		settings.quiet = true
	}

	return settings, nil
}

// createWriter creates a decision record writer from the resolved settings.
// Returns the writer, a cleanup function, and any error.
func createWriter(settings *buildSettings, jobID string) (output.Writer, func(), error) {
	dest := settings.destination

	switch dest {
	case "", "none":
		w := output.Discard{}
		return w, func() {}, nil
	case "stdout", "-":
		w := output.NewJSONLWriter(os.Stdout, jobID, settings.bucket)
		return w, func() { _ = w.Close() }, nil
	}

	path := dest
	if strings.HasPrefix(dest, "file:") {
		path = strings.TrimPrefix(dest, "file:")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file %s: %w", path, err)
	}

	w := output.NewJSONLWriter(f, jobID, settings.bucket)
	cleanup := func() {
		_ = w.Close()
		_ = f.Close()
	}
	return w, cleanup, nil
}
