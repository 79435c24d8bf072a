// Package cmd implements the s3indexbuilder command-line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mhagander/s3indexbuilder/internal/observability"
)

var rootCmd = &cobra.Command{
	Use:   "s3indexbuilder",
	Short: "Maintain index.html directory listings for an S3 bucket",
	Long: `s3indexbuilder maintains synthetic index.html directory-listing pages
for an object-storage bucket that has no native directory listing.

It reconstructs the directory tree from the flat key listing, renders one
listing document per directory, writes only the documents whose content
changed, removes listings for directories that no longer exist, and issues
a single CloudFront invalidation batch for every path it touched.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var rootVerbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if rootVerbose {
			observability.SetCLILevel(zapcore.DebugLevel)
		}
	}
}

// cliError carries a process exit code alongside the message.
type cliError struct {
	code int
	msg  string
	err  error
}

// Error implements the error interface.
func (e *cliError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *cliError) Unwrap() error {
	return e.err
}

// exitError creates an error that will cause the CLI to exit with the given code.
func exitError(code int, message string, err error) error {
	return &cliError{code: code, msg: message, err: err}
}

// Execute runs the root command and returns the process exit code.
//
// SIGINT/SIGTERM cancel the command context; in-flight storage calls abort
// and the run fails fast, matching the no-partial-rollback model.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer observability.Sync()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		observability.CLILogger.Error("Command failed", zap.Error(err))

		var ce *cliError
		if errors.As(err, &ce) {
			return ce.code
		}
		return 1
	}
	return 0
}
