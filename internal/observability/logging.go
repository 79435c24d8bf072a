// Package observability provides the package-global CLI logger.
//
// CLI commands narrate progress and decisions on stderr so stdout stays
// reserved for record output (JSONL).
package observability

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// cliLevel is the dynamic level shared by all CLI loggers.
var cliLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

// CLILogger is the logger used by CLI commands.
//
// It writes human-readable console output to stderr. Never log to stdout:
// stdout is reserved for JSONL records.
var CLILogger = newCLILogger()

func newCLILogger() *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		cliLevel,
	)
	return zap.New(core)
}

// SetCLILevel adjusts the minimum level for CLI log output.
//
// Quiet mode raises the level to Warn, which suppresses progress narration
// but never the decision logic itself.
func SetCLILevel(level zapcore.Level) {
	cliLevel.SetLevel(level)
}

// Sync flushes any buffered log entries. Called before process exit.
func Sync() {
	_ = CLILogger.Sync()
}
