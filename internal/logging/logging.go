// Package logging builds the zap logger shared by the CLI and the saga
// runtime, plus helpers for step and package log fields.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap.Logger. CI environments (CI=true, GITHUB_ACTIONS or
// GITLAB_CI set) get a JSON encoder; everything else gets a console
// encoder.
func New(verbose bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg := zap.NewProductionConfig()
	if !isCI() {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

// isCI mirrors the orchestrator's isTestEnvironment style of plain
// env-var sniffing.
func isCI() bool {
	if strings.EqualFold(os.Getenv("CI"), "true") {
		return true
	}
	return os.Getenv("GITHUB_ACTIONS") != "" || os.Getenv("GITLAB_CI") != ""
}

// StepFields returns the zap fields for a saga step's log line.
func StepFields(step string) []zap.Field {
	return []zap.Field{zap.String("step", step)}
}

// PackageFields returns the zap fields attached to a log line about one
// package's release.
func PackageFields(pkg, oldVersion, newVersion string) []zap.Field {
	return []zap.Field{
		zap.String("package", pkg),
		zap.String("from_version", oldVersion),
		zap.String("to_version", newVersion),
	}
}
