// Package logging constructs the zap logger used by cmd/harmonysched.
// The core packages never import this package directly: builder and
// solver accept a *zap.Logger passed in by the caller, defaulting to
// zap.NewNop() when nil, and validator and kpi do no logging at all, so
// the logging backend stays an external, swappable concern per spec.md §1.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures the logger built by New.
type Options struct {
	// Level is one of "debug", "info", "warn", "error". Defaults to
	// "info" if empty.
	Level string
	// Development enables human-friendly console output instead of JSON;
	// production deployments want JSON for log aggregation.
	Development bool
}

// New builds a *zap.Logger per opts.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.Set(opts.Level); err != nil {
			return nil, fmt.Errorf("logging: invalid level %q: %w", opts.Level, err)
		}
	}

	var cfg zap.Config
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build: %w", err)
	}
	return logger, nil
}
