// Package obslog constructs the single *zap.Logger every phase of analysis
// threads down, in the style of theRebelliousNerd-codenerd's internal/*
// packages: build once at the top, pass explicitly, never reach for a
// package-global logger.
package obslog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls the logger New builds. The zero value is a sane
// production default: JSON encoding at Info level.
type Options struct {
	// Development enables human-readable console output and Debug level,
	// for local `cmd/phpanalyze` runs.
	Development bool
	// Level overrides the default level when non-empty ("debug", "info",
	// "warn", "error").
	Level string
}

// New builds the logger used across scan/populate/analyze. Never returns an
// error: zap.NewProduction/NewDevelopment only fail on bad sink
// configuration, which New does not allow callers to pass.
func New(opts Options) *zap.Logger {
	var cfg zap.Config
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	if lvl, ok := parseLevel(opts.Level); ok {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := cfg.Build()
	if err != nil {
		// cfg as built above can only fail to construct its sink, which is
		// always stdout/stderr here — treat this as unreachable rather than
		// threading a second error return through every caller.
		return zap.NewNop()
	}
	return logger
}

func parseLevel(s string) (zapcore.Level, bool) {
	var lvl zapcore.Level
	if s == "" {
		return lvl, false
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return lvl, false
	}
	return lvl, true
}

// PhaseLogger returns a child logger tagged with the given phase name
// ("scan", "populate", "analyze"), used to bracket Info-level start/end
// lines for a whole Analyze call (SPEC_FULL.md AMBIENT STACK).
func PhaseLogger(base *zap.Logger, phase string) *zap.Logger {
	return base.With(zap.String("phase", phase))
}

// FileLogger returns a child logger tagged with the source file path being
// scanned or analyzed, for per-file Debug timing lines.
func FileLogger(base *zap.Logger, path string) *zap.Logger {
	return base.With(zap.String("file", path))
}
