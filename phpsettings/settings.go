// Package phpsettings holds the run configuration the core consumes
// (spec.md §6 "Settings"). It is a plain struct with yaml tags so the CLI
// can load it from a config file, in the same way the rest of this module's
// reference stack loads its own configuration.
package phpsettings

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the full configuration surface of one Analyze call.
type Settings struct {
	// PHPVersion gates version-dependent checks, as "8.3"-style MAJOR.MINOR.
	PHPVersion string `yaml:"php_version"`

	// MemoizeProperties caches the last value type assigned to a property
	// path within one block and reuses it on subsequent reads. This is
	// intentionally unsound across aliases and off unless asked for.
	MemoizeProperties bool `yaml:"memoize_properties"`

	// FindUnusedExpressions reports expression statements whose value is
	// computed and discarded without side effects.
	FindUnusedExpressions bool `yaml:"find_unused_expressions"`

	// AllowPossiblyUndefinedArrayKeys downgrades possibly-undefined array
	// key reads from issues to silence.
	AllowPossiblyUndefinedArrayKeys bool `yaml:"allow_possibly_undefined_array_keys"`

	// LiteralWideningThreshold bounds how many distinct same-kind literals
	// a union keeps before widening to the general type. Zero means the
	// default of 8.
	LiteralWideningThreshold int `yaml:"literal_widening_threshold"`

	// PerFileTimeout aborts one file's analysis when exceeded, converting
	// its in-progress result into a single AnalysisTimeout issue. Zero
	// disables the budget.
	PerFileTimeout time.Duration `yaml:"per_file_timeout"`

	// MaxConcurrency caps the scan/analyze worker fan-out; zero or negative
	// means one worker per file up to the runtime default.
	MaxConcurrency int `yaml:"max_concurrency"`

	// CollectExpressionTypes retains every expression's inferred type id in
	// the AnalysisResult, for editors and tests.
	CollectExpressionTypes bool `yaml:"collect_expression_types"`
}

// Default returns the settings an Analyze call assumes when given a zero
// value.
func Default() Settings {
	return Settings{
		PHPVersion:               "8.3",
		LiteralWideningThreshold: 8,
	}
}

// Normalize fills zero-valued fields with their defaults.
func (s Settings) Normalize() Settings {
	if s.PHPVersion == "" {
		s.PHPVersion = "8.3"
	}
	if s.LiteralWideningThreshold <= 0 {
		s.LiteralWideningThreshold = 8
	}
	return s
}

// VersionAtLeast reports whether PHPVersion is >= major.minor. Unparseable
// versions compare as the default (8.3).
func (s Settings) VersionAtLeast(major, minor int) bool {
	gotMajor, gotMinor := 8, 3
	fmt.Sscanf(s.PHPVersion, "%d.%d", &gotMajor, &gotMinor)
	if gotMajor != major {
		return gotMajor > major
	}
	return gotMinor >= minor
}

// Load parses YAML settings, normalizing defaults.
func Load(data []byte) (Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("phpsettings: parsing config: %w", err)
	}
	return s.Normalize(), nil
}
