// Package phpanalyze is the whole-program PHP type checker's entry point:
// Analyze runs the scan, populate and analyze phases over a set of parsed
// files and reduces the per-file outputs into one AnalysisResult (spec.md
// §5, §6).
package phpanalyze

import (
	"context"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/krizos/phpanalyze/analyzer"
	"github.com/krizos/phpanalyze/blockctx"
	"github.com/krizos/phpanalyze/codebase"
	"github.com/krizos/phpanalyze/internal/fanout"
	"github.com/krizos/phpanalyze/internal/interner"
	"github.com/krizos/phpanalyze/internal/obslog"
	"github.com/krizos/phpanalyze/internal/obsmetrics"
	"github.com/krizos/phpanalyze/internal/phplex"
	"github.com/krizos/phpanalyze/internal/phpparse"
	"github.com/krizos/phpanalyze/internal/span"
	"github.com/krizos/phpanalyze/issue"
	"github.com/krizos/phpanalyze/phpsettings"
	"github.com/krizos/phpanalyze/populator"
	"github.com/krizos/phpanalyze/scanner"
)

// ParsedFile re-exports the core's input contract (spec.md §6).
type ParsedFile = scanner.ParsedFile

// AnalysisResult is the output of one Analyze call (spec.md §6).
type AnalysisResult struct {
	// RunID correlates this call's log lines, metrics and issues.
	RunID string
	// Issues is the canonically-sorted diagnostic list.
	Issues []issue.Issue
	// SymbolReferences aggregates who referenced whom across all files.
	SymbolReferences []*blockctx.SymbolReferences
	// ExpressionTypes carries the rendered type id of every analyzed
	// expression, filled only when Settings.CollectExpressionTypes is set.
	ExpressionTypes map[span.Span]string
	// TimeInAnalysis is the wall-clock spent in the analyze phase alone.
	TimeInAnalysis time.Duration
}

// Runner holds the cross-call collaborators of an embedding host: logger
// and metrics are optional. A nil Metrics records nothing; a nil Logger is
// replaced by obslog.New's default logger.
type Runner struct {
	Logger  *zap.Logger
	Metrics *obsmetrics.Metrics
}

// Analyze is the package-level convenience over a default Runner.
func Analyze(ctx context.Context, files []ParsedFile, settings phpsettings.Settings) (*AnalysisResult, error) {
	return (&Runner{}).Analyze(ctx, files, settings)
}

// Analyze runs the three phases: scan fans out per file and merges, then
// populate seals the codebase, then analyze fans out per file and reduces
// (spec.md §5: "scan phase must fully complete before populate; populate
// must fully complete before analyze").
func (r *Runner) Analyze(ctx context.Context, files []ParsedFile, settings phpsettings.Settings) (*AnalysisResult, error) {
	settings = settings.Normalize()
	logger := r.Logger
	if logger == nil {
		logger = obslog.New(obslog.Options{})
	}
	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))

	in := interner.New()
	concurrency := settings.MaxConcurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	result := &AnalysisResult{RunID: runID}

	// Scan phase: one task per file, each into a private store.
	scanLog := obslog.PhaseLogger(logger, "scan")
	scanLog.Info("phase start", zap.Int("files", len(files)))
	scanStart := time.Now()
	sc := scanner.New(in, settings, scanLog)

	type scanOutput struct {
		store  *codebase.CodebaseMetadata
		issues []issue.Issue
	}
	scanOutputs, err := fanout.Reduce(ctx, len(files), concurrency, func(ctx context.Context, i int) (scanOutput, error) {
		store, issues := sc.ScanFile(files[i])
		return scanOutput{store: store, issues: issues}, nil
	})
	if err != nil {
		return nil, err
	}
	store := codebase.New(in)
	for _, out := range scanOutputs {
		store.Merge(out.store)
		result.Issues = append(result.Issues, out.issues...)
	}
	r.Metrics.ObservePhase("scan", time.Since(scanStart).Seconds())
	scanLog.Info("phase end", zap.Duration("elapsed", time.Since(scanStart)))

	// Populate phase: single-threaded closure computation, then seal.
	populateLog := obslog.PhaseLogger(logger, "populate")
	populateLog.Info("phase start")
	populateStart := time.Now()
	result.Issues = append(result.Issues, populator.New(store, populateLog).Populate()...)
	r.Metrics.ObservePhase("populate", time.Since(populateStart).Seconds())
	populateLog.Info("phase end", zap.Duration("elapsed", time.Since(populateStart)))

	// Analyze phase: one task per file over the sealed store; the result
	// is a pure reduction over per-file outputs.
	analyzeLog := obslog.PhaseLogger(logger, "analyze")
	analyzeLog.Info("phase start")
	analyzeStart := time.Now()
	an := analyzer.New(store, settings, analyzeLog)

	type analyzeOutput struct {
		artifacts *blockctx.AnalysisArtifacts
		issues    []issue.Issue
	}
	analyzeOutputs, err := fanout.Reduce(ctx, len(files), concurrency, func(ctx context.Context, i int) (analyzeOutput, error) {
		fileCtx := ctx
		if settings.PerFileTimeout > 0 {
			var cancel context.CancelFunc
			fileCtx, cancel = context.WithTimeout(ctx, settings.PerFileTimeout)
			defer cancel()
		}
		artifacts, issues, err := an.AnalyzeFile(fileCtx, files[i])
		if err != nil {
			return analyzeOutput{}, err
		}
		for _, is := range issues {
			r.Metrics.ObserveIssue(string(is.Code), is.Level.String())
		}
		r.Metrics.ObserveFile()
		return analyzeOutput{artifacts: artifacts, issues: issues}, nil
	})
	if err != nil {
		return nil, err
	}
	for _, out := range analyzeOutputs {
		result.Issues = append(result.Issues, out.issues...)
		result.SymbolReferences = append(result.SymbolReferences, out.artifacts.SymbolReferences)
		if settings.CollectExpressionTypes {
			if result.ExpressionTypes == nil {
				result.ExpressionTypes = map[span.Span]string{}
			}
			for sp, t := range out.artifacts.ExpressionTypes {
				result.ExpressionTypes[sp] = t.Id(in)
			}
		}
	}
	result.TimeInAnalysis = time.Since(analyzeStart)
	r.Metrics.ObservePhase("analyze", result.TimeInAnalysis.Seconds())
	analyzeLog.Info("phase end",
		zap.Duration("elapsed", result.TimeInAnalysis),
		zap.Int("issues", len(result.Issues)))

	issue.Sort(result.Issues)
	return result, nil
}

// ParseSource lexes and parses one PHP source string into the ParsedFile
// contract using the bundled front end. Hosts with their own parser build
// ParsedFile values directly instead. Parse errors are returned as
// strings; a partially-parsed program is still analyzable.
func ParseSource(source span.SourceId, path, code string) (ParsedFile, []string) {
	lexer := phplex.New(path, code)
	parser := phpparse.New(source, lexer.Tokenize())
	program := parser.Parse()
	return ParsedFile{
		Source:  source,
		Path:    path,
		Program: program,
	}, parser.Errors()
}
