// Package analyzer walks every function, method, closure and top-level
// statement of a file, assigns a union type to every expression, narrows
// variables through conditionals, resolves calls and member accesses, and
// reports typing issues (spec.md §4.4). It reads the sealed codebase and
// writes only into its own per-file artifacts.
package analyzer

import (
	"context"

	"go.uber.org/zap"

	"github.com/krizos/phpanalyze/blockctx"
	"github.com/krizos/phpanalyze/codebase"
	"github.com/krizos/phpanalyze/internal/errs"
	"github.com/krizos/phpanalyze/internal/interner"
	"github.com/krizos/phpanalyze/internal/phpast"
	"github.com/krizos/phpanalyze/internal/span"
	"github.com/krizos/phpanalyze/internal/symbolid"
	"github.com/krizos/phpanalyze/issue"
	"github.com/krizos/phpanalyze/phpsettings"
	"github.com/krizos/phpanalyze/reconcile"
	"github.com/krizos/phpanalyze/scanner"
	"github.com/krizos/phpanalyze/typeir"
)

// Analyzer analyzes files against one sealed codebase. Safe for concurrent
// use: per-file state lives in the fileAnalyzer each AnalyzeFile call owns.
type Analyzer struct {
	store    *codebase.CodebaseMetadata
	interner *interner.Interner
	settings phpsettings.Settings
	logger   *zap.Logger
	types    *scanner.Scanner // native-hint/docblock type conversion for closures
}

// New builds an Analyzer over a populated codebase.
func New(store *codebase.CodebaseMetadata, settings phpsettings.Settings, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	settings = settings.Normalize()
	return &Analyzer{
		store:    store,
		interner: store.Interner,
		settings: settings,
		logger:   logger,
		types:    scanner.New(store.Interner, settings, logger),
	}
}

// AnalyzeFile runs statement analysis over one parsed file. The context
// carries the optional per-file budget: on expiry the in-progress result
// collapses into a single AnalysisTimeout issue (spec.md §5).
func (a *Analyzer) AnalyzeFile(ctx context.Context, file scanner.ParsedFile) (*blockctx.AnalysisArtifacts, []issue.Issue, error) {
	if !a.store.Sealed() {
		return nil, nil, errs.New(errs.KindUnsealedCodebase, "analysis of %s before populate", file.Path)
	}

	fa := &fileAnalyzer{
		Analyzer:  a,
		ctx:       ctx,
		file:      file,
		artifacts: blockctx.NewArtifacts(),
		collector: issue.NewCollector(),
		rec:       reconcile.New(a.interner, a.store, a.settings.LiteralWideningThreshold),
	}

	top := blockctx.New(blockctx.ScopeContext{})
	fa.analyzeStatements(file.Program.Statements, top)

	if fa.cancelled {
		timeoutIssue := issue.New(issue.AnalysisTimeout, issue.Error,
			"analysis of "+file.Path+" exceeded its budget", file.Program.Span())
		return blockctx.NewArtifacts(), []issue.Issue{timeoutIssue}, nil
	}
	return fa.artifacts, fa.collector.Issues(), nil
}

// fileAnalyzer is the per-file mutable state of one AnalyzeFile call.
type fileAnalyzer struct {
	*Analyzer
	ctx       context.Context
	file      scanner.ParsedFile
	artifacts *blockctx.AnalysisArtifacts
	collector *issue.Collector
	rec       *reconcile.Reconciler
	cancelled bool
}

func (fa *fileAnalyzer) threshold() int { return fa.settings.LiteralWideningThreshold }

func (fa *fileAnalyzer) report(i issue.Issue) {
	fa.collector.Add(i)
}

// checkBudget polls the cancellation context at statement granularity.
func (fa *fileAnalyzer) checkBudget() bool {
	if fa.cancelled {
		return true
	}
	select {
	case <-fa.ctx.Done():
		fa.cancelled = true
		return true
	default:
		return false
	}
}

func (fa *fileAnalyzer) analyzeStatements(stmts []phpast.Statement, ctx *blockctx.BlockContext) {
	for _, stmt := range stmts {
		if fa.checkBudget() {
			return
		}
		fa.analyzeStatement(stmt, ctx)
	}
}

// resolveLower maps a written class-like/function name through the resolved
// names table, returning the lowered id.
func (fa *fileAnalyzer) resolveLower(at span.Span, written string) interner.StringId {
	return fa.interner.InternLower(fa.file.ResolvedNames.Resolve(at, written))
}

// enterFunctionLike builds the block context for a function or method body:
// parameters seeded from metadata, $this bound for instance methods.
func (fa *fileAnalyzer) enterFunctionLike(meta *codebase.FunctionLikeMetadata, class *codebase.ClassLikeMetadata) *blockctx.BlockContext {
	scope := blockctx.ScopeContext{FunctionLike: meta}
	if class != nil {
		scope.SelfClass = class.Lowered
		scope.StaticClass = class.Lowered
		scope.ParentClass = class.DirectParent
		if !meta.IsStatic {
			scope.ThisType = typeir.FromAtomic(typeir.TNamedObject{Name: class.Lowered, IsThis: true})
		}
	}
	ctx := blockctx.New(scope)
	if scope.ThisType != nil {
		ctx.Locals[fa.interner.Intern("this")] = scope.ThisType
	}
	for _, p := range meta.Parameters {
		t := p.Type()
		if p.Variadic {
			t = typeir.FromAtomic(typeir.TList{Element: t})
		}
		ctx.Locals[p.Name] = t
	}
	return ctx
}

func (fa *fileAnalyzer) analyzeFunctionDeclaration(decl *phpast.FunctionDeclaration) {
	name := fa.resolveLower(decl.Name.Span(), decl.Name.Name)
	meta, ok := fa.store.Function(name)
	if !ok {
		// The scanner ran over this same file; a missing record is an
		// internal inconsistency, not a user error.
		fa.logger.Warn("function scanned but not found during analysis",
			zap.String("name", decl.Name.Name))
		return
	}
	ctx := fa.enterFunctionLike(meta, nil)
	fa.analyzeStatements(decl.Body.Statements, ctx)
}

func (fa *fileAnalyzer) analyzeClassLikeBody(classLowered interner.StringId, body []phpast.Statement) {
	class, ok := fa.store.ClassLike(classLowered)
	if !ok {
		return
	}
	for _, member := range body {
		method, ok := member.(*phpast.MethodDeclaration)
		if !ok || method.Body == nil {
			continue
		}
		meta, found := fa.store.FunctionLike(symbolid.NewMethod(classLowered, fa.interner.InternLower(method.Name.Name)))
		if !found {
			continue
		}
		ctx := fa.enterFunctionLike(meta, class)
		fa.analyzeStatements(method.Body.Statements, ctx)
		if fa.checkBudget() {
			return
		}
	}
}
