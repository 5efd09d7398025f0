// Package blockctx holds the per-function mutable analysis state: the
// variable type map, the clause set in scope, loop/case scopes and the
// per-file artifacts the analyzer writes into (spec.md §3.4).
package blockctx

import (
	"github.com/krizos/phpanalyze/codebase"
	"github.com/krizos/phpanalyze/internal/interner"
	"github.com/krizos/phpanalyze/internal/span"
	"github.com/krizos/phpanalyze/typeir"
)

// ScopeContext is the enclosing class/function frame of a block.
type ScopeContext struct {
	// SelfClass is the lowered name of the enclosing class-like; 0 outside
	// any class.
	SelfClass interner.StringId
	// StaticClass is the class `static` binds to, which differs from
	// SelfClass when analysis enters an inherited method.
	StaticClass interner.StringId
	// ParentClass is the lowered direct parent; 0 when none.
	ParentClass interner.StringId
	// FunctionLike is the enclosing function-like's metadata; nil at the
	// top level of a file.
	FunctionLike *codebase.FunctionLikeMetadata
	// ThisType is the type $this carries here; nil in static contexts.
	ThisType *typeir.TUnion
}

// InClass reports whether the scope sits inside a class-like body.
func (s ScopeContext) InClass() bool { return s.SelfClass != 0 }

// LoopScope tracks one enclosing loop for break/continue bookkeeping.
type LoopScope struct {
	Parent         *LoopScope
	IterationCount int
	// RedefinedVars collects the types assigned inside the loop body for
	// variables that existed before it, unioned back in afterwards.
	RedefinedVars map[interner.StringId]*typeir.TUnion
	// PossiblyDefined collects variables first introduced in the body.
	PossiblyDefined map[interner.StringId]*typeir.TUnion
}

// NewLoopScope pushes a loop scope with parent as the next-outer loop.
func NewLoopScope(parent *LoopScope) *LoopScope {
	return &LoopScope{
		Parent:          parent,
		RedefinedVars:   map[interner.StringId]*typeir.TUnion{},
		PossiblyDefined: map[interner.StringId]*typeir.TUnion{},
	}
}

// Walk returns the scope n-1 levels up, for `break N`/`continue N`; nil when
// the chain is shorter than n.
func (l *LoopScope) Walk(n int) *LoopScope {
	scope := l
	for i := 1; i < n && scope != nil; i++ {
		scope = scope.Parent
	}
	return scope
}

// CaseScope tracks one switch case's accumulated fall-through state.
type CaseScope struct {
	// BreakVars is the union of local types at every break out of the case.
	BreakVars map[interner.StringId]*typeir.TUnion
}

// NewCaseScope returns an empty case scope.
func NewCaseScope() *CaseScope {
	return &CaseScope{BreakVars: map[interner.StringId]*typeir.TUnion{}}
}

// FinallyScope carries the union of post-body and post-catch states into a
// finally block.
type FinallyScope struct {
	Vars map[interner.StringId]*typeir.TUnion
}

// BlockContext is the mutable state at one program point.
type BlockContext struct {
	// Locals maps variable name (interned without the $) to its current
	// narrowed union. Unions are immutable; rebinding replaces the pointer.
	Locals map[interner.StringId]*typeir.TUnion

	// Clauses is the boolean facts still in scope, used by the reconciler.
	Clauses []Clause

	Scope ScopeContext

	LoopScope    *LoopScope
	FinallyScope *FinallyScope
	CaseScopes   []*CaseScope

	HasReturned       bool
	InsideCall        bool
	InsideConditional bool
	InsideLoop        bool

	// MemoizedProperties caches the last assigned type per property path
	// when Settings.MemoizeProperties is on. Keyed by the printable path
	// ("$this->prop", "C::$p").
	MemoizedProperties map[string]*typeir.TUnion
}

// New creates an empty context for the given scope.
func New(scope ScopeContext) *BlockContext {
	return &BlockContext{
		Locals:             map[interner.StringId]*typeir.TUnion{},
		Scope:              scope,
		MemoizedProperties: map[string]*typeir.TUnion{},
	}
}

// Clone copies the context for a branch fork. Locals share union pointers
// (unions are immutable), the map itself is fresh; clause slices copy.
func (b *BlockContext) Clone() *BlockContext {
	locals := make(map[interner.StringId]*typeir.TUnion, len(b.Locals))
	for k, v := range b.Locals {
		locals[k] = v
	}
	clauses := make([]Clause, len(b.Clauses))
	copy(clauses, b.Clauses)
	memo := make(map[string]*typeir.TUnion, len(b.MemoizedProperties))
	for k, v := range b.MemoizedProperties {
		memo[k] = v
	}
	return &BlockContext{
		Locals:             locals,
		Clauses:            clauses,
		Scope:              b.Scope,
		LoopScope:          b.LoopScope,
		FinallyScope:       b.FinallyScope,
		CaseScopes:         b.CaseScopes,
		HasReturned:        b.HasReturned,
		InsideCall:         b.InsideCall,
		InsideConditional:  b.InsideConditional,
		InsideLoop:         b.InsideLoop,
		MemoizedProperties: memo,
	}
}

// MergeBranch unions other's locals into b after a conditional: variables
// present in both merge by Combine; variables present in only one become
// possibly-undefined.
func (b *BlockContext) MergeBranch(other *BlockContext, threshold int) {
	for name, mine := range b.Locals {
		if theirs, ok := other.Locals[name]; ok {
			b.Locals[name] = typeir.Combine(mine, theirs, threshold)
		} else {
			merged := mine.Clone()
			merged.Flags.PossiblyUndefined = true
			b.Locals[name] = merged
		}
	}
	for name, theirs := range other.Locals {
		if _, ok := b.Locals[name]; !ok {
			merged := theirs.Clone()
			merged.Flags.PossiblyUndefined = true
			b.Locals[name] = merged
		}
	}
	b.HasReturned = b.HasReturned && other.HasReturned
}

// SymbolReferences records which symbols each file's analysis touched
// (spec.md §3.4, §6). Keys are lowered symbol ids; values the referencing
// spans, kept sorted by the collector at presentation time.
type SymbolReferences struct {
	ClassLikes map[interner.StringId][]span.Span
	Functions  map[interner.StringId][]span.Span
	Members    map[MemberRef][]span.Span
}

// MemberRef identifies one class member for reference tracking.
type MemberRef struct {
	ClassLike interner.StringId
	Member    interner.StringId
}

// NewSymbolReferences returns an empty reference table.
func NewSymbolReferences() *SymbolReferences {
	return &SymbolReferences{
		ClassLikes: map[interner.StringId][]span.Span{},
		Functions:  map[interner.StringId][]span.Span{},
		Members:    map[MemberRef][]span.Span{},
	}
}

// AddClassLike records a reference to a class-like.
func (s *SymbolReferences) AddClassLike(class interner.StringId, at span.Span) {
	s.ClassLikes[class] = append(s.ClassLikes[class], at)
}

// AddFunction records a reference to a top-level function.
func (s *SymbolReferences) AddFunction(fn interner.StringId, at span.Span) {
	s.Functions[fn] = append(s.Functions[fn], at)
}

// AddMember records a reference to a class member.
func (s *SymbolReferences) AddMember(class, member interner.StringId, at span.Span) {
	key := MemberRef{ClassLike: class, Member: member}
	s.Members[key] = append(s.Members[key], at)
}

// AnalysisArtifacts is the per-file side output of analysis (spec.md §3.4).
type AnalysisArtifacts struct {
	// ExpressionTypes records the inferred union of every analyzed
	// expression, keyed by its span.
	ExpressionTypes map[span.Span]*typeir.TUnion
	SymbolReferences *SymbolReferences
	CaseScopes []*CaseScope
}

// NewArtifacts returns an empty artifact store.
func NewArtifacts() *AnalysisArtifacts {
	return &AnalysisArtifacts{
		ExpressionTypes:  map[span.Span]*typeir.TUnion{},
		SymbolReferences: NewSymbolReferences(),
	}
}

// SetExpressionType records one expression's inferred type; the analyzer
// calls this for every expression it leaves (expression-type totality).
func (a *AnalysisArtifacts) SetExpressionType(at span.Span, t *typeir.TUnion) {
	a.ExpressionTypes[at] = t
}

// ExpressionType looks a recorded type up.
func (a *AnalysisArtifacts) ExpressionType(at span.Span) (*typeir.TUnion, bool) {
	t, ok := a.ExpressionTypes[at]
	return t, ok
}
