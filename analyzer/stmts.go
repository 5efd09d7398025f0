package analyzer

import (
	"github.com/krizos/phpanalyze/blockctx"
	"github.com/krizos/phpanalyze/internal/phpast"
	"github.com/krizos/phpanalyze/internal/span"
	"github.com/krizos/phpanalyze/issue"
	"github.com/krizos/phpanalyze/reconcile"
	"github.com/krizos/phpanalyze/typeir"
)

// branchState is one conditional arm's end state, fed to mergeBranches.
type branchState struct {
	ctx *blockctx.BlockContext
}

func (fa *fileAnalyzer) analyzeStatement(stmt phpast.Statement, ctx *blockctx.BlockContext) {
	switch s := stmt.(type) {
	case *phpast.ExpressionStatement:
		t := fa.analyzeExpression(s.Expression, ctx)
		if t.IsNever() {
			ctx.HasReturned = true
		} else if fa.settings.FindUnusedExpressions && isSideEffectFree(s.Expression) {
			fa.report(issue.New(issue.UnusedExpression, issue.Warning,
				"expression result is never used", s.Expression.Span()))
		}

	case *phpast.BlockStatement:
		fa.analyzeStatements(s.Statements, ctx)

	case *phpast.EchoStatement:
		for _, e := range s.Expressions {
			fa.analyzeExpression(e, ctx)
		}

	case *phpast.IfStatement:
		fa.analyzeIf(s, ctx)

	case *phpast.WhileStatement:
		fa.analyzeLoop(ctx, s.Condition, nil, nil, s.Body, false)

	case *phpast.DoWhileStatement:
		fa.analyzeLoop(ctx, s.Condition, nil, nil, s.Body, true)

	case *phpast.ForStatement:
		for _, init := range s.Init {
			fa.analyzeExpression(init, ctx)
		}
		var cond phpast.Expression
		if len(s.Condition) > 0 {
			cond = s.Condition[len(s.Condition)-1]
		}
		fa.analyzeLoop(ctx, cond, s.Condition[:max(0, len(s.Condition)-1)], s.Increment, s.Body, false)

	case *phpast.ForeachStatement:
		fa.analyzeForeach(s, ctx)

	case *phpast.SwitchStatement:
		fa.analyzeSwitch(s, ctx)

	case *phpast.TryStatement:
		fa.analyzeTry(s, ctx)

	case *phpast.ReturnStatement:
		fa.analyzeReturn(s, ctx)

	case *phpast.ThrowStatement:
		fa.analyzeExpression(s.Expression, ctx)
		ctx.HasReturned = true

	case *phpast.BreakStatement:
		fa.analyzeBreak(s.Depth, s.Span(), ctx, "break")

	case *phpast.ContinueStatement:
		fa.analyzeBreak(s.Depth, s.Span(), ctx, "continue")

	case *phpast.GlobalStatement:
		for _, v := range s.Variables {
			ctx.Locals[fa.interner.Intern(v.Name)] = typeir.GetMixed()
		}

	case *phpast.StaticVarStatement:
		for _, item := range s.Variables {
			t := typeir.GetMixed()
			if item.DefaultValue != nil {
				t = fa.analyzeExpression(item.DefaultValue, ctx)
			}
			ctx.Locals[fa.interner.Intern(item.Name.Name)] = t
		}

	case *phpast.FunctionDeclaration:
		fa.analyzeFunctionDeclaration(s)

	case *phpast.ClassDeclaration:
		fa.analyzeClassLikeBody(fa.resolveLower(s.Name.Span(), s.Name.Name), s.Body)

	case *phpast.TraitDeclaration:
		fa.analyzeClassLikeBody(fa.resolveLower(s.Name.Span(), s.Name.Name), s.Body)

	case *phpast.EnumDeclaration:
		fa.analyzeClassLikeBody(fa.resolveLower(s.Name.Span(), s.Name.Name), s.Body)

	case *phpast.InterfaceDeclaration, *phpast.ConstStatement:
		// Scanned, nothing to analyze.
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func isSideEffectFree(expr phpast.Expression) bool {
	switch expr.(type) {
	case *phpast.Variable, *phpast.IntegerLiteral, *phpast.FloatLiteral,
		*phpast.StringLiteral, *phpast.BooleanLiteral, *phpast.NullLiteral:
		return true
	}
	return false
}

// analyzeIf reconciles the condition into both branches and merges the
// surviving branch states (spec.md §4.4.1).
func (fa *fileAnalyzer) analyzeIf(s *phpast.IfStatement, ctx *blockctx.BlockContext) {
	remaining := ctx.Clone()
	var branches []branchState

	analyzeArm := func(cond phpast.Expression, body *phpast.BlockStatement) {
		fa.analyzeExpression(cond, remaining)

		armCtx := remaining.Clone()
		armCtx.InsideConditional = true
		outcome := fa.rec.Apply(fa.rec.Assertions(cond, true), armCtx)
		fa.reportReconcileOutcome(outcome, cond)

		fa.analyzeStatements(body.Statements, armCtx)
		armCtx.InsideConditional = false
		if outcome.Contradiction {
			// Dead branch: its locals must not leak into the merge.
			armCtx.HasReturned = true
		}
		branches = append(branches, branchState{ctx: armCtx})

		next := remaining.Clone()
		fa.rec.Apply(fa.rec.Assertions(cond, false), next)
		remaining = next
	}

	analyzeArm(s.Condition, s.Consequence)
	for _, elseif := range s.ElseIfs {
		analyzeArm(elseif.Condition, elseif.Consequence)
	}

	if s.Alternative != nil {
		elseCtx := remaining.Clone()
		fa.analyzeStatements(s.Alternative.Statements, elseCtx)
		branches = append(branches, branchState{ctx: elseCtx})
	} else {
		// No else: the fall-through state is a live branch.
		branches = append(branches, branchState{ctx: remaining})
	}

	fa.mergeBranches(ctx, branches)
}

func (fa *fileAnalyzer) mergeBranches(ctx *blockctx.BlockContext, branches []branchState) {
	allReturned := true
	var merged *blockctx.BlockContext
	for _, b := range branches {
		if b.ctx.HasReturned {
			continue
		}
		allReturned = false
		if merged == nil {
			merged = b.ctx
		} else {
			merged.MergeBranch(b.ctx, fa.threshold())
		}
	}
	if allReturned {
		ctx.HasReturned = true
		return
	}
	ctx.Locals = merged.Locals
	ctx.Clauses = merged.Clauses
}

// reportReconcileOutcome turns reconciler verdicts into issues.
func (fa *fileAnalyzer) reportReconcileOutcome(outcome reconcile.Outcome, cond phpast.Expression) {
	switch {
	case outcome.Contradiction:
		fa.report(issue.New(issue.ParadoxicalCondition, issue.Error,
			"condition contradicts what is already known about $"+outcome.ContradictionVar, cond.Span()).
			WithSecondary(cond.Span(), "this condition can never hold"))
	case outcome.RedundantIsset:
		fa.report(issue.New(issue.RedundantIssetCheck, issue.Warning,
			"$"+outcome.RedundantVar+" is always set here", cond.Span()))
	case outcome.Redundant:
		fa.report(issue.New(issue.RedundantCondition, issue.Warning,
			"condition is always true for $"+outcome.RedundantVar, cond.Span()))
	}
}

// analyzeLoop covers while, do-while and for bodies: the body analyzes in a
// fresh loop scope, then locals changed inside union back into the parent
// as possibly-redefined (spec.md §4.4.1).
func (fa *fileAnalyzer) analyzeLoop(ctx *blockctx.BlockContext, cond phpast.Expression, preConds []phpast.Expression, increments []phpast.Expression, body *phpast.BlockStatement, bodyFirst bool) {
	for _, pre := range preConds {
		fa.analyzeExpression(pre, ctx)
	}
	if cond != nil && !bodyFirst {
		fa.analyzeExpression(cond, ctx)
	}

	loopCtx := ctx.Clone()
	loopCtx.InsideLoop = true
	loopCtx.LoopScope = blockctx.NewLoopScope(ctx.LoopScope)
	if cond != nil && !bodyFirst {
		fa.rec.Apply(fa.rec.Assertions(cond, true), loopCtx)
	}

	fa.analyzeStatements(body.Statements, loopCtx)
	for _, inc := range increments {
		fa.analyzeExpression(inc, loopCtx)
	}
	if cond != nil && bodyFirst {
		fa.analyzeExpression(cond, loopCtx)
	}

	fa.mergeLoopState(ctx, loopCtx, bodyFirst)
}

// mergeLoopState unions body-changed variables back into the parent:
// pre-existing variables combine with their pre-loop type; body-introduced
// variables join as possibly-undefined, except for do-while bodies which
// always execute.
func (fa *fileAnalyzer) mergeLoopState(ctx, loopCtx *blockctx.BlockContext, bodyAlwaysRuns bool) {
	for name, after := range loopCtx.Locals {
		before, existed := ctx.Locals[name]
		switch {
		case existed && !typeir.UnionsEqual(before, after):
			ctx.Locals[name] = typeir.Combine(before, after, fa.threshold())
		case !existed && bodyAlwaysRuns:
			ctx.Locals[name] = after
		case !existed:
			introduced := after.Clone()
			introduced.Flags.PossiblyUndefined = true
			ctx.Locals[name] = introduced
		}
	}
}

func (fa *fileAnalyzer) analyzeForeach(s *phpast.ForeachStatement, ctx *blockctx.BlockContext) {
	iterable := fa.analyzeExpression(s.Array, ctx)
	keyType, valueType := fa.iterableComponents(iterable)

	loopCtx := ctx.Clone()
	loopCtx.InsideLoop = true
	loopCtx.LoopScope = blockctx.NewLoopScope(ctx.LoopScope)

	if s.Key != nil {
		if v, ok := s.Key.(*phpast.Variable); ok {
			loopCtx.Locals[fa.interner.Intern(v.Name)] = keyType
			fa.artifacts.SetExpressionType(v.Span(), keyType)
		}
	}
	switch v := s.Value.(type) {
	case *phpast.Variable:
		loopCtx.Locals[fa.interner.Intern(v.Name)] = valueType
		fa.artifacts.SetExpressionType(v.Span(), valueType)
	case *phpast.ListExpression:
		fa.destructure(v, valueType, loopCtx)
	}

	fa.analyzeStatements(s.Body.Statements, loopCtx)
	fa.mergeLoopState(ctx, loopCtx, false)
}

// iterableComponents reconciles an iterated expression to its key/value
// element types.
func (fa *fileAnalyzer) iterableComponents(iterable *typeir.TUnion) (*typeir.TUnion, *typeir.TUnion) {
	var keys, values *typeir.TUnion
	for _, a := range iterable.Atomics {
		switch v := a.(type) {
		case typeir.TGenericArray:
			keys = typeir.Combine(keys, v.Key, fa.threshold())
			values = typeir.Combine(values, v.Value, fa.threshold())
		case typeir.TList:
			keys = typeir.Combine(keys, typeir.FromAtomic(typeir.TInt{}), fa.threshold())
			for _, p := range v.Prefix {
				values = typeir.Combine(values, p, fa.threshold())
			}
			if v.Element != nil {
				values = typeir.Combine(values, v.Element, fa.threshold())
			}
		case typeir.TKeyedArray:
			for _, e := range v.Entries {
				if e.Key.IsString {
					keys = typeir.Combine(keys, typeir.FromAtomic(typeir.TString{Shape: typeir.StringLiteral, Literal: e.Key.StrKey}), fa.threshold())
				} else {
					keys = typeir.Combine(keys, typeir.FromAtomic(typeir.TInt{Shape: typeir.IntLiteral, Literal: e.Key.IntKey}), fa.threshold())
				}
				values = typeir.Combine(values, e.Type, fa.threshold())
			}
			if v.Fallback != nil {
				keys = typeir.Combine(keys, typeir.FromAtomic(typeir.TArrayKey{}), fa.threshold())
				values = typeir.Combine(values, v.Fallback, fa.threshold())
			}
		case typeir.TNamedObject:
			// Generic iterators surface their declared parameters;
			// anything else iterates as mixed.
			if len(v.TypeParams) == 2 {
				keys = typeir.Combine(keys, v.TypeParams[0], fa.threshold())
				values = typeir.Combine(values, v.TypeParams[1], fa.threshold())
			} else if len(v.TypeParams) == 1 {
				keys = typeir.Combine(keys, typeir.FromAtomic(typeir.TArrayKey{}), fa.threshold())
				values = typeir.Combine(values, v.TypeParams[0], fa.threshold())
			} else {
				keys = typeir.Combine(keys, typeir.GetMixed(), fa.threshold())
				values = typeir.Combine(values, typeir.GetMixed(), fa.threshold())
			}
		default:
			keys = typeir.Combine(keys, typeir.GetMixed(), fa.threshold())
			values = typeir.Combine(values, typeir.GetMixed(), fa.threshold())
		}
	}
	if keys == nil {
		keys = typeir.GetMixed()
	}
	if values == nil {
		values = typeir.GetMixed()
	}
	return keys, values
}

// analyzeSwitch runs each case with the subject reconciled against the case
// value, accumulating fall-through state (spec.md §4.4.1).
func (fa *fileAnalyzer) analyzeSwitch(s *phpast.SwitchStatement, ctx *blockctx.BlockContext) {
	fa.analyzeExpression(s.Subject, ctx)
	subjectKey := fa.rec.VarKey(s.Subject)

	caseScope := blockctx.NewCaseScope()
	ctx.CaseScopes = append(ctx.CaseScopes, caseScope)
	fa.artifacts.CaseScopes = append(fa.artifacts.CaseScopes, caseScope)

	var fallthroughCtx *blockctx.BlockContext
	var branches []branchState
	sawDefault := false

	for _, c := range s.Cases {
		caseCtx := ctx.Clone()
		caseCtx.LoopScope = blockctx.NewLoopScope(ctx.LoopScope)
		if fallthroughCtx != nil {
			// Fall-through: the previous case's end state feeds this one.
			caseCtx.MergeBranch(fallthroughCtx, fa.threshold())
			caseCtx.HasReturned = false
		}

		if c.Value != nil {
			fa.analyzeExpression(c.Value, caseCtx)
			if subjectKey != "" {
				if clauses := fa.caseEqualityClauses(subjectKey, c.Value); clauses != nil {
					fa.rec.Apply(clauses, caseCtx)
				}
			}
		} else {
			sawDefault = true
		}

		fa.analyzeStatements(c.Body, caseCtx)

		if caseCtx.HasReturned {
			fallthroughCtx = nil
		} else {
			fallthroughCtx = caseCtx
		}
		branches = append(branches, branchState{ctx: caseCtx})
	}

	ctx.CaseScopes = ctx.CaseScopes[:len(ctx.CaseScopes)-1]

	// Break-collected states rejoin alongside each case's end state.
	for name, t := range caseScope.BreakVars {
		if existing, ok := ctx.Locals[name]; ok {
			ctx.Locals[name] = typeir.Combine(existing, t, fa.threshold())
		}
	}

	if !sawDefault {
		// The subject may match no case; the pre-switch state survives.
		branches = append(branches, branchState{ctx: ctx.Clone()})
	}
	fa.mergeBranches(ctx, branches)
}

func (fa *fileAnalyzer) caseEqualityClauses(subjectKey string, value phpast.Expression) []blockctx.Clause {
	var atomic typeir.TAtomic
	switch lit := value.(type) {
	case *phpast.IntegerLiteral:
		atomic = typeir.TInt{Shape: typeir.IntLiteral, Literal: lit.Value}
	case *phpast.StringLiteral:
		atomic = typeir.TString{Shape: typeir.StringLiteral, Literal: lit.Value}
	case *phpast.BooleanLiteral:
		narrow := typeir.BoolFalse
		if lit.Value {
			narrow = typeir.BoolTrue
		}
		atomic = typeir.TBool{Narrow: narrow}
	default:
		return nil
	}
	return []blockctx.Clause{blockctx.NewClause(subjectKey, blockctx.Assertion{
		Kind:   blockctx.AssertIdentical,
		Atomic: atomic,
	})}
}

func (fa *fileAnalyzer) analyzeTry(s *phpast.TryStatement, ctx *blockctx.BlockContext) {
	bodyCtx := ctx.Clone()
	fa.analyzeStatements(s.Body.Statements, bodyCtx)

	branches := []branchState{{ctx: bodyCtx}}

	for _, clause := range s.CatchClauses {
		// A throw can interrupt the body anywhere, so each catch starts
		// from the pre-try state.
		catchCtx := ctx.Clone()
		var caught *typeir.TUnion
		for _, t := range clause.Types {
			name := fa.resolveLower(t.Span(), t.Name)
			caught = typeir.Combine(caught, typeir.FromAtomic(typeir.TNamedObject{Name: name}), fa.threshold())
			fa.artifacts.SymbolReferences.AddClassLike(name, t.Span())
		}
		if clause.Variable != nil {
			catchCtx.Locals[fa.interner.Intern(clause.Variable.Name)] = caught
			fa.artifacts.SetExpressionType(clause.Variable.Span(), caught)
		}
		fa.analyzeStatements(clause.Body.Statements, catchCtx)
		branches = append(branches, branchState{ctx: catchCtx})
	}

	fa.mergeBranches(ctx, branches)

	if s.Finally != nil {
		// Finally runs on the union of post-body and post-catch states,
		// which mergeBranches just produced in ctx.
		finallyReturned := ctx.HasReturned
		ctx.HasReturned = false
		fa.analyzeStatements(s.Finally.Statements, ctx)
		ctx.HasReturned = ctx.HasReturned || finallyReturned
	}
}

func (fa *fileAnalyzer) analyzeReturn(s *phpast.ReturnStatement, ctx *blockctx.BlockContext) {
	var returned *typeir.TUnion
	if s.ReturnValue != nil {
		returned = fa.analyzeExpression(s.ReturnValue, ctx)
	} else {
		returned = typeir.FromAtomic(typeir.TVoid{})
	}
	ctx.HasReturned = true

	fn := ctx.Scope.FunctionLike
	if fn == nil || (fn.ReturnSignatureType == nil && fn.ReturnDocType == nil) {
		return
	}
	declared := typeir.Expand(fn.ReturnType(), fa.expansionContext(ctx, nil))
	if declared.HasKind(typeir.KindVoid) && s.ReturnValue == nil {
		return
	}
	result := typeir.IsContainedBy(returned, declared, typeir.ContainmentContext{Classes: fa.store})
	if !result.Matched && !result.TypeCoerced {
		fa.report(issue.New(issue.InvalidReturnStatement, issue.Error,
			"cannot return "+returned.Id(fa.interner)+" from a function declared to return "+declared.Id(fa.interner),
			s.Span()))
	}
}

// analyzeBreak handles break/continue with an optional level, walking the
// loop-scope chain N-1 times (spec.md §4.4.1).
func (fa *fileAnalyzer) analyzeBreak(depth phpast.Expression, at span.Span, ctx *blockctx.BlockContext, kind string) {
	n := 1
	if depth != nil {
		fa.analyzeExpression(depth, ctx)
		if lit, ok := depth.(*phpast.IntegerLiteral); ok {
			n = int(lit.Value)
		}
	}

	inSwitch := len(ctx.CaseScopes) > 0
	if ctx.LoopScope == nil && !inSwitch {
		fa.report(issue.New(issue.InvalidBreak, issue.Error,
			kind+" outside a loop or switch", at))
		return
	}
	if ctx.LoopScope != nil && ctx.LoopScope.Walk(n) == nil && !inSwitch {
		fa.report(issue.New(issue.InvalidBreak, issue.Error,
			kind+" level exceeds loop nesting", at))
	}

	if kind == "break" && inSwitch {
		scope := ctx.CaseScopes[len(ctx.CaseScopes)-1]
		for name, t := range ctx.Locals {
			if existing, ok := scope.BreakVars[name]; ok {
				scope.BreakVars[name] = typeir.Combine(existing, t, fa.threshold())
			} else {
				scope.BreakVars[name] = t
			}
		}
	}
	ctx.HasReturned = true
}
