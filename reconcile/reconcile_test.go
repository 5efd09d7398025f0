package reconcile_test

import (
	"testing"

	"github.com/krizos/phpanalyze/blockctx"
	"github.com/krizos/phpanalyze/internal/interner"
	"github.com/krizos/phpanalyze/internal/phpast"
	"github.com/krizos/phpanalyze/internal/phplex"
	"github.com/krizos/phpanalyze/internal/phpparse"
	"github.com/krizos/phpanalyze/reconcile"
	"github.com/krizos/phpanalyze/typeir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// conditionOf parses `if (<cond>) {}` and returns the condition expression.
func conditionOf(t *testing.T, cond string) phpast.Expression {
	t.Helper()
	lexer := phplex.New("cond.php", "<?php if ("+cond+") {}")
	parser := phpparse.New(1, lexer.Tokenize())
	prog := parser.Parse()
	require.Empty(t, parser.Errors())
	require.Len(t, prog.Statements, 1)
	ifStmt, ok := prog.Statements[0].(*phpast.IfStatement)
	require.True(t, ok)
	return ifStmt.Condition
}

func setupContext(in *interner.Interner, name string, u *typeir.TUnion) *blockctx.BlockContext {
	ctx := blockctx.New(blockctx.ScopeContext{})
	ctx.Locals[in.Intern(name)] = u
	return ctx
}

func TestIsIntConditionRefinesMixed(t *testing.T) {
	in := interner.New()
	r := reconcile.New(in, nil, 0)
	ctx := setupContext(in, "x", typeir.GetMixed())

	clauses := r.Assertions(conditionOf(t, "is_int($x)"), true)
	require.NotEmpty(t, clauses)
	outcome := r.Apply(clauses, ctx)

	assert.False(t, outcome.Contradiction)
	refined := ctx.Locals[in.Intern("x")]
	require.Len(t, refined.Atomics, 1)
	assert.Equal(t, typeir.KindInt, refined.Atomics[0].Kind())
}

func TestNegatedIsStringDropsString(t *testing.T) {
	in := interner.New()
	r := reconcile.New(in, nil, 0)
	u := typeir.NewUnion(typeir.TInt{}, typeir.TString{Shape: typeir.StringGeneral})
	ctx := setupContext(in, "x", u)

	clauses := r.Assertions(conditionOf(t, "!is_string($x)"), true)
	require.NotEmpty(t, clauses)
	r.Apply(clauses, ctx)

	refined := ctx.Locals[in.Intern("x")]
	assert.True(t, refined.HasKind(typeir.KindInt))
	assert.False(t, refined.HasKind(typeir.KindString))
}

func TestConjunctionAssertsBothVariables(t *testing.T) {
	in := interner.New()
	r := reconcile.New(in, nil, 0)
	ctx := blockctx.New(blockctx.ScopeContext{})
	ctx.Locals[in.Intern("a")] = typeir.GetMixed()
	ctx.Locals[in.Intern("b")] = typeir.GetMixed()

	clauses := r.Assertions(conditionOf(t, "is_int($a) && is_string($b)"), true)
	require.Len(t, clauses, 2)
	r.Apply(clauses, ctx)

	assert.Equal(t, typeir.KindInt, ctx.Locals[in.Intern("a")].Atomics[0].Kind())
	assert.Equal(t, typeir.KindString, ctx.Locals[in.Intern("b")].Atomics[0].Kind())
}

func TestDisjunctionFalseBranchNegatesBoth(t *testing.T) {
	in := interner.New()
	r := reconcile.New(in, nil, 0)
	ctx := blockctx.New(blockctx.ScopeContext{})
	ctx.Locals[in.Intern("x")] = typeir.NewUnion(typeir.TInt{}, typeir.TString{Shape: typeir.StringGeneral}, typeir.TNull{})

	// !(is_int($x) || is_string($x)) leaves only null.
	clauses := r.Assertions(conditionOf(t, "is_int($x) || is_string($x)"), false)
	require.Len(t, clauses, 2)
	r.Apply(clauses, ctx)

	refined := ctx.Locals[in.Intern("x")]
	require.Len(t, refined.Atomics, 1)
	assert.Equal(t, typeir.KindNull, refined.Atomics[0].Kind())
}

func TestIdenticalNullComparison(t *testing.T) {
	in := interner.New()
	r := reconcile.New(in, nil, 0)
	u := typeir.NewUnion(typeir.TNull{}, typeir.TNamedObject{Name: in.InternLower("W")})

	trueCtx := setupContext(in, "x", u.Clone())
	r.Apply(r.Assertions(conditionOf(t, "$x === null"), true), trueCtx)
	require.Len(t, trueCtx.Locals[in.Intern("x")].Atomics, 1)
	assert.Equal(t, typeir.KindNull, trueCtx.Locals[in.Intern("x")].Atomics[0].Kind())

	falseCtx := setupContext(in, "x", u.Clone())
	r.Apply(r.Assertions(conditionOf(t, "$x === null"), false), falseCtx)
	assert.False(t, falseCtx.Locals[in.Intern("x")].HasKind(typeir.KindNull))
}

func TestInstanceofNarrowsWithOracle(t *testing.T) {
	in := interner.New()
	store := fakeOracle{
		in.InternLower("Child"): {in.InternLower("Base"): true},
	}
	r := reconcile.New(in, store, 0)

	u := typeir.NewUnion(
		typeir.TNamedObject{Name: in.InternLower("Child")},
		typeir.TNamedObject{Name: in.InternLower("Other")},
	)
	ctx := setupContext(in, "x", u)
	r.Apply(r.Assertions(conditionOf(t, "$x instanceof Base"), true), ctx)

	refined := ctx.Locals[in.Intern("x")]
	require.Len(t, refined.Atomics, 1)
	obj := refined.Atomics[0].(typeir.TNamedObject)
	assert.Equal(t, in.InternLower("Child"), obj.Name)
}

func TestTruthyDropsFalsyAtomics(t *testing.T) {
	in := interner.New()
	r := reconcile.New(in, nil, 0)
	u := typeir.NewUnion(typeir.TNull{}, typeir.TBool{Narrow: typeir.BoolFalse}, typeir.TString{Shape: typeir.StringGeneral})
	ctx := setupContext(in, "x", u)

	r.Apply(r.Assertions(conditionOf(t, "$x"), true), ctx)

	refined := ctx.Locals[in.Intern("x")]
	assert.False(t, refined.HasKind(typeir.KindNull))
	assert.False(t, refined.HasKind(typeir.KindBool))
	assert.True(t, refined.HasKind(typeir.KindString))
}

func TestContradictionDetected(t *testing.T) {
	in := interner.New()
	r := reconcile.New(in, nil, 0)
	ctx := setupContext(in, "x", typeir.FromAtomic(typeir.TString{Shape: typeir.StringGeneral}))

	outcome := r.Apply(r.Assertions(conditionOf(t, "is_int($x)"), true), ctx)

	assert.True(t, outcome.Contradiction)
	assert.Equal(t, "x", outcome.ContradictionVar)
	assert.True(t, ctx.Locals[in.Intern("x")].IsNever())
}

func TestRedundantNarrowing(t *testing.T) {
	in := interner.New()
	r := reconcile.New(in, nil, 0)
	ctx := setupContext(in, "x", typeir.FromAtomic(typeir.TInt{}))

	outcome := r.Apply(r.Assertions(conditionOf(t, "is_int($x)"), true), ctx)

	assert.True(t, outcome.Redundant)
	assert.Equal(t, "x", outcome.RedundantVar)
}

func TestIssetClearsNullAndUndefined(t *testing.T) {
	in := interner.New()
	r := reconcile.New(in, nil, 0)
	u := typeir.NewUnion(typeir.TNull{}, typeir.TInt{})
	u.Flags.PossiblyUndefined = true
	ctx := setupContext(in, "x", u)

	outcome := r.Apply(r.Assertions(conditionOf(t, "isset($x)"), true), ctx)
	assert.False(t, outcome.RedundantIsset)

	refined := ctx.Locals[in.Intern("x")]
	assert.False(t, refined.HasKind(typeir.KindNull))
	assert.False(t, refined.Flags.PossiblyUndefined)

	// A second isset on the now-definite variable is redundant.
	outcome = r.Apply(r.Assertions(conditionOf(t, "isset($x)"), true), ctx)
	assert.True(t, outcome.RedundantIsset)
}

// fakeOracle is a flat child->parents subtype table.
type fakeOracle map[interner.StringId]map[interner.StringId]bool

func (o fakeOracle) IsSameOrSubtype(child, parent interner.StringId) bool {
	if child == parent {
		return true
	}
	return o[child][parent]
}

func (o fakeOracle) IsCovariantParamAt(interner.StringId, int) bool { return false }
