package typeir_test

import (
	"testing"

	"github.com/krizos/phpanalyze/typeir"
	"github.com/stretchr/testify/assert"
)

func sampleUnions() []*typeir.TUnion {
	return []*typeir.TUnion{
		typeir.GetNever(),
		typeir.GetMixed(),
		typeir.FromAtomic(typeir.TInt{Shape: typeir.IntGeneral}),
		typeir.FromAtomic(typeir.TInt{Shape: typeir.IntLiteral, Literal: 1}),
		typeir.FromAtomic(typeir.TString{Shape: typeir.StringGeneral}),
		typeir.FromAtomic(typeir.TBool{Narrow: typeir.BoolTrue}),
		typeir.NewUnion(typeir.TBool{Narrow: typeir.BoolTrue}, typeir.TBool{Narrow: typeir.BoolFalse}),
		typeir.FromAtomic(typeir.TNull{}),
	}
}

// TestCombineIdempotent: combine(U, U) == U for every sample union
// (spec.md §8's testable property list).
func TestCombineIdempotent(t *testing.T) {
	for _, u := range sampleUnions() {
		got := typeir.Combine(u, u, typeir.DefaultLiteralWideningThreshold)
		assert.True(t, typeir.UnionsEqual(u, got), "combine(%v, %v) should equal itself, got %v", u, u, got)
	}
}

// TestCombineCommutative: combine(A, B) == combine(B, A).
func TestCombineCommutative(t *testing.T) {
	units := sampleUnions()
	for _, a := range units {
		for _, b := range units {
			ab := typeir.Combine(a, b, typeir.DefaultLiteralWideningThreshold)
			ba := typeir.Combine(b, a, typeir.DefaultLiteralWideningThreshold)
			assert.True(t, typeir.UnionsEqual(ab, ba), "combine not commutative for %v, %v", a, b)
		}
	}
}

// TestCombineNeverAbsorbs: combine(never, U) == U for every non-never U.
func TestCombineNeverAbsorbs(t *testing.T) {
	never := typeir.GetNever()
	for _, u := range sampleUnions() {
		if u.IsNever() {
			continue
		}
		got := typeir.Combine(never, u, typeir.DefaultLiteralWideningThreshold)
		assert.True(t, typeir.UnionsEqual(u, got), "never should be absorbed combining with %v, got %v", u, got)

		got2 := typeir.Combine(u, never, typeir.DefaultLiteralWideningThreshold)
		assert.True(t, typeir.UnionsEqual(u, got2))
	}
}

// TestCombineMixedSaturates: combine(mixed, U) == mixed for any U.
func TestCombineMixedSaturates(t *testing.T) {
	mixed := typeir.GetMixed()
	for _, u := range sampleUnions() {
		got := typeir.Combine(mixed, u, typeir.DefaultLiteralWideningThreshold)
		assert.True(t, got.IsMixed(), "combine(mixed, %v) should saturate to mixed, got %v", u, got)
	}
}

func TestCombineWidensLiteralsPastThreshold(t *testing.T) {
	var u *typeir.TUnion
	for i := int64(0); i < 5; i++ {
		u = typeir.Combine(u, typeir.FromAtomic(typeir.TInt{Shape: typeir.IntLiteral, Literal: i}), 3)
	}
	assert.True(t, u.HasKind(typeir.KindInt))
	found := false
	for _, a := range u.Atomics {
		if iv, ok := a.(typeir.TInt); ok && iv.Shape == typeir.IntGeneral {
			found = true
		}
	}
	assert.True(t, found, "literal set exceeding the threshold should widen to the general int type")
}

func TestCombineCollapsesBoolLiterals(t *testing.T) {
	u := typeir.Combine(
		typeir.FromAtomic(typeir.TBool{Narrow: typeir.BoolTrue}),
		typeir.FromAtomic(typeir.TBool{Narrow: typeir.BoolFalse}),
		typeir.DefaultLiteralWideningThreshold,
	)
	assert.Len(t, u.Atomics, 1)
	b, ok := u.Atomics[0].(typeir.TBool)
	assert.True(t, ok)
	assert.Equal(t, typeir.BoolAny, b.Narrow)
}

func TestCombineMergesNamedObjectGenerics(t *testing.T) {
	in := newTestInterner()
	collection := in.Intern("Collection")

	a := typeir.FromAtomic(typeir.TNamedObject{
		Name:       collection,
		TypeParams: []*typeir.TUnion{typeir.FromAtomic(typeir.TInt{Shape: typeir.IntGeneral})},
	})
	b := typeir.FromAtomic(typeir.TNamedObject{
		Name:       collection,
		TypeParams: []*typeir.TUnion{typeir.FromAtomic(typeir.TString{Shape: typeir.StringGeneral})},
	})

	merged := typeir.Combine(a, b, typeir.DefaultLiteralWideningThreshold)
	assert.Len(t, merged.Atomics, 1)
	obj, ok := merged.Atomics[0].(typeir.TNamedObject)
	assert.True(t, ok)
	assert.True(t, obj.TypeParams[0].HasKind(typeir.KindInt))
	assert.True(t, obj.TypeParams[0].HasKind(typeir.KindString))
}
