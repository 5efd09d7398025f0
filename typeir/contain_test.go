package typeir_test

import (
	"testing"

	"github.com/krizos/phpanalyze/typeir"
	"github.com/stretchr/testify/assert"
)

// TestContainmentReflexive: is_contained_by(U, U) always matches (spec.md
// §8's testable property list).
func TestContainmentReflexive(t *testing.T) {
	in := newTestInterner()
	oracle := newFakeOracle()
	widget := in.Intern("Widget")

	units := []*typeir.TUnion{
		typeir.GetNever(),
		typeir.GetMixed(),
		typeir.FromAtomic(typeir.TInt{Shape: typeir.IntLiteral, Literal: 42}),
		typeir.FromAtomic(typeir.TString{Shape: typeir.StringNonEmpty}),
		typeir.FromAtomic(typeir.TNamedObject{Name: widget}),
		typeir.NewUnion(typeir.TInt{Shape: typeir.IntGeneral}, typeir.TNull{}),
	}

	for _, u := range units {
		result := typeir.IsContainedBy(u, u, typeir.ContainmentContext{Classes: oracle})
		assert.True(t, result.Matched, "expected %v to be contained by itself", u)
	}
}

func TestContainmentLiteralInGeneral(t *testing.T) {
	lit := typeir.FromAtomic(typeir.TInt{Shape: typeir.IntLiteral, Literal: 7})
	general := typeir.FromAtomic(typeir.TInt{Shape: typeir.IntGeneral})

	result := typeir.IsContainedBy(lit, general, typeir.ContainmentContext{})
	assert.True(t, result.Matched)

	reverse := typeir.IsContainedBy(general, lit, typeir.ContainmentContext{})
	assert.False(t, reverse.Matched, "the general int type is not contained by one specific literal")
}

func TestContainmentClassHierarchy(t *testing.T) {
	in := newTestInterner()
	oracle := newFakeOracle()
	dog := in.Intern("Dog")
	animal := in.Intern("Animal")
	oracle.addSubtype(dog, animal)

	child := typeir.FromAtomic(typeir.TNamedObject{Name: dog})
	parent := typeir.FromAtomic(typeir.TNamedObject{Name: animal})

	result := typeir.IsContainedBy(child, parent, typeir.ContainmentContext{Classes: oracle})
	assert.True(t, result.Matched)

	reverse := typeir.IsContainedBy(parent, child, typeir.ContainmentContext{Classes: oracle})
	assert.False(t, reverse.Matched)
}

func TestContainmentMixedParentAlwaysMatches(t *testing.T) {
	mixed := typeir.GetMixed()
	str := typeir.FromAtomic(typeir.TString{Shape: typeir.StringGeneral})

	result := typeir.IsContainedBy(str, mixed, typeir.ContainmentContext{})
	assert.True(t, result.Matched)
	assert.True(t, result.FromMixed)
}

func TestContainmentChildMixedIsCoerced(t *testing.T) {
	mixed := typeir.GetMixed()
	str := typeir.FromAtomic(typeir.TString{Shape: typeir.StringGeneral})

	result := typeir.IsContainedBy(mixed, str, typeir.ContainmentContext{})
	assert.True(t, result.Matched)
	assert.True(t, result.ToMixed)
	assert.True(t, result.TypeCoerced)
}

func TestContainmentNeverIsBottom(t *testing.T) {
	never := typeir.GetNever()
	str := typeir.FromAtomic(typeir.TString{Shape: typeir.StringGeneral})

	result := typeir.IsContainedBy(never, str, typeir.ContainmentContext{})
	assert.True(t, result.Matched, "never is contained by everything")
}

func TestContainmentCovariantGenerics(t *testing.T) {
	in := newTestInterner()
	oracle := newFakeOracle()
	collection := in.Intern("Collection")
	dog := in.Intern("Dog")
	animal := in.Intern("Animal")
	oracle.addSubtype(dog, animal)
	oracle.markCovariant(collection, 0)

	child := typeir.FromAtomic(typeir.TNamedObject{
		Name:       collection,
		TypeParams: []*typeir.TUnion{typeir.FromAtomic(typeir.TNamedObject{Name: dog})},
	})
	parent := typeir.FromAtomic(typeir.TNamedObject{
		Name:       collection,
		TypeParams: []*typeir.TUnion{typeir.FromAtomic(typeir.TNamedObject{Name: animal})},
	})

	result := typeir.IsContainedBy(child, parent, typeir.ContainmentContext{Classes: oracle})
	assert.True(t, result.Matched, "Collection<Dog> should be contained by Collection<Animal> when covariant")
}

func TestContainmentInvariantGenericsRejectsMismatch(t *testing.T) {
	in := newTestInterner()
	oracle := newFakeOracle()
	collection := in.Intern("Collection")
	dog := in.Intern("Dog")
	animal := in.Intern("Animal")
	oracle.addSubtype(dog, animal)
	// no markCovariant call: parameter 0 stays invariant

	child := typeir.FromAtomic(typeir.TNamedObject{
		Name:       collection,
		TypeParams: []*typeir.TUnion{typeir.FromAtomic(typeir.TNamedObject{Name: dog})},
	})
	parent := typeir.FromAtomic(typeir.TNamedObject{
		Name:       collection,
		TypeParams: []*typeir.TUnion{typeir.FromAtomic(typeir.TNamedObject{Name: animal})},
	})

	result := typeir.IsContainedBy(child, parent, typeir.ContainmentContext{Classes: oracle})
	assert.False(t, result.Matched)
}
