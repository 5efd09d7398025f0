package codebase_test

import (
	"testing"

	"github.com/krizos/phpanalyze/codebase"
	"github.com/krizos/phpanalyze/internal/interner"
	"github.com/krizos/phpanalyze/internal/symbolid"
	"github.com/krizos/phpanalyze/typeir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeFoldsPerFileStores(t *testing.T) {
	in := interner.New()
	total := codebase.New(in)

	fileA := codebase.New(in)
	a := codebase.NewClassLike(in.Intern("A"), in.InternLower("A"), codebase.KindClass)
	fileA.AddClassLike(a)
	fileA.FunctionLikes[symbolid.NewFunction(in.InternLower("helper"))] = &codebase.FunctionLikeMetadata{
		Id: symbolid.NewFunction(in.InternLower("helper")),
	}

	fileB := codebase.New(in)
	b := codebase.NewClassLike(in.Intern("B"), in.InternLower("B"), codebase.KindInterface)
	fileB.AddClassLike(b)
	fileB.Constants[in.Intern("LIMIT")] = &codebase.ConstantMetadata{Name: in.Intern("LIMIT")}

	total.Merge(fileA)
	total.Merge(fileB)

	_, ok := total.ClassLike(in.InternLower("A"))
	assert.True(t, ok)
	_, ok = total.ClassLike(in.InternLower("B"))
	assert.True(t, ok)
	_, ok = total.Function(in.InternLower("helper"))
	assert.True(t, ok)
	_, ok = total.Constant(in.Intern("LIMIT"))
	assert.True(t, ok)
	assert.Equal(t, codebase.KindInterface, total.Symbols[in.InternLower("B")])
}

func TestOracleUsesClosures(t *testing.T) {
	in := interner.New()
	store := codebase.New(in)

	base := codebase.NewClassLike(in.Intern("Base"), in.InternLower("Base"), codebase.KindClass)
	child := codebase.NewClassLike(in.Intern("Child"), in.InternLower("Child"), codebase.KindClass)
	child.AllParents[base.Lowered] = true
	store.AddClassLike(base)
	store.AddClassLike(child)

	assert.True(t, store.IsSameOrSubtype(child.Lowered, base.Lowered))
	assert.True(t, store.IsSameOrSubtype(base.Lowered, base.Lowered))
	assert.False(t, store.IsSameOrSubtype(base.Lowered, child.Lowered))
}

func TestCovariantTemplateLookup(t *testing.T) {
	in := interner.New()
	store := codebase.New(in)

	coll := codebase.NewClassLike(in.Intern("Collection"), in.InternLower("Collection"), codebase.KindClass)
	coll.Templates = []codebase.TemplateParam{
		{Name: in.Intern("K")},
		{Name: in.Intern("V"), Covariant: true},
	}
	store.AddClassLike(coll)

	assert.False(t, store.IsCovariantParamAt(coll.Lowered, 0))
	assert.True(t, store.IsCovariantParamAt(coll.Lowered, 1))
	assert.False(t, store.IsCovariantParamAt(coll.Lowered, 5))
}

func TestEffectiveTypesPreferDocblock(t *testing.T) {
	prop := &codebase.PropertyMetadata{
		SignatureType: typeir.FromAtomic(typeir.TString{Shape: typeir.StringGeneral}),
		DocType:       typeir.FromAtomic(typeir.TString{Shape: typeir.StringNonEmpty}),
	}
	s, ok := prop.Type().Atomics[0].(typeir.TString)
	require.True(t, ok)
	assert.Equal(t, typeir.StringNonEmpty, s.Shape)

	bare := &codebase.PropertyMetadata{}
	assert.True(t, bare.Type().IsMixed())

	fn := &codebase.FunctionLikeMetadata{
		Parameters: []codebase.ParameterMetadata{
			{HasDefault: false},
			{HasDefault: true},
			{Variadic: true},
		},
	}
	assert.Equal(t, 1, fn.RequiredParamCount())
	assert.True(t, fn.ReturnType().IsMixed())
}
