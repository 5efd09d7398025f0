package typeir_test

import (
	"testing"

	"github.com/krizos/phpanalyze/typeir"
	"github.com/stretchr/testify/assert"
)

func TestExpandSubstitutesTemplate(t *testing.T) {
	in := newTestInterner()
	param := in.Intern("T")
	owner := in.Intern("Box")

	generic := typeir.FromAtomic(typeir.TGenericParam{ParameterName: param, DefiningEntity: owner})
	ctx := typeir.ExpansionContext{
		TemplateBindings: map[typeir.TemplateKey]*typeir.TUnion{
			{ParameterName: param, DefiningEntity: owner}: typeir.FromAtomic(typeir.TInt{Shape: typeir.IntGeneral}),
		},
	}

	got := typeir.Expand(generic, ctx)
	assert.True(t, got.HasKind(typeir.KindInt))
	assert.False(t, got.HasKind(typeir.KindGenericParam))
}

func TestExpandLeavesUnboundTemplateAlone(t *testing.T) {
	in := newTestInterner()
	param := in.Intern("T")
	owner := in.Intern("Box")

	generic := typeir.FromAtomic(typeir.TGenericParam{ParameterName: param, DefiningEntity: owner})
	got := typeir.Expand(generic, typeir.ExpansionContext{})
	assert.True(t, got.HasKind(typeir.KindGenericParam))
}

func TestExpandResolvesStaticToCallingClass(t *testing.T) {
	in := newTestInterner()
	static := in.Intern("static")
	concrete := in.Intern("RepositoryImpl")

	this := typeir.FromAtomic(typeir.TNamedObject{Name: static, IsThis: true})
	ctx := typeir.ExpansionContext{StaticId: static, StaticClass: concrete}

	got := typeir.Expand(this, ctx)
	assert.Len(t, got.Atomics, 1)
	obj, ok := got.Atomics[0].(typeir.TNamedObject)
	assert.True(t, ok)
	assert.Equal(t, concrete, obj.Name)
	assert.True(t, obj.IsThis)
}

func TestExpandEvaluatesConditionalTrueBranch(t *testing.T) {
	intType := typeir.FromAtomic(typeir.TInt{Shape: typeir.IntGeneral})
	stringType := typeir.FromAtomic(typeir.TString{Shape: typeir.StringGeneral})
	floatType := typeir.FromAtomic(typeir.TFloat{Shape: typeir.FloatGeneral})

	cond := typeir.FromAtomic(typeir.TConditional{
		Subject: intType,
		Test:    intType,
		IfTrue:  stringType,
		IfFalse: floatType,
	})

	got := typeir.Expand(cond, typeir.ExpansionContext{})
	assert.True(t, got.HasKind(typeir.KindString))
	assert.False(t, got.HasKind(typeir.KindFloat))
}

func TestExpandEvaluatesConditionalFalseBranch(t *testing.T) {
	intType := typeir.FromAtomic(typeir.TInt{Shape: typeir.IntGeneral})
	stringType := typeir.FromAtomic(typeir.TString{Shape: typeir.StringGeneral})
	floatType := typeir.FromAtomic(typeir.TFloat{Shape: typeir.FloatGeneral})

	cond := typeir.FromAtomic(typeir.TConditional{
		Subject: stringType,
		Test:    intType,
		IfTrue:  stringType,
		IfFalse: floatType,
	})

	got := typeir.Expand(cond, typeir.ExpansionContext{})
	assert.True(t, got.HasKind(typeir.KindFloat))
	assert.False(t, got.HasKind(typeir.KindString))
}

func TestCastAtomicToCallableSignature(t *testing.T) {
	sig := typeir.TCallableSignature{IsClosure: true, ReturnType: typeir.GetMixed()}
	got, ok := typeir.CastAtomicToCallable(sig)
	assert.True(t, ok)
	assert.Equal(t, sig, got)
}

func TestCastAtomicToCallableRejectsPlainObject(t *testing.T) {
	in := newTestInterner()
	_, ok := typeir.CastAtomicToCallable(typeir.TNamedObject{Name: in.Intern("Foo")})
	assert.False(t, ok)
}
