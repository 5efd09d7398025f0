package docblock_test

import (
	"testing"

	"github.com/krizos/phpanalyze/internal/docblock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParamReturnVar(t *testing.T) {
	doc := docblock.Parse(`/**
 * Adds two numbers.
 *
 * @param int $a the left operand
 * @param int|string $b
 * @return int
 */`)

	assert.Equal(t, "Adds two numbers.", doc.Summary)

	params := doc.TagsNamed("param")
	require.Len(t, params, 2)
	assert.Equal(t, "a", params[0].Variable)
	require.NotNil(t, params[0].Type)
	assert.Equal(t, docblock.ExprNamed, params[0].Type.Kind)
	assert.Equal(t, "int", params[0].Type.Name)
	assert.Equal(t, "the left operand", params[0].Description)

	assert.Equal(t, docblock.ExprUnion, params[1].Type.Kind)

	ret := doc.FirstNamed("return")
	require.NotNil(t, ret)
	assert.Equal(t, "int", ret.Type.Name)
}

func TestParseTemplateTags(t *testing.T) {
	doc := docblock.Parse(`/**
 * @template T
 * @template-covariant V of object
 * @param T $x
 * @return T
 */`)

	tpl := doc.FirstNamed("template")
	require.NotNil(t, tpl)
	assert.Equal(t, "T", tpl.Value)
	assert.Nil(t, tpl.Type)

	cov := doc.FirstNamed("template-covariant")
	require.NotNil(t, cov)
	assert.Equal(t, "V", cov.Value)
	require.NotNil(t, cov.Type)
	assert.Equal(t, "object", cov.Type.Name)
}

func TestVendorPrefixesNormalize(t *testing.T) {
	doc := docblock.Parse(`/**
 * @psalm-pure
 * @phpstan-return non-empty-string
 */`)

	assert.NotNil(t, doc.FirstNamed("pure"))
	ret := doc.FirstNamed("return")
	require.NotNil(t, ret)
	assert.Equal(t, "non-empty-string", ret.Type.Name)
}

func TestParseGenericAndShapeTypes(t *testing.T) {
	expr, err := docblock.ParseType("array<int, string>")
	require.NoError(t, err)
	assert.Equal(t, docblock.ExprGeneric, expr.Kind)
	assert.Equal(t, "array", expr.Name)
	require.Len(t, expr.Args, 2)

	expr, err = docblock.ParseType("array{id: int, name?: string}")
	require.NoError(t, err)
	assert.Equal(t, docblock.ExprArrayShape, expr.Kind)
	require.Len(t, expr.ShapeFields, 2)
	assert.Equal(t, "id", expr.ShapeFields[0].Key)
	assert.False(t, expr.ShapeFields[0].PossiblyUndefined)
	assert.True(t, expr.ShapeFields[1].PossiblyUndefined)
}

func TestParseClassStringAndLiterals(t *testing.T) {
	expr, err := docblock.ParseType("class-string<Foo>")
	require.NoError(t, err)
	assert.Equal(t, docblock.ExprClassString, expr.Kind)
	assert.Equal(t, "Foo", expr.Name)

	expr, err = docblock.ParseType("1|2|'three'|false")
	require.NoError(t, err)
	require.Equal(t, docblock.ExprUnion, expr.Kind)
	require.Len(t, expr.Members, 4)
	assert.Equal(t, int64(1), expr.Members[0].IntValue)
	assert.Equal(t, "three", expr.Members[2].StringValue)
	assert.Equal(t, docblock.ExprLiteralBool, expr.Members[3].Kind)
}

func TestParseCallableType(t *testing.T) {
	expr, err := docblock.ParseType("callable(int, string): bool")
	require.NoError(t, err)
	assert.Equal(t, docblock.ExprCallable, expr.Kind)
	require.Len(t, expr.Params, 2)
	require.NotNil(t, expr.ReturnType)
	assert.Equal(t, "bool", expr.ReturnType.Name)
}

func TestParseNullableAndArraySuffix(t *testing.T) {
	expr, err := docblock.ParseType("?int")
	require.NoError(t, err)
	assert.Equal(t, docblock.ExprNullable, expr.Kind)
	assert.Equal(t, "int", expr.Inner.Name)

	expr, err = docblock.ParseType("string[]")
	require.NoError(t, err)
	assert.Equal(t, docblock.ExprList, expr.Kind)
	assert.Equal(t, "string", expr.Inner.Name)
}

func TestParseIntersection(t *testing.T) {
	expr, err := docblock.ParseType("Countable&ArrayAccess")
	require.NoError(t, err)
	assert.Equal(t, docblock.ExprIntersection, expr.Kind)
	require.Len(t, expr.Members, 2)
}

func TestBalancedTypeSurvivesSpaces(t *testing.T) {
	doc := docblock.Parse(`/** @param array{a: int, b: string} $shape */`)
	p := doc.FirstNamed("param")
	require.NotNil(t, p)
	require.NotNil(t, p.Type)
	assert.Equal(t, docblock.ExprArrayShape, p.Type.Kind)
	assert.Equal(t, "shape", p.Variable)
}
