package populator_test

import (
	"testing"

	"github.com/krizos/phpanalyze/codebase"
	"github.com/krizos/phpanalyze/internal/interner"
	"github.com/krizos/phpanalyze/internal/phplex"
	"github.com/krizos/phpanalyze/internal/phpparse"
	"github.com/krizos/phpanalyze/issue"
	"github.com/krizos/phpanalyze/phpsettings"
	"github.com/krizos/phpanalyze/populator"
	"github.com/krizos/phpanalyze/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func populateSource(t *testing.T, src string) (*codebase.CodebaseMetadata, []issue.Issue, *interner.Interner) {
	t.Helper()
	in := interner.New()
	lexer := phplex.New("test.php", src)
	parser := phpparse.New(1, lexer.Tokenize())
	prog := parser.Parse()
	require.Empty(t, parser.Errors())

	sc := scanner.New(in, phpsettings.Default(), nil)
	store, _ := sc.ScanFile(scanner.ParsedFile{Source: 1, Path: "test.php", Program: prog})
	issues := populator.New(store, nil).Populate()
	return store, issues, in
}

func TestTransitiveParentsAndInterfaces(t *testing.T) {
	store, issues, in := populateSource(t, `<?php
interface Base {}
interface Extended extends Base {}
class A implements Extended {}
class B extends A {}
class C extends B {}`)
	assert.Empty(t, issues)
	assert.True(t, store.Sealed())

	c, ok := store.ClassLike(in.InternLower("C"))
	require.True(t, ok)
	assert.True(t, c.AllParents[in.InternLower("B")])
	assert.True(t, c.AllParents[in.InternLower("A")])
	assert.True(t, c.AllInterfaces[in.InternLower("Extended")])
	assert.True(t, c.AllInterfaces[in.InternLower("Base")])

	assert.True(t, store.IsSameOrSubtype(in.InternLower("C"), in.InternLower("Base")))
	assert.False(t, store.IsSameOrSubtype(in.InternLower("Base"), in.InternLower("C")))
}

func TestAppearingMembersFollowInheritance(t *testing.T) {
	store, _, in := populateSource(t, `<?php
class Base {
    public function visible(): void {}
    private function hidden(): void {}
    protected int $counter = 0;
}
class Child extends Base {
    public function visible(): void {}
}`)

	child, ok := store.ClassLike(in.InternLower("Child"))
	require.True(t, ok)

	// Overridden method appears on the child itself.
	assert.Equal(t, in.InternLower("Child"), child.AppearingMethods[in.InternLower("visible")])
	require.Len(t, child.OverriddenMethods[in.InternLower("visible")], 1)

	// Private methods don't inherit.
	_, ok = child.AppearingMethods[in.InternLower("hidden")]
	assert.False(t, ok)

	// Protected properties appear but stay declared on the parent.
	assert.Equal(t, in.InternLower("Base"), child.AppearingProperties[in.InternLower("counter")])

	fl, ok := store.Method(in.InternLower("Child"), in.InternLower("visible"))
	require.True(t, ok)
	assert.True(t, fl.IsOverriding)
}

func TestTraitFlatteningIncludesPrivate(t *testing.T) {
	store, _, in := populateSource(t, `<?php
trait Helper {
    private function helperMethod(): int { return 1; }
}
class Uses {
    use Helper;
}`)

	uses, ok := store.ClassLike(in.InternLower("Uses"))
	require.True(t, ok)
	assert.True(t, uses.AllTraits[in.InternLower("Helper")])
	assert.Equal(t, in.InternLower("Helper"), uses.AppearingMethods[in.InternLower("helperMethod")])

	fl, ok := store.Method(in.InternLower("Uses"), in.InternLower("helperMethod"))
	require.True(t, ok)
	assert.NotNil(t, fl)
}

func TestInterfaceConstantsAppearOnImplementor(t *testing.T) {
	store, _, in := populateSource(t, `<?php
interface I { const X = 1; }
class C implements I {}`)

	c, ok := store.ClassLike(in.InternLower("C"))
	require.True(t, ok)
	assert.Equal(t, in.InternLower("I"), c.AppearingConstants[in.InternLower("X")])

	konst, declaring, ok := store.ClassConstant(in.InternLower("C"), in.InternLower("X"))
	require.True(t, ok)
	assert.Equal(t, in.InternLower("I"), declaring)
	require.NotNil(t, konst.Type)
}

func TestInheritanceCycleTerminatesWithIssue(t *testing.T) {
	_, issues, _ := populateSource(t, `<?php
class A extends B {}
class B extends A {}`)

	found := false
	for _, i := range issues {
		if i.Code == issue.CircularInheritance {
			found = true
		}
	}
	assert.True(t, found, "a cycle must be reported, not looped over")
}

func TestTemplateExtendedParamsFlatten(t *testing.T) {
	store, _, in := populateSource(t, `<?php
/**
 * @template T
 */
class Collection {}

/**
 * @extends Collection<int>
 */
class IntCollection extends Collection {}`)

	child, ok := store.ClassLike(in.InternLower("IntCollection"))
	require.True(t, ok)
	params := child.TemplateExtendedParams[in.InternLower("Collection")]
	require.Len(t, params, 1)
	assert.Equal(t, "T", in.Lookup(params[0].Name))
	assert.Equal(t, "int", params[0].Type.Id(in))
}
