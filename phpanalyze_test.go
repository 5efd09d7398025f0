package phpanalyze_test

import (
	"context"
	"testing"

	"github.com/krizos/phpanalyze"
	"github.com/krizos/phpanalyze/issue"
	"github.com/krizos/phpanalyze/phpsettings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyzeCode(t *testing.T, code string) *phpanalyze.AnalysisResult {
	t.Helper()
	settings := phpsettings.Default()
	settings.CollectExpressionTypes = true
	return analyzeCodeWith(t, code, settings)
}

func analyzeCodeWith(t *testing.T, code string, settings phpsettings.Settings) *phpanalyze.AnalysisResult {
	t.Helper()
	file, parseErrors := phpanalyze.ParseSource(1, "test.php", code)
	require.Empty(t, parseErrors, "test inputs must parse cleanly")

	result, err := phpanalyze.Analyze(context.Background(), []phpanalyze.ParsedFile{file}, settings)
	require.NoError(t, err)
	return result
}

func issueCodes(result *phpanalyze.AnalysisResult) []issue.Code {
	codes := make([]issue.Code, 0, len(result.Issues))
	for _, i := range result.Issues {
		codes = append(codes, i.Code)
	}
	return codes
}

func hasExpressionType(result *phpanalyze.AnalysisResult, id string) bool {
	for _, rendered := range result.ExpressionTypes {
		if rendered == id {
			return true
		}
	}
	return false
}

// Scenario 1: accessing a missing constant on an existing class.
func TestUndefinedClassConstant(t *testing.T) {
	result := analyzeCode(t, `<?php class A { public const int Foo = 1; } $_ = A::Bar;`)

	assert.ElementsMatch(t,
		[]issue.Code{issue.UndefinedClassLikeConstant, issue.ImpossibleAssignment},
		issueCodes(result))
	assert.True(t, hasExpressionType(result, "never"), "A::Bar should type as never")
}

// Scenario 2: accessing a constant on a class that does not exist.
func TestNonExistentClassConstant(t *testing.T) {
	result := analyzeCode(t, `<?php $_ = NonExistent::SOME;`)

	assert.ElementsMatch(t,
		[]issue.Code{issue.NonExistentClassLike, issue.ImpossibleAssignment},
		issueCodes(result))
}

// Scenario 3: interface constants appear on implementors.
func TestInterfaceConstantThroughImplementor(t *testing.T) {
	result := analyzeCode(t, `<?php interface I { const X = 1; } class C implements I {} $_ = C::X;`)

	assert.Empty(t, result.Issues)
	assert.True(t, hasExpressionType(result, "int(1)"), "C::X should type as int(1)")
}

// Scenario 4: missing required argument.
func TestTooFewArguments(t *testing.T) {
	result := analyzeCode(t, `<?php function f(int $a, int $b): int { return $a+$b; } $_ = f(1);`)

	assert.Equal(t, []issue.Code{issue.TooFewArguments}, issueCodes(result))
}

// Scenario 5: static property assignment type mismatch.
func TestInvalidStaticPropertyAssignment(t *testing.T) {
	result := analyzeCode(t, `<?php class A { public static string $p = ""; } A::$p = 123;`)

	assert.Equal(t, []issue.Code{issue.InvalidPropertyAssignmentValue}, issueCodes(result))
}

// Scenario 6: null-safe call suppresses the possible-null issue; a plain
// call on a nullable receiver reports it.
func TestNullsafeVersusPlainCallOnNullable(t *testing.T) {
	result := analyzeCode(t, `<?php
interface W { public function write(string $s): void; }
function g(): ?W { return null; }
g()?->write("x");
g()->write("x");`)

	assert.Equal(t, []issue.Code{issue.PossibleMethodAccessOnNull}, issueCodes(result))
}

// Scenario 7: template inference propagates the literal argument type.
func TestTemplateIdentityInference(t *testing.T) {
	result := analyzeCode(t, `<?php
/**
 * @template T
 * @param T $x
 * @return T
 */
function id($x) { return $x; }
$y = id(42);`)

	assert.Empty(t, result.Issues)
	assert.True(t, hasExpressionType(result, "int(42)"), "id(42) should type as int(42)")
}

// Scenario 8: is_int refines a mixed parameter inside the branch.
func TestIsIntNarrowsMixedParameter(t *testing.T) {
	result := analyzeCode(t, `<?php
function h(mixed $x): int {
    if (is_int($x)) { return $x; }
    return 0;
}`)

	assert.Empty(t, result.Issues)
}

// Determinism (spec §8): two runs over the same input produce identical
// sorted issue lists.
func TestDeterministicIssueOrder(t *testing.T) {
	code := `<?php
$_ = NonExistent::A;
$_ = NonExistent::B;
undefined_fn();
$u = $undefined;`

	first := analyzeCode(t, code)
	second := analyzeCode(t, code)

	require.Equal(t, len(first.Issues), len(second.Issues))
	for i := range first.Issues {
		assert.Equal(t, first.Issues[i].Code, second.Issues[i].Code)
		assert.Equal(t, first.Issues[i].PrimarySpan(), second.Issues[i].PrimarySpan())
	}
}

func TestUndefinedVariableReported(t *testing.T) {
	result := analyzeCode(t, `<?php $a = $nope;`)
	assert.Contains(t, issueCodes(result), issue.UndefinedVariable)
}

func TestParadoxicalCondition(t *testing.T) {
	result := analyzeCode(t, `<?php
function p(string $s): void {
    if (is_int($s)) { echo "?"; }
}`)
	assert.Contains(t, issueCodes(result), issue.ParadoxicalCondition)
}

func TestRedundantCondition(t *testing.T) {
	result := analyzeCode(t, `<?php
function r(int $i): void {
    if (is_int($i)) { echo "!"; }
}`)
	assert.Contains(t, issueCodes(result), issue.RedundantCondition)
}

func TestVisibilityViolation(t *testing.T) {
	result := analyzeCode(t, `<?php
class Sealed {
    private function hidden(): void {}
}
function caller(Sealed $s): void {
    $s->hidden();
}`)
	assert.Contains(t, issueCodes(result), issue.InvalidMethodAccess)
}

func TestProtectedAccessibleFromSubclass(t *testing.T) {
	result := analyzeCode(t, `<?php
class Base {
    protected function guarded(): int { return 1; }
}
class Child extends Base {
    public function call(): int { return $this->guarded(); }
}`)
	assert.Empty(t, result.Issues)
}

func TestEnumCaseAccess(t *testing.T) {
	result := analyzeCode(t, `<?php
enum Suit: string {
    case Hearts = 'H';
}
$c = Suit::Hearts;`)
	assert.Empty(t, result.Issues)
	// Type ids render class-like names in their canonical lowered form.
	assert.True(t, hasExpressionType(result, "suit::Hearts"))
}

func TestStaticReturnPropagation(t *testing.T) {
	result := analyzeCode(t, `<?php
class Builder {
    public function with(): static { return $this; }
}
class SubBuilder extends Builder {}
function make(SubBuilder $b): SubBuilder {
    return $b->with();
}`)
	assert.Empty(t, result.Issues)
}

func TestCoalesceStripsNull(t *testing.T) {
	result := analyzeCode(t, `<?php
function c(?int $i): int {
    return $i ?? 0;
}`)
	assert.Empty(t, result.Issues)
}

func TestInvalidArgumentReported(t *testing.T) {
	result := analyzeCode(t, `<?php
function takesInt(int $i): void {}
takesInt("nope");`)
	assert.Contains(t, issueCodes(result), issue.InvalidArgument)
}

func TestNamedArguments(t *testing.T) {
	result := analyzeCode(t, `<?php
function greet(string $name, string $greeting = "hi"): string {
    return $greeting . " " . $name;
}
greet(greeting: "yo", name: "ana");
greet(nope: "x");`)
	codes := issueCodes(result)
	assert.Contains(t, codes, issue.InvalidNamedArgument)
	assert.Contains(t, codes, issue.TooFewArguments)
}

func TestPerFileTimeoutProducesSingleIssue(t *testing.T) {
	settings := phpsettings.Default()
	settings.PerFileTimeout = 1 // nanosecond budget expires immediately

	result := analyzeCodeWith(t, `<?php
function busy(): int { return 1; }
$x = busy();`, settings)

	require.Len(t, result.Issues, 1)
	assert.Equal(t, issue.AnalysisTimeout, result.Issues[0].Code)
}
