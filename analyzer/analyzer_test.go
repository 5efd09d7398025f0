package analyzer_test

import (
	"context"
	"testing"

	"github.com/krizos/phpanalyze/analyzer"
	"github.com/krizos/phpanalyze/blockctx"
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

func analyzeFile(t *testing.T, src string, settings phpsettings.Settings) (*blockctx.AnalysisArtifacts, []issue.Issue, *interner.Interner) {
	t.Helper()
	in := interner.New()
	lexer := phplex.New("test.php", src)
	parser := phpparse.New(1, lexer.Tokenize())
	prog := parser.Parse()
	require.Empty(t, parser.Errors())

	file := scanner.ParsedFile{Source: 1, Path: "test.php", Program: prog}
	sc := scanner.New(in, settings, nil)
	store, scanIssues := sc.ScanFile(file)
	popIssues := populator.New(store, nil).Populate()

	artifacts, issues, err := analyzer.New(store, settings, nil).AnalyzeFile(context.Background(), file)
	require.NoError(t, err)

	all := append(append(scanIssues, popIssues...), issues...)
	return artifacts, all, in
}

func codesOf(issues []issue.Issue) []issue.Code {
	out := make([]issue.Code, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Code)
	}
	return out
}

func typeIds(artifacts *blockctx.AnalysisArtifacts, in *interner.Interner) map[string]bool {
	out := map[string]bool{}
	for _, t := range artifacts.ExpressionTypes {
		out[t.Id(in)] = true
	}
	return out
}

func TestAnalyzeRequiresSealedCodebase(t *testing.T) {
	in := interner.New()
	lexer := phplex.New("test.php", "<?php $a = 1;")
	parser := phpparse.New(1, lexer.Tokenize())
	file := scanner.ParsedFile{Source: 1, Path: "test.php", Program: parser.Parse()}

	sc := scanner.New(in, phpsettings.Default(), nil)
	store, _ := sc.ScanFile(file) // never populated

	_, _, err := analyzer.New(store, phpsettings.Default(), nil).AnalyzeFile(context.Background(), file)
	require.Error(t, err)
}

func TestBranchMergeUnionsLocals(t *testing.T) {
	artifacts, issues, in := analyzeFile(t, `<?php
function pick(bool $flag): void {
    if ($flag) {
        $v = 1;
    } else {
        $v = "one";
    }
    $w = $v;
}`, phpsettings.Default())

	assert.Empty(t, issues)
	ids := typeIds(artifacts, in)
	assert.True(t, ids[`int(1)|string("one")`], "post-merge read should union both branch types, got %v", ids)
}

func TestBranchWithReturnDoesNotPollute(t *testing.T) {
	artifacts, issues, in := analyzeFile(t, `<?php
function narrow(?int $i): int {
    if ($i === null) {
        return 0;
    }
    return $i;
}`, phpsettings.Default())

	assert.Empty(t, issues)
	ids := typeIds(artifacts, in)
	assert.True(t, ids["int"], "after the early return $i should be plain int, got %v", ids)
}

func TestLoopVariablesBecomePossiblyUndefined(t *testing.T) {
	_, issues, _ := analyzeFile(t, `<?php
function run(): void {
    while (other()) {
        $inside = 1;
    }
}
function other(): bool { return false; }`, phpsettings.Default())
	assert.Empty(t, issues)
}

func TestForeachBindsKeyAndValue(t *testing.T) {
	artifacts, issues, in := analyzeFile(t, `<?php
/** @param array<string, int> $m */
function total(array $m): int {
    $sum = 0;
    foreach ($m as $k => $v) {
        $sum = $sum + $v;
    }
    return $sum;
}`, phpsettings.Default())

	assert.Empty(t, issues)
	ids := typeIds(artifacts, in)
	assert.True(t, ids["string"], "foreach key of array<string,int> should be string, got %v", ids)
}

func TestSwitchNarrowsSubjectPerCase(t *testing.T) {
	_, issues, _ := analyzeFile(t, `<?php
function label(int $code): string {
    switch ($code) {
        case 1:
            return "one";
        case 2:
            return "two";
        default:
            return "many";
    }
}`, phpsettings.Default())
	assert.Empty(t, issues)
}

func TestBreakOutsideLoopReported(t *testing.T) {
	_, issues, _ := analyzeFile(t, `<?php break;`, phpsettings.Default())
	assert.Contains(t, codesOf(issues), issue.InvalidBreak)
}

func TestCatchBindsExceptionUnion(t *testing.T) {
	artifacts, issues, in := analyzeFile(t, `<?php
class AErr {}
class BErr {}
function risky(): void {}
function guard(): void {
    try {
        risky();
    } catch (AErr | BErr $e) {
        $x = $e;
    }
}`, phpsettings.Default())

	assert.Empty(t, issues)
	ids := typeIds(artifacts, in)
	assert.True(t, ids["aerr|berr"], "catch variable should union both types, got %v", ids)
}

func TestArrayWriteRefinesShape(t *testing.T) {
	artifacts, issues, in := analyzeFile(t, `<?php
function build(): array {
    $a = [];
    $a['name'] = "x";
    $a[] = 1;
    return $a;
}`, phpsettings.Default())

	assert.Empty(t, issues)
	ids := typeIds(artifacts, in)
	found := false
	for id := range ids {
		if id == `array{0: int(1), "name": string("x")}` {
			found = true
		}
	}
	assert.True(t, found, "array writes should refine the keyed shape, got %v", ids)
}

func TestClosureCapturesByValue(t *testing.T) {
	_, issues, _ := analyzeFile(t, `<?php
function outer(): void {
    $n = 1;
    $f = function (int $m) use ($n): int {
        return $m + $n;
    };
    $f(2);
}`, phpsettings.Default())
	assert.Empty(t, issues)
}

func TestClosureUseOfUndefinedReported(t *testing.T) {
	_, issues, _ := analyzeFile(t, `<?php
$f = function () use ($ghost): void {};`, phpsettings.Default())
	assert.Contains(t, codesOf(issues), issue.UndefinedVariable)
}

func TestArrowFunctionCapturesImplicitly(t *testing.T) {
	_, issues, _ := analyzeFile(t, `<?php
function outer(int $base): int {
    $add = fn(int $m): int => $m + $base;
    return $add(1);
}`, phpsettings.Default())
	assert.Empty(t, issues)
}

func TestMatchUnionsArmTypes(t *testing.T) {
	artifacts, issues, in := analyzeFile(t, `<?php
function describe(int $n): string {
    $r = match ($n) {
        1 => "one",
        default => "many",
    };
    return $r;
}`, phpsettings.Default())

	assert.Empty(t, issues)
	ids := typeIds(artifacts, in)
	assert.True(t, ids[`string("many")|string("one")`], "match should union arm types, got %v", ids)
}

func TestParamOutWritesBack(t *testing.T) {
	artifacts, issues, in := analyzeFile(t, `<?php
/**
 * @param-out int $result
 */
function fill(mixed &$result): void {}
function caller(): int {
    $slot = null;
    fill($slot);
    return $slot;
}`, phpsettings.Default())

	assert.Empty(t, issues)
	ids := typeIds(artifacts, in)
	assert.True(t, ids["int"], "@param-out should rewrite the argument's local type, got %v", ids)
}

func TestMemoizedPropertyRead(t *testing.T) {
	settings := phpsettings.Default()
	settings.MemoizeProperties = true

	_, issues, _ := analyzeFile(t, `<?php
class Box {
    public ?int $value = null;
    public function fill(): int {
        $this->value = 3;
        return $this->value;
    }
}`, settings)
	assert.Empty(t, issues)
}

func TestWithoutMemoizationNullableReadMismatch(t *testing.T) {
	_, issues, _ := analyzeFile(t, `<?php
class Box {
    public ?int $value = null;
    public function fill(): int {
        $this->value = 3;
        return $this->value;
    }
}`, phpsettings.Default())
	assert.Contains(t, codesOf(issues), issue.InvalidReturnStatement)
}
