package scanner_test

import (
	"testing"

	"github.com/krizos/phpanalyze/codebase"
	"github.com/krizos/phpanalyze/internal/interner"
	"github.com/krizos/phpanalyze/internal/phplex"
	"github.com/krizos/phpanalyze/internal/phpparse"
	"github.com/krizos/phpanalyze/issue"
	"github.com/krizos/phpanalyze/phpsettings"
	"github.com/krizos/phpanalyze/scanner"
	"github.com/krizos/phpanalyze/typeir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanSource(t *testing.T, src string) (*codebase.CodebaseMetadata, []issue.Issue, *interner.Interner) {
	t.Helper()
	in := interner.New()
	lexer := phplex.New("test.php", src)
	parser := phpparse.New(1, lexer.Tokenize())
	prog := parser.Parse()
	require.Empty(t, parser.Errors())

	sc := scanner.New(in, phpsettings.Default(), nil)
	store, issues := sc.ScanFile(scanner.ParsedFile{Source: 1, Path: "test.php", Program: prog})
	return store, issues, in
}

func TestScanClassRecordsMembers(t *testing.T) {
	store, issues, in := scanSource(t, `<?php
final class Account {
    public const int LIMIT = 100;
    private string $owner = "none";
    public static function open(string $owner): Account {
        return new Account();
    }
}`)
	assert.Empty(t, issues)

	meta, ok := store.ClassLike(in.InternLower("Account"))
	require.True(t, ok)
	assert.True(t, meta.IsFinal)
	assert.Equal(t, codebase.KindClass, meta.Kind)

	konst, ok := meta.Constants[in.InternLower("LIMIT")]
	require.True(t, ok)
	require.Len(t, konst.Type.Atomics, 1)
	lit, ok := konst.Type.Atomics[0].(typeir.TInt)
	require.True(t, ok)
	assert.Equal(t, int64(100), lit.Literal)

	prop, ok := meta.Properties[in.InternLower("owner")]
	require.True(t, ok)
	assert.Equal(t, codebase.Private, prop.ReadVisibility)
	assert.True(t, prop.Type().HasKind(typeir.KindString))

	assert.True(t, meta.Methods[in.InternLower("open")])
	fl, ok := store.Method(in.InternLower("Account"), in.InternLower("open"))
	// Appearing maps are populator-filled; direct lookup goes through
	// FunctionLikes before populate.
	assert.False(t, ok)
	_ = fl
	require.Len(t, store.FunctionLikes, 1)
}

func TestScanDocblockTypesRefineHints(t *testing.T) {
	store, _, in := scanSource(t, `<?php
/**
 * @param non-empty-string $name
 * @return list<int>
 */
function ids(string $name): array { return []; }`)

	fl, ok := store.Function(in.InternLower("ids"))
	require.True(t, ok)
	require.Len(t, fl.Parameters, 1)

	doc := fl.Parameters[0].DocType
	require.NotNil(t, doc)
	s, ok := doc.Atomics[0].(typeir.TString)
	require.True(t, ok)
	assert.Equal(t, typeir.StringNonEmpty, s.Shape)

	ret := fl.ReturnType()
	require.Len(t, ret.Atomics, 1)
	_, ok = ret.Atomics[0].(typeir.TList)
	assert.True(t, ok)
}

func TestScanTemplatesBindToDeclaringEntity(t *testing.T) {
	store, _, in := scanSource(t, `<?php
/**
 * @template T
 * @param T $x
 * @return T
 */
function identity($x) { return $x; }`)

	fl, ok := store.Function(in.InternLower("identity"))
	require.True(t, ok)
	require.Len(t, fl.Templates, 1)

	doc := fl.Parameters[0].DocType
	require.NotNil(t, doc)
	g, ok := doc.Atomics[0].(typeir.TGenericParam)
	require.True(t, ok)
	assert.Equal(t, "t", in.Lookup(in.Lowered(g.ParameterName)))
	assert.Equal(t, "identity", in.Lookup(g.DefiningEntity))
}

func TestScanEnumValidatesBackingValues(t *testing.T) {
	_, issues, _ := scanSource(t, `<?php
enum Suit: string {
    case Hearts = 'H';
    case Broken = 1;
    case Missing;
}`)
	var codes []issue.Code
	for _, i := range issues {
		codes = append(codes, i.Code)
	}
	assert.Equal(t, []issue.Code{issue.InvalidEnumCaseValue, issue.InvalidEnumCaseValue}, codes)
}

func TestScanRejectsConstantModifiers(t *testing.T) {
	_, issues, _ := scanSource(t, `<?php
class C {
    public public const A = 1;
    static const B = 2;
}`)
	var dup, invalid int
	for _, i := range issues {
		switch i.Code {
		case issue.DuplicateModifier:
			dup++
		case issue.InvalidScanModifier:
			invalid++
		}
	}
	assert.Equal(t, 1, dup, "duplicated public should be reported once")
	assert.Equal(t, 1, invalid, "static on a constant is invalid")
}

func TestScanPromotedConstructorProperties(t *testing.T) {
	store, _, in := scanSource(t, `<?php
class Point {
    public function __construct(private int $x, protected readonly float $y) {}
}`)
	meta, ok := store.ClassLike(in.InternLower("Point"))
	require.True(t, ok)

	x, ok := meta.Properties[in.InternLower("x")]
	require.True(t, ok)
	assert.True(t, x.IsPromoted)
	assert.Equal(t, codebase.Private, x.ReadVisibility)

	y, ok := meta.Properties[in.InternLower("y")]
	require.True(t, ok)
	assert.True(t, y.IsReadonly)
	assert.True(t, y.Type().HasKind(typeir.KindFloat))
}

func TestScanGlobalConstants(t *testing.T) {
	store, _, in := scanSource(t, `<?php
const LIMIT = 5;
define('NAME', "x");`)

	limit, ok := store.Constant(in.Intern("LIMIT"))
	require.True(t, ok)
	lit := limit.Type.Atomics[0].(typeir.TInt)
	assert.Equal(t, int64(5), lit.Literal)

	name, ok := store.Constant(in.Intern("NAME"))
	require.True(t, ok)
	s := name.Type.Atomics[0].(typeir.TString)
	assert.Equal(t, "x", s.Literal)
}
