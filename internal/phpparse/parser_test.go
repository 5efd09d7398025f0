package phpparse_test

import (
	"testing"

	"github.com/krizos/phpanalyze/internal/phpast"
	"github.com/krizos/phpanalyze/internal/phplex"
	"github.com/krizos/phpanalyze/internal/phpparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSource(t *testing.T, src string) *phpast.Program {
	t.Helper()
	lexer := phplex.New("test.php", src)
	parser := phpparse.New(1, lexer.Tokenize())
	prog := parser.Parse()
	require.Empty(t, parser.Errors(), "unexpected parse errors")
	return prog
}

func TestParseFunctionDeclaration(t *testing.T) {
	prog := parseSource(t, `<?php
function add(int $a, int $b = 0): int {
    return $a + $b;
}`)
	require.Len(t, prog.Statements, 1)

	fn, ok := prog.Statements[0].(*phpast.FunctionDeclaration)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name.Name)
	require.Len(t, fn.Parameters, 2)
	assert.Equal(t, "a", fn.Parameters[0].Name.Name)
	assert.Nil(t, fn.Parameters[0].DefaultValue)
	assert.NotNil(t, fn.Parameters[1].DefaultValue)

	ret, ok := fn.ReturnType.(*phpast.NamedType)
	require.True(t, ok)
	assert.Equal(t, "int", ret.Name)
	require.Len(t, fn.Body.Statements, 1)
}

func TestParseClassWithMembers(t *testing.T) {
	prog := parseSource(t, `<?php
final class Point {
    public const int ORIGIN = 0;
    private static ?float $cache = null;
    protected int $x = 1, $y = 2;

    public function __construct(private int $z) {}

    public static function make(): static {
        return new static(0);
    }
}`)
	require.Len(t, prog.Statements, 1)

	class, ok := prog.Statements[0].(*phpast.ClassDeclaration)
	require.True(t, ok)
	assert.True(t, class.Final)
	assert.Equal(t, "Point", class.Name.Name)
	require.Len(t, class.Body, 5)

	constDecl, ok := class.Body[0].(*phpast.ClassConstantDeclaration)
	require.True(t, ok)
	assert.Equal(t, "public", constDecl.Visibility)
	require.Len(t, constDecl.Constants, 1)
	assert.Equal(t, "ORIGIN", constDecl.Constants[0].Name.Name)
	require.NotNil(t, constDecl.Type)

	cache, ok := class.Body[1].(*phpast.PropertyDeclaration)
	require.True(t, ok)
	assert.Equal(t, "private", cache.Visibility)
	assert.True(t, cache.Static)
	_, ok = cache.Type.(*phpast.NullableType)
	assert.True(t, ok)

	multi, ok := class.Body[2].(*phpast.PropertyDeclaration)
	require.True(t, ok)
	require.Len(t, multi.Properties, 2)
	assert.Equal(t, "x", multi.Properties[0].Name.Name)
	assert.Equal(t, "y", multi.Properties[1].Name.Name)

	ctor, ok := class.Body[3].(*phpast.MethodDeclaration)
	require.True(t, ok)
	assert.Equal(t, "__construct", ctor.Name.Name)
	require.Len(t, ctor.Parameters, 1)
	assert.Equal(t, "private", ctor.Parameters[0].PromotedVisibility)

	factory, ok := class.Body[4].(*phpast.MethodDeclaration)
	require.True(t, ok)
	assert.True(t, factory.Static)
}

func TestParseInterfaceWithConstant(t *testing.T) {
	prog := parseSource(t, `<?php
interface Shape {
    const SIDES = 0;
    public function area(): float;
}`)
	require.Len(t, prog.Statements, 1)

	iface, ok := prog.Statements[0].(*phpast.InterfaceDeclaration)
	require.True(t, ok)
	require.Len(t, iface.Constants, 1)
	assert.Equal(t, "SIDES", iface.Constants[0].Constants[0].Name.Name)
	require.Len(t, iface.Body, 1)
	assert.Equal(t, "area", iface.Body[0].Name.Name)
}

func TestParseEnumWithBackedCases(t *testing.T) {
	prog := parseSource(t, `<?php
enum Suit: string implements HasColor {
    case Hearts = 'H';
    case Spades = 'S';

    public function color(): string {
        return 'red';
    }
}`)
	require.Len(t, prog.Statements, 1)

	enum, ok := prog.Statements[0].(*phpast.EnumDeclaration)
	require.True(t, ok)
	assert.Equal(t, "Suit", enum.Name.Name)
	require.NotNil(t, enum.BackingType)
	require.Len(t, enum.Cases, 2)
	assert.Equal(t, "Hearts", enum.Cases[0].Name.Name)
	require.NotNil(t, enum.Cases[0].Value)
	require.Len(t, enum.Body, 1)
}

func TestParseControlFlow(t *testing.T) {
	prog := parseSource(t, `<?php
if ($a) {
    $b = 1;
} elseif ($c) {
    $b = 2;
} else {
    $b = 3;
}
while ($b > 0) { $b--; }
foreach ($items as $k => $v) { echo $v; }
switch ($b) {
    case 1:
        $d = 1;
        break;
    default:
        $d = 0;
}
try {
    risky();
} catch (LogicException | RuntimeException $e) {
    handle($e);
} finally {
    cleanup();
}`)
	require.Len(t, prog.Statements, 5)

	ifStmt, ok := prog.Statements[0].(*phpast.IfStatement)
	require.True(t, ok)
	require.Len(t, ifStmt.ElseIfs, 1)
	require.NotNil(t, ifStmt.Alternative)

	_, ok = prog.Statements[1].(*phpast.WhileStatement)
	assert.True(t, ok)

	foreach, ok := prog.Statements[2].(*phpast.ForeachStatement)
	require.True(t, ok)
	require.NotNil(t, foreach.Key)

	sw, ok := prog.Statements[3].(*phpast.SwitchStatement)
	require.True(t, ok)
	require.Len(t, sw.Cases, 2)
	assert.Nil(t, sw.Cases[1].Value)

	try, ok := prog.Statements[4].(*phpast.TryStatement)
	require.True(t, ok)
	require.Len(t, try.CatchClauses, 1)
	assert.Len(t, try.CatchClauses[0].Types, 2)
	require.NotNil(t, try.Finally)
}

func TestParseTraitAndUse(t *testing.T) {
	prog := parseSource(t, `<?php
trait Greets {
    public function hello(): string { return "hi"; }
}
class Greeter {
    use Greets;
}`)
	require.Len(t, prog.Statements, 2)

	trait, ok := prog.Statements[0].(*phpast.TraitDeclaration)
	require.True(t, ok)
	assert.Equal(t, "Greets", trait.Name.Name)

	class, ok := prog.Statements[1].(*phpast.ClassDeclaration)
	require.True(t, ok)
	require.Len(t, class.Body, 1)
	use, ok := class.Body[0].(*phpast.TraitUse)
	require.True(t, ok)
	require.Len(t, use.Traits, 1)
	assert.Equal(t, "Greets", use.Traits[0].Name)
}

func TestParseDocCommentAttachesToNextDeclaration(t *testing.T) {
	prog := parseSource(t, `<?php
/** @return int */
function f() { return 1; }

function g() { return 2; }`)
	require.Len(t, prog.Statements, 2)

	f := prog.Statements[0].(*phpast.FunctionDeclaration)
	require.NotNil(t, f.Doc)
	assert.Contains(t, f.Doc.Raw, "@return int")

	g := prog.Statements[1].(*phpast.FunctionDeclaration)
	assert.Nil(t, g.Doc)
}

func TestParseTopLevelConst(t *testing.T) {
	prog := parseSource(t, `<?php const LIMIT = 10, NAME = "x";`)
	require.Len(t, prog.Statements, 1)

	c, ok := prog.Statements[0].(*phpast.ConstStatement)
	require.True(t, ok)
	require.Len(t, c.Constants, 2)
	assert.Equal(t, "LIMIT", c.Constants[0].Name.Name)
	assert.Equal(t, "NAME", c.Constants[1].Name.Name)
}
