// Package phpast defines the PHP abstract syntax tree phpparse produces and
// the Visitor/Walk pair used to traverse it. Like phplex and phpparse, this
// is an external-collaborator stand-in. The scanner, analyzer and reconcile
// packages read the tree through the Program field of the ParsedFile
// contract.
package phpast

import "github.com/krizos/phpanalyze/internal/span"

// Node is any AST node: every statement, expression, and type annotation.
type Node interface {
	Span() span.Span
}

// Statement is a top-level or block-level construct: control flow, a
// declaration, or a bare expression used for its side effect.
type Statement interface {
	Node
	statementNode()
}

// Expression is anything that produces a value.
type Expression interface {
	Node
	expressionNode()
}

// TypeNode is a parsed type annotation (a parameter type, return type,
// property type, or part of a union/intersection/nullable compound).
type TypeNode interface {
	Node
	typeNode()
}

type base struct{ Sp span.Span }

func (b base) Span() span.Span { return b.Sp }

// DocComment is the raw `/** ... */` text immediately preceding a
// declaration, handed to internal/docblock for tag extraction.
type DocComment struct {
	base
	Raw string
}

// Program is the root node: one parsed file's top-level statement list.
type Program struct {
	base
	Statements []Statement
}

// ---- Statements ----

type ExpressionStatement struct {
	base
	Expression Expression
}

func (*ExpressionStatement) statementNode() {}

type BlockStatement struct {
	base
	Statements []Statement
}

func (*BlockStatement) statementNode() {}

type EchoStatement struct {
	base
	Expressions []Expression
}

func (*EchoStatement) statementNode() {}

type ReturnStatement struct {
	base
	ReturnValue Expression // nil: bare `return;`
}

func (*ReturnStatement) statementNode() {}

type BreakStatement struct {
	base
	Depth Expression // nil: `break;` with implicit depth 1
}

func (*BreakStatement) statementNode() {}

type ContinueStatement struct {
	base
	Depth Expression
}

func (*ContinueStatement) statementNode() {}

type ElseIf struct {
	Condition   Expression
	Consequence *BlockStatement
}

type IfStatement struct {
	base
	Condition   Expression
	Consequence *BlockStatement
	ElseIfs     []*ElseIf
	Alternative *BlockStatement // nil: no else
}

func (*IfStatement) statementNode() {}

type WhileStatement struct {
	base
	Condition Expression
	Body      *BlockStatement
}

func (*WhileStatement) statementNode() {}

type DoWhileStatement struct {
	base
	Body      *BlockStatement
	Condition Expression
}

func (*DoWhileStatement) statementNode() {}

type ForStatement struct {
	base
	Init      []Expression
	Condition []Expression
	Increment []Expression
	Body      *BlockStatement
}

func (*ForStatement) statementNode() {}

// ForeachStatement covers both `foreach ($arr as $v)` (Key nil) and
// `foreach ($arr as $k => $v)`.
type ForeachStatement struct {
	base
	Array   Expression
	Key     Expression // nil if unkeyed
	Value   Expression
	ByRef   bool
	Body    *BlockStatement
}

func (*ForeachStatement) statementNode() {}

type SwitchCase struct {
	Value Expression // nil for `default:`
	Body  []Statement
}

type SwitchStatement struct {
	base
	Subject Expression
	Cases   []*SwitchCase
}

func (*SwitchStatement) statementNode() {}

type CatchClause struct {
	Types    []*NamedType
	Variable *Variable // nil: `catch (Throwable)` without a bound variable
	Body     *BlockStatement
}

type TryStatement struct {
	base
	Body         *BlockStatement
	CatchClauses []*CatchClause
	Finally      *BlockStatement // nil: no finally block
}

func (*TryStatement) statementNode() {}

type ThrowStatement struct {
	base
	Expression Expression
}

func (*ThrowStatement) statementNode() {}

type GlobalStatement struct {
	base
	Variables []*Variable
}

func (*GlobalStatement) statementNode() {}

type StaticVarStatement struct {
	base
	Variables []*PropertyItem
}

func (*StaticVarStatement) statementNode() {}

// Param is one function/method/closure parameter.
type Param struct {
	Name       *Variable
	Type       TypeNode // nil: untyped
	DefaultValue Expression
	ByRef      bool
	Variadic   bool
	// PromotedVisibility is non-empty for PHP 8 constructor property
	// promotion ("public"/"protected"/"private"); empty means not promoted.
	PromotedVisibility string
	Readonly           bool
}

type FunctionDeclaration struct {
	base
	Name        *Identifier
	Parameters  []*Param
	ReturnType  TypeNode
	ByRefReturn bool
	Body        *BlockStatement
	Doc         *DocComment
}

func (*FunctionDeclaration) statementNode() {}

type ClassDeclaration struct {
	base
	Name       *Identifier
	Extends    *NamedType
	Implements []*NamedType
	Body       []Statement
	Abstract   bool
	Final      bool
	Doc        *DocComment
}

func (*ClassDeclaration) statementNode() {}

// MethodSignature is an interface member: a method with no body.
type MethodSignature struct {
	Name       *Identifier
	Parameters []*Param
	ReturnType TypeNode
	Doc        *DocComment
}

type InterfaceDeclaration struct {
	base
	Name      *Identifier
	Extends   []*NamedType
	Body      []*MethodSignature
	Constants []*ClassConstantDeclaration
	Doc       *DocComment
}

func (*InterfaceDeclaration) statementNode() {}

type TraitDeclaration struct {
	base
	Name *Identifier
	Body []Statement
	Doc  *DocComment
}

func (*TraitDeclaration) statementNode() {}

type EnumCase struct {
	Name  *Identifier
	Value Expression // nil for pure enums
}

type EnumDeclaration struct {
	base
	Name        *Identifier
	BackingType TypeNode // nil: pure enum
	Implements  []*NamedType
	Cases       []*EnumCase
	Body        []Statement // methods, constants
	Doc         *DocComment
}

func (*EnumDeclaration) statementNode() {}

type PropertyItem struct {
	Name         *Variable
	DefaultValue Expression
}

type PropertyDeclaration struct {
	base
	Type       TypeNode
	Properties []*PropertyItem
	Visibility string // "public"/"protected"/"private"
	// WriteVisibility is the `*(set)` asymmetric-visibility modifier;
	// empty means it follows Visibility.
	WriteVisibility string
	Static          bool
	Readonly        bool
	Abstract        bool
	// Modifiers is every modifier keyword as written, in order, so the
	// scanner can report duplicates and combinations PHP rejects.
	Modifiers []string
	Doc       *DocComment
}

func (*PropertyDeclaration) statementNode() {}

type MethodDeclaration struct {
	base
	Name        *Identifier
	Parameters  []*Param
	ReturnType  TypeNode
	ByRefReturn bool
	Body        *BlockStatement // nil: abstract method
	Visibility  string
	Static      bool
	Abstract    bool
	Final       bool
	Doc         *DocComment
}

func (*MethodDeclaration) statementNode() {}

type ConstItem struct {
	Name  *Identifier
	Value Expression
}

// ConstStatement is a top-level `const X = ...;` declaration.
type ConstStatement struct {
	base
	Constants []*ConstItem
	Doc       *DocComment
}

func (*ConstStatement) statementNode() {}

type ClassConstantDeclaration struct {
	base
	Constants  []*ConstItem
	Type       TypeNode // typed constants (PHP 8.3); nil when untyped
	Visibility string
	Final      bool
	// Modifiers is every modifier keyword as written, in order, so the
	// scanner can report duplicates and modifiers constants don't accept.
	Modifiers []string
	Doc       *DocComment
}

func (*ClassConstantDeclaration) statementNode() {}

// TraitUseAdaptation models one `insteadof`/`as` clause inside a `use` block.
type TraitUseAdaptation struct {
	Trait       *NamedType // nil if unqualified
	Method      string
	InsteadOf   []*NamedType
	AsVisibility string // empty: unchanged
	AsAlias     string // empty: unchanged
}

type TraitUse struct {
	base
	Traits      []*NamedType
	Adaptations []*TraitUseAdaptation
}

func (*TraitUse) statementNode() {}

// ---- Expressions ----

type Identifier struct {
	base
	Name string
}

func (*Identifier) expressionNode() {}

type IntegerLiteral struct {
	base
	Value int64
}

func (*IntegerLiteral) expressionNode() {}

type FloatLiteral struct {
	base
	Value float64
}

func (*FloatLiteral) expressionNode() {}

type StringLiteral struct {
	base
	Value string
}

func (*StringLiteral) expressionNode() {}

type BooleanLiteral struct {
	base
	Value bool
}

func (*BooleanLiteral) expressionNode() {}

type NullLiteral struct{ base }

func (*NullLiteral) expressionNode() {}

type Variable struct {
	base
	Name string // excludes the leading $
}

func (*Variable) expressionNode() {}

type ArrayElement struct {
	Key    Expression // nil: list-style entry
	Value  Expression
	ByRef  bool
	Spread bool // `...$x` inside an array literal
}

type ArrayExpression struct {
	base
	Elements []*ArrayElement
}

func (*ArrayExpression) expressionNode() {}

type PrefixExpression struct {
	base
	Operator string
	Right    Expression
}

func (*PrefixExpression) expressionNode() {}

type InfixExpression struct {
	base
	Operator string
	Left     Expression
	Right    Expression
}

func (*InfixExpression) expressionNode() {}

type AssignmentExpression struct {
	base
	Operator string // "=", "+=", "??=", ...
	Left     Expression
	Right    Expression
	ByRef    bool // `$a = &$b`
}

func (*AssignmentExpression) expressionNode() {}

// TernaryExpression covers both `a ? b : c` (Consequence set) and the
// Elvis shorthand `a ?: c` (Consequence nil).
type TernaryExpression struct {
	base
	Condition   Expression
	Consequence Expression
	Alternative Expression
}

func (*TernaryExpression) expressionNode() {}

type IndexExpression struct {
	base
	Left  Expression
	Index Expression // nil: `$a[]` append-context
}

func (*IndexExpression) expressionNode() {}

type PropertyExpression struct {
	base
	Object   Expression
	Property Expression // *Identifier for a literal name, else a dynamic name expression
}

func (*PropertyExpression) expressionNode() {}

type NullsafePropertyExpression struct {
	base
	Object   Expression
	Property Expression
}

func (*NullsafePropertyExpression) expressionNode() {}

type StaticPropertyExpression struct {
	base
	Class    Expression // *Identifier (class name), *Variable, or NamedType-wrapping identifier
	Property Expression
}

func (*StaticPropertyExpression) expressionNode() {}

type CallExpression struct {
	base
	Function  Expression
	Arguments []*Argument
}

func (*CallExpression) expressionNode() {}

// Argument is one call argument, optionally named (PHP 8) or spread.
type Argument struct {
	Name   string // empty: positional
	Value  Expression
	Spread bool
}

type MethodCallExpression struct {
	base
	Object    Expression
	Method    Expression
	Arguments []*Argument
	Nullsafe  bool // `?->method()`
}

func (*MethodCallExpression) expressionNode() {}

type StaticCallExpression struct {
	base
	Class     Expression
	Method    Expression
	Arguments []*Argument
}

func (*StaticCallExpression) expressionNode() {}

type NewExpression struct {
	base
	Class     Expression // *Identifier for a class name, or an arbitrary expression for `new ($cls)()`
	Arguments []*Argument
	// AnonymousBody is non-nil for `new class { ... }` anonymous classes.
	AnonymousBody *ClassDeclaration
}

func (*NewExpression) expressionNode() {}

type InstanceofExpression struct {
	base
	Left  Expression
	Right Expression
}

func (*InstanceofExpression) expressionNode() {}

type CastExpression struct {
	base
	Type string // "int", "float", "string", "bool", "array", "object"
	Expr Expression
}

func (*CastExpression) expressionNode() {}

type GroupedExpression struct {
	base
	Expr Expression
}

func (*GroupedExpression) expressionNode() {}

type MatchArm struct {
	Conditions []Expression // empty: `default`
	Body       Expression
}

type MatchExpression struct {
	base
	Subject Expression
	Arms    []*MatchArm
}

func (*MatchExpression) expressionNode() {}

type ClosureUse struct {
	Name  string
	ByRef bool
}

type ClosureExpression struct {
	base
	Parameters []*Param
	Uses       []*ClosureUse
	ReturnType TypeNode
	Body       *BlockStatement
	Static     bool
	ByRef      bool
}

func (*ClosureExpression) expressionNode() {}

// ArrowFunctionExpression is `fn(...) => expr`: implicitly captures the
// enclosing scope by value rather than an explicit `use` list.
type ArrowFunctionExpression struct {
	base
	Parameters []*Param
	ReturnType TypeNode
	Body       Expression
	Static     bool
}

func (*ArrowFunctionExpression) expressionNode() {}

// ListExpression is `[$a, $b] = ...` / `list($a, $b) = ...` destructuring,
// valid only on the left-hand side of an assignment or foreach value.
type ListExpression struct {
	base
	Elements []*ArrayElement
}

func (*ListExpression) expressionNode() {}

// ---- Types ----

// NamedType is a leaf type reference: a class name or a scalar keyword.
type NamedType struct {
	base
	Name string
}

func (*NamedType) typeNode() {}

type NullableType struct {
	base
	Type TypeNode
}

func (*NullableType) typeNode() {}

type UnionType struct {
	base
	Types []TypeNode
}

func (*UnionType) typeNode() {}

type IntersectionType struct {
	base
	Types []TypeNode
}

func (*IntersectionType) typeNode() {}
