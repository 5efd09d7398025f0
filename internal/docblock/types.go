package docblock

import "fmt"

// TypeExprKind tags which shape of docblock type expression a TypeExpr
// holds. Docblock type syntax (psalm/phpstan dialect) is richer than native
// PHP type hints: it adds generics, literals, array shapes and callables,
// which is exactly why spec.md §4.2 says "the docblock type is treated as
// the narrower refinement".
type TypeExprKind int

const (
	ExprNamed TypeExprKind = iota
	ExprGeneric
	ExprUnion
	ExprIntersection
	ExprNullable
	ExprArrayShape
	ExprList
	ExprLiteralInt
	ExprLiteralString
	ExprLiteralBool
	ExprCallable
	ExprClassString
)

// TypeExpr is one parsed docblock type expression, the input to the
// scanner's docblock-type -> typeir.TUnion conversion.
type TypeExpr struct {
	Kind TypeExprKind

	// ExprNamed, ExprClassString (inner name)
	Name string

	// ExprGeneric: Name<Args...>
	Args []*TypeExpr

	// ExprUnion, ExprIntersection
	Members []*TypeExpr

	// ExprNullable, ExprList (element type)
	Inner *TypeExpr

	// ExprArrayShape
	ShapeFields []ShapeField

	// ExprLiteralInt
	IntValue int64
	// ExprLiteralString
	StringValue string
	// ExprLiteralBool
	BoolValue bool

	// ExprCallable
	Params     []*TypeExpr
	ReturnType *TypeExpr
}

// ShapeField is one `key: Type` or `key?: Type` entry of an `array{...}`
// shape literal.
type ShapeField struct {
	Key               string
	Type              *TypeExpr
	PossiblyUndefined bool
}

func (t *TypeExpr) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case ExprNamed:
		return t.Name
	case ExprClassString:
		return fmt.Sprintf("class-string<%s>", t.Name)
	case ExprGeneric:
		return fmt.Sprintf("%s<...>", t.Name)
	case ExprNullable:
		return "?" + t.Inner.String()
	case ExprLiteralInt:
		return fmt.Sprintf("%d", t.IntValue)
	case ExprLiteralString:
		return fmt.Sprintf("%q", t.StringValue)
	case ExprLiteralBool:
		return fmt.Sprintf("%t", t.BoolValue)
	default:
		return "<type>"
	}
}
