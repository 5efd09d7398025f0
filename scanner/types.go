package scanner

import (
	"strings"

	"github.com/krizos/phpanalyze/codebase"
	"github.com/krizos/phpanalyze/internal/docblock"
	"github.com/krizos/phpanalyze/internal/interner"
	"github.com/krizos/phpanalyze/internal/phpast"
	"github.com/krizos/phpanalyze/typeir"
)

// TemplateScope maps template parameter names (lowered) to their generic
// atoms while converting types inside a templated declaration, so `T` in a
// @param resolves to the declaring entity's parameter rather than a class
// named T.
type TemplateScope map[interner.StringId]typeir.TGenericParam

// NewTemplateScope builds a scope from declared template parameters.
func NewTemplateScope(in *interner.Interner, params []codebase.TemplateParam, defining interner.StringId) TemplateScope {
	scope := TemplateScope{}
	for _, p := range params {
		constraint := typeir.GetMixed()
		if len(p.Bounds) > 0 && p.Bounds[0].Constraint != nil {
			constraint = p.Bounds[0].Constraint
		}
		scope[in.Lowered(p.Name)] = typeir.TGenericParam{
			ParameterName:  p.Name,
			DefiningEntity: defining,
			Constraint:     constraint,
		}
	}
	return scope
}

// Extend layers more parameters (e.g. a method's own templates over its
// class's) into a copy of the scope.
func (s TemplateScope) Extend(in *interner.Interner, params []codebase.TemplateParam, defining interner.StringId) TemplateScope {
	out := TemplateScope{}
	for k, v := range s {
		out[k] = v
	}
	for k, v := range NewTemplateScope(in, params, defining) {
		out[k] = v
	}
	return out
}

// TypeFromHint converts a native type hint into a union. Scalar keywords
// map to their atomics; anything else becomes a named object resolved
// later against the codebase.
func (sc *Scanner) TypeFromHint(node phpast.TypeNode, scope TemplateScope) *typeir.TUnion {
	if node == nil {
		return nil
	}
	switch t := node.(type) {
	case *phpast.NamedType:
		return sc.typeFromName(t.Name, nil, scope)
	case *phpast.NullableType:
		inner := sc.TypeFromHint(t.Type, scope)
		if inner == nil {
			return typeir.FromAtomic(typeir.TNull{})
		}
		return typeir.Combine(inner, typeir.FromAtomic(typeir.TNull{}), sc.threshold())
	case *phpast.UnionType:
		var out *typeir.TUnion
		for _, member := range t.Types {
			out = typeir.Combine(out, sc.TypeFromHint(member, scope), sc.threshold())
		}
		return out
	case *phpast.IntersectionType:
		return sc.intersectionFromHints(t.Types, scope)
	default:
		return typeir.GetMixed()
	}
}

func (sc *Scanner) intersectionFromHints(types []phpast.TypeNode, scope TemplateScope) *typeir.TUnion {
	var first typeir.TAtomic
	var rest []typeir.TAtomic
	for i, node := range types {
		named, ok := node.(*phpast.NamedType)
		if !ok {
			continue
		}
		u := sc.typeFromName(named.Name, nil, scope)
		if len(u.Atomics) != 1 {
			continue
		}
		a := u.Atomics[0]
		if i == 0 {
			first = a
		} else if a.CanBeIntersected() {
			rest = append(rest, a)
		}
	}
	if first == nil {
		return typeir.GetMixed()
	}
	if obj, ok := first.(typeir.TNamedObject); ok && len(rest) > 0 {
		obj.Intersections = rest
		return typeir.FromAtomic(obj)
	}
	return typeir.FromAtomic(first)
}

// typeFromName maps one type name (native hint or docblock) plus optional
// generic arguments to a union.
func (sc *Scanner) typeFromName(name string, args []*typeir.TUnion, scope TemplateScope) *typeir.TUnion {
	lowered := strings.ToLower(strings.TrimPrefix(name, "\\"))

	switch lowered {
	case "int", "integer":
		return typeir.FromAtomic(typeir.TInt{Shape: typeir.IntGeneral})
	case "float", "double":
		return typeir.FromAtomic(typeir.TFloat{Shape: typeir.FloatGeneral})
	case "string":
		return typeir.FromAtomic(typeir.TString{Shape: typeir.StringGeneral})
	case "non-empty-string":
		return typeir.FromAtomic(typeir.TString{Shape: typeir.StringNonEmpty})
	case "numeric-string":
		return typeir.FromAtomic(typeir.TString{Shape: typeir.StringNumeric})
	case "class-string":
		return typeir.FromAtomic(typeir.TString{Shape: typeir.StringClassLike})
	case "bool", "boolean":
		return typeir.FromAtomic(typeir.TBool{})
	case "true":
		return typeir.FromAtomic(typeir.TBool{Narrow: typeir.BoolTrue})
	case "false":
		return typeir.FromAtomic(typeir.TBool{Narrow: typeir.BoolFalse})
	case "null":
		return typeir.FromAtomic(typeir.TNull{})
	case "void":
		return typeir.FromAtomic(typeir.TVoid{})
	case "never", "never-return", "no-return":
		return typeir.GetNever()
	case "mixed":
		return typeir.GetMixed()
	case "scalar":
		return typeir.FromAtomic(typeir.TScalar{})
	case "array-key":
		return typeir.FromAtomic(typeir.TArrayKey{})
	case "resource":
		return typeir.FromAtomic(typeir.TResource{})
	case "object":
		return typeir.FromAtomic(typeir.TObjectAny{})
	case "callable":
		return typeir.FromAtomic(typeir.TCallableSignature{ReturnType: typeir.GetMixed()})
	case "array", "iterable":
		key := typeir.FromAtomic(typeir.TArrayKey{})
		value := typeir.GetMixed()
		if len(args) == 1 {
			value = args[0]
		} else if len(args) == 2 {
			key, value = args[0], args[1]
		}
		return typeir.FromAtomic(typeir.TGenericArray{Key: key, Value: value})
	case "list", "non-empty-list":
		elem := typeir.GetMixed()
		if len(args) == 1 {
			elem = args[0]
		}
		return typeir.FromAtomic(typeir.TList{Element: elem})
	}

	if g, ok := scope[sc.interner.InternLower(lowered)]; ok {
		return typeir.FromAtomic(g)
	}

	id := sc.interner.Intern(strings.TrimPrefix(name, "\\"))
	return typeir.FromAtomic(typeir.TNamedObject{Name: sc.interner.Lowered(id), TypeParams: args})
}

// TypeFromDocExpr converts a parsed docblock type expression into a union.
// nil expressions (unparseable docblock text) convert to nil so callers
// can fall back to the native hint.
func (sc *Scanner) TypeFromDocExpr(expr *docblock.TypeExpr, scope TemplateScope) *typeir.TUnion {
	if expr == nil {
		return nil
	}
	switch expr.Kind {
	case docblock.ExprNamed:
		return sc.typeFromName(expr.Name, nil, scope)

	case docblock.ExprGeneric:
		args := make([]*typeir.TUnion, 0, len(expr.Args))
		for _, a := range expr.Args {
			args = append(args, sc.orMixed(sc.TypeFromDocExpr(a, scope)))
		}
		return sc.typeFromName(expr.Name, args, scope)

	case docblock.ExprUnion:
		var out *typeir.TUnion
		for _, m := range expr.Members {
			out = typeir.Combine(out, sc.TypeFromDocExpr(m, scope), sc.threshold())
		}
		return out

	case docblock.ExprIntersection:
		var first typeir.TAtomic
		var rest []typeir.TAtomic
		for i, m := range expr.Members {
			u := sc.TypeFromDocExpr(m, scope)
			if u == nil || len(u.Atomics) != 1 {
				continue
			}
			if i == 0 {
				first = u.Atomics[0]
			} else if u.Atomics[0].CanBeIntersected() {
				rest = append(rest, u.Atomics[0])
			}
		}
		if obj, ok := first.(typeir.TNamedObject); ok {
			obj.Intersections = rest
			return typeir.FromAtomic(obj)
		}
		if first == nil {
			return typeir.GetMixed()
		}
		return typeir.FromAtomic(first)

	case docblock.ExprNullable:
		inner := sc.orMixed(sc.TypeFromDocExpr(expr.Inner, scope))
		return typeir.Combine(inner, typeir.FromAtomic(typeir.TNull{}), sc.threshold())

	case docblock.ExprList:
		return typeir.FromAtomic(typeir.TList{Element: sc.orMixed(sc.TypeFromDocExpr(expr.Inner, scope))})

	case docblock.ExprArrayShape:
		return sc.shapeFromDoc(expr, scope)

	case docblock.ExprLiteralInt:
		return typeir.FromAtomic(typeir.TInt{Shape: typeir.IntLiteral, Literal: expr.IntValue})

	case docblock.ExprLiteralString:
		return typeir.FromAtomic(typeir.TString{Shape: typeir.StringLiteral, Literal: expr.StringValue})

	case docblock.ExprLiteralBool:
		narrow := typeir.BoolFalse
		if expr.BoolValue {
			narrow = typeir.BoolTrue
		}
		return typeir.FromAtomic(typeir.TBool{Narrow: narrow})

	case docblock.ExprCallable:
		params := make([]typeir.CallableParam, 0, len(expr.Params))
		for _, p := range expr.Params {
			params = append(params, typeir.CallableParam{Type: sc.orMixed(sc.TypeFromDocExpr(p, scope))})
		}
		var ret *typeir.TUnion
		if expr.ReturnType != nil {
			ret = sc.TypeFromDocExpr(expr.ReturnType, scope)
		}
		return typeir.FromAtomic(typeir.TCallableSignature{
			IsPure:     strings.HasPrefix(expr.Name, "pure-"),
			IsClosure:  strings.Contains(expr.Name, "Closure"),
			Parameters: params,
			ReturnType: ret,
		})

	case docblock.ExprClassString:
		inner := strings.TrimPrefix(expr.Name, "\\")
		loweredInner := sc.interner.InternLower(inner)
		if g, ok := scope[loweredInner]; ok {
			return typeir.FromAtomic(typeir.TString{
				Shape:               typeir.StringClassLike,
				ClassLikeConstraint: typeir.ClassLikeGeneric,
				ClassLikeParam:      g.ParameterName,
				ClassLikeDefining:   g.DefiningEntity,
			})
		}
		return typeir.FromAtomic(typeir.TString{
			Shape:               typeir.StringClassLike,
			ClassLikeConstraint: typeir.ClassLikeOfType,
			ClassLikeName:       loweredInner,
		})

	default:
		return typeir.GetMixed()
	}
}

func (sc *Scanner) shapeFromDoc(expr *docblock.TypeExpr, scope TemplateScope) *typeir.TUnion {
	entries := make([]typeir.KeyedEntry, 0, len(expr.ShapeFields))
	nextIndex := int64(0)
	for _, f := range expr.ShapeFields {
		key := typeir.ArrayKeyLit{IntKey: nextIndex}
		if f.Key != "" {
			if n, isInt := parseIntKey(f.Key); isInt {
				key = typeir.ArrayKeyLit{IntKey: n}
			} else {
				key = typeir.ArrayKeyLit{IsString: true, StrKey: f.Key}
			}
		}
		if !key.IsString {
			nextIndex = key.IntKey + 1
		}
		entries = append(entries, typeir.KeyedEntry{
			Key:               key,
			Type:              sc.orMixed(sc.TypeFromDocExpr(f.Type, scope)),
			PossiblyUndefined: f.PossiblyUndefined,
		})
	}
	return typeir.FromAtomic(typeir.TKeyedArray{Entries: entries})
}

func parseIntKey(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	var n int64
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int64(s[i]-'0')
	}
	return n, true
}

func (sc *Scanner) orMixed(u *typeir.TUnion) *typeir.TUnion {
	if u == nil {
		return typeir.GetMixed()
	}
	return u
}

// InferLiteralType gives the compile-time type of a constant-expression
// initializer: literals, arrays of literals, and simple negation. Anything
// requiring evaluation stays mixed; the analyzer re-infers it in context.
func (sc *Scanner) InferLiteralType(expr phpast.Expression) *typeir.TUnion {
	switch e := expr.(type) {
	case *phpast.IntegerLiteral:
		return typeir.FromAtomic(typeir.TInt{Shape: typeir.IntLiteral, Literal: e.Value})
	case *phpast.FloatLiteral:
		return typeir.FromAtomic(typeir.TFloat{Shape: typeir.FloatLiteral, Literal: e.Value})
	case *phpast.StringLiteral:
		return typeir.FromAtomic(typeir.TString{Shape: typeir.StringLiteral, Literal: e.Value})
	case *phpast.BooleanLiteral:
		narrow := typeir.BoolFalse
		if e.Value {
			narrow = typeir.BoolTrue
		}
		return typeir.FromAtomic(typeir.TBool{Narrow: narrow})
	case *phpast.NullLiteral:
		return typeir.FromAtomic(typeir.TNull{})
	case *phpast.PrefixExpression:
		if e.Operator == "-" {
			if lit, ok := e.Right.(*phpast.IntegerLiteral); ok {
				return typeir.FromAtomic(typeir.TInt{Shape: typeir.IntLiteral, Literal: -lit.Value})
			}
			if lit, ok := e.Right.(*phpast.FloatLiteral); ok {
				return typeir.FromAtomic(typeir.TFloat{Shape: typeir.FloatLiteral, Literal: -lit.Value})
			}
		}
		return typeir.GetMixed()
	case *phpast.ArrayExpression:
		entries := make([]typeir.KeyedEntry, 0, len(e.Elements))
		nextIndex := int64(0)
		for _, el := range e.Elements {
			if el.Spread {
				return typeir.FromAtomic(typeir.TGenericArray{Key: typeir.FromAtomic(typeir.TArrayKey{}), Value: typeir.GetMixed()})
			}
			key := typeir.ArrayKeyLit{IntKey: nextIndex}
			if el.Key != nil {
				switch k := el.Key.(type) {
				case *phpast.IntegerLiteral:
					key = typeir.ArrayKeyLit{IntKey: k.Value}
				case *phpast.StringLiteral:
					key = typeir.ArrayKeyLit{IsString: true, StrKey: k.Value}
				default:
					return typeir.FromAtomic(typeir.TGenericArray{Key: typeir.FromAtomic(typeir.TArrayKey{}), Value: typeir.GetMixed()})
				}
			}
			if !key.IsString {
				nextIndex = key.IntKey + 1
			}
			entries = append(entries, typeir.KeyedEntry{Key: key, Type: sc.InferLiteralType(el.Value)})
		}
		return typeir.FromAtomic(typeir.TKeyedArray{Entries: entries})
	default:
		return typeir.GetMixed()
	}
}
