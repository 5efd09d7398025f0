// Package reconcile is the assertion engine: it lowers boolean expressions
// into clause sets and applies them to a block context, narrowing variable
// types along the true and false branches (spec.md §4.4.6).
package reconcile

import (
	"strings"

	"github.com/krizos/phpanalyze/blockctx"
	"github.com/krizos/phpanalyze/internal/interner"
	"github.com/krizos/phpanalyze/internal/phpast"
	"github.com/krizos/phpanalyze/typeir"
)

// Reconciler lowers conditions and refines contexts. It is stateless apart
// from the shared interner and codebase oracle, so one instance serves a
// whole file.
type Reconciler struct {
	interner *interner.Interner
	classes  typeir.ClassLikeOracle
	threshold int
}

// New builds a Reconciler. classes may be nil for scalar-only narrowing.
func New(in *interner.Interner, classes typeir.ClassLikeOracle, literalWideningThreshold int) *Reconciler {
	if literalWideningThreshold <= 0 {
		literalWideningThreshold = typeir.DefaultLiteralWideningThreshold
	}
	return &Reconciler{interner: in, classes: classes, threshold: literalWideningThreshold}
}

// typeCheckFunctions maps the is_* family to the union its argument narrows
// to on the true branch.
func (r *Reconciler) typeCheckFunctions(name string) (*typeir.TUnion, bool) {
	switch strings.ToLower(name) {
	case "is_int", "is_integer", "is_long":
		return typeir.FromAtomic(typeir.TInt{}), true
	case "is_float", "is_double":
		return typeir.FromAtomic(typeir.TFloat{}), true
	case "is_string":
		return typeir.FromAtomic(typeir.TString{}), true
	case "is_bool":
		return typeir.FromAtomic(typeir.TBool{}), true
	case "is_array":
		return typeir.FromAtomic(typeir.TGenericArray{
			Key:   typeir.FromAtomic(typeir.TArrayKey{}),
			Value: typeir.GetMixed(),
		}), true
	case "is_object":
		return typeir.FromAtomic(typeir.TObjectAny{}), true
	case "is_null":
		return typeir.FromAtomic(typeir.TNull{}), true
	case "is_callable":
		return typeir.FromAtomic(typeir.TCallableSignature{ReturnType: typeir.GetMixed()}), true
	case "is_numeric":
		return typeir.NewUnion(typeir.TInt{}, typeir.TFloat{}, typeir.TString{Shape: typeir.StringNumeric}), true
	case "is_scalar":
		return typeir.FromAtomic(typeir.TScalar{}), true
	case "is_resource":
		return typeir.FromAtomic(typeir.TResource{}), true
	}
	return nil, false
}

// VarKey renders the clause-map key for an expression when it is a
// reconcilable variable path ($x, $x->prop, $x[k], $this->p), else "".
func (r *Reconciler) VarKey(expr phpast.Expression) string {
	switch e := expr.(type) {
	case *phpast.Variable:
		return e.Name
	case *phpast.GroupedExpression:
		return r.VarKey(e.Expr)
	case *phpast.PropertyExpression:
		base := r.VarKey(e.Object)
		if base == "" {
			return ""
		}
		if prop, ok := e.Property.(*phpast.Identifier); ok {
			return base + "->" + prop.Name
		}
	case *phpast.IndexExpression:
		base := r.VarKey(e.Left)
		if base == "" || e.Index == nil {
			return ""
		}
		switch idx := e.Index.(type) {
		case *phpast.StringLiteral:
			return base + "['" + idx.Value + "']"
		case *phpast.IntegerLiteral:
			return base + "[" + itoa(idx.Value) + "]"
		}
	}
	return ""
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Assertions lowers a condition into a clause set asserting that the
// condition evaluated to the given truth value. A nil result means the
// condition constrains nothing the engine can represent.
func (r *Reconciler) Assertions(expr phpast.Expression, truth bool) []blockctx.Clause {
	switch e := expr.(type) {
	case *phpast.GroupedExpression:
		return r.Assertions(e.Expr, truth)

	case *phpast.PrefixExpression:
		if e.Operator == "!" {
			return r.Assertions(e.Right, !truth)
		}

	case *phpast.Variable, *phpast.PropertyExpression, *phpast.IndexExpression:
		if key := r.VarKey(expr); key != "" {
			kind := blockctx.AssertTruthy
			if !truth {
				kind = blockctx.AssertFalsy
			}
			return []blockctx.Clause{blockctx.NewClause(key, blockctx.Assertion{Kind: kind})}
		}

	case *phpast.InfixExpression:
		return r.infixAssertions(e, truth)

	case *phpast.InstanceofExpression:
		return r.instanceofAssertions(e, truth)

	case *phpast.CallExpression:
		return r.callAssertions(e, truth)

	case *phpast.BooleanLiteral:
		// `if (true)` constrains nothing; paradox detection for literal
		// conditions happens in the analyzer.
		return nil
	}
	return nil
}

func (r *Reconciler) infixAssertions(e *phpast.InfixExpression, truth bool) []blockctx.Clause {
	switch e.Operator {
	case "&&", "and":
		if truth {
			return append(r.Assertions(e.Left, true), r.Assertions(e.Right, true)...)
		}
		// !(A && B) constrains a variable only when both operands assert
		// alternatives about the same one.
		return r.mergeAlternatives(r.Assertions(e.Left, false), r.Assertions(e.Right, false))

	case "||", "or":
		if !truth {
			return append(r.Assertions(e.Left, false), r.Assertions(e.Right, false)...)
		}
		return r.mergeAlternatives(r.Assertions(e.Left, true), r.Assertions(e.Right, true))

	case "===", "==":
		return r.equalityAssertions(e, truth)

	case "!==", "!=", "<>":
		return r.equalityAssertions(e, !truth)
	}
	return nil
}

// equalityAssertions handles `$x === <literal>` and the mirrored form.
func (r *Reconciler) equalityAssertions(e *phpast.InfixExpression, truth bool) []blockctx.Clause {
	varSide, litSide := e.Left, e.Right
	if r.VarKey(varSide) == "" {
		varSide, litSide = litSide, varSide
	}
	key := r.VarKey(varSide)
	if key == "" {
		return nil
	}

	var assertion blockctx.Assertion
	switch lit := litSide.(type) {
	case *phpast.NullLiteral:
		assertion = blockctx.Assertion{Kind: blockctx.AssertNull}
	case *phpast.IntegerLiteral:
		assertion = blockctx.Assertion{Kind: blockctx.AssertIdentical, Atomic: typeir.TInt{Shape: typeir.IntLiteral, Literal: lit.Value}}
	case *phpast.FloatLiteral:
		assertion = blockctx.Assertion{Kind: blockctx.AssertIdentical, Atomic: typeir.TFloat{Shape: typeir.FloatLiteral, Literal: lit.Value}}
	case *phpast.StringLiteral:
		assertion = blockctx.Assertion{Kind: blockctx.AssertIdentical, Atomic: typeir.TString{Shape: typeir.StringLiteral, Literal: lit.Value}}
	case *phpast.BooleanLiteral:
		narrow := typeir.BoolFalse
		if lit.Value {
			narrow = typeir.BoolTrue
		}
		assertion = blockctx.Assertion{Kind: blockctx.AssertIdentical, Atomic: typeir.TBool{Narrow: narrow}}
	default:
		return nil
	}

	if !truth {
		assertion = assertion.Negate()
	}
	return []blockctx.Clause{blockctx.NewClause(key, assertion)}
}

func (r *Reconciler) instanceofAssertions(e *phpast.InstanceofExpression, truth bool) []blockctx.Clause {
	key := r.VarKey(e.Left)
	if key == "" {
		return nil
	}
	ident, ok := e.Right.(*phpast.Identifier)
	if !ok {
		return nil
	}
	name := r.interner.InternLower(strings.TrimPrefix(ident.Name, "\\"))
	assertion := blockctx.Assertion{
		Kind: blockctx.AssertIsType,
		Type: typeir.FromAtomic(typeir.TNamedObject{Name: name}),
	}
	if !truth {
		assertion = assertion.Negate()
	}
	return []blockctx.Clause{blockctx.NewClause(key, assertion)}
}

func (r *Reconciler) callAssertions(e *phpast.CallExpression, truth bool) []blockctx.Clause {
	fn, ok := e.Function.(*phpast.Identifier)
	if !ok || len(e.Arguments) == 0 {
		return nil
	}
	key := r.VarKey(e.Arguments[0].Value)
	if key == "" {
		return nil
	}

	if target, ok := r.typeCheckFunctions(fn.Name); ok {
		assertion := blockctx.Assertion{Kind: blockctx.AssertIsType, Type: target}
		if !truth {
			assertion = assertion.Negate()
		}
		return []blockctx.Clause{blockctx.NewClause(key, assertion)}
	}

	switch strings.ToLower(fn.Name) {
	case "isset":
		var clauses []blockctx.Clause
		for _, arg := range e.Arguments {
			argKey := r.VarKey(arg.Value)
			if argKey == "" {
				continue
			}
			assertion := blockctx.Assertion{Kind: blockctx.AssertIsset}
			if !truth {
				assertion = assertion.Negate()
			}
			clauses = append(clauses, blockctx.NewClause(argKey, assertion))
		}
		return clauses
	case "empty":
		kind := blockctx.AssertFalsy
		if !truth {
			kind = blockctx.AssertTruthy
		}
		return []blockctx.Clause{blockctx.NewClause(key, blockctx.Assertion{Kind: kind})}
	case "array_key_exists":
		if len(e.Arguments) != 2 {
			return nil
		}
		arrKey := r.VarKey(e.Arguments[1].Value)
		if arrKey == "" || !truth {
			return nil
		}
		switch lit := e.Arguments[0].Value.(type) {
		case *phpast.StringLiteral:
			return []blockctx.Clause{blockctx.NewClause(arrKey, blockctx.Assertion{
				Kind: blockctx.AssertHasArrayKey,
				Key:  typeir.ArrayKeyLit{IsString: true, StrKey: lit.Value},
			})}
		case *phpast.IntegerLiteral:
			return []blockctx.Clause{blockctx.NewClause(arrKey, blockctx.Assertion{
				Kind: blockctx.AssertHasArrayKey,
				Key:  typeir.ArrayKeyLit{IntKey: lit.Value},
			})}
		}
	}
	return nil
}

// mergeAlternatives combines two one-variable clause sets over the same
// variable into one clause whose possibilities are the union (an OR). Any
// other shape is unrepresentable and yields nil.
func (r *Reconciler) mergeAlternatives(a, b []blockctx.Clause) []blockctx.Clause {
	if len(a) != 1 || len(b) != 1 {
		return nil
	}
	ka, kb := a[0].SingleVar(), b[0].SingleVar()
	if ka == "" || ka != kb {
		return nil
	}
	merged := blockctx.Clause{Possibilities: map[string][]blockctx.Assertion{
		ka: append(append([]blockctx.Assertion{}, a[0].Possibilities[ka]...), b[0].Possibilities[kb]...),
	}}
	return []blockctx.Clause{merged}
}
