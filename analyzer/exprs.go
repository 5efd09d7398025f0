package analyzer

import (
	"strings"

	"github.com/krizos/phpanalyze/blockctx"
	"github.com/krizos/phpanalyze/internal/phpast"
	"github.com/krizos/phpanalyze/issue"
	"github.com/krizos/phpanalyze/typeir"
)

// analyzeExpression infers one expression's type, records it into the
// artifacts (expression-type totality) and returns it. Every path returns a
// non-nil union: concrete when derivable, mixed when ambiguous, never when
// known-invalid (spec.md §7).
func (fa *fileAnalyzer) analyzeExpression(expr phpast.Expression, ctx *blockctx.BlockContext) *typeir.TUnion {
	if expr == nil {
		return typeir.GetMixed()
	}
	t := fa.inferExpression(expr, ctx)
	if t == nil {
		t = typeir.GetMixed()
	}
	fa.artifacts.SetExpressionType(expr.Span(), t)
	return t
}

func (fa *fileAnalyzer) inferExpression(expr phpast.Expression, ctx *blockctx.BlockContext) *typeir.TUnion {
	switch e := expr.(type) {
	case *phpast.IntegerLiteral:
		return typeir.FromAtomic(typeir.TInt{Shape: typeir.IntLiteral, Literal: e.Value})
	case *phpast.FloatLiteral:
		return typeir.FromAtomic(typeir.TFloat{Shape: typeir.FloatLiteral, Literal: e.Value})
	case *phpast.StringLiteral:
		return typeir.FromAtomic(typeir.TString{Shape: typeir.StringLiteral, Literal: e.Value})
	case *phpast.BooleanLiteral:
		if e.Value {
			return typeir.FromAtomic(typeir.TBool{Narrow: typeir.BoolTrue})
		}
		return typeir.FromAtomic(typeir.TBool{Narrow: typeir.BoolFalse})
	case *phpast.NullLiteral:
		return typeir.FromAtomic(typeir.TNull{})

	case *phpast.Variable:
		return fa.analyzeVariable(e, ctx)

	case *phpast.Identifier:
		return fa.analyzeConstantName(e, ctx)

	case *phpast.GroupedExpression:
		return fa.analyzeExpression(e.Expr, ctx)

	case *phpast.ArrayExpression:
		return fa.analyzeArrayLiteral(e, ctx)

	case *phpast.PrefixExpression:
		return fa.analyzePrefix(e, ctx)

	case *phpast.InfixExpression:
		return fa.analyzeInfix(e, ctx)

	case *phpast.AssignmentExpression:
		return fa.analyzeAssignment(e, ctx)

	case *phpast.TernaryExpression:
		return fa.analyzeTernary(e, ctx)

	case *phpast.IndexExpression:
		return fa.analyzeIndexRead(e, ctx)

	case *phpast.PropertyExpression:
		return fa.analyzePropertyRead(e.Object, e.Property, false, e.Span(), ctx)

	case *phpast.NullsafePropertyExpression:
		return fa.analyzePropertyRead(e.Object, e.Property, true, e.Span(), ctx)

	case *phpast.StaticPropertyExpression:
		return fa.analyzeStaticAccess(e, ctx)

	case *phpast.CallExpression:
		return fa.analyzeFunctionCall(e, ctx)

	case *phpast.MethodCallExpression:
		return fa.analyzeMethodCall(e.Object, e.Method, e.Arguments, e.Nullsafe, e.Span(), ctx)

	case *phpast.StaticCallExpression:
		return fa.analyzeStaticCall(e, ctx)

	case *phpast.NewExpression:
		return fa.analyzeNew(e, ctx)

	case *phpast.InstanceofExpression:
		fa.analyzeExpression(e.Left, ctx)
		if _, ok := e.Right.(*phpast.Identifier); !ok {
			fa.analyzeExpression(e.Right, ctx)
		}
		return typeir.FromAtomic(typeir.TBool{})

	case *phpast.CastExpression:
		fa.analyzeExpression(e.Expr, ctx)
		return fa.castResult(e.Type)

	case *phpast.MatchExpression:
		return fa.analyzeMatch(e, ctx)

	case *phpast.ClosureExpression:
		return fa.analyzeClosure(e, ctx)

	case *phpast.ArrowFunctionExpression:
		return fa.analyzeArrowFunction(e, ctx)

	case *phpast.ListExpression:
		// Read position: list() outside an assignment target carries no
		// value of its own.
		return typeir.GetMixed()
	}
	return typeir.GetMixed()
}

func (fa *fileAnalyzer) analyzeVariable(e *phpast.Variable, ctx *blockctx.BlockContext) *typeir.TUnion {
	if e.Name == "this" {
		if ctx.Scope.ThisType != nil {
			return ctx.Scope.ThisType
		}
		fa.report(issue.New(issue.UndefinedVariable, issue.Error,
			"$this outside an instance context", e.Span()))
		return typeir.GetMixed()
	}
	if t, ok := ctx.Locals[fa.interner.Intern(e.Name)]; ok {
		return t
	}
	fa.report(issue.New(issue.UndefinedVariable, issue.Error,
		"undefined variable $"+e.Name, e.Span()))
	return typeir.GetMixed()
}

// analyzeConstantName resolves a bare identifier as a global constant
// reference.
func (fa *fileAnalyzer) analyzeConstantName(e *phpast.Identifier, ctx *blockctx.BlockContext) *typeir.TUnion {
	switch strings.ToLower(e.Name) {
	case "true":
		return typeir.FromAtomic(typeir.TBool{Narrow: typeir.BoolTrue})
	case "false":
		return typeir.FromAtomic(typeir.TBool{Narrow: typeir.BoolFalse})
	case "null":
		return typeir.FromAtomic(typeir.TNull{})
	case "php_int_max":
		return typeir.FromAtomic(typeir.TInt{Shape: typeir.IntLiteral, Literal: 1<<63 - 1})
	case "php_eol":
		return typeir.FromAtomic(typeir.TString{Shape: typeir.StringNonEmpty})
	}

	resolved := fa.file.ResolvedNames.Resolve(e.Span(), e.Name)
	if meta, ok := fa.store.Constant(fa.interner.Intern(resolved)); ok {
		if meta.IsDeprecated {
			fa.report(issue.New(issue.DeprecatedFeature, issue.Warning,
				"constant "+resolved+" is deprecated", e.Span()))
		}
		return meta.Type
	}
	fa.report(issue.New(issue.NonExistentConstant, issue.Error,
		"constant "+resolved+" does not exist", e.Span()))
	return typeir.GetMixed()
}

func (fa *fileAnalyzer) analyzeArrayLiteral(e *phpast.ArrayExpression, ctx *blockctx.BlockContext) *typeir.TUnion {
	if len(e.Elements) == 0 {
		// The empty shape, refined by subsequent writes.
		return typeir.FromAtomic(typeir.TKeyedArray{})
	}
	allPositional := true
	for _, el := range e.Elements {
		if el.Key != nil || el.Spread {
			allPositional = false
		}
	}

	if allPositional {
		prefix := make([]*typeir.TUnion, 0, len(e.Elements))
		for _, el := range e.Elements {
			prefix = append(prefix, fa.analyzeExpression(el.Value, ctx))
		}
		return typeir.FromAtomic(typeir.TList{Prefix: prefix})
	}

	entries := make([]typeir.KeyedEntry, 0, len(e.Elements))
	var fallback *typeir.TUnion
	nextIndex := int64(0)
	for _, el := range e.Elements {
		valueType := fa.analyzeExpression(el.Value, ctx)
		if el.Spread {
			fallback = typeir.Combine(fallback, fa.spreadValueType(valueType), fa.threshold())
			continue
		}
		key := typeir.ArrayKeyLit{IntKey: nextIndex}
		if el.Key != nil {
			keyType := fa.analyzeExpression(el.Key, ctx)
			lit, ok := literalArrayKey(keyType)
			if !ok {
				fallback = typeir.Combine(fallback, valueType, fa.threshold())
				continue
			}
			key = lit
		}
		if !key.IsString {
			nextIndex = key.IntKey + 1
		}
		entries = append(entries, typeir.KeyedEntry{Key: key, Type: valueType})
	}
	return typeir.FromAtomic(typeir.TKeyedArray{Entries: entries, Fallback: fallback})
}

func (fa *fileAnalyzer) spreadValueType(t *typeir.TUnion) *typeir.TUnion {
	_, values := fa.iterableComponents(t)
	return values
}

func literalArrayKey(t *typeir.TUnion) (typeir.ArrayKeyLit, bool) {
	if len(t.Atomics) != 1 {
		return typeir.ArrayKeyLit{}, false
	}
	switch v := t.Atomics[0].(type) {
	case typeir.TInt:
		if v.Shape == typeir.IntLiteral {
			return typeir.ArrayKeyLit{IntKey: v.Literal}, true
		}
	case typeir.TString:
		if v.Shape == typeir.StringLiteral {
			return typeir.ArrayKeyLit{IsString: true, StrKey: v.Literal}, true
		}
	}
	return typeir.ArrayKeyLit{}, false
}

func (fa *fileAnalyzer) analyzePrefix(e *phpast.PrefixExpression, ctx *blockctx.BlockContext) *typeir.TUnion {
	operand := fa.analyzeExpression(e.Right, ctx)
	switch e.Operator {
	case "!":
		return typeir.FromAtomic(typeir.TBool{})
	case "-", "+":
		if len(operand.Atomics) == 1 {
			switch v := operand.Atomics[0].(type) {
			case typeir.TInt:
				if v.Shape == typeir.IntLiteral && e.Operator == "-" {
					return typeir.FromAtomic(typeir.TInt{Shape: typeir.IntLiteral, Literal: -v.Literal})
				}
				return typeir.FromAtomic(typeir.TInt{})
			case typeir.TFloat:
				if v.Shape == typeir.FloatLiteral && e.Operator == "-" {
					return typeir.FromAtomic(typeir.TFloat{Shape: typeir.FloatLiteral, Literal: -v.Literal})
				}
				return typeir.FromAtomic(typeir.TFloat{})
			}
		}
		return fa.numericResult(operand, operand)
	case "~":
		return typeir.FromAtomic(typeir.TInt{})
	case "++", "--":
		return fa.numericResult(operand, operand)
	case "@":
		return operand
	case "clone":
		return operand
	case "print":
		return typeir.FromAtomic(typeir.TInt{Shape: typeir.IntLiteral, Literal: 1})
	case "&":
		return operand
	}
	return typeir.GetMixed()
}

func (fa *fileAnalyzer) analyzeInfix(e *phpast.InfixExpression, ctx *blockctx.BlockContext) *typeir.TUnion {
	// ?? skips analyzing the left side as an error source: an undefined
	// left operand is the operator's whole point.
	if e.Operator == "??" {
		return fa.analyzeCoalesce(e, ctx)
	}

	left := fa.analyzeExpression(e.Left, ctx)
	right := fa.analyzeExpression(e.Right, ctx)

	switch e.Operator {
	case "+", "-", "*", "**", "%":
		if e.Operator == "+" && (left.HasKind(typeir.KindKeyedArray) || left.HasKind(typeir.KindGenericArray) || left.HasKind(typeir.KindList)) {
			// Array union keeps the left shape, approximated as the
			// combination of both operands.
			return typeir.Combine(left, right, fa.threshold())
		}
		return fa.numericResult(left, right)
	case "/":
		result := fa.numericResult(left, right)
		if !result.HasKind(typeir.KindFloat) {
			return typeir.Combine(result, typeir.FromAtomic(typeir.TFloat{}), fa.threshold())
		}
		return result
	case ".":
		return fa.concatResult(left, right)
	case "==", "!=", "===", "!==", "<", "<=", ">", ">=", "<>":
		return typeir.FromAtomic(typeir.TBool{})
	case "<=>":
		return typeir.FromAtomic(typeir.TInt{Shape: typeir.IntRange, RangeMin: -1, RangeMax: 1})
	case "&&", "||", "and", "or", "xor":
		return typeir.FromAtomic(typeir.TBool{})
	case "&", "|", "^", "<<", ">>":
		return typeir.FromAtomic(typeir.TInt{})
	}
	return typeir.GetMixed()
}

func (fa *fileAnalyzer) analyzeCoalesce(e *phpast.InfixExpression, ctx *blockctx.BlockContext) *typeir.TUnion {
	left := fa.coalesceLeftType(e.Left, ctx)
	right := fa.analyzeExpression(e.Right, ctx)

	stripped := left.WithoutKind(typeir.KindNull)
	if stripped.IsNever() {
		return right
	}
	if !left.HasKind(typeir.KindNull) && !left.Flags.PossiblyUndefined && !left.IsMixed() {
		// The right side is unreachable; keep the left.
		return stripped
	}
	result := typeir.Combine(stripped, right, fa.threshold())
	result.Flags.PossiblyUndefined = false
	return result
}

// coalesceLeftType analyzes the left of ?? without reporting
// UndefinedVariable: the operator suppresses it.
func (fa *fileAnalyzer) coalesceLeftType(expr phpast.Expression, ctx *blockctx.BlockContext) *typeir.TUnion {
	if v, ok := expr.(*phpast.Variable); ok && v.Name != "this" {
		if t, exists := ctx.Locals[fa.interner.Intern(v.Name)]; exists {
			fa.artifacts.SetExpressionType(v.Span(), t)
			return t
		}
		undefined := typeir.FromAtomic(typeir.TNull{})
		undefined.Flags.PossiblyUndefined = true
		fa.artifacts.SetExpressionType(v.Span(), undefined)
		return undefined
	}
	return fa.analyzeExpression(expr, ctx)
}

// numericResult widens arithmetic operands: float wins over int, unknown
// operands stay numeric.
func (fa *fileAnalyzer) numericResult(left, right *typeir.TUnion) *typeir.TUnion {
	hasFloat := left.HasKind(typeir.KindFloat) || right.HasKind(typeir.KindFloat)
	intOnly := allOfKind(left, typeir.KindInt) && allOfKind(right, typeir.KindInt)
	switch {
	case intOnly:
		return typeir.FromAtomic(typeir.TInt{})
	case hasFloat && allNumeric(left) && allNumeric(right):
		return typeir.FromAtomic(typeir.TFloat{})
	default:
		return typeir.NewUnion(typeir.TInt{}, typeir.TFloat{})
	}
}

func allOfKind(u *typeir.TUnion, k typeir.AtomicKind) bool {
	for _, a := range u.Atomics {
		if a.Kind() != k {
			return false
		}
	}
	return len(u.Atomics) > 0
}

func allNumeric(u *typeir.TUnion) bool {
	for _, a := range u.Atomics {
		if a.Kind() != typeir.KindInt && a.Kind() != typeir.KindFloat {
			return false
		}
	}
	return len(u.Atomics) > 0
}

// concatResult produces a literal string when both sides are literals.
func (fa *fileAnalyzer) concatResult(left, right *typeir.TUnion) *typeir.TUnion {
	if len(left.Atomics) == 1 && len(right.Atomics) == 1 {
		ls, lok := left.Atomics[0].(typeir.TString)
		rs, rok := right.Atomics[0].(typeir.TString)
		if lok && rok && ls.Shape == typeir.StringLiteral && rs.Shape == typeir.StringLiteral {
			return typeir.FromAtomic(typeir.TString{Shape: typeir.StringLiteral, Literal: ls.Literal + rs.Literal})
		}
	}
	return typeir.FromAtomic(typeir.TString{})
}

func (fa *fileAnalyzer) analyzeTernary(e *phpast.TernaryExpression, ctx *blockctx.BlockContext) *typeir.TUnion {
	condType := fa.analyzeExpression(e.Condition, ctx)

	if e.Consequence == nil {
		// Elvis: cond ?: alt combines the whole type of cond with alt; the
		// falsy members of cond are not removed.
		altType := fa.analyzeExpression(e.Alternative, ctx)
		return typeir.Combine(condType, altType, fa.threshold())
	}

	thenCtx := ctx.Clone()
	fa.rec.Apply(fa.rec.Assertions(e.Condition, true), thenCtx)
	thenType := fa.analyzeExpression(e.Consequence, thenCtx)

	elseCtx := ctx.Clone()
	fa.rec.Apply(fa.rec.Assertions(e.Condition, false), elseCtx)
	elseType := fa.analyzeExpression(e.Alternative, elseCtx)

	return typeir.Combine(thenType, elseType, fa.threshold())
}

func (fa *fileAnalyzer) analyzeIndexRead(e *phpast.IndexExpression, ctx *blockctx.BlockContext) *typeir.TUnion {
	base := fa.analyzeExpression(e.Left, ctx)
	var keyType *typeir.TUnion
	if e.Index != nil {
		keyType = fa.analyzeExpression(e.Index, ctx)
	}

	var result *typeir.TUnion
	for _, a := range base.Atomics {
		switch v := a.(type) {
		case typeir.TKeyedArray:
			result = typeir.Combine(result, fa.keyedArrayRead(v, keyType), fa.threshold())
		case typeir.TList:
			result = typeir.Combine(result, fa.listRead(v, keyType), fa.threshold())
		case typeir.TGenericArray:
			result = typeir.Combine(result, v.Value, fa.threshold())
		case typeir.TString:
			result = typeir.Combine(result, typeir.FromAtomic(typeir.TString{}), fa.threshold())
		case typeir.TMixed:
			result = typeir.Combine(result, typeir.GetMixed(), fa.threshold())
		case typeir.TNull:
			result = typeir.Combine(result, typeir.FromAtomic(typeir.TNull{}), fa.threshold())
		default:
			result = typeir.Combine(result, typeir.GetMixed(), fa.threshold())
		}
	}
	if result == nil {
		return typeir.GetMixed()
	}
	return result
}

func (fa *fileAnalyzer) keyedArrayRead(arr typeir.TKeyedArray, keyType *typeir.TUnion) *typeir.TUnion {
	if keyType != nil {
		if lit, ok := literalArrayKey(keyType); ok {
			for _, entry := range arr.Entries {
				if entry.Key == lit {
					if entry.PossiblyUndefined && !fa.settings.AllowPossiblyUndefinedArrayKeys {
						t := entry.Type.Clone()
						t.Flags.PossiblyUndefined = true
						return t
					}
					return entry.Type
				}
			}
			if arr.Fallback != nil {
				return arr.Fallback
			}
			return typeir.FromAtomic(typeir.TNull{})
		}
	}
	var all *typeir.TUnion
	for _, entry := range arr.Entries {
		all = typeir.Combine(all, entry.Type, fa.threshold())
	}
	all = typeir.Combine(all, arr.Fallback, fa.threshold())
	if all == nil {
		return typeir.GetMixed()
	}
	return all
}

func (fa *fileAnalyzer) listRead(list typeir.TList, keyType *typeir.TUnion) *typeir.TUnion {
	if keyType != nil {
		if lit, ok := literalArrayKey(keyType); ok && !lit.IsString {
			if int(lit.IntKey) < len(list.Prefix) {
				return list.Prefix[int(lit.IntKey)]
			}
			if list.Element != nil {
				return list.Element
			}
			return typeir.FromAtomic(typeir.TNull{})
		}
	}
	var all *typeir.TUnion
	for _, p := range list.Prefix {
		all = typeir.Combine(all, p, fa.threshold())
	}
	all = typeir.Combine(all, list.Element, fa.threshold())
	if all == nil {
		return typeir.GetMixed()
	}
	return all
}

func (fa *fileAnalyzer) castResult(typeName string) *typeir.TUnion {
	switch strings.ToLower(typeName) {
	case "int", "integer":
		return typeir.FromAtomic(typeir.TInt{})
	case "float", "double":
		return typeir.FromAtomic(typeir.TFloat{})
	case "string":
		return typeir.FromAtomic(typeir.TString{})
	case "bool", "boolean":
		return typeir.FromAtomic(typeir.TBool{})
	case "array":
		return typeir.FromAtomic(typeir.TGenericArray{
			Key:   typeir.FromAtomic(typeir.TArrayKey{}),
			Value: typeir.GetMixed(),
		})
	case "object":
		return typeir.FromAtomic(typeir.TObjectAny{})
	}
	return typeir.GetMixed()
}

func (fa *fileAnalyzer) analyzeMatch(e *phpast.MatchExpression, ctx *blockctx.BlockContext) *typeir.TUnion {
	fa.analyzeExpression(e.Subject, ctx)
	subjectKey := fa.rec.VarKey(e.Subject)

	var result *typeir.TUnion
	for _, arm := range e.Arms {
		armCtx := ctx.Clone()
		for _, cond := range arm.Conditions {
			fa.analyzeExpression(cond, armCtx)
			if subjectKey != "" {
				if clauses := fa.caseEqualityClauses(subjectKey, cond); clauses != nil {
					fa.rec.Apply(clauses, armCtx)
				}
			}
		}
		result = typeir.Combine(result, fa.analyzeExpression(arm.Body, armCtx), fa.threshold())
	}
	if result == nil {
		return typeir.GetNever()
	}
	return result
}
