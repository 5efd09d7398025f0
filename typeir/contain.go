package typeir

import (
	"strconv"

	"github.com/krizos/phpanalyze/internal/interner"
)

// ClassLikeOracle is the minimal view of CodebaseMetadata that containment
// needs: inheritance-closure membership and generic-parameter variance.
// typeir never imports the codebase package directly (that would be a
// cycle, since codebase's metadata holds *TUnion fields) — codebase
// implements this interface instead.
type ClassLikeOracle interface {
	// IsSameOrSubtype reports whether child is, or inherits/implements,
	// parent. Both ids must already be lowered.
	IsSameOrSubtype(child, parent interner.StringId) bool
	// IsCovariantParamAt reports whether the Nth template parameter
	// declared on className is marked @template-covariant.
	IsCovariantParamAt(className interner.StringId, index int) bool
}

// ContainmentContext carries the codebase lookups is_contained_by needs for
// class-like and generic-parameter checks. A nil Classes is valid for
// scalar-only containment checks (e.g. in isolated typeir tests).
type ContainmentContext struct {
	Classes ClassLikeOracle
}

// ContainmentResult is the directional subtype verdict for one
// is_contained_by call (spec.md §4.1).
type ContainmentResult struct {
	Matched     bool
	TypeCoerced bool // allowed but imprecise: e.g. mixed used as a concrete type
	FromMixed   bool // the parent side was (or absorbed through) mixed
	ToMixed     bool // the child side was mixed, coerced into something narrower
}

// IsContainedBy reports whether every possible runtime value of child is
// also a valid value of parent. Reflexivity (is_contained_by(U,U) ==
// matched) always holds because exact-atomic-equality is checked before
// any kind-specific narrowing logic.
func IsContainedBy(child, parent *TUnion, ctx ContainmentContext) ContainmentResult {
	if child == nil || parent == nil {
		return ContainmentResult{}
	}
	if child.IsNever() {
		return ContainmentResult{Matched: true}
	}

	result := ContainmentResult{Matched: true}
	for _, c := range child.Atomics {
		matched, coerced, fromMixed, toMixed := false, false, false, false
		for _, p := range parent.Atomics {
			m, co, fm, tm := atomicContainedBy(c, p, ctx)
			if m {
				matched = true
				coerced = coerced || co
				fromMixed = fromMixed || fm
				toMixed = toMixed || tm
				if !co {
					break
				}
			}
		}
		if !matched {
			result.Matched = false
		}
		result.TypeCoerced = result.TypeCoerced || coerced
		result.FromMixed = result.FromMixed || fromMixed
		result.ToMixed = result.ToMixed || toMixed
	}
	return result
}

func atomicContainedBy(c, p TAtomic, ctx ContainmentContext) (matched, coerced, fromMixed, toMixed bool) {
	if pm, ok := p.(TMixed); ok && pm.Constraint == MixedAny {
		return true, false, true, false
	}
	if Equal(c, p) {
		return true, false, false, false
	}
	if _, ok := c.(TNever); ok {
		return true, false, false, false
	}
	if cg, ok := c.(TGenericParam); ok {
		constraint := cg.Constraint
		if constraint == nil {
			constraint = GetMixed()
		}
		sub := IsContainedBy(constraint, FromAtomic(p), ctx)
		return sub.Matched, sub.TypeCoerced, sub.FromMixed, sub.ToMixed
	}
	if _, ok := c.(TMixed); ok {
		return true, true, false, true
	}

	switch pv := p.(type) {
	case TInt:
		if cv, ok := c.(TInt); ok {
			switch pv.Shape {
			case IntGeneral:
				return true, false, false, false
			case IntRange:
				if cv.Shape == IntLiteral && cv.Literal >= pv.RangeMin && cv.Literal <= pv.RangeMax {
					return true, false, false, false
				}
			}
		}
		return false, false, false, false

	case TFloat:
		if pv.Shape == FloatGeneral {
			if _, ok := c.(TFloat); ok {
				return true, false, false, false
			}
			if _, ok := c.(TInt); ok {
				return true, true, false, false
			}
		}
		return false, false, false, false

	case TString:
		cv, ok := c.(TString)
		if !ok {
			return false, false, false, false
		}
		switch pv.Shape {
		case StringGeneral:
			return true, false, false, false
		case StringNonEmpty:
			if (cv.Shape == StringLiteral && cv.Literal != "") || cv.Shape == StringNonEmpty || cv.Shape == StringNumeric || cv.Shape == StringClassLike {
				return true, false, false, false
			}
		case StringNumeric:
			if cv.Shape == StringLiteral && isNumericString(cv.Literal) {
				return true, false, false, false
			}
			if cv.Shape == StringNumeric {
				return true, false, false, false
			}
		case StringClassLike:
			if cv.Shape == StringClassLike {
				return stringClassLikeContained(cv, pv, ctx)
			}
		}
		return false, false, false, false

	case TBool:
		if pv.Narrow == BoolAny {
			if _, ok := c.(TBool); ok {
				return true, false, false, false
			}
		}
		return false, false, false, false

	case TArrayKey:
		switch c.(type) {
		case TInt, TString:
			return true, false, false, false
		}
		return false, false, false, false

	case TScalar:
		switch c.(type) {
		case TBool, TInt, TFloat, TString, TArrayKey:
			return true, false, false, false
		}
		return false, false, false, false

	case TObjectAny:
		switch c.(type) {
		case TNamedObject, TEnum, TClosedShape:
			return true, false, false, false
		}
		return false, false, false, false

	case TNamedObject:
		return namedObjectContains(c, pv, ctx)

	case TEnum:
		if cv, ok := c.(TEnum); ok && cv.Name == pv.Name {
			if !pv.HasCase {
				return true, false, false, false
			}
			if cv.HasCase && cv.Case == pv.Case {
				return true, false, false, false
			}
		}
		return false, false, false, false

	case TGenericArray:
		return genericArrayContains(c, pv, ctx)

	case TCallableSignature:
		cv, ok := c.(TCallableSignature)
		if !ok {
			return false, false, false, false
		}
		ret := IsContainedBy(cv.ReturnType, pv.ReturnType, ctx)
		return ret.Matched, ret.TypeCoerced, ret.FromMixed, ret.ToMixed
	}
	return false, false, false, false
}

func namedObjectContains(c TAtomic, pv TNamedObject, ctx ContainmentContext) (bool, bool, bool, bool) {
	var childName interner.StringId
	var childParams []*TUnion
	switch cv := c.(type) {
	case TNamedObject:
		childName = cv.Name
		childParams = cv.TypeParams
	case TEnum:
		childName = cv.Name
	default:
		return false, false, false, false
	}
	if ctx.Classes == nil || !ctx.Classes.IsSameOrSubtype(childName, pv.Name) {
		return false, false, false, false
	}
	n := len(pv.TypeParams)
	if len(childParams) < n {
		n = len(childParams)
	}
	anyCoerced := false
	for i := 0; i < n; i++ {
		if ctx.Classes.IsCovariantParamAt(pv.Name, i) {
			sub := IsContainedBy(childParams[i], pv.TypeParams[i], ctx)
			if !sub.Matched {
				return false, false, false, false
			}
			anyCoerced = anyCoerced || sub.TypeCoerced
			continue
		}
		if !UnionsEqual(childParams[i], pv.TypeParams[i]) {
			return false, false, false, false
		}
	}
	return true, anyCoerced, false, false
}

func genericArrayContains(c TAtomic, pv TGenericArray, ctx ContainmentContext) (bool, bool, bool, bool) {
	switch cv := c.(type) {
	case TGenericArray:
		k := IsContainedBy(cv.Key, pv.Key, ctx)
		v := IsContainedBy(cv.Value, pv.Value, ctx)
		return k.Matched && v.Matched, k.TypeCoerced || v.TypeCoerced, k.FromMixed || v.FromMixed, k.ToMixed || v.ToMixed
	case TKeyedArray:
		for _, e := range cv.Entries {
			kr := IsContainedBy(arrayKeyToUnion(e.Key), pv.Key, ctx)
			vr := IsContainedBy(e.Type, pv.Value, ctx)
			if !kr.Matched || !vr.Matched {
				return false, false, false, false
			}
		}
		return true, false, false, false
	case TList:
		for _, pfx := range cv.Prefix {
			if vr := IsContainedBy(pfx, pv.Value, ctx); !vr.Matched {
				return false, false, false, false
			}
		}
		if cv.Element != nil {
			if vr := IsContainedBy(cv.Element, pv.Value, ctx); !vr.Matched {
				return false, false, false, false
			}
		}
		return true, false, false, false
	}
	return false, false, false, false
}

func stringClassLikeContained(cv, pv TString, ctx ContainmentContext) (bool, bool, bool, bool) {
	if pv.ClassLikeConstraint == ClassLikeAny {
		return true, false, false, false
	}
	if cv.ClassLikeConstraint == ClassLikeLiteral && pv.ClassLikeConstraint == ClassLikeLiteral {
		if ctx.Classes != nil && ctx.Classes.IsSameOrSubtype(cv.ClassLikeName, pv.ClassLikeName) {
			return true, false, false, false
		}
	}
	if cv.ClassLikeConstraint == ClassLikeLiteral && pv.ClassLikeConstraint == ClassLikeOfType {
		if ctx.Classes != nil && ctx.Classes.IsSameOrSubtype(cv.ClassLikeName, pv.ClassLikeName) {
			return true, false, false, false
		}
	}
	return false, false, false, false
}

func arrayKeyToUnion(k ArrayKeyLit) *TUnion {
	if k.IsString {
		return FromAtomic(TString{Shape: StringLiteral, Literal: k.StrKey})
	}
	return FromAtomic(TInt{Shape: IntLiteral, Literal: k.IntKey})
}

func isNumericString(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
