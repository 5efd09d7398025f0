package typeir

import "github.com/krizos/phpanalyze/internal/interner"

// ExpansionContext carries the binding environment Expand substitutes
// against: the current template bindings, and which concrete class self,
// static and parent resolve to at this call site (spec.md §4.1: "expand
// walks a union substituting templates bound in the current context and
// self/static/parent against the calling class").
type ExpansionContext struct {
	TemplateBindings map[TemplateKey]*TUnion
	Classes          ClassLikeOracle

	SelfId, StaticId, ParentId       interner.StringId // the interned lowercase pseudo-names "self"/"static"/"parent"
	SelfClass, StaticClass, ParentClass interner.StringId

	LiteralWideningThreshold int
}

func (ctx ExpansionContext) threshold() int {
	if ctx.LiteralWideningThreshold <= 0 {
		return DefaultLiteralWideningThreshold
	}
	return ctx.LiteralWideningThreshold
}

// Expand resolves every template parameter, self/static/parent occurrence
// and conditional type inside u against ctx, returning a new union. Atomics
// that don't need substitution are passed through unchanged.
func Expand(u *TUnion, ctx ExpansionContext) *TUnion {
	if u == nil {
		return nil
	}
	out := make([]*TUnion, 0, len(u.Atomics))
	for _, a := range u.Atomics {
		out = append(out, expandAtomic(a, ctx))
	}
	result := CombineAll(out, ctx.threshold())
	result.Flags = u.Flags
	return result
}

func expandAtomic(a TAtomic, ctx ExpansionContext) *TUnion {
	switch v := a.(type) {
	case TGenericParam:
		if bound, ok := ctx.TemplateBindings[KeyOf(v)]; ok {
			return Expand(bound, ctx)
		}
		if v.Constraint != nil {
			return FromAtomic(TGenericParam{ParameterName: v.ParameterName, DefiningEntity: v.DefiningEntity, Constraint: Expand(v.Constraint, ctx)})
		}
		return FromAtomic(v)

	case TNamedObject:
		name := v.Name
		switch {
		case ctx.SelfClass != 0 && name == ctx.SelfId:
			name = ctx.SelfClass
		case ctx.StaticClass != 0 && name == ctx.StaticId:
			name = ctx.StaticClass
		case ctx.ParentClass != 0 && name == ctx.ParentId:
			name = ctx.ParentClass
		}
		params := make([]*TUnion, len(v.TypeParams))
		for i, p := range v.TypeParams {
			params[i] = Expand(p, ctx)
		}
		inters := make([]TAtomic, len(v.Intersections))
		for i, in := range v.Intersections {
			inters[i] = expandAtomic(in, ctx).Atomics[0]
		}
		return FromAtomic(TNamedObject{Name: name, TypeParams: params, IsThis: v.IsThis, Intersections: inters})

	case TGenericArray:
		return FromAtomic(TGenericArray{Key: Expand(v.Key, ctx), Value: Expand(v.Value, ctx)})

	case TList:
		prefix := make([]*TUnion, len(v.Prefix))
		for i, p := range v.Prefix {
			prefix[i] = Expand(p, ctx)
		}
		var elem *TUnion
		if v.Element != nil {
			elem = Expand(v.Element, ctx)
		}
		return FromAtomic(TList{Prefix: prefix, Element: elem})

	case TKeyedArray:
		entries := make([]KeyedEntry, len(v.Entries))
		for i, e := range v.Entries {
			entries[i] = KeyedEntry{Key: e.Key, Type: Expand(e.Type, ctx), PossiblyUndefined: e.PossiblyUndefined}
		}
		var fallback *TUnion
		if v.Fallback != nil {
			fallback = Expand(v.Fallback, ctx)
		}
		return FromAtomic(TKeyedArray{Entries: entries, Fallback: fallback})

	case TCallableSignature:
		params := make([]CallableParam, len(v.Parameters))
		for i, p := range v.Parameters {
			params[i] = CallableParam{Name: p.Name, Type: Expand(p.Type, ctx), ByRef: p.ByRef, Variadic: p.Variadic, HasDefault: p.HasDefault}
		}
		var ret *TUnion
		if v.ReturnType != nil {
			ret = Expand(v.ReturnType, ctx)
		}
		return FromAtomic(TCallableSignature{IsPure: v.IsPure, IsClosure: v.IsClosure, Parameters: params, ReturnType: ret, Source: v.Source})

	case TClosedShape:
		props := make(map[interner.StringId]*TUnion, len(v.Properties))
		for k, t := range v.Properties {
			props[k] = Expand(t, ctx)
		}
		return FromAtomic(TClosedShape{Properties: props})

	case TConditional:
		subject := Expand(v.Subject, ctx)
		test := Expand(v.Test, ctx)
		branch := v.IfFalse
		if IsContainedBy(subject, test, ContainmentContext{Classes: ctx.Classes}).Matched {
			branch = v.IfTrue
		}
		return Expand(branch, ctx)

	default:
		return FromAtomic(a)
	}
}

// CastAtomicToCallable narrows an atomic to its callable-signature rendering
// if it has one (spec.md §4.1: cast_atomic_to_callable). Resolving a
// function name string or a [object, "method"] callable-array shape to its
// declaring FunctionLikeId needs codebase lookups the analyzer's invocation
// resolver has and typeir does not, so those shapes are left to it; this
// covers only the shapes typeir can resolve on its own.
func CastAtomicToCallable(a TAtomic) (TAtomic, bool) {
	switch v := a.(type) {
	case TCallableSignature:
		return v, true
	case TCallableAlias:
		return v, true
	case TNamedObject:
		for _, inter := range v.Intersections {
			if sig, ok := inter.(TCallableSignature); ok {
				return sig, true
			}
		}
	}
	return nil, false
}
