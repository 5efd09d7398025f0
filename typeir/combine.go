package typeir

import "sort"

// DefaultLiteralWideningThreshold is the fallback used when a caller does
// not have a configured phpsettings.Settings.LiteralWideningThreshold handy
// (spec.md §9 open question, recommended default 8).
const DefaultLiteralWideningThreshold = 8

// Combine merges two unions into the type of "either A or B" (spec.md
// §4.1). It is a pure function of its inputs: deterministic, and
// independent of call order (commutative) and of being called on identical
// operands twice (idempotent).
//
// literalWideningThreshold bounds how many distinct literal values of the
// same kind (int, float, or string) a combined union may keep before they
// are widened to the general scalar type.
func Combine(a, b *TUnion, literalWideningThreshold int) *TUnion {
	if literalWideningThreshold <= 0 {
		literalWideningThreshold = DefaultLiteralWideningThreshold
	}
	if a == nil && b == nil {
		return GetNever()
	}
	if a == nil {
		return b.Clone()
	}
	if b == nil {
		return a.Clone()
	}
	if UnionsEqual(a, b) {
		return a.Clone()
	}
	if a.IsNever() {
		return b.Clone()
	}
	if b.IsNever() {
		return a.Clone()
	}
	if hasMixedAny(a) || hasMixedAny(b) {
		return GetMixed()
	}

	merged := make([]TAtomic, 0, len(a.Atomics)+len(b.Atomics))
	merged = append(merged, a.Atomics...)
	merged = append(merged, b.Atomics...)

	merged = mergeStructured(merged, literalWideningThreshold)
	merged = collapseBool(merged)
	merged = widenLiterals(merged, literalWideningThreshold)
	merged = dedupeExact(merged)

	return &TUnion{
		Atomics: merged,
		Flags: UnionFlags{
			IgnoreNullableIssues: a.Flags.IgnoreNullableIssues || b.Flags.IgnoreNullableIssues,
			IgnoreFalsableIssues: a.Flags.IgnoreFalsableIssues || b.Flags.IgnoreFalsableIssues,
			PossiblyUndefined:    a.Flags.PossiblyUndefined || b.Flags.PossiblyUndefined,
		},
	}
}

// CombineAll folds Combine across a non-empty slice of unions.
func CombineAll(units []*TUnion, literalWideningThreshold int) *TUnion {
	if len(units) == 0 {
		return GetNever()
	}
	result := units[0]
	for _, u := range units[1:] {
		result = Combine(result, u, literalWideningThreshold)
	}
	return result
}

func hasMixedAny(u *TUnion) bool {
	for _, a := range u.Atomics {
		if m, ok := a.(TMixed); ok && m.Constraint == MixedAny {
			return true
		}
	}
	return false
}

// mergeStructured collapses every TNamedObject sharing a name, every
// TGenericArray, and every TKeyedArray into one representative atomic each,
// combining their component unions (spec.md §4.1: "combines generics
// componentwise when names match"; "merges keyed arrays by unifying known
// keys and promoting missing ones to possibly-undefined").
func mergeStructured(atomics []TAtomic, threshold int) []TAtomic {
	var namedObjs []TNamedObject
	var genArrays []TGenericArray
	var keyedArrays []TKeyedArray
	rest := make([]TAtomic, 0, len(atomics))

	for _, a := range atomics {
		switch v := a.(type) {
		case TNamedObject:
			namedObjs = append(namedObjs, v)
		case TGenericArray:
			genArrays = append(genArrays, v)
		case TKeyedArray:
			keyedArrays = append(keyedArrays, v)
		default:
			rest = append(rest, a)
		}
	}

	rest = append(rest, mergeNamedObjects(namedObjs, threshold)...)
	rest = append(rest, mergeGenericArrays(genArrays, threshold)...)
	rest = append(rest, mergeKeyedArrays(keyedArrays, threshold)...)
	return rest
}

func mergeNamedObjects(objs []TNamedObject, threshold int) []TAtomic {
	if len(objs) == 0 {
		return nil
	}
	type key struct {
		name   uint32
		isThis bool
	}
	groups := map[key]*TNamedObject{}
	order := []key{}
	for _, o := range objs {
		o := o
		k := key{name: uint32(o.Name), isThis: o.IsThis}
		if existing, ok := groups[k]; ok {
			existing.TypeParams = combineTypeParamLists(existing.TypeParams, o.TypeParams, threshold)
			existing.Intersections = mergeIntersections(existing.Intersections, o.Intersections)
		} else {
			cp := o
			groups[k] = &cp
			order = append(order, k)
		}
	}
	out := make([]TAtomic, 0, len(order))
	for _, k := range order {
		out = append(out, *groups[k])
	}
	return out
}

func combineTypeParamLists(a, b []*TUnion, threshold int) []*TUnion {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make([]*TUnion, n)
	for i := 0; i < n; i++ {
		switch {
		case i < len(a) && i < len(b):
			out[i] = Combine(a[i], b[i], threshold)
		case i < len(a):
			out[i] = a[i]
		default:
			out[i] = b[i]
		}
	}
	return out
}

func mergeIntersections(a, b []TAtomic) []TAtomic {
	out := append([]TAtomic{}, a...)
	for _, bv := range b {
		found := false
		for _, av := range out {
			if Equal(av, bv) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, bv)
		}
	}
	return out
}

func mergeGenericArrays(arrs []TGenericArray, threshold int) []TAtomic {
	if len(arrs) == 0 {
		return nil
	}
	key := arrs[0].Key
	val := arrs[0].Value
	for _, a := range arrs[1:] {
		key = Combine(key, a.Key, threshold)
		val = Combine(val, a.Value, threshold)
	}
	return []TAtomic{TGenericArray{Key: key, Value: val}}
}

func mergeKeyedArrays(arrs []TKeyedArray, threshold int) []TAtomic {
	if len(arrs) == 0 {
		return nil
	}
	if len(arrs) == 1 {
		return []TAtomic{arrs[0]}
	}

	allKeys := map[ArrayKeyLit]bool{}
	for _, a := range arrs {
		for _, e := range a.Entries {
			allKeys[e.Key] = true
		}
	}

	entries := make([]KeyedEntry, 0, len(allKeys))
	for k := range allKeys {
		var t *TUnion
		possiblyUndefined := false
		for _, a := range arrs {
			found := false
			for _, e := range a.Entries {
				if e.Key == k {
					found = true
					if t == nil {
						t = e.Type
					} else {
						t = Combine(t, e.Type, threshold)
					}
					if e.PossiblyUndefined {
						possiblyUndefined = true
					}
					break
				}
			}
			if !found {
				possiblyUndefined = true
				if a.Fallback != nil {
					if t == nil {
						t = a.Fallback
					} else {
						t = Combine(t, a.Fallback, threshold)
					}
				}
			}
		}
		if t == nil {
			t = GetMixed()
		}
		entries = append(entries, KeyedEntry{Key: k, Type: t, PossiblyUndefined: possiblyUndefined})
	}

	var fallback *TUnion
	for _, a := range arrs {
		if a.Fallback != nil {
			if fallback == nil {
				fallback = a.Fallback
			} else {
				fallback = Combine(fallback, a.Fallback, threshold)
			}
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key.less(entries[j].Key) })
	return []TAtomic{TKeyedArray{Entries: entries, Fallback: fallback}}
}

func collapseBool(atomics []TAtomic) []TAtomic {
	hasTrue, hasFalse, hasAny := false, false, false
	anyBool := false
	out := make([]TAtomic, 0, len(atomics))
	for _, a := range atomics {
		b, ok := a.(TBool)
		if !ok {
			out = append(out, a)
			continue
		}
		anyBool = true
		switch b.Narrow {
		case BoolTrue:
			hasTrue = true
		case BoolFalse:
			hasFalse = true
		default:
			hasAny = true
		}
	}
	if !anyBool {
		return out
	}
	switch {
	case hasAny || (hasTrue && hasFalse):
		out = append(out, TBool{Narrow: BoolAny})
	case hasTrue:
		out = append(out, TBool{Narrow: BoolTrue})
	default:
		out = append(out, TBool{Narrow: BoolFalse})
	}
	return out
}

// widenLiterals drops literal int/float/string atomics down to the general
// scalar once the general form of that kind is already present, or once
// the number of distinct literal values exceeds the threshold (spec.md §9:
// "widens when incompatible literals coexist ... stays a literal set up to
// a small bound, then widens").
func widenLiterals(atomics []TAtomic, threshold int) []TAtomic {
	var intLits []TInt
	var floatLits []TFloat
	var stringLits []TString
	hasGeneralInt, hasGeneralFloat, hasGeneralString := false, false, false
	rest := make([]TAtomic, 0, len(atomics))

	for _, a := range atomics {
		switch v := a.(type) {
		case TInt:
			if v.Shape == IntLiteral {
				intLits = append(intLits, v)
			} else {
				hasGeneralInt = true
				rest = append(rest, v)
			}
		case TFloat:
			if v.Shape == FloatLiteral {
				floatLits = append(floatLits, v)
			} else {
				hasGeneralFloat = true
				rest = append(rest, v)
			}
		case TString:
			if v.Shape == StringLiteral {
				stringLits = append(stringLits, v)
			} else {
				if v.Shape == StringGeneral {
					hasGeneralString = true
				}
				rest = append(rest, v)
			}
		default:
			rest = append(rest, a)
		}
	}

	intLits = dedupeInts(intLits)
	if hasGeneralInt {
		intLits = nil
	} else if len(intLits) > threshold {
		rest = append(rest, TInt{Shape: IntGeneral})
		intLits = nil
	}
	for _, l := range intLits {
		rest = append(rest, l)
	}

	floatLits = dedupeFloats(floatLits)
	if hasGeneralFloat {
		floatLits = nil
	} else if len(floatLits) > threshold {
		rest = append(rest, TFloat{Shape: FloatGeneral})
		floatLits = nil
	}
	for _, l := range floatLits {
		rest = append(rest, l)
	}

	stringLits = dedupeStrings(stringLits)
	if hasGeneralString {
		stringLits = nil
	} else if len(stringLits) > threshold {
		rest = append(rest, TString{Shape: StringGeneral})
		stringLits = nil
	}
	for _, l := range stringLits {
		rest = append(rest, l)
	}

	return rest
}

func dedupeInts(in []TInt) []TInt {
	seen := map[int64]bool{}
	out := make([]TInt, 0, len(in))
	for _, v := range in {
		if !seen[v.Literal] {
			seen[v.Literal] = true
			out = append(out, v)
		}
	}
	return out
}

func dedupeFloats(in []TFloat) []TFloat {
	seen := map[float64]bool{}
	out := make([]TFloat, 0, len(in))
	for _, v := range in {
		if !seen[v.Literal] {
			seen[v.Literal] = true
			out = append(out, v)
		}
	}
	return out
}

func dedupeStrings(in []TString) []TString {
	seen := map[string]bool{}
	out := make([]TString, 0, len(in))
	for _, v := range in {
		if !seen[v.Literal] {
			seen[v.Literal] = true
			out = append(out, v)
		}
	}
	return out
}

// dedupeExact removes atomics that are exact duplicates of an earlier one
// in the slice, by Equal.
func dedupeExact(atomics []TAtomic) []TAtomic {
	out := make([]TAtomic, 0, len(atomics))
	for _, a := range atomics {
		dup := false
		for _, seen := range out {
			if Equal(seen, a) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, a)
		}
	}
	return out
}
