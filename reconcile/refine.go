package reconcile

import (
	"github.com/krizos/phpanalyze/blockctx"
	"github.com/krizos/phpanalyze/typeir"
)

// Outcome summarizes one Apply call for the analyzer's issue reporting.
type Outcome struct {
	// Contradiction: some variable refined to never while previously
	// non-empty, so the branch cannot be taken.
	Contradiction    bool
	ContradictionVar string
	// Redundant: every assertion left every variable unchanged, so the
	// condition re-states what is already known.
	Redundant    bool
	RedundantVar string
	// RedundantIsset distinguishes an isset() restating a known-defined,
	// non-nullable variable, reported under its own code.
	RedundantIsset bool
}

// Apply refines ctx.Locals under the given clause set and appends the
// clauses to the context's fact list. Only simple-variable keys refine
// locals; property/index paths ride along as clauses for later look-ups.
func (r *Reconciler) Apply(clauses []blockctx.Clause, ctx *blockctx.BlockContext) Outcome {
	outcome := Outcome{Redundant: len(clauses) > 0}

	for _, clause := range clauses {
		key := clause.SingleVar()
		if key == "" || !isSimpleVar(key) {
			outcome.Redundant = false
			ctx.Clauses = append(ctx.Clauses, clause)
			continue
		}

		varId := r.interner.Intern(key)
		current, exists := ctx.Locals[varId]
		if !exists {
			// Refining an unset variable states nothing; the analyzer
			// reports UndefinedVariable when the expression was read.
			outcome.Redundant = false
			ctx.Clauses = append(ctx.Clauses, clause)
			continue
		}

		var refined *typeir.TUnion
		relevant := false
		for _, assertion := range clause.Possibilities[key] {
			alt := r.refineAssertion(current, assertion)
			refined = typeir.Combine(refined, alt, r.threshold)
			if assertion.Kind != blockctx.AssertTruthy && assertion.Kind != blockctx.AssertFalsy {
				relevant = true
			}
			if assertion.Kind == blockctx.AssertIsset && !current.Flags.PossiblyUndefined && !current.HasKind(typeir.KindNull) {
				outcome.RedundantIsset = true
				outcome.RedundantVar = key
			}
		}

		if refined == nil {
			refined = typeir.GetNever()
		}
		if refined.IsNever() && !current.IsNever() {
			outcome.Contradiction = true
			outcome.ContradictionVar = key
			outcome.Redundant = false
		} else if !typeir.UnionsEqual(refined, current) || !relevant || current.IsMixed() {
			outcome.Redundant = false
		} else if outcome.RedundantVar == "" {
			outcome.RedundantVar = key
		}

		ctx.Locals[varId] = refined
		ctx.Clauses = append(ctx.Clauses, clause)
	}

	if len(clauses) == 0 {
		outcome.Redundant = false
	}
	return outcome
}

func isSimpleVar(key string) bool {
	for i := 0; i < len(key); i++ {
		switch key[i] {
		case '-', '>', '[', ']', '\'':
			return false
		}
	}
	return true
}

// refineAssertion narrows one union under one assertion (spec.md §4.4.6's
// refinement rules).
func (r *Reconciler) refineAssertion(u *typeir.TUnion, a blockctx.Assertion) *typeir.TUnion {
	switch a.Kind {
	case blockctx.AssertTruthy:
		return r.refineTruthy(u)
	case blockctx.AssertFalsy:
		return r.refineFalsy(u)
	case blockctx.AssertIsType:
		return r.refineIsType(u, a.Type)
	case blockctx.AssertNotType:
		return r.refineNotType(u, a.Type)
	case blockctx.AssertIdentical:
		return r.refineIdentical(u, a.Atomic)
	case blockctx.AssertNotIdentical:
		return r.refineNotIdentical(u, a.Atomic)
	case blockctx.AssertNull:
		return r.refineNull(u)
	case blockctx.AssertNotNull:
		return r.refineNotNull(u, false)
	case blockctx.AssertIsset:
		return r.refineNotNull(u, true)
	case blockctx.AssertHasArrayKey:
		return r.refineHasKey(u, a.Key)
	default:
		return u
	}
}

// refineTruthy drops every definitely-falsy atomic: null, false, int(0),
// float(0.0), "" and "0", and empty arrays.
func (r *Reconciler) refineTruthy(u *typeir.TUnion) *typeir.TUnion {
	out := make([]typeir.TAtomic, 0, len(u.Atomics))
	for _, a := range u.Atomics {
		switch v := a.(type) {
		case typeir.TNull:
			continue
		case typeir.TBool:
			if v.Narrow == typeir.BoolFalse {
				continue
			}
			out = append(out, typeir.TBool{Narrow: typeir.BoolTrue})
		case typeir.TInt:
			if v.Shape == typeir.IntLiteral && v.Literal == 0 {
				continue
			}
			out = append(out, v)
		case typeir.TFloat:
			if v.Shape == typeir.FloatLiteral && v.Literal == 0 {
				continue
			}
			out = append(out, v)
		case typeir.TString:
			if v.Shape == typeir.StringLiteral && (v.Literal == "" || v.Literal == "0") {
				continue
			}
			if v.Shape == typeir.StringGeneral {
				out = append(out, typeir.TString{Shape: typeir.StringNonEmpty})
				continue
			}
			out = append(out, v)
		case typeir.TKeyedArray:
			if len(v.Entries) == 0 && v.Fallback == nil {
				continue
			}
			out = append(out, v)
		case typeir.TMixed:
			out = append(out, typeir.TMixed{Constraint: typeir.MixedTruthy})
		default:
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return typeir.GetNever()
	}
	result := &typeir.TUnion{Atomics: out}
	return result
}

// refineFalsy is the complement: only the falsy inhabitants survive.
func (r *Reconciler) refineFalsy(u *typeir.TUnion) *typeir.TUnion {
	out := make([]typeir.TAtomic, 0, len(u.Atomics))
	for _, a := range u.Atomics {
		switch v := a.(type) {
		case typeir.TNull:
			out = append(out, v)
		case typeir.TBool:
			if v.Narrow == typeir.BoolTrue {
				continue
			}
			out = append(out, typeir.TBool{Narrow: typeir.BoolFalse})
		case typeir.TInt:
			if v.Shape == typeir.IntLiteral {
				if v.Literal == 0 {
					out = append(out, v)
				}
				continue
			}
			out = append(out, typeir.TInt{Shape: typeir.IntLiteral, Literal: 0})
		case typeir.TFloat:
			if v.Shape == typeir.FloatLiteral {
				if v.Literal == 0 {
					out = append(out, v)
				}
				continue
			}
			out = append(out, typeir.TFloat{Shape: typeir.FloatLiteral, Literal: 0})
		case typeir.TString:
			if v.Shape == typeir.StringLiteral {
				if v.Literal == "" || v.Literal == "0" {
					out = append(out, v)
				}
				continue
			}
			if v.Shape == typeir.StringNonEmpty || v.Shape == typeir.StringClassLike {
				out = append(out, typeir.TString{Shape: typeir.StringLiteral, Literal: "0"})
				continue
			}
			out = append(out,
				typeir.TString{Shape: typeir.StringLiteral, Literal: ""},
				typeir.TString{Shape: typeir.StringLiteral, Literal: "0"})
		case typeir.TKeyedArray, typeir.TGenericArray, typeir.TList:
			out = append(out, typeir.TKeyedArray{})
		case typeir.TMixed:
			out = append(out, typeir.TMixed{Constraint: typeir.MixedFalsy})
		}
	}
	if len(out) == 0 {
		return typeir.GetNever()
	}
	return &typeir.TUnion{Atomics: out}
}

// refineIsType keeps the atomics contained in target; mixed (and wider
// scalars) narrow down to the target itself.
func (r *Reconciler) refineIsType(u *typeir.TUnion, target *typeir.TUnion) *typeir.TUnion {
	cctx := typeir.ContainmentContext{Classes: r.classes}
	var out []typeir.TAtomic
	for _, c := range u.Atomics {
		if _, isMixed := c.(typeir.TMixed); isMixed {
			out = append(out, target.Atomics...)
			continue
		}
		if g, isParam := c.(typeir.TGenericParam); isParam {
			constraint := g.Constraint
			if constraint == nil {
				constraint = typeir.GetMixed()
			}
			if typeir.IsContainedBy(constraint, target, cctx).Matched || typeir.IsContainedBy(target, constraint, cctx).Matched {
				out = append(out, c)
			}
			continue
		}
		if typeir.IsContainedBy(typeir.FromAtomic(c), target, cctx).Matched {
			out = append(out, c)
			continue
		}
		// A wider child narrows to the target: scalar vs is_int, object
		// vs instanceof Foo.
		if typeir.IsContainedBy(target, typeir.FromAtomic(c), cctx).Matched {
			out = append(out, target.Atomics...)
		}
	}
	if len(out) == 0 {
		return typeir.GetNever()
	}
	return typeir.CombineAll([]*typeir.TUnion{{Atomics: out}}, r.threshold)
}

func (r *Reconciler) refineNotType(u *typeir.TUnion, target *typeir.TUnion) *typeir.TUnion {
	cctx := typeir.ContainmentContext{Classes: r.classes}
	var out []typeir.TAtomic
	for _, c := range u.Atomics {
		if _, isMixed := c.(typeir.TMixed); isMixed {
			out = append(out, c)
			continue
		}
		if typeir.IsContainedBy(typeir.FromAtomic(c), target, cctx).Matched {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return typeir.GetNever()
	}
	return &typeir.TUnion{Atomics: out}
}

func (r *Reconciler) refineIdentical(u *typeir.TUnion, lit typeir.TAtomic) *typeir.TUnion {
	cctx := typeir.ContainmentContext{Classes: r.classes}
	for _, c := range u.Atomics {
		if typeir.Equal(c, lit) {
			return typeir.FromAtomic(lit)
		}
		if _, isMixed := c.(typeir.TMixed); isMixed {
			return typeir.FromAtomic(lit)
		}
		if typeir.IsContainedBy(typeir.FromAtomic(lit), typeir.FromAtomic(c), cctx).Matched {
			return typeir.FromAtomic(lit)
		}
	}
	return typeir.GetNever()
}

func (r *Reconciler) refineNotIdentical(u *typeir.TUnion, lit typeir.TAtomic) *typeir.TUnion {
	var out []typeir.TAtomic
	for _, c := range u.Atomics {
		if typeir.Equal(c, lit) {
			continue
		}
		if b, ok := c.(typeir.TBool); ok {
			if litBool, isBool := lit.(typeir.TBool); isBool && b.Narrow == typeir.BoolAny {
				if litBool.Narrow == typeir.BoolTrue {
					out = append(out, typeir.TBool{Narrow: typeir.BoolFalse})
				} else {
					out = append(out, typeir.TBool{Narrow: typeir.BoolTrue})
				}
				continue
			}
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return typeir.GetNever()
	}
	return &typeir.TUnion{Atomics: out}
}

func (r *Reconciler) refineNull(u *typeir.TUnion) *typeir.TUnion {
	for _, c := range u.Atomics {
		if _, ok := c.(typeir.TNull); ok {
			return typeir.FromAtomic(typeir.TNull{})
		}
		if _, ok := c.(typeir.TMixed); ok {
			return typeir.FromAtomic(typeir.TNull{})
		}
	}
	return typeir.GetNever()
}

func (r *Reconciler) refineNotNull(u *typeir.TUnion, clearPossiblyUndefined bool) *typeir.TUnion {
	out := make([]typeir.TAtomic, 0, len(u.Atomics))
	for _, c := range u.Atomics {
		switch v := c.(type) {
		case typeir.TNull:
			continue
		case typeir.TMixed:
			if v.Constraint == typeir.MixedAny {
				out = append(out, typeir.TMixed{Constraint: typeir.MixedNonNull})
				continue
			}
			out = append(out, v)
		default:
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return typeir.GetNever()
	}
	result := &typeir.TUnion{Atomics: out, Flags: u.Flags}
	if clearPossiblyUndefined {
		result.Flags.PossiblyUndefined = false
	}
	return result
}

func (r *Reconciler) refineHasKey(u *typeir.TUnion, key typeir.ArrayKeyLit) *typeir.TUnion {
	out := make([]typeir.TAtomic, 0, len(u.Atomics))
	for _, c := range u.Atomics {
		keyed, ok := c.(typeir.TKeyedArray)
		if !ok {
			out = append(out, c)
			continue
		}
		found := false
		entries := make([]typeir.KeyedEntry, len(keyed.Entries))
		for i, e := range keyed.Entries {
			if e.Key == key {
				e.PossiblyUndefined = false
				found = true
			}
			entries[i] = e
		}
		if !found {
			valueType := keyed.Fallback
			if valueType == nil {
				valueType = typeir.GetMixed()
			}
			entries = append(entries, typeir.KeyedEntry{Key: key, Type: valueType})
		}
		out = append(out, typeir.TKeyedArray{Entries: entries, Fallback: keyed.Fallback})
	}
	if len(out) == 0 {
		return typeir.GetNever()
	}
	return &typeir.TUnion{Atomics: out}
}
