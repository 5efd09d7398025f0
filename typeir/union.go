package typeir

import (
	"sort"
	"strings"

	"github.com/krizos/phpanalyze/internal/interner"
)

// UnionFlags are the per-union modifiers that ride alongside the atomics
// (spec.md §3.2: "plus the flags {ignore_nullable_issues,
// ignore_falsable_issues, possibly_undefined, ...}").
type UnionFlags struct {
	IgnoreNullableIssues bool
	IgnoreFalsableIssues bool
	PossiblyUndefined    bool
}

// TUnion is a non-empty multiset of TAtomic values plus flags: the type of
// every inferred expression (spec.md §3.2). The zero value is invalid; use
// NewUnion/FromAtomic/GetNever to construct one.
type TUnion struct {
	Atomics []TAtomic
	Flags   UnionFlags
}

// NewUnion builds a TUnion from one or more atomics. Panics if called with
// zero atomics — spec.md's invariant is that a TUnion always contains at
// least one atomic, so constructing an empty one is a caller defect.
func NewUnion(atomics ...TAtomic) *TUnion {
	if len(atomics) == 0 {
		panic("typeir: NewUnion requires at least one atomic")
	}
	cp := make([]TAtomic, len(atomics))
	copy(cp, atomics)
	return &TUnion{Atomics: cp}
}

// FromAtomic is a single-atomic convenience wrapper around NewUnion.
func FromAtomic(a TAtomic) *TUnion {
	return NewUnion(a)
}

// GetNever returns the canonical empty-value type (spec.md §3.2: "get_never()
// is the canonical empty-value type").
func GetNever() *TUnion {
	return FromAtomic(TNever{})
}

// GetMixed returns the unconstrained top type.
func GetMixed() *TUnion {
	return FromAtomic(TMixed{})
}

// Clone returns a deep-enough copy: a new Atomics slice (atomics themselves
// are immutable value types, so they are shared) with the same flags. Used
// at branch forks so refining one branch's locals never mutates the
// other's (spec.md design notes: "copy-on-write at the branch fork").
func (u *TUnion) Clone() *TUnion {
	if u == nil {
		return nil
	}
	cp := make([]TAtomic, len(u.Atomics))
	copy(cp, u.Atomics)
	return &TUnion{Atomics: cp, Flags: u.Flags}
}

// IsNever reports whether u is exactly the bottom type.
func (u *TUnion) IsNever() bool {
	return len(u.Atomics) == 1 && u.Atomics[0].Kind() == KindNever
}

// HasNever reports whether u contains TNever among (possibly) other atomics
// — the shape `combine(never, U)` never actually produces (never absorbs),
// but intermediate computations (e.g. invocation analyzer unioning targets)
// can transiently build such unions before final combine.
func (u *TUnion) HasNever() bool {
	for _, a := range u.Atomics {
		if a.Kind() == KindNever {
			return true
		}
	}
	return false
}

// IsMixed reports whether u is exactly one unconstrained TMixed.
func (u *TUnion) IsMixed() bool {
	return len(u.Atomics) == 1 && u.Atomics[0].Kind() == KindMixed && u.Atomics[0].(TMixed).Constraint == MixedAny
}

// HasKind reports whether any atomic in u has the given kind.
func (u *TUnion) HasKind(k AtomicKind) bool {
	for _, a := range u.Atomics {
		if a.Kind() == k {
			return true
		}
	}
	return false
}

// WithoutKind returns a clone of u with every atomic of kind k removed. If
// that would leave it empty, returns GetNever() (an expression can't carry
// a typeless union).
func (u *TUnion) WithoutKind(k AtomicKind) *TUnion {
	out := make([]TAtomic, 0, len(u.Atomics))
	for _, a := range u.Atomics {
		if a.Kind() != k {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return GetNever()
	}
	return &TUnion{Atomics: out, Flags: u.Flags}
}

// AddOptional appends atomic to the union held by *uOpt, creating the union
// if *uOpt is nil — the scanner-facing convenience spec.md §4.1 names
// ("add_optional(union_opt, atomic): convenience used by scanners").
func AddOptional(uOpt **TUnion, atomic TAtomic) {
	if *uOpt == nil {
		*uOpt = FromAtomic(atomic)
		return
	}
	(*uOpt).Atomics = append((*uOpt).Atomics, atomic)
}

// Equal reports whether two atomics represent the same type value.
func Equal(a, b TAtomic) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	if eq, ok := a.(Equatable); ok {
		return eq.EqualAtomic(b)
	}
	return a == b
}

// UnionsEqual reports whether two unions hold the same multiset of atomics
// (order-independent) and the same flags.
func UnionsEqual(a, b *TUnion) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Flags != b.Flags || len(a.Atomics) != len(b.Atomics) {
		return false
	}
	used := make([]bool, len(b.Atomics))
	for _, av := range a.Atomics {
		found := false
		for j, bv := range b.Atomics {
			if used[j] {
				continue
			}
			if Equal(av, bv) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Id returns the canonical, deterministic type-id string for u — used for
// issue messages and as a cache/dedup key (spec.md §4.1: "get_id(union) ->
// String: canonical human-readable type id").
func (u *TUnion) Id(in *interner.Interner) string {
	if u == nil {
		return "never"
	}
	parts := make([]string, len(u.Atomics))
	for i, a := range u.Atomics {
		parts[i] = a.Id(in)
	}
	sort.Strings(parts)
	// de-duplicate adjacent identical ids (distinct atomics can render the
	// same id, e.g. two equal literals produced along different paths).
	out := parts[:0:0]
	for i, p := range parts {
		if i == 0 || p != parts[i-1] {
			out = append(out, p)
		}
	}
	s := strings.Join(out, "|")
	if u.Flags.PossiblyUndefined {
		s += "?"
	}
	return s
}
