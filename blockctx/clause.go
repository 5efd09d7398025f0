package blockctx

import (
	"sort"
	"strings"

	"github.com/krizos/phpanalyze/internal/interner"
	"github.com/krizos/phpanalyze/typeir"
)

// AssertionKind is the closed set of primitive facts the reconciler can
// state about one variable path (spec.md §4.4.6).
type AssertionKind int

const (
	AssertTruthy AssertionKind = iota
	AssertFalsy
	AssertIsType      // the variable is contained in Type
	AssertNotType     // the variable is NOT contained in Type
	AssertIdentical   // === Atomic
	AssertNotIdentical
	AssertNull
	AssertNotNull
	AssertIsset       // defined and non-null
	AssertHasArrayKey // array with the given key present
)

// Assertion is one primitive fact.
type Assertion struct {
	Kind   AssertionKind
	Type   *typeir.TUnion // AssertIsType / AssertNotType
	Atomic typeir.TAtomic // AssertIdentical / AssertNotIdentical
	Key    typeir.ArrayKeyLit // AssertHasArrayKey
}

// Negate returns the logical complement of a.
func (a Assertion) Negate() Assertion {
	switch a.Kind {
	case AssertTruthy:
		return Assertion{Kind: AssertFalsy}
	case AssertFalsy:
		return Assertion{Kind: AssertTruthy}
	case AssertIsType:
		return Assertion{Kind: AssertNotType, Type: a.Type}
	case AssertNotType:
		return Assertion{Kind: AssertIsType, Type: a.Type}
	case AssertIdentical:
		return Assertion{Kind: AssertNotIdentical, Atomic: a.Atomic}
	case AssertNotIdentical:
		return Assertion{Kind: AssertIdentical, Atomic: a.Atomic}
	case AssertNull:
		return Assertion{Kind: AssertNotNull}
	case AssertNotNull:
		return Assertion{Kind: AssertNull}
	case AssertIsset:
		return Assertion{Kind: AssertNull}
	default:
		return Assertion{Kind: AssertFalsy}
	}
}

// Clause maps variable keys (dot-paths like "x" or "this->prop") to the set
// of alternative assertions at least one of which holds. A clause set is a
// conjunction of clauses.
type Clause struct {
	Possibilities map[string][]Assertion
	// Generated marks clauses derived by the reconciler rather than written
	// conditions, excluded from redundancy reporting.
	Generated bool
}

// NewClause builds a single-variable clause.
func NewClause(key string, assertions ...Assertion) Clause {
	return Clause{Possibilities: map[string][]Assertion{key: assertions}}
}

// SingleVar returns the clause's only variable key when it constrains
// exactly one, else "".
func (c Clause) SingleVar() string {
	if len(c.Possibilities) != 1 {
		return ""
	}
	for k := range c.Possibilities {
		return k
	}
	return ""
}

// Hash renders a canonical string form, used for entailment/redundancy
// checks: identical clause sets hash identically regardless of map order.
func (c Clause) Hash(in *interner.Interner) string {
	keys := make([]string, 0, len(c.Possibilities))
	for k := range c.Possibilities {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(":")
		parts := make([]string, 0, len(c.Possibilities[k]))
		for _, a := range c.Possibilities[k] {
			parts = append(parts, assertionHash(a, in))
		}
		sort.Strings(parts)
		b.WriteString(strings.Join(parts, "|"))
		b.WriteString(";")
	}
	return b.String()
}

func assertionHash(a Assertion, in *interner.Interner) string {
	var b strings.Builder
	switch a.Kind {
	case AssertTruthy:
		b.WriteString("truthy")
	case AssertFalsy:
		b.WriteString("falsy")
	case AssertIsType:
		b.WriteString("is:")
		b.WriteString(a.Type.Id(in))
	case AssertNotType:
		b.WriteString("!is:")
		b.WriteString(a.Type.Id(in))
	case AssertIdentical:
		b.WriteString("=:")
		b.WriteString(a.Atomic.Id(in))
	case AssertNotIdentical:
		b.WriteString("!=:")
		b.WriteString(a.Atomic.Id(in))
	case AssertNull:
		b.WriteString("null")
	case AssertNotNull:
		b.WriteString("!null")
	case AssertIsset:
		b.WriteString("isset")
	case AssertHasArrayKey:
		b.WriteString("haskey:")
		b.WriteString(a.Key.String())
	}
	return b.String()
}
