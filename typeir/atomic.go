// Package typeir implements the value-level type representation every
// inferred expression is assigned to: TUnion, a non-empty multiset of
// TAtomic variants, and the operations over it (spec.md §3.2, §4.1).
//
// TAtomic is modeled as a small interface with one concrete struct per
// variant, rather than a class hierarchy — there is no shared base struct
// and no behavior is inherited; each variant implements the capability
// surface on its own (spec.md design notes: "Dynamic dispatch on TAtomic").
package typeir

import "github.com/krizos/phpanalyze/internal/interner"

// AtomicKind tags which concrete TAtomic variant a value holds. Useful for
// switch dispatch in callers that don't want a type switch.
type AtomicKind int

const (
	KindMixed AtomicKind = iota
	KindNever
	KindNull
	KindVoid
	KindBool
	KindInt
	KindFloat
	KindString
	KindArrayKey
	KindScalar
	KindResource
	KindKeyedArray
	KindList
	KindGenericArray
	KindObjectAny
	KindNamedObject
	KindEnum
	KindClosedShape
	KindCallable
	KindGenericParam
	KindSymbolRef
	KindMemberRef
	KindConditional
)

var kindNames = map[AtomicKind]string{
	KindMixed:        "mixed",
	KindNever:        "never",
	KindNull:         "null",
	KindVoid:         "void",
	KindBool:         "bool",
	KindInt:          "int",
	KindFloat:        "float",
	KindString:       "string",
	KindArrayKey:     "array-key",
	KindScalar:       "scalar",
	KindResource:     "resource",
	KindKeyedArray:   "keyed-array",
	KindList:         "list",
	KindGenericArray: "generic-array",
	KindObjectAny:    "object",
	KindNamedObject:  "named-object",
	KindEnum:         "enum",
	KindClosedShape:  "closed-shape",
	KindCallable:     "callable",
	KindGenericParam: "generic-param",
	KindSymbolRef:    "symbol-ref",
	KindMemberRef:    "member-ref",
	KindConditional:  "conditional",
}

func (k AtomicKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// TAtomic is a single, indivisible type value: the element of a TUnion.
type TAtomic interface {
	// Kind reports which concrete variant this value is.
	Kind() AtomicKind
	// Id returns the canonical, human-readable type id fragment for this
	// atomic, used to build TUnion.Id and in issue messages.
	Id(in *interner.Interner) string
	// CanBeIntersected reports whether intersection types may be attached
	// to this atomic (spec.md §3.2: "only atomics whose can_be_intersected()
	// returns true" — named objects and symbol references).
	CanBeIntersected() bool
}

// Equatable is implemented by atomics that support deep equality beyond
// Go's default comparable-struct equality (e.g. atomics holding slices or
// nested *TUnion values, which are not comparable with ==).
type Equatable interface {
	EqualAtomic(other TAtomic) bool
}
