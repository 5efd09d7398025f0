package typeir

import (
	"fmt"

	"github.com/krizos/phpanalyze/internal/interner"
)

// TSymbolRef is an unresolved reference to a class-like or constant by
// name, carried until the scanner/populator can resolve it against the
// codebase (spec.md §3.2: "Reference (unresolved): Symbol{name, parameters?,
// intersections?}").
type TSymbolRef struct {
	Name          interner.StringId
	Parameters    []*TUnion
	Intersections []interner.StringId
}

func (TSymbolRef) Kind() AtomicKind       { return KindSymbolRef }
func (TSymbolRef) CanBeIntersected() bool { return true }

func (s TSymbolRef) Id(in *interner.Interner) string {
	return fmt.Sprintf("unresolved(%s)", in.Lookup(s.Name))
}

func (s TSymbolRef) EqualAtomic(other TAtomic) bool {
	o, ok := other.(TSymbolRef)
	if !ok || o.Name != s.Name || len(o.Parameters) != len(s.Parameters) || len(o.Intersections) != len(s.Intersections) {
		return false
	}
	for i := range s.Parameters {
		if !UnionsEqual(s.Parameters[i], o.Parameters[i]) {
			return false
		}
	}
	for i := range s.Intersections {
		if s.Intersections[i] != o.Intersections[i] {
			return false
		}
	}
	return true
}

// MemberSelectorKind is how a TMemberRef picks members off ClassLike.
type MemberSelectorKind int

const (
	SelectorWildcard MemberSelectorKind = iota
	SelectorIdent
	SelectorStartsWith
	SelectorEndsWith
)

// TMemberRef is an unresolved reference to a member (method/property/
// constant) of a class-like, used for docblock `@method`/`@property`
// wildcards and for template inference probes (spec.md §3.2: "Member{
// class_like, selector: Wildcard|Ident|StartsWith|EndsWith}").
type TMemberRef struct {
	ClassLike interner.StringId
	Selector  MemberSelectorKind
	Pattern   string // the literal name (Ident) or prefix/suffix (StartsWith/EndsWith); unused for Wildcard
}

func (TMemberRef) Kind() AtomicKind       { return KindMemberRef }
func (TMemberRef) CanBeIntersected() bool { return false }

func (m TMemberRef) Id(in *interner.Interner) string {
	switch m.Selector {
	case SelectorIdent:
		return fmt.Sprintf("%s::%s", in.Lookup(m.ClassLike), m.Pattern)
	case SelectorStartsWith:
		return fmt.Sprintf("%s::%s*", in.Lookup(m.ClassLike), m.Pattern)
	case SelectorEndsWith:
		return fmt.Sprintf("%s::*%s", in.Lookup(m.ClassLike), m.Pattern)
	default:
		return fmt.Sprintf("%s::*", in.Lookup(m.ClassLike))
	}
}

func (m TMemberRef) EqualAtomic(other TAtomic) bool {
	o, ok := other.(TMemberRef)
	return ok && o == m
}
