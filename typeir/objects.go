package typeir

import (
	"fmt"
	"strings"

	"github.com/krizos/phpanalyze/internal/interner"
)

// TObjectAny is the bare `object` type: any object, no known class.
type TObjectAny struct{}

func (TObjectAny) Kind() AtomicKind               { return KindObjectAny }
func (TObjectAny) CanBeIntersected() bool         { return false }
func (TObjectAny) Id(*interner.Interner) string   { return "object" }
func (TObjectAny) EqualAtomic(other TAtomic) bool { _, ok := other.(TObjectAny); return ok }

// TNamedObject is an instance of a specific class, interface or trait,
// optionally generic, optionally `$this`-flavored, optionally intersected
// with other named objects (spec.md §3.2, §3.3 invariants: "is_this on a
// named object propagates through substitution only while the static class
// matches").
type TNamedObject struct {
	Name          interner.StringId
	TypeParams    []*TUnion // nil/empty: non-generic or unparameterized use
	IsThis        bool
	Intersections []TAtomic // each CanBeIntersected(); named objects or symbol refs
}

func (TNamedObject) Kind() AtomicKind     { return KindNamedObject }
func (TNamedObject) CanBeIntersected() bool { return true }

func (o TNamedObject) Id(in *interner.Interner) string {
	var b strings.Builder
	b.WriteString(in.Lookup(o.Name))
	if len(o.TypeParams) > 0 {
		parts := make([]string, len(o.TypeParams))
		for i, p := range o.TypeParams {
			parts[i] = p.Id(in)
		}
		fmt.Fprintf(&b, "<%s>", strings.Join(parts, ", "))
	}
	if o.IsThis {
		b.WriteString("&static")
	}
	for _, inter := range o.Intersections {
		b.WriteString("&")
		b.WriteString(inter.Id(in))
	}
	return b.String()
}

func (o TNamedObject) EqualAtomic(other TAtomic) bool {
	t, ok := other.(TNamedObject)
	if !ok || t.Name != o.Name || t.IsThis != o.IsThis || len(t.TypeParams) != len(o.TypeParams) || len(t.Intersections) != len(o.Intersections) {
		return false
	}
	for i := range o.TypeParams {
		if !UnionsEqual(o.TypeParams[i], t.TypeParams[i]) {
			return false
		}
	}
	for i := range o.Intersections {
		if !Equal(o.Intersections[i], t.Intersections[i]) {
			return false
		}
	}
	return true
}

// TEnum is an instance of a specific enum, optionally narrowed to one case
// (spec.md §3.2: "Enum(name, optional case)").
type TEnum struct {
	Name interner.StringId
	Case interner.StringId // zero-value sentinel below when absent
	HasCase bool
}

func (TEnum) Kind() AtomicKind       { return KindEnum }
func (TEnum) CanBeIntersected() bool { return false }

func (e TEnum) Id(in *interner.Interner) string {
	if e.HasCase {
		return fmt.Sprintf("%s::%s", in.Lookup(e.Name), in.Lookup(e.Case))
	}
	return in.Lookup(e.Name)
}

func (e TEnum) EqualAtomic(other TAtomic) bool {
	o, ok := other.(TEnum)
	return ok && o == e
}

// TClosedShape is an object type with a fixed, fully-known set of public
// properties and no other members (spec.md §3.2: "Closed (fixed shape)"),
// used for anonymous-class-like and reflection-derived shapes.
type TClosedShape struct {
	Properties map[interner.StringId]*TUnion
}

func (TClosedShape) Kind() AtomicKind       { return KindClosedShape }
func (TClosedShape) CanBeIntersected() bool { return false }

func (c TClosedShape) Id(in *interner.Interner) string {
	names := make([]string, 0, len(c.Properties))
	for name := range c.Properties {
		names = append(names, in.Lookup(name))
	}
	// deterministic ordering without importing sort twice in this file
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j-1] > names[j]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
	parts := make([]string, len(names))
	for i, name := range names {
		id := c.propByName(in, name)
		parts[i] = fmt.Sprintf("%s: %s", name, id)
	}
	return fmt.Sprintf("object{%s}", strings.Join(parts, ", "))
}

func (c TClosedShape) propByName(in *interner.Interner, name string) string {
	for id, t := range c.Properties {
		if in.Lookup(id) == name {
			return t.Id(in)
		}
	}
	return "mixed"
}

func (c TClosedShape) EqualAtomic(other TAtomic) bool {
	o, ok := other.(TClosedShape)
	if !ok || len(o.Properties) != len(c.Properties) {
		return false
	}
	for k, v := range c.Properties {
		ov, ok := o.Properties[k]
		if !ok || !UnionsEqual(v, ov) {
			return false
		}
	}
	return true
}
