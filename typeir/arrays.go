package typeir

import (
	"fmt"
	"sort"
	"strings"

	"github.com/krizos/phpanalyze/internal/interner"
)

// ArrayKeyLit is a literal array key: either a string or an integer, never
// both (PHP coerces numeric string keys to int at the array level, but that
// coercion is the scanner/analyzer's job, not the IR's).
type ArrayKeyLit struct {
	IsString bool
	StrKey   string
	IntKey   int64
}

func (k ArrayKeyLit) String() string {
	if k.IsString {
		return fmt.Sprintf("%q", k.StrKey)
	}
	return fmt.Sprintf("%d", k.IntKey)
}

func (k ArrayKeyLit) less(other ArrayKeyLit) bool {
	if k.IsString != other.IsString {
		return !k.IsString // ints sort before strings, for deterministic Id()
	}
	if k.IsString {
		return k.StrKey < other.StrKey
	}
	return k.IntKey < other.IntKey
}

// KeyedEntry is one key's type within a TKeyedArray.
type KeyedEntry struct {
	Key               ArrayKeyLit
	Type              *TUnion
	PossiblyUndefined bool
}

// TKeyedArray is a shape-refined array: a known set of keys each with its
// own type, plus an optional fallback type for any key not explicitly
// listed (spec.md §3.2: "Keyed (known key->type shape plus optional
// fallback)").
type TKeyedArray struct {
	Entries  []KeyedEntry
	Fallback *TUnion // nil: no other keys permitted
}

func (TKeyedArray) Kind() AtomicKind       { return KindKeyedArray }
func (TKeyedArray) CanBeIntersected() bool { return false }

func (a TKeyedArray) Id(in *interner.Interner) string {
	entries := make([]KeyedEntry, len(a.Entries))
	copy(entries, a.Entries)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key.less(entries[j].Key) })

	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		suffix := ""
		if e.PossiblyUndefined {
			suffix = "?"
		}
		parts = append(parts, fmt.Sprintf("%s%s: %s", e.Key, suffix, e.Type.Id(in)))
	}
	body := strings.Join(parts, ", ")
	if a.Fallback != nil {
		if body != "" {
			body += ", "
		}
		body += "...: " + a.Fallback.Id(in)
	}
	return fmt.Sprintf("array{%s}", body)
}

func (a TKeyedArray) EqualAtomic(other TAtomic) bool {
	o, ok := other.(TKeyedArray)
	if !ok || len(o.Entries) != len(a.Entries) {
		return false
	}
	byKey := make(map[ArrayKeyLit]KeyedEntry, len(a.Entries))
	for _, e := range a.Entries {
		byKey[e.Key] = e
	}
	for _, e := range o.Entries {
		mine, ok := byKey[e.Key]
		if !ok || mine.PossiblyUndefined != e.PossiblyUndefined || !UnionsEqual(mine.Type, e.Type) {
			return false
		}
	}
	return unionPtrEqual(a.Fallback, o.Fallback)
}

// TList is a sequential array, optionally with a known typed prefix before
// a homogeneous tail (spec.md §3.2: "List (sequential, optional known-prefix)").
type TList struct {
	Prefix  []*TUnion
	Element *TUnion // the type of every index not covered by Prefix; nil if the list is exactly Prefix long
}

func (TList) Kind() AtomicKind       { return KindList }
func (TList) CanBeIntersected() bool { return false }

func (l TList) Id(in *interner.Interner) string {
	parts := make([]string, 0, len(l.Prefix)+1)
	for _, p := range l.Prefix {
		parts = append(parts, p.Id(in))
	}
	if l.Element != nil {
		parts = append(parts, l.Element.Id(in)+"...")
	}
	return fmt.Sprintf("list{%s}", strings.Join(parts, ", "))
}

func (l TList) EqualAtomic(other TAtomic) bool {
	o, ok := other.(TList)
	if !ok || len(o.Prefix) != len(l.Prefix) {
		return false
	}
	for i := range l.Prefix {
		if !UnionsEqual(l.Prefix[i], o.Prefix[i]) {
			return false
		}
	}
	return unionPtrEqual(l.Element, o.Element)
}

// TGenericArray is the uniform `array<K, V>` shape.
type TGenericArray struct {
	Key   *TUnion
	Value *TUnion
}

func (TGenericArray) Kind() AtomicKind       { return KindGenericArray }
func (TGenericArray) CanBeIntersected() bool { return false }

func (g TGenericArray) Id(in *interner.Interner) string {
	return fmt.Sprintf("array<%s, %s>", g.Key.Id(in), g.Value.Id(in))
}

func (g TGenericArray) EqualAtomic(other TAtomic) bool {
	o, ok := other.(TGenericArray)
	return ok && UnionsEqual(g.Key, o.Key) && UnionsEqual(g.Value, o.Value)
}

func unionPtrEqual(a, b *TUnion) bool {
	if a == nil || b == nil {
		return a == b
	}
	return UnionsEqual(a, b)
}
