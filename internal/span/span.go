// Package span carries byte-offset source locations through every AST node
// and every typed value, so diagnostics can always point at real source
// text (spec.md §3.1).
package span

// SourceId identifies one source file within an analysis run. It is
// assigned by the external parser/file-discovery layer (out of scope here)
// and treated as an opaque key everywhere in the core.
type SourceId uint32

// Position is a single byte offset within a source.
type Position struct {
	Source SourceId
	Offset uint32
}

// Less orders positions first by source, then by offset.
func (p Position) Less(other Position) bool {
	if p.Source != other.Source {
		return p.Source < other.Source
	}
	return p.Offset < other.Offset
}

// Span is a half-open byte range [Start, End) within a single source. Start
// and End always share the same Source; constructing a Span across two
// sources is a programmer error in the caller.
type Span struct {
	Start Position
	End   Position
}

// New builds a Span from two offsets in the same source.
func New(source SourceId, start, end uint32) Span {
	return Span{
		Start: Position{Source: source, Offset: start},
		End:   Position{Source: source, Offset: end},
	}
}

// Join returns the smallest Span covering both a and b. Both must share a
// Source.
func Join(a, b Span) Span {
	start := a.Start
	if b.Start.Less(start) {
		start = b.Start
	}
	end := a.End
	if end.Less(b.End) {
		end = b.End
	}
	return Span{Start: start, End: end}
}

// Contains reports whether p falls within s, inclusive of Start and
// exclusive of End.
func (s Span) Contains(p Position) bool {
	return !p.Less(s.Start) && p.Less(s.End)
}

// Len returns the byte length of the span, 0 for same-source spans with
// End before Start (never constructed by New/Join but guarded here).
func (s Span) Len() uint32 {
	if s.End.Offset < s.Start.Offset {
		return 0
	}
	return s.End.Offset - s.Start.Offset
}
