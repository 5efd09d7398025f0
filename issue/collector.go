package issue

import "sort"

// Collector accumulates issues during one file's scan or analysis. It is
// not safe for concurrent use; each per-file task owns its own Collector
// and the phase runner concatenates them (spec.md §5).
type Collector struct {
	issues []Issue
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add appends one issue.
func (c *Collector) Add(i Issue) {
	c.issues = append(c.issues, i)
}

// Merge appends every issue from other.
func (c *Collector) Merge(other *Collector) {
	if other == nil {
		return
	}
	c.issues = append(c.issues, other.issues...)
}

// Issues returns the accumulated issues in insertion order.
func (c *Collector) Issues() []Issue {
	return c.issues
}

// Len reports how many issues have been collected.
func (c *Collector) Len() int {
	return len(c.issues)
}

// HasCode reports whether any collected issue has the given code.
func (c *Collector) HasCode(code Code) bool {
	for _, i := range c.issues {
		if i.Code == code {
			return true
		}
	}
	return false
}

// Sort orders issues canonically by (source, start offset, end offset,
// code), the presentation order spec.md §5 fixes so runs are
// byte-for-byte deterministic regardless of per-file task completion order.
func Sort(issues []Issue) {
	sort.SliceStable(issues, func(a, b int) bool {
		sa, sb := issues[a].PrimarySpan(), issues[b].PrimarySpan()
		if sa.Start.Source != sb.Start.Source {
			return sa.Start.Source < sb.Start.Source
		}
		if sa.Start.Offset != sb.Start.Offset {
			return sa.Start.Offset < sb.Start.Offset
		}
		if sa.End.Offset != sb.End.Offset {
			return sa.End.Offset < sb.End.Offset
		}
		return issues[a].Code < issues[b].Code
	})
}
