package typeir

import (
	"fmt"

	"github.com/krizos/phpanalyze/internal/interner"
)

// TConditional is the `T is U ? A : B` conditional type, evaluated during
// Expand once the concrete binding of Subject is known (spec.md §3.2:
// "Conditional: T is U ? A : B").
type TConditional struct {
	Subject *TUnion
	Test    *TUnion
	IfTrue  *TUnion
	IfFalse *TUnion
}

func (TConditional) Kind() AtomicKind       { return KindConditional }
func (TConditional) CanBeIntersected() bool { return false }

func (c TConditional) Id(in *interner.Interner) string {
	return fmt.Sprintf("(%s is %s ? %s : %s)", c.Subject.Id(in), c.Test.Id(in), c.IfTrue.Id(in), c.IfFalse.Id(in))
}

func (c TConditional) EqualAtomic(other TAtomic) bool {
	o, ok := other.(TConditional)
	return ok && UnionsEqual(c.Subject, o.Subject) && UnionsEqual(c.Test, o.Test) &&
		UnionsEqual(c.IfTrue, o.IfTrue) && UnionsEqual(c.IfFalse, o.IfFalse)
}
