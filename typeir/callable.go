package typeir

import (
	"fmt"
	"strings"

	"github.com/krizos/phpanalyze/internal/interner"
	"github.com/krizos/phpanalyze/internal/symbolid"
)

// CallableParam is one parameter of a TCallableSignature.
type CallableParam struct {
	Name       interner.StringId
	Type       *TUnion
	ByRef      bool
	Variadic   bool
	HasDefault bool
}

// TCallableSignature is a literal callable shape: closures, `Closure`
// objects, and invocable-object/callable-string call targets are all cast
// down to this (spec.md §3.2, §4.1 cast_atomic_to_callable).
type TCallableSignature struct {
	IsPure     bool
	IsClosure  bool
	Parameters []CallableParam
	ReturnType *TUnion
	Source     *symbolid.FunctionLikeId // optional: the declaration this signature came from
}

func (TCallableSignature) Kind() AtomicKind       { return KindCallable }
func (TCallableSignature) CanBeIntersected() bool { return false }

func (c TCallableSignature) Id(in *interner.Interner) string {
	parts := make([]string, len(c.Parameters))
	for i, p := range c.Parameters {
		prefix := ""
		if p.ByRef {
			prefix += "&"
		}
		if p.Variadic {
			prefix += "..."
		}
		parts[i] = prefix + p.Type.Id(in)
	}
	ret := "mixed"
	if c.ReturnType != nil {
		ret = c.ReturnType.Id(in)
	}
	prefix := "callable"
	if c.IsClosure {
		prefix = "Closure"
	}
	if c.IsPure {
		prefix = "pure-" + prefix
	}
	return fmt.Sprintf("%s(%s): %s", prefix, strings.Join(parts, ", "), ret)
}

func (c TCallableSignature) EqualAtomic(other TAtomic) bool {
	o, ok := other.(TCallableSignature)
	if !ok || o.IsPure != c.IsPure || o.IsClosure != c.IsClosure || len(o.Parameters) != len(c.Parameters) {
		return false
	}
	for i := range c.Parameters {
		a, b := c.Parameters[i], o.Parameters[i]
		if a.Name != b.Name || a.ByRef != b.ByRef || a.Variadic != b.Variadic || a.HasDefault != b.HasDefault || !UnionsEqual(a.Type, b.Type) {
			return false
		}
	}
	return unionPtrEqual(c.ReturnType, o.ReturnType)
}

// TCallableAlias names a callable by the FunctionLikeId it resolves to,
// rather than spelling out its signature again (spec.md §3.2:
// "TCallable::Alias(function_like_id)").
type TCallableAlias struct {
	Target symbolid.FunctionLikeId
}

func (TCallableAlias) Kind() AtomicKind       { return KindCallable }
func (TCallableAlias) CanBeIntersected() bool { return false }

func (c TCallableAlias) Id(*interner.Interner) string {
	return fmt.Sprintf("callable-alias(%s)", c.Target)
}

func (c TCallableAlias) EqualAtomic(other TAtomic) bool {
	o, ok := other.(TCallableAlias)
	return ok && o.Target == c.Target
}
