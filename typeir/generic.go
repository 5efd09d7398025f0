package typeir

import (
	"fmt"

	"github.com/krizos/phpanalyze/internal/interner"
)

// TGenericParam is an unresolved occurrence of a template parameter: a
// named generic whose defining entity (the class-like or function-like
// that declared it) pins where its constraint comes from (spec.md §3.2,
// GLOSSARY "Template").
type TGenericParam struct {
	ParameterName  interner.StringId
	DefiningEntity interner.StringId
	Constraint     *TUnion // the upper bound; mixed if unconstrained
}

func (TGenericParam) Kind() AtomicKind       { return KindGenericParam }
func (TGenericParam) CanBeIntersected() bool { return false }

func (g TGenericParam) Id(in *interner.Interner) string {
	return fmt.Sprintf("%s:%s", in.Lookup(g.ParameterName), in.Lookup(g.DefiningEntity))
}

func (g TGenericParam) EqualAtomic(other TAtomic) bool {
	o, ok := other.(TGenericParam)
	return ok && o.ParameterName == g.ParameterName && o.DefiningEntity == g.DefiningEntity && unionPtrEqual(g.Constraint, o.Constraint)
}

// TemplateKey identifies one template parameter slot for substitution maps
// (TemplateResult in the invocation analyzer, template_extended_parameters
// in the populator): spec.md keys both by "(parameter_name, defining_entity)".
type TemplateKey struct {
	ParameterName  interner.StringId
	DefiningEntity interner.StringId
}

func KeyOf(g TGenericParam) TemplateKey {
	return TemplateKey{ParameterName: g.ParameterName, DefiningEntity: g.DefiningEntity}
}
