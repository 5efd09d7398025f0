// Package populator runs the post-scan pass that turns the raw per-file
// codebase into an analyzable whole: transitive inheritance closures,
// template-extended-parameter tables and declaring/appearing/inheritable
// member maps (spec.md §4.3). It must complete before any analysis and
// seals the codebase when done.
package populator

import (
	"go.uber.org/zap"

	"github.com/krizos/phpanalyze/codebase"
	"github.com/krizos/phpanalyze/internal/interner"
	"github.com/krizos/phpanalyze/internal/symbolid"
	"github.com/krizos/phpanalyze/issue"
	"github.com/krizos/phpanalyze/typeir"
)

// Populator walks each class-like once, following parents depth-first with
// a visited set so inheritance cycles terminate (and are reported).
type Populator struct {
	store  *codebase.CodebaseMetadata
	logger *zap.Logger

	collector *issue.Collector
	populated map[interner.StringId]bool
	inFlight  map[interner.StringId]bool
}

// New builds a Populator over the merged scan output.
func New(store *codebase.CodebaseMetadata, logger *zap.Logger) *Populator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Populator{
		store:     store,
		logger:    logger,
		collector: issue.NewCollector(),
		populated: map[interner.StringId]bool{},
		inFlight:  map[interner.StringId]bool{},
	}
}

// Populate computes every closure, seals the codebase and returns the
// issues found along the way (inheritance cycles). An ancestor that is not
// in the codebase is skipped without an issue.
func (p *Populator) Populate() []issue.Issue {
	// Deterministic order: iterate names sorted by their interned string.
	for _, name := range sortedKeys(p.store, p.store.ClassLikes) {
		p.populateClassLike(name)
	}
	p.markOverridingMethods()
	p.store.Seal()
	p.logger.Debug("populated codebase",
		zap.Int("class_likes", len(p.store.ClassLikes)),
		zap.Int("issues", p.collector.Len()))
	return p.collector.Issues()
}

func sortedKeys[V any](store *codebase.CodebaseMetadata, m map[interner.StringId]V) []interner.StringId {
	keys := make([]interner.StringId, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && store.Interner.Lookup(keys[j-1]) > store.Interner.Lookup(keys[j]); j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

func (p *Populator) populateClassLike(name interner.StringId) {
	if p.populated[name] {
		return
	}
	if p.inFlight[name] {
		meta, ok := p.store.ClassLike(name)
		if ok {
			p.collector.Add(issue.New(issue.CircularInheritance, issue.Error,
				"circular inheritance involving "+p.store.Interner.Lookup(meta.Name), meta.At))
		}
		return
	}
	meta, ok := p.store.ClassLike(name)
	if !ok {
		return
	}
	p.inFlight[name] = true
	defer func() {
		delete(p.inFlight, name)
		p.populated[name] = true
	}()

	// Traits flatten first: their members appear as if declared locally,
	// below anything the class declares itself but above inherited members.
	for _, trait := range meta.DirectTraits {
		p.populateClassLike(trait)
		if traitMeta, ok := p.store.ClassLike(trait); ok {
			meta.AllTraits[trait] = true
			for t := range traitMeta.AllTraits {
				meta.AllTraits[t] = true
			}
			p.inheritMembers(meta, traitMeta, true)
		}
	}

	if meta.DirectParent != 0 {
		p.populateClassLike(meta.DirectParent)
		if parent, ok := p.store.ClassLike(meta.DirectParent); ok {
			meta.AllParents[meta.DirectParent] = true
			for gp := range parent.AllParents {
				meta.AllParents[gp] = true
			}
			for iface := range parent.AllInterfaces {
				meta.AllInterfaces[iface] = true
			}
			for t := range parent.AllTraits {
				meta.AllTraits[t] = true
			}
			p.inheritMembers(meta, parent, false)
			p.extendTemplates(meta, parent)
		}
	}

	for _, iface := range meta.DirectInterfaces {
		p.populateClassLike(iface)
		if ifaceMeta, ok := p.store.ClassLike(iface); ok {
			meta.AllInterfaces[iface] = true
			for parent := range ifaceMeta.AllInterfaces {
				meta.AllInterfaces[parent] = true
			}
			p.inheritInterfaceMembers(meta, ifaceMeta)
			p.extendTemplates(meta, ifaceMeta)
		}
	}

	p.registerOwnMembers(meta)
}

// registerOwnMembers fills the member maps for everything the class-like
// declares directly, overriding anything inherited.
func (p *Populator) registerOwnMembers(meta *codebase.ClassLikeMetadata) {
	for method := range meta.Methods {
		if prev, ok := meta.AppearingMethods[method]; ok && prev != meta.Lowered {
			meta.OverriddenMethods[method] = append(meta.OverriddenMethods[method], prev)
		}
		meta.DeclaringMethods[method] = meta.Lowered
		meta.AppearingMethods[method] = meta.Lowered
		if fl, ok := p.store.FunctionLike(symbolid.NewMethod(meta.Lowered, method)); ok && fl.Visibility != codebase.Private {
			meta.InheritableMethods[method] = meta.Lowered
		}
	}
	for prop := range meta.Properties {
		meta.DeclaringProperties[prop] = meta.Lowered
		meta.AppearingProperties[prop] = meta.Lowered
	}
	for konst := range meta.Constants {
		meta.DeclaringConstants[konst] = meta.Lowered
		meta.AppearingConstants[konst] = meta.Lowered
	}
}

// inheritMembers copies a parent's (or flattened trait's) visible members
// into the child's appearing maps. Trait flattening ignores visibility;
// parent inheritance skips private members. Either way the declaring class
// keeps pointing at the original declaration so method metadata stays
// resolvable.
func (p *Populator) inheritMembers(meta, from *codebase.ClassLikeMetadata, trait bool) {
	for method, declaring := range from.AppearingMethods {
		if _, exists := meta.AppearingMethods[method]; exists {
			continue
		}
		if !trait {
			// Private methods don't inherit.
			if _, inheritable := from.InheritableMethods[method]; !inheritable {
				continue
			}
		}
		meta.AppearingMethods[method] = declaring
		meta.DeclaringMethods[method] = declaring
		if _, inheritable := from.InheritableMethods[method]; inheritable || trait {
			meta.InheritableMethods[method] = declaring
		}
	}
	for prop, declaring := range from.AppearingProperties {
		if _, exists := meta.AppearingProperties[prop]; exists {
			continue
		}
		if !trait {
			if declMeta, ok := p.store.ClassLike(declaring); ok {
				if pm, ok := declMeta.Properties[prop]; ok && pm.ReadVisibility == codebase.Private {
					continue
				}
			}
		}
		meta.AppearingProperties[prop] = declaring
		meta.DeclaringProperties[prop] = declaring
	}
	for konst, declaring := range from.AppearingConstants {
		if _, exists := meta.AppearingConstants[konst]; exists {
			continue
		}
		meta.AppearingConstants[konst] = declaring
		meta.DeclaringConstants[konst] = declaring
	}
}

// inheritInterfaceMembers pulls an implemented interface's constants and
// abstract method signatures into the appearing maps, without overriding
// anything the class supplies.
func (p *Populator) inheritInterfaceMembers(meta, iface *codebase.ClassLikeMetadata) {
	for konst, declaring := range iface.AppearingConstants {
		if _, exists := meta.AppearingConstants[konst]; !exists {
			meta.AppearingConstants[konst] = declaring
			meta.DeclaringConstants[konst] = declaring
		}
	}
	for method, declaring := range iface.AppearingMethods {
		if _, exists := meta.AppearingMethods[method]; !exists {
			meta.AppearingMethods[method] = declaring
			meta.DeclaringMethods[method] = declaring
		}
	}
}

// extendTemplates fills TemplateExtendedParams for a generic ancestor:
// names positional arguments after the ancestor's template list, recursively
// flattening arguments that are themselves generic parameters bound by an
// outer class (spec.md §4.3).
func (p *Populator) extendTemplates(meta, ancestor *codebase.ClassLikeMetadata) {
	if len(ancestor.Templates) == 0 {
		return
	}
	args := meta.TemplateExtendedParams[ancestor.Lowered]
	named := make([]codebase.NamedUnion, len(ancestor.Templates))
	for i, tpl := range ancestor.Templates {
		named[i].Name = tpl.Name
		if i < len(args) && args[i].Type != nil {
			named[i].Type = args[i].Type
		} else if len(tpl.Bounds) > 0 && tpl.Bounds[0].Constraint != nil {
			named[i].Type = tpl.Bounds[0].Constraint
		} else {
			named[i].Type = typeir.GetMixed()
		}
	}
	meta.TemplateExtendedParams[ancestor.Lowered] = named

	// Flatten: the ancestor's own extended tables apply transitively with
	// this class's arguments substituted in.
	for grand, grandArgs := range ancestor.TemplateExtendedParams {
		if _, exists := meta.TemplateExtendedParams[grand]; exists {
			continue
		}
		flattened := make([]codebase.NamedUnion, len(grandArgs))
		for i, arg := range grandArgs {
			flattened[i] = codebase.NamedUnion{Name: arg.Name, Type: p.substituteOwn(arg.Type, ancestor, named)}
		}
		meta.TemplateExtendedParams[grand] = flattened
	}
}

// substituteOwn replaces occurrences of ancestor-defined generic parameters
// inside t with the concrete bindings the child supplied.
func (p *Populator) substituteOwn(t *typeir.TUnion, ancestor *codebase.ClassLikeMetadata, bindings []codebase.NamedUnion) *typeir.TUnion {
	if t == nil {
		return typeir.GetMixed()
	}
	byKey := map[typeir.TemplateKey]*typeir.TUnion{}
	for _, b := range bindings {
		byKey[typeir.TemplateKey{ParameterName: b.Name, DefiningEntity: ancestor.Lowered}] = b.Type
	}
	return typeir.Expand(t, typeir.ExpansionContext{TemplateBindings: byKey, Classes: p.store})
}

// markOverridingMethods sets IsOverriding on every method that redeclares
// an ancestor's method.
func (p *Populator) markOverridingMethods() {
	for _, meta := range p.store.ClassLikes {
		for method, ancestors := range meta.OverriddenMethods {
			if len(ancestors) == 0 {
				continue
			}
			if fl, ok := p.store.FunctionLike(symbolid.NewMethod(meta.Lowered, method)); ok {
				fl.IsOverriding = true
			}
		}
	}
}
