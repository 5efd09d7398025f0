// Package codebase implements the symbol store every analysis pass reads:
// class-likes, function-likes, constants and their members, keyed by
// lowered StringId (spec.md §3.3). The scanner fills it one file at a time,
// the populator seals it, and the analyzer only ever reads it afterwards.
package codebase

import (
	"github.com/krizos/phpanalyze/internal/interner"
	"github.com/krizos/phpanalyze/internal/span"
	"github.com/krizos/phpanalyze/internal/symbolid"
	"github.com/krizos/phpanalyze/issue"
	"github.com/krizos/phpanalyze/typeir"
)

// SymbolKind is the fast kind lookup for a class-like name.
type SymbolKind int

const (
	KindClass SymbolKind = iota
	KindInterface
	KindTrait
	KindEnum
)

func (k SymbolKind) String() string {
	switch k {
	case KindInterface:
		return "interface"
	case KindTrait:
		return "trait"
	case KindEnum:
		return "enum"
	default:
		return "class"
	}
}

// Visibility of a member.
type Visibility int

const (
	Public Visibility = iota
	Protected
	Private
)

func (v Visibility) String() string {
	switch v {
	case Protected:
		return "protected"
	case Private:
		return "private"
	default:
		return "public"
	}
}

// VisibilityFromKeyword maps the source keyword; anything unrecognized
// (including the legacy `var`) is public.
func VisibilityFromKeyword(kw string) Visibility {
	switch kw {
	case "protected":
		return Protected
	case "private":
		return Private
	default:
		return Public
	}
}

// TemplateBound is one `of`-constraint of a template parameter, pinned to
// the entity that declared it.
type TemplateBound struct {
	DefiningEntity interner.StringId
	Constraint     *typeir.TUnion
}

// TemplateParam is one declared @template parameter.
type TemplateParam struct {
	Name      interner.StringId
	Bounds    []TemplateBound
	Covariant bool
}

// NamedUnion is one (parameter name, concrete type) pair of an ordered
// template-argument list.
type NamedUnion struct {
	Name interner.StringId
	Type *typeir.TUnion
}

// PropertyMetadata describes one declared property.
type PropertyMetadata struct {
	Name        interner.StringId // original case
	SignatureType *typeir.TUnion  // native hint; nil when untyped
	DocType     *typeir.TUnion    // @var refinement; nil when absent
	DefaultType *typeir.TUnion    // inferred type of the default value
	ReadVisibility  Visibility
	WriteVisibility Visibility
	IsStatic   bool
	IsReadonly bool
	IsAbstract bool
	IsVirtual  bool // hooked property with no backing store
	IsPromoted bool // scanned from a constructor parameter
	At         span.Span
}

// Type returns the property's effective declared type: the docblock
// refinement when present, else the native hint, else mixed.
func (p *PropertyMetadata) Type() *typeir.TUnion {
	if p.DocType != nil {
		return p.DocType
	}
	if p.SignatureType != nil {
		return p.SignatureType
	}
	return typeir.GetMixed()
}

// ClassConstantMetadata describes one class constant.
type ClassConstantMetadata struct {
	Name       interner.StringId
	Type       *typeir.TUnion
	Visibility Visibility
	IsFinal    bool
	At         span.Span
}

// EnumCaseMetadata describes one enum case.
type EnumCaseMetadata struct {
	Name      interner.StringId
	ValueType *typeir.TUnion // nil for pure enums
	At        span.Span
}

// ClassLikeMetadata is the per-class/interface/trait/enum record.
type ClassLikeMetadata struct {
	Name    interner.StringId // original case
	Lowered interner.StringId
	Kind    SymbolKind

	IsFinal     bool
	IsAbstract  bool
	IsReadonly  bool
	IsAnonymous bool
	IsDeprecated bool
	IsInternal   bool
	IsPure       bool

	// Direct declarations, as written.
	DirectParent     interner.StringId // 0: none
	DirectInterfaces []interner.StringId
	DirectTraits     []interner.StringId

	Constants  map[interner.StringId]*ClassConstantMetadata
	EnumCases  map[interner.StringId]*EnumCaseMetadata
	CaseOrder  []interner.StringId
	BackingType *typeir.TUnion // backed enums only
	Properties map[interner.StringId]*PropertyMetadata
	// Methods holds the lowered method names declared directly on this
	// class-like; their metadata lives in CodebaseMetadata.FunctionLikes.
	Methods map[interner.StringId]bool

	Templates []TemplateParam

	// Populator-filled inheritance closures.
	AllParents    map[interner.StringId]bool
	AllInterfaces map[interner.StringId]bool
	AllTraits     map[interner.StringId]bool

	// TemplateExtendedParams maps each generic ancestor to the ordered
	// concrete arguments this class-like supplies for it, recursively
	// flattened by the populator.
	TemplateExtendedParams map[interner.StringId][]NamedUnion

	// Member resolution maps, lowered member name -> lowered class name.
	DeclaringMethods    map[interner.StringId]interner.StringId
	AppearingMethods    map[interner.StringId]interner.StringId
	InheritableMethods  map[interner.StringId]interner.StringId
	DeclaringProperties map[interner.StringId]interner.StringId
	AppearingProperties map[interner.StringId]interner.StringId
	DeclaringConstants  map[interner.StringId]interner.StringId
	AppearingConstants  map[interner.StringId]interner.StringId

	// OverriddenMethods maps each method name to the ancestors that also
	// declare it.
	OverriddenMethods map[interner.StringId][]interner.StringId

	At span.Span

	// ScanIssues accumulated while building this record; drained into the
	// run's issue list by the scan phase.
	ScanIssues []issue.Issue
}

// NewClassLike builds an empty record with every map initialized.
func NewClassLike(name, lowered interner.StringId, kind SymbolKind) *ClassLikeMetadata {
	return &ClassLikeMetadata{
		Name:    name,
		Lowered: lowered,
		Kind:    kind,

		Constants:  map[interner.StringId]*ClassConstantMetadata{},
		EnumCases:  map[interner.StringId]*EnumCaseMetadata{},
		Properties: map[interner.StringId]*PropertyMetadata{},
		Methods:    map[interner.StringId]bool{},

		AllParents:    map[interner.StringId]bool{},
		AllInterfaces: map[interner.StringId]bool{},
		AllTraits:     map[interner.StringId]bool{},

		TemplateExtendedParams: map[interner.StringId][]NamedUnion{},

		DeclaringMethods:    map[interner.StringId]interner.StringId{},
		AppearingMethods:    map[interner.StringId]interner.StringId{},
		InheritableMethods:  map[interner.StringId]interner.StringId{},
		DeclaringProperties: map[interner.StringId]interner.StringId{},
		AppearingProperties: map[interner.StringId]interner.StringId{},
		DeclaringConstants:  map[interner.StringId]interner.StringId{},
		AppearingConstants:  map[interner.StringId]interner.StringId{},

		OverriddenMethods: map[interner.StringId][]interner.StringId{},
	}
}

// TemplateIndex returns the position of the named template parameter, or -1.
func (c *ClassLikeMetadata) TemplateIndex(name interner.StringId) int {
	for i, t := range c.Templates {
		if t.Name == name {
			return i
		}
	}
	return -1
}

// ParameterMetadata is one parameter of a function-like.
type ParameterMetadata struct {
	Name     interner.StringId // without the $
	ByRef    bool
	Variadic bool
	HasDefault  bool
	DefaultType *typeir.TUnion // inferred from the default expression
	SignatureType *typeir.TUnion // native hint
	DocType     *typeir.TUnion   // @param refinement
	OutType     *typeir.TUnion   // @param-out, written back after the call
	IsPromoted  bool
	At          span.Span
}

// Type returns the parameter's effective declared type.
func (p *ParameterMetadata) Type() *typeir.TUnion {
	if p.DocType != nil {
		return p.DocType
	}
	if p.SignatureType != nil {
		return p.SignatureType
	}
	return typeir.GetMixed()
}

// FunctionLikeMetadata describes one function, method, closure, arrow
// function or property hook.
type FunctionLikeMetadata struct {
	Id   symbolid.FunctionLikeId
	Name interner.StringId // original case; 0 for closures

	Parameters []ParameterMetadata

	ReturnSignatureType *typeir.TUnion // native hint
	ReturnDocType       *typeir.TUnion // @return refinement

	Templates []TemplateParam
	Throws    []interner.StringId

	IsPure       bool
	IsStatic     bool
	IsFinal      bool
	IsAbstract   bool
	IsOverriding bool // populator-filled
	HasYield     bool
	IsDeprecated bool
	IsInternal   bool

	Visibility Visibility

	At span.Span
}

// ReturnType returns the effective declared return type, mixed when none
// was declared.
func (f *FunctionLikeMetadata) ReturnType() *typeir.TUnion {
	if f.ReturnDocType != nil {
		return f.ReturnDocType
	}
	if f.ReturnSignatureType != nil {
		return f.ReturnSignatureType
	}
	return typeir.GetMixed()
}

// RequiredParamCount counts parameters with no default and no variadic
// marker, the arity floor for TooFewArguments.
func (f *FunctionLikeMetadata) RequiredParamCount() int {
	n := 0
	for _, p := range f.Parameters {
		if !p.HasDefault && !p.Variadic {
			n++
		}
	}
	return n
}

// ConstantMetadata describes one global constant.
type ConstantMetadata struct {
	Name interner.StringId
	Type *typeir.TUnion
	IsDeprecated bool
	IsInternal   bool
	At span.Span
}
