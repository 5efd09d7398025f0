// Package issue defines the structured diagnostics the scanner, populator
// and analyzer emit, and the Collector that accumulates and canonically
// orders them (spec.md §4.5, §6).
package issue

import "github.com/krizos/phpanalyze/internal/span"

// Code is the closed set of issue identifiers. The names are the stable
// external identifiers (spec.md §6).
type Code string

const (
	UndefinedVariable             Code = "UndefinedVariable"
	UndefinedClassLike            Code = "UndefinedClassLike"
	NonExistentClassLike          Code = "NonExistentClassLike"
	UndefinedMethod               Code = "UndefinedMethod"
	UndefinedClassLikeConstant    Code = "UndefinedClassLikeConstant"
	NonExistentProperty           Code = "NonExistentProperty"
	NonExistentConstant           Code = "NonExistentConstant"
	NonExistentFunction           Code = "NonExistentFunction"
	InvalidArgument               Code = "InvalidArgument"
	ArgumentTypeCoercion          Code = "ArgumentTypeCoercion"
	MixedArgument                 Code = "MixedArgument"
	TooFewArguments               Code = "TooFewArguments"
	TooManyArguments              Code = "TooManyArguments"
	InvalidNamedArgument          Code = "InvalidNamedArgument"
	InvalidMethodAccess           Code = "InvalidMethodAccess"
	InvalidPropertyRead           Code = "InvalidPropertyRead"
	InvalidPropertyWrite          Code = "InvalidPropertyWrite"
	InvalidPropertyAssignmentValue Code = "InvalidPropertyAssignmentValue"
	PropertyTypeCoercion          Code = "PropertyTypeCoercion"
	MixedPropertyTypeCoercion     Code = "MixedPropertyTypeCoercion"
	MixedAssignment               Code = "MixedAssignment"
	MixedMethodAccess             Code = "MixedMethodAccess"
	MixedAnyMethodAccess          Code = "MixedAnyMethodAccess"
	MixedPropertyAccess           Code = "MixedPropertyAccess"
	PossibleMethodAccessOnNull    Code = "PossibleMethodAccessOnNull"
	MethodAccessOnNull            Code = "MethodAccessOnNull"
	PropertyAccessOnNull          Code = "PropertyAccessOnNull"
	AmbiguousObjectMethodAccess   Code = "AmbiguousObjectMethodAccess"
	AmbiguousClassLikeConstantAccess Code = "AmbiguousClassLikeConstantAccess"
	InvalidClassConstantOnString  Code = "InvalidClassConstantOnString"
	SelfOutsideClassScope         Code = "SelfOutsideClassScope"
	StaticOutsideClassScope       Code = "StaticOutsideClassScope"
	ParentOutsideClassScope       Code = "ParentOutsideClassScope"
	StaticAccessOnInterface       Code = "StaticAccessOnInterface"
	InvalidStaticMethodAccess     Code = "InvalidStaticMethodAccess"
	InvalidConstantSelector       Code = "InvalidConstantSelector"
	StringConstantSelector        Code = "StringConstantSelector"
	UnknownConstantSelectorType   Code = "UnknownConstantSelectorType"
	ImpossibleAssignment          Code = "ImpossibleAssignment"
	ParadoxicalCondition          Code = "ParadoxicalCondition"
	RedundantCondition            Code = "RedundantCondition"
	RedundantIssetCheck           Code = "RedundantIssetCheck"
	DeprecatedFeature             Code = "DeprecatedFeature"
	InvalidBreak                  Code = "InvalidBreak"
	InvalidCallable               Code = "InvalidCallable"
	InvalidReturnStatement        Code = "InvalidReturnStatement"
	InvalidScanModifier           Code = "InvalidScanModifier"
	DuplicateModifier             Code = "DuplicateModifier"
	InvalidEnumCaseValue          Code = "InvalidEnumCaseValue"
	CircularInheritance           Code = "CircularInheritance"
	AnalysisTimeout               Code = "AnalysisTimeout"
	UnusedExpression              Code = "UnusedExpression"
)

// Level is the severity a code is reported at.
type Level int

const (
	Error Level = iota
	Warning
	Note
	Help
)

func (l Level) String() string {
	switch l {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	default:
		return "help"
	}
}

// AnnotationKind distinguishes the one Primary annotation from Secondary
// context annotations.
type AnnotationKind int

const (
	Primary AnnotationKind = iota
	Secondary
)

// Annotation ties one span of source to an issue, optionally with its own
// message.
type Annotation struct {
	Kind    AnnotationKind
	Span    span.Span
	Message string
}

// Issue is one structured diagnostic.
type Issue struct {
	Code        Code
	Level       Level
	Title       string
	Annotations []Annotation
	Notes       []string
	Help        string
}

// New builds an issue with a primary annotation on at.
func New(code Code, level Level, title string, at span.Span) Issue {
	return Issue{
		Code:  code,
		Level: level,
		Title: title,
		Annotations: []Annotation{
			{Kind: Primary, Span: at},
		},
	}
}

// WithSecondary appends a secondary annotation and returns the issue, for
// chaining at the report site.
func (i Issue) WithSecondary(at span.Span, message string) Issue {
	i.Annotations = append(i.Annotations, Annotation{Kind: Secondary, Span: at, Message: message})
	return i
}

// WithNote appends a free-text note.
func (i Issue) WithNote(note string) Issue {
	i.Notes = append(i.Notes, note)
	return i
}

// WithHelp sets the help text.
func (i Issue) WithHelp(help string) Issue {
	i.Help = help
	return i
}

// PrimarySpan returns the span of the first primary annotation, or the zero
// span when the issue has none (never the case for issues built with New).
func (i Issue) PrimarySpan() span.Span {
	for _, a := range i.Annotations {
		if a.Kind == Primary {
			return a.Span
		}
	}
	return span.Span{}
}
