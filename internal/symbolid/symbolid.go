// Package symbolid defines FunctionLikeId, shared by typeir (a TCallable can
// alias one) and codebase (which keys FunctionLikeMetadata by it) without
// making either package depend on the other.
package symbolid

import (
	"fmt"

	"github.com/krizos/phpanalyze/internal/interner"
	"github.com/krizos/phpanalyze/internal/span"
)

// FunctionLikeKind tags which of the five function-like forms an id names
// (spec.md §3.3: "FunctionLikeId is one of: Function(name), Method(class,
// name), PropertyHook(class, property, name), Closure(span),
// ArrowFunction(span)").
type FunctionLikeKind int

const (
	Function FunctionLikeKind = iota
	Method
	PropertyHook
	Closure
	ArrowFunction
)

func (k FunctionLikeKind) String() string {
	switch k {
	case Function:
		return "Function"
	case Method:
		return "Method"
	case PropertyHook:
		return "PropertyHook"
	case Closure:
		return "Closure"
	case ArrowFunction:
		return "ArrowFunction"
	default:
		return "Unknown"
	}
}

// FunctionLikeId identifies one function, method, property hook, closure or
// arrow function. Closures and arrow functions have no name, so they are
// identified by the span of their declaration instead; every other kind
// carries lowered StringId name components so lookups are case-insensitive.
type FunctionLikeId struct {
	Kind     FunctionLikeKind
	Class    interner.StringId // Method, PropertyHook only
	Name     interner.StringId // Function, Method, PropertyHook only
	Property interner.StringId // PropertyHook only
	At       span.Span         // Closure, ArrowFunction only
}

// NewFunction builds a top-level function id.
func NewFunction(name interner.StringId) FunctionLikeId {
	return FunctionLikeId{Kind: Function, Name: name}
}

// NewMethod builds a method id scoped to a class-like.
func NewMethod(class, name interner.StringId) FunctionLikeId {
	return FunctionLikeId{Kind: Method, Class: class, Name: name}
}

// NewPropertyHook builds a property-hook id (PHP 8.4 `get`/`set` hooks).
func NewPropertyHook(class, property, name interner.StringId) FunctionLikeId {
	return FunctionLikeId{Kind: PropertyHook, Class: class, Property: property, Name: name}
}

// NewClosure builds an id for an anonymous `function(...) {...}` expression.
func NewClosure(at span.Span) FunctionLikeId {
	return FunctionLikeId{Kind: Closure, At: at}
}

// NewArrowFunction builds an id for an anonymous `fn(...) => ...` expression.
func NewArrowFunction(at span.Span) FunctionLikeId {
	return FunctionLikeId{Kind: ArrowFunction, At: at}
}

// String renders a debug form; not used for lookup keys (FunctionLikeId is
// itself comparable and usable directly as a map key).
func (id FunctionLikeId) String() string {
	switch id.Kind {
	case Function:
		return fmt.Sprintf("function#%d", id.Name)
	case Method:
		return fmt.Sprintf("method#%d::%d", id.Class, id.Name)
	case PropertyHook:
		return fmt.Sprintf("hook#%d::$%d::%d", id.Class, id.Property, id.Name)
	case Closure:
		return fmt.Sprintf("closure@%d:%d-%d", id.At.Start.Source, id.At.Start.Offset, id.At.End.Offset)
	case ArrowFunction:
		return fmt.Sprintf("arrowfn@%d:%d-%d", id.At.Start.Source, id.At.Start.Offset, id.At.End.Offset)
	default:
		return "<invalid-function-like-id>"
	}
}
