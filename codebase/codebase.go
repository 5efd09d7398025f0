package codebase

import (
	"github.com/krizos/phpanalyze/internal/interner"
	"github.com/krizos/phpanalyze/internal/symbolid"
)

// CodebaseMetadata is the whole-program symbol store. One instance is built
// per Analyze call: the scan phase merges per-file contributions into it,
// the populator seals it, and the analyze phase reads it concurrently
// without locks (spec.md §3.3, §5).
type CodebaseMetadata struct {
	Interner *interner.Interner

	ClassLikes    map[interner.StringId]*ClassLikeMetadata
	FunctionLikes map[symbolid.FunctionLikeId]*FunctionLikeMetadata
	Constants     map[interner.StringId]*ConstantMetadata
	Symbols       map[interner.StringId]SymbolKind

	sealed bool
}

// New returns an empty store sharing the given interner.
func New(in *interner.Interner) *CodebaseMetadata {
	return &CodebaseMetadata{
		Interner:      in,
		ClassLikes:    map[interner.StringId]*ClassLikeMetadata{},
		FunctionLikes: map[symbolid.FunctionLikeId]*FunctionLikeMetadata{},
		Constants:     map[interner.StringId]*ConstantMetadata{},
		Symbols:       map[interner.StringId]SymbolKind{},
	}
}

// Seal marks the store read-only. The populator calls this once; analysis
// refuses to run against an unsealed codebase.
func (c *CodebaseMetadata) Seal() { c.sealed = true }

// Sealed reports whether Seal has run.
func (c *CodebaseMetadata) Sealed() bool { return c.sealed }

// AddClassLike registers a class-like under its lowered name.
func (c *CodebaseMetadata) AddClassLike(meta *ClassLikeMetadata) {
	c.ClassLikes[meta.Lowered] = meta
	c.Symbols[meta.Lowered] = meta.Kind
}

// ClassLike looks a class-like up by lowered name.
func (c *CodebaseMetadata) ClassLike(lowered interner.StringId) (*ClassLikeMetadata, bool) {
	meta, ok := c.ClassLikes[lowered]
	return meta, ok
}

// FunctionLike looks a function-like up by id.
func (c *CodebaseMetadata) FunctionLike(id symbolid.FunctionLikeId) (*FunctionLikeMetadata, bool) {
	meta, ok := c.FunctionLikes[id]
	return meta, ok
}

// Function looks a top-level function up by lowered name.
func (c *CodebaseMetadata) Function(lowered interner.StringId) (*FunctionLikeMetadata, bool) {
	return c.FunctionLike(symbolid.NewFunction(lowered))
}

// Method looks a method up by lowered class and method names, on the class
// where it appears (following the populator's appearing-member map).
func (c *CodebaseMetadata) Method(classLowered, methodLowered interner.StringId) (*FunctionLikeMetadata, bool) {
	class, ok := c.ClassLikes[classLowered]
	if !ok {
		return nil, false
	}
	declaring, ok := class.AppearingMethods[methodLowered]
	if !ok {
		return nil, false
	}
	return c.FunctionLike(symbolid.NewMethod(declaring, methodLowered))
}

// Property resolves a property through the appearing-member map, returning
// its metadata and the lowered name of the declaring class.
func (c *CodebaseMetadata) Property(classLowered, propLowered interner.StringId) (*PropertyMetadata, interner.StringId, bool) {
	class, ok := c.ClassLikes[classLowered]
	if !ok {
		return nil, 0, false
	}
	declaring, ok := class.AppearingProperties[propLowered]
	if !ok {
		return nil, 0, false
	}
	declClass, ok := c.ClassLikes[declaring]
	if !ok {
		return nil, 0, false
	}
	prop, ok := declClass.Properties[propLowered]
	return prop, declaring, ok
}

// ClassConstant resolves a class constant through the appearing-member map.
func (c *CodebaseMetadata) ClassConstant(classLowered, constLowered interner.StringId) (*ClassConstantMetadata, interner.StringId, bool) {
	class, ok := c.ClassLikes[classLowered]
	if !ok {
		return nil, 0, false
	}
	declaring, ok := class.AppearingConstants[constLowered]
	if !ok {
		return nil, 0, false
	}
	declClass, ok := c.ClassLikes[declaring]
	if !ok {
		return nil, 0, false
	}
	konst, ok := declClass.Constants[constLowered]
	return konst, declaring, ok
}

// Constant looks a global constant up; constant names are case-sensitive in
// PHP, so the key is the original-case id.
func (c *CodebaseMetadata) Constant(name interner.StringId) (*ConstantMetadata, bool) {
	meta, ok := c.Constants[name]
	return meta, ok
}

// Merge folds a per-file contribution into the run's store. Later files win
// on duplicate names, matching the last-declaration-wins behavior of a
// single-pass loader; duplicate-symbol reporting is a linting concern
// outside the core.
func (c *CodebaseMetadata) Merge(other *CodebaseMetadata) {
	for k, v := range other.ClassLikes {
		c.ClassLikes[k] = v
	}
	for k, v := range other.FunctionLikes {
		c.FunctionLikes[k] = v
	}
	for k, v := range other.Constants {
		c.Constants[k] = v
	}
	for k, v := range other.Symbols {
		c.Symbols[k] = v
	}
}

// IsSameOrSubtype implements typeir.ClassLikeOracle: child is parent, or
// lists parent among its transitive parents, interfaces or traits. Both ids
// must be lowered.
func (c *CodebaseMetadata) IsSameOrSubtype(child, parent interner.StringId) bool {
	if child == parent {
		return true
	}
	meta, ok := c.ClassLikes[child]
	if !ok {
		return false
	}
	return meta.AllParents[parent] || meta.AllInterfaces[parent] || meta.AllTraits[parent]
}

// IsCovariantParamAt implements typeir.ClassLikeOracle.
func (c *CodebaseMetadata) IsCovariantParamAt(className interner.StringId, index int) bool {
	meta, ok := c.ClassLikes[className]
	if !ok || index >= len(meta.Templates) {
		return false
	}
	return meta.Templates[index].Covariant
}
