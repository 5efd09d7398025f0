package typeir

import (
	"fmt"
	"strconv"

	"github.com/krizos/phpanalyze/internal/interner"
)

// MixedConstraint narrows what a TMixed is additionally known not to be,
// without pinning it to a concrete type (spec.md §3.2: "Mixed (with
// constraints: any / non-null / truthy / falsy / from-loop)").
type MixedConstraint int

const (
	MixedAny MixedConstraint = iota
	MixedNonNull
	MixedTruthy
	MixedFalsy
	MixedFromLoop
)

// TMixed is the top type: any runtime value may inhabit it.
type TMixed struct{ Constraint MixedConstraint }

func (TMixed) Kind() AtomicKind         { return KindMixed }
func (TMixed) CanBeIntersected() bool   { return false }
func (m TMixed) Id(*interner.Interner) string {
	switch m.Constraint {
	case MixedNonNull:
		return "mixed-non-null"
	case MixedTruthy:
		return "mixed-truthy"
	case MixedFalsy:
		return "mixed-falsy"
	case MixedFromLoop:
		return "mixed-from-loop"
	default:
		return "mixed"
	}
}
func (m TMixed) EqualAtomic(other TAtomic) bool {
	o, ok := other.(TMixed)
	return ok && o.Constraint == m.Constraint
}

// TNever is the bottom type, the type of an expression known to be
// impossible to reach or impossible to produce a value for.
type TNever struct{}

func (TNever) Kind() AtomicKind               { return KindNever }
func (TNever) CanBeIntersected() bool         { return false }
func (TNever) Id(*interner.Interner) string   { return "never" }
func (TNever) EqualAtomic(other TAtomic) bool { _, ok := other.(TNever); return ok }

// TNull represents the single value null.
type TNull struct{}

func (TNull) Kind() AtomicKind               { return KindNull }
func (TNull) CanBeIntersected() bool         { return false }
func (TNull) Id(*interner.Interner) string   { return "null" }
func (TNull) EqualAtomic(other TAtomic) bool { _, ok := other.(TNull); return ok }

// TVoid is the declared-return-type-only absence of a value.
type TVoid struct{}

func (TVoid) Kind() AtomicKind               { return KindVoid }
func (TVoid) CanBeIntersected() bool         { return false }
func (TVoid) Id(*interner.Interner) string   { return "void" }
func (TVoid) EqualAtomic(other TAtomic) bool { _, ok := other.(TVoid); return ok }

// BoolNarrow narrows TBool to a literal boolean, or BoolAny for the general
// bool type.
type BoolNarrow int

const (
	BoolAny BoolNarrow = iota
	BoolTrue
	BoolFalse
)

// TBool is PHP's bool, possibly narrowed to the literal true or false.
type TBool struct{ Narrow BoolNarrow }

func (TBool) Kind() AtomicKind       { return KindBool }
func (TBool) CanBeIntersected() bool { return false }
func (b TBool) Id(*interner.Interner) string {
	switch b.Narrow {
	case BoolTrue:
		return "true"
	case BoolFalse:
		return "false"
	default:
		return "bool"
	}
}
func (b TBool) EqualAtomic(other TAtomic) bool {
	o, ok := other.(TBool)
	return ok && o.Narrow == b.Narrow
}

// IntShape distinguishes the general int type from a literal value or a
// bounded range (spec.md §3.2: "Int (general / literal / bounded range)").
type IntShape int

const (
	IntGeneral IntShape = iota
	IntLiteral
	IntRange
)

// TInt is PHP's int, in one of three shapes.
type TInt struct {
	Shape    IntShape
	Literal  int64 // valid when Shape == IntLiteral
	RangeMin int64 // valid when Shape == IntRange
	RangeMax int64
}

func (TInt) Kind() AtomicKind       { return KindInt }
func (TInt) CanBeIntersected() bool { return false }
func (i TInt) Id(*interner.Interner) string {
	switch i.Shape {
	case IntLiteral:
		return fmt.Sprintf("int(%d)", i.Literal)
	case IntRange:
		return fmt.Sprintf("int<%d, %d>", i.RangeMin, i.RangeMax)
	default:
		return "int"
	}
}
func (i TInt) EqualAtomic(other TAtomic) bool {
	o, ok := other.(TInt)
	return ok && o == i
}

// FloatShape distinguishes the general float type from a literal value.
type FloatShape int

const (
	FloatGeneral FloatShape = iota
	FloatLiteral
)

// TFloat is PHP's float, general or narrowed to a literal value.
type TFloat struct {
	Shape   FloatShape
	Literal float64
}

func (TFloat) Kind() AtomicKind       { return KindFloat }
func (TFloat) CanBeIntersected() bool { return false }
func (f TFloat) Id(*interner.Interner) string {
	if f.Shape == FloatLiteral {
		return fmt.Sprintf("float(%s)", strconv.FormatFloat(f.Literal, 'g', -1, 64))
	}
	return "float"
}
func (f TFloat) EqualAtomic(other TAtomic) bool {
	o, ok := other.(TFloat)
	return ok && o == f
}

// StringShape is the closed set of refinements a TString can carry
// (spec.md §3.2).
type StringShape int

const (
	StringGeneral StringShape = iota
	StringNonEmpty
	StringNumeric
	StringLiteral
	StringClassLike
)

// ClassLikeStringOf is which kind of class-like a class-like-string refers
// to (spec.md: "{Class,Interface,Enum,Trait}").
type ClassLikeStringOf int

const (
	ClassLikeOfClass ClassLikeStringOf = iota
	ClassLikeOfInterface
	ClassLikeOfEnum
	ClassLikeOfTrait
)

// ClassLikeStringConstraint is which of the four refinements a class-like
// string carries (spec.md: "{Any, Literal(name), OfType(constraint),
// Generic(param,defining,constraint)}").
type ClassLikeStringConstraint int

const (
	ClassLikeAny ClassLikeStringConstraint = iota
	ClassLikeLiteral
	ClassLikeOfType
	ClassLikeGeneric
)

// TString is PHP's string, possibly refined along one axis at a time: a
// plain shape refinement (non-empty/numeric/literal) or a class-like-string
// refinement (the `class-string<T>` family).
type TString struct {
	Shape   StringShape
	Literal string // valid when Shape == StringLiteral

	// Valid when Shape == StringClassLike.
	ClassLikeOf        ClassLikeStringOf
	ClassLikeConstraint ClassLikeStringConstraint
	ClassLikeName       interner.StringId // ClassLikeLiteral, ClassLikeOfType
	ClassLikeParam      interner.StringId // ClassLikeGeneric: the template parameter name
	ClassLikeDefining   interner.StringId // ClassLikeGeneric: the defining entity
}

func (TString) Kind() AtomicKind       { return KindString }
func (TString) CanBeIntersected() bool { return false }
func (s TString) Id(in *interner.Interner) string {
	switch s.Shape {
	case StringNonEmpty:
		return "non-empty-string"
	case StringNumeric:
		return "numeric-string"
	case StringLiteral:
		return fmt.Sprintf("string(%q)", s.Literal)
	case StringClassLike:
		prefix := classLikeStringPrefix(s.ClassLikeOf)
		switch s.ClassLikeConstraint {
		case ClassLikeLiteral:
			return fmt.Sprintf("%s<%s>", prefix, safeLookup(in, s.ClassLikeName))
		case ClassLikeOfType:
			return fmt.Sprintf("%s-of<%s>", prefix, safeLookup(in, s.ClassLikeName))
		case ClassLikeGeneric:
			return fmt.Sprintf("%s<%s:%s>", prefix, safeLookup(in, s.ClassLikeParam), safeLookup(in, s.ClassLikeDefining))
		default:
			return prefix
		}
	default:
		return "string"
	}
}

func classLikeStringPrefix(of ClassLikeStringOf) string {
	switch of {
	case ClassLikeOfInterface:
		return "interface-string"
	case ClassLikeOfEnum:
		return "enum-string"
	case ClassLikeOfTrait:
		return "trait-string"
	default:
		return "class-string"
	}
}

func safeLookup(in *interner.Interner, id interner.StringId) string {
	if in == nil {
		return ""
	}
	return in.Lookup(id)
}

func (s TString) EqualAtomic(other TAtomic) bool {
	o, ok := other.(TString)
	return ok && o == s
}

// TArrayKey is the `array-key` union of int|string used for array key
// positions.
type TArrayKey struct{}

func (TArrayKey) Kind() AtomicKind               { return KindArrayKey }
func (TArrayKey) CanBeIntersected() bool         { return false }
func (TArrayKey) Id(*interner.Interner) string   { return "array-key" }
func (TArrayKey) EqualAtomic(other TAtomic) bool { _, ok := other.(TArrayKey); return ok }

// TScalar is the union of all scalar types (bool|int|float|string).
type TScalar struct{}

func (TScalar) Kind() AtomicKind               { return KindScalar }
func (TScalar) CanBeIntersected() bool         { return false }
func (TScalar) Id(*interner.Interner) string   { return "scalar" }
func (TScalar) EqualAtomic(other TAtomic) bool { _, ok := other.(TScalar); return ok }

// TResource is an opaque PHP resource handle.
type TResource struct{}

func (TResource) Kind() AtomicKind               { return KindResource }
func (TResource) CanBeIntersected() bool         { return false }
func (TResource) Id(*interner.Interner) string   { return "resource" }
func (TResource) EqualAtomic(other TAtomic) bool { _, ok := other.(TResource); return ok }
