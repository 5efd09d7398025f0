// Package errs defines the hard-failure error channel (spec.md §7): internal
// states the analyzer believes impossible given a well-formed codebase. They
// are orthogonal to analysis issues (package issue) and abort the one file
// whose analysis hit them rather than poisoning the whole run.
//
// Grounded on pkg/runtime/errors.go's enumerated-error-type idiom from the
// teacher, adapted from PHP runtime error levels to internal-defect kinds.
package errs

import "fmt"

// Kind is the closed set of hard-failure categories (spec.md §7: "e.g.,
// asking for metadata of a non-existent class-like in a path the analyzer
// believed valid").
type Kind int

const (
	// KindMissingClassLike: codebase lookup for a class-like the analyzer
	// believed resolved came back empty.
	KindMissingClassLike Kind = iota
	// KindMissingFunctionLike: same, for a FunctionLikeId.
	KindMissingFunctionLike
	// KindUnsealedCodebase: analysis was invoked before the populator sealed
	// the codebase (spec.md §3.3: "must run before any analysis").
	KindUnsealedCodebase
	// KindInvariantViolation: a structural invariant (e.g. "TUnion always
	// contains at least one atomic") was found broken at a point the
	// analyzer assumed it held.
	KindInvariantViolation
	// KindCancelled: the per-file analysis budget was exceeded mid-file
	// (spec.md §5: "converts the in-progress result into a single
	// AnalysisTimeout issue", surfaced here as the hard-failure companion).
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindMissingClassLike:
		return "missing class-like"
	case KindMissingFunctionLike:
		return "missing function-like"
	case KindUnsealedCodebase:
		return "unsealed codebase"
	case KindInvariantViolation:
		return "invariant violation"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// AnalysisError is the hard-failure type (spec.md §7): "propagated up and
// abort that file's analysis. They must never occur on well-formed input;
// their presence is a defect."
type AnalysisError struct {
	Kind    Kind
	Message string
	Wrapped error
}

func New(kind Kind, format string, args ...any) *AnalysisError {
	return &AnalysisError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, wrapped error, format string, args ...any) *AnalysisError {
	return &AnalysisError{Kind: kind, Message: fmt.Sprintf(format, args...), Wrapped: wrapped}
}

func (e *AnalysisError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AnalysisError) Unwrap() error { return e.Wrapped }

// Is reports whether err is an *AnalysisError of the given kind, unwrapping
// as needed.
func Is(err error, kind Kind) bool {
	for err != nil {
		if ae, ok := err.(*AnalysisError); ok {
			return ae.Kind == kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
