package analyzer

import (
	"github.com/krizos/phpanalyze/codebase"
	"github.com/krizos/phpanalyze/typeir"
)

// signatureAsMetadata adapts a structural callable signature into the
// metadata shape the invocation analyzer consumes, so closures assigned to
// variables call-check like declared functions.
func signatureAsMetadata(sig typeir.TCallableSignature) *codebase.FunctionLikeMetadata {
	meta := &codebase.FunctionLikeMetadata{
		IsPure:              sig.IsPure,
		ReturnSignatureType: sig.ReturnType,
	}
	for _, p := range sig.Parameters {
		meta.Parameters = append(meta.Parameters, codebase.ParameterMetadata{
			Name:          p.Name,
			ByRef:         p.ByRef,
			Variadic:      p.Variadic,
			HasDefault:    p.HasDefault,
			SignatureType: p.Type,
		})
	}
	return meta
}

// builtinReturnType covers the slice of the PHP standard library the
// analyzer meets in ordinary code. Functions absent here and from the
// codebase report NonExistentFunction; the reconciler handles the is_*
// family separately for narrowing.
func builtinReturnType(lowered string) (*typeir.TUnion, bool) {
	switch lowered {
	case "is_int", "is_integer", "is_long", "is_float", "is_double", "is_string",
		"is_bool", "is_array", "is_object", "is_null", "is_callable", "is_numeric",
		"is_scalar", "is_resource", "is_iterable", "in_array", "array_key_exists",
		"defined", "function_exists", "class_exists", "interface_exists",
		"enum_exists", "method_exists", "property_exists", "str_contains",
		"str_starts_with", "str_ends_with", "ctype_digit", "is_a", "is_subclass_of":
		return typeir.FromAtomic(typeir.TBool{}), true

	case "strlen", "count", "sizeof", "strpos", "strcmp", "ord", "array_push",
		"array_unshift", "preg_match", "mt_rand", "rand", "time":
		return typeir.FromAtomic(typeir.TInt{}), true

	case "implode", "join", "sprintf", "str_repeat", "strtolower", "strtoupper",
		"trim", "ltrim", "rtrim", "substr", "str_replace", "json_encode",
		"number_format", "strval", "gettype", "ucfirst", "lcfirst", "chr",
		"strrev", "nl2br", "htmlspecialchars", "var_export", "print_r":
		return typeir.FromAtomic(typeir.TString{}), true

	case "get_class", "get_parent_class":
		return typeir.FromAtomic(typeir.TString{Shape: typeir.StringClassLike}), true

	case "floatval", "doubleval", "microtime":
		return typeir.FromAtomic(typeir.TFloat{}), true

	case "intval", "intdiv":
		return typeir.FromAtomic(typeir.TInt{}), true

	case "boolval", "settype", "sort", "rsort", "usort", "uasort", "uksort",
		"ksort", "krsort", "shuffle", "array_walk":
		return typeir.FromAtomic(typeir.TBool{}), true

	case "abs", "max", "min", "round", "floor", "ceil", "sqrt", "pow":
		return typeir.NewUnion(typeir.TInt{}, typeir.TFloat{}), true

	case "explode", "str_split", "array_keys", "array_values", "range":
		return typeir.FromAtomic(typeir.TList{Element: typeir.GetMixed()}), true

	case "array_merge", "array_filter", "array_map", "array_slice",
		"array_combine", "array_flip", "array_reverse", "array_unique",
		"array_diff", "array_intersect", "array_fill", "compact":
		return typeir.FromAtomic(typeir.TGenericArray{
			Key:   typeir.FromAtomic(typeir.TArrayKey{}),
			Value: typeir.GetMixed(),
		}), true

	case "array_pop", "array_shift", "current", "reset", "end", "prev", "next",
		"array_search", "json_decode", "func_get_arg", "call_user_func",
		"call_user_func_array", "array_reduce":
		return typeir.GetMixed(), true

	case "var_dump", "unset", "usleep", "sleep", "error_log", "header":
		return typeir.FromAtomic(typeir.TNull{}), true

	case "trigger_error":
		return typeir.FromAtomic(typeir.TBool{}), true

	case "func_get_args":
		return typeir.FromAtomic(typeir.TList{Element: typeir.GetMixed()}), true
	}
	return nil, false
}
