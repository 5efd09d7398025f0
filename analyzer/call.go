package analyzer

import (
	"strings"

	"github.com/krizos/phpanalyze/blockctx"
	"github.com/krizos/phpanalyze/codebase"
	"github.com/krizos/phpanalyze/internal/interner"
	"github.com/krizos/phpanalyze/internal/phpast"
	"github.com/krizos/phpanalyze/internal/span"
	"github.com/krizos/phpanalyze/issue"
	"github.com/krizos/phpanalyze/typeir"
)

// callTarget is one callable signature an invocation dispatches to, with
// the template-binding environment it resolves under (spec.md §4.4.4).
type callTarget struct {
	meta        *codebase.FunctionLikeMetadata
	bindings    map[typeir.TemplateKey]*typeir.TUnion
	staticClass interner.StringId
	selfClass   interner.StringId
	isThisCall  bool
}

// analyzeArgumentsOnly analyzes argument expressions for their side effects
// and artifact types when no signature is available to check against.
func (fa *fileAnalyzer) analyzeArgumentsOnly(args []*phpast.Argument, ctx *blockctx.BlockContext) []*typeir.TUnion {
	out := make([]*typeir.TUnion, len(args))
	for i, arg := range args {
		out[i] = fa.analyzeExpression(arg.Value, ctx)
	}
	return out
}

// analyzeFunctionCall resolves `f(args)`, `$c(args)` and `"f"(args)` call
// forms (spec.md §4.4.2). A callable-array callee such as `[C, "m"]` is not
// resolved to a method; it is reported as InvalidCallable.
func (fa *fileAnalyzer) analyzeFunctionCall(e *phpast.CallExpression, ctx *blockctx.BlockContext) *typeir.TUnion {
	if ident, ok := e.Function.(*phpast.Identifier); ok {
		return fa.analyzeNamedFunctionCall(ident, e.Arguments, e.Span(), ctx)
	}

	// A callable value: a closure, callable string, or invocable object.
	calleeType := fa.analyzeExpression(e.Function, ctx)
	var targets []callTarget
	invalid := false
	for _, a := range calleeType.Atomics {
		if sig, ok := typeir.CastAtomicToCallable(a); ok {
			switch c := sig.(type) {
			case typeir.TCallableSignature:
				targets = append(targets, callTarget{meta: signatureAsMetadata(c)})
			case typeir.TCallableAlias:
				if meta, found := fa.store.FunctionLike(c.Target); found {
					targets = append(targets, callTarget{meta: meta})
				}
			}
			continue
		}
		switch v := a.(type) {
		case typeir.TString:
			if v.Shape == typeir.StringLiteral {
				if meta, found := fa.store.Function(fa.interner.InternLower(v.Literal)); found {
					targets = append(targets, callTarget{meta: meta})
					continue
				}
			}
			fa.report(issue.New(issue.InvalidCallable, issue.Error,
				"string value is not a known callable", e.Function.Span()))
			invalid = true
		case typeir.TNamedObject:
			// An invocable object routes through __invoke.
			if invoke := fa.invokeMethodTarget(v, ctx); invoke != nil {
				targets = append(targets, *invoke)
				continue
			}
			fa.report(issue.New(issue.InvalidCallable, issue.Error,
				fa.interner.Lookup(v.Name)+" is not invocable", e.Function.Span()))
			invalid = true
		case typeir.TMixed:
			// Calling mixed may succeed at runtime.
		default:
			fa.report(issue.New(issue.InvalidCallable, issue.Error,
				"value of type "+typeir.FromAtomic(a).Id(fa.interner)+" is not callable", e.Function.Span()))
			invalid = true
		}
	}

	result := fa.analyzeInvocation(targets, e.Arguments, e.Span(), ctx)
	if invalid {
		result = typeir.Combine(result, typeir.GetNever(), fa.threshold())
	}
	return result
}

func (fa *fileAnalyzer) invokeMethodTarget(obj typeir.TNamedObject, ctx *blockctx.BlockContext) *callTarget {
	meta, ok := fa.store.ClassLike(obj.Name)
	if !ok {
		return nil
	}
	invokeLowered := fa.interner.InternLower("__invoke")
	declaring, found := meta.AppearingMethods[invokeLowered]
	if !found {
		return nil
	}
	fl, found := fa.store.Method(obj.Name, invokeLowered)
	if !found {
		return nil
	}
	return &callTarget{
		meta:        fl,
		bindings:    fa.classTemplateBindings(meta, declaring, obj.TypeParams),
		staticClass: obj.Name,
		selfClass:   declaring,
	}
}

func (fa *fileAnalyzer) analyzeNamedFunctionCall(ident *phpast.Identifier, args []*phpast.Argument, at span.Span, ctx *blockctx.BlockContext) *typeir.TUnion {
	lowered := strings.ToLower(ident.Name)

	// Language constructs that parse as calls.
	switch lowered {
	case "isset", "empty":
		fa.analyzeIssetArguments(args, ctx)
		return typeir.FromAtomic(typeir.TBool{})
	case "exit", "die":
		fa.analyzeArgumentsOnly(args, ctx)
		return typeir.GetNever()
	case "define":
		fa.analyzeArgumentsOnly(args, ctx)
		return typeir.FromAtomic(typeir.TBool{Narrow: typeir.BoolTrue})
	}

	resolved := fa.resolveLower(ident.Span(), ident.Name)
	if meta, found := fa.store.Function(resolved); found {
		if meta.IsDeprecated {
			fa.report(issue.New(issue.DeprecatedFeature, issue.Warning,
				"function "+ident.Name+" is deprecated", at))
		}
		fa.artifacts.SymbolReferences.AddFunction(resolved, at)
		return fa.analyzeInvocation([]callTarget{{meta: meta}}, args, at, ctx)
	}

	if ret, ok := builtinReturnType(lowered); ok {
		fa.analyzeArgumentsOnly(args, ctx)
		return ret
	}

	fa.analyzeArgumentsOnly(args, ctx)
	fa.report(issue.New(issue.NonExistentFunction, issue.Error,
		"function "+ident.Name+" does not exist", ident.Span()))
	return typeir.GetNever()
}

// analyzeIssetArguments analyzes isset/empty operands without reporting
// UndefinedVariable: probing definedness is the construct's purpose.
func (fa *fileAnalyzer) analyzeIssetArguments(args []*phpast.Argument, ctx *blockctx.BlockContext) {
	for _, arg := range args {
		if v, ok := arg.Value.(*phpast.Variable); ok {
			if t, exists := ctx.Locals[fa.interner.Intern(v.Name)]; exists {
				fa.artifacts.SetExpressionType(v.Span(), t)
			} else {
				fa.artifacts.SetExpressionType(v.Span(), typeir.FromAtomic(typeir.TNull{}))
			}
			continue
		}
		fa.analyzeExpression(arg.Value, ctx)
	}
}

// argumentBinding pairs one analyzed argument with the parameter slot it
// landed on.
type argumentBinding struct {
	arg       *phpast.Argument
	argType   *typeir.TUnion
	paramIdx  int // -1: no parameter accepted it
}

// analyzeInvocation checks one argument list against every resolved target
// and unions their return types (spec.md §4.4.4).
func (fa *fileAnalyzer) analyzeInvocation(targets []callTarget, args []*phpast.Argument, at span.Span, ctx *blockctx.BlockContext) *typeir.TUnion {
	argTypes := fa.analyzeArgumentsOnly(args, ctx)
	if len(targets) == 0 {
		return typeir.GetMixed()
	}

	var result *typeir.TUnion
	for _, target := range targets {
		ret := fa.invokeSingle(target, args, argTypes, at, ctx)
		result = typeir.Combine(result, ret, fa.threshold())
	}
	return result
}

// invokeForTemplates runs the inference half of an invocation and returns
// the substitution it found, for `new C(...)` type-parameter propagation.
func (fa *fileAnalyzer) invokeForTemplates(target callTarget, args []*phpast.Argument, at span.Span, ctx *blockctx.BlockContext) map[typeir.TemplateKey]*typeir.TUnion {
	argTypes := fa.analyzeArgumentsOnly(args, ctx)
	bindings, _ := fa.matchAndInfer(target, args, argTypes, at, ctx)
	return bindings
}

func (fa *fileAnalyzer) invokeSingle(target callTarget, args []*phpast.Argument, argTypes []*typeir.TUnion, at span.Span, ctx *blockctx.BlockContext) *typeir.TUnion {
	bindings, bound := fa.matchAndInfer(target, args, argTypes, at, ctx)

	// @param-out writes back into by-ref variable arguments (spec.md
	// §4.4.4 step 6).
	env := fa.expansionContext(ctx, bindings)
	if target.staticClass != 0 {
		env.StaticClass = target.staticClass
	}
	if target.selfClass != 0 {
		env.SelfClass = target.selfClass
		if declMeta, ok := fa.store.ClassLike(target.selfClass); ok {
			env.ParentClass = declMeta.DirectParent
		}
	}
	for i, b := range bound {
		if b.paramIdx < 0 || b.paramIdx >= len(target.meta.Parameters) {
			continue
		}
		out := target.meta.Parameters[b.paramIdx].OutType
		if out == nil {
			continue
		}
		if v, ok := args[i].Value.(*phpast.Variable); ok {
			ctx.Locals[fa.interner.Intern(v.Name)] = typeir.Expand(out, env)
		}
	}

	ret := typeir.Expand(target.meta.ReturnType(), env)
	if target.isThisCall {
		return ret
	}
	// A non-$this call demotes `static`-flavored returns to the target
	// class (is_this only survives while the static class matches).
	demoted := make([]typeir.TAtomic, len(ret.Atomics))
	changed := false
	for i, a := range ret.Atomics {
		if obj, ok := a.(typeir.TNamedObject); ok && obj.IsThis {
			obj.IsThis = false
			demoted[i] = obj
			changed = true
			continue
		}
		demoted[i] = a
	}
	if changed {
		return &typeir.TUnion{Atomics: demoted, Flags: ret.Flags}
	}
	return ret
}

// matchAndInfer maps arguments to parameters (positional, named, variadic),
// reports arity and containment issues, and collects template substitutions
// in two passes (spec.md §4.4.4 steps 1-4).
func (fa *fileAnalyzer) matchAndInfer(target callTarget, args []*phpast.Argument, argTypes []*typeir.TUnion, at span.Span, ctx *blockctx.BlockContext) (map[typeir.TemplateKey]*typeir.TUnion, []argumentBinding) {
	meta := target.meta
	params := meta.Parameters
	variadicIdx := -1
	if len(params) > 0 && params[len(params)-1].Variadic {
		variadicIdx = len(params) - 1
	}

	bound := make([]argumentBinding, len(args))
	taken := make([]bool, len(params))
	positional := 0

	for i, arg := range args {
		bound[i] = argumentBinding{arg: arg, argType: argTypes[i], paramIdx: -1}
		if arg.Name != "" {
			idx := fa.paramIndexByName(params, arg.Name)
			if idx < 0 {
				fa.report(issue.New(issue.InvalidNamedArgument, issue.Error,
					"no parameter named $"+arg.Name, arg.Value.Span()))
				continue
			}
			if taken[idx] {
				fa.report(issue.New(issue.InvalidNamedArgument, issue.Error,
					"parameter $"+arg.Name+" bound twice", arg.Value.Span()))
				continue
			}
			taken[idx] = true
			bound[i].paramIdx = idx
			continue
		}
		idx := positional
		if idx >= len(params) {
			if variadicIdx >= 0 {
				bound[i].paramIdx = variadicIdx
			}
			positional++
			continue
		}
		if idx == variadicIdx {
			bound[i].paramIdx = variadicIdx
			positional++
			continue
		}
		taken[idx] = true
		bound[i].paramIdx = idx
		positional++
	}

	// Arity (spec.md §4.4.4 step 4).
	if variadicIdx < 0 && positional > len(params) {
		fa.report(issue.New(issue.TooManyArguments, issue.Error,
			"too many arguments: expected at most "+itoa(len(params)), at))
	}
	for idx, p := range params {
		if p.HasDefault || p.Variadic || taken[idx] {
			continue
		}
		fa.report(issue.New(issue.TooFewArguments, issue.Error,
			"missing required argument $"+fa.interner.Lookup(p.Name), at))
	}

	// Pass 1: non-templated parameters check containment directly.
	bindings := map[typeir.TemplateKey]*typeir.TUnion{}
	for k, v := range target.bindings {
		bindings[k] = v
	}
	templated := make([]bool, len(args))
	for i, b := range bound {
		if b.paramIdx < 0 {
			continue
		}
		paramType := params[b.paramIdx].Type()
		if containsTemplate(paramType) {
			templated[i] = true
			continue
		}
		fa.checkArgumentContainment(b, paramType, bindings, target, ctx)
	}

	// Pass 2: unify templated parameters, joining multiple constraints on
	// the same parameter.
	for i, b := range bound {
		if !templated[i] || b.paramIdx < 0 {
			continue
		}
		fa.unifyTemplates(params[b.paramIdx].Type(), b.argType, bindings)
	}
	for i, b := range bound {
		if !templated[i] || b.paramIdx < 0 {
			continue
		}
		fa.checkArgumentContainment(b, params[b.paramIdx].Type(), bindings, target, ctx)
	}

	return bindings, bound
}

func (fa *fileAnalyzer) paramIndexByName(params []codebase.ParameterMetadata, name string) int {
	want := fa.interner.InternLower(name)
	for i, p := range params {
		if fa.interner.Lowered(p.Name) == want {
			return i
		}
	}
	return -1
}

func (fa *fileAnalyzer) checkArgumentContainment(b argumentBinding, paramType *typeir.TUnion, bindings map[typeir.TemplateKey]*typeir.TUnion, target callTarget, ctx *blockctx.BlockContext) {
	env := fa.expansionContext(ctx, bindings)
	if target.staticClass != 0 {
		env.StaticClass = target.staticClass
	}
	if target.selfClass != 0 {
		env.SelfClass = target.selfClass
	}
	expanded := typeir.Expand(paramType, env)

	result := typeir.IsContainedBy(b.argType, expanded, typeir.ContainmentContext{Classes: fa.store})
	switch {
	case result.Matched && !result.TypeCoerced:
		return
	case result.Matched && result.ToMixed:
		fa.report(issue.New(issue.MixedArgument, issue.Warning,
			"mixed argument where "+expanded.Id(fa.interner)+" is expected", b.arg.Value.Span()))
	case result.Matched:
		fa.report(issue.New(issue.ArgumentTypeCoercion, issue.Warning,
			"argument of type "+b.argType.Id(fa.interner)+" coerced to "+expanded.Id(fa.interner), b.arg.Value.Span()))
	default:
		fa.report(issue.New(issue.InvalidArgument, issue.Error,
			"argument of type "+b.argType.Id(fa.interner)+" does not match expected "+expanded.Id(fa.interner), b.arg.Value.Span()))
	}
}

// containsTemplate walks a union for generic-parameter occurrences.
func containsTemplate(u *typeir.TUnion) bool {
	if u == nil {
		return false
	}
	for _, a := range u.Atomics {
		if atomicContainsTemplate(a) {
			return true
		}
	}
	return false
}

func atomicContainsTemplate(a typeir.TAtomic) bool {
	switch v := a.(type) {
	case typeir.TGenericParam:
		return true
	case typeir.TNamedObject:
		for _, p := range v.TypeParams {
			if containsTemplate(p) {
				return true
			}
		}
	case typeir.TGenericArray:
		return containsTemplate(v.Key) || containsTemplate(v.Value)
	case typeir.TList:
		for _, p := range v.Prefix {
			if containsTemplate(p) {
				return true
			}
		}
		return containsTemplate(v.Element)
	case typeir.TKeyedArray:
		for _, e := range v.Entries {
			if containsTemplate(e.Type) {
				return true
			}
		}
		return containsTemplate(v.Fallback)
	case typeir.TCallableSignature:
		for _, p := range v.Parameters {
			if containsTemplate(p.Type) {
				return true
			}
		}
		return containsTemplate(v.ReturnType)
	case typeir.TString:
		return v.Shape == typeir.StringClassLike && v.ClassLikeConstraint == typeir.ClassLikeGeneric
	}
	return false
}

// unifyTemplates finds substitutions making argType fit paramType, joining
// into bindings (spec.md §4.4.4 pass 2: "when multiple arguments constrain
// the same parameter, combine their inferred types").
func (fa *fileAnalyzer) unifyTemplates(paramType, argType *typeir.TUnion, bindings map[typeir.TemplateKey]*typeir.TUnion) {
	if paramType == nil || argType == nil {
		return
	}
	for _, p := range paramType.Atomics {
		switch pv := p.(type) {
		case typeir.TGenericParam:
			key := typeir.KeyOf(pv)
			if existing, ok := bindings[key]; ok {
				bindings[key] = typeir.Combine(existing, argType, fa.threshold())
			} else {
				bindings[key] = argType
			}

		case typeir.TGenericArray:
			for _, a := range argType.Atomics {
				switch av := a.(type) {
				case typeir.TGenericArray:
					fa.unifyTemplates(pv.Key, av.Key, bindings)
					fa.unifyTemplates(pv.Value, av.Value, bindings)
				case typeir.TList:
					fa.unifyTemplates(pv.Key, typeir.FromAtomic(typeir.TInt{}), bindings)
					elem := av.Element
					for _, pre := range av.Prefix {
						elem = typeir.Combine(elem, pre, fa.threshold())
					}
					fa.unifyTemplates(pv.Value, elem, bindings)
				case typeir.TKeyedArray:
					var keys, values *typeir.TUnion
					for _, entry := range av.Entries {
						if entry.Key.IsString {
							keys = typeir.Combine(keys, typeir.FromAtomic(typeir.TString{Shape: typeir.StringLiteral, Literal: entry.Key.StrKey}), fa.threshold())
						} else {
							keys = typeir.Combine(keys, typeir.FromAtomic(typeir.TInt{Shape: typeir.IntLiteral, Literal: entry.Key.IntKey}), fa.threshold())
						}
						values = typeir.Combine(values, entry.Type, fa.threshold())
					}
					fa.unifyTemplates(pv.Key, keys, bindings)
					fa.unifyTemplates(pv.Value, values, bindings)
				}
			}

		case typeir.TList:
			if pv.Element == nil {
				continue
			}
			for _, a := range argType.Atomics {
				switch av := a.(type) {
				case typeir.TList:
					elem := av.Element
					for _, pre := range av.Prefix {
						elem = typeir.Combine(elem, pre, fa.threshold())
					}
					fa.unifyTemplates(pv.Element, elem, bindings)
				case typeir.TGenericArray:
					fa.unifyTemplates(pv.Element, av.Value, bindings)
				}
			}

		case typeir.TNamedObject:
			for _, a := range argType.Atomics {
				if av, ok := a.(typeir.TNamedObject); ok && fa.store.IsSameOrSubtype(av.Name, pv.Name) {
					n := len(pv.TypeParams)
					if len(av.TypeParams) < n {
						n = len(av.TypeParams)
					}
					for i := 0; i < n; i++ {
						fa.unifyTemplates(pv.TypeParams[i], av.TypeParams[i], bindings)
					}
				}
			}

		case typeir.TString:
			if pv.Shape == typeir.StringClassLike && pv.ClassLikeConstraint == typeir.ClassLikeGeneric {
				for _, a := range argType.Atomics {
					if av, ok := a.(typeir.TString); ok && av.Shape == typeir.StringClassLike && av.ClassLikeConstraint == typeir.ClassLikeLiteral {
						key := typeir.TemplateKey{ParameterName: pv.ClassLikeParam, DefiningEntity: pv.ClassLikeDefining}
						bound := typeir.FromAtomic(typeir.TNamedObject{Name: av.ClassLikeName})
						if existing, ok := bindings[key]; ok {
							bindings[key] = typeir.Combine(existing, bound, fa.threshold())
						} else {
							bindings[key] = bound
						}
					}
				}
			}

		case typeir.TCallableSignature:
			for _, a := range argType.Atomics {
				if av, ok := a.(typeir.TCallableSignature); ok && av.ReturnType != nil {
					fa.unifyTemplates(pv.ReturnType, av.ReturnType, bindings)
				}
			}
		}
	}
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	var buf [12]byte
	i := len(buf)
	neg := v < 0
	if neg {
		v = -v
	}
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
