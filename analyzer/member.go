package analyzer

import (
	"strings"

	"github.com/krizos/phpanalyze/blockctx"
	"github.com/krizos/phpanalyze/codebase"
	"github.com/krizos/phpanalyze/internal/interner"
	"github.com/krizos/phpanalyze/internal/phpast"
	"github.com/krizos/phpanalyze/internal/span"
	"github.com/krizos/phpanalyze/internal/symbolid"
	"github.com/krizos/phpanalyze/issue"
	"github.com/krizos/phpanalyze/typeir"
)

// expansionContext builds the substitution environment for the current
// scope plus call-site template bindings.
func (fa *fileAnalyzer) expansionContext(ctx *blockctx.BlockContext, bindings map[typeir.TemplateKey]*typeir.TUnion) typeir.ExpansionContext {
	return typeir.ExpansionContext{
		TemplateBindings:         bindings,
		Classes:                  fa.store,
		SelfId:                   fa.interner.InternLower("self"),
		StaticId:                 fa.interner.InternLower("static"),
		ParentId:                 fa.interner.InternLower("parent"),
		SelfClass:                ctx.Scope.SelfClass,
		StaticClass:              ctx.Scope.StaticClass,
		ParentClass:              ctx.Scope.ParentClass,
		LiteralWideningThreshold: fa.threshold(),
	}
}

// classTarget is one resolved class-like a static access can land on.
type classTarget struct {
	name    interner.StringId // lowered
	meta    *codebase.ClassLikeMetadata
	fromObjectInstance bool
}

// resolveClassExpr resolves the class side of `Expr::...` or `new Expr` to
// a set of class targets. invalid reports whether some part of the path can
// never succeed.
func (fa *fileAnalyzer) resolveClassExpr(expr phpast.Expression, ctx *blockctx.BlockContext, forConstant bool) (targets []classTarget, invalid bool) {
	switch e := expr.(type) {
	case *phpast.Identifier:
		name, ok := fa.resolveClassKeyword(e.Name, e.Span(), ctx)
		if !ok {
			return nil, true
		}
		meta, found := fa.store.ClassLike(name)
		if !found {
			fa.report(issue.New(issue.NonExistentClassLike, issue.Error,
				"class "+fa.file.ResolvedNames.Resolve(e.Span(), e.Name)+" does not exist", e.Span()))
			return nil, true
		}
		fa.artifacts.SymbolReferences.AddClassLike(name, e.Span())
		return []classTarget{{name: name, meta: meta}}, false

	default:
		classType := fa.analyzeExpression(expr, ctx)
		return fa.classTargetsFromType(classType, expr.Span(), forConstant)
	}
}

// resolveClassKeyword maps self/static/parent to the enclosing scope, and
// everything else through name resolution.
func (fa *fileAnalyzer) resolveClassKeyword(written string, at span.Span, ctx *blockctx.BlockContext) (interner.StringId, bool) {
	switch strings.ToLower(written) {
	case "self":
		if !ctx.Scope.InClass() {
			fa.report(issue.New(issue.SelfOutsideClassScope, issue.Error,
				"self used outside a class scope", at))
			return 0, false
		}
		return ctx.Scope.SelfClass, true
	case "static":
		if !ctx.Scope.InClass() {
			fa.report(issue.New(issue.StaticOutsideClassScope, issue.Error,
				"static used outside a class scope", at))
			return 0, false
		}
		return ctx.Scope.StaticClass, true
	case "parent":
		if !ctx.Scope.InClass() || ctx.Scope.ParentClass == 0 {
			fa.report(issue.New(issue.ParentOutsideClassScope, issue.Error,
				"parent used outside a class with a parent", at))
			return 0, false
		}
		return ctx.Scope.ParentClass, true
	}
	return fa.resolveLower(at, written), true
}

// classTargetsFromType partitions a runtime value used as a class selector
// (spec.md §4.4.3 step 2 for the `::` path).
func (fa *fileAnalyzer) classTargetsFromType(t *typeir.TUnion, at span.Span, forConstant bool) ([]classTarget, bool) {
	var targets []classTarget
	invalid := false
	for _, a := range t.Atomics {
		switch v := a.(type) {
		case typeir.TNamedObject:
			if meta, ok := fa.store.ClassLike(v.Name); ok {
				targets = append(targets, classTarget{name: v.Name, meta: meta, fromObjectInstance: true})
			} else {
				fa.report(issue.New(issue.NonExistentClassLike, issue.Error,
					"class "+fa.interner.Lookup(v.Name)+" does not exist", at))
				invalid = true
			}
		case typeir.TEnum:
			if meta, ok := fa.store.ClassLike(v.Name); ok {
				targets = append(targets, classTarget{name: v.Name, meta: meta, fromObjectInstance: true})
			}
		case typeir.TString:
			switch {
			case v.Shape == typeir.StringClassLike && (v.ClassLikeConstraint == typeir.ClassLikeLiteral || v.ClassLikeConstraint == typeir.ClassLikeOfType):
				if meta, ok := fa.store.ClassLike(v.ClassLikeName); ok {
					targets = append(targets, classTarget{name: v.ClassLikeName, meta: meta})
				} else {
					invalid = true
				}
			case v.Shape == typeir.StringLiteral:
				name := fa.interner.InternLower(strings.TrimPrefix(v.Literal, "\\"))
				if meta, ok := fa.store.ClassLike(name); ok {
					targets = append(targets, classTarget{name: name, meta: meta})
				} else {
					fa.report(issue.New(issue.NonExistentClassLike, issue.Error,
						"class "+v.Literal+" does not exist", at))
					invalid = true
				}
			default:
				if forConstant {
					fa.report(issue.New(issue.InvalidClassConstantOnString, issue.Error,
						"cannot access a constant through a non-specific string", at))
				} else {
					fa.report(issue.New(issue.StringConstantSelector, issue.Error,
						"cannot use a non-specific string as a class selector", at))
				}
				invalid = true
			}
		case typeir.TMixed:
			fa.report(issue.New(issue.UnknownConstantSelectorType, issue.Warning,
				"cannot statically resolve a mixed class selector", at))
		case typeir.TGenericParam:
			constraint := v.Constraint
			if constraint == nil {
				constraint = typeir.GetMixed()
			}
			sub, subInvalid := fa.classTargetsFromType(constraint, at, forConstant)
			targets = append(targets, sub...)
			invalid = invalid || subInvalid
		default:
			fa.report(issue.New(issue.InvalidConstantSelector, issue.Error,
				"invalid class selector of type "+typeir.FromAtomic(a).Id(fa.interner), at))
			invalid = true
		}
	}
	return targets, invalid
}

// analyzeStaticAccess covers `Expr::NAME` (class constant, enum case or
// ::class) and `Expr::$var` (static property read).
func (fa *fileAnalyzer) analyzeStaticAccess(e *phpast.StaticPropertyExpression, ctx *blockctx.BlockContext) *typeir.TUnion {
	if ident, ok := e.Property.(*phpast.Identifier); ok {
		if strings.ToLower(ident.Name) == "class" {
			return fa.analyzeClassNameConstant(e, ctx)
		}
		return fa.analyzeClassConstantAccess(e, ident, ctx)
	}
	if v, ok := e.Property.(*phpast.Variable); ok {
		return fa.analyzeStaticPropertyRead(e, v, ctx)
	}
	fa.report(issue.New(issue.InvalidConstantSelector, issue.Error,
		"dynamic constant selectors are not supported", e.Property.Span()))
	fa.analyzeExpression(e.Property, ctx)
	return typeir.GetMixed()
}

func (fa *fileAnalyzer) analyzeClassNameConstant(e *phpast.StaticPropertyExpression, ctx *blockctx.BlockContext) *typeir.TUnion {
	targets, invalid := fa.resolveClassExpr(e.Class, ctx, true)
	if len(targets) == 1 && !invalid {
		return typeir.FromAtomic(typeir.TString{
			Shape:               typeir.StringClassLike,
			ClassLikeConstraint: typeir.ClassLikeLiteral,
			ClassLikeName:       targets[0].name,
		})
	}
	return typeir.FromAtomic(typeir.TString{Shape: typeir.StringClassLike})
}

func (fa *fileAnalyzer) analyzeClassConstantAccess(e *phpast.StaticPropertyExpression, ident *phpast.Identifier, ctx *blockctx.BlockContext) *typeir.TUnion {
	targets, invalid := fa.resolveClassExpr(e.Class, ctx, true)
	constLowered := fa.interner.InternLower(ident.Name)

	var result *typeir.TUnion
	contributing := 0
	for _, target := range targets {
		// Enum cases resolve before constants: `Suit::Hearts` is a case.
		if target.meta.Kind == codebase.KindEnum {
			if _, ok := target.meta.EnumCases[constLowered]; ok {
				caseType := typeir.FromAtomic(typeir.TEnum{
					Name:    target.name,
					Case:    fa.interner.Intern(ident.Name),
					HasCase: true,
				})
				result = typeir.Combine(result, caseType, fa.threshold())
				contributing++
				fa.artifacts.SymbolReferences.AddMember(target.name, constLowered, ident.Span())
				continue
			}
		}

		konst, declaring, ok := fa.store.ClassConstant(target.name, constLowered)
		if !ok {
			fa.report(issue.New(issue.UndefinedClassLikeConstant, issue.Error,
				"constant "+ident.Name+" does not exist on "+fa.interner.Lookup(target.meta.Name), ident.Span()))
			invalid = true
			continue
		}
		fa.checkMemberVisibility(konst.Visibility, declaring, ctx, ident.Span(), konst.At, issue.InvalidPropertyRead, ident.Name)
		fa.artifacts.SymbolReferences.AddMember(declaring, constLowered, ident.Span())
		result = typeir.Combine(result, konst.Type, fa.threshold())
		contributing++
	}

	if contributing > 1 {
		fa.report(issue.New(issue.AmbiguousClassLikeConstantAccess, issue.Warning,
			"constant "+ident.Name+" resolves through more than one class-like", ident.Span()))
		result = typeir.Combine(result, typeir.GetMixed(), fa.threshold())
	}
	if invalid {
		result = typeir.Combine(result, typeir.GetNever(), fa.threshold())
	}
	if result == nil {
		if invalid || len(targets) == 0 {
			return typeir.GetNever()
		}
		return typeir.GetMixed()
	}
	return result
}

func (fa *fileAnalyzer) analyzeStaticPropertyRead(e *phpast.StaticPropertyExpression, v *phpast.Variable, ctx *blockctx.BlockContext) *typeir.TUnion {
	targets, invalid := fa.resolveClassExpr(e.Class, ctx, false)
	propLowered := fa.interner.InternLower(v.Name)

	var result *typeir.TUnion
	for _, target := range targets {
		prop, declaring, ok := fa.store.Property(target.name, propLowered)
		if !ok {
			fa.report(issue.New(issue.NonExistentProperty, issue.Error,
				"static property $"+v.Name+" does not exist on "+fa.interner.Lookup(target.meta.Name), v.Span()))
			invalid = true
			continue
		}
		fa.checkMemberVisibility(prop.ReadVisibility, declaring, ctx, v.Span(), prop.At, issue.InvalidPropertyRead, "$"+v.Name)
		fa.artifacts.SymbolReferences.AddMember(declaring, propLowered, v.Span())

		if fa.settings.MemoizeProperties {
			key := fa.interner.Lookup(target.meta.Name) + "::$" + v.Name
			if memo, hit := ctx.MemoizedProperties[key]; hit {
				result = typeir.Combine(result, memo, fa.threshold())
				continue
			}
		}

		declared := typeir.Expand(prop.Type(), fa.memberExpansion(ctx, target, declaring))
		result = typeir.Combine(result, declared, fa.threshold())
	}

	if result == nil {
		if invalid || len(targets) == 0 {
			return typeir.GetNever()
		}
		return typeir.GetMixed()
	}
	if invalid {
		result = typeir.Combine(result, typeir.GetNever(), fa.threshold())
	}
	return result
}

// memberExpansion builds the expansion environment for a member declared on
// `declaring`, accessed through `target`: the target class's extended
// template arguments bind the declaring class's parameters.
func (fa *fileAnalyzer) memberExpansion(ctx *blockctx.BlockContext, target classTarget, declaring interner.StringId) typeir.ExpansionContext {
	env := fa.expansionContext(ctx, fa.classTemplateBindings(target.meta, declaring, nil))
	env.StaticClass = target.name
	env.SelfClass = declaring
	if declMeta, ok := fa.store.ClassLike(declaring); ok {
		env.ParentClass = declMeta.DirectParent
	}
	return env
}

// classTemplateBindings maps the declaring class's template parameters to
// the concrete arguments flowing through the access: the object's own type
// parameters when the access lands on the class itself, the populator's
// extended-parameter table otherwise.
func (fa *fileAnalyzer) classTemplateBindings(accessed *codebase.ClassLikeMetadata, declaring interner.StringId, objectParams []*typeir.TUnion) map[typeir.TemplateKey]*typeir.TUnion {
	bindings := map[typeir.TemplateKey]*typeir.TUnion{}

	if accessed.Lowered == declaring {
		for i, tpl := range accessed.Templates {
			if i < len(objectParams) && objectParams[i] != nil {
				bindings[typeir.TemplateKey{ParameterName: tpl.Name, DefiningEntity: declaring}] = objectParams[i]
			}
		}
		return bindings
	}

	for _, arg := range accessed.TemplateExtendedParams[declaring] {
		if arg.Type != nil {
			bindings[typeir.TemplateKey{ParameterName: arg.Name, DefiningEntity: declaring}] = arg.Type
		}
	}
	// The extended args may themselves mention the accessed class's own
	// parameters; bind those from the instance when known.
	if len(objectParams) > 0 {
		inner := map[typeir.TemplateKey]*typeir.TUnion{}
		for i, tpl := range accessed.Templates {
			if i < len(objectParams) && objectParams[i] != nil {
				inner[typeir.TemplateKey{ParameterName: tpl.Name, DefiningEntity: accessed.Lowered}] = objectParams[i]
			}
		}
		if len(inner) > 0 {
			for k, v := range bindings {
				bindings[k] = typeir.Expand(v, typeir.ExpansionContext{
					TemplateBindings:         inner,
					Classes:                  fa.store,
					LiteralWideningThreshold: fa.threshold(),
				})
			}
		}
	}
	return bindings
}

// objectMember is one resolved member target on an object access path.
type objectMember struct {
	class    *codebase.ClassLikeMetadata
	declaring interner.StringId
	objectParams []*typeir.TUnion
	isThis   bool
}

// partitionObjectUnion splits an object expression's union per spec.md
// §4.4.3 step 2, reporting access issues per partition. Returns the classes
// the member lookup proceeds on, whether null flowed in, and whether any
// atomic makes the whole path invalid.
func (fa *fileAnalyzer) partitionObjectUnion(objType *typeir.TUnion, nullsafe bool, at span.Span, accessKind string) (classes []objectMember, sawNull, invalid, sawMixed bool) {
	hasObjects := false
	for _, a := range objType.Atomics {
		switch a.(type) {
		case typeir.TNamedObject, typeir.TEnum, typeir.TGenericParam, typeir.TObjectAny, typeir.TClosedShape:
			hasObjects = true
		}
	}

	var walk func(atomics []typeir.TAtomic)
	walk = func(atomics []typeir.TAtomic) {
		for _, a := range atomics {
			switch v := a.(type) {
			case typeir.TNamedObject:
				if meta, ok := fa.store.ClassLike(v.Name); ok {
					classes = append(classes, objectMember{class: meta, objectParams: v.TypeParams, isThis: v.IsThis})
				} else {
					fa.report(issue.New(issue.NonExistentClassLike, issue.Error,
						"class "+fa.interner.Lookup(v.Name)+" does not exist", at))
					invalid = true
				}
			case typeir.TEnum:
				if meta, ok := fa.store.ClassLike(v.Name); ok {
					classes = append(classes, objectMember{class: meta})
				}
			case typeir.TGenericParam:
				if v.Constraint != nil {
					walk(v.Constraint.Atomics)
				}
			case typeir.TNull:
				sawNull = true
				if !nullsafe {
					if hasObjects {
						fa.report(issue.New(issue.PossibleMethodAccessOnNull, issue.Error,
							accessKind+" on a possibly-null value", at))
					} else {
						fa.report(issue.New(issue.MethodAccessOnNull, issue.Error,
							accessKind+" on null", at))
						invalid = true
					}
				}
			case typeir.TMixed:
				sawMixed = true
				if v.Constraint == typeir.MixedAny {
					fa.report(issue.New(issue.MixedAnyMethodAccess, issue.Warning,
						accessKind+" on a mixed value", at))
				} else {
					fa.report(issue.New(issue.MixedMethodAccess, issue.Warning,
						accessKind+" on a constrained mixed value", at))
				}
			case typeir.TObjectAny:
				fa.report(issue.New(issue.AmbiguousObjectMethodAccess, issue.Warning,
					accessKind+" on an object of unknown class", at))
				sawMixed = true
			case typeir.TClosedShape, typeir.TCallableSignature, typeir.TCallableAlias:
				// Closed shapes and callables are handled by the caller
				// (__invoke paths); they don't partition here.
				sawMixed = true
			default:
				fa.report(issue.New(issue.InvalidMethodAccess, issue.Error,
					accessKind+" on "+typeir.FromAtomic(a).Id(fa.interner), at))
				invalid = true
			}
		}
	}
	walk(objType.Atomics)
	return classes, sawNull, invalid, sawMixed
}

// analyzePropertyRead resolves `$o->p` / `$o?->p` (spec.md §4.4.3).
func (fa *fileAnalyzer) analyzePropertyRead(object, property phpast.Expression, nullsafe bool, at span.Span, ctx *blockctx.BlockContext) *typeir.TUnion {
	objType := fa.analyzeExpression(object, ctx)

	propIdent, ok := property.(*phpast.Identifier)
	if !ok {
		fa.analyzeExpression(property, ctx)
		return typeir.GetMixed()
	}
	propLowered := fa.interner.InternLower(propIdent.Name)

	if fa.settings.MemoizeProperties {
		if key := fa.propertyPath(object, propIdent.Name); key != "" {
			if memo, hit := ctx.MemoizedProperties[key]; hit {
				return memo
			}
		}
	}

	classes, sawNull, invalid, sawMixed := fa.partitionObjectUnion(objType, nullsafe, at, "property access")

	var result *typeir.TUnion
	for _, member := range classes {
		prop, declaring, found := fa.store.Property(member.class.Lowered, propLowered)
		if !found {
			fa.report(issue.New(issue.NonExistentProperty, issue.Error,
				"property $"+propIdent.Name+" does not exist on "+fa.interner.Lookup(member.class.Name), at))
			invalid = true
			continue
		}
		fa.checkMemberVisibility(prop.ReadVisibility, declaring, ctx, at, prop.At, issue.InvalidPropertyRead, "$"+propIdent.Name)
		fa.artifacts.SymbolReferences.AddMember(declaring, propLowered, at)

		env := fa.expansionContext(ctx, fa.classTemplateBindings(member.class, declaring, member.objectParams))
		env.StaticClass = member.class.Lowered
		env.SelfClass = declaring
		result = typeir.Combine(result, typeir.Expand(prop.Type(), env), fa.threshold())
	}

	if sawMixed {
		result = typeir.Combine(result, typeir.GetMixed(), fa.threshold())
	}
	if sawNull && nullsafe {
		result = typeir.Combine(result, typeir.FromAtomic(typeir.TNull{}), fa.threshold())
	}
	if result == nil {
		if invalid {
			return typeir.GetNever()
		}
		return typeir.GetMixed()
	}
	if invalid {
		result = typeir.Combine(result, typeir.GetNever(), fa.threshold())
	}
	return result
}

// propertyPath renders the memoization key for a property access rooted in
// a simple variable.
func (fa *fileAnalyzer) propertyPath(object phpast.Expression, prop string) string {
	if v, ok := object.(*phpast.Variable); ok {
		return "$" + v.Name + "->" + prop
	}
	return ""
}

// analyzeMethodCall resolves `$o->m(args)` / `$o?->m(args)`.
func (fa *fileAnalyzer) analyzeMethodCall(object, method phpast.Expression, args []*phpast.Argument, nullsafe bool, at span.Span, ctx *blockctx.BlockContext) *typeir.TUnion {
	objType := fa.analyzeExpression(object, ctx)

	methodIdent, ok := method.(*phpast.Identifier)
	if !ok {
		// $o->$m(...): a dynamic selector resolves at runtime.
		fa.analyzeExpression(method, ctx)
		fa.analyzeArgumentsOnly(args, ctx)
		return typeir.GetMixed()
	}
	methodLowered := fa.interner.InternLower(methodIdent.Name)

	classes, sawNull, invalid, sawMixed := fa.partitionObjectUnion(objType, nullsafe, at, "method call")

	var targets []callTarget
	for _, member := range classes {
		declaring, found := member.class.AppearingMethods[methodLowered]
		if !found {
			// An __invoke-capable or __call-carrying class still fails
			// statically for a named method; report it.
			fa.report(issue.New(issue.UndefinedMethod, issue.Error,
				"method "+methodIdent.Name+" does not exist on "+fa.interner.Lookup(member.class.Name), at))
			invalid = true
			continue
		}
		meta, found := fa.store.FunctionLike(symbolid.NewMethod(declaring, methodLowered))
		if !found {
			invalid = true
			continue
		}
		fa.checkMemberVisibility(meta.Visibility, declaring, ctx, at, meta.At, issue.InvalidMethodAccess, methodIdent.Name)
		fa.artifacts.SymbolReferences.AddMember(declaring, methodLowered, at)

		targets = append(targets, callTarget{
			meta:        meta,
			bindings:    fa.classTemplateBindings(member.class, declaring, member.objectParams),
			staticClass: member.class.Lowered,
			selfClass:   declaring,
			isThisCall:  member.isThis,
		})
	}

	result := fa.analyzeInvocation(targets, args, at, ctx)
	if sawMixed {
		result = typeir.Combine(result, typeir.GetMixed(), fa.threshold())
	}
	if sawNull && nullsafe {
		result = typeir.Combine(result, typeir.FromAtomic(typeir.TNull{}), fa.threshold())
	}
	if invalid {
		result = typeir.Combine(result, typeir.GetNever(), fa.threshold())
	}
	return result
}

// analyzeStaticCall resolves `C::m(args)`, `self::m(args)`, `$c::m(args)`.
func (fa *fileAnalyzer) analyzeStaticCall(e *phpast.StaticCallExpression, ctx *blockctx.BlockContext) *typeir.TUnion {
	methodIdent, ok := e.Method.(*phpast.Identifier)
	if !ok {
		fa.analyzeExpression(e.Method, ctx)
		fa.analyzeArgumentsOnly(e.Arguments, ctx)
		return typeir.GetMixed()
	}
	methodLowered := fa.interner.InternLower(methodIdent.Name)

	targets, invalid := fa.resolveClassExpr(e.Class, ctx, false)

	var callTargets []callTarget
	for _, target := range targets {
		if target.meta.Kind == codebase.KindInterface && !target.fromObjectInstance {
			fa.report(issue.New(issue.StaticAccessOnInterface, issue.Error,
				"cannot call a static method on an interface", e.Span()))
			invalid = true
			continue
		}
		if target.meta.Kind == codebase.KindTrait {
			fa.checkTraitStaticCall(target.meta, e.Span())
		}

		declaring, found := target.meta.AppearingMethods[methodLowered]
		if !found {
			fa.report(issue.New(issue.UndefinedMethod, issue.Error,
				"method "+methodIdent.Name+" does not exist on "+fa.interner.Lookup(target.meta.Name), e.Span()))
			invalid = true
			continue
		}
		meta, found := fa.store.FunctionLike(symbolid.NewMethod(declaring, methodLowered))
		if !found {
			invalid = true
			continue
		}
		if !meta.IsStatic && !target.fromObjectInstance && !fa.insideClassHierarchy(ctx, target.name) {
			fa.report(issue.New(issue.InvalidStaticMethodAccess, issue.Error,
				"method "+methodIdent.Name+" is not static", e.Span()))
		}
		fa.checkMemberVisibility(meta.Visibility, declaring, ctx, e.Span(), meta.At, issue.InvalidMethodAccess, methodIdent.Name)
		fa.artifacts.SymbolReferences.AddMember(declaring, methodLowered, e.Span())

		staticClass := target.name
		// self::/parent:: keep the caller's static binding alive.
		if ident, isIdent := e.Class.(*phpast.Identifier); isIdent {
			switch strings.ToLower(ident.Name) {
			case "self", "parent", "static":
				if ctx.Scope.StaticClass != 0 {
					staticClass = ctx.Scope.StaticClass
				}
			}
		}
		callTargets = append(callTargets, callTarget{
			meta:        meta,
			bindings:    fa.classTemplateBindings(target.meta, declaring, nil),
			staticClass: staticClass,
			selfClass:   declaring,
		})
	}

	result := fa.analyzeInvocation(callTargets, e.Arguments, e.Span(), ctx)
	if invalid {
		result = typeir.Combine(result, typeir.GetNever(), fa.threshold())
	}
	return result
}

// insideClassHierarchy reports whether the current scope sits inside the
// given class or one of its descendants, which legalizes non-static
// `self::method()` calls.
func (fa *fileAnalyzer) insideClassHierarchy(ctx *blockctx.BlockContext, class interner.StringId) bool {
	if !ctx.Scope.InClass() {
		return false
	}
	return fa.store.IsSameOrSubtype(ctx.Scope.SelfClass, class)
}

// checkTraitStaticCall applies the version-gated trait static-call
// deprecation (spec.md §9 open question, resolved in SPEC_FULL.md).
func (fa *fileAnalyzer) checkTraitStaticCall(trait *codebase.ClassLikeMetadata, at span.Span) {
	if fa.settings.VersionAtLeast(traitStaticCallDeprecatedMajor, traitStaticCallDeprecatedMinor) {
		fa.report(issue.New(issue.DeprecatedFeature, issue.Warning,
			"calling a static method directly on trait "+fa.interner.Lookup(trait.Name)+" is deprecated", at))
	}
}

// Trait static-method calls deprecate with PHP 8.1.
const (
	traitStaticCallDeprecatedMajor = 8
	traitStaticCallDeprecatedMinor = 1
)

// analyzeNew infers `new C(args)` (spec.md §4.4.2).
func (fa *fileAnalyzer) analyzeNew(e *phpast.NewExpression, ctx *blockctx.BlockContext) *typeir.TUnion {
	if e.AnonymousBody != nil {
		fa.analyzeArgumentsOnly(e.Arguments, ctx)
		return typeir.FromAtomic(typeir.TObjectAny{})
	}

	isThis := false
	if ident, ok := e.Class.(*phpast.Identifier); ok && strings.ToLower(ident.Name) == "static" {
		isThis = true
	}

	targets, invalid := fa.resolveClassExpr(e.Class, ctx, false)
	if len(targets) == 0 {
		fa.analyzeArgumentsOnly(e.Arguments, ctx)
		if invalid {
			return typeir.GetNever()
		}
		return typeir.FromAtomic(typeir.TObjectAny{})
	}

	var result *typeir.TUnion
	for _, target := range targets {
		ctorLowered := fa.interner.InternLower("__construct")
		var inferred map[typeir.TemplateKey]*typeir.TUnion
		if declaring, ok := target.meta.AppearingMethods[ctorLowered]; ok {
			if meta, found := fa.store.FunctionLike(symbolid.NewMethod(declaring, ctorLowered)); found {
				fa.checkMemberVisibility(meta.Visibility, declaring, ctx, e.Span(), meta.At, issue.InvalidMethodAccess, "__construct")
				ct := callTarget{
					meta:        meta,
					bindings:    fa.classTemplateBindings(target.meta, declaring, nil),
					staticClass: target.name,
					selfClass:   declaring,
				}
				inferred = fa.invokeForTemplates(ct, e.Arguments, e.Span(), ctx)
			}
		} else {
			fa.analyzeArgumentsOnly(e.Arguments, ctx)
			if len(e.Arguments) > 0 {
				fa.report(issue.New(issue.TooManyArguments, issue.Error,
					fa.interner.Lookup(target.meta.Name)+" has no constructor but was given arguments", e.Span()))
			}
		}

		var params []*typeir.TUnion
		if len(target.meta.Templates) > 0 {
			params = make([]*typeir.TUnion, len(target.meta.Templates))
			for i, tpl := range target.meta.Templates {
				key := typeir.TemplateKey{ParameterName: tpl.Name, DefiningEntity: target.name}
				if bound, ok := inferred[key]; ok {
					params[i] = bound
				} else {
					params[i] = typeir.GetMixed()
				}
			}
		}
		obj := typeir.TNamedObject{Name: target.name, TypeParams: params, IsThis: isThis}
		result = typeir.Combine(result, typeir.FromAtomic(obj), fa.threshold())
		fa.artifacts.SymbolReferences.AddClassLike(target.name, e.Span())
	}
	if invalid {
		result = typeir.Combine(result, typeir.GetNever(), fa.threshold())
	}
	return result
}

// checkMemberVisibility applies spec.md §4.4.5's rules.
func (fa *fileAnalyzer) checkMemberVisibility(vis codebase.Visibility, declaring interner.StringId, ctx *blockctx.BlockContext, accessAt, declAt span.Span, code issue.Code, memberName string) {
	if vis == codebase.Public {
		return
	}
	scope := ctx.Scope.SelfClass

	allowed := false
	switch vis {
	case codebase.Protected:
		allowed = scope != 0 && (scope == declaring ||
			fa.store.IsSameOrSubtype(scope, declaring) ||
			fa.store.IsSameOrSubtype(declaring, scope) ||
			fa.traitRelated(scope, declaring))
	case codebase.Private:
		allowed = scope != 0 && (scope == declaring || fa.traitRelated(scope, declaring))
	}
	if allowed {
		return
	}
	fa.report(issue.New(code, issue.Error,
		vis.String()+" member "+memberName+" is not accessible from this scope", accessAt).
		WithSecondary(declAt, "declared "+vis.String()+" here"))
}

// traitRelated reports whether either class uses the other as a trait.
func (fa *fileAnalyzer) traitRelated(a, b interner.StringId) bool {
	if metaA, ok := fa.store.ClassLike(a); ok && metaA.AllTraits[b] {
		return true
	}
	if metaB, ok := fa.store.ClassLike(b); ok && metaB.AllTraits[a] {
		return true
	}
	return false
}
