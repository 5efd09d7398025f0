package analyzer

import (
	"github.com/krizos/phpanalyze/blockctx"
	"github.com/krizos/phpanalyze/codebase"
	"github.com/krizos/phpanalyze/internal/phpast"
	"github.com/krizos/phpanalyze/internal/span"
	"github.com/krizos/phpanalyze/internal/symbolid"
	"github.com/krizos/phpanalyze/issue"
	"github.com/krizos/phpanalyze/scanner"
	"github.com/krizos/phpanalyze/typeir"
)

// analyzeAssignment handles every assignment target form (spec.md §4.4.2).
// The result of an assignment expression is the assigned value's type.
func (fa *fileAnalyzer) analyzeAssignment(e *phpast.AssignmentExpression, ctx *blockctx.BlockContext) *typeir.TUnion {
	var rhs *typeir.TUnion
	if e.Operator == "=" {
		rhs = fa.analyzeExpression(e.Right, ctx)
	} else {
		// Compound assignment reads the target first: $a += $b is
		// $a = $a <op> $b.
		rhs = fa.compoundAssignmentType(e, ctx)
	}

	switch target := e.Left.(type) {
	case *phpast.Variable:
		fa.assignVariable(target, rhs, ctx, e.Span())
		fa.artifacts.SetExpressionType(target.Span(), rhs)

	case *phpast.IndexExpression:
		fa.assignArrayElement(target, rhs, ctx)

	case *phpast.PropertyExpression:
		fa.assignProperty(target.Object, target.Property, rhs, ctx, e.Span())

	case *phpast.StaticPropertyExpression:
		fa.assignStaticProperty(target, rhs, ctx, e.Span())

	case *phpast.ListExpression:
		fa.destructure(target, rhs, ctx)

	case *phpast.ArrayExpression:
		// [$a, $b] = ... short destructuring syntax.
		fa.destructureArrayPattern(target.Elements, rhs, ctx)

	default:
		fa.analyzeExpression(e.Left, ctx)
	}
	return rhs
}

func (fa *fileAnalyzer) compoundAssignmentType(e *phpast.AssignmentExpression, ctx *blockctx.BlockContext) *typeir.TUnion {
	current := fa.analyzeExpression(e.Left, ctx)
	operand := fa.analyzeExpression(e.Right, ctx)
	switch e.Operator {
	case "+=", "-=", "*=", "**=", "%=":
		return fa.numericResult(current, operand)
	case "/=":
		return typeir.Combine(fa.numericResult(current, operand), typeir.FromAtomic(typeir.TFloat{}), fa.threshold())
	case ".=":
		return fa.concatResult(current, operand)
	case "??=":
		return typeir.Combine(current.WithoutKind(typeir.KindNull), operand, fa.threshold())
	default:
		return operand
	}
}

func (fa *fileAnalyzer) assignVariable(target *phpast.Variable, rhs *typeir.TUnion, ctx *blockctx.BlockContext, at span.Span) {
	if rhs.IsNever() {
		fa.report(issue.New(issue.ImpossibleAssignment, issue.Error,
			"assigned expression can never produce a value", at))
	} else if rhs.IsMixed() {
		fa.report(issue.New(issue.MixedAssignment, issue.Note,
			"assignment of mixed to $"+target.Name, at))
	}
	ctx.Locals[fa.interner.Intern(target.Name)] = rhs

	if ctx.LoopScope != nil {
		ctx.LoopScope.RedefinedVars[fa.interner.Intern(target.Name)] = rhs
	}
}

// assignArrayElement produces the post-write array type: the written key
// becomes definitely-set (spec.md §4.4.2 "array append / array key write").
func (fa *fileAnalyzer) assignArrayElement(target *phpast.IndexExpression, rhs *typeir.TUnion, ctx *blockctx.BlockContext) {
	baseVar, isVar := target.Left.(*phpast.Variable)

	var base *typeir.TUnion
	if isVar {
		if existing, ok := ctx.Locals[fa.interner.Intern(baseVar.Name)]; ok {
			base = existing
			fa.artifacts.SetExpressionType(baseVar.Span(), existing)
		} else {
			// Implicit array creation on first write.
			base = typeir.FromAtomic(typeir.TKeyedArray{})
			fa.artifacts.SetExpressionType(baseVar.Span(), base)
		}
	} else {
		base = fa.analyzeExpression(target.Left, ctx)
	}

	var keyLit *typeir.ArrayKeyLit
	var keyType *typeir.TUnion
	if target.Index != nil {
		keyType = fa.analyzeExpression(target.Index, ctx)
		if lit, ok := literalArrayKey(keyType); ok {
			keyLit = &lit
		}
	}

	updated := fa.arrayAfterWrite(base, keyLit, keyType, rhs)
	fa.artifacts.SetExpressionType(target.Span(), rhs)
	if isVar {
		ctx.Locals[fa.interner.Intern(baseVar.Name)] = updated
	}
}

// arrayAfterWrite computes the array type after `$a[k] = v` or `$a[] = v`.
func (fa *fileAnalyzer) arrayAfterWrite(base *typeir.TUnion, keyLit *typeir.ArrayKeyLit, keyType, value *typeir.TUnion) *typeir.TUnion {
	var out []typeir.TAtomic
	for _, a := range base.Atomics {
		switch v := a.(type) {
		case typeir.TKeyedArray:
			out = append(out, fa.keyedAfterWrite(v, keyLit, keyType, value))
		case typeir.TList:
			if keyLit == nil && keyType == nil {
				// Append keeps the list shape.
				prefix := append(append([]*typeir.TUnion{}, v.Prefix...), value)
				out = append(out, typeir.TList{Prefix: prefix, Element: v.Element})
			} else {
				elem := v.Element
				for _, p := range v.Prefix {
					elem = typeir.Combine(elem, p, fa.threshold())
				}
				elem = typeir.Combine(elem, value, fa.threshold())
				out = append(out, typeir.TGenericArray{
					Key:   typeir.FromAtomic(typeir.TArrayKey{}),
					Value: elem,
				})
			}
		case typeir.TGenericArray:
			key := v.Key
			if keyType != nil {
				key = typeir.Combine(key, keyType, fa.threshold())
			} else {
				key = typeir.Combine(key, typeir.FromAtomic(typeir.TInt{}), fa.threshold())
			}
			out = append(out, typeir.TGenericArray{
				Key:   key,
				Value: typeir.Combine(v.Value, value, fa.threshold()),
			})
		case typeir.TNull, typeir.TMixed:
			// Implicit array creation from null/unknown.
			out = append(out, fa.freshArrayAtomic(keyLit, keyType, value))
		default:
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		out = append(out, fa.freshArrayAtomic(keyLit, keyType, value))
	}
	return &typeir.TUnion{Atomics: out}
}

func (fa *fileAnalyzer) keyedAfterWrite(arr typeir.TKeyedArray, keyLit *typeir.ArrayKeyLit, keyType, value *typeir.TUnion) typeir.TAtomic {
	if keyLit == nil && keyType == nil {
		// $a[] append: the next free int key.
		next := int64(0)
		for _, e := range arr.Entries {
			if !e.Key.IsString && e.Key.IntKey >= next {
				next = e.Key.IntKey + 1
			}
		}
		entries := append(append([]typeir.KeyedEntry{}, arr.Entries...), typeir.KeyedEntry{
			Key:  typeir.ArrayKeyLit{IntKey: next},
			Type: value,
		})
		return typeir.TKeyedArray{Entries: entries, Fallback: arr.Fallback}
	}
	if keyLit != nil {
		entries := make([]typeir.KeyedEntry, 0, len(arr.Entries)+1)
		replaced := false
		for _, e := range arr.Entries {
			if e.Key == *keyLit {
				entries = append(entries, typeir.KeyedEntry{Key: e.Key, Type: value})
				replaced = true
				continue
			}
			entries = append(entries, e)
		}
		if !replaced {
			entries = append(entries, typeir.KeyedEntry{Key: *keyLit, Type: value})
		}
		return typeir.TKeyedArray{Entries: entries, Fallback: arr.Fallback}
	}
	// Dynamic key: all known entries stay, the fallback widens.
	fallback := typeir.Combine(arr.Fallback, value, fa.threshold())
	return typeir.TKeyedArray{Entries: arr.Entries, Fallback: fallback}
}

func (fa *fileAnalyzer) freshArrayAtomic(keyLit *typeir.ArrayKeyLit, keyType, value *typeir.TUnion) typeir.TAtomic {
	if keyLit != nil {
		return typeir.TKeyedArray{Entries: []typeir.KeyedEntry{{Key: *keyLit, Type: value}}}
	}
	if keyType != nil {
		return typeir.TGenericArray{Key: keyType, Value: value}
	}
	return typeir.TKeyedArray{Entries: []typeir.KeyedEntry{{Key: typeir.ArrayKeyLit{IntKey: 0}, Type: value}}}
}

// assignProperty checks `$o->p = v` against the declared property type
// (spec.md §4.4.2).
func (fa *fileAnalyzer) assignProperty(object, property phpast.Expression, rhs *typeir.TUnion, ctx *blockctx.BlockContext, at span.Span) {
	objType := fa.analyzeExpression(object, ctx)
	propIdent, ok := property.(*phpast.Identifier)
	if !ok {
		fa.analyzeExpression(property, ctx)
		return
	}
	propLowered := fa.interner.InternLower(propIdent.Name)

	classes, _, _, _ := fa.partitionObjectUnion(objType, false, at, "property write")
	for _, member := range classes {
		prop, declaring, found := fa.store.Property(member.class.Lowered, propLowered)
		if !found {
			fa.report(issue.New(issue.NonExistentProperty, issue.Error,
				"property $"+propIdent.Name+" does not exist on "+fa.interner.Lookup(member.class.Name), at))
			continue
		}
		fa.checkMemberVisibility(prop.WriteVisibility, declaring, ctx, at, prop.At, issue.InvalidPropertyWrite, "$"+propIdent.Name)

		env := fa.expansionContext(ctx, fa.classTemplateBindings(member.class, declaring, member.objectParams))
		env.StaticClass = member.class.Lowered
		env.SelfClass = declaring
		fa.checkPropertyAssignment(rhs, typeir.Expand(prop.Type(), env), at, prop.At)
	}

	if fa.settings.MemoizeProperties {
		if key := fa.propertyPath(object, propIdent.Name); key != "" {
			ctx.MemoizedProperties[key] = rhs
		}
	}
	fa.artifacts.SetExpressionType(property.Span(), rhs)
}

// assignStaticProperty checks `C::$p = v` (spec.md §4.4.2, scenario 5).
func (fa *fileAnalyzer) assignStaticProperty(target *phpast.StaticPropertyExpression, rhs *typeir.TUnion, ctx *blockctx.BlockContext, at span.Span) {
	v, ok := target.Property.(*phpast.Variable)
	if !ok {
		fa.analyzeExpression(target.Property, ctx)
		return
	}
	propLowered := fa.interner.InternLower(v.Name)

	targets, _ := fa.resolveClassExpr(target.Class, ctx, false)
	for _, classTarget := range targets {
		prop, declaring, found := fa.store.Property(classTarget.name, propLowered)
		if !found {
			fa.report(issue.New(issue.NonExistentProperty, issue.Error,
				"static property $"+v.Name+" does not exist on "+fa.interner.Lookup(classTarget.meta.Name), at))
			continue
		}
		fa.checkMemberVisibility(prop.WriteVisibility, declaring, ctx, at, prop.At, issue.InvalidPropertyWrite, "$"+v.Name)

		declared := typeir.Expand(prop.Type(), fa.memberExpansion(ctx, classTarget, declaring))
		fa.checkPropertyAssignment(rhs, declared, at, prop.At)

		if fa.settings.MemoizeProperties {
			key := fa.interner.Lookup(classTarget.meta.Name) + "::$" + v.Name
			ctx.MemoizedProperties[key] = rhs
		}
	}
	fa.artifacts.SetExpressionType(target.Span(), rhs)
}

// checkPropertyAssignment reports the three-way verdict spec.md §4.4.2
// prescribes: plain mismatch, coercion, or mixed coercion.
func (fa *fileAnalyzer) checkPropertyAssignment(rhs, declared *typeir.TUnion, at, declAt span.Span) {
	result := typeir.IsContainedBy(rhs, declared, typeir.ContainmentContext{Classes: fa.store})
	switch {
	case result.Matched && !result.TypeCoerced:
		return
	case result.Matched && result.ToMixed:
		fa.report(issue.New(issue.MixedPropertyTypeCoercion, issue.Warning,
			"mixed value coerced into property of type "+declared.Id(fa.interner), at).
			WithSecondary(declAt, "property declared here"))
	case result.Matched:
		fa.report(issue.New(issue.PropertyTypeCoercion, issue.Warning,
			"value of type "+rhs.Id(fa.interner)+" coerced into property of type "+declared.Id(fa.interner), at).
			WithSecondary(declAt, "property declared here"))
	default:
		fa.report(issue.New(issue.InvalidPropertyAssignmentValue, issue.Error,
			"cannot assign "+rhs.Id(fa.interner)+" to property of type "+declared.Id(fa.interner), at).
			WithSecondary(declAt, "property declared here"))
	}
}

// destructure element-wise assigns `list($a, $b) = $arr` using keyed-array
// indexing (spec.md §4.4.2).
func (fa *fileAnalyzer) destructure(target *phpast.ListExpression, rhs *typeir.TUnion, ctx *blockctx.BlockContext) {
	fa.destructureArrayPattern(target.Elements, rhs, ctx)
	fa.artifacts.SetExpressionType(target.Span(), rhs)
}

func (fa *fileAnalyzer) destructureArrayPattern(elements []*phpast.ArrayElement, rhs *typeir.TUnion, ctx *blockctx.BlockContext) {
	index := int64(0)
	for _, el := range elements {
		if el == nil || el.Value == nil {
			index++
			continue
		}
		key := typeir.ArrayKeyLit{IntKey: index}
		if el.Key != nil {
			keyType := fa.analyzeExpression(el.Key, ctx)
			if lit, ok := literalArrayKey(keyType); ok {
				key = lit
			}
		} else {
			index++
		}

		elemType := fa.elementTypeAt(rhs, key)
		switch v := el.Value.(type) {
		case *phpast.Variable:
			ctx.Locals[fa.interner.Intern(v.Name)] = elemType
			fa.artifacts.SetExpressionType(v.Span(), elemType)
		case *phpast.ListExpression:
			fa.destructure(v, elemType, ctx)
		case *phpast.ArrayExpression:
			fa.destructureArrayPattern(v.Elements, elemType, ctx)
		default:
			fa.analyzeExpression(el.Value, ctx)
		}
	}
}

func (fa *fileAnalyzer) elementTypeAt(rhs *typeir.TUnion, key typeir.ArrayKeyLit) *typeir.TUnion {
	var result *typeir.TUnion
	for _, a := range rhs.Atomics {
		switch v := a.(type) {
		case typeir.TKeyedArray:
			found := false
			for _, e := range v.Entries {
				if e.Key == key {
					result = typeir.Combine(result, e.Type, fa.threshold())
					found = true
				}
			}
			if !found && v.Fallback != nil {
				result = typeir.Combine(result, v.Fallback, fa.threshold())
			}
		case typeir.TList:
			if !key.IsString && int(key.IntKey) < len(v.Prefix) {
				result = typeir.Combine(result, v.Prefix[int(key.IntKey)], fa.threshold())
			} else if v.Element != nil {
				result = typeir.Combine(result, v.Element, fa.threshold())
			}
		case typeir.TGenericArray:
			result = typeir.Combine(result, v.Value, fa.threshold())
		case typeir.TMixed:
			result = typeir.Combine(result, typeir.GetMixed(), fa.threshold())
		}
	}
	if result == nil {
		return typeir.GetMixed()
	}
	return result
}

// analyzeClosure builds the callable signature for `function (...) use (...)
// {...}` and analyzes its body with the captured environment (spec.md
// §4.4.2).
func (fa *fileAnalyzer) analyzeClosure(e *phpast.ClosureExpression, ctx *blockctx.BlockContext) *typeir.TUnion {
	id := symbolid.NewClosure(e.Span())
	meta := fa.closureMetadata(id, e.Parameters, e.ReturnType)

	bodyCtx := fa.closureBodyContext(meta, e.Static, ctx)
	for _, use := range e.Uses {
		name := fa.interner.Intern(use.Name)
		if captured, ok := ctx.Locals[name]; ok {
			bodyCtx.Locals[name] = captured
		} else if !use.ByRef {
			fa.report(issue.New(issue.UndefinedVariable, issue.Error,
				"undefined variable $"+use.Name+" in closure use", e.Span()))
		} else {
			// By-ref use of an unset variable creates it as null in the
			// enclosing scope.
			created := typeir.FromAtomic(typeir.TNull{})
			ctx.Locals[name] = created
			bodyCtx.Locals[name] = created
		}
	}
	fa.analyzeStatements(e.Body.Statements, bodyCtx)

	return typeir.FromAtomic(fa.signatureOf(meta, true))
}

// analyzeArrowFunction eagerly captures every enclosing variable by value
// (spec.md §4.4.2).
func (fa *fileAnalyzer) analyzeArrowFunction(e *phpast.ArrowFunctionExpression, ctx *blockctx.BlockContext) *typeir.TUnion {
	id := symbolid.NewArrowFunction(e.Span())
	meta := fa.closureMetadata(id, e.Parameters, e.ReturnType)

	bodyCtx := fa.closureBodyContext(meta, e.Static, ctx)
	for name, t := range ctx.Locals {
		if _, shadowed := bodyCtx.Locals[name]; !shadowed {
			bodyCtx.Locals[name] = t
		}
	}
	bodyType := fa.analyzeExpression(e.Body, bodyCtx)

	sig := fa.signatureOf(meta, true)
	if sig.ReturnType == nil {
		sig.ReturnType = bodyType
	}
	return typeir.FromAtomic(sig)
}

func (fa *fileAnalyzer) closureMetadata(id symbolid.FunctionLikeId, params []*phpast.Param, returnType phpast.TypeNode) *codebase.FunctionLikeMetadata {
	meta := &codebase.FunctionLikeMetadata{Id: id}
	scope := scanner.TemplateScope{}
	for _, p := range params {
		pm := codebase.ParameterMetadata{
			Name:       fa.interner.Intern(p.Name.Name),
			ByRef:      p.ByRef,
			Variadic:   p.Variadic,
			HasDefault: p.DefaultValue != nil,
		}
		if p.Type != nil {
			pm.SignatureType = fa.types.TypeFromHint(p.Type, scope)
		}
		meta.Parameters = append(meta.Parameters, pm)
	}
	if returnType != nil {
		meta.ReturnSignatureType = fa.types.TypeFromHint(returnType, scope)
	}
	return meta
}

func (fa *fileAnalyzer) closureBodyContext(meta *codebase.FunctionLikeMetadata, isStatic bool, outer *blockctx.BlockContext) *blockctx.BlockContext {
	scope := blockctx.ScopeContext{
		SelfClass:    outer.Scope.SelfClass,
		StaticClass:  outer.Scope.StaticClass,
		ParentClass:  outer.Scope.ParentClass,
		FunctionLike: meta,
	}
	if !isStatic {
		scope.ThisType = outer.Scope.ThisType
	}
	ctx := blockctx.New(scope)
	if scope.ThisType != nil {
		ctx.Locals[fa.interner.Intern("this")] = scope.ThisType
	}
	for _, p := range meta.Parameters {
		t := p.Type()
		if p.Variadic {
			t = typeir.FromAtomic(typeir.TList{Element: t})
		}
		ctx.Locals[p.Name] = t
	}
	return ctx
}

func (fa *fileAnalyzer) signatureOf(meta *codebase.FunctionLikeMetadata, isClosure bool) typeir.TCallableSignature {
	sig := typeir.TCallableSignature{
		IsClosure:  isClosure,
		IsPure:     meta.IsPure,
		ReturnType: nil,
		Source:     &meta.Id,
	}
	if meta.ReturnSignatureType != nil || meta.ReturnDocType != nil {
		sig.ReturnType = meta.ReturnType()
	}
	for _, p := range meta.Parameters {
		sig.Parameters = append(sig.Parameters, typeir.CallableParam{
			Name:       p.Name,
			Type:       p.Type(),
			ByRef:      p.ByRef,
			Variadic:   p.Variadic,
			HasDefault: p.HasDefault,
		})
	}
	return sig
}
