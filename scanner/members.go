package scanner

import (
	"github.com/krizos/phpanalyze/codebase"
	"github.com/krizos/phpanalyze/internal/docblock"
	"github.com/krizos/phpanalyze/internal/phpast"
	"github.com/krizos/phpanalyze/internal/span"
	"github.com/krizos/phpanalyze/internal/symbolid"
	"github.com/krizos/phpanalyze/issue"
	"github.com/krizos/phpanalyze/typeir"
)

func (sc *Scanner) scanClassBody(store *codebase.CodebaseMetadata, collector *issue.Collector, file ParsedFile, meta *codebase.ClassLikeMetadata, body []phpast.Statement, scope TemplateScope) {
	for _, member := range body {
		switch m := member.(type) {
		case *phpast.ClassConstantDeclaration:
			sc.scanClassConstants(collector, meta, m, scope)
		case *phpast.PropertyDeclaration:
			sc.scanProperties(collector, meta, m, scope)
		case *phpast.MethodDeclaration:
			sc.scanMethod(store, collector, file, meta, m, scope)
		case *phpast.TraitUse:
			for _, t := range m.Traits {
				meta.DirectTraits = append(meta.DirectTraits, sc.interner.InternLower(file.ResolvedNames.Resolve(t.Span(), t.Name)))
			}
		}
	}
}

// constInvalidModifiers are member modifiers PHP rejects on constants
// (spec.md §4.2: "reject modifiers not applicable to constants").
var constInvalidModifiers = map[string]bool{
	"readonly": true, "static": true, "abstract": true,
	"public(set)": true, "protected(set)": true, "private(set)": true,
	"var": true,
}

func (sc *Scanner) scanClassConstants(collector *issue.Collector, meta *codebase.ClassLikeMetadata, decl *phpast.ClassConstantDeclaration, scope TemplateScope) {
	sc.validateModifiers(collector, decl.Modifiers, constInvalidModifiers, "constant", decl.Span())

	var declared *typeir.TUnion
	if decl.Type != nil {
		declared = sc.TypeFromHint(decl.Type, scope)
	}
	docType := sc.docVarType(parseDocFromDecl(decl.Doc), scope)

	for _, item := range decl.Constants {
		id := sc.interner.Intern(item.Name.Name)
		konst := &codebase.ClassConstantMetadata{
			Name:       id,
			Visibility: codebase.VisibilityFromKeyword(decl.Visibility),
			IsFinal:    decl.Final,
			At:         item.Name.Span(),
		}
		switch {
		case docType != nil:
			konst.Type = docType
		case declared != nil:
			// The literal value narrows the declared type when it fits.
			inferred := sc.InferLiteralType(item.Value)
			if typeir.IsContainedBy(inferred, declared, typeir.ContainmentContext{}).Matched {
				konst.Type = inferred
			} else {
				konst.Type = declared
			}
		default:
			konst.Type = sc.InferLiteralType(item.Value)
		}
		meta.Constants[sc.interner.Lowered(id)] = konst
	}
}

func (sc *Scanner) scanProperties(collector *issue.Collector, meta *codebase.ClassLikeMetadata, decl *phpast.PropertyDeclaration, scope TemplateScope) {
	sc.validateModifiers(collector, decl.Modifiers, nil, "property", decl.Span())

	var declared *typeir.TUnion
	if decl.Type != nil {
		declared = sc.TypeFromHint(decl.Type, scope)
	}
	docType := sc.docVarType(parseDocFromDecl(decl.Doc), scope)

	readVis := codebase.VisibilityFromKeyword(decl.Visibility)
	writeVis := readVis
	if decl.WriteVisibility != "" {
		writeVis = codebase.VisibilityFromKeyword(decl.WriteVisibility)
	}

	for _, item := range decl.Properties {
		id := sc.interner.Intern(item.Name.Name)
		prop := &codebase.PropertyMetadata{
			Name:            id,
			SignatureType:   declared,
			DocType:         docType,
			ReadVisibility:  readVis,
			WriteVisibility: writeVis,
			IsStatic:        decl.Static,
			IsReadonly:      decl.Readonly,
			IsAbstract:      decl.Abstract,
			At:              item.Name.Span(),
		}
		if item.DefaultValue != nil {
			prop.DefaultType = sc.InferLiteralType(item.DefaultValue)
		}
		meta.Properties[sc.interner.Lowered(id)] = prop
	}
}

func (sc *Scanner) scanMethod(store *codebase.CodebaseMetadata, collector *issue.Collector, file ParsedFile, meta *codebase.ClassLikeMetadata, decl *phpast.MethodDeclaration, scope TemplateScope) {
	lowered := sc.interner.InternLower(decl.Name.Name)
	doc := parseDoc(decl.Doc)

	fl := sc.buildFunctionLike(collector, file,
		symbolid.NewMethod(meta.Lowered, lowered),
		decl.Name.Name, decl.Parameters, decl.ReturnType, doc, scope, meta)
	fl.IsStatic = decl.Static
	fl.IsFinal = decl.Final
	fl.IsAbstract = decl.Abstract
	fl.Visibility = codebase.VisibilityFromKeyword(decl.Visibility)
	fl.At = decl.Span()

	store.FunctionLikes[fl.Id] = fl
	meta.Methods[lowered] = true

	// Promoted constructor parameters double as property declarations.
	for i, param := range decl.Parameters {
		if param.Name == nil || (param.PromotedVisibility == "" && !param.Readonly) {
			continue
		}
		vis := codebase.VisibilityFromKeyword(param.PromotedVisibility)
		id := sc.interner.Intern(param.Name.Name)
		prop := &codebase.PropertyMetadata{
			Name:            id,
			ReadVisibility:  vis,
			WriteVisibility: vis,
			IsReadonly:      param.Readonly,
			IsPromoted:      true,
			At:              param.Name.Span(),
		}
		if i < len(fl.Parameters) {
			prop.SignatureType = fl.Parameters[i].SignatureType
			prop.DocType = fl.Parameters[i].DocType
			prop.DefaultType = fl.Parameters[i].DefaultType
		}
		meta.Properties[sc.interner.Lowered(id)] = prop
	}
}

// buildFunctionLike assembles the metadata shared by functions, methods and
// interface signatures. class is nil for top-level functions.
func (sc *Scanner) buildFunctionLike(collector *issue.Collector, file ParsedFile, id symbolid.FunctionLikeId, name string, params []*phpast.Param, returnType phpast.TypeNode, doc *docblock.Doc, outer TemplateScope, class *codebase.ClassLikeMetadata) *codebase.FunctionLikeMetadata {
	fl := &codebase.FunctionLikeMetadata{
		Id:   id,
		Name: sc.interner.Intern(name),
	}

	defining := sc.interner.InternLower(name)
	if class != nil {
		defining = class.Lowered
	}
	fl.Templates = sc.templatesFromDoc(doc, defining)
	scope := outer.Extend(sc.interner, fl.Templates, defining)

	fl.IsPure = doc.FirstNamed("pure") != nil
	fl.IsDeprecated = doc.FirstNamed("deprecated") != nil
	fl.IsInternal = doc.FirstNamed("internal") != nil

	for _, t := range doc.TagsNamed("throws") {
		if t.Type != nil && t.Type.Kind == docblock.ExprNamed {
			fl.Throws = append(fl.Throws, sc.interner.InternLower(t.Type.Name))
		}
	}

	paramDocs := map[string]*docblock.Tag{}
	for i := range doc.Tags {
		if doc.Tags[i].Name == "param" && doc.Tags[i].Variable != "" {
			paramDocs[doc.Tags[i].Variable] = &doc.Tags[i]
		}
	}
	paramOuts := map[string]*docblock.Tag{}
	for i := range doc.Tags {
		if doc.Tags[i].Name == "param-out" && doc.Tags[i].Variable != "" {
			paramOuts[doc.Tags[i].Variable] = &doc.Tags[i]
		}
	}

	for _, p := range params {
		if p.Name == nil {
			continue
		}
		pm := codebase.ParameterMetadata{
			Name:       sc.interner.Intern(p.Name.Name),
			ByRef:      p.ByRef,
			Variadic:   p.Variadic,
			HasDefault: p.DefaultValue != nil,
			IsPromoted: p.PromotedVisibility != "",
			At:         p.Name.Span(),
		}
		if p.Type != nil {
			pm.SignatureType = sc.TypeFromHint(p.Type, scope)
		}
		if tag, ok := paramDocs[p.Name.Name]; ok {
			pm.DocType = sc.TypeFromDocExpr(tag.Type, scope)
		}
		if tag, ok := paramOuts[p.Name.Name]; ok {
			pm.OutType = sc.TypeFromDocExpr(tag.Type, scope)
		}
		if p.DefaultValue != nil {
			pm.DefaultType = sc.InferLiteralType(p.DefaultValue)
		}
		fl.Parameters = append(fl.Parameters, pm)
	}

	if returnType != nil {
		fl.ReturnSignatureType = sc.TypeFromHint(returnType, scope)
	}
	if ret := doc.FirstNamed("return"); ret != nil {
		fl.ReturnDocType = sc.TypeFromDocExpr(ret.Type, scope)
	}
	return fl
}

// validateModifiers reports duplicate modifiers and modifiers invalid for
// the member kind.
func (sc *Scanner) validateModifiers(collector *issue.Collector, modifiers []string, invalid map[string]bool, kind string, at span.Span) {
	seen := map[string]bool{}
	seenVisibility := false
	for _, m := range modifiers {
		if seen[m] {
			collector.Add(issue.New(issue.DuplicateModifier, issue.Error,
				"duplicate modifier "+m+" on "+kind, at))
			continue
		}
		seen[m] = true

		if isVisibilityKeyword(m) {
			if seenVisibility {
				collector.Add(issue.New(issue.DuplicateModifier, issue.Error,
					"multiple visibility modifiers on "+kind, at))
			}
			seenVisibility = true
		}
		if invalid != nil && invalid[m] {
			collector.Add(issue.New(issue.InvalidScanModifier, issue.Error,
				"modifier "+m+" cannot be applied to a "+kind, at))
		}
	}
}

func isVisibilityKeyword(m string) bool {
	switch m {
	case "public", "protected", "private", "var":
		return true
	}
	return false
}

func (sc *Scanner) docVarType(doc *docblock.Doc, scope TemplateScope) *typeir.TUnion {
	tag := doc.FirstNamed("var")
	if tag == nil {
		return nil
	}
	return sc.TypeFromDocExpr(tag.Type, scope)
}

func parseDocFromDecl(doc *phpast.DocComment) *docblock.Doc {
	return parseDoc(doc)
}
