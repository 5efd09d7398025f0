// Package scanner turns parsed files into CodebaseMetadata contributions:
// one pass per file over the AST and its docblocks, producing class-like,
// function-like and constant records plus scan-time issues (spec.md §4.2).
package scanner

import (
	"strings"

	"go.uber.org/zap"

	"github.com/krizos/phpanalyze/codebase"
	"github.com/krizos/phpanalyze/internal/docblock"
	"github.com/krizos/phpanalyze/internal/interner"
	"github.com/krizos/phpanalyze/internal/phpast"
	"github.com/krizos/phpanalyze/internal/span"
	"github.com/krizos/phpanalyze/internal/symbolid"
	"github.com/krizos/phpanalyze/issue"
	"github.com/krizos/phpanalyze/phpsettings"
	"github.com/krizos/phpanalyze/typeir"
)

// ResolvedNames maps identifier-reference spans to fully-qualified names,
// supplied by the external name resolver. Lookups for spans it does not
// cover fall back to the name as written (spec.md §6).
type ResolvedNames map[span.Span]string

// Resolve returns the fully-qualified form of a name written at sp.
func (r ResolvedNames) Resolve(sp span.Span, written string) string {
	if r != nil {
		if fq, ok := r[sp]; ok {
			return fq
		}
	}
	return strings.TrimPrefix(written, "\\")
}

// ParsedFile is the unit of input the core consumes (spec.md §6).
type ParsedFile struct {
	Source        span.SourceId
	Path          string
	Program       *phpast.Program
	ResolvedNames ResolvedNames
}

// Scanner scans one file at a time into a fresh per-file store; the scan
// phase merges the stores afterwards so no lock guards the codebase.
type Scanner struct {
	interner *interner.Interner
	settings phpsettings.Settings
	logger   *zap.Logger
}

// New builds a Scanner sharing the run's interner.
func New(in *interner.Interner, settings phpsettings.Settings, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{interner: in, settings: settings.Normalize(), logger: logger}
}

func (sc *Scanner) threshold() int {
	return sc.settings.LiteralWideningThreshold
}

// ScanFile scans one parsed file, returning its metadata contribution and
// any scan-time issues.
func (sc *Scanner) ScanFile(file ParsedFile) (*codebase.CodebaseMetadata, []issue.Issue) {
	store := codebase.New(sc.interner)
	collector := issue.NewCollector()

	for _, stmt := range file.Program.Statements {
		switch s := stmt.(type) {
		case *phpast.ClassDeclaration:
			sc.scanClass(store, collector, file, s)
		case *phpast.InterfaceDeclaration:
			sc.scanInterface(store, collector, file, s)
		case *phpast.TraitDeclaration:
			sc.scanTrait(store, collector, file, s)
		case *phpast.EnumDeclaration:
			sc.scanEnum(store, collector, file, s)
		case *phpast.FunctionDeclaration:
			sc.scanFunction(store, collector, file, s)
		case *phpast.ConstStatement:
			sc.scanConstStatement(store, s)
		case *phpast.ExpressionStatement:
			sc.scanDefineCall(store, s)
		}
	}

	sc.logger.Debug("scanned file",
		zap.String("file", file.Path),
		zap.Int("issues", collector.Len()))
	return store, collector.Issues()
}

// ---- class-likes ----

func (sc *Scanner) scanClass(store *codebase.CodebaseMetadata, collector *issue.Collector, file ParsedFile, decl *phpast.ClassDeclaration) {
	meta := sc.newClassLike(file, decl.Name, codebase.KindClass)
	meta.IsAbstract = decl.Abstract
	meta.IsFinal = decl.Final
	meta.At = decl.Span()

	doc := parseDoc(decl.Doc)
	sc.applyClassDoc(meta, doc)
	scope := NewTemplateScope(sc.interner, meta.Templates, meta.Lowered)

	if decl.Extends != nil {
		meta.DirectParent = sc.interner.InternLower(file.ResolvedNames.Resolve(decl.Extends.Span(), decl.Extends.Name))
	}
	for _, iface := range decl.Implements {
		meta.DirectInterfaces = append(meta.DirectInterfaces, sc.interner.InternLower(file.ResolvedNames.Resolve(iface.Span(), iface.Name)))
	}
	sc.applyExtendedTemplates(meta, doc, scope)

	sc.scanClassBody(store, collector, file, meta, decl.Body, scope)
	store.AddClassLike(meta)
}

func (sc *Scanner) scanInterface(store *codebase.CodebaseMetadata, collector *issue.Collector, file ParsedFile, decl *phpast.InterfaceDeclaration) {
	meta := sc.newClassLike(file, decl.Name, codebase.KindInterface)
	meta.At = decl.Span()

	doc := parseDoc(decl.Doc)
	sc.applyClassDoc(meta, doc)
	scope := NewTemplateScope(sc.interner, meta.Templates, meta.Lowered)

	// Interface extends-parents behave as implemented interfaces for the
	// inheritance closure.
	for _, parent := range decl.Extends {
		meta.DirectInterfaces = append(meta.DirectInterfaces, sc.interner.InternLower(file.ResolvedNames.Resolve(parent.Span(), parent.Name)))
	}
	sc.applyExtendedTemplates(meta, doc, scope)

	for _, c := range decl.Constants {
		sc.scanClassConstants(collector, meta, c, scope)
	}
	for _, sig := range decl.Body {
		fl := sc.buildFunctionLike(collector, file,
			symbolid.NewMethod(meta.Lowered, sc.interner.InternLower(sig.Name.Name)),
			sig.Name.Name, sig.Parameters, sig.ReturnType, parseDoc(sig.Doc), scope, meta)
		fl.IsAbstract = true
		fl.Visibility = codebase.Public
		store.FunctionLikes[fl.Id] = fl
		meta.Methods[sc.interner.InternLower(sig.Name.Name)] = true
	}

	store.AddClassLike(meta)
}

func (sc *Scanner) scanTrait(store *codebase.CodebaseMetadata, collector *issue.Collector, file ParsedFile, decl *phpast.TraitDeclaration) {
	meta := sc.newClassLike(file, decl.Name, codebase.KindTrait)
	meta.At = decl.Span()

	doc := parseDoc(decl.Doc)
	sc.applyClassDoc(meta, doc)
	scope := NewTemplateScope(sc.interner, meta.Templates, meta.Lowered)

	sc.scanClassBody(store, collector, file, meta, decl.Body, scope)
	store.AddClassLike(meta)
}

func (sc *Scanner) scanEnum(store *codebase.CodebaseMetadata, collector *issue.Collector, file ParsedFile, decl *phpast.EnumDeclaration) {
	meta := sc.newClassLike(file, decl.Name, codebase.KindEnum)
	meta.At = decl.Span()

	doc := parseDoc(decl.Doc)
	sc.applyClassDoc(meta, doc)
	scope := NewTemplateScope(sc.interner, meta.Templates, meta.Lowered)

	if decl.BackingType != nil {
		meta.BackingType = sc.TypeFromHint(decl.BackingType, scope)
	}
	for _, iface := range decl.Implements {
		meta.DirectInterfaces = append(meta.DirectInterfaces, sc.interner.InternLower(file.ResolvedNames.Resolve(iface.Span(), iface.Name)))
	}

	for _, c := range decl.Cases {
		sc.scanEnumCase(collector, meta, c)
	}
	sc.scanClassBody(store, collector, file, meta, decl.Body, scope)
	store.AddClassLike(meta)
}

func (sc *Scanner) scanEnumCase(collector *issue.Collector, meta *codebase.ClassLikeMetadata, c *phpast.EnumCase) {
	caseMeta := &codebase.EnumCaseMetadata{
		Name: sc.interner.Intern(c.Name.Name),
		At:   c.Name.Span(),
	}
	if c.Value != nil {
		caseMeta.ValueType = sc.InferLiteralType(c.Value)
		if meta.BackingType == nil {
			collector.Add(issue.New(issue.InvalidEnumCaseValue, issue.Error,
				"case "+c.Name.Name+" of a pure enum cannot carry a value", c.Name.Span()))
		} else if !typeir.IsContainedBy(caseMeta.ValueType, meta.BackingType, typeir.ContainmentContext{}).Matched {
			collector.Add(issue.New(issue.InvalidEnumCaseValue, issue.Error,
				"case "+c.Name.Name+" does not match the enum backing type", c.Name.Span()))
		}
	} else if meta.BackingType != nil {
		collector.Add(issue.New(issue.InvalidEnumCaseValue, issue.Error,
			"case "+c.Name.Name+" of a backed enum must carry a value", c.Name.Span()))
	}
	key := sc.interner.Lowered(caseMeta.Name)
	meta.EnumCases[key] = caseMeta
	meta.CaseOrder = append(meta.CaseOrder, key)
}

func (sc *Scanner) newClassLike(file ParsedFile, name *phpast.Identifier, kind codebase.SymbolKind) *codebase.ClassLikeMetadata {
	resolved := file.ResolvedNames.Resolve(name.Span(), name.Name)
	id := sc.interner.Intern(resolved)
	return codebase.NewClassLike(id, sc.interner.Lowered(id), kind)
}

func (sc *Scanner) applyClassDoc(meta *codebase.ClassLikeMetadata, doc *docblock.Doc) {
	meta.Templates = sc.templatesFromDoc(doc, meta.Lowered)
	meta.IsDeprecated = doc.FirstNamed("deprecated") != nil
	meta.IsInternal = doc.FirstNamed("internal") != nil
	meta.IsPure = doc.FirstNamed("pure") != nil
	if doc.FirstNamed("readonly") != nil {
		meta.IsReadonly = true
	}

	// @property / @property-read / @property-write declare virtual
	// properties. @method tags are not recorded: they add no method to the
	// class-like's metadata.
	scope := NewTemplateScope(sc.interner, meta.Templates, meta.Lowered)
	for _, name := range []string{"property", "property-read", "property-write"} {
		for _, tag := range doc.TagsNamed(name) {
			if tag.Value == "" {
				continue
			}
			id := sc.interner.Intern(tag.Value)
			prop := &codebase.PropertyMetadata{
				Name:     id,
				DocType:  sc.TypeFromDocExpr(tag.Type, scope),
				IsVirtual: true,
			}
			if name == "property-write" {
				prop.ReadVisibility = codebase.Private
			}
			meta.Properties[sc.interner.Lowered(id)] = prop
		}
	}
}

// applyExtendedTemplates records the concrete template arguments the
// @extends/@implements/@template-extends tags supply for generic ancestors;
// the populator flattens them transitively.
func (sc *Scanner) applyExtendedTemplates(meta *codebase.ClassLikeMetadata, doc *docblock.Doc, scope TemplateScope) {
	for _, name := range []string{"extends", "implements", "template-extends", "template-implements"} {
		for _, tag := range doc.TagsNamed(name) {
			if tag.Type == nil || tag.Type.Kind != docblock.ExprGeneric {
				continue
			}
			parent, ok := sc.lookupGenericAncestorName(tag.Type.Name)
			if !ok {
				continue
			}
			var args []codebase.NamedUnion
			for _, argExpr := range tag.Type.Args {
				// Parameter names are assigned positionally by the
				// populator once the ancestor's own template list is known.
				args = append(args, codebase.NamedUnion{
					Type: sc.orMixed(sc.TypeFromDocExpr(argExpr, scope)),
				})
			}
			meta.TemplateExtendedParams[parent] = args
		}
	}
}

func (sc *Scanner) lookupGenericAncestorName(name string) (interner.StringId, bool) {
	trimmed := strings.TrimPrefix(name, "\\")
	if trimmed == "" {
		return 0, false
	}
	return sc.interner.InternLower(trimmed), true
}

// ---- functions and constants ----

func (sc *Scanner) scanFunction(store *codebase.CodebaseMetadata, collector *issue.Collector, file ParsedFile, decl *phpast.FunctionDeclaration) {
	resolved := file.ResolvedNames.Resolve(decl.Name.Span(), decl.Name.Name)
	lowered := sc.interner.InternLower(resolved)
	doc := parseDoc(decl.Doc)

	fl := sc.buildFunctionLike(collector, file, symbolid.NewFunction(lowered),
		resolved, decl.Parameters, decl.ReturnType, doc, TemplateScope{}, nil)
	fl.At = decl.Span()
	store.FunctionLikes[fl.Id] = fl
}

func (sc *Scanner) scanConstStatement(store *codebase.CodebaseMetadata, decl *phpast.ConstStatement) {
	doc := parseDoc(decl.Doc)
	for _, item := range decl.Constants {
		id := sc.interner.Intern(item.Name.Name)
		store.Constants[id] = &codebase.ConstantMetadata{
			Name:         id,
			Type:         sc.InferLiteralType(item.Value),
			IsDeprecated: doc.FirstNamed("deprecated") != nil,
			IsInternal:   doc.FirstNamed("internal") != nil,
			At:           item.Name.Span(),
		}
	}
}

// scanDefineCall records `define('X', ...)` top-level constant definitions.
func (sc *Scanner) scanDefineCall(store *codebase.CodebaseMetadata, stmt *phpast.ExpressionStatement) {
	call, ok := stmt.Expression.(*phpast.CallExpression)
	if !ok {
		return
	}
	fn, ok := call.Function.(*phpast.Identifier)
	if !ok || !strings.EqualFold(fn.Name, "define") || len(call.Arguments) < 2 {
		return
	}
	nameLit, ok := call.Arguments[0].Value.(*phpast.StringLiteral)
	if !ok {
		return
	}
	id := sc.interner.Intern(nameLit.Value)
	store.Constants[id] = &codebase.ConstantMetadata{
		Name: id,
		Type: sc.InferLiteralType(call.Arguments[1].Value),
		At:   nameLit.Span(),
	}
}

// ---- docblock helpers ----

func parseDoc(doc *phpast.DocComment) *docblock.Doc {
	if doc == nil {
		return &docblock.Doc{}
	}
	return docblock.Parse(doc.Raw)
}

func (sc *Scanner) templatesFromDoc(doc *docblock.Doc, defining interner.StringId) []codebase.TemplateParam {
	var params []codebase.TemplateParam
	for _, t := range doc.Tags {
		if t.Name != "template" && t.Name != "template-covariant" {
			continue
		}
		if t.Value == "" {
			continue
		}
		param := codebase.TemplateParam{
			Name:      sc.interner.Intern(t.Value),
			Covariant: t.Name == "template-covariant",
		}
		if t.Type != nil {
			param.Bounds = append(param.Bounds, codebase.TemplateBound{
				DefiningEntity: defining,
				Constraint:     sc.orMixed(sc.TypeFromDocExpr(t.Type, TemplateScope{})),
			})
		}
		params = append(params, param)
	}
	return params
}
