package phpparse

import (
	"github.com/krizos/phpanalyze/internal/phpast"
	"github.com/krizos/phpanalyze/internal/phplex"
)

func (p *Parser) parseFunctionDeclaration() *phpast.FunctionDeclaration {
	start := p.curToken.Pos
	decl := &phpast.FunctionDeclaration{Doc: p.takeDoc()}

	if p.peekTokenIs(phplex.AMPERSAND) || p.peekTokenIs(phplex.BITWISE_AND) {
		p.nextToken()
		decl.ByRefReturn = true
	}
	if !p.expectPeek(phplex.IDENT) {
		return nil
	}
	name := &phpast.Identifier{Name: p.curToken.Literal}
	name.Sp = p.span(p.curToken.Pos)
	decl.Name = name

	if !p.expectPeek(phplex.LPAREN) {
		return nil
	}
	decl.Parameters = p.parseParameterList()

	if p.peekTokenIs(phplex.COLON) {
		p.nextToken()
		p.nextToken()
		decl.ReturnType = p.parseTypeAnnotation()
	}

	if !p.expectPeek(phplex.LBRACE) {
		return nil
	}
	decl.Body = p.parseBlockStatement()
	decl.Sp = p.span(start)
	return decl
}

// parseParameterList parses a function/method/closure parameter list with
// curToken on the opening LPAREN, leaving curToken on the closing RPAREN.
func (p *Parser) parseParameterList() []*phpast.Param {
	var params []*phpast.Param
	if p.peekTokenIs(phplex.RPAREN) {
		p.nextToken()
		return params
	}
	p.nextToken()
	params = append(params, p.parseParameter())
	for p.peekTokenIs(phplex.COMMA) {
		p.nextToken()
		if p.peekTokenIs(phplex.RPAREN) {
			break
		}
		p.nextToken()
		params = append(params, p.parseParameter())
	}
	p.expectPeek(phplex.RPAREN)
	return params
}

func (p *Parser) parseParameter() *phpast.Param {
	param := &phpast.Param{}

	// Constructor property promotion modifiers.
	for {
		switch p.curToken.Type {
		case phplex.PUBLIC, phplex.PROTECTED, phplex.PRIVATE:
			param.PromotedVisibility = p.curToken.Literal
			p.nextToken()
			continue
		case phplex.READONLY:
			param.Readonly = true
			p.nextToken()
			continue
		}
		break
	}

	if !p.curTokenIs(phplex.VARIABLE) && !p.curTokenIs(phplex.AMPERSAND) &&
		!p.curTokenIs(phplex.BITWISE_AND) && !p.curTokenIs(phplex.ELLIPSIS) {
		param.Type = p.parseTypeAnnotation()
		p.nextToken()
	}

	if p.curTokenIs(phplex.AMPERSAND) || p.curTokenIs(phplex.BITWISE_AND) {
		param.ByRef = true
		p.nextToken()
	}
	if p.curTokenIs(phplex.ELLIPSIS) {
		param.Variadic = true
		p.nextToken()
	}

	if !p.curTokenIs(phplex.VARIABLE) {
		p.error("expected a parameter variable, got " + p.curToken.Type.String())
		return param
	}
	v := &phpast.Variable{Name: p.curToken.Literal}
	v.Sp = p.span(p.curToken.Pos)
	param.Name = v

	if p.peekTokenIs(phplex.ASSIGN) {
		p.nextToken()
		p.nextToken()
		param.DefaultValue = p.parseExpression(LOWEST)
	}
	return param
}

func (p *Parser) parseModifiedClassDeclaration() phpast.Statement {
	abstract := false
	final := false
	for p.curTokenIs(phplex.ABSTRACT) || p.curTokenIs(phplex.FINAL) {
		if p.curTokenIs(phplex.ABSTRACT) {
			abstract = true
		} else {
			final = true
		}
		p.nextToken()
	}
	if !p.curTokenIs(phplex.CLASS) {
		p.error("expected 'class' after abstract/final, got " + p.curToken.Type.String())
		return nil
	}
	return p.parseClassDeclaration(abstract, final)
}

func (p *Parser) parseClassDeclaration(abstract, final bool) *phpast.ClassDeclaration {
	start := p.curToken.Pos
	decl := &phpast.ClassDeclaration{Abstract: abstract, Final: final, Doc: p.takeDoc()}

	if !p.expectPeek(phplex.IDENT) {
		return nil
	}
	name := &phpast.Identifier{Name: p.curToken.Literal}
	name.Sp = p.span(p.curToken.Pos)
	decl.Name = name

	if p.peekTokenIs(phplex.EXTENDS) {
		p.nextToken()
		p.nextToken()
		decl.Extends = p.parseNamedTypeFromIdent()
	}
	if p.peekTokenIs(phplex.IMPLEMENTS) {
		p.nextToken()
		decl.Implements = p.parseNamedTypeList()
	}

	if !p.expectPeek(phplex.LBRACE) {
		return nil
	}
	decl.Body = p.parseClassBody()
	decl.Sp = p.span(start)
	return decl
}

// parseClassBody parses class/trait members with curToken on the opening
// LBRACE, leaving curToken on the closing RBRACE.
func (p *Parser) parseClassBody() []phpast.Statement {
	var body []phpast.Statement
	p.nextToken()
	for !p.curTokenIs(phplex.RBRACE) && !p.curTokenIs(phplex.EOF) {
		switch p.curToken.Type {
		case phplex.COMMENT, phplex.SEMICOLON:
			p.nextToken()
			continue
		case phplex.DOC_COMMENT:
			p.stashDocComment()
			p.nextToken()
			continue
		}
		member := p.parseClassMember()
		if member != nil {
			body = append(body, member)
		}
		p.nextToken()
	}
	return body
}

var memberModifierTokens = map[phplex.TokenType]bool{
	phplex.PUBLIC: true, phplex.PROTECTED: true, phplex.PRIVATE: true,
	phplex.STATIC: true, phplex.ABSTRACT: true, phplex.FINAL: true,
	phplex.READONLY: true, phplex.VAR: true,
}

func (p *Parser) parseClassMember() phpast.Statement {
	if p.curTokenIs(phplex.USE) {
		return p.parseTraitUse()
	}

	// Collect every leading modifier as written; validity is the scanner's
	// concern, the parser just records them.
	var modifiers []string
	for memberModifierTokens[p.curToken.Type] {
		mod := p.curToken.Literal
		// Asymmetric visibility: `public(set)` / `protected(set)` /
		// `private(set)` lexes as the keyword plus a parenthesized `set`.
		if (p.curTokenIs(phplex.PUBLIC) || p.curTokenIs(phplex.PROTECTED) || p.curTokenIs(phplex.PRIVATE)) &&
			p.peekTokenIs(phplex.LPAREN) {
			p.nextToken()
			if p.expectPeek(phplex.IDENT) {
				mod += "(" + p.curToken.Literal + ")"
			}
			p.expectPeek(phplex.RPAREN)
		}
		modifiers = append(modifiers, mod)
		p.nextToken()
	}

	switch p.curToken.Type {
	case phplex.CONST:
		return p.parseClassConstant(modifiers)
	case phplex.FUNCTION:
		return p.parseMethodDeclaration(modifiers)
	default:
		return p.parsePropertyDeclaration(modifiers)
	}
}

func splitModifiers(modifiers []string) (visibility, writeVisibility string, static, abstract, final, readonly bool) {
	visibility = "public"
	seenVisibility := false
	for _, m := range modifiers {
		switch m {
		case "public", "protected", "private", "var":
			if !seenVisibility {
				if m == "var" {
					visibility = "public"
				} else {
					visibility = m
				}
				seenVisibility = true
			}
		case "public(set)", "protected(set)", "private(set)":
			writeVisibility = m[:len(m)-len("(set)")]
		case "static":
			static = true
		case "abstract":
			abstract = true
		case "final":
			final = true
		case "readonly":
			readonly = true
		}
	}
	return
}

func (p *Parser) parseMethodDeclaration(modifiers []string) *phpast.MethodDeclaration {
	start := p.curToken.Pos
	visibility, _, static, abstract, final, _ := splitModifiers(modifiers)
	decl := &phpast.MethodDeclaration{
		Visibility: visibility,
		Static:     static,
		Abstract:   abstract,
		Final:      final,
		Doc:        p.takeDoc(),
	}

	if p.peekTokenIs(phplex.AMPERSAND) || p.peekTokenIs(phplex.BITWISE_AND) {
		p.nextToken()
		decl.ByRefReturn = true
	}
	p.nextToken()
	name := &phpast.Identifier{Name: p.curToken.Literal}
	name.Sp = p.span(p.curToken.Pos)
	decl.Name = name

	if !p.expectPeek(phplex.LPAREN) {
		return nil
	}
	decl.Parameters = p.parseParameterList()

	if p.peekTokenIs(phplex.COLON) {
		p.nextToken()
		p.nextToken()
		decl.ReturnType = p.parseTypeAnnotation()
	}

	if p.peekTokenIs(phplex.LBRACE) {
		p.nextToken()
		decl.Body = p.parseBlockStatement()
	} else if p.peekTokenIs(phplex.SEMICOLON) {
		p.nextToken()
	}

	decl.Sp = p.span(start)
	return decl
}

func (p *Parser) parsePropertyDeclaration(modifiers []string) *phpast.PropertyDeclaration {
	start := p.curToken.Pos
	visibility, writeVisibility, static, abstract, _, readonly := splitModifiers(modifiers)
	decl := &phpast.PropertyDeclaration{
		Visibility:      visibility,
		WriteVisibility: writeVisibility,
		Static:          static,
		Abstract:        abstract,
		Readonly:        readonly,
		Modifiers:       modifiers,
		Doc:             p.takeDoc(),
	}

	if !p.curTokenIs(phplex.VARIABLE) {
		decl.Type = p.parseTypeAnnotation()
		p.nextToken()
	}

	for {
		if !p.curTokenIs(phplex.VARIABLE) {
			p.error("expected a property variable, got " + p.curToken.Type.String())
			return decl
		}
		item := &phpast.PropertyItem{}
		v := &phpast.Variable{Name: p.curToken.Literal}
		v.Sp = p.span(p.curToken.Pos)
		item.Name = v
		if p.peekTokenIs(phplex.ASSIGN) {
			p.nextToken()
			p.nextToken()
			item.DefaultValue = p.parseExpression(LOWEST)
		}
		decl.Properties = append(decl.Properties, item)

		if p.peekTokenIs(phplex.COMMA) {
			p.nextToken()
			p.nextToken()
			continue
		}
		break
	}

	if p.peekTokenIs(phplex.SEMICOLON) {
		p.nextToken()
	}
	decl.Sp = p.span(start)
	return decl
}

func (p *Parser) parseClassConstant(modifiers []string) *phpast.ClassConstantDeclaration {
	start := p.curToken.Pos
	visibility, _, _, _, final, _ := splitModifiers(modifiers)
	decl := &phpast.ClassConstantDeclaration{
		Visibility: visibility,
		Final:      final,
		Modifiers:  modifiers,
		Doc:        p.takeDoc(),
	}

	// Typed constants: `const int FOO = 1`. Two identifier-ish tokens in a
	// row means the first was a type.
	if p.peekIsTypedConstant() {
		p.nextToken()
		decl.Type = p.parseTypeAnnotation()
	}

	for p.peekTokenIs(phplex.IDENT) {
		p.nextToken()
		item := &phpast.ConstItem{}
		ident := &phpast.Identifier{Name: p.curToken.Literal}
		ident.Sp = p.span(p.curToken.Pos)
		item.Name = ident
		if !p.expectPeek(phplex.ASSIGN) {
			return decl
		}
		p.nextToken()
		item.Value = p.parseExpression(LOWEST)
		decl.Constants = append(decl.Constants, item)
		if p.peekTokenIs(phplex.COMMA) {
			p.nextToken()
		}
	}

	if p.peekTokenIs(phplex.SEMICOLON) {
		p.nextToken()
	}
	decl.Sp = p.span(start)
	return decl
}

// peekIsTypedConstant reports whether the tokens after `const` spell a type
// followed by the constant name, rather than the name itself.
func (p *Parser) peekIsTypedConstant() bool {
	if scalarTypeTokens[p.peekToken.Type] || p.peekToken.Type == phplex.QUESTION {
		return true
	}
	if p.peekToken.Type == phplex.IDENT && p.pos < len(p.tokens) && p.tokens[p.pos].Type == phplex.IDENT {
		return true
	}
	return false
}

func (p *Parser) parseInterfaceDeclaration() *phpast.InterfaceDeclaration {
	start := p.curToken.Pos
	decl := &phpast.InterfaceDeclaration{Doc: p.takeDoc()}

	if !p.expectPeek(phplex.IDENT) {
		return nil
	}
	name := &phpast.Identifier{Name: p.curToken.Literal}
	name.Sp = p.span(p.curToken.Pos)
	decl.Name = name

	if p.peekTokenIs(phplex.EXTENDS) {
		p.nextToken()
		decl.Extends = p.parseNamedTypeList()
	}

	if !p.expectPeek(phplex.LBRACE) {
		return nil
	}

	p.nextToken()
	for !p.curTokenIs(phplex.RBRACE) && !p.curTokenIs(phplex.EOF) {
		switch p.curToken.Type {
		case phplex.COMMENT, phplex.SEMICOLON:
			p.nextToken()
			continue
		case phplex.DOC_COMMENT:
			p.stashDocComment()
			p.nextToken()
			continue
		case phplex.CONST:
			if c := p.parseClassConstant(nil); c != nil {
				decl.Constants = append(decl.Constants, c)
			}
		case phplex.PUBLIC, phplex.STATIC:
			// Interface methods may carry `public`/`static`; collect and
			// fall through to the signature.
			for p.curTokenIs(phplex.PUBLIC) || p.curTokenIs(phplex.STATIC) {
				p.nextToken()
			}
			if p.curTokenIs(phplex.CONST) {
				if c := p.parseClassConstant(nil); c != nil {
					decl.Constants = append(decl.Constants, c)
				}
			} else if sig := p.parseMethodSignature(); sig != nil {
				decl.Body = append(decl.Body, sig)
			}
		case phplex.FUNCTION:
			if sig := p.parseMethodSignature(); sig != nil {
				decl.Body = append(decl.Body, sig)
			}
		default:
			p.error("unexpected token in interface body: " + p.curToken.Type.String())
		}
		p.nextToken()
	}

	decl.Sp = p.span(start)
	return decl
}

func (p *Parser) parseMethodSignature() *phpast.MethodSignature {
	sig := &phpast.MethodSignature{Doc: p.takeDoc()}
	if !p.curTokenIs(phplex.FUNCTION) {
		p.error("expected 'function' in interface body, got " + p.curToken.Type.String())
		return nil
	}
	p.nextToken()
	name := &phpast.Identifier{Name: p.curToken.Literal}
	name.Sp = p.span(p.curToken.Pos)
	sig.Name = name

	if !p.expectPeek(phplex.LPAREN) {
		return nil
	}
	sig.Parameters = p.parseParameterList()

	if p.peekTokenIs(phplex.COLON) {
		p.nextToken()
		p.nextToken()
		sig.ReturnType = p.parseTypeAnnotation()
	}
	if p.peekTokenIs(phplex.SEMICOLON) {
		p.nextToken()
	}
	return sig
}

func (p *Parser) parseTraitDeclaration() *phpast.TraitDeclaration {
	start := p.curToken.Pos
	decl := &phpast.TraitDeclaration{Doc: p.takeDoc()}

	if !p.expectPeek(phplex.IDENT) {
		return nil
	}
	name := &phpast.Identifier{Name: p.curToken.Literal}
	name.Sp = p.span(p.curToken.Pos)
	decl.Name = name

	if !p.expectPeek(phplex.LBRACE) {
		return nil
	}
	decl.Body = p.parseClassBody()
	decl.Sp = p.span(start)
	return decl
}

func (p *Parser) parseTraitUse() *phpast.TraitUse {
	start := p.curToken.Pos
	use := &phpast.TraitUse{}

	p.nextToken()
	use.Traits = append(use.Traits, p.parseNamedTypeFromIdent())
	for p.peekTokenIs(phplex.COMMA) {
		p.nextToken()
		p.nextToken()
		use.Traits = append(use.Traits, p.parseNamedTypeFromIdent())
	}

	if p.peekTokenIs(phplex.LBRACE) {
		p.nextToken()
		p.nextToken()
		for !p.curTokenIs(phplex.RBRACE) && !p.curTokenIs(phplex.EOF) {
			if adaptation := p.parseTraitUseAdaptation(); adaptation != nil {
				use.Adaptations = append(use.Adaptations, adaptation)
			}
			p.nextToken()
		}
	} else if p.peekTokenIs(phplex.SEMICOLON) {
		p.nextToken()
	}

	use.Sp = p.span(start)
	return use
}

func (p *Parser) parseTraitUseAdaptation() *phpast.TraitUseAdaptation {
	if p.curTokenIs(phplex.SEMICOLON) {
		return nil
	}
	a := &phpast.TraitUseAdaptation{}

	first := p.parseNamedTypeFromIdent()
	if p.peekTokenIs(phplex.PAAMAYIM_NEKUDOTAYIM) {
		a.Trait = first
		p.nextToken()
		p.nextToken()
		a.Method = p.curToken.Literal
	} else {
		a.Method = first.Name
	}

	switch {
	case p.peekTokenIs(phplex.INSTEADOF):
		p.nextToken()
		p.nextToken()
		a.InsteadOf = append(a.InsteadOf, p.parseNamedTypeFromIdent())
		for p.peekTokenIs(phplex.COMMA) {
			p.nextToken()
			p.nextToken()
			a.InsteadOf = append(a.InsteadOf, p.parseNamedTypeFromIdent())
		}
	case p.peekTokenIs(phplex.AS):
		p.nextToken()
		p.nextToken()
		switch p.curToken.Type {
		case phplex.PUBLIC, phplex.PROTECTED, phplex.PRIVATE:
			a.AsVisibility = p.curToken.Literal
			if p.peekTokenIs(phplex.IDENT) {
				p.nextToken()
				a.AsAlias = p.curToken.Literal
			}
		default:
			a.AsAlias = p.curToken.Literal
		}
	}

	if p.peekTokenIs(phplex.SEMICOLON) {
		p.nextToken()
	}
	return a
}

func (p *Parser) parseEnumDeclaration() *phpast.EnumDeclaration {
	start := p.curToken.Pos
	decl := &phpast.EnumDeclaration{Doc: p.takeDoc()}

	if !p.expectPeek(phplex.IDENT) {
		return nil
	}
	name := &phpast.Identifier{Name: p.curToken.Literal}
	name.Sp = p.span(p.curToken.Pos)
	decl.Name = name

	if p.peekTokenIs(phplex.COLON) {
		p.nextToken()
		p.nextToken()
		decl.BackingType = p.parseTypeAnnotation()
	}
	if p.peekTokenIs(phplex.IMPLEMENTS) {
		p.nextToken()
		decl.Implements = p.parseNamedTypeList()
	}

	if !p.expectPeek(phplex.LBRACE) {
		return nil
	}

	p.nextToken()
	for !p.curTokenIs(phplex.RBRACE) && !p.curTokenIs(phplex.EOF) {
		switch p.curToken.Type {
		case phplex.COMMENT, phplex.SEMICOLON:
			p.nextToken()
			continue
		case phplex.DOC_COMMENT:
			p.stashDocComment()
			p.nextToken()
			continue
		case phplex.CASE:
			c := &phpast.EnumCase{}
			p.nextToken()
			caseName := &phpast.Identifier{Name: p.curToken.Literal}
			caseName.Sp = p.span(p.curToken.Pos)
			c.Name = caseName
			if p.peekTokenIs(phplex.ASSIGN) {
				p.nextToken()
				p.nextToken()
				c.Value = p.parseExpression(LOWEST)
			}
			if p.peekTokenIs(phplex.SEMICOLON) {
				p.nextToken()
			}
			decl.Cases = append(decl.Cases, c)
		default:
			member := p.parseClassMember()
			if member != nil {
				decl.Body = append(decl.Body, member)
			}
		}
		p.nextToken()
	}

	decl.Sp = p.span(start)
	return decl
}
