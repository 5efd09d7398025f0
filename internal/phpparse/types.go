package phpparse

import (
	"github.com/krizos/phpanalyze/internal/phpast"
	"github.com/krizos/phpanalyze/internal/phplex"
)

var scalarTypeTokens = map[phplex.TokenType]bool{
	phplex.INT: true, phplex.FLOAT_TYPE: true, phplex.BOOL: true, phplex.STRING_TYPE: true,
	phplex.ARRAY: true, phplex.OBJECT: true, phplex.CALLABLE: true, phplex.ITERABLE: true,
	phplex.VOID: true, phplex.NEVER: true, phplex.MIXED: true, phplex.NULL: true,
	phplex.SELF: true, phplex.PARENT_KW: true, phplex.STATIC: true,
}

// parseTypeAnnotation parses a (possibly nullable/union/intersection) type
// with curToken already positioned on its first token.
func (p *Parser) parseTypeAnnotation() phpast.TypeNode {
	if p.curTokenIs(phplex.QUESTION) {
		start := p.curToken.Pos
		p.nextToken()
		inner := p.parseSingleType()
		n := &phpast.NullableType{Type: inner}
		n.Sp = p.span(start)
		return n
	}

	first := p.parseSingleType()

	if p.peekTokenIs(phplex.BITWISE_OR) {
		start := first.Span()
		types := []phpast.TypeNode{first}
		for p.peekTokenIs(phplex.BITWISE_OR) {
			p.nextToken()
			p.nextToken()
			types = append(types, p.parseSingleType())
		}
		n := &phpast.UnionType{Types: types}
		n.Sp = p.spanFrom(start)
		return n
	}

	if p.peekTokenIs(phplex.BITWISE_AND) && p.peekIsIntersectionContinuation() {
		start := first.Span()
		types := []phpast.TypeNode{first}
		for p.peekTokenIs(phplex.BITWISE_AND) && p.peekIsIntersectionContinuation() {
			p.nextToken()
			p.nextToken()
			types = append(types, p.parseSingleType())
		}
		n := &phpast.IntersectionType{Types: types}
		n.Sp = p.spanFrom(start)
		return n
	}

	return first
}

// peekIsIntersectionContinuation disambiguates `Foo&Bar` (intersection type)
// from `Foo &$ref` (a by-ref parameter following a single type), by
// requiring the token after `&` to be an identifier, not a variable.
func (p *Parser) peekIsIntersectionContinuation() bool {
	return p.pos < len(p.tokens) && p.tokens[p.pos].Type == phplex.IDENT
}

func (p *Parser) parseSingleType() phpast.TypeNode {
	start := p.curToken.Pos

	if p.curTokenIs(phplex.LPAREN) {
		p.nextToken()
		inner := p.parseTypeAnnotation()
		p.expectPeek(phplex.RPAREN)
		return inner
	}

	if scalarTypeTokens[p.curToken.Type] || p.curTokenIs(phplex.IDENT) || p.curTokenIs(phplex.NS_SEPARATOR) {
		name := p.curToken.Literal
		for p.peekTokenIs(phplex.NS_SEPARATOR) {
			p.nextToken()
			p.nextToken()
			name += "\\" + p.curToken.Literal
		}
		n := &phpast.NamedType{Name: name}
		n.Sp = p.span(start)
		return n
	}

	p.error("expected a type name, got " + p.curToken.Type.String())
	n := &phpast.NamedType{Name: p.curToken.Literal}
	n.Sp = p.span(start)
	return n
}

func (p *Parser) parseNamedTypeFromIdent() *phpast.NamedType {
	start := p.curToken.Pos
	name := p.curToken.Literal
	for p.peekTokenIs(phplex.NS_SEPARATOR) {
		p.nextToken()
		p.nextToken()
		name += "\\" + p.curToken.Literal
	}
	n := &phpast.NamedType{Name: name}
	n.Sp = p.span(start)
	return n
}

// parseNamedTypeList parses a comma-separated list of class-like names,
// used for `implements`/`extends` (interfaces) clauses. curToken is on the
// keyword that introduced the list; it advances onto the first name.
func (p *Parser) parseNamedTypeList() []*phpast.NamedType {
	p.nextToken()
	list := []*phpast.NamedType{p.parseNamedTypeFromIdent()}
	for p.peekTokenIs(phplex.COMMA) {
		p.nextToken()
		p.nextToken()
		list = append(list, p.parseNamedTypeFromIdent())
	}
	return list
}
