// Package phpparse turns a phplex token stream into a phpast tree. Like
// phplex, it is an external-collaborator stand-in: phpanalyze.ParseSource
// wraps its output in the ParsedFile contract, and the non-test code of the
// analysis core never imports phpparse.
package phpparse

import (
	"fmt"

	"github.com/krizos/phpanalyze/internal/phpast"
	"github.com/krizos/phpanalyze/internal/phplex"
	"github.com/krizos/phpanalyze/internal/span"
)

// Operator precedence levels, lowest to highest.
const (
	LOWEST int = iota
	ASSIGNMENT
	TERNARY
	COALESCE_PREC
	LOGICAL_OR_PREC
	LOGICAL_AND_PREC
	BITWISE_OR_PREC
	BITWISE_XOR_PREC
	BITWISE_AND_PREC
	EQUALITY
	COMPARISON
	SPACESHIP_PREC
	CONCAT_PREC
	SUM
	PRODUCT
	INSTANCEOF_PREC
	UNARY
	POWER_PREC
	NEW_CLONE
	POSTFIX
)

var precedences = map[phplex.TokenType]int{
	phplex.ASSIGN:           ASSIGNMENT,
	phplex.PLUS_ASSIGN:      ASSIGNMENT,
	phplex.MINUS_ASSIGN:     ASSIGNMENT,
	phplex.MUL_ASSIGN:       ASSIGNMENT,
	phplex.DIV_ASSIGN:       ASSIGNMENT,
	phplex.MOD_ASSIGN:       ASSIGNMENT,
	phplex.CONCAT_ASSIGN:    ASSIGNMENT,
	phplex.POWER_ASSIGN:     ASSIGNMENT,
	phplex.COALESCE_ASSIGN:  ASSIGNMENT,
	phplex.QUESTION:         TERNARY,
	phplex.COALESCE:         COALESCE_PREC,
	phplex.LOGICAL_OR:       LOGICAL_OR_PREC,
	phplex.OR:               LOGICAL_OR_PREC,
	phplex.LOGICAL_AND:      LOGICAL_AND_PREC,
	phplex.AND:              LOGICAL_AND_PREC,
	phplex.XOR:              LOGICAL_AND_PREC,
	phplex.BITWISE_OR:       BITWISE_OR_PREC,
	phplex.BITWISE_XOR:      BITWISE_XOR_PREC,
	phplex.BITWISE_AND:      BITWISE_AND_PREC,
	phplex.EQ:               EQUALITY,
	phplex.IDENTICAL:        EQUALITY,
	phplex.NE:               EQUALITY,
	phplex.NOT_IDENTICAL:    EQUALITY,
	phplex.LT:               COMPARISON,
	phplex.LE:               COMPARISON,
	phplex.GT:               COMPARISON,
	phplex.GE:               COMPARISON,
	phplex.SPACESHIP:        SPACESHIP_PREC,
	phplex.CONCAT:           CONCAT_PREC,
	phplex.PLUS:             SUM,
	phplex.MINUS:            SUM,
	phplex.ASTERISK:         PRODUCT,
	phplex.SLASH:            PRODUCT,
	phplex.PERCENT:          PRODUCT,
	phplex.INSTANCEOF:       INSTANCEOF_PREC,
	phplex.POWER:            POWER_PREC,
	phplex.LBRACKET:         POSTFIX,
	phplex.OBJECT_OPERATOR:  POSTFIX,
	phplex.NULLSAFE_OPERATOR: POSTFIX,
	phplex.PAAMAYIM_NEKUDOTAYIM: POSTFIX,
	phplex.LPAREN:           POSTFIX,
	phplex.INC:              POSTFIX,
	phplex.DEC:              POSTFIX,
}

type prefixParseFn func() phpast.Expression
type infixParseFn func(phpast.Expression) phpast.Expression

// Parser is a recursive-descent, Pratt-for-expressions parser over a token
// stream produced by phplex.
type Parser struct {
	source span.SourceId
	tokens []phplex.Token
	pos    int

	curToken  phplex.Token
	peekToken phplex.Token

	errors []string

	// pendingDoc holds the last /** ... */ comment seen, attached to the
	// next declaration that wants one and discarded otherwise.
	pendingDoc *phpast.DocComment

	prefixParseFns map[phplex.TokenType]prefixParseFn
	infixParseFns  map[phplex.TokenType]infixParseFn
}

// New builds a Parser over the full token slice produced by a Lexer. source
// identifies the file being parsed for span construction; the caller (the
// scanner) owns SourceId assignment.
func New(source span.SourceId, tokens []phplex.Token) *Parser {
	p := &Parser{source: source, tokens: tokens}

	p.prefixParseFns = make(map[phplex.TokenType]prefixParseFn)
	p.infixParseFns = make(map[phplex.TokenType]infixParseFn)
	p.registerExpressionParsers()

	// Prime curToken/peekToken.
	p.nextToken()
	p.nextToken()

	return p
}

// Errors reports every parse error accumulated during Parse.
func (p *Parser) Errors() []string { return p.errors }

// Parse consumes the whole token stream and returns the top-level program.
func (p *Parser) Parse() *phpast.Program {
	prog := &phpast.Program{}
	for !p.curTokenIs(phplex.EOF) {
		if p.curTokenIs(phplex.OPEN_TAG) || p.curTokenIs(phplex.CLOSE_TAG) || p.curTokenIs(phplex.COMMENT) {
			p.nextToken()
			continue
		}
		if p.curTokenIs(phplex.DOC_COMMENT) {
			p.stashDocComment()
			p.nextToken()
			continue
		}
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		p.nextToken()
	}
	return prog
}

func (p *Parser) stashDocComment() {
	doc := &phpast.DocComment{Raw: p.curToken.Literal}
	doc.Sp = span.New(p.source, uint32(p.curToken.Pos.Offset), uint32(p.curToken.Pos.Offset+len(p.curToken.Literal)))
	p.pendingDoc = doc
}

// takeDoc hands the pending doc comment to the declaration being parsed and
// clears it, so a stray docblock never leaks onto a later declaration.
func (p *Parser) takeDoc() *phpast.DocComment {
	doc := p.pendingDoc
	p.pendingDoc = nil
	return doc
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	if p.pos < len(p.tokens) {
		p.peekToken = p.tokens[p.pos]
		p.pos++
	} else {
		p.peekToken = phplex.Token{Type: phplex.EOF}
	}
}

func (p *Parser) curTokenIs(t phplex.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t phplex.TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t phplex.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekError(t phplex.TokenType) {
	p.errors = append(p.errors, fmt.Sprintf("%s: expected next token to be %s, got %s instead",
		p.peekToken.Pos, t, p.peekToken.Type))
}

func (p *Parser) error(msg string) {
	p.errors = append(p.errors, fmt.Sprintf("%s: %s", p.curToken.Pos, msg))
}

func (p *Parser) currentTokenPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) peekTokenPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) span(start phplex.Position) span.Span {
	return span.New(p.source, uint32(start.Offset), uint32(p.curToken.Pos.Offset))
}

// spanFrom extends a previously-recorded span up to the current token,
// used when building a node (like an infix expression) whose start was
// already consumed while parsing its left-hand side.
func (p *Parser) spanFrom(start span.Span) span.Span {
	return span.Span{Start: start.Start, End: span.Position{Source: p.source, Offset: uint32(p.curToken.Pos.Offset)}}
}
