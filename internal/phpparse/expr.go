package phpparse

import (
	"strconv"
	"strings"

	"github.com/krizos/phpanalyze/internal/phpast"
	"github.com/krizos/phpanalyze/internal/phplex"
)

func (p *Parser) registerExpressionParsers() {
	p.prefixParseFns[phplex.IDENT] = p.parseIdentifier
	p.prefixParseFns[phplex.SELF] = p.parseIdentifier
	p.prefixParseFns[phplex.PARENT_KW] = p.parseIdentifier
	p.prefixParseFns[phplex.VARIABLE] = p.parseVariable
	p.prefixParseFns[phplex.INTEGER] = p.parseIntegerLiteral
	p.prefixParseFns[phplex.FLOAT] = p.parseFloatLiteral
	p.prefixParseFns[phplex.STRING] = p.parseStringLiteral
	p.prefixParseFns[phplex.TRUE] = p.parseBooleanLiteral
	p.prefixParseFns[phplex.FALSE] = p.parseBooleanLiteral
	p.prefixParseFns[phplex.NULL] = p.parseNullLiteral
	p.prefixParseFns[phplex.LOGICAL_NOT] = p.parsePrefixExpression
	p.prefixParseFns[phplex.MINUS] = p.parsePrefixExpression
	p.prefixParseFns[phplex.PLUS] = p.parsePrefixExpression
	p.prefixParseFns[phplex.BITWISE_NOT] = p.parsePrefixExpression
	p.prefixParseFns[phplex.INC] = p.parsePrefixExpression
	p.prefixParseFns[phplex.DEC] = p.parsePrefixExpression
	p.prefixParseFns[phplex.AT] = p.parsePrefixExpression
	p.prefixParseFns[phplex.AMPERSAND] = p.parsePrefixExpression
	p.prefixParseFns[phplex.LPAREN] = p.parseGroupedOrCastExpression
	p.prefixParseFns[phplex.LBRACKET] = p.parseArrayExpression
	p.prefixParseFns[phplex.LIST] = p.parseListExpression
	p.prefixParseFns[phplex.ARRAY] = p.parseArrayKeywordExpression
	p.prefixParseFns[phplex.NEW] = p.parseNewExpression
	p.prefixParseFns[phplex.MATCH] = p.parseMatchExpression
	p.prefixParseFns[phplex.FUNCTION] = p.parseClosureExpression
	p.prefixParseFns[phplex.STATIC] = p.parseStaticPrefixedExpression
	p.prefixParseFns[phplex.FN] = p.parseArrowFunctionExpression
	// isset/empty/exit parse as ordinary call expressions; the analyzer gives
	// them their special semantics by name.
	p.prefixParseFns[phplex.ISSET] = p.parseIdentifier
	p.prefixParseFns[phplex.EMPTY] = p.parseIdentifier
	p.prefixParseFns[phplex.CLONE] = p.parsePrefixExpression
	p.prefixParseFns[phplex.PRINT] = p.parsePrefixExpression

	p.infixParseFns[phplex.PLUS] = p.parseInfixExpression
	p.infixParseFns[phplex.MINUS] = p.parseInfixExpression
	p.infixParseFns[phplex.ASTERISK] = p.parseInfixExpression
	p.infixParseFns[phplex.SLASH] = p.parseInfixExpression
	p.infixParseFns[phplex.PERCENT] = p.parseInfixExpression
	p.infixParseFns[phplex.POWER] = p.parseInfixExpression
	p.infixParseFns[phplex.EQ] = p.parseInfixExpression
	p.infixParseFns[phplex.IDENTICAL] = p.parseInfixExpression
	p.infixParseFns[phplex.NE] = p.parseInfixExpression
	p.infixParseFns[phplex.NOT_IDENTICAL] = p.parseInfixExpression
	p.infixParseFns[phplex.LT] = p.parseInfixExpression
	p.infixParseFns[phplex.LE] = p.parseInfixExpression
	p.infixParseFns[phplex.GT] = p.parseInfixExpression
	p.infixParseFns[phplex.GE] = p.parseInfixExpression
	p.infixParseFns[phplex.SPACESHIP] = p.parseInfixExpression
	p.infixParseFns[phplex.LOGICAL_AND] = p.parseInfixExpression
	p.infixParseFns[phplex.LOGICAL_OR] = p.parseInfixExpression
	p.infixParseFns[phplex.AND] = p.parseInfixExpression
	p.infixParseFns[phplex.OR] = p.parseInfixExpression
	p.infixParseFns[phplex.XOR] = p.parseInfixExpression
	p.infixParseFns[phplex.BITWISE_AND] = p.parseInfixExpression
	p.infixParseFns[phplex.BITWISE_OR] = p.parseInfixExpression
	p.infixParseFns[phplex.BITWISE_XOR] = p.parseInfixExpression
	p.infixParseFns[phplex.CONCAT] = p.parseInfixExpression
	p.infixParseFns[phplex.COALESCE] = p.parseInfixExpression

	p.infixParseFns[phplex.ASSIGN] = p.parseAssignmentExpression
	p.infixParseFns[phplex.PLUS_ASSIGN] = p.parseAssignmentExpression
	p.infixParseFns[phplex.MINUS_ASSIGN] = p.parseAssignmentExpression
	p.infixParseFns[phplex.MUL_ASSIGN] = p.parseAssignmentExpression
	p.infixParseFns[phplex.DIV_ASSIGN] = p.parseAssignmentExpression
	p.infixParseFns[phplex.MOD_ASSIGN] = p.parseAssignmentExpression
	p.infixParseFns[phplex.CONCAT_ASSIGN] = p.parseAssignmentExpression
	p.infixParseFns[phplex.POWER_ASSIGN] = p.parseAssignmentExpression
	p.infixParseFns[phplex.COALESCE_ASSIGN] = p.parseAssignmentExpression

	p.infixParseFns[phplex.QUESTION] = p.parseTernaryExpression
	p.infixParseFns[phplex.LBRACKET] = p.parseIndexExpression
	p.infixParseFns[phplex.OBJECT_OPERATOR] = p.parsePropertyOrMethodCall
	p.infixParseFns[phplex.NULLSAFE_OPERATOR] = p.parseNullsafePropertyOrMethodCall
	p.infixParseFns[phplex.PAAMAYIM_NEKUDOTAYIM] = p.parseStaticAccessOrCall
	p.infixParseFns[phplex.LPAREN] = p.parseCallExpression
	p.infixParseFns[phplex.INSTANCEOF] = p.parseInstanceofExpression

	postfix := func(left phpast.Expression) phpast.Expression {
		n := &phpast.PrefixExpression{Operator: p.curToken.Literal, Right: left}
		n.Sp = p.spanFrom(left.Span())
		return n
	}
	p.infixParseFns[phplex.INC] = postfix
	p.infixParseFns[phplex.DEC] = postfix
}

func (p *Parser) parseExpression(precedence int) phpast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.error("no prefix parse function for " + p.curToken.Type.String())
		return nil
	}
	left := prefix()

	for !p.peekTokenIs(phplex.SEMICOLON) && precedence < p.peekTokenPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
	}
	return left
}

func (p *Parser) parseIdentifier() phpast.Expression {
	start := p.curToken.Pos
	n := &phpast.Identifier{Name: p.curToken.Literal}
	n.Sp = p.span(start)
	return n
}

func (p *Parser) parseVariable() phpast.Expression {
	start := p.curToken.Pos
	n := &phpast.Variable{Name: p.curToken.Literal}
	n.Sp = p.span(start)
	return n
}

func (p *Parser) parseIntegerLiteral() phpast.Expression {
	start := p.curToken.Pos
	literal := strings.ReplaceAll(p.curToken.Literal, "_", "")
	value, err := strconv.ParseInt(literal, 0, 64)
	if err != nil {
		p.error("could not parse " + p.curToken.Literal + " as integer")
		return nil
	}
	n := &phpast.IntegerLiteral{Value: value}
	n.Sp = p.span(start)
	return n
}

func (p *Parser) parseFloatLiteral() phpast.Expression {
	start := p.curToken.Pos
	literal := strings.ReplaceAll(p.curToken.Literal, "_", "")
	value, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		p.error("could not parse " + p.curToken.Literal + " as float")
		return nil
	}
	n := &phpast.FloatLiteral{Value: value}
	n.Sp = p.span(start)
	return n
}

func (p *Parser) parseStringLiteral() phpast.Expression {
	start := p.curToken.Pos
	n := &phpast.StringLiteral{Value: p.curToken.Literal}
	n.Sp = p.span(start)
	return n
}

func (p *Parser) parseBooleanLiteral() phpast.Expression {
	start := p.curToken.Pos
	n := &phpast.BooleanLiteral{Value: p.curTokenIs(phplex.TRUE)}
	n.Sp = p.span(start)
	return n
}

func (p *Parser) parseNullLiteral() phpast.Expression {
	start := p.curToken.Pos
	n := &phpast.NullLiteral{}
	n.Sp = p.span(start)
	return n
}

func (p *Parser) parsePrefixExpression() phpast.Expression {
	start := p.curToken.Pos
	operator := p.curToken.Literal
	p.nextToken()
	right := p.parseExpression(UNARY)
	n := &phpast.PrefixExpression{Operator: operator, Right: right}
	n.Sp = p.span(start)
	return n
}

func (p *Parser) parseGroupedOrCastExpression() phpast.Expression {
	if p.peekTokenIs(phplex.INT) || p.peekTokenIs(phplex.STRING_TYPE) ||
		p.peekTokenIs(phplex.BOOL) || p.peekTokenIs(phplex.FLOAT_TYPE) ||
		p.peekTokenIs(phplex.ARRAY) || p.peekTokenIs(phplex.OBJECT) {
		return p.parseCastExpression()
	}

	start := p.curToken.Pos
	p.nextToken()
	exp := p.parseExpression(LOWEST)
	if !p.expectPeek(phplex.RPAREN) {
		return nil
	}
	n := &phpast.GroupedExpression{Expr: exp}
	n.Sp = p.span(start)
	return n
}

func (p *Parser) parseCastExpression() phpast.Expression {
	start := p.curToken.Pos
	p.nextToken()
	typeName := p.curToken.Literal
	if !p.expectPeek(phplex.RPAREN) {
		return nil
	}
	p.nextToken()
	n := &phpast.CastExpression{Type: typeName, Expr: p.parseExpression(UNARY)}
	n.Sp = p.span(start)
	return n
}

func (p *Parser) parseArrayExpression() phpast.Expression {
	start := p.curToken.Pos
	return p.parseArrayLiteral(phplex.RBRACKET, start)
}

func (p *Parser) parseArrayKeywordExpression() phpast.Expression {
	start := p.curToken.Pos
	if !p.expectPeek(phplex.LPAREN) {
		return nil
	}
	return p.parseArrayLiteral(phplex.RPAREN, start)
}

func (p *Parser) parseListExpression() phpast.Expression {
	start := p.curToken.Pos
	if !p.expectPeek(phplex.LPAREN) {
		return nil
	}
	lit := p.parseArrayLiteral(phplex.RPAREN, start)
	n := &phpast.ListExpression{Elements: lit.Elements}
	n.Sp = lit.Sp
	return n
}

func (p *Parser) parseArrayLiteral(close phplex.TokenType, start phplex.Position) *phpast.ArrayExpression {
	arr := &phpast.ArrayExpression{}

	if p.peekTokenIs(close) {
		p.nextToken()
		arr.Sp = p.span(start)
		return arr
	}

	p.nextToken()
	arr.Elements = append(arr.Elements, p.parseArrayElement())

	for p.peekTokenIs(phplex.COMMA) {
		p.nextToken()
		p.nextToken()
		if p.curTokenIs(close) {
			break
		}
		arr.Elements = append(arr.Elements, p.parseArrayElement())
	}

	if !p.expectPeek(close) {
		return nil
	}
	arr.Sp = p.span(start)
	return arr
}

func (p *Parser) parseArrayElement() *phpast.ArrayElement {
	if p.curTokenIs(phplex.ELLIPSIS) {
		p.nextToken()
		return &phpast.ArrayElement{Value: p.parseExpression(LOWEST), Spread: true}
	}

	byRef := false
	if p.curTokenIs(phplex.AMPERSAND) {
		byRef = true
		p.nextToken()
	}

	expr := p.parseExpression(LOWEST)
	if p.peekTokenIs(phplex.DOUBLE_ARROW) {
		p.nextToken()
		p.nextToken()
		if p.curTokenIs(phplex.AMPERSAND) {
			byRef = true
			p.nextToken()
		}
		value := p.parseExpression(LOWEST)
		return &phpast.ArrayElement{Key: expr, Value: value, ByRef: byRef}
	}

	return &phpast.ArrayElement{Value: expr, ByRef: byRef}
}

func (p *Parser) parseNewExpression() phpast.Expression {
	start := p.curToken.Pos
	p.nextToken()

	if p.curTokenIs(phplex.CLASS) {
		return p.parseAnonymousClassExpression(start)
	}

	class := p.parseExpression(NEW_CLONE)
	expr := &phpast.NewExpression{Class: class}

	if p.peekTokenIs(phplex.LPAREN) {
		p.nextToken()
		expr.Arguments = p.parseCallArguments()
	}
	expr.Sp = p.span(start)
	return expr
}

func (p *Parser) parseAnonymousClassExpression(start phplex.Position) phpast.Expression {
	decl := &phpast.ClassDeclaration{}
	var args []*phpast.Argument
	if p.peekTokenIs(phplex.LPAREN) {
		p.nextToken()
		args = p.parseCallArguments()
	}
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

	n := &phpast.NewExpression{AnonymousBody: decl, Arguments: args}
	n.Sp = p.span(start)
	return n
}

func (p *Parser) parseInfixExpression(left phpast.Expression) phpast.Expression {
	start := left.Span()
	operator := p.curToken.Literal
	precedence := p.currentTokenPrecedence()
	if p.curTokenIs(phplex.POWER) {
		precedence--
	}
	p.nextToken()
	right := p.parseExpression(precedence)
	n := &phpast.InfixExpression{Operator: operator, Left: left, Right: right}
	n.Sp = p.spanFrom(start)
	return n
}

func (p *Parser) parseAssignmentExpression(left phpast.Expression) phpast.Expression {
	start := left.Span()
	operator := p.curToken.Literal
	p.nextToken()
	right := p.parseExpression(ASSIGNMENT - 1)
	n := &phpast.AssignmentExpression{Operator: operator, Left: left, Right: right}
	n.Sp = p.spanFrom(start)
	return n
}

func (p *Parser) parseTernaryExpression(left phpast.Expression) phpast.Expression {
	start := left.Span()
	expr := &phpast.TernaryExpression{Condition: left}
	p.nextToken()

	if p.curTokenIs(phplex.COLON) {
		p.nextToken()
		expr.Alternative = p.parseExpression(TERNARY)
		expr.Sp = p.spanFrom(start)
		return expr
	}

	expr.Consequence = p.parseExpression(LOWEST)
	if !p.expectPeek(phplex.COLON) {
		return nil
	}
	p.nextToken()
	expr.Alternative = p.parseExpression(TERNARY)
	expr.Sp = p.spanFrom(start)
	return expr
}

func (p *Parser) parseIndexExpression(left phpast.Expression) phpast.Expression {
	start := left.Span()
	expr := &phpast.IndexExpression{Left: left}
	if p.peekTokenIs(phplex.RBRACKET) {
		p.nextToken()
		expr.Sp = p.spanFrom(start)
		return expr
	}
	p.nextToken()
	expr.Index = p.parseExpression(LOWEST)
	if !p.expectPeek(phplex.RBRACKET) {
		return nil
	}
	expr.Sp = p.spanFrom(start)
	return expr
}

func (p *Parser) parsePropertyOrMethodCall(left phpast.Expression) phpast.Expression {
	start := left.Span()
	p.nextToken()
	property := p.parsePropertyName()

	if p.peekTokenIs(phplex.LPAREN) {
		p.nextToken()
		n := &phpast.MethodCallExpression{Object: left, Method: property, Arguments: p.parseCallArguments()}
		n.Sp = p.spanFrom(start)
		return n
	}
	n := &phpast.PropertyExpression{Object: left, Property: property}
	n.Sp = p.spanFrom(start)
	return n
}

func (p *Parser) parseNullsafePropertyOrMethodCall(left phpast.Expression) phpast.Expression {
	start := left.Span()
	p.nextToken()
	property := p.parsePropertyName()

	if p.peekTokenIs(phplex.LPAREN) {
		p.nextToken()
		n := &phpast.MethodCallExpression{Object: left, Method: property, Arguments: p.parseCallArguments(), Nullsafe: true}
		n.Sp = p.spanFrom(start)
		return n
	}
	n := &phpast.NullsafePropertyExpression{Object: left, Property: property}
	n.Sp = p.spanFrom(start)
	return n
}

// parsePropertyName handles the common `->name`, `->{expr}`, and `->$var`
// dynamic-property forms.
func (p *Parser) parsePropertyName() phpast.Expression {
	if p.curTokenIs(phplex.LBRACE) {
		p.nextToken()
		expr := p.parseExpression(LOWEST)
		p.expectPeek(phplex.RBRACE)
		return expr
	}
	if p.curTokenIs(phplex.VARIABLE) {
		return p.parseVariable()
	}
	return p.parseIdentifier()
}

func (p *Parser) parseStaticAccessOrCall(left phpast.Expression) phpast.Expression {
	start := left.Span()
	p.nextToken()
	if p.curTokenIs(phplex.CLASS) {
		n := &phpast.StaticPropertyExpression{Class: left, Property: &phpast.Identifier{Name: "class"}}
		n.Sp = p.spanFrom(start)
		return n
	}
	member := p.parsePropertyName()

	if p.peekTokenIs(phplex.LPAREN) {
		p.nextToken()
		n := &phpast.StaticCallExpression{Class: left, Method: member, Arguments: p.parseCallArguments()}
		n.Sp = p.spanFrom(start)
		return n
	}
	n := &phpast.StaticPropertyExpression{Class: left, Property: member}
	n.Sp = p.spanFrom(start)
	return n
}

func (p *Parser) parseCallExpression(left phpast.Expression) phpast.Expression {
	start := left.Span()
	n := &phpast.CallExpression{Function: left, Arguments: p.parseCallArguments()}
	n.Sp = p.spanFrom(start)
	return n
}

func (p *Parser) parseCallArguments() []*phpast.Argument {
	var args []*phpast.Argument

	if p.peekTokenIs(phplex.RPAREN) {
		p.nextToken()
		return args
	}

	p.nextToken()
	args = append(args, p.parseCallArgument())

	for p.peekTokenIs(phplex.COMMA) {
		p.nextToken()
		p.nextToken()
		if p.curTokenIs(phplex.RPAREN) {
			break
		}
		args = append(args, p.parseCallArgument())
	}

	if !p.expectPeek(phplex.RPAREN) {
		return nil
	}
	return args
}

func (p *Parser) parseCallArgument() *phpast.Argument {
	if p.curTokenIs(phplex.ELLIPSIS) {
		p.nextToken()
		return &phpast.Argument{Value: p.parseExpression(LOWEST), Spread: true}
	}

	// Named argument: IDENT ':' expr, distinguished from a plain expression
	// starting with an identifier by looking one token ahead.
	if p.curTokenIs(phplex.IDENT) && p.peekTokenIs(phplex.COLON) {
		name := p.curToken.Literal
		p.nextToken()
		p.nextToken()
		return &phpast.Argument{Name: name, Value: p.parseExpression(LOWEST)}
	}

	return &phpast.Argument{Value: p.parseExpression(LOWEST)}
}

func (p *Parser) parseInstanceofExpression(left phpast.Expression) phpast.Expression {
	start := left.Span()
	p.nextToken()
	right := p.parseExpression(INSTANCEOF_PREC)
	n := &phpast.InstanceofExpression{Left: left, Right: right}
	n.Sp = p.spanFrom(start)
	return n
}

func (p *Parser) parseStaticPrefixedExpression() phpast.Expression {
	// `static` can open a closure (`static function () {}`) or an arrow
	// function (`static fn () => ...`), or stand alone as `static::`.
	if p.peekTokenIs(phplex.FUNCTION) {
		p.nextToken()
		closure := p.parseClosureExpression().(*phpast.ClosureExpression)
		closure.Static = true
		return closure
	}
	if p.peekTokenIs(phplex.FN) {
		p.nextToken()
		arrow := p.parseArrowFunctionExpression().(*phpast.ArrowFunctionExpression)
		arrow.Static = true
		return arrow
	}
	return p.parseIdentifier()
}

func (p *Parser) parseClosureExpression() phpast.Expression {
	start := p.curToken.Pos
	closure := &phpast.ClosureExpression{}

	if p.peekTokenIs(phplex.AMPERSAND) {
		p.nextToken()
		closure.ByRef = true
	}
	if !p.expectPeek(phplex.LPAREN) {
		return nil
	}
	closure.Parameters = p.parseParameterList()

	if p.peekTokenIs(phplex.USE) {
		p.nextToken()
		p.expectPeek(phplex.LPAREN)
		closure.Uses = p.parseClosureUseList()
	}
	if p.peekTokenIs(phplex.COLON) {
		p.nextToken()
		p.nextToken()
		closure.ReturnType = p.parseTypeAnnotation()
	}
	if !p.expectPeek(phplex.LBRACE) {
		return nil
	}
	closure.Body = p.parseBlockStatement()
	closure.Sp = p.span(start)
	return closure
}

func (p *Parser) parseClosureUseList() []*phpast.ClosureUse {
	var uses []*phpast.ClosureUse
	if p.peekTokenIs(phplex.RPAREN) {
		p.nextToken()
		return uses
	}
	p.nextToken()
	uses = append(uses, p.parseClosureUseItem())
	for p.peekTokenIs(phplex.COMMA) {
		p.nextToken()
		p.nextToken()
		uses = append(uses, p.parseClosureUseItem())
	}
	p.expectPeek(phplex.RPAREN)
	return uses
}

func (p *Parser) parseClosureUseItem() *phpast.ClosureUse {
	byRef := false
	if p.curTokenIs(phplex.AMPERSAND) {
		byRef = true
		p.nextToken()
	}
	name := p.curToken.Literal
	return &phpast.ClosureUse{Name: name, ByRef: byRef}
}

func (p *Parser) parseArrowFunctionExpression() phpast.Expression {
	start := p.curToken.Pos
	arrow := &phpast.ArrowFunctionExpression{}
	if !p.expectPeek(phplex.LPAREN) {
		return nil
	}
	arrow.Parameters = p.parseParameterList()
	if p.peekTokenIs(phplex.COLON) {
		p.nextToken()
		p.nextToken()
		arrow.ReturnType = p.parseTypeAnnotation()
	}
	if !p.expectPeek(phplex.DOUBLE_ARROW) {
		return nil
	}
	p.nextToken()
	arrow.Body = p.parseExpression(ASSIGNMENT - 1)
	arrow.Sp = p.span(start)
	return arrow
}

func (p *Parser) parseMatchExpression() phpast.Expression {
	start := p.curToken.Pos
	if !p.expectPeek(phplex.LPAREN) {
		return nil
	}
	p.nextToken()
	subject := p.parseExpression(LOWEST)
	if !p.expectPeek(phplex.RPAREN) {
		return nil
	}
	if !p.expectPeek(phplex.LBRACE) {
		return nil
	}

	match := &phpast.MatchExpression{Subject: subject}
	p.nextToken()
	for !p.curTokenIs(phplex.RBRACE) && !p.curTokenIs(phplex.EOF) {
		match.Arms = append(match.Arms, p.parseMatchArm())
		if p.peekTokenIs(phplex.COMMA) {
			p.nextToken()
		}
		p.nextToken()
	}
	match.Sp = p.span(start)
	return match
}

func (p *Parser) parseMatchArm() *phpast.MatchArm {
	arm := &phpast.MatchArm{}
	if p.curTokenIs(phplex.DEFAULT) {
		p.nextToken()
	} else {
		arm.Conditions = append(arm.Conditions, p.parseExpression(LOWEST))
		for p.peekTokenIs(phplex.COMMA) {
			p.nextToken()
			if p.peekTokenIs(phplex.DOUBLE_ARROW) {
				break
			}
			p.nextToken()
			arm.Conditions = append(arm.Conditions, p.parseExpression(LOWEST))
		}
		p.nextToken()
	}
	if !p.curTokenIs(phplex.DOUBLE_ARROW) {
		p.error("expected => in match arm")
		return arm
	}
	p.nextToken()
	arm.Body = p.parseExpression(LOWEST)
	return arm
}
