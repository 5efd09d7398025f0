package phpparse

import (
	"github.com/krizos/phpanalyze/internal/phpast"
	"github.com/krizos/phpanalyze/internal/phplex"
)

func (p *Parser) parseStatement() phpast.Statement {
	switch p.curToken.Type {
	case phplex.SEMICOLON:
		return nil
	case phplex.DOC_COMMENT:
		p.stashDocComment()
		return nil
	case phplex.NAMESPACE, phplex.USE, phplex.DECLARE:
		// Name resolution is the external resolver's job; these statements
		// only feed the resolved-names table, so skip to the terminator.
		p.skipToSemicolonOrBrace()
		return nil
	case phplex.ECHO:
		return p.parseEchoStatement()
	case phplex.RETURN:
		return p.parseReturnStatement()
	case phplex.BREAK:
		return p.parseBreakStatement()
	case phplex.CONTINUE:
		return p.parseContinueStatement()
	case phplex.IF:
		return p.parseIfStatement()
	case phplex.WHILE:
		return p.parseWhileStatement()
	case phplex.DO:
		return p.parseDoWhileStatement()
	case phplex.FOR:
		return p.parseForStatement()
	case phplex.FOREACH:
		return p.parseForeachStatement()
	case phplex.SWITCH:
		return p.parseSwitchStatement()
	case phplex.TRY:
		return p.parseTryStatement()
	case phplex.THROW:
		return p.parseThrowStatement()
	case phplex.GLOBAL:
		return p.parseGlobalStatement()
	case phplex.UNSET:
		p.skipToSemicolonOrBrace()
		return nil
	case phplex.STATIC:
		if p.peekTokenIs(phplex.VARIABLE) {
			return p.parseStaticVarStatement()
		}
		return p.parseExpressionStatement()
	case phplex.FUNCTION:
		if p.peekTokenIs(phplex.IDENT) {
			return p.parseFunctionDeclaration()
		}
		return p.parseExpressionStatement()
	case phplex.ABSTRACT, phplex.FINAL:
		return p.parseModifiedClassDeclaration()
	case phplex.CLASS:
		return p.parseClassDeclaration(false, false)
	case phplex.INTERFACE:
		return p.parseInterfaceDeclaration()
	case phplex.TRAIT:
		return p.parseTraitDeclaration()
	case phplex.ENUM:
		return p.parseEnumDeclaration()
	case phplex.CONST:
		return p.parseConstStatement()
	case phplex.LBRACE:
		return p.parseBlockStatement()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) skipToSemicolonOrBrace() {
	depth := 0
	for !p.curTokenIs(phplex.EOF) {
		switch p.curToken.Type {
		case phplex.LBRACE:
			depth++
		case phplex.RBRACE:
			depth--
			if depth <= 0 {
				return
			}
		case phplex.SEMICOLON:
			if depth == 0 {
				return
			}
		}
		p.nextToken()
	}
}

func (p *Parser) parseExpressionStatement() phpast.Statement {
	start := p.curToken.Pos
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}
	if p.peekTokenIs(phplex.SEMICOLON) {
		p.nextToken()
	}
	stmt := &phpast.ExpressionStatement{Expression: expr}
	stmt.Sp = p.span(start)
	return stmt
}

func (p *Parser) parseEchoStatement() *phpast.EchoStatement {
	start := p.curToken.Pos
	stmt := &phpast.EchoStatement{}
	p.nextToken()
	stmt.Expressions = append(stmt.Expressions, p.parseExpression(LOWEST))
	for p.peekTokenIs(phplex.COMMA) {
		p.nextToken()
		p.nextToken()
		stmt.Expressions = append(stmt.Expressions, p.parseExpression(LOWEST))
	}
	if p.peekTokenIs(phplex.SEMICOLON) {
		p.nextToken()
	}
	stmt.Sp = p.span(start)
	return stmt
}

func (p *Parser) parseReturnStatement() *phpast.ReturnStatement {
	start := p.curToken.Pos
	stmt := &phpast.ReturnStatement{}
	if !p.peekTokenIs(phplex.SEMICOLON) && !p.peekTokenIs(phplex.EOF) {
		p.nextToken()
		stmt.ReturnValue = p.parseExpression(LOWEST)
	}
	if p.peekTokenIs(phplex.SEMICOLON) {
		p.nextToken()
	}
	stmt.Sp = p.span(start)
	return stmt
}

func (p *Parser) parseBreakStatement() *phpast.BreakStatement {
	start := p.curToken.Pos
	stmt := &phpast.BreakStatement{}
	if p.peekTokenIs(phplex.INTEGER) {
		p.nextToken()
		stmt.Depth = p.parseExpression(LOWEST)
	}
	if p.peekTokenIs(phplex.SEMICOLON) {
		p.nextToken()
	}
	stmt.Sp = p.span(start)
	return stmt
}

func (p *Parser) parseContinueStatement() *phpast.ContinueStatement {
	start := p.curToken.Pos
	stmt := &phpast.ContinueStatement{}
	if p.peekTokenIs(phplex.INTEGER) {
		p.nextToken()
		stmt.Depth = p.parseExpression(LOWEST)
	}
	if p.peekTokenIs(phplex.SEMICOLON) {
		p.nextToken()
	}
	stmt.Sp = p.span(start)
	return stmt
}

func (p *Parser) parseIfStatement() *phpast.IfStatement {
	start := p.curToken.Pos
	stmt := &phpast.IfStatement{}

	if !p.expectPeek(phplex.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if !p.expectPeek(phplex.RPAREN) {
		return nil
	}
	stmt.Consequence = p.parseStatementAsBlock()

	for p.peekTokenIs(phplex.ELSEIF) || (p.peekTokenIs(phplex.ELSE) && p.peekAheadIs(phplex.IF)) {
		if p.peekTokenIs(phplex.ELSEIF) {
			p.nextToken()
		} else {
			p.nextToken() // else
			p.nextToken() // if
		}
		elseif := &phpast.ElseIf{}
		if !p.expectPeek(phplex.LPAREN) {
			return nil
		}
		p.nextToken()
		elseif.Condition = p.parseExpression(LOWEST)
		if !p.expectPeek(phplex.RPAREN) {
			return nil
		}
		elseif.Consequence = p.parseStatementAsBlock()
		stmt.ElseIfs = append(stmt.ElseIfs, elseif)
	}

	if p.peekTokenIs(phplex.ELSE) {
		p.nextToken()
		stmt.Alternative = p.parseStatementAsBlock()
	}

	stmt.Sp = p.span(start)
	return stmt
}

// peekAheadIs looks one token past peekToken, for the `else if` two-token
// form.
func (p *Parser) peekAheadIs(t phplex.TokenType) bool {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos].Type == t
	}
	return false
}

// parseStatementAsBlock parses either a braced block or a single statement
// body, normalizing the latter into a one-statement BlockStatement so every
// control-flow consumer sees a block.
func (p *Parser) parseStatementAsBlock() *phpast.BlockStatement {
	if p.peekTokenIs(phplex.LBRACE) {
		p.nextToken()
		return p.parseBlockStatement()
	}
	p.nextToken()
	start := p.curToken.Pos
	block := &phpast.BlockStatement{}
	if stmt := p.parseStatement(); stmt != nil {
		block.Statements = append(block.Statements, stmt)
	}
	block.Sp = p.span(start)
	return block
}

func (p *Parser) parseBlockStatement() *phpast.BlockStatement {
	start := p.curToken.Pos
	block := &phpast.BlockStatement{}

	p.nextToken()
	for !p.curTokenIs(phplex.RBRACE) && !p.curTokenIs(phplex.EOF) {
		if p.curTokenIs(phplex.COMMENT) {
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
			block.Statements = append(block.Statements, stmt)
		}
		p.nextToken()
	}

	block.Sp = p.span(start)
	return block
}

func (p *Parser) parseWhileStatement() *phpast.WhileStatement {
	start := p.curToken.Pos
	stmt := &phpast.WhileStatement{}
	if !p.expectPeek(phplex.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if !p.expectPeek(phplex.RPAREN) {
		return nil
	}
	stmt.Body = p.parseStatementAsBlock()
	stmt.Sp = p.span(start)
	return stmt
}

func (p *Parser) parseDoWhileStatement() *phpast.DoWhileStatement {
	start := p.curToken.Pos
	stmt := &phpast.DoWhileStatement{}
	stmt.Body = p.parseStatementAsBlock()
	if !p.expectPeek(phplex.WHILE) {
		return nil
	}
	if !p.expectPeek(phplex.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if !p.expectPeek(phplex.RPAREN) {
		return nil
	}
	if p.peekTokenIs(phplex.SEMICOLON) {
		p.nextToken()
	}
	stmt.Sp = p.span(start)
	return stmt
}

func (p *Parser) parseForStatement() *phpast.ForStatement {
	start := p.curToken.Pos
	stmt := &phpast.ForStatement{}
	if !p.expectPeek(phplex.LPAREN) {
		return nil
	}

	stmt.Init = p.parseForExpressionList(phplex.SEMICOLON)
	stmt.Condition = p.parseForExpressionList(phplex.SEMICOLON)
	stmt.Increment = p.parseForExpressionList(phplex.RPAREN)

	stmt.Body = p.parseStatementAsBlock()
	stmt.Sp = p.span(start)
	return stmt
}

// parseForExpressionList parses a comma-separated expression list up to the
// given terminator, consuming it. Entered with curToken on the list's
// opening delimiter (LPAREN or the previous SEMICOLON).
func (p *Parser) parseForExpressionList(terminator phplex.TokenType) []phpast.Expression {
	var exprs []phpast.Expression
	if p.peekTokenIs(terminator) {
		p.nextToken()
		return exprs
	}
	p.nextToken()
	exprs = append(exprs, p.parseExpression(LOWEST))
	for p.peekTokenIs(phplex.COMMA) {
		p.nextToken()
		p.nextToken()
		exprs = append(exprs, p.parseExpression(LOWEST))
	}
	p.expectPeek(terminator)
	return exprs
}

func (p *Parser) parseForeachStatement() *phpast.ForeachStatement {
	start := p.curToken.Pos
	stmt := &phpast.ForeachStatement{}
	if !p.expectPeek(phplex.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Array = p.parseExpression(LOWEST)
	if !p.expectPeek(phplex.AS) {
		return nil
	}
	p.nextToken()

	if p.curTokenIs(phplex.AMPERSAND) || p.curTokenIs(phplex.BITWISE_AND) {
		stmt.ByRef = true
		p.nextToken()
	}
	first := p.parseExpression(TERNARY)

	if p.peekTokenIs(phplex.DOUBLE_ARROW) {
		stmt.Key = first
		p.nextToken()
		p.nextToken()
		if p.curTokenIs(phplex.AMPERSAND) || p.curTokenIs(phplex.BITWISE_AND) {
			stmt.ByRef = true
			p.nextToken()
		}
		stmt.Value = p.parseExpression(TERNARY)
	} else {
		stmt.Value = first
	}

	if !p.expectPeek(phplex.RPAREN) {
		return nil
	}
	stmt.Body = p.parseStatementAsBlock()
	stmt.Sp = p.span(start)
	return stmt
}

func (p *Parser) parseSwitchStatement() *phpast.SwitchStatement {
	start := p.curToken.Pos
	stmt := &phpast.SwitchStatement{}
	if !p.expectPeek(phplex.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Subject = p.parseExpression(LOWEST)
	if !p.expectPeek(phplex.RPAREN) {
		return nil
	}
	if !p.expectPeek(phplex.LBRACE) {
		return nil
	}

	p.nextToken()
	for !p.curTokenIs(phplex.RBRACE) && !p.curTokenIs(phplex.EOF) {
		switch p.curToken.Type {
		case phplex.CASE:
			c := &phpast.SwitchCase{}
			p.nextToken()
			c.Value = p.parseExpression(LOWEST)
			if p.peekTokenIs(phplex.COLON) || p.peekTokenIs(phplex.SEMICOLON) {
				p.nextToken()
			}
			p.nextToken()
			c.Body = p.parseCaseBody()
			stmt.Cases = append(stmt.Cases, c)
		case phplex.DEFAULT:
			c := &phpast.SwitchCase{}
			if p.peekTokenIs(phplex.COLON) || p.peekTokenIs(phplex.SEMICOLON) {
				p.nextToken()
			}
			p.nextToken()
			c.Body = p.parseCaseBody()
			stmt.Cases = append(stmt.Cases, c)
		default:
			p.nextToken()
		}
	}

	stmt.Sp = p.span(start)
	return stmt
}

// parseCaseBody collects statements until the next case/default label or the
// closing brace, leaving curToken on that terminator.
func (p *Parser) parseCaseBody() []phpast.Statement {
	var body []phpast.Statement
	for !p.curTokenIs(phplex.CASE) && !p.curTokenIs(phplex.DEFAULT) &&
		!p.curTokenIs(phplex.RBRACE) && !p.curTokenIs(phplex.EOF) {
		if p.curTokenIs(phplex.COMMENT) || p.curTokenIs(phplex.SEMICOLON) {
			p.nextToken()
			continue
		}
		stmt := p.parseStatement()
		if stmt != nil {
			body = append(body, stmt)
		}
		p.nextToken()
	}
	return body
}

func (p *Parser) parseTryStatement() *phpast.TryStatement {
	start := p.curToken.Pos
	stmt := &phpast.TryStatement{}
	if !p.expectPeek(phplex.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlockStatement()

	for p.peekTokenIs(phplex.CATCH) {
		p.nextToken()
		clause := &phpast.CatchClause{}
		if !p.expectPeek(phplex.LPAREN) {
			return nil
		}
		p.nextToken()
		clause.Types = append(clause.Types, p.parseNamedTypeFromIdent())
		for p.peekTokenIs(phplex.BITWISE_OR) {
			p.nextToken()
			p.nextToken()
			clause.Types = append(clause.Types, p.parseNamedTypeFromIdent())
		}
		if p.peekTokenIs(phplex.VARIABLE) {
			p.nextToken()
			v := &phpast.Variable{Name: p.curToken.Literal}
			v.Sp = p.span(p.curToken.Pos)
			clause.Variable = v
		}
		if !p.expectPeek(phplex.RPAREN) {
			return nil
		}
		if !p.expectPeek(phplex.LBRACE) {
			return nil
		}
		clause.Body = p.parseBlockStatement()
		stmt.CatchClauses = append(stmt.CatchClauses, clause)
	}

	if p.peekTokenIs(phplex.FINALLY) {
		p.nextToken()
		if !p.expectPeek(phplex.LBRACE) {
			return nil
		}
		stmt.Finally = p.parseBlockStatement()
	}

	stmt.Sp = p.span(start)
	return stmt
}

func (p *Parser) parseThrowStatement() *phpast.ThrowStatement {
	start := p.curToken.Pos
	stmt := &phpast.ThrowStatement{}
	p.nextToken()
	stmt.Expression = p.parseExpression(LOWEST)
	if p.peekTokenIs(phplex.SEMICOLON) {
		p.nextToken()
	}
	stmt.Sp = p.span(start)
	return stmt
}

func (p *Parser) parseGlobalStatement() *phpast.GlobalStatement {
	start := p.curToken.Pos
	stmt := &phpast.GlobalStatement{}
	for p.peekTokenIs(phplex.VARIABLE) {
		p.nextToken()
		v := &phpast.Variable{Name: p.curToken.Literal}
		v.Sp = p.span(p.curToken.Pos)
		stmt.Variables = append(stmt.Variables, v)
		if p.peekTokenIs(phplex.COMMA) {
			p.nextToken()
		}
	}
	if p.peekTokenIs(phplex.SEMICOLON) {
		p.nextToken()
	}
	stmt.Sp = p.span(start)
	return stmt
}

func (p *Parser) parseStaticVarStatement() *phpast.StaticVarStatement {
	start := p.curToken.Pos
	stmt := &phpast.StaticVarStatement{}
	for p.peekTokenIs(phplex.VARIABLE) {
		p.nextToken()
		item := &phpast.PropertyItem{}
		v := &phpast.Variable{Name: p.curToken.Literal}
		v.Sp = p.span(p.curToken.Pos)
		item.Name = v
		if p.peekTokenIs(phplex.ASSIGN) {
			p.nextToken()
			p.nextToken()
			item.DefaultValue = p.parseExpression(LOWEST)
		}
		stmt.Variables = append(stmt.Variables, item)
		if p.peekTokenIs(phplex.COMMA) {
			p.nextToken()
		}
	}
	if p.peekTokenIs(phplex.SEMICOLON) {
		p.nextToken()
	}
	stmt.Sp = p.span(start)
	return stmt
}

func (p *Parser) parseConstStatement() *phpast.ConstStatement {
	start := p.curToken.Pos
	stmt := &phpast.ConstStatement{Doc: p.takeDoc()}
	for p.peekTokenIs(phplex.IDENT) {
		p.nextToken()
		item := &phpast.ConstItem{}
		ident := &phpast.Identifier{Name: p.curToken.Literal}
		ident.Sp = p.span(p.curToken.Pos)
		item.Name = ident
		if !p.expectPeek(phplex.ASSIGN) {
			return nil
		}
		p.nextToken()
		item.Value = p.parseExpression(LOWEST)
		stmt.Constants = append(stmt.Constants, item)
		if p.peekTokenIs(phplex.COMMA) {
			p.nextToken()
		}
	}
	if p.peekTokenIs(phplex.SEMICOLON) {
		p.nextToken()
	}
	stmt.Sp = p.span(start)
	return stmt
}
