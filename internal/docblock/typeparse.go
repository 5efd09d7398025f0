package docblock

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseType parses one psalm/phpstan-dialect type expression. Errors are
// soft: the scanner substitutes mixed for anything it cannot parse, so
// callers usually discard the error and nil-check the result.
func ParseType(s string) (*TypeExpr, error) {
	p := &typeParser{input: s}
	p.next()
	expr, err := p.parseUnion()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, fmt.Errorf("docblock: trailing %q in type %q", p.tok.text, s)
	}
	return expr, nil
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokName
	tokInt
	tokString
	tokLAngle
	tokRAngle
	tokLBrace
	tokRBrace
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokPipe
	tokAmp
	tokComma
	tokColon
	tokQuestion
	tokEllipsis
)

type typeToken struct {
	kind tokKind
	text string
}

type typeParser struct {
	input string
	pos   int
	tok   typeToken
}

func (p *typeParser) next() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
	if p.pos >= len(p.input) {
		p.tok = typeToken{kind: tokEOF}
		return
	}

	ch := p.input[p.pos]
	switch ch {
	case '<':
		p.pos++
		p.tok = typeToken{kind: tokLAngle, text: "<"}
	case '>':
		p.pos++
		p.tok = typeToken{kind: tokRAngle, text: ">"}
	case '{':
		p.pos++
		p.tok = typeToken{kind: tokLBrace, text: "{"}
	case '}':
		p.pos++
		p.tok = typeToken{kind: tokRBrace, text: "}"}
	case '(':
		p.pos++
		p.tok = typeToken{kind: tokLParen, text: "("}
	case ')':
		p.pos++
		p.tok = typeToken{kind: tokRParen, text: ")"}
	case '[':
		p.pos++
		p.tok = typeToken{kind: tokLBracket, text: "["}
	case ']':
		p.pos++
		p.tok = typeToken{kind: tokRBracket, text: "]"}
	case '|':
		p.pos++
		p.tok = typeToken{kind: tokPipe, text: "|"}
	case '&':
		p.pos++
		p.tok = typeToken{kind: tokAmp, text: "&"}
	case ',':
		p.pos++
		p.tok = typeToken{kind: tokComma, text: ","}
	case ':':
		p.pos++
		p.tok = typeToken{kind: tokColon, text: ":"}
	case '?':
		p.pos++
		p.tok = typeToken{kind: tokQuestion, text: "?"}
	case '\'', '"':
		quote := ch
		start := p.pos + 1
		end := start
		for end < len(p.input) && p.input[end] != quote {
			end++
		}
		p.tok = typeToken{kind: tokString, text: p.input[start:end]}
		p.pos = end + 1
	case '.':
		if strings.HasPrefix(p.input[p.pos:], "...") {
			p.pos += 3
			p.tok = typeToken{kind: tokEllipsis, text: "..."}
			return
		}
		p.pos++
		p.tok = typeToken{kind: tokName, text: "."}
	default:
		if ch == '-' || unicode.IsDigit(rune(ch)) {
			start := p.pos
			p.pos++
			for p.pos < len(p.input) && unicode.IsDigit(rune(p.input[p.pos])) {
				p.pos++
			}
			p.tok = typeToken{kind: tokInt, text: p.input[start:p.pos]}
			return
		}
		start := p.pos
		for p.pos < len(p.input) && isNameChar(p.input[p.pos]) {
			p.pos++
		}
		if p.pos == start {
			p.pos++ // skip the unrecognized byte so the parser terminates
		}
		p.tok = typeToken{kind: tokName, text: p.input[start:p.pos]}
	}
}

func isNameChar(ch byte) bool {
	return ch == '_' || ch == '\\' || ch == '-' || ch == '$' ||
		(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

func (p *typeParser) parseUnion() (*TypeExpr, error) {
	first, err := p.parseIntersection()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokPipe {
		return first, nil
	}
	members := []*TypeExpr{first}
	for p.tok.kind == tokPipe {
		p.next()
		m, err := p.parseIntersection()
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return &TypeExpr{Kind: ExprUnion, Members: members}, nil
}

func (p *typeParser) parseIntersection() (*TypeExpr, error) {
	first, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokAmp {
		return first, nil
	}
	members := []*TypeExpr{first}
	for p.tok.kind == tokAmp {
		p.next()
		m, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return &TypeExpr{Kind: ExprIntersection, Members: members}, nil
}

func (p *typeParser) parseAtom() (*TypeExpr, error) {
	switch p.tok.kind {
	case tokQuestion:
		p.next()
		inner, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		return p.parseSuffix(&TypeExpr{Kind: ExprNullable, Inner: inner})

	case tokInt:
		v, err := strconv.ParseInt(p.tok.text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("docblock: bad int literal %q", p.tok.text)
		}
		p.next()
		return p.parseSuffix(&TypeExpr{Kind: ExprLiteralInt, IntValue: v})

	case tokString:
		text := p.tok.text
		p.next()
		return p.parseSuffix(&TypeExpr{Kind: ExprLiteralString, StringValue: text})

	case tokLParen:
		p.next()
		inner, err := p.parseUnion()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, fmt.Errorf("docblock: expected ) in type, got %q", p.tok.text)
		}
		p.next()
		return p.parseSuffix(inner)

	case tokName:
		return p.parseNamed()

	default:
		return nil, fmt.Errorf("docblock: unexpected %q in type", p.tok.text)
	}
}

func (p *typeParser) parseNamed() (*TypeExpr, error) {
	name := p.tok.text
	p.next()

	switch name {
	case "true":
		return p.parseSuffix(&TypeExpr{Kind: ExprLiteralBool, BoolValue: true})
	case "false":
		return p.parseSuffix(&TypeExpr{Kind: ExprLiteralBool, BoolValue: false})
	}

	if name == "callable" || name == "Closure" || name == "pure-callable" || name == "pure-Closure" {
		if p.tok.kind == tokLParen {
			return p.parseCallable(name)
		}
	}

	if (name == "array" || name == "list" || name == "object") && p.tok.kind == tokLBrace {
		return p.parseShape()
	}

	if p.tok.kind == tokLAngle {
		p.next()
		var args []*TypeExpr
		for {
			arg, err := p.parseUnion()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.tok.kind == tokComma {
				p.next()
				continue
			}
			break
		}
		if p.tok.kind != tokRAngle {
			return nil, fmt.Errorf("docblock: expected > in type, got %q", p.tok.text)
		}
		p.next()

		if isClassStringFamily(name) && len(args) == 1 && args[0].Kind == ExprNamed {
			return p.parseSuffix(&TypeExpr{Kind: ExprClassString, Name: args[0].Name, Args: args})
		}
		return p.parseSuffix(&TypeExpr{Kind: ExprGeneric, Name: name, Args: args})
	}

	return p.parseSuffix(&TypeExpr{Kind: ExprNamed, Name: name})
}

func isClassStringFamily(name string) bool {
	switch name {
	case "class-string", "interface-string", "enum-string", "trait-string":
		return true
	}
	return false
}

// parseSuffix handles the `T[]` array-of shorthand after any atom.
func (p *typeParser) parseSuffix(expr *TypeExpr) (*TypeExpr, error) {
	for p.tok.kind == tokLBracket {
		p.next()
		if p.tok.kind != tokRBracket {
			return nil, fmt.Errorf("docblock: expected ] in type, got %q", p.tok.text)
		}
		p.next()
		expr = &TypeExpr{Kind: ExprList, Inner: expr}
	}
	return expr, nil
}

func (p *typeParser) parseShape() (*TypeExpr, error) {
	p.next() // consume {
	shape := &TypeExpr{Kind: ExprArrayShape}

	for p.tok.kind != tokRBrace && p.tok.kind != tokEOF {
		field := ShapeField{}

		// A field is either `key: T`, `key?: T`, or a bare positional T.
		if (p.tok.kind == tokName || p.tok.kind == tokInt || p.tok.kind == tokString) && p.peekIsFieldKey() {
			field.Key = p.tok.text
			p.next()
			if p.tok.kind == tokQuestion {
				field.PossiblyUndefined = true
				p.next()
			}
			if p.tok.kind != tokColon {
				return nil, fmt.Errorf("docblock: expected : after shape key, got %q", p.tok.text)
			}
			p.next()
		}

		t, err := p.parseUnion()
		if err != nil {
			return nil, err
		}
		field.Type = t
		shape.ShapeFields = append(shape.ShapeFields, field)

		if p.tok.kind == tokComma {
			p.next()
			continue
		}
		break
	}

	if p.tok.kind != tokRBrace {
		return nil, fmt.Errorf("docblock: expected } in shape, got %q", p.tok.text)
	}
	p.next()
	return p.parseSuffix(shape)
}

// peekIsFieldKey looks past the current token for `:` or `?:` without
// consuming, to distinguish `array{foo: int}` from `array{int}`.
func (p *typeParser) peekIsFieldKey() bool {
	save := *p
	p.next()
	isKey := p.tok.kind == tokColon || p.tok.kind == tokQuestion
	*p = save
	return isKey
}

func (p *typeParser) parseCallable(name string) (*TypeExpr, error) {
	expr := &TypeExpr{Kind: ExprCallable, Name: name}

	p.next() // consume (
	for p.tok.kind != tokRParen && p.tok.kind != tokEOF {
		if p.tok.kind == tokEllipsis {
			p.next()
			continue
		}
		param, err := p.parseUnion()
		if err != nil {
			return nil, err
		}
		// Skip a trailing =, $name or ... decorating the parameter.
		for p.tok.kind == tokEllipsis || (p.tok.kind == tokName && (p.tok.text == "=" || strings.HasPrefix(p.tok.text, "$"))) {
			p.next()
		}
		expr.Params = append(expr.Params, param)
		if p.tok.kind == tokComma {
			p.next()
		}
	}
	if p.tok.kind != tokRParen {
		return nil, fmt.Errorf("docblock: unterminated callable parameter list")
	}
	p.next()

	if p.tok.kind == tokColon {
		p.next()
		ret, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		expr.ReturnType = ret
	}
	return expr, nil
}
