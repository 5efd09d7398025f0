// Package phplex tokenizes PHP source into the stream internal/phpparse
// consumes. It is an external-collaborator stand-in: the analysis core only
// ever sees the ParsedFile contract built from phpparse's output, never
// phplex types directly.
package phplex

import "fmt"

// TokenType identifies the lexical class of a Token.
type TokenType int

// Token is one lexical token of PHP source code.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}

// Position locates a token within a named source file.
type Position struct {
	Filename string
	Offset   int // byte offset, 0-based
	Line     int // 1-based
	Column   int // 1-based
}

const (
	ILLEGAL TokenType = iota
	EOF
	COMMENT
	DOC_COMMENT // /** ... */, carried separately so phpdoc attaches to the next declaration

	INTEGER
	FLOAT
	STRING
	HEREDOC
	NOWDOC

	IDENT
	VARIABLE // $name, Literal excludes the $
	NS_SEPARATOR

	ABSTRACT
	AND
	ARRAY
	AS
	BREAK
	CALLABLE
	CASE
	CATCH
	CLASS
	CLONE
	CONST
	CONTINUE
	DECLARE
	DEFAULT
	DO
	ECHO
	ELSE
	ELSEIF
	EMPTY
	ENUM
	EXTENDS
	FINAL
	FINALLY
	FN
	FOR
	FOREACH
	FUNCTION
	GLOBAL
	IF
	IMPLEMENTS
	INSTANCEOF
	INSTEADOF
	INTERFACE
	ISSET
	LIST
	MATCH
	NAMESPACE
	NEW
	OR
	PRINT
	PRIVATE
	PROTECTED
	PUBLIC
	READONLY
	RETURN
	STATIC
	SWITCH
	THROW
	TRAIT
	TRY
	UNSET
	USE
	VAR
	WHILE
	XOR
	YIELD

	INT
	FLOAT_TYPE
	BOOL
	STRING_TYPE
	TRUE
	FALSE
	NULL
	VOID
	NEVER
	MIXED
	OBJECT
	ITERABLE
	SELF
	PARENT_KW

	PLUS
	MINUS
	ASTERISK
	SLASH
	PERCENT
	POWER

	ASSIGN
	PLUS_ASSIGN
	MINUS_ASSIGN
	MUL_ASSIGN
	DIV_ASSIGN
	MOD_ASSIGN
	CONCAT_ASSIGN
	POWER_ASSIGN
	COALESCE_ASSIGN

	EQ
	IDENTICAL
	NE
	NOT_IDENTICAL
	LT
	LE
	GT
	GE
	SPACESHIP

	INC
	DEC

	LOGICAL_AND
	LOGICAL_OR
	LOGICAL_NOT

	BITWISE_AND
	BITWISE_OR
	BITWISE_XOR
	BITWISE_NOT

	CONCAT

	QUESTION
	COLON
	SEMICOLON
	COMMA

	DOUBLE_ARROW
	OBJECT_OPERATOR
	PAAMAYIM_NEKUDOTAYIM // ::
	NULLSAFE_OPERATOR    // ?->
	ELLIPSIS
	COALESCE

	AT
	AMPERSAND

	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET

	OPEN_TAG
	CLOSE_TAG

	ATTRIBUTE_START // #[
)

func (t Token) String() string {
	return fmt.Sprintf("%s(%q) at %s", t.Type, t.Literal, t.Pos)
}

var tokenNames = map[TokenType]string{
	ILLEGAL: "ILLEGAL", EOF: "EOF", COMMENT: "COMMENT", DOC_COMMENT: "DOC_COMMENT",
	INTEGER: "INTEGER", FLOAT: "FLOAT", STRING: "STRING", HEREDOC: "HEREDOC", NOWDOC: "NOWDOC",
	IDENT: "IDENT", VARIABLE: "VARIABLE", NS_SEPARATOR: "NS_SEPARATOR",
	ABSTRACT: "abstract", AND: "and", ARRAY: "array", AS: "as", BREAK: "break",
	CALLABLE: "callable", CASE: "case", CATCH: "catch", CLASS: "class", CLONE: "clone",
	CONST: "const", CONTINUE: "continue", DECLARE: "declare", DEFAULT: "default", DO: "do",
	ECHO: "echo", ELSE: "else", ELSEIF: "elseif", EMPTY: "empty", ENUM: "enum",
	EXTENDS: "extends", FINAL: "final", FINALLY: "finally", FN: "fn", FOR: "for",
	FOREACH: "foreach", FUNCTION: "function", GLOBAL: "global", IF: "if",
	IMPLEMENTS: "implements", INSTANCEOF: "instanceof", INSTEADOF: "insteadof",
	INTERFACE: "interface", ISSET: "isset", LIST: "list", MATCH: "match",
	NAMESPACE: "namespace", NEW: "new", OR: "or", PRINT: "print", PRIVATE: "private",
	PROTECTED: "protected", PUBLIC: "public", READONLY: "readonly", RETURN: "return",
	STATIC: "static", SWITCH: "switch", THROW: "throw", TRAIT: "trait", TRY: "try",
	UNSET: "unset", USE: "use", VAR: "var", WHILE: "while", XOR: "xor", YIELD: "yield",
	INT: "int", FLOAT_TYPE: "float", BOOL: "bool", STRING_TYPE: "string", TRUE: "true",
	FALSE: "false", NULL: "null", VOID: "void", NEVER: "never", MIXED: "mixed",
	OBJECT: "object", ITERABLE: "iterable", SELF: "self", PARENT_KW: "parent",
	PLUS: "+", MINUS: "-", ASTERISK: "*", SLASH: "/", PERCENT: "%", POWER: "**",
	ASSIGN: "=", PLUS_ASSIGN: "+=", MINUS_ASSIGN: "-=", MUL_ASSIGN: "*=", DIV_ASSIGN: "/=",
	MOD_ASSIGN: "%=", CONCAT_ASSIGN: ".=", POWER_ASSIGN: "**=", COALESCE_ASSIGN: "??=",
	EQ: "==", IDENTICAL: "===", NE: "!=", NOT_IDENTICAL: "!==", LT: "<", LE: "<=",
	GT: ">", GE: ">=", SPACESHIP: "<=>", INC: "++", DEC: "--",
	LOGICAL_AND: "&&", LOGICAL_OR: "||", LOGICAL_NOT: "!",
	BITWISE_AND: "&", BITWISE_OR: "|", BITWISE_XOR: "^", BITWISE_NOT: "~",
	CONCAT: ".", QUESTION: "?", COLON: ":", SEMICOLON: ";", COMMA: ",",
	DOUBLE_ARROW: "=>", OBJECT_OPERATOR: "->", PAAMAYIM_NEKUDOTAYIM: "::",
	NULLSAFE_OPERATOR: "?->", ELLIPSIS: "...", COALESCE: "??",
	AT: "@", AMPERSAND: "&", LPAREN: "(", RPAREN: ")", LBRACE: "{", RBRACE: "}",
	LBRACKET: "[", RBRACKET: "]", OPEN_TAG: "<?php", CLOSE_TAG: "?>",
	ATTRIBUTE_START: "#[",
}

func (tt TokenType) String() string {
	if s, ok := tokenNames[tt]; ok {
		return s
	}
	return "unknown"
}

var keywords = map[string]TokenType{
	"abstract": ABSTRACT, "and": AND, "array": ARRAY, "as": AS, "break": BREAK,
	"callable": CALLABLE, "case": CASE, "catch": CATCH, "class": CLASS, "clone": CLONE,
	"const": CONST, "continue": CONTINUE, "declare": DECLARE, "default": DEFAULT, "do": DO,
	"echo": ECHO, "else": ELSE, "elseif": ELSEIF, "empty": EMPTY, "enum": ENUM,
	"extends": EXTENDS, "final": FINAL, "finally": FINALLY, "fn": FN, "for": FOR,
	"foreach": FOREACH, "function": FUNCTION, "global": GLOBAL, "if": IF,
	"implements": IMPLEMENTS, "instanceof": INSTANCEOF, "insteadof": INSTEADOF,
	"interface": INTERFACE, "isset": ISSET, "list": LIST, "match": MATCH,
	"namespace": NAMESPACE, "new": NEW, "or": OR, "print": PRINT, "private": PRIVATE,
	"protected": PROTECTED, "public": PUBLIC, "readonly": READONLY, "return": RETURN,
	"static": STATIC, "switch": SWITCH, "throw": THROW, "trait": TRAIT, "try": TRY,
	"unset": UNSET, "use": USE, "var": VAR, "while": WHILE, "xor": XOR, "yield": YIELD,
	"int": INT, "float": FLOAT_TYPE, "bool": BOOL, "string": STRING_TYPE, "true": TRUE,
	"false": FALSE, "null": NULL, "void": VOID, "never": NEVER, "mixed": MIXED,
	"object": OBJECT, "iterable": ITERABLE, "self": SELF, "parent": PARENT_KW,
}

// LookupIdent reports the keyword token type for ident, or IDENT if it isn't
// one (PHP keywords are case-insensitive; the caller passes the lowered form).
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}
