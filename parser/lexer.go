// Package parser implements a hand-written AngelScript tokenizer and
// recursive-descent parser, built directly over package token/package ast
// in an error-recovering style: a malformed construct becomes an
// *ast.Error node and parsing continues at the next statement/declaration
// boundary rather than aborting.
package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/Paril/angel-lsp/diagnostic"
	"github.com/Paril/angel-lsp/token"
)

type lexer struct {
	uri string
	src string
	pos int
	line int
	column int
	diags *diagnostic.Sink
}

func newLexer(src string, diags *diagnostic.Sink) *lexer {
	return &lexer{src: src, line: 1, column: 1, diags: diags}
}

func (l *lexer) here() token.Position {
	return token.Position{Line: l.line, Column: l.column, Index: l.pos}
}

func (l *lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peekByteAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *lexer) advance() byte {
	b := l.src[l.pos]
	l.pos++
	if b == '\n' {
		l.line++
		l.column = 1
	} else if b&0xC0 != 0x80 {
		l.column++
	}
	return b
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b >= utf8.RuneSelf
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

var punctuation = map[string]bool{
	"(": true, ")": true, "{": true, "}": true, "[": true, "]": true,
	";": true, ",": true, ".": true, "::": true, ":": true, "@": true,
}

// multiCharOperators is tried longest-first so e.g. ">>>=" is not split
// into ">>" + ">=".
var multiCharOperators = []string{
	">>>=", "<=>", ">>>", "**=", "<<=", ">>=", "&&", "||",
	"==", "!=", "<=", ">=", "+=", "-=", "*=", "/=", "%=",
	"&=", "|=", "^=", "<<", ">>", "**", "++", "--", "::",
}

// Tokenize lexes the full source into a token stream (EOF-terminated),
// recovering from illegal bytes by skipping one rune and reporting a
// Lexical diagnostic.
func Tokenize(src string, diags *diagnostic.Sink) []token.Token {
	l := newLexer(src, diags)
	var toks []token.Token
	for {
		l.skipTrivia()
		if l.pos >= len(l.src) {
			toks = append(toks, token.Token{Kind: token.EOF, Range: token.Range{Start: l.here(), End: l.here()}})
			return toks
		}
		tok := l.next()
		toks = append(toks, tok)
	}
}

func (l *lexer) skipTrivia() {
	for l.pos < len(l.src) {
		b := l.peekByte()
		switch {
		case b == ' ' || b == '\t' || b == '\r' || b == '\n':
			l.advance()
		case b == '/' && l.peekByteAt(1) == '/':
			for l.pos < len(l.src) && l.peekByte() != '\n' {
				l.advance()
			}
		case b == '/' && l.peekByteAt(1) == '*':
			l.advance()
			l.advance()
			for l.pos < len(l.src) && !(l.peekByte() == '*' && l.peekByteAt(1) == '/') {
				l.advance()
			}
			if l.pos < len(l.src) {
				l.advance()
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *lexer) next() token.Token {
	start := l.here()
	b := l.peekByte()

	switch {
	case isIdentStart(b):
		for l.pos < len(l.src) && isIdentCont(l.peekByte()) {
			l.advance()
		}
		text := l.src[start.Index:l.pos]
		kind := token.Identifier
		if token.IsKeyword(text) {
			kind = token.Keyword
		}
		return token.Token{Kind: kind, Text: text, Range: token.Range{Start: start, End: l.here()}}

	case isDigit(b):
		for l.pos < len(l.src) && (isDigit(l.peekByte()) || l.peekByte() == '.' || l.peekByte() == 'e' || l.peekByte() == 'E' ||
			l.peekByte() == 'f' || l.peekByte() == 'x' || isHexDigit(l.peekByte())) {
			l.advance()
		}
		text := l.src[start.Index:l.pos]
		return token.Token{Kind: token.Number, Text: text, Range: token.Range{Start: start, End: l.here()}}

	case b == '"' || b == '\'':
		return l.lexString(b, start)

	default:
		return l.lexOperator(start)
	}
}

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func (l *lexer) lexString(quote byte, start token.Position) token.Token {
	l.advance()
	var sb strings.Builder
	for l.pos < len(l.src) && l.peekByte() != quote {
		if l.peekByte() == '\\' && l.pos+1 < len(l.src) {
			l.advance()
			sb.WriteByte(l.advance())
			continue
		}
		sb.WriteByte(l.advance())
	}
	if l.pos < len(l.src) {
		l.advance()
	} else {
		l.diags.Report(diagnostic.Lexical, token.Range{Start: start, End: l.here()}, "unterminated string literal")
	}
	return token.Token{Kind: token.String, Text: sb.String(), Range: token.Range{Start: start, End: l.here()}}
}

func (l *lexer) lexOperator(start token.Position) token.Token {
	remaining := l.src[l.pos:]
	for _, op := range multiCharOperators {
		if strings.HasPrefix(remaining, op) {
			for range op {
				l.advance()
			}
			return token.Token{Kind: token.Operator, Text: op, Range: token.Range{Start: start, End: l.here()}}
		}
	}

	b := l.advance()
	text := string(b)
	if punctuation[text] {
		return token.Token{Kind: token.Punctuation, Text: text, Range: token.Range{Start: start, End: l.here()}}
	}
	switch text {
	case "+", "-", "*", "/", "%", "=", "<", ">", "!", "&", "|", "^", "~", "?":
		return token.Token{Kind: token.Operator, Text: text, Range: token.Range{Start: start, End: l.here()}}
	}

	l.diags.Report(diagnostic.Lexical, token.Range{Start: start, End: l.here()}, "unexpected character '"+text+"'")
	return token.Token{Kind: token.Illegal, Text: text, Range: token.Range{Start: start, End: l.here()}}
}
