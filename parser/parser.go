package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/Paril/angel-lsp/ast"
	"github.com/Paril/angel-lsp/diagnostic"
	"github.com/Paril/angel-lsp/token"
)

// Parse lexes and parses one AngelScript file, returning the script's AST
// (always non-nil, possibly containing *ast.Error placeholders at parse
// failures) and the accumulated lexical+syntactic diagnostics.
func Parse(uri, source string) (*ast.Script, *diagnostic.Sink) {
	diags := diagnostic.NewSink()
	includes, stripped := extractIncludes(source)
	toks := Tokenize(stripped, diags)
	p := &parser{toks: toks, diags: diags, uri: uri}
	script := &ast.Script{Includes: includes}
	for !p.atEnd() {
		if decl := p.parseDecl(); decl != nil {
			script.Decls = append(script.Decls, decl)
		}
	}
	return script, diags
}

// extractIncludes pulls `#include "path"` preprocessor directives out of
// the raw source before lexing, blanking each directive line (preserving
// line/column alignment for everything after it) the way an AngelScript
// preprocessor pass would. Each directive carries the token.Range of its
// quoted path text (excluding the quotes), so a missing target can be
// diagnosed at the right span later.
func extractIncludes(source string) ([]ast.IncludeDirective, string) {
	var includes []ast.IncludeDirective
	lines := strings.Split(source, "\n")
	offset := 0
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#include") {
			offset += len(line) + 1
			continue
		}
		start := strings.IndexByte(line, '"')
		end := strings.LastIndexByte(line, '"')
		if start >= 0 && end > start {
			includes = append(includes, ast.IncludeDirective{
				Path: line[start+1 : end],
				Range: token.Range{
					Start: token.Position{
						Line: i + 1,
						Column: utf8.RuneCountInString(line[:start+1]) + 1,
						Index: offset + start + 1,
					},
					End: token.Position{
						Line: i + 1,
						Column: utf8.RuneCountInString(line[:end]) + 1,
						Index: offset + end,
					},
				},
			})
		}
		lines[i] = ""
		offset += len(line) + 1
	}
	return includes, strings.Join(lines, "\n")
}

type parser struct {
	uri string
	toks []token.Token
	pos int
	diags *diagnostic.Sink
}

func (p *parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos]
}

func (p *parser) peekAt(off int) token.Token {
	idx := p.pos + off
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *parser) atEnd() bool { return p.cur().Kind == token.EOF }

func (p *parser) advance() token.Token {
	t := p.cur()
	if !p.atEnd() {
		p.pos++
	}
	return t
}

func (p *parser) is(text string) bool { return p.cur().Text == text }

func (p *parser) isKeyword(kw string) bool { return p.cur().Kind == token.Keyword && p.cur().Text == kw }

func (p *parser) accept(text string) bool {
	if p.is(text) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(text string) token.Token {
	if p.is(text) {
		return p.advance()
	}
	p.diags.Report(diagnostic.Syntactic, p.cur().Range, "expected '"+text+"', found '"+p.cur().Text+"'")
	return p.cur()
}

func (p *parser) expectIdent() token.Token {
	if p.cur().Kind == token.Identifier {
		return p.advance()
	}
	p.diags.Report(diagnostic.Syntactic, p.cur().Range, "expected identifier, found '"+p.cur().Text+"'")
	return token.Token{Kind: token.Identifier, Range: p.cur().Range}
}

// errorNode builds an *ast.Error and resynchronizes at the next
// statement/declaration boundary.
func (p *parser) errorNode(message string) *ast.Error {
	start := p.cur().Range
	p.diags.Report(diagnostic.Syntactic, start, message)
	for !p.atEnd() && !p.is(";") && !p.is("}") {
		p.advance()
	}
	p.accept(";")
	e := &ast.Error{Message: message}
	e.Rng = start
	return e
}

func access(pub, priv, prot bool) ast.Access {
	switch {
	case priv:
		return ast.AccessPrivate
	case prot:
		return ast.AccessProtected
	default:
		return ast.AccessPublic
	}
}
