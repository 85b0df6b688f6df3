package parser

import (
	"github.com/Paril/angel-lsp/ast"
	"github.com/Paril/angel-lsp/token"
)

// primitiveKeywords are the built-in scalar type names, which lex as
// token.Keyword rather than token.Identifier.
var primitiveKeywords = map[string]bool{
	"void": true, "bool": true, "int": true, "int8": true, "int16": true,
	"int32": true, "int64": true, "uint": true, "uint8": true, "uint16": true,
	"uint32": true, "uint64": true, "float": true, "double": true,
}

func (p *parser) parseTypeRef() *ast.TypeRef {
	start := p.cur().Range.Start
	t := &ast.TypeRef{}

	if p.isKeyword("const") {
		t.IsConst = true
		p.advance()
	}

	if p.accept("::") {
		t.GlobalScope = true
	}

	if p.isKeyword("auto") {
		t.IsAuto = true
		t.Name = p.advance()
	} else if primitiveKeywords[p.cur().Text] && p.cur().Kind == token.Keyword {
		t.Name = p.advance()
	} else {
		t.Name = p.expectIdent()
		for p.is("::") && p.peekAt(1).Kind == token.Identifier {
			t.Qualifiers = append(t.Qualifiers, t.Name)
			p.advance()
			t.Name = p.expectIdent()
		}
	}

	if p.is("<") && !t.IsAuto {
		save := p.pos
		if args, ok := p.tryParseTemplateArgs(); ok {
			t.TemplateArg = args
		} else {
			p.pos = save
		}
	}

	for p.is("[") && p.peekAt(1).Text == "]" {
		p.advance()
		p.advance()
		t.IsArray = true
	}

	if p.accept("@") {
		t.IsHandle = true
		if p.isKeyword("const") {
			p.advance()
		}
	}

	if p.accept("&") {
		switch {
		case p.isKeyword("in"):
			p.advance()
			t.RefMode = ast.RefIn
		case p.isKeyword("out"):
			p.advance()
			t.RefMode = ast.RefOut
		case p.isKeyword("inout"):
			p.advance()
			t.RefMode = ast.RefInOut
		default:
			t.RefMode = ast.RefIn
		}
	}

	if p.isKeyword("const") {
		t.IsConst = true
		p.advance()
	}

	t.Rng = ast.NewRange(start, p.cur().Range.Start)
	return t
}

// tryParseTemplateArgs speculatively parses `< T, U >`, returning ok=false
// (leaving the parser's position for the caller to reset) if what follows
// `<` doesn't look like a template-argument list — needed because `<` is
// also the less-than operator and a bare identifier followed by `<` is
// ambiguous until we've looked further ahead.
func (p *parser) tryParseTemplateArgs() ([]*ast.TypeRef, bool) {
	if !p.is("<") {
		return nil, false
	}
	p.advance()
	var args []*ast.TypeRef
	for {
		if p.cur().Kind != token.Identifier && !(p.cur().Kind == token.Keyword && primitiveKeywords[p.cur().Text]) {
			return nil, false
		}
		args = append(args, p.parseTypeRef())
		if p.accept(",") {
			continue
		}
		break
	}
	if !p.accept(">") {
		return nil, false
	}
	return args, true
}
