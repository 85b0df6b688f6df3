package parser

import (
	"github.com/Paril/angel-lsp/ast"
	"github.com/Paril/angel-lsp/token"
)

func (p *parser) parseStatBlock() *ast.StatBlock {
	start := p.cur().Range.Start
	sb := &ast.StatBlock{}
	p.expect("{")
	for !p.atEnd() && !p.is("}") {
		sb.Stats = append(sb.Stats, p.parseStat())
	}
	end := p.cur().Range.End
	p.expect("}")
	sb.Rng = ast.NewRange(start, end)
	return sb
}

func (p *parser) parseStat() ast.Node {
	switch {
	case p.is("{"):
		return p.parseStatBlock()
	case p.isKeyword("if"):
		return p.parseIf()
	case p.isKeyword("while"):
		return p.parseWhile()
	case p.isKeyword("do"):
		return p.parseDoWhile()
	case p.isKeyword("for"):
		return p.parseFor()
	case p.isKeyword("switch"):
		return p.parseSwitch()
	case p.isKeyword("return"):
		return p.parseReturn()
	case p.isKeyword("break"):
		start := p.cur().Range
		p.advance()
		p.expect(";")
		e := &ast.ExprStat{}
		e.Rng = start
		return e
	case p.isKeyword("continue"):
		start := p.cur().Range
		p.advance()
		p.expect(";")
		e := &ast.ExprStat{}
		e.Rng = start
		return e
	case p.is(";"):
		p.advance()
		return &ast.ExprStat{}
	case p.looksLikeVarDecl():
		return p.parseVarDeclStat()
	default:
		return p.parseExprStat()
	}
}

func (p *parser) parseIf() ast.Node {
	start := p.cur().Range.Start
	p.advance()
	p.expect("(")
	cond := p.parseExpr()
	p.expect(")")
	then := p.parseStat()
	n := &ast.If{Cond: cond, Then: then}
	if p.isKeyword("else") {
		p.advance()
		n.Else = p.parseStat()
	}
	end := p.cur().Range.Start
	if n.Else != nil {
		end = n.Else.Range().End
	} else {
		end = then.Range().End
	}
	n.Rng = ast.NewRange(start, end)
	return n
}

func (p *parser) parseWhile() ast.Node {
	start := p.cur().Range.Start
	p.advance()
	p.expect("(")
	cond := p.parseExpr()
	p.expect(")")
	body := p.parseStat()
	n := &ast.While{Cond: cond, Body: body}
	n.Rng = ast.NewRange(start, body.Range().End)
	return n
}

func (p *parser) parseDoWhile() ast.Node {
	start := p.cur().Range.Start
	p.advance()
	body := p.parseStat()
	p.expect("while")
	p.expect("(")
	cond := p.parseExpr()
	p.expect(")")
	end := p.cur().Range.End
	p.expect(";")
	n := &ast.DoWhile{Body: body, Cond: cond}
	n.Rng = ast.NewRange(start, end)
	return n
}

func (p *parser) parseFor() ast.Node {
	start := p.cur().Range.Start
	p.advance()
	p.expect("(")

	n := &ast.For{}
	if !p.is(";") {
		if p.looksLikeVarDecl() {
			n.Init = p.parseVarDeclStat()
		} else {
			n.Init = p.parseExprStat()
		}
	} else {
		p.advance()
	}

	if !p.is(";") {
		n.Cond = p.parseExpr()
	}
	p.expect(";")

	for !p.atEnd() && !p.is(")") {
		n.Post = append(n.Post, p.parseExpr())
		if !p.accept(",") {
			break
		}
	}
	p.expect(")")
	n.Body = p.parseStat()
	n.Rng = ast.NewRange(start, n.Body.Range().End)
	return n
}

func (p *parser) parseSwitch() ast.Node {
	start := p.cur().Range.Start
	p.advance()
	p.expect("(")
	cond := p.parseExpr()
	p.expect(")")
	n := &ast.Switch{Cond: cond}
	p.expect("{")
	for !p.atEnd() && !p.is("}") {
		n.Cases = append(n.Cases, p.parseCase())
	}
	end := p.cur().Range.End
	p.expect("}")
	n.Rng = ast.NewRange(start, end)
	return n
}

func (p *parser) parseCase() *ast.Case {
	start := p.cur().Range.Start
	c := &ast.Case{}
	if p.isKeyword("case") {
		p.advance()
		c.Value = p.parseExpr()
	} else if p.isKeyword("default") {
		p.advance()
	}
	p.expect(":")
	for !p.atEnd() && !p.is("}") && !p.isKeyword("case") && !p.isKeyword("default") {
		c.Stats = append(c.Stats, p.parseStat())
	}
	c.Rng = ast.NewRange(start, p.cur().Range.Start)
	return c
}

func (p *parser) parseReturn() ast.Node {
	start := p.cur().Range.Start
	p.advance()
	n := &ast.Return{}
	if !p.is(";") {
		n.Value = p.parseExpr()
	}
	end := p.cur().Range.End
	p.expect(";")
	n.Rng = ast.NewRange(start, end)
	return n
}

func (p *parser) parseExprStat() ast.Node {
	start := p.cur().Range.Start
	expr := p.parseExpr()
	end := p.cur().Range.End
	p.expect(";")
	n := &ast.ExprStat{Expr: expr}
	n.Rng = ast.NewRange(start, end)
	return n
}

func (p *parser) parseVarDeclStat() ast.Node {
	start := p.cur().Range.Start
	t := p.parseTypeRef()
	name := p.expectIdent()
	var init ast.Node
	if p.accept("=") {
		init = p.parseExpr()
	}
	end := p.cur().Range.End
	p.expect(";")
	n := &ast.VarDecl{Type: t, Name: name, Initializer: init}
	n.Rng = ast.NewRange(start, end)
	return n
}

// looksLikeVarDecl speculatively parses a type + identifier ahead of the
// current position, rolling back regardless of the outcome. A statement
// starting with a type name is ambiguous with an expression statement
// starting with a function-style cast or bare identifier until we've
// looked past the type.
func (p *parser) looksLikeVarDecl() bool {
	save := p.pos
	defer func() { p.pos = save }()

	if p.isKeyword("const") || p.isKeyword("auto") || (p.cur().Kind == token.Keyword && primitiveKeywords[p.cur().Text]) {
		return true
	}
	if p.cur().Kind != token.Identifier {
		return false
	}

	t := p.parseTypeRef()
	_ = t
	return p.cur().Kind == token.Identifier
}
