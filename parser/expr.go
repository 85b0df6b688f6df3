package parser

import (
	"strings"

	"github.com/Paril/angel-lsp/ast"
	"github.com/Paril/angel-lsp/token"
)

func (p *parser) parseExpr() ast.Node {
	return p.parseAssign()
}

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"**=": true, "&=": true, "|=": true, "^=": true,
	"<<=": true, ">>=": true, ">>>=": true,
}

func (p *parser) parseAssign() ast.Node {
	left := p.parseLogicalOr()
	if p.cur().Kind == token.Operator && assignOps[p.cur().Text] {
		op := p.advance()
		right := p.parseAssign()
		n := &ast.ExprAssign{Target: left, Op: op, Value: right}
		n.Rng = ast.NewRange(left.Range().Start, right.Range().End)
		return n
	}
	return left
}

func (p *parser) binaryLevel(next func() ast.Node, ops ...string) ast.Node {
	left := next()
	for {
		matched := ""
		for _, op := range ops {
			if p.cur().Text == op && (p.cur().Kind == token.Operator || p.cur().Kind == token.Keyword) {
				matched = op
				break
			}
		}
		if matched == "" {
			return left
		}
		opTok := p.advance()
		right := next()
		n := &ast.ExprBinary{Left: left, Op: opTok, Right: right}
		n.Rng = ast.NewRange(left.Range().Start, right.Range().End)
		left = n
	}
}

func (p *parser) parseLogicalOr() ast.Node {
	return p.binaryLevel(p.parseLogicalAnd, "||", "or")
}

func (p *parser) parseLogicalAnd() ast.Node {
	return p.binaryLevel(p.parseBitOr, "&&", "and")
}

func (p *parser) parseBitOr() ast.Node {
	return p.binaryLevel(p.parseBitXor, "|")
}

func (p *parser) parseBitXor() ast.Node {
	return p.binaryLevel(p.parseBitAnd, "^")
}

func (p *parser) parseBitAnd() ast.Node {
	return p.binaryLevel(p.parseEquality, "&")
}

func (p *parser) parseEquality() ast.Node {
	return p.binaryLevel(p.parseRelational, "==", "!=", "is")
}

func (p *parser) parseRelational() ast.Node {
	return p.binaryLevel(p.parseShift, "<", ">", "<=", ">=", "<=>")
}

func (p *parser) parseShift() ast.Node {
	return p.binaryLevel(p.parseAdditive, "<<", ">>", ">>>")
}

func (p *parser) parseAdditive() ast.Node {
	return p.binaryLevel(p.parseMultiplicative, "+", "-")
}

func (p *parser) parseMultiplicative() ast.Node {
	return p.binaryLevel(p.parsePow, "*", "/", "%")
}

// parsePow is right-associative, unlike the other binary levels.
func (p *parser) parsePow() ast.Node {
	left := p.parseUnary()
	if p.cur().Text == "**" {
		op := p.advance()
		right := p.parsePow()
		n := &ast.ExprBinary{Left: left, Op: op, Right: right}
		n.Rng = ast.NewRange(left.Range().Start, right.Range().End)
		return n
	}
	return left
}

var unaryOps = map[string]bool{
	"!": true, "not": true, "-": true, "~": true, "++": true, "--": true, "@": true, "+": true,
}

func (p *parser) parseUnary() ast.Node {
	if unaryOps[p.cur().Text] && (p.cur().Kind == token.Operator || p.cur().Kind == token.Keyword) {
		start := p.cur().Range.Start
		op := p.advance()
		operand := p.parseUnary()
		n := &ast.ExprUnary{Op: op, Operand: operand}
		n.Rng = ast.NewRange(start, operand.Range().End)
		return n
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() ast.Node {
	n := p.parsePrimary()
	for {
		switch {
		case p.is("."):
			dotPos := p.cur().Range.Start
			p.advance()
			member := p.expectIdent()
			m := &ast.ExprMember{Target: n, Member: member, DotPos: dotPos}
			m.Rng = ast.NewRange(n.Range().Start, member.Range.End)
			n = m
		case p.is("["):
			p.advance()
			idx := p.parseExpr()
			end := p.cur().Range.End
			p.expect("]")
			ix := &ast.ExprIndex{Target: n, Index: idx}
			ix.Rng = ast.NewRange(n.Range().Start, end)
			n = ix
		case p.is("("):
			args := p.parseArgList()
			call := &ast.ExprFuncCall{Callee: n, Args: args}
			call.Rng = ast.NewRange(n.Range().Start, args.Range().End)
			n = call
		case p.is("++") || p.is("--"):
			op := p.advance()
			post := &ast.ExprPostOp{Operand: n, Op: op}
			post.Rng = ast.NewRange(n.Range().Start, op.Range.End)
			n = post
		default:
			return n
		}
	}
}

func (p *parser) parseArgList() *ast.ArgList {
	start := p.cur().Range.Start
	p.expect("(")
	al := &ast.ArgList{}
	for !p.atEnd() && !p.is(")") {
		var name token.Token
		if p.cur().Kind == token.Identifier && p.peekAt(1).Text == ":" && p.peekAt(1).Kind != token.Operator {
			// "ident:" named argument — ':' here is punctuation, not the
			// type-qualifier "::" (already lexed as its own two-char token).
			name = p.advance()
			p.advance() // ':'
		}
		al.Args = append(al.Args, p.parseExpr())
		al.Names = append(al.Names, name)
		if !p.accept(",") {
			break
		}
	}
	end := p.cur().Range.End
	p.expect(")")
	al.Rng = ast.NewRange(start, end)
	return al
}

func (p *parser) parsePrimary() ast.Node {
	start := p.cur().Range.Start

	switch {
	case p.is("("):
		p.advance()
		e := p.parseExpr()
		p.expect(")")
		return e

	case p.isKeyword("cast"):
		p.advance()
		p.expect("<")
		t := p.parseTypeRef()
		p.expect(">")
		p.expect("(")
		inner := p.parseExpr()
		end := p.cur().Range.End
		p.expect(")")
		c := &ast.ExprCast{Type: t, Expr: inner}
		c.Rng = ast.NewRange(start, end)
		return c

	case p.cur().Kind == token.Number:
		tok := p.advance()
		v := &ast.ExprValue{Token: tok, IsFloat: isFloatLiteral(tok.Text)}
		v.IsInt = !v.IsFloat
		v.Rng = tok.Range
		return v

	case p.cur().Kind == token.String:
		tok := p.advance()
		v := &ast.ExprValue{Token: tok, IsString: true}
		v.Rng = tok.Range
		return v

	case p.isKeyword("true") || p.isKeyword("false"):
		tok := p.advance()
		v := &ast.ExprValue{Token: tok, IsBool: true}
		v.Rng = tok.Range
		return v

	case p.isKeyword("null"):
		tok := p.advance()
		v := &ast.ExprValue{Token: tok, IsNull: true}
		v.Rng = tok.Range
		return v

	case p.isKeyword("this"):
		tok := p.advance()
		v := &ast.ExprValue{Token: tok, IsThis: true}
		v.Rng = tok.Range
		return v

	case p.is("::") || p.cur().Kind == token.Identifier:
		return p.parseIdentOrNamespace()

	default:
		return p.errorNode("expected expression, found '" + p.cur().Text + "'")
	}
}

// parseIdentOrNamespace parses a lone identifier or a `A::B::x` chain,
// collapsing to *ast.ExprValue in the common single-segment case so the
// analyzer doesn't need to special-case namespace-less lookups.
func (p *parser) parseIdentOrNamespace() ast.Node {
	start := p.cur().Range.Start
	global := p.accept("::")

	first := p.expectIdent()
	if !p.is("::") {
		if global {
			n := &ast.ExprNamespaceAccess{Segments: []token.Token{first}}
			n.Rng = ast.NewRange(start, first.Range.End)
			return n
		}
		v := &ast.ExprValue{Token: first, IsIdent: true}
		v.Rng = first.Range
		return v
	}

	segments := []token.Token{first}
	var colonPos token.Position
	for p.is("::") {
		colonPos = p.cur().Range.Start
		p.advance()
		segments = append(segments, p.expectIdent())
	}
	n := &ast.ExprNamespaceAccess{Segments: segments, ColonPos: colonPos}
	n.Rng = ast.NewRange(start, segments[len(segments)-1].Range.End)
	return n
}

func isFloatLiteral(text string) bool {
	return strings.ContainsAny(text, ".eEfF") && !strings.HasPrefix(text, "0x") && !strings.HasPrefix(text, "0X")
}
