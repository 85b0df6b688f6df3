package parser

import (
	"github.com/Paril/angel-lsp/ast"
	"github.com/Paril/angel-lsp/token"
)

func (p *parser) parseDecl() ast.Node {
	switch {
	case p.isKeyword("namespace"):
		return p.parseNamespace()
	case p.isKeyword("class"):
		return p.parseClass(false)
	case p.isKeyword("mixin"):
		p.advance()
		class := p.parseClass(true)
		m := &ast.Mixin{Class: class.(*ast.Class)}
		m.Rng = class.Range()
		return m
	case p.isKeyword("interface"):
		return p.parseInterface()
	case p.isKeyword("enum"):
		return p.parseEnum()
	case p.isKeyword("typedef"):
		return p.parseTypedef()
	case p.isKeyword("funcdef"):
		return p.parseFuncDef()
	case p.is(";"):
		p.advance()
		return nil
	default:
		return p.parseFuncOrVar(false)
	}
}

func (p *parser) parseNamespace() ast.Node {
	start := p.cur().Range.Start
	p.advance()
	n := &ast.Namespace{}
	n.Segments = append(n.Segments, p.expectIdent())
	for p.accept("::") {
		n.Segments = append(n.Segments, p.expectIdent())
	}
	p.expect("{")
	for !p.atEnd() && !p.is("}") {
		if d := p.parseDecl(); d != nil {
			n.Decls = append(n.Decls, d)
		}
	}
	end := p.cur().Range.End
	p.expect("}")
	n.Rng = ast.NewRange(start, end)
	return n
}

func (p *parser) parseTemplateParams() []token.Token {
	if !p.accept("<") {
		return nil
	}
	var params []token.Token
	params = append(params, p.expectIdent())
	for p.accept(",") {
		params = append(params, p.expectIdent())
	}
	p.expect(">")
	return params
}

func (p *parser) parseBaseList() []*ast.TypeRef {
	if !p.accept(":") {
		return nil
	}
	var bases []*ast.TypeRef
	bases = append(bases, p.parseTypeRef())
	for p.accept(",") {
		bases = append(bases, p.parseTypeRef())
	}
	return bases
}

func (p *parser) parseClass(isMixin bool) ast.Node {
	start := p.cur().Range.Start
	p.advance() // 'class'
	name := p.expectIdent()
	tparams := p.parseTemplateParams()
	bases := p.parseBaseList()

	c := &ast.Class{Name: name, TemplateParams: tparams, Bases: bases, IsMixin: isMixin}
	p.expect("{")
	for !p.atEnd() && !p.is("}") {
		if p.is(";") {
			p.advance()
			continue
		}
		c.Members = append(c.Members, p.parseClassMember())
	}
	end := p.cur().Range.End
	p.expect("}")
	c.Rng = ast.NewRange(start, end)
	return c
}

func (p *parser) parseInterface() ast.Node {
	start := p.cur().Range.Start
	p.advance()
	name := p.expectIdent()
	bases := p.parseBaseList()
	i := &ast.Interface{Name: name, Bases: bases}
	p.expect("{")
	for !p.atEnd() && !p.is("}") {
		if p.is(";") {
			p.advance()
			continue
		}
		i.Members = append(i.Members, p.parseClassMember())
	}
	end := p.cur().Range.End
	p.expect("}")
	i.Rng = ast.NewRange(start, end)
	return i
}

func (p *parser) parseClassMember() ast.Node {
	switch {
	case p.isKeyword("funcdef"):
		return p.parseFuncDef()
	default:
		return p.parseFuncOrVar(true)
	}
}

func (p *parser) parseEnum() ast.Node {
	start := p.cur().Range.Start
	p.advance()
	name := p.expectIdent()
	e := &ast.Enum{Name: name}
	p.expect("{")
	for !p.atEnd() && !p.is("}") {
		mStart := p.cur().Range.Start
		memberName := p.expectIdent()
		var value ast.Node
		if p.accept("=") {
			value = p.parseExpr()
		}
		m := &ast.EnumMember{Name: memberName, Value: value}
		m.Rng = ast.NewRange(mStart, p.cur().Range.Start)
		e.Members = append(e.Members, m)
		if !p.accept(",") {
			break
		}
	}
	end := p.cur().Range.End
	p.expect("}")
	e.Rng = ast.NewRange(start, end)
	return e
}

func (p *parser) parseTypedef() ast.Node {
	start := p.cur().Range.Start
	p.advance()
	prim := p.advance()
	name := p.expectIdent()
	end := p.cur().Range.End
	p.expect(";")
	t := &ast.Typedef{Name: name, Primitive: prim}
	t.Rng = ast.NewRange(start, end)
	return t
}

func (p *parser) parseFuncDef() ast.Node {
	start := p.cur().Range.Start
	p.advance()
	retType := p.parseTypeRef()
	name := p.expectIdent()
	params := p.parseParamList()
	end := p.cur().Range.End
	p.expect(";")
	f := &ast.FuncDef{Name: name, ReturnType: retType, Params: params}
	f.Rng = ast.NewRange(start, end)
	return f
}

func (p *parser) parseParamList() []ast.Param {
	p.expect("(")
	var params []ast.Param
	for !p.atEnd() && !p.is(")") {
		start := p.cur().Range.Start
		t := p.parseTypeRef()
		var name token.Token
		if p.cur().Kind == token.Identifier {
			name = p.advance()
		}
		var def ast.Node
		if p.accept("=") {
			def = p.parseExpr()
		}
		param := ast.Param{Type: t, Name: name, Default: def}
		param.Rng = ast.NewRange(start, p.cur().Range.Start)
		params = append(params, param)
		if !p.accept(",") {
			break
		}
	}
	p.expect(")")
	return params
}

// parseFuncOrVar disambiguates a function declaration from a variable
// declaration by scanning past the access/qualifier keywords and the
// type, then checking whether an identifier is followed by '(' (function)
// or not (variable, possibly multi-name).
func (p *parser) parseFuncOrVar(instanceContext bool) ast.Node {
	start := p.cur().Range.Start

	isPrivate, isProtected, isProperty, isConst := false, false, false, false
	for {
		switch {
		case p.isKeyword("private"):
			isPrivate = true
			p.advance()
		case p.isKeyword("protected"):
			isProtected = true
			p.advance()
		case p.isKeyword("property"):
			isProperty = true
			p.advance()
		case p.isKeyword("shared"), p.isKeyword("external"), p.isKeyword("final"), p.isKeyword("override"), p.isKeyword("abstract"), p.isKeyword("explicit"):
			p.advance()
		default:
			goto doneModifiers
		}
	}
doneModifiers:

	tparams := p.parseTemplateParams()

	destructor := false
	if p.is("~") {
		p.advance()
		destructor = true
	}

	retType := p.parseTypeRef()

	if p.is("(") {
		// constructor/destructor: the "return type" we just parsed was
		// actually the function name.
		name := retType.Name
		return p.finishFunc(start, name, nil, tparams, destructor, isPrivate, isProtected, isProperty, instanceContext)
	}

	name := p.expectIdent()

	if p.is("(") {
		return p.finishFunc(start, name, retType, tparams, destructor, isPrivate, isProtected, isProperty, instanceContext)
	}

	if p.isKeyword("const") {
		isConst = true
		p.advance()
	}
	_ = isConst

	if (p.isKeyword("property") || p.is("{")) && (p.cur().Text == "{" ) {
		return p.finishVirtualProp(start, retType, name, isPrivate, isProtected, instanceContext)
	}

	return p.finishVar(start, retType, name, isPrivate, isProtected, instanceContext)
}

func (p *parser) finishFunc(start token.Position, name token.Token, retType *ast.TypeRef, tparams []token.Token,
	destructor, isPrivate, isProtected, isProperty, instanceContext bool) ast.Node {
	params := p.parseParamList()
	if p.isKeyword("const") {
		p.advance()
	}
	for p.isKeyword("override") || p.isKeyword("final") {
		p.advance()
	}

	f := &ast.Func{
		Name:             name,
		ReturnType:       retType,
		Params:           params,
		IsDestructor:     destructor,
		IsProperty:       isProperty,
		TemplateParams:   tparams,
		IsInstanceMember: instanceContext,
		Access:           access(false, isPrivate, isProtected),
	}

	if p.is("{") {
		f.Body = p.parseStatBlock()
	} else {
		p.expect(";")
	}
	end := p.cur().Range.Start
	if f.Body != nil {
		end = f.Body.Range().End
	}
	f.Rng = ast.NewRange(start, end)
	return f
}

func (p *parser) finishVirtualProp(start token.Position, t *ast.TypeRef, name token.Token, isPrivate, isProtected, instanceContext bool) ast.Node {
	vp := &ast.VirtualProp{Type: t, Name: name, IsInstanceMember: instanceContext, Access: access(false, isPrivate, isProtected)}
	p.expect("{")
	for !p.atEnd() && !p.is("}") {
		switch {
		case p.isKeyword("get"):
			p.advance()
			if p.is("{") {
				vp.Getter = p.parseStatBlock()
			} else {
				p.expect(";")
			}
		case p.isKeyword("set"):
			p.advance()
			if p.is("{") {
				vp.Setter = p.parseStatBlock()
			} else {
				p.expect(";")
			}
		default:
			p.advance()
		}
	}
	end := p.cur().Range.End
	p.expect("}")
	vp.Rng = ast.NewRange(start, end)
	return vp
}

func (p *parser) finishVar(start token.Position, t *ast.TypeRef, first token.Token, isPrivate, isProtected, instanceContext bool) ast.Node {
	v := &ast.Var{Type: t, IsInstanceMember: instanceContext, Access: access(false, isPrivate, isProtected)}

	names := []token.Token{first}
	var inits []ast.Node
	if p.accept("=") {
		inits = append(inits, p.parseExpr())
	} else {
		inits = append(inits, nil)
	}
	for p.accept(",") {
		names = append(names, p.expectIdent())
		if p.accept("=") {
			inits = append(inits, p.parseExpr())
		} else {
			inits = append(inits, nil)
		}
	}
	v.Names = names
	v.Initializers = inits

	end := p.cur().Range.End
	p.expect(";")
	v.Rng = ast.NewRange(start, end)
	return v
}
