package analyzer

import (
	"github.com/Paril/angel-lsp/ast"
	"github.com/Paril/angel-lsp/diagnostic"
	"github.com/Paril/angel-lsp/scope"
	"github.com/Paril/angel-lsp/symbol"
	"github.com/Paril/angel-lsp/token"
)

// opMethodNames maps a binary/unary operator sigil to its overload-method
// name.
var opMethodNames = map[string]string{
	"-": "opNeg", "~": "opCom",
	"==": "opEquals", "is": "opEquals", "<=>": "opCmp",
	"=": "opAssign",
	"+=": "opAddAssign", "-=": "opSubAssign", "*=": "opMulAssign",
	"/=": "opDivAssign", "%=": "opModAssign", "**=": "opPowAssign",
	"&=": "opAndAssign", "|=": "opOrAssign", "^=": "opXorAssign",
	"<<=": "opShlAssign", ">>=": "opShrAssign", ">>>=": "opUShrAssign",
	"+": "opAdd", "*": "opMul", "/": "opDiv", "%": "opMod", "**": "opPow",
	"&": "opAnd", "|": "opOr", "^": "opXor",
	"<<": "opShl", ">>": "opShr", ">>>": "opUShr",
	"[]": "opIndex", "()": "opCall",
}

// binaryOpMethod returns "-" -> "opSub", distinguished from unary opNeg by
// call site (binary vs. unary), since the sigil table reuses "-" for both.
func binaryOpMethod(text string) string {
	if text == "-" {
		return "opSub"
	}
	return opMethodNames[text]
}

func (a *Analyzer) evalExpr(sc *scope.Scope, n ast.Node, fn *symbol.Function) symbol.ResolvedType {
	if n == nil {
		return symbol.Unresolved
	}
	switch e := n.(type) {
	case *ast.ExprValue:
		return a.evalValue(sc, e)
	case *ast.ExprMember:
		return a.evalMember(sc, e, fn)
	case *ast.ExprNamespaceAccess:
		return a.evalNamespaceAccess(sc, e)
	case *ast.ExprFuncCall:
		return a.evalCall(sc, e, fn)
	case *ast.ExprAssign:
		return a.evalAssign(sc, e, fn)
	case *ast.ExprBinary:
		return a.evalBinary(sc, e, fn)
	case *ast.ExprUnary:
		return a.evalUnary(sc, e, fn)
	case *ast.ExprPostOp:
		return a.evalPostOp(sc, e, fn)
	case *ast.ExprIndex:
		return a.evalIndex(sc, e, fn)
	case *ast.ExprCast:
		a.evalExpr(sc, e.Expr, fn)
		return hoistResolveType(a, sc, e.Type)
	case *ast.ArgList:
		for _, arg := range e.Args {
			a.evalExpr(sc, arg, fn)
		}
		return symbol.Unresolved
	default:
		return symbol.Unresolved
	}
}

func (a *Analyzer) evalValue(sc *scope.Scope, e *ast.ExprValue) symbol.ResolvedType {
	switch {
	case e.IsInt:
		return a.primitiveType(sc, "int")
	case e.IsFloat:
		return a.primitiveType(sc, "double")
	case e.IsBool:
		return a.primitiveType(sc, "bool")
	case e.IsNull:
		return symbol.ResolvedType{IsHandle: true}
	case e.IsThis:
		return a.lookupIdent(sc, token.Token{Kind: token.Keyword, Text: "this", Range: e.Range()})
	case e.IsString:
		for _, name := range a.Settings.Analyzer.BuiltinStringTypes {
			if t := a.primitiveType(sc, name); !t.IsUnresolved() {
				return t
			}
		}
		return symbol.Unresolved
	case e.IsIdent:
		return a.lookupIdent(sc, e.Token)
	default:
		return symbol.Unresolved
	}
}

func (a *Analyzer) primitiveType(sc *scope.Scope, name string) symbol.ResolvedType {
	holder := sc.LookupSymbolWithParent(name)
	if holder == nil || holder.IsFuncHolder() {
		return symbol.Unresolved
	}
	if ts, ok := holder.Single().(*symbol.Type); ok {
		return symbol.ResolvedType{TypeSym: ts}
	}
	return symbol.Unresolved
}

func (a *Analyzer) lookupIdent(sc *scope.Scope, tok token.Token) symbol.ResolvedType {
	found, ok := sc.FindSymbolWithParent(tok.Text)
	if !ok {
		a.Global.Diagnostics.Report(diagnostic.UnresolvedName, tok.Range, "unresolved name '"+tok.Text+"'")
		return symbol.Unresolved
	}
	holder := found.Holder
	if holder.IsFuncHolder() {
		a.Global.AddReference(symbol.ReferenceEntry{FromToken: tok, ToHolder: holder})
		return symbol.Unresolved
	}
	sym := holder.Single()
	a.Global.AddReference(symbol.ReferenceEntry{FromToken: tok, ToSymbol: sym})
	switch s := sym.(type) {
	case *symbol.Variable:
		a.checkMemberAccess(sc, s.Access, found.OwnerScope, tok, s.Name())
		return s.Type
	case *symbol.Type:
		return symbol.ResolvedType{TypeSym: s}
	}
	return symbol.Unresolved
}

// lookupMember performs a shallow-then-bases walk: shallow lookup in t's
// members scope, falling back through t's base list when missing. Returns
// the owning scope's path alongside the holder, the access metadata a
// caller needs to check private/protected use.
func (a *Analyzer) lookupMember(t symbol.ResolvedType, name string) (*symbol.Holder, symbol.Path) {
	if t.TypeSym == nil || t.TypeSym.MembersScope == nil {
		return nil, symbol.Path{}
	}
	membersScope, ok := a.Global.Lookup(*t.TypeSym.MembersScope)
	if !ok {
		return nil, symbol.Path{}
	}
	if h := membersScope.LookupSymbol(name); h != nil {
		return h, membersScope.Path()
	}
	for _, base := range t.TypeSym.Bases {
		if h, owner := a.lookupMember(base, name); h != nil {
			return h, owner
		}
	}
	return nil, symbol.Path{}
}

func (a *Analyzer) evalMember(sc *scope.Scope, e *ast.ExprMember, fn *symbol.Function) symbol.ResolvedType {
	targetType := a.evalExpr(sc, e.Target, fn)

	a.Global.AddHint(symbol.AutocompleteInstanceMember{
		CaretRange: token.Range{Start: e.DotPos, End: e.Member.Range.End},
		TargetType: targetType,
	})

	if targetType.IsUnresolved() {
		return symbol.Unresolved
	}

	holder, owner := a.lookupMember(targetType, e.Member.Text)
	if holder == nil {
		a.Global.Diagnostics.Report(diagnostic.UnresolvedName, e.Member.Range,
			"unresolved member '"+e.Member.Text+"' of "+targetType.String())
		return symbol.Unresolved
	}
	if holder.IsFuncHolder() {
		if fns := holder.Overloads(); len(fns) > 0 {
			a.checkMemberAccess(sc, fns[0].Access, owner, e.Member, fns[0].Name())
		}
		a.Global.AddReference(symbol.ReferenceEntry{FromToken: e.Member, ToHolder: holder})
		return symbol.Unresolved
	}
	sym := holder.Single()
	a.Global.AddReference(symbol.ReferenceEntry{FromToken: e.Member, ToSymbol: sym})
	if v, ok := sym.(*symbol.Variable); ok {
		a.checkMemberAccess(sc, v.Access, owner, e.Member, v.Name())
		return v.Type
	}
	if t, ok := sym.(*symbol.Type); ok {
		return symbol.ResolvedType{TypeSym: t}
	}
	return symbol.Unresolved
}

func (a *Analyzer) evalIndex(sc *scope.Scope, e *ast.ExprIndex, fn *symbol.Function) symbol.ResolvedType {
	target := a.evalExpr(sc, e.Target, fn)
	index := a.evalExpr(sc, e.Index, fn)
	if target.IsUnresolved() {
		return symbol.Unresolved
	}
	if result, ok := a.callOperator(target, "opIndex", index); ok {
		return result
	}
	a.Global.Diagnostics.Report(diagnostic.OverloadResolutionFailure, e.Range(),
		"no 'opIndex' overload on "+target.String())
	return symbol.Unresolved
}

func (a *Analyzer) evalNamespaceAccess(sc *scope.Scope, e *ast.ExprNamespaceAccess) symbol.ResolvedType {
	if len(e.Segments) == 0 {
		return symbol.Unresolved
	}
	cur := a.Global.Root()
	for _, seg := range e.Segments[:len(e.Segments)-1] {
		next, ok := cur.LookupChildScope(seg.Text)
		if !ok {
			a.Global.Diagnostics.Report(diagnostic.UnresolvedName, seg.Range, "unresolved namespace '"+seg.Text+"'")
			return symbol.Unresolved
		}
		cur = next
		p := cur.Path()
		a.Global.AddReference(symbol.ReferenceEntry{FromToken: seg, ToScope: &p})
	}

	last := e.Segments[len(e.Segments)-1]
	a.Global.AddHint(symbol.AutocompleteNamespaceAccess{
		CaretRange: token.Range{Start: e.ColonPos, End: last.Range.End},
		AccessPath: cur.Path(),
	})

	holder := cur.LookupSymbol(last.Text)
	if holder == nil {
		a.Global.Diagnostics.Report(diagnostic.UnresolvedName, last.Range, "unresolved name '"+last.Text+"'")
		return symbol.Unresolved
	}
	if holder.IsFuncHolder() {
		a.Global.AddReference(symbol.ReferenceEntry{FromToken: last, ToHolder: holder})
		return symbol.Unresolved
	}
	sym := holder.Single()
	a.Global.AddReference(symbol.ReferenceEntry{FromToken: last, ToSymbol: sym})
	if v, ok := sym.(*symbol.Variable); ok {
		return v.Type
	}
	if t, ok := sym.(*symbol.Type); ok {
		return symbol.ResolvedType{TypeSym: t}
	}
	return symbol.Unresolved
}
