package analyzer

import (
	"github.com/Paril/angel-lsp/ast"
	"github.com/Paril/angel-lsp/diagnostic"
	"github.com/Paril/angel-lsp/scope"
	"github.com/Paril/angel-lsp/symbol"
)

func (a *Analyzer) analyzeStatBlock(sc *scope.Scope, sb *ast.StatBlock, fn *symbol.Function) {
	body := a.childBlockScope(sc, sb)
	for _, stat := range sb.Stats {
		a.analyzeStat(body, stat, fn)
	}
}

func (a *Analyzer) analyzeStat(sc *scope.Scope, n ast.Node, fn *symbol.Function) {
	switch s := n.(type) {
	case *ast.VarDecl:
		a.analyzeVarDecl(sc, s)
	case *ast.If:
		a.evalExpr(sc, s.Cond, fn)
		a.analyzeStat(sc, s.Then, fn)
		if s.Else != nil {
			a.analyzeStat(sc, s.Else, fn)
		}
	case *ast.While:
		a.evalExpr(sc, s.Cond, fn)
		a.analyzeStat(sc, s.Body, fn)
	case *ast.DoWhile:
		a.analyzeStat(sc, s.Body, fn)
		a.evalExpr(sc, s.Cond, fn)
	case *ast.For:
		loopScope := a.childBlockScope(sc, s)
		if s.Init != nil {
			a.analyzeStat(loopScope, s.Init, fn)
		}
		if s.Cond != nil {
			a.evalExpr(loopScope, s.Cond, fn)
		}
		for _, post := range s.Post {
			a.evalExpr(loopScope, post, fn)
		}
		a.analyzeStat(loopScope, s.Body, fn)
	case *ast.Switch:
		a.evalExpr(sc, s.Cond, fn)
		for _, c := range s.Cases {
			if c.Value != nil {
				a.evalExpr(sc, c.Value, fn)
			}
			for _, stat := range c.Stats {
				a.analyzeStat(sc, stat, fn)
			}
		}
	case *ast.Return:
		a.analyzeReturn(sc, s, fn)
	case *ast.ExprStat:
		a.evalExpr(sc, s.Expr, fn)
	case *ast.StatBlock:
		a.analyzeStatBlock(sc, s, fn)
	}
}

func (a *Analyzer) analyzeVarDecl(sc *scope.Scope, n *ast.VarDecl) {
	declared := hoistResolveType(a, sc, n.Type)

	var initType symbol.ResolvedType
	if n.Initializer != nil {
		initType = a.evalExpr(sc, n.Initializer, nil)
	}

	resolved := declared
	if n.Type != nil && n.Type.IsAuto {
		resolved = initType
		a.Global.AddHint(symbol.AutoTypeResolution{AutoToken: n.Type.Name, Resolved: resolved})
	} else if n.Initializer != nil && !initType.IsUnresolved() && !compatible(declared, initType) {
		a.Global.Diagnostics.Report(diagnostic.TypeMismatch, n.Initializer.Range(),
			"cannot initialize '"+n.Name.Text+"' of type "+declared.String()+" from "+initType.String())
	}

	sc.InsertSymbolAndCheck(n, n.Name.Text, &symbol.Variable{
		IdentToken: n.Name,
		DeclScope:  sc.Path(),
		Type:       resolved,
	}, nil)
}

func (a *Analyzer) analyzeReturn(sc *scope.Scope, n *ast.Return, fn *symbol.Function) {
	if n.Value == nil {
		return
	}
	valueType := a.evalExpr(sc, n.Value, fn)
	if fn == nil || fn.ReturnType.IsUnresolved() || valueType.IsUnresolved() {
		return
	}
	if !compatible(fn.ReturnType, valueType) {
		a.Global.Diagnostics.Report(diagnostic.TypeMismatch, n.Value.Range(),
			"cannot return "+valueType.String()+" from function returning "+fn.ReturnType.String())
	}
}
