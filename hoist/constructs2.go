package hoist

import (
	"strings"

	"github.com/Paril/angel-lsp/ast"
	"github.com/Paril/angel-lsp/diagnostic"
	"github.com/Paril/angel-lsp/scope"
	"github.com/Paril/angel-lsp/symbol"
)

// --- Function ---

func (h *Hoister) hoistFunc(sc *scope.Scope, n *ast.Func, instanceContext bool) {
	if n.IsDestructor {
		return
	}

	funcSym := &symbol.Function{
		IdentToken: n.Name,
		DeclScope: sc.Path(),
		IsInstanceMember: instanceContext,
		Access: n.Access,
		Node: n,
	}
	for _, tp := range n.TemplateParams {
		funcSym.TemplateParams = append(funcSym.TemplateParams, tp.Text)
	}
	funcSym.ReturnType = ResolveType(h.Global, sc, n.ReturnType, h.Settings)

	sc.InsertSymbol(n.Name.Text, nil, funcSym)

	holderScope := sc.InsertScope(n.Name.Text, nil)
	bodyScope := holderScope.InsertScope(h.nextAnonName(), n)
	bodyPath := bodyScope.Path()
	funcSym.BodyScope = &bodyPath

	for _, p := range n.Params {
		funcSym.ParamNames = append(funcSym.ParamNames, p.Name.Text)
		funcSym.ParamTypes = append(funcSym.ParamTypes, symbol.Unresolved)
	}

	if strings.HasPrefix(n.Name.Text, "get_") || strings.HasPrefix(n.Name.Text, "set_") {
		h.hoistPropertyAccessor(sc, n, funcSym, instanceContext)
	} else if n.IsProperty {
		h.Global.Diagnostics.Report(diagnostic.PropertyContract, n.Name.Range,
			"property function '"+n.Name.Text+"' must be named get_* or set_*")
	}

	h.enqueue(func() {
		for i, p := range n.Params {
			funcSym.ParamTypes[i] = ResolveType(h.Global, bodyScope, p.Type, h.Settings)
			if p.Name.Text != "" {
				bodyScope.InsertSymbolAndCheck(nodeAt(p.Name.Range), p.Name.Text, &symbol.Variable{
					IdentToken: p.Name,
					DeclScope: bodyPath,
					Type: funcSym.ParamTypes[i],
				}, nil)
			}
		}
		if instanceContext {
			if thisHolder := sc.LookupSymbol("this"); thisHolder != nil {
				if thisVar, ok := thisHolder.Single().(*symbol.Variable); ok {
					bodyScope.InsertSymbol("this", thisVar, nil)
				}
			}
		}
		if n.Body != nil {
			h.AnalyzeQueue = append(h.AnalyzeQueue, AnalyzeTask{
				Kind: TaskFuncBody,
				Scope: bodyScope,
				Node: n.Body,
				EnclosingFunc: funcSym,
			})
		}
	})
}

// hoistPropertyAccessor installs the synthetic field a get_/set_ method
// backs, named by stripping the accessor prefix. The field's type mirrors
// the function's ReturnType even for a setter, a known quirk carried
// forward rather than corrected.
func (h *Hoister) hoistPropertyAccessor(sc *scope.Scope, n *ast.Func, funcSym *symbol.Function, instanceContext bool) {
	if !h.Settings.Analyzer.ExplicitPropertyAccessor || n.IsProperty {
		fieldName := strings.TrimPrefix(strings.TrimPrefix(n.Name.Text, "get_"), "set_")
		fieldSym := &symbol.Variable{
			IdentToken: n.Name,
			DeclScope: sc.Path(),
			Type: funcSym.ReturnType,
			IsInstanceMember: instanceContext,
			Access: n.Access,
		}
		sc.InsertSymbol(fieldName, fieldSym, nil)
	}
}

// --- FuncDef ---

func (h *Hoister) hoistFuncDef(sc *scope.Scope, n *ast.FuncDef) {
	funcSym := &symbol.Function{
		IdentToken: n.Name,
		DeclScope: sc.Path(),
	}
	for _, p := range n.Params {
		funcSym.ParamNames = append(funcSym.ParamNames, p.Name.Text)
	}
	sc.InsertSymbolAndCheck(n, n.Name.Text, nil, funcSym)

	h.enqueue(func() {
		funcSym.ReturnType = ResolveType(h.Global, sc, n.ReturnType, h.Settings)
		for _, p := range n.Params {
			funcSym.ParamTypes = append(funcSym.ParamTypes, ResolveType(h.Global, sc, p.Type, h.Settings))
		}
	})
}

// --- Namespace ---

func (h *Hoister) hoistNamespace(sc *scope.Scope, n *ast.Namespace) {
	cur := sc
	for _, seg := range n.Segments {
		cur = cur.InsertScope(seg.Text, n)
	}
	h.Global.AddHint(symbol.ScopeRegion{ScopePath: cur.Path(), NodeRange: n.Range()})
	for _, decl := range n.Decls {
		h.hoistDecl(cur, decl, false)
	}
}

// --- Var ---

func (h *Hoister) hoistVar(sc *scope.Scope, n *ast.Var, instanceContext bool) {
	resolved := ResolveType(h.Global, sc, n.Type, h.Settings)
	for i, name := range n.Names {
		varSym := &symbol.Variable{
			IdentToken: name,
			DeclScope: sc.Path(),
			Type: resolved,
			IsInstanceMember: instanceContext,
			Access: n.Access,
		}
		sc.InsertSymbolAndCheck(n, name.Text, varSym, nil)

		if i < len(n.Initializers) && n.Initializers[i] != nil {
			init := n.Initializers[i]
			h.AnalyzeQueue = append(h.AnalyzeQueue, AnalyzeTask{
				Kind: TaskVarInit,
				Scope: sc,
				Node: init,
				VarSym: varSym,
			})
		}
	}
}

// --- VirtualProp ---

func (h *Hoister) hoistVirtualProp(sc *scope.Scope, n *ast.VirtualProp, instanceContext bool) {
	resolved := ResolveType(h.Global, sc, n.Type, h.Settings)
	propSym := &symbol.Variable{
		IdentToken: n.Name,
		DeclScope: sc.Path(),
		Type: resolved,
		IsInstanceMember: instanceContext,
		Access: n.Access,
	}
	sc.InsertSymbolAndCheck(n, n.Name.Text, propSym, nil)

	if n.Getter != nil {
		getScope := sc.InsertScope("get_"+n.Name.Text, n.Getter)
		getterFunc := &symbol.Function{IdentToken: n.Name, DeclScope: sc.Path(), ReturnType: resolved}
		h.AnalyzeQueue = append(h.AnalyzeQueue, AnalyzeTask{
			Kind: TaskPropertyBody,
			Scope: getScope,
			Node: n.Getter,
			EnclosingFunc: getterFunc,
		})
	}
	if n.Setter != nil {
		setScope := sc.InsertScope("set_"+n.Name.Text, n.Setter)
		setScope.InsertSymbol("value", &symbol.Variable{
			IdentToken: n.Name,
			DeclScope: setScope.Path(),
			Type: resolved,
		}, nil)
		setterFunc := &symbol.Function{IdentToken: n.Name, DeclScope: sc.Path(), ReturnType: symbol.Unresolved}
		h.AnalyzeQueue = append(h.AnalyzeQueue, AnalyzeTask{
			Kind: TaskPropertyBody,
			Scope: setScope,
			Node: n.Setter,
			EnclosingFunc: setterFunc,
		})
	}
}
