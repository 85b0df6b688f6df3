package hoist

import (
	"fmt"

	"github.com/Paril/angel-lsp/ast"
	"github.com/Paril/angel-lsp/diagnostic"
	"github.com/Paril/angel-lsp/scope"
	"github.com/Paril/angel-lsp/symbol"
	"github.com/Paril/angel-lsp/token"
)

// nodeAt wraps a bare range as an ast.Node, for diagnostics anchored to a
// synthetic insertion site (a cloned base-class member) rather than a
// parsed declaration.
func nodeAt(r token.Range) ast.Node {
	e := &ast.Error{}
	e.Rng = r
	return e
}

// --- Enum ---

func (h *Hoister) hoistEnum(sc *scope.Scope, n *ast.Enum) {
	typeSym := &symbol.Type{
		IdentToken: n.Name,
		DeclScope: sc.Path(),
		Discriminator: symbol.TypeEnum,
	}
	sc.InsertSymbolAndCheck(n, n.Name.Text, typeSym, nil)

	members := sc.InsertScope(n.Name.Text, n)
	memberPath := members.Path()
	typeSym.MembersScope = &memberPath
	h.Global.AddHint(symbol.ScopeRegion{ScopePath: members.Path(), NodeRange: n.Range()})

	resolved := symbol.ResolvedType{TypeSym: typeSym}

	for _, mem := range n.Members {
		varSym := &symbol.Variable{
			IdentToken: mem.Name,
			DeclScope: memberPath,
			Type: resolved,
		}
		members.InsertSymbolAndCheck(mem, mem.Name.Text, varSym, nil)

		if h.Settings.Analyzer.HoistEnumParentScope {
			h.propagateToNamespaceAncestors(sc, mem.Name.Text, varSym, mem)
		}
	}
}

// propagateToNamespaceAncestors implements the resolved open question:
// hoistEnumParentScope propagates transitively through every enclosing
// pure-namespace scope.
func (h *Hoister) propagateToNamespaceAncestors(sc *scope.Scope, name string, sym symbol.Symbol, node ast.Node) {
	cur := sc
	for {
		cur.InsertSymbolAndCheck(node, name, sym, nil)
		if !cur.IsPureNamespaceScope() {
			return
		}
		parent, ok := cur.Parent()
		if !ok {
			return
		}
		cur = parent
	}
}

// --- Typedef ---

func (h *Hoister) hoistTypedef(sc *scope.Scope, n *ast.Typedef) {
	var aliasedBases []symbol.ResolvedType
	if holder := h.Global.Root().LookupSymbol(n.Primitive.Text); holder != nil && !holder.IsFuncHolder() {
		if prim, ok := holder.Single().(*symbol.Type); ok {
			aliasedBases = []symbol.ResolvedType{{TypeSym: prim}}
		}
	}
	if aliasedBases == nil {
		h.reportUnresolved(sc, n, "unresolved primitive '"+n.Primitive.Text+"' in typedef")
	}

	typeSym := &symbol.Type{
		IdentToken: n.Name,
		DeclScope: sc.Path(),
		Discriminator: symbol.TypeTypedef,
		Bases: aliasedBases,
	}
	sc.InsertSymbolAndCheck(n, n.Name.Text, typeSym, nil)
}

// --- Class ---

func (h *Hoister) hoistClass(sc *scope.Scope, n *ast.Class) {
	typeSym := &symbol.Type{
		IdentToken: n.Name,
		DeclScope: sc.Path(),
		Discriminator: symbol.TypeClass,
	}
	for _, tp := range n.TemplateParams {
		typeSym.TemplateParams = append(typeSym.TemplateParams, tp.Text)
	}
	sc.InsertSymbolAndCheck(n, n.Name.Text, typeSym, nil)

	members := sc.InsertScope(n.Name.Text, n)
	memberPath := members.Path()
	typeSym.MembersScope = &memberPath
	h.Global.AddHint(symbol.ScopeRegion{ScopePath: members.Path(), NodeRange: n.Range()})

	classResolved := symbol.ResolvedType{TypeSym: typeSym}

	thisSym := &symbol.Variable{
		IdentToken: n.Name,
		DeclScope: memberPath,
		Type: classResolved,
		IsInstanceMember: true,
		Access: ast.AccessPrivate,
	}
	members.InsertSymbol("this", thisSym, nil)

	for _, tp := range n.TemplateParams {
		tpSym := &symbol.Type{
			IdentToken: tp,
			DeclScope: memberPath,
			Discriminator: symbol.TypeTemplateParam,
		}
		members.InsertSymbol(tp.Text, tpSym, nil)
	}

	for _, baseRef := range n.Bases {
		resolved := ResolveType(h.Global, sc, baseRef, h.Settings)
		if resolved.IsUnresolved() {
			h.reportUnresolved(sc, baseRef, "unresolved base class '"+baseRef.Name.Text+"'")
			continue
		}
		if resolved.TypeSym.Discriminator != symbol.TypeClass && resolved.TypeSym.Discriminator != symbol.TypeInterface {
			h.Global.Diagnostics.Report(diagnostic.TypeMismatch, baseRef.Range(),
				fmt.Sprintf("'%s' is not a class or interface", resolved.TypeSym.Name()))
			continue
		}
		typeSym.Bases = append(typeSym.Bases, resolved)
	}

	h.enqueue(func() {
		for _, member := range n.Members {
			h.hoistDecl(members, member, true)
		}
		h.enqueue(func() {
			h.copyBaseMembers(members, typeSym)
		})
	})
}

// copyBaseMembers copies non-private, non-`this` members from every base
// into members, diagnosing collisions, then injects a `super` function
// holder cloned from the first base's constructors.
func (h *Hoister) copyBaseMembers(members *scope.Scope, typeSym *symbol.Type) {
	for i, base := range typeSym.Bases {
		if base.TypeSym == nil || base.TypeSym.MembersScope == nil {
			continue
		}
		baseScope, ok := h.Global.Lookup(*base.TypeSym.MembersScope)
		if !ok {
			continue
		}

		var superCtors []*symbol.Function

		for _, name := range baseScope.OrderedNames() {
			if name == "this" {
				continue
			}
			holder := baseScope.LookupSymbol(name)
			if holder == nil {
				continue
			}

			if holder.IsFuncHolder() {
				for _, fn := range holder.Overloads() {
					if fn.Access == ast.AccessPrivate {
						continue
					}
					if name == "constructor" || name == base.TypeSym.Name() {
						superCtors = append(superCtors, fn)
						continue
					}
					clone := *fn
					clone.DeclScope = members.Path()
					members.InsertSymbolAndCheck(nodeAt(clone.IdentToken.Range), name, nil, &clone)
				}
				continue
			}

			switch s := holder.Single().(type) {
			case *symbol.Variable:
				if s.Access == ast.AccessPrivate {
					continue
				}
				clone := *s
				clone.DeclScope = members.Path()
				members.InsertSymbolAndCheck(nodeAt(clone.IdentToken.Range), name, &clone, nil)
			case *symbol.Type:
				members.InsertSymbol(name, s, nil)
			}
		}

		if i == 0 && len(superCtors) > 0 {
			firstClone := *superCtors[0]
			firstClone.IdentToken.Text = "super"
			members.InsertSymbol("super", nil, &firstClone)
			for _, ctor := range superCtors[1:] {
				clone := *ctor
				clone.IdentToken.Text = "super"
				if holder := members.LookupSymbol("super"); holder != nil {
					holder.AddOverload(&clone)
				}
			}
		}
	}
}

// --- Interface ---

func (h *Hoister) hoistInterface(sc *scope.Scope, n *ast.Interface) {
	typeSym := &symbol.Type{
		IdentToken: n.Name,
		DeclScope: sc.Path(),
		Discriminator: symbol.TypeInterface,
	}
	sc.InsertSymbolAndCheck(n, n.Name.Text, typeSym, nil)

	members := sc.InsertScope(n.Name.Text, n)
	memberPath := members.Path()
	typeSym.MembersScope = &memberPath
	h.Global.AddHint(symbol.ScopeRegion{ScopePath: members.Path(), NodeRange: n.Range()})

	for _, baseRef := range n.Bases {
		resolved := ResolveType(h.Global, sc, baseRef, h.Settings)
		if resolved.IsUnresolved() {
			h.reportUnresolved(sc, baseRef, "unresolved base interface '"+baseRef.Name.Text+"'")
			continue
		}
		typeSym.Bases = append(typeSym.Bases, resolved)
	}

	h.enqueue(func() {
		for _, member := range n.Members {
			h.hoistDecl(members, member, true)
		}
		h.enqueue(func() {
			h.copyBaseMembers(members, typeSym)
		})
	})
}
