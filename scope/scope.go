// Package scope implements the scope tree: a node with a path, an
// optional linked AST node, an insertion-ordered symbol table, a
// child-scope table, and (on the root only) global extras. Grounded on
// other_examples/alecthomas-langx__scope.go's parent-pointer-plus-
// children-slice shape, generalized from a pointer-chasing tree to a
// path-addressed one: every scope is owned by exactly one GlobalScope map
// keyed by Path, and symbols refer to scopes by Path, not by pointer.
package scope

import (
	"github.com/Paril/angel-lsp/ast"
	"github.com/Paril/angel-lsp/diagnostic"
	"github.com/Paril/angel-lsp/symbol"
)

// entry is one symbol-table slot plus its insertion index, preserving
// insertion order for stable completion ordering.
type entry struct {
	holder *symbol.Holder
	order int
}

// Scope is one node in the scope tree.
type Scope struct {
	path symbol.Path
	linkedNode ast.Node
	parent symbol.Path
	hasParent bool
	global *GlobalScope

	symbols map[string]*entry
	nextOrder int
	childScopes map[string]symbol.Path
	childOrder []string
}

func newScope(path symbol.Path, parent symbol.Path, hasParent bool, g *GlobalScope) *Scope {
	return &Scope{
		path: path,
		parent: parent,
		hasParent: hasParent,
		global: g,
		symbols: map[string]*entry{},
		childScopes: map[string]symbol.Path{},
	}
}

func (s *Scope) Path() symbol.Path { return s.path }

func (s *Scope) LinkedNode() ast.Node { return s.linkedNode }

// Parent returns the parent scope and true, or (nil, false) at the root.
func (s *Scope) Parent() (*Scope, bool) {
	if !s.hasParent {
		return nil, false
	}
	p, ok := s.global.Lookup(s.parent)
	return p, ok
}

// IsPureNamespaceScope reports whether this scope's linked node is absent
// or a Namespace, used to filter completion of namespaces vs types
//.
func (s *Scope) IsPureNamespaceScope() bool {
	if s.linkedNode == nil {
		return true
	}
	_, ok := s.linkedNode.(*ast.Namespace)
	return ok
}

// InsertScope returns the existing child scope named identifier if
// present (attaching linkedNode to it if it was previously missing one),
// else creates a new child scope.
func (s *Scope) InsertScope(identifier string, linkedNode ast.Node) *Scope {
	if childPath, ok := s.childScopes[identifier]; ok {
		child, _ := s.global.Lookup(childPath)
		if child.linkedNode == nil && linkedNode != nil {
			child.linkedNode = linkedNode
		}
		return child
	}

	childPath := s.path.Child(identifier)
	child := newScope(childPath, s.path, true, s.global)
	child.linkedNode = linkedNode
	s.childScopes[identifier] = childPath
	s.childOrder = append(s.childOrder, identifier)
	s.global.register(child)
	return child
}

// InsertScopeAndCheck behaves like InsertScope, but if the found scope
// already has a different non-nil linked node, it reports a duplicate-
// symbol diagnostic at the token's location instead of silently reusing
// it.
func (s *Scope) InsertScopeAndCheck(identTok ast.Node, identifier string, linkedNode ast.Node) *Scope {
	if childPath, ok := s.childScopes[identifier]; ok {
		child, _ := s.global.Lookup(childPath)
		if child.linkedNode != nil && linkedNode != nil && child.linkedNode != linkedNode {
			s.global.Diagnostics.Report(
				diagnostic.DuplicateDeclaration,
				identTok.Range(),
				"duplicate declaration of '"+identifier+"'",
			)
		} else if child.linkedNode == nil {
			child.linkedNode = linkedNode
		}
		return child
	}
	return s.InsertScope(identifier, linkedNode)
}

// InsertSymbol installs symbol sym under its own name if no holder
// exists there yet, returning (nil, true). If a function holder already
// exists there and sym is a *symbol.Function, the overload is appended
// and (nil, true) is returned. Otherwise the existing holder is returned
// unchanged along with false, so the caller may diagnose the collision.
func (s *Scope) InsertSymbol(name string, sym symbol.Symbol, asFunc *symbol.Function) (existing *symbol.Holder, inserted bool) {
	if e, ok := s.symbols[name]; ok {
		if asFunc != nil && e.holder.IsFuncHolder() {
			e.holder.AddOverload(asFunc)
			return nil, true
		}
		return e.holder, false
	}

	var holder *symbol.Holder
	if asFunc != nil {
		holder = symbol.FuncHolder(asFunc)
	} else {
		holder = symbol.SingleHolder(sym)
	}
	s.symbols[name] = &entry{holder: holder, order: s.nextOrder}
	s.nextOrder++
	return nil, true
}

// InsertSymbolAndCheck wraps InsertSymbol, reporting a duplicate-
// declaration diagnostic at identTok on collision.
func (s *Scope) InsertSymbolAndCheck(identTok ast.Node, name string, sym symbol.Symbol, asFunc *symbol.Function) bool {
	_, ok := s.InsertSymbol(name, sym, asFunc)
	if !ok {
		s.global.Diagnostics.Report(
			diagnostic.DuplicateDeclaration,
			identTok.Range(),
			"duplicate declaration of '"+name+"'",
		)
	}
	return ok
}

// LookupSymbol performs a shallow lookup in this scope only.
func (s *Scope) LookupSymbol(name string) *symbol.Holder {
	if e, ok := s.symbols[name]; ok {
		return e.holder
	}
	return nil
}

// LookupSymbolWithParent walks from this scope through every parent until
// a holder is found or the root is reached.
func (s *Scope) LookupSymbolWithParent(name string) *symbol.Holder {
	found, ok := s.FindSymbolWithParent(name)
	if !ok {
		return nil
	}
	return found.Holder
}

// FoundSymbol is the result of FindSymbolWithParent: the holder plus the
// path of the scope that actually owns it, letting a caller check access
// metadata against the scope the lookup originated from.
type FoundSymbol struct {
	Holder *symbol.Holder
	OwnerScope symbol.Path
}

// FindSymbolWithParent walks from this scope through every parent until a
// holder is found, also recording the owning scope's path as access
// metadata for the caller.
func (s *Scope) FindSymbolWithParent(name string) (FoundSymbol, bool) {
	cur := s
	for cur != nil {
		if h := cur.LookupSymbol(name); h != nil {
			return FoundSymbol{Holder: h, OwnerScope: cur.Path()}, true
		}
		p, ok := cur.Parent()
		if !ok {
			return FoundSymbol{}, false
		}
		cur = p
	}
	return FoundSymbol{}, false
}

// LookupChildScope performs a shallow child-scope lookup.
func (s *Scope) LookupChildScope(name string) (*Scope, bool) {
	p, ok := s.childScopes[name]
	if !ok {
		return nil, false
	}
	return s.global.Lookup(p)
}

// OrderedNames returns symbol-table keys in insertion order, used for
// stable completion lists.
func (s *Scope) OrderedNames() []string {
	names := make([]string, len(s.symbols))
	for name, e := range s.symbols {
		names[e.order] = name
	}
	return names
}

// OrderedChildNames returns child-scope keys in insertion order.
func (s *Scope) OrderedChildNames() []string {
	return append([]string(nil), s.childOrder...)
}
