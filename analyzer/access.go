package analyzer

import (
	"github.com/Paril/angel-lsp/ast"
	"github.com/Paril/angel-lsp/diagnostic"
	"github.com/Paril/angel-lsp/scope"
	"github.com/Paril/angel-lsp/symbol"
	"github.com/Paril/angel-lsp/token"
)

// checkMemberAccess reports an AccessViolation when sym, declared with
// access in ownerScope, is used from a point outside what that access
// modifier allows: private requires using scope to be (nested within)
// ownerScope itself; protected additionally allows use from a class that
// derives from ownerScope's class.
func (a *Analyzer) checkMemberAccess(sc *scope.Scope, access ast.Access, ownerScope symbol.Path, tok token.Token, name string) {
	if access == ast.AccessPublic {
		return
	}
	if scopeDescendsFrom(sc, ownerScope) {
		return
	}
	if access == ast.AccessProtected {
		if enclosing := enclosingClassType(sc); enclosing != nil {
			if declaring := classTypeOfScope(a, ownerScope); declaring != nil && derivesFrom(enclosing, declaring) {
				return
			}
		}
	}
	kind := "private"
	if access == ast.AccessProtected {
		kind = "protected"
	}
	a.Global.Diagnostics.Report(diagnostic.AccessViolation, tok.Range,
		"'"+name+"' is "+kind)
}

// scopeDescendsFrom reports whether sc is owner or nested within it.
func scopeDescendsFrom(sc *scope.Scope, owner symbol.Path) bool {
	cur := sc
	for cur != nil {
		if cur.Path().Equal(owner) {
			return true
		}
		p, ok := cur.Parent()
		if !ok {
			return false
		}
		cur = p
	}
	return false
}

// enclosingClassType walks sc's parent chain looking for the synthetic
// `this` variable every class member scope carries, returning the class
// it belongs to, or nil outside any class body.
func enclosingClassType(sc *scope.Scope) *symbol.Type {
	cur := sc
	for cur != nil {
		if h := cur.LookupSymbol("this"); h != nil {
			if v, ok := h.Single().(*symbol.Variable); ok {
				return v.Type.TypeSym
			}
		}
		p, ok := cur.Parent()
		if !ok {
			return nil
		}
		cur = p
	}
	return nil
}

// classTypeOfScope looks up the `this` variable installed directly in the
// scope at p, returning the class type it belongs to.
func classTypeOfScope(a *Analyzer, p symbol.Path) *symbol.Type {
	s, ok := a.Global.Lookup(p)
	if !ok {
		return nil
	}
	if h := s.LookupSymbol("this"); h != nil {
		if v, ok := h.Single().(*symbol.Variable); ok {
			return v.Type.TypeSym
		}
	}
	return nil
}

// derivesFrom reports whether derived is base or transitively extends it
// through its base-class list.
func derivesFrom(derived, base *symbol.Type) bool {
	if derived == nil || base == nil {
		return false
	}
	if derived == base {
		return true
	}
	for _, b := range derived.Bases {
		if derivesFrom(b.TypeSym, base) {
			return true
		}
	}
	return false
}
