package analyzer

import (
	"fmt"

	"github.com/Paril/angel-lsp/ast"
	"github.com/Paril/angel-lsp/diagnostic"
	"github.com/Paril/angel-lsp/scope"
	"github.com/Paril/angel-lsp/symbol"
	"github.com/Paril/angel-lsp/token"
)

// resolveCallee finds the function holder a call expression's callee
// names, the identifier token to anchor diagnostics/references/hints at,
// and the owning scope's path (access metadata) for each of the three
// callable forms: bare identifier, member access, namespace access.
func (a *Analyzer) resolveCallee(sc *scope.Scope, callee ast.Node, fn *symbol.Function) (*symbol.Holder, token.Token, symbol.Path) {
	switch c := callee.(type) {
	case *ast.ExprValue:
		if c.IsIdent {
			if found, ok := sc.FindSymbolWithParent(c.Token.Text); ok {
				return found.Holder, c.Token, found.OwnerScope
			}
			return nil, c.Token, symbol.Path{}
		}
	case *ast.ExprMember:
		targetType := a.evalExpr(sc, c.Target, fn)
		if targetType.IsUnresolved() {
			return nil, c.Member, symbol.Path{}
		}
		holder, owner := a.lookupMember(targetType, c.Member.Text)
		return holder, c.Member, owner
	case *ast.ExprNamespaceAccess:
		if len(c.Segments) == 0 {
			return nil, token.Token{}, symbol.Path{}
		}
		cur := a.Global.Root()
		for _, seg := range c.Segments[:len(c.Segments)-1] {
			next, ok := cur.LookupChildScope(seg.Text)
			if !ok {
				return nil, c.Segments[len(c.Segments)-1], symbol.Path{}
			}
			cur = next
			p := cur.Path()
			a.Global.AddReference(symbol.ReferenceEntry{FromToken: seg, ToScope: &p})
		}
		last := c.Segments[len(c.Segments)-1]
		return cur.LookupSymbol(last.Text), last, cur.Path()
	}
	return nil, token.Token{}, symbol.Path{}
}

// candidate is one overload scored against a call site's argument count.
type candidate struct {
	fn *symbol.Function
	score int // lower is better; -1 means rejected
}

func (a *Analyzer) evalCall(sc *scope.Scope, e *ast.ExprFuncCall, fn *symbol.Function) symbol.ResolvedType {
	var argTypes []symbol.ResolvedType
	var args *ast.ArgList
	if e.Args != nil {
		args = e.Args
		for _, arg := range e.Args.Args {
			argTypes = append(argTypes, a.evalExpr(sc, arg, fn))
		}
	}

	holder, identTok, owner := a.resolveCallee(sc, e.Callee, fn)
	if holder == nil {
		a.Global.Diagnostics.Report(diagnostic.UnresolvedName, e.Range(), "call target is not callable")
		return symbol.Unresolved
	}
	if !holder.IsFuncHolder() {
		a.Global.Diagnostics.Report(diagnostic.TypeMismatch, e.Range(),
			"'"+holder.Name()+"' is not callable")
		return symbol.Unresolved
	}

	overloads := holder.Overloads()
	best, ambiguous := scoreOverloads(overloads, argTypes)
	if best == nil {
		names := make([]string, 0, len(overloads))
		for _, o := range overloads {
			names = append(names, signature(o))
		}
		a.Global.Diagnostics.Report(diagnostic.OverloadResolutionFailure, e.Range(),
			fmt.Sprintf("no overload of '%s' accepts %d argument(s); candidates: %v", holder.Name(), len(argTypes), names))
		return symbol.Unresolved
	}
	if ambiguous {
		a.Global.Diagnostics.Report(diagnostic.OverloadResolutionFailure, e.Range(),
			"ambiguous call to overloaded '"+holder.Name()+"'")
	}

	a.checkMemberAccess(sc, best.Access, owner, identTok, best.Name())

	bindNamedArgs(a, best, args)

	a.Global.AddHint(symbol.FunctionCall{
		CallerIdent: identTok,
		CallerArgs: args,
		Callee: holder,
	})
	a.Global.AddReference(symbol.ReferenceEntry{FromToken: identTok, ToHolder: holder})

	return best.ReturnType
}

// scoreOverloads applies a tie-break order: fewer required
// conversions, non-variadic over variadic, non-template over template,
// declaration order. Returns nil if every candidate is rejected (argument
// count doesn't fit), and ambiguous=true if ≥2 candidates share the best
// score.
func scoreOverloads(overloads []*symbol.Function, argTypes []symbol.ResolvedType) (best *symbol.Function, ambiguous bool) {
	bestScore := -1
	tieCount := 0
	for _, fn := range overloads {
		if !arityFits(fn, len(argTypes)) {
			continue
		}
		score := 0
		for i, want := range fn.ParamTypes {
			if i >= len(argTypes) {
				break
			}
			score += conversionCost(want, argTypes[i])
		}
		if fn.IsVariadic {
			score += 1000
		}
		if len(fn.TemplateParams) > 0 {
			score += 100
		}
		if bestScore == -1 || score < bestScore {
			bestScore = score
			best = fn
			tieCount = 1
		} else if score == bestScore {
			tieCount++
		}
	}
	return best, tieCount > 1
}

func arityFits(fn *symbol.Function, n int) bool {
	if fn.IsVariadic {
		return n >= len(fn.ParamTypes)-1
	}
	return n == len(fn.ParamTypes)
}

// conversionCost scores one argument: 0 for an exact match, 1 for numeric
// widening, 2 when either side is a handle, and 3 when either side is
// unresolved ("?" any-type) or the types differ in any other way. No
// argument pair is rejected, so a type mismatch alone never rules out an
// overload.
func conversionCost(want, got symbol.ResolvedType) int {
	if got.IsUnresolved() || want.IsUnresolved() {
		return 3
	}
	if want.Equal(got) {
		return 0
	}
	if isNumeric(want) && isNumeric(got) {
		return 1
	}
	if want.IsHandle || got.IsHandle {
		return 2
	}
	return 3
}

func signature(fn *symbol.Function) string {
	s := fn.Name() + "("
	for i, p := range fn.ParamTypes {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	return s + ")"
}

// bindNamedArgs validates named arguments (`ident: expr`) against the
// chosen overload's parameter names after positional matching ends.
func bindNamedArgs(a *Analyzer, fn *symbol.Function, args *ast.ArgList) {
	if args == nil {
		return
	}
	seen := map[string]bool{}
	for _, name := range args.Names {
		if name.Text == "" {
			continue
		}
		found := false
		for _, pn := range fn.ParamNames {
			if pn == name.Text {
				found = true
				break
			}
		}
		if !found {
			a.Global.Diagnostics.Report(diagnostic.UnresolvedName, name.Range,
				"unknown named argument '"+name.Text+"'")
		} else if seen[name.Text] {
			a.Global.Diagnostics.Report(diagnostic.DuplicateDeclaration, name.Range,
				"duplicate named argument '"+name.Text+"'")
		}
		seen[name.Text] = true
	}
}
