// Package query projects the per-file analysis results a GlobalScope
// accumulates (References, Hints, ScopeRegions) into the editor-facing
// operations an LSP server answers: goto-definition, find-references,
// hover, completion, signature-help, and folding ranges. It never mutates
// a GlobalScope; every function here is a read-only view over state the
// resolver/analyzer already built.
package query

import (
	"strings"

	"github.com/Paril/angel-lsp/ast"
	"github.com/Paril/angel-lsp/scope"
	"github.com/Paril/angel-lsp/symbol"
	"github.com/Paril/angel-lsp/token"
)

// Location is a source span returned by a query, independent of any wire
// encoding.
type Location struct {
	Range token.Range
}

// Definition returns the declaration location(s) of whatever the
// reference at pos resolves to.
func Definition(g *scope.GlobalScope, pos token.Position) []Location {
	entry, ok := referenceAt(g, pos)
	if !ok {
		return nil
	}
	return declLocations(g, entry)
}

// References returns every recorded use of the same symbol, overload set,
// or namespace scope referenced at pos, including the use at pos itself.
func References(g *scope.GlobalScope, pos token.Position) []Location {
	entry, ok := referenceAt(g, pos)
	if !ok {
		return nil
	}
	var out []Location
	for _, e := range g.References {
		if sameTarget(e, entry) {
			out = append(out, Location{Range: e.FromToken.Range})
		}
	}
	return out
}

// Hover describes the symbol referenced at pos.
func Hover(g *scope.GlobalScope, pos token.Position) (text string, r token.Range, ok bool) {
	entry, ok := referenceAt(g, pos)
	if !ok {
		return "", token.Range{}, false
	}
	switch {
	case entry.ToSymbol != nil:
		return describeSymbol(entry.ToSymbol), entry.FromToken.Range, true
	case entry.ToHolder != nil:
		return describeHolder(entry.ToHolder), entry.FromToken.Range, true
	case entry.ToScope != nil:
		return "namespace " + entry.ToScope.String(), entry.FromToken.Range, true
	}
	return "", token.Range{}, false
}

func referenceAt(g *scope.GlobalScope, pos token.Position) (symbol.ReferenceEntry, bool) {
	for _, e := range g.References {
		if e.FromToken.Range.Contains(pos) {
			return e, true
		}
	}
	return symbol.ReferenceEntry{}, false
}

// sameTarget reports whether two reference entries name the same
// declaration: the same symbol pointer, the same overload set, or the
// same namespace scope path.
func sameTarget(a, b symbol.ReferenceEntry) bool {
	switch {
	case a.ToSymbol != nil && b.ToSymbol != nil:
		return a.ToSymbol == b.ToSymbol
	case a.ToHolder != nil && b.ToHolder != nil:
		return a.ToHolder == b.ToHolder
	case a.ToScope != nil && b.ToScope != nil:
		return a.ToScope.Equal(*b.ToScope)
	default:
		return false
	}
}

func declLocations(g *scope.GlobalScope, entry symbol.ReferenceEntry) []Location {
	switch {
	case entry.ToSymbol != nil:
		return []Location{{Range: identRange(entry.ToSymbol)}}
	case entry.ToHolder != nil:
		if entry.ToHolder.IsFuncHolder() {
			var out []Location
			for _, fn := range entry.ToHolder.Overloads() {
				out = append(out, Location{Range: fn.IdentToken.Range})
			}
			return out
		}
		return []Location{{Range: identRange(entry.ToHolder.Single())}}
	case entry.ToScope != nil:
		s, ok := g.Lookup(*entry.ToScope)
		if !ok || s.LinkedNode() == nil {
			return nil
		}
		return []Location{{Range: s.LinkedNode().Range()}}
	}
	return nil
}

func identRange(s symbol.Symbol) token.Range {
	switch v := s.(type) {
	case *symbol.Variable:
		return v.IdentToken.Range
	case *symbol.Type:
		return v.IdentToken.Range
	}
	return token.Range{}
}

func describeSymbol(s symbol.Symbol) string {
	switch v := s.(type) {
	case *symbol.Variable:
		return v.Name() + ": " + v.Type.String()
	case *symbol.Type:
		return "type " + v.Name()
	}
	return s.Name()
}

func describeHolder(h *symbol.Holder) string {
	parts := make([]string, 0, len(h.Overloads()))
	for _, fn := range h.Overloads() {
		parts = append(parts, Signature(fn))
	}
	return strings.Join(parts, "\n")
}

// Signature renders one function overload as "name(type p, ...) -> ret".
func Signature(fn *symbol.Function) string {
	s := fn.Name() + "("
	for i, p := range fn.ParamTypes {
		if i > 0 {
			s += ", "
		}
		s += p.String()
		if i < len(fn.ParamNames) && fn.ParamNames[i] != "" {
			s += " " + fn.ParamNames[i]
		}
	}
	s += ")"
	if !fn.ReturnType.IsUnresolved() {
		s += " -> " + fn.ReturnType.String()
	}
	return s
}

// CompletionItem is one candidate offered at a completion position.
type CompletionItem struct {
	Name   string
	IsFunc bool
	Detail string
}

// Completion offers instance members after a dot, namespace members
// after `::`, or every name visible in the enclosing scope chain
// otherwise.
func Completion(g *scope.GlobalScope, pos token.Position) []CompletionItem {
	if hint, ok := instanceMemberHint(g, pos); ok {
		return instanceMemberCompletions(g, hint, pos)
	}
	if hint, ok := namespaceHint(g, pos); ok {
		return namespaceCompletions(g, hint)
	}
	return scopeCompletions(g, pos)
}

func instanceMemberHint(g *scope.GlobalScope, pos token.Position) (symbol.AutocompleteInstanceMember, bool) {
	for _, h := range g.Hints {
		if im, ok := h.(symbol.AutocompleteInstanceMember); ok && im.CaretRange.Contains(pos) {
			return im, true
		}
	}
	return symbol.AutocompleteInstanceMember{}, false
}

func namespaceHint(g *scope.GlobalScope, pos token.Position) (symbol.AutocompleteNamespaceAccess, bool) {
	for _, h := range g.Hints {
		if na, ok := h.(symbol.AutocompleteNamespaceAccess); ok && na.CaretRange.Contains(pos) {
			return na, true
		}
	}
	return symbol.AutocompleteNamespaceAccess{}, false
}

// instanceMemberCompletions walks the target type and its base-class
// chain, offering every member visible from the enclosing class at pos,
// matching "completion on a C instance includes inherited public/
// protected members, excludes private fields and `this`".
func instanceMemberCompletions(g *scope.GlobalScope, hint symbol.AutocompleteInstanceMember, pos token.Position) []CompletionItem {
	enclosing := enclosingClassAt(g, pos)
	seen := map[string]bool{"this": true}
	var items []CompletionItem
	t := hint.TargetType
	for t.TypeSym != nil && t.TypeSym.MembersScope != nil {
		declaring := t.TypeSym
		ms, ok := g.Lookup(*declaring.MembersScope)
		if !ok {
			break
		}
		for _, name := range ms.OrderedNames() {
			if seen[name] {
				continue
			}
			seen[name] = true
			h := ms.LookupSymbol(name)
			if !memberVisible(h, declaring, enclosing) {
				continue
			}
			items = append(items, completionItemFor(name, h))
		}
		if len(declaring.Bases) == 0 {
			break
		}
		t = declaring.Bases[0]
	}
	return items
}

func memberVisible(h *symbol.Holder, declaring, enclosing *symbol.Type) bool {
	access := ast.AccessPublic
	if h.IsFuncHolder() {
		access = h.Overloads()[0].Access
	} else if v, ok := h.Single().(*symbol.Variable); ok {
		access = v.Access
	}
	switch access {
	case ast.AccessPublic:
		return true
	case ast.AccessProtected:
		return enclosing != nil && derivesFrom(enclosing, declaring)
	default:
		return enclosing == declaring
	}
}

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

func namespaceCompletions(g *scope.GlobalScope, hint symbol.AutocompleteNamespaceAccess) []CompletionItem {
	s, ok := g.Lookup(hint.AccessPath)
	if !ok {
		return nil
	}
	var items []CompletionItem
	for _, name := range s.OrderedNames() {
		items = append(items, completionItemFor(name, s.LookupSymbol(name)))
	}
	for _, name := range s.OrderedChildNames() {
		items = append(items, CompletionItem{Name: name})
	}
	return items
}

// scopeCompletions is the fallback used away from any dot/`::` hint:
// every name visible by walking the enclosing scope chain to the root.
func scopeCompletions(g *scope.GlobalScope, pos token.Position) []CompletionItem {
	cur := scopeAt(g, pos)
	seen := map[string]bool{}
	var items []CompletionItem
	for cur != nil {
		for _, name := range cur.OrderedNames() {
			if seen[name] || name == "this" {
				continue
			}
			seen[name] = true
			items = append(items, completionItemFor(name, cur.LookupSymbol(name)))
		}
		p, ok := cur.Parent()
		if !ok {
			break
		}
		cur = p
	}
	return items
}

func completionItemFor(name string, h *symbol.Holder) CompletionItem {
	if h.IsFuncHolder() {
		return CompletionItem{Name: name, IsFunc: true, Detail: Signature(h.Overloads()[0])}
	}
	detail := ""
	if v, ok := h.Single().(*symbol.Variable); ok {
		detail = v.Type.String()
	}
	return CompletionItem{Name: name, Detail: detail}
}

// scopeAt finds the innermost recorded ScopeRegion containing pos,
// falling back to the file root.
func scopeAt(g *scope.GlobalScope, pos token.Position) *scope.Scope {
	best := g.Root()
	bestSpan := -1
	for _, h := range g.Hints {
		sr, ok := h.(symbol.ScopeRegion)
		if !ok || !sr.NodeRange.Contains(pos) {
			continue
		}
		span := sr.NodeRange.End.Index - sr.NodeRange.Start.Index
		if bestSpan == -1 || span < bestSpan {
			if s, ok := g.Lookup(sr.ScopePath); ok {
				best = s
				bestSpan = span
			}
		}
	}
	return best
}

// enclosingClassAt walks up from the scope at pos looking for the
// synthetic `this` variable every class member scope carries.
func enclosingClassAt(g *scope.GlobalScope, pos token.Position) *symbol.Type {
	cur := scopeAt(g, pos)
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

// SignatureHelpResult is one call site's candidate signatures plus which
// parameter the cursor currently sits in.
type SignatureHelpResult struct {
	Signatures      []string
	ActiveParameter int
}

// SignatureHelp finds the recorded call whose site spans pos and renders
// every overload of the callee, one signature per overload.
func SignatureHelp(g *scope.GlobalScope, pos token.Position) (SignatureHelpResult, bool) {
	for _, h := range g.Hints {
		fc, ok := h.(symbol.FunctionCall)
		if !ok || fc.Callee == nil {
			continue
		}
		if !callSiteContains(fc, pos) {
			continue
		}
		sigs := make([]string, 0, len(fc.Callee.Overloads()))
		for _, fn := range fc.Callee.Overloads() {
			sigs = append(sigs, Signature(fn))
		}
		return SignatureHelpResult{Signatures: sigs, ActiveParameter: activeParameter(fc.CallerArgs, pos)}, true
	}
	return SignatureHelpResult{}, false
}

func callSiteContains(fc symbol.FunctionCall, pos token.Position) bool {
	end := fc.CallerIdent.Range.End
	if fc.CallerArgs != nil {
		end = fc.CallerArgs.Range().End
	}
	r := token.Range{Start: fc.CallerIdent.Range.Start, End: end}
	return r.Contains(pos)
}

// activeParameter approximates "which argument slot is the cursor in" by
// finding the first argument whose end lies at or after pos.
func activeParameter(args *ast.ArgList, pos token.Position) int {
	if args == nil || len(args.Args) == 0 {
		return 0
	}
	for i, a := range args.Args {
		if pos.Less(a.Range().End) || a.Range().Contains(pos) {
			return i
		}
	}
	return len(args.Args) - 1
}

// FoldingRange is one collapsible multi-line source region.
type FoldingRange struct {
	StartLine, EndLine int
}

// FoldingRanges offers one range per recorded scope region that spans
// more than one line (class/interface/enum/namespace bodies; function
// bodies record no scope region and are not folded).
func FoldingRanges(g *scope.GlobalScope) []FoldingRange {
	var out []FoldingRange
	for _, h := range g.Hints {
		sr, ok := h.(symbol.ScopeRegion)
		if !ok || sr.NodeRange.End.Line <= sr.NodeRange.Start.Line {
			continue
		}
		out = append(out, FoldingRange{StartLine: sr.NodeRange.Start.Line, EndLine: sr.NodeRange.End.Line})
	}
	return out
}
