package scope

import (
	"github.com/Paril/angel-lsp/diagnostic"
	"github.com/Paril/angel-lsp/symbol"
)

// GlobalScope is the sole owner of one file's scope tree, keyed by file
// URI at the root. Every Scope
// belonging to this tree is registered here by Path, and symbols refer to
// scopes by Path rather than by pointer, matching "do not store owning
// back-pointers" guidance; the hoist and analyze passes hold *Scope values
// (e.g. hoist.AnalyzeTask.Scope) while they run.
type GlobalScope struct {
	URI string
	root *Scope

	registry map[string]*Scope // keyed by Path.String()

	// Diagnostics is the sink this global scope's hoist/analyze passes
	// report into; every Scope reaches it through its back-reference to
	// the owning GlobalScope.
	Diagnostics *diagnostic.Sink

	References []symbol.ReferenceEntry
	Hints []symbol.Hint
	ScopeRegions []symbol.ScopeRegion
}

// NewGlobalScope creates a fresh, empty global scope rooted at uri. A new
// file inspection always constructs a new instance.
func NewGlobalScope(uri string, diagnostics *diagnostic.Sink) *GlobalScope {
	g := &GlobalScope{
		URI: uri,
		registry: map[string]*Scope{},
		Diagnostics: diagnostics,
	}
	rootPath := symbol.NewPath(uri)
	g.root = newScope(rootPath, symbol.Path{}, false, g)
	g.registry[rootPath.String()] = g.root
	return g
}

// Root returns the file's root scope.
func (g *GlobalScope) Root() *Scope { return g.root }

// Lookup resolves a Path to its Scope within this global scope.
func (g *GlobalScope) Lookup(p symbol.Path) (*Scope, bool) {
	s, ok := g.registry[p.String()]
	return s, ok
}

// ResolveScope walks from the root scope segment-by-segment, matching
// resolve-scope operation. segments excludes the URI root.
func (g *GlobalScope) ResolveScope(segments []string) (*Scope, bool) {
	cur := g.root
	for _, seg := range segments {
		next, ok := cur.LookupChildScope(seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func (g *GlobalScope) register(s *Scope) {
	g.registry[s.path.String()] = s
}

// AddReference appends one go-to-definition/find-references record.
func (g *GlobalScope) AddReference(ref symbol.ReferenceEntry) {
	g.References = append(g.References, ref)
}

// AddHint appends one completion/signature/inlay/region complement hint.
func (g *GlobalScope) AddHint(h symbol.Hint) {
	g.Hints = append(g.Hints, h)
	if region, ok := h.(symbol.ScopeRegion); ok {
		g.ScopeRegions = append(g.ScopeRegions, region)
	}
}
