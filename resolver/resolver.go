package resolver

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/Paril/angel-lsp/analyzer"
	"github.com/Paril/angel-lsp/ast"
	"github.com/Paril/angel-lsp/config"
	"github.com/Paril/angel-lsp/diagnostic"
	"github.com/Paril/angel-lsp/helpers"
	"github.com/Paril/angel-lsp/hoist"
	"github.com/Paril/angel-lsp/parser"
	"github.com/Paril/angel-lsp/scope"
)

// PublishFunc is called once per (re)inspected file with its full
// diagnostic set, mirroring the LSP publishDiagnostics push notification.
type PublishFunc func(uri string, diags []diagnostic.Diagnostic)

// Resolver owns every open and discovered file's PartialInspectRecord,
// the include graph, and the three delayed priority queues.
type Resolver struct {
	Settings config.Settings
	FS *helpers.SharedFS
	Publish PublishFunc

	records map[string]*PartialInspectRecord

	direct tieredQueue
	indirect tieredQueue
	lazyIndirect tieredQueue

	predefinedRoots map[string]bool // directories already scanned for as.predefined
}

func New(settings config.Settings, fs *helpers.SharedFS, publish PublishFunc) *Resolver {
	return &Resolver{
		Settings: settings,
		FS: fs,
		Publish: publish,
		records: map[string]*PartialInspectRecord{},
		predefinedRoots: map[string]bool{},
	}
}

func (r *Resolver) recordFor(uri string) *PartialInspectRecord {
	rec, ok := r.records[uri]
	if !ok {
		rec = &PartialInspectRecord{URI: uri}
		r.records[uri] = rec
	}
	return rec
}

// Record returns the current record for uri, if any inspection has run.
func (r *Resolver) Record(uri string) (*PartialInspectRecord, bool) {
	rec, ok := r.records[uri]
	return rec, ok
}

// Open marks uri open with the given buffer contents and schedules a
// direct (highest-priority) inspection.
func (r *Resolver) Open(uri, text string) {
	rec := r.recordFor(uri)
	rec.IsOpen = true
	rec.Source = text
	r.discoverPredefined(uri)
	r.enqueue(TierDirect, uri)
}

// Close marks uri closed; its record is kept (so lazy-indirect re-analysis
// stays possible) but it no longer qualifies for the indirect tier.
func (r *Resolver) Close(uri string) {
	if rec, ok := r.records[uri]; ok {
		rec.IsOpen = false
	}
}

// Changed updates uri's buffer and schedules a direct re-inspection.
func (r *Resolver) Changed(uri, text string) {
	rec := r.recordFor(uri)
	rec.Source = text
	r.enqueue(TierDirect, uri)
}

func (r *Resolver) enqueue(tier Tier, uri string) {
	readyAt := time.Now().Add(tierDelay[tier])
	switch tier {
	case TierDirect:
		r.indirect.remove(uri)
		r.lazyIndirect.remove(uri)
		r.direct.push(uri, readyAt)
	case TierIndirect:
		if r.direct.contains(uri) {
			return
		}
		r.lazyIndirect.remove(uri)
		r.indirect.push(uri, readyAt)
	case TierLazyIndirect:
		if r.direct.contains(uri) || r.indirect.contains(uri) {
			return
		}
		r.lazyIndirect.push(uri, readyAt)
	}
	if rec := r.recordFor(uri); rec != nil {
		rec.pending = true
	}
}

// NextDelay reports how long the caller's timer loop should wait before
// calling Tick again: the shortest tier's remaining delay, tier priority
// direct > indirect > lazy-indirect. ok is false when every queue is empty.
func (r *Resolver) NextDelay(now time.Time) (d time.Duration, ok bool) {
	for _, q := range []*tieredQueue{&r.direct, &r.indirect, &r.lazyIndirect} {
		if at, has := q.nextReadyAt(); has {
			if at.Before(now) {
				return 0, true
			}
			return at.Sub(now), true
		}
	}
	return 0, false
}

// Tick pops and inspects every item due by now, direct before indirect
// before lazy-indirect, and returns the URIs it inspected.
func (r *Resolver) Tick(now time.Time) []string {
	var inspected []string
	for _, q := range []*tieredQueue{&r.direct, &r.indirect, &r.lazyIndirect} {
		for {
			uri, ok := q.popReady(now)
			if !ok {
				break
			}
			r.inspect(uri)
			inspected = append(inspected, uri)
		}
	}
	return inspected
}

// Flush guarantees uri's record reflects its latest source immediately:
// it drains the direct queue synchronously and, if uri is only pending in
// the indirect queue, promotes and inspects it right away.
func (r *Resolver) Flush(uri string) *PartialInspectRecord {
	for {
		next, ok := r.direct.popReady(time.Now().Add(time.Hour))
		if !ok {
			break
		}
		r.inspect(next)
	}
	if r.indirect.remove(uri) {
		r.inspect(uri)
	} else if r.lazyIndirect.remove(uri) {
		r.inspect(uri)
	} else if _, ok := r.records[uri]; !ok {
		r.inspect(uri)
	}
	return r.recordFor(uri)
}

// inspect runs the full per-file pipeline: fresh global scope, parse, resolve includes (triggering
// inspection of missing dependencies), hoist, analyze, publish, and
// propagate to dependents.
func (r *Resolver) inspect(uri string) {
	rec := r.recordFor(uri)
	rec.pending = false

	source := rec.Source
	if source == "" {
		if data, err := r.FS.ReadFile(uri); err == nil {
			source = string(data)
			rec.Source = source
		}
	}

	parsed, parserDiags := parser.Parse(uri, source)
	rec.AST = parsed

	includeDiags := diagnostic.NewSink()
	rec.Includes = r.resolveIncludes(uri, parsed, includeDiags)
	rec.ParserDiagnostics = append(parserDiags.Items(), includeDiags.Items()...)

	global := scope.NewGlobalScope(uri, diagnostic.NewSink())
	for _, dep := range rec.Includes {
		depRec, ok := r.records[dep]
		// A dependency with an AST but no Scope is still being inspected
		// further up this call chain (an include cycle) and is skipped.
		if !ok || (depRec.Scope == nil && depRec.AST == nil) {
			r.inspect(dep)
			depRec, ok = r.records[dep]
		}
		if ok && depRec.Scope != nil {
			mergeIncludeScope(global, depRec.Scope)
		}
	}

	h := hoist.NewHoister(global, r.Settings)
	if parsed != nil {
		h.HoistScript(parsed)
	}
	analyzer.New(global, r.Settings).Run(h.AnalyzeQueue)

	global.Diagnostics.ApplySuppression(r.Settings.Analyzer.SuppressAnalyzerErrors)
	rec.AnalyzerDiagnostics = global.Diagnostics.Items()
	rec.Scope = global

	if r.Publish != nil {
		r.Publish(uri, rec.Diagnostics())
	}

	r.propagate(uri)
}

// mergeIncludeScope re-exposes every root-level symbol of an already
// analyzed dependency in dst's root scope, the minimal form of "collect
// include scopes" calls for.
func mergeIncludeScope(dst *scope.GlobalScope, dep *scope.GlobalScope) {
	root := dep.Root()
	for _, name := range root.OrderedNames() {
		if holder := root.LookupSymbol(name); holder != nil {
			if holder.IsFuncHolder() {
				for _, fn := range holder.Overloads() {
					dst.Root().InsertSymbol(name, nil, fn)
				}
			} else {
				dst.Root().InsertSymbol(name, holder.Single(), nil)
			}
		}
	}
}

// propagate enqueues every record whose include set names uri, indirect
// if open, lazy-indirect if closed. Re-analysis is idempotent, so include cycles terminate
// once every member of the cycle is up to date.
func (r *Resolver) propagate(uri string) {
	for depURI, rec := range r.records {
		if depURI == uri {
			continue
		}
		for _, inc := range rec.Includes {
			if inc == uri {
				if rec.IsOpen {
					r.enqueue(TierIndirect, depURI)
				} else {
					r.enqueue(TierLazyIndirect, depURI)
				}
				break
			}
		}
	}
}

// resolveIncludes combines explicit #include targets with, when
// implicitMutualInclusion is enabled, every .as file under uri's nearest
// as.predefined root. An explicit target that can't be read is reported
// into diags as MissingInclude and skipped, without aborting the rest.
func (r *Resolver) resolveIncludes(uri string, script *ast.Script, diags *diagnostic.Sink) []string {
	dir := filepath.Dir(uri)
	seen := map[string]bool{}
	var out []string

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}

	if script != nil {
		for _, inc := range script.Includes {
			resolved := filepath.Clean(filepath.Join(dir, inc.Path))
			if _, err := r.FS.ReadFile(resolved); err != nil {
				diags.Report(diagnostic.MissingInclude, inc.Range, fmt.Sprintf("cannot find include %q", inc.Path))
				continue
			}
			add(resolved)
		}
	}

	if r.Settings.Analyzer.ImplicitMutualInclusion {
		if root, ok := r.findPredefinedRoot(uri); ok {
			entries, _ := r.FS.ReadFile(filepath.Join(root, "as.predefined"))
			if entries != nil {
				add(filepath.Join(root, "as.predefined"))
			}
			for _, sibling := range r.listASFiles(root) {
				if sibling != uri {
					add(sibling)
				}
			}
		}
	}

	return out
}

// discoverPredefined walks uri's ancestor directories looking for
// as.predefined; on first discovery it inspects that file synchronously
// and schedules every .as file directly in that directory (listASFiles
// does not descend into subdirectories).
func (r *Resolver) discoverPredefined(uri string) {
	if !r.Settings.Analyzer.ImplicitMutualInclusion {
		return
	}
	root, ok := r.findPredefinedRoot(uri)
	if !ok || r.predefinedRoots[root] {
		return
	}
	r.predefinedRoots[root] = true

	predefined := filepath.Join(root, "as.predefined")
	r.inspect(predefined)
	for _, f := range r.listASFiles(root) {
		r.enqueue(TierLazyIndirect, f)
	}
}

func (r *Resolver) findPredefinedRoot(uri string) (string, bool) {
	dir := filepath.Dir(uri)
	for {
		if _, err := r.FS.ReadFile(filepath.Join(dir, "as.predefined")); err == nil {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// listASFiles enumerates .as files directly under root. Non-recursive:
// nested as.predefined roots own their own subtree.
func (r *Resolver) listASFiles(root string) []string {
	matches, _ := filepath.Glob(filepath.Join(root, "*.as"))
	return matches
}
