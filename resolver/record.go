// Package resolver implements the cross-file incremental scheduler that
// turns edited/opened/closed files into hoist+analyze runs, tracks the
// include graph, and republishes diagnostics for every file a change
// ripples into. Grounded on daemon/server.go's Start loop (a select over
// a changed-signal channel and a single rescheduled time.After timer),
// generalized from "poll connected clients every 15s" to three
// priority-tiered delayed queues.
package resolver

import (
	"github.com/Paril/angel-lsp/ast"
	"github.com/Paril/angel-lsp/diagnostic"
	"github.com/Paril/angel-lsp/scope"
)

// PartialInspectRecord is the scheduler's per-file state.
type PartialInspectRecord struct {
	URI string
	IsOpen bool

	ParserDiagnostics []diagnostic.Diagnostic
	AnalyzerDiagnostics []diagnostic.Diagnostic

	Source string
	AST *ast.Script
	Scope *scope.GlobalScope

	// Includes holds this file's resolved dependency URIs (explicit
	// #include targets plus, when implicitMutualInclusion is on, every
	// sibling under its as.predefined root).
	Includes []string

	pending bool // true while queued but not yet (re)inspected
}

// Diagnostics returns the published union of parser and analyzer
// diagnostics for this record.
func (r *PartialInspectRecord) Diagnostics() []diagnostic.Diagnostic {
	all := make([]diagnostic.Diagnostic, 0, len(r.ParserDiagnostics)+len(r.AnalyzerDiagnostics))
	all = append(all, r.ParserDiagnostics...)
	all = append(all, r.AnalyzerDiagnostics...)
	return all
}
