package server

import (
	"context"
	"encoding/json"

	"github.com/sourcegraph/jsonrpc2"
	"go.uber.org/zap"

	"github.com/Paril/angel-lsp/daemon/types"
	"github.com/Paril/angel-lsp/query"
	"github.com/Paril/angel-lsp/resolver"
	"github.com/Paril/angel-lsp/token"
)

// queryRecord decodes a PositionParams request and flushes its URI's
// record so the scope it queries reflects the latest buffer, replying
// with an error and returning ok=false on any failure.
func (d *Server) queryRecord(ctx context.Context, c *jsonrpc2.Conn, r *jsonrpc2.Request) (types.PositionParams, *resolver.PartialInspectRecord, bool) {
	var p types.PositionParams
	if err := json.Unmarshal(*r.Params, &p); err != nil {
		c.ReplyWithError(ctx, r.ID, &jsonrpc2.Error{Message: "Unable to decode params of method " + r.Method})
		return p, nil, false
	}
	if len(p.URI) == 0 {
		c.ReplyWithError(ctx, r.ID, &jsonrpc2.Error{Message: "URI is empty"})
		return p, nil, false
	}
	rec := d.resolver.Flush(p.URI)
	if rec == nil || rec.Scope == nil {
		c.Reply(ctx, r.ID, nil)
		return p, nil, false
	}
	return p, rec, true
}

func posOf(p types.PositionParams) token.Position {
	return token.Position{Line: p.Line + 1, Column: p.Character + 1}
}

// toWireLocation converts a query.Location into the wire shape. uri is the
// record's own file: cross-file include scopes are merged flat (see
// resolver.mergeIncludeScope), so every symbol carries only its
// in-file-local position and the originating URI is not separately
// tracked — definitions/references across an #include boundary report
// positions in the requesting file's coordinate space.
func toWireLocation(uri string, l query.Location) types.Location {
	return types.Location{
		URI:         uri,
		StartLine:   l.Range.Start.Line - 1,
		StartColumn: l.Range.Start.Column - 1,
		EndLine:     l.Range.End.Line - 1,
		EndColumn:   l.Range.End.Column - 1,
	}
}

func toWireLocations(uri string, ls []query.Location) []types.Location {
	out := make([]types.Location, 0, len(ls))
	for _, l := range ls {
		out = append(out, toWireLocation(uri, l))
	}
	return out
}

func (d *Server) handleDefinition(ctx context.Context, c *jsonrpc2.Conn, r *jsonrpc2.Request) {
	p, rec, ok := d.queryRecord(ctx, c, r)
	if !ok {
		return
	}
	d.logQuery(r.Method, p.URI)
	locs := query.Definition(rec.Scope, posOf(p))
	c.Reply(ctx, r.ID, types.LocationsResult{Locations: toWireLocations(p.URI, locs)})
}

func (d *Server) handleReferences(ctx context.Context, c *jsonrpc2.Conn, r *jsonrpc2.Request) {
	p, rec, ok := d.queryRecord(ctx, c, r)
	if !ok {
		return
	}
	d.logQuery(r.Method, p.URI)
	locs := query.References(rec.Scope, posOf(p))
	c.Reply(ctx, r.ID, types.LocationsResult{Locations: toWireLocations(p.URI, locs)})
}

func (d *Server) handleHover(ctx context.Context, c *jsonrpc2.Conn, r *jsonrpc2.Request) {
	p, rec, ok := d.queryRecord(ctx, c, r)
	if !ok {
		return
	}
	text, rng, found := query.Hover(rec.Scope, posOf(p))
	c.Reply(ctx, r.ID, types.HoverResult{
		Contents: text,
		Location: toWireLocation(p.URI, query.Location{Range: rng}),
		Found:    found,
	})
}

func (d *Server) handleCompletion(ctx context.Context, c *jsonrpc2.Conn, r *jsonrpc2.Request) {
	p, rec, ok := d.queryRecord(ctx, c, r)
	if !ok {
		return
	}
	items := query.Completion(rec.Scope, posOf(p))
	wire := make([]types.CompletionItem, 0, len(items))
	for _, it := range items {
		wire = append(wire, types.CompletionItem{Label: it.Name, IsFunc: it.IsFunc, Detail: it.Detail})
	}
	c.Reply(ctx, r.ID, types.CompletionResult{Items: wire})
}

func (d *Server) handleSignatureHelp(ctx context.Context, c *jsonrpc2.Conn, r *jsonrpc2.Request) {
	p, rec, ok := d.queryRecord(ctx, c, r)
	if !ok {
		return
	}
	result, found := query.SignatureHelp(rec.Scope, posOf(p))
	c.Reply(ctx, r.ID, types.SignatureHelpResult{
		Signatures:      result.Signatures,
		ActiveParameter: result.ActiveParameter,
		Found:           found,
	})
}

func (d *Server) handleFoldingRange(ctx context.Context, c *jsonrpc2.Conn, r *jsonrpc2.Request) {
	var doc types.DocumentIdentifier
	if err := json.Unmarshal(*r.Params, &doc); err != nil {
		c.ReplyWithError(ctx, r.ID, &jsonrpc2.Error{Message: "Unable to decode params of method " + r.Method})
		return
	}
	rec := d.resolver.Flush(doc.URI)
	if rec == nil || rec.Scope == nil {
		c.Reply(ctx, r.ID, types.FoldingRangeResult{})
		return
	}
	ranges := query.FoldingRanges(rec.Scope)
	wire := make([]types.FoldingRangeItem, 0, len(ranges))
	for _, fr := range ranges {
		wire = append(wire, types.FoldingRangeItem{StartLine: fr.StartLine - 1, EndLine: fr.EndLine - 1})
	}
	c.Reply(ctx, r.ID, types.FoldingRangeResult{Ranges: wire})
}

func (d *Server) logQuery(method string, uri string) {
	d.ServerLog.Debug("query", zap.String("method", method), zap.String("uri", uri))
}
