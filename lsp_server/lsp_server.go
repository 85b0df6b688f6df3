package lsp_server

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sourcegraph/jsonrpc2"
	lsp "go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/Paril/angel-lsp/daemon"
	daemonClient "github.com/Paril/angel-lsp/daemon/client"
	daemonTypes "github.com/Paril/angel-lsp/daemon/types"
	"github.com/Paril/angel-lsp/rpc"
	"github.com/Paril/angel-lsp/types"
)

type LspServer struct {
	conn         *jsonrpc2.Conn
	daemonClient *daemonClient.Client
	version      string
	publishChan  chan daemonTypes.PublishDiagnosticsPayload
	doneChan     chan int
	documents    map[uri.URI]*types.Rope
}

func decodePayload[T any](ctx context.Context, c *jsonrpc2.Conn, r *jsonrpc2.Request) *T {
	var payload *T
	if err := json.Unmarshal(*r.Params, &payload); err != nil {
		c.ReplyWithError(ctx, r.ID, &jsonrpc2.Error{
			Message: "Unable to decode params of method " + r.Method,
		})
		return nil
	}
	return payload
}

func (s *LspServer) Handle(ctx context.Context, c *jsonrpc2.Conn, r *jsonrpc2.Request) {
	switch r.Method {
	case lsp.MethodInitialize:
		c.Reply(ctx, r.ID, lsp.InitializeResult{
			Capabilities: lsp.ServerCapabilities{
				TextDocumentSync: lsp.TextDocumentSyncKindFull,
				CompletionProvider: &lsp.CompletionOptions{
					TriggerCharacters: []string{".", ":"},
				},
				HoverProvider:      true,
				DefinitionProvider: true,
				ReferencesProvider: true,
				SignatureHelpProvider: &lsp.SignatureHelpOptions{
					TriggerCharacters: []string{"(", ","},
				},
				FoldingRangeProvider: true,
			},
			ServerInfo: &lsp.ServerInfo{
				Name:    "angel-lsp",
				Version: s.version,
			},
		})
		return
	case lsp.MethodInitialized:
		return
	case lsp.MethodShutdown:
		s.daemonClient.Shutdown()
		c.Reply(ctx, r.ID, json.RawMessage("null"))
		return
	case lsp.MethodTextDocumentDidOpen:
		payload := decodePayload[lsp.DidOpenTextDocumentParams](ctx, c, r)
		if payload == nil {
			return
		}

		s.documents[payload.TextDocument.URI] = types.NewRope(payload.TextDocument.Text)
		docURI := string(payload.TextDocument.URI)
		writeSnapshot(docURI, payload.TextDocument.Text)
		s.daemonClient.DidOpen(
			docURI,
			s.documents[payload.TextDocument.URI].ToString(),
		)
	case lsp.MethodTextDocumentDidChange:
		payload := decodePayload[lsp.DidChangeTextDocumentParams](ctx, c, r)
		if payload == nil {
			return
		}

		text := s.documents[payload.TextDocument.URI]

		for _, change := range payload.ContentChanges {
			startOffset := text.OffsetFromPosition(change.Range.Start)
			endOffset := text.OffsetFromPosition(change.Range.End)

			if endOffset > startOffset {
				text.Delete(startOffset, endOffset-startOffset)
			}
			if len(change.Text) != 0 {
				text.Insert(startOffset, change.Text)
			}
		}

		docURI := string(payload.TextDocument.URI)
		writeSnapshot(docURI, text.ToString())
		s.daemonClient.DidChange(
			docURI,
			text.ToString(),
		)
	case lsp.MethodTextDocumentDidClose:
		payload := decodePayload[lsp.DidCloseTextDocumentParams](ctx, c, r)
		if payload == nil {
			return
		}

		delete(s.documents, payload.TextDocument.URI)
		docURI := string(payload.TextDocument.URI)
		removeSnapshot(docURI)
		s.daemonClient.DidClose(docURI)

		s.conn.Notify(ctx, lsp.MethodTextDocumentPublishDiagnostics, lsp.PublishDiagnosticsParams{
			URI:         payload.TextDocument.URI,
			Diagnostics: []lsp.Diagnostic{},
		})
	case lsp.MethodTextDocumentDefinition:
		s.handleDefinition(ctx, c, r)
	case lsp.MethodTextDocumentReferences:
		s.handleReferences(ctx, c, r)
	case lsp.MethodTextDocumentHover:
		s.handleHover(ctx, c, r)
	case lsp.MethodTextDocumentCompletion:
		s.handleCompletion(ctx, c, r)
	case lsp.MethodTextDocumentSignatureHelp:
		s.handleSignatureHelp(ctx, c, r)
	case lsp.MethodTextDocumentFoldingRange:
		s.handleFoldingRange(ctx, c, r)
	case lsp.MethodExit:
		s.doneChan <- 0
		return
	}
}

func toLspLocation(l daemonTypes.Location) lsp.Location {
	return lsp.Location{
		URI: uri.URI(l.URI),
		Range: lsp.Range{
			Start: lsp.Position{Line: uint32(l.StartLine), Character: uint32(l.StartColumn)},
			End:   lsp.Position{Line: uint32(l.EndLine), Character: uint32(l.EndColumn)},
		},
	}
}

func (s *LspServer) handleDefinition(ctx context.Context, c *jsonrpc2.Conn, r *jsonrpc2.Request) {
	p := decodePayload[lsp.DefinitionParams](ctx, c, r)
	if p == nil {
		return
	}
	result, err := s.daemonClient.Definition(string(p.TextDocument.URI), int(p.Position.Line), int(p.Position.Character))
	if err != nil {
		c.ReplyWithError(ctx, r.ID, &jsonrpc2.Error{Message: err.Error()})
		return
	}
	locs := make([]lsp.Location, 0, len(result.Locations))
	for _, l := range result.Locations {
		locs = append(locs, toLspLocation(l))
	}
	c.Reply(ctx, r.ID, locs)
}

func (s *LspServer) handleReferences(ctx context.Context, c *jsonrpc2.Conn, r *jsonrpc2.Request) {
	p := decodePayload[lsp.ReferenceParams](ctx, c, r)
	if p == nil {
		return
	}
	result, err := s.daemonClient.References(string(p.TextDocument.URI), int(p.Position.Line), int(p.Position.Character))
	if err != nil {
		c.ReplyWithError(ctx, r.ID, &jsonrpc2.Error{Message: err.Error()})
		return
	}
	locs := make([]lsp.Location, 0, len(result.Locations))
	for _, l := range result.Locations {
		locs = append(locs, toLspLocation(l))
	}
	c.Reply(ctx, r.ID, locs)
}

func (s *LspServer) handleHover(ctx context.Context, c *jsonrpc2.Conn, r *jsonrpc2.Request) {
	p := decodePayload[lsp.HoverParams](ctx, c, r)
	if p == nil {
		return
	}
	result, err := s.daemonClient.Hover(string(p.TextDocument.URI), int(p.Position.Line), int(p.Position.Character))
	if err != nil {
		c.ReplyWithError(ctx, r.ID, &jsonrpc2.Error{Message: err.Error()})
		return
	}
	if !result.Found {
		c.Reply(ctx, r.ID, nil)
		return
	}
	loc := toLspLocation(result.Location)
	c.Reply(ctx, r.ID, lsp.Hover{
		Contents: lsp.MarkupContent{Kind: lsp.PlainText, Value: result.Contents},
		Range:    &loc.Range,
	})
}

func completionKind(isFunc bool) lsp.CompletionItemKind {
	if isFunc {
		return lsp.CompletionItemKindFunction
	}
	return lsp.CompletionItemKindVariable
}

func (s *LspServer) handleCompletion(ctx context.Context, c *jsonrpc2.Conn, r *jsonrpc2.Request) {
	p := decodePayload[lsp.CompletionParams](ctx, c, r)
	if p == nil {
		return
	}
	result, err := s.daemonClient.Completion(string(p.TextDocument.URI), int(p.Position.Line), int(p.Position.Character))
	if err != nil {
		c.ReplyWithError(ctx, r.ID, &jsonrpc2.Error{Message: err.Error()})
		return
	}
	items := make([]lsp.CompletionItem, 0, len(result.Items))
	for _, it := range result.Items {
		items = append(items, lsp.CompletionItem{
			Label:  it.Label,
			Kind:   completionKind(it.IsFunc),
			Detail: it.Detail,
		})
	}
	c.Reply(ctx, r.ID, lsp.CompletionList{IsIncomplete: false, Items: items})
}

func (s *LspServer) handleSignatureHelp(ctx context.Context, c *jsonrpc2.Conn, r *jsonrpc2.Request) {
	p := decodePayload[lsp.SignatureHelpParams](ctx, c, r)
	if p == nil {
		return
	}
	result, err := s.daemonClient.SignatureHelp(string(p.TextDocument.URI), int(p.Position.Line), int(p.Position.Character))
	if err != nil {
		c.ReplyWithError(ctx, r.ID, &jsonrpc2.Error{Message: err.Error()})
		return
	}
	if !result.Found {
		c.Reply(ctx, r.ID, lsp.SignatureHelp{})
		return
	}
	sigs := make([]lsp.SignatureInformation, 0, len(result.Signatures))
	for _, sig := range result.Signatures {
		sigs = append(sigs, lsp.SignatureInformation{Label: sig})
	}
	c.Reply(ctx, r.ID, lsp.SignatureHelp{
		Signatures:      sigs,
		ActiveParameter: uint32(result.ActiveParameter),
	})
}

func (s *LspServer) handleFoldingRange(ctx context.Context, c *jsonrpc2.Conn, r *jsonrpc2.Request) {
	p := decodePayload[lsp.FoldingRangeParams](ctx, c, r)
	if p == nil {
		return
	}
	result, err := s.daemonClient.FoldingRange(string(p.TextDocument.URI))
	if err != nil {
		c.ReplyWithError(ctx, r.ID, &jsonrpc2.Error{Message: err.Error()})
		return
	}
	ranges := make([]lsp.FoldingRange, 0, len(result.Ranges))
	for _, fr := range result.Ranges {
		ranges = append(ranges, lsp.FoldingRange{
			StartLine: uint32(fr.StartLine),
			EndLine:   uint32(fr.EndLine),
		})
	}
	c.Reply(ctx, r.ID, ranges)
}

func toLspSeverity(severity string) lsp.DiagnosticSeverity {
	switch severity {
	case "error":
		return lsp.DiagnosticSeverityError
	case "warning":
		return lsp.DiagnosticSeverityWarning
	default:
		return lsp.DiagnosticSeverityInformation
	}
}

func toLspDiagnostics(diags []daemonTypes.Diagnostic) []lsp.Diagnostic {
	out := make([]lsp.Diagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, lsp.Diagnostic{
			Severity: toLspSeverity(d.Severity),
			Message:  d.Message,
			Code:     d.Code,
			Source:   d.Source,
			Range: lsp.Range{
				Start: lsp.Position{Line: uint32(d.StartLine), Character: uint32(d.StartColumn)},
				End:   lsp.Position{Line: uint32(d.EndLine), Character: uint32(d.EndColumn)},
			},
		})
	}
	return out
}

func Start() error {
	ctx := context.Background()
	doneChan := make(chan int, 1)

	lspServer := &LspServer{
		publishChan: make(chan daemonTypes.PublishDiagnosticsPayload),
		doneChan:    doneChan,
		documents:   map[uri.URI]*types.Rope{},
		version:     "1.0",
	}

	client := daemon.NewClient(ctx, daemon.CurrentPort(), daemonTypes.LspClientType, func(ctx context.Context, c *jsonrpc2.Conn, r *jsonrpc2.Request) {
		if r.Notif && daemonTypes.MethodIs(r.Method, daemonTypes.PublishDiagnosticsMethod) {
			var payload daemonTypes.PublishDiagnosticsPayload
			if err := json.Unmarshal(*r.Params, &payload); err != nil {
				lspServer.conn.Notify(ctx, lsp.MethodWindowShowMessage, lsp.ShowMessageParams{
					Type:    lsp.MessageTypeError,
					Message: fmt.Sprintf("unable to decode diagnostics: %s", err.Error()),
				})
				return
			}

			lspServer.publishChan <- payload
		}
	})

	client.OnReconnect = func(retries int, _ error) bool {
		if lspServer.conn != nil {
			lspServer.conn.Notify(ctx, lsp.MethodWindowShowMessage, lsp.ShowMessageParams{
				Type:    lsp.MessageTypeInfo,
				Message: "Daemon not connected. Launching...",
			})
		}
		return retries < 5
	}

	client.OnSpawnDaemon = func() {
		fmt.Fprintln(os.Stderr, "daemon not started, spawning...")
	}

	lspServer.conn = jsonrpc2.NewConn(
		ctx,
		jsonrpc2.NewBufferedStream(&rpc.CustomStream{
			ReadCloser:  os.Stdin,
			WriteCloser: os.Stdout,
		}, jsonrpc2.VSCodeObjectCodec{}),
		jsonrpc2.AsyncHandler(lspServer),
	)

	lspServer.daemonClient = client

	if err := client.Connect(); err != nil {
		return err
	}

	exitSignal := make(chan os.Signal, 1)
	signal.Notify(exitSignal, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-exitSignal
		lspServer.doneChan <- 1
	}()

	for {
		select {
		case payload := <-lspServer.publishChan:
			lspServer.conn.Notify(ctx, lsp.MethodTextDocumentPublishDiagnostics, lsp.PublishDiagnosticsParams{
				URI:         uri.URI(payload.URI),
				Diagnostics: toLspDiagnostics(payload.Diagnostics),
			})
		case eCode := <-lspServer.doneChan:
			client.Close()
			lspServer.conn.Close()
			os.Exit(eCode)
		}
	}
}
