package server

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/sourcegraph/jsonrpc2"
	"go.uber.org/zap"

	"github.com/Paril/angel-lsp/config"
	"github.com/Paril/angel-lsp/daemon/types"
	"github.com/Paril/angel-lsp/diagnostic"
	"github.com/Paril/angel-lsp/helpers"
	"github.com/Paril/angel-lsp/history"
	"github.com/Paril/angel-lsp/resolver"
	"github.com/Paril/angel-lsp/rpc"
)

// Server is the workspace daemon: one resolver.Resolver shared by every
// connected editor, reached over jsonrpc2 so multiple windows/editors can
// observe the same incremental analysis state.
type Server struct {
	ServerLog        *zap.Logger
	resolver         *resolver.Resolver
	history          *history.Store
	connectedClients connectedClients
}

func (d *Server) Clients() connectedClients {
	return d.connectedClients
}

func (d *Server) Resolver() *resolver.Resolver {
	return d.resolver
}

func (d *Server) History() *history.Store {
	return d.history
}

func (d *Server) getProcessId(r *jsonrpc2.Request) (int, error) {
	for _, req := range r.ExtraFields {
		if req.Name != "processId" {
			continue
		}
		procId := req.Value.(json.Number)
		num, err := procId.Int64()
		if err != nil {
			break
		}
		return int(num), nil
	}
	return -1, errors.New("processId not found")
}

func (d *Server) checkProcessConnection(r *jsonrpc2.Request) *jsonrpc2.Error {
	procId, err := d.getProcessId(r)
	if err != nil {
		return &jsonrpc2.Error{
			Code:    jsonrpc2.CodeInvalidRequest,
			Message: "Process ID not found",
		}
	}

	if _, found := d.connectedClients.Get(procId); !found {
		return &jsonrpc2.Error{
			Code:    jsonrpc2.CodeInvalidRequest,
			Message: "Process not connected yet.",
		}
	}

	return nil
}

func (d *Server) Handle(ctx context.Context, c *jsonrpc2.Conn, r *jsonrpc2.Request) {
	if !types.MethodIsEither(r.Method, types.HandshakeMethod, types.ShutdownMethod) {
		if err := d.checkProcessConnection(r); err != nil {
			c.ReplyWithError(ctx, r.ID, err)
			return
		}
	}

	switch types.Method(r.Method) {
	case types.HandshakeMethod:
		var info types.ClientInfo
		if err := json.Unmarshal(*r.Params, &info); err != nil {
			c.ReplyWithError(ctx, r.ID, &jsonrpc2.Error{
				Message: "Unable to decode params of method " + r.Method,
			})
			return
		} else if info.ClientType <= types.UnknownClientType || info.ClientType > types.LspClientType {
			c.ReplyWithError(ctx, r.ID, &jsonrpc2.Error{
				Message: "Unknown client type.",
			})
			return
		}

		d.ServerLog.Info("client connected", zap.Int("processId", info.ProcessId), zap.Int("clientType", int(info.ClientType)))
		d.connectedClients[info.ProcessId] = connectedClient{
			id:         info.ProcessId,
			clientType: info.ClientType,
			conn:       c,
		}

		c.Reply(ctx, r.ID, "ok")
	case types.ShutdownMethod:
		procId, err := d.getProcessId(r)
		if err != nil {
			c.ReplyWithError(ctx, r.ID, &jsonrpc2.Error{Message: err.Error()})
			return
		}

		delete(d.connectedClients, procId)
		d.ServerLog.Info("client disconnected", zap.Int("processId", procId))
	case types.PingMethod:
		procId, err := d.getProcessId(r)
		if err != nil {
			c.ReplyWithError(ctx, r.ID, &jsonrpc2.Error{Message: err.Error()})
			return
		}
		d.ServerLog.Debug("ping", zap.Int("processId", procId))
		c.Reply(ctx, r.ID, "pong!")
	case types.DidOpenMethod:
		var payload types.OpenDocumentPayload
		if err := json.Unmarshal(*r.Params, &payload); err != nil {
			c.ReplyWithError(ctx, r.ID, &jsonrpc2.Error{Message: "Unable to decode params of method " + r.Method})
			return
		}
		if len(payload.URI) == 0 {
			c.ReplyWithError(ctx, r.ID, &jsonrpc2.Error{Message: "URI is empty"})
			return
		}
		d.resolver.Open(payload.URI, payload.Text)
		d.ServerLog.Debug("opened document", zap.String("uri", payload.URI), zap.Int("len", len(payload.Text)))
		c.Reply(ctx, r.ID, "ok")
	case types.DidChangeMethod:
		var payload types.ChangeDocumentPayload
		if err := json.Unmarshal(*r.Params, &payload); err != nil {
			c.ReplyWithError(ctx, r.ID, &jsonrpc2.Error{Message: "Unable to decode params of method " + r.Method})
			return
		}
		if len(payload.URI) == 0 {
			c.ReplyWithError(ctx, r.ID, &jsonrpc2.Error{Message: "URI is empty"})
			return
		}
		d.resolver.Changed(payload.URI, payload.Text)
		d.ServerLog.Debug("changed document", zap.String("uri", payload.URI), zap.Int("len", len(payload.Text)))
		c.Reply(ctx, r.ID, "ok")
	case types.DidCloseMethod:
		var payload types.CloseDocumentPayload
		if err := json.Unmarshal(*r.Params, &payload); err != nil {
			c.ReplyWithError(ctx, r.ID, &jsonrpc2.Error{Message: "Unable to decode params of method " + r.Method})
			return
		}
		if len(payload.URI) == 0 {
			c.ReplyWithError(ctx, r.ID, &jsonrpc2.Error{Message: "URI is empty"})
			return
		}
		d.resolver.Close(payload.URI)
		d.ServerLog.Debug("closed document", zap.String("uri", payload.URI))
		c.Reply(ctx, r.ID, "ok")
	case types.DefinitionMethod:
		d.handleDefinition(ctx, c, r)
	case types.ReferencesMethod:
		d.handleReferences(ctx, c, r)
	case types.HoverMethod:
		d.handleHover(ctx, c, r)
	case types.CompletionMethod:
		d.handleCompletion(ctx, c, r)
	case types.SignatureHelpMethod:
		d.handleSignatureHelp(ctx, c, r)
	case types.FoldingRangeMethod:
		d.handleFoldingRange(ctx, c, r)
	}
}

// publishDiagnostics converts a resolver publish callback into a
// broadcast notification to every connected LSP client, additionally
// appending one history.Run to the ledger for crash diagnosis.
func (d *Server) publishDiagnostics(uri string, diags []diagnostic.Diagnostic) {
	wire := make([]types.Diagnostic, 0, len(diags))
	for _, diag := range diags {
		wire = append(wire, types.Diagnostic{
			Severity:    severityName(diag.Severity),
			Message:     diag.Message,
			Source:      diag.Source,
			Code:        diag.Code,
			StartLine:   diag.Range.Start.Line,
			StartColumn: diag.Range.Start.Column,
			EndLine:     diag.Range.End.Line,
			EndColumn:   diag.Range.End.Column,
		})
	}

	ctx := context.Background()
	if err := d.connectedClients.Notify(ctx, types.PublishDiagnosticsMethod, types.PublishDiagnosticsPayload{
		URI:         uri,
		Diagnostics: wire,
	}, types.LspClientType); err != nil {
		d.ServerLog.Warn("publish diagnostics notify failed", zap.String("uri", uri), zap.Error(err))
	}

	if d.history == nil {
		return
	}

	symbolCount := 0
	hasErrors := false
	for _, diag := range diags {
		if diag.Severity == diagnostic.SeverityError {
			hasErrors = true
		}
	}
	if rec, ok := d.resolver.Record(uri); ok && rec.Scope != nil {
		symbolCount = len(rec.Scope.Root().OrderedNames())
	}

	if err := d.history.RecordRun(history.Run{
		URI:             uri,
		DiagnosticCount: len(diags),
		SymbolCount:     symbolCount,
		OK:              !hasErrors,
	}); err != nil {
		d.ServerLog.Warn("recording analysis run failed", zap.String("uri", uri), zap.Error(err))
	}
}

func severityName(s diagnostic.Severity) string {
	switch s {
	case diagnostic.SeverityError:
		return "error"
	case diagnostic.SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

func (s *Server) Start(addr string) error {
	return rpc.StartServer(
		addr,
		jsonrpc2.VarintObjectCodec{},
		s,
	)
}

// NewServer constructs a daemon Server backed by a fresh resolver over
// settings, with analysis history recorded to an on-disk store (falling
// back to an in-memory one if the data directory can't be opened).
func NewServer(settings config.Settings, log *zap.Logger) *Server {
	server := &Server{
		ServerLog:        log,
		connectedClients: connectedClients{},
	}

	hist, err := history.Open()
	if err != nil {
		log.Warn("falling back to in-memory analysis history", zap.Error(err))
		hist, _ = history.NewMemoryStore()
	}
	server.history = hist

	server.resolver = resolver.New(settings, helpers.NewSharedFS(), server.publishDiagnostics)
	return server
}

// Start runs the daemon's top-level loop: accepting RPC connections,
// driving the resolver's delayed re-analysis queues, and disconnecting
// idle background instances.
func Start(server *Server, addr string) error {
	isTerminal := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	errChan := make(chan error, 1)
	disconnChan := make(chan int, 1)
	exitSignal := make(chan os.Signal, 1)

	go func() {
		server.ServerLog.Info("daemon started", zap.String("addr", addr))
		errChan <- server.Start(addr)
	}()

	signal.Notify(exitSignal, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-exitSignal
		disconnChan <- 1
	}()

	timer := time.NewTimer(15 * time.Second)
	defer timer.Stop()

	for {
		select {
		case err := <-errChan:
			return err
		case now := <-timer.C:
			server.resolver.Tick(now)

			delay := 15 * time.Second
			if d, ok := server.resolver.NextDelay(now); ok && d < delay {
				delay = d
			}
			timer.Reset(delay)

			if !isTerminal && len(server.connectedClients) == 0 {
				disconnChan <- 1
			}
		case <-disconnChan:
			server.connectedClients.Disconnect()
			if server.history != nil {
				server.history.Close()
			}
			return nil
		}
	}
}
