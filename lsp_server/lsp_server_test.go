package lsp_server

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/sourcegraph/jsonrpc2"
	lsp "go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/Paril/angel-lsp/config"
	daemonClient "github.com/Paril/angel-lsp/daemon/client"
	"github.com/Paril/angel-lsp/daemon/server"
	daemonTypes "github.com/Paril/angel-lsp/daemon/types"
	"github.com/Paril/angel-lsp/logging"
	"github.com/Paril/angel-lsp/rpc"
	"github.com/Paril/angel-lsp/types"
)

func daemonConnSetup() (*jsonrpc2.Conn, net.Conn) {
	srv := server.NewServer(config.Default(), logging.NewNop())

	serverConn, clientConn := net.Pipe()

	conn := jsonrpc2.NewConn(
		context.Background(),
		jsonrpc2.NewBufferedStream(
			serverConn,
			&jsonrpc2.VarintObjectCodec{},
		),
		srv,
	)

	return conn, clientConn
}

func Setup() (func(), *LspServer, *rpc.Client) {
	daemonServerConn, daemonClientConn := daemonConnSetup()
	serverConn, clientConn := net.Pipe()

	lspServer := &LspServer{
		publishChan: make(chan daemonTypes.PublishDiagnosticsPayload, 4),
		doneChan:    make(chan int, 1),
		documents:   map[uri.URI]*types.Rope{},
		version:     "1.0",
	}

	lspServer.conn = jsonrpc2.NewConn(
		context.Background(),
		jsonrpc2.NewBufferedStream(serverConn, jsonrpc2.VSCodeObjectCodec{}),
		lspServer,
	)

	cl := daemonClient.NewClient(context.Background(), "", daemonTypes.LspClientType, func(ctx context.Context, c *jsonrpc2.Conn, r *jsonrpc2.Request) {
		if r.Notif && daemonTypes.MethodIs(r.Method, daemonTypes.PublishDiagnosticsMethod) {
			var payload daemonTypes.PublishDiagnosticsPayload
			if err := json.Unmarshal(*r.Params, &payload); err == nil {
				lspServer.publishChan <- payload
			}
		}
	})
	cl.SetConn(daemonClientConn)
	if err := cl.Connect(); err != nil {
		panic(err)
	}
	lspServer.daemonClient = cl

	client := &rpc.Client{}
	client.Conn = jsonrpc2.NewConn(
		context.Background(),
		jsonrpc2.NewBufferedStream(clientConn, jsonrpc2.VSCodeObjectCodec{}),
		client,
	)

	return func() {
		daemonServerConn.Close()
		lspServer.conn.Close()
	}, lspServer, client
}

func initialize(client *rpc.Client) (lsp.InitializeResult, error) {
	var result lsp.InitializeResult
	err := client.Call(lsp.MethodInitialize, nil, &result)
	if err == nil {
		client.Notify(lsp.MethodInitialized, nil)
	}
	return result, err
}

func TestInitialize(t *testing.T) {
	close, srv, client := Setup()
	defer close()

	result, err := initialize(client)
	if err != nil {
		t.Fatal(err)
	}

	if result.Capabilities.TextDocumentSync == nil {
		t.Error("Expected TextDocumentSync to be non-nil")
	}

	if tdSync := lsp.TextDocumentSyncKind(result.Capabilities.TextDocumentSync.(float64)); tdSync != lsp.TextDocumentSyncKindFull {
		t.Errorf("Expected %v, got %v", lsp.TextDocumentSyncKindFull, tdSync)
	}

	if result.ServerInfo.Name != "angel-lsp" {
		t.Errorf("Expected %v, got %v", "angel-lsp", result.ServerInfo.Name)
	}

	if result.ServerInfo.Version != srv.version {
		t.Errorf("Expected %v, got %v", srv.version, result.ServerInfo.Version)
	}
}

func TestShutdown(t *testing.T) {
	close, srv, client := Setup()
	defer close()

	_, err := initialize(client)
	if err != nil {
		t.Fatal(err)
	}

	var result interface{}
	err = client.Call(lsp.MethodShutdown, nil, &result)
	if err != nil {
		t.Fatal(err)
	}

	if result != nil {
		t.Errorf("Expected nil, got %v", result)
	}

	if srv.daemonClient.IsConnected() {
		t.Error("Expected daemon client to be disconnected")
	}
}

func TestExit(t *testing.T) {
	close, srv, client := Setup()
	defer close()

	_, err := initialize(client)
	if err != nil {
		t.Fatal(err)
	}

	err = client.Notify(lsp.MethodExit, nil)
	if err != nil {
		t.Fatal(err)
	}

	result := <-srv.doneChan
	if result != 0 {
		t.Errorf("Expected 0, got %v", result)
	}
}

func TestMethodTextDocumentDidOpen(t *testing.T) {
	close, srv, client := Setup()
	defer close()

	_, err := initialize(client)
	if err != nil {
		t.Fatal(err)
	}

	err = client.Notify(lsp.MethodTextDocumentDidOpen, lsp.DidOpenTextDocumentParams{
		TextDocument: lsp.TextDocumentItem{
			URI:  "file:///test.as",
			Text: "void main() { undeclaredFunc(); }",
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	select {
	case payload := <-srv.publishChan:
		if payload.URI != "file:///test.as" {
			t.Errorf("Expected diagnostics for file:///test.as, got %v", payload.URI)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for diagnostics")
	}

	if _, ok := srv.documents[uri.URI("file:///test.as")]; !ok {
		t.Error("Expected document to be opened")
	}
}

func TestMethodTextDocumentDidOpen_NoPayload(t *testing.T) {
	close, _, client := Setup()
	defer close()

	_, err := initialize(client)
	if err != nil {
		t.Fatal(err)
	}

	client.Notify(lsp.MethodTextDocumentDidOpen, nil)
}

func TestMethodTextDocumentDidChange(t *testing.T) {
	close, srv, client := Setup()
	defer close()

	_, err := initialize(client)
	if err != nil {
		t.Fatal(err)
	}

	err = client.Notify(lsp.MethodTextDocumentDidOpen, lsp.DidOpenTextDocumentParams{
		TextDocument: lsp.TextDocumentItem{
			URI:  "file:///test.as",
			Text: "void main() {}",
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	<-srv.publishChan

	err = client.Notify(lsp.MethodTextDocumentDidChange, lsp.DidChangeTextDocumentParams{
		TextDocument: lsp.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: lsp.TextDocumentIdentifier{
				URI: uri.URI("file:///test.as"),
			},
			Version: 1,
		},
		ContentChanges: []lsp.TextDocumentContentChangeEvent{
			{
				Text: "",
				Range: lsp.Range{
					Start: lsp.Position{Line: 0, Character: 0},
					End:   lsp.Position{Line: 0, Character: 14},
				},
				RangeLength: 14,
			},
			{
				Text: "void main() { int x; }",
				Range: lsp.Range{
					Start: lsp.Position{Line: 0, Character: 0},
					End:   lsp.Position{Line: 0, Character: 0},
				},
				RangeLength: 0,
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(100 * time.Millisecond)

	if srv.documents[uri.URI("file:///test.as")].ToString() != "void main() { int x; }" {
		t.Errorf("unexpected document text: %v", srv.documents[uri.URI("file:///test.as")].ToString())
	}
}

func TestMethodTextDocumentDidChange_NoPayload(t *testing.T) {
	close, _, client := Setup()
	defer close()

	_, err := initialize(client)
	if err != nil {
		t.Fatal(err)
	}

	client.Notify(lsp.MethodTextDocumentDidChange, nil)
}

func TestMethodTextDocumentDidClose(t *testing.T) {
	close, srv, client := Setup()
	defer close()

	_, err := initialize(client)
	if err != nil {
		t.Fatal(err)
	}

	err = client.Notify(lsp.MethodTextDocumentDidOpen, lsp.DidOpenTextDocumentParams{
		TextDocument: lsp.TextDocumentItem{
			URI:  "file:///test.as",
			Text: "void main() {}",
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	<-srv.publishChan

	err = client.Notify(lsp.MethodTextDocumentDidClose, lsp.DidCloseTextDocumentParams{
		TextDocument: lsp.TextDocumentIdentifier{
			URI: uri.URI("file:///test.as"),
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(100 * time.Millisecond)

	if _, ok := srv.documents[uri.URI("file:///test.as")]; ok {
		t.Error("Expected document to be closed")
	}
}

func TestMethodTextDocumentDidClose_NoPayload(t *testing.T) {
	close, _, client := Setup()
	defer close()

	_, err := initialize(client)
	if err != nil {
		t.Fatal(err)
	}

	client.Notify(lsp.MethodTextDocumentDidClose, nil)
}
