package server_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/Paril/angel-lsp/config"
	"github.com/Paril/angel-lsp/daemon/client"
	"github.com/Paril/angel-lsp/daemon/server"
	"github.com/Paril/angel-lsp/daemon/types"
	"github.com/Paril/angel-lsp/logging"
)

const defaultAddr = ":3434"

func Setup() (*jsonrpc2.Conn, *server.Server, *client.Client) {
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

	cl := client.NewClient(context.Background(), defaultAddr, types.MonitorClientType)
	cl.SetConn(clientConn)

	return conn, srv, cl
}

func TestHandshake(t *testing.T) {
	clientId := 1
	conn, srv, cl := Setup()
	defer conn.Close()

	cl.SetId(clientId)
	defer cl.Close()

	if err := cl.Connect(); err != nil {
		t.Fatal(err)
	}

	if !cl.IsConnected() {
		t.Fatalf("expected client to be connected")
	}

	got, found := srv.Clients().Get(clientId)
	if !found {
		t.Fatalf("expected client %d to be registered", clientId)
	}

	if got.Conn() == nil {
		t.Fatalf("expected registered client to have a connection")
	}
}

func TestShutdown(t *testing.T) {
	clientId := 1
	conn, _, cl := Setup()
	defer conn.Close()

	cl.SetId(clientId)
	defer cl.Close()

	if err := cl.Connect(); err != nil {
		t.Fatal(err)
	}

	if !cl.IsConnected() {
		t.Fatalf("expected client to be connected")
	}

	if err := cl.Shutdown(); err != nil {
		t.Fatal(err)
	}

	if cl.IsConnected() {
		t.Fatalf("expected client to be disconnected")
	}
}

func TestDidOpenPublishesDiagnostics(t *testing.T) {
	clientId := 1
	conn, _, cl := Setup()
	defer conn.Close()

	cl.SetId(clientId)
	defer cl.Close()

	if err := cl.Connect(); err != nil {
		t.Fatal(err)
	}

	if err := cl.DidOpen("file:///hello.as", "void main() { undeclaredFunc(); }"); err != nil {
		t.Fatal(err)
	}

	time.Sleep(200 * time.Millisecond)
}

func TestDidOpen_EmptyURI(t *testing.T) {
	clientId := 1
	conn, _, cl := Setup()
	defer conn.Close()

	cl.SetId(clientId)
	defer cl.Close()

	if err := cl.Connect(); err != nil {
		t.Fatal(err)
	}

	if err := cl.DidOpen("", "void main() {}"); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestDidCloseAfterDidOpen(t *testing.T) {
	clientId := 1
	conn, _, cl := Setup()
	defer conn.Close()

	cl.SetId(clientId)
	defer cl.Close()

	if err := cl.Connect(); err != nil {
		t.Fatal(err)
	}

	if err := cl.DidOpen("file:///hello.as", "void main() {}"); err != nil {
		t.Fatal(err)
	}

	time.Sleep(100 * time.Millisecond)

	if err := cl.DidClose("file:///hello.as"); err != nil {
		t.Fatal(err)
	}
}

func TestDidChangeAfterDidOpen(t *testing.T) {
	clientId := 1
	conn, _, cl := Setup()
	defer conn.Close()

	cl.SetId(clientId)
	defer cl.Close()

	if err := cl.Connect(); err != nil {
		t.Fatal(err)
	}

	if err := cl.DidOpen("file:///hello.as", "void main() {}"); err != nil {
		t.Fatal(err)
	}

	time.Sleep(100 * time.Millisecond)

	if err := cl.DidChange("file:///hello.as", "void main() { int x; }"); err != nil {
		t.Fatal(err)
	}
}

func TestCall_NoProcessId(t *testing.T) {
	clientId := 1
	conn, _, cl := Setup()
	defer conn.Close()

	cl.SetId(clientId)
	defer cl.Close()

	if err := cl.Connect(); err != nil {
		t.Fatal(err)
	}

	if !cl.IsConnected() {
		t.Fatalf("expected client to be connected")
	}

	cl.SetId(-3)
	err := cl.Call("test", "test", nil)
	if err == nil {
		t.Fatalf("expected error, got nil")
	}

	if jErr, ok := err.(*jsonrpc2.Error); ok {
		if jErr.Message != "Process ID not found" {
			t.Fatalf("expected error message Process ID not found, got %s", jErr.Message)
		}
	} else {
		t.Fatalf("expected jsonrpc2.Error, got %T", err)
	}
}

func TestCall_InvalidProcessId(t *testing.T) {
	clientId := 1
	conn, _, cl := Setup()
	defer conn.Close()

	cl.SetId(clientId)
	defer cl.Close()

	if err := cl.Connect(); err != nil {
		t.Fatal(err)
	}

	if !cl.IsConnected() {
		t.Fatalf("expected client to be connected")
	}

	cl.SetId(111)
	err := cl.Call("test", "test", nil)
	if err == nil {
		t.Fatalf("expected error, got nil")
	}

	if jErr, ok := err.(*jsonrpc2.Error); ok {
		if jErr.Message != "Process not connected yet." {
			t.Fatalf("expected error message Process not connected yet., got %s", jErr.Message)
		}
	} else {
		t.Fatalf("expected jsonrpc2.Error, got %T", err)
	}
}
