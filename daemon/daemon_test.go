package daemon_test

import (
	"context"
	"testing"

	"github.com/Paril/angel-lsp/config"
	"github.com/Paril/angel-lsp/daemon/client"
	"github.com/Paril/angel-lsp/daemon/server"
	"github.com/Paril/angel-lsp/daemon/types"
	"github.com/Paril/angel-lsp/logging"
)

const defaultAddr = ":3435"

func StartServer() *server.Server {
	srv := server.NewServer(config.Default(), logging.NewNop())
	go func() {
		server.Start(srv, defaultAddr)
	}()
	return srv
}

func TestHandshake(t *testing.T) {
	clientId := 1
	srv := StartServer()

	cl := client.NewClient(context.TODO(), defaultAddr, types.MonitorClientType)
	cl.SetId(clientId)

	if err := cl.Connect(); err != nil {
		t.Fatal(err)
	}
	defer cl.Close()

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
