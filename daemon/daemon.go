// Package daemon wires together the client/server/types subpackages into
// the small surface cli and lsp_server actually call: dialing or spawning
// the workspace daemon and handing back a connected client.
package daemon

import (
	"context"

	"github.com/sourcegraph/jsonrpc2"
	"go.uber.org/zap"

	"github.com/Paril/angel-lsp/config"
	"github.com/Paril/angel-lsp/daemon/client"
	"github.com/Paril/angel-lsp/daemon/server"
	"github.com/Paril/angel-lsp/daemon/types"
	"github.com/Paril/angel-lsp/rpc"
)

var defaultPort = ":9342"

// DEFAULT_PORT is the daemon's listen address absent a --port override.
const DEFAULT_PORT = ":9342"

func SetDefaultPort(port string) {
	defaultPort = port
}

func CurrentPort() string {
	return defaultPort
}

func NewClient(ctx context.Context, addr string, clientType types.ClientType, handlerFunc ...func(ctx context.Context, c *jsonrpc2.Conn, r *jsonrpc2.Request)) *client.Client {
	hf := make([]rpc.HandlerFunc, 0, len(handlerFunc))
	for _, h := range handlerFunc {
		hf = append(hf, rpc.HandlerFunc(h))
	}
	cl := client.NewClient(ctx, addr, clientType, hf...)
	cl.SpawnOnMaxReconnect = true
	return cl
}

// Connect dials addr, spawning the daemon as a background process and
// retrying if nothing is listening yet.
func Connect(ctx context.Context, addr string, clientType types.ClientType, handlerFunc ...func(ctx context.Context, c *jsonrpc2.Conn, r *jsonrpc2.Request)) (*client.Client, error) {
	cl := NewClient(ctx, addr, clientType, handlerFunc...)
	if err := cl.Connect(); err != nil {
		return nil, err
	}
	return cl, nil
}

// Serve starts the workspace daemon listening on addr, blocking until it
// exits (idle timeout, signal, or RPC transport error).
func Serve(addr string, settings config.Settings, log *zap.Logger) error {
	srv := server.NewServer(settings, log)
	return server.Start(srv, addr)
}
