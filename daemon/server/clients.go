package server

import (
	"context"
	"errors"

	"github.com/Paril/angel-lsp/daemon/types"
	"github.com/sourcegraph/jsonrpc2"
)

type connectedClient struct {
	id         int
	clientType types.ClientType
	conn       *jsonrpc2.Conn
}

type connectedClients map[int]connectedClient

// Get returns the client registered under id, if any.
func (clients connectedClients) Get(id int) (connectedClient, bool) {
	c, ok := clients[id]
	return c, ok
}

// Conn exposes the registered jsonrpc2 connection, mainly for tests that
// want to assert a client handshake actually stored a live connection.
func (c connectedClient) Conn() *jsonrpc2.Conn {
	return c.conn
}

// ProcessIds returns the process ids of every connected client of the
// given type (or every client if no type is given).
func (clients connectedClients) ProcessIds(clientTypes ...types.ClientType) []int {
	ids := make([]int, 0, len(clients))
	for id, c := range clients {
		if len(clientTypes) == 0 || clientTypeMatches(c.clientType, clientTypes) {
			ids = append(ids, id)
		}
	}
	return ids
}

func clientTypeMatches(ct types.ClientType, wanted []types.ClientType) bool {
	for _, w := range wanted {
		if ct == w {
			return true
		}
	}
	return false
}

func (clients connectedClients) Notify(ctx context.Context, method types.Method, params any, clientTypes ...types.ClientType) error {
	var errs []error

	for _, c := range clients {
		if len(clientTypes) != 0 && !clientTypeMatches(c.clientType, clientTypes) {
			continue
		}
		if c.conn == nil {
			continue
		}
		if err := c.conn.Notify(ctx, string(method), params); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) != 0 {
		return errors.Join(errs...)
	}

	return nil
}

func (clients connectedClients) Disconnect() {
	for _, cl := range clients {
		if cl.conn != nil {
			cl.conn.Close()
		}
		delete(clients, cl.id)
	}
}
