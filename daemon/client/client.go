package client

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/Paril/angel-lsp/daemon/types"
	"github.com/Paril/angel-lsp/rpc"
	"github.com/sourcegraph/jsonrpc2"
)

type ConnectionState int

const (
	NotConnectedState ConnectionState = 0
	ShutdownState     ConnectionState = iota
	ConnectedState    ConnectionState = iota
	InitializedState  ConnectionState = iota
)

const defaultConnectDelay = 750 * time.Millisecond

type MaxConnRetriesReachedError struct {
	Err error
}

func (e *MaxConnRetriesReachedError) Error() string {
	return fmt.Sprintf("max connection retries reached: %s", e.Err.Error())
}

type Client struct {
	context             context.Context
	rpcConn             *jsonrpc2.Conn
	tcpConn             net.Conn
	connRetries         int
	addr                string
	processId           int
	connState           ConnectionState
	clientType          types.ClientType
	HandleFunc          rpc.HandlerFunc
	SpawnOnMaxReconnect bool
	OnReconnect         func(int, error) bool
	OnSpawnDaemon       func()
}

func (c *Client) SetId(id int) {
	c.processId = id
}

func (c *Client) processIdField() jsonrpc2.CallOption {
	if c.processId < 0 {
		return nil
	}
	return jsonrpc2.ExtraField("processId", c.processId)
}

func (c *Client) IsConnected() bool {
	return c.rpcConn != nil && c.connState >= ConnectedState
}

func (c *Client) tryReconnect(reason error) error {
	if c.connState != NotConnectedState {
		return nil
	}

	c.connRetries++
	if shouldReconnect := c.OnReconnect(c.connRetries, reason); !shouldReconnect {
		if c.SpawnOnMaxReconnect {
			c.OnSpawnDaemon()
			if err := startDaemonProcess(); err != nil {
				return err
			}

			// avoid looping
			c.SpawnOnMaxReconnect = false
			time.Sleep(defaultConnectDelay)
			if err := c.Connect(); err != nil {
				return err
			}

			// revert to original state if connection is successful
			c.SpawnOnMaxReconnect = true

			// this is important or else the below code will
			// interpret this as if it is was not able to reach to
			// the daemon server
			return nil
		}
		return &MaxConnRetriesReachedError{reason}
	}

	time.Sleep(defaultConnectDelay)
	return c.Connect()
}

func (c *Client) SetConn(conn net.Conn) {
	c.tcpConn = conn
}

func (c *Client) Connect() error {
	if c.context == nil {
		c.context = context.Background()
	}

	if c.tcpConn == nil {
		conn, err := net.Dial("tcp", c.addr)
		if err != nil {
			if err, ok := err.(*net.OpError); ok {
				if strings.HasSuffix(err.Err.Error(), "connection refused") {
					return c.tryReconnect(err)
				}
			}
			return err
		}

		if err := conn.(*net.TCPConn).SetKeepAlive(true); err != nil {
			return err
		}

		if err := conn.(*net.TCPConn).SetKeepAlivePeriod(10 * time.Second); err != nil {
			return err
		}

		c.SetConn(conn)
	}

	c.connState = ConnectedState
	c.connRetries = 0

	c.rpcConn = jsonrpc2.NewConn(
		c.context,
		jsonrpc2.NewBufferedStream(&rpc.CustomStream{
			ReadCloser:  c.tcpConn,
			WriteCloser: c.tcpConn,
		}, jsonrpc2.VarintObjectCodec{}),
		jsonrpc2.AsyncHandler(c),
	)

	return c.Handshake()
}

func (c *Client) Close() error {
	if c == nil || c.rpcConn == nil {
		return nil
	}
	if err := c.Shutdown(); err != nil {
		return err
	}
	return c.rpcConn.Close()
}

func (c *Client) Call(method types.Method, params any, result any) error {
	err := c.rpcConn.Call(c.context, string(method), params, result, c.processIdField())
	if err == jsonrpc2.ErrClosed {
		c.connState = NotConnectedState
		if err := c.tryReconnect(err); err != nil {
			return err
		}

		// retry again
		return c.Call(method, params, result)
	}
	return err
}

func (c *Client) Notify(method types.Method, params any) error {
	err := c.rpcConn.Notify(c.context, string(method), params, c.processIdField())
	if err == jsonrpc2.ErrClosed {
		c.connState = NotConnectedState
		if err := c.tryReconnect(err); err != nil {
			return err
		}

		// retry again
		return c.Notify(method, params)
	}
	return err
}

func (c *Client) Handle(ctx context.Context, conn *jsonrpc2.Conn, r *jsonrpc2.Request) {
	c.HandleFunc.Handle(ctx, conn, r)
}

// DidOpen reports a newly opened document's full text to the daemon.
func (c *Client) DidOpen(uri string, text string) error {
	return c.Call(types.DidOpenMethod, types.OpenDocumentPayload{
		DocumentIdentifier: types.DocumentIdentifier{URI: uri},
		Text:               text,
	}, nil)
}

// DidChange reports an open document's edited full text to the daemon.
func (c *Client) DidChange(uri string, text string) error {
	return c.Call(types.DidChangeMethod, types.ChangeDocumentPayload{
		DocumentIdentifier: types.DocumentIdentifier{URI: uri},
		Text:               text,
	}, nil)
}

// DidClose reports that a document is no longer open.
func (c *Client) DidClose(uri string) error {
	return c.Call(types.DidCloseMethod, types.CloseDocumentPayload{
		DocumentIdentifier: types.DocumentIdentifier{URI: uri},
	}, nil)
}

func positionParams(uri string, line, character int) types.PositionParams {
	return types.PositionParams{
		DocumentIdentifier: types.DocumentIdentifier{URI: uri},
		Line:               line,
		Character:          character,
	}
}

// Definition asks the daemon where the symbol at (line, character) in uri
// is declared.
func (c *Client) Definition(uri string, line, character int) (types.LocationsResult, error) {
	var result types.LocationsResult
	err := c.Call(types.DefinitionMethod, positionParams(uri, line, character), &result)
	return result, err
}

// References asks the daemon for every recorded use of the symbol at
// (line, character) in uri.
func (c *Client) References(uri string, line, character int) (types.LocationsResult, error) {
	var result types.LocationsResult
	err := c.Call(types.ReferencesMethod, positionParams(uri, line, character), &result)
	return result, err
}

// Hover asks the daemon to describe the symbol at (line, character) in uri.
func (c *Client) Hover(uri string, line, character int) (types.HoverResult, error) {
	var result types.HoverResult
	err := c.Call(types.HoverMethod, positionParams(uri, line, character), &result)
	return result, err
}

// Completion asks the daemon for completion candidates at (line,
// character) in uri.
func (c *Client) Completion(uri string, line, character int) (types.CompletionResult, error) {
	var result types.CompletionResult
	err := c.Call(types.CompletionMethod, positionParams(uri, line, character), &result)
	return result, err
}

// SignatureHelp asks the daemon for the candidate signatures of the call
// spanning (line, character) in uri.
func (c *Client) SignatureHelp(uri string, line, character int) (types.SignatureHelpResult, error) {
	var result types.SignatureHelpResult
	err := c.Call(types.SignatureHelpMethod, positionParams(uri, line, character), &result)
	return result, err
}

// FoldingRange asks the daemon for every collapsible region in uri.
func (c *Client) FoldingRange(uri string) (types.FoldingRangeResult, error) {
	var result types.FoldingRangeResult
	err := c.Call(types.FoldingRangeMethod, types.DocumentIdentifier{URI: uri}, &result)
	return result, err
}

func (c *Client) Handshake() error {
	var result string
	err := c.Call(types.HandshakeMethod, &types.ClientInfo{
		ProcessId:  c.processId,
		ClientType: c.clientType,
	}, &result)

	if err != nil {
		return err
	} else if result != "ok" {
		return fmt.Errorf("failed to handshake with daemon server")
	}

	c.connState = InitializedState
	return c.Call(types.PingMethod, nil, nil)
}

func (c *Client) Shutdown() error {
	if c.connState == ShutdownState || c.connState == NotConnectedState {
		return nil
	}

	if err := c.Notify(types.ShutdownMethod, nil); err != nil {
		return err
	}

	c.connState = ShutdownState
	return nil
}

func startDaemonProcess() error {
	execPath, err := os.Executable()
	if err != nil {
		return err
	}

	// TODO: kill existing daemon process if found
	cmd := exec.Command(execPath, "daemon")
	if err := cmd.Start(); err != nil {
		return err
	}

	if err := cmd.Process.Release(); err != nil {
		return err
	}

	time.Sleep(defaultConnectDelay)
	return nil
}

func NewClient(ctx context.Context, addr string, clientType types.ClientType, handlerFunc ...rpc.HandlerFunc) *Client {
	cl := &Client{
		addr:        addr,
		rpcConn:     nil,
		processId:   os.Getpid(),
		clientType:  clientType,
		connState:   NotConnectedState,
		HandleFunc:  func(ctx context.Context, c *jsonrpc2.Conn, r *jsonrpc2.Request) {},
		OnReconnect: func(retries int, _ error) bool { return retries < 5 },
		OnSpawnDaemon: func() {
			fmt.Println("> daemon not started. spawning...")
		},
	}

	if len(handlerFunc) > 0 {
		cl.HandleFunc = handlerFunc[0]
	}

	return cl
}

func Connect(addr string, clientType types.ClientType, handlerFunc ...rpc.HandlerFunc) *Client {
	cl := NewClient(context.Background(), addr, clientType, handlerFunc...)
	cl.Connect()
	return cl
}
