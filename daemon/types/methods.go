package types

import "fmt"

// for building consistent jsonrpc method proc names
type namespace string

type Method string

func (n namespace) methodName(method string) Method {
	return Method(fmt.Sprintf("%s/%s", n, method))
}

const (
	serverNamespace  = namespace("$")
	clientsNamespace = namespace("clients")
)

// server methods: called by a client on the daemon.
var (
	HandshakeMethod = serverNamespace.methodName("handshake")
	ShutdownMethod  = serverNamespace.methodName("shutdown")
	PingMethod      = serverNamespace.methodName("ping")
	DidOpenMethod   = serverNamespace.methodName("didOpen")
	DidChangeMethod = serverNamespace.methodName("didChange")
	DidCloseMethod  = serverNamespace.methodName("didClose")

	DefinitionMethod    = serverNamespace.methodName("definition")
	ReferencesMethod    = serverNamespace.methodName("references")
	HoverMethod         = serverNamespace.methodName("hover")
	CompletionMethod    = serverNamespace.methodName("completion")
	SignatureHelpMethod = serverNamespace.methodName("signatureHelp")
	FoldingRangeMethod  = serverNamespace.methodName("foldingRange")
)

// client methods: called by the daemon on a connected client.
var (
	PublishDiagnosticsMethod = clientsNamespace.methodName("publishDiagnostics")
)

func MethodIs(s string, m Method) bool {
	return s == string(m)
}

func MethodIsEither(s string, ms ...Method) bool {
	for _, m := range ms {
		if MethodIs(s, m) {
			return true
		}
	}
	return false
}
