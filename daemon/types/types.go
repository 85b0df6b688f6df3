package types

// ClientType distinguishes the two kinds of process that connect to the
// daemon: an editor speaking LSP over stdio (proxying document events
// through the daemon) and a plain CLI invocation checking on daemon
// state.
type ClientType int

const (
	UnknownClientType ClientType = iota
	MonitorClientType
	LspClientType
)

// ClientInfo identifies one connected client for Notify filtering and
// process-liveness checks.
type ClientInfo struct {
	ProcessId  int        `json:"processId"`
	ClientType ClientType `json:"clientType"`
}

// DocumentIdentifier names the document a payload concerns, keyed by LSP
// URI rather than a filesystem path so in-memory-only buffers (never
// saved to disk) are addressable too.
type DocumentIdentifier struct {
	URI string `json:"uri"`
}

// OpenDocumentPayload is sent once per textDocument/didOpen, carrying the
// buffer's full text.
type OpenDocumentPayload struct {
	DocumentIdentifier
	Text string `json:"text"`
}

// ChangeDocumentPayload is sent once per textDocument/didChange, always
// carrying the buffer's full text (the editor-side Rope has already
// applied the incremental edit before this is sent).
type ChangeDocumentPayload struct {
	DocumentIdentifier
	Text string `json:"text"`
}

// CloseDocumentPayload is sent once per textDocument/didClose.
type CloseDocumentPayload struct {
	DocumentIdentifier
}

// Diagnostic is the wire shape of one diagnostic.Diagnostic, flattened
// for JSON transport.
type Diagnostic struct {
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	Source      string `json:"source"`
	Code        string `json:"code"`
	StartLine   int    `json:"startLine"`
	StartColumn int    `json:"startColumn"`
	EndLine     int    `json:"endLine"`
	EndColumn   int    `json:"endColumn"`
}

// PublishDiagnosticsPayload is broadcast to every connected LSP client
// whenever the resolver finishes (re)inspecting a file.
type PublishDiagnosticsPayload struct {
	URI         string       `json:"uri"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// PositionParams identifies a zero-based LSP position within a document,
// the shared request shape of every query method below.
type PositionParams struct {
	DocumentIdentifier
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Location is the wire shape of one query.Location.
type Location struct {
	URI         string `json:"uri"`
	StartLine   int    `json:"startLine"`
	StartColumn int    `json:"startColumn"`
	EndLine     int    `json:"endLine"`
	EndColumn   int    `json:"endColumn"`
}

// LocationsResult answers both definition and references queries.
type LocationsResult struct {
	Locations []Location `json:"locations"`
}

// HoverResult answers a hover query; Found is false when no reference
// sits under the cursor.
type HoverResult struct {
	Contents string `json:"contents"`
	Location Location `json:"location"`
	Found    bool `json:"found"`
}

// CompletionItem is the wire shape of one query.CompletionItem.
type CompletionItem struct {
	Label  string `json:"label"`
	IsFunc bool `json:"isFunc"`
	Detail string `json:"detail"`
}

// CompletionResult answers a completion query.
type CompletionResult struct {
	Items []CompletionItem `json:"items"`
}

// SignatureHelpResult answers a signatureHelp query.
type SignatureHelpResult struct {
	Signatures      []string `json:"signatures"`
	ActiveParameter int `json:"activeParameter"`
	Found           bool `json:"found"`
}

// FoldingRangeItem is one collapsible source region.
type FoldingRangeItem struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine"`
}

// FoldingRangeResult answers a foldingRange query.
type FoldingRangeResult struct {
	Ranges []FoldingRangeItem `json:"ranges"`
}
