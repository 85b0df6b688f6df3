package symbol

import (
	"github.com/Paril/angel-lsp/ast"
	"github.com/Paril/angel-lsp/token"
)

// HintKind tags a Hint's concrete variant.
type HintKind int

const (
	HintAutocompleteInstanceMember HintKind = iota
	HintAutocompleteNamespaceAccess
	HintFunctionCall
	HintAutoTypeResolution
	HintScopeRegion
)

// Hint is the closed tagged union of per-file complement records that
// seed completion, signature-help, and inlay-hint editor features.
type Hint interface {
	HintKind() HintKind
}

// AutocompleteInstanceMember fires when the cursor sits immediately after
// a member-access dot; TargetType is the static type whose members should
// be offered.
type AutocompleteInstanceMember struct {
	CaretRange token.Range
	TargetType ResolvedType
}

func (AutocompleteInstanceMember) HintKind() HintKind { return HintAutocompleteInstanceMember }

// AutocompleteNamespaceAccess fires when the cursor follows `::`.
type AutocompleteNamespaceAccess struct {
	CaretRange token.Range
	AccessPath Path
}

func (AutocompleteNamespaceAccess) HintKind() HintKind { return HintAutocompleteNamespaceAccess }

// FunctionCall records a resolved call site: the caller's identifier
// token, its argument-list AST (for signature-help's active-parameter
// computation) and the full overload holder (every overload is offered in
// signature help). The analyzer leaves Translator unset: no template
// bindings are recorded for a call.
type FunctionCall struct {
	CallerIdent token.Token
	CallerArgs  *ast.ArgList
	Callee      *Holder
	Translator  TemplateTranslator
}

func (FunctionCall) HintKind() HintKind { return HintFunctionCall }

// AutoTypeResolution records what `auto` resolved to at one declaration.
type AutoTypeResolution struct {
	AutoToken token.Token
	Resolved  ResolvedType
}

func (AutoTypeResolution) HintKind() HintKind { return HintAutoTypeResolution }

// ScopeRegion backs folding ranges: a scope and the source range of the
// AST node it's linked to.
type ScopeRegion struct {
	ScopePath Path
	NodeRange token.Range
}

func (ScopeRegion) HintKind() HintKind { return HintScopeRegion }
