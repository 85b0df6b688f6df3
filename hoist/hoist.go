// Package hoist implements the first semantic pass: a recursive walk over
// the parsed script that declares every named entity without resolving
// its body, enabling forward references and mutual recursion. Grounded on
// the daemon scheduler's idiom of queueing a unit of work and draining it
// (daemon/server/server.go's Start select loop), generalized from a
// timer-polled queue to a synchronous drain-to-empty queue: hoisting a
// file completes once a full drain of the hoist queue finishes.
package hoist

import (
	"fmt"

	"github.com/Paril/angel-lsp/ast"
	"github.com/Paril/angel-lsp/config"
	"github.com/Paril/angel-lsp/diagnostic"
	"github.com/Paril/angel-lsp/scope"
	"github.com/Paril/angel-lsp/symbol"
)

// TaskKind tags an AnalyzeTask's deferred body of work.
type TaskKind int

const (
	TaskFuncBody TaskKind = iota
	TaskPropertyBody
	TaskVarInit
)

// AnalyzeTask is one unit of body-level work deferred to the analyze
// phase: a scope to analyze in, and the AST fragment to analyze.
type AnalyzeTask struct {
	Kind TaskKind
	Scope *scope.Scope
	Node ast.Node
	EnclosingFunc *symbol.Function // return-type context; nil for TaskVarInit
	VarSym *symbol.Variable // set for TaskVarInit
}

// Hoister runs the first pass over one file's AST and accumulates the
// analyze-phase work list.
type Hoister struct {
	Global *scope.GlobalScope
	Settings config.Settings
	AnalyzeQueue []AnalyzeTask

	hoistQueue []func()
	anonCount int
}

// NewHoister creates a Hoister and pre-registers every built-in
// primitive type into global's root scope.
func NewHoister(global *scope.GlobalScope, settings config.Settings) *Hoister {
	h := &Hoister{Global: global, Settings: settings}
	registerPrimitives(global)
	return h
}

func (h *Hoister) enqueue(task func()) {
	h.hoistQueue = append(h.hoistQueue, task)
}

func (h *Hoister) drain() {
	for len(h.hoistQueue) > 0 {
		task := h.hoistQueue[0]
		h.hoistQueue = h.hoistQueue[1:]
		task()
	}
}

// HoistScript runs the recursive walk over root's declarations followed
// by a full drain of the hoist queue.
func (h *Hoister) HoistScript(root *ast.Script) {
	sc := h.Global.Root()
	for _, decl := range root.Decls {
		h.hoistDecl(sc, decl, false)
	}
	h.drain()
}

// hoistDecl dispatches one top-level-or-nested declaration by kind.
// instanceContext is true when decl sits directly inside a class member
// scope (so Var/Func/VirtualProp pick up IsInstanceMember).
func (h *Hoister) hoistDecl(sc *scope.Scope, node ast.Node, instanceContext bool) {
	switch n := node.(type) {
	case *ast.Enum:
		h.hoistEnum(sc, n)
	case *ast.Typedef:
		h.hoistTypedef(sc, n)
	case *ast.Class:
		h.hoistClass(sc, n)
	case *ast.Interface:
		h.hoistInterface(sc, n)
	case *ast.Mixin:
		h.hoistClass(sc, n.Class)
	case *ast.Func:
		h.hoistFunc(sc, n, instanceContext)
	case *ast.FuncDef:
		h.hoistFuncDef(sc, n)
	case *ast.Namespace:
		h.hoistNamespace(sc, n)
	case *ast.Var:
		h.hoistVar(sc, n, instanceContext)
	case *ast.VirtualProp:
		h.hoistVirtualProp(sc, n, instanceContext)
	}
}

func (h *Hoister) reportUnresolved(sc *scope.Scope, tok ast.Node, message string) {
	h.Global.Diagnostics.Report(diagnostic.UnresolvedName, tok.Range(), message)
}

// nextAnonName generates the unique per-overload body-scope identifier
// every anonymous function body needs under a function-holder scope.
func (h *Hoister) nextAnonName() string {
	h.anonCount++
	return fmt.Sprintf("$body%d", h.anonCount)
}
