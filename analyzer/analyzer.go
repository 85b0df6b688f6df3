// Package analyzer implements the second semantic pass:
// draining the analyze queue hoist built, walking each function body,
// property accessor body, or variable initializer structurally, and
// resolving every expression to a symbol.ResolvedType. Grounded on
// itsfuad-Ferret's typechecker.go for the traversal/scoring shape.
package analyzer

import (
	"strconv"

	"github.com/Paril/angel-lsp/ast"
	"github.com/Paril/angel-lsp/config"
	"github.com/Paril/angel-lsp/diagnostic"
	"github.com/Paril/angel-lsp/hoist"
	"github.com/Paril/angel-lsp/scope"
	"github.com/Paril/angel-lsp/symbol"
)

// Analyzer runs the analyze phase against one file's global scope.
type Analyzer struct {
	Global *scope.GlobalScope
	Settings config.Settings

	blockCount int
}

func New(global *scope.GlobalScope, settings config.Settings) *Analyzer {
	return &Analyzer{Global: global, Settings: settings}
}

// Run drains every task hoist queued, in FIFO order.
func (a *Analyzer) Run(tasks []hoist.AnalyzeTask) {
	for _, t := range tasks {
		switch t.Kind {
		case hoist.TaskFuncBody, hoist.TaskPropertyBody:
			if sb, ok := t.Node.(*ast.StatBlock); ok {
				a.analyzeStatBlock(t.Scope, sb, t.EnclosingFunc)
			}
		case hoist.TaskVarInit:
			a.analyzeVarInit(t.Scope, t.Node, t.VarSym)
		}
	}
}

// analyzeVarInit type-checks a field/global initializer against its
// variable's declared type, or infers the type from the initializer
// itself when the declaration used `auto`.
func (a *Analyzer) analyzeVarInit(sc *scope.Scope, init ast.Node, v *symbol.Variable) {
	initType := a.evalExpr(sc, init, nil)
	if v.Type.IsUnresolved() {
		v.Type = initType
	} else if !initType.IsUnresolved() && !compatible(v.Type, initType) {
		a.Global.Diagnostics.Report(diagnostic.TypeMismatch, init.Range(),
			"cannot initialize '"+v.Name()+"' of type "+v.Type.String()+" from "+initType.String())
	}
}

// compatible is a permissive conversion check: identical type symbols, or
// either side unresolved (never block on a name we already failed to
// resolve — "unresolved propagates silently").
func compatible(want, got symbol.ResolvedType) bool {
	if want.IsUnresolved() || got.IsUnresolved() {
		return true
	}
	if want.TypeSym != nil && got.TypeSym != nil && want.TypeSym == got.TypeSym {
		return true
	}
	return isNumeric(want) && isNumeric(got)
}

func isNumeric(t symbol.ResolvedType) bool {
	if t.TypeSym == nil || t.TypeSym.Discriminator != symbol.TypePrimitive {
		return false
	}
	switch t.TypeSym.Name() {
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64",
		"float", "double":
		return true
	}
	return false
}

func (a *Analyzer) childBlockScope(sc *scope.Scope, node ast.Node) *scope.Scope {
	a.blockCount++
	return sc.InsertScope(blockName(a.blockCount), node)
}

func blockName(n int) string {
	return "$block" + strconv.Itoa(n)
}

// hoistResolveType exposes hoist's analyze-type algorithm to the analyze
// phase, which reuses it for local variable declarations and casts.
func hoistResolveType(a *Analyzer, sc *scope.Scope, t *ast.TypeRef) symbol.ResolvedType {
	return hoist.ResolveType(a.Global, sc, t, a.Settings)
}
