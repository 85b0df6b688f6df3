package analyzer

import (
	"github.com/Paril/angel-lsp/ast"
	"github.com/Paril/angel-lsp/diagnostic"
	"github.com/Paril/angel-lsp/scope"
	"github.com/Paril/angel-lsp/symbol"
)

// callOperator looks up methodName on left's type and, if found, scores
// it against a single argument args. Returns Unresolved (without
// diagnosing) when the method doesn't exist, so callers can try a
// fallback (e.g. `b.opEquals(a)`) before giving up.
func (a *Analyzer) callOperator(left symbol.ResolvedType, methodName string, args ...symbol.ResolvedType) (symbol.ResolvedType, bool) {
	if left.IsUnresolved() {
		return symbol.Unresolved, false
	}
	holder, _ := a.lookupMember(left, methodName)
	if holder == nil || !holder.IsFuncHolder() {
		return symbol.Unresolved, false
	}
	best, _ := scoreOverloads(holder.Overloads(), args)
	if best == nil {
		return symbol.Unresolved, false
	}
	return best.ReturnType, true
}

func (a *Analyzer) evalBinary(sc *scope.Scope, e *ast.ExprBinary, fn *symbol.Function) symbol.ResolvedType {
	left := a.evalExpr(sc, e.Left, fn)
	right := a.evalExpr(sc, e.Right, fn)
	if left.IsUnresolved() || right.IsUnresolved() {
		return symbol.Unresolved
	}

	switch e.Op.Text {
	case "==", "is", "!=", "<", ">", "<=", ">=", "<=>":
		if isNumeric(left) && isNumeric(right) {
			return a.primitiveType(sc, "bool")
		}
		if result, ok := a.callOperator(left, "opEquals", right); ok {
			return result
		}
		if result, ok := a.callOperator(right, "opEquals", left); ok {
			return result
		}
		if result, ok := a.callOperator(left, "opCmp", right); ok {
			return result
		}
		a.Global.Diagnostics.Report(diagnostic.OverloadResolutionFailure, e.Range(),
			"no comparison operator between "+left.String()+" and "+right.String())
		return symbol.Unresolved
	case "&&", "||", "and", "or":
		return a.primitiveType(sc, "bool")
	}

	if isNumeric(left) && isNumeric(right) {
		return widerNumeric(left, right)
	}

	methodName := binaryOpMethod(e.Op.Text)
	if methodName == "" {
		a.Global.Diagnostics.Report(diagnostic.TypeMismatch, e.Range(), "unknown operator '"+e.Op.Text+"'")
		return symbol.Unresolved
	}
	if result, ok := a.callOperator(left, methodName, right); ok {
		return result
	}
	a.Global.Diagnostics.Report(diagnostic.OverloadResolutionFailure, e.Range(),
		"no '"+methodName+"' overload on "+left.String()+" accepting "+right.String())
	return symbol.Unresolved
}

// widerNumeric implements the built-in numeric-widening rule: floating
// point dominates integral, double dominates float, otherwise the wider
// operand wins.
func widerNumeric(left, right symbol.ResolvedType) symbol.ResolvedType {
	rank := func(t symbol.ResolvedType) int {
		switch t.TypeSym.Name() {
		case "double":
			return 6
		case "float":
			return 5
		case "int64", "uint64":
			return 4
		case "int32", "uint32", "int", "uint":
			return 3
		case "int16", "uint16":
			return 2
		default:
			return 1
		}
	}
	if rank(right) > rank(left) {
		return right
	}
	return left
}

func (a *Analyzer) evalUnary(sc *scope.Scope, e *ast.ExprUnary, fn *symbol.Function) symbol.ResolvedType {
	operand := a.evalExpr(sc, e.Operand, fn)
	if operand.IsUnresolved() {
		return symbol.Unresolved
	}
	switch e.Op.Text {
	case "!", "not":
		return a.primitiveType(sc, "bool")
	}
	if isNumeric(operand) {
		return operand
	}
	methodName, ok := opMethodNames[e.Op.Text]
	if !ok {
		return symbol.Unresolved
	}
	if result, ok := a.callOperator(operand, methodName); ok {
		return result
	}
	a.Global.Diagnostics.Report(diagnostic.OverloadResolutionFailure, e.Range(),
		"no '"+methodName+"' overload on "+operand.String())
	return symbol.Unresolved
}

func (a *Analyzer) evalPostOp(sc *scope.Scope, e *ast.ExprPostOp, fn *symbol.Function) symbol.ResolvedType {
	operand := a.evalExpr(sc, e.Operand, fn)
	if operand.IsUnresolved() || isNumeric(operand) {
		return operand
	}
	methodName := "opPostInc"
	if e.Op.Text == "--" {
		methodName = "opPostDec"
	}
	if result, ok := a.callOperator(operand, methodName); ok {
		return result
	}
	return operand
}

func (a *Analyzer) evalAssign(sc *scope.Scope, e *ast.ExprAssign, fn *symbol.Function) symbol.ResolvedType {
	target := a.evalExpr(sc, e.Target, fn)
	value := a.evalExpr(sc, e.Value, fn)

	if target.IsUnresolved() || value.IsUnresolved() {
		return target
	}
	if e.Op.Text == "=" {
		if !compatible(target, value) {
			if _, ok := a.callOperator(target, "opAssign", value); !ok {
				a.Global.Diagnostics.Report(diagnostic.TypeMismatch, e.Range(),
					"cannot assign "+value.String()+" to "+target.String())
			}
		}
		return target
	}

	if isNumeric(target) && isNumeric(value) {
		return target
	}
	methodName := opMethodNames[e.Op.Text]
	if methodName != "" {
		if _, ok := a.callOperator(target, methodName, value); !ok {
			a.Global.Diagnostics.Report(diagnostic.OverloadResolutionFailure, e.Range(),
				"no '"+methodName+"' overload on "+target.String())
		}
	}
	return target
}
