package hoist

import (
	"github.com/Paril/angel-lsp/ast"
	"github.com/Paril/angel-lsp/config"
	"github.com/Paril/angel-lsp/diagnostic"
	"github.com/Paril/angel-lsp/scope"
	"github.com/Paril/angel-lsp/symbol"
	"github.com/Paril/angel-lsp/token"
)

var primitiveNames = []string{
	"void", "bool",
	"int", "int8", "int16", "int32", "int64",
	"uint", "uint8", "uint16", "uint32", "uint64",
	"float", "double",
}

// registerPrimitives installs every built-in primitive type symbol into
// global's root scope. Primitives have no declaring file construct, so
// their IdentToken carries only a synthetic identifier text.
func registerPrimitives(global *scope.GlobalScope) {
	root := global.Root()
	for _, name := range primitiveNames {
		sym := &symbol.Type{
			IdentToken: token.Token{Kind: token.Identifier, Text: name},
			DeclScope: root.Path(),
			Discriminator: symbol.TypePrimitive,
		}
		root.InsertSymbol(name, sym, nil)
	}
}

// ResolveType implements analyze-type: resolve a type AST
// node (possibly scope-qualified, templated, array/handle-suffixed) to a
// ResolvedType, recording a reference entry and diagnosing unresolvable
// segments. Shared by hoist (return/param/base types) and
// analyzer (variable declarations, casts).
func ResolveType(global *scope.GlobalScope, sc *scope.Scope, t *ast.TypeRef, settings config.Settings) symbol.ResolvedType {
	if t == nil || t.IsAuto {
		return symbol.Unresolved
	}

	cur := sc
	if t.GlobalScope {
		cur = global.Root()
	}

	for _, seg := range t.Qualifiers {
		next, ok := cur.LookupChildScope(seg.Text)
		if !ok {
			global.Diagnostics.Report(diagnostic.UnresolvedName, seg.Range,
				"unresolved scope qualifier '"+seg.Text+"'")
			return symbol.Unresolved
		}
		cur = next
	}

	var typeSym *symbol.Type
	if holder := cur.LookupSymbolWithParent(t.Name.Text); holder != nil && !holder.IsFuncHolder() {
		if ts, ok := holder.Single().(*symbol.Type); ok {
			typeSym = ts
		}
	}
	if typeSym == nil {
		global.Diagnostics.Report(diagnostic.UnresolvedName, t.Name.Range,
			"unresolved type '"+t.Name.Text+"'")
		return symbol.Unresolved
	}

	result := symbol.ResolvedType{
		TypeSym: typeSym,
		IsConst: t.IsConst,
		RefMode: t.RefMode,
	}

	if len(t.TemplateArg) > 0 && len(typeSym.TemplateParams) > 0 {
		translator := symbol.TemplateTranslator{}
		for i, argRef := range t.TemplateArg {
			if i >= len(typeSym.TemplateParams) {
				break
			}
			argResolved := ResolveType(global, sc, argRef, settings)
			translator[typeSym.TemplateParams[i]] = argResolved
		}
		result.Translator = translator
	}

	if t.IsArray {
		arrayName := settings.Analyzer.BuiltinArrayType
		if holder := cur.LookupSymbolWithParent(arrayName); holder != nil && !holder.IsFuncHolder() {
			if arraySym, ok := holder.Single().(*symbol.Type); ok {
				result = symbol.ResolvedType{
					TypeSym: arraySym,
					Translator: symbol.TemplateTranslator{"T": result},
					IsConst: t.IsConst,
					RefMode: t.RefMode,
				}
			}
		}
		result.IsArray = true
	}

	if t.IsHandle {
		result = result.WithHandle()
	}

	global.AddReference(symbol.ReferenceEntry{FromToken: t.Name, ToSymbol: typeSym})

	return result
}
