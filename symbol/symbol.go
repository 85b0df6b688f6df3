// Package symbol defines the resolved-symbol-graph value types: scope
// paths, symbol variants, resolved types, reference entries and complement
// hints. ResolvedType values are immutable once constructed and safe to
// share by structural copy (see "Resolved type ... is a value"); the Type,
// Function and Variable symbols are filled in further during hoist and
// analyze.
package symbol

import (
	"strings"

	"github.com/Paril/angel-lsp/ast"
	"github.com/Paril/angel-lsp/token"
)

// Path is the canonical stable identity of a scope: an ordered sequence of
// identifier segments from the global root (keyed by file URI) down to a
// scope. Two scopes in the same global scope never share a Path.
type Path struct {
	segments []string
}

// NewPath builds a path from a file URI root and zero or more segments.
func NewPath(uri string, segments ...string) Path {
	all := make([]string, 0, len(segments)+1)
	all = append(all, uri)
	all = append(all, segments...)
	return Path{segments: all}
}

// Child returns a new path with one more segment appended.
func (p Path) Child(segment string) Path {
	next := make([]string, len(p.segments)+1)
	copy(next, p.segments)
	next[len(p.segments)] = segment
	return Path{segments: next}
}

// Segments returns the path's identifier sequence, including the leading
// URI root.
func (p Path) Segments() []string {
	return append([]string(nil), p.segments...)
}

// Root returns the file URI this path is rooted at.
func (p Path) Root() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[0]
}

func (p Path) String() string {
	return strings.Join(p.segments, "::")
}

// Equal reports structural equality; two distinct scopes never share a path.
func (p Path) Equal(other Path) bool {
	if len(p.segments) != len(other.segments) {
		return false
	}
	for i := range p.segments {
		if p.segments[i] != other.segments[i] {
			return false
		}
	}
	return true
}

// TypeKind discriminates a Type symbol's category.
type TypeKind int

const (
	TypePrimitive TypeKind = iota
	TypeEnum
	TypeClass
	TypeInterface
	TypeTypedef
	TypeTemplateParam
)

// Type is a type symbol: a class, interface, enum, typedef, primitive, or
// template parameter.
type Type struct {
	IdentToken token.Token
	DeclScope Path
	MembersScope *Path // present iff class/interface/enum-with-members
	TemplateParams []string
	Bases []ResolvedType
	Discriminator TypeKind
}

func (t *Type) Name() string { return t.IdentToken.Text }

// Variable is a variable or field symbol.
type Variable struct {
	IdentToken token.Token
	DeclScope Path
	Type ResolvedType
	IsInstanceMember bool
	Access ast.Access
}

func (v *Variable) Name() string { return v.IdentToken.Text }

// Function is a function or method symbol. BodyScope is present for every
// function declaration, including bodiless interface method signatures;
// func-defs have none.
type Function struct {
	IdentToken token.Token
	DeclScope Path
	ReturnType ResolvedType
	ParamTypes []ResolvedType
	ParamNames []string
	BodyScope *Path
	IsInstanceMember bool
	Access ast.Access
	TemplateParams []string
	IsVariadic bool
	Node *ast.Func
}

func (f *Function) Name() string { return f.IdentToken.Text }

// Symbol is the closed union of what a symbol table slot can hold besides
// a function holder: a type or a variable.
type Symbol interface {
	Name() string
	isSymbol()
}

func (*Type) isSymbol() {}
func (*Variable) isSymbol() {}

// TemplateTranslator maps a type's template parameter identifiers to the
// resolved types bound at a particular use site.
type TemplateTranslator map[string]ResolvedType

// RefMode mirrors ast.RefMode on a resolved type.
type RefMode = ast.RefMode

// ResolvedType is an immutable computed type value: a symbol (type or
// function), an optional template-argument translator, and modifier
// flags. Never mutated after construction; copy freely.
type ResolvedType struct {
	TypeSym *Type
	FuncSym *Function
	Translator TemplateTranslator
	IsConst bool
	RefMode RefMode
	IsHandle bool
	IsArray bool
}

// Unresolved is the zero ResolvedType, returned whenever resolution fails;
// it propagates silently through further analysis so one missing name
// does not mask downstream errors.
var Unresolved = ResolvedType{}

func (r ResolvedType) IsUnresolved() bool {
	return r.TypeSym == nil && r.FuncSym == nil
}

func (r ResolvedType) Equal(other ResolvedType) bool {
	return r.TypeSym == other.TypeSym &&
		r.FuncSym == other.FuncSym &&
		r.IsConst == other.IsConst &&
		r.RefMode == other.RefMode &&
		r.IsHandle == other.IsHandle &&
		r.IsArray == other.IsArray
}

// WithArray returns a copy wrapped as an array of r.
func (r ResolvedType) WithArray() ResolvedType {
	cp := r
	cp.IsArray = true
	return cp
}

// WithHandle returns a copy wrapped as a handle to r.
func (r ResolvedType) WithHandle() ResolvedType {
	cp := r
	cp.IsHandle = true
	return cp
}

func (r ResolvedType) String() string {
	if r.IsUnresolved() {
		return "<unresolved>"
	}
	name := ""
	if r.TypeSym != nil {
		name = r.TypeSym.Name()
	} else if r.FuncSym != nil {
		name = r.FuncSym.Name()
	}
	if r.IsConst {
		name = "const " + name
	}
	if r.IsArray {
		name += "[]"
	}
	if r.IsHandle {
		name += "@"
	}
	return name
}

// Holder is a symbol-table slot: either a single Symbol or a non-empty
// ordered list of function overloads sharing one identifier.
type Holder struct {
	single Symbol
	funcs []*Function
}

func SingleHolder(s Symbol) *Holder {
	return &Holder{single: s}
}

func FuncHolder(f *Function) *Holder {
	return &Holder{funcs: []*Function{f}}
}

// IsFuncHolder reports whether this slot holds overloads rather than a
// single symbol.
func (h *Holder) IsFuncHolder() bool {
	return h != nil && len(h.funcs) > 0
}

// Single returns the held single symbol, or nil if this is a func holder.
func (h *Holder) Single() Symbol {
	if h == nil {
		return nil
	}
	return h.single
}

// Overloads returns the held overload list, or nil if this is not a func
// holder.
func (h *Holder) Overloads() []*Function {
	if h == nil {
		return nil
	}
	return h.funcs
}

// AddOverload appends a new overload in declaration order. Caller must
// have already verified this is (or may become) a func holder.
func (h *Holder) AddOverload(f *Function) {
	h.funcs = append(h.funcs, f)
}

// Name returns the identifier this holder is keyed by.
func (h *Holder) Name() string {
	if h == nil {
		return ""
	}
	if h.IsFuncHolder() {
		return h.funcs[0].Name()
	}
	return h.single.Name()
}

// ReferenceEntry records one name resolution: the use-site token and the
// symbol it resolved to, used for go-to-definition, find-references,
// rename, and dependency tracking.
type ReferenceEntry struct {
	FromToken token.Token
	ToSymbol Symbol
	ToHolder *Holder // set instead of ToSymbol when resolving to an overload set
	ToScope *Path // set instead of ToSymbol/ToHolder when resolving to a namespace segment, which has no symbol-table entry of its own
}
