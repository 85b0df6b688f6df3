// Package ast defines the abstract syntax produced by package parser and
// consumed by package hoist and package analyzer. Node kinds are a closed
// tagged union: traversal sites type-switch on the concrete node type, and
// Kind() reports the same tag as a value.
package ast

import "github.com/Paril/angel-lsp/token"

// Kind tags a Node's concrete type.
type Kind int

const (
	KindScript Kind = iota
	KindNamespace
	KindClass
	KindInterface
	KindEnum
	KindEnumMember
	KindTypedef
	KindFunc
	KindFuncDef
	KindVirtualProp
	KindMixin
	KindVar
	KindParam
	KindType
	KindStatBlock
	KindIf
	KindFor
	KindWhile
	KindDoWhile
	KindSwitch
	KindCase
	KindReturn
	KindExprStat
	KindVarDecl
	// expressions
	KindExprValue
	KindExprFuncCall
	KindExprMember
	KindExprNamespaceAccess
	KindExprAssign
	KindExprBinary
	KindExprUnary
	KindExprPostOp
	KindExprCast
	KindExprIndex
	KindArgList
	KindError
)

// Node is the interface every AST node satisfies.
type Node interface {
	Kind() Kind
	Range() token.Range
}

type base struct {
	Rng token.Range
}

func (b base) Range() token.Range { return b.Rng }

// Error is a parser-recovery placeholder inserted at a parse failure.
type Error struct {
	base
	Message string
}

func (*Error) Kind() Kind { return KindError }

// Script is the top-level node for one file: a flat ordered list of
// top-level declarations (class/interface/enum/function/namespace/...).
type Script struct {
	base
	Decls    []Node
	Includes []IncludeDirective // explicit #include "..." targets, in source order
}

// IncludeDirective is one `#include "path"` preprocessor directive: the
// literal path text plus the range of the quoted path itself (excluding
// the quotes), so a missing target can be diagnosed at the right span.
type IncludeDirective struct {
	Path  string
	Range token.Range
}

func (*Script) Kind() Kind { return KindScript }

// Namespace is `namespace A::B::C { ... }`, already split on `::` by the
// parser into Segments.
type Namespace struct {
	base
	Segments []token.Token
	Decls    []Node
}

func (*Namespace) Kind() Kind { return KindNamespace }

// TypeRef is a reference to a type in declaration position: optional
// leading `::`, optional scope qualifier segments, an identifier, optional
// template arguments, and array/handle/const modifiers.
type TypeRef struct {
	base
	GlobalScope bool
	Qualifiers  []token.Token
	Name        token.Token
	TemplateArg []*TypeRef
	IsArray     bool
	IsHandle    bool
	IsConst     bool
	RefMode     RefMode
	IsAuto      bool
}

func (*TypeRef) Kind() Kind { return KindType }

// RefMode tags `&`, `&in`, `&out`, `&inout` parameter modifiers.
type RefMode int

const (
	RefNone RefMode = iota
	RefIn
	RefOut
	RefInOut
)

// Param is one function parameter.
type Param struct {
	base
	Type    *TypeRef
	Name    token.Token // may be zero-value for unnamed parameters
	Default Node        // optional default-value expression
}

// Func is a function or method declaration (including constructors and
// destructors, distinguished by Name/IsDestructor).
type Func struct {
	base
	Name            token.Token
	ReturnType      *TypeRef
	Params          []Param
	IsDestructor    bool
	IsConst         bool
	IsProperty      bool
	TemplateParams  []token.Token
	Body            *StatBlock // nil for interface/funcdef signatures
	IsInstanceMember bool
	Access          Access
}

func (*Func) Kind() Kind { return KindFunc }

// FuncDef is a `funcdef` function-pointer type declaration.
type FuncDef struct {
	base
	Name       token.Token
	ReturnType *TypeRef
	Params     []Param
}

func (*FuncDef) Kind() Kind { return KindFuncDef }

// Access is a member access restriction.
type Access int

const (
	AccessPublic Access = iota
	AccessProtected
	AccessPrivate
)

// Var is a field/variable declaration appearing in class or statement
// scope, possibly declaring multiple names sharing one type.
type Var struct {
	base
	Type             *TypeRef
	Names            []token.Token
	Initializers     []Node // parallel to Names; nil entry if no initializer
	IsInstanceMember bool
	Access           Access
}

func (*Var) Kind() Kind { return KindVar }

// VarDecl wraps a single-statement-position variable declaration (the
// analyze phase treats this identically to Var but it appears inside a
// StatBlock rather than a class/namespace body).
type VarDecl struct {
	base
	Type        *TypeRef
	Name        token.Token
	Initializer Node
}

func (*VarDecl) Kind() Kind { return KindVarDecl }

// Class is a class declaration.
type Class struct {
	base
	Name           token.Token
	TemplateParams []token.Token
	Bases          []*TypeRef
	Members        []Node // Var, Func, VirtualProp, FuncDef, Mixin
	IsMixin        bool
}

func (*Class) Kind() Kind { return KindClass }

// Interface is an interface declaration: method signatures and virtual
// properties only.
type Interface struct {
	base
	Name    token.Token
	Bases   []*TypeRef
	Members []Node
}

func (*Interface) Kind() Kind { return KindInterface }

// Mixin is `mixin class Name { ... }`.
type Mixin struct {
	base
	Class *Class
}

func (*Mixin) Kind() Kind { return KindMixin }

// Enum is an enum declaration.
type Enum struct {
	base
	Name    token.Token
	Members []*EnumMember
}

func (*Enum) Kind() Kind { return KindEnum }

// EnumMember is one `Identifier [= expr]` inside an enum body.
type EnumMember struct {
	base
	Name  token.Token
	Value Node // optional
}

func (*EnumMember) Kind() Kind { return KindEnumMember }

// Typedef is `typedef <primitive> Name;`.
type Typedef struct {
	base
	Name      token.Token
	Primitive token.Token
}

func (*Typedef) Kind() Kind { return KindTypedef }

// VirtualProp is a property declared with `get`/`set` accessor blocks.
type VirtualProp struct {
	base
	Type             *TypeRef
	Name             token.Token
	Getter           *StatBlock
	Setter           *StatBlock
	IsInstanceMember bool
	Access           Access
}

func (*VirtualProp) Kind() Kind { return KindVirtualProp }

// --- Statements ---

type StatBlock struct {
	base
	Stats []Node
}

func (*StatBlock) Kind() Kind { return KindStatBlock }

type If struct {
	base
	Cond Node
	Then Node
	Else Node // optional
}

func (*If) Kind() Kind { return KindIf }

type While struct {
	base
	Cond Node
	Body Node
}

func (*While) Kind() Kind { return KindWhile }

type DoWhile struct {
	base
	Body Node
	Cond Node
}

func (*DoWhile) Kind() Kind { return KindDoWhile }

type For struct {
	base
	Init Node // VarDecl or ExprStat, optional
	Cond Node
	Post []Node
	Body Node
}

func (*For) Kind() Kind { return KindFor }

type Switch struct {
	base
	Cond  Node
	Cases []*Case
}

func (*Switch) Kind() Kind { return KindSwitch }

type Case struct {
	base
	Value Node // nil for `default`
	Stats []Node
}

func (*Case) Kind() Kind { return KindCase }

type Return struct {
	base
	Value Node // optional
}

func (*Return) Kind() Kind { return KindReturn }

type ExprStat struct {
	base
	Expr Node
}

func (*ExprStat) Kind() Kind { return KindExprStat }

// --- Expressions ---

// ExprValue is a literal or a bare identifier reference.
type ExprValue struct {
	base
	Token token.Token
	IsInt bool
	IsFloat bool
	IsString bool
	IsBool bool
	IsIdent bool
	IsThis bool
	IsNull bool
}

func (*ExprValue) Kind() Kind { return KindExprValue }

// ArgList is a call's argument list, supporting named arguments.
type ArgList struct {
	base
	Args  []Node
	Names []token.Token // parallel to Args; zero-value token if positional
}

func (*ArgList) Kind() Kind { return KindArgList }

// ExprFuncCall is `callee(args)`, where Callee may itself be a member
// access or namespace access expression.
type ExprFuncCall struct {
	base
	Callee Node
	Args   *ArgList
}

func (*ExprFuncCall) Kind() Kind { return KindExprFuncCall }

// ExprMember is `target.member`.
type ExprMember struct {
	base
	Target Node
	Member token.Token
	DotPos token.Position // position of the `.`, for completion-hint siting
}

func (*ExprMember) Kind() Kind { return KindExprMember }

// ExprNamespaceAccess is `A::B::x`.
type ExprNamespaceAccess struct {
	base
	Segments   []token.Token
	ColonPos   token.Position // position of the final `::`
}

func (*ExprNamespaceAccess) Kind() Kind { return KindExprNamespaceAccess }

type ExprAssign struct {
	base
	Target Node
	Op     token.Token
	Value  Node
}

func (*ExprAssign) Kind() Kind { return KindExprAssign }

type ExprBinary struct {
	base
	Left  Node
	Op    token.Token
	Right Node
}

func (*ExprBinary) Kind() Kind { return KindExprBinary }

type ExprUnary struct {
	base
	Op      token.Token
	Operand Node
}

func (*ExprUnary) Kind() Kind { return KindExprUnary }

// ExprPostOp is a postfix `++`/`--`.
type ExprPostOp struct {
	base
	Operand Node
	Op      token.Token
}

func (*ExprPostOp) Kind() Kind { return KindExprPostOp }

// ExprCast is `cast<T>(expr)`.
type ExprCast struct {
	base
	Type *TypeRef
	Expr Node
}

func (*ExprCast) Kind() Kind { return KindExprCast }

// ExprIndex is `target[index]` (opIndex).
type ExprIndex struct {
	base
	Target Node
	Index  Node
}

func (*ExprIndex) Kind() Kind { return KindExprIndex }

// NewRange is a convenience constructor used by the parser.
func NewRange(start, end token.Position) token.Range {
	return token.Range{Start: start, End: end}
}
