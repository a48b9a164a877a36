package ast

import (
	"ember/internal/source"
)

// Namespace is one compilation unit.
type Namespace struct {
	Name   string     `json:"name"`
	Source string     `json:"source,omitempty"` // путь к исходнику, только для диагностик
	Decls  []*VarDecl `json:"decls"`
}

// Mutability of a declaration.
type Mutability string

const (
	Let   Mutability = "let"
	Mut   Mutability = "mut"
	Const Mutability = "const"
)

// VarDecl is `let|mut|const name[: type] [= value]`. At top level every
// function, struct, enum and constant is a const VarDecl.
type VarDecl struct {
	Mut   Mutability  `json:"mut"`
	Name  string      `json:"name"`
	Type  *TypeExpr   `json:"type,omitempty"` // nil значит auto
	Value *Expr       `json:"value,omitempty"`
	Span  source.Span `json:"span"`
}

// TypeExpr is a type annotation as written.
// Kind is a primitive name (i32, bool, ...) or one of
// pointer, array, option, errunion, named, func, auto.
type TypeExpr struct {
	Kind   string      `json:"kind"`
	Elem   *TypeExpr   `json:"elem,omitempty"`
	Err    *TypeExpr   `json:"err,omitempty"`
	Len    uint32      `json:"len,omitempty"`
	Name   string      `json:"name,omitempty"`
	Args   []*TypeExpr `json:"args,omitempty"`
	Params []*TypeExpr `json:"params,omitempty"`
	Result *TypeExpr   `json:"result,omitempty"`
	Span   source.Span `json:"span"`
}

type ExprKind string

const (
	ExprLiteral    ExprKind = "literal"
	ExprIdent      ExprKind = "ident"
	ExprUnary      ExprKind = "unary"
	ExprBinary     ExprKind = "binary"
	ExprCall       ExprKind = "call"
	ExprMember     ExprKind = "member"
	ExprStructLit  ExprKind = "struct_lit"
	ExprFunc       ExprKind = "fn"
	ExprStructType ExprKind = "struct_type"
	ExprEnumType   ExprKind = "enum_type"
)

// Expr payloads by kind:
//
//	literal      Lit
//	ident        Name
//	unary        Op, X
//	binary       Op, X, Y
//	call         X (callee), Args
//	member       X (base), Name
//	struct_lit   Type, Fields
//	fn           Func
//	struct_type  Struct
//	enum_type    Enum
type Expr struct {
	Kind ExprKind    `json:"kind"`
	Span source.Span `json:"span"`

	Lit    *Literal     `json:"lit,omitempty"`
	Name   string       `json:"name,omitempty"`
	Op     string       `json:"op,omitempty"`
	X      *Expr        `json:"x,omitempty"`
	Y      *Expr        `json:"y,omitempty"`
	Args   []*Expr      `json:"args,omitempty"`
	Type   *TypeExpr    `json:"type,omitempty"`
	Fields []*FieldInit `json:"fields,omitempty"`
	Func   *FuncLit     `json:"func,omitempty"`
	Struct *StructDecl  `json:"struct,omitempty"`
	Enum   *EnumDecl    `json:"enum,omitempty"`
}

type LitKind string

const (
	LitInt    LitKind = "int"
	LitFloat  LitKind = "float"
	LitBool   LitKind = "bool"
	LitChar   LitKind = "char"
	LitString LitKind = "string"
)

type Literal struct {
	Kind  LitKind `json:"kind"`
	Int   int64   `json:"int,omitempty"`
	Float float64 `json:"float,omitempty"`
	Bool  bool    `json:"bool,omitempty"`
	Char  rune    `json:"char,omitempty"`
	Str   string  `json:"str,omitempty"`
}

type FieldInit struct {
	Name  string      `json:"name"`
	Value *Expr       `json:"value"`
	Span  source.Span `json:"span"`
}

// FuncLit is `fn(params): result { body }`; a nil Body declares an extern.
type FuncLit struct {
	Params []*Param  `json:"params,omitempty"`
	Result *TypeExpr `json:"result,omitempty"` // nil значит void
	Body   *Block    `json:"body,omitempty"`
}

type Param struct {
	Name string      `json:"name"`
	Type *TypeExpr   `json:"type"`
	Span source.Span `json:"span"`
}

// StructDecl is a struct type literal. Methods are const declarations of
// function literals and become `Struct.method`.
type StructDecl struct {
	Fields     []*FieldDecl `json:"fields,omitempty"`
	Packed     bool         `json:"packed,omitempty"`
	TypeParams []string     `json:"type_params,omitempty"`
	Methods    []*VarDecl   `json:"methods,omitempty"`
}

type FieldDecl struct {
	Name string      `json:"name"`
	Type *TypeExpr   `json:"type"`
	Span source.Span `json:"span"`
}

type EnumDecl struct {
	Variants []string `json:"variants"`
}

type StmtKind string

const (
	StmtVar      StmtKind = "var"
	StmtAssign   StmtKind = "assign"
	StmtExpr     StmtKind = "expr"
	StmtReturn   StmtKind = "return"
	StmtIf       StmtKind = "if"
	StmtWhile    StmtKind = "while"
	StmtBreak    StmtKind = "break"
	StmtContinue StmtKind = "continue"
	StmtMatch    StmtKind = "match"
	StmtBlock    StmtKind = "block"
)

// Stmt payloads by kind:
//
//	var        Var
//	assign     Target, Value
//	expr       Value
//	return     Value (nil for bare return)
//	if         If
//	while      While
//	match      Match
//	block      Block
type Stmt struct {
	Kind StmtKind    `json:"kind"`
	Span source.Span `json:"span"`

	Var    *VarDecl   `json:"var,omitempty"`
	Target *Expr      `json:"target,omitempty"`
	Value  *Expr      `json:"value,omitempty"`
	If     *IfStmt    `json:"if,omitempty"`
	While  *WhileStmt `json:"while,omitempty"`
	Match  *MatchStmt `json:"match,omitempty"`
	Block  *Block     `json:"block,omitempty"`
}

type Block struct {
	Stmts []*Stmt     `json:"stmts"`
	Span  source.Span `json:"span"`
}

// IfStmt is one link of an if/elif/else chain. Test is nil only for a
// trailing else.
type IfStmt struct {
	Test *Expr       `json:"test,omitempty"`
	Body *Block      `json:"body"`
	Next *IfStmt     `json:"next,omitempty"`
	Span source.Span `json:"span"`
}

type WhileStmt struct {
	Cond *Expr  `json:"cond"`
	Body *Block `json:"body"`
}

type MatchStmt struct {
	Scrutinee *Expr       `json:"scrutinee"`
	Arms      []*MatchArm `json:"arms"`
}

// MatchArm lists alternative patterns; an arm with none is the catch-all.
type MatchArm struct {
	Patterns []*Pattern  `json:"patterns,omitempty"`
	Body     *Block      `json:"body"`
	Span     source.Span `json:"span"`
}

type PatternKind string

const (
	PatValue PatternKind = "value"
	PatOr    PatternKind = "or"
	PatAnd   PatternKind = "and"
)

// Pattern is a value (literal, constant or enum member) compared to the
// scrutinee, or a boolean combination of two patterns.
type Pattern struct {
	Kind  PatternKind `json:"kind"`
	Value *Expr       `json:"value,omitempty"`
	X     *Pattern    `json:"x,omitempty"`
	Y     *Pattern    `json:"y,omitempty"`
	Span  source.Span `json:"span"`
}
