package ast

// Constructors for hand-built trees (tests, tools). Spans stay zero.

func Prim(kind string) *TypeExpr { return &TypeExpr{Kind: kind} }

func NamedT(name string, args ...*TypeExpr) *TypeExpr {
	return &TypeExpr{Kind: "named", Name: name, Args: args}
}

func PtrT(elem *TypeExpr) *TypeExpr { return &TypeExpr{Kind: "pointer", Elem: elem} }

func ArrayT(elem *TypeExpr, n uint32) *TypeExpr {
	return &TypeExpr{Kind: "array", Elem: elem, Len: n}
}

func Int(v int64) *Expr {
	return &Expr{Kind: ExprLiteral, Lit: &Literal{Kind: LitInt, Int: v}}
}

func Float(v float64) *Expr {
	return &Expr{Kind: ExprLiteral, Lit: &Literal{Kind: LitFloat, Float: v}}
}

func BoolLit(v bool) *Expr {
	return &Expr{Kind: ExprLiteral, Lit: &Literal{Kind: LitBool, Bool: v}}
}

func Str(v string) *Expr {
	return &Expr{Kind: ExprLiteral, Lit: &Literal{Kind: LitString, Str: v}}
}

func Ident(name string) *Expr { return &Expr{Kind: ExprIdent, Name: name} }

func Binary(op string, x, y *Expr) *Expr {
	return &Expr{Kind: ExprBinary, Op: op, X: x, Y: y}
}

func Unary(op string, x *Expr) *Expr { return &Expr{Kind: ExprUnary, Op: op, X: x} }

func Call(callee *Expr, args ...*Expr) *Expr {
	return &Expr{Kind: ExprCall, X: callee, Args: args}
}

func Member(base *Expr, name string) *Expr {
	return &Expr{Kind: ExprMember, X: base, Name: name}
}

func Fn(result *TypeExpr, body *Block, params ...*Param) *Expr {
	return &Expr{Kind: ExprFunc, Func: &FuncLit{Params: params, Result: result, Body: body}}
}

func P(name string, t *TypeExpr) *Param { return &Param{Name: name, Type: t} }

func ConstDecl(name string, value *Expr) *VarDecl {
	return &VarDecl{Mut: Const, Name: name, Value: value}
}

func Body(stmts ...*Stmt) *Block { return &Block{Stmts: stmts} }

func VarS(mut Mutability, name string, t *TypeExpr, value *Expr) *Stmt {
	return &Stmt{Kind: StmtVar, Var: &VarDecl{Mut: mut, Name: name, Type: t, Value: value}}
}

func AssignS(target, value *Expr) *Stmt {
	return &Stmt{Kind: StmtAssign, Target: target, Value: value}
}

func ExprS(x *Expr) *Stmt { return &Stmt{Kind: StmtExpr, Value: x} }

func ReturnS(x *Expr) *Stmt { return &Stmt{Kind: StmtReturn, Value: x} }

// IfS builds an if/elif/else chain from links in order.
func IfS(links ...*IfStmt) *Stmt {
	for i := 0; i+1 < len(links); i++ {
		links[i].Next = links[i+1]
	}
	return &Stmt{Kind: StmtIf, If: links[0]}
}

func Link(test *Expr, body *Block) *IfStmt { return &IfStmt{Test: test, Body: body} }

func WhileS(cond *Expr, body *Block) *Stmt {
	return &Stmt{Kind: StmtWhile, While: &WhileStmt{Cond: cond, Body: body}}
}

func MatchS(scrutinee *Expr, arms ...*MatchArm) *Stmt {
	return &Stmt{Kind: StmtMatch, Match: &MatchStmt{Scrutinee: scrutinee, Arms: arms}}
}

func Arm(body *Block, patterns ...*Pattern) *MatchArm {
	return &MatchArm{Patterns: patterns, Body: body}
}

func PVal(x *Expr) *Pattern { return &Pattern{Kind: PatValue, Value: x} }

func POr(x, y *Pattern) *Pattern { return &Pattern{Kind: PatOr, X: x, Y: y} }

func PAnd(x, y *Pattern) *Pattern { return &Pattern{Kind: PatAnd, X: x, Y: y} }

func StructLit(t *TypeExpr, fields ...*FieldInit) *Expr {
	return &Expr{Kind: ExprStructLit, Type: t, Fields: fields}
}

func FI(name string, value *Expr) *FieldInit { return &FieldInit{Name: name, Value: value} }

func BreakS() *Stmt { return &Stmt{Kind: StmtBreak} }

func ContinueS() *Stmt { return &Stmt{Kind: StmtContinue} }

func StructDef(name string, fields []*FieldDecl, methods ...*VarDecl) *VarDecl {
	return ConstDecl(name, &Expr{Kind: ExprStructType, Struct: &StructDecl{Fields: fields, Methods: methods}})
}

func F(name string, t *TypeExpr) *FieldDecl { return &FieldDecl{Name: name, Type: t} }

func EnumDef(name string, variants ...string) *VarDecl {
	return ConstDecl(name, &Expr{Kind: ExprEnumType, Enum: &EnumDecl{Variants: variants}})
}
