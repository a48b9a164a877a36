package ir

import (
	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/types"
)

// match rewrites a match statement into an if/elif/else chain and lowers
// that. Scrutinees other than names and literals are evaluated once into a
// hidden slot the arm tests read back.
func (fl *funcLowerer) match(st *ast.Stmt) {
	m := st.Match
	if m == nil || m.Scrutinee == nil {
		fl.report(diag.InputBadTree, st.Span, "match without scrutinee")
		return
	}
	fl.pushScope()
	defer fl.popScope()

	scrut := m.Scrutinee
	if !fl.stable(scrut) {
		t := fl.value(scrut, types.Type{})
		name := fl.hiddenName("match")
		id := fl.b.DeclareAlloc(AllocHiddenBuffer, t, name)
		fl.b.EmitStoreLocal(id)
		fl.bind(name, binding{kind: bindLocal, id: id, t: t, attr: AllocHiddenBuffer})
		scrut = &ast.Expr{Kind: ast.ExprIdent, Name: name, Span: scrut.Span}
	}

	var head, tail *ast.IfStmt
	for _, arm := range m.Arms {
		if arm == nil {
			continue
		}
		// арм без образцов становится else; ifChain проверит, что он последний
		link := &ast.IfStmt{Body: arm.Body, Span: arm.Span}
		if len(arm.Patterns) > 0 {
			link.Test = fl.armTest(scrut, arm.Patterns)
		}
		if head == nil {
			head = link
		} else {
			tail.Next = link
		}
		tail = link
	}
	fl.ifChain(head)
}

// stable reports expressions that can be re-evaluated in every arm test.
func (fl *funcLowerer) stable(e *ast.Expr) bool {
	switch e.Kind {
	case ast.ExprLiteral:
		return true
	case ast.ExprIdent:
		_, ok := fl.lookup(e.Name)
		return ok
	}
	return false
}

// armTest ORs the alternatives of one arm.
func (fl *funcLowerer) armTest(scrut *ast.Expr, pats []*ast.Pattern) *ast.Expr {
	var test *ast.Expr
	for _, p := range pats {
		t := fl.patternTest(scrut, p)
		if test == nil {
			test = t
			continue
		}
		test = &ast.Expr{Kind: ast.ExprBinary, Op: "||", X: test, Y: t, Span: t.Span}
	}
	return test
}

// patternTest builds the boolean test for one pattern tree. A value leaf
// compares the scrutinee for equality; or/and nodes combine the tests of
// both subtrees.
func (fl *funcLowerer) patternTest(scrut *ast.Expr, p *ast.Pattern) *ast.Expr {
	if p == nil {
		return falseLit()
	}
	switch p.Kind {
	case ast.PatValue:
		if p.Value == nil {
			break
		}
		return &ast.Expr{Kind: ast.ExprBinary, Op: "==", X: scrut, Y: p.Value, Span: p.Span}
	case ast.PatOr, ast.PatAnd:
		if p.X == nil || p.Y == nil {
			break
		}
		op := "||"
		if p.Kind == ast.PatAnd {
			op = "&&"
		}
		return &ast.Expr{
			Kind: ast.ExprBinary,
			Op:   op,
			X:    fl.patternTest(scrut, p.X),
			Y:    fl.patternTest(scrut, p.Y),
			Span: p.Span,
		}
	}
	fl.report(diag.InputBadTree, p.Span, "malformed %q pattern", p.Kind)
	return falseLit()
}

func falseLit() *ast.Expr {
	return &ast.Expr{Kind: ast.ExprLiteral, Lit: &ast.Literal{Kind: ast.LitBool}}
}
