package ir

import (
	"fmt"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/types"
)

func (fl *funcLowerer) block(blk *ast.Block) {
	if blk == nil {
		return
	}
	fl.pushScope()
	for _, st := range blk.Stmts {
		fl.stmt(st)
	}
	fl.popScope()
}

func (fl *funcLowerer) stmt(st *ast.Stmt) {
	if st == nil {
		return
	}
	switch st.Kind {
	case ast.StmtVar:
		fl.varDecl(st.Var)
	case ast.StmtAssign:
		fl.assign(st)
	case ast.StmtExpr:
		t := fl.expr(st.Value, types.Type{})
		if !t.IsVoid() {
			fl.b.EmitPop(t)
		}
	case ast.StmtReturn:
		fl.ret(st)
	case ast.StmtIf:
		fl.ifChain(st.If)
	case ast.StmtWhile:
		fl.while(st.While)
	case ast.StmtBreak:
		if len(fl.loops) == 0 {
			fl.report(diag.SemaBreakOutsideLoop, st.Span, "break outside of a loop")
			return
		}
		fl.b.EmitJump(fl.loops[len(fl.loops)-1].end)
	case ast.StmtContinue:
		if len(fl.loops) == 0 {
			fl.report(diag.SemaContinueOutsideLoop, st.Span, "continue outside of a loop")
			return
		}
		fl.b.EmitJump(fl.loops[len(fl.loops)-1].head)
	case ast.StmtMatch:
		fl.match(st)
	case ast.StmtBlock:
		fl.block(st.Block)
	default:
		fl.report(diag.InputUnknownNode, st.Span, "unknown statement kind %q", st.Kind)
	}
}

func (fl *funcLowerer) varDecl(d *ast.VarDecl) {
	if d == nil {
		return
	}
	auto := isAuto(d.Type)
	switch d.Mut {
	case ast.Const:
		// константа живёт только в области видимости, слота нет
		lit, ok := ast.ConstLiteral(d.Value)
		if !ok {
			fl.report(diag.SemaConstNotConstant, d.Span, "initializer of constant '%s' is not a constant", d.Name)
			fl.bind(d.Name, binding{kind: bindPoison})
			return
		}
		var want types.Type
		if !auto {
			want = fl.resolveTypeExpr(d.Type)
		}
		_, t := literalConst(lit, want)
		fl.bind(d.Name, binding{kind: bindConst, t: t, lit: lit})
		return
	case ast.Let, ast.Mut:
	default:
		fl.report(diag.InputBadTree, d.Span, "unknown mutability %q of '%s'", d.Mut, d.Name)
		fl.bind(d.Name, binding{kind: bindPoison})
		return
	}

	attr := AllocMutable
	if d.Mut == ast.Let {
		attr = AllocImmutable
	}
	if d.Value == nil {
		switch {
		case d.Mut == ast.Let:
			fl.report(diag.SemaImmutableUninit, d.Span, "Immutable variable needs to be initialized: '%s'", d.Name)
			fl.bind(d.Name, binding{kind: bindPoison})
		case auto:
			fl.report(diag.SemaTypeNotationNeeded, d.Span, "type notation needed for '%s'", d.Name)
			fl.bind(d.Name, binding{kind: bindPoison})
		default:
			t := fl.resolveTypeExpr(d.Type)
			id := fl.b.DeclareAlloc(attr, t, d.Name)
			fl.b.EmitLoadZero(t)
			fl.b.EmitStoreLocal(id)
			fl.bind(d.Name, binding{kind: bindLocal, id: id, t: t, attr: attr})
		}
		return
	}

	var want types.Type
	if !auto {
		want = fl.resolveTypeExpr(d.Type)
	}
	vt := fl.value(d.Value, want)
	t := want
	if auto {
		t = vt
	} else {
		fl.expect(diag.SemaAssignType, d.Span, vt, want, "initializer of '"+d.Name+"'")
	}
	id := fl.b.DeclareAlloc(attr, t, d.Name)
	fl.b.EmitStoreLocal(id)
	fl.bind(d.Name, binding{kind: bindLocal, id: id, t: t, attr: attr})
}

func (fl *funcLowerer) assign(st *ast.Stmt) {
	target := st.Target
	if target == nil {
		fl.report(diag.InputBadTree, st.Span, "assignment without target")
		return
	}
	switch target.Kind {
	case ast.ExprIdent:
		bnd, ok := fl.lookup(target.Name)
		if !ok {
			if sym, found := fl.table.Lookup(target.Name); found {
				fl.report(diag.SemaConstAssign, target.Span, "cannot assign to %s '%s'", sym.Kind, target.Name)
			} else {
				fl.report(diag.SemaUndeclaredName, target.Span, "undeclared identifier '%s'", target.Name)
			}
			return
		}
		switch {
		case bnd.kind == bindPoison:
			return
		case bnd.kind == bindConst:
			fl.report(diag.SemaConstAssign, target.Span, "cannot assign to constant '%s'", target.Name)
			return
		case bnd.attr != AllocMutable:
			fl.report(diag.SemaImmutableAssign, target.Span, "cannot assign to immutable variable '%s'", target.Name)
			return
		}
		fl.expect(diag.SemaAssignType, st.Span, fl.value(st.Value, bnd.t), bnd.t, "assignment to '"+target.Name+"'")
		fl.b.EmitStoreLocal(bnd.id)
	case ast.ExprMember:
		if fl.temporaryRoot(target) {
			fl.report(diag.SemaInvalidAssignTarget, target.Span, "cannot assign to a field of a temporary value")
			return
		}
		if name, ok := fl.immutableRoot(target); ok {
			fl.report(diag.SemaImmutableAssign, target.Span, "cannot assign to a field of immutable variable '%s'", name)
			return
		}
		bt := fl.value(target.X, types.Type{})
		ref, ok := fl.fieldRef(bt, target)
		if !ok {
			fl.b.EmitPop(bt)
			return
		}
		ft := fieldType(ref)
		fl.expect(diag.SemaAssignType, st.Span, fl.value(st.Value, ft), ft, "assignment to field '"+target.Name+"'")
		fl.b.EmitStoreField(ref)
	default:
		fl.report(diag.SemaInvalidAssignTarget, target.Span, "cannot assign to this expression")
	}
}

// temporaryRoot reports a field chain that ends in a call result or a
// literal without passing through a pointer; such a store has no place.
func (fl *funcLowerer) temporaryRoot(e *ast.Expr) bool {
	for e.Kind == ast.ExprMember && e.X != nil {
		if t, ok := fl.typeOf(e.X); ok && t.Kind == types.KindPointer {
			return false
		}
		e = e.X
	}
	return e.Kind != ast.ExprIdent
}

// immutableRoot reports a field chain rooted at an immutable local that is
// held by value all the way down.
func (fl *funcLowerer) immutableRoot(e *ast.Expr) (string, bool) {
	for e.Kind == ast.ExprMember && e.X != nil {
		if t, ok := fl.typeOf(e.X); ok && t.Kind == types.KindPointer {
			return "", false
		}
		e = e.X
	}
	if e.Kind != ast.ExprIdent {
		return "", false
	}
	bnd, ok := fl.lookup(e.Name)
	if !ok || bnd.kind != bindLocal || bnd.attr == AllocMutable {
		return "", false
	}
	return e.Name, true
}

func (fl *funcLowerer) ret(st *ast.Stmt) {
	if st.Value == nil {
		if !fl.result.IsVoid() {
			fl.report(diag.SemaReturnValueMismatch, st.Span, "'%s' must return a value of type %s", fl.sym.Name, fl.result)
		}
		fl.b.EmitReturn(types.Void)
		return
	}
	if fl.result.IsVoid() {
		fl.report(diag.SemaReturnValueMismatch, st.Span, "'%s' returns void, but a value is returned", fl.sym.Name)
		t := fl.expr(st.Value, types.Type{})
		if !t.IsVoid() {
			fl.b.EmitPop(t)
		}
		fl.b.EmitReturn(types.Void)
		return
	}
	rt := fl.value(st.Value, fl.result)
	fl.expect(diag.SemaReturnValueMismatch, st.Span, rt, fl.result, "return value of '"+fl.sym.Name+"'")
	fl.b.EmitReturn(fl.result)
}

// ifChain linearises an if/elif/else chain. Every link jumps to the shared
// end label after its body; a failed test jumps to the next link's label,
// or to the end label after the last link.
func (fl *funcLowerer) ifChain(head *ast.IfStmt) {
	if head == nil {
		return
	}
	end := fl.b.NewLabel()
	for link := head; link != nil; link = link.Next {
		hasNext := link.Next != nil
		var next LabelID
		if hasNext {
			next = fl.b.NewLabel()
		}
		if link.Test != nil {
			fl.expect(diag.SemaOperandType, spanOf(link.Test), fl.value(link.Test, types.Bool), types.Bool, "condition")
			target := end
			if hasNext {
				target = next
			}
			fl.b.EmitJumpIfFalse(target)
		} else if hasNext {
			fl.report(diag.SemaElseNotLast, link.Span, "else branch must be the last one")
		}
		fl.block(link.Body)
		fl.b.EmitJump(end)
		if hasNext {
			fl.b.Locate(next)
		}
	}
	fl.b.Locate(end)
}

func (fl *funcLowerer) while(w *ast.WhileStmt) {
	if w == nil {
		return
	}
	loop := loopLabels{head: fl.b.NewLabel(), end: fl.b.NewLabel()}
	fl.b.Locate(loop.head)
	fl.expect(diag.SemaOperandType, spanOf(w.Cond), fl.value(w.Cond, types.Bool), types.Bool, "loop condition")
	fl.b.EmitJumpIfFalse(loop.end)
	fl.loops = append(fl.loops, loop)
	fl.block(w.Body)
	fl.loops = fl.loops[:len(fl.loops)-1]
	fl.b.EmitJump(loop.head)
	fl.b.Locate(loop.end)
}

// hiddenName cannot clash with a user identifier.
func (fl *funcLowerer) hiddenName(kind string) string {
	fl.hidden++
	return fmt.Sprintf("%s#%d", kind, fl.hidden)
}
