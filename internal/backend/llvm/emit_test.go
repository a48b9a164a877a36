package llvm

import (
	"strings"
	"testing"

	llir "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/ir"
	"ember/internal/sema"
	"ember/internal/source"
	"ember/internal/symbols"
	"ember/internal/types"
)

func fnDecl(name string, result *ast.TypeExpr, body *ast.Block, params ...*ast.Param) *ast.VarDecl {
	return ast.ConstDecl(name, ast.Fn(result, body, params...))
}

func build(t *testing.T, library bool, decls ...*ast.VarDecl) *ir.Module {
	t.Helper()
	bag := diag.NewBag(32)
	rep := diag.BagReporter{Bag: bag}
	ns := &ast.Namespace{Name: "demo", Decls: decls}
	table := symbols.NewTable(0)
	sema.Install(ns, table, rep, sema.InstallOptions{Library: library})
	res := sema.NewResolver(table, rep)
	res.ResolveAll()
	m, _ := ir.Lower(ns, table, res, rep, ir.LowerOptions{})
	if bag.HasErrors() {
		t.Fatalf("diagnostics: %v", bag.Items())
	}
	return m
}

func emit(t *testing.T, m *ir.Module) *llir.Module {
	t.Helper()
	mod, err := Emit(m, Options{})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	return mod
}

func findFunc(t *testing.T, mod *llir.Module, name string) *llir.Func {
	t.Helper()
	for _, f := range mod.Funcs {
		if f.Name() == name {
			return f
		}
	}
	t.Fatalf("no function @%s", name)
	return nil
}

func countInsts[T any](f *llir.Func) int {
	n := 0
	for _, b := range f.Blocks {
		for _, inst := range b.Insts {
			if _, ok := inst.(T); ok {
				n++
			}
		}
	}
	return n
}

func countTerms[T any](f *llir.Func) int {
	n := 0
	for _, b := range f.Blocks {
		if _, ok := b.Term.(T); ok {
			n++
		}
	}
	return n
}

func TestEmitIfElseBlocks(t *testing.T) {
	body := ast.Body(ast.IfS(
		ast.Link(ast.BoolLit(true), ast.Body(ast.ReturnS(nil))),
		ast.Link(nil, ast.Body(ast.ReturnS(nil))),
	))
	mod := emit(t, build(t, false, fnDecl("main", nil, body)))
	f := findFunc(t, mod, "ember.main")
	if got := countTerms[*llir.TermCondBr](f); got != 1 {
		t.Fatalf("cond branches = %d, want 1", got)
	}
	if got := countTerms[*llir.TermRet](f); got != 3 {
		t.Fatalf("returns = %d, want 3 (two arms and the end)", got)
	}
	for _, b := range f.Blocks {
		if b.Term == nil {
			t.Fatalf("block %s is not terminated", b.Name())
		}
	}
	main := findFunc(t, mod, "main")
	if !lltypes.Equal(main.Sig.RetType, lltypes.I32) {
		t.Fatalf("main shim returns %s", main.Sig.RetType)
	}
}

func TestEmitLibraryHasNoShim(t *testing.T) {
	mod := emit(t, build(t, true, fnDecl("helper", ast.Prim("i64"), ast.Body(ast.ReturnS(ast.Int(-5))))))
	for _, f := range mod.Funcs {
		if f.Name() == "main" {
			t.Fatalf("library must not get a main shim")
		}
	}
	f := findFunc(t, mod, "ember.helper")
	if got := countInsts[*llir.InstSub](f); got != 1 {
		t.Fatalf("negative constant must be a subtraction from zero, got %d subs", got)
	}
	sub := f.Blocks[0].Insts[0].(*llir.InstSub)
	if x, ok := sub.X.(*constant.Int); !ok || x.X.Sign() != 0 {
		t.Fatalf("sub lhs = %v, want 0", sub.X)
	}
	if y, ok := sub.Y.(*constant.Int); !ok || y.X.Int64() != 5 {
		t.Fatalf("sub rhs = %v, want 5", sub.Y)
	}
}

func TestImmutableSlotsStayInRegisters(t *testing.T) {
	body := ast.Body(
		ast.VarS(ast.Let, "x", nil, ast.Int(1)),
		ast.VarS(ast.Mut, "y", nil, ast.Ident("x")),
		ast.AssignS(ast.Ident("y"), ast.Binary("+", ast.Ident("y"), ast.Ident("a"))),
		ast.ReturnS(ast.Ident("y")),
	)
	mod := emit(t, build(t, true, fnDecl("f", ast.Prim("i32"), body, ast.P("a", ast.Prim("i32")))))
	f := findFunc(t, mod, "ember.f")
	if got := countInsts[*llir.InstAlloca](f); got != 1 {
		t.Fatalf("allocas = %d, want 1 (only the mutable y)", got)
	}
	if got := countInsts[*llir.InstLoad](f); got != 2 {
		t.Fatalf("loads = %d, want 2", got)
	}
	if got := countInsts[*llir.InstAdd](f); got != 1 {
		t.Fatalf("adds = %d, want 1", got)
	}
}

func TestEmitStructPlaces(t *testing.T) {
	pair := ast.StructDef("Pair", []*ast.FieldDecl{ast.F("a", ast.Prim("i8")), ast.F("b", ast.Prim("i32"))})
	pair.Value.Struct.Packed = true
	outer := ast.StructDef("Outer", []*ast.FieldDecl{ast.F("p", ast.NamedT("Pair")), ast.F("next", ast.PtrT(ast.NamedT("Outer")))})
	body := ast.Body(
		ast.VarS(ast.Mut, "p", nil, ast.StructLit(ast.NamedT("Pair"), ast.FI("a", ast.Int(1)), ast.FI("b", ast.Int(2)))),
		ast.AssignS(ast.Member(ast.Ident("p"), "b"), ast.Int(3)),
		ast.ReturnS(ast.Member(ast.Ident("p"), "b")),
	)
	mod := emit(t, build(t, true, pair, outer, fnDecl("f", ast.Prim("i32"), body)))

	var packed *lltypes.StructType
	for _, td := range mod.TypeDefs {
		if st, ok := td.(*lltypes.StructType); ok && st.Name() == "ember.Pair" {
			packed = st
		}
	}
	if packed == nil || !packed.Packed || len(packed.Fields) != 2 {
		t.Fatalf("Pair must be a packed named struct, got %v", packed)
	}
	f := findFunc(t, mod, "ember.f")
	// литерал и переменная p
	if got := countInsts[*llir.InstAlloca](f); got != 2 {
		t.Fatalf("allocas = %d, want 2", got)
	}
	// два поля литерала, присваивание и чтение p.b
	if got := countInsts[*llir.InstGetElementPtr](f); got != 4 {
		t.Fatalf("geps = %d, want 4", got)
	}
	if got := countInsts[*llir.InstExtractValue](f); got != 0 {
		t.Fatalf("field access on places must not extract values")
	}
	if !strings.Contains(mod.String(), "<{ i8, i32 }>") {
		t.Fatalf("packed struct body missing:\n%s", mod)
	}
}

func TestEmitInstanceAndComputedCalls(t *testing.T) {
	obj := ast.StructDef("Obj", []*ast.FieldDecl{ast.F("v", ast.Prim("i32"))},
		ast.ConstDecl("method", ast.Fn(ast.Prim("i32"),
			ast.Body(ast.ReturnS(ast.Binary("+", ast.Member(ast.Ident("self"), "v"), ast.Ident("a")))),
			ast.P("self", ast.PtrT(ast.NamedT("Obj"))), ast.P("a", ast.Prim("i32")), ast.P("b", ast.Prim("i32")),
		)),
	)
	puts := fnDecl("puts", ast.Prim("i32"), nil, ast.P("s", ast.Prim("string")))
	fnT := &ast.TypeExpr{Kind: "func", Params: []*ast.TypeExpr{ast.Prim("string")}, Result: ast.Prim("i32")}
	body := ast.Body(
		ast.VarS(ast.Let, "say", fnT, ast.Ident("puts")),
		ast.ExprS(ast.Call(ast.Ident("say"), ast.Str("hi"))),
		ast.ReturnS(ast.Call(ast.Member(ast.Ident("o"), "method"), ast.Int(1), ast.Int(2))),
	)
	mod := emit(t, build(t, true, obj, puts, fnDecl("run", ast.Prim("i32"), body, ast.P("o", ast.PtrT(ast.NamedT("Obj"))))))

	ext := findFunc(t, mod, "puts")
	if len(ext.Blocks) != 0 {
		t.Fatalf("extern must stay a declaration")
	}
	method := findFunc(t, mod, "ember.Obj.method")
	run := findFunc(t, mod, "ember.run")
	var calls []*llir.InstCall
	for _, b := range run.Blocks {
		for _, inst := range b.Insts {
			if c, ok := inst.(*llir.InstCall); ok {
				calls = append(calls, c)
			}
		}
	}
	if len(calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(calls))
	}
	if calls[0].Callee != ext || len(calls[0].Args) != 1 {
		t.Fatalf("computed call must go through the bound extern, got %v", calls[0].Callee)
	}
	if calls[1].Callee != method || len(calls[1].Args) != 3 || calls[1].Args[0] != run.Params[0] {
		t.Fatalf("instance call must pass the receiver first")
	}
	if len(mod.Globals) != 1 {
		t.Fatalf("string literal must become one global, got %d", len(mod.Globals))
	}
}

func TestEmitLoopAndMatch(t *testing.T) {
	loop := ast.Body(
		ast.VarS(ast.Mut, "i", nil, ast.Int(0)),
		ast.WhileS(ast.Binary("<", ast.Ident("i"), ast.Int(10)), ast.Body(
			ast.AssignS(ast.Ident("i"), ast.Binary("+", ast.Ident("i"), ast.Int(1))),
		)),
		ast.MatchS(ast.Binary("%", ast.Ident("i"), ast.Int(3)),
			ast.Arm(ast.Body(ast.ReturnS(ast.Int(1))), ast.POr(ast.PVal(ast.Int(0)), ast.PVal(ast.Int(1)))),
			ast.Arm(ast.Body(ast.ReturnS(ast.Int(2)))),
		),
		ast.ReturnS(ast.Int(0)),
	)
	mod := emit(t, build(t, true, fnDecl("f", ast.Prim("i32"), loop)))
	f := findFunc(t, mod, "ember.f")
	if got := countTerms[*llir.TermCondBr](f); got != 2 {
		t.Fatalf("cond branches = %d, want 2 (loop head and first arm)", got)
	}
	if got := countInsts[*llir.InstSRem](f); got != 1 {
		t.Fatalf("scrutinee must be evaluated once, got %d srem", got)
	}
	if got := countInsts[*llir.InstOr](f); got != 1 {
		t.Fatalf("or-pattern must fold into one or, got %d", got)
	}
}

func TestEmitUnsignedAndFloatOps(t *testing.T) {
	body := ast.Body(ast.ReturnS(ast.Binary("<", ast.Binary("/", ast.Ident("a"), ast.Ident("b")), ast.Ident("b"))))
	mod := emit(t, build(t, true,
		fnDecl("u", ast.Prim("bool"), body, ast.P("a", ast.Prim("u32")), ast.P("b", ast.Prim("u32"))),
		fnDecl("g", ast.Prim("f64"), ast.Body(ast.ReturnS(ast.Binary("%", ast.Ident("x"), ast.Float(2)))), ast.P("x", ast.Prim("f64"))),
	))
	u := findFunc(t, mod, "ember.u")
	if countInsts[*llir.InstUDiv](u) != 1 || countInsts[*llir.InstICmp](u) != 1 {
		t.Fatalf("unsigned ops expected in:\n%s", u)
	}
	if countInsts[*llir.InstFRem](findFunc(t, mod, "ember.g")) != 1 {
		t.Fatalf("float modulo must be frem")
	}
}

func TestEmitUnhandledKind(t *testing.T) {
	b := ir.NewFuncBuilder("bad", types.Void, source.Span{})
	b.Emit(ir.Instr{Kind: ir.InstrKind(200), Type: types.Void})
	m := &ir.Module{Funcs: []*ir.Func{b.Build()}}
	_, err := Emit(m, Options{})
	if err == nil || !strings.Contains(err.Error(), "in llvm backend") {
		t.Fatalf("expected an implement error, got %v", err)
	}
}

func TestVerifyReportsProblems(t *testing.T) {
	mod := llir.NewModule()
	callee := mod.NewFunc("two", lltypes.I32, llir.NewParam("a", lltypes.I32), llir.NewParam("b", lltypes.I32))
	callee.NewBlock("entry").NewRet(constant.NewInt(lltypes.I32, 0))

	f := mod.NewFunc("f", lltypes.I32)
	entry := f.NewBlock("entry")
	entry.NewCall(callee, constant.NewInt(lltypes.I32, 1))
	entry.NewRet(nil)
	f.NewBlock("open")
	mod.NewFunc("two", lltypes.Void)

	bag := diag.NewBag(16)
	err := Verify(mod, diag.BagReporter{Bag: bag})
	if err == nil {
		t.Fatalf("expected verification errors")
	}
	for _, want := range []string{"duplicate function @two", "no terminator", "passes 1 arguments", "returns void"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error lacks %q: %v", want, err)
		}
	}
	if bag.Len() != 4 {
		t.Fatalf("diagnostics = %d, want 4", bag.Len())
	}
	for _, d := range bag.Items() {
		if d.Code != diag.BackendVerifyFailed {
			t.Fatalf("unexpected code %s", d.Code)
		}
	}
}

func TestVerifyForeignBranch(t *testing.T) {
	mod := llir.NewModule()
	g := mod.NewFunc("g", lltypes.Void)
	other := g.NewBlock("other")
	other.NewRet(nil)
	f := mod.NewFunc("f", lltypes.Void)
	f.NewBlock("entry").NewBr(other)
	if err := Verify(mod, nil); err == nil || !strings.Contains(err.Error(), "outside the function") {
		t.Fatalf("expected foreign branch error, got %v", err)
	}
}

func TestVerifyOperandTypes(t *testing.T) {
	mod := llir.NewModule()
	g := mod.NewFunc("g", lltypes.I32, llir.NewParam("x", lltypes.I32))
	g.NewBlock("entry").NewRet(constant.NewInt(lltypes.I32, 0))

	f := mod.NewFunc("f", lltypes.Void, llir.NewParam("a", lltypes.I64), llir.NewParam("b", lltypes.I32))
	entry := f.NewBlock("entry")
	entry.NewAdd(f.Params[0], f.Params[1])
	entry.NewICmp(enum.IPredEQ, f.Params[0], f.Params[1])
	entry.NewCall(g, constant.True)
	slot := entry.NewAlloca(lltypes.I32)
	entry.NewStore(f.Params[0], slot)
	done := f.NewBlock("done")
	done.NewRet(nil)
	entry.NewCondBr(f.Params[1], done, done)

	bag := diag.NewBag(16)
	err := Verify(mod, diag.BagReporter{Bag: bag})
	if err == nil {
		t.Fatalf("expected verification errors")
	}
	for _, want := range []string{
		"add of i64 and i32",
		"icmp of i64 and i32",
		"argument 1 of a call is i1, want i32",
		"store of i64 through i32*",
		"branches on i32, want i1",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error lacks %q: %v", want, err)
		}
	}
	if bag.Len() != 5 {
		t.Fatalf("diagnostics = %d, want 5", bag.Len())
	}
}

func TestFieldReadBeforeCall(t *testing.T) {
	s := ast.StructDef("S", []*ast.FieldDecl{ast.F("x", ast.Prim("i32"))})
	bump := fnDecl("bump", ast.Prim("i32"), ast.Body(
		ast.AssignS(ast.Member(ast.Ident("p"), "x"), ast.Int(5)),
		ast.ReturnS(ast.Int(0)),
	), ast.P("p", ast.PtrT(ast.NamedT("S"))))
	run := fnDecl("run", ast.Prim("i32"), ast.Body(
		ast.ReturnS(ast.Binary("+", ast.Member(ast.Ident("p"), "x"), ast.Call(ast.Ident("bump"), ast.Ident("p")))),
	), ast.P("p", ast.PtrT(ast.NamedT("S"))))
	f := findFunc(t, emit(t, build(t, true, s, bump, run)), "ember.run")

	read, call := -1, -1
	pos := 0
	for _, b := range f.Blocks {
		for _, inst := range b.Insts {
			switch inst := inst.(type) {
			case *llir.InstLoad:
				if read < 0 && lltypes.Equal(inst.Type(), lltypes.I32) {
					read = pos
				}
			case *llir.InstCall:
				if call < 0 {
					call = pos
				}
			}
			pos++
		}
	}
	if read < 0 || call < 0 || read > call {
		t.Fatalf("field load at %d, call at %d:\n%s", read, call, f.LLString())
	}
}
