package ir_test

import (
	"strings"
	"testing"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/ir"
	"ember/internal/sema"
	"ember/internal/symbols"
	"ember/internal/testkit"
	"ember/internal/types"
)

func fnDecl(name string, result *ast.TypeExpr, body *ast.Block, params ...*ast.Param) *ast.VarDecl {
	return ast.ConstDecl(name, ast.Fn(result, body, params...))
}

func lower(t *testing.T, decls ...*ast.VarDecl) (*ir.Module, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(64)
	rep := diag.BagReporter{Bag: bag}
	ns := &ast.Namespace{Name: "test", Decls: decls}
	table := symbols.NewTable(0)
	if n := sema.Install(ns, table, rep, sema.InstallOptions{Library: true}); n != 0 {
		t.Fatalf("install failed: %v", bag.Items())
	}
	res := sema.NewResolver(table, rep)
	res.ResolveAll()
	if bag.HasErrors() {
		t.Fatalf("resolve failed: %v", bag.Items())
	}
	m, _ := ir.Lower(ns, table, res, rep, ir.LowerOptions{})
	return m, bag
}

// lowerClean lowers and requires a diagnostic-free, valid module.
func lowerClean(t *testing.T, decls ...*ast.VarDecl) *ir.Module {
	t.Helper()
	m, bag := lower(t, decls...)
	if bag.HasErrors() {
		for _, d := range bag.Items() {
			t.Errorf("%s: %s", d.Code.ID(), d.Message)
		}
		t.FailNow()
	}
	if err := ir.Validate(m); err != nil {
		t.Fatalf("validate: %v", err)
	}
	for _, f := range m.Funcs {
		if f.Extern {
			continue
		}
		if err := testkit.CheckLabels(f); err != nil {
			t.Fatalf("%s: %v", f.Name, err)
		}
	}
	return m
}

func mustFunc(t *testing.T, m *ir.Module, name string) *ir.Func {
	t.Helper()
	f, ok := m.Func(name)
	if !ok {
		t.Fatalf("function %s not lowered", name)
	}
	return f
}

func diagCodes(bag *diag.Bag) []diag.Code {
	out := make([]diag.Code, 0, bag.Len())
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func sameKinds(got, want []ir.InstrKind) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestIfElseLowering(t *testing.T) {
	// const main = fn(): void { if true { return; } else { return; } }
	body := ast.Body(ast.IfS(
		ast.Link(ast.BoolLit(true), ast.Body(ast.ReturnS(nil))),
		ast.Link(nil, ast.Body(ast.ReturnS(nil))),
	))
	m := lowerClean(t, fnDecl("main", ast.Prim("void"), body))
	f := mustFunc(t, m, "main")

	want := []ir.InstrKind{
		ir.InstrLoadConst,
		ir.InstrJumpIfFalse,
		ir.InstrReturn,
		ir.InstrJump,
		ir.InstrLabel,
		ir.InstrReturn,
		ir.InstrJump,
		ir.InstrLabel,
		ir.InstrReturn,
	}
	if got := testkit.Kinds(f.Instrs); !sameKinds(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	elseLabel, endLabel := f.Instrs[1].Label, f.Instrs[3].Label
	if f.LabelIndex(elseLabel) != 4 {
		t.Fatalf("else label at %d, want 4", f.LabelIndex(elseLabel))
	}
	if f.LabelIndex(endLabel) != 7 || f.Instrs[6].Label != endLabel {
		t.Fatalf("both bodies must jump to the end label at 7")
	}
}

func TestIfChainLabels(t *testing.T) {
	for n := 1; n <= 5; n++ {
		links := make([]*ast.IfStmt, n)
		for i := range links {
			test := ast.Binary("==", ast.Ident("x"), ast.Int(int64(i)))
			links[i] = ast.Link(test, ast.Body(ast.ExprS(ast.Call(ast.Ident("tick")))))
		}
		m := lowerClean(t,
			fnDecl("tick", nil, nil),
			fnDecl("main", nil, ast.Body(ast.IfS(links...)), ast.P("x", ast.Prim("i32"))),
		)
		f := mustFunc(t, m, "main")

		var bodies, labels int
		for _, in := range f.Instrs {
			switch in.Kind {
			case ir.InstrCall:
				bodies++
			case ir.InstrLabel:
				labels++
			}
		}
		if bodies != n {
			t.Fatalf("n=%d: %d bodies", n, bodies)
		}
		if labels != n || len(f.Labels) != n {
			t.Fatalf("n=%d: %d labels placed, %d created, want %d", n, labels, len(f.Labels), n)
		}
		for i, in := range f.Instrs {
			if in.Kind == ir.InstrJump || in.Kind == ir.InstrJumpIfFalse {
				if f.LabelIndex(in.Label) <= i {
					t.Fatalf("n=%d: jump at %d targets %d", n, i, f.LabelIndex(in.Label))
				}
			}
		}
	}
}

func TestImmutableWithoutInitializer(t *testing.T) {
	body := ast.Body(
		ast.VarS(ast.Let, "y", ast.Prim("i32"), nil),
		ast.ExprS(ast.Ident("y")),
	)
	m, bag := lower(t, fnDecl("main", nil, body))
	if got := diagCodes(bag); len(got) != 1 || got[0] != diag.SemaImmutableUninit {
		t.Fatalf("diagnostics = %v", got)
	}
	if !strings.Contains(bag.Items()[0].Message, "Immutable variable needs to be initialized") {
		t.Fatalf("message %q", bag.Items()[0].Message)
	}
	f := mustFunc(t, m, "main")
	if len(f.Allocs) != 0 {
		t.Fatalf("no slot expected, got %v", f.Allocs)
	}
	for _, in := range f.Instrs {
		if in.Kind == ir.InstrStoreLocal {
			t.Fatalf("no store expected")
		}
	}
}

func TestDeclarationErrors(t *testing.T) {
	body := ast.Body(
		ast.VarS(ast.Mut, "z", nil, nil),
		ast.VarS(ast.Let, "a", nil, ast.Int(1)),
		ast.AssignS(ast.Ident("a"), ast.Int(2)),
		ast.VarS(ast.Const, "k", nil, ast.Int(3)),
		ast.AssignS(ast.Ident("k"), ast.Int(4)),
		ast.ExprS(ast.Ident("nope")),
		&ast.Stmt{Kind: ast.StmtBreak},
	)
	_, bag := lower(t, fnDecl("main", nil, body))
	want := []diag.Code{
		diag.SemaTypeNotationNeeded,
		diag.SemaImmutableAssign,
		diag.SemaConstAssign,
		diag.SemaUndeclaredName,
		diag.SemaBreakOutsideLoop,
	}
	got := diagCodes(bag)
	if len(got) != len(want) {
		t.Fatalf("diagnostics = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("diagnostic %d = %s, want %s", i, got[i].ID(), want[i].ID())
		}
	}
}

func TestMutableDeclarations(t *testing.T) {
	body := ast.Body(
		ast.VarS(ast.Mut, "b", ast.Prim("i64"), nil),
		ast.AssignS(ast.Ident("b"), ast.Int(3)),
		ast.VarS(ast.Let, "f", ast.Prim("f64"), ast.Int(2)),
		ast.VarS(ast.Const, "k", ast.Prim("u8"), ast.Unary("-", ast.Int(1))),
		ast.ExprS(ast.Ident("k")),
	)
	m := lowerClean(t, fnDecl("main", nil, body))
	f := mustFunc(t, m, "main")

	if len(f.Allocs) != 2 || f.Allocs[0].Attr != ir.AllocMutable || f.Allocs[1].Attr != ir.AllocImmutable {
		t.Fatalf("allocs = %+v", f.Allocs)
	}
	in := f.Instrs
	if in[0].Kind != ir.InstrLoadZero || in[1].Kind != ir.InstrStoreLocal {
		t.Fatalf("mut without initializer must zero its slot: %s, %s", in[0].Kind, in[1].Kind)
	}
	if in[2].Kind != ir.InstrLoadConst || in[2].Type.Kind != types.KindI64 {
		t.Fatalf("literal must take the declared type, got %s", in[2].String())
	}
	if in[4].Const.Kind != ir.ConstFloat || in[4].Type.Kind != types.KindF64 {
		t.Fatalf("int literal in a float context must be a float, got %s", in[4].String())
	}
	if in[6].Const.Int != -1 || in[6].Type.Kind != types.KindU8 {
		t.Fatalf("constant use must load its folded value, got %s", in[6].String())
	}
}

func objectDecls(mainBody *ast.Block) []*ast.VarDecl {
	obj := ast.StructDef("Obj", []*ast.FieldDecl{ast.F("v", ast.Prim("i32"))},
		ast.ConstDecl("method", ast.Fn(ast.Prim("i32"),
			ast.Body(ast.ReturnS(ast.Binary("+", ast.Ident("a"), ast.Ident("b")))),
			ast.P("self", ast.NamedT("Obj")), ast.P("a", ast.Prim("i32")), ast.P("b", ast.Prim("i32")),
		)),
	)
	return []*ast.VarDecl{obj, fnDecl("main", nil, mainBody)}
}

func TestInstanceCallOrder(t *testing.T) {
	body := ast.Body(
		ast.VarS(ast.Let, "obj", nil, ast.StructLit(ast.NamedT("Obj"), ast.FI("v", ast.Int(7)))),
		ast.ExprS(ast.Call(ast.Member(ast.Ident("obj"), "method"), ast.Int(1), ast.Int(2))),
	)
	m := lowerClean(t, objectDecls(body)...)
	f := mustFunc(t, m, "main")

	k := -1
	for i, in := range f.Instrs {
		if in.Kind == ir.InstrCall {
			k = i
		}
	}
	if k < 3 {
		t.Fatalf("call not found")
	}
	recv, one, two, call := f.Instrs[k-3], f.Instrs[k-2], f.Instrs[k-1], f.Instrs[k]
	if recv.Kind != ir.InstrLoadLocal || f.Allocs[recv.Local].Name != "obj" {
		t.Fatalf("receiver must be loaded first, got %s", recv.String())
	}
	if one.Kind != ir.InstrLoadConst || one.Const.Int != 1 || two.Kind != ir.InstrLoadConst || two.Const.Int != 2 {
		t.Fatalf("arguments out of order: %s, %s", one.String(), two.String())
	}
	if call.Call.Mode != ir.CallInstance || call.Call.Argc != 2 || call.Call.Callee != "Obj.method" {
		t.Fatalf("call = %s", call.String())
	}
	if f.Instrs[k+1].Kind != ir.InstrPop {
		t.Fatalf("unused result must be popped")
	}
}

func TestCallModes(t *testing.T) {
	add := fnDecl("add", ast.Prim("i32"), ast.Body(ast.ReturnS(ast.Binary("+", ast.Ident("x"), ast.Ident("y")))),
		ast.P("x", ast.Prim("i32")), ast.P("y", ast.Prim("i32")))
	fnT := &ast.TypeExpr{Kind: "func", Params: []*ast.TypeExpr{ast.Prim("i32"), ast.Prim("i32")}, Result: ast.Prim("i32")}
	body := ast.Body(
		ast.VarS(ast.Let, "f", fnT, ast.Ident("add")),
		ast.ExprS(ast.Call(ast.Ident("add"), ast.Int(1), ast.Int(2))),
		ast.ExprS(ast.Call(ast.Ident("f"), ast.Int(3), ast.Int(4))),
		ast.ExprS(ast.Call(ast.Member(ast.Int(5), "add"), ast.Int(6))),
	)
	m := lowerClean(t, add, fnDecl("main", nil, body))
	f := mustFunc(t, m, "main")

	var modes []ir.CallMode
	for _, in := range f.Instrs {
		if in.Kind == ir.InstrCall {
			modes = append(modes, in.Call.Mode)
		}
	}
	want := []ir.CallMode{ir.CallDirect, ir.CallComputed, ir.CallInstance}
	if len(modes) != len(want) {
		t.Fatalf("modes = %v", modes)
	}
	for i := range want {
		if modes[i] != want[i] {
			t.Fatalf("call %d is %s, want %s", i, modes[i], want[i])
		}
	}
	if f.Instrs[0].Const.Kind != ir.ConstFunc || f.Instrs[0].Const.Str != "add" {
		t.Fatalf("function value must be a function constant, got %s", f.Instrs[0].String())
	}
}

func TestCallErrors(t *testing.T) {
	add := fnDecl("add", ast.Prim("i32"), ast.Body(ast.ReturnS(ast.Ident("x"))), ast.P("x", ast.Prim("i32")))
	body := ast.Body(
		ast.ExprS(ast.Call(ast.Ident("add"))),
		ast.ExprS(ast.Call(ast.Ident("missing"))),
		ast.VarS(ast.Let, "n", nil, ast.Int(1)),
		ast.ExprS(ast.Call(ast.Ident("n"))),
		ast.VarS(ast.Let, "v", nil, ast.Call(ast.Ident("main"))),
	)
	_, bag := lower(t, add, fnDecl("main", nil, body))
	want := []diag.Code{diag.SemaArgCount, diag.SemaUndeclaredFunc, diag.SemaNotCallable, diag.SemaVoidValue}
	got := diagCodes(bag)
	if len(got) != len(want) {
		t.Fatalf("diagnostics = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("diagnostic %d = %s, want %s", i, got[i].ID(), want[i].ID())
		}
	}
}

func TestExpressionStackBalance(t *testing.T) {
	point := ast.StructDef("P", []*ast.FieldDecl{ast.F("x", ast.Prim("i32")), ast.F("y", ast.Prim("i32"))})
	add := fnDecl("add", ast.Prim("i32"), ast.Body(ast.ReturnS(ast.Ident("x"))), ast.P("x", ast.Prim("i32")), ast.P("y", ast.Prim("i32")))
	exprs := map[string]*ast.Expr{
		"arith":   ast.Binary("+", ast.Int(1), ast.Binary("*", ast.Ident("a"), ast.Int(3))),
		"negate":  ast.Unary("-", ast.Ident("a")),
		"literal": ast.Unary("-", ast.Int(3)),
		"call":    ast.Call(ast.Ident("add"), ast.Ident("a"), ast.Binary("-", ast.Ident("b"), ast.Int(1))),
		"nested":  ast.Call(ast.Ident("add"), ast.Call(ast.Ident("add"), ast.Int(1), ast.Int(2)), ast.Int(3)),
		"field":   ast.Member(ast.StructLit(ast.NamedT("P"), ast.FI("x", ast.Ident("a")), ast.FI("y", ast.Int(2))), "y"),
		"sub":     ast.Binary("-", ast.Ident("a"), ast.Ident("b")),
	}
	for name, e := range exprs {
		t.Run(name, func(t *testing.T) {
			m := lowerClean(t, point, add, fnDecl("main", ast.Prim("i32"), ast.Body(ast.ReturnS(e)),
				ast.P("a", ast.Prim("i32")), ast.P("b", ast.Prim("i32"))))
			f := mustFunc(t, m, "main")
			code := f.Instrs[:len(f.Instrs)-1]
			if err := testkit.CheckStackBalance(code); err != nil {
				t.Fatalf("%v", err)
			}
		})
	}
}

func TestLogicalOperators(t *testing.T) {
	test := ast.Binary("&&", ast.Unary("!", ast.Binary("<", ast.Ident("a"), ast.Int(1))), ast.Binary("==", ast.Ident("a"), ast.Int(2)))
	m := lowerClean(t, fnDecl("main", ast.Prim("bool"), ast.Body(ast.ReturnS(test)), ast.P("a", ast.Prim("i64"))))
	f := mustFunc(t, m, "main")
	want := []ir.InstrKind{
		ir.InstrLoadLocal, ir.InstrLoadConst, ir.InstrLt, ir.InstrNot,
		ir.InstrLoadLocal, ir.InstrLoadConst, ir.InstrEq, ir.InstrAnd, ir.InstrReturn,
	}
	if got := testkit.Kinds(f.Instrs); !sameKinds(got, want) {
		t.Fatalf("kinds = %v", got)
	}
	if f.Instrs[1].Type.Kind != types.KindI64 {
		t.Fatalf("literal compared with i64 must be i64, got %s", f.Instrs[1].Type)
	}
}

func TestMatchDesugaring(t *testing.T) {
	tick := fnDecl("tick", nil, nil)
	arm := func() *ast.Block { return ast.Body(ast.ExprS(ast.Call(ast.Ident("tick")))) }
	match := ast.MatchS(ast.Ident("x"),
		ast.Arm(arm(), ast.PVal(ast.Int(1)), ast.PVal(ast.Int(2))),
		ast.Arm(arm(), ast.PAnd(ast.PVal(ast.Int(3)), ast.POr(ast.PVal(ast.Int(3)), ast.PVal(ast.Int(4))))),
		ast.Arm(arm()),
	)
	m := lowerClean(t, tick, fnDecl("main", nil, ast.Body(match), ast.P("x", ast.Prim("i32"))))
	f := mustFunc(t, m, "main")

	count := map[ir.InstrKind]int{}
	for _, in := range f.Instrs {
		count[in.Kind]++
	}
	if count[ir.InstrEq] != 5 || count[ir.InstrOr] != 2 || count[ir.InstrAnd] != 1 {
		t.Fatalf("eq=%d or=%d and=%d", count[ir.InstrEq], count[ir.InstrOr], count[ir.InstrAnd])
	}
	if count[ir.InstrJumpIfFalse] != 2 || count[ir.InstrCall] != 3 {
		t.Fatalf("expected two tested arms and a catch-all, got %d tests, %d bodies", count[ir.InstrJumpIfFalse], count[ir.InstrCall])
	}
	if len(f.Allocs) != 1 {
		t.Fatalf("a parameter scrutinee needs no hidden slot, allocs=%v", f.Allocs)
	}
}

func TestMatchHiddenScrutinee(t *testing.T) {
	color := ast.EnumDef("Color", "Red", "Green")
	pick := fnDecl("pick", ast.NamedT("Color"), ast.Body(ast.ReturnS(ast.Member(ast.Ident("Color"), "Green"))))
	match := ast.MatchS(ast.Call(ast.Ident("pick")),
		ast.Arm(ast.Body(ast.ReturnS(ast.Int(1))), ast.PVal(ast.Member(ast.Ident("Color"), "Red"))),
		ast.Arm(ast.Body(ast.ReturnS(ast.Int(2)))),
	)
	m := lowerClean(t, color, pick, fnDecl("main", ast.Prim("i32"), ast.Body(match, ast.ReturnS(ast.Int(0)))))
	f := mustFunc(t, m, "main")
	if len(f.Allocs) != 1 || f.Allocs[0].Attr != ir.AllocHiddenBuffer || !strings.HasPrefix(f.Allocs[0].Name, "match#") {
		t.Fatalf("allocs = %+v", f.Allocs)
	}
	calls := 0
	for _, in := range f.Instrs {
		if in.Kind == ir.InstrCall {
			calls++
		}
		if in.Kind == ir.InstrLoadConst && in.Type.Kind == types.KindEnum && in.Const.Int != 0 {
			t.Fatalf("Color.Red must load ordinal 0")
		}
	}
	if calls != 1 {
		t.Fatalf("scrutinee evaluated %d times", calls)
	}
	if len(m.Enums) != 1 || m.Enums[0].Name != "Color" {
		t.Fatalf("module enums = %v", m.Enums)
	}
}

func TestCatchAllMustBeLast(t *testing.T) {
	match := ast.MatchS(ast.Ident("x"),
		ast.Arm(ast.Body()),
		ast.Arm(ast.Body(), ast.PVal(ast.Int(1))),
	)
	_, bag := lower(t, fnDecl("main", nil, ast.Body(match), ast.P("x", ast.Prim("i32"))))
	if got := diagCodes(bag); len(got) != 1 || got[0] != diag.SemaElseNotLast {
		t.Fatalf("diagnostics = %v", got)
	}
}

func TestWhileLoop(t *testing.T) {
	body := ast.Body(
		ast.VarS(ast.Mut, "i", ast.Prim("i32"), ast.Int(0)),
		ast.WhileS(ast.Binary("<", ast.Ident("i"), ast.Int(10)), ast.Body(
			ast.AssignS(ast.Ident("i"), ast.Binary("+", ast.Ident("i"), ast.Int(1))),
			ast.IfS(ast.Link(ast.Binary("==", ast.Ident("i"), ast.Int(5)), ast.Body(ast.ContinueS()))),
			ast.IfS(ast.Link(ast.Binary("==", ast.Ident("i"), ast.Int(8)), ast.Body(ast.BreakS()))),
		)),
	)
	m := lowerClean(t, fnDecl("main", nil, body))
	f := mustFunc(t, m, "main")

	head := f.Instrs[2]
	if head.Kind != ir.InstrLabel {
		t.Fatalf("loop must start with its head label, got %s", head.Kind)
	}
	backward := 0
	for i, in := range f.Instrs {
		if in.Kind == ir.InstrJump && f.LabelIndex(in.Label) < i {
			if in.Label != head.Label {
				t.Fatalf("backward jump at %d does not target the loop head", i)
			}
			backward++
		}
	}
	if backward != 2 {
		t.Fatalf("expected continue and loop back edge, got %d backward jumps", backward)
	}
}

func TestStructFieldAccess(t *testing.T) {
	point := ast.StructDef("P", []*ast.FieldDecl{ast.F("x", ast.Prim("i32")), ast.F("y", ast.Prim("i32"))})
	body := ast.Body(
		ast.VarS(ast.Mut, "p", nil, ast.StructLit(ast.NamedT("P"), ast.FI("y", ast.Int(1)))),
		ast.AssignS(ast.Member(ast.Ident("p"), "x"), ast.Int(2)),
		ast.VarS(ast.Let, "q", nil, ast.Ident("p")),
		ast.AssignS(ast.Member(ast.Ident("q"), "x"), ast.Int(3)),
		ast.ExprS(ast.Member(ast.Ident("p"), "z")),
	)
	m, bag := lower(t, point, fnDecl("main", nil, body))
	want := []diag.Code{diag.SemaImmutableAssign, diag.SemaUndeclaredField}
	got := diagCodes(bag)
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("diagnostics = %v", got)
	}
	f := mustFunc(t, m, "main")
	lit := testkit.Kinds(f.Instrs[:4])
	if !sameKinds(lit, []ir.InstrKind{ir.InstrLoadZero, ir.InstrDup, ir.InstrLoadConst, ir.InstrStoreField}) {
		t.Fatalf("struct literal kinds = %v", lit)
	}
	if f.Instrs[3].Field.Index != 1 {
		t.Fatalf("field y is index 1")
	}
	if len(m.Structs) != 1 || m.Structs[0].Name != "P" {
		t.Fatalf("module structs = %v", m.Structs)
	}
}

func TestReturnMismatch(t *testing.T) {
	_, bag := lower(t,
		fnDecl("f", ast.Prim("i32"), ast.Body(ast.ReturnS(nil))),
		fnDecl("g", nil, ast.Body(ast.ReturnS(ast.Int(1)))),
	)
	got := diagCodes(bag)
	if len(got) != 2 || got[0] != diag.SemaReturnValueMismatch || got[1] != diag.SemaReturnValueMismatch {
		t.Fatalf("diagnostics = %v", got)
	}
}

func TestExternAndEntry(t *testing.T) {
	bag := diag.NewBag(8)
	rep := diag.BagReporter{Bag: bag}
	ns := &ast.Namespace{Name: "app", Decls: []*ast.VarDecl{
		fnDecl("puts", ast.Prim("i32"), nil, ast.P("s", ast.Prim("string"))),
		fnDecl("main", nil, ast.Body(ast.ExprS(ast.Call(ast.Ident("puts"), ast.Str("hi"))))),
	}}
	table := symbols.NewTable(0)
	sema.Install(ns, table, rep, sema.InstallOptions{})
	res := sema.NewResolver(table, rep)
	res.ResolveAll()
	var seen []string
	m, errs := ir.Lower(ns, table, res, rep, ir.LowerOptions{OnFunc: func(f *ir.Func) { seen = append(seen, f.Name) }})
	if errs != 0 || bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	if m.Entry != "main" || m.Name != "app" {
		t.Fatalf("entry=%q name=%q", m.Entry, m.Name)
	}
	if puts := mustFunc(t, m, "puts"); !puts.Extern || len(puts.Instrs) != 0 {
		t.Fatalf("extern must have no body")
	}
	if len(seen) != 2 {
		t.Fatalf("OnFunc saw %v", seen)
	}
}

func TestTypeMismatches(t *testing.T) {
	g := fnDecl("g", ast.Prim("i32"), ast.Body(ast.ReturnS(ast.Ident("x"))), ast.P("x", ast.Prim("i32")))
	body := ast.Body(
		ast.ExprS(ast.Call(ast.Ident("g"), ast.BoolLit(true))),
		ast.ExprS(ast.Binary("+", ast.Ident("a"), ast.Ident("b"))),
		ast.VarS(ast.Let, "x", ast.Prim("i32"), ast.BoolLit(true)),
		ast.IfS(ast.Link(ast.Ident("b"), ast.Body())),
		ast.ExprS(ast.Binary("&&", ast.BoolLit(true), ast.Ident("b"))),
	)
	h := fnDecl("h", ast.Prim("bool"), ast.Body(ast.ReturnS(ast.Ident("n"))), ast.P("n", ast.Prim("i32")))
	_, bag := lower(t, g, fnDecl("main", nil, body, ast.P("a", ast.Prim("i64")), ast.P("b", ast.Prim("i32"))), h)
	want := []diag.Code{
		diag.SemaArgType,
		diag.SemaOperandType,
		diag.SemaAssignType,
		diag.SemaOperandType,
		diag.SemaOperandType,
		diag.SemaReturnValueMismatch,
	}
	got := diagCodes(bag)
	if len(got) != len(want) {
		t.Fatalf("diagnostics = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("diagnostic %d = %s, want %s", i, got[i].ID(), want[i].ID())
		}
	}
	if msg := bag.Items()[0].Message; !strings.Contains(msg, "argument 1 of 'g': expected i32, found bool") {
		t.Fatalf("message %q", msg)
	}
	if msg := bag.Items()[1].Message; !strings.Contains(msg, "expected i64, found i32") {
		t.Fatalf("message %q", msg)
	}
}

func TestAssignToTemporaryField(t *testing.T) {
	s := ast.StructDef("S", []*ast.FieldDecl{ast.F("x", ast.Prim("i32"))})
	mk := fnDecl("mk", ast.NamedT("S"), ast.Body(ast.ReturnS(ast.StructLit(ast.NamedT("S"), ast.FI("x", ast.Int(0))))))
	through := fnDecl("through", ast.PtrT(ast.NamedT("S")), ast.Body(ast.ReturnS(ast.Ident("p"))), ast.P("p", ast.PtrT(ast.NamedT("S"))))
	body := ast.Body(
		ast.AssignS(ast.Member(ast.Call(ast.Ident("mk")), "x"), ast.Int(1)),
		ast.AssignS(ast.Member(ast.StructLit(ast.NamedT("S"), ast.FI("x", ast.Int(0))), "x"), ast.Int(2)),
		ast.AssignS(ast.Member(ast.Call(ast.Ident("through"), ast.Ident("p")), "x"), ast.Int(3)),
	)
	_, bag := lower(t, s, mk, through, fnDecl("main", nil, body, ast.P("p", ast.PtrT(ast.NamedT("S")))))
	got := diagCodes(bag)
	if len(got) != 2 || got[0] != diag.SemaInvalidAssignTarget || got[1] != diag.SemaInvalidAssignTarget {
		t.Fatalf("diagnostics = %v", got)
	}
}
