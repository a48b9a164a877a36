package sema

import (
	"strings"
	"testing"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/symbols"
	"ember/internal/types"
)

func structDecl(name string, params []string, fields ...*ast.FieldDecl) *ast.VarDecl {
	return ast.ConstDecl(name, &ast.Expr{Kind: ast.ExprStructType, Struct: &ast.StructDecl{Fields: fields, TypeParams: params}})
}

func field(name string, t *ast.TypeExpr) *ast.FieldDecl { return &ast.FieldDecl{Name: name, Type: t} }

func mainDecl() *ast.VarDecl {
	return ast.ConstDecl("main", ast.Fn(ast.Prim("void"), ast.Body()))
}

func install(t *testing.T, decls ...*ast.VarDecl) (*symbols.Table, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(64)
	table := symbols.NewTable(0)
	Install(&ast.Namespace{Name: "test", Decls: decls}, table, diag.BagReporter{Bag: bag}, InstallOptions{})
	return table, bag
}

func codes(bag *diag.Bag) []diag.Code {
	out := make([]diag.Code, 0, bag.Len())
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestInstallRejectsTopLevelLet(t *testing.T) {
	// let x: i32 = 1 + 2;
	decl := &ast.VarDecl{Mut: ast.Let, Name: "x", Type: ast.Prim("i32"), Value: ast.Binary("+", ast.Int(1), ast.Int(2))}
	table, bag := install(t, decl, mainDecl())
	if got := codes(bag); len(got) != 1 || got[0] != diag.SemaTopLevelNonConst {
		t.Fatalf("expected one non-const diagnostic, got %v", got)
	}
	if !strings.Contains(bag.Items()[0].Message, "non-const declaration at top level") {
		t.Fatalf("unexpected message %q", bag.Items()[0].Message)
	}
	if _, ok := table.Lookup("x"); ok {
		t.Fatalf("rejected declaration must not be installed")
	}
}

func TestInstallKinds(t *testing.T) {
	point := structDecl("Point", nil, field("x", ast.Prim("i32")))
	point.Value.Struct.Methods = []*ast.VarDecl{
		ast.ConstDecl("len", ast.Fn(ast.Prim("i32"), ast.Body(ast.ReturnS(ast.Int(0))), ast.P("self", ast.PtrT(ast.NamedT("Point"))))),
	}
	decls := []*ast.VarDecl{
		point,
		structDecl("List", []string{"T"}, field("value", ast.NamedT("T"))),
		ast.ConstDecl("Color", &ast.Expr{Kind: ast.ExprEnumType, Enum: &ast.EnumDecl{Variants: []string{"Red", "Green"}}}),
		ast.ConstDecl("LIMIT", ast.Unary("-", ast.Int(5))),
		ast.ConstDecl("puts", ast.Fn(ast.Prim("i32"), nil, ast.P("s", ast.Prim("string")))),
		mainDecl(),
	}
	table, bag := install(t, decls...)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", codes(bag))
	}
	want := map[string]symbols.SymbolKind{
		"Point":     symbols.SymbolStruct,
		"Point.len": symbols.SymbolFunction,
		"List":      symbols.SymbolGeneric,
		"Color":     symbols.SymbolEnum,
		"LIMIT":     symbols.SymbolConst,
		"puts":      symbols.SymbolFunction,
		"main":      symbols.SymbolFunction,
	}
	for name, kind := range want {
		sym, ok := table.Lookup(name)
		if !ok || sym.Kind != kind {
			t.Errorf("%s: got %+v", name, sym)
		}
	}
	if sym, _ := table.Lookup("LIMIT"); sym.ConstValue.Int != -5 {
		t.Errorf("negated literal not folded: %d", sym.ConstValue.Int)
	}
	if sym, _ := table.Lookup("puts"); !sym.Has(symbols.SymbolFlagExtern) {
		t.Errorf("body-less function must be extern")
	}
	if sym, _ := table.Lookup("main"); !sym.Has(symbols.SymbolFlagEntry) {
		t.Errorf("entry flag missing")
	}
}

func TestInstallDuplicateAndMissingEntry(t *testing.T) {
	_, bag := install(t, ast.ConstDecl("a", ast.Int(1)), ast.ConstDecl("a", ast.Int(2)))
	got := codes(bag)
	if len(got) != 2 || got[0] != diag.SemaDuplicateDecl || got[1] != diag.SemaMissingEntry {
		t.Fatalf("unexpected diagnostics %v", got)
	}
	if len(bag.Items()[0].Notes) != 1 {
		t.Fatalf("duplicate must point at the previous declaration")
	}
}

func TestInstallLibrarySkipsEntry(t *testing.T) {
	bag := diag.NewBag(8)
	n := Install(&ast.Namespace{Decls: []*ast.VarDecl{ast.ConstDecl("k", ast.Int(1))}}, symbols.NewTable(0), diag.BagReporter{Bag: bag}, InstallOptions{Library: true})
	if n != 0 || bag.Len() != 0 {
		t.Fatalf("library build must not require an entry point")
	}
}

func newResolver(t *testing.T, decls ...*ast.VarDecl) (*Resolver, *diag.Bag) {
	t.Helper()
	table, bag := install(t, append(decls, mainDecl())...)
	if bag.HasErrors() {
		t.Fatalf("install failed: %v", codes(bag))
	}
	return NewResolver(table, diag.BagReporter{Bag: bag}), bag
}

func TestResolvePointerToArray(t *testing.T) {
	r, bag := newResolver(t)
	in := types.PointerTo(types.ArrayOf(types.Unresolved(types.KindI32), 4))
	out := r.Resolve(in)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics")
	}
	if !types.IsFullySolved(out) {
		t.Fatalf("unsolved node remains in %v", out)
	}
	if out.Kind != types.KindPointer || out.Elem.Kind != types.KindArray || out.Elem.Len != 4 || out.Elem.Elem.Kind != types.KindI32 {
		t.Fatalf("unexpected shape %v", out)
	}
}

func TestResolveIdempotent(t *testing.T) {
	r, _ := newResolver(t,
		structDecl("Point", nil, field("x", ast.Prim("i32"))),
		structDecl("List", []string{"T"}, field("value", ast.NamedT("T"))),
	)
	inputs := []types.Type{
		types.Unresolved(types.KindBool),
		types.Named("Point"),
		types.OptionOf(types.Named("List", types.Unresolved(types.KindU8))),
		types.ErrUnionOf(types.Named("Point"), types.Unresolved(types.KindF64)),
		types.Named("Nope"),
	}
	for _, in := range inputs {
		once := r.Resolve(in)
		twice := r.Resolve(once)
		if !types.Equal(once, twice) || once.Kind != twice.Kind || once.Struct != twice.Struct {
			t.Errorf("resolve not idempotent for %v: %v vs %v", in, once, twice)
		}
	}
}

func TestGenericInstantiationShared(t *testing.T) {
	r, bag := newResolver(t, structDecl("List", []string{"T"},
		field("value", ast.NamedT("T")),
		field("next", ast.PtrT(ast.NamedT("List", ast.NamedT("T")))),
	))
	a := r.Resolve(types.Named("List", types.Unresolved(types.KindI32)))
	b := r.Resolve(types.Named("List", types.Unresolved(types.KindI32)))
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics %v", codes(bag))
	}
	if a.Struct == nil || a.Struct != b.Struct {
		t.Fatalf("instantiations must share one descriptor")
	}
	s := a.Struct
	if s.Name != "List[i32]" || s.Origin != "List" {
		t.Fatalf("unexpected instance %+v", s)
	}
	if s.Fields[0].Type.Kind != types.KindI32 || s.Fields[1].Type.Elem.Struct != s {
		t.Fatalf("fields not substituted: %v, %v", s.Fields[0].Type, s.Fields[1].Type)
	}
	c := r.Resolve(types.Named("List", types.Unresolved(types.KindI64)))
	if c.Struct == s {
		t.Fatalf("different arguments must not share")
	}
	if got, ok := r.Instance("List[i32]"); !ok || got != s {
		t.Fatalf("instance cache lookup failed")
	}
}

func TestTypeRecursion(t *testing.T) {
	r, bag := newResolver(t,
		structDecl("T", nil, field("next", ast.NamedT("T"))),
		structDecl("Node", nil, field("next", ast.PtrT(ast.NamedT("Node")))),
		structDecl("Box", []string{"E"}, field("item", ast.NamedT("E"))),
		structDecl("Loop", nil, field("inner", ast.NamedT("Box", ast.NamedT("Loop")))),
	)
	r.ResolveAll()
	got := codes(bag)
	if len(got) != 2 || got[0] != diag.SemaTypeRecursion || got[1] != diag.SemaTypeRecursion {
		t.Fatalf("expected two recursion diagnostics, got %v", got)
	}
	node, _ := r.table.Lookup("Node")
	if node.Struct.Fields[0].Type.Elem.Struct != node.Struct {
		t.Fatalf("pointer self reference must resolve to the same struct")
	}
}

func TestMutualRecursionThroughPointer(t *testing.T) {
	r, bag := newResolver(t,
		structDecl("A", nil, field("b", ast.PtrT(ast.NamedT("B")))),
		structDecl("B", nil, field("a", ast.NamedT("A"))),
	)
	r.ResolveAll()
	if bag.Len() != 0 {
		t.Fatalf("indirect mutual recursion is legal, got %v", codes(bag))
	}
	names := make([]string, 0, 2)
	for _, s := range r.Structs() {
		names = append(names, s.Name)
	}
	if strings.Join(names, ",") != "A,B" {
		t.Fatalf("unexpected order %v", names)
	}
}

func TestDependencyOrder(t *testing.T) {
	r, _ := newResolver(t,
		structDecl("Outer", nil, field("in", ast.NamedT("Inner")), field("arr", ast.ArrayT(ast.NamedT("Leaf"), 2))),
		structDecl("Inner", nil, field("leaf", ast.NamedT("Leaf"))),
		structDecl("Leaf", nil, field("v", ast.Prim("u8"))),
	)
	r.ResolveAll()
	names := make([]string, 0, 3)
	for _, s := range r.Structs() {
		names = append(names, s.Name)
	}
	if strings.Join(names, ",") != "Leaf,Inner,Outer" {
		t.Fatalf("unexpected order %v", names)
	}
}

func TestResolveErrors(t *testing.T) {
	r, bag := newResolver(t,
		structDecl("List", []string{"T"}, field("value", ast.NamedT("T"))),
		structDecl("Point", nil, field("x", ast.Prim("i32"))),
	)
	tests := []struct {
		in   types.Type
		code diag.Code
	}{
		{types.Named("Missing"), diag.SemaUndeclaredType},
		{types.Named("List"), diag.SemaGenericNeedsArgs},
		{types.Named("List", types.I32, types.I32), diag.SemaGenericArity},
		{types.Named("Point", types.I32), diag.SemaNotGeneric},
		{types.Named("main"), diag.SemaUndeclaredType},
	}
	for _, tt := range tests {
		before := bag.Len()
		out := r.Resolve(tt.in)
		if out.Kind != types.KindUndefined {
			t.Errorf("%v: expected undefined, got %v", tt.in, out)
		}
		if bag.Len() != before+1 || bag.Items()[before].Code != tt.code {
			t.Errorf("%v: expected %v", tt.in, tt.code.ID())
		}
	}
}

func TestResolveAllSignaturesAndConsts(t *testing.T) {
	r, bag := newResolver(t,
		structDecl("Point", nil, field("x", ast.Prim("i32"))),
		ast.ConstDecl("add", ast.Fn(ast.Prim("i64"), ast.Body(), ast.P("a", ast.Prim("i64")), ast.P("p", ast.PtrT(ast.NamedT("Point"))))),
		ast.ConstDecl("PI", ast.Float(3.14)),
		&ast.VarDecl{Mut: ast.Const, Name: "SMALL", Type: ast.Prim("u8"), Value: ast.Int(3)},
	)
	r.ResolveAll()
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics %v", codes(bag))
	}
	add, _ := r.table.Lookup("add")
	if got := types.FuncType(add.Sig).String(); got != "fn(i64, *Point): i64" {
		t.Fatalf("unexpected signature %q", got)
	}
	pi, _ := r.table.Lookup("PI")
	small, _ := r.table.Lookup("SMALL")
	if pi.ConstType.Kind != types.KindF64 || small.ConstType.Kind != types.KindU8 {
		t.Fatalf("unexpected const types %v %v", pi.ConstType, small.ConstType)
	}
	main, _ := r.table.Lookup("main")
	if !main.Sig.Result.IsVoid() || len(main.Sig.Params) != 0 {
		t.Fatalf("unexpected main signature")
	}
}
