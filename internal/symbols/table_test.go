package symbols

import (
	"testing"

	"ember/internal/types"
)

func TestDeclareAndLookup(t *testing.T) {
	tbl := NewTable(0)
	id, ok := tbl.Declare(&Symbol{Kind: SymbolFunction, Name: "main"})
	if !ok || !id.IsValid() {
		t.Fatalf("declare failed")
	}
	if _, ok := tbl.Declare(&Symbol{Kind: SymbolConst, Name: "main"}); ok {
		t.Fatalf("duplicate must be rejected")
	}
	sym, ok := tbl.Lookup("main")
	if !ok || sym.Kind != SymbolFunction {
		t.Fatalf("lookup returned %+v", sym)
	}
	if _, ok := tbl.LookupKind("main", SymbolStruct); ok {
		t.Fatalf("LookupKind must check kind")
	}
	if tbl.Get(NoSymbolID) != nil {
		t.Fatalf("sentinel must not resolve")
	}
}

func TestDeclarationOrderAndMethods(t *testing.T) {
	tbl := NewTable(4)
	tbl.Declare(&Symbol{Kind: SymbolStruct, Name: "Point"})
	tbl.Declare(&Symbol{Kind: SymbolFunction, Name: "Point.len", Owner: "Point", Flags: SymbolFlagMethod})
	tbl.Declare(&Symbol{Kind: SymbolFunction, Name: "main"})

	fns := tbl.OfKind(SymbolFunction)
	if len(fns) != 2 || fns[0].Name != "Point.len" || fns[1].Name != "main" {
		t.Fatalf("unexpected order: %+v", fns)
	}
	if m, ok := tbl.Method("Point", "len"); !ok || !m.Has(SymbolFlagMethod) {
		t.Fatalf("method lookup failed")
	}
	if tbl.Len() != 3 {
		t.Fatalf("Len = %d", tbl.Len())
	}
}

func TestSymbolType(t *testing.T) {
	sig := &types.FuncSig{Params: []types.Type{types.I32}, Result: types.Void}
	fn := &Symbol{Kind: SymbolFunction, Sig: sig}
	if got := fn.Type().String(); got != "fn(i32): void" {
		t.Fatalf("unexpected function type %q", got)
	}
	unresolved := &Symbol{Kind: SymbolStruct}
	if unresolved.Type().Kind != types.KindUndefined {
		t.Fatalf("unresolved struct must yield undefined")
	}
	if got := SymbolFlags(SymbolFlagExtern | SymbolFlagEntry).Strings(); len(got) != 2 {
		t.Fatalf("flags: %v", got)
	}
}
