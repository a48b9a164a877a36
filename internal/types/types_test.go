package types

import "testing"

func TestTypeString(t *testing.T) {
	list := &Struct{Name: "List[i32]"}
	tests := []struct {
		typ  Type
		want string
	}{
		{I32, "i32"},
		{PointerTo(ArrayOf(I32, 4)), "*[4]i32"},
		{OptionOf(Prim(KindU8)), "?u8"},
		{ErrUnionOf(Named("Err"), I32), "Err!i32"},
		{Named("List", Named("T")), "List[T]"},
		{StructType(list), "List[i32]"},
		{FuncType(&FuncSig{Params: []Type{I32, Bool}, Result: Void}), "fn(i32, bool): void"},
		{Undefined, "undefined"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

func TestStateOfCompounds(t *testing.T) {
	if PointerTo(Named("Node")).IsSolved() {
		t.Fatalf("pointer to unsolved name must stay unsolved")
	}
	if !PointerTo(I32).IsSolved() {
		t.Fatalf("pointer to solved primitive is solved")
	}
	if ErrUnionOf(I32, Named("X")).IsSolved() {
		t.Fatalf("errunion with unsolved half must be unsolved")
	}
	if IsFullySolved(Type{State: Solved, Kind: KindPointer, Elem: &Type{Kind: KindI32}}) {
		t.Fatalf("nested unsolved node not detected")
	}
}

func TestEqualUsesStructIdentity(t *testing.T) {
	a := &Struct{Name: "P"}
	b := &Struct{Name: "P"}
	if Equal(StructType(a), StructType(b)) {
		t.Fatalf("distinct descriptors must not compare equal")
	}
	if !Equal(PointerTo(StructType(a)), PointerTo(StructType(a))) {
		t.Fatalf("same descriptor must compare equal")
	}
}

func TestParseKind(t *testing.T) {
	for _, name := range []string{"i32", "u64", "f32", "char", "auto", "errunion"} {
		k, ok := ParseKind(name)
		if !ok || k.String() != name {
			t.Errorf("round trip failed for %q: %v %v", name, k, ok)
		}
	}
	if _, ok := ParseKind("invalid"); ok {
		t.Errorf("invalid must not parse")
	}
}

func TestLookups(t *testing.T) {
	s := &Struct{Fields: []Field{{Name: "x", Type: I32}, {Name: "y", Type: I32}}}
	if i, ok := s.FieldIndex("y"); !ok || i != 1 {
		t.Fatalf("FieldIndex(y) = %d, %v", i, ok)
	}
	e := &Enum{Variants: []string{"Red", "Green"}}
	if i, ok := e.Ordinal("Green"); !ok || i != 1 {
		t.Fatalf("Ordinal(Green) = %d, %v", i, ok)
	}
}
