package ast

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"ember/internal/types"
)

const sampleJSON = `{
  "name": "demo",
  "decls": [
    {"mut": "const", "name": "main", "span": {"file": 0, "start": 0, "end": 40},
     "value": {"kind": "fn", "span": {"file": 0, "start": 13, "end": 40},
       "func": {"result": {"kind": "void", "span": {"file":0,"start":0,"end":0}},
         "body": {"stmts": [
           {"kind": "var", "span": {"file":0,"start":20,"end":35},
            "var": {"mut": "let", "name": "x", "type": {"kind": "i32", "span": {"file":0,"start":0,"end":0}},
                    "value": {"kind": "literal", "lit": {"kind": "int", "int": 7}, "span": {"file":0,"start":0,"end":0}},
                    "span": {"file":0,"start":20,"end":35}}}
         ], "span": {"file":0,"start":0,"end":0}}}}}
  ]
}`

func TestDecodeJSON(t *testing.T) {
	ns, err := Decode(strings.NewReader(sampleJSON), FormatJSON)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ns.Name != "demo" || len(ns.Decls) != 1 {
		t.Fatalf("unexpected namespace: %+v", ns)
	}
	fn := ns.Decls[0].Value.Func
	if fn == nil || fn.Body == nil || len(fn.Body.Stmts) != 1 {
		t.Fatalf("function body not decoded")
	}
	v := fn.Body.Stmts[0].Var
	if v.Mut != Let || v.Value.Lit.Int != 7 || v.Span.End != 35 {
		t.Fatalf("unexpected var: %+v", v)
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"name":"x","decls":[],"bogus":1}`), FormatJSON)
	if err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestMsgpackSaveLoad(t *testing.T) {
	ns := &Namespace{Name: "demo", Decls: []*VarDecl{
		ConstDecl("main", Fn(Prim("void"), Body(
			VarS(Mut, "x", Prim("i32"), Int(-3)),
			ReturnS(nil),
		))),
	}}
	path := filepath.Join(t.TempDir(), "demo.msgpack")
	if err := Save(path, ns); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	stmts := got.Decls[0].Value.Func.Body.Stmts
	if len(stmts) != 2 || stmts[0].Var.Value.Lit.Int != -3 || stmts[1].Kind != StmtReturn {
		t.Fatalf("tree changed across msgpack: %+v", stmts)
	}
}

func TestEncodeJSONIsDecodable(t *testing.T) {
	ns := &Namespace{Name: "n", Decls: []*VarDecl{ConstDecl("k", Int(1))}}
	var buf bytes.Buffer
	if err := Encode(&buf, ns, FormatJSON); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(&buf, FormatJSON); err != nil {
		t.Fatalf("decode own output: %v", err)
	}
}

func TestFormatFor(t *testing.T) {
	if _, err := FormatFor("x.txt"); err == nil {
		t.Fatalf("expected unknown format")
	}
	if f, err := FormatFor("x.MPK"); err != nil || f != FormatMsgpack {
		t.Fatalf("msgpack extension not recognised")
	}
}

func TestToType(t *testing.T) {
	typ, err := PtrT(ArrayT(Prim("i32"), 4)).ToType()
	if err != nil {
		t.Fatalf("to type: %v", err)
	}
	if typ.IsSolved() || typ.Kind != types.KindPointer || typ.Elem.Kind != types.KindArray || typ.Elem.Elem.Kind != types.KindI32 {
		t.Fatalf("unexpected type %v (%v)", typ, typ.State)
	}
	if typ.String() != "*[4]i32" {
		t.Fatalf("unexpected string %q", typ.String())
	}
	var nilExpr *TypeExpr
	if auto, _ := nilExpr.ToType(); auto.Kind != types.KindAuto {
		t.Fatalf("nil annotation must be auto")
	}
	if _, err := Prim("bogus").ToType(); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
