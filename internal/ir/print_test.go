package ir_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"ember/internal/ast"
	"ember/internal/ir"
)

func dumpSample(t *testing.T) *ir.Module {
	t.Helper()
	point := ast.StructDef("P", []*ast.FieldDecl{ast.F("x", ast.Prim("i32"))})
	add := fnDecl("add", ast.Prim("i32"), ast.Body(ast.ReturnS(ast.Binary("+", ast.Ident("a"), ast.Ident("b")))),
		ast.P("a", ast.Prim("i32")), ast.P("b", ast.Prim("i32")))
	main := fnDecl("main", nil, ast.Body(
		ast.VarS(ast.Mut, "n", nil, ast.Call(ast.Ident("add"), ast.Int(1), ast.Int(2))),
		ast.IfS(ast.Link(ast.BoolLit(true), ast.Body(ast.ReturnS(nil)))),
	))
	return lowerClean(t, point, add, main)
}

func TestDumpModuleText(t *testing.T) {
	var buf bytes.Buffer
	if err := ir.DumpModule(&buf, dumpSample(t)); err != nil {
		t.Fatalf("dump: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		".struct P { x: i32 }\n",
		".fn add(i32, i32) i32:\n  .locals:\n    [0] i32 immutable\n    [1] i32 immutable\n  ; body:\n",
		"  L0: load_local 0\n",
		"  L2: add i32\n",
		"  L3: return i32\n",
		".fn main() void:\n",
		"    [0] i32 mutable\n",
		"  L2: call direct add/2 i32\n",
		"  L5: jump_if_false L8\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dump lacks %q:\n%s", want, out)
		}
	}
	if strings.Index(out, ".struct P") > strings.Index(out, ".fn add") {
		t.Errorf("struct layouts must come first")
	}
}

func TestDumpJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := ir.DumpJSON(&buf, dumpSample(t)); err != nil {
		t.Fatalf("dump: %v", err)
	}
	var doc struct {
		Name    string
		Structs []struct {
			Name   string
			Fields []struct{ Name, Type string }
		}
		Funcs []struct {
			Name   string
			Params []string
			Result string
			Body   []struct {
				Op     string
				Callee string
				Target *int
			}
		}
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if doc.Name != "test" || len(doc.Structs) != 1 || doc.Structs[0].Fields[0].Type != "i32" {
		t.Fatalf("unexpected header: %+v", doc)
	}
	if len(doc.Funcs) != 2 || doc.Funcs[0].Name != "add" || doc.Funcs[0].Result != "i32" || len(doc.Funcs[0].Params) != 2 {
		t.Fatalf("unexpected funcs: %+v", doc.Funcs)
	}
	var sawCall, sawJump bool
	for _, in := range doc.Funcs[1].Body {
		switch in.Op {
		case "call":
			sawCall = in.Callee == "add"
		case "jump_if_false":
			sawJump = in.Target != nil && *in.Target == 8
		}
	}
	if !sawCall || !sawJump {
		t.Fatalf("call=%v jump=%v", sawCall, sawJump)
	}
}
