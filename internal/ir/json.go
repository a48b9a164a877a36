package ir

import (
	"encoding/json"
	"io"
)

type moduleJSON struct {
	Name    string       `json:"name"`
	Entry   string       `json:"entry,omitempty"`
	Structs []structJSON `json:"structs"`
	Enums   []enumJSON   `json:"enums,omitempty"`
	Funcs   []funcJSON   `json:"funcs"`
}

type structJSON struct {
	Name   string      `json:"name"`
	Packed bool        `json:"packed,omitempty"`
	Fields []fieldJSON `json:"fields"`
}

type fieldJSON struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type enumJSON struct {
	Name     string   `json:"name"`
	Variants []string `json:"variants"`
}

type funcJSON struct {
	Name   string      `json:"name"`
	Params []string    `json:"params"`
	Result string      `json:"result"`
	Extern bool        `json:"extern,omitempty"`
	Locals []allocJSON `json:"locals,omitempty"`
	Labels []int       `json:"labels,omitempty"`
	Body   []instrJSON `json:"body,omitempty"`
}

type allocJSON struct {
	Type string `json:"type"`
	Attr string `json:"attr"`
	Name string `json:"name,omitempty"`
}

type instrJSON struct {
	Op      string `json:"op"`
	Type    string `json:"type,omitempty"`
	Const   any    `json:"const,omitempty"`
	Local   *int   `json:"local,omitempty"`
	Field   string `json:"field,omitempty"`
	Callee  string `json:"callee,omitempty"`
	Mode    string `json:"mode,omitempty"`
	Argc    *int   `json:"argc,omitempty"`
	Target  *int   `json:"target,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// DumpJSON writes the whole module as indented JSON. Types are rendered as
// source-like strings; jump targets as resolved instruction indices.
func DumpJSON(w io.Writer, m *Module) error {
	out := moduleJSON{Name: m.Name, Entry: m.Entry, Structs: []structJSON{}, Funcs: []funcJSON{}}
	for _, s := range m.Structs {
		sj := structJSON{Name: s.Name, Packed: s.Packed, Fields: make([]fieldJSON, len(s.Fields))}
		for i, f := range s.Fields {
			sj.Fields[i] = fieldJSON{Name: f.Name, Type: f.Type.String()}
		}
		out.Structs = append(out.Structs, sj)
	}
	for _, e := range m.Enums {
		out.Enums = append(out.Enums, enumJSON{Name: e.Name, Variants: e.Variants})
	}
	for _, f := range m.Funcs {
		out.Funcs = append(out.Funcs, funcToJSON(f))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func funcToJSON(f *Func) funcJSON {
	fj := funcJSON{Name: f.Name, Params: make([]string, len(f.Params)), Result: f.Result.String(), Extern: f.Extern, Labels: f.Labels}
	for i, p := range f.Params {
		fj.Params[i] = p.String()
	}
	for _, a := range f.Allocs {
		fj.Locals = append(fj.Locals, allocJSON{Type: a.Type.String(), Attr: a.Attr.String(), Name: a.Name})
	}
	for i := range f.Instrs {
		fj.Body = append(fj.Body, instrToJSON(f, &f.Instrs[i]))
	}
	return fj
}

func instrToJSON(f *Func, in *Instr) instrJSON {
	out := instrJSON{Op: in.Kind.String()}
	if !in.Type.IsVoid() {
		out.Type = in.Type.String()
	}
	switch in.Kind {
	case InstrLoadConst:
		switch in.Const.Kind {
		case ConstInt:
			out.Const = in.Const.Int
		case ConstFloat:
			out.Const = in.Const.Float
		case ConstBool:
			out.Const = in.Const.Bool
		case ConstChar:
			out.Const = string(in.Const.Char)
		case ConstString:
			out.Const = in.Const.Str
		case ConstFunc:
			out.Callee = in.Const.Str
		}
	case InstrLoadLocal, InstrStoreLocal:
		local := int(in.Local)
		out.Local = &local
	case InstrLoadField, InstrStoreField:
		out.Field = in.Field.String()
	case InstrCall:
		argc := in.Call.Argc
		out.Callee = in.Call.Callee
		out.Mode = in.Call.Mode.String()
		out.Argc = &argc
	case InstrJump, InstrJumpIfFalse, InstrLabel:
		target := f.Labels[in.Label]
		out.Target = &target
	case InstrComment:
		out.Comment = in.Comment
	}
	return out
}
