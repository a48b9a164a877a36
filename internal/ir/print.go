package ir

import (
	"fmt"
	"io"
	"strings"
)

// DumpModule writes the human-readable listing of m: struct layouts first,
// then every function in module order.
func DumpModule(w io.Writer, m *Module) error {
	if w == nil || m == nil {
		return nil
	}
	for _, s := range m.Structs {
		fields := make([]string, len(s.Fields))
		for i, f := range s.Fields {
			fields[i] = fmt.Sprintf("%s: %s", f.Name, f.Type)
		}
		packed := ""
		if s.Packed {
			packed = " packed"
		}
		if _, err := fmt.Fprintf(w, ".struct %s%s { %s }\n", s.Name, packed, strings.Join(fields, ", ")); err != nil {
			return err
		}
	}
	for _, e := range m.Enums {
		if _, err := fmt.Fprintf(w, ".enum %s { %s }\n", e.Name, strings.Join(e.Variants, ", ")); err != nil {
			return err
		}
	}
	for _, f := range m.Funcs {
		if err := DumpFunc(w, f); err != nil {
			return err
		}
	}
	return nil
}

// DumpFunc writes one function:
//
//	.fn name(paramTypes) returnType:
//	  .locals:
//	    [i] type attr
//	  ; body:
//	  L<index>: instruction
func DumpFunc(w io.Writer, f *Func) error {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	extern := ""
	if f.Extern {
		extern = " extern"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, ".fn %s(%s) %s:%s\n", f.Name, strings.Join(params, ", "), f.Result, extern)
	if !f.Extern {
		sb.WriteString("  .locals:\n")
		for i, a := range f.Allocs {
			fmt.Fprintf(&sb, "    [%d] %s %s\n", i, a.Type, a.Attr)
		}
		sb.WriteString("  ; body:\n")
		for i := range f.Instrs {
			fmt.Fprintf(&sb, "  L%d: %s\n", i, f.Instrs[i].describe(f))
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// describe is String with jump targets resolved to instruction indices.
func (instr *Instr) describe(f *Func) string {
	switch instr.Kind {
	case InstrJump, InstrJumpIfFalse:
		return fmt.Sprintf("%s L%d", instr.Kind, f.Labels[instr.Label])
	case InstrLabel:
		return instr.Kind.String()
	}
	return instr.String()
}
