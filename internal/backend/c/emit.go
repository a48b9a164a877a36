package c

import (
	"fmt"
	"strings"

	"ember/internal/ir"
	"ember/internal/layout"
	"ember/internal/types"
)

// DefaultLang prefixes mangled names when Options.Lang is empty.
const DefaultLang = "ember"

// Options configure C emission.
type Options struct {
	Lang string
	// Layout, when set, adds _Static_assert checks of struct sizes and field
	// offsets computed for the target.
	Layout *layout.LayoutEngine
}

// Emit translates m into one C translation unit. The module is not
// modified. An instruction or type the backend cannot express is an
// internal error reported as "implement X in c backend".
func Emit(m *ir.Module, opts Options) (string, error) {
	if opts.Lang == "" {
		opts.Lang = DefaultLang
	}
	e := &emitter{
		m:       m,
		opts:    opts,
		names:   make(map[string]string),
		defined: make(map[string]bool),
		externs: make(map[string]bool),
	}
	return e.run()
}

type emitter struct {
	m    *ir.Module
	opts Options

	names      map[string]string // канонический текст типа -> имя в C
	registered []types.Type
	wrapped    int
	forward    strings.Builder
	defs       strings.Builder
	defined    map[string]bool
	externs    map[string]bool

	temps int
}

func (e *emitter) run() (string, error) {
	for _, f := range e.m.Funcs {
		if f.Extern {
			e.externs[f.Name] = true
		}
	}
	if err := e.collectTypes(); err != nil {
		return "", err
	}
	for _, s := range e.m.Structs {
		if err := e.define(types.StructType(s)); err != nil {
			return "", err
		}
	}
	for _, en := range e.m.Enums {
		if err := e.define(types.EnumType(en)); err != nil {
			return "", err
		}
	}

	var protos, bodies strings.Builder
	for _, f := range e.m.Funcs {
		proto, err := e.prototype(f)
		if err != nil {
			return "", err
		}
		if f.Extern {
			fmt.Fprintf(&protos, "extern %s;\n", proto)
			continue
		}
		fmt.Fprintf(&protos, "%s;\n", proto)
		body, err := e.function(f, proto)
		if err != nil {
			return "", fmt.Errorf("function %s: %w", f.Name, err)
		}
		bodies.WriteString(body)
	}
	// тела могли назвать новые обёртки
	for i := 0; i < len(e.registered); i++ {
		if err := e.define(e.registered[i]); err != nil {
			return "", err
		}
	}

	var out strings.Builder
	fmt.Fprintf(&out, "/* generated by ember from module %s; do not edit */\n\n", e.m.Name)
	out.WriteString(prelude)
	if e.forward.Len() > 0 {
		out.WriteString("\n")
		out.WriteString(e.forward.String())
	}
	if e.defs.Len() > 0 {
		out.WriteString("\n")
		out.WriteString(e.defs.String())
	}
	asserts, err := e.layoutAsserts()
	if err != nil {
		return "", err
	}
	if asserts != "" {
		out.WriteString("\n")
		out.WriteString(asserts)
	}
	if protos.Len() > 0 {
		out.WriteString("\n")
		out.WriteString(protos.String())
	}
	out.WriteString(bodies.String())
	shim, err := e.mainShim()
	if err != nil {
		return "", err
	}
	out.WriteString(shim)
	return out.String(), nil
}

const prelude = `#include <stdint.h>
#include <stdbool.h>
#include <stddef.h>
#include <string.h>
#include <math.h>

#define i8 int8_t
#define i16 int16_t
#define i32 int32_t
#define i64 int64_t
#define u8 uint8_t
#define u16 uint16_t
#define u32 uint32_t
#define u64 uint64_t
#define f32 float
#define f64 double
typedef uint32_t char32;
typedef const char *str;
`

// funcName is the C symbol of an IR function. Externs keep their own name
// when C allows it so they link against existing code.
func (e *emitter) funcName(name string) string {
	if e.externs[name] && isCIdent(name) {
		return name
	}
	return Mangle(e.opts.Lang, name)
}

func slotName(id int) string { return fmt.Sprintf("_%d", id) }

func (e *emitter) prototype(f *ir.Func) (string, error) {
	rt, err := e.cType(f.Result)
	if err != nil {
		return "", err
	}
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		pt, err := e.cType(p)
		if err != nil {
			return "", err
		}
		params[i] = pt + " " + slotName(i)
	}
	list := "void"
	if len(params) > 0 {
		list = strings.Join(params, ", ")
	}
	return fmt.Sprintf("%s %s(%s)", rt, e.funcName(f.Name), list), nil
}

func (e *emitter) mainShim() (string, error) {
	if e.m.Entry == "" {
		return "", nil
	}
	f, ok := e.m.Func(e.m.Entry)
	if !ok {
		return "", fmt.Errorf("entry point %s is not in the module", e.m.Entry)
	}
	var sb strings.Builder
	sb.WriteString("\nint main(void) {\n")
	call := e.funcName(f.Name) + "()"
	if f.Result.Kind.IsInteger() {
		fmt.Fprintf(&sb, "    return (int)%s;\n", call)
	} else {
		fmt.Fprintf(&sb, "    %s;\n    return 0;\n", call)
	}
	sb.WriteString("}\n")
	return sb.String(), nil
}

func (e *emitter) layoutAsserts() (string, error) {
	if e.opts.Layout == nil {
		return "", nil
	}
	var sb strings.Builder
	for _, s := range e.m.Structs {
		if len(s.Fields) == 0 {
			continue
		}
		name := Mangle(e.opts.Lang, s.Name)
		size, err := e.opts.Layout.SizeOf(types.StructType(s))
		if err != nil {
			return "", fmt.Errorf("layout of %s: %w", s.Name, err)
		}
		fmt.Fprintf(&sb, "_Static_assert(sizeof(%s) == %d, %s);\n", name, size, quote("size of "+s.Name))
		for i := range s.Fields {
			off, err := e.opts.Layout.FieldOffset(s, i)
			if err != nil {
				return "", fmt.Errorf("layout of %s: %w", s.Name, err)
			}
			fmt.Fprintf(&sb, "_Static_assert(offsetof(%s, %s) == %d, %s);\n", name, slotName(i), off, quote("offset of "+s.Name+"."+s.Fields[i].Name))
		}
	}
	return sb.String(), nil
}
