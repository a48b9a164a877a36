package c

import (
	"fmt"
	"strings"

	"ember/internal/types"
)

var primNames = map[types.Kind]string{
	types.KindVoid:   "void",
	types.KindBool:   "bool",
	types.KindChar:   "char32",
	types.KindI8:     "i8",
	types.KindI16:    "i16",
	types.KindI32:    "i32",
	types.KindI64:    "i64",
	types.KindU8:     "u8",
	types.KindU16:    "u16",
	types.KindU32:    "u32",
	types.KindU64:    "u64",
	types.KindF32:    "f32",
	types.KindF64:    "f64",
	types.KindString: "str",
}

// cType names t in C. Compound types get a wrapper typedef on first use.
func (e *emitter) cType(t types.Type) (string, error) {
	if name, ok := primNames[t.Kind]; ok {
		return name, nil
	}
	switch t.Kind {
	case types.KindPointer:
		if t.Elem == nil {
			return "", fmt.Errorf("implement pointer without pointee in c backend")
		}
		inner, err := e.cType(*t.Elem)
		if err != nil {
			return "", err
		}
		return inner + "*", nil
	case types.KindStruct:
		if t.Struct == nil {
			break
		}
		return e.register(t, Mangle(e.opts.Lang, t.Struct.Name), true), nil
	case types.KindEnum:
		if t.Enum == nil {
			break
		}
		return e.register(t, Mangle(e.opts.Lang, t.Enum.Name), false), nil
	case types.KindArray, types.KindOption, types.KindErrUnion:
		if err := e.components(t); err != nil {
			return "", err
		}
		return e.register(t, e.wrapperName(t), true), nil
	case types.KindFunc:
		if t.Func == nil {
			break
		}
		if err := e.components(t); err != nil {
			return "", err
		}
		return e.register(t, e.wrapperName(t), false), nil
	}
	return "", fmt.Errorf("implement type %s (%s) in c backend", t, t.Kind)
}

// components names the nested types of a wrapper so their typedefs exist.
func (e *emitter) components(t types.Type) error {
	for _, c := range nested(t) {
		if _, err := e.cType(c); err != nil {
			return err
		}
	}
	return nil
}

func nested(t types.Type) []types.Type {
	switch t.Kind {
	case types.KindPointer, types.KindArray, types.KindOption:
		return []types.Type{*t.Elem}
	case types.KindErrUnion:
		return []types.Type{*t.Err, *t.Elem}
	case types.KindFunc:
		out := append([]types.Type(nil), t.Func.Params...)
		return append(out, t.Func.Result)
	case types.KindStruct:
		out := make([]types.Type, len(t.Struct.Fields))
		for i, f := range t.Struct.Fields {
			out[i] = f.Type
		}
		return out
	}
	return nil
}

func (e *emitter) wrapperName(t types.Type) string {
	key := t.String()
	if name, ok := e.names[key]; ok {
		return name
	}
	e.wrapped++
	prefix := map[types.Kind]string{
		types.KindArray:    "arr",
		types.KindOption:   "opt",
		types.KindErrUnion: "eu",
		types.KindFunc:     "fn",
	}[t.Kind]
	return fmt.Sprintf("%s_%s%d", e.opts.Lang, prefix, e.wrapped)
}

// register remembers the C name of t; struct-tagged types also get a
// forward typedef so pointers and prototypes can use them before the
// definition.
func (e *emitter) register(t types.Type, name string, tagged bool) string {
	key := t.String()
	if _, ok := e.names[key]; ok {
		return name
	}
	e.names[key] = name
	e.registered = append(e.registered, t)
	if tagged {
		fmt.Fprintf(&e.forward, "typedef struct %s %s;\n", name, name)
	}
	return name
}

// collectTypes names every type the module mentions.
func (e *emitter) collectTypes() error {
	for _, s := range e.m.Structs {
		if _, err := e.cType(types.StructType(s)); err != nil {
			return err
		}
		for _, f := range s.Fields {
			if _, err := e.cType(f.Type); err != nil {
				return fmt.Errorf("field %s.%s: %w", s.Name, f.Name, err)
			}
		}
	}
	for _, en := range e.m.Enums {
		if _, err := e.cType(types.EnumType(en)); err != nil {
			return err
		}
	}
	for _, f := range e.m.Funcs {
		for _, a := range f.Allocs {
			if _, err := e.cType(a.Type); err != nil {
				return fmt.Errorf("function %s: %w", f.Name, err)
			}
		}
		if _, err := e.cType(f.Result); err != nil {
			return fmt.Errorf("function %s: %w", f.Name, err)
		}
		for _, p := range f.Params {
			if _, err := e.cType(p); err != nil {
				return fmt.Errorf("function %s: %w", f.Name, err)
			}
		}
	}
	return nil
}

// define writes the definition of t after everything t holds by value.
// Pointers only need their pointee named, except for typedefs that are not
// struct tags (enums and function pointers) which must be complete.
func (e *emitter) define(t types.Type) error {
	switch t.Kind {
	case types.KindPointer:
		if t.Elem != nil && (t.Elem.Kind == types.KindEnum || t.Elem.Kind == types.KindFunc || t.Elem.Kind == types.KindPointer) {
			return e.define(*t.Elem)
		}
		return nil
	case types.KindStruct, types.KindEnum, types.KindArray, types.KindOption, types.KindErrUnion, types.KindFunc:
	default:
		return nil
	}
	key := t.String()
	if e.defined[key] {
		return nil
	}
	e.defined[key] = true
	for _, c := range nested(t) {
		if err := e.define(c); err != nil {
			return err
		}
	}
	name, err := e.cType(t)
	if err != nil {
		return err
	}
	switch t.Kind {
	case types.KindEnum:
		fmt.Fprintf(&e.defs, "typedef int32_t %s; /* %s */\n", name, strings.Join(t.Enum.Variants, ", "))
	case types.KindStruct:
		return e.defineStruct(name, t.Struct)
	case types.KindArray:
		elem, err := e.cType(*t.Elem)
		if err != nil {
			return err
		}
		fmt.Fprintf(&e.defs, "struct %s { %s a[%d]; }; /* %s */\n", name, elem, t.Len, t)
	case types.KindOption:
		elem, err := e.cType(*t.Elem)
		if err != nil {
			return err
		}
		fmt.Fprintf(&e.defs, "struct %s { bool some; %s value; }; /* %s */\n", name, elem, t)
	case types.KindErrUnion:
		errT, err := e.cType(*t.Err)
		if err != nil {
			return err
		}
		elem, err := e.cType(*t.Elem)
		if err != nil {
			return err
		}
		fmt.Fprintf(&e.defs, "struct %s { bool is_err; %s err; %s ok; }; /* %s */\n", name, errT, elem, t)
	case types.KindFunc:
		rt, err := e.cType(t.Func.Result)
		if err != nil {
			return err
		}
		params := make([]string, len(t.Func.Params))
		for i, p := range t.Func.Params {
			if params[i], err = e.cType(p); err != nil {
				return err
			}
		}
		list := "void"
		if len(params) > 0 {
			list = strings.Join(params, ", ")
		}
		fmt.Fprintf(&e.defs, "typedef %s (*%s)(%s); /* %s */\n", rt, name, list, t)
	}
	return nil
}

func (e *emitter) defineStruct(name string, s *types.Struct) error {
	fmt.Fprintf(&e.defs, "struct %s {\n", name)
	if len(s.Fields) == 0 {
		e.defs.WriteString("    uint8_t _empty;\n")
	}
	for i, f := range s.Fields {
		ft, err := e.cType(f.Type)
		if err != nil {
			return fmt.Errorf("field %s.%s: %w", s.Name, f.Name, err)
		}
		fmt.Fprintf(&e.defs, "    %s %s; /* %s */\n", ft, slotName(i), f.Name)
	}
	if s.Packed {
		e.defs.WriteString("} __attribute__((packed));\n")
	} else {
		e.defs.WriteString("};\n")
	}
	return nil
}

func zeroInit(t types.Type) string {
	switch t.Kind {
	case types.KindStruct, types.KindArray, types.KindOption, types.KindErrUnion:
		return "{0}"
	}
	return "0"
}
