package types

import (
	"ember/internal/source"
)

// Field is one positional member of a struct.
type Field struct {
	Name string
	Type Type
	Span source.Span
}

// Struct describes a declared struct or one instantiation of a generic.
// The resolver creates it before resolving fields, so Fields is complete only
// after resolution finishes; backends only ever see complete structs.
type Struct struct {
	Name   string // display/mangling name, "List[i32]" for instances
	Fields []Field
	Packed bool
	Origin string // generic declaration name, empty when not instantiated
	Args   []Type // solved generic actuals
	Span   source.Span
}

// FieldIndex returns the position of the named field.
func (s *Struct) FieldIndex(name string) (int, bool) {
	if s == nil {
		return -1, false
	}
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return i, true
		}
	}
	return -1, false
}

// Enum is a closed set of named ordinals.
type Enum struct {
	Name     string
	Variants []string
	Span     source.Span
}

// Ordinal returns the value of the named variant.
func (e *Enum) Ordinal(variant string) (int, bool) {
	if e == nil {
		return -1, false
	}
	for i, v := range e.Variants {
		if v == variant {
			return i, true
		}
	}
	return -1, false
}

// FuncSig is a function signature.
type FuncSig struct {
	Params []Type
	Result Type
}

func (f *FuncSig) Equal(o *FuncSig) bool {
	if f == nil || o == nil {
		return f == o
	}
	if len(f.Params) != len(o.Params) || !Equal(f.Result, o.Result) {
		return false
	}
	for i := range f.Params {
		if !Equal(f.Params[i], o.Params[i]) {
			return false
		}
	}
	return true
}
