package types

import (
	"ember/internal/source"
)

// State tells whether a Type still needs resolution.
type State uint8

const (
	// Unsolved is the zero state: every annotation coming from the tree starts here.
	Unsolved State = iota
	Solved
)

func (s State) String() string {
	if s == Solved {
		return "solved"
	}
	return "unsolved"
}

// Type is either an unsolved reference (kind + base payload + name/args as
// written) or a solved descriptor (kind + resolved payload).
// Values are immutable: resolution builds a new Type and never patches one.
type Type struct {
	State State
	Kind  Kind

	Elem *Type  // pointer, option, array, errunion (success)
	Err  *Type  // errunion (error)
	Len  uint32 // array

	// unsolved named references
	Name string
	Args []Type

	// solved payload
	Struct *Struct
	Enum   *Enum
	Func   *FuncSig // solved func, or unsolved signature annotation

	Span source.Span
}

// Prim returns the solved form of a primitive kind.
func Prim(k Kind) Type {
	return Type{State: Solved, Kind: k}
}

var (
	Void      = Prim(KindVoid)
	Bool      = Prim(KindBool)
	Char      = Prim(KindChar)
	I32       = Prim(KindI32)
	I64       = Prim(KindI64)
	F64       = Prim(KindF64)
	String    = Prim(KindString)
	Undefined = Type{State: Solved, Kind: KindUndefined}
)

// Unresolved returns an unsolved primitive or marker (auto, unknown) of kind k.
func Unresolved(k Kind) Type {
	return Type{Kind: k}
}

// Named returns an unsolved reference to a declared type, optionally generic.
func Named(name string, args ...Type) Type {
	return Type{Kind: KindNamed, Name: name, Args: args}
}

// PointerTo wraps elem. The result inherits elem's state.
func PointerTo(elem Type) Type {
	return Type{State: elem.State, Kind: KindPointer, Elem: &elem}
}

func ArrayOf(elem Type, n uint32) Type {
	return Type{State: elem.State, Kind: KindArray, Elem: &elem, Len: n}
}

func OptionOf(elem Type) Type {
	return Type{State: elem.State, Kind: KindOption, Elem: &elem}
}

// ErrUnionOf pairs an error type with a success type.
func ErrUnionOf(errT, elem Type) Type {
	st := Unsolved
	if errT.State == Solved && elem.State == Solved {
		st = Solved
	}
	return Type{State: st, Kind: KindErrUnion, Err: &errT, Elem: &elem}
}

// StructType is the solved type of a declared (or instantiated) struct.
func StructType(s *Struct) Type {
	return Type{State: Solved, Kind: KindStruct, Struct: s}
}

func EnumType(e *Enum) Type {
	return Type{State: Solved, Kind: KindEnum, Enum: e}
}

// FuncType builds a function type; it is solved when every part is.
func FuncType(sig *FuncSig) Type {
	st := Solved
	for _, p := range sig.Params {
		if p.State != Solved {
			st = Unsolved
		}
	}
	if sig.Result.State != Solved {
		st = Unsolved
	}
	return Type{State: st, Kind: KindFunc, Func: sig}
}

// WithSpan returns a copy of t positioned at sp.
func (t Type) WithSpan(sp source.Span) Type {
	t.Span = sp
	return t
}

func (t Type) IsSolved() bool { return t.State == Solved }

func (t Type) IsVoid() bool { return t.Kind == KindVoid }

// IsValue reports whether values of t can live on the operand stack.
func (t Type) IsValue() bool {
	return t.Kind != KindVoid && t.Kind != KindInvalid && t.Kind != KindUndefined
}

// Deref returns the pointee of a pointer type, or t itself.
func (t Type) Deref() Type {
	if t.Kind == KindPointer && t.Elem != nil {
		return *t.Elem
	}
	return t
}

// StructOf returns the struct behind t or behind a pointer to it.
func (t Type) StructOf() *Struct {
	return t.Deref().Struct
}

// Equal compares two types structurally. Struct and enum identity is pointer
// identity, so two instantiations of the same generic compare equal only when
// they share one descriptor.
func Equal(a, b Type) bool {
	if a.State != b.State || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindPointer, KindOption:
		return equalPtr(a.Elem, b.Elem)
	case KindArray:
		return a.Len == b.Len && equalPtr(a.Elem, b.Elem)
	case KindErrUnion:
		return equalPtr(a.Err, b.Err) && equalPtr(a.Elem, b.Elem)
	case KindNamed:
		if a.Name != b.Name || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !Equal(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	case KindStruct:
		return a.Struct == b.Struct
	case KindEnum:
		return a.Enum == b.Enum
	case KindFunc:
		return a.Func.Equal(b.Func)
	}
	return true
}

func equalPtr(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return Equal(*a, *b)
}

// IsFullySolved walks t and reports whether no unsolved node remains.
func IsFullySolved(t Type) bool {
	if t.State != Solved {
		return false
	}
	if t.Elem != nil && !IsFullySolved(*t.Elem) {
		return false
	}
	if t.Err != nil && !IsFullySolved(*t.Err) {
		return false
	}
	if t.Kind == KindFunc && t.Func != nil {
		for _, p := range t.Func.Params {
			if !IsFullySolved(p) {
				return false
			}
		}
		return IsFullySolved(t.Func.Result)
	}
	return true
}
