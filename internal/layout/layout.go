package layout

import (
	"fmt"

	"fortio.org/safecast"

	"ember/internal/types"
)

// TypeLayout is the ABI layout of a type for a specific Target.
type TypeLayout struct {
	Size  int
	Align int

	// Struct-only:
	FieldOffsets []int
}

// LayoutEngine computes memory layout for solved types. It mirrors what a C
// compiler does with the declarations the C backend emits, so the backend
// can assert sizes at compile time.
type LayoutEngine struct {
	Target Target

	cache map[*types.Struct]TypeLayout
}

// New creates a new LayoutEngine for the specified target.
func New(target Target) *LayoutEngine {
	return &LayoutEngine{
		Target: target,
		cache:  make(map[*types.Struct]TypeLayout, 32),
	}
}

type layoutState struct {
	stack []*types.Struct
	index map[*types.Struct]int
}

// LayoutOf computes (and caches, for structs) the layout of t.
func (e *LayoutEngine) LayoutOf(t types.Type) (TypeLayout, error) {
	state := &layoutState{index: make(map[*types.Struct]int, 8)}
	l, err := e.layoutOf(t, state)
	if err != nil {
		return l, err
	}
	return l, nil
}

// SizeOf returns the size of a type in bytes.
func (e *LayoutEngine) SizeOf(t types.Type) (int, error) {
	l, err := e.LayoutOf(t)
	return l.Size, err
}

// AlignOf returns the alignment requirement of a type in bytes.
func (e *LayoutEngine) AlignOf(t types.Type) (int, error) {
	l, err := e.LayoutOf(t)
	return l.Align, err
}

// FieldOffset returns the byte offset of a struct field.
func (e *LayoutEngine) FieldOffset(s *types.Struct, fieldIdx int) (int, error) {
	l, err := e.LayoutOf(types.StructType(s))
	if err != nil {
		return 0, err
	}
	if fieldIdx < 0 || fieldIdx >= len(l.FieldOffsets) {
		return 0, fmt.Errorf("field %d out of range for %s", fieldIdx, s.Name)
	}
	return l.FieldOffsets[fieldIdx], nil
}

func (e *LayoutEngine) layoutOf(t types.Type, state *layoutState) (TypeLayout, *LayoutError) {
	switch t.Kind {
	case types.KindVoid:
		return TypeLayout{Size: 0, Align: 1}, nil
	case types.KindBool, types.KindI8, types.KindU8:
		return scalar(1), nil
	case types.KindI16, types.KindU16:
		return scalar(2), nil
	case types.KindI32, types.KindU32, types.KindF32, types.KindChar, types.KindEnum:
		return scalar(4), nil
	case types.KindI64, types.KindU64, types.KindF64:
		return scalar(8), nil
	case types.KindString, types.KindPointer, types.KindFunc:
		return TypeLayout{Size: e.Target.PtrSize, Align: e.Target.PtrAlign}, nil
	case types.KindArray:
		elem, err := e.layoutOf(*t.Elem, state)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		n, cerr := safecast.Conv[int](t.Len)
		if cerr != nil {
			panic(fmt.Errorf("array length overflow: %w", cerr))
		}
		return TypeLayout{Size: elem.Size * n, Align: elem.Align}, nil
	case types.KindOption:
		return e.record(state, false, types.Bool, *t.Elem)
	case types.KindErrUnion:
		return e.record(state, false, types.Bool, *t.Err, *t.Elem)
	case types.KindStruct:
		return e.structLayout(t.Struct, state)
	}
	return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrUnsized, Type: t.String()}
}

func (e *LayoutEngine) structLayout(s *types.Struct, state *layoutState) (TypeLayout, *LayoutError) {
	if cached, ok := e.cache[s]; ok {
		return cached, nil
	}
	if idx, ok := state.index[s]; ok {
		cycle := make([]string, 0, len(state.stack)-idx+1)
		for _, c := range state.stack[idx:] {
			cycle = append(cycle, c.Name)
		}
		cycle = append(cycle, s.Name)
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrRecursiveUnsized, Type: s.Name, Cycle: cycle}
	}
	state.index[s] = len(state.stack)
	state.stack = append(state.stack, s)
	fieldTypes := make([]types.Type, len(s.Fields))
	for i, f := range s.Fields {
		fieldTypes[i] = f.Type
	}
	l, err := e.record(state, s.Packed, fieldTypes...)
	state.stack = state.stack[:len(state.stack)-1]
	delete(state.index, s)
	if err == nil {
		e.cache[s] = l
	}
	return l, err
}

// record lays fields out in order with C rules: each field at its
// alignment, total rounded up to the largest alignment. Packed drops all
// padding.
func (e *LayoutEngine) record(state *layoutState, packed bool, fields ...types.Type) (TypeLayout, *LayoutError) {
	out := TypeLayout{Align: 1, FieldOffsets: make([]int, len(fields))}
	off := 0
	for i, ft := range fields {
		fl, err := e.layoutOf(ft, state)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		if !packed {
			off = alignUp(off, fl.Align)
			out.Align = max(out.Align, fl.Align)
		}
		out.FieldOffsets[i] = off
		off += fl.Size
	}
	out.Size = alignUp(off, out.Align)
	return out, nil
}

func scalar(n int) TypeLayout {
	return TypeLayout{Size: n, Align: n}
}

func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}
