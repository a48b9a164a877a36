package ir

import (
	"ember/internal/source"
	"ember/internal/types"
)

// LocalID addresses an allocation slot inside one function.
type LocalID uint32

// LabelID is a builder-local jump target handle.
type LabelID uint32

// AllocAttr describes how a slot may be used.
type AllocAttr uint8

const (
	AllocMutable AllocAttr = iota
	AllocImmutable
	// AllocHiddenBuffer is a compiler-introduced temporary (match scrutinee).
	AllocHiddenBuffer
)

func (a AllocAttr) String() string {
	switch a {
	case AllocImmutable:
		return "immutable"
	case AllocHiddenBuffer:
		return "hidden"
	}
	return "mutable"
}

// Alloc is one local slot. Slots are never reused within a function.
type Alloc struct {
	Attr AllocAttr
	Type types.Type
	Name string
}

// Func is a lowered function. It is read-only once built.
type Func struct {
	Name       string
	Params     []types.Type // параметры занимают слоты 0..len(Params)-1
	ParamNames []string
	Result     types.Type
	Instrs     []Instr
	Allocs     []Alloc
	Labels     []int // Labels[id] = индекс инструкции метки
	Extern     bool
	Span       source.Span
}

// LabelIndex returns the instruction index a label was located at.
func (f *Func) LabelIndex(id LabelID) int {
	return f.Labels[id]
}

// Module is the sole artifact handed to backends. Read-only once built.
type Module struct {
	Name    string
	Funcs   []*Func
	Structs []*types.Struct // в порядке зависимостей
	Enums   []*types.Enum
	Entry   string // пусто для библиотеки
}

// Func finds a function by name.
func (m *Module) Func(name string) (*Func, bool) {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}
