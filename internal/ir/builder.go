package ir

import (
	"fmt"

	"fortio.org/safecast"

	"ember/internal/source"
	"ember/internal/types"
)

const unresolvedLabel = -1

// FuncBuilder accumulates one function's instructions, slots and labels.
// Misuse (emitting after Build, locating a label twice, building with an
// unlocated label) is a compiler bug and panics.
type FuncBuilder struct {
	fn     *Func
	labels []int
	built  bool
}

// NewFuncBuilder starts a function with the given result type.
func NewFuncBuilder(name string, result types.Type, span source.Span) *FuncBuilder {
	return &FuncBuilder{fn: &Func{Name: name, Result: result, Span: span}}
}

func (b *FuncBuilder) mustOpen() {
	if b.built {
		panic(fmt.Sprintf("ir: builder for %s used after Build", b.fn.Name))
	}
}

// AddParam declares the next parameter. Parameters must be added before any
// other slot so they occupy the first indices.
func (b *FuncBuilder) AddParam(name string, t types.Type) LocalID {
	if len(b.fn.Allocs) != len(b.fn.Params) {
		panic(fmt.Sprintf("ir: parameter %s of %s declared after locals", name, b.fn.Name))
	}
	b.fn.Params = append(b.fn.Params, t)
	b.fn.ParamNames = append(b.fn.ParamNames, name)
	return b.DeclareAlloc(AllocImmutable, t, name)
}

// DeclareAlloc appends a slot and returns its index.
func (b *FuncBuilder) DeclareAlloc(attr AllocAttr, t types.Type, name string) LocalID {
	b.mustOpen()
	id, err := safecast.Conv[uint32](len(b.fn.Allocs))
	if err != nil {
		panic(fmt.Errorf("ir: allocs overflow: %w", err))
	}
	b.fn.Allocs = append(b.fn.Allocs, Alloc{Attr: attr, Type: t, Name: name})
	return LocalID(id)
}

// Alloc returns the slot description.
func (b *FuncBuilder) Alloc(id LocalID) Alloc {
	return b.fn.Allocs[id]
}

// NewLabel creates an unresolved label.
func (b *FuncBuilder) NewLabel() LabelID {
	b.mustOpen()
	id, err := safecast.Conv[uint32](len(b.labels))
	if err != nil {
		panic(fmt.Errorf("ir: labels overflow: %w", err))
	}
	b.labels = append(b.labels, unresolvedLabel)
	return LabelID(id)
}

// Locate binds id to the current end of the stream and emits a Label there.
func (b *FuncBuilder) Locate(id LabelID) {
	b.checkLabel(id)
	if b.labels[id] != unresolvedLabel {
		panic(fmt.Sprintf("ir: label #%d of %s located twice", id, b.fn.Name))
	}
	b.labels[id] = len(b.fn.Instrs)
	b.Emit(Instr{Kind: InstrLabel, Type: types.Void, Label: id})
}

func (b *FuncBuilder) checkLabel(id LabelID) {
	if int(id) >= len(b.labels) {
		panic(fmt.Sprintf("ir: unknown label #%d in %s", id, b.fn.Name))
	}
}

// Len is the current instruction count.
func (b *FuncBuilder) Len() int { return len(b.fn.Instrs) }

// Last returns the last emitted instruction, if any.
func (b *FuncBuilder) Last() (Instr, bool) {
	if len(b.fn.Instrs) == 0 {
		return Instr{}, false
	}
	return b.fn.Instrs[len(b.fn.Instrs)-1], true
}

// Emit appends instr after checking its payload against its kind.
func (b *FuncBuilder) Emit(instr Instr) int {
	b.mustOpen()
	switch instr.Kind {
	case InstrLoadLocal, InstrStoreLocal:
		if int(instr.Local) >= len(b.fn.Allocs) {
			panic(fmt.Sprintf("ir: %s of unknown slot %d in %s", instr.Kind, instr.Local, b.fn.Name))
		}
	case InstrLoadField, InstrStoreField:
		if instr.Field.Struct == nil || instr.Field.Index < 0 {
			panic(fmt.Sprintf("ir: %s without field reference in %s", instr.Kind, b.fn.Name))
		}
	case InstrJump, InstrJumpIfFalse, InstrLabel:
		b.checkLabel(instr.Label)
	case InstrCall:
		if instr.Call.Argc < 0 || (instr.Call.Mode != CallComputed && instr.Call.Callee == "") {
			panic(fmt.Sprintf("ir: malformed call in %s", b.fn.Name))
		}
	}
	b.fn.Instrs = append(b.fn.Instrs, instr)
	return len(b.fn.Instrs) - 1
}

func (b *FuncBuilder) EmitReturn(t types.Type) {
	b.Emit(Instr{Kind: InstrReturn, Type: t})
}

func (b *FuncBuilder) EmitLoadConst(c Const, t types.Type) {
	b.Emit(Instr{Kind: InstrLoadConst, Type: t, Const: c})
}

func (b *FuncBuilder) EmitLoadLocal(id LocalID) {
	b.Emit(Instr{Kind: InstrLoadLocal, Type: b.slotType(id), Local: id})
}

func (b *FuncBuilder) EmitStoreLocal(id LocalID) {
	b.Emit(Instr{Kind: InstrStoreLocal, Type: b.slotType(id), Local: id})
}

func (b *FuncBuilder) slotType(id LocalID) types.Type {
	if int(id) >= len(b.fn.Allocs) {
		panic(fmt.Sprintf("ir: unknown slot %d in %s", id, b.fn.Name))
	}
	return b.fn.Allocs[id].Type
}

func (b *FuncBuilder) EmitLoadField(ref FieldRef) {
	b.Emit(Instr{Kind: InstrLoadField, Type: fieldType(ref), Field: ref})
}

func (b *FuncBuilder) EmitStoreField(ref FieldRef) {
	b.Emit(Instr{Kind: InstrStoreField, Type: fieldType(ref), Field: ref})
}

func fieldType(ref FieldRef) types.Type {
	if ref.Struct == nil || ref.Index < 0 || ref.Index >= len(ref.Struct.Fields) {
		panic(fmt.Sprintf("ir: bad field reference %s", ref))
	}
	return ref.Struct.Fields[ref.Index].Type
}

func (b *FuncBuilder) EmitDup(t types.Type) {
	b.Emit(Instr{Kind: InstrDup, Type: t})
}

func (b *FuncBuilder) EmitPop(t types.Type) {
	b.Emit(Instr{Kind: InstrPop, Type: t})
}

// EmitOp emits a binary or unary operator over operands of type t.
func (b *FuncBuilder) EmitOp(kind InstrKind, t types.Type) {
	if !kind.IsBinary() && kind != InstrNot && kind != InstrNeg {
		panic(fmt.Sprintf("ir: %s is not an operator", kind))
	}
	b.Emit(Instr{Kind: kind, Type: t})
}

func (b *FuncBuilder) EmitCall(call CallInstr, result types.Type) {
	b.Emit(Instr{Kind: InstrCall, Type: result, Call: call})
}

func (b *FuncBuilder) EmitJump(id LabelID) {
	b.Emit(Instr{Kind: InstrJump, Type: types.Void, Label: id})
}

func (b *FuncBuilder) EmitJumpIfFalse(id LabelID) {
	b.Emit(Instr{Kind: InstrJumpIfFalse, Type: types.Bool, Label: id})
}

func (b *FuncBuilder) EmitLoadZero(t types.Type) {
	b.Emit(Instr{Kind: InstrLoadZero, Type: t})
}

func (b *FuncBuilder) EmitComment(text string) {
	b.Emit(Instr{Kind: InstrComment, Type: types.Void, Comment: text})
}

// EmitOptionalReturnVoid appends a Return to a void function whose stream
// does not already end in one.
func (b *FuncBuilder) EmitOptionalReturnVoid() {
	if !b.fn.Result.IsVoid() {
		return
	}
	if last, ok := b.Last(); ok && last.Kind == InstrReturn {
		return
	}
	b.EmitReturn(types.Void)
}

// Build freezes the function. Every label must have been located.
func (b *FuncBuilder) Build() *Func {
	b.mustOpen()
	for id, idx := range b.labels {
		if idx == unresolvedLabel {
			panic(fmt.Sprintf("ir: label #%d of %s never located", id, b.fn.Name))
		}
	}
	b.fn.Labels = b.labels
	b.built = true
	return b.fn
}

// BuildExtern freezes a body-less declaration.
func (b *FuncBuilder) BuildExtern() *Func {
	if len(b.fn.Instrs) != 0 {
		panic(fmt.Sprintf("ir: extern %s has a body", b.fn.Name))
	}
	f := b.Build()
	f.Extern = true
	return f
}
