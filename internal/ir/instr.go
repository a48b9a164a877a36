package ir

import (
	"fmt"

	"ember/internal/types"
)

// InstrKind enumerates instruction kinds of the stack machine.
type InstrKind uint8

const (
	InstrReturn InstrKind = iota
	InstrLoadConst
	InstrLoadLocal
	InstrStoreLocal
	InstrLoadField
	InstrStoreField
	InstrDup
	InstrPop
	InstrAdd
	InstrSub
	InstrMul
	InstrDiv
	InstrMod
	InstrEq
	InstrNe
	InstrGt
	InstrLt
	InstrGe
	InstrLe
	InstrAnd
	InstrOr
	InstrNot
	InstrNeg
	InstrCall
	InstrJump
	InstrJumpIfFalse
	InstrLabel
	InstrLoadZero
	InstrComment
)

var instrNames = [...]string{
	InstrReturn:      "return",
	InstrLoadConst:   "load_const",
	InstrLoadLocal:   "load_local",
	InstrStoreLocal:  "store_local",
	InstrLoadField:   "load_field",
	InstrStoreField:  "store_field",
	InstrDup:         "dup",
	InstrPop:         "pop",
	InstrAdd:         "add",
	InstrSub:         "sub",
	InstrMul:         "mul",
	InstrDiv:         "div",
	InstrMod:         "mod",
	InstrEq:          "eq",
	InstrNe:          "ne",
	InstrGt:          "gt",
	InstrLt:          "lt",
	InstrGe:          "ge",
	InstrLe:          "le",
	InstrAnd:         "and",
	InstrOr:          "or",
	InstrNot:         "not",
	InstrNeg:         "neg",
	InstrCall:        "call",
	InstrJump:        "jump",
	InstrJumpIfFalse: "jump_if_false",
	InstrLabel:       "label",
	InstrLoadZero:    "load_zero",
	InstrComment:     "comment",
}

func (k InstrKind) String() string {
	if int(k) < len(instrNames) {
		return instrNames[k]
	}
	return fmt.Sprintf("InstrKind(%d)", k)
}

// IsBinary reports two-operand arithmetic, comparison and logical kinds.
func (k InstrKind) IsBinary() bool {
	return k >= InstrAdd && k <= InstrOr
}

// IsCompare reports comparison kinds; they always produce bool.
func (k InstrKind) IsCompare() bool {
	return k >= InstrEq && k <= InstrLe
}

// Instr is one stack-machine instruction. Kind selects which payload field
// is meaningful; the others stay zero:
//
//	LoadConst               Const
//	LoadLocal, StoreLocal   Local
//	LoadField, StoreField   Field
//	Call                    Call
//	Jump, JumpIfFalse,Label Label
//	Comment                 Comment
//
// Type is the type of the produced value (result type for Call, returned
// type for Return, zero-initialised type for LoadZero, operand type for
// binary ops). Control instructions carry void.
type Instr struct {
	Kind InstrKind
	Type types.Type

	Const   Const
	Local   LocalID
	Field   FieldRef
	Call    CallInstr
	Label   LabelID
	Comment string
}

// ConstKind tags the literal carried by LoadConst.
type ConstKind uint8

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstBool
	ConstChar
	ConstString
	ConstFunc // ссылка на функцию по имени, Str
)

// Const is a compile-time literal.
type Const struct {
	Kind  ConstKind
	Int   int64
	Float float64
	Bool  bool
	Char  rune
	Str   string
}

func (c Const) String() string {
	switch c.Kind {
	case ConstInt:
		return fmt.Sprintf("%d", c.Int)
	case ConstFloat:
		return fmt.Sprintf("%g", c.Float)
	case ConstBool:
		return fmt.Sprintf("%t", c.Bool)
	case ConstChar:
		return fmt.Sprintf("%q", c.Char)
	case ConstString:
		return fmt.Sprintf("%q", c.Str)
	case ConstFunc:
		return "@" + c.Str
	}
	return "?"
}

// FieldRef addresses a struct field positionally.
type FieldRef struct {
	Struct *types.Struct
	Index  int
}

func (f FieldRef) String() string {
	name := "?"
	if f.Struct != nil {
		name = f.Struct.Name
	}
	return fmt.Sprintf("%s.%d", name, f.Index)
}

// CallMode says what sits on the stack below the arguments.
type CallMode uint8

const (
	// CallDirect: only the arguments.
	CallDirect CallMode = iota
	// CallInstance: the receiver, then the arguments.
	CallInstance
	// CallComputed: the callee value, then the arguments.
	CallComputed
)

func (m CallMode) String() string {
	switch m {
	case CallInstance:
		return "instance"
	case CallComputed:
		return "computed"
	}
	return "direct"
}

// CallInstr describes a call. Argc excludes the receiver and the callee value.
type CallInstr struct {
	Callee string // пусто для computed
	Mode   CallMode
	Argc   int
}

// StackEffect reports how many values instr pops and pushes.
func StackEffect(instr *Instr) (pops, pushes int) {
	switch instr.Kind {
	case InstrReturn:
		if instr.Type.IsVoid() {
			return 0, 0
		}
		return 1, 0
	case InstrLoadConst, InstrLoadLocal, InstrLoadZero:
		return 0, 1
	case InstrStoreLocal, InstrPop, InstrJumpIfFalse:
		return 1, 0
	case InstrLoadField, InstrNot, InstrNeg:
		return 1, 1
	case InstrStoreField:
		return 2, 0
	case InstrDup:
		return 1, 2
	case InstrCall:
		pops = instr.Call.Argc
		if instr.Call.Mode != CallDirect {
			pops++
		}
		if instr.Type.IsVoid() {
			return pops, 0
		}
		return pops, 1
	case InstrJump, InstrLabel, InstrComment:
		return 0, 0
	}
	if instr.Kind.IsBinary() {
		return 2, 1
	}
	panic(fmt.Sprintf("ir: no stack effect for %s", instr.Kind))
}

// String renders one instruction the way the text dump prints it.
func (instr *Instr) String() string {
	switch instr.Kind {
	case InstrLoadConst:
		return fmt.Sprintf("%s %s %s", instr.Kind, instr.Type, instr.Const)
	case InstrLoadLocal, InstrStoreLocal:
		return fmt.Sprintf("%s %d", instr.Kind, instr.Local)
	case InstrLoadField:
		return fmt.Sprintf("%s %s %s", instr.Kind, instr.Field, instr.Type)
	case InstrStoreField:
		return fmt.Sprintf("%s %s", instr.Kind, instr.Field)
	case InstrCall:
		callee := instr.Call.Callee
		if callee == "" {
			callee = "<computed>"
		}
		return fmt.Sprintf("%s %s %s/%d %s", instr.Kind, instr.Call.Mode, callee, instr.Call.Argc, instr.Type)
	case InstrJump, InstrJumpIfFalse:
		return fmt.Sprintf("%s #%d", instr.Kind, instr.Label)
	case InstrLabel:
		return fmt.Sprintf("%s #%d", instr.Kind, instr.Label)
	case InstrComment:
		return fmt.Sprintf("; %s", instr.Comment)
	case InstrReturn:
		if instr.Type.IsVoid() {
			return instr.Kind.String()
		}
		return fmt.Sprintf("%s %s", instr.Kind, instr.Type)
	case InstrLoadZero, InstrDup, InstrPop:
		return fmt.Sprintf("%s %s", instr.Kind, instr.Type)
	}
	return fmt.Sprintf("%s %s", instr.Kind, instr.Type)
}
