package c

import (
	"fmt"
	"regexp"
	"strings"

	"ember/internal/ir"
	"ember/internal/types"
)

// entry is one simulated operand: a C expression and its type.
type entry struct {
	expr string
	t    types.Type
}

type fnEmitter struct {
	*emitter
	f     *ir.Func
	stack []entry
	body  strings.Builder
}

var (
	simpleName = regexp.MustCompile(`^_t?[0-9]+$`)
	// memRead matches field reads; a callee may write through the same pointer.
	memRead = regexp.MustCompile(`->|\._[0-9]`)
)

var binarySyms = map[ir.InstrKind]string{
	ir.InstrAdd: "+",
	ir.InstrSub: "-",
	ir.InstrMul: "*",
	ir.InstrDiv: "/",
	ir.InstrMod: "%",
	ir.InstrEq:  "==",
	ir.InstrNe:  "!=",
	ir.InstrGt:  ">",
	ir.InstrLt:  "<",
	ir.InstrGe:  ">=",
	ir.InstrLe:  "<=",
	ir.InstrAnd: "&&",
	ir.InstrOr:  "||",
}

func (e *emitter) function(f *ir.Func, proto string) (string, error) {
	fe := &fnEmitter{emitter: e, f: f}
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n%s {\n", proto)
	for i := len(f.Params); i < len(f.Allocs); i++ {
		a := f.Allocs[i]
		ct, err := e.cType(a.Type)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "    %s %s = %s; /* %s %s */\n", ct, slotName(i), zeroInit(a.Type), a.Name, a.Attr)
	}
	for i := range f.Instrs {
		if err := fe.instr(i, &f.Instrs[i]); err != nil {
			return "", fmt.Errorf("L%d %s: %w", i, f.Instrs[i].Kind, err)
		}
	}
	sb.WriteString(fe.body.String())
	sb.WriteString("}\n")
	return sb.String(), nil
}

func (fe *fnEmitter) line(format string, args ...any) {
	fe.body.WriteString("    ")
	fmt.Fprintf(&fe.body, format, args...)
	fe.body.WriteByte('\n')
}

func (fe *fnEmitter) push(expr string, t types.Type) {
	fe.stack = append(fe.stack, entry{expr: expr, t: t})
}

func (fe *fnEmitter) pop() (entry, error) {
	if len(fe.stack) == 0 {
		return entry{}, fmt.Errorf("operand stack underflow")
	}
	top := fe.stack[len(fe.stack)-1]
	fe.stack = fe.stack[:len(fe.stack)-1]
	return top, nil
}

func (fe *fnEmitter) popN(n int) ([]entry, error) {
	if len(fe.stack) < n {
		return nil, fmt.Errorf("operand stack underflow: need %d, have %d", n, len(fe.stack))
	}
	out := append([]entry(nil), fe.stack[len(fe.stack)-n:]...)
	fe.stack = fe.stack[:len(fe.stack)-n]
	return out, nil
}

// temp declares a fresh temporary initialised with init.
func (fe *fnEmitter) temp(t types.Type, init string) (string, error) {
	ct, err := fe.cType(t)
	if err != nil {
		return "", err
	}
	fe.temps++
	name := fmt.Sprintf("_t%d", fe.temps)
	fe.line("%s %s = %s;", ct, name, init)
	return name, nil
}

func (fe *fnEmitter) target(id ir.LabelID) string {
	return fmt.Sprintf("L_%d", fe.f.LabelIndex(id))
}

func member(recv entry, idx int) string {
	sep := "."
	if recv.t.Kind == types.KindPointer {
		sep = "->"
	}
	return recv.expr + sep + slotName(idx)
}

func (fe *fnEmitter) instr(idx int, in *ir.Instr) error {
	switch in.Kind {
	case ir.InstrLoadConst:
		expr, err := fe.constExpr(in.Const, in.Type)
		if err != nil {
			return err
		}
		fe.push(expr, in.Type)
	case ir.InstrLoadLocal:
		fe.push(slotName(int(in.Local)), fe.f.Allocs[in.Local].Type)
	case ir.InstrStoreLocal:
		v, err := fe.pop()
		if err != nil {
			return err
		}
		fe.line("%s = %s;", slotName(int(in.Local)), v.expr)
	case ir.InstrLoadField:
		recv, err := fe.pop()
		if err != nil {
			return err
		}
		fe.push(member(recv, in.Field.Index), in.Type)
	case ir.InstrStoreField:
		vals, err := fe.popN(2)
		if err != nil {
			return err
		}
		fe.line("%s = %s;", member(vals[0], in.Field.Index), vals[1].expr)
	case ir.InstrDup:
		top, err := fe.pop()
		if err != nil {
			return err
		}
		if !simpleName.MatchString(top.expr) {
			name, err := fe.temp(top.t, top.expr)
			if err != nil {
				return err
			}
			top.expr = name
		}
		fe.push(top.expr, top.t)
		fe.push(top.expr, top.t)
	case ir.InstrPop:
		if _, err := fe.pop(); err != nil {
			return err
		}
	case ir.InstrNot, ir.InstrNeg:
		x, err := fe.pop()
		if err != nil {
			return err
		}
		op := "!"
		if in.Kind == ir.InstrNeg {
			op = "-"
		}
		fe.push(fmt.Sprintf("(%s%s)", op, x.expr), x.t)
	case ir.InstrLoadZero:
		name, err := fe.temp(in.Type, zeroInit(in.Type))
		if err != nil {
			return err
		}
		fe.push(name, in.Type)
	case ir.InstrCall:
		return fe.call(in)
	case ir.InstrJump:
		if err := fe.settled(idx); err != nil {
			return err
		}
		fe.line("goto %s;", fe.target(in.Label))
	case ir.InstrJumpIfFalse:
		cond, err := fe.pop()
		if err != nil {
			return err
		}
		if err := fe.settled(idx); err != nil {
			return err
		}
		fe.line("if (!(%s)) goto %s;", cond.expr, fe.target(in.Label))
	case ir.InstrLabel:
		if err := fe.settled(idx); err != nil {
			return err
		}
		fmt.Fprintf(&fe.body, "L_%d:;\n", idx)
	case ir.InstrReturn:
		if in.Type.IsVoid() {
			fe.line("return;")
			return nil
		}
		v, err := fe.pop()
		if err != nil {
			return err
		}
		fe.line("return %s;", v.expr)
	case ir.InstrComment:
		fe.line("/* %s */", strings.ReplaceAll(in.Comment, "*/", "* /"))
	default:
		if in.Kind.IsBinary() {
			return fe.binary(in)
		}
		return fmt.Errorf("implement %s in c backend", in.Kind)
	}
	return nil
}

// settled checks that no operand crosses a control transfer; lowering never
// leaves values on the stack between statements.
func (fe *fnEmitter) settled(idx int) error {
	if len(fe.stack) != 0 {
		return fmt.Errorf("implement operands live across L%d in c backend", idx)
	}
	return nil
}

func (fe *fnEmitter) binary(in *ir.Instr) error {
	vals, err := fe.popN(2)
	if err != nil {
		return err
	}
	x, y := vals[0], vals[1]
	result := x.t
	if in.Kind.IsCompare() || in.Kind == ir.InstrAnd || in.Kind == ir.InstrOr {
		result = types.Bool
	}
	switch {
	case in.Kind == ir.InstrMod && x.t.Kind.IsFloat():
		fn := "fmod"
		if x.t.Kind == types.KindF32 {
			fn = "fmodf"
		}
		fe.push(fmt.Sprintf("%s(%s, %s)", fn, x.expr, y.expr), result)
		return nil
	case x.t.Kind == types.KindString && (in.Kind == ir.InstrEq || in.Kind == ir.InstrNe):
		fe.push(fmt.Sprintf("(strcmp(%s, %s) %s 0)", x.expr, y.expr, binarySyms[in.Kind]), result)
		return nil
	case x.t.Kind == types.KindStruct || x.t.Kind == types.KindArray || x.t.Kind == types.KindOption || x.t.Kind == types.KindErrUnion:
		return fmt.Errorf("implement %s on %s in c backend", in.Kind, x.t)
	}
	fe.push(fmt.Sprintf("(%s %s %s)", x.expr, binarySyms[in.Kind], y.expr), result)
	return nil
}

func (fe *fnEmitter) call(in *ir.Instr) error {
	args, err := fe.popN(in.Call.Argc)
	if err != nil {
		return err
	}
	var callee string
	switch in.Call.Mode {
	case ir.CallDirect:
		callee = fe.funcName(in.Call.Callee)
	case ir.CallInstance:
		recv, err := fe.pop()
		if err != nil {
			return err
		}
		args = append([]entry{recv}, args...)
		callee = fe.funcName(in.Call.Callee)
	case ir.CallComputed:
		fn, err := fe.pop()
		if err != nil {
			return err
		}
		callee = "(" + fn.expr + ")"
	default:
		return fmt.Errorf("implement %s call in c backend", in.Call.Mode)
	}
	if err := fe.spill(); err != nil {
		return err
	}
	list := make([]string, len(args))
	for i, a := range args {
		list[i] = a.expr
	}
	expr := fmt.Sprintf("%s(%s)", callee, strings.Join(list, ", "))
	if in.Type.IsVoid() {
		fe.line("%s;", expr)
		return nil
	}
	name, err := fe.temp(in.Type, expr)
	if err != nil {
		return err
	}
	fe.push(name, in.Type)
	return nil
}

// spill materialises pending field reads before a call so they observe
// memory as it was when the operand was evaluated.
func (fe *fnEmitter) spill() error {
	for i, en := range fe.stack {
		if !memRead.MatchString(en.expr) {
			continue
		}
		name, err := fe.temp(en.t, en.expr)
		if err != nil {
			return err
		}
		fe.stack[i].expr = name
	}
	return nil
}
