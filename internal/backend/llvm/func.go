package llvm

import (
	"fmt"
	"math"

	llir "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"ember/internal/ir"
	"ember/internal/types"
)

// operand is one simulated stack entry. Aggregates that may be updated in
// place carry a place (a pointer to their storage) instead of a value.
type operand struct {
	v     value.Value
	place value.Value
	t     types.Type
}

type fnEmitter struct {
	*emitter
	f  *ir.Func
	fn *llir.Func

	entry  *llir.Block
	cur    *llir.Block // nil после терминатора
	labels map[int]*llir.Block

	slots []value.Value // alloca для изменяемых слотов
	ssa   []value.Value // текущее значение неизменяемых слотов
	stack []operand
}

func (e *emitter) function(f *ir.Func) error {
	fe := &fnEmitter{
		emitter: e,
		f:       f,
		fn:      e.funcs[f.Name],
		labels:  make(map[int]*llir.Block),
		slots:   make([]value.Value, len(f.Allocs)),
		ssa:     make([]value.Value, len(f.Allocs)),
	}
	fe.entry = fe.fn.NewBlock("bb.entry")
	fe.cur = fe.entry
	if err := fe.bindSlots(); err != nil {
		return err
	}
	for _, idx := range f.Labels {
		fe.labels[idx] = llir.NewBlock(fmt.Sprintf("bb.L%d", idx))
	}
	for i := range f.Instrs {
		if err := fe.instr(i, &f.Instrs[i]); err != nil {
			return fmt.Errorf("L%d %s: %w", i, f.Instrs[i].Kind, err)
		}
	}
	if fe.cur != nil && fe.cur.Term == nil {
		if f.Result.IsVoid() {
			fe.cur.NewRet(nil)
		} else {
			fe.cur.NewUnreachable()
		}
	}
	return nil
}

// bindSlots gives mutable and hidden slots stack storage in the entry
// block and binds parameters to their slots.
func (fe *fnEmitter) bindSlots() error {
	for i, a := range fe.f.Allocs {
		isParam := i < len(fe.f.Params)
		if a.Attr == ir.AllocImmutable {
			if isParam {
				fe.ssa[i] = fe.fn.Params[i]
			}
			continue
		}
		lt, err := fe.llType(a.Type)
		if err != nil {
			return err
		}
		slot := fe.entry.NewAlloca(lt)
		slot.SetName(fmt.Sprintf("%s.%d", a.Name, i))
		fe.slots[i] = slot
		if isParam {
			fe.entry.NewStore(fe.fn.Params[i], slot)
			continue
		}
		z, err := fe.zero(a.Type)
		if err != nil {
			return err
		}
		fe.entry.NewStore(z, slot)
	}
	return nil
}

func (fe *fnEmitter) zero(t types.Type) (value.Value, error) {
	lt, err := fe.llType(t)
	if err != nil {
		return nil, err
	}
	switch typ := lt.(type) {
	case *lltypes.IntType:
		return constant.NewInt(typ, 0), nil
	case *lltypes.FloatType:
		return constant.NewFloat(typ, 0), nil
	case *lltypes.PointerType:
		return constant.NewNull(typ), nil
	}
	return constant.NewZeroInitializer(lt), nil
}

// block returns the insertion block, opening an unreachable one after a
// terminator.
func (fe *fnEmitter) block(idx int) *llir.Block {
	if fe.cur == nil {
		fe.cur = fe.fn.NewBlock(fmt.Sprintf("bb.dead%d", idx))
	}
	return fe.cur
}

func (fe *fnEmitter) place(b *llir.Block) {
	b.Parent = fe.fn
	fe.fn.Blocks = append(fe.fn.Blocks, b)
}

func (fe *fnEmitter) push(v value.Value, t types.Type) {
	fe.stack = append(fe.stack, operand{v: v, t: t})
}

func (fe *fnEmitter) pop() (operand, error) {
	if len(fe.stack) == 0 {
		return operand{}, fmt.Errorf("operand stack underflow")
	}
	top := fe.stack[len(fe.stack)-1]
	fe.stack = fe.stack[:len(fe.stack)-1]
	return top, nil
}

func (fe *fnEmitter) popN(n int) ([]operand, error) {
	if len(fe.stack) < n {
		return nil, fmt.Errorf("operand stack underflow: need %d, have %d", n, len(fe.stack))
	}
	out := append([]operand(nil), fe.stack[len(fe.stack)-n:]...)
	fe.stack = fe.stack[:len(fe.stack)-n]
	return out, nil
}

// value reads an operand; places are loaded at the point of use.
func (fe *fnEmitter) value(b *llir.Block, o operand) (value.Value, error) {
	if o.place == nil {
		return o.v, nil
	}
	lt, err := fe.llType(o.t)
	if err != nil {
		return nil, err
	}
	return b.NewLoad(lt, o.place), nil
}

func (fe *fnEmitter) settled(idx int) error {
	if len(fe.stack) != 0 {
		return fmt.Errorf("implement operands live across L%d in llvm backend", idx)
	}
	return nil
}

func (fe *fnEmitter) instr(idx int, in *ir.Instr) error {
	if in.Kind == ir.InstrLabel {
		if err := fe.settled(idx); err != nil {
			return err
		}
		target := fe.labels[idx]
		if target == fe.cur {
			return nil
		}
		if fe.cur != nil && fe.cur.Term == nil {
			fe.cur.NewBr(target)
		}
		fe.place(target)
		fe.cur = target
		return nil
	}
	if in.Kind == ir.InstrComment {
		return nil
	}
	b := fe.block(idx)
	switch in.Kind {
	case ir.InstrLoadConst:
		v, err := fe.constant(b, in.Const, in.Type)
		if err != nil {
			return err
		}
		fe.push(v, in.Type)
	case ir.InstrLoadLocal:
		return fe.loadLocal(b, in.Local)
	case ir.InstrStoreLocal:
		o, err := fe.pop()
		if err != nil {
			return err
		}
		v, err := fe.value(b, o)
		if err != nil {
			return err
		}
		if slot := fe.slots[in.Local]; slot != nil {
			b.NewStore(v, slot)
			return nil
		}
		fe.ssa[in.Local] = v
	case ir.InstrLoadField:
		return fe.loadField(b, in)
	case ir.InstrStoreField:
		return fe.storeField(b, in)
	case ir.InstrDup:
		top, err := fe.pop()
		if err != nil {
			return err
		}
		fe.stack = append(fe.stack, top, top)
	case ir.InstrPop:
		if _, err := fe.pop(); err != nil {
			return err
		}
	case ir.InstrLoadZero:
		z, err := fe.zero(in.Type)
		if err != nil {
			return err
		}
		if in.Type.Kind != types.KindStruct {
			fe.push(z, in.Type)
			return nil
		}
		lt, err := fe.llType(in.Type)
		if err != nil {
			return err
		}
		tmp := fe.entry.NewAlloca(lt)
		b.NewStore(z, tmp)
		fe.stack = append(fe.stack, operand{place: tmp, t: in.Type})
	case ir.InstrNot:
		x, err := fe.pop()
		if err != nil {
			return err
		}
		fe.push(b.NewXor(x.v, constant.True), types.Bool)
	case ir.InstrNeg:
		x, err := fe.pop()
		if err != nil {
			return err
		}
		if x.t.Kind.IsFloat() {
			fe.push(b.NewFNeg(x.v), x.t)
			return nil
		}
		lt, err := fe.llType(x.t)
		if err != nil {
			return err
		}
		it, ok := lt.(*lltypes.IntType)
		if !ok {
			return fmt.Errorf("implement neg on %s in llvm backend", x.t)
		}
		fe.push(b.NewSub(constant.NewInt(it, 0), x.v), x.t)
	case ir.InstrCall:
		return fe.call(b, in)
	case ir.InstrJump:
		if err := fe.settled(idx); err != nil {
			return err
		}
		b.NewBr(fe.target(in.Label))
		fe.cur = nil
	case ir.InstrJumpIfFalse:
		cond, err := fe.pop()
		if err != nil {
			return err
		}
		if err := fe.settled(idx); err != nil {
			return err
		}
		next, ok := fe.labels[idx+1]
		if !ok {
			next = llir.NewBlock(fmt.Sprintf("bb.%d", idx+1))
			fe.place(next)
		}
		b.NewCondBr(cond.v, next, fe.target(in.Label))
		if ok {
			fe.place(next)
		}
		fe.cur = next
	case ir.InstrReturn:
		if in.Type.IsVoid() {
			b.NewRet(nil)
			fe.cur = nil
			return nil
		}
		o, err := fe.pop()
		if err != nil {
			return err
		}
		v, err := fe.value(b, o)
		if err != nil {
			return err
		}
		b.NewRet(v)
		fe.cur = nil
	default:
		if in.Kind.IsBinary() {
			return fe.binary(b, in)
		}
		return fmt.Errorf("implement %s in llvm backend", in.Kind)
	}
	return nil
}

func (fe *fnEmitter) target(id ir.LabelID) *llir.Block {
	return fe.labels[fe.f.LabelIndex(id)]
}

func (fe *fnEmitter) loadLocal(b *llir.Block, id ir.LocalID) error {
	t := fe.f.Allocs[id].Type
	slot := fe.slots[id]
	if slot == nil {
		v := fe.ssa[id]
		if v == nil {
			z, err := fe.zero(t)
			if err != nil {
				return err
			}
			v = z
		}
		fe.push(v, t)
		return nil
	}
	if t.Kind == types.KindStruct {
		fe.stack = append(fe.stack, operand{place: slot, t: t})
		return nil
	}
	lt, err := fe.llType(t)
	if err != nil {
		return err
	}
	fe.push(b.NewLoad(lt, slot), t)
	return nil
}

// fieldPtr addresses field idx through a pointer receiver or a place.
func (fe *fnEmitter) fieldPtr(b *llir.Block, recv operand, idx int) (value.Value, bool, error) {
	base, st := recv.place, recv.t
	if recv.t.Kind == types.KindPointer && recv.t.Elem != nil {
		base, st = recv.v, *recv.t.Elem
	}
	if base == nil {
		return nil, false, nil
	}
	if st.Struct == nil {
		return nil, false, fmt.Errorf("implement field access on %s in llvm backend", recv.t)
	}
	lst, err := fe.structType(st.Struct)
	if err != nil {
		return nil, false, err
	}
	ptr := b.NewGetElementPtr(lst, base,
		constant.NewInt(lltypes.I32, 0),
		constant.NewInt(lltypes.I32, int64(idx)))
	return ptr, true, nil
}

func (fe *fnEmitter) loadField(b *llir.Block, in *ir.Instr) error {
	recv, err := fe.pop()
	if err != nil {
		return err
	}
	ptr, ok, err := fe.fieldPtr(b, recv, in.Field.Index)
	if err != nil {
		return err
	}
	if !ok {
		fe.push(b.NewExtractValue(recv.v, uint64(in.Field.Index)), in.Type)
		return nil
	}
	// вложенная структура остаётся местом, чтобы store_field дошёл до неё
	if in.Type.Kind == types.KindStruct {
		fe.stack = append(fe.stack, operand{place: ptr, t: in.Type})
		return nil
	}
	lt, err := fe.llType(in.Type)
	if err != nil {
		return err
	}
	fe.push(b.NewLoad(lt, ptr), in.Type)
	return nil
}

func (fe *fnEmitter) storeField(b *llir.Block, in *ir.Instr) error {
	vals, err := fe.popN(2)
	if err != nil {
		return err
	}
	ptr, ok, err := fe.fieldPtr(b, vals[0], in.Field.Index)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("implement store_field on a %s value in llvm backend", vals[0].t)
	}
	v, err := fe.value(b, vals[1])
	if err != nil {
		return err
	}
	b.NewStore(v, ptr)
	return nil
}

func (fe *fnEmitter) constant(b *llir.Block, c ir.Const, t types.Type) (value.Value, error) {
	switch c.Kind {
	case ir.ConstInt:
		lt, err := fe.llType(t)
		if err != nil {
			return nil, err
		}
		switch typ := lt.(type) {
		case *lltypes.IntType:
			if c.Int >= 0 || !t.Kind.IsSigned() || c.Int == math.MinInt64 {
				return constant.NewInt(typ, c.Int), nil
			}
			return b.NewSub(constant.NewInt(typ, 0), constant.NewInt(typ, -c.Int)), nil
		case *lltypes.FloatType:
			return constant.NewFloat(typ, float64(c.Int)), nil
		}
		return nil, fmt.Errorf("implement int constant of %s in llvm backend", t)
	case ir.ConstFloat:
		ft := lltypes.Double
		if t.Kind == types.KindF32 {
			ft = lltypes.Float
		}
		return constant.NewFloat(ft, c.Float), nil
	case ir.ConstBool:
		return constant.NewBool(c.Bool), nil
	case ir.ConstChar:
		return constant.NewInt(lltypes.I32, int64(c.Char)), nil
	case ir.ConstString:
		return fe.stringConst(c.Str), nil
	case ir.ConstFunc:
		fn, ok := fe.funcs[c.Str]
		if !ok {
			return nil, fmt.Errorf("unknown function %s", c.Str)
		}
		return fn, nil
	}
	return nil, fmt.Errorf("implement constant kind %d in llvm backend", c.Kind)
}

func (fe *fnEmitter) call(b *llir.Block, in *ir.Instr) error {
	ops, err := fe.popN(in.Call.Argc)
	if err != nil {
		return err
	}
	var callee value.Value
	switch in.Call.Mode {
	case ir.CallDirect, ir.CallInstance:
		fn, ok := fe.funcs[in.Call.Callee]
		if !ok {
			return fmt.Errorf("unknown function %s", in.Call.Callee)
		}
		callee = fn
		if in.Call.Mode == ir.CallInstance {
			recv, err := fe.pop()
			if err != nil {
				return err
			}
			ops = append([]operand{recv}, ops...)
		}
	case ir.CallComputed:
		fn, err := fe.pop()
		if err != nil {
			return err
		}
		callee = fn.v
	default:
		return fmt.Errorf("implement %s call in llvm backend", in.Call.Mode)
	}
	args := make([]value.Value, len(ops))
	for i, o := range ops {
		if args[i], err = fe.value(b, o); err != nil {
			return err
		}
	}
	// места под аргументами читаются до вызова
	for i, o := range fe.stack {
		if o.place == nil {
			continue
		}
		v, err := fe.value(b, o)
		if err != nil {
			return err
		}
		fe.stack[i] = operand{v: v, t: o.t}
	}
	res := b.NewCall(callee, args...)
	if !in.Type.IsVoid() {
		fe.push(res, in.Type)
	}
	return nil
}

var (
	signedPreds = map[ir.InstrKind]enum.IPred{
		ir.InstrEq: enum.IPredEQ, ir.InstrNe: enum.IPredNE,
		ir.InstrGt: enum.IPredSGT, ir.InstrLt: enum.IPredSLT,
		ir.InstrGe: enum.IPredSGE, ir.InstrLe: enum.IPredSLE,
	}
	unsignedPreds = map[ir.InstrKind]enum.IPred{
		ir.InstrEq: enum.IPredEQ, ir.InstrNe: enum.IPredNE,
		ir.InstrGt: enum.IPredUGT, ir.InstrLt: enum.IPredULT,
		ir.InstrGe: enum.IPredUGE, ir.InstrLe: enum.IPredULE,
	}
	floatPreds = map[ir.InstrKind]enum.FPred{
		ir.InstrEq: enum.FPredOEQ, ir.InstrNe: enum.FPredUNE,
		ir.InstrGt: enum.FPredOGT, ir.InstrLt: enum.FPredOLT,
		ir.InstrGe: enum.FPredOGE, ir.InstrLe: enum.FPredOLE,
	}
)

func (fe *fnEmitter) binary(b *llir.Block, in *ir.Instr) error {
	vals, err := fe.popN(2)
	if err != nil {
		return err
	}
	xo, yo := vals[0], vals[1]
	t := xo.t
	switch t.Kind {
	case types.KindStruct, types.KindArray, types.KindOption, types.KindErrUnion:
		return fmt.Errorf("implement %s on %s in llvm backend", in.Kind, t)
	}
	x, y := xo.v, yo.v
	if in.Kind.IsCompare() {
		var res value.Value
		switch {
		case t.Kind.IsFloat():
			res = b.NewFCmp(floatPreds[in.Kind], x, y)
		case t.Kind == types.KindString && (in.Kind == ir.InstrEq || in.Kind == ir.InstrNe):
			cmp := b.NewCall(fe.strcmpFunc(), x, y)
			res = b.NewICmp(signedPreds[in.Kind], cmp, constant.NewInt(lltypes.I32, 0))
		case t.Kind.IsSigned():
			res = b.NewICmp(signedPreds[in.Kind], x, y)
		default:
			res = b.NewICmp(unsignedPreds[in.Kind], x, y)
		}
		fe.push(res, types.Bool)
		return nil
	}
	var res value.Value
	float, signed := t.Kind.IsFloat(), t.Kind.IsSigned()
	switch in.Kind {
	case ir.InstrAnd:
		fe.push(b.NewAnd(x, y), types.Bool)
		return nil
	case ir.InstrOr:
		fe.push(b.NewOr(x, y), types.Bool)
		return nil
	case ir.InstrAdd:
		if float {
			res = b.NewFAdd(x, y)
		} else {
			res = b.NewAdd(x, y)
		}
	case ir.InstrSub:
		if float {
			res = b.NewFSub(x, y)
		} else {
			res = b.NewSub(x, y)
		}
	case ir.InstrMul:
		if float {
			res = b.NewFMul(x, y)
		} else {
			res = b.NewMul(x, y)
		}
	case ir.InstrDiv:
		switch {
		case float:
			res = b.NewFDiv(x, y)
		case signed:
			res = b.NewSDiv(x, y)
		default:
			res = b.NewUDiv(x, y)
		}
	case ir.InstrMod:
		switch {
		case float:
			res = b.NewFRem(x, y)
		case signed:
			res = b.NewSRem(x, y)
		default:
			res = b.NewURem(x, y)
		}
	default:
		return fmt.Errorf("implement %s in llvm backend", in.Kind)
	}
	fe.push(res, t)
	return nil
}
