package llvm

import (
	"errors"
	"fmt"

	llir "github.com/llir/llvm/ir"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"ember/internal/diag"
	"ember/internal/source"
)

// Verify checks the structure of an LLVM module: every block ends in a
// terminator, branches stay inside their function and test an i1, calls
// pass arguments of the callee's parameter types, binary operations and
// comparisons get operands of one type, stores write the pointee type,
// returns match the signature and function names are unique. Each problem is reported as BCK9001 when r is not nil;
// all of them are joined into the returned error.
func Verify(m *llir.Module, r diag.Reporter) error {
	var errs []error
	fail := func(format string, args ...any) {
		err := fmt.Errorf(format, args...)
		errs = append(errs, err)
		if r != nil {
			diag.ReportError(r, diag.BackendVerifyFailed, source.Span{}, err.Error()).Emit()
		}
	}
	seen := make(map[string]bool, len(m.Funcs))
	for _, f := range m.Funcs {
		name := f.Name()
		if seen[name] {
			fail("duplicate function @%s", name)
		}
		seen[name] = true
		verifyFunc(f, fail)
	}
	return errors.Join(errs...)
}

func verifyFunc(f *llir.Func, fail func(string, ...any)) {
	own := make(map[*llir.Block]bool, len(f.Blocks))
	for _, b := range f.Blocks {
		own[b] = true
	}
	for _, b := range f.Blocks {
		for _, inst := range b.Insts {
			verifyInst(f, b, inst, fail)
		}
		if b.Term == nil {
			fail("@%s: block %%%s has no terminator", f.Name(), b.Name())
			continue
		}
		for _, succ := range b.Term.Succs() {
			if !own[succ] {
				fail("@%s: block %%%s branches to %%%s outside the function", f.Name(), b.Name(), succ.Name())
			}
		}
		switch term := b.Term.(type) {
		case *llir.TermRet:
			verifyRet(f, b, term, fail)
		case *llir.TermCondBr:
			if !lltypes.Equal(term.Cond.Type(), lltypes.I1) {
				fail("@%s: block %%%s branches on %s, want i1", f.Name(), b.Name(), term.Cond.Type())
			}
		}
	}
}

func verifyRet(f *llir.Func, b *llir.Block, ret *llir.TermRet, fail func(string, ...any)) {
	want := f.Sig.RetType
	if ret.X == nil {
		if !lltypes.Equal(want, lltypes.Void) {
			fail("@%s: block %%%s returns void from a function returning %s", f.Name(), b.Name(), want)
		}
		return
	}
	if got := ret.X.Type(); !lltypes.Equal(got, want) {
		fail("@%s: block %%%s returns %s, want %s", f.Name(), b.Name(), got, want)
	}
}

func verifyInst(f *llir.Func, b *llir.Block, inst llir.Instruction, fail func(string, ...any)) {
	if x, y, op, ok := operands(inst); ok {
		if !lltypes.Equal(x.Type(), y.Type()) {
			fail("@%s: block %%%s: %s of %s and %s", f.Name(), b.Name(), op, x.Type(), y.Type())
		}
		return
	}
	switch inst := inst.(type) {
	case *llir.InstCall:
		verifyCall(f, inst, fail)
	case *llir.InstStore:
		ptr, ok := inst.Dst.Type().(*lltypes.PointerType)
		if !ok {
			fail("@%s: block %%%s: store to non-pointer %s", f.Name(), b.Name(), inst.Dst.Type())
			return
		}
		if !lltypes.Equal(ptr.ElemType, inst.Src.Type()) {
			fail("@%s: block %%%s: store of %s through %s", f.Name(), b.Name(), inst.Src.Type(), ptr)
		}
	}
}

// operands returns both sides of a binary operation or comparison.
func operands(inst llir.Instruction) (x, y value.Value, op string, ok bool) {
	switch inst := inst.(type) {
	case *llir.InstAdd:
		return inst.X, inst.Y, "add", true
	case *llir.InstSub:
		return inst.X, inst.Y, "sub", true
	case *llir.InstMul:
		return inst.X, inst.Y, "mul", true
	case *llir.InstSDiv:
		return inst.X, inst.Y, "sdiv", true
	case *llir.InstUDiv:
		return inst.X, inst.Y, "udiv", true
	case *llir.InstSRem:
		return inst.X, inst.Y, "srem", true
	case *llir.InstURem:
		return inst.X, inst.Y, "urem", true
	case *llir.InstFAdd:
		return inst.X, inst.Y, "fadd", true
	case *llir.InstFSub:
		return inst.X, inst.Y, "fsub", true
	case *llir.InstFMul:
		return inst.X, inst.Y, "fmul", true
	case *llir.InstFDiv:
		return inst.X, inst.Y, "fdiv", true
	case *llir.InstFRem:
		return inst.X, inst.Y, "frem", true
	case *llir.InstAnd:
		return inst.X, inst.Y, "and", true
	case *llir.InstOr:
		return inst.X, inst.Y, "or", true
	case *llir.InstXor:
		return inst.X, inst.Y, "xor", true
	case *llir.InstICmp:
		return inst.X, inst.Y, "icmp", true
	case *llir.InstFCmp:
		return inst.X, inst.Y, "fcmp", true
	}
	return nil, nil, "", false
}

func verifyCall(f *llir.Func, call *llir.InstCall, fail func(string, ...any)) {
	sig := calleeSig(call.Callee)
	if sig == nil {
		fail("@%s: call through a non-function value", f.Name())
		return
	}
	if len(call.Args) < len(sig.Params) || (!sig.Variadic && len(call.Args) != len(sig.Params)) {
		fail("@%s: call passes %d arguments to a function taking %d", f.Name(), len(call.Args), len(sig.Params))
		return
	}
	for i, want := range sig.Params {
		if got := call.Args[i].Type(); !lltypes.Equal(got, want) {
			fail("@%s: argument %d of a call is %s, want %s", f.Name(), i+1, got, want)
		}
	}
}

func calleeSig(callee value.Value) *lltypes.FuncType {
	if fn, ok := callee.(*llir.Func); ok {
		return fn.Sig
	}
	ptr, ok := callee.Type().(*lltypes.PointerType)
	if !ok {
		return nil
	}
	sig, _ := ptr.ElemType.(*lltypes.FuncType)
	return sig
}
