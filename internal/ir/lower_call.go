package ir

import (
	"fmt"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/source"
	"ember/internal/symbols"
	"ember/internal/types"
)

// callTarget is a resolved callee.
type callTarget struct {
	mode CallMode
	name string
	sig  *types.FuncSig
	recv *ast.Expr // instance: receiver pushed before the arguments
	fn   *ast.Expr // computed: callee value pushed before the arguments
}

// callError is a callee that cannot be called. A zero code means the
// problem was already reported.
type callError struct {
	code diag.Code
	msg  string
}

func (e *callError) Error() string { return e.msg }

func callErr(code diag.Code, format string, args ...any) *callError {
	return &callError{code: code, msg: fmt.Sprintf(format, args...)}
}

var errSilent = &callError{}

// callTarget classifies the callee of call without emitting code:
//   - a name of a function is a direct call;
//   - `base.m` is an instance call of the receiver struct's method m, or of
//     a free function m taking the receiver first; `S.m` on a struct name is
//     a direct call of the method;
//   - anything else of function type (locals, fields, call results) is a
//     computed call.
func (fl *funcLowerer) callTarget(call *ast.Expr) (callTarget, *callError) {
	callee := call.X
	if callee == nil {
		return callTarget{}, callErr(diag.InputBadTree, "call without callee")
	}
	switch callee.Kind {
	case ast.ExprIdent:
		if bnd, ok := fl.lookup(callee.Name); ok {
			if bnd.kind == bindPoison {
				return callTarget{}, errSilent
			}
			return computed(callee, bnd.t)
		}
		sym, ok := fl.table.Lookup(callee.Name)
		if !ok {
			return callTarget{}, callErr(diag.SemaUndeclaredFunc, "undeclared function '%s'", callee.Name)
		}
		if sym.Kind != symbols.SymbolFunction {
			return callTarget{}, callErr(diag.SemaNotCallable, "'%s' is a %s and cannot be called", callee.Name, sym.Kind)
		}
		return callTarget{mode: CallDirect, name: sym.Name, sig: sym.Sig}, nil
	case ast.ExprMember:
		return fl.memberCallTarget(callee)
	}
	t, ok := fl.typeOf(callee)
	if !ok {
		return callTarget{}, callErr(diag.SemaNotCallable, "expression cannot be called")
	}
	return computed(callee, t)
}

func computed(callee *ast.Expr, t types.Type) (callTarget, *callError) {
	if poisoned(t) {
		return callTarget{}, errSilent
	}
	if t.Kind != types.KindFunc || t.Func == nil {
		return callTarget{}, callErr(diag.SemaNotCallable, "value of type %s cannot be called", t)
	}
	return callTarget{mode: CallComputed, sig: t.Func, fn: callee}, nil
}

func (fl *funcLowerer) memberCallTarget(callee *ast.Expr) (callTarget, *callError) {
	base := callee.X
	if base == nil {
		return callTarget{}, callErr(diag.InputBadTree, "member access without base")
	}
	if base.Kind == ast.ExprIdent {
		if _, local := fl.lookup(base.Name); !local {
			if sym, ok := fl.table.Lookup(base.Name); ok {
				switch sym.Kind {
				case symbols.SymbolStruct:
					m, found := fl.table.Method(base.Name, callee.Name)
					if !found {
						return callTarget{}, callErr(diag.SemaUndeclaredFunc, "struct '%s' has no method '%s'", base.Name, callee.Name)
					}
					return callTarget{mode: CallDirect, name: m.Name, sig: m.Sig}, nil
				case symbols.SymbolEnum:
					return callTarget{}, callErr(diag.SemaNotCallable, "enum variant '%s.%s' cannot be called", base.Name, callee.Name)
				}
			}
		}
	}
	rt, ok := fl.typeOrDefault(base)
	if !ok {
		return callTarget{}, callErr(diag.SemaNotCallable, "cannot determine the receiver of '.%s'", callee.Name)
	}
	if poisoned(rt) {
		return callTarget{}, errSilent
	}
	if s := rt.StructOf(); s != nil {
		if m, found := fl.table.Method(s.Name, callee.Name); found {
			return callTarget{mode: CallInstance, name: m.Name, sig: m.Sig, recv: base}, nil
		}
		if idx, found := s.FieldIndex(callee.Name); found {
			return computed(callee, s.Fields[idx].Type)
		}
	}
	if fn, found := fl.table.LookupKind(callee.Name, symbols.SymbolFunction); found && !fn.Has(symbols.SymbolFlagMethod) {
		return callTarget{mode: CallInstance, name: fn.Name, sig: fn.Sig, recv: base}, nil
	}
	return callTarget{}, callErr(diag.SemaUndeclaredFunc, "no method or function '%s' for a receiver of type %s", callee.Name, rt)
}

func (fl *funcLowerer) call(e *ast.Expr) types.Type {
	ct, err := fl.callTarget(e)
	if err != nil {
		if err.code != 0 {
			fl.report(err.code, e.Span, "%s", err.msg)
		}
		return fl.poison()
	}
	if ct.sig == nil {
		panic(fmt.Sprintf("ir: callee %s has no resolved signature", ct.name))
	}
	params := ct.sig.Params
	if ct.mode == CallInstance {
		if len(params) == 0 {
			fl.report(diag.SemaArgCount, e.Span, "'%s' takes no receiver", ct.name)
			return fl.poison()
		}
		params = params[1:]
	}
	if len(params) != len(e.Args) {
		fl.report(diag.SemaArgCount, e.Span, "%s expects %d arguments, got %d", calleeLabel(ct), len(params), len(e.Args))
		return fl.poison()
	}
	switch ct.mode {
	case CallInstance:
		fl.value(ct.recv, ct.sig.Params[0])
	case CallComputed:
		fl.value(ct.fn, types.Type{})
	}
	for i, arg := range e.Args {
		at := fl.value(arg, params[i])
		fl.expect(diag.SemaArgType, spanOf(arg), at, params[i], fmt.Sprintf("argument %d of %s", i+1, calleeLabel(ct)))
	}
	fl.b.EmitCall(CallInstr{Callee: ct.name, Mode: ct.mode, Argc: len(e.Args)}, ct.sig.Result)
	return ct.sig.Result
}

func calleeLabel(ct callTarget) string {
	if ct.name == "" {
		return "call"
	}
	return fmt.Sprintf("'%s'", ct.name)
}

func spanOf(e *ast.Expr) source.Span {
	if e == nil {
		return source.Span{}
	}
	return e.Span
}
