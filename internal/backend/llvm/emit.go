// Package llvm lowers an ir.Module to LLVM IR through llir.
package llvm

import (
	"fmt"

	llir "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"

	"ember/internal/diag"
	"ember/internal/ir"
	"ember/internal/types"
)

// DefaultLang prefixes symbol and type names when Options.Lang is empty.
const DefaultLang = "ember"

// Options configure LLVM emission.
type Options struct {
	Lang   string
	Triple string
	// Reporter receives BCK9001 diagnostics when verification fails.
	// Nil means errors are only returned.
	Reporter diag.Reporter
}

// Emit builds an LLVM module for m and verifies it. The input module is
// not modified.
func Emit(m *ir.Module, opts Options) (*llir.Module, error) {
	if opts.Lang == "" {
		opts.Lang = DefaultLang
	}
	e := &emitter{
		m:       m,
		opts:    opts,
		mod:     llir.NewModule(),
		funcs:   make(map[string]*llir.Func),
		structs: make(map[*types.Struct]*lltypes.StructType),
		strs:    make(map[string]constant.Constant),
	}
	if err := e.run(); err != nil {
		return nil, err
	}
	if err := Verify(e.mod, opts.Reporter); err != nil {
		return e.mod, err
	}
	return e.mod, nil
}

type emitter struct {
	m    *ir.Module
	opts Options
	mod  *llir.Module

	funcs   map[string]*llir.Func
	structs map[*types.Struct]*lltypes.StructType
	strs    map[string]constant.Constant
	strcmp  *llir.Func
}

func (e *emitter) run() error {
	e.mod.SourceFilename = e.m.Name
	e.mod.TargetTriple = e.opts.Triple
	for _, s := range e.m.Structs {
		if _, err := e.structType(s); err != nil {
			return err
		}
	}
	// сначала все объявления: тела ссылаются друг на друга
	for _, f := range e.m.Funcs {
		if err := e.declare(f); err != nil {
			return fmt.Errorf("function %s: %w", f.Name, err)
		}
	}
	for _, f := range e.m.Funcs {
		if f.Extern {
			continue
		}
		if err := e.function(f); err != nil {
			return fmt.Errorf("function %s: %w", f.Name, err)
		}
	}
	return e.mainShim()
}

// symbol is the LLVM name of an IR function; externs keep their own.
func (e *emitter) symbol(f *ir.Func) string {
	if f.Extern {
		return f.Name
	}
	return e.opts.Lang + "." + f.Name
}

func (e *emitter) declare(f *ir.Func) error {
	ret, err := e.llType(f.Result)
	if err != nil {
		return err
	}
	params := make([]*llir.Param, len(f.Params))
	for i, p := range f.Params {
		pt, err := e.llType(p)
		if err != nil {
			return err
		}
		name := ""
		if i < len(f.ParamNames) {
			name = f.ParamNames[i]
		}
		params[i] = llir.NewParam(name, pt)
	}
	e.funcs[f.Name] = e.mod.NewFunc(e.symbol(f), ret, params...)
	return nil
}

// stringConst interns s as a NUL-terminated global and returns an i8*.
func (e *emitter) stringConst(s string) constant.Constant {
	if c, ok := e.strs[s]; ok {
		return c
	}
	data := constant.NewCharArrayFromString(s + "\x00")
	g := e.mod.NewGlobalDef(fmt.Sprintf(".str.%d", len(e.strs)), data)
	g.Immutable = true
	zero := constant.NewInt(lltypes.I32, 0)
	c := constant.NewGetElementPtr(data.Typ, g, zero, zero)
	e.strs[s] = c
	return c
}

func (e *emitter) strcmpFunc() *llir.Func {
	if e.strcmp == nil {
		if fn, ok := e.funcs["strcmp"]; ok {
			e.strcmp = fn
			return fn
		}
		e.strcmp = e.mod.NewFunc("strcmp", lltypes.I32,
			llir.NewParam("a", lltypes.I8Ptr), llir.NewParam("b", lltypes.I8Ptr))
	}
	return e.strcmp
}

// mainShim adds the C entry point calling the module entry.
func (e *emitter) mainShim() error {
	if e.m.Entry == "" {
		return nil
	}
	f, ok := e.m.Func(e.m.Entry)
	if !ok {
		return fmt.Errorf("entry point %s is not in the module", e.m.Entry)
	}
	main := e.mod.NewFunc("main", lltypes.I32)
	entry := main.NewBlock("entry")
	res := entry.NewCall(e.funcs[f.Name])
	if !f.Result.Kind.IsInteger() {
		entry.NewRet(constant.NewInt(lltypes.I32, 0))
		return nil
	}
	bits := f.Result.Kind.Bits()
	switch {
	case bits == 32:
		entry.NewRet(res)
	case bits > 32:
		entry.NewRet(entry.NewTrunc(res, lltypes.I32))
	case f.Result.Kind.IsSigned():
		entry.NewRet(entry.NewSExt(res, lltypes.I32))
	default:
		entry.NewRet(entry.NewZExt(res, lltypes.I32))
	}
	return nil
}
