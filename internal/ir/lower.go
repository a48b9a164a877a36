package ir

import (
	"fmt"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/source"
	"ember/internal/symbols"
	"ember/internal/types"
)

// TypeResolver is the part of type resolution lowering depends on.
// *sema.Resolver implements it.
type TypeResolver interface {
	Resolve(types.Type) types.Type
	Structs() []*types.Struct
	Enums() []*types.Enum
}

// LowerOptions tune module lowering.
type LowerOptions struct {
	// OnFunc is called after each function has been lowered.
	OnFunc func(f *Func)
}

// Lower turns every function declared in table into IR. Struct and enum
// layouts are taken from the resolver after lowering, so instantiations
// first met inside function bodies are included. It returns the module and
// the number of errors reported; a module with errors must not reach a
// backend.
func Lower(ns *ast.Namespace, table *symbols.Table, resolver TypeResolver, reporter diag.Reporter, opts LowerOptions) (*Module, int) {
	counter := diag.NewCountingReporter(reporter)
	l := &lowerer{
		table:    table,
		resolver: resolver,
		reporter: counter,
		types:    make(map[*ast.TypeExpr]types.Type),
	}
	m := &Module{}
	if ns != nil {
		m.Name = ns.Name
	}
	table.Each(func(_ symbols.SymbolID, sym *symbols.Symbol) bool {
		if sym.Kind != symbols.SymbolFunction {
			return true
		}
		if sym.Has(symbols.SymbolFlagEntry) {
			m.Entry = sym.Name
		}
		f := l.lowerFunc(sym)
		m.Funcs = append(m.Funcs, f)
		if opts.OnFunc != nil {
			opts.OnFunc(f)
		}
		return true
	})
	m.Structs = append([]*types.Struct(nil), resolver.Structs()...)
	m.Enums = append([]*types.Enum(nil), resolver.Enums()...)
	return m, counter.Errors()
}

type lowerer struct {
	table    *symbols.Table
	resolver TypeResolver
	reporter diag.Reporter
	types    map[*ast.TypeExpr]types.Type
}

func (l *lowerer) report(code diag.Code, span source.Span, format string, args ...any) {
	diag.ReportError(l.reporter, code, span, fmt.Sprintf(format, args...)).Emit()
}

// resolveTypeExpr resolves an annotation once; repeated queries for the same
// node reuse the result and do not report again.
func (l *lowerer) resolveTypeExpr(te *ast.TypeExpr) types.Type {
	if t, ok := l.types[te]; ok {
		return t
	}
	var t types.Type
	ut, err := te.ToType()
	if err != nil {
		l.report(diag.InputBadTree, te.Span, "bad type annotation: %v", err)
		t = types.Undefined
	} else {
		t = l.resolver.Resolve(ut)
	}
	l.types[te] = t
	return t
}

func isAuto(te *ast.TypeExpr) bool {
	return te == nil || te.Kind == "auto"
}

func (l *lowerer) lowerFunc(sym *symbols.Symbol) *Func {
	if sym.Sig == nil {
		panic(fmt.Sprintf("ir: function %s lowered before its signature was resolved", sym.Name))
	}
	fn, sig := sym.Func, sym.Sig
	b := NewFuncBuilder(sym.Name, sig.Result, sym.Span)
	fl := &funcLowerer{lowerer: l, b: b, sym: sym, result: sig.Result}
	fl.pushScope()
	for i, p := range fn.Params {
		if _, dup := fl.scopes[0][p.Name]; dup {
			l.report(diag.SemaDuplicateDecl, p.Span, "duplicate parameter '%s' of '%s'", p.Name, sym.Name)
		}
		id := b.AddParam(p.Name, sig.Params[i])
		fl.bind(p.Name, binding{kind: bindLocal, id: id, t: sig.Params[i], attr: AllocImmutable})
	}
	if fn.Body == nil {
		return b.BuildExtern()
	}
	fl.block(fn.Body)
	b.EmitOptionalReturnVoid()
	return b.Build()
}

type bindingKind uint8

const (
	bindLocal bindingKind = iota
	bindConst
	// bindPoison marks a name whose declaration was rejected; uses stay silent.
	bindPoison
)

type binding struct {
	kind bindingKind
	id   LocalID
	t    types.Type
	attr AllocAttr
	lit  *ast.Literal
}

type loopLabels struct {
	head, end LabelID
}

// funcLowerer drives one FuncBuilder over one function body.
type funcLowerer struct {
	*lowerer
	b      *FuncBuilder
	sym    *symbols.Symbol
	result types.Type
	scopes []map[string]binding
	loops  []loopLabels
	hidden int
}

func (fl *funcLowerer) pushScope() {
	fl.scopes = append(fl.scopes, make(map[string]binding))
}

func (fl *funcLowerer) popScope() {
	fl.scopes = fl.scopes[:len(fl.scopes)-1]
}

func (fl *funcLowerer) bind(name string, b binding) {
	fl.scopes[len(fl.scopes)-1][name] = b
}

func (fl *funcLowerer) lookup(name string) (binding, bool) {
	for i := len(fl.scopes) - 1; i >= 0; i-- {
		if b, ok := fl.scopes[i][name]; ok {
			return b, true
		}
	}
	return binding{}, false
}

// poison pushes a placeholder so the stack stays balanced after an error.
func (fl *funcLowerer) poison() types.Type {
	fl.b.EmitLoadZero(types.Undefined)
	return types.Undefined
}

func poisoned(t types.Type) bool {
	return t.Kind == types.KindUndefined
}

// expect reports got where a value of type want is required. Types that
// already carry an error, or an empty want, are not compared.
func (fl *funcLowerer) expect(code diag.Code, sp source.Span, got, want types.Type, what string) {
	if !checked(got) || !checked(want) || types.Equal(got, want) {
		return
	}
	fl.report(code, sp, "%s: expected %s, found %s", what, want, got)
}

func checked(t types.Type) bool {
	return t.IsSolved() && t.IsValue() && t.Kind != types.KindUnknown
}
