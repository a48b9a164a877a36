package sema

import (
	"fmt"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/source"
	"ember/internal/symbols"
	"ember/internal/types"
)

// Resolver turns unsolved types into solved ones against a symbol table.
//
// Struct descriptors are allocated before their fields are resolved so that
// references through a pointer can point at a struct still being built.
// Names currently being resolved by value form the working set; meeting one
// of them again by value is a type recursion.
type Resolver struct {
	table    *symbols.Table
	reporter diag.Reporter

	instances  map[string]*types.Struct // "List[i32]" -> общий экземпляр
	inProgress map[*types.Struct]bool
	done       map[*types.Struct]bool
	pending    []structJob
	scopes     []map[string]types.Type // параметры дженерика текущей структуры

	order []*types.Struct
	enums []*types.Enum
}

type structJob struct {
	s        *types.Struct
	decl     *ast.StructDecl
	bindings map[string]types.Type
}

// NewResolver creates a resolver bound to one compilation.
func NewResolver(table *symbols.Table, reporter diag.Reporter) *Resolver {
	return &Resolver{
		table:      table,
		reporter:   reporter,
		instances:  make(map[string]*types.Struct),
		inProgress: make(map[*types.Struct]bool),
		done:       make(map[*types.Struct]bool),
	}
}

// Resolve returns the solved form of t. Solved input is returned unchanged.
// Failures are reported and yield types.Undefined in place of the bad part.
func (r *Resolver) Resolve(t types.Type) types.Type {
	if t.State == types.Solved {
		return t
	}
	out := r.resolve(t, false)
	r.drain()
	return out
}

// ResolveAll resolves every declared struct, enum, function signature and
// constant type once, in declaration order. Generic declarations are only
// instantiated on demand.
func (r *Resolver) ResolveAll() {
	r.table.Each(func(_ symbols.SymbolID, sym *symbols.Symbol) bool {
		switch sym.Kind {
		case symbols.SymbolStruct:
			r.structFor(sym, false)
		case symbols.SymbolEnum:
			r.enumFor(sym)
		case symbols.SymbolFunction:
			r.signature(sym)
		case symbols.SymbolConst:
			r.constType(sym)
		}
		r.drain()
		return true
	})
}

// Structs returns completed structs in dependency order: every struct
// appears after the structs it contains by value.
func (r *Resolver) Structs() []*types.Struct { return r.order }

// Enums returns resolved enums in resolution order.
func (r *Resolver) Enums() []*types.Enum { return r.enums }

// Instance returns a cached generic instantiation by key.
func (r *Resolver) Instance(key string) (*types.Struct, bool) {
	s, ok := r.instances[key]
	return s, ok
}

func (r *Resolver) report(code diag.Code, span source.Span, format string, args ...any) {
	diag.ReportError(r.reporter, code, span, fmt.Sprintf(format, args...)).Emit()
}

// resolve is the recursive worker. indirect is true once the walk has passed
// through a pointer or function type, where an incomplete struct is fine.
func (r *Resolver) resolve(t types.Type, indirect bool) types.Type {
	if t.State == types.Solved {
		return t
	}
	switch t.Kind {
	case types.KindPointer:
		return types.PointerTo(r.resolveElem(t.Elem, true)).WithSpan(t.Span)
	case types.KindArray:
		return types.ArrayOf(r.resolveElem(t.Elem, indirect), t.Len).WithSpan(t.Span)
	case types.KindOption:
		return types.OptionOf(r.resolveElem(t.Elem, indirect)).WithSpan(t.Span)
	case types.KindErrUnion:
		return types.ErrUnionOf(r.resolveElem(t.Err, indirect), r.resolveElem(t.Elem, indirect)).WithSpan(t.Span)
	case types.KindFunc:
		return types.FuncType(r.resolveSig(t.Func)).WithSpan(t.Span)
	case types.KindNamed:
		return r.named(t, indirect).WithSpan(t.Span)
	case types.KindAuto, types.KindInvalid:
		// auto выводится при понижении; сюда он попадать не должен
		return types.Undefined.WithSpan(t.Span)
	}
	if t.Kind.IsPrimitive() {
		return types.Prim(t.Kind).WithSpan(t.Span)
	}
	// struct/enum/undefined бывают только решёнными
	return types.Undefined.WithSpan(t.Span)
}

func (r *Resolver) resolveElem(t *types.Type, indirect bool) types.Type {
	if t == nil {
		return types.Undefined
	}
	return r.resolve(*t, indirect)
}

func (r *Resolver) resolveSig(sig *types.FuncSig) *types.FuncSig {
	out := &types.FuncSig{Result: types.Void}
	if sig == nil {
		return out
	}
	out.Params = make([]types.Type, len(sig.Params))
	for i, p := range sig.Params {
		out.Params[i] = r.resolve(p, true)
	}
	out.Result = r.resolve(sig.Result, true)
	return out
}

func (r *Resolver) named(t types.Type, indirect bool) types.Type {
	if len(t.Args) == 0 && len(r.scopes) > 0 {
		if bound, ok := r.scopes[len(r.scopes)-1][t.Name]; ok {
			return bound
		}
	}
	sym, ok := r.table.Lookup(t.Name)
	if !ok {
		r.report(diag.SemaUndeclaredType, t.Span, "undeclared type '%s'", t.Name)
		return types.Undefined
	}
	switch sym.Kind {
	case symbols.SymbolStruct:
		if len(t.Args) > 0 {
			r.report(diag.SemaNotGeneric, t.Span, "type '%s' is not generic", t.Name)
			return types.Undefined
		}
		return r.structFor(sym, indirect)
	case symbols.SymbolEnum:
		if len(t.Args) > 0 {
			r.report(diag.SemaNotGeneric, t.Span, "type '%s' is not generic", t.Name)
			return types.Undefined
		}
		return r.enumFor(sym)
	case symbols.SymbolGeneric:
		if len(t.Args) == 0 {
			r.report(diag.SemaGenericNeedsArgs, t.Span, "generic type '%s' needs type arguments", t.Name)
			return types.Undefined
		}
		return r.instantiate(sym, t, indirect)
	}
	r.report(diag.SemaUndeclaredType, t.Span, "'%s' is a %s, not a type", t.Name, sym.Kind)
	return types.Undefined
}

func (r *Resolver) structFor(sym *symbols.Symbol, indirect bool) types.Type {
	s := sym.Struct
	if s == nil {
		s = &types.Struct{Name: sym.Name, Packed: sym.StructDecl.Packed, Span: sym.Span}
		sym.Struct = s
	}
	job := structJob{s: s, decl: sym.StructDecl}
	return r.use(job, indirect, sym.Span)
}

func (r *Resolver) instantiate(sym *symbols.Symbol, t types.Type, indirect bool) types.Type {
	params := sym.StructDecl.TypeParams
	if len(params) != len(t.Args) {
		r.report(diag.SemaGenericArity, t.Span, "generic type '%s' expects %d type arguments, got %d", sym.Name, len(params), len(t.Args))
		return types.Undefined
	}
	args := make([]types.Type, len(t.Args))
	for i, a := range t.Args {
		args[i] = r.resolve(a, true)
	}
	key := types.InstanceName(sym.Name, args)
	s, ok := r.instances[key]
	if !ok {
		s = &types.Struct{Name: key, Packed: sym.StructDecl.Packed, Origin: sym.Name, Args: args, Span: sym.Span}
		r.instances[key] = s
	}
	bindings := make(map[string]types.Type, len(params))
	for i, p := range params {
		bindings[p] = args[i]
	}
	return r.use(structJob{s: s, decl: sym.StructDecl, bindings: bindings}, indirect, t.Span)
}

// use hands out a struct type, completing it first when the reference is by value.
func (r *Resolver) use(job structJob, indirect bool, at source.Span) types.Type {
	s := job.s
	switch {
	case r.done[s]:
	case r.inProgress[s]:
		if !indirect {
			r.report(diag.SemaTypeRecursion, at, "type recursion: '%s' contains itself by value", s.Name)
			return types.Undefined
		}
	case indirect:
		r.pending = append(r.pending, job)
	default:
		r.complete(job)
	}
	return types.StructType(s)
}

func (r *Resolver) complete(job structJob) {
	s := job.s
	r.inProgress[s] = true
	r.scopes = append(r.scopes, job.bindings)

	fields := make([]types.Field, 0, len(job.decl.Fields))
	for _, f := range job.decl.Fields {
		if f == nil {
			continue
		}
		ut, err := f.Type.ToType()
		if err != nil {
			r.report(diag.InputBadTree, f.Span, "field '%s' of '%s': %v", f.Name, s.Name, err)
			ut = types.Undefined
		}
		ft := r.resolve(ut, false)
		if holder := r.byValueInProgress(ft); holder != nil {
			r.report(diag.SemaTypeRecursion, f.Span, "type recursion: field '%s' of '%s' contains '%s' by value", f.Name, s.Name, holder.Name)
			ft = types.Undefined.WithSpan(ft.Span)
		}
		fields = append(fields, types.Field{Name: f.Name, Type: ft, Span: f.Span})
	}
	s.Fields = fields

	r.scopes = r.scopes[:len(r.scopes)-1]
	delete(r.inProgress, s)
	r.done[s] = true
	r.order = append(r.order, s)
}

// byValueInProgress finds an in-progress struct held by value in t. Generic
// parameters bound to such a struct slip past the name check in use.
func (r *Resolver) byValueInProgress(t types.Type) *types.Struct {
	switch t.Kind {
	case types.KindStruct:
		if r.inProgress[t.Struct] {
			return t.Struct
		}
	case types.KindArray, types.KindOption:
		if t.Elem != nil {
			return r.byValueInProgress(*t.Elem)
		}
	case types.KindErrUnion:
		if t.Err != nil {
			if s := r.byValueInProgress(*t.Err); s != nil {
				return s
			}
		}
		if t.Elem != nil {
			return r.byValueInProgress(*t.Elem)
		}
	}
	return nil
}

func (r *Resolver) drain() {
	for len(r.pending) > 0 {
		job := r.pending[0]
		r.pending = r.pending[1:]
		if r.done[job.s] || r.inProgress[job.s] {
			continue
		}
		r.complete(job)
	}
}

func (r *Resolver) enumFor(sym *symbols.Symbol) types.Type {
	if sym.Enum == nil {
		sym.Enum = &types.Enum{Name: sym.Name, Variants: append([]string(nil), sym.EnumDecl.Variants...), Span: sym.Span}
		r.enums = append(r.enums, sym.Enum)
	}
	return types.EnumType(sym.Enum)
}

func (r *Resolver) signature(sym *symbols.Symbol) {
	if sym.Sig != nil {
		return
	}
	fn := sym.Func
	sig := &types.FuncSig{Params: make([]types.Type, len(fn.Params)), Result: types.Void}
	for i, p := range fn.Params {
		pt, err := p.Type.ToType()
		if err != nil {
			r.report(diag.InputBadTree, p.Span, "parameter '%s' of '%s': %v", p.Name, sym.Name, err)
			pt = types.Undefined
		}
		if pt.Kind == types.KindAuto {
			r.report(diag.SemaTypeNotationNeeded, p.Span, "type notation needed for parameter '%s'", p.Name)
		}
		sig.Params[i] = r.resolve(pt, true)
	}
	if fn.Result != nil {
		rt, err := fn.Result.ToType()
		if err != nil {
			r.report(diag.InputBadTree, fn.Result.Span, "result of '%s': %v", sym.Name, err)
			rt = types.Undefined
		}
		sig.Result = r.resolve(rt, true)
	}
	sym.Sig = sig
}

func (r *Resolver) constType(sym *symbols.Symbol) {
	if sym.ConstType.State == types.Solved {
		return
	}
	if sym.ConstDecl != nil && sym.ConstDecl.Kind != "auto" {
		ut, err := sym.ConstDecl.ToType()
		if err != nil {
			r.report(diag.InputBadTree, sym.Span, "constant '%s': %v", sym.Name, err)
			sym.ConstType = types.Undefined
			return
		}
		sym.ConstType = r.resolve(ut, false)
		return
	}
	sym.ConstType = LiteralType(sym.ConstValue)
}

// LiteralType is the default type of a literal with no expected type.
func LiteralType(lit *ast.Literal) types.Type {
	if lit == nil {
		return types.Undefined
	}
	switch lit.Kind {
	case ast.LitInt:
		return types.I32
	case ast.LitFloat:
		return types.F64
	case ast.LitBool:
		return types.Bool
	case ast.LitChar:
		return types.Char
	case ast.LitString:
		return types.String
	}
	return types.Undefined
}
