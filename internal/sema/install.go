package sema

import (
	"fmt"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/source"
	"ember/internal/symbols"
)

// InstallOptions configure symbol installation.
type InstallOptions struct {
	Entry   string // имя точки входа, по умолчанию "main"
	Library bool   // библиотека: точка входа не нужна
}

// Install walks the namespace's top-level declarations and records them in
// table. It returns the number of errors reported; callers treat a non-zero
// count as a checkpoint failure.
func Install(ns *ast.Namespace, table *symbols.Table, reporter diag.Reporter, opts InstallOptions) int {
	counter := diag.NewCountingReporter(reporter)
	in := installer{table: table, reporter: counter}
	if ns != nil {
		for _, decl := range ns.Decls {
			in.decl(decl)
		}
	}
	if !opts.Library {
		in.checkEntry(entryName(opts), ns)
	}
	return counter.Errors()
}

func entryName(opts InstallOptions) string {
	if opts.Entry == "" {
		return "main"
	}
	return opts.Entry
}

type installer struct {
	table    *symbols.Table
	reporter diag.Reporter
}

func (in *installer) report(code diag.Code, span source.Span, format string, args ...any) {
	diag.ReportError(in.reporter, code, span, fmt.Sprintf(format, args...)).Emit()
}

func (in *installer) decl(decl *ast.VarDecl) {
	if decl == nil {
		return
	}
	if decl.Mut != ast.Const {
		in.report(diag.SemaTopLevelNonConst, decl.Span, "non-const declaration at top level: '%s'", decl.Name)
		return
	}
	if decl.Value == nil {
		in.report(diag.SemaConstNotConstant, decl.Span, "constant '%s' has no value", decl.Name)
		return
	}

	v := decl.Value
	switch v.Kind {
	case ast.ExprFunc:
		if v.Func == nil {
			in.report(diag.InputBadTree, v.Span, "function literal without payload")
			return
		}
		sym := &symbols.Symbol{Kind: symbols.SymbolFunction, Name: decl.Name, Span: decl.Span, Func: v.Func}
		if v.Func.Body == nil {
			sym.Flags |= symbols.SymbolFlagExtern
		}
		in.declare(sym)
	case ast.ExprStructType:
		if v.Struct == nil {
			in.report(diag.InputBadTree, v.Span, "struct literal without payload")
			return
		}
		kind := symbols.SymbolStruct
		if len(v.Struct.TypeParams) > 0 {
			kind = symbols.SymbolGeneric
		}
		if !in.declare(&symbols.Symbol{Kind: kind, Name: decl.Name, Span: decl.Span, StructDecl: v.Struct}) {
			return
		}
		in.methods(decl.Name, kind, v.Struct.Methods)
	case ast.ExprEnumType:
		if v.Enum == nil {
			in.report(diag.InputBadTree, v.Span, "enum literal without payload")
			return
		}
		in.declare(&symbols.Symbol{Kind: symbols.SymbolEnum, Name: decl.Name, Span: decl.Span, EnumDecl: v.Enum})
	default:
		lit, ok := ast.ConstLiteral(v)
		if !ok {
			in.report(diag.SemaConstNotConstant, v.Span, "initializer of constant '%s' is not a constant", decl.Name)
			return
		}
		in.declare(&symbols.Symbol{Kind: symbols.SymbolConst, Name: decl.Name, Span: decl.Span, ConstValue: lit, ConstDecl: decl.Type})
	}
}

func (in *installer) methods(owner string, ownerKind symbols.SymbolKind, methods []*ast.VarDecl) {
	for _, m := range methods {
		if m == nil {
			continue
		}
		if m.Value == nil || m.Value.Kind != ast.ExprFunc || m.Value.Func == nil {
			in.report(diag.SemaConstNotConstant, m.Span, "struct member '%s.%s' must be a function", owner, m.Name)
			continue
		}
		if ownerKind == symbols.SymbolGeneric {
			in.report(diag.SemaUnsupportedExpression, m.Span, "methods on generic struct '%s' are not supported", owner)
			continue
		}
		sym := &symbols.Symbol{
			Kind:  symbols.SymbolFunction,
			Name:  owner + "." + m.Name,
			Flags: symbols.SymbolFlagMethod,
			Span:  m.Span,
			Func:  m.Value.Func,
			Owner: owner,
		}
		if m.Value.Func.Body == nil {
			sym.Flags |= symbols.SymbolFlagExtern
		}
		in.declare(sym)
	}
}

func (in *installer) declare(sym *symbols.Symbol) bool {
	prevID, ok := in.table.Declare(sym)
	if ok {
		return true
	}
	prev := in.table.Get(prevID)
	diag.ReportError(in.reporter, diag.SemaDuplicateDecl, sym.Span, fmt.Sprintf("duplicate declaration of '%s'", sym.Name)).
		WithNote(prev.Span, "previously declared here").
		Emit()
	return false
}

func (in *installer) checkEntry(name string, ns *ast.Namespace) {
	sym, ok := in.table.Lookup(name)
	if ok && sym.Kind == symbols.SymbolFunction && !sym.Has(symbols.SymbolFlagExtern) {
		sym.Flags |= symbols.SymbolFlagEntry
		return
	}
	var sp source.Span
	if ok {
		sp = sym.Span
	}
	label := "namespace"
	if ns != nil && ns.Name != "" {
		label = fmt.Sprintf("namespace '%s'", ns.Name)
	}
	in.report(diag.SemaMissingEntry, sp, "missing entry point '%s' in %s", name, label)
}
