package ir

import (
	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/symbols"
	"ember/internal/types"
)

var binaryOps = map[string]InstrKind{
	"+":  InstrAdd,
	"-":  InstrSub,
	"*":  InstrMul,
	"/":  InstrDiv,
	"%":  InstrMod,
	"==": InstrEq,
	"!=": InstrNe,
	">":  InstrGt,
	"<":  InstrLt,
	">=": InstrGe,
	"<=": InstrLe,
	"&&": InstrAnd,
	"||": InstrOr,
}

// value lowers e where a value is required: exactly one entry is pushed.
func (fl *funcLowerer) value(e *ast.Expr, want types.Type) types.Type {
	t := fl.expr(e, want)
	if t.IsVoid() {
		fl.report(diag.SemaVoidValue, spanOf(e), "expression has no value")
		return fl.poison()
	}
	return t
}

// expr lowers e and returns the type of the pushed value; void means
// nothing was pushed. want is the type the context expects, zero if none,
// and only steers literal typing.
func (fl *funcLowerer) expr(e *ast.Expr, want types.Type) types.Type {
	if e == nil {
		return fl.poison()
	}
	switch e.Kind {
	case ast.ExprLiteral:
		if e.Lit == nil {
			fl.report(diag.InputBadTree, e.Span, "literal without value")
			return fl.poison()
		}
		return fl.literal(e.Lit, want)
	case ast.ExprIdent:
		return fl.ident(e)
	case ast.ExprUnary:
		return fl.unary(e, want)
	case ast.ExprBinary:
		return fl.binary(e, want)
	case ast.ExprCall:
		return fl.call(e)
	case ast.ExprMember:
		return fl.member(e)
	case ast.ExprStructLit:
		return fl.structLit(e)
	case ast.ExprFunc, ast.ExprStructType, ast.ExprEnumType:
		fl.report(diag.SemaUnsupportedExpression, e.Span, "%s literal is only allowed in a top-level constant", e.Kind)
		return fl.poison()
	}
	fl.report(diag.InputUnknownNode, e.Span, "unknown expression kind %q", e.Kind)
	return fl.poison()
}

func (fl *funcLowerer) literal(lit *ast.Literal, want types.Type) types.Type {
	c, t := literalConst(lit, want)
	fl.b.EmitLoadConst(c, t)
	return t
}

// literalConst types a literal by the expected type, falling back to i32 for
// integers and f64 for floats.
func literalConst(lit *ast.Literal, want types.Type) (Const, types.Type) {
	switch lit.Kind {
	case ast.LitInt:
		switch {
		case want.Kind.IsInteger():
			return Const{Kind: ConstInt, Int: lit.Int}, types.Prim(want.Kind)
		case want.Kind.IsFloat():
			return Const{Kind: ConstFloat, Float: float64(lit.Int)}, types.Prim(want.Kind)
		}
		return Const{Kind: ConstInt, Int: lit.Int}, types.I32
	case ast.LitFloat:
		if want.Kind.IsFloat() {
			return Const{Kind: ConstFloat, Float: lit.Float}, types.Prim(want.Kind)
		}
		return Const{Kind: ConstFloat, Float: lit.Float}, types.F64
	case ast.LitBool:
		return Const{Kind: ConstBool, Bool: lit.Bool}, types.Bool
	case ast.LitChar:
		return Const{Kind: ConstChar, Char: lit.Char}, types.Char
	case ast.LitString:
		return Const{Kind: ConstString, Str: lit.Str}, types.String
	}
	return Const{}, types.Undefined
}

func (fl *funcLowerer) ident(e *ast.Expr) types.Type {
	if bnd, ok := fl.lookup(e.Name); ok {
		switch bnd.kind {
		case bindPoison:
			return fl.poison()
		case bindConst:
			return fl.literal(bnd.lit, bnd.t)
		}
		fl.b.EmitLoadLocal(bnd.id)
		return bnd.t
	}
	sym, ok := fl.table.Lookup(e.Name)
	if !ok {
		fl.report(diag.SemaUndeclaredName, e.Span, "undeclared identifier '%s'", e.Name)
		return fl.poison()
	}
	switch sym.Kind {
	case symbols.SymbolConst:
		return fl.literal(sym.ConstValue, sym.ConstType)
	case symbols.SymbolFunction:
		t := sym.Type()
		fl.b.EmitLoadConst(Const{Kind: ConstFunc, Str: sym.Name}, t)
		return t
	}
	fl.report(diag.SemaUndeclaredName, e.Span, "'%s' is a %s, not a value", e.Name, sym.Kind)
	return fl.poison()
}

func (fl *funcLowerer) unary(e *ast.Expr, want types.Type) types.Type {
	switch e.Op {
	case "-":
		if lit, ok := ast.ConstLiteral(e); ok {
			return fl.literal(lit, want)
		}
		t := fl.value(e.X, want)
		fl.b.EmitOp(InstrNeg, t)
		return t
	case "+":
		return fl.value(e.X, want)
	case "!":
		fl.value(e.X, types.Bool)
		fl.b.EmitOp(InstrNot, types.Bool)
		return types.Bool
	}
	fl.report(diag.SemaUnsupportedExpression, e.Span, "unsupported unary operator %q", e.Op)
	return fl.poison()
}

func (fl *funcLowerer) binary(e *ast.Expr, want types.Type) types.Type {
	op, ok := binaryOps[e.Op]
	if !ok {
		fl.report(diag.SemaUnsupportedExpression, e.Span, "unsupported binary operator %q", e.Op)
		return fl.poison()
	}
	logical := op == InstrAnd || op == InstrOr
	var operand types.Type
	switch {
	case logical:
		operand = types.Bool
	default:
		if t, ok := fl.typeOf(e.X); ok {
			operand = t
		} else if t, ok := fl.typeOf(e.Y); ok {
			operand = t
		} else if !op.IsCompare() {
			operand = want
		}
	}
	x := fl.value(e.X, operand)
	y := fl.value(e.Y, x)
	if logical {
		fl.expect(diag.SemaOperandType, spanOf(e.X), x, types.Bool, "left operand of "+e.Op)
		fl.expect(diag.SemaOperandType, spanOf(e.Y), y, types.Bool, "right operand of "+e.Op)
	} else {
		fl.expect(diag.SemaOperandType, e.Span, y, x, "operands of "+e.Op)
	}
	fl.b.EmitOp(op, x)
	if logical || op.IsCompare() {
		return types.Bool
	}
	return x
}

func (fl *funcLowerer) member(e *ast.Expr) types.Type {
	if e.X == nil {
		fl.report(diag.InputBadTree, e.Span, "member access without base")
		return fl.poison()
	}
	if en, ok := fl.enumBase(e.X); ok {
		ord, found := en.Ordinal(e.Name)
		if !found {
			fl.report(diag.SemaUndeclaredVariant, e.Span, "enum '%s' has no variant '%s'", en.Name, e.Name)
			return fl.poison()
		}
		t := types.EnumType(en)
		fl.b.EmitLoadConst(Const{Kind: ConstInt, Int: int64(ord)}, t)
		return t
	}
	bt := fl.value(e.X, types.Type{})
	ref, ok := fl.fieldRef(bt, e)
	if !ok {
		fl.b.EmitPop(bt)
		return fl.poison()
	}
	fl.b.EmitLoadField(ref)
	return fieldType(ref)
}

// enumBase recognises `E` in `E.V` when E names an enum and is not shadowed.
func (fl *funcLowerer) enumBase(base *ast.Expr) (*types.Enum, bool) {
	if base.Kind != ast.ExprIdent {
		return nil, false
	}
	if _, local := fl.lookup(base.Name); local {
		return nil, false
	}
	if _, ok := fl.table.LookupKind(base.Name, symbols.SymbolEnum); !ok {
		return nil, false
	}
	t := fl.resolver.Resolve(types.Named(base.Name))
	return t.Enum, t.Enum != nil
}

// fieldRef finds the field named by the member expression e on a value of
// type bt (a struct or a pointer to one). Failures are reported unless bt
// already carries an error.
func (fl *funcLowerer) fieldRef(bt types.Type, e *ast.Expr) (FieldRef, bool) {
	if poisoned(bt) {
		return FieldRef{}, false
	}
	s := bt.StructOf()
	if s == nil {
		fl.report(diag.SemaFieldOnNonStruct, e.Span, "field access '.%s' on non-struct type %s", e.Name, bt)
		return FieldRef{}, false
	}
	idx, ok := s.FieldIndex(e.Name)
	if !ok {
		fl.report(diag.SemaUndeclaredField, e.Span, "struct '%s' has no field '%s'", s.Name, e.Name)
		return FieldRef{}, false
	}
	return FieldRef{Struct: s, Index: idx}, true
}

// structLit builds the value in place: zero value, then for each field a
// copy of the reference, the value and a field store.
func (fl *funcLowerer) structLit(e *ast.Expr) types.Type {
	if e.Type == nil {
		fl.report(diag.InputBadTree, e.Span, "struct literal without type")
		return fl.poison()
	}
	t := fl.resolveTypeExpr(e.Type)
	if poisoned(t) {
		return fl.poison()
	}
	if t.Kind != types.KindStruct || t.Struct == nil {
		fl.report(diag.SemaFieldOnNonStruct, e.Span, "%s is not a struct type", t)
		return fl.poison()
	}
	s := t.Struct
	fl.b.EmitLoadZero(t)
	for _, fi := range e.Fields {
		if fi == nil {
			continue
		}
		idx, ok := s.FieldIndex(fi.Name)
		if !ok {
			fl.report(diag.SemaUndeclaredField, fi.Span, "struct '%s' has no field '%s'", s.Name, fi.Name)
			continue
		}
		ref := FieldRef{Struct: s, Index: idx}
		fl.b.EmitDup(t)
		ft := fieldType(ref)
		fl.expect(diag.SemaAssignType, fi.Span, fl.value(fi.Value, ft), ft, "field '"+fi.Name+"'")
		fl.b.EmitStoreField(ref)
	}
	return t
}

// typeOf predicts the type of e without emitting code.
// Literals have no type of their own and report false.
func (fl *funcLowerer) typeOf(e *ast.Expr) (types.Type, bool) {
	if e == nil {
		return types.Type{}, false
	}
	switch e.Kind {
	case ast.ExprIdent:
		if bnd, ok := fl.lookup(e.Name); ok {
			if bnd.kind == bindPoison {
				return types.Undefined, true
			}
			return bnd.t, true
		}
		if sym, ok := fl.table.Lookup(e.Name); ok && (sym.Kind == symbols.SymbolConst || sym.Kind == symbols.SymbolFunction) {
			return sym.Type(), true
		}
	case ast.ExprUnary:
		if e.Op == "!" {
			return types.Bool, true
		}
		return fl.typeOf(e.X)
	case ast.ExprBinary:
		op, ok := binaryOps[e.Op]
		if !ok {
			return types.Type{}, false
		}
		if op.IsCompare() || op == InstrAnd || op == InstrOr {
			return types.Bool, true
		}
		if t, ok := fl.typeOf(e.X); ok {
			return t, true
		}
		return fl.typeOf(e.Y)
	case ast.ExprCall:
		if ct, err := fl.callTarget(e); err == nil {
			return ct.sig.Result, true
		}
	case ast.ExprMember:
		if e.X == nil {
			return types.Type{}, false
		}
		if en, ok := fl.enumBase(e.X); ok {
			return types.EnumType(en), true
		}
		bt, ok := fl.typeOrDefault(e.X)
		if !ok {
			return types.Type{}, false
		}
		if s := bt.StructOf(); s != nil {
			if idx, found := s.FieldIndex(e.Name); found {
				return s.Fields[idx].Type, true
			}
		}
	case ast.ExprStructLit:
		if e.Type != nil {
			return fl.resolveTypeExpr(e.Type), true
		}
	}
	return types.Type{}, false
}

// typeOrDefault is typeOf with literals given their default type.
func (fl *funcLowerer) typeOrDefault(e *ast.Expr) (types.Type, bool) {
	if e != nil && e.Kind == ast.ExprLiteral && e.Lit != nil {
		_, t := literalConst(e.Lit, types.Type{})
		return t, true
	}
	return fl.typeOf(e)
}
