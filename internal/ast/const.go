package ast

// ConstLiteral accepts a literal or a negated numeric literal and returns
// the folded value.
func ConstLiteral(e *Expr) (*Literal, bool) {
	if e == nil {
		return nil, false
	}
	switch {
	case e.Kind == ExprLiteral && e.Lit != nil:
		return e.Lit, true
	case e.Kind == ExprUnary && e.Op == "-" && e.X != nil && e.X.Kind == ExprLiteral && e.X.Lit != nil:
		lit := *e.X.Lit
		switch lit.Kind {
		case LitInt:
			lit.Int = -lit.Int
		case LitFloat:
			lit.Float = -lit.Float
		default:
			return nil, false
		}
		return &lit, true
	}
	return nil, false
}
