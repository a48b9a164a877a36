package ast

import (
	"fmt"

	"ember/internal/types"
)

// ToType converts an annotation into an unsolved types.Type.
// A nil annotation means auto.
func (t *TypeExpr) ToType() (types.Type, error) {
	if t == nil {
		return types.Unresolved(types.KindAuto), nil
	}
	var out types.Type
	switch t.Kind {
	case "pointer", "option":
		elem, err := t.Elem.required("elem")
		if err != nil {
			return types.Type{}, err
		}
		if t.Kind == "pointer" {
			out = types.PointerTo(elem)
		} else {
			out = types.OptionOf(elem)
		}
		out.State = types.Unsolved
	case "array":
		elem, err := t.Elem.required("elem")
		if err != nil {
			return types.Type{}, err
		}
		out = types.ArrayOf(elem, t.Len)
		out.State = types.Unsolved
	case "errunion":
		errT, err := t.Err.required("err")
		if err != nil {
			return types.Type{}, err
		}
		elem, err := t.Elem.required("elem")
		if err != nil {
			return types.Type{}, err
		}
		out = types.ErrUnionOf(errT, elem)
		out.State = types.Unsolved
	case "named":
		if t.Name == "" {
			return types.Type{}, fmt.Errorf("named type without name at %s", t.Span)
		}
		args := make([]types.Type, 0, len(t.Args))
		for _, a := range t.Args {
			at, err := a.required("arg")
			if err != nil {
				return types.Type{}, err
			}
			args = append(args, at)
		}
		out = types.Named(t.Name, args...)
	case "func":
		sig := &types.FuncSig{Result: types.Unresolved(types.KindVoid)}
		for _, p := range t.Params {
			pt, err := p.required("param")
			if err != nil {
				return types.Type{}, err
			}
			sig.Params = append(sig.Params, pt)
		}
		if t.Result != nil {
			rt, err := t.Result.ToType()
			if err != nil {
				return types.Type{}, err
			}
			sig.Result = rt
		}
		out = types.Type{Kind: types.KindFunc, Func: sig}
	default:
		k, ok := types.ParseKind(t.Kind)
		if !ok || !(k.IsPrimitive() || k == types.KindAuto) {
			return types.Type{}, fmt.Errorf("unknown type kind %q at %s", t.Kind, t.Span)
		}
		out = types.Unresolved(k)
	}
	return out.WithSpan(t.Span), nil
}

func (t *TypeExpr) required(what string) (types.Type, error) {
	if t == nil {
		return types.Type{}, fmt.Errorf("type annotation missing %s", what)
	}
	return t.ToType()
}
