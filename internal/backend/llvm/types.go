package llvm

import (
	"fmt"

	lltypes "github.com/llir/llvm/ir/types"

	"ember/internal/types"
)

var primTypes = map[types.Kind]lltypes.Type{
	types.KindVoid:   lltypes.Void,
	types.KindBool:   lltypes.I1,
	types.KindChar:   lltypes.I32,
	types.KindI8:     lltypes.I8,
	types.KindI16:    lltypes.I16,
	types.KindI32:    lltypes.I32,
	types.KindI64:    lltypes.I64,
	types.KindU8:     lltypes.I8,
	types.KindU16:    lltypes.I16,
	types.KindU32:    lltypes.I32,
	types.KindU64:    lltypes.I64,
	types.KindF32:    lltypes.Float,
	types.KindF64:    lltypes.Double,
	types.KindString: lltypes.I8Ptr,
}

// llType maps a solved type onto LLVM. Structs become named (identified)
// types, so recursive pointers terminate.
func (e *emitter) llType(t types.Type) (lltypes.Type, error) {
	if lt, ok := primTypes[t.Kind]; ok {
		return lt, nil
	}
	switch t.Kind {
	case types.KindPointer:
		if t.Elem == nil {
			break
		}
		elem, err := e.llType(*t.Elem)
		if err != nil {
			return nil, err
		}
		if elem == lltypes.Void {
			elem = lltypes.I8
		}
		return lltypes.NewPointer(elem), nil
	case types.KindStruct:
		if t.Struct == nil {
			break
		}
		return e.structType(t.Struct)
	case types.KindEnum:
		return lltypes.I32, nil
	case types.KindArray:
		if t.Elem == nil {
			break
		}
		elem, err := e.llType(*t.Elem)
		if err != nil {
			return nil, err
		}
		return lltypes.NewArray(uint64(t.Len), elem), nil
	case types.KindOption:
		if t.Elem == nil {
			break
		}
		elem, err := e.llType(*t.Elem)
		if err != nil {
			return nil, err
		}
		return lltypes.NewStruct(lltypes.I1, elem), nil
	case types.KindErrUnion:
		if t.Elem == nil || t.Err == nil {
			break
		}
		errT, err := e.llType(*t.Err)
		if err != nil {
			return nil, err
		}
		ok, err := e.llType(*t.Elem)
		if err != nil {
			return nil, err
		}
		return lltypes.NewStruct(lltypes.I1, errT, ok), nil
	case types.KindFunc:
		if t.Func == nil {
			break
		}
		sig, err := e.funcType(t.Func.Params, t.Func.Result)
		if err != nil {
			return nil, err
		}
		return lltypes.NewPointer(sig), nil
	}
	return nil, fmt.Errorf("implement type %s (%s) in llvm backend", t, t.Kind)
}

func (e *emitter) funcType(params []types.Type, result types.Type) (*lltypes.FuncType, error) {
	ret, err := e.llType(result)
	if err != nil {
		return nil, err
	}
	ps := make([]lltypes.Type, len(params))
	for i, p := range params {
		if ps[i], err = e.llType(p); err != nil {
			return nil, err
		}
	}
	return lltypes.NewFunc(ret, ps...), nil
}

// structType returns the identified type of s, defining it on first use.
// The type is registered before its fields so self references through
// pointers find it.
func (e *emitter) structType(s *types.Struct) (*lltypes.StructType, error) {
	if st, ok := e.structs[s]; ok {
		return st, nil
	}
	st := &lltypes.StructType{Packed: s.Packed}
	e.structs[s] = st
	e.mod.NewTypeDef(e.opts.Lang+"."+s.Name, st)
	fields := make([]lltypes.Type, len(s.Fields))
	for i, f := range s.Fields {
		ft, err := e.llType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", s.Name, f.Name, err)
		}
		fields[i] = ft
	}
	st.Fields = fields
	return st, nil
}
