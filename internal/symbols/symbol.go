package symbols

import (
	"ember/internal/ast"
	"ember/internal/source"
	"ember/internal/types"
)

// SymbolID identifies a symbol in the table arena.
type SymbolID uint32

// NoSymbolID marks absence of a symbol.
const NoSymbolID SymbolID = 0

// IsValid reports whether id refers to a stored symbol.
func (id SymbolID) IsValid() bool { return id != NoSymbolID }

// SymbolKind classifies the semantic meaning of a symbol.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolFunction
	SymbolStruct
	SymbolGeneric
	SymbolEnum
	SymbolConst
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolFunction:
		return "function"
	case SymbolStruct:
		return "struct"
	case SymbolGeneric:
		return "generic"
	case SymbolEnum:
		return "enum"
	case SymbolConst:
		return "const"
	default:
		return "invalid"
	}
}

// SymbolFlags encode misc attributes for quick checks.
type SymbolFlags uint8

const (
	SymbolFlagExtern SymbolFlags = 1 << iota
	SymbolFlagMethod
	SymbolFlagEntry
)

// Strings returns a slice of textual flag labels.
func (f SymbolFlags) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 3)
	if f&SymbolFlagExtern != 0 {
		labels = append(labels, "extern")
	}
	if f&SymbolFlagMethod != 0 {
		labels = append(labels, "method")
	}
	if f&SymbolFlagEntry != 0 {
		labels = append(labels, "entry")
	}
	return labels
}

// Symbol is one top-level declaration.
//
// Decl-side fields are filled by installation; the resolved fields (Sig,
// Struct, Enum, ConstType) are filled once by the type resolver.
type Symbol struct {
	Kind  SymbolKind
	Name  string // methods are "Struct.method"
	Flags SymbolFlags
	Span  source.Span

	Func       *ast.FuncLit    // function, method
	StructDecl *ast.StructDecl // struct, generic
	EnumDecl   *ast.EnumDecl
	ConstValue *ast.Literal
	ConstDecl  *ast.TypeExpr
	Owner      string // struct name for methods

	Sig       *types.FuncSig
	Struct    *types.Struct
	Enum      *types.Enum
	ConstType types.Type
}

func (s *Symbol) Has(f SymbolFlags) bool { return s != nil && s.Flags&f != 0 }

// Type returns the value type of a resolved symbol when it is used as an expression.
func (s *Symbol) Type() types.Type {
	switch s.Kind {
	case SymbolFunction:
		if s.Sig != nil {
			return types.FuncType(s.Sig)
		}
	case SymbolConst:
		return s.ConstType
	case SymbolStruct:
		if s.Struct != nil {
			return types.StructType(s.Struct)
		}
	case SymbolEnum:
		if s.Enum != nil {
			return types.EnumType(s.Enum)
		}
	}
	return types.Undefined
}
