package types

import "fmt"

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVoid
	KindBool
	KindChar
	KindI8
	KindI16
	KindI32
	KindI64
	KindU8
	KindU16
	KindU32
	KindU64
	KindF32
	KindF64
	KindString
	KindPointer
	KindArray
	KindOption
	KindErrUnion
	KindNamed
	KindStruct
	KindEnum
	KindFunc
	KindAuto
	KindUnknown
	KindUndefined
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindVoid:      "void",
	KindBool:      "bool",
	KindChar:      "char",
	KindI8:        "i8",
	KindI16:       "i16",
	KindI32:       "i32",
	KindI64:       "i64",
	KindU8:        "u8",
	KindU16:       "u16",
	KindU32:       "u32",
	KindU64:       "u64",
	KindF32:       "f32",
	KindF64:       "f64",
	KindString:    "string",
	KindPointer:   "pointer",
	KindArray:     "array",
	KindOption:    "option",
	KindErrUnion:  "errunion",
	KindNamed:     "named",
	KindStruct:    "struct",
	KindEnum:      "enum",
	KindFunc:      "func",
	KindAuto:      "auto",
	KindUnknown:   "unknown",
	KindUndefined: "undefined",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ParseKind maps a kind name as written in serialized trees back to Kind.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s && Kind(k) != KindInvalid {
			return Kind(k), true
		}
	}
	return KindInvalid, false
}

// IsPrimitive reports kinds that carry no payload.
func (k Kind) IsPrimitive() bool {
	switch k {
	case KindVoid, KindBool, KindChar, KindString,
		KindI8, KindI16, KindI32, KindI64,
		KindU8, KindU16, KindU32, KindU64,
		KindF32, KindF64, KindUnknown:
		return true
	}
	return false
}

func (k Kind) IsInteger() bool {
	return k >= KindI8 && k <= KindU64
}

func (k Kind) IsSigned() bool {
	return k >= KindI8 && k <= KindI64
}

func (k Kind) IsFloat() bool {
	return k == KindF32 || k == KindF64
}

func (k Kind) IsNumeric() bool {
	return k.IsInteger() || k.IsFloat()
}

// Bits returns the width of numeric, bool and char kinds, 0 otherwise.
func (k Kind) Bits() int {
	switch k {
	case KindBool:
		return 1
	case KindI8, KindU8:
		return 8
	case KindI16, KindU16:
		return 16
	case KindI32, KindU32, KindF32, KindChar:
		return 32
	case KindI64, KindU64, KindF64:
		return 64
	}
	return 0
}
