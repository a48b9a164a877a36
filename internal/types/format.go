package types

import (
	"fmt"
	"strings"
)

// String renders t the way it would be written in source.
func (t Type) String() string {
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t Type) write(sb *strings.Builder) {
	switch t.Kind {
	case KindPointer:
		sb.WriteByte('*')
		writeElem(sb, t.Elem)
	case KindArray:
		fmt.Fprintf(sb, "[%d]", t.Len)
		writeElem(sb, t.Elem)
	case KindOption:
		sb.WriteByte('?')
		writeElem(sb, t.Elem)
	case KindErrUnion:
		writeElem(sb, t.Err)
		sb.WriteByte('!')
		writeElem(sb, t.Elem)
	case KindNamed:
		sb.WriteString(t.Name)
		writeArgs(sb, t.Args)
	case KindStruct:
		if t.Struct == nil {
			sb.WriteString("struct")
			return
		}
		sb.WriteString(t.Struct.Name)
	case KindEnum:
		if t.Enum == nil {
			sb.WriteString("enum")
			return
		}
		sb.WriteString(t.Enum.Name)
	case KindFunc:
		sb.WriteString("fn(")
		if t.Func != nil {
			for i, p := range t.Func.Params {
				if i > 0 {
					sb.WriteString(", ")
				}
				p.write(sb)
			}
			sb.WriteString("): ")
			t.Func.Result.write(sb)
			return
		}
		sb.WriteString(")")
	default:
		sb.WriteString(t.Kind.String())
	}
}

func writeElem(sb *strings.Builder, t *Type) {
	if t == nil {
		sb.WriteString("?nil")
		return
	}
	t.write(sb)
}

func writeArgs(sb *strings.Builder, args []Type) {
	if len(args) == 0 {
		return
	}
	sb.WriteByte('[')
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		a.write(sb)
	}
	sb.WriteByte(']')
}

// InstanceName is the canonical name of a generic instantiation, used both
// as cache key and as the struct's display name.
func InstanceName(name string, args []Type) string {
	var sb strings.Builder
	sb.WriteString(name)
	writeArgs(&sb, args)
	return sb.String()
}
