package c

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"ember/internal/ir"
	"ember/internal/types"
)

func (e *emitter) constExpr(c ir.Const, t types.Type) (string, error) {
	switch c.Kind {
	case ir.ConstInt:
		if t.Kind == types.KindEnum {
			return strconv.FormatInt(c.Int, 10), nil
		}
		ct, err := e.cType(t)
		if err != nil {
			return "", err
		}
		return intLiteral(c.Int, ct, t.Kind), nil
	case ir.ConstFloat:
		return floatLiteral(c.Float, t.Kind == types.KindF32), nil
	case ir.ConstBool:
		if c.Bool {
			return "true", nil
		}
		return "false", nil
	case ir.ConstChar:
		return fmt.Sprintf("((char32)%d)", c.Char), nil
	case ir.ConstString:
		return quote(c.Str), nil
	case ir.ConstFunc:
		return e.funcName(c.Str), nil
	}
	return "", fmt.Errorf("implement constant kind %d in c backend", c.Kind)
}

func intLiteral(v int64, ct string, k types.Kind) string {
	switch {
	case v == math.MinInt64:
		return fmt.Sprintf("((%s)(-9223372036854775807LL - 1))", ct)
	case k == types.KindU64:
		return fmt.Sprintf("((%s)%dULL)", ct, uint64(v))
	case v < 0 || k == types.KindI64:
		return fmt.Sprintf("((%s)%dLL)", ct, v)
	}
	return fmt.Sprintf("((%s)%d)", ct, v)
}

func floatLiteral(v float64, single bool) string {
	switch {
	case math.IsNaN(v):
		return "NAN"
	case math.IsInf(v, 1):
		return "INFINITY"
	case math.IsInf(v, -1):
		return "(-INFINITY)"
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	if single {
		s += "f"
	}
	if v < 0 {
		s = "(" + s + ")"
	}
	return s
}

// quote renders s as a C string literal. Bytes outside printable ASCII are
// written as three-digit octal escapes, which never swallow following digits.
func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case '?':
			// триграфы
			sb.WriteString(`\?`)
		default:
			if ch < 0x20 || ch >= 0x7f {
				fmt.Fprintf(&sb, `\%03o`, ch)
			} else {
				sb.WriteByte(ch)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
