package testkit

import (
	"fmt"

	"ember/internal/ir"
)

// NetStack runs a straight-line instruction sequence over an empty operand
// stack and returns the resulting depth. Underflow is an error, and so is
// any control instruction other than a label or comment.
func NetStack(instrs []ir.Instr) (int, error) {
	depth := 0
	for i := range instrs {
		in := &instrs[i]
		switch in.Kind {
		case ir.InstrJump, ir.InstrJumpIfFalse, ir.InstrReturn:
			return depth, fmt.Errorf("L%d: %s in straight-line code", i, in.Kind)
		}
		pops, pushes := ir.StackEffect(in)
		if depth < pops {
			return depth, fmt.Errorf("L%d: %s pops %d, stack has %d", i, in.Kind, pops, depth)
		}
		depth += pushes - pops
	}
	return depth, nil
}

// CheckStackBalance verifies that instrs, the code of one complete
// expression, leave exactly one value on the stack.
func CheckStackBalance(instrs []ir.Instr) error {
	depth, err := NetStack(instrs)
	if err != nil {
		return err
	}
	if depth != 1 {
		return fmt.Errorf("expression leaves %d values, want 1", depth)
	}
	return nil
}

// CheckLabels verifies the label table of a built function:
// 1) every label is placed exactly once, by a Label instruction at Labels[id]
// 2) every jump references a known label
// 3) a jump never targets its own position
func CheckLabels(f *ir.Func) error {
	if f == nil {
		return fmt.Errorf("nil function")
	}
	placed := make([]int, len(f.Labels))
	for i := range f.Instrs {
		in := &f.Instrs[i]
		switch in.Kind {
		case ir.InstrLabel:
			if int(in.Label) >= len(f.Labels) {
				return fmt.Errorf("L%d: unknown label #%d", i, in.Label)
			}
			placed[in.Label]++
			if f.Labels[in.Label] != i {
				return fmt.Errorf("label #%d placed at L%d but resolved to L%d", in.Label, i, f.Labels[in.Label])
			}
		case ir.InstrJump, ir.InstrJumpIfFalse:
			if int(in.Label) >= len(f.Labels) {
				return fmt.Errorf("L%d: jump to unknown label #%d", i, in.Label)
			}
			if f.Labels[in.Label] == i {
				return fmt.Errorf("L%d: jump targets itself", i)
			}
		}
	}
	for id, n := range placed {
		if n != 1 {
			return fmt.Errorf("label #%d placed %d times", id, n)
		}
	}
	return nil
}

// Kinds lists the instruction kinds of instrs, comments dropped.
func Kinds(instrs []ir.Instr) []ir.InstrKind {
	out := make([]ir.InstrKind, 0, len(instrs))
	for i := range instrs {
		if instrs[i].Kind == ir.InstrComment {
			continue
		}
		out = append(out, instrs[i].Kind)
	}
	return out
}
