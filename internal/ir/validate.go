package ir

import (
	"errors"
	"fmt"
)

// Validate checks structural invariants of a built module: labels resolved
// and placed where they claim, jumps and slots in range, and a consistent
// operand stack along every path (no underflow, equal depth wherever paths
// join, empty stack at every return).
func Validate(m *Module) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, f := range m.Funcs {
		if f == nil || f.Extern {
			continue
		}
		if err := ValidateFunc(f); err != nil {
			errs = append(errs, fmt.Errorf("function %s: %w", f.Name, err))
		}
	}
	return errors.Join(errs...)
}

// ValidateFunc checks one function.
func ValidateFunc(f *Func) error {
	var errs []error
	if err := validateLabels(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateLocals(f); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		// стек без корректных меток не проверить
		return errors.Join(errs...)
	}
	return validateStack(f)
}

func validateLabels(f *Func) error {
	var errs []error
	for id, idx := range f.Labels {
		if idx < 0 || idx >= len(f.Instrs) {
			errs = append(errs, fmt.Errorf("label #%d resolved out of range: %d", id, idx))
			continue
		}
		in := f.Instrs[idx]
		if in.Kind != InstrLabel || int(in.Label) != id {
			errs = append(errs, fmt.Errorf("label #%d: instruction %d is %s", id, idx, in.Kind))
		}
	}
	for i := range f.Instrs {
		in := &f.Instrs[i]
		switch in.Kind {
		case InstrJump, InstrJumpIfFalse, InstrLabel:
			if int(in.Label) >= len(f.Labels) {
				errs = append(errs, fmt.Errorf("L%d: %s references unknown label #%d", i, in.Kind, in.Label))
			}
		}
	}
	return errors.Join(errs...)
}

func validateLocals(f *Func) error {
	var errs []error
	if len(f.Params) > len(f.Allocs) {
		errs = append(errs, fmt.Errorf("%d params but %d slots", len(f.Params), len(f.Allocs)))
	}
	for i := range f.Instrs {
		in := &f.Instrs[i]
		if in.Kind != InstrLoadLocal && in.Kind != InstrStoreLocal {
			continue
		}
		if int(in.Local) >= len(f.Allocs) {
			errs = append(errs, fmt.Errorf("L%d: %s of unknown slot %d", i, in.Kind, in.Local))
		}
	}
	return errors.Join(errs...)
}

func validateStack(f *Func) error {
	depth := make([]int, len(f.Instrs)+1)
	for i := range depth {
		depth[i] = -1
	}
	var errs []error
	work := []int{0}
	depth[0] = 0
	join := func(from, to, d int) {
		if to > len(f.Instrs) {
			errs = append(errs, fmt.Errorf("L%d: jump past end", from))
			return
		}
		switch depth[to] {
		case -1:
			depth[to] = d
			work = append(work, to)
		case d:
		default:
			errs = append(errs, fmt.Errorf("L%d: stack depth %d, L%d reached with %d", to, depth[to], from, d))
		}
	}
	for len(work) > 0 {
		pc := work[len(work)-1]
		work = work[:len(work)-1]
		if pc == len(f.Instrs) {
			if d := depth[pc]; d != 0 {
				errs = append(errs, fmt.Errorf("falls off the end with %d values on the stack", d))
			}
			continue
		}
		in := &f.Instrs[pc]
		pops, pushes := StackEffect(in)
		d := depth[pc]
		if d < pops {
			errs = append(errs, fmt.Errorf("L%d: %s needs %d values, stack has %d", pc, in.Kind, pops, d))
			continue
		}
		d = d - pops + pushes
		switch in.Kind {
		case InstrReturn:
			if d != 0 {
				errs = append(errs, fmt.Errorf("L%d: return leaves %d values on the stack", pc, d))
			}
		case InstrJump:
			join(pc, f.Labels[in.Label], d)
		case InstrJumpIfFalse:
			join(pc, f.Labels[in.Label], d)
			join(pc, pc+1, d)
		default:
			join(pc, pc+1, d)
		}
	}
	return errors.Join(errs...)
}
