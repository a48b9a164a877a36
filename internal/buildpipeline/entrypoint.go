package buildpipeline

import (
	"fmt"
	"strings"

	"ember/internal/ir"
)

// ValidateEntrypoint ensures a program module names exactly one entry
// function that takes no parameters. Libraries must not carry one.
func ValidateEntrypoint(m *ir.Module, library bool) error {
	if m == nil {
		return fmt.Errorf("missing compilation result")
	}
	if library {
		if m.Entry != "" {
			return fmt.Errorf("library module %q has entry point %s", m.Name, m.Entry)
		}
		return nil
	}
	if m.Entry == "" {
		return fmt.Errorf("no entry point found in module %q", m.Name)
	}
	f, ok := m.Func(m.Entry)
	if !ok {
		return fmt.Errorf("entry point %s is not a function of module %q (functions: %s)", m.Entry, m.Name, formatFuncList(m))
	}
	if f.Extern {
		return fmt.Errorf("entry point %s is an extern declaration", f.Name)
	}
	if len(f.Params) != 0 {
		return fmt.Errorf("entry point %s must not take parameters, has %d", f.Name, len(f.Params))
	}
	return nil
}

func formatFuncList(m *ir.Module) string {
	parts := make([]string, 0, len(m.Funcs))
	for _, f := range m.Funcs {
		parts = append(parts, f.Name)
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
