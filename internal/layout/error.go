package layout

import (
	"errors"
	"fmt"
	"strings"
)

type LayoutErrorKind uint8

const (
	// LayoutErrRecursiveUnsized: a struct contains itself by value.
	LayoutErrRecursiveUnsized LayoutErrorKind = iota + 1
	// LayoutErrUnsized: the type never has a storage size (type, unsolved).
	LayoutErrUnsized
)

var (
	ErrInfiniteSize = errors.New("recursive value type has infinite size")
	ErrNoLayout     = errors.New("type has no layout")
)

// LayoutError names the type whose layout failed. Cycle lists struct names
// from the outermost struct back to itself.
type LayoutError struct {
	Kind  LayoutErrorKind
	Type  string
	Cycle []string
}

func (e *LayoutError) Unwrap() error {
	switch e.Kind {
	case LayoutErrRecursiveUnsized:
		return ErrInfiniteSize
	case LayoutErrUnsized:
		return ErrNoLayout
	}
	return nil
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	base := e.Unwrap()
	if base == nil {
		return fmt.Sprintf("layout error kind=%d (%s)", e.Kind, e.Type)
	}
	if len(e.Cycle) > 0 {
		return fmt.Sprintf("%v (cycle: %s)", base, strings.Join(e.Cycle, " -> "))
	}
	return fmt.Sprintf("%v (%s)", base, e.Type)
}
