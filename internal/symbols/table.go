package symbols

import (
	"fmt"

	"fortio.org/safecast"
)

// Table maps top-level names to declarations. One Table per compilation;
// it is passed explicitly to every pass that needs it.
type Table struct {
	data   []Symbol // index 0 reserved for NoSymbolID
	byName map[string]SymbolID
}

// NewTable builds a fresh table with an optional capacity hint.
func NewTable(hint uint) *Table {
	capacity, err := safecast.Conv[uint32](hint)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	if capacity == 0 {
		capacity = 64
	}
	return &Table{
		data:   make([]Symbol, 1, capacity+1),
		byName: make(map[string]SymbolID, capacity),
	}
}

// Declare stores sym unless its name is taken. On conflict it returns the
// existing symbol's ID and false.
func (t *Table) Declare(sym *Symbol) (SymbolID, bool) {
	if sym == nil {
		panic("symbols.Declare: nil symbol")
	}
	if prev, ok := t.byName[sym.Name]; ok {
		return prev, false
	}
	value, err := safecast.Conv[uint32](len(t.data))
	if err != nil {
		panic(fmt.Errorf("symbols arena overflow: %w", err))
	}
	id := SymbolID(value)
	t.data = append(t.data, *sym)
	t.byName[sym.Name] = id
	return id, true
}

// Get returns a symbol pointer or nil for invalid ID.
func (t *Table) Get(id SymbolID) *Symbol {
	if !id.IsValid() || int(id) >= len(t.data) {
		return nil
	}
	return &t.data[id]
}

// Lookup finds a symbol by name.
func (t *Table) Lookup(name string) (*Symbol, bool) {
	id, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return &t.data[id], true
}

// LookupKind finds a symbol by name and kind.
func (t *Table) LookupKind(name string, kind SymbolKind) (*Symbol, bool) {
	sym, ok := t.Lookup(name)
	if !ok || sym.Kind != kind {
		return nil, false
	}
	return sym, true
}

// Method finds `owner.name`.
func (t *Table) Method(owner, name string) (*Symbol, bool) {
	return t.LookupKind(owner+"."+name, SymbolFunction)
}

// Len reports number of stored symbols.
func (t *Table) Len() int { return len(t.data) - 1 }

// Each visits symbols in declaration order. Stops when fn returns false.
func (t *Table) Each(fn func(SymbolID, *Symbol) bool) {
	for i := 1; i < len(t.data); i++ {
		if !fn(SymbolID(i), &t.data[i]) { //nolint:gosec // bounded by arena size
			return
		}
	}
}

// OfKind returns symbols of one kind in declaration order.
func (t *Table) OfKind(kind SymbolKind) []*Symbol {
	var out []*Symbol
	t.Each(func(_ SymbolID, s *Symbol) bool {
		if s.Kind == kind {
			out = append(out, s)
		}
		return true
	})
	return out
}
