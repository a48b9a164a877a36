package diag

import (
	"cmp"
	"slices"

	"ember/internal/source"
)

// Bag collects diagnostics up to a limit. Diagnostics past the limit are
// counted but not kept.
type Bag struct {
	items   []Diagnostic
	max     int
	errors  int
	dropped int
}

// NewBag keeps at most max diagnostics; max <= 0 means no limit.
func NewBag(max int) *Bag {
	if max < 0 {
		max = 0
	}
	return &Bag{items: make([]Diagnostic, 0, min(max, 64)), max: max}
}

// Add keeps d unless the bag is full. Errors are counted either way, so a
// full bag still stops the pipeline.
func (b *Bag) Add(d Diagnostic) bool {
	if d.IsError() {
		b.errors++
	}
	if b.max > 0 && len(b.items) >= b.max {
		b.dropped++
		return false
	}
	b.items = append(b.items, d)
	return true
}

// HasErrors reports whether any error was added, kept or not.
func (b *Bag) HasErrors() bool { return b.errors > 0 }

// Errors is the number of errors added.
func (b *Bag) Errors() int { return b.errors }

// HasWarnings reports whether a kept diagnostic is a warning or worse.
func (b *Bag) HasWarnings() bool {
	return slices.ContainsFunc(b.items, func(d Diagnostic) bool { return d.Severity >= SevWarning })
}

// Len is the number of kept diagnostics.
func (b *Bag) Len() int { return len(b.items) }

// Dropped is the number of diagnostics rejected by the limit.
func (b *Bag) Dropped() int { return b.dropped }

// Items returns the kept diagnostics. The slice is shared with the bag.
func (b *Bag) Items() []Diagnostic { return b.items }

// Merge appends other; the limit grows to fit.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.items = append(b.items, other.items...)
	b.errors += other.errors
	b.dropped += other.dropped
	if b.max > 0 && len(b.items) > b.max {
		b.max = len(b.items)
	}
}

// Sort orders by file, start, end, then severity (errors first) and code.
func (b *Bag) Sort() {
	slices.SortStableFunc(b.items, func(x, y Diagnostic) int {
		return cmp.Or(
			cmp.Compare(x.Primary.File, y.Primary.File),
			cmp.Compare(x.Primary.Start, y.Primary.Start),
			cmp.Compare(x.Primary.End, y.Primary.End),
			cmp.Compare(y.Severity, x.Severity),
			cmp.Compare(x.Code, y.Code),
		)
	})
}

// Dedup drops later diagnostics with the same code and primary span.
// Diagnostics without a span are kept.
func (b *Bag) Dedup() {
	type key struct {
		code Code
		span [3]uint32
	}
	seen := make(map[key]bool, len(b.items))
	b.items = slices.DeleteFunc(b.items, func(d Diagnostic) bool {
		if d.Primary == (source.Span{}) {
			return false
		}
		k := key{d.Code, [3]uint32{uint32(d.Primary.File), d.Primary.Start, d.Primary.End}}
		if seen[k] {
			return true
		}
		seen[k] = true
		return false
	})
}
