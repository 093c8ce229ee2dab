// Package trap bridges guest trap instructions to host handlers. A Bridge
// owns the personalities of one process, decodes the selector for the
// raised vector, marshals the guest calling convention into a Call and
// applies the handler's outcome back onto the CPU.
package trap

import (
	"fmt"
	"sort"
)

// Handler implements one trap selector for a process environment E.
type Handler[E any] func(env E, c *Call) error

// Entry is a named table slot.
type Entry[E any] struct {
	Name    string
	Handler Handler[E]
}

// Table maps selectors to entries. It is immutable once built.
type Table[E any] struct {
	name    string
	entries map[uint16]Entry[E]
	index   map[string]uint16
}

// NewTable builds a table named name. It panics on a nil handler or a
// duplicate entry name, both of which are programming errors.
func NewTable[E any](name string, entries map[uint16]Entry[E]) *Table[E] {
	t := &Table[E]{
		name:    name,
		entries: make(map[uint16]Entry[E], len(entries)),
		index:   make(map[string]uint16, len(entries)),
	}
	for sel, e := range entries {
		if e.Handler == nil {
			panic(fmt.Sprintf("trap: %s selector %d (%s) has no handler", name, sel, e.Name))
		}
		if prev, dup := t.index[e.Name]; dup {
			panic(fmt.Sprintf("trap: %s name %q used by %d and %d", name, e.Name, prev, sel))
		}
		t.entries[sel] = e
		t.index[e.Name] = sel
	}
	return t
}

func (t *Table[E]) Name() string { return t.name }

func (t *Table[E]) Len() int { return len(t.entries) }

// Lookup returns the entry for sel.
func (t *Table[E]) Lookup(sel uint16) (Entry[E], bool) {
	e, ok := t.entries[sel]
	return e, ok
}

// Selector returns the selector registered under name.
func (t *Table[E]) Selector(name string) (uint16, bool) {
	sel, ok := t.index[name]
	return sel, ok
}

// Selectors lists the populated selectors in ascending order.
func (t *Table[E]) Selectors() []uint16 {
	out := make([]uint16, 0, len(t.entries))
	for sel := range t.entries {
		out = append(out, sel)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SelectorSource says where a personality finds its selector.
type SelectorSource int

const (
	FromStack  SelectorSource = iota // word at SP
	FromD0                           // low word of D0
	FromVector                       // low 12 bits of the vector
)

func (s SelectorSource) String() string {
	switch s {
	case FromStack:
		return "stack"
	case FromD0:
		return "d0"
	case FromVector:
		return "vector"
	}
	return fmt.Sprintf("source(%d)", int(s))
}

// Personality is one OS interface reachable through a range of vectors.
type Personality[E any] struct {
	Name   string
	First  uint32 // first vector served
	Last   uint32 // last vector served, inclusive
	Source SelectorSource
	Module string // log module for per-call tracing
	Table  *Table[E]
}

// Serves reports whether p handles vector.
func (p *Personality[E]) Serves(vector uint32) bool {
	return vector >= p.First && vector <= p.Last
}

func (p *Personality[E]) String() string {
	if p.First == p.Last {
		return fmt.Sprintf("%s(0x%X)", p.Name, p.First)
	}
	return fmt.Sprintf("%s(0x%X-0x%X)", p.Name, p.First, p.Last)
}
