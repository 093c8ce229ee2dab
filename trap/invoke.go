package trap

import (
	"fmt"

	"github.com/alirzasahb/PumpkinOS/m68k"
)

type argKind int

const (
	argWord argKind = iota
	argLong
	argString
)

// Arg is one value pushed by Invoke.
type Arg struct {
	kind argKind
	v    uint32
	s    string
}

// W passes a 16-bit word.
func W(v uint16) Arg { return Arg{kind: argWord, v: uint32(v)} }

// L passes a 32-bit long.
func L(v uint32) Arg { return Arg{kind: argLong, v: v} }

// Str copies s below the frame and passes its address as a long.
func Str(s string) Arg { return Arg{kind: argString, s: s} }

func (a Arg) size() uint32 {
	if a.kind == argWord {
		return 2
	}
	return 4
}

// Invoke calls selector on vector from the host side, laying arguments out
// exactly as guest code would. Stack personalities get the selector word at
// SP followed by args. For D0 personalities the selector goes in D0 and the
// first argument in D1. The caller's registers are restored afterwards and
// D0 is returned. It must not be called while the CPU is running.
func (b *Bridge[E]) Invoke(vector uint32, selector uint16, args ...Arg) (uint32, error) {
	p, ok := b.Personality(vector)
	if !ok {
		return 0, &UnmappedTrapError{Vector: vector}
	}
	snap := m68k.Snapshot(b.cpu)
	defer m68k.Restore(b.cpu, snap)

	sp := snap.A[7]
	ptrs := make([]uint32, len(args))
	for i, a := range args {
		if a.kind != argString {
			continue
		}
		n := uint32(len(a.s)) + 1
		sp -= (n + 1) &^ 1
		b.mem.WriteCString(sp, a.s)
		ptrs[i] = sp
	}

	var size uint32
	if p.Source == FromStack {
		size = 2
	}
	for _, a := range args {
		size += a.size()
	}
	sp -= size
	pos := sp
	if p.Source == FromStack {
		b.mem.Write16(pos, selector)
		pos += 2
	}
	for i, a := range args {
		switch a.kind {
		case argWord:
			b.mem.Write16(pos, uint16(a.v))
		case argLong:
			b.mem.Write32(pos, a.v)
		case argString:
			b.mem.Write32(pos, ptrs[i])
		}
		pos += a.size()
	}

	b.cpu.SetRegister(m68k.RegA7, sp)
	switch p.Source {
	case FromD0:
		b.cpu.SetRegister(m68k.RegD0, uint32(int32(int16(selector))))
		if len(args) > 0 {
			v := args[0].v
			if args[0].kind == argString {
				v = ptrs[0]
			}
			b.cpu.SetRegister(m68k.RegD1, v)
		}
	case FromVector:
		vector = p.First + uint32(selector)
	}

	code, exit, err := b.dispatch(vector)
	d0 := b.cpu.GetRegister(m68k.RegD0)
	if err != nil {
		return d0, err
	}
	if exit {
		return d0, &ExitError{Code: code}
	}
	return d0, nil
}

// InvokeName is Invoke with the selector looked up by entry name.
func (b *Bridge[E]) InvokeName(vector uint32, name string, args ...Arg) (uint32, error) {
	p, ok := b.Personality(vector)
	if !ok {
		return 0, &UnmappedTrapError{Vector: vector}
	}
	sel, ok := p.Table.Selector(name)
	if !ok {
		return 0, fmt.Errorf("%s has no entry %q: %w", p.Name, name, &UnmappedTrapError{Personality: p.Name, Vector: vector})
	}
	return b.Invoke(vector, sel, args...)
}
