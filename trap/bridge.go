package trap

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/alirzasahb/PumpkinOS/emuerrors"
	"github.com/alirzasahb/PumpkinOS/guest"
	"github.com/alirzasahb/PumpkinOS/log"
	"github.com/alirzasahb/PumpkinOS/m68k"
)

// ErrWouldBlock is returned by handlers that cannot complete yet. The trap
// instruction is re-executed on the next slice.
var ErrWouldBlock = emuerrors.ErrHWouldBlock

// Exit codes reported when the bridge ends a process.
const (
	UnmappedExitCode = -1 // no handler for the vector or selector
	FatalExitCode    = -2 // a handler failed on the host side
)

// UnmappedTrapError reports a vector or selector with no handler.
type UnmappedTrapError struct {
	Personality string
	Vector      uint32
	Selector    uint16
}

func (e *UnmappedTrapError) Error() string {
	if e.Personality == "" {
		return fmt.Sprintf("unmapped trap vector 0x%X", e.Vector)
	}
	return fmt.Sprintf("unmapped %s selector %d (0x%X) on vector 0x%X", e.Personality, e.Selector, e.Selector, e.Vector)
}

func (e *UnmappedTrapError) Unwrap() error { return emuerrors.ErrUnmappedTrap }

// ExitError is returned by Invoke when the called function terminates the process.
type ExitError struct {
	Code int32
}

func (e *ExitError) Error() string { return fmt.Sprintf("process exit %d", e.Code) }

// Stat counts the calls made to one selector.
type Stat struct {
	Personality string
	Selector    uint16
	Name        string
	Count       uint64
}

type statKey struct {
	personality string
	selector    uint16
}

// Bridge dispatches the traps of one process to its environment E.
type Bridge[E any] struct {
	env           E
	cpu           m68k.Engine
	mem           *guest.Memory
	personalities []*Personality[E]

	mu       sync.Mutex
	stats    map[statKey]*Stat
	exited   bool
	exitCode int32
	err      error
}

// NewBridge binds personalities to a process. Personalities must not overlap.
func NewBridge[E any](env E, cpu m68k.Engine, mem *guest.Memory, personalities ...*Personality[E]) *Bridge[E] {
	return &Bridge[E]{
		env:           env,
		cpu:           cpu,
		mem:           mem,
		personalities: personalities,
		stats:         make(map[statKey]*Stat),
	}
}

// Install makes b the CPU's trap handler.
func (b *Bridge[E]) Install() { b.cpu.SetTrapHandler(b.Handle) }

// Personality returns the personality serving vector.
func (b *Bridge[E]) Personality(vector uint32) (*Personality[E], bool) {
	for _, p := range b.personalities {
		if p.Serves(vector) {
			return p, true
		}
	}
	return nil, false
}

// Exited reports whether a handler terminated the process and with which code.
func (b *Bridge[E]) Exited() (int32, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exitCode, b.exited
}

// Err returns the error that stopped the process, if any.
func (b *Bridge[E]) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Handle is the m68k.TrapHandler entry point.
func (b *Bridge[E]) Handle(vector uint32) m68k.TrapOutcome {
	code, exit, err := b.dispatch(vector)
	switch {
	case err == nil && !exit:
		return m68k.TrapContinue
	case err == nil:
		b.terminate(code, nil)
		return m68k.TrapTerminate
	case errors.Is(err, ErrWouldBlock):
		return m68k.TrapRetry
	case errors.Is(err, emuerrors.ErrUnmappedTrap):
		b.terminate(UnmappedExitCode, err)
		return m68k.TrapUnmapped
	}
	b.terminate(FatalExitCode, err)
	b.cpu.SetFault(err)
	return m68k.TrapFatal
}

func (b *Bridge[E]) terminate(code int32, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.exited = true
	b.exitCode = code
	if b.err == nil {
		b.err = err
	}
}

// dispatch resolves and runs the handler for vector. On any error the
// registers are restored to their state at entry; the engine then rewinds
// PC to the trap instruction.
func (b *Bridge[E]) dispatch(vector uint32) (int32, bool, error) {
	snap := m68k.Snapshot(b.cpu)
	p, ok := b.Personality(vector)
	if !ok {
		err := &UnmappedTrapError{Vector: vector}
		log.Error(log.TrapMonitoring, "unmapped trap", "vector", fmt.Sprintf("0x%X", vector),
			"pc", fmt.Sprintf("0x%08X", snap.PC))
		m68k.Restore(b.cpu, snap)
		return 0, false, err
	}

	frame := Frame{Vector: vector, SP: snap.A[7], PC: snap.PC}
	args := NewArgs(b.mem, frame.SP)
	switch p.Source {
	case FromStack:
		frame.Selector = args.Word()
	case FromD0:
		frame.Selector = uint16(snap.D[0])
	case FromVector:
		frame.Selector = uint16(vector & 0xFFF)
	}

	entry, ok := p.Table.Lookup(frame.Selector)
	if !ok {
		err := &UnmappedTrapError{Personality: p.Name, Vector: vector, Selector: frame.Selector}
		log.Error(log.TrapMonitoring, "unmapped trap", "personality", p.Name,
			"selector", frame.Selector, "pc", fmt.Sprintf("0x%08X", snap.PC))
		m68k.Restore(b.cpu, snap)
		return 0, false, err
	}
	b.count(p.Name, frame.Selector, entry.Name)
	log.Debug(p.Module, entry.Name, "selector", frame.Selector, "sp", fmt.Sprintf("0x%08X", frame.SP))

	call := &Call{Frame: frame, Name: entry.Name, Args: args, cpu: b.cpu, mem: b.mem}
	if err := entry.Handler(b.env, call); err != nil {
		m68k.Restore(b.cpu, snap)
		if errors.Is(err, ErrWouldBlock) {
			log.Trace(p.Module, entry.Name+" would block")
			return 0, false, err
		}
		log.Error(p.Module, entry.Name+" failed", "err", err)
		return 0, false, fmt.Errorf("%s: %w", entry.Name, err)
	}
	code, exit := call.Exiting()
	if exit {
		log.Debug(p.Module, entry.Name+" exit", "code", code)
	}
	return code, exit, nil
}

func (b *Bridge[E]) count(personality string, sel uint16, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := statKey{personality, sel}
	s, ok := b.stats[k]
	if !ok {
		s = &Stat{Personality: personality, Selector: sel, Name: name}
		b.stats[k] = s
	}
	s.Count++
}

// Stats returns per-selector call counts ordered by personality and selector.
func (b *Bridge[E]) Stats() []Stat {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Stat, 0, len(b.stats))
	for _, s := range b.stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Personality != out[j].Personality {
			return out[i].Personality < out[j].Personality
		}
		return out[i].Selector < out[j].Selector
	})
	return out
}

// Calls returns the total number of dispatched calls.
func (b *Bridge[E]) Calls() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	var n uint64
	for _, s := range b.stats {
		n += s.Count
	}
	return n
}
