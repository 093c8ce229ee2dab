// Package guest implements the flat big-endian memory seen by a 68000 guest:
// one fixed-size RAM arena, the 0xFFxxxxxx mirror of the 24-bit bus, and the
// memory-mapped I/O window at the top of the address space.
package guest

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"github.com/alirzasahb/PumpkinOS/emuerrors"
	"github.com/alirzasahb/PumpkinOS/log"
)

const (
	DefaultSize = 1 << 20 // 1 MiB arena
	Alignment   = 16

	IOBase = 0x00FF8000
	IOEnd  = 0x01000000

	mirrorMask = 0xFF000000
)

// Memory is one guest arena. It is owned by a single process and is not safe
// for concurrent use, except for Violations which may be read from any goroutine.
type Memory struct {
	ram      []byte
	size     uint32
	addrMask uint32
	io       *IOWindow
	release  func() error

	violations atomic.Uint64
	closed     bool
}

// Option customizes a Memory at construction.
type Option func(*Memory)

// WithAddressBits sets the width of the address bus. The 68000 drives 24 lines.
func WithAddressBits(bits int) Option {
	return func(m *Memory) {
		if bits <= 0 || bits >= 32 {
			m.addrMask = 0xFFFFFFFF
			return
		}
		m.addrMask = uint32(1)<<bits - 1
	}
}

// WithIOWindow replaces the default ST register table.
func WithIOWindow(w *IOWindow) Option {
	return func(m *Memory) { m.io = w }
}

// New allocates a zeroed arena of size bytes aligned to at least Alignment.
func New(size uint32, opts ...Option) (*Memory, error) {
	if size == 0 || size%Alignment != 0 {
		return nil, fmt.Errorf("arena size %d: %w", size, emuerrors.ErrMArena)
	}
	if size > IOBase {
		return nil, fmt.Errorf("arena size %#x overlaps the I/O window: %w", size, emuerrors.ErrMArena)
	}
	ram, release, err := allocArena(int(size))
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, emuerrors.ErrMArena)
	}
	m := &Memory{
		ram:      ram,
		size:     size,
		addrMask: 0x00FFFFFF,
		io:       NewSTIOWindow(),
		release:  release,
	}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

// Size returns the arena capacity in bytes.
func (m *Memory) Size() uint32 { return m.size }

// Bytes exposes the arena itself. Used by execution backends that map guest
// RAM directly.
func (m *Memory) Bytes() []byte { return m.ram }

// IO returns the register table backing the I/O window.
func (m *Memory) IO() *IOWindow { return m.io }

// Violations counts out-of-arena and misaligned accesses since creation.
func (m *Memory) Violations() uint64 { return m.violations.Load() }

// Close releases the arena. Later accesses behave as out of range.
func (m *Memory) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	m.ram = nil
	m.size = 0
	if m.release != nil {
		return m.release()
	}
	return nil
}

// Translate folds the 0xFF mirror and masks to the bus width.
func (m *Memory) Translate(addr uint32) uint32 {
	if addr&mirrorMask == mirrorMask {
		addr &= 0x00FFFFFF
	}
	return addr & m.addrMask
}

func inIO(a uint32) bool { return a >= IOBase && a < IOEnd }

func (m *Memory) outOfRange(op string, addr uint32) {
	m.violations.Add(1)
	log.Debug(log.TOSMonitoring, "access outside arena", "op", op, "addr", fmt.Sprintf("0x%08X", addr))
}

func (m *Memory) misaligned(op string, addr uint32) {
	m.violations.Add(1)
	log.Error(log.TOSMonitoring, "misaligned access", "op", op, "addr", fmt.Sprintf("0x%08X", addr))
}

func (m *Memory) Read8(addr uint32) uint8 {
	a := m.Translate(addr)
	if inIO(a) {
		return m.io.Read8(a)
	}
	if a < m.size {
		return m.ram[a]
	}
	m.outOfRange("read8", addr)
	return 0
}

func (m *Memory) Read16(addr uint32) uint16 {
	a := m.Translate(addr)
	if a&1 != 0 {
		m.misaligned("read16", addr)
		return 0
	}
	if inIO(a) {
		return uint16(m.io.Read8(a))<<8 | uint16(m.io.Read8(a+1))
	}
	if uint64(a)+2 <= uint64(m.size) {
		return binary.BigEndian.Uint16(m.ram[a:])
	}
	m.outOfRange("read16", addr)
	return 0
}

func (m *Memory) Read32(addr uint32) uint32 {
	a := m.Translate(addr)
	if a&1 != 0 {
		m.misaligned("read32", addr)
		return 0
	}
	if inIO(a) {
		return uint32(m.Read16(a))<<16 | uint32(m.Read16(a+2))
	}
	if uint64(a)+4 <= uint64(m.size) {
		return binary.BigEndian.Uint32(m.ram[a:])
	}
	m.outOfRange("read32", addr)
	return 0
}

func (m *Memory) Write8(addr uint32, v uint8) {
	a := m.Translate(addr)
	if inIO(a) {
		m.io.Write8(a, v)
		return
	}
	if a < m.size {
		m.ram[a] = v
		return
	}
	m.outOfRange("write8", addr)
}

func (m *Memory) Write16(addr uint32, v uint16) {
	a := m.Translate(addr)
	if a&1 != 0 {
		m.misaligned("write16", addr)
		return
	}
	if inIO(a) {
		m.io.Write8(a, uint8(v>>8))
		m.io.Write8(a+1, uint8(v))
		return
	}
	if uint64(a)+2 <= uint64(m.size) {
		binary.BigEndian.PutUint16(m.ram[a:], v)
		return
	}
	m.outOfRange("write16", addr)
}

func (m *Memory) Write32(addr uint32, v uint32) {
	a := m.Translate(addr)
	if a&1 != 0 {
		m.misaligned("write32", addr)
		return
	}
	if inIO(a) {
		m.Write16(a, uint16(v>>16))
		m.Write16(a+2, uint16(v))
		return
	}
	if uint64(a)+4 <= uint64(m.size) {
		binary.BigEndian.PutUint32(m.ram[a:], v)
		return
	}
	m.outOfRange("write32", addr)
}
