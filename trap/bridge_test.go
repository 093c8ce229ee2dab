package trap

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/alirzasahb/PumpkinOS/emuerrors"
	"github.com/alirzasahb/PumpkinOS/guest"
	"github.com/alirzasahb/PumpkinOS/m68k"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	codeBase = 0x1000
	stackTop = 0x8000
)

type env struct {
	drive   uint32
	blocked int
	lastStr string
}

var osTable = NewTable("test", map[uint16]Entry[*env]{
	0x19: {"Dgetdrv", func(e *env, c *Call) error {
		c.Return(e.drive)
		return nil
	}},
	0x20: {"Clobber", func(e *env, c *Call) error {
		c.SetReg(m68k.RegD3, 0xDEAD)
		c.SetReg(m68k.RegA7, 0)
		return emuerrors.ErrHAccess
	}},
	0x21: {"Wait", func(e *env, c *Call) error {
		if e.blocked > 0 {
			e.blocked--
			c.SetReg(m68k.RegD4, 0xBAD)
			return ErrWouldBlock
		}
		c.Return(1)
		return nil
	}},
	0x4C: {"Pterm", func(e *env, c *Call) error {
		c.Exit(int32(c.Args.SWord()))
		return nil
	}},
	0x30: {"Sum", func(e *env, c *Call) error {
		w := uint32(c.Args.Word())
		l := c.Args.Long()
		e.lastStr = c.Args.String(64)
		c.SetReg(m68k.RegD5, 0x5555)
		c.Return(w + l + uint32(len(e.lastStr)))
		return nil
	}},
})

var gemTable = NewTable("gem", map[uint16]Entry[*env]{
	115: {"vdi", func(e *env, c *Call) error {
		c.Return(c.Reg(m68k.RegD1) + 1)
		return nil
	}},
})

var lineaTable = NewTable("linea", map[uint16]Entry[*env]{
	10: {"hide_mouse", func(e *env, c *Call) error {
		c.SetReg(m68k.RegD7, 10)
		return nil
	}},
})

func personalities() []*Personality[*env] {
	return []*Personality[*env]{
		{Name: "os", First: 1, Last: 1, Source: FromStack, Table: osTable},
		{Name: "gem", First: 2, Last: 2, Source: FromD0, Table: gemTable},
		{Name: "linea", First: 0xA000, Last: 0xA00F, Source: FromVector, Table: lineaTable},
	}
}

func setup(t *testing.T, words string) (*m68k.Interpreter, *guest.Memory, *Bridge[*env], *env) {
	t.Helper()
	mem, err := guest.New(guest.DefaultSize)
	require.NoError(t, err)
	t.Cleanup(func() { mem.Close() })
	for i, w := range strings.Fields(words) {
		v, err := strconv.ParseUint(w, 16, 16)
		require.NoError(t, err)
		mem.Write16(codeBase+uint32(2*i), uint16(v))
	}
	cpu := m68k.NewInterpreter()
	cpu.SetMemoryHooks(m68k.MemoryHooks(mem))
	cpu.SetRegister(m68k.RegA7, stackTop-4)
	mem.Write32(stackTop-4, 0)
	cpu.SetRegister(m68k.RegPC, codeBase)

	e := &env{drive: 2}
	b := NewBridge(e, m68k.Engine(cpu), mem, personalities()...)
	b.Install()
	return cpu, mem, b, e
}

func TestDispatchStackSelector(t *testing.T) {
	// move.w #$19,-(a7); trap #1; addq.l #2,a7; rts
	cpu, _, b, _ := setup(t, "3F3C 0019 4E41 548F 4E75")
	require.Equal(t, m68k.StopSentinel, cpu.Run(m68k.DefaultSlice))
	assert.Equal(t, uint32(2), cpu.GetRegister(m68k.RegD0))
	assert.Equal(t, uint64(1), b.Calls())
	assert.Equal(t, []Stat{{Personality: "os", Selector: 0x19, Name: "Dgetdrv", Count: 1}}, b.Stats())
	_, exited := b.Exited()
	assert.False(t, exited)
}

// stepTo executes instructions until PC reaches the trap at addr and
// returns the register file at that point.
func stepTo(t *testing.T, cpu *m68k.Interpreter, addr uint32) m68k.Registers {
	t.Helper()
	for cpu.GetRegister(m68k.RegPC) != addr {
		require.Equal(t, m68k.StopBudget, cpu.Step())
	}
	return m68k.Snapshot(cpu)
}

func TestUnmappedSelectorKeepsRegisters(t *testing.T) {
	// moveq #5,d2; moveq #7,d3; move.w #$77,-(a7); trap #1
	cpu, _, b, _ := setup(t, "7405 7607 3F3C 0077 4E41")
	before := stepTo(t, cpu, codeBase+8)
	require.Equal(t, m68k.StopTerminated, cpu.Run(m68k.DefaultSlice))
	assert.Equal(t, before, m68k.Snapshot(cpu))
	assert.Equal(t, uint32(codeBase+8), cpu.GetRegister(m68k.RegPC))

	code, exited := b.Exited()
	assert.True(t, exited)
	assert.Equal(t, int32(UnmappedExitCode), code)
	var ute *UnmappedTrapError
	require.True(t, errors.As(b.Err(), &ute))
	assert.Equal(t, "os", ute.Personality)
	assert.Equal(t, uint16(0x77), ute.Selector)
	assert.True(t, errors.Is(b.Err(), emuerrors.ErrUnmappedTrap))
	assert.Zero(t, b.Calls())
}

func TestUnmappedLineAKeepsRegisters(t *testing.T) {
	// moveq #1,d7; line-a 3 (no entry)
	cpu, _, b, _ := setup(t, "7E01 A003")
	before := stepTo(t, cpu, codeBase+2)
	require.Equal(t, m68k.StopTerminated, cpu.Run(m68k.DefaultSlice))
	assert.Equal(t, before, m68k.Snapshot(cpu))
	assert.True(t, errors.Is(b.Err(), emuerrors.ErrUnmappedTrap))
}

func TestUnmappedVector(t *testing.T) {
	cpu, _, b, _ := setup(t, "4E45")
	before := m68k.Snapshot(cpu)
	require.Equal(t, m68k.StopTerminated, cpu.Run(m68k.DefaultSlice))
	assert.Equal(t, before, m68k.Snapshot(cpu))
	assert.True(t, errors.Is(b.Err(), emuerrors.ErrUnmappedTrap))
}

func TestHandlerErrorRestoresAndFails(t *testing.T) {
	// moveq #7,d3; move.w #$20,-(a7); trap #1
	cpu, _, b, _ := setup(t, "7607 3F3C 0020 4E41")
	before := stepTo(t, cpu, codeBase+6)
	require.Equal(t, m68k.StopFatal, cpu.Run(m68k.DefaultSlice))
	assert.Equal(t, before, m68k.Snapshot(cpu))
	code, _ := b.Exited()
	assert.Equal(t, int32(FatalExitCode), code)
	assert.Equal(t, uint32(7), cpu.GetRegister(m68k.RegD3))
	assert.True(t, errors.Is(cpu.Err(), emuerrors.ErrHAccess))
	assert.True(t, errors.Is(b.Err(), emuerrors.ErrHostResource))
}

func TestWouldBlockRetries(t *testing.T) {
	// move.w #$21,-(a7); trap #1; addq.l #2,a7; rts
	cpu, _, b, e := setup(t, "3F3C 0021 4E41 548F 4E75")
	e.blocked = 1
	require.Equal(t, m68k.StopYield, cpu.Run(m68k.DefaultSlice))
	assert.Equal(t, uint32(codeBase+4), cpu.GetRegister(m68k.RegPC))
	assert.Zero(t, cpu.GetRegister(m68k.RegD4))

	require.Equal(t, m68k.StopSentinel, cpu.Run(m68k.DefaultSlice))
	assert.Equal(t, uint32(1), cpu.GetRegister(m68k.RegD0))
	assert.Equal(t, uint64(2), b.Calls())
}

func TestExit(t *testing.T) {
	// move.w #3,-(a7); move.w #$4c,-(a7); trap #1
	cpu, _, b, _ := setup(t, "3F3C 0003 3F3C 004C 4E41")
	require.Equal(t, m68k.StopTerminated, cpu.Run(m68k.DefaultSlice))
	code, exited := b.Exited()
	assert.True(t, exited)
	assert.Equal(t, int32(3), code)
	assert.NoError(t, b.Err())
}

func TestD0AndVectorSelectors(t *testing.T) {
	// moveq #115,d0; moveq #9,d1; trap #2; dc.w $a00a; rts
	cpu, _, b, _ := setup(t, "7073 7209 4E42 A00A 4E75")
	require.Equal(t, m68k.StopSentinel, cpu.Run(m68k.DefaultSlice))
	assert.Equal(t, uint32(10), cpu.GetRegister(m68k.RegD0))
	assert.Equal(t, uint32(10), cpu.GetRegister(m68k.RegD7))
	assert.Len(t, b.Stats(), 2)
}

func TestInvoke(t *testing.T) {
	cpu, mem, b, e := setup(t, "4E75")
	cpu.SetRegister(m68k.RegD5, 1)
	before := m68k.Snapshot(cpu)

	d0, err := b.Invoke(1, 0x30, W(3), L(100), Str("HELLO"))
	require.NoError(t, err)
	assert.Equal(t, uint32(108), d0)
	assert.Equal(t, "HELLO", e.lastStr)
	assert.Equal(t, before, m68k.Snapshot(cpu), "caller registers restored")
	assert.Equal(t, uint32(0), mem.Read32(stackTop-4))

	d0, err = b.InvokeName(2, "vdi", L(41))
	require.NoError(t, err)
	assert.Equal(t, uint32(42), d0)

	_, err = b.Invoke(0xA000, 10)
	require.NoError(t, err)
	assert.Equal(t, before, m68k.Snapshot(cpu))
}

func TestInvokeErrors(t *testing.T) {
	_, _, b, e := setup(t, "4E75")

	_, err := b.Invoke(1, 0x4C, W(5))
	var exit *ExitError
	require.True(t, errors.As(err, &exit))
	assert.Equal(t, int32(5), exit.Code)

	_, err = b.Invoke(1, 0x99)
	assert.True(t, errors.Is(err, emuerrors.ErrUnmappedTrap))

	_, err = b.InvokeName(1, "Nope")
	assert.True(t, errors.Is(err, emuerrors.ErrUnmappedTrap))

	_, err = b.Invoke(9, 0)
	assert.True(t, errors.Is(err, emuerrors.ErrUnmappedTrap))

	e.blocked = 1
	_, err = b.Invoke(1, 0x21)
	assert.True(t, errors.Is(err, ErrWouldBlock))

	_, exited := b.Exited()
	assert.False(t, exited, "host invocations do not terminate the process")
}

func TestTable(t *testing.T) {
	assert.Equal(t, []uint16{0x19, 0x20, 0x21, 0x30, 0x4C}, osTable.Selectors())
	sel, ok := osTable.Selector("Pterm")
	assert.True(t, ok)
	assert.Equal(t, uint16(0x4C), sel)
	_, ok = osTable.Lookup(0x18)
	assert.False(t, ok)
	assert.Equal(t, 5, osTable.Len())

	assert.Panics(t, func() {
		NewTable("dup", map[uint16]Entry[*env]{
			1: {"X", func(*env, *Call) error { return nil }},
			2: {"X", func(*env, *Call) error { return nil }},
		})
	})
	assert.Panics(t, func() {
		NewTable("nil", map[uint16]Entry[*env]{1: {Name: "X"}})
	})
}
