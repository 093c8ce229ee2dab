package m68k

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/alirzasahb/PumpkinOS/emuerrors"
	"github.com/alirzasahb/PumpkinOS/guest"
	"github.com/alirzasahb/PumpkinOS/m68k/trace"
	"github.com/stretchr/testify/require"
)

const (
	codeBase = 0x1000
	stackTop = 0x8000
)

// newCPU loads the hex words at codeBase and leaves a zero return address
// on the stack so a final rts reaches the sentinel.
func newCPU(t *testing.T, words string) (*Interpreter, *guest.Memory) {
	t.Helper()
	mem, err := guest.New(guest.DefaultSize)
	require.NoError(t, err)
	t.Cleanup(func() { mem.Close() })
	for i, w := range strings.Fields(words) {
		v, err := strconv.ParseUint(w, 16, 16)
		require.NoError(t, err)
		mem.Write16(codeBase+uint32(2*i), uint16(v))
	}
	cpu := NewInterpreter()
	cpu.SetMemoryHooks(MemoryHooks(mem))
	cpu.SetRegister(RegA7, stackTop-4)
	mem.Write32(stackTop-4, 0)
	cpu.SetRegister(RegPC, codeBase)
	return cpu, mem
}

func TestRTSReachesSentinel(t *testing.T) {
	cpu, _ := newCPU(t, "4E75")
	traps := 0
	cpu.SetTrapHandler(func(uint32) TrapOutcome { traps++; return TrapContinue })
	require.Equal(t, StopSentinel, cpu.Run(DefaultSlice))
	require.Zero(t, traps)
	require.Equal(t, uint32(stackTop), cpu.GetRegister(RegA7))
}

func TestArithmeticAndFlags(t *testing.T) {
	// moveq #5,d0; moveq #-3,d1; add.l d1,d0; rts
	cpu, _ := newCPU(t, "7005 72FD D081 4E75")
	require.Equal(t, StopSentinel, cpu.Run(DefaultSlice))
	require.Equal(t, uint32(2), cpu.GetRegister(RegD0))
	sr := uint16(cpu.GetRegister(RegSR))
	if sr&FlagC == 0 || sr&FlagX == 0 {
		t.Errorf("5 + -3 must carry, sr=%04x", sr)
	}
	if sr&(FlagZ|FlagN|FlagV) != 0 {
		t.Errorf("unexpected flags %04x", sr)
	}
}

func TestDBRALoop(t *testing.T) {
	// moveq #0,d0; moveq #9,d1; loop: addq.l #1,d0; dbra d1,loop; rts
	cpu, _ := newCPU(t, "7000 7209 5280 51C9 FFFC 4E75")
	require.Equal(t, StopSentinel, cpu.Run(DefaultSlice))
	require.Equal(t, uint32(10), cpu.GetRegister(RegD0))
	require.Equal(t, uint32(0xFFFF), cpu.GetRegister(RegD1)&0xFFFF)
}

func TestMovemRoundTrip(t *testing.T) {
	// movem.l d0-d2,-(a7); moveq #0,d0; moveq #0,d1; moveq #0,d2; movem.l (a7)+,d0-d2; rts
	cpu, mem := newCPU(t, "48E7 E000 7000 7200 7400 4CDF 0007 4E75")
	cpu.SetRegister(RegD0, 0x11111111)
	cpu.SetRegister(RegD1, 0x22222222)
	cpu.SetRegister(RegD2, 0x33333333)
	require.Equal(t, StopSentinel, cpu.Run(DefaultSlice))
	require.Equal(t, uint32(0x11111111), cpu.GetRegister(RegD0))
	require.Equal(t, uint32(0x22222222), cpu.GetRegister(RegD1))
	require.Equal(t, uint32(0x33333333), cpu.GetRegister(RegD2))
	// D0 ends up at the lowest address
	require.Equal(t, uint32(0x11111111), mem.Read32(stackTop-4-12))
}

func TestShiftSetsCarry(t *testing.T) {
	// lsl.w #1,d0; rts
	cpu, _ := newCPU(t, "E348 4E75")
	cpu.SetRegister(RegD0, 0xABCD8001)
	require.Equal(t, StopSentinel, cpu.Run(DefaultSlice))
	require.Equal(t, uint32(0xABCD0002), cpu.GetRegister(RegD0))
	sr := uint16(cpu.GetRegister(RegSR))
	require.NotZero(t, sr&FlagC)
	require.NotZero(t, sr&FlagX)
}

func TestTrapHandlerSeesVectorAndNextPC(t *testing.T) {
	// move.w #$19,-(a7); trap #1; addq.l #2,a7; rts
	cpu, mem := newCPU(t, "3F3C 0019 4E41 548F 4E75")
	var seen []uint32
	cpu.SetTrapHandler(func(v uint32) TrapOutcome {
		seen = append(seen, v)
		require.Equal(t, uint32(codeBase+6), cpu.GetRegister(RegPC))
		require.Equal(t, uint16(0x19), mem.Read16(cpu.GetRegister(RegA7)))
		cpu.SetRegister(RegD0, 2)
		return TrapContinue
	})
	require.Equal(t, StopSentinel, cpu.Run(DefaultSlice))
	require.Equal(t, []uint32{1}, seen)
	require.Equal(t, uint32(2), cpu.GetRegister(RegD0))
}

func TestTrapOutcomes(t *testing.T) {
	cpu, _ := newCPU(t, "4E41 4E75")
	cpu.SetTrapHandler(func(uint32) TrapOutcome { return TrapRetry })
	require.Equal(t, StopYield, cpu.Run(DefaultSlice))
	require.Equal(t, uint32(codeBase), cpu.GetRegister(RegPC))

	cpu.SetTrapHandler(func(uint32) TrapOutcome { return TrapUnmapped })
	require.Equal(t, StopTerminated, cpu.Run(DefaultSlice))
	require.Equal(t, uint32(codeBase), cpu.GetRegister(RegPC))

	cpu.SetTrapHandler(func(uint32) TrapOutcome { return TrapTerminate })
	require.Equal(t, StopTerminated, cpu.Run(DefaultSlice))
	require.Equal(t, uint32(codeBase+2), cpu.GetRegister(RegPC))
}

func TestLineAVector(t *testing.T) {
	cpu, _ := newCPU(t, "A000 4E75")
	var vec uint32
	cpu.SetTrapHandler(func(v uint32) TrapOutcome { vec = v; return TrapContinue })
	require.Equal(t, StopSentinel, cpu.Run(DefaultSlice))
	require.Equal(t, uint32(0xA000), vec)
}

func TestFatalExceptions(t *testing.T) {
	cases := []struct {
		name  string
		words string
		err   error
	}{
		{"illegal", "4AFC", emuerrors.ErrCIllegal},
		{"line f", "F200", emuerrors.ErrCLineF},
		{"divide by zero", "7000 80C0", emuerrors.ErrCDivideZero},
		{"privileged move to sr", "46FC 2700", emuerrors.ErrCPrivilege},
	}
	for _, c := range cases {
		cpu, _ := newCPU(t, c.words)
		if got := cpu.Run(DefaultSlice); got != StopFatal {
			t.Errorf("%s: stop %v, want fatal", c.name, got)
			continue
		}
		if !errors.Is(cpu.Err(), c.err) {
			t.Errorf("%s: err %v, want %v", c.name, cpu.Err(), c.err)
		}
		if !errors.Is(cpu.Err(), emuerrors.ErrCPU) {
			t.Errorf("%s: err %v is not a cpu fault", c.name, cpu.Err())
		}
	}
}

func TestBudgetAndAbort(t *testing.T) {
	// bra.s *
	cpu, _ := newCPU(t, "60FE")
	require.Equal(t, StopBudget, cpu.Run(1000))
	require.NotZero(t, cpu.Cycles())
	cpu.Abort()
	require.Equal(t, StopAborted, cpu.Run(1000))
}

func TestSupervisorStackSwap(t *testing.T) {
	cpu := NewInterpreter()
	cpu.SetRegister(RegA7, 0x1000)
	cpu.SetRegister(RegSSP, 0x2000)
	cpu.SetRegister(RegSR, uint32(FlagS))
	require.Equal(t, uint32(0x2000), cpu.GetRegister(RegA7))
	require.Equal(t, uint32(0x1000), cpu.GetRegister(RegUSP))
	cpu.SetRegister(RegSR, 0)
	require.Equal(t, uint32(0x1000), cpu.GetRegister(RegA7))
}

func TestSnapshotRestore(t *testing.T) {
	cpu, _ := newCPU(t, "4E75")
	cpu.SetRegister(RegD3, 0xCAFE)
	snap := Snapshot(cpu)
	cpu.SetRegister(RegD3, 0)
	cpu.SetRegister(RegPC, 0x4444)
	Restore(cpu, snap)
	require.Equal(t, snap, Snapshot(cpu))
}

func TestInstructionTrace(t *testing.T) {
	cpu, _ := newCPU(t, "7001 4E75")
	var steps []*trace.Step
	cpu.SetInstructionTrace(func(s *trace.Step) { steps = append(steps, s) })
	require.Equal(t, StopSentinel, cpu.Run(DefaultSlice))
	require.Len(t, steps, 2)
	require.Equal(t, "moveq   #$1, D0", steps[0].Text)
	require.Equal(t, uint32(1), steps[1].D[0])
}

func TestNewEngine(t *testing.T) {
	e, err := NewEngine(BackendInterpreter, Hooks{}, nil)
	require.NoError(t, err)
	require.Equal(t, BackendInterpreter, e.Backend())
	_, err = NewEngine("jit", Hooks{}, nil)
	require.ErrorIs(t, err, emuerrors.ErrCBackend)
}
