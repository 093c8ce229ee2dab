package m68k

import (
	"fmt"
	"sync/atomic"

	"github.com/alirzasahb/PumpkinOS/emuerrors"
	"github.com/alirzasahb/PumpkinOS/log"
	"github.com/alirzasahb/PumpkinOS/m68k/trace"
)

// Interpreter is the pure Go 68000 backend.
type Interpreter struct {
	d       [8]uint32
	a       [8]uint32 // a[7] is the active stack pointer
	otherSP uint32    // USP while in supervisor mode, SSP otherwise
	pc      uint32
	sr      uint16

	hooks   Hooks
	trapFn  TrapHandler
	traceFn TraceFunc

	aborted atomic.Bool
	err     error
	cycles  uint64
	steps   uint64

	// per instruction
	instrPC uint32
	opcode  uint16
	cost    int
	stopped bool
	reason  StopReason

	dispatch [16]func(op uint16)
}

func NewInterpreter() *Interpreter {
	c := &Interpreter{}
	c.dispatch = [16]func(op uint16){
		c.group0, c.groupMove, c.groupMove, c.groupMove,
		c.group4, c.group5, c.group6, c.group7,
		c.group8, c.group9, c.groupA, c.groupB,
		c.groupC, c.groupD, c.groupE, c.groupF,
	}
	return c
}

func (c *Interpreter) Backend() string { return BackendInterpreter }
func (c *Interpreter) SetMemoryHooks(h Hooks) { c.hooks = h }
func (c *Interpreter) SetInstructionTrace(fn TraceFunc) { c.traceFn = fn }
func (c *Interpreter) SetTrapHandler(fn TrapHandler) { c.trapFn = fn }
func (c *Interpreter) Abort() { c.aborted.Store(true) }
func (c *Interpreter) Aborted() bool { return c.aborted.Load() }
func (c *Interpreter) Err() error { return c.err }
func (c *Interpreter) Cycles() uint64 { return c.cycles }
func (c *Interpreter) Close() error { return nil }

func (c *Interpreter) supervisor() bool { return c.sr&FlagS != 0 }

func (c *Interpreter) GetRegister(r Register) uint32 {
	switch {
	case r >= RegD0 && r <= RegD7:
		return c.d[r-RegD0]
	case r >= RegA0 && r <= RegA7:
		return c.a[r-RegA0]
	}
	switch r {
	case RegPC:
		return c.pc
	case RegSR:
		return uint32(c.sr)
	case RegUSP:
		if c.supervisor() {
			return c.otherSP
		}
		return c.a[7]
	case RegSSP:
		if c.supervisor() {
			return c.a[7]
		}
		return c.otherSP
	}
	return 0
}

func (c *Interpreter) SetRegister(r Register, v uint32) {
	switch {
	case r >= RegD0 && r <= RegD7:
		c.d[r-RegD0] = v
		return
	case r >= RegA0 && r <= RegA7:
		c.a[r-RegA0] = v
		return
	}
	switch r {
	case RegPC:
		c.pc = v
	case RegSR:
		c.setSR(uint16(v))
	case RegUSP:
		if c.supervisor() {
			c.otherSP = v
		} else {
			c.a[7] = v
		}
	case RegSSP:
		if c.supervisor() {
			c.a[7] = v
		} else {
			c.otherSP = v
		}
	}
}

// setSR swaps the stack pointer banks when the S bit changes.
func (c *Interpreter) setSR(v uint16) {
	v &= srMask
	if (v^c.sr)&FlagS != 0 {
		c.a[7], c.otherSP = c.otherSP, c.a[7]
	}
	c.sr = v
}

func (c *Interpreter) setCCR(v uint8) {
	c.sr = c.sr&0xFF00 | uint16(v)&0x1F
}

// Run executes instructions until the cycle budget is used or something stops
// the slice. The abort flag is sampled on entry and after every trap.
func (c *Interpreter) Run(cycles int) StopReason {
	if c.aborted.Load() {
		return StopAborted
	}
	if c.err != nil {
		return StopFatal
	}
	budget := cycles
	for budget > 0 {
		if c.pc == 0 {
			return StopSentinel
		}
		c.stopped = false
		c.step()
		budget -= c.cost
		if c.stopped {
			return c.reason
		}
	}
	if c.pc == 0 {
		return StopSentinel
	}
	return StopBudget
}

// Step executes a single instruction. Used by the debugger.
func (c *Interpreter) Step() StopReason {
	if c.pc == 0 {
		return StopSentinel
	}
	return c.Run(1)
}

func (c *Interpreter) step() {
	c.cost = 0
	c.instrPC = c.pc
	if c.pc&1 != 0 {
		c.fatal(fmt.Errorf("fetch at 0x%08X: %w", c.pc, emuerrors.ErrCAddress))
		return
	}
	if c.traceFn != nil {
		c.emitTrace()
	}
	c.opcode = c.fetch16()
	c.dispatch[c.opcode>>12](c.opcode)
	c.steps++
	c.cycles += uint64(c.cost)
}

func (c *Interpreter) emitTrace() {
	text, size := Disassemble(c.instrPC, c.hooks.Read16)
	s := trace.NewStep(c.steps, c.instrPC, MakeHex(c.hooks.Read16, c.instrPC, size), text)
	s.SetRegisters(c.d, c.a, c.sr)
	s.Cycles = c.cycles
	log.Trace(log.CPUMonitoring, "exec", "pc", fmt.Sprintf("0x%08X", c.instrPC), "ins", text)
	c.traceFn(s)
}

func (c *Interpreter) halt(reason StopReason) {
	c.stopped = true
	c.reason = reason
}

func (c *Interpreter) fatal(err error) {
	c.err = err
	c.halt(StopFatal)
	log.Error(log.CPUMonitoring, "cpu fault", "pc", fmt.Sprintf("0x%08X", c.instrPC),
		"opcode", fmt.Sprintf("0x%04X", c.opcode), "err", err)
}

func (c *Interpreter) illegal() {
	c.fatal(fmt.Errorf("opcode 0x%04X at 0x%08X: %w", c.opcode, c.instrPC, emuerrors.ErrCIllegal))
}

func (c *Interpreter) requireSupervisor() bool {
	if c.supervisor() {
		return true
	}
	c.fatal(fmt.Errorf("opcode 0x%04X at 0x%08X: %w", c.opcode, c.instrPC, emuerrors.ErrCPrivilege))
	return false
}

// trap hands vector to the host handler and applies its outcome.
func (c *Interpreter) trap(vector uint32) {
	c.cost += 34
	if c.trapFn == nil {
		c.fatal(fmt.Errorf("trap 0x%X with no handler: %w", vector, emuerrors.ErrUnmappedTrap))
		return
	}
	switch c.trapFn(vector) {
	case TrapContinue:
	case TrapRetry:
		c.pc = c.instrPC
		c.halt(StopYield)
	case TrapTerminate:
		c.halt(StopTerminated)
	case TrapUnmapped:
		c.pc = c.instrPC
		c.halt(StopTerminated)
	case TrapFatal:
		c.pc = c.instrPC
		if c.err == nil {
			c.err = fmt.Errorf("trap 0x%X: %w", vector, emuerrors.ErrCPU)
		}
		c.halt(StopFatal)
	}
	if !c.stopped && c.aborted.Load() {
		c.halt(StopAborted)
	}
}

// SetFault records err as the reason for the next fatal stop. Trap handlers
// call it before returning TrapFatal.
func (c *Interpreter) SetFault(err error) { c.err = err }

// memory access with cycle accounting

func (c *Interpreter) fetch16() uint16 {
	v := c.hooks.Read16(c.pc)
	c.pc += 2
	c.cost += 4
	return v
}

func (c *Interpreter) fetch32() uint32 {
	hi := uint32(c.fetch16())
	return hi<<16 | uint32(c.fetch16())
}

func (c *Interpreter) readMem(addr uint32, size int) uint32 {
	switch size {
	case 1:
		c.cost += 4
		return uint32(c.hooks.Read8(addr))
	case 2:
		c.cost += 4
		return uint32(c.hooks.Read16(addr))
	default:
		c.cost += 8
		return c.hooks.Read32(addr)
	}
}

func (c *Interpreter) writeMem(addr uint32, size int, v uint32) {
	switch size {
	case 1:
		c.cost += 4
		c.hooks.Write8(addr, uint8(v))
	case 2:
		c.cost += 4
		c.hooks.Write16(addr, uint16(v))
	default:
		c.cost += 8
		c.hooks.Write32(addr, v)
	}
}

func (c *Interpreter) push16(v uint16) {
	c.a[7] -= 2
	c.writeMem(c.a[7], 2, uint32(v))
}

func (c *Interpreter) push32(v uint32) {
	c.a[7] -= 4
	c.writeMem(c.a[7], 4, v)
}

func (c *Interpreter) pop16() uint16 {
	v := c.readMem(c.a[7], 2)
	c.a[7] += 2
	return uint16(v)
}

func (c *Interpreter) pop32() uint32 {
	v := c.readMem(c.a[7], 4)
	c.a[7] += 4
	return v
}
