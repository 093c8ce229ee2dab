// Package m68k executes 68000 guest code in bounded slices. All guest memory
// traffic goes through injected hooks, and trap instructions are handed to a
// host callback that runs synchronously before execution resumes.
package m68k

import (
	"fmt"

	"github.com/alirzasahb/PumpkinOS/emuerrors"
	"github.com/alirzasahb/PumpkinOS/m68k/trace"
)

const (
	BackendInterpreter = "interpreter"
	BackendUnicorn     = "unicorn"

	// DefaultSlice is the cycle budget of one Run call.
	DefaultSlice = 100000
)

// Register names the 68000 register file for GetRegister/SetRegister.
type Register int

const (
	RegD0 Register = iota
	RegD1
	RegD2
	RegD3
	RegD4
	RegD5
	RegD6
	RegD7
	RegA0
	RegA1
	RegA2
	RegA3
	RegA4
	RegA5
	RegA6
	RegA7
	RegPC
	RegSR
	RegUSP
	RegSSP
	RegSP = RegA7
)

var registerNames = [...]string{"D0", "D1", "D2", "D3", "D4", "D5", "D6", "D7",
	"A0", "A1", "A2", "A3", "A4", "A5", "A6", "A7", "PC", "SR", "USP", "SSP"}

func (r Register) String() string {
	if r >= 0 && int(r) < len(registerNames) {
		return registerNames[r]
	}
	return fmt.Sprintf("R%d", int(r))
}

// Status register bits.
const (
	FlagC uint16 = 1 << 0
	FlagV uint16 = 1 << 1
	FlagZ uint16 = 1 << 2
	FlagN uint16 = 1 << 3
	FlagX uint16 = 1 << 4
	FlagS uint16 = 1 << 13
	FlagT uint16 = 1 << 15

	srMask = 0xA71F
)

// StopReason tells the host loop why Run returned.
type StopReason int

const (
	StopBudget     StopReason = iota // slice used up
	StopSentinel                     // PC reached 0
	StopAborted                      // host abort flag observed
	StopTerminated                   // trap handler ended the process
	StopFatal                        // guest raised an unrecoverable exception, see Err
	StopYield                        // trap handler asked to be retried, PC rewound
)

func (s StopReason) String() string {
	switch s {
	case StopBudget:
		return "budget_exhausted"
	case StopSentinel:
		return "sentinel_pc_reached"
	case StopAborted:
		return "aborted"
	case StopTerminated:
		return "terminated"
	case StopFatal:
		return "fatal"
	case StopYield:
		return "yield"
	}
	return "unknown"
}

// TrapOutcome is returned by a TrapHandler.
type TrapOutcome int

const (
	TrapContinue  TrapOutcome = iota // resume after the trap instruction
	TrapRetry                        // rewind to the trap instruction and end the slice
	TrapTerminate                    // end the process
	TrapFatal                        // rewind to the trap instruction, end the process with the handler's error
	TrapUnmapped                     // rewind to the trap instruction and end the process
)

// TrapHandler services TRAP #n (vector n) and Line-A opcodes (vector = opcode).
// When it runs, PC already points past the trapping instruction.
type TrapHandler func(vector uint32) TrapOutcome

// TraceFunc observes each instruction before it executes.
type TraceFunc func(step *trace.Step)

// Memory is the guest bus seen by the engine.
type Memory interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write8(addr uint32, v uint8)
	Write16(addr uint32, v uint16)
	Write32(addr uint32, v uint32)
}

// Hooks are the memory callbacks the engine uses for every fetch and data access.
type Hooks struct {
	Read8   func(uint32) uint8
	Read16  func(uint32) uint16
	Read32  func(uint32) uint32
	Write8  func(uint32, uint8)
	Write16 func(uint32, uint16)
	Write32 func(uint32, uint32)
}

// MemoryHooks binds hooks to m.
func MemoryHooks(m Memory) Hooks {
	return Hooks{
		Read8: m.Read8, Read16: m.Read16, Read32: m.Read32,
		Write8: m.Write8, Write16: m.Write16, Write32: m.Write32,
	}
}

// Engine is one guest CPU. It is single threaded and not re-entrant; only
// Abort may be called from another goroutine.
type Engine interface {
	Run(cycles int) StopReason
	Step() StopReason
	GetRegister(r Register) uint32
	SetRegister(r Register, v uint32)
	SetMemoryHooks(h Hooks)
	SetInstructionTrace(fn TraceFunc)
	SetTrapHandler(fn TrapHandler)
	Abort()
	Aborted() bool
	Err() error
	SetFault(err error)
	Cycles() uint64
	Backend() string
	Close() error
}

// NewEngine builds an engine for backend. mem backs backends that map guest
// RAM directly; it may be nil for the interpreter.
func NewEngine(backend string, hooks Hooks, mem []byte) (Engine, error) {
	switch backend {
	case "", BackendInterpreter:
		c := NewInterpreter()
		c.SetMemoryHooks(hooks)
		return c, nil
	case BackendUnicorn:
		return newUnicornEngine(hooks, mem)
	}
	return nil, fmt.Errorf("backend %q: %w", backend, emuerrors.ErrCBackend)
}

// Registers is a snapshot of the full register file.
type Registers struct {
	D   [8]uint32
	A   [8]uint32
	PC  uint32
	SR  uint16
	USP uint32
	SSP uint32
}

// Snapshot copies every register out of e.
func Snapshot(e Engine) Registers {
	var r Registers
	for i := 0; i < 8; i++ {
		r.D[i] = e.GetRegister(RegD0 + Register(i))
		r.A[i] = e.GetRegister(RegA0 + Register(i))
	}
	r.PC = e.GetRegister(RegPC)
	r.SR = uint16(e.GetRegister(RegSR))
	r.USP = e.GetRegister(RegUSP)
	r.SSP = e.GetRegister(RegSSP)
	return r
}

// Restore writes a snapshot back. SR goes first so the stack pointers land
// in the right bank.
func Restore(e Engine, r Registers) {
	e.SetRegister(RegSR, uint32(r.SR))
	e.SetRegister(RegUSP, r.USP)
	e.SetRegister(RegSSP, r.SSP)
	for i := 0; i < 8; i++ {
		e.SetRegister(RegD0+Register(i), r.D[i])
		e.SetRegister(RegA0+Register(i), r.A[i])
	}
	e.SetRegister(RegPC, r.PC)
}
