//go:build unicorn

package m68k

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/alirzasahb/PumpkinOS/emuerrors"
	"github.com/alirzasahb/PumpkinOS/log"
	"github.com/alirzasahb/PumpkinOS/m68k/trace"
)

const (
	ucIOBase   = 0x00FF8000
	ucIOSize   = 0x8000
	ucMirror   = 0xFF000000
	ucPageSize = 0x1000

	intLineA = 10
	intTrap0 = 32
)

var ucRegs = [...]int{
	uc.M68K_REG_D0, uc.M68K_REG_D1, uc.M68K_REG_D2, uc.M68K_REG_D3,
	uc.M68K_REG_D4, uc.M68K_REG_D5, uc.M68K_REG_D6, uc.M68K_REG_D7,
	uc.M68K_REG_A0, uc.M68K_REG_A1, uc.M68K_REG_A2, uc.M68K_REG_A3,
	uc.M68K_REG_A4, uc.M68K_REG_A5, uc.M68K_REG_A6, uc.M68K_REG_A7,
}

// unicornEngine runs guest code on the unicorn M68K core. Guest RAM is mapped
// straight from the arena; the I/O window and unmapped accesses go through
// hooks.
type unicornEngine struct {
	mu      uc.Unicorn
	hooks   Hooks
	trapFn  TrapHandler
	traceFn TraceFunc
	otherSP uint32

	aborted atomic.Bool
	err     error
	cycles  uint64
	steps   uint64

	stopped bool
	reason  StopReason
	lastPC  uint32
}

func newUnicornEngine(hooks Hooks, mem []byte) (Engine, error) {
	if len(mem) == 0 || len(mem)%ucPageSize != 0 {
		return nil, fmt.Errorf("unicorn needs a page sized arena, got %d bytes: %w", len(mem), emuerrors.ErrCBackend)
	}
	mu, err := uc.NewUnicorn(uc.ARCH_M68K, uc.MODE_BIG_ENDIAN)
	if err != nil {
		return nil, fmt.Errorf("create unicorn: %w", err)
	}
	ptr := unsafe.Pointer(&mem[0])
	size := uint64(len(mem))
	if err := mu.MemMapPtr(0, size, uc.PROT_ALL, ptr); err != nil {
		mu.Close()
		return nil, fmt.Errorf("map arena: %w", err)
	}
	// the 0xFF mirror aliases the same host pages
	if err := mu.MemMapPtr(ucMirror, size, uc.PROT_ALL, ptr); err != nil {
		mu.Close()
		return nil, fmt.Errorf("map mirror: %w", err)
	}
	if err := mu.MemMap(ucIOBase, ucIOSize); err != nil {
		mu.Close()
		return nil, fmt.Errorf("map io window: %w", err)
	}
	e := &unicornEngine{mu: mu, hooks: hooks}
	if err := e.installHooks(); err != nil {
		mu.Close()
		return nil, err
	}
	return e, nil
}

func (e *unicornEngine) installHooks() error {
	// the I/O window is served by the bus
	if _, err := e.mu.HookAdd(uc.HOOK_MEM_READ, e.busRead, ucIOBase, ucIOBase+ucIOSize-1); err != nil {
		return fmt.Errorf("hook io read: %w", err)
	}
	if _, err := e.mu.HookAdd(uc.HOOK_MEM_WRITE, e.busWrite, ucIOBase, ucIOBase+ucIOSize-1); err != nil {
		return fmt.Errorf("hook io write: %w", err)
	}
	if _, err := e.mu.HookAdd(uc.HOOK_MEM_READ_UNMAPPED|uc.HOOK_MEM_WRITE_UNMAPPED, e.unmapped, 1, 0); err != nil {
		return fmt.Errorf("hook unmapped: %w", err)
	}
	if _, err := e.mu.HookAdd(uc.HOOK_INTR, func(mu uc.Unicorn, intno uint32) {
		e.interrupt(intno)
	}, 1, 0); err != nil {
		return fmt.Errorf("hook intr: %w", err)
	}
	if _, err := e.mu.HookAdd(uc.HOOK_CODE, func(mu uc.Unicorn, addr uint64, size uint32) {
		e.lastPC = uint32(addr)
		e.cycles += 4
		if e.traceFn != nil {
			e.emitTrace(uint32(addr))
		}
	}, 1, 0); err != nil {
		return fmt.Errorf("hook code: %w", err)
	}
	return nil
}

// busRead refreshes the bytes right before the guest reads them.
func (e *unicornEngine) busRead(mu uc.Unicorn, access int, addr uint64, size int, value int64) {
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = e.hooks.Read8(uint32(addr) + uint32(i))
	}
	mu.MemWrite(addr, buf)
}

func (e *unicornEngine) busWrite(mu uc.Unicorn, access int, addr uint64, size int, value int64) {
	for i := 0; i < size; i++ {
		shift := uint(8 * (size - 1 - i))
		e.hooks.Write8(uint32(addr)+uint32(i), uint8(uint64(value)>>shift))
	}
}

// unmapped backs an access outside the arena with a scratch page whose
// reads and writes go through the bus, so they read as zero and writes are
// dropped just as in the interpreter.
func (e *unicornEngine) unmapped(mu uc.Unicorn, access int, addr uint64, size int, value int64) bool {
	log.Debug(log.TOSMonitoring, "access outside arena", "addr", fmt.Sprintf("0x%08X", addr), "size", size)
	page := addr &^ (ucPageSize - 1)
	end := page + ucPageSize - 1
	if err := mu.MemMap(page, ucPageSize); err != nil {
		return false
	}
	if _, err := mu.HookAdd(uc.HOOK_MEM_READ, e.busRead, page, end); err != nil {
		return false
	}
	if _, err := mu.HookAdd(uc.HOOK_MEM_WRITE, e.busWrite, page, end); err != nil {
		return false
	}
	if access == uc.MEM_WRITE_UNMAPPED {
		e.busWrite(mu, access, addr, size, value)
	} else {
		e.busRead(mu, access, addr, size, value)
	}
	return true
}

func (e *unicornEngine) emitTrace(pc uint32) {
	text, size := Disassemble(pc, e.hooks.Read16)
	s := trace.NewStep(e.steps, pc, MakeHex(e.hooks.Read16, pc, size), text)
	var d, a [8]uint32
	for i := 0; i < 8; i++ {
		d[i] = e.GetRegister(RegD0 + Register(i))
		a[i] = e.GetRegister(RegA0 + Register(i))
	}
	s.SetRegisters(d, a, uint16(e.GetRegister(RegSR)))
	s.Cycles = e.cycles
	e.steps++
	e.traceFn(s)
}

func (e *unicornEngine) interrupt(intno uint32) {
	pc := e.GetRegister(RegPC)
	var vector, instrPC uint32
	switch {
	case intno >= intTrap0 && intno < intTrap0+16:
		vector = intno - intTrap0
		instrPC = pc - 2
	case intno == intLineA:
		instrPC = pc
		vector = uint32(e.hooks.Read16(pc))
		e.SetRegister(RegPC, pc+2)
	default:
		e.err = fmt.Errorf("exception %d at 0x%08X: %w", intno, pc, emuerrors.ErrCPU)
		e.halt(StopFatal)
		return
	}
	if e.trapFn == nil {
		e.err = fmt.Errorf("trap 0x%X with no handler: %w", vector, emuerrors.ErrUnmappedTrap)
		e.halt(StopFatal)
		return
	}
	switch e.trapFn(vector) {
	case TrapContinue:
		if e.aborted.Load() {
			e.halt(StopAborted)
		}
	case TrapRetry:
		e.SetRegister(RegPC, instrPC)
		e.halt(StopYield)
	case TrapTerminate:
		e.halt(StopTerminated)
	case TrapUnmapped:
		e.SetRegister(RegPC, instrPC)
		e.halt(StopTerminated)
	case TrapFatal:
		e.SetRegister(RegPC, instrPC)
		if e.err == nil {
			e.err = fmt.Errorf("trap 0x%X: %w", vector, emuerrors.ErrCPU)
		}
		e.halt(StopFatal)
	}
}

func (e *unicornEngine) halt(r StopReason) {
	e.stopped = true
	e.reason = r
	e.mu.Stop()
}

func (e *unicornEngine) Run(cycles int) StopReason {
	if e.aborted.Load() {
		return StopAborted
	}
	if e.err != nil {
		return StopFatal
	}
	pc := e.GetRegister(RegPC)
	if pc == 0 {
		return StopSentinel
	}
	e.stopped = false
	count := uint64(cycles / 4)
	if count == 0 {
		count = 1
	}
	if err := e.mu.StartWithOptions(uint64(pc), 0, &uc.UcOptions{Count: count}); err != nil && !e.stopped {
		e.err = fmt.Errorf("unicorn at 0x%08X: %v: %w", e.lastPC, err, emuerrors.ErrCPU)
		return StopFatal
	}
	if e.stopped {
		return e.reason
	}
	if e.GetRegister(RegPC) == 0 {
		return StopSentinel
	}
	return StopBudget
}

func (e *unicornEngine) Step() StopReason { return e.Run(4) }

func (e *unicornEngine) GetRegister(r Register) uint32 {
	switch {
	case r >= RegD0 && r <= RegA7:
		v, _ := e.mu.RegRead(ucRegs[r])
		return uint32(v)
	}
	switch r {
	case RegPC:
		v, _ := e.mu.RegRead(uc.M68K_REG_PC)
		return uint32(v)
	case RegSR:
		v, _ := e.mu.RegRead(uc.M68K_REG_SR)
		return uint32(v)
	case RegUSP, RegSSP:
		super := e.GetRegister(RegSR)&uint32(FlagS) != 0
		if super == (r == RegSSP) {
			return e.GetRegister(RegA7)
		}
		return e.otherSP
	}
	return 0
}

func (e *unicornEngine) SetRegister(r Register, v uint32) {
	switch {
	case r >= RegD0 && r <= RegA7:
		e.mu.RegWrite(ucRegs[r], uint64(v))
		return
	}
	switch r {
	case RegPC:
		e.mu.RegWrite(uc.M68K_REG_PC, uint64(v))
	case RegSR:
		old := e.GetRegister(RegSR)
		if (old^v)&uint32(FlagS) != 0 {
			sp := e.GetRegister(RegA7)
			e.SetRegister(RegA7, e.otherSP)
			e.otherSP = sp
		}
		e.mu.RegWrite(uc.M68K_REG_SR, uint64(v&srMask))
	case RegUSP, RegSSP:
		super := e.GetRegister(RegSR)&uint32(FlagS) != 0
		if super == (r == RegSSP) {
			e.SetRegister(RegA7, v)
		} else {
			e.otherSP = v
		}
	}
}

func (e *unicornEngine) SetMemoryHooks(h Hooks) { e.hooks = h }
func (e *unicornEngine) SetInstructionTrace(fn TraceFunc) { e.traceFn = fn }
func (e *unicornEngine) SetTrapHandler(fn TrapHandler) { e.trapFn = fn }
func (e *unicornEngine) Abort() { e.aborted.Store(true) }
func (e *unicornEngine) Aborted() bool { return e.aborted.Load() }
func (e *unicornEngine) Err() error { return e.err }
func (e *unicornEngine) SetFault(err error) { e.err = err }
func (e *unicornEngine) Cycles() uint64 { return e.cycles }
func (e *unicornEngine) Backend() string { return BackendUnicorn }
func (e *unicornEngine) Close() error { return e.mu.Close() }
