package trap

import (
	"github.com/alirzasahb/PumpkinOS/guest"
	"github.com/alirzasahb/PumpkinOS/m68k"
)

// Frame describes the trap being serviced.
type Frame struct {
	Vector   uint32
	Selector uint16
	SP       uint32 // A7 when the trap was raised
	PC       uint32 // PC as delivered to the handler
}

// Args reads stack arguments sequentially, big-endian, upwards from SP.
type Args struct {
	mem *guest.Memory
	pos uint32
}

// NewArgs returns a reader positioned at addr.
func NewArgs(mem *guest.Memory, addr uint32) *Args {
	return &Args{mem: mem, pos: addr}
}

// Offset returns the address of the next argument.
func (a *Args) Offset() uint32 { return a.pos }

func (a *Args) Skip(n uint32) { a.pos += n }

func (a *Args) Word() uint16 {
	v := a.mem.Read16(a.pos)
	a.pos += 2
	return v
}

func (a *Args) SWord() int16 { return int16(a.Word()) }

func (a *Args) Long() uint32 {
	v := a.mem.Read32(a.pos)
	a.pos += 4
	return v
}

func (a *Args) SLong() int32 { return int32(a.Long()) }

// Ptr reads a guest pointer.
func (a *Args) Ptr() uint32 { return a.Long() }

// String reads a pointer and returns the NUL-terminated string it points at.
func (a *Args) String(max int) string {
	return a.mem.ReadCString(a.Ptr(), max)
}

// Call is the handler's view of one trap: the frame, its arguments and
// the CPU and memory it may modify.
type Call struct {
	Frame
	Name string
	Args *Args

	cpu    m68k.Engine
	mem    *guest.Memory
	exit   bool
	code   int32
	result bool
}

func (c *Call) CPU() m68k.Engine { return c.cpu }

func (c *Call) Mem() *guest.Memory { return c.mem }

func (c *Call) Reg(r m68k.Register) uint32 { return c.cpu.GetRegister(r) }

func (c *Call) SetReg(r m68k.Register, v uint32) { c.cpu.SetRegister(r, v) }

// Return stores v in D0.
func (c *Call) Return(v uint32) {
	c.cpu.SetRegister(m68k.RegD0, v)
	c.result = true
}

// ReturnCode stores a signed status in D0.
func (c *Call) ReturnCode(v int32) { c.Return(uint32(v)) }

// Returned reports whether the handler set D0.
func (c *Call) Returned() bool { return c.result }

// Exit requests termination of the process with code.
func (c *Call) Exit(code int32) {
	c.exit = true
	c.code = code
}

// Exiting reports the exit request, if any.
func (c *Call) Exiting() (int32, bool) { return c.code, c.exit }
