package tos

import (
	"math/rand"
	"time"

	"github.com/alirzasahb/PumpkinOS/hostfs"
	"github.com/alirzasahb/PumpkinOS/log"
	"github.com/alirzasahb/PumpkinOS/m68k"
	"github.com/alirzasahb/PumpkinOS/surface"
	"github.com/alirzasahb/PumpkinOS/trap"
)

const (
	// rezHigh is the 640x400 monochrome resolution.
	rezHigh = 2

	// kbdvbase holds nine handler pointers followed by an rts they all
	// point at.
	kbdvbaseVectors = 9
	kbdvbaseSize    = kbdvbaseVectors*4 + 2

	opRTS = 0x4E75

	// sound chip port A
	giPortA = 14
)

type xbiosState struct {
	palette [16]uint16
	gi      [16]uint8
	rng     *rand.Rand
	sound   uint32
}

func (x *xbiosState) init() {
	x.palette[0] = 0x777
	x.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
}

// XbiosTable serves trap #14.
var XbiosTable = trap.NewTable("xbios", map[uint16]trap.Entry[*Process]{
	0:  {Name: "Initmous", Handler: returnCode(0)},
	2:  {Name: "Physbase", Handler: (*Process).physbaseCall},
	3:  {Name: "Logbase", Handler: (*Process).logbaseCall},
	4:  {Name: "Getrez", Handler: returnCode(rezHigh)},
	5:  {Name: "Setscreen", Handler: (*Process).setscreen},
	6:  {Name: "Setpalette", Handler: (*Process).setpalette},
	7:  {Name: "Setcolor", Handler: (*Process).setcolor},
	17: {Name: "Random", Handler: (*Process).random},
	21: {Name: "Cursconf", Handler: returnCode(0)},
	22: {Name: "Settime", Handler: (*Process).settime},
	23: {Name: "Gettime", Handler: (*Process).gettime},
	28: {Name: "Giaccess", Handler: (*Process).giaccess},
	29: {Name: "Offgibit", Handler: (*Process).offgibit},
	30: {Name: "Ongibit", Handler: (*Process).ongibit},
	32: {Name: "Dosound", Handler: (*Process).dosound},
	34: {Name: "Kbdvbase", Handler: (*Process).kbdvbaseCall},
	37: {Name: "Vsync", Handler: returnCode(0)},
	38: {Name: "Supexec", Handler: (*Process).supexec},
	64: {Name: "Blitmode", Handler: returnCode(0)},
})

func (p *Process) initKbdvbase() {
	stub := p.kbdvbase + kbdvbaseVectors*4
	for i := uint32(0); i < kbdvbaseVectors; i++ {
		p.mem.Write32(p.kbdvbase+i*4, stub)
	}
	p.mem.Write16(stub, opRTS)
}

func (p *Process) physbaseCall(c *trap.Call) error {
	c.Return(p.physbase)
	return nil
}

func (p *Process) logbaseCall(c *trap.Call) error {
	c.Return(p.logbase)
	return nil
}

// setscreen moves the logical and physical screens. -1 keeps a value.
// Only the monochrome resolution is available.
func (p *Process) setscreen(c *trap.Call) error {
	logAddr := c.Args.Long()
	physAddr := c.Args.Long()
	rez := c.Args.SWord()
	if logAddr != 0xFFFFFFFF {
		p.logbase = logAddr
	}
	if physAddr != 0xFFFFFFFF {
		p.physbase = physAddr
		p.screen.SetBase(physAddr)
	}
	if rez >= 0 && rez != rezHigh {
		log.Warn(log.XbiosMonitoring, "Setscreen resolution not supported", "rez", rez)
	}
	return nil
}

func (p *Process) setpalette(c *trap.Call) error {
	ptr := c.Args.Ptr()
	for i := range p.xbios.palette {
		p.xbios.palette[i] = c.Mem().Read16(ptr+uint32(i)*2) & 0x777
	}
	return nil
}

// setcolor returns the old value of a palette entry and replaces it
// unless the new color is -1.
func (p *Process) setcolor(c *trap.Call) error {
	n := c.Args.Word() & 15
	color := c.Args.SWord()
	old := p.xbios.palette[n]
	if color >= 0 {
		p.xbios.palette[n] = uint16(color) & 0x777
	}
	c.Return(uint32(old))
	return nil
}

// random returns a 24-bit pseudo random number.
func (p *Process) random(c *trap.Call) error {
	c.Return(p.xbios.rng.Uint32() & 0xFFFFFF)
	return nil
}

// settime takes the date in the high word and the time in the low word.
func (p *Process) settime(c *trap.Call) error {
	v := c.Args.Long()
	p.setClock(hostfs.FromDOSTime(uint16(v), uint16(v>>16)))
	return nil
}

func (p *Process) gettime(c *trap.Call) error {
	tm, date := hostfs.DOSTime(p.now())
	c.Return(uint32(date)<<16 | uint32(tm))
	return nil
}

// giaccess reads a sound chip register, or writes it when bit 7 of the
// register number is set.
func (p *Process) giaccess(c *trap.Call) error {
	data := uint8(c.Args.Word())
	reg := c.Args.Word()
	r := reg & 15
	if reg&0x80 != 0 {
		p.xbios.gi[r] = data
	}
	c.Return(uint32(p.xbios.gi[r]))
	return nil
}

func (p *Process) offgibit(c *trap.Call) error {
	p.xbios.gi[giPortA] &= uint8(c.Args.Word())
	return nil
}

func (p *Process) ongibit(c *trap.Call) error {
	p.xbios.gi[giPortA] |= uint8(c.Args.Word())
	return nil
}

// dosound records the sound script without playing it.
func (p *Process) dosound(c *trap.Call) error {
	ptr := c.Args.Long()
	old := p.xbios.sound
	if int32(ptr) >= 0 {
		p.xbios.sound = ptr
	}
	c.Return(old)
	return nil
}

func (p *Process) kbdvbaseCall(c *trap.Call) error {
	c.Return(p.kbdvbase)
	return nil
}

// supexec calls fn as a subroutine. The trap returns to the caller when
// fn executes its rts.
func (p *Process) supexec(c *trap.Call) error {
	fn := c.Args.Ptr()
	sp := c.Reg(m68k.RegA7) - 4
	c.Mem().Write32(sp, c.PC)
	c.SetReg(m68k.RegA7, sp)
	c.SetReg(m68k.RegPC, fn)
	return nil
}

// draw runs fn against the screen, through the shared display when this
// process owns it.
func (p *Process) draw(fn func(*surface.Mono)) {
	if p.display != nil && p.display.Draw(p.ID, fn) {
		return
	}
	fn(p.screen)
}
