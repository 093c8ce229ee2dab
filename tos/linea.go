package tos

import (
	"github.com/alirzasahb/PumpkinOS/log"
	"github.com/alirzasahb/PumpkinOS/m68k"
	"github.com/alirzasahb/PumpkinOS/surface"
	"github.com/alirzasahb/PumpkinOS/trap"
)

// Line-A variable offsets from the pointer returned by init. Negative
// offsets reach into the area below it.
const (
	laPlanes  = 0
	laWidth   = 2
	laContrl  = 4
	laIntin   = 8
	laPtsin   = 12
	laIntout  = 16
	laPtsout  = 20
	laColBit0 = 24
	laWMode   = 36
	laX1      = 38
	laY1      = 40
	laX2      = 42
	laY2      = 44

	laBytesLin = -2
	laVRezVt   = -4
	laVRezHz   = -12
)

// Line-A block layout.
const (
	laNegative  = 0x400
	laVarsSize  = 0x100
	laArraySize = 0x80
	laContrlLen = 32
	laFonts     = 3
	laFontHdr   = 0x58
	laRoutines  = 16

	laBlockSize = laNegative + laVarsSize + laContrlLen + 4*laArraySize +
		laFonts*4 + laFontHdr + laRoutines*4 + laRoutines*4
)

type lineaState struct {
	block    uint32
	vars     uint32
	fonts    uint32
	routines uint32
}

// LineATable serves opcodes 0xA000 to 0xA00F.
var LineATable = trap.NewTable("linea", map[uint16]trap.Entry[*Process]{
	0:  {Name: "init", Handler: (*Process).laInit},
	1:  {Name: "put_pixel", Handler: (*Process).laPutPixel},
	2:  {Name: "get_pixel", Handler: (*Process).laGetPixel},
	3:  {Name: "line", Handler: (*Process).laLine},
	4:  {Name: "horizontal_line", Handler: laNop},
	5:  {Name: "filled_rect", Handler: (*Process).laFilledRect},
	6:  {Name: "filled_polygon", Handler: laNop},
	7:  {Name: "bitblt", Handler: laNop},
	8:  {Name: "textblt", Handler: laNop},
	9:  {Name: "show_mouse", Handler: laNop},
	10: {Name: "hide_mouse", Handler: laNop},
	11: {Name: "transform_mouse", Handler: laNop},
	12: {Name: "undraw_sprite", Handler: laNop},
	13: {Name: "draw_sprite", Handler: laNop},
	14: {Name: "copy_raster", Handler: laNop},
	15: {Name: "seed_fill", Handler: laNop},
})

func laNop(*Process, *trap.Call) error { return nil }

// initLineA reserves the variable block, its parameter arrays, an empty
// font header and a routine table whose entries are A00n/rts stubs.
func (p *Process) initLineA() error {
	block, err := p.img.Reserve(laBlockSize)
	if err != nil {
		return err
	}
	m := p.mem
	m.Fill(block, laBlockSize, 0)

	l := &p.linea
	l.block = block
	l.vars = block + laNegative
	pos := l.vars + laVarsSize
	contrl := pos
	pos += laContrlLen
	arrays := [4]uint32{}
	for i := range arrays {
		arrays[i] = pos
		pos += laArraySize
	}
	l.fonts = pos
	hdr := pos + laFonts*4
	for i := uint32(0); i < laFonts; i++ {
		m.Write32(l.fonts+i*4, hdr)
	}
	l.routines = hdr + laFontHdr
	stubs := l.routines + laRoutines*4
	for i := uint32(0); i < laRoutines; i++ {
		stub := stubs + i*4
		m.Write16(stub, uint16(0xA000+i))
		m.Write16(stub+2, opRTS)
		m.Write32(l.routines+i*4, stub)
	}

	v := l.vars
	m.Write16(v+laPlanes, 1)
	m.Write16(v+laWidth, surface.Stride)
	m.Write32(v+laContrl, contrl)
	m.Write32(v+laIntin, arrays[0])
	m.Write32(v+laPtsin, arrays[1])
	m.Write32(v+laIntout, arrays[2])
	m.Write32(v+laPtsout, arrays[3])
	m.Write16(v+laColBit0, 1)
	m.Write16(offset(v, laBytesLin), surface.Stride)
	m.Write16(offset(v, laVRezVt), surface.Height)
	m.Write16(offset(v, laVRezHz), surface.Width)
	return nil
}

func offset(base uint32, off int) uint32 { return uint32(int64(base) + int64(off)) }

func (p *Process) laWord(off int) int {
	return int(int16(p.mem.Read16(offset(p.linea.vars, off))))
}

// laArray reads element i of the parameter array whose pointer lives at off.
func (p *Process) laArray(off, i int) int {
	base := p.mem.Read32(p.linea.vars + uint32(off))
	return int(int16(p.mem.Read16(base + uint32(i)*2)))
}

func (p *Process) laMode() surface.Mode {
	return surface.Mode(p.laWord(laWMode) + 1)
}

func (p *Process) laInit(c *trap.Call) error {
	c.SetReg(m68k.RegA0, p.linea.vars)
	c.SetReg(m68k.RegA1, p.linea.fonts)
	c.SetReg(m68k.RegA2, p.linea.routines)
	c.Return(p.linea.vars)
	log.Debug(log.LineAMonitoring, "init", "vars", p.linea.vars)
	return nil
}

func (p *Process) laPutPixel(c *trap.Call) error {
	color := p.laArray(laIntin, 0)
	x, y := p.laArray(laPtsin, 0), p.laArray(laPtsin, 1)
	p.draw(func(m *surface.Mono) {
		mode := m.Mode()
		m.SetMode(surface.Replace)
		m.Plot(x, y, color)
		m.SetMode(mode)
	})
	return nil
}

func (p *Process) laGetPixel(c *trap.Call) error {
	x, y := p.laArray(laPtsin, 0), p.laArray(laPtsin, 1)
	c.Return(uint32(p.screen.Pixel(x, y)))
	return nil
}

// withMode draws fn using the Line-A writing mode.
func (p *Process) withMode(fn func(m *surface.Mono)) {
	mode := p.laMode()
	p.draw(func(m *surface.Mono) {
		old := m.Mode()
		m.SetMode(mode)
		fn(m)
		m.SetMode(old)
	})
}

func (p *Process) laLine(*trap.Call) error {
	x1, y1, x2, y2 := p.laWord(laX1), p.laWord(laY1), p.laWord(laX2), p.laWord(laY2)
	color := p.laWord(laColBit0) & 1
	p.withMode(func(m *surface.Mono) { m.Line(x1, y1, x2, y2, color) })
	return nil
}

func (p *Process) laFilledRect(*trap.Call) error {
	r := surface.R(p.laWord(laX1), p.laWord(laY1), p.laWord(laX2), p.laWord(laY2))
	color := p.laWord(laColBit0) & 1
	p.withMode(func(m *surface.Mono) { m.FillRect(r, color) })
	return nil
}
