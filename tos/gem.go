package tos

import (
	"fmt"
	"io"

	"github.com/alirzasahb/PumpkinOS/log"
	"github.com/alirzasahb/PumpkinOS/m68k"
	"github.com/alirzasahb/PumpkinOS/surface"
	"github.com/alirzasahb/PumpkinOS/trap"
)

// GEM entry selectors passed in D0.
const (
	gemGDOSProbe = 0xFFFE
	gemVDI       = 115
	gemAES       = 200
)

// GemTable serves trap #2. The GDOS probe leaves D0 untouched, which
// tells the caller no GDOS is installed.
var GemTable = trap.NewTable("gem", map[uint16]trap.Entry[*Process]{
	gemGDOSProbe: {Name: "vq_gdos", Handler: func(*Process, *trap.Call) error { return nil }},
	gemVDI:       {Name: "vdi", Handler: (*Process).vdiDispatch},
	gemAES:       {Name: "aes", Handler: (*Process).aesDispatch},
})

// words is a guest array of 16-bit values.
type words uint32

func (w words) get(m wordMem, i int) int16    { return int16(m.Read16(uint32(w) + uint32(i)*2)) }
func (w words) set(m wordMem, i int, v int16) { m.Write16(uint32(w)+uint32(i)*2, uint16(v)) }
func (w words) long(m wordMem, i int) uint32  { return m.Read32(uint32(w) + uint32(i)*4) }

type wordMem interface {
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write16(addr uint32, v uint16)
}

// VDI control array slots.
const (
	vdiOpcode  = 0
	vdiNPtsin  = 1
	vdiNPtsout = 2
	vdiNIntin  = 3
	vdiNIntout = 4
	vdiSubcode = 5
	vdiHandle  = 6
)

type vdiState struct {
	next      int16 // next virtual workstation handle
	lineColor int
	textColor int
	fillColor int
}

// vdiCall is one VDI request with its parameter block unpacked.
type vdiCall struct {
	p *Process
	c *trap.Call

	control, intin, ptsin, intout, ptsout words
	nintout, nptsout                      int
}

func (v *vdiCall) op() int16          { return v.control.get(v.c.Mem(), vdiOpcode) }
func (v *vdiCall) in(i int) int16     { return v.intin.get(v.c.Mem(), i) }
func (v *vdiCall) pt(i int) int       { return int(v.ptsin.get(v.c.Mem(), i)) }
func (v *vdiCall) count(slot int) int { return int(v.control.get(v.c.Mem(), slot)) }
func (v *vdiCall) setHandle(h int16)  { v.control.set(v.c.Mem(), vdiHandle, h) }

func (v *vdiCall) out(i int, val int16) {
	v.intout.set(v.c.Mem(), i, val)
	if i+1 > v.nintout {
		v.nintout = i + 1
	}
}

func (v *vdiCall) ptout(i int, val int16) {
	v.ptsout.set(v.c.Mem(), i, val)
	if i/2+1 > v.nptsout {
		v.nptsout = i/2 + 1
	}
}

// pixel maps a VDI color index onto the monochrome screen: 0 is white,
// everything else black.
func pixel(color int) int {
	if color == 0 {
		return 0
	}
	return 1
}

var vdiTable = trap.NewTable("vdi", map[uint16]trap.Entry[*vdiCall]{
	1:   {Name: "v_opnwk", Handler: (*vdiCall).opnwk},
	2:   {Name: "v_clswk", Handler: (*vdiCall).nop},
	3:   {Name: "v_clrwk", Handler: (*vdiCall).clrwk},
	6:   {Name: "v_pline", Handler: (*vdiCall).pline},
	8:   {Name: "v_gtext", Handler: (*vdiCall).gtext},
	11:  {Name: "v_gdp", Handler: (*vdiCall).gdp},
	17:  {Name: "vsl_color", Handler: (*vdiCall).slColor},
	22:  {Name: "vst_color", Handler: (*vdiCall).stColor},
	25:  {Name: "vsf_color", Handler: (*vdiCall).sfColor},
	32:  {Name: "vswr_mode", Handler: (*vdiCall).wrMode},
	100: {Name: "v_opnvwk", Handler: (*vdiCall).opnvwk},
	101: {Name: "v_clsvwk", Handler: (*vdiCall).nop},
	102: {Name: "vq_extnd", Handler: (*vdiCall).qExtnd},
	122: {Name: "v_show_c", Handler: (*vdiCall).nop},
	123: {Name: "v_hide_c", Handler: (*vdiCall).nop},
	129: {Name: "vs_clip", Handler: (*vdiCall).sClip},
})

// vdiDispatch unpacks the parameter block addressed by D1 and dispatches on the
// opcode in control[0]. The output counts are written back to control.
func (p *Process) vdiDispatch(c *trap.Call) error {
	m := c.Mem()
	pb := words(c.Reg(m68k.RegD1))
	v := &vdiCall{
		p:       p,
		c:       c,
		control: words(pb.long(m, 0)),
		intin:   words(pb.long(m, 1)),
		ptsin:   words(pb.long(m, 2)),
		intout:  words(pb.long(m, 3)),
		ptsout:  words(pb.long(m, 4)),
	}
	op := uint16(v.op())
	e, ok := vdiTable.Lookup(op)
	if !ok {
		return &trap.UnmappedTrapError{Personality: "vdi", Vector: c.Vector, Selector: op}
	}
	log.Debug(log.GemMonitoring, e.Name, "handle", v.count(vdiHandle),
		"ptsin", v.count(vdiNPtsin), "intin", v.count(vdiNIntin))
	if err := e.Handler(v, c); err != nil {
		return err
	}
	v.control.set(m, vdiNPtsout, int16(v.nptsout))
	v.control.set(m, vdiNIntout, int16(v.nintout))
	return nil
}

func (v *vdiCall) nop(*trap.Call) error { return nil }

// workstation fills intout and ptsout with the v_opnwk description of the
// 640x400 monochrome screen.
func (v *vdiCall) workstation() {
	// screen size, pixel size in microns, text heights, line widths,
	// faces, colors, palette
	info := map[int]int16{
		0: surface.Width - 1, 1: surface.Height - 1,
		3: 372, 4: 372,
		5: 1, 6: -1,
		7: 1, 8: 8, 9: 24,
		10: 1, 11: 12,
		13: 2, 14: 1,
		39: 2,
	}
	for i := 0; i < 45; i++ {
		v.out(i, info[i])
	}
	pts := []int16{0, surface.CellHeight - 3, 0, 1, 40, 0, 0, 13, 15, 0, 0, 0}
	for i, val := range pts {
		v.ptout(i, val)
	}
}

func (v *vdiCall) opnwk(*trap.Call) error {
	v.setHandle(1)
	v.workstation()
	return nil
}

func (v *vdiCall) opnvwk(*trap.Call) error {
	s := &v.p.vdi
	if s.next < 2 {
		s.next = 2
	}
	v.setHandle(s.next)
	s.next++
	v.workstation()
	return nil
}

func (v *vdiCall) qExtnd(*trap.Call) error {
	if v.in(0) == 0 {
		v.workstation()
		return nil
	}
	info := map[int]int16{0: 4, 1: 2, 2: 1, 4: 1, 5: 0, 19: 0}
	for i := 0; i < 45; i++ {
		v.out(i, info[i])
	}
	clip := v.p.screen.Clip()
	v.ptout(0, int16(clip.X))
	v.ptout(1, int16(clip.Y))
	v.ptout(2, int16(clip.X+clip.W-1))
	v.ptout(3, int16(clip.Y+clip.H-1))
	return nil
}

func (v *vdiCall) clrwk(*trap.Call) error {
	v.p.draw(func(m *surface.Mono) { m.Clear() })
	return nil
}

func (v *vdiCall) pline(*trap.Call) error {
	n := v.count(vdiNPtsin)
	color := pixel(v.p.vdi.lineColor)
	v.p.draw(func(m *surface.Mono) {
		for i := 1; i < n; i++ {
			m.Line(v.pt(2*i-2), v.pt(2*i-1), v.pt(2*i), v.pt(2*i+1), color)
		}
	})
	return nil
}

// gtext echoes the string to the console; glyphs are not rendered.
func (v *vdiCall) gtext(*trap.Call) error {
	n := v.count(vdiNIntin)
	buf := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		buf = append(buf, byte(v.in(i)))
	}
	log.Debug(log.GemMonitoring, "v_gtext", "x", v.pt(0), "y", v.pt(1), "text", string(buf))
	v.p.console.Write(buf)
	return nil
}

// gdp implements v_bar; the other primitives are accepted and ignored.
func (v *vdiCall) gdp(*trap.Call) error {
	sub := v.count(vdiSubcode)
	if sub != 1 {
		log.Debug(log.GemMonitoring, "v_gdp ignored", "sub", sub)
		return nil
	}
	r := surface.R(v.pt(0), v.pt(1), v.pt(2), v.pt(3))
	color := pixel(v.p.vdi.fillColor)
	v.p.draw(func(m *surface.Mono) { m.FillRect(r, color) })
	return nil
}

func (v *vdiCall) setColor(dst *int) {
	*dst = int(v.in(0))
	if *dst > 1 {
		*dst = 1
	}
	v.out(0, int16(*dst))
}

func (v *vdiCall) slColor(*trap.Call) error {
	v.setColor(&v.p.vdi.lineColor)
	return nil
}

func (v *vdiCall) stColor(*trap.Call) error {
	v.setColor(&v.p.vdi.textColor)
	return nil
}

func (v *vdiCall) sfColor(*trap.Call) error {
	v.setColor(&v.p.vdi.fillColor)
	return nil
}

func (v *vdiCall) wrMode(*trap.Call) error {
	mode := surface.Mode(v.in(0))
	v.p.draw(func(m *surface.Mono) { m.SetMode(mode) })
	v.out(0, int16(v.p.screen.Mode()))
	return nil
}

func (v *vdiCall) sClip(*trap.Call) error {
	on := v.in(0) != 0
	r := surface.R(v.pt(0), v.pt(1), v.pt(2), v.pt(3))
	v.p.draw(func(m *surface.Mono) {
		if on {
			m.SetClip(r)
		} else {
			m.ResetClip()
		}
	})
	return nil
}

// AES control array slots.
const (
	aesOpcode  = 0
	aesNIntin  = 1
	aesNIntout = 2
	aesNAdrin  = 3
	aesNAdrout = 4

	aesGlobalWords = 15
	aesVersion     = 0x0140
)

type aesState struct {
	registered bool
}

// aesCall is one AES request with its parameter block unpacked.
type aesCall struct {
	p *Process
	c *trap.Call

	control, global, intin, intout, adrin, adrout words
	nintout                                       int
}

func (a *aesCall) in(i int) int16 { return a.intin.get(a.c.Mem(), i) }

func (a *aesCall) out(i int, val int16) {
	a.intout.set(a.c.Mem(), i, val)
	if i+1 > a.nintout {
		a.nintout = i + 1
	}
}

var aesTable = trap.NewTable("aes", map[uint16]trap.Entry[*aesCall]{
	10:  {Name: "appl_init", Handler: (*aesCall).applInit},
	19:  {Name: "appl_exit", Handler: (*aesCall).ok},
	20:  {Name: "evnt_keybd", Handler: (*aesCall).evntKeybd},
	30:  {Name: "menu_bar", Handler: (*aesCall).ok},
	51:  {Name: "form_dial", Handler: (*aesCall).ok},
	52:  {Name: "form_alert", Handler: (*aesCall).formAlert},
	77:  {Name: "graf_handle", Handler: (*aesCall).grafHandle},
	78:  {Name: "graf_mouse", Handler: (*aesCall).ok},
	104: {Name: "wind_get", Handler: (*aesCall).windGet},
	110: {Name: "rsrc_load", Handler: (*aesCall).rsrcLoad},
})

// aesDispatch unpacks the parameter block addressed by D1 and dispatches on the
// opcode in control[0].
func (p *Process) aesDispatch(c *trap.Call) error {
	m := c.Mem()
	pb := words(c.Reg(m68k.RegD1))
	a := &aesCall{
		p:       p,
		c:       c,
		control: words(pb.long(m, 0)),
		global:  words(pb.long(m, 1)),
		intin:   words(pb.long(m, 2)),
		intout:  words(pb.long(m, 3)),
		adrin:   words(pb.long(m, 4)),
		adrout:  words(pb.long(m, 5)),
	}
	op := uint16(a.control.get(m, aesOpcode))
	e, ok := aesTable.Lookup(op)
	if !ok {
		return &trap.UnmappedTrapError{Personality: "aes", Vector: c.Vector, Selector: op}
	}
	log.Debug(log.GemMonitoring, e.Name, "intin", a.control.get(m, aesNIntin),
		"adrin", a.control.get(m, aesNAdrin))
	if err := e.Handler(a, c); err != nil {
		return err
	}
	a.control.set(m, aesNIntout, int16(a.nintout))
	a.control.set(m, aesNAdrout, 0)
	return nil
}

func (a *aesCall) ok(*trap.Call) error {
	a.out(0, 1)
	return nil
}

func (a *aesCall) applInit(c *trap.Call) error {
	m := c.Mem()
	for i := 0; i < aesGlobalWords; i++ {
		a.global.set(m, i, 0)
	}
	a.global.set(m, 0, aesVersion)
	a.global.set(m, 1, 1) // applications
	a.global.set(m, 2, 0) // our id
	a.p.aes.registered = true
	a.out(0, 0)
	return nil
}

func (a *aesCall) evntKeybd(*trap.Call) error {
	b, err := a.p.console.ReadByte()
	if err != nil && err != io.EOF {
		return err
	}
	a.out(0, int16(b))
	return nil
}

// formAlert prints the alert text and picks the default button.
func (a *aesCall) formAlert(c *trap.Call) error {
	text := c.Mem().ReadCString(a.adrin.long(c.Mem(), 0), 256)
	fmt.Fprintf(a.p.console, "%s\r\n", text)
	def := a.in(0)
	if def <= 0 {
		def = 1
	}
	a.out(0, def)
	return nil
}

func (a *aesCall) grafHandle(*trap.Call) error {
	for i, v := range []int16{1, surface.CellWidth, surface.CellHeight, 16, 16} {
		a.out(i, v)
	}
	return nil
}

// windGet answers for the desktop: the whole screen below the menu bar.
func (a *aesCall) windGet(*trap.Call) error {
	for i, v := range []int16{1, 0, 19, surface.Width, surface.Height - 19} {
		a.out(i, v)
	}
	return nil
}

func (a *aesCall) rsrcLoad(*trap.Call) error {
	a.out(0, 0)
	return nil
}
