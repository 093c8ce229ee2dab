package tos

import (
	"io"

	"github.com/alirzasahb/PumpkinOS/log"
	"github.com/alirzasahb/PumpkinOS/trap"
)

// BIOS character devices.
const (
	devPrn = 0
	devAux = 1
	devCon = 2
	devRaw = 5
)

const (
	// tickMillis is the system timer period reported by Tickcal.
	tickMillis = 20

	// memory descriptor: link, start, length, owner
	mdSize = 16
)

// BiosTable serves trap #13.
var BiosTable = trap.NewTable("bios", map[uint16]trap.Entry[*Process]{
	0:  {Name: "Getmpb", Handler: (*Process).getmpb},
	1:  {Name: "Bconstat", Handler: (*Process).bconstat},
	2:  {Name: "Bconin", Handler: (*Process).bconin},
	3:  {Name: "Bconout", Handler: (*Process).bconout},
	4:  {Name: "Rwabs", Handler: returnCode(EINVFN)},
	5:  {Name: "Setexc", Handler: (*Process).setexc},
	6:  {Name: "Tickcal", Handler: returnCode(tickMillis)},
	7:  {Name: "Getbpb", Handler: returnCode(0)},
	8:  {Name: "Bcostat", Handler: returnCode(-1)},
	9:  {Name: "Mediach", Handler: returnCode(0)},
	10: {Name: "Drvmap", Handler: (*Process).drvmap},
	11: {Name: "Kbshift", Handler: (*Process).kbshiftCall},
})

// getmpb fills the memory parameter block at ptr with a single free
// descriptor covering the largest free heap span.
func (p *Process) getmpb(c *trap.Call) error {
	ptr := c.Args.Ptr()
	if p.mpb == 0 {
		md, err := p.heap.Alloc(mdSize)
		if err != nil {
			return status(c, log.BiosMonitoring, err)
		}
		p.mpb = md
	}
	m := c.Mem()
	m.Write32(p.mpb, 0)
	m.Write32(p.mpb+4, p.heap.Base())
	m.Write32(p.mpb+8, p.heap.Largest())
	m.Write32(p.mpb+12, 0)

	m.Write32(ptr, p.mpb)
	m.Write32(ptr+4, 0)
	m.Write32(ptr+8, p.mpb)
	return nil
}

func (p *Process) bconstat(c *trap.Call) error {
	if c.Args.Word() == devCon && p.console.Ready() {
		c.ReturnCode(-1)
	} else {
		c.Return(0)
	}
	return nil
}

func (p *Process) bconin(c *trap.Call) error {
	dev := c.Args.Word()
	if dev != devCon && dev != devRaw {
		c.Return(0)
		return nil
	}
	b, err := p.console.ReadByte()
	if err == io.EOF {
		c.Return(0)
		return nil
	}
	if err != nil {
		return err
	}
	c.Return(uint32(b))
	return nil
}

func (p *Process) bconout(c *trap.Call) error {
	dev := c.Args.Word()
	b := []byte{byte(c.Args.Word())}
	switch dev {
	case devCon, devRaw:
		p.console.Write(b)
	case devAux:
		p.aux.Write(b)
	case devPrn:
		p.prn.Write(b)
	default:
		log.Debug(log.BiosMonitoring, "Bconout to unknown device", "dev", dev)
	}
	c.ReturnCode(-1)
	return nil
}

// setexc reads or replaces an exception vector in low memory. An address
// of -1 only reads it.
func (p *Process) setexc(c *trap.Call) error {
	vec := uint32(c.Args.Word()) & 0xFF
	addr := c.Args.Long()
	old := c.Mem().Read32(vec * 4)
	if addr != 0xFFFFFFFF {
		c.Mem().Write32(vec*4, addr)
		log.Debug(log.BiosMonitoring, "Setexc", "vector", vec, "addr", addr)
	}
	c.Return(old)
	return nil
}

func (p *Process) drvmap(c *trap.Call) error {
	c.Return(p.drives.Map())
	return nil
}

// kbshiftCall returns the shift key state and replaces it unless mode is -1.
func (p *Process) kbshiftCall(c *trap.Call) error {
	mode := c.Args.SWord()
	old := p.kbshift
	if mode >= 0 {
		p.kbshift = uint8(mode)
	}
	c.Return(uint32(old))
	return nil
}
