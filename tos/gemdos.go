package tos

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alirzasahb/PumpkinOS/emuerrors"
	"github.com/alirzasahb/PumpkinOS/hostfs"
	"github.com/alirzasahb/PumpkinOS/loader"
	"github.com/alirzasahb/PumpkinOS/log"
	"github.com/alirzasahb/PumpkinOS/m68k"
	"github.com/alirzasahb/PumpkinOS/trap"
)

const (
	maxPath = 260

	// Sversion reports GEMDOS 0.21, byte-swapped as TOS does.
	gemdosVersion = 0x1500

	fcntlTIOCGPGRP = 0x5406
)

// DTA layout used by Fsfirst/Fsnext.
const (
	dtaAttr = 21
	dtaTime = 22
	dtaDate = 24
	dtaSize = 26
	dtaName = 30
	dtaLen  = 44
)

type findState struct {
	dta     uint32
	entries []hostfs.Entry
	next    int
}

// GemdosTable serves trap #1.
var GemdosTable = trap.NewTable("gemdos", map[uint16]trap.Entry[*Process]{
	0x00: {Name: "Pterm0", Handler: (*Process).pterm0},
	0x01: {Name: "Cconin", Handler: (*Process).cconin},
	0x02: {Name: "Cconout", Handler: (*Process).cconout},
	0x03: {Name: "Cauxin", Handler: (*Process).cauxin},
	0x04: {Name: "Cauxout", Handler: (*Process).cauxout},
	0x05: {Name: "Cprnout", Handler: (*Process).cprnout},
	0x06: {Name: "Crawio", Handler: (*Process).crawio},
	0x07: {Name: "Crawcin", Handler: (*Process).crawcin},
	0x08: {Name: "Cnecin", Handler: (*Process).crawcin},
	0x09: {Name: "Cconws", Handler: (*Process).cconws},
	0x0A: {Name: "Cconrs", Handler: (*Process).cconrs},
	0x0B: {Name: "Cconis", Handler: (*Process).cconis},
	0x0E: {Name: "Dsetdrv", Handler: (*Process).dsetdrv},
	0x10: {Name: "Cconos", Handler: returnCode(-1)},
	0x11: {Name: "Cprnos", Handler: returnCode(-1)},
	0x12: {Name: "Cauxis", Handler: returnCode(0)},
	0x13: {Name: "Cauxos", Handler: returnCode(-1)},
	0x19: {Name: "Dgetdrv", Handler: (*Process).dgetdrv},
	0x1A: {Name: "Fsetdta", Handler: (*Process).fsetdta},
	0x20: {Name: "Super", Handler: (*Process).super},
	0x2A: {Name: "Tgetdate", Handler: (*Process).tgetdate},
	0x2B: {Name: "Tsetdate", Handler: (*Process).tsetdate},
	0x2C: {Name: "Tgettime", Handler: (*Process).tgettime},
	0x2D: {Name: "Tsettime", Handler: (*Process).tsettime},
	0x2F: {Name: "Fgetdta", Handler: (*Process).fgetdta},
	0x30: {Name: "Sversion", Handler: returnCode(gemdosVersion)},
	0x31: {Name: "Ptermres", Handler: (*Process).ptermres},
	0x36: {Name: "Dfree", Handler: (*Process).dfree},
	0x39: {Name: "Dcreate", Handler: (*Process).dcreate},
	0x3A: {Name: "Ddelete", Handler: (*Process).ddelete},
	0x3B: {Name: "Dsetpath", Handler: (*Process).dsetpath},
	0x3C: {Name: "Fcreate", Handler: (*Process).fcreate},
	0x3D: {Name: "Fopen", Handler: (*Process).fopen},
	0x3E: {Name: "Fclose", Handler: (*Process).fclose},
	0x3F: {Name: "Fread", Handler: (*Process).fread},
	0x40: {Name: "Fwrite", Handler: (*Process).fwrite},
	0x41: {Name: "Fdelete", Handler: (*Process).fdelete},
	0x42: {Name: "Fseek", Handler: (*Process).fseek},
	0x43: {Name: "Fattrib", Handler: (*Process).fattrib},
	0x45: {Name: "Fdup", Handler: (*Process).fdup},
	0x46: {Name: "Fforce", Handler: (*Process).fforce},
	0x47: {Name: "Dgetpath", Handler: (*Process).dgetpath},
	0x48: {Name: "Malloc", Handler: (*Process).malloc},
	0x49: {Name: "Mfree", Handler: (*Process).mfree},
	0x4A: {Name: "Mshrink", Handler: (*Process).mshrink},
	0x4C: {Name: "Pterm", Handler: (*Process).pterm},
	0x4E: {Name: "Fsfirst", Handler: (*Process).fsfirst},
	0x4F: {Name: "Fsnext", Handler: (*Process).fsnext},
	0x56: {Name: "Frename", Handler: (*Process).frename},
	0x57: {Name: "Fdatime", Handler: (*Process).fdatime},

	// MiNT
	0x104: {Name: "Fcntl", Handler: (*Process).fcntl},
})

// returnCode builds a handler that only sets D0.
func returnCode(v int32) trap.Handler[*Process] {
	return func(_ *Process, c *trap.Call) error {
		c.ReturnCode(v)
		return nil
	}
}

// status stores the GEMDOS code for err in D0. Would-block is passed up so
// the bridge retries the trap.
func status(c *trap.Call, module string, err error) error {
	if errors.Is(err, trap.ErrWouldBlock) {
		return err
	}
	code := Code(err)
	if err != nil {
		log.Debug(module, c.Name+" failed", "code", code, "err", err)
	}
	c.ReturnCode(code)
	return nil
}

func (p *Process) pterm0(c *trap.Call) error {
	c.Exit(0)
	return nil
}

func (p *Process) pterm(c *trap.Call) error {
	c.Exit(int32(c.Args.SWord()))
	return nil
}

func (p *Process) ptermres(c *trap.Call) error {
	keep := c.Args.Long()
	code := c.Args.SWord()
	log.Debug(log.GemdosMonitoring, "Ptermres", "keep", keep)
	c.Exit(int32(code))
	return nil
}

// readChar waits for one key. End of input reads as 0.
func (p *Process) readChar(c *trap.Call, echo bool) error {
	b, err := p.console.ReadByte()
	if err == io.EOF {
		c.Return(0)
		return nil
	}
	if err != nil {
		return err
	}
	if echo {
		p.console.WriteByte(b)
	}
	c.Return(uint32(b))
	return nil
}

func (p *Process) cconin(c *trap.Call) error { return p.readChar(c, true) }

func (p *Process) crawcin(c *trap.Call) error { return p.readChar(c, false) }

func (p *Process) cconout(c *trap.Call) error {
	p.console.WriteByte(byte(c.Args.Word()))
	c.Return(0)
	return nil
}

func (p *Process) cauxin(c *trap.Call) error {
	c.Return(0)
	return nil
}

func (p *Process) cauxout(c *trap.Call) error {
	p.aux.Write([]byte{byte(c.Args.Word())})
	c.Return(0)
	return nil
}

func (p *Process) cprnout(c *trap.Call) error {
	p.prn.Write([]byte{byte(c.Args.Word())})
	c.ReturnCode(-1)
	return nil
}

func (p *Process) crawio(c *trap.Call) error {
	w := c.Args.Word()
	if w != 0xFF {
		p.console.WriteByte(byte(w))
		c.Return(0)
		return nil
	}
	b, _ := p.console.TryRead()
	c.Return(uint32(b))
	return nil
}

func (p *Process) cconws(c *trap.Call) error {
	s := c.Args.String(1 << 16)
	p.console.Write([]byte(s))
	c.Return(uint32(len(s)))
	return nil
}

// cconrs reads a line into buf: buf[0] is the capacity, buf[1] receives
// the length and the text starts at buf+2.
func (p *Process) cconrs(c *trap.Call) error {
	buf := c.Args.Ptr()
	max := int(c.Mem().Read8(buf))
	line, err := p.console.ReadLine(max)
	if err != nil {
		return err
	}
	c.Mem().Write8(buf+1, uint8(len(line)))
	c.Mem().WriteBytes(buf+2, []byte(line))
	c.Return(uint32(len(line)))
	return nil
}

func (p *Process) cconis(c *trap.Call) error {
	if p.console.Ready() {
		c.ReturnCode(-1)
	} else {
		c.Return(0)
	}
	return nil
}

// dsetdrv selects the default drive and returns the map of mounted drives.
func (p *Process) dsetdrv(c *trap.Call) error {
	drive := int(c.Args.Word())
	if err := p.drives.SetCurrent(drive); err != nil {
		log.Debug(log.GemdosMonitoring, "Dsetdrv ignored", "drive", drive, "err", err)
	}
	c.Return(p.drives.Map())
	return nil
}

func (p *Process) dgetdrv(c *trap.Call) error {
	c.Return(uint32(p.drives.Current()))
	return nil
}

// SetDTA moves the disk transfer area and records it in the base page.
func (p *Process) SetDTA(addr uint32) {
	p.dta = addr
	p.mem.Write32(p.img.BasePage.Addr+loader.BPDTA, addr)
}

func (p *Process) fsetdta(c *trap.Call) error {
	p.SetDTA(c.Args.Ptr())
	return nil
}

func (p *Process) fgetdta(c *trap.Call) error {
	c.Return(p.dta)
	return nil
}

// super switches between user and supervisor mode. With 1 it only
// reports the mode. Entering supervisor mode keeps the current stack
// unless a new one is given and returns the old SSP. Leaving moves the
// current stack back to the user bank and installs the given SSP.
func (p *Process) super(c *trap.Call) error {
	arg := c.Args.Long()
	sr := uint16(c.Reg(m68k.RegSR))
	supervisor := sr&m68k.FlagS != 0
	if arg == 1 {
		if supervisor {
			c.ReturnCode(-1)
		} else {
			c.Return(0)
		}
		return nil
	}
	sp := c.Reg(m68k.RegA7)
	if !supervisor {
		old := c.Reg(m68k.RegSSP)
		c.SetReg(m68k.RegSR, uint32(sr|m68k.FlagS))
		if arg == 0 {
			c.SetReg(m68k.RegA7, sp)
		} else {
			c.SetReg(m68k.RegA7, arg)
		}
		c.Return(old)
		return nil
	}
	c.SetReg(m68k.RegSR, uint32(sr&^m68k.FlagS))
	c.SetReg(m68k.RegA7, sp)
	c.SetReg(m68k.RegSSP, arg)
	c.Return(sp)
	return nil
}

func (p *Process) now() time.Time { return time.Now().Add(p.clock) }

// setClock moves the guest clock so that it reads t now.
func (p *Process) setClock(t time.Time) { p.clock = time.Until(t) }

func (p *Process) tgetdate(c *trap.Call) error {
	_, date := hostfs.DOSTime(p.now())
	c.Return(uint32(date))
	return nil
}

func (p *Process) tgettime(c *trap.Call) error {
	tm, _ := hostfs.DOSTime(p.now())
	c.Return(uint32(tm))
	return nil
}

func (p *Process) tsetdate(c *trap.Call) error {
	date := c.Args.Word()
	tm, _ := hostfs.DOSTime(p.now())
	p.setClock(hostfs.FromDOSTime(tm, date))
	c.Return(0)
	return nil
}

func (p *Process) tsettime(c *trap.Call) error {
	tm := c.Args.Word()
	_, date := hostfs.DOSTime(p.now())
	p.setClock(hostfs.FromDOSTime(tm, date))
	c.Return(0)
	return nil
}

// dfree fills buf with free clusters, total clusters, sector size and
// sectors per cluster.
func (p *Process) dfree(c *trap.Call) error {
	buf := c.Args.Ptr()
	drive := int(c.Args.Word())
	if drive == 0 {
		drive = p.drives.Current()
	} else {
		drive--
	}
	sp, err := p.drives.Free(drive)
	if err != nil {
		return status(c, log.GemdosMonitoring, err)
	}
	m := c.Mem()
	m.Write32(buf, sp.FreeClusters)
	m.Write32(buf+4, sp.TotalClusters)
	m.Write32(buf+8, sp.SectorSize)
	m.Write32(buf+12, sp.ClusterSectors)
	c.Return(0)
	return nil
}

func (p *Process) dcreate(c *trap.Call) error {
	host, err := p.drives.Resolve(c.Args.String(maxPath))
	if err == nil {
		err = os.Mkdir(host, 0o755)
	}
	return status(c, log.GemdosMonitoring, err)
}

func (p *Process) ddelete(c *trap.Call) error {
	name := c.Args.String(maxPath)
	host, err := p.drives.Resolve(name)
	if err == nil {
		var fi os.FileInfo
		if fi, err = os.Stat(host); err != nil {
			err = fmt.Errorf("%s: %w", name, emuerrors.ErrHPath)
		} else if !fi.IsDir() {
			err = fmt.Errorf("%s is not a directory: %w", name, emuerrors.ErrHAccess)
		} else if err = os.Remove(host); err != nil {
			err = fmt.Errorf("%s: %w", name, emuerrors.ErrHAccess)
		}
	}
	return status(c, log.GemdosMonitoring, err)
}

func (p *Process) dsetpath(c *trap.Call) error {
	return status(c, log.GemdosMonitoring, p.drives.SetPath(c.Args.String(maxPath)))
}

// dgetpath writes the current directory of drive into buf, upper-cased.
// The root is the empty string.
func (p *Process) dgetpath(c *trap.Call) error {
	buf := c.Args.Ptr()
	drive := int(c.Args.Word())
	path, err := p.drives.Path(drive)
	if err != nil {
		return status(c, log.GemdosMonitoring, err)
	}
	if path == `\` {
		path = ""
	}
	c.Mem().WriteCString(buf, strings.ToUpper(path))
	c.Return(0)
	return nil
}

// devices opened by name instead of through a drive
var deviceNames = map[string]fileKind{"CON:": kindConsole, "AUX:": kindAux, "PRN:": kindPrn}

func (p *Process) open(name string, flag int) (int16, error) {
	if kind, ok := deviceNames[name]; ok {
		return p.files.Add(&openFile{kind: kind, name: name})
	}
	host, err := p.drives.Resolve(name)
	if err != nil {
		return 0, err
	}
	f, err := os.OpenFile(host, flag, 0o644)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if fi, err := f.Stat(); err == nil && fi.IsDir() {
		f.Close()
		return 0, fmt.Errorf("%s is a directory: %w", name, emuerrors.ErrHAccess)
	}
	h, err := p.files.Add(&openFile{kind: kindHost, f: f, name: name})
	if err != nil {
		f.Close()
		return 0, err
	}
	log.Debug(log.GemdosMonitoring, "open", "name", name, "host", host, "handle", h)
	return h, nil
}

func (p *Process) fcreate(c *trap.Call) error {
	name := c.Args.String(maxPath)
	attr := c.Args.Word()
	h, err := p.open(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return status(c, log.GemdosMonitoring, err)
	}
	if attr&hostfs.AttrReadOnly != 0 {
		if host, err := p.drives.Resolve(name); err == nil {
			os.Chmod(host, 0o444)
		}
	}
	c.Return(uint32(h))
	return nil
}

func (p *Process) fopen(c *trap.Call) error {
	name := c.Args.String(maxPath)
	mode := c.Args.Word()
	var flag int
	switch mode & 3 {
	case 0:
		flag = os.O_RDONLY
	case 1:
		flag = os.O_WRONLY
	default:
		flag = os.O_RDWR
	}
	h, err := p.open(name, flag)
	if err != nil {
		return status(c, log.GemdosMonitoring, err)
	}
	c.Return(uint32(h))
	return nil
}

func (p *Process) fclose(c *trap.Call) error {
	return status(c, log.GemdosMonitoring, p.files.Close(c.Args.SWord()))
}

// clampCount limits a transfer so that it stays inside the arena.
func (p *Process) clampCount(buf, count uint32) uint32 {
	size := p.mem.Size()
	if buf >= size {
		return 0
	}
	if count > size-buf {
		return size - buf
	}
	return count
}

func (p *Process) fread(c *trap.Call) error {
	h := c.Args.SWord()
	count := c.Args.Long()
	buf := c.Args.Ptr()
	of, err := p.files.Get(h)
	if err != nil {
		return status(c, log.GemdosMonitoring, err)
	}
	count = p.clampCount(buf, count)
	if count == 0 {
		c.Return(0)
		return nil
	}

	var data []byte
	switch of.kind {
	case kindConsole:
		data, err = p.readConsole(int(count))
		if err != nil {
			return err
		}
	case kindHost:
		data = make([]byte, count)
		n, err := of.f.Read(data)
		if err != nil && err != io.EOF {
			return status(c, log.GemdosMonitoring, fmt.Errorf("%s: %w", of.name, emuerrors.ErrHAccess))
		}
		data = data[:n]
	}
	c.Mem().WriteBytes(buf, data)
	c.Return(uint32(len(data)))
	return nil
}

// readConsole returns what is buffered, waiting only for the first byte.
// A newline ends the read.
func (p *Process) readConsole(max int) ([]byte, error) {
	b, err := p.console.ReadByte()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := []byte{b}
	for len(out) < max && b != '\n' {
		var ok bool
		if b, ok = p.console.TryRead(); !ok {
			break
		}
		out = append(out, b)
	}
	return out, nil
}

func (p *Process) fwrite(c *trap.Call) error {
	h := c.Args.SWord()
	count := c.Args.Long()
	buf := c.Args.Ptr()
	of, err := p.files.Get(h)
	if err != nil {
		return status(c, log.GemdosMonitoring, err)
	}
	data := c.Mem().ReadBytes(buf, p.clampCount(buf, count))

	var n int
	switch of.kind {
	case kindConsole:
		n, err = p.console.Write(data)
	case kindAux:
		n, err = p.aux.Write(data)
	case kindPrn:
		n, err = p.prn.Write(data)
	case kindHost:
		n, err = of.f.Write(data)
	}
	if err != nil {
		return status(c, log.GemdosMonitoring, fmt.Errorf("%s: %v: %w", of.name, err, emuerrors.ErrHAccess))
	}
	c.Return(uint32(n))
	return nil
}

func (p *Process) fdelete(c *trap.Call) error {
	name := c.Args.String(maxPath)
	host, err := p.drives.Resolve(name)
	if err == nil {
		var fi os.FileInfo
		if fi, err = os.Stat(host); err != nil {
			err = fmt.Errorf("%s: %w", name, emuerrors.ErrHNotFound)
		} else if fi.IsDir() {
			err = fmt.Errorf("%s is a directory: %w", name, emuerrors.ErrHAccess)
		} else {
			err = os.Remove(host)
		}
	}
	return status(c, log.GemdosMonitoring, err)
}

func (p *Process) fseek(c *trap.Call) error {
	offset := c.Args.SLong()
	h := c.Args.SWord()
	mode := c.Args.Word()
	of, err := p.files.Get(h)
	if err != nil {
		return status(c, log.GemdosMonitoring, err)
	}
	if of.kind != kindHost {
		c.Return(0)
		return nil
	}
	whence, ok := seekWhence(mode)
	if !ok {
		c.ReturnCode(EINVFN)
		return nil
	}
	cur, _ := of.f.Seek(0, io.SeekCurrent)
	pos, err := of.f.Seek(int64(offset), whence)
	if err != nil || pos > 0x7FFFFFFF {
		of.f.Seek(cur, io.SeekStart)
		return status(c, log.GemdosMonitoring, fmt.Errorf("seek %d/%d: %w", offset, mode, emuerrors.ErrHRange))
	}
	c.Return(uint32(pos))
	return nil
}

// fattrib reads or, with wflag 1, sets the attributes of a file. Only the
// read-only bit maps onto the host.
func (p *Process) fattrib(c *trap.Call) error {
	name := c.Args.String(maxPath)
	wflag := c.Args.Word()
	attr := uint8(c.Args.Word())
	host, err := p.drives.Resolve(name)
	if err != nil {
		return status(c, log.GemdosMonitoring, err)
	}
	fi, err := os.Stat(host)
	if err != nil {
		return status(c, log.GemdosMonitoring, fmt.Errorf("%s: %w", name, emuerrors.ErrHNotFound))
	}
	if wflag == 1 {
		perm := fi.Mode().Perm() | 0o200
		if attr&hostfs.AttrReadOnly != 0 {
			perm &^= 0o222
		}
		if err := os.Chmod(host, perm); err != nil {
			return status(c, log.GemdosMonitoring, fmt.Errorf("%s: %w", name, emuerrors.ErrHAccess))
		}
		c.Return(uint32(attr))
		return nil
	}
	c.Return(uint32(hostfs.Attributes(fi)))
	return nil
}

func (p *Process) fdup(c *trap.Call) error {
	h, err := p.files.Dup(c.Args.SWord())
	if err != nil {
		return status(c, log.GemdosMonitoring, err)
	}
	c.Return(uint32(h))
	return nil
}

func (p *Process) fforce(c *trap.Call) error {
	std := c.Args.SWord()
	h := c.Args.SWord()
	return status(c, log.GemdosMonitoring, p.files.Force(std, h))
}

// malloc with -1 returns the largest free block. Failure returns 0.
func (p *Process) malloc(c *trap.Call) error {
	size := c.Args.SLong()
	if size == -1 {
		c.Return(p.heap.Largest())
		return nil
	}
	if size <= 0 {
		c.Return(0)
		return nil
	}
	addr, err := p.heap.Alloc(uint32(size))
	if err != nil {
		log.Debug(log.GemdosMonitoring, "Malloc failed", "size", size, "err", err)
		c.Return(0)
		return nil
	}
	c.Return(addr)
	return nil
}

func (p *Process) mfree(c *trap.Call) error {
	return status(c, log.GemdosMonitoring, p.heap.Free(c.Args.Ptr()))
}

func (p *Process) mshrink(c *trap.Call) error {
	c.Args.Skip(2)
	block := c.Args.Ptr()
	size := c.Args.Long()
	if cur, ok := p.heap.SizeOf(block); ok && size > cur {
		c.ReturnCode(EGSBF)
		return nil
	}
	return status(c, log.GemdosMonitoring, p.heap.Shrink(block, size))
}

func (p *Process) fsfirst(c *trap.Call) error {
	spec := c.Args.String(maxPath)
	attr := uint8(c.Args.Word())
	entries, err := p.drives.Glob(spec, attr)
	if err != nil {
		p.find = nil
		return status(c, log.GemdosMonitoring, err)
	}
	p.find = &findState{dta: p.dta, entries: entries}
	return p.fsnext(c)
}

func (p *Process) fsnext(c *trap.Call) error {
	if p.find == nil || p.find.next >= len(p.find.entries) {
		c.ReturnCode(ENMFIL)
		return nil
	}
	e := p.find.entries[p.find.next]
	p.find.next++
	p.writeDTA(e)
	c.Return(0)
	return nil
}

func (p *Process) writeDTA(e hostfs.Entry) {
	m := p.mem
	tm, date := hostfs.DOSTime(e.ModTime)
	m.Write8(p.dta+dtaAttr, e.Attr)
	m.Write16(p.dta+dtaTime, tm)
	m.Write16(p.dta+dtaDate, date)
	size := e.Size
	if size > 0x7FFFFFFF {
		size = 0x7FFFFFFF
	}
	m.Write32(p.dta+dtaSize, uint32(size))
	name := e.Name
	if len(name) > 13 {
		name = name[:13]
	}
	m.Fill(p.dta+dtaName, dtaLen-dtaName, 0)
	m.WriteCString(p.dta+dtaName, name)
}

func (p *Process) frename(c *trap.Call) error {
	c.Args.Skip(2)
	from := c.Args.String(maxPath)
	to := c.Args.String(maxPath)
	src, err := p.drives.Resolve(from)
	if err != nil {
		return status(c, log.GemdosMonitoring, err)
	}
	dst, err := p.drives.Resolve(to)
	if err != nil {
		return status(c, log.GemdosMonitoring, err)
	}
	if _, err := os.Stat(dst); err == nil {
		return status(c, log.GemdosMonitoring, fmt.Errorf("%s exists: %w", to, emuerrors.ErrHAccess))
	}
	return status(c, log.GemdosMonitoring, os.Rename(src, dst))
}

// fdatime reads or, with wflag 1, sets the modification time of an open
// file. buf holds the time word followed by the date word.
func (p *Process) fdatime(c *trap.Call) error {
	buf := c.Args.Ptr()
	h := c.Args.SWord()
	wflag := c.Args.Word()
	of, err := p.files.Get(h)
	if err != nil {
		return status(c, log.GemdosMonitoring, err)
	}
	if of.kind != kindHost {
		c.ReturnCode(EINVFN)
		return nil
	}
	m := c.Mem()
	if wflag == 1 {
		t := hostfs.FromDOSTime(m.Read16(buf), m.Read16(buf+2))
		return status(c, log.GemdosMonitoring, os.Chtimes(of.f.Name(), t, t))
	}
	fi, err := of.f.Stat()
	if err != nil {
		return status(c, log.GemdosMonitoring, fmt.Errorf("%s: %w", of.name, emuerrors.ErrHAccess))
	}
	tm, date := hostfs.DOSTime(fi.ModTime())
	m.Write16(buf, tm)
	m.Write16(buf+2, date)
	c.Return(0)
	return nil
}

// fcntl supports TIOCGPGRP only, reporting process group 1.
func (p *Process) fcntl(c *trap.Call) error {
	c.Args.Skip(2)
	arg := c.Args.Ptr()
	cmd := c.Args.Word()
	if cmd != fcntlTIOCGPGRP {
		c.ReturnCode(EINVFN)
		return nil
	}
	c.Mem().Write32(arg, 1)
	c.Return(0)
	return nil
}
