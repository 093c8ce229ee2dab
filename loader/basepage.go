package loader

import (
	"strings"

	"github.com/alirzasahb/PumpkinOS/guest"
)

// Base page field offsets.
const (
	BPLowTPA   = 0x00
	BPHighTPA  = 0x04
	BPTextBase = 0x08
	BPTextLen  = 0x0C
	BPDataBase = 0x10
	BPDataLen  = 0x14
	BPBssBase  = 0x18
	BPBssLen   = 0x1C
	BPDTA      = 0x20
	BPParent   = 0x24
	BPReserved = 0x28
	BPEnv      = 0x2C
	BPCmdLine  = 0x80

	MaxCmdLine = 127

	// Phystop is the low-memory system variable holding the top of RAM.
	Phystop = 0x42E
)

// BasePage is the process descriptor at the bottom of the TPA.
type BasePage struct {
	Addr     uint32
	LowTPA   uint32
	HighTPA  uint32
	TextBase uint32
	TextLen  uint32
	DataBase uint32
	DataLen  uint32
	BssBase  uint32
	BssLen   uint32
	DTA      uint32
	Parent   uint32
	Env      uint32
	CmdLine  string
}

// CommandLine joins argv[1:] with single spaces, capped at MaxCmdLine bytes.
func CommandLine(argv []string) string {
	if len(argv) < 2 {
		return ""
	}
	s := strings.Join(argv[1:], " ")
	if len(s) > MaxCmdLine {
		s = s[:MaxCmdLine]
	}
	return s
}

// WriteBasePage fills the base page for l and stores the command line.
// The process is its own parent and its environment pointer aims at the
// zeroed reserved long, which reads as an empty environment.
func WriteBasePage(mem *guest.Memory, l Layout, argv []string) BasePage {
	bp := BasePage{
		Addr:     l.BasePage,
		LowTPA:   l.BasePage,
		HighTPA:  l.MemorySize,
		TextBase: l.TextStart,
		TextLen:  l.TextSize,
		DataBase: l.DataStart,
		DataLen:  l.DataSize,
		BssBase:  l.BssStart,
		BssLen:   l.BssSize,
		DTA:      l.BasePage + BPCmdLine,
		Parent:   l.BasePage,
		Env:      l.BasePage + BPReserved,
		CmdLine:  CommandLine(argv),
	}
	b := bp.Addr
	mem.Write32(b+BPLowTPA, bp.LowTPA)
	mem.Write32(b+BPHighTPA, bp.HighTPA)
	mem.Write32(b+BPTextBase, bp.TextBase)
	mem.Write32(b+BPTextLen, bp.TextLen)
	mem.Write32(b+BPDataBase, bp.DataBase)
	mem.Write32(b+BPDataLen, bp.DataLen)
	mem.Write32(b+BPBssBase, bp.BssBase)
	mem.Write32(b+BPBssLen, bp.BssLen)
	mem.Write32(b+BPDTA, bp.DTA)
	mem.Write32(b+BPParent, bp.Parent)
	mem.Write32(b+BPReserved, 0)
	mem.Write32(b+BPEnv, bp.Env)
	mem.Write8(b+BPCmdLine, uint8(len(bp.CmdLine)))
	mem.WriteBytes(b+BPCmdLine+1, []byte(bp.CmdLine))
	return bp
}

// ReadBasePage decodes the base page stored at addr.
func ReadBasePage(mem *guest.Memory, addr uint32) BasePage {
	n := uint32(mem.Read8(addr + BPCmdLine))
	if n > MaxCmdLine {
		n = MaxCmdLine
	}
	return BasePage{
		Addr:     addr,
		LowTPA:   mem.Read32(addr + BPLowTPA),
		HighTPA:  mem.Read32(addr + BPHighTPA),
		TextBase: mem.Read32(addr + BPTextBase),
		TextLen:  mem.Read32(addr + BPTextLen),
		DataBase: mem.Read32(addr + BPDataBase),
		DataLen:  mem.Read32(addr + BPDataLen),
		BssBase:  mem.Read32(addr + BPBssBase),
		BssLen:   mem.Read32(addr + BPBssLen),
		DTA:      mem.Read32(addr + BPDTA),
		Parent:   mem.Read32(addr + BPParent),
		Env:      mem.Read32(addr + BPEnv),
		CmdLine:  string(mem.ReadBytes(addr+BPCmdLine+1, n)),
	}
}
