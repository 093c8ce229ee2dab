package tos

import (
	"github.com/alirzasahb/PumpkinOS/log"
	"github.com/alirzasahb/PumpkinOS/trap"
)

// Trap vectors and the Line-A opcode range.
const (
	VecGEMDOS  = 1
	VecGEM     = 2
	VecBIOS    = 13
	VecXBIOS   = 14
	LineAFirst = 0xA000
	LineALast  = 0xA00F
)

// Personalities returns the OS interfaces a process exposes.
func Personalities() []*trap.Personality[*Process] {
	return []*trap.Personality[*Process]{
		{Name: "gemdos", First: VecGEMDOS, Last: VecGEMDOS, Source: trap.FromStack, Module: log.GemdosMonitoring, Table: GemdosTable},
		{Name: "gem", First: VecGEM, Last: VecGEM, Source: trap.FromD0, Module: log.GemMonitoring, Table: GemTable},
		{Name: "bios", First: VecBIOS, Last: VecBIOS, Source: trap.FromStack, Module: log.BiosMonitoring, Table: BiosTable},
		{Name: "xbios", First: VecXBIOS, Last: VecXBIOS, Source: trap.FromStack, Module: log.XbiosMonitoring, Table: XbiosTable},
		{Name: "linea", First: LineAFirst, Last: LineALast, Source: trap.FromVector, Module: log.LineAMonitoring, Table: LineATable},
	}
}
