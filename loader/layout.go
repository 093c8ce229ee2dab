package loader

import (
	"fmt"

	"github.com/alirzasahb/PumpkinOS/emuerrors"
	"github.com/alirzasahb/PumpkinOS/guest"
)

const (
	LowMemSize   = 2048
	BasePageSize = 256
	StackSize    = 4096

	// stack slack below the top; the loader places the return address and
	// base page argument inside it
	stackSlack = 16
)

// Layout is the placement of every region inside the arena:
// low memory | base page | text | data | bss | heap | stack.
type Layout struct {
	MemorySize uint32
	BasePage   uint32
	TextStart  uint32
	TextSize   uint32
	DataStart  uint32
	DataSize   uint32
	BssStart   uint32
	BssSize    uint32 // rounded so text+data+bss is a multiple of 16
	HeapStart  uint32
	HeapSize   uint32
	StackStart uint32
	StackTop   uint32
}

// ComputeLayout places h's segments in an arena of memSize bytes.
func ComputeLayout(h Header, memSize uint32) (Layout, error) {
	var l Layout
	bss := uint64(h.BssSize)
	if rem := (uint64(h.TextSize) + uint64(h.DataSize) + bss) % guest.Alignment; rem != 0 {
		bss += guest.Alignment - rem
	}
	fixed := uint64(LowMemSize) + BasePageSize + uint64(h.TextSize) + uint64(h.DataSize) + bss + StackSize
	if fixed > uint64(memSize) {
		return l, fmt.Errorf("program needs %d bytes, arena has %d: %w", fixed, memSize, emuerrors.ErrMTooLarge)
	}
	l.MemorySize = memSize
	l.BasePage = LowMemSize
	l.TextStart = LowMemSize + BasePageSize
	l.TextSize = h.TextSize
	l.DataStart = l.TextStart + h.TextSize
	l.DataSize = h.DataSize
	l.BssStart = l.DataStart + h.DataSize
	l.BssSize = uint32(bss)
	l.HeapStart = l.BssStart + l.BssSize
	l.HeapSize = memSize - uint32(fixed)
	l.StackStart = l.HeapStart + l.HeapSize
	l.StackTop = l.StackStart + StackSize
	return l, nil
}

// InitialSP is the stack pointer handed to the program.
func (l Layout) InitialSP() uint32 {
	return l.StackTop - stackSlack
}
