package loader

import (
	"fmt"

	"github.com/alirzasahb/PumpkinOS/guest"
	"github.com/alirzasahb/PumpkinOS/heap"
	"github.com/alirzasahb/PumpkinOS/log"
	"github.com/alirzasahb/PumpkinOS/m68k"
	"github.com/zeebo/xxh3"
)

// Options controls arena and CPU construction.
type Options struct {
	Backend     string // m68k.BackendInterpreter when empty
	MemorySize  uint32 // guest.DefaultSize when zero
	AddressBits int    // 24 when zero
	IO          *guest.IOWindow
}

// Image is a loaded program ready to run.
type Image struct {
	Header      Header
	Layout      Layout
	BasePage    BasePage
	Mem         *guest.Memory
	CPU         m68k.Engine
	Heap        *heap.Allocator
	Fixups      int
	Fingerprint uint64 // xxh3 of the raw image
}

// Load validates image, builds the arena, copies and relocates the
// segments, writes the base page and prepares the CPU. On failure every
// resource acquired so far is released.
func Load(image []byte, argv []string, opts Options) (img *Image, err error) {
	h, err := ParseHeader(image)
	if err != nil {
		return nil, err
	}
	size := opts.MemorySize
	if size == 0 {
		size = guest.DefaultSize
	}
	layout, err := ComputeLayout(h, size)
	if err != nil {
		return nil, err
	}

	memOpts := []guest.Option{}
	if opts.AddressBits != 0 {
		memOpts = append(memOpts, guest.WithAddressBits(opts.AddressBits))
	}
	io := opts.IO
	if io == nil {
		io = guest.NewSTIOWindow()
	}
	memOpts = append(memOpts, guest.WithIOWindow(io))
	mem, err := guest.New(size, memOpts...)
	if err != nil {
		return nil, err
	}
	img = &Image{Header: h, Layout: layout, Mem: mem, Fingerprint: xxh3.Hash(image)}
	defer func() {
		if err != nil {
			img.Close()
			img = nil
		}
	}()

	mem.WriteBytes(layout.TextStart, h.Text(image))
	mem.WriteBytes(layout.DataStart, h.Data(image))
	mem.Fill(layout.BssStart, layout.BssSize, 0)

	if h.Relocatable() {
		img.Fixups, err = Relocate(mem, h.Relocations(image), layout.TextStart, h.TextSize+h.DataSize)
		if err != nil {
			return img, err
		}
	}

	img.BasePage = WriteBasePage(mem, layout, argv)
	mem.Write32(Phystop, layout.MemorySize)
	img.Heap = heap.New(layout.HeapStart, layout.HeapSize)

	backend := opts.Backend
	if backend == "" {
		backend = m68k.BackendInterpreter
	}
	img.CPU, err = m68k.NewEngine(backend, m68k.MemoryHooks(mem), mem.Bytes())
	if err != nil {
		return img, fmt.Errorf("cpu %q: %w", backend, err)
	}

	sp := layout.InitialSP()
	mem.Write32(sp, 0)
	mem.Write32(sp+4, layout.BasePage)
	img.CPU.SetRegister(m68k.RegSR, 0)
	img.CPU.SetRegister(m68k.RegA7, sp)
	img.CPU.SetRegister(m68k.RegSSP, sp)
	img.CPU.SetRegister(m68k.RegPC, layout.TextStart)

	log.Info(log.LoaderMonitoring, "program loaded",
		"text", fmt.Sprintf("0x%08X+%d", layout.TextStart, layout.TextSize),
		"data", fmt.Sprintf("0x%08X+%d", layout.DataStart, layout.DataSize),
		"bss", fmt.Sprintf("0x%08X+%d", layout.BssStart, layout.BssSize),
		"heap", fmt.Sprintf("0x%08X+%d", layout.HeapStart, layout.HeapSize),
		"stack", fmt.Sprintf("0x%08X", layout.StackStart),
		"fixups", img.Fixups, "xxh3", fmt.Sprintf("%016x", img.Fingerprint))
	return img, nil
}

// Close releases the CPU and the arena. It is safe to call twice.
func (img *Image) Close() error {
	var first error
	if img.CPU != nil {
		first = img.CPU.Close()
		img.CPU = nil
	}
	if img.Mem != nil {
		if err := img.Mem.Close(); err != nil && first == nil {
			first = err
		}
		img.Mem = nil
	}
	return first
}

// Reserve allocates n bytes from the program heap.
func (img *Image) Reserve(n uint32) (uint32, error) {
	addr, err := img.Heap.Alloc(n)
	if err != nil {
		return 0, fmt.Errorf("reserve %d bytes: %w", n, err)
	}
	return addr, nil
}
