package guest

import (
	"fmt"
	"sort"
	"sync"

	"github.com/alirzasahb/PumpkinOS/log"
)

// ST hardware register addresses inside the I/O window.
const (
	RegVideoBaseHi  = 0xFF8201
	RegVideoBaseMid = 0xFF8203
	RegShiftMode    = 0xFF8260
	RegMFPIERB      = 0xFFFA09
	RegKbdACIACtrl  = 0xFFFC00
	RegKbdACIAData  = 0xFFFC02
	RegMIDIACIACtrl = 0xFFFC04
	RegMIDIACIAData = 0xFFFC06
)

// Register is one byte-wide device register. A nil Read returns the stored
// value; a nil Write makes the register read-only (writes are only logged).
type Register struct {
	Name     string
	Value    uint8
	Writable bool
	Read     func() uint8
	Write    func(uint8)
}

// IOWindow synthesizes the device registers of the window [IOBase, IOEnd).
// Unlisted addresses read 0 and ignore writes.
type IOWindow struct {
	mu   sync.Mutex
	regs map[uint32]*Register
}

func NewIOWindow() *IOWindow {
	return &IOWindow{regs: make(map[uint32]*Register)}
}

// NewSTIOWindow returns the register set a TOS program commonly probes:
// the MFP interrupt enable register, both ACIAs and the shifter.
func NewSTIOWindow() *IOWindow {
	w := NewIOWindow()
	w.Define(RegMFPIERB, &Register{Name: "mfp_ierb", Value: 0x40})
	// receiver full, transmitter empty
	w.Define(RegKbdACIACtrl, &Register{Name: "kbd_acia_ctrl", Value: 0x03})
	w.Define(RegKbdACIAData, &Register{Name: "kbd_acia_data"})
	w.Define(RegMIDIACIACtrl, &Register{Name: "midi_acia_ctrl"})
	w.Define(RegMIDIACIAData, &Register{Name: "midi_acia_data"})
	w.Define(RegVideoBaseHi, &Register{Name: "video_base_hi", Writable: true})
	w.Define(RegVideoBaseMid, &Register{Name: "video_base_mid", Writable: true})
	// monochrome 640x400
	w.Define(RegShiftMode, &Register{Name: "shift_mode", Value: 2, Writable: true})
	return w
}

// Define installs or replaces the register at addr.
func (w *IOWindow) Define(addr uint32, r *Register) {
	w.mu.Lock()
	w.regs[addr] = r
	w.mu.Unlock()
}

// Lookup returns the register at addr, if any.
func (w *IOWindow) Lookup(addr uint32) (*Register, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	r, ok := w.regs[addr]
	return r, ok
}

// Addresses lists the defined registers in ascending order.
func (w *IOWindow) Addresses() []uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]uint32, 0, len(w.regs))
	for a := range w.regs {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (w *IOWindow) Read8(addr uint32) uint8 {
	w.mu.Lock()
	r, ok := w.regs[addr]
	w.mu.Unlock()
	if !ok {
		return 0
	}
	if r.Read != nil {
		return r.Read()
	}
	return r.Value
}

func (w *IOWindow) Write8(addr uint32, v uint8) {
	w.mu.Lock()
	r, ok := w.regs[addr]
	w.mu.Unlock()
	name := "unmapped"
	if ok {
		name = r.Name
	}
	log.Debug(log.TOSMonitoring, "io write", "reg", name, "addr", fmt.Sprintf("0x%06X", addr), "value", fmt.Sprintf("0x%02X", v))
	if !ok {
		return
	}
	if r.Write != nil {
		r.Write(v)
		return
	}
	if r.Writable {
		w.mu.Lock()
		r.Value = v
		w.mu.Unlock()
	}
}
