package loader

import (
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/alirzasahb/PumpkinOS/emuerrors"
	"github.com/alirzasahb/PumpkinOS/guest"
	"github.com/alirzasahb/PumpkinOS/m68k"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type prg struct {
	text  []byte
	data  []byte
	bss   uint32
	sym   uint32
	reloc []byte
	abs   uint16
}

func (p prg) bytes() []byte {
	hdr := make([]byte, HeaderSize)
	binary.BigEndian.PutUint16(hdr[0:], Magic)
	binary.BigEndian.PutUint32(hdr[2:], uint32(len(p.text)))
	binary.BigEndian.PutUint32(hdr[6:], uint32(len(p.data)))
	binary.BigEndian.PutUint32(hdr[10:], p.bss)
	binary.BigEndian.PutUint32(hdr[14:], p.sym)
	binary.BigEndian.PutUint16(hdr[26:], p.abs)
	out := append(hdr, p.text...)
	out = append(out, p.data...)
	out = append(out, make([]byte, p.sym)...)
	return append(out, p.reloc...)
}

func load(t *testing.T, p prg, argv ...string) *Image {
	t.Helper()
	img, err := Load(p.bytes(), append([]string{"prog.tos"}, argv...), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { img.Close() })
	return img
}

func TestLoadInitialState(t *testing.T) {
	img := load(t, prg{text: []byte{0x4E, 0x75}, data: []byte{1, 2, 3}, bss: 5}, "-v", "file.txt")
	l := img.Layout

	assert.Equal(t, uint32(0x800), l.BasePage)
	assert.Equal(t, uint32(0x900), l.TextStart)
	assert.Equal(t, uint32(0x902), l.DataStart)
	assert.Equal(t, uint32(0x905), l.BssStart)
	assert.Equal(t, uint32(11), l.BssSize, "text+data+bss rounds to 16")
	assert.Equal(t, uint32(0x910), l.HeapStart)
	assert.Equal(t, uint32(guest.DefaultSize-StackSize), l.StackStart)
	assert.Equal(t, l.StackStart, l.HeapStart+l.HeapSize)

	cpu := img.CPU
	assert.Equal(t, l.TextStart, cpu.GetRegister(m68k.RegPC))
	sp := cpu.GetRegister(m68k.RegA7)
	assert.Equal(t, uint32(guest.DefaultSize-16), sp)
	assert.Equal(t, uint32(0), cpu.GetRegister(m68k.RegSR)&uint32(m68k.FlagS))
	assert.Equal(t, uint32(0), img.Mem.Read32(sp))
	assert.Equal(t, l.BasePage, img.Mem.Read32(sp+4))
	assert.Equal(t, uint32(guest.DefaultSize), img.Mem.Read32(Phystop))

	assert.Equal(t, uint16(0x4E75), img.Mem.Read16(l.TextStart))
	assert.Equal(t, uint8(3), img.Mem.Read8(l.DataStart+2))
	assert.Equal(t, l.HeapStart, img.Heap.Base())
	assert.NotZero(t, img.Fingerprint)
}

func TestBasePageFields(t *testing.T) {
	img := load(t, prg{text: make([]byte, 32), data: make([]byte, 16), bss: 100}, "a", "bc")
	bp := ReadBasePage(img.Mem, img.Layout.BasePage)

	assert.Equal(t, img.BasePage, bp)
	assert.Equal(t, uint32(0x800), bp.LowTPA)
	assert.Equal(t, uint32(guest.DefaultSize), bp.HighTPA)
	assert.Equal(t, uint32(0x900), bp.TextBase)
	assert.Equal(t, uint32(32), bp.TextLen)
	assert.Equal(t, uint32(0x920), bp.DataBase)
	assert.Equal(t, uint32(16), bp.DataLen)
	assert.Equal(t, uint32(0x930), bp.BssBase)
	assert.Equal(t, uint32(112), bp.BssLen)
	assert.Equal(t, uint32(0x880), bp.DTA)
	assert.Equal(t, "a bc", bp.CmdLine)
	assert.Equal(t, uint8(4), img.Mem.Read8(0x880))
	assert.Equal(t, uint32(0), img.Mem.Read32(bp.Env))
}

func TestCommandLineCap(t *testing.T) {
	long := strings.Repeat("x", 200)
	assert.Len(t, CommandLine([]string{"p", long}), MaxCmdLine)
	assert.Equal(t, "", CommandLine([]string{"p"}))
	assert.Equal(t, "", CommandLine(nil))
}

func TestRelocationRoundTrip(t *testing.T) {
	text := make([]byte, 8)
	binary.BigEndian.PutUint32(text[4:], 0x12)
	img := load(t, prg{text: text, reloc: []byte{0, 0, 0, 4, 0}})

	assert.Equal(t, 1, img.Fixups)
	assert.Equal(t, uint32(0), img.Mem.Read32(0x900))
	assert.Equal(t, uint32(0x12+0x900), img.Mem.Read32(0x904))
}

func TestRelocationSkipDelta(t *testing.T) {
	text := make([]byte, 300)
	binary.BigEndian.PutUint32(text[2:], 0x10)
	binary.BigEndian.PutUint32(text[256:], 0x20)
	binary.BigEndian.PutUint32(text[260:], 0x30)
	img := load(t, prg{text: text, reloc: []byte{0, 0, 0, 2, 1, 4, 0}})

	assert.Equal(t, 2, img.Fixups)
	assert.Equal(t, uint32(0x910), img.Mem.Read32(0x902))
	assert.Equal(t, uint32(0x20), img.Mem.Read32(0x900+256), "skip marker does not patch")
	assert.Equal(t, uint32(0x930), img.Mem.Read32(0x900+260))
}

func TestRelocationIntoData(t *testing.T) {
	data := make([]byte, 8)
	binary.BigEndian.PutUint32(data[4:], 0x40)
	img := load(t, prg{text: make([]byte, 4), data: data, reloc: []byte{0, 0, 0, 8, 0}})
	assert.Equal(t, uint32(0x940), img.Mem.Read32(0x908))
}

func TestRelocationNone(t *testing.T) {
	text := []byte{0, 0, 0, 7}
	img := load(t, prg{text: text, reloc: []byte{0, 0, 0, 0}})
	assert.Equal(t, 0, img.Fixups)
	assert.Equal(t, uint32(7), img.Mem.Read32(0x900))

	img = load(t, prg{text: text, reloc: []byte{0, 0, 0, 0, 4, 4, 0}})
	assert.Equal(t, 0, img.Fixups, "a zero first offset ends the table")
	assert.Equal(t, uint32(7), img.Mem.Read32(0x900))
}

func TestRelocationIgnoresAbsoluteFlag(t *testing.T) {
	img := load(t, prg{text: []byte{0, 0, 0, 7, 0, 0, 0, 9}, reloc: []byte{0, 0, 0, 4, 0}, abs: 1})
	assert.Equal(t, 1, img.Fixups)
	assert.Equal(t, uint32(7), img.Mem.Read32(0x900))
	assert.Equal(t, uint32(0x909), img.Mem.Read32(0x904))
}

func TestLoadErrors(t *testing.T) {
	bad := prg{text: []byte{0x4E, 0x75}}.bytes()
	bad[1] = 0x1B

	truncated := prg{text: make([]byte, 16)}.bytes()
	truncated = truncated[:HeaderSize+8]

	symPastEnd := prg{text: make([]byte, 4)}.bytes()
	binary.BigEndian.PutUint32(symPastEnd[14:], 64)

	cases := []struct {
		name  string
		image []byte
		opts  Options
		want  error
		kind  error
	}{
		{"empty", nil, Options{}, emuerrors.ErrFShortImage, emuerrors.ErrFormat},
		{"bad magic", bad, Options{}, emuerrors.ErrFBadMagic, emuerrors.ErrFormat},
		{"truncated text", truncated, Options{}, emuerrors.ErrFShortImage, emuerrors.ErrFormat},
		{"negative reloc", symPastEnd, Options{}, emuerrors.ErrFNegativeReloc, emuerrors.ErrFormat},
		{"reloc outside text", prg{text: make([]byte, 8), reloc: []byte{0, 0, 0, 6, 0}}.bytes(), Options{},
			emuerrors.ErrFRelocOutOfText, emuerrors.ErrFormat},
		{"reloc walks off", prg{text: make([]byte, 8), reloc: []byte{0, 0, 0, 2, 1, 4, 0}}.bytes(), Options{},
			emuerrors.ErrFRelocOutOfText, emuerrors.ErrFormat},
		{"zero first offset", prg{text: make([]byte, 8), reloc: []byte{0, 0, 0, 0, 1, 0}}.bytes(), Options{},
			nil, nil},
		{"too large", prg{text: make([]byte, 4), bss: 1 << 20}.bytes(), Options{},
			emuerrors.ErrMTooLarge, emuerrors.ErrMemory},
		{"unknown backend", prg{text: make([]byte, 4)}.bytes(), Options{Backend: "z80"},
			emuerrors.ErrCBackend, emuerrors.ErrCPU},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			img, err := Load(tc.image, nil, tc.opts)
			if tc.want == nil {
				require.NoError(t, err)
				img.Close()
				return
			}
			if img != nil {
				t.Errorf("expected nil image on failure")
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("error %v, want %v", err, tc.want)
			}
			if !errors.Is(err, tc.kind) {
				t.Errorf("error %v not of kind %v", err, tc.kind)
			}
		})
	}
}

func TestLoadedProgramRuns(t *testing.T) {
	// moveq #42,d0; rts
	img := load(t, prg{text: []byte{0x70, 0x2A, 0x4E, 0x75}})
	reason := img.CPU.Run(m68k.DefaultSlice)
	assert.Equal(t, m68k.StopSentinel, reason)
	assert.Equal(t, uint32(42), img.CPU.GetRegister(m68k.RegD0))
	assert.NoError(t, img.Close())
	assert.NoError(t, img.Close())
}
