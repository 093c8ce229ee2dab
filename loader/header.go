// Package loader turns a TOS executable image into a ready-to-run guest:
// an arena holding the program segments and base page, a relocated text
// segment, a heap allocator and a CPU positioned at the entry point.
package loader

import (
	"encoding/binary"
	"fmt"

	"github.com/alirzasahb/PumpkinOS/emuerrors"
)

const (
	Magic      = 0x601A // bra.s over the header
	HeaderSize = 28
)

// Header is the fixed 28-byte program header, big-endian.
type Header struct {
	Magic     uint16
	TextSize  uint32
	DataSize  uint32
	BssSize   uint32
	SymSize   uint32
	Reserved  uint32
	ProgFlags uint32
	AbsFlag   uint16

	// RelocSize is derived: whatever follows text, data and symbols.
	RelocSize int64
}

// ParseHeader validates the magic and segment lengths against the image size.
func ParseHeader(image []byte) (Header, error) {
	var h Header
	if len(image) < HeaderSize {
		return h, fmt.Errorf("image of %d bytes: %w", len(image), emuerrors.ErrFShortImage)
	}
	h.Magic = binary.BigEndian.Uint16(image[0:])
	if h.Magic != Magic {
		return h, fmt.Errorf("magic 0x%04X: %w", h.Magic, emuerrors.ErrFBadMagic)
	}
	h.TextSize = binary.BigEndian.Uint32(image[2:])
	h.DataSize = binary.BigEndian.Uint32(image[6:])
	h.BssSize = binary.BigEndian.Uint32(image[10:])
	h.SymSize = binary.BigEndian.Uint32(image[14:])
	h.Reserved = binary.BigEndian.Uint32(image[18:])
	h.ProgFlags = binary.BigEndian.Uint32(image[22:])
	h.AbsFlag = binary.BigEndian.Uint16(image[26:])

	segs := int64(HeaderSize) + int64(h.TextSize) + int64(h.DataSize)
	if segs > int64(len(image)) {
		return h, fmt.Errorf("text %d + data %d exceed image of %d bytes: %w",
			h.TextSize, h.DataSize, len(image), emuerrors.ErrFShortImage)
	}
	h.RelocSize = int64(len(image)) - (segs + int64(h.SymSize))
	if h.RelocSize < 0 {
		return h, fmt.Errorf("symbols %d past end of image: %w", h.SymSize, emuerrors.ErrFNegativeReloc)
	}
	return h, nil
}

// Text returns the text segment bytes of image.
func (h Header) Text(image []byte) []byte {
	return image[HeaderSize : HeaderSize+int64(h.TextSize)]
}

// Data returns the data segment bytes of image.
func (h Header) Data(image []byte) []byte {
	start := HeaderSize + int64(h.TextSize)
	return image[start : start+int64(h.DataSize)]
}

// Relocations returns the relocation table bytes of image.
func (h Header) Relocations(image []byte) []byte {
	start := HeaderSize + int64(h.TextSize) + int64(h.DataSize) + int64(h.SymSize)
	return image[start:]
}

// Relocatable reports whether the image carries a relocation table. The
// absolute flag is informational and does not suppress relocation.
func (h Header) Relocatable() bool {
	return h.RelocSize > 0
}
