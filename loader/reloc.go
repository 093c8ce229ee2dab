package loader

import (
	"encoding/binary"
	"fmt"

	"github.com/alirzasahb/PumpkinOS/emuerrors"
	"github.com/alirzasahb/PumpkinOS/guest"
	"github.com/alirzasahb/PumpkinOS/log"
)

// Relocation stream markers.
const (
	relocEnd  = 0
	relocSkip = 1 // advance 254 bytes, no fixup
	skipBytes = 254
)

// Relocate applies table to the program loaded at textStart. Each fixup adds
// textStart to the long at textStart+offset. Fixups must land inside the
// first limit bytes (text plus data). A zero first offset means there is
// nothing to fix, whatever follows it. It returns the number of fixups.
func Relocate(mem *guest.Memory, table []byte, textStart, limit uint32) (int, error) {
	if len(table) == 0 {
		return 0, nil
	}
	if len(table) < 4 {
		return 0, fmt.Errorf("relocation table of %d bytes: %w", len(table), emuerrors.ErrFShortImage)
	}
	offset := binary.BigEndian.Uint32(table)
	if offset == 0 {
		return 0, nil
	}

	fixups := 0
	fix := func() error {
		if uint64(offset)+4 > uint64(limit) {
			return fmt.Errorf("fixup at offset 0x%X beyond 0x%X: %w", offset, limit, emuerrors.ErrFRelocOutOfText)
		}
		addr := textStart + offset
		v := mem.Read32(addr)
		log.Trace(log.LoaderMonitoring, "reloc", "offset", fmt.Sprintf("0x%08X", offset),
			"value", fmt.Sprintf("0x%08X", v), "new", fmt.Sprintf("0x%08X", v+textStart))
		mem.Write32(addr, v+textStart)
		fixups++
		return nil
	}

	if err := fix(); err != nil {
		return fixups, err
	}
	for _, delta := range table[4:] {
		switch delta {
		case relocEnd:
			return fixups, nil
		case relocSkip:
			offset += skipBytes
			continue
		}
		offset += uint32(delta)
		if err := fix(); err != nil {
			return fixups, err
		}
	}
	return fixups, nil
}
