//go:build !unix

package guest

import "unsafe"

func allocArena(size int) ([]byte, func() error, error) {
	buf := make([]byte, size+Alignment)
	off := 0
	if r := int(uintptr(unsafe.Pointer(&buf[0])) % Alignment); r != 0 {
		off = Alignment - r
	}
	return buf[off : off+size : off+size], nil, nil
}
