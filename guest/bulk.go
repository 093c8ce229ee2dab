package guest

// Slice returns a view of n arena bytes at addr, or false when any part of
// the range lies outside RAM.
func (m *Memory) Slice(addr uint32, n uint32) ([]byte, bool) {
	a := m.Translate(addr)
	if inIO(a) || uint64(a)+uint64(n) > uint64(m.size) {
		return nil, false
	}
	return m.ram[a : a+n], true
}

// ReadBytes copies n bytes starting at addr. Bytes outside RAM read as zero.
func (m *Memory) ReadBytes(addr uint32, n uint32) []byte {
	out := make([]byte, n)
	if s, ok := m.Slice(addr, n); ok {
		copy(out, s)
		return out
	}
	for i := uint32(0); i < n; i++ {
		out[i] = m.Read8(addr + i)
	}
	return out
}

// WriteBytes stores data at addr and returns how many bytes landed in RAM.
func (m *Memory) WriteBytes(addr uint32, data []byte) int {
	if s, ok := m.Slice(addr, uint32(len(data))); ok {
		return copy(s, data)
	}
	written := 0
	for i, b := range data {
		a := m.Translate(addr + uint32(i))
		if a < m.size {
			written++
		}
		m.Write8(addr+uint32(i), b)
	}
	return written
}

// ReadCString reads a NUL terminated string of at most max bytes.
func (m *Memory) ReadCString(addr uint32, max int) string {
	buf := make([]byte, 0, 64)
	for i := 0; i < max; i++ {
		b := m.Read8(addr + uint32(i))
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf)
}

// WriteCString stores s followed by a NUL.
func (m *Memory) WriteCString(addr uint32, s string) {
	m.WriteBytes(addr, append([]byte(s), 0))
}

// Fill sets n bytes at addr to v.
func (m *Memory) Fill(addr uint32, n uint32, v uint8) {
	if s, ok := m.Slice(addr, n); ok {
		for i := range s {
			s[i] = v
		}
		return
	}
	for i := uint32(0); i < n; i++ {
		m.Write8(addr+i, v)
	}
}
