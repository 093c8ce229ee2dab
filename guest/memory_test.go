package guest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMem(t *testing.T) *Memory {
	t.Helper()
	m, err := New(DefaultSize)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestBigEndianRoundTrip(t *testing.T) {
	m := newMem(t)
	m.Write32(0x1000, 0x12345678)
	assert.Equal(t, uint32(0x12345678), m.Read32(0x1000))
	assert.Equal(t, uint16(0x1234), m.Read16(0x1000))
	assert.Equal(t, uint8(0x78), m.Read8(0x1003))
	m.Write16(0x2000, 0xBEEF)
	assert.Equal(t, uint8(0xBE), m.Read8(0x2000))
}

func TestOutOfRange(t *testing.T) {
	m := newMem(t)
	before := append([]byte(nil), m.Bytes()...)

	for _, addr := range []uint32{DefaultSize, DefaultSize + 2, 0x00800000} {
		assert.Equal(t, uint8(0), m.Read8(addr))
		assert.Equal(t, uint16(0), m.Read16(addr))
		assert.Equal(t, uint32(0), m.Read32(addr))
		m.Write8(addr, 0xAA)
		m.Write16(addr, 0xAAAA)
		m.Write32(addr, 0xAAAAAAAA)
	}
	// a long straddling the end of the arena
	m.Write32(DefaultSize-2, 0xFFFFFFFF)
	assert.Equal(t, uint32(0), m.Read32(DefaultSize-2))

	assert.Equal(t, before, m.Bytes())
	assert.NotZero(t, m.Violations())
}

func TestOddAddress(t *testing.T) {
	m := newMem(t)
	m.Write32(0x100, 0x01020304)
	assert.Equal(t, uint16(0), m.Read16(0x101))
	assert.Equal(t, uint32(0), m.Read32(0x101))
	m.Write16(0x101, 0xFFFF)
	m.Write32(0x101, 0xFFFFFFFF)
	assert.Equal(t, uint32(0x01020304), m.Read32(0x100))
	assert.Equal(t, uint8(0x02), m.Read8(0x101))
	assert.Equal(t, uint64(4), m.Violations())
}

func TestMirrorAndIOWindow(t *testing.T) {
	m := newMem(t)
	m.Write8(0x10, 0x5A)
	assert.Equal(t, uint8(0x5A), m.Read8(0xFF000010))
	// 24-bit bus ignores the top byte
	assert.Equal(t, uint8(0x5A), m.Read8(0x12000010))

	assert.Equal(t, uint8(0x40), m.Read8(0xFFFFFA09))
	assert.Equal(t, uint8(0x40), m.Read8(RegMFPIERB))
	assert.Equal(t, uint8(0x03), m.Read8(0xFFFFFC00))
	assert.Equal(t, uint8(0), m.Read8(0xFFFFFC02))
	assert.Equal(t, uint8(0), m.Read8(0xFFFF8000))

	// read-only registers ignore writes, storage registers keep them
	m.Write8(RegMFPIERB, 0)
	assert.Equal(t, uint8(0x40), m.Read8(RegMFPIERB))
	m.Write8(RegVideoBaseHi, 0x0F)
	assert.Equal(t, uint8(0x0F), m.Read8(RegVideoBaseHi))
}

func TestAddressBits32(t *testing.T) {
	m, err := New(DefaultSize, WithAddressBits(32))
	require.NoError(t, err)
	defer m.Close()
	m.Write8(0x10, 1)
	assert.Equal(t, uint8(0), m.Read8(0x12000010))
	assert.Equal(t, uint8(1), m.Read8(0xFF000010))
}

func TestBulkHelpers(t *testing.T) {
	m := newMem(t)
	m.WriteCString(0x400, "HELLO.PRG")
	assert.Equal(t, "HELLO.PRG", m.ReadCString(0x400, 128))
	assert.Equal(t, "HEL", m.ReadCString(0x400, 3))

	n := m.WriteBytes(DefaultSize-2, []byte{1, 2, 3, 4})
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{1, 2, 0, 0}, m.ReadBytes(DefaultSize-2, 4))

	m.Fill(0x800, 16, 0xEE)
	assert.Equal(t, uint32(0xEEEEEEEE), m.Read32(0x80C))
	_, ok := m.Slice(DefaultSize-1, 2)
	assert.False(t, ok)
}

func TestNewRejectsBadSizes(t *testing.T) {
	_, err := New(15)
	require.Error(t, err)
	_, err = New(IOBase + Alignment)
	require.Error(t, err)
}

func TestClose(t *testing.T) {
	m, err := New(DefaultSize)
	require.NoError(t, err)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Equal(t, uint8(0), m.Read8(0))
	m.Write8(0, 1)
}
