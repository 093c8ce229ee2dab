package api

import (
	"errors"
	"testing"

	"github.com/alirzasahb/PumpkinOS/trap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	vector   uint32
	selector uint16
	args     []trap.Arg
}

type fakeInvoker struct {
	calls []call
	d0    uint32
	err   error
}

func (f *fakeInvoker) Invoke(vector uint32, selector uint16, args ...trap.Arg) (uint32, error) {
	f.calls = append(f.calls, call{vector, selector, args})
	return f.d0, f.err
}

func TestGeneratedShims(t *testing.T) {
	inv := &fakeInvoker{d0: 0xFFFFFFDF}
	h, err := Fopen(inv, `C:\X.TXT`, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(-33), h)
	require.Len(t, inv.calls, 1)
	assert.Equal(t, call{VecGEMDOS, 61, []trap.Arg{trap.Str(`C:\X.TXT`), trap.W(2)}}, inv.calls[0])

	inv.d0 = 0x78000
	addr, err := Physbase(inv)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x78000), addr)
	assert.Equal(t, uint32(VecXBIOS), inv.calls[1].vector)

	inv.err = errors.New("boom")
	assert.Error(t, Pterm0(inv))
}

func TestShimTable(t *testing.T) {
	s, ok := Lookup("Fseek")
	require.True(t, ok)
	assert.Equal(t, uint16(66), s.Selector)
	assert.Equal(t, []string{"long", "word", "word"}, s.Args)
	_, ok = Lookup("Nope")
	assert.False(t, ok)

	seen := map[string]bool{}
	for _, s := range Shims {
		assert.False(t, seen[s.Name], s.Name)
		seen[s.Name] = true
		_, ok := Vector(s.Module)
		assert.True(t, ok, s.Module)
	}
}

func TestPackAndCall(t *testing.T) {
	s, _ := Lookup("Fsfirst")
	args, err := s.Pack([]interface{}{"*.*", int64(0x10)})
	require.NoError(t, err)
	assert.Equal(t, []trap.Arg{trap.Str("*.*"), trap.W(0x10)}, args)

	_, err = s.Pack([]interface{}{"*.*"})
	assert.Error(t, err)
	_, err = s.Pack([]interface{}{1, 2})
	assert.Error(t, err)
	_, err = s.Pack([]interface{}{"x", "y"})
	assert.Error(t, err)

	inv := &fakeInvoker{d0: 0xFFFFFFFF}
	v, err := s.Call(inv, "*.*", 0.0)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), v)

	m, _ := Lookup("Malloc")
	v, err = m.Call(inv, float64(-1))
	require.NoError(t, err)
	assert.Equal(t, int64(0xFFFFFFFF), v)
	assert.Equal(t, trap.L(0xFFFFFFFF), inv.calls[1].args[0])
}
