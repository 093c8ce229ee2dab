package host

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProc struct {
	delay   time.Duration
	code    int
	err     error
	panics  bool
	aborted atomic.Bool
	closed  atomic.Int32
}

func (f *fakeProc) Run(ctx context.Context) (int, error) {
	if f.panics {
		panic("boom")
	}
	select {
	case <-time.After(f.delay):
		return f.code, f.err
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

func (f *fakeProc) Abort() { f.aborted.Store(true) }

func (f *fakeProc) Close() error {
	f.closed.Add(1)
	return nil
}

func TestManagerRunsConcurrently(t *testing.T) {
	m := NewManager[int]()
	a := &fakeProc{delay: 50 * time.Millisecond, code: 1}
	b := &fakeProc{delay: 10 * time.Millisecond, code: 2}
	idA := m.Start(context.Background(), "a", a)
	idB := m.Start(context.Background(), "b", b)
	assert.NotEqual(t, idA, idB)
	assert.Len(t, m.List(), 2)

	outB, ok := m.Wait(idB)
	require.True(t, ok)
	assert.Equal(t, 2, outB.Result)
	assert.Equal(t, "b", outB.Label)

	all := m.WaitAll()
	require.Len(t, all, 2)
	assert.Equal(t, idA, all[0].ID)
	assert.Equal(t, 1, all[0].Result)
	assert.Zero(t, m.Count())
	assert.Equal(t, int32(1), a.closed.Load())
	assert.Equal(t, int32(1), b.closed.Load())

	again, ok := m.Wait(idA)
	require.True(t, ok, "finished processes stay queryable")
	assert.Equal(t, 1, again.Result)
}

func TestManagerAbort(t *testing.T) {
	m := NewManager[int]()
	p := &fakeProc{delay: time.Minute}
	id := m.Start(context.Background(), "slow", p)

	require.True(t, m.Abort(id))
	out, ok := m.Wait(id)
	require.True(t, ok)
	assert.True(t, p.aborted.Load())
	assert.True(t, errors.Is(out.Err, context.Canceled))
	assert.False(t, m.Abort(id), "already finished")
}

func TestManagerRecoversPanics(t *testing.T) {
	m := NewManager[int]()
	p := &fakeProc{panics: true}
	out, ok := m.Wait(m.Start(context.Background(), "bad", p))
	require.True(t, ok)
	assert.ErrorContains(t, out.Err, "panicked")
	assert.Equal(t, int32(1), p.closed.Load())
}

func TestManagerUnknownID(t *testing.T) {
	m := NewManager[int]()
	_, ok := m.Wait("nope")
	assert.False(t, ok)
	assert.False(t, m.Abort("nope"))
}
