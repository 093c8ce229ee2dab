// Package heap manages the guest heap region between the end of bss and the
// stack. It hands out guest addresses only; the bytes live in guest memory.
package heap

import (
	"fmt"
	"sort"
	"sync"

	"github.com/alirzasahb/PumpkinOS/emuerrors"
)

// Granule is the allocation unit. Every block starts and ends on a granule.
const Granule = 16

type span struct {
	addr uint32
	size uint32
}

// Allocator is a first-fit allocator over [Base, Base+Size). Free spans are
// kept sorted by address and coalesced on release.
type Allocator struct {
	mu    sync.Mutex
	base  uint32
	size  uint32
	free  []span
	inUse map[uint32]uint32
}

// New creates an allocator for the region starting at base. base is rounded
// up and size rounded down to Granule.
func New(base, size uint32) *Allocator {
	start := roundUp(base)
	if start-base > size {
		size = 0
	} else {
		size -= start - base
	}
	size &^= Granule - 1
	a := &Allocator{base: start, size: size}
	a.Reset()
	return a
}

func roundUp(n uint32) uint32 {
	return (n + Granule - 1) &^ (Granule - 1)
}

// Base returns the first address of the managed region.
func (a *Allocator) Base() uint32 { return a.base }

// Size returns the managed region length.
func (a *Allocator) Size() uint32 { return a.size }

// Reset returns every block to the free list.
func (a *Allocator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.free = a.free[:0]
	if a.size > 0 {
		a.free = append(a.free, span{a.base, a.size})
	}
	a.inUse = make(map[uint32]uint32)
}

// Alloc reserves n bytes and returns the block address.
func (a *Allocator) Alloc(n uint32) (uint32, error) {
	if n == 0 {
		return 0, fmt.Errorf("alloc 0 bytes: %w", emuerrors.ErrMHeapExhausted)
	}
	need := roundUp(n)
	if need < n {
		return 0, fmt.Errorf("alloc %d bytes: %w", n, emuerrors.ErrMHeapExhausted)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, s := range a.free {
		if s.size < need {
			continue
		}
		addr := s.addr
		if s.size == need {
			a.free = append(a.free[:i], a.free[i+1:]...)
		} else {
			a.free[i] = span{s.addr + need, s.size - need}
		}
		a.inUse[addr] = need
		return addr, nil
	}
	return 0, fmt.Errorf("alloc %d bytes: %w", n, emuerrors.ErrMHeapExhausted)
}

// Free releases the block starting at addr.
func (a *Allocator) Free(addr uint32) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	size, ok := a.inUse[addr]
	if !ok {
		return fmt.Errorf("free 0x%08X: %w", addr, emuerrors.ErrMBadBlock)
	}
	delete(a.inUse, addr)
	a.release(span{addr, size})
	return nil
}

// Shrink reduces the block at addr to newSize bytes. Growing is not supported.
func (a *Allocator) Shrink(addr uint32, newSize uint32) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	size, ok := a.inUse[addr]
	if !ok {
		return fmt.Errorf("shrink 0x%08X: %w", addr, emuerrors.ErrMBadBlock)
	}
	if newSize == 0 {
		delete(a.inUse, addr)
		a.release(span{addr, size})
		return nil
	}
	keep := roundUp(newSize)
	if keep > size {
		return fmt.Errorf("shrink 0x%08X to %d grows the block: %w", addr, newSize, emuerrors.ErrMHeapExhausted)
	}
	if keep == size {
		return nil
	}
	a.inUse[addr] = keep
	a.release(span{addr + keep, size - keep})
	return nil
}

// release inserts s into the free list and merges it with its neighbours.
// Caller holds mu.
func (a *Allocator) release(s span) {
	i := sort.Search(len(a.free), func(i int) bool { return a.free[i].addr > s.addr })
	a.free = append(a.free, span{})
	copy(a.free[i+1:], a.free[i:])
	a.free[i] = s
	if i+1 < len(a.free) && a.free[i].addr+a.free[i].size == a.free[i+1].addr {
		a.free[i].size += a.free[i+1].size
		a.free = append(a.free[:i+1], a.free[i+2:]...)
	}
	if i > 0 && a.free[i-1].addr+a.free[i-1].size == a.free[i].addr {
		a.free[i-1].size += a.free[i].size
		a.free = append(a.free[:i], a.free[i+1:]...)
	}
}

// Largest returns the size of the biggest free span.
func (a *Allocator) Largest() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	var max uint32
	for _, s := range a.free {
		if s.size > max {
			max = s.size
		}
	}
	return max
}

// Available returns the total free bytes.
func (a *Allocator) Available() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	var total uint32
	for _, s := range a.free {
		total += s.size
	}
	return total
}

// SizeOf returns the size of the allocated block at addr.
func (a *Allocator) SizeOf(addr uint32) (uint32, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n, ok := a.inUse[addr]
	return n, ok
}

// Blocks returns the addresses of all live blocks in ascending order.
func (a *Allocator) Blocks() []uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]uint32, 0, len(a.inUse))
	for addr := range a.inUse {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of live blocks.
func (a *Allocator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.inUse)
}
