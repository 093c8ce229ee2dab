package heap

import (
	"errors"
	"testing"

	"github.com/alirzasahb/PumpkinOS/emuerrors"
)

func TestNewAlignsRegion(t *testing.T) {
	a := New(0x1004, 0x100)
	if a.Base() != 0x1010 {
		t.Errorf("base = %#x, want 0x1010", a.Base())
	}
	if a.Size() != 0xF0 {
		t.Errorf("size = %#x, want 0xf0", a.Size())
	}
	if a.Len() != 0 {
		t.Errorf("new allocator has %d blocks", a.Len())
	}
}

func TestAllocFree(t *testing.T) {
	a := New(0x1000, 0x1000)

	p1, err := a.Alloc(10)
	if err != nil || p1 != 0x1000 {
		t.Fatalf("alloc = %#x, %v", p1, err)
	}
	p2, err := a.Alloc(32)
	if err != nil || p2 != 0x1010 {
		t.Fatalf("alloc = %#x, %v", p2, err)
	}
	if n, _ := a.SizeOf(p1); n != Granule {
		t.Errorf("block size = %d, want %d", n, Granule)
	}
	if err := a.Free(p1); err != nil {
		t.Fatal(err)
	}
	// first fit reuses the hole
	p3, _ := a.Alloc(16)
	if p3 != p1 {
		t.Errorf("alloc = %#x, want %#x", p3, p1)
	}
	if err := a.Free(0x1008); !errors.Is(err, emuerrors.ErrMemory) {
		t.Errorf("free of interior address: %v", err)
	}
}

func TestCoalesce(t *testing.T) {
	a := New(0, 0x100)
	var blocks []uint32
	for i := 0; i < 4; i++ {
		p, err := a.Alloc(0x40)
		if err != nil {
			t.Fatal(err)
		}
		blocks = append(blocks, p)
	}
	if a.Largest() != 0 {
		t.Errorf("largest = %d, want 0", a.Largest())
	}
	a.Free(blocks[1])
	a.Free(blocks[3])
	a.Free(blocks[2])
	if a.Largest() != 0xC0 {
		t.Errorf("largest = %#x, want 0xc0", a.Largest())
	}
	a.Free(blocks[0])
	if a.Largest() != 0x100 || a.Available() != 0x100 {
		t.Errorf("heap not fully merged: largest %#x available %#x", a.Largest(), a.Available())
	}
}

func TestShrink(t *testing.T) {
	a := New(0, 0x100)
	p, _ := a.Alloc(0x80)
	if err := a.Shrink(p, 0x20); err != nil {
		t.Fatal(err)
	}
	if a.Available() != 0xE0 {
		t.Errorf("available = %#x, want 0xe0", a.Available())
	}
	if err := a.Shrink(p, 0x40); err == nil {
		t.Errorf("growing a block must fail")
	}
	if err := a.Shrink(p, 0); err != nil {
		t.Fatal(err)
	}
	if a.Len() != 0 {
		t.Errorf("shrink to zero should free the block")
	}
}

func TestExhausted(t *testing.T) {
	a := New(0, 0x40)
	if _, err := a.Alloc(0x41); !errors.Is(err, emuerrors.ErrMHeapExhausted) {
		t.Errorf("expected exhaustion, got %v", err)
	}
	if _, err := a.Alloc(0); err == nil {
		t.Errorf("zero sized alloc must fail")
	}
	a.Alloc(0x40)
	a.Reset()
	if a.Available() != 0x40 {
		t.Errorf("reset did not release blocks")
	}
}
