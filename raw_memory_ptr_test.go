//go:build linux && amd64

package mori

import (
	"testing"
	"unsafe"
)

func TestRawMemoryPtrNullIsNull(t *testing.T) {
	p := NullRawMemoryPtr()
	if !p.IsNull() {
		t.Fatalf("expected the null pointer to report IsNull")
	}
	if p.GetPtr() != nil {
		t.Fatalf("expected GetPtr of the null pointer to be nil")
	}
}

func TestRawMemoryPtrPackUnpackRoundTrip(t *testing.T) {
	addr := uintptr(0x7f0000001000)
	p := newRawMemoryPtr(addr, 3)
	if p.IsNull() {
		t.Fatalf("a freshly packed pointer must not be null")
	}
	gotAddr, gotSpan := p.unpack()
	if gotAddr != addr {
		t.Fatalf("expected addr %#x, got %#x", addr, gotAddr)
	}
	if gotSpan != 3 {
		t.Fatalf("expected span 3, got %d", gotSpan)
	}
}

func TestRawMemoryPtrPanicsOnBadInput(t *testing.T) {
	cases := []struct {
		name string
		addr uintptr
		span int
	}{
		{"nil address", 0, 1},
		{"span too small", 0x1000, 0},
		{"span too large", 0x1000, maxCellsPerPage + 1},
		{"address exceeds 48 bits", uint64ToAddr(uint64(1) << 48), 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatalf("expected a panic")
				}
			}()
			newRawMemoryPtr(c.addr, c.span)
		})
	}
}

func uint64ToAddr(v uint64) uintptr { return uintptr(v) }

func TestRawMemoryPtrReleaseRoundTripsThroughSlabAllocator(t *testing.T) {
	s := NewSlabAllocator(nil)
	r := NewRootAllocator(nil)
	defer r.Destroy()

	p, err := s.Smalloc(32, 1, r)
	if err != nil {
		t.Fatalf("Smalloc failed: %v", err)
	}
	addr, span := p.unpack()
	if addr == 0 {
		t.Fatalf("expected a non-zero address")
	}
	if span < 1 {
		t.Fatalf("expected a positive span, got %d", span)
	}

	pageBase := addr &^ (blockSize - 1)
	page := (*slabPage)(unsafe.Pointer(pageBase))

	idx := int((addr-pageBase)>>6) - 1
	if page.occ.bits.Load()&(uint64(1)<<uint(idx)) == 0 {
		t.Fatalf("expected cell %d to be marked occupied before release", idx)
	}

	p.ReleaseMemory()

	if page.occ.bits.Load()&(uint64(1)<<uint(idx)) != 0 {
		t.Fatalf("expected cell %d to be cleared after release", idx)
	}
}
