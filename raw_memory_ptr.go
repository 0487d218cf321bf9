package mori

import "unsafe"

// addrBits is the width of the address portion packed into a RawMemoryPtr.
// x86_64 Linux user-space addresses fit comfortably in 48 bits (the
// canonical address width of current hardware), leaving the high 16 bits
// free for the span count.
const addrBits = 48

const addrMask = (uint64(1) << addrBits) - 1

// RawMemoryPtr is a tagged pointer: the low 48 bits are a user-space
// address, the high 16 bits are the number of 64-byte cells the allocation
// occupies (in [1, 63]). The zero value is the null pointer. Packing the
// span alongside the address is what lets ReleaseMemory find the owning
// slab page and clear exactly the right bits without any side table.
type RawMemoryPtr uint64

// NullRawMemoryPtr returns the null RawMemoryPtr. IsNull reports true for it
// and for no other value.
func NullRawMemoryPtr() RawMemoryPtr { return RawMemoryPtr(0) }

func newRawMemoryPtr(addr uintptr, span int) RawMemoryPtr {
	if addr == 0 {
		panic("mori: nil address")
	}
	if uint64(addr)&^addrMask != 0 {
		panic("mori: address does not fit in 48 bits")
	}
	if span < 1 || span > maxCellsPerPage {
		panic("mori: span out of range [1, 63]")
	}
	return RawMemoryPtr((uint64(addr) & addrMask) | (uint64(span) << addrBits))
}

// unpack splits a RawMemoryPtr back into its address and span.
func (p RawMemoryPtr) unpack() (addr uintptr, span int) {
	return uintptr(uint64(p) & addrMask), int(uint64(p) >> addrBits)
}

// IsNull reports whether p is the null RawMemoryPtr.
func (p RawMemoryPtr) IsNull() bool { return p == 0 }

// GetPtr returns the raw address p refers to as an unsafe.Pointer. Calling
// this on a null RawMemoryPtr returns nil.
func (p RawMemoryPtr) GetPtr() unsafe.Pointer {
	addr, _ := p.unpack()
	return unsafe.Pointer(addr)
}

// ReleaseMemory returns p's cells to its owning slab page's occupation map.
// It consumes p: using it again afterward is a use-after-free, exactly like
// dereferencing freed memory. The owning SlabAllocator is never notified —
// the page stays on its list, available for future allocations, for as long
// as the SlabAllocator itself lives.
func (p RawMemoryPtr) ReleaseMemory() {
	if p.IsNull() {
		panic("mori: release of a null RawMemoryPtr")
	}
	addr, span := p.unpack()
	pageBase := addr &^ (blockSize - 1)
	index := int((addr-pageBase)>>6) - 1
	page := (*slabPage)(unsafe.Pointer(pageBase))
	page.occ.releaseSpan(span, index)
}
