package mori

import "unsafe"

// blockSize is the size, in bytes, of one handed-out block: one OS page on
// x86_64 Linux.
const blockSize = 4096

// superpageSize is the size, in bytes, of one reservation the root allocator
// makes from the OS; it is carved into 512 blockSize blocks.
const superpageSize = 2 << 20

// blocksPerSuperpage is the fixed fan-out of a superpage.
const blocksPerSuperpage = superpageSize / blockSize

// Block4KPtr is an opaque handle to a 4 KiB-aligned block of memory. It is
// produced only by a PageSource and is meant to be consumed exactly once,
// either by formatting it as a slab page or by returning it to a
// PageStorage. There is no API to duplicate one: copying the value copies
// the pointer, but only one copy should ever be used to access memory or
// transfer ownership onward.
type Block4KPtr struct {
	ptr unsafe.Pointer
}

// newBlock4KPtr wraps ptr, which must already be known to be blockSize
// aligned and non-nil; it panics otherwise, matching the source's
// debug-only alignment assertion.
func newBlock4KPtr(ptr unsafe.Pointer) Block4KPtr {
	if ptr == nil {
		panic("mori: nil block pointer")
	}
	if uintptr(ptr)&(blockSize-1) != 0 {
		panic("mori: block pointer is not 4 KiB aligned")
	}
	return Block4KPtr{ptr: ptr}
}

// Addr returns the underlying address as a uintptr, for callers that need to
// reason about it (e.g. to compute an owning page from a RawMemoryPtr).
func (b Block4KPtr) Addr() uintptr { return uintptr(b.ptr) }

// unsafePointer returns the underlying pointer for in-package reinterpretation
// (formatting a block as a slabPage or a freePageNode). Kept as a single
// accessor so every raw-pointer reinterpretation in the package starts from
// the same place.
func (b Block4KPtr) unsafePointer() unsafe.Pointer { return b.ptr }

// PageSource is the capability for obtaining a fresh 4 KiB block. It is
// implemented by both RootAllocator and PageStorage, and is the type a
// SlabAllocator is parameterized over: a slab allocator doesn't care whether
// its backing blocks come fresh from the OS or are recycled from a cache.
//
// TryGetFreePage is non-blocking: it returns (Block4KPtr{}, false) on
// exhaustion rather than blocking or retrying.
type PageSource interface {
	TryGetFreePage() (Block4KPtr, bool)
}
