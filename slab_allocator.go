package mori

import (
	"unsafe"

	"github.com/sirupsen/logrus"
)

// cellSize is the size, in bytes, of one slab cell.
const cellSize = 64

// slabMetadataSize is the size of a slab page's header: enough for the
// occupation map and the next-page link, padded out to a whole cell so the
// first allocatable cell starts cell-aligned.
const slabMetadataSize = cellSize

// slabPage is a 4 KiB block formatted for the slab allocator: bytes
// [0, 64) hold metadata (the occupation map and the next-page link), bytes
// [64, 4096) hold 63 sixty-four-byte cells. The struct's layout is load
// bearing — it must overlay exactly the raw memory a PageSource handed out.
type slabPage struct {
	occ occupationMap
	// next is read and written without synchronization: slab page-list
	// maintenance is single-threaded by contract (see SlabAllocator's doc
	// comment), unlike occ, which stays safe under concurrent release.
	next *slabPage
	_    [slabMetadataSize - 8 - 8]byte
	// cells occupies the remaining [64, 4096) of the page; it is never
	// accessed through this field directly (allocations return addresses
	// computed with pointer arithmetic), but it pins the struct size so
	// unsafe.Sizeof(slabPage{}) == blockSize.
	cells [maxCellsPerPage][cellSize]byte
}

func init() {
	if unsafe.Sizeof(slabPage{}) != blockSize {
		panic("mori: slabPage layout does not match one 4 KiB block")
	}
}

// formatSlabPage reinterprets a freshly obtained block as a slabPage,
// zeroing its metadata (occupation map and next-page link). Cell bytes are
// left untouched; they only become meaningful once claimed.
func formatSlabPage(blk Block4KPtr) *slabPage {
	p := (*slabPage)(blk.unsafePointer())
	p.occ.bits.Store(0)
	p.next = nil
	return p
}

// SlabAllocator chains 4 KiB slab pages obtained from a PageSource and
// services small, aligned allocations out of them via each page's
// occupation map.
//
// SlabAllocator is not safe for concurrent use: its page-list pointers
// (startPage, currentPage, tailPage) are read and written without
// synchronization, even though the occupation map each page embeds is
// itself atomic. Use one SlabAllocator per goroutine, or guard it with an
// external mutex; multiple SlabAllocators may safely share one
// RootAllocator or PageStorage as their PageSource.
type SlabAllocator struct {
	startPage   *slabPage
	currentPage *slabPage
	tailPage    *slabPage
	log         *logrus.Logger
}

// NewSlabAllocator returns an empty allocator with no pages yet. log may be
// nil.
func NewSlabAllocator(log *logrus.Logger) *SlabAllocator {
	return &SlabAllocator{log: log}
}

// CanAllocate reports whether size, plus alignment when alignment exceeds
// size, is at most MaxAllocSizeInBytes. It does not model where in a page an
// aligned span can start, so it is not exact: it can reject a request that a
// page could hold, and it can accept one that no page can place at its
// alignment (for example 2560 bytes aligned to 2048).
func (s *SlabAllocator) CanAllocate(size, alignment uintptr) bool {
	need := size
	if alignment > size {
		need += alignment
	}
	return need <= MaxAllocSizeInBytes
}

// Smalloc allocates size bytes aligned to alignment (a power of two),
// pulling fresh pages from src as needed. It returns ErrSlabWontFit if
// CanAllocate rejects the request, or ErrSlabNoMem if src is exhausted
// before a suitable span is found. A request that CanAllocate accepts but
// that no page can place at its alignment is not reported as ErrSlabWontFit:
// Smalloc keeps adding pages from src until src is exhausted and then
// returns ErrSlabNoMem.
func (s *SlabAllocator) Smalloc(size, alignment uintptr, src PageSource) (RawMemoryPtr, error) {
	if !s.CanAllocate(size, alignment) {
		return NullRawMemoryPtr(), ErrSlabWontFit
	}

	if s.startPage == nil {
		blk, ok := src.TryGetFreePage()
		if !ok {
			return NullRawMemoryPtr(), ErrSlabNoMem
		}
		p := formatSlabPage(blk)
		p.next = p
		s.startPage, s.currentPage, s.tailPage = p, p, p
	}

	blockSpan := int((size + cellSize - 1) / cellSize)
	if blockSpan < 1 {
		blockSpan = 1
	}

	search := s.currentPage
	lapStart := search
	for {
		if idx, ok := search.occ.tryFindSpan(blockSpan, uint(alignment)); ok {
			s.currentPage = search
			addr := uintptr(unsafe.Pointer(search)) + slabMetadataSize + uintptr(idx)*cellSize
			return newRawMemoryPtr(addr, blockSpan), nil
		}

		if search == s.tailPage {
			if blk, ok := src.TryGetFreePage(); ok {
				p := formatSlabPage(blk)
				p.next = s.startPage
				s.tailPage.next = p
				s.tailPage = p
				search = p
				lapStart = p
				continue
			}
		}

		next := search.next
		if next == lapStart {
			if s.log != nil {
				s.log.Debug("mori: slab allocator exhausted, no span found in any page")
			}
			return NullRawMemoryPtr(), ErrSlabNoMem
		}
		search = next
	}
}
