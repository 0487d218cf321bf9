package mori

import (
	"sync/atomic"

	"github.com/lovely-error/mori/internal/bitops"
)

// occupationMap is a 64-bit atomic bitmap tracking which of a slab page's 63
// cells are occupied. Bit i set means cell i is allocated. Bit 63 is never a
// real cell: the searches treat it as occupied (the single-cell search stops
// once the first zero bit is at index 63 or above), so no span reaches it.
type occupationMap struct {
	bits atomic.Uint64
}

// maxCellsPerPage is the number of 64-byte cells addressable within one slab
// page's occupation map (bit 63 is reserved as the search sentinel).
const maxCellsPerPage = 63

// tryFindSpan looks for a free, aligned run of cellCount consecutive cells
// and atomically claims it. alignment is expressed in bytes and must be a
// power of two; cells are already 64-byte aligned, so only the portion of
// alignment beyond 64 bytes constrains the candidate start index.
//
// Returns the starting cell index and true on success, or (0, false) if no
// such run exists in the current snapshot of the map.
//
// Two concurrent callers may both observe the same free run and both
// "succeed" in claiming it: the fetch-or below does not verify the target
// bits were still zero. This is safe only because SlabAllocator restricts a given occupationMap to
// single-threaded access; see the SlabAllocator doc comment.
func (m *occupationMap) tryFindSpan(cellCount int, alignment uint) (int, bool) {
	if cellCount < 1 || cellCount > maxCellsPerPage {
		panic("mori: cellCount out of range [1, 63]")
	}
	if alignment == 0 || alignment&(alignment-1) != 0 {
		panic("mori: alignment must be a power of two")
	}

	var propAlign uint
	if alignment > 64 {
		propAlign = (alignment >> 6) - 1
	}

	if cellCount == 1 {
		local := m.bits.Load()
		for {
			k := bitops.TrailingOnes(local)
			if k >= maxCellsPerPage {
				return 0, false
			}
			if uint(k)&propAlign == propAlign {
				atomicFetchOr(&m.bits, uint64(1)<<uint(k))
				return k, true
			}
			local |= uint64(1) << uint(k)
		}
	}

	snapshot := m.bits.Load()
	span := (uint64(1) << uint(cellCount)) - 1

	if propAlign == 0 {
		// No extra alignment beyond the intrinsic 64-byte cell boundary: any
		// free run will do, so this is exactly bitops.FindBitRange64's job.
		// Bit 63 is forced busy before the search so a run can never be
		// reported past it, the same tail-masking spec.md describes for the
		// windowed multi-cell scan.
		k := bitops.FindBitRange64(snapshot|(uint64(1)<<63), uint(cellCount))
		if k >= 64 {
			return 0, false
		}
		atomicFetchOr(&m.bits, span<<k)
		return int(k), true
	}

	last := maxCellsPerPage - cellCount
	for k := 0; k <= last; k++ {
		if uint(k)&propAlign != propAlign {
			continue
		}
		if (span<<uint(k))&snapshot == 0 {
			atomicFetchOr(&m.bits, span<<uint(k))
			return k, true
		}
	}
	return 0, false
}

// releaseSpan clears the cellCount bits starting at startCell, returning
// those cells to the free pool.
func (m *occupationMap) releaseSpan(cellCount int, startCell int) {
	span := (uint64(1) << uint(cellCount)) - 1
	atomicFetchAnd(&m.bits, ^(span << uint(startCell)))
}
