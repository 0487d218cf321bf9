//go:build linux && amd64

// Package mmap isolates the one genuinely platform-specific concern of the
// allocator: obtaining 2 MiB-aligned anonymous memory from the kernel and
// releasing 4 KiB pieces of it back. Linux has no direct equivalent of
// posix_memalign for anonymous mmap, so ReserveSuperpage over-maps by one
// extra superpage's worth of slack and trims it down, the same trick used
// throughout the corpus's mmap-based allocators (e.g. sneller's vm-malloc.go
// reserving a fixed arena up front and a VM allocator never giving memory
// back incrementally).
package mmap

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// SuperpageSize is the size and required alignment of a root allocator
// reservation.
const SuperpageSize = 2 << 20

// PageSize is the size of one block handed out of a superpage.
const PageSize = 4096

// ReserveSuperpage maps a SuperpageSize-aligned, SuperpageSize-length
// anonymous region and returns its base address. The over-mapped slack on
// either side of the aligned region is unmapped before returning.
func ReserveSuperpage() (uintptr, error) {
	raw, err := unix.Mmap(-1, 0, 2*SuperpageSize,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return 0, fmt.Errorf("mmap: reserve superpage: %w", err)
	}

	base := uintptr(unsafe.Pointer(&raw[0]))
	aligned := (base + SuperpageSize - 1) &^ (SuperpageSize - 1)
	headSlack := aligned - base
	tailSlack := uintptr(len(raw)) - headSlack - SuperpageSize

	if headSlack > 0 {
		if err := unix.MunmapPtr(unsafe.Pointer(&raw[0]), headSlack); err != nil {
			return 0, fmt.Errorf("mmap: trim head slack: %w", err)
		}
	}
	if tailSlack > 0 {
		if err := unix.MunmapPtr(unsafe.Pointer(&raw[headSlack+SuperpageSize]), tailSlack); err != nil {
			return 0, fmt.Errorf("mmap: trim tail slack: %w", err)
		}
	}
	return aligned, nil
}

// ReleaseBlock unmaps a single PageSize block previously carved out of a
// superpage reservation, used by RootAllocator.Destroy to give back the
// unhanded-out tail of the current superpage.
func ReleaseBlock(addr uintptr) error {
	if err := unix.MunmapPtr(unsafe.Pointer(addr), PageSize); err != nil {
		return fmt.Errorf("mmap: release block: %w", err)
	}
	return nil
}
