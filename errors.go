package mori

import "errors"

// Errors returned by RootAllocator. WouldRetry means a refill is in
// progress on another goroutine and the caller should retry; NoMem means the
// underlying mmap for a fresh superpage failed.
var (
	ErrWouldRetry = errors.New("mori: refill in progress, retry")
	ErrNoMem      = errors.New("mori: out of memory")
)

// Errors returned by SlabAllocator.Smalloc. SlabNoMem means the page source
// could not supply another 4 KiB block; SlabWontFit means
// SlabAllocator.CanAllocate rejected the request.
var (
	ErrSlabNoMem   = errors.New("mori: page source exhausted")
	ErrSlabWontFit = errors.New("mori: allocation exceeds page capacity")
)
