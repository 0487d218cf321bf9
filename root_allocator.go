//go:build linux && amd64

package mori

import (
	"errors"
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/sirupsen/logrus"

	"github.com/lovely-error/mori/internal/mmap"
)

// notYetRefilled is the initial encoding of RootAllocator.index: cursor ==
// blocksPerSuperpage, lock bit clear. It forces the very first caller onto
// the refill path since no superpage has been reserved yet.
const notYetRefilled = uint64(blocksPerSuperpage) << 1

// RootAllocator reserves 2 MiB superpages from the OS and hands out their
// 512 constituent 4 KiB blocks one at a time. It is fully thread-safe: the
// fast path is a single atomic fetch-add, and superpage refills are
// serialized by a lock bit packed into the same word as the cursor so there
// is never a second atomic variable to keep in sync with the first.
//
// A RootAllocator is also a PageSource, so it can back a SlabAllocator
// directly, or feed a PageStorage that recycles blocks released elsewhere.
type RootAllocator struct {
	// index packs (cursor << 1) | lockBit into one word. cursor counts how
	// many blocks of the current superpage have been handed out; the low
	// bit is held by whichever goroutine is in the middle of a refill.
	index     atomic.Uint64
	superPage atomic.Pointer[byte]
	log       *logrus.Logger
}

// NewRootAllocator constructs an allocator with no superpage reserved yet;
// the first TryGetPageFastBailout call triggers the initial refill. log may
// be nil, in which case refill/exhaustion events are not reported anywhere.
func NewRootAllocator(log *logrus.Logger) *RootAllocator {
	r := &RootAllocator{log: log}
	r.index.Store(notYetRefilled)
	return r
}

// TryGetPageFastBailout attempts the non-blocking fast path: speculatively
// claim the next block index, or participate in a refill if the current
// superpage is exhausted. It returns ErrWouldRetry if another goroutine
// currently holds the refill lock, and ErrNoMem only if the underlying
// mmap for a fresh superpage failed.
func (r *RootAllocator) TryGetPageFastBailout() (Block4KPtr, error) {
	old := r.index.Add(2) - 2
	if old&1 == 1 {
		return Block4KPtr{}, ErrWouldRetry
	}

	i := old >> 1
	if i < blocksPerSuperpage {
		return r.blockAt(i), nil
	}

	prev := atomicFetchOr(&r.index, 1)
	if prev&1 == 1 {
		return Block4KPtr{}, ErrWouldRetry
	}

	addr, err := mmap.ReserveSuperpage()
	if err != nil {
		atomicFetchAnd(&r.index, ^uint64(1))
		if r.log != nil {
			r.log.WithError(err).Warn("mori: superpage reservation failed")
		}
		return Block4KPtr{}, ErrNoMem
	}

	r.superPage.Store((*byte)(unsafe.Pointer(addr)))
	// This single store simultaneously clears the lock bit and sets the
	// cursor to 1: block 0 goes to this goroutine via the explicit
	// blockAt(0) below rather than another round of index manipulation.
	r.index.Store(uint64(1) << 1)
	if r.log != nil {
		r.log.WithField("base", addr).Debug("mori: reserved new superpage")
	}
	return r.blockAt(0), nil
}

// TryGetPageWaitTolerable loops over TryGetPageFastBailout, busy-waiting
// through ErrWouldRetry, and only returns an error for ErrNoMem.
func (r *RootAllocator) TryGetPageWaitTolerable() (Block4KPtr, error) {
	for {
		b, err := r.TryGetPageFastBailout()
		if err == nil {
			return b, nil
		}
		if errors.Is(err, ErrWouldRetry) {
			runtime.Gosched()
			continue
		}
		return Block4KPtr{}, err
	}
}

// TryGetFreePage implements PageSource: it absorbs ErrWouldRetry internally
// via TryGetPageWaitTolerable and only reports failure when memory is
// genuinely exhausted.
func (r *RootAllocator) TryGetFreePage() (Block4KPtr, bool) {
	b, err := r.TryGetPageWaitTolerable()
	if err != nil {
		return Block4KPtr{}, false
	}
	return b, true
}

// Destroy releases the unhanded-out tail of the current superpage back to
// the OS. Blocks already handed out are the caller's responsibility; using
// them after Destroy is undefined behavior, exactly as using a Block4KPtr
// or RawMemoryPtr after the page it came from has been unmapped.
func (r *RootAllocator) Destroy() error {
	idx := r.index.Load()
	cursor := idx >> 1
	if cursor >= blocksPerSuperpage {
		return nil
	}
	base := r.superPage.Load()
	if base == nil {
		return nil
	}

	var firstErr error
	for i := cursor; i < blocksPerSuperpage; i++ {
		addr := uintptr(unsafe.Pointer(base)) + i*blockSize
		if err := mmap.ReleaseBlock(addr); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if r.log != nil {
		r.log.WithField("blocks_released", blocksPerSuperpage-cursor).Debug("mori: destroyed root allocator")
	}
	return firstErr
}

func (r *RootAllocator) blockAt(i uint64) Block4KPtr {
	base := r.superPage.Load()
	addr := unsafe.Pointer(uintptr(unsafe.Pointer(base)) + uintptr(i)*blockSize)
	return newBlock4KPtr(addr)
}

var _ PageSource = (*RootAllocator)(nil)
