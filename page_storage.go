//go:build linux && amd64

package mori

import (
	"unsafe"

	"github.com/lovely-error/mori/internal/mmap"
)

// freePageNode overlays a recycled 4 KiB block: its first machine word is
// the link to the next free block in the list.
type freePageNode struct {
	next *freePageNode
}

// PageStorage is a singly-linked free list of 4 KiB blocks available for
// reuse. It is not thread-safe — like SlabAllocator's page list, it is
// intended for single-threaded use or external synchronization — and it
// implements PageSource, so it can back a SlabAllocator directly once
// blocks have been deposited into it.
type PageStorage struct {
	head      *freePageNode
	pageCount int
}

// NewPageStorage returns an empty PageStorage.
func NewPageStorage() *PageStorage {
	return &PageStorage{}
}

// StorePage deposits blk for later reuse, pushing it onto the head of the
// free list.
func (s *PageStorage) StorePage(blk Block4KPtr) {
	node := (*freePageNode)(blk.unsafePointer())
	node.next = s.head
	s.head = node
	s.pageCount++
}

// TryGetPage pops the most recently stored block, or reports false if the
// list is empty. It never munmaps — that only happens in DisposeMem.
func (s *PageStorage) TryGetPage() (Block4KPtr, bool) {
	if s.head == nil {
		return Block4KPtr{}, false
	}
	node := s.head
	s.head = node.next
	s.pageCount--
	return newBlock4KPtr(unsafe.Pointer(node)), true
}

// TryGetFreePage implements PageSource by forwarding to TryGetPage.
func (s *PageStorage) TryGetFreePage() (Block4KPtr, bool) {
	return s.TryGetPage()
}

// AvailablePageCount reports how many blocks are currently cached.
func (s *PageStorage) AvailablePageCount() int {
	return s.pageCount
}

// DisposeMem walks the free list and munmaps every cached block. Blocks
// already handed out via TryGetPage are unaffected.
func (s *PageStorage) DisposeMem() error {
	var firstErr error
	for s.head != nil {
		node := s.head
		s.head = node.next
		if err := mmap.ReleaseBlock(uintptr(unsafe.Pointer(node))); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.pageCount = 0
	return firstErr
}

var _ PageSource = (*PageStorage)(nil)
