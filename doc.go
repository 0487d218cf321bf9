/*

Package mori implements a two-tier small-block allocator on top of a bulk
virtual-memory reservation, for x86_64 Linux.

Three cooperating allocators do the work:

A RootAllocator reserves 2 MiB "superpage" regions from the OS via anonymous
mmap and carves each one into 512 4 KiB blocks, handed out one at a time
through a single atomic word that packs a bump cursor and a one-bit refill
lock. It is fully thread-safe and the common case — handing out the next
block — costs one atomic add.

A SlabAllocator chains 4 KiB blocks obtained from any PageSource (typically
a RootAllocator, or a PageStorage recycling previously freed blocks) and
subdivides each one into 63 sixty-four-byte cells tracked by a per-page
occupation bitmap, serving aligned allocations up to MaxAllocSizeInBytes. A
SlabAllocator's page list is not itself safe for concurrent use; pair one
with one goroutine, or guard it externally.

A PageStorage is a free list of 4 KiB blocks returned by callers, letting
them be handed back out rather than unmapped.

This system intentionally does not support arbitrary realloc, does not
coalesce freed spans, and does not return memory to the OS incrementally —
only RootAllocator.Destroy, which releases the unhanded-out tail of the
current superpage, and PageStorage.DisposeMem, which unmaps every cached
block, give memory back at all. See the design notes in each
type's doc comment for the concurrency contract that applies to it.

*/
package mori
