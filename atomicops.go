package mori

import "sync/atomic"

// atomicFetchOr atomically ORs mask into *a and returns the value *a held
// immediately before the OR, i.e. fetch_or semantics built from the
// CompareAndSwap primitive the typed atomic.Uint64 guarantees across the Go
// versions this module targets.
func atomicFetchOr(a *atomic.Uint64, mask uint64) uint64 {
	for {
		old := a.Load()
		if a.CompareAndSwap(old, old|mask) {
			return old
		}
	}
}

// atomicFetchAnd atomically ANDs mask into *a and returns the value *a held
// immediately before the AND.
func atomicFetchAnd(a *atomic.Uint64, mask uint64) uint64 {
	for {
		old := a.Load()
		if a.CompareAndSwap(old, old&mask) {
			return old
		}
	}
}
