package cache

import "sync/atomic"

// Borrow is a caller's outstanding reference to a cached record, returned
// by Add and FindByID. Its destructor-equivalent is Release, which must
// be called exactly once; per spec §9's design note, wrapping the raw
// record in a handle type makes the return-after-use contract hard to
// forget. Calling Release twice, or Release after Delete, is a caller bug
// and panics rather than corrupting cache state silently; calling Delete
// on a borrow already released or deleted returns ErrNotFound.
type Borrow struct {
	core     *CacheCore
	rec      *record
	mode     LockMode
	released atomic.Bool
}

// Entry returns the borrowed payload. Valid until Release or Delete.
func (b *Borrow) Entry() Entry { return b.rec.entry }

// ID returns the borrowed entry's id, a convenience over Entry().ID().
func (b *Borrow) ID() uint64 { return b.rec.entry.ID() }

// Mode reports the lock mode this borrow holds.
func (b *Borrow) Mode() LockMode { return b.mode }

// claim marks the borrow as consumed (by Release or Delete) and reports
// whether this call was the one that consumed it.
func (b *Borrow) claim() bool {
	return b.released.CompareAndSwap(false, true)
}

// Release returns the borrow: releases the per-entry lock, decrements
// refcnt, and completes any pending Creating-abandonment or
// Deleted-with-zero-refcnt destruction. Calling Release more than once
// panics.
func (b *Borrow) Release() {
	if !b.claim() {
		panic("cache: Borrow released more than once")
	}
	b.core.returnEntry(b.rec, b.mode)
}

// Commit marks a Creating borrow as Committed, per spec §4.1: the
// producer has declared the entry valid but still holds it. No mutex is
// taken — the payload and every other field of the record are exclusively
// owned by whichever goroutine holds this borrow while it remains in
// Creating or Committed state, matching the original C implementation's
// cache_entry_commit, which likewise takes no lock. state itself is the
// one field Commit touches without core.mu while FindByDN/FindByID's retry
// loops read it concurrently under core.mu, which is why it lives in an
// atomic.Int32 rather than a plain field: loadState/storeState give Commit
// a lock-free, race-free transition. The caller must still call Release
// afterward.
func (b *Borrow) Commit() error {
	if b.rec.loadState() != stateCreating {
		b.core.logger.WithField("id", b.rec.entry.ID()).Error("cache: corruption, commit on a record not in creating state")
		return ErrCorruption
	}
	b.rec.storeState(stateCommitted)
	return nil
}
