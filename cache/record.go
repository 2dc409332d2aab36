package cache

import (
	"sync"
	"sync/atomic"
)

// record is the cached unit: an Entry payload plus the per-cache metadata
// the state machine and LRU bookkeeping need. The LRU links are intrusive
// (owned by the record itself, not a separate container) so list removal
// from an arbitrary position is O(1), matching the original C
// implementation's EntryInfo/LRU_ADD/LRU_DELETE macros.
type record struct {
	// lock guards the Entry payload during caller use. Multiple readers or
	// one writer. Never acquired blockingly while core.mu is held.
	lock sync.RWMutex

	// state is read and written both under core.mu (every CacheCore method)
	// and lock-free by Borrow.Commit, so it must always go through
	// loadState/storeState rather than direct field access, even by callers
	// already holding core.mu.
	state atomic.Int32

	// Everything below is guarded by the owning CacheCore's mutex.
	refcnt  int
	lruPrev *record
	lruNext *record
	entry   Entry
}

// loadState reads the record's current lifecycle state.
func (r *record) loadState() state { return state(r.state.Load()) }

// storeState sets the record's lifecycle state.
func (r *record) storeState(s state) { r.state.Store(int32(s)) }

// evictable reports whether this record may be selected by the eviction
// scan: only Ready records with no outstanding borrow are candidates (I4).
func (r *record) evictable() bool {
	return r.loadState() == stateReady && r.refcnt == 0
}
