package cache

import (
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dirsvc/entrycache/internal/singleflight"
	"github.com/dirsvc/entrycache/internal/util"
)

// CacheCore owns the two indices, the LRU list, and the current/maximum
// size counters, all serialized by a single mutex (spec §5: "the cache
// mutex may be acquired while holding no per-entry lock, or while holding
// any per-entry lock"; per-entry locks are never acquired blockingly while
// this mutex is held).
type CacheCore struct {
	mu sync.Mutex

	dnIndex map[string]*record
	idIndex map[uint64]*record

	lruHead *record // MRU
	lruTail *record // LRU

	cursize int
	maxsize int

	metrics Metrics
	logger  *logrus.Logger
	free    FreeFunc
	store   Store
	sf      singleflight.Group

	// Hot diagnostic counter, padded to avoid false sharing between
	// concurrent retry loops on different cores. Not part of the
	// invariants; purely observational.
	_       util.CacheLinePad
	retries util.PaddedAtomicInt64
}

// New constructs a CacheCore with the given Options.
func New(opt Options) *CacheCore {
	if opt.MaxSize <= 0 {
		panic("cache: MaxSize must be > 0")
	}
	metrics := opt.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	free := opt.Free
	if free == nil {
		free = func(Entry) {}
	}
	logger := opt.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.InfoLevel)
	}
	return &CacheCore{
		dnIndex: make(map[string]*record),
		idIndex: make(map[uint64]*record),
		maxsize: opt.MaxSize,
		metrics: metrics,
		logger:  logger,
		free:    free,
		store:   opt.Store,
	}
}

// Len returns the current resident entry count.
func (c *CacheCore) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursize
}

// Retries returns the cumulative number of times a FindByDN/FindByID
// retry-yield loop has spun, either because the target record was not
// yet Ready or because its per-entry lock was contended. It is a
// diagnostic counter, not part of any invariant; also surfaced through
// Metrics.Retry on every increment for exporters that prefer a push
// model over polling this accessor.
func (c *CacheCore) Retries() int64 {
	return c.retries.Load()
}

// Add inserts entry into both indices, creating a new record in the
// Creating state with refcnt 1, and acquires the per-entry lock in mode on
// the caller's behalf. The returned Borrow is the sole borrower; the
// caller must either call its Commit then Release, or just Release (which
// abandons the insertion). Returns ErrDuplicate if either index already
// holds the key.
func (c *CacheCore) Add(entry Entry, mode LockMode) (*Borrow, error) {
	c.mu.Lock()

	ndn := string(entry.NDN())
	id := entry.ID()

	if _, exists := c.dnIndex[ndn]; exists {
		c.mu.Unlock()
		return nil, ErrDuplicate
	}
	if _, exists := c.idIndex[id]; exists {
		c.mu.Unlock()
		return nil, ErrDuplicate
	}

	r := &record{refcnt: 1, entry: entry}
	r.storeState(stateCreating)
	c.dnIndex[ndn] = r
	c.idIndex[id] = r

	if mode == LockWrite {
		r.lock.Lock()
	} else {
		r.lock.RLock()
	}

	c.lruAdd(r)
	c.cursize++
	if c.cursize > c.maxsize {
		c.evictLocked()
	}
	c.metrics.Size(c.cursize)
	c.metrics.Refcount(c.countPinnedLocked())

	c.logger.WithField("id", id).Trace("cache: add (creating)")

	c.mu.Unlock()
	return &Borrow{core: c, rec: r, mode: mode}, nil
}

// Update re-inserts an entry whose record was previously Deleted while the
// caller's borrow kept its private data alive. Unlike Add, it does not
// touch refcnt or the per-entry lock: b must be the same borrow the
// caller has held continuously since before the Deleted transition (spec
// §9's open question — Update has no way to verify this and relies on the
// caller's discipline). Runs the eviction scan at the end, like Add.
func (c *CacheCore) Update(b *Borrow) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := b.rec
	if r.loadState() != stateDeleted {
		c.logger.WithField("id", r.entry.ID()).Error("cache: corruption, update on a record not in deleted state")
		return ErrCorruption
	}
	if r.refcnt == 0 {
		panic("cache: Update called on a borrow with no outstanding refcount")
	}

	ndn := string(r.entry.NDN())
	id := r.entry.ID()

	if _, exists := c.dnIndex[ndn]; exists {
		return ErrDuplicate
	}
	if _, exists := c.idIndex[id]; exists {
		return ErrDuplicate
	}

	c.dnIndex[ndn] = r
	c.idIndex[id] = r
	r.storeState(stateCreating)

	c.lruAdd(r)
	c.cursize++
	if c.cursize > c.maxsize {
		c.evictLocked()
	}
	c.metrics.Size(c.cursize)
	return nil
}

// FindByDN looks up ndn and returns the entry's id as a hint: the record
// may be evicted or deleted before the caller acts on it. Callers that
// need a stable, pinned reference must follow up with FindByID. This
// operation does not take a per-entry lock or increment refcount; it only
// reads id under the cache mutex.
func (c *CacheCore) FindByDN(ndn []byte) (uint64, error) {
	key := string(ndn)
	for {
		c.mu.Lock()
		r, ok := c.dnIndex[key]
		if !ok {
			c.mu.Unlock()
			c.metrics.Miss()
			return 0, ErrNotFound
		}
		if r.loadState() != stateReady {
			c.mu.Unlock()
			c.retries.Add(1)
			c.metrics.Retry()
			runtime.Gosched()
			continue
		}
		id := r.entry.ID()
		c.lruTouch(r)
		c.mu.Unlock()
		c.metrics.Hit()
		return id, nil
	}
}

// FindByID looks up id, non-blockingly acquires the per-entry lock in
// mode, and returns a pinned Borrow on success. If the record is not yet
// Ready, or its lock is currently held incompatibly, the cache mutex is
// released and the goroutine yields before retrying — never blocking
// while holding the cache mutex (spec §5's lock-ordering rule).
func (c *CacheCore) FindByID(id uint64, mode LockMode) (*Borrow, error) {
	for {
		c.mu.Lock()
		r, ok := c.idIndex[id]
		if !ok {
			c.mu.Unlock()
			c.metrics.Miss()
			return nil, ErrNotFound
		}
		if r.loadState() != stateReady {
			c.mu.Unlock()
			c.retries.Add(1)
			c.metrics.Retry()
			runtime.Gosched()
			continue
		}

		var locked bool
		if mode == LockWrite {
			locked = r.lock.TryLock()
		} else {
			locked = r.lock.TryRLock()
		}
		if !locked {
			c.mu.Unlock()
			c.retries.Add(1)
			c.metrics.Retry()
			runtime.Gosched()
			continue
		}

		c.lruTouch(r)
		r.refcnt++
		c.metrics.Refcount(c.countPinnedLocked())
		c.mu.Unlock()
		c.metrics.Hit()
		return &Borrow{core: c, rec: r, mode: mode}, nil
	}
}

// countPinnedLocked counts records with refcnt > 0. Callers must hold
// core.mu. Used only for the Refcount metric; O(n) is acceptable since
// it is not on any spec-mandated hot path.
func (c *CacheCore) countPinnedLocked() int {
	n := 0
	for r := c.lruHead; r != nil; r = r.lruNext {
		if r.refcnt > 0 {
			n++
		}
	}
	return n
}

// returnEntry releases the per-entry lock held in mode, decrements
// refcnt, and completes any pending Creating-abandonment or
// Deleted-with-zero-refcnt destruction. See spec §4.2's return_entry
// table for the full transition matrix. Invoked by Borrow.Release.
func (c *CacheCore) returnEntry(r *record, mode LockMode) {
	c.mu.Lock()

	if mode == LockWrite {
		r.lock.Unlock()
	} else {
		r.lock.RUnlock()
	}
	r.refcnt--

	freeit := true
	if r.loadState() == stateCreating {
		c.deleteInternalLocked(r)
		freeit = false
		// now in Deleted state
	}

	switch r.loadState() {
	case stateCommitted:
		r.storeState(stateReady)
		c.logger.WithField("id", r.entry.ID()).Trace("cache: committed -> ready")
	case stateDeleted:
		if r.refcnt == 0 {
			if freeit {
				c.free(r.entry)
			}
			// else: abandoned Creating record — metadata destroyed
			// implicitly (unreferenced), payload left alone; it
			// belongs to whoever still holds it.
		}
	default:
		// Ready: nothing further to do.
	}

	c.metrics.Refcount(c.countPinnedLocked())
	c.mu.Unlock()
}

// Delete removes the borrowed record from both indices and the LRU list
// and marks it Deleted. b must come from a prior FindByID; the caller
// must not separately call b.Release() — Delete subsumes it. The actual
// free happens once refcnt reaches zero as part of this call or a
// later Release of some other outstanding borrow on the same record.
func (c *CacheCore) Delete(b *Borrow) error {
	if !b.claim() {
		return ErrNotFound
	}

	c.mu.Lock()
	r := b.rec
	if r.loadState() == stateDeleted {
		c.mu.Unlock()
		return ErrNotFound
	}
	c.deleteInternalLocked(r)
	c.metrics.Evict(EvictExplicit)

	// Subsume the return this borrow owed: release its per-entry lock and
	// drop its refcount. state is already Deleted, so the
	// Creating-abandonment branch in returnEntry's logic never applies
	// here — it is inlined rather than shared to avoid re-locking.
	if b.mode == LockWrite {
		r.lock.Unlock()
	} else {
		r.lock.RUnlock()
	}
	r.refcnt--
	if r.refcnt == 0 {
		c.free(r.entry)
	}
	c.metrics.Refcount(c.countPinnedLocked())
	c.mu.Unlock()
	return nil
}

// deleteInternalLocked removes r from both indices and the LRU list,
// decrements cursize, and sets state to Deleted. Callers must hold
// core.mu. Mirrors cache_delete_entry_internal, including its rollback
// contract: if the DN-index deletion fails, the operation is corrupt.
func (c *CacheCore) deleteInternalLocked(r *record) {
	ndn := string(r.entry.NDN())
	if _, ok := c.dnIndex[ndn]; !ok {
		c.logger.WithField("id", r.entry.ID()).Error("cache: corruption, dn index missing entry on delete")
		panic(ErrCorruption)
	}
	delete(c.dnIndex, ndn)
	delete(c.idIndex, r.entry.ID())
	c.lruDelete(r)
	c.cursize--
	r.storeState(stateDeleted)
	c.metrics.Size(c.cursize)
}

// ReleaseAll walks the LRU from tail to head, destroying every record
// with refcnt == 0. Records with nonzero refcount are left resident; if
// any remain, the caller leaked borrows and shutdown is incomplete.
// Returns the count of records still resident after the sweep.
func (c *CacheCore) ReleaseAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	for r := c.lruTail; r != nil; {
		prev := r.lruPrev
		if r.refcnt != 0 {
			r = prev
			continue
		}
		delete(c.dnIndex, string(r.entry.NDN()))
		delete(c.idIndex, r.entry.ID())
		c.lruDelete(r)
		c.cursize--
		c.free(r.entry)
		r = prev
	}

	if c.cursize > 0 {
		c.logger.WithField("remaining", c.cursize).Warn("cache: release_all could not empty the cache; callers leaked borrows")
	}
	return c.cursize
}
