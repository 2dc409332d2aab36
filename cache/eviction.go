package cache

// maxParoleIterations bounds the parole pass so a long run of pinned tail
// records cannot turn eviction into an unbounded scan. Matches the
// original C implementation's hardcoded limit of 10.
const maxParoleIterations = 10

// evictLocked runs the two-phase eviction scan described in spec §4.4.
// Callers must hold core.mu and must have just pushed cursize over
// maxsize. The cache is allowed to remain over maxsize if every resident
// record is pinned; it never blocks to evict.
func (c *CacheCore) evictLocked() {
	// Phase 1: parole pass. A pinned tail blocks eviction of everything
	// behind it, so give pinned records a temporary reprieve by moving
	// them to the head, exposing whatever is behind them.
	for i := 0; i < maxParoleIterations; i++ {
		tail := c.lruTail
		if tail == nil || tail.refcnt == 0 {
			break
		}
		c.lruTouch(tail)
	}

	// Phase 2: evict unpinned tail records until back within budget.
	for c.cursize > c.maxsize {
		tail := c.lruTail
		if tail == nil || !tail.evictable() {
			break
		}
		c.evictRecordLocked(tail)
	}

	c.metrics.Size(c.cursize)
}

// evictRecordLocked removes r from both indices and the LRU list, frees
// its payload, and decrements cursize. r must be evictable (Ready,
// refcnt == 0) and callers must hold core.mu.
func (c *CacheCore) evictRecordLocked(r *record) {
	delete(c.dnIndex, string(r.entry.NDN()))
	delete(c.idIndex, r.entry.ID())
	c.lruDelete(r)
	c.cursize--
	c.metrics.Evict(EvictLRU)
	c.logger.WithField("id", r.entry.ID()).Trace("cache: evicted")
	c.free(r.entry)
}
