package cache

// lruAdd splices r at the LRU head (MRU position). Callers must hold
// core.mu. Mirrors the original C implementation's LRU_ADD macro.
func (c *CacheCore) lruAdd(r *record) {
	r.lruNext = c.lruHead
	if r.lruNext != nil {
		r.lruNext.lruPrev = r
	}
	c.lruHead = r
	r.lruPrev = nil
	if c.lruTail == nil {
		c.lruTail = r
	}
}

// lruDelete splices r out of the LRU list, fixing neighbors or head/tail
// pointers as needed. Callers must hold core.mu. Mirrors LRU_DELETE.
func (c *CacheCore) lruDelete(r *record) {
	if r.lruPrev != nil {
		r.lruPrev.lruNext = r.lruNext
	} else {
		c.lruHead = r.lruNext
	}
	if r.lruNext != nil {
		r.lruNext.lruPrev = r.lruPrev
	} else {
		c.lruTail = r.lruPrev
	}
	r.lruPrev, r.lruNext = nil, nil
}

// lruTouch moves r to the LRU head. Performed by every successful find and
// by the parole pass when it re-pins a busy tail record.
func (c *CacheCore) lruTouch(r *record) {
	c.lruDelete(r)
	c.lruAdd(r)
}
