package cache

import "context"

// LookupOrLoad returns a pinned Borrow for id. On a cache hit this is
// exactly FindByID. On a miss, if Store is configured, concurrent misses
// for the same id are coalesced into a single Store.Load, followed by Add
// and Commit; every caller then re-runs FindByID to obtain its own borrow,
// so no caller ever receives the loader's own Creating-state borrow
// directly. If Store is nil, a miss returns ErrNoStore.
func (c *CacheCore) LookupOrLoad(ctx context.Context, id uint64, mode LockMode) (*Borrow, error) {
	if b, err := c.FindByID(id, mode); err == nil {
		return b, nil
	} else if err != ErrNotFound {
		return nil, err
	}

	if c.store == nil {
		return nil, ErrNoStore
	}

	err := c.sf.Do(ctx, id, func() error {
		// Double-check: another goroutine may have added it between our
		// first FindByID miss and winning (or joining) the flight.
		if b, err := c.FindByID(id, LockRead); err == nil {
			b.Release()
			return nil
		}

		entry, err := c.store.Load(ctx, id)
		if err != nil {
			return err
		}

		b, err := c.Add(entry, LockRead)
		if err != nil {
			return err
		}
		if err := b.Commit(); err != nil {
			b.Release()
			return err
		}
		b.Release()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return c.FindByID(id, mode)
}
