// Package singleflight coalesces concurrent cache-miss loads for the same
// id into a single call to the backing Store, for CacheCore.LookupOrLoad.
package singleflight

import (
	"context"
	"sync"
)

// Group coalesces concurrent fetches for the same id so that fn runs at
// most once per id. Other concurrent callers for that id wait for the
// leader's result instead of each hitting the Store independently.
//
// Concurrency notes:
//   - The first caller for a given id becomes the leader and runs fn.
//   - Followers wait on c.done. Publishing err happens-before
//     close(c.done), so reads after <-done observe the final value.
//   - Cancelling ctx in a follower unblocks only that follower; it does
//     NOT cancel the leader's fn. LookupOrLoad threads ctx into fn itself
//     so the leader's Store.Load can still observe cancellation.
type Group struct {
	mu sync.Mutex
	m  map[uint64]*call
}

type call struct {
	done chan struct{} // closed when err is published
	err  error
}

// Do runs fn once for id. Concurrent calls with the same id wait for the
// shared result. If ctx is cancelled in a follower, that follower returns
// ctx.Err() while the leader continues to run fn.
//
// fn has no return value: its only externally visible effect is
// materializing the entry into the cache via Add+Commit. Every caller,
// leader or follower, re-derives its own Borrow with a fresh FindByID
// after Do returns, so no result value ever needs to cross goroutines.
func (g *Group) Do(ctx context.Context, id uint64, fn func() error) error {
	// Fast path: an in-flight call exists — wait (respecting ctx).
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[uint64]*call)
	}
	if c, ok := g.m[id]; ok {
		done := c.done
		g.mu.Unlock()

		select {
		case <-done:
			return c.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	// We are the leader for this id.
	c := &call{done: make(chan struct{})}
	g.m[id] = c
	g.mu.Unlock()

	// Execute fn outside the lock.
	err := fn()

	// Publish result and wake followers.
	c.err = err
	close(c.done)

	// Remove the in-flight marker.
	g.mu.Lock()
	delete(g.m, id)
	g.mu.Unlock()

	return err
}
