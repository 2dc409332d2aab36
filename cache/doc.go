// Package cache implements an in-memory entry cache for a directory-style
// backend: a bounded, LRU-evicted, dual-indexed (by normalized DN and by
// numeric ID) cache of Entry payloads, with a reference-counted per-entry
// state machine that lets lookups race safely with creation and deletion.
//
// Design
//
//   - Concurrency: one CacheCore mutex serializes every structural change
//     (both indices, the LRU list, cursize, and every record's state,
//     refcount, and LRU links). A second, per-record sync.RWMutex protects
//     the Entry payload itself while a caller holds a borrow. The cache
//     mutex is never held while blockingly acquiring a per-record lock;
//     FindByID uses a non-blocking try-lock and retries after yielding.
//
//   - Storage: an intrusive doubly linked list (head = MRU) lives inside
//     each record, alongside two plain maps for DN and ID lookup. All three
//     structures share membership at every quiescent point.
//
//   - Lifecycle: a record moves Creating -> Committed -> Ready as its
//     producer finishes populating it and returns its borrow, or
//     Creating -> Deleted if the producer abandons it. Ready records serve
//     lookups; Deleted records persist only until their last outstanding
//     borrow is returned.
//
//   - Eviction: when an insertion pushes cursize over maxsize, a two-phase
//     scan runs synchronously: a bounded parole pass re-pins busy tail
//     records, then an eviction pass removes unpinned tail records until
//     the cache is back within budget (or every remaining record is
//     pinned, in which case the cache is allowed to exceed maxsize).
//
//   - LookupOrLoad: a convenience built from the primitives above. On a
//     miss it coalesces concurrent fetches for the same ID through a
//     singleflight group and materializes the result via Store, Add, and
//     Commit.
//
// Basic usage
//
//	c := cache.New(cache.Options{MaxSize: 10_000})
//	e := myEntry{id: 7, ndn: []byte("uid=alice,dc=example,dc=com")}
//	b, err := c.Add(e, cache.LockWrite)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := b.Commit(); err != nil {
//	    log.Fatal(err)
//	}
//	b.Release()
//
//	found, err := c.FindByID(7, cache.LockRead)
//	if err == nil {
//	    defer found.Release()
//	    _ = found.Entry()
//	}
//
// See DESIGN.md at the repository root for the grounding behind each
// package and file.
package cache
