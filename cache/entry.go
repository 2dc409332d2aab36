package cache

import "context"

// Entry is the payload the cache stores and coordinates access to. The
// cache owns an Entry's lifetime while its record is resident (state in
// {Creating, Committed, Ready, Deleted}); it never interprets the payload
// beyond ID and NDN.
type Entry interface {
	// ID is the numeric identifier. Zero means "no such id" and must never
	// be used as a real key.
	ID() uint64

	// NDN is the normalized distinguished name, compared byte-for-byte.
	// The returned slice must not be mutated by the caller or the cache.
	NDN() []byte

	// DN is the display form. The cache never inspects it beyond passing
	// it to the configured Logger.
	DN() string
}

// FreeFunc releases an Entry payload once the cache has finished with it
// (a Deleted record's refcnt reaches 0, or the record is evicted or
// dropped by ReleaseAll). It is not called for a Creating record that its
// producer abandons without Commit. The default is a no-op,
// appropriate for entries with no external resources to release.
type FreeFunc func(Entry)

// Store is the persistent-store collaborator consumed by LookupOrLoad. It
// is never called by any other operation.
type Store interface {
	// Load fetches the entry with the given id. Load returning
	// ErrNotFound is treated as a definitive miss, not retried.
	Load(ctx context.Context, id uint64) (Entry, error)
}
