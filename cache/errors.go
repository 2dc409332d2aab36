package cache

import "errors"

// Error kinds surfaced to callers, per the recovery policy: Duplicate and
// NotFound are ordinary results a caller is expected to branch on;
// Corruption means a structural invariant failed mid-operation and the
// cache is no longer trustworthy.
var (
	// ErrDuplicate is returned by Add/Update when the DN or ID already
	// resides in the cache.
	ErrDuplicate = errors.New("cache: duplicate key")

	// ErrNotFound is returned by FindByDN/FindByID/Delete when the key is
	// absent.
	ErrNotFound = errors.New("cache: not found")

	// ErrCorruption is returned when a state invariant fails (e.g. Update
	// on a record that is not Deleted, or Commit on one that is not
	// Creating). The internal delete path panics with it when the DN
	// index is missing a record it must contain; the cache must be
	// treated as unrecoverable once that is observed.
	ErrCorruption = errors.New("cache: invariant violated")

	// ErrNoStore is returned by LookupOrLoad when no Store was configured
	// and the id is not already resident.
	ErrNoStore = errors.New("cache: no store configured")
)
