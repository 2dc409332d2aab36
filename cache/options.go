package cache

import "github.com/sirupsen/logrus"

// Options configures a CacheCore. Zero values are safe except MaxSize,
// which must be positive.
type Options struct {
	// MaxSize is the target resident entry count. The cache may exceed it
	// transiently if every resident record is pinned (§4.4); it is never
	// enforced by blocking.
	MaxSize int

	// Metrics receives Hit/Miss/Evict/Size/Refcount/Retry signals. Nil
	// defaults to NoopMetrics.
	Metrics Metrics

	// Logger receives Trace events for state transitions and evictions,
	// and Error events for ErrCorruption. Retry-loop spins are not logged;
	// they are counted by Retries and Metrics.Retry. Nil defaults to a
	// logrus.Logger at Info level, so hot-path Trace calls compile in
	// but stay silent unless the caller lowers the level.
	Logger *logrus.Logger

	// Free releases an Entry payload once the cache is done with it. Nil
	// defaults to a no-op.
	Free FreeFunc

	// Store is consulted by LookupOrLoad on a cache miss. Nil makes
	// LookupOrLoad behave like a plain FindByID on a hit and return
	// ErrNoStore on a miss.
	Store Store
}
