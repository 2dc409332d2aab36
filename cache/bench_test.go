package cache

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
)

// benchmarkMix exercises a read/write mix against a warm cache using
// parallel workers (RunParallel spawns GOMAXPROCS goroutines).
func benchmarkMix(b *testing.B, readsPct int) {
	c := New(Options{MaxSize: 100_000})
	b.Cleanup(func() { c.ReleaseAll() })

	// Preload half the capacity to get a realistic hit-rate.
	for i := 0; i < 50_000; i++ {
		addAndCommitBench(c, uint64(i))
	}

	b.ReportAllocs()
	b.ResetTimer()

	var seed int64 = 1
	keyMask := uint64(1<<16) - 1 // hot keyspace, power of two for fast &-mask

	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(atomic.AddInt64(&seed, 1)))
		var i uint64
		for pb.Next() {
			id := i & keyMask
			if r.Intn(100) < readsPct {
				if bw, err := c.FindByID(id, LockRead); err == nil {
					bw.Release()
				}
			} else {
				addAndCommitBench(c, id)
			}
			i++
		}
	})
}

func BenchmarkCache_90r10w(b *testing.B) { benchmarkMix(b, 90) }
func BenchmarkCache_50r50w(b *testing.B) { benchmarkMix(b, 50) }

// BenchmarkCache_FindByID_Only isolates the hot lookup path with no writes.
func BenchmarkCache_FindByID_Only(b *testing.B) {
	c := New(Options{MaxSize: 100_000})
	b.Cleanup(func() { c.ReleaseAll() })

	for i := 0; i < 50_000; i++ {
		addAndCommitBench(c, uint64(i))
	}

	b.ReportAllocs()
	b.ResetTimer()

	keyMask := uint64(1<<16) - 1
	b.RunParallel(func(pb *testing.PB) {
		var i uint64
		for pb.Next() {
			if bw, err := c.FindByID(i&keyMask, LockRead); err == nil {
				bw.Release()
			}
			i++
		}
	})
}

func addAndCommitBench(c *CacheCore, id uint64) {
	b, err := c.Add(testEntry{id: id, ndn: fmt.Sprintf("uid=%d", id)}, LockWrite)
	if err != nil {
		return // duplicate id under concurrent writers, expected
	}
	_ = b.Commit()
	b.Release()
}
