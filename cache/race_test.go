package cache

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

// A mixed workload of concurrent Add/FindByID/Delete on random ids. Should
// pass under `-race` without detector reports.
func TestRace_Basic(t *testing.T) {
	c := New(Options{MaxSize: 8_192})
	t.Cleanup(func() { c.ReleaseAll() })

	workers := 4 * runtime.GOMAXPROCS(0)
	keyspace := uint64(50_000)
	deadline := time.Now().Add(2 * time.Second)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(w)*9973))
			for time.Now().Before(deadline) {
				id := uint64(r.Int63n(int64(keyspace)))
				switch r.Intn(100) {
				case 0, 1, 2, 3, 4: // ~5% — Delete
					if b, err := c.FindByID(id, LockWrite); err == nil {
						_ = c.Delete(b)
					}
				case 5, 6, 7, 8, 9, 10, 11, 12, 13, 14: // ~10% — Add+Commit
					e := testEntry{id: id, ndn: fmt.Sprintf("uid=%d", id)}
					if b, err := c.Add(e, LockRead); err == nil {
						_ = b.Commit()
						b.Release()
					}
				default: // ~85% — FindByID
					if b, err := c.FindByID(id, LockRead); err == nil {
						b.Release()
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("workload error: %v", err)
	}
}

// One hundred goroutines call LookupOrLoad on the same id concurrently. The
// backing Store should be hit at most once (singleflight coalescing).
func TestRace_LookupOrLoad(t *testing.T) {
	var calls int64
	const id = uint64(42)

	store := storeFunc(func(_ context.Context, gotID uint64) (Entry, error) {
		atomic.AddInt64(&calls, 1)
		time.Sleep(2 * time.Millisecond) // simulate I/O
		return testEntry{id: gotID, ndn: "uid=coalesced"}, nil
	})

	c := New(Options{MaxSize: 1024, Store: store})
	t.Cleanup(func() { c.ReleaseAll() })

	const goroutines = 100
	start := make(chan struct{})

	var g errgroup.Group
	for i := 0; i < goroutines; i++ {
		g.Go(func() error {
			<-start
			b, err := c.LookupOrLoad(context.Background(), id, LockRead)
			if err != nil {
				return err
			}
			defer b.Release()
			if b.Entry().ID() != id {
				return fmt.Errorf("unexpected id: %d", b.Entry().ID())
			}
			return nil
		})
	}

	close(start)
	if err := g.Wait(); err != nil {
		t.Fatalf("LookupOrLoad error: %v", err)
	}

	if got := atomic.LoadInt64(&calls); got > 1 {
		t.Fatalf("store should be hit at most once, got %d", got)
	}

	// Subsequent call should be a pure cache hit, no further store calls.
	b, err := c.LookupOrLoad(context.Background(), id, LockRead)
	if err != nil {
		t.Fatalf("second LookupOrLoad failed: %v", err)
	}
	b.Release()
	if got := atomic.LoadInt64(&calls); got > 1 {
		t.Fatalf("store called again on a resident id, got %d calls", got)
	}
}

type storeFunc func(ctx context.Context, id uint64) (Entry, error)

func (f storeFunc) Load(ctx context.Context, id uint64) (Entry, error) { return f(ctx, id) }
