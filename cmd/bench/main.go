// Command bench runs a synthetic add/find/delete workload against the
// cache and exposes a Prometheus metrics endpoint and an optional pprof
// endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dirsvc/entrycache/cache"
	pmet "github.com/dirsvc/entrycache/metrics/prom"
)

type benchEntry struct {
	id  uint64
	ndn []byte
}

func (e benchEntry) ID() uint64  { return e.id }
func (e benchEntry) NDN() []byte { return e.ndn }
func (e benchEntry) DN() string  { return string(e.ndn) }

func ndnFor(id uint64) []byte {
	return []byte(fmt.Sprintf("id=%d,dc=bench,dc=local", id))
}

func main() {
	// ---- Flags ----
	var (
		capacity = flag.Int("cap", 100_000, "cache capacity (entries)")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		readPct  = flag.Int("reads", 80, "read (find) percentage [0..100]")

		keys  = flag.Int("keys", 1_000_000, "keyspace size")
		zipfS = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed  = flag.Int64("seed", time.Now().UnixNano(), "random seed")

		preload = flag.Int("preload", 0, "preload entries (0 = cap/2)")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "entrycache", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Build cache ----
	c := cache.New(cache.Options{MaxSize: *capacity, Metrics: metrics})

	// ---- Preload half capacity to get a realistic hit-rate ----
	pl := *preload
	if pl == 0 {
		pl = *capacity / 2
	}
	for i := 0; i < pl; i++ {
		addAndCommit(c, uint64(i))
	}

	// ---- Snapshot flags for goroutines ----
	readPctVal := *readPct
	keysMax := uint64(*keys - 1)
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	// ---- Load generation ----
	var reads, writes, hits, misses, total uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workersN)
	for w := 0; w < workersN; w++ {
		go func(id int) {
			defer wg.Done()

			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(id)*9973))
			localZipf := rand.NewZipf(localR, zipfSVal, zipfVVal, keysMax)

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddUint64(&total, 1)
				key := localZipf.Uint64()
				if int(localR.Int31n(100)) < readPctVal {
					atomic.AddUint64(&reads, 1)
					if b, err := c.FindByID(key, cache.LockRead); err == nil {
						atomic.AddUint64(&hits, 1)
						b.Release()
					} else {
						atomic.AddUint64(&misses, 1)
					}
				} else {
					atomic.AddUint64(&writes, 1)
					addAndCommit(c, key)
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	ops := atomic.LoadUint64(&total)
	readsN := atomic.LoadUint64(&reads)
	writesN := atomic.LoadUint64(&writes)
	hitsN := atomic.LoadUint64(&hits)
	missesN := atomic.LoadUint64(&misses)

	hitRate := 0.0
	if readsN > 0 {
		hitRate = float64(hitsN) / float64(readsN) * 100
	}

	fmt.Printf("cap=%d workers=%d keys=%d dur=%v seed=%d\n",
		*capacity, workersN, *keys, elapsed, seedBase)
	fmt.Printf("ops=%d (%.0f ops/s)  reads=%d  writes=%d\n",
		ops, float64(ops)/elapsed.Seconds(), readsN, writesN)
	fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%\n", hitsN, missesN, hitRate)
	fmt.Printf("Len()=%d\n", c.Len())
}

// addAndCommit adds id if absent, publishing it immediately. Duplicate
// adds (an id already resident) are expected under a Zipf write mix and
// are silently ignored: a write to a resident id leaves the existing
// entry in place, and the bench never exercises Update.
func addAndCommit(c *cache.CacheCore, id uint64) {
	b, err := c.Add(benchEntry{id: id, ndn: ndnFor(id)}, cache.LockWrite)
	if err != nil {
		return
	}
	_ = b.Commit()
	b.Release()
}
