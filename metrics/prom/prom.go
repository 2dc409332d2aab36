// Package prom adapts cache.Metrics to Prometheus counters and gauges.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dirsvc/entrycache/cache"
)

// Adapter implements cache.Metrics and exports Prometheus counters/gauges.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
type Adapter struct {
	hits    prometheus.Counter
	misses  prometheus.Counter
	evicts  *prometheus.CounterVec
	sizeEnt prometheus.Gauge
	pinned  prometheus.Gauge
	retries prometheus.Counter
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "hits_total",
			Help:        "Cache hits (FindByDN or FindByID)",
			ConstLabels: constLabels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "misses_total",
			Help:        "Cache misses (FindByDN or FindByID)",
			ConstLabels: constLabels,
		}),
		evicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "evictions_total",
				Help:        "Records removed from the cache, by reason",
				ConstLabels: constLabels,
			},
			[]string{"reason"},
		),
		sizeEnt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "size_entries",
			Help:        "Number of resident records",
			ConstLabels: constLabels,
		}),
		pinned: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "pinned_entries",
			Help:        "Number of records with an outstanding borrow (refcnt > 0)",
			ConstLabels: constLabels,
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "retries_total",
			Help:        "FindByDN/FindByID retry-yield loop spins (not-yet-ready or lock contention)",
			ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(a.hits, a.misses, a.evicts, a.sizeEnt, a.pinned, a.retries)
	return a
}

// Hit increments the hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Miss increments the miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Evict increments the eviction counter with a reason label.
func (a *Adapter) Evict(r cache.EvictReason) {
	a.evicts.WithLabelValues(r.String()).Inc()
}

// Size updates the resident-entry-count gauge.
func (a *Adapter) Size(entries int) {
	a.sizeEnt.Set(float64(entries))
}

// Refcount updates the pinned-entry-count gauge.
func (a *Adapter) Refcount(pinned int) {
	a.pinned.Set(float64(pinned))
}

// Retry increments the retry-yield-loop spin counter.
func (a *Adapter) Retry() { a.retries.Inc() }

// Compile-time check: ensure Adapter implements cache.Metrics.
var _ cache.Metrics = (*Adapter)(nil)
