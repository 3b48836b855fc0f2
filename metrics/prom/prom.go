// Package prom exports cache touches as Prometheus metrics.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sarchlab/thrash/cache"
	"github.com/sarchlab/thrash/sim/hooking"
)

// Adapter is a hook that counts hits, misses and evictions. Safe for
// concurrent use; all Prometheus metric types are goroutine-safe.
type Adapter struct {
	hits   prometheus.Counter
	misses prometheus.Counter
	evicts prometheus.Counter
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(
	reg prometheus.Registerer,
	ns, sub string,
	constLabels prometheus.Labels,
) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	a := &Adapter{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "hits_total",
			Help:        "Simulated cache hits",
			ConstLabels: constLabels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "misses_total",
			Help:        "Simulated cache misses",
			ConstLabels: constLabels,
		}),
		evicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "evictions_total",
			Help:        "Valid lines replaced on a miss",
			ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(a.hits, a.misses, a.evicts)

	return a
}

// Attach creates an adapter labelled with the channel name and registers it
// as a hook on r.
func Attach(reg prometheus.Registerer, r *cache.Registry) *Adapter {
	a := New(reg, "thrash", "cache", prometheus.Labels{"channel": r.Name()})
	r.AcceptHook(a)

	return a
}

// Func counts one touch.
func (a *Adapter) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case cache.HookPosHit:
		a.hits.Inc()
	case cache.HookPosMiss:
		a.misses.Inc()
	case cache.HookPosEvict:
		a.evicts.Inc()
	}
}

// Compile-time check: ensure Adapter is a hook.
var _ hooking.Hook = (*Adapter)(nil)
