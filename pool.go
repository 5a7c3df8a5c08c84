package errz

import (
	"sync"

	"github.com/zoobzio/metricz"
)

// Metric keys for the object pool.
const (
	PoolHitsTotal          = metricz.Key("pool.hits.total")
	PoolMissesTotal        = metricz.Key("pool.misses.total")
	PoolDoubleReleaseTotal = metricz.Key("pool.double_release.total")
	PoolSizeCurrent        = metricz.Key("pool.size.current")
	PoolHighWaterMark      = metricz.Key("pool.high_water_mark")
)

// pool is a fixed-capacity free list of blank *Record values. It exists to
// cut allocations in the hot createError path (§4.4).
type pool struct {
	mu        sync.Mutex
	free      []*Record
	capacity  int
	inUse     map[*Record]bool
	highWater int
	metrics   *metricz.Registry
}

func newPool(capacity int) *pool {
	p := &pool{
		capacity: capacity,
		free:     make([]*Record, 0, capacity),
		inUse:    make(map[*Record]bool, capacity),
		metrics:  metricz.New(),
	}
	p.metrics.Counter(PoolHitsTotal)
	p.metrics.Counter(PoolMissesTotal)
	p.metrics.Counter(PoolDoubleReleaseTotal)
	p.metrics.Gauge(PoolSizeCurrent)
	p.metrics.Gauge(PoolHighWaterMark)
	return p
}

// acquire pops a blank record, allocating a fresh one if the free list is
// empty. The returned record has FlagIsPooled set and is registered in the
// "in use" set so a later double-release can be detected.
func (p *pool) acquire() *Record {
	p.mu.Lock()
	defer p.mu.Unlock()

	var r *Record
	n := len(p.free)
	if n > 0 {
		r = p.free[n-1]
		p.free = p.free[:n-1]
		p.metrics.Counter(PoolHitsTotal).Inc()
	} else {
		r = &Record{}
		p.metrics.Counter(PoolMissesTotal).Inc()
	}
	r.brand = theBrand
	r.Flags = r.Flags.Set(FlagIsPooled)
	r.pool = p
	p.inUse[r] = true

	p.metrics.Gauge(PoolSizeCurrent).Set(float64(len(p.free)))
	if inUse := len(p.inUse); inUse > p.highWater {
		p.highWater = inUse
		p.metrics.Gauge(PoolHighWaterMark).Set(float64(inUse))
	}
	emitErrorPooled(r)
	return r
}

// release clears r's user-visible fields, unsets its brand, and returns it
// to the free list unless the pool is at capacity. A double release (r not
// present in the "in use" set) is a programmer error per I3, but the
// factory never throws: it is silently ignored and counted.
func (p *pool) release(r *Record) {
	if r == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.inUse[r] {
		p.metrics.Counter(PoolDoubleReleaseTotal).Inc()
		return
	}
	delete(p.inUse, r)

	*r = Record{}

	if len(p.free) < p.capacity {
		p.free = append(p.free, r)
	}
	p.metrics.Gauge(PoolSizeCurrent).Set(float64(len(p.free)))

	emitPoolReleased(r)
}

func (p *pool) stats() (hits, misses, size, highWater int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int64(p.metrics.Counter(PoolHitsTotal).Value()),
		int64(p.metrics.Counter(PoolMissesTotal).Value()),
		int64(len(p.free)),
		int64(p.highWater)
}

// Release returns r to its owning pool, if any. Records not created via a
// pooling path are a no-op: release only applies when FlagIsPooled is set.
func Release(r *Record) {
	if r == nil || !r.Flags.Has(FlagIsPooled) {
		return
	}
	if r.pool != nil {
		r.pool.release(r)
	}
}
