package metrics

import (
	"sync"
	"sync/atomic"
)

// BasicProvider keeps every instrument in memory. Instruments are created on first
// use and the same instance is returned for the same name afterwards.
// Intended for tests, the demo command and lightweight applications.
type BasicProvider struct {
	mu         sync.RWMutex
	counters   map[string]*BasicCounter
	updowns    map[string]*BasicCounter
	histograms map[string]*BasicHistogram
	meta       map[string]InstrumentConfig
}

// NewBasicProvider constructs an empty BasicProvider.
func NewBasicProvider() *BasicProvider {
	return &BasicProvider{
		counters:   make(map[string]*BasicCounter),
		updowns:    make(map[string]*BasicCounter),
		histograms: make(map[string]*BasicHistogram),
		meta:       make(map[string]InstrumentConfig),
	}
}

// lookup returns m[name], creating it with mk under the write lock when missing.
func lookup[T any](p *BasicProvider, m map[string]T, name string, opts []InstrumentOption, mk func() T) T {
	p.mu.RLock()
	v, ok := m[name]
	p.mu.RUnlock()
	if ok {
		return v
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// re-check after acquiring write lock
	if v, ok = m[name]; ok {
		return v
	}
	p.meta[name] = applyOptions(opts)
	v = mk()
	m[name] = v
	return v
}

// Counter returns the monotonic counter registered under name.
func (p *BasicProvider) Counter(name string, opts ...InstrumentOption) Counter {
	return lookup(p, p.counters, name, opts, func() *BasicCounter { return &BasicCounter{} })
}

// UpDownCounter returns the up/down counter registered under name.
func (p *BasicProvider) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	return lookup(p, p.updowns, name, opts, func() *BasicCounter { return &BasicCounter{} })
}

// Histogram returns the histogram registered under name.
func (p *BasicProvider) Histogram(name string, opts ...InstrumentOption) Histogram {
	return lookup(p, p.histograms, name, opts, func() *BasicHistogram { return &BasicHistogram{} })
}

// Describe returns the metadata an instrument was registered with.
func (p *BasicProvider) Describe(name string) (InstrumentConfig, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cfg, ok := p.meta[name]
	return cfg, ok
}

// Snapshot is a point-in-time copy of every instrument of a BasicProvider.
type Snapshot struct {
	Counters   map[string]int64
	UpDowns    map[string]int64
	Histograms map[string]HistSnapshot
}

// Snapshot copies the current value of every instrument.
func (p *BasicProvider) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := Snapshot{
		Counters:   make(map[string]int64, len(p.counters)),
		UpDowns:    make(map[string]int64, len(p.updowns)),
		Histograms: make(map[string]HistSnapshot, len(p.histograms)),
	}
	for name, c := range p.counters {
		s.Counters[name] = c.Value()
	}
	for name, u := range p.updowns {
		s.UpDowns[name] = u.Value()
	}
	for name, h := range p.histograms {
		s.Histograms[name] = h.Snapshot()
	}
	return s
}

// BasicCounter backs both counters and up/down counters.
type BasicCounter struct {
	val atomic.Int64
}

// Add adds n to the current value.
func (c *BasicCounter) Add(n int64) { c.val.Add(n) }

// Value returns the current value.
func (c *BasicCounter) Value() int64 { return c.val.Load() }

// BasicHistogram tracks count, sum, min and max. It keeps no buckets.
type BasicHistogram struct {
	mu    sync.Mutex
	count int64
	sum   float64
	min   float64
	max   float64
}

// Record adds a measurement.
func (h *BasicHistogram) Record(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 || v < h.min {
		h.min = v
	}
	if h.count == 0 || v > h.max {
		h.max = v
	}
	h.count++
	h.sum += v
}

// HistSnapshot is an immutable copy of a BasicHistogram.
type HistSnapshot struct {
	Count int64
	Sum   float64
	Min   float64
	Max   float64
	Mean  float64
}

// Snapshot returns a copy of the histogram state at the time of call.
func (h *BasicHistogram) Snapshot() HistSnapshot {
	h.mu.Lock()
	s := HistSnapshot{Count: h.count, Sum: h.sum, Min: h.min, Max: h.max}
	h.mu.Unlock()

	if s.Count > 0 {
		s.Mean = s.Sum / float64(s.Count)
	}
	return s
}
