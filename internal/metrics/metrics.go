// Package metrics provides lock-free counters and a load-latency histogram
// for sessionkit observability.
//
// Counters live in cache-line-padded uint64 slots incremented atomically.
// The histogram uses 8 fixed buckets (≤1ms … +Inf). Both are
// allocation-free on the write path. This package owns storage and snapshot
// creation only; it performs no I/O and imports no sibling package.
package metrics

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one counter or histogram slot.
type MetricID uint8

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricRegisterSuccess
	MetricRegisterConflict
	MetricPasswordChangeSuccess
	MetricPasswordChangeInvalidOld
	MetricLogout
	MetricSessionSaved
	MetricSessionRestored
	MetricSessionExpired
	MetricTierReadFailure
	MetricTierWriteFailure
	MetricForceRestoreSuccess
	MetricForceRestoreFailure
	MetricHealthUnhealthy
	MetricSignalSave
	MetricLoadLatency

	// MetricIDCount is the number of defined metric IDs.
	MetricIDCount
)

var latencyBucketBounds = []time.Duration{
	time.Millisecond,
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	// final bucket is +Inf
}

const histogramBuckets = 8

// Config controls which subsystems record anything. With Enabled false every
// operation is a no-op.
type Config struct {
	Enabled       bool
	EnableLatency bool
}

type paddedCounter struct {
	value atomic.Uint64
	_     [56]byte
}

// Metrics holds the counter slots and the optional latency histogram.
type Metrics struct {
	enabled bool
	latency bool

	counters [MetricIDCount]paddedCounter
	buckets  [histogramBuckets]atomic.Uint64
}

// Snapshot is a point-in-time deep copy of all metrics.
type Snapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// New creates a Metrics instance configured by cfg.
func New(cfg Config) *Metrics {
	return &Metrics{
		enabled: cfg.Enabled,
		latency: cfg.Enabled && cfg.EnableLatency,
	}
}

// Inc adds one to the counter slot for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	m.counters[id].value.Add(1)
}

// LatencyEnabled reports whether Observe records anything.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.latency
}

// Observe records d into the latency histogram. Only MetricLoadLatency
// carries a histogram; other IDs are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.latency || id != MetricLoadLatency {
		return
	}
	bucket := len(latencyBucketBounds)
	for i, bound := range latencyBucketBounds {
		if d <= bound {
			bucket = i
			break
		}
	}
	m.buckets[bucket].Add(1)
}

// Snapshot copies every non-zero counter and the histogram, when enabled.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Counters:   make(map[MetricID]uint64),
		Histograms: make(map[MetricID][]uint64),
	}
	if m == nil || !m.enabled {
		return snap
	}

	for id := MetricID(0); id < MetricIDCount; id++ {
		if v := m.counters[id].value.Load(); v != 0 {
			snap.Counters[id] = v
		}
	}
	if m.latency {
		hist := make([]uint64, histogramBuckets)
		for i := range m.buckets {
			hist[i] = m.buckets[i].Load()
		}
		snap.Histograms[MetricLoadLatency] = hist
	}
	return snap
}
