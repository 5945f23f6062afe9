package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestIncAndSnapshot(t *testing.T) {
	m := New(Config{Enabled: true})

	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLogout)
	m.Inc(MetricIDCount)     // out of range, ignored
	m.Inc(MetricIDCount + 5) // out of range, ignored

	snap := m.Snapshot()
	if snap.Counters[MetricLoginSuccess] != 2 {
		t.Errorf("login success: got %d", snap.Counters[MetricLoginSuccess])
	}
	if snap.Counters[MetricLogout] != 1 {
		t.Errorf("logout: got %d", snap.Counters[MetricLogout])
	}
	if _, ok := snap.Counters[MetricLoginFailure]; ok {
		t.Error("zero counters must be omitted from the snapshot")
	}
}

func TestDisabledMetricsAreNoOps(t *testing.T) {
	m := New(Config{})

	m.Inc(MetricLoginSuccess)
	m.Observe(MetricLoadLatency, time.Millisecond)

	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Errorf("disabled metrics recorded data: %+v", snap)
	}
	if m.LatencyEnabled() {
		t.Error("latency must be disabled")
	}

	var nilMetrics *Metrics
	nilMetrics.Inc(MetricLoginSuccess)
	nilMetrics.Observe(MetricLoadLatency, time.Millisecond)
	_ = nilMetrics.Snapshot()
}

func TestLatencyHistogramBuckets(t *testing.T) {
	m := New(Config{Enabled: true, EnableLatency: true})
	if !m.LatencyEnabled() {
		t.Fatal("latency must be enabled")
	}

	m.Observe(MetricLoadLatency, 500*time.Microsecond) // bucket 0 (≤1ms)
	m.Observe(MetricLoadLatency, 3*time.Millisecond)   // bucket 1 (≤5ms)
	m.Observe(MetricLoadLatency, time.Second)          // bucket 7 (+Inf)
	m.Observe(MetricLoginSuccess, time.Millisecond)    // wrong ID, ignored

	hist := m.Snapshot().Histograms[MetricLoadLatency]
	if len(hist) != 8 {
		t.Fatalf("bucket count: got %d", len(hist))
	}
	if hist[0] != 1 || hist[1] != 1 || hist[7] != 1 {
		t.Errorf("buckets: got %v", hist)
	}
	var total uint64
	for _, v := range hist {
		total += v
	}
	if total != 3 {
		t.Errorf("total observations: got %d", total)
	}
}

func TestConcurrentIncrements(t *testing.T) {
	m := New(Config{Enabled: true})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.Inc(MetricSessionSaved)
			}
		}()
	}
	wg.Wait()

	if got := m.Snapshot().Counters[MetricSessionSaved]; got != 8000 {
		t.Errorf("counter: got %d, want 8000", got)
	}
}
