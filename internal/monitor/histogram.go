package monitor

import (
	"sort"
	"sync"
	"time"
)

// LatencyHistogram keeps the most recent samples in a fixed ring and computes
// percentile stats lazily, recomputing only when samples have changed.
type LatencyHistogram struct {
	mu     sync.Mutex
	ring   []float64
	head   int
	filled bool

	dirty  bool
	cached LatencyStats
}

// NewLatencyHistogram creates a sliding window histogram over size samples.
func NewLatencyHistogram(size int) *LatencyHistogram {
	if size <= 0 {
		size = 1000
	}
	return &LatencyHistogram{
		ring:  make([]float64, size),
		dirty: true,
	}
}

// Record adds a latency sample in milliseconds, evicting the oldest once the
// window is full.
func (h *LatencyHistogram) Record(latencyMs float64) {
	h.mu.Lock()
	h.ring[h.head] = latencyMs
	h.head++
	if h.head == len(h.ring) {
		h.head = 0
		h.filled = true
	}
	h.dirty = true
	h.mu.Unlock()
}

// RecordDuration converts duration to ms and records.
func (h *LatencyHistogram) RecordDuration(d time.Duration) {
	h.Record(float64(d.Nanoseconds()) / 1e6)
}

// LatencyStats holds computed latency statistics.
type LatencyStats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Count int     `json:"count"`
}

// Stats returns min, max, avg, p50, p95, p99 over the current window.
func (h *LatencyHistogram) Stats() LatencyStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.dirty {
		return h.cached
	}

	n := h.head
	if h.filled {
		n = len(h.ring)
	}
	if n == 0 {
		return LatencyStats{}
	}

	sorted := append([]float64(nil), h.ring[:n]...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	h.cached = LatencyStats{
		Min:   sorted[0],
		Max:   sorted[n-1],
		Avg:   sum / float64(n),
		P50:   sorted[n/2],
		P95:   sorted[int(float64(n)*0.95)],
		P99:   sorted[int(float64(n)*0.99)],
		Count: n,
	}
	h.dirty = false

	return h.cached
}

// Timer measures one operation's duration into a histogram.
type Timer struct {
	start     time.Time
	histogram *LatencyHistogram
}

// NewTimer starts a timer that records to the given histogram on Stop.
func NewTimer(h *LatencyHistogram) *Timer {
	return &Timer{start: time.Now(), histogram: h}
}

// Stop records elapsed time and returns it.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	if t.histogram != nil {
		t.histogram.RecordDuration(elapsed)
	}
	return elapsed
}
