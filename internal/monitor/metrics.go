package monitor

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// Metrics is an in-process registry of counters, gauges, and latency
// histograms for the trading pipeline.
type Metrics struct {
	mu       sync.RWMutex
	counters map[string]*Counter
	gauges   map[string]*Gauge

	// TickLatency tracks end-to-end per-bar processing time.
	TickLatency *LatencyHistogram

	started time.Time
}

// NewMetrics creates an empty registry.
func NewMetrics() *Metrics {
	return &Metrics{
		counters:    make(map[string]*Counter),
		gauges:      make(map[string]*Gauge),
		TickLatency: NewLatencyHistogram(1000),
		started:     time.Now(),
	}
}

// Counter is a monotonically increasing metric.
type Counter struct {
	name string
	help string

	mu    sync.Mutex
	value float64
}

func (c *Counter) Inc() { c.Add(1) }

func (c *Counter) Add(amount float64) {
	c.mu.Lock()
	c.value += amount
	c.mu.Unlock()
}

func (c *Counter) Value() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Gauge is a metric that can move in both directions.
type Gauge struct {
	name string
	help string

	mu    sync.Mutex
	value float64
}

func (g *Gauge) Set(value float64) {
	g.mu.Lock()
	g.value = value
	g.mu.Unlock()
}

func (g *Gauge) Value() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}

// Counter returns the named counter, registering it on first use.
func (m *Metrics) Counter(name, help string) *Counter {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.counters[name]; ok {
		return c
	}
	c := &Counter{name: name, help: help}
	m.counters[name] = c
	return c
}

// Gauge returns the named gauge, registering it on first use.
func (m *Metrics) Gauge(name, help string) *Gauge {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.gauges[name]; ok {
		return g
	}
	g := &Gauge{name: name, help: help}
	m.gauges[name] = g
	return g
}

// Snapshot is a point-in-time view for the API.
type Snapshot struct {
	Counters       map[string]float64 `json:"counters"`
	Gauges         map[string]float64 `json:"gauges"`
	TickLatency    LatencyStats       `json:"tick_latency"`
	GoroutineCount int                `json:"goroutine_count"`
	HeapAlloc      uint64             `json:"heap_alloc_bytes"`
	UptimeSec      float64            `json:"uptime_sec"`
	Timestamp      time.Time          `json:"timestamp"`
}

// GetSnapshot collects all metric values plus runtime stats.
func (m *Metrics) GetSnapshot() Snapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	m.mu.RLock()
	counters := make(map[string]float64, len(m.counters))
	for name, c := range m.counters {
		counters[name] = c.Value()
	}
	gauges := make(map[string]float64, len(m.gauges))
	for name, g := range m.gauges {
		gauges[name] = g.Value()
	}
	m.mu.RUnlock()

	return Snapshot{
		Counters:       counters,
		Gauges:         gauges,
		TickLatency:    m.TickLatency.Stats(),
		GoroutineCount: runtime.NumGoroutine(),
		HeapAlloc:      memStats.HeapAlloc,
		UptimeSec:      time.Since(m.started).Seconds(),
		Timestamp:      time.Now(),
	}
}

// RenderPrometheus renders counters and gauges in Prometheus text exposition
// format.
func (m *Metrics) RenderPrometheus() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var b strings.Builder
	for _, name := range sortedKeys(m.counters) {
		c := m.counters[name]
		if c.help != "" {
			fmt.Fprintf(&b, "# HELP %s %s\n", name, c.help)
		}
		fmt.Fprintf(&b, "# TYPE %s counter\n%s %g\n", name, name, c.Value())
	}
	for _, name := range sortedKeys(m.gauges) {
		g := m.gauges[name]
		if g.help != "" {
			fmt.Fprintf(&b, "# HELP %s %s\n", name, g.help)
		}
		fmt.Fprintf(&b, "# TYPE %s gauge\n%s %g\n", name, name, g.Value())
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
