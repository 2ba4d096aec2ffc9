// Package metrics adapts the teacher's MetricsCollector (per-workflow/per-node
// counters plus an AIMetrics block) into per-analyzer counters for the
// analysis pipeline: cells ready, cells failed (by kind), host terminations,
// and inference latency. One Collector is constructed per Driver.Run call.
package metrics

import (
	"sync"
	"time"

	"github.com/sentimentomatic/engine/internal/domain"
)

// AnalyzerMetrics mirrors the teacher's NodeMetrics shape (counts plus
// min/max/average duration) narrowed to one analyzer column.
type AnalyzerMetrics struct {
	AnalyzerID      domain.AnalyzerID
	CellsReady      int
	CellsFailed     int
	FailuresByKind  map[domain.ErrorKind]int
	TotalLatency    time.Duration
	MinLatency      time.Duration
	MaxLatency      time.Duration
}

func (m *AnalyzerMetrics) averageLatency() time.Duration {
	n := m.CellsReady + m.CellsFailed
	if n == 0 {
		return 0
	}
	return m.TotalLatency / time.Duration(n)
}

// Collector accumulates metrics for a single plan run. Safe for concurrent
// use from multiple rule-column worker goroutines.
type Collector struct {
	mu               sync.Mutex
	perAnalyzer      map[domain.AnalyzerID]*AnalyzerMetrics
	hostTerminations int
}

// New constructs an empty Collector.
func New() *Collector {
	return &Collector{perAnalyzer: make(map[domain.AnalyzerID]*AnalyzerMetrics)}
}

func (c *Collector) entry(id domain.AnalyzerID) *AnalyzerMetrics {
	m, ok := c.perAnalyzer[id]
	if !ok {
		m = &AnalyzerMetrics{AnalyzerID: id, FailuresByKind: make(map[domain.ErrorKind]int)}
		c.perAnalyzer[id] = m
	}
	return m
}

// RecordCell records one terminal cell write for analyzerID, with the
// wall-clock duration the cell took to compute.
func (c *Collector) RecordCell(analyzerID domain.AnalyzerID, cell domain.CellResult, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.entry(analyzerID)
	switch cell.State {
	case domain.CellReady:
		m.CellsReady++
	case domain.CellFailed:
		m.CellsFailed++
		m.FailuresByKind[cell.ErrorKind]++
	}

	if m.MinLatency == 0 || duration < m.MinLatency {
		m.MinLatency = duration
	}
	if duration > m.MaxLatency {
		m.MaxLatency = duration
	}
	m.TotalLatency += duration
}

// RecordHostTermination increments the plan-wide host termination count.
func (c *Collector) RecordHostTermination() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hostTerminations++
}

// Summary rolls the per-analyzer counters into the end-of-plan domain.Summary
// fields the driver reports to its caller.
func (c *Collector) Summary() (completed, failed, hostTerminations int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.perAnalyzer {
		completed += m.CellsReady
		failed += m.CellsFailed
	}
	return completed, failed, c.hostTerminations
}

// AnalyzerSnapshot returns a copy of the per-analyzer metrics, keyed by
// analyzer ID, safe to retain after the collector keeps mutating.
func (c *Collector) AnalyzerSnapshot() map[domain.AnalyzerID]AnalyzerMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[domain.AnalyzerID]AnalyzerMetrics, len(c.perAnalyzer))
	for id, m := range c.perAnalyzer {
		cp := *m
		cp.FailuresByKind = make(map[domain.ErrorKind]int, len(m.FailuresByKind))
		for k, v := range m.FailuresByKind {
			cp.FailuresByKind[k] = v
		}
		out[id] = cp
	}
	return out
}

// AverageLatency reports the mean per-cell duration observed for analyzerID,
// zero if no cells have completed yet.
func (c *Collector) AverageLatency(analyzerID domain.AnalyzerID) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.perAnalyzer[analyzerID]
	if !ok {
		return 0
	}
	return m.averageLatency()
}
