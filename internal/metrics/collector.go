// Package metrics provides in-memory timing statistics for pipeline stages.
package metrics

import (
	"math"
	"sync"
	"time"
)

// StageMetrics holds aggregated timings for a single pipeline stage.
type StageMetrics struct {
	Count     int64
	Failures  int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// StageSnapshot provides computed stats from raw metrics.
type StageSnapshot struct {
	Count       int64   `json:"count"`
	Failures    int64   `json:"failures"`
	TotalTimeMs int64   `json:"totalTimeMs"`
	AvgTimeMs   float64 `json:"avgTimeMs"`
	MinTimeMs   int64   `json:"minTimeMs"`
	MaxTimeMs   int64   `json:"maxTimeMs"`
}

// Snapshot represents the full service statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64        `json:"uptimeSeconds"`
	Crawl         *StageSnapshot `json:"crawl,omitempty"`
	Extract       *StageSnapshot `json:"extract,omitempty"`
	Analyze       *StageSnapshot `json:"analyze,omitempty"`
	Pipeline      *StageSnapshot `json:"pipeline,omitempty"`
}

// Stage names for the collector.
const (
	StageCrawl    = "crawl"
	StageExtract  = "extract"
	StageAnalyze  = "analyze"
	StagePipeline = "pipeline"
)

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	stages    map[string]*StageMetrics
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		stages:    make(map[string]*StageMetrics),
	}
}

// getOrCreate returns existing metrics or creates new ones for a stage.
// Caller must hold write lock.
func (c *Collector) getOrCreate(stage string) *StageMetrics {
	m, ok := c.stages[stage]
	if !ok {
		m = &StageMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.stages[stage] = m
	}
	return m
}

// RecordTiming records a successful run of a stage.
func (c *Collector) RecordTiming(stage string, duration time.Duration) {
	c.record(stage, duration, false)
}

// RecordFailure records a failed run of a stage, still counting its duration.
func (c *Collector) RecordFailure(stage string, duration time.Duration) {
	c.record(stage, duration, true)
}

func (c *Collector) record(stage string, duration time.Duration, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(stage)
	m.Count++
	if failed {
		m.Failures++
	}
	m.TotalTime += duration

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// snapshotStage creates a snapshot for a stage, returning nil if no data.
func snapshotStage(m *StageMetrics) *StageSnapshot {
	if m == nil || m.Count == 0 {
		return nil
	}
	return &StageSnapshot{
		Count:       m.Count,
		Failures:    m.Failures,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   m.MinTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
	}
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		Crawl:         snapshotStage(c.stages[StageCrawl]),
		Extract:       snapshotStage(c.stages[StageExtract]),
		Analyze:       snapshotStage(c.stages[StageAnalyze]),
		Pipeline:      snapshotStage(c.stages[StagePipeline]),
	}
}
