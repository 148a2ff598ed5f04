// File: stats/stats.go
// Package stats aggregates per-processor state for one protocol handler.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Group is the engine's global request stats: every processor the pool
// creates is attached here and detached on disposal. The lifecycle
// controller snapshots it during drain to see which processors are still
// mid-service, and the connection handler feeds outcome counters into it.

package stats

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/momentics/hioload-ajp/api"
)

// Group tracks attached processors and aggregate outcome counters.
type Group struct {
	mu    sync.RWMutex
	procs map[api.Processor]struct{}

	processed  atomic.Uint64
	transient  atomic.Uint64
	unexpected atomic.Uint64
}

var (
	_ api.RequestStats     = (*Group)(nil)
	_ prometheus.Collector = (*Group)(nil)
)

// NewGroup returns an empty stats group.
func NewGroup() *Group {
	return &Group{procs: make(map[api.Processor]struct{})}
}

// Attach starts tracking a processor.
func (g *Group) Attach(p api.Processor) {
	g.mu.Lock()
	g.procs[p] = struct{}{}
	g.mu.Unlock()
}

// Detach stops tracking a processor. Detaching an unknown processor is a
// no-op.
func (g *Group) Detach(p api.Processor) {
	g.mu.Lock()
	delete(g.procs, p)
	g.mu.Unlock()
}

// Attached returns the number of tracked processors.
func (g *Group) Attached() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.procs)
}

// Snapshot reports the current stage of every tracked processor.
func (g *Group) Snapshot() []api.StageInfo {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]api.StageInfo, 0, len(g.procs))
	for p := range g.procs {
		out = append(out, api.StageInfo{Stage: p.Stage()})
	}
	return out
}

// RecordProcessed counts one completed processor step.
func (g *Group) RecordProcessed() { g.processed.Add(1) }

// RecordTransientError counts an expected transport-level failure.
func (g *Group) RecordTransientError() { g.transient.Add(1) }

// RecordUnexpectedError counts a failure outside the transport taxonomy.
func (g *Group) RecordUnexpectedError() { g.unexpected.Add(1) }

// Processed returns the completed step count.
func (g *Group) Processed() uint64 { return g.processed.Load() }

// TransientErrors returns the transient failure count.
func (g *Group) TransientErrors() uint64 { return g.transient.Load() }

// UnexpectedErrors returns the unexpected failure count.
func (g *Group) UnexpectedErrors() uint64 { return g.unexpected.Load() }

var (
	processedDesc = prometheus.NewDesc(
		"ajp_steps_processed_total",
		"Completed processor steps (process and event calls).",
		nil, nil,
	)
	transientDesc = prometheus.NewDesc(
		"ajp_transport_errors_total",
		"Expected transport-level failures (reset, broken pipe).",
		nil, nil,
	)
	unexpectedDesc = prometheus.NewDesc(
		"ajp_unexpected_errors_total",
		"Processor failures outside the transport taxonomy.",
		nil, nil,
	)
	attachedDesc = prometheus.NewDesc(
		"ajp_processors_attached",
		"Processors currently tracked by the stats group.",
		nil, nil,
	)
	activeDesc = prometheus.NewDesc(
		"ajp_processors_in_service",
		"Tracked processors currently in the service stage.",
		nil, nil,
	)
)

// Describe implements prometheus.Collector.
func (g *Group) Describe(ch chan<- *prometheus.Desc) {
	ch <- processedDesc
	ch <- transientDesc
	ch <- unexpectedDesc
	ch <- attachedDesc
	ch <- activeDesc
}

// Collect implements prometheus.Collector.
func (g *Group) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(processedDesc, prometheus.CounterValue, float64(g.processed.Load()))
	ch <- prometheus.MustNewConstMetric(transientDesc, prometheus.CounterValue, float64(g.transient.Load()))
	ch <- prometheus.MustNewConstMetric(unexpectedDesc, prometheus.CounterValue, float64(g.unexpected.Load()))

	active := 0
	for _, info := range g.Snapshot() {
		if info.Stage == api.StageService {
			active++
		}
	}
	ch <- prometheus.MustNewConstMetric(attachedDesc, prometheus.GaugeValue, float64(g.Attached()))
	ch <- prometheus.MustNewConstMetric(activeDesc, prometheus.GaugeValue, float64(active))
}
