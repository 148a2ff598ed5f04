// File: protocol/pool.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded recycler of idle processors. Pooling exists because constructing
// a processor and its registration side effects is expensive relative to
// per-connection lifetime; the capacity bound keeps a connection storm from
// growing the idle set without limit.

package protocol

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/momentics/hioload-ajp/api"
)

// ProcessorPool recycles idle processors up to a fixed capacity. A capacity
// of -1 means unbounded. Every processor created through Acquire is attached
// to the global request stats and registered with the management sink; every
// processor discarded by Release overflow or Drain is detached and
// unregistered exactly once.
type ProcessorPool struct {
	mu   sync.Mutex
	idle *queue.Queue

	size     atomic.Int32
	created  atomic.Uint64
	capacity int

	factory api.ProcessorFactory
	cfg     api.ProcessorConfig
	global  api.RequestStats
	sink    api.ManagementSink
	log     *zap.Logger

	namePrefix string
	seq        atomic.Uint64
	names      map[api.Processor]string
}

var _ prometheus.Collector = (*ProcessorPool)(nil)

// NewProcessorPool builds a pool creating processors via factory(cfg).
func NewProcessorPool(capacity int, factory api.ProcessorFactory, cfg api.ProcessorConfig,
	global api.RequestStats, sink api.ManagementSink, namePrefix string, log *zap.Logger) *ProcessorPool {
	if sink == nil {
		sink = api.NopSink{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ProcessorPool{
		idle:       queue.New(),
		capacity:   capacity,
		factory:    factory,
		cfg:        cfg,
		global:     global,
		sink:       sink,
		log:        log,
		namePrefix: namePrefix,
		names:      make(map[api.Processor]string),
	}
}

// Acquire returns a recycled idle processor or constructs a new one. It
// never blocks and never fails.
func (pp *ProcessorPool) Acquire() api.Processor {
	pp.mu.Lock()
	if pp.idle.Length() > 0 {
		p := pp.idle.Remove().(api.Processor)
		pp.size.Add(-1)
		pp.mu.Unlock()
		return p
	}
	pp.mu.Unlock()
	return pp.create()
}

// Release attempts to return p to the idle set. Accepted only while the
// idle occupancy is below capacity (or always, when capacity is -1). A
// rejected processor is unregistered and dropped. Reports retention.
func (pp *ProcessorPool) Release(p api.Processor) bool {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	if pp.capacity != -1 && int(pp.size.Load()) >= pp.capacity {
		pp.unregisterLocked(p)
		return false
	}
	pp.idle.Add(p)
	pp.size.Add(1)
	return true
}

// Drain removes and unregisters every idle processor. Used at shutdown.
func (pp *ProcessorPool) Drain() {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	for pp.idle.Length() > 0 {
		p := pp.idle.Remove().(api.Processor)
		pp.size.Add(-1)
		pp.unregisterLocked(p)
	}
}

// Len returns the idle occupancy.
func (pp *ProcessorPool) Len() int {
	return int(pp.size.Load())
}

// Created returns how many processors this pool has constructed.
func (pp *ProcessorPool) Created() uint64 {
	return pp.created.Load()
}

func (pp *ProcessorPool) create() api.Processor {
	p := pp.factory(pp.cfg)
	pp.created.Add(1)
	pp.global.Attach(p)

	name := fmt.Sprintf("%s-request-%d", pp.namePrefix, pp.seq.Add(1))
	if err := pp.sink.Register(name, p); err != nil {
		// Management visibility is optional; the processor serves anyway.
		pp.log.Warn("processor registration failed",
			zap.String("name", name), zap.Error(err))
		return p
	}
	pp.mu.Lock()
	pp.names[p] = name
	pp.mu.Unlock()
	return p
}

// unregisterLocked detaches and unregisters a discarded processor. The name
// table guarantees the sink sees at most one unregister per processor.
func (pp *ProcessorPool) unregisterLocked(p api.Processor) {
	pp.global.Detach(p)
	name, ok := pp.names[p]
	if !ok {
		return
	}
	delete(pp.names, p)
	if err := pp.sink.Unregister(name); err != nil {
		pp.log.Warn("processor unregistration failed",
			zap.String("name", name), zap.Error(err))
	}
}

var (
	poolIdleDesc = prometheus.NewDesc(
		"ajp_pool_idle_processors",
		"Idle processors currently retained by the pool.",
		nil, nil,
	)
	poolCreatedDesc = prometheus.NewDesc(
		"ajp_pool_created_total",
		"Processors constructed by the pool.",
		nil, nil,
	)
)

// Describe implements prometheus.Collector.
func (pp *ProcessorPool) Describe(ch chan<- *prometheus.Desc) {
	ch <- poolIdleDesc
	ch <- poolCreatedDesc
}

// Collect implements prometheus.Collector.
func (pp *ProcessorPool) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(poolIdleDesc, prometheus.GaugeValue, float64(pp.Len()))
	ch <- prometheus.MustNewConstMetric(poolCreatedDesc, prometheus.CounterValue, float64(pp.created.Load()))
}
