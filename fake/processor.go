// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-ajp/api"
)

// Step is one scripted Process/Event outcome.
type Step struct {
	State api.SocketState
	Err   error
}

// Processor is a scriptable api.Processor for testing the engine. Steps are
// consumed in FIFO order by Process and Event alike; when the script runs
// out, calls return StateClosed. ProcessFunc/EventFunc override scripting
// entirely when set.
type Processor struct {
	mu sync.Mutex // handed to the engine as the request lock

	stepMu   sync.Mutex
	steps    []Step
	statuses []api.SocketStatus

	stage   atomic.Int32
	timeout time.Duration
	resume  atomic.Bool

	ProcessFunc func(api.Socket) (api.SocketState, error)
	EventFunc   func(api.Socket, api.SocketStatus) (api.SocketState, error)

	ProcessCalls atomic.Int32
	EventCalls   atomic.Int32
}

var _ api.Processor = (*Processor)(nil)

// NewProcessor returns a processor that closes every connection.
func NewProcessor() *Processor {
	return &Processor{timeout: 30 * time.Second}
}

// Factory is an api.ProcessorFactory producing unscripted processors.
func Factory(api.ProcessorConfig) api.Processor { return NewProcessor() }

// Script appends steps to the scripted outcome queue.
func (p *Processor) Script(steps ...Step) *Processor {
	p.stepMu.Lock()
	p.steps = append(p.steps, steps...)
	p.stepMu.Unlock()
	return p
}

func (p *Processor) next() Step {
	p.stepMu.Lock()
	defer p.stepMu.Unlock()
	if len(p.steps) == 0 {
		return Step{State: api.StateClosed}
	}
	s := p.steps[0]
	p.steps = p.steps[1:]
	return s
}

func (p *Processor) Process(socket api.Socket) (api.SocketState, error) {
	p.ProcessCalls.Add(1)
	if p.ProcessFunc != nil {
		return p.ProcessFunc(socket)
	}
	s := p.next()
	return s.State, s.Err
}

func (p *Processor) Event(socket api.Socket, status api.SocketStatus) (api.SocketState, error) {
	p.EventCalls.Add(1)
	p.stepMu.Lock()
	p.statuses = append(p.statuses, status)
	p.stepMu.Unlock()
	if p.EventFunc != nil {
		return p.EventFunc(socket, status)
	}
	s := p.next()
	return s.State, s.Err
}

// Statuses returns the statuses replayed into the processor so far.
func (p *Processor) Statuses() []api.SocketStatus {
	p.stepMu.Lock()
	defer p.stepMu.Unlock()
	out := make([]api.SocketStatus, len(p.statuses))
	copy(out, p.statuses)
	return out
}

func (p *Processor) RequestLock() sync.Locker { return &p.mu }

func (p *Processor) Timeout() time.Duration { return p.timeout }

// SetTimeout overrides the suspension timeout reported to the engine.
func (p *Processor) SetTimeout(d time.Duration) { p.timeout = d }

func (p *Processor) ResumeFlag() *atomic.Bool { return &p.resume }

func (p *Processor) Stage() api.Stage { return api.Stage(p.stage.Load()) }

// SetStage moves the processor into the given stage.
func (p *Processor) SetStage(s api.Stage) { p.stage.Store(int32(s)) }
