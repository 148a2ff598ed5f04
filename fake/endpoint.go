// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-ajp/api"
)

// EventArm records one asynchronous-poller arming.
type EventArm struct {
	Socket        api.Socket
	Timeout       time.Duration
	Read, Write   bool
	Resume        *atomic.Bool
	ErrorInterest bool
}

// Endpoint is a recording api.Endpoint. Lifecycle errors are injectable per
// call; poller armings are captured for assertions.
type Endpoint struct {
	mu      sync.Mutex
	handler api.SocketHandler
	running atomic.Bool

	addr string
	port int

	InitErr    error
	StartErr   error
	PauseErr   error
	ResumeErr  error
	DestroyErr error

	InitCalls    int
	StartCalls   int
	PauseCalls   int
	ResumeCalls  int
	DestroyCalls int

	poller      recordingPoller
	eventPoller recordingEventPoller
}

var _ api.Endpoint = (*Endpoint)(nil)

// NewEndpoint returns an endpoint listening on a fixed fake address.
func NewEndpoint() *Endpoint {
	return &Endpoint{addr: "0.0.0.0", port: 8009}
}

func (e *Endpoint) Init() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.InitCalls++
	return e.InitErr
}

func (e *Endpoint) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.StartCalls++
	if e.StartErr != nil {
		return e.StartErr
	}
	e.running.Store(true)
	return nil
}

func (e *Endpoint) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.PauseCalls++
	if e.PauseErr != nil {
		return e.PauseErr
	}
	e.running.Store(false)
	return nil
}

func (e *Endpoint) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ResumeCalls++
	if e.ResumeErr != nil {
		return e.ResumeErr
	}
	e.running.Store(true)
	return nil
}

func (e *Endpoint) Destroy() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.DestroyCalls++
	if e.DestroyErr != nil {
		return e.DestroyErr
	}
	e.running.Store(false)
	return nil
}

func (e *Endpoint) Running() bool { return e.running.Load() }

// SetRunning forces the running flag, bypassing lifecycle.
func (e *Endpoint) SetRunning(v bool) { e.running.Store(v) }

func (e *Endpoint) SetHandler(h api.SocketHandler) {
	e.mu.Lock()
	e.handler = h
	e.mu.Unlock()
}

// Handler returns the bound connection handler.
func (e *Endpoint) Handler() api.SocketHandler {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handler
}

func (e *Endpoint) Poller() api.Poller           { return &e.poller }
func (e *Endpoint) EventPoller() api.EventPoller { return &e.eventPoller }

func (e *Endpoint) Addr() string { return e.addr }
func (e *Endpoint) Port() int    { return e.port }

// PollAdds returns the sockets re-armed on the ordinary poller.
func (e *Endpoint) PollAdds() []api.Socket {
	return e.poller.snapshot()
}

// EventArms returns the asynchronous-poller armings in order.
func (e *Endpoint) EventArms() []EventArm {
	return e.eventPoller.snapshot()
}

type recordingPoller struct {
	mu   sync.Mutex
	adds []api.Socket
}

func (p *recordingPoller) Add(s api.Socket) error {
	p.mu.Lock()
	p.adds = append(p.adds, s)
	p.mu.Unlock()
	return nil
}

func (p *recordingPoller) snapshot() []api.Socket {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]api.Socket, len(p.adds))
	copy(out, p.adds)
	return out
}

type recordingEventPoller struct {
	mu   sync.Mutex
	arms []EventArm
}

func (p *recordingEventPoller) Add(s api.Socket, timeout time.Duration, read, write bool, resume *atomic.Bool, errorInterest bool) error {
	p.mu.Lock()
	p.arms = append(p.arms, EventArm{
		Socket:        s,
		Timeout:       timeout,
		Read:          read,
		Write:         write,
		Resume:        resume,
		ErrorInterest: errorInterest,
	})
	p.mu.Unlock()
	return nil
}

func (p *recordingEventPoller) snapshot() []EventArm {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EventArm, len(p.arms))
	copy(out, p.arms)
	return out
}
