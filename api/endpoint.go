// File: api/endpoint.go
// Package api defines the network endpoint contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import (
	"sync/atomic"
	"time"
)

// SocketHandler is the endpoint-facing entry point of the connection
// handler. The endpoint's worker pool invokes Process when data arrives on
// a fresh or ordinary-polled socket, and Event when the asynchronous poller
// fires for a suspended one. Calls for different sockets are concurrent.
type SocketHandler interface {
	Process(socket Socket) SocketState
	Event(socket Socket, status SocketStatus) SocketState
}

// Poller is the endpoint's ordinary read poller. A socket added here is
// handed back to Process when more data arrives.
type Poller interface {
	Add(socket Socket) error
}

// EventPoller is the endpoint's asynchronous poller for suspended
// connections. The resume flag lets application code trigger delivery of a
// StatusResume without new socket activity.
type EventPoller interface {
	Add(socket Socket, timeout time.Duration, read, write bool, resume *atomic.Bool, errorInterest bool) error
}

// Endpoint abstracts the OS-level socket acceptor and multiplexer. The
// engine drives its lifecycle and arms its pollers; it never performs
// socket I/O itself.
type Endpoint interface {
	Init() error
	Start() error
	Pause() error
	Resume() error
	Destroy() error

	// Running reports whether the endpoint accepts and dispatches work.
	Running() bool

	// SetHandler binds the connection handler before Init.
	SetHandler(h SocketHandler)

	Poller() Poller
	EventPoller() EventPoller

	// Addr and Port identify the listening side, used for handler naming.
	Addr() string
	Port() int
}
