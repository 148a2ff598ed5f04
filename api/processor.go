// File: api/processor.go
// Package api defines the per-connection protocol processor contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import (
	"regexp"
	"sync"
	"sync/atomic"
	"time"
)

// Stage is the coarse processing stage a processor is currently in.
// The lifecycle drain loop only cares about StageService.
type Stage int32

const (
	StageNew Stage = iota
	StageParse
	StageService
	StageKeepAlive
	StageEnded
)

func (s Stage) String() string {
	switch s {
	case StageNew:
		return "new"
	case StageParse:
		return "parse"
	case StageService:
		return "service"
	case StageKeepAlive:
		return "keepalive"
	case StageEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// StageInfo is one element of a RequestStats snapshot.
type StageInfo struct {
	Stage Stage
}

// Processor owns one connection's AJP protocol state machine. A processor is
// exclusively owned by at most one goroutine at a time; callers must hold
// RequestLock for the duration of Process or Event. It is never bound to two
// sockets simultaneously.
type Processor interface {
	// Process runs the next synchronous protocol step for the socket.
	Process(socket Socket) (SocketState, error)

	// Event replays an asynchronous poller event into a suspended processor.
	Event(socket Socket, status SocketStatus) (SocketState, error)

	// RequestLock is the per-processor exclusion lock, keyed on the
	// processor's embedded request object. It serializes Process/Event for
	// the socket the processor is bound to.
	RequestLock() sync.Locker

	// Timeout is the asynchronous wait timeout armed when the connection
	// suspends.
	Timeout() time.Duration

	// ResumeFlag is the resume-notification handle passed to the event
	// poller when arming an asynchronous wait.
	ResumeFlag() *atomic.Bool

	// Stage reports the current processing stage.
	Stage() Stage
}

// ProcessorConfig is the construction-time configuration for a processor.
type ProcessorConfig struct {
	// PacketSize is the maximum AJP packet size.
	PacketSize int

	// Endpoint the processor writes responses through.
	Endpoint Endpoint

	// Adapter servicing parsed requests.
	Adapter Adapter

	// ContainerAuth selects authentication in the container instead of the
	// fronting web server.
	ContainerAuth bool

	// RequiredSecret, when non-empty, must accompany every forwarded request.
	RequiredSecret string

	// AllowedRequestAttributes filters which request attributes the fronting
	// server may forward. Nil allows none beyond the builtin set.
	AllowedRequestAttributes *regexp.Regexp
}

// ProcessorFactory constructs a fresh processor. It never fails and never
// blocks; construction side effects (stats attachment, management
// registration) are owned by the processor pool, not the factory. Produced
// processors must reset any per-request state at the start of Process, since
// a recycled processor may have previously failed mid-request.
type ProcessorFactory func(cfg ProcessorConfig) Processor

// Adapter services parsed requests on behalf of the connector. The engine
// only threads it through to processor construction.
type Adapter interface {
	Service(socket Socket) error
}

// RequestStats aggregates per-processor state for one protocol handler
// instance. The lifecycle controller reads Snapshot during drain to decide
// whether any processor is still mid-request.
type RequestStats interface {
	Attach(p Processor)
	Detach(p Processor)
	Snapshot() []StageInfo
}
