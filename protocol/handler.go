// File: protocol/handler.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ConnectionHandler is the single entry point for "new data arrived" and
// "event fired" notifications from the endpoint's worker pool. It owns the
// pool/registry choreography: a processor either returns to the pool or
// stays parked in the connection registry awaiting an asynchronous event.

package protocol

import (
	"go.uber.org/zap"

	"github.com/momentics/hioload-ajp/api"
	"github.com/momentics/hioload-ajp/internal/registry"
	"github.com/momentics/hioload-ajp/stats"
)

// ConnectionHandler implements api.SocketHandler. Process and Event are
// invoked concurrently for different sockets; for one socket they are
// strictly serialized by the processor's request lock.
type ConnectionHandler struct {
	endpoint    api.Endpoint
	pool        *ProcessorPool
	connections *registry.ConnectionRegistry
	global      *stats.Group
	log         *zap.Logger
}

var _ api.SocketHandler = (*ConnectionHandler)(nil)

// NewConnectionHandler wires the handler to its collaborators.
func NewConnectionHandler(endpoint api.Endpoint, pool *ProcessorPool,
	connections *registry.ConnectionRegistry, global *stats.Group, log *zap.Logger) *ConnectionHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ConnectionHandler{
		endpoint:    endpoint,
		pool:        pool,
		connections: connections,
		global:      global,
		log:         log,
	}
}

// Process runs one synchronous protocol step for a socket with data ready.
func (h *ConnectionHandler) Process(socket api.Socket) api.SocketState {
	p := h.pool.Acquire()
	lock := p.RequestLock()
	lock.Lock()
	defer lock.Unlock()

	state, err := p.Process(socket)
	if err != nil {
		h.logFailure(socket, err)
		state = api.StateClosed
	} else {
		h.global.RecordProcessed()
	}

	switch state {
	case api.StateLong:
		// The connection stays bound to this processor. The next request
		// handled by this worker uses a new or recycled processor.
		h.connections.Put(socket, p)
		h.armEventWait(socket, p)
	case api.StateOpen:
		h.pool.Release(p)
		h.armReadWait(socket)
	default:
		h.pool.Release(p)
	}
	return state
}

// Event replays an asynchronous poller event into the processor suspended
// on the socket. An event for an unknown socket is a race between cleanup
// and poller delivery, not an error.
func (h *ConnectionHandler) Event(socket api.Socket, status api.SocketStatus) api.SocketState {
	p, ok := h.connections.Get(socket)
	if !ok {
		return api.StateClosed
	}
	lock := p.RequestLock()
	lock.Lock()
	defer lock.Unlock()

	// A concurrent event may have retired the connection while we waited
	// for the lock; the processor under it must not see a stale replay.
	if cur, ok := h.connections.Get(socket); !ok || cur != p {
		return api.StateClosed
	}

	state, err := p.Event(socket, status)
	if err != nil {
		h.logFailure(socket, err)
		state = api.StateClosed
	} else {
		h.global.RecordProcessed()
	}

	if state == api.StateLong {
		if h.endpoint.Running() {
			h.armEventWait(socket, p)
		}
		return state
	}
	h.connections.Remove(socket)
	h.pool.Release(p)
	if state == api.StateOpen && h.endpoint.Running() {
		h.armReadWait(socket)
	}
	return state
}

func (h *ConnectionHandler) armEventWait(socket api.Socket, p api.Processor) {
	err := h.endpoint.EventPoller().Add(socket, p.Timeout(), false, false, p.ResumeFlag(), false)
	if err != nil {
		h.log.Warn("event poller arm failed",
			zap.Uint64("socket", uint64(socket)), zap.Error(err))
	}
}

func (h *ConnectionHandler) armReadWait(socket api.Socket) {
	if err := h.endpoint.Poller().Add(socket); err != nil {
		h.log.Warn("read poller arm failed",
			zap.Uint64("socket", uint64(socket)), zap.Error(err))
	}
}

// logFailure applies the error taxonomy: transient transport failures are
// expected runtime conditions, anything else is a defect.
func (h *ConnectionHandler) logFailure(socket api.Socket, err error) {
	if IsTransient(err) {
		h.global.RecordTransientError()
		h.log.Info("socket error",
			zap.Uint64("socket", uint64(socket)), zap.Error(err))
		return
	}
	h.global.RecordUnexpectedError()
	h.log.Error("connection processing error",
		zap.Uint64("socket", uint64(socket)), zap.Error(err))
}
