// File: api/socket.go
// Package api defines socket handles and connection state types.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Socket is an opaque handle uniquely identifying one network connection
// for the lifetime of that connection. The endpoint guarantees a handle is
// never reused while the connection it names is still live.
type Socket uint64

// SocketState is the tri-state outcome of one processor step.
type SocketState int

const (
	// StateClosed: the connection finished, the processor goes back to the pool.
	StateClosed SocketState = iota

	// StateOpen: the processor finished a unit of work but the socket stays
	// open for further non-blocking reads via the ordinary poller.
	StateOpen

	// StateLong: the processor suspended the connection pending an external
	// event. It stays bound to the socket and out of the pool.
	StateLong
)

func (s SocketState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateLong:
		return "long"
	default:
		return "unknown"
	}
}

// SocketStatus describes the event replayed into a suspended processor.
type SocketStatus int

const (
	StatusTimeout SocketStatus = iota
	StatusDataReady
	StatusDisconnect
	StatusError
	StatusResume
)

func (s SocketStatus) String() string {
	switch s {
	case StatusTimeout:
		return "timeout"
	case StatusDataReady:
		return "data-ready"
	case StatusDisconnect:
		return "disconnect"
	case StatusError:
		return "error"
	case StatusResume:
		return "resume"
	default:
		return "unknown"
	}
}
