// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types shared across the hioload-ajp engine.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the library.
var (
	ErrNotInitialized     = errors.New("protocol handler not initialized")
	ErrAlreadyInitialized = errors.New("protocol handler already initialized")
	ErrAlreadyStarted     = errors.New("protocol handler already started")
	ErrAlreadyDestroyed   = errors.New("protocol handler already destroyed")
	ErrAlreadyRegistered  = errors.New("component already registered")
	ErrNotRegistered      = errors.New("component not registered")
)

// TransportError wraps a socket-level failure that is expected under normal
// operation: connection reset, broken pipe, malformed reads from a peer
// that went away. Processors return it to signal "log quietly and close"
// rather than "defect".
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("transport: %v", e.Err)
	}
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
