// File: protocol/errors.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import (
	"errors"
	"io"
	"net"

	"github.com/momentics/hioload-ajp/api"
)

// IsTransient reports whether err is an expected transport-level failure:
// peer reset, broken pipe, half-closed reads. Transient failures end the
// connection but are logged quietly; everything else is treated as a
// defect and logged at error level.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *api.TransportError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	for _, errno := range transientErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}
