// File: protocol/errors_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol_test

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/momentics/hioload-ajp/api"
	"github.com/momentics/hioload-ajp/protocol"
)

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("bad magic byte"), false},
		{"transport wrapper", &api.TransportError{Op: "read", Err: syscall.ECONNRESET}, true},
		{"wrapped transport wrapper", fmt.Errorf("socket 7: %w", &api.TransportError{Op: "write", Err: syscall.EPIPE}), true},
		{"eof", io.EOF, true},
		{"wrapped eof", fmt.Errorf("reading header: %w", io.EOF), true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"closed listener", net.ErrClosed, true},
		{"peer reset", fmt.Errorf("recv: %w", syscall.ECONNRESET), true},
		{"broken pipe", fmt.Errorf("send: %w", syscall.EPIPE), true},
		{"permission denied", syscall.EACCES, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, protocol.IsTransient(tc.err))
		})
	}
}

func TestTransportErrorMessage(t *testing.T) {
	err := &api.TransportError{Op: "read", Err: syscall.ECONNRESET}
	assert.Contains(t, err.Error(), "read")
	assert.ErrorIs(t, err, syscall.ECONNRESET)
}
