//go:build linux

// File: protocol/errors_linux.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import "golang.org/x/sys/unix"

// Errnos a healthy peer produces when it goes away mid-connection.
var transientErrnos = []error{
	unix.ECONNRESET,
	unix.ECONNABORTED,
	unix.EPIPE,
	unix.ETIMEDOUT,
	unix.ESHUTDOWN,
}
