// File: protocol/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package protocol implements the AJP connection-handling engine: a bounded
// processor pool, a registry of suspended connections, the connection
// handler orchestrating both, and the protocol lifecycle controller with
// its graceful drain.
//
// The endpoint (socket acceptor and multiplexer), the per-connection
// processor (AJP packet state machine), and the management sink are
// external collaborators consumed through the interfaces in package api.
package protocol
