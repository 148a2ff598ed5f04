// File: api/management.go
// Package api defines the optional management sink contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// ManagementSink tracks live components by name for operational monitoring.
// It is optional: registration failures are never fatal to serving, callers
// only log them.
type ManagementSink interface {
	Register(name string, component any) error
	Unregister(name string) error
}

// NopSink discards all registrations.
type NopSink struct{}

func (NopSink) Register(string, any) error { return nil }
func (NopSink) Unregister(string) error    { return nil }

// Ensure compile-time compliance.
var _ ManagementSink = NopSink{}
