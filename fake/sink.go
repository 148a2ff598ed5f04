// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import "sync"

// Sink is a recording management sink.
type Sink struct {
	mu           sync.Mutex
	registered   map[string]any
	unregistered []string

	RegisterErr   error
	UnregisterErr error
}

// NewSink returns an empty recording sink.
func NewSink() *Sink {
	return &Sink{registered: make(map[string]any)}
}

func (s *Sink) Register(name string, component any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.RegisterErr != nil {
		return s.RegisterErr
	}
	s.registered[name] = component
	return nil
}

func (s *Sink) Unregister(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UnregisterErr != nil {
		return s.UnregisterErr
	}
	delete(s.registered, name)
	s.unregistered = append(s.unregistered, name)
	return nil
}

// Registered reports whether name is currently registered.
func (s *Sink) Registered(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.registered[name]
	return ok
}

// RegisteredCount returns the number of live registrations.
func (s *Sink) RegisteredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.registered)
}

// Unregistered returns every name unregistered so far, in order and with
// duplicates preserved.
func (s *Sink) Unregistered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.unregistered))
	copy(out, s.unregistered)
	return out
}
