// File: control/sink.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Management sink: tracks live engine components by name. Components that
// are prometheus collectors are additionally exported through an optional
// registerer, so pool and request-stats visibility comes for free.

package control

import (
	"fmt"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/momentics/hioload-ajp/api"
)

// Registry implements api.ManagementSink over a named component table.
type Registry struct {
	mu         sync.Mutex
	components map[string]any

	prom prometheus.Registerer
	log  *zap.Logger
}

var _ api.ManagementSink = (*Registry)(nil)

// NewRegistry creates a sink. prom may be nil to skip metric export; log
// may be nil for silent operation.
func NewRegistry(prom prometheus.Registerer, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		components: make(map[string]any),
		prom:       prom,
		log:        log,
	}
}

// Register adds a component under name. Duplicate names are rejected.
func (r *Registry) Register(name string, component any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.components[name]; ok {
		return fmt.Errorf("register %q: %w", name, api.ErrAlreadyRegistered)
	}
	r.components[name] = component
	if c, ok := component.(prometheus.Collector); ok && r.prom != nil {
		if err := r.prom.Register(c); err != nil {
			// Metric export is best effort; the component stays registered.
			r.log.Warn("metric registration failed",
				zap.String("component", name), zap.Error(err))
		}
	}
	return nil
}

// Unregister removes the component registered under name.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	component, ok := r.components[name]
	if !ok {
		return fmt.Errorf("unregister %q: %w", name, api.ErrNotRegistered)
	}
	delete(r.components, name)
	if c, ok := component.(prometheus.Collector); ok && r.prom != nil {
		r.prom.Unregister(c)
	}
	return nil
}

// Lookup fetches a registered component.
func (r *Registry) Lookup(name string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.components[name]
	return c, ok
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.components))
	for name := range r.components {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
