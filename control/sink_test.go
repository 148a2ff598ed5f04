// File: control/sink_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package control

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-ajp/api"
	"github.com/momentics/hioload-ajp/stats"
)

func TestRegistryRegisterUnregister(t *testing.T) {
	r := NewRegistry(nil, nil)

	require.NoError(t, r.Register("pool", struct{}{}))
	assert.ErrorIs(t, r.Register("pool", struct{}{}), api.ErrAlreadyRegistered)

	got, ok := r.Lookup("pool")
	require.True(t, ok)
	assert.Equal(t, struct{}{}, got)
	assert.Equal(t, []string{"pool"}, r.Names())

	require.NoError(t, r.Unregister("pool"))
	assert.ErrorIs(t, r.Unregister("pool"), api.ErrNotRegistered)
	assert.Empty(t, r.Names())
}

func TestRegistryExportsCollectors(t *testing.T) {
	prom := prometheus.NewPedanticRegistry()
	r := NewRegistry(prom, nil)

	g := stats.NewGroup()
	require.NoError(t, r.Register("global", g))

	families, err := prom.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	require.NoError(t, r.Unregister("global"))
	families, err = prom.Gather()
	require.NoError(t, err)
	assert.Empty(t, families)
}

func TestRegistryToleratesDoubleMetricExport(t *testing.T) {
	prom := prometheus.NewPedanticRegistry()
	r := NewRegistry(prom, nil)

	g := stats.NewGroup()
	require.NoError(t, r.Register("a", g))
	// Same collector under a second name: the sink registration succeeds,
	// the metric export failure is swallowed.
	require.NoError(t, r.Register("b", g))
}
