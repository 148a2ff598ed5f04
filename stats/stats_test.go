// File: stats/stats_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stats

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-ajp/api"
	"github.com/momentics/hioload-ajp/fake"
)

func TestGroupAttachDetachSnapshot(t *testing.T) {
	g := NewGroup()
	p1 := fake.NewProcessor()
	p2 := fake.NewProcessor()
	p2.SetStage(api.StageService)

	g.Attach(p1)
	g.Attach(p2)
	assert.Equal(t, 2, g.Attached())

	snap := g.Snapshot()
	require.Len(t, snap, 2)
	active := 0
	for _, info := range snap {
		if info.Stage == api.StageService {
			active++
		}
	}
	assert.Equal(t, 1, active)

	g.Detach(p1)
	assert.Equal(t, 1, g.Attached())

	// Detaching an unknown processor must be a no-op.
	g.Detach(p1)
	assert.Equal(t, 1, g.Attached())
}

func TestGroupCounters(t *testing.T) {
	g := NewGroup()
	g.RecordProcessed()
	g.RecordProcessed()
	g.RecordTransientError()
	g.RecordUnexpectedError()

	assert.Equal(t, uint64(2), g.Processed())
	assert.Equal(t, uint64(1), g.TransientErrors())
	assert.Equal(t, uint64(1), g.UnexpectedErrors())
}

func TestGroupCollects(t *testing.T) {
	g := NewGroup()
	p := fake.NewProcessor()
	p.SetStage(api.StageService)
	g.Attach(p)
	g.RecordProcessed()

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(g))

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				byName[mf.GetName()] = c.GetValue()
			}
			if gv := m.GetGauge(); gv != nil {
				byName[mf.GetName()] = gv.GetValue()
			}
		}
	}
	assert.Equal(t, float64(1), byName["ajp_steps_processed_total"])
	assert.Equal(t, float64(1), byName["ajp_processors_attached"])
	assert.Equal(t, float64(1), byName["ajp_processors_in_service"])
}
