// File: protocol/handler_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-ajp/api"
	"github.com/momentics/hioload-ajp/fake"
	"github.com/momentics/hioload-ajp/internal/registry"
	"github.com/momentics/hioload-ajp/protocol"
	"github.com/momentics/hioload-ajp/stats"
)

// handlerFixture wires a ConnectionHandler whose factory always hands out
// the given processor.
type handlerFixture struct {
	endpoint *fake.Endpoint
	pool     *protocol.ProcessorPool
	conns    *registry.ConnectionRegistry
	global   *stats.Group
	handler  *protocol.ConnectionHandler
}

func newHandlerFixture(proc *fake.Processor) *handlerFixture {
	f := &handlerFixture{
		endpoint: fake.NewEndpoint(),
		conns:    registry.New(8),
		global:   stats.NewGroup(),
	}
	factory := func(api.ProcessorConfig) api.Processor { return proc }
	f.pool = protocol.NewProcessorPool(-1, factory, api.ProcessorConfig{}, f.global, fake.NewSink(), "ajp-test", nil)
	f.handler = protocol.NewConnectionHandler(f.endpoint, f.pool, f.conns, f.global, nil)
	f.endpoint.SetRunning(true)
	return f
}

func TestProcessClosed(t *testing.T) {
	proc := fake.NewProcessor().Script(fake.Step{State: api.StateClosed})
	f := newHandlerFixture(proc)

	state := f.handler.Process(7)
	assert.Equal(t, api.StateClosed, state)
	assert.Equal(t, 1, f.pool.Len(), "processor returned to pool")
	assert.Equal(t, 0, f.conns.Len())
	assert.Empty(t, f.endpoint.EventArms())
	assert.Empty(t, f.endpoint.PollAdds())
}

func TestProcessLongSuspends(t *testing.T) {
	proc := fake.NewProcessor().Script(fake.Step{State: api.StateLong})
	proc.SetTimeout(12 * time.Second)
	f := newHandlerFixture(proc)

	state := f.handler.Process(42)
	assert.Equal(t, api.StateLong, state)

	got, ok := f.conns.Get(42)
	require.True(t, ok, "socket 42 must be in the registry")
	assert.Equal(t, api.Processor(proc), got)
	assert.Equal(t, 0, f.pool.Len(), "suspended processor stays out of the pool")

	arms := f.endpoint.EventArms()
	require.Len(t, arms, 1)
	assert.Equal(t, api.Socket(42), arms[0].Socket)
	assert.Equal(t, 12*time.Second, arms[0].Timeout)
	assert.Same(t, proc.ResumeFlag(), arms[0].Resume)
	assert.False(t, arms[0].Read)
	assert.False(t, arms[0].Write)
	assert.False(t, arms[0].ErrorInterest)
}

func TestProcessOpenRearmsReadPoller(t *testing.T) {
	proc := fake.NewProcessor().Script(fake.Step{State: api.StateOpen})
	f := newHandlerFixture(proc)

	state := f.handler.Process(7)
	assert.Equal(t, api.StateOpen, state)
	assert.Equal(t, 1, f.pool.Len())
	assert.Equal(t, []api.Socket{7}, f.endpoint.PollAdds())
}

func TestProcessTransientErrorClosesQuietly(t *testing.T) {
	proc := fake.NewProcessor().Script(fake.Step{Err: &api.TransportError{Op: "read", Err: errors.New("connection reset by peer")}})
	f := newHandlerFixture(proc)

	state := f.handler.Process(7)
	assert.Equal(t, api.StateClosed, state)
	assert.Equal(t, 1, f.pool.Len(), "processor recycled after transient failure")
	assert.Equal(t, uint64(1), f.global.TransientErrors())
	assert.Equal(t, uint64(0), f.global.UnexpectedErrors())
}

func TestProcessUnexpectedErrorClosesLoudly(t *testing.T) {
	proc := fake.NewProcessor().Script(fake.Step{Err: errors.New("state machine corrupted")})
	f := newHandlerFixture(proc)

	state := f.handler.Process(7)
	assert.Equal(t, api.StateClosed, state)
	assert.Equal(t, 1, f.pool.Len(), "processor recycled even after unexpected failure")
	assert.Equal(t, uint64(1), f.global.UnexpectedErrors())
}

func TestEventUnknownSocketIsNoop(t *testing.T) {
	proc := fake.NewProcessor()
	f := newHandlerFixture(proc)

	state := f.handler.Event(99, api.StatusTimeout)
	assert.Equal(t, api.StateClosed, state)
	assert.Equal(t, 0, f.conns.Len())
	assert.Equal(t, 0, f.pool.Len(), "no processor released")
	assert.Equal(t, int32(0), proc.EventCalls.Load())
}

func TestSuspendThenDisconnect(t *testing.T) {
	proc := fake.NewProcessor().Script(
		fake.Step{State: api.StateLong},
		fake.Step{State: api.StateClosed},
	)
	f := newHandlerFixture(proc)

	require.Equal(t, api.StateLong, f.handler.Process(42))
	state := f.handler.Event(42, api.StatusDisconnect)

	assert.Equal(t, api.StateClosed, state)
	assert.Equal(t, 0, f.conns.Len(), "registry entry removed")
	assert.Equal(t, 1, f.pool.Len(), "processor back in pool")
	assert.Equal(t, []api.SocketStatus{api.StatusDisconnect}, proc.Statuses())
}

func TestEventLongKeepsSuspension(t *testing.T) {
	proc := fake.NewProcessor().Script(
		fake.Step{State: api.StateLong},
		fake.Step{State: api.StateLong},
	)
	f := newHandlerFixture(proc)

	require.Equal(t, api.StateLong, f.handler.Process(42))
	require.Equal(t, api.StateLong, f.handler.Event(42, api.StatusDataReady))

	_, ok := f.conns.Get(42)
	assert.True(t, ok, "registry entry survives a re-suspension")
	assert.Equal(t, 0, f.pool.Len())
	assert.Len(t, f.endpoint.EventArms(), 2, "asynchronous wait re-armed")
}

func TestEventOpenSkipsPollerWhenStopped(t *testing.T) {
	proc := fake.NewProcessor().Script(
		fake.Step{State: api.StateLong},
		fake.Step{State: api.StateOpen},
	)
	f := newHandlerFixture(proc)

	require.Equal(t, api.StateLong, f.handler.Process(42))
	f.endpoint.SetRunning(false)

	state := f.handler.Event(42, api.StatusDataReady)
	assert.Equal(t, api.StateOpen, state)
	assert.Equal(t, 1, f.pool.Len())
	assert.Empty(t, f.endpoint.PollAdds(), "stopped endpoint must not be re-armed")
}

func TestEventresuspendSkipsArmWhenStopped(t *testing.T) {
	proc := fake.NewProcessor().Script(
		fake.Step{State: api.StateLong},
		fake.Step{State: api.StateLong},
	)
	f := newHandlerFixture(proc)

	require.Equal(t, api.StateLong, f.handler.Process(42))
	f.endpoint.SetRunning(false)

	require.Equal(t, api.StateLong, f.handler.Event(42, api.StatusDataReady))
	assert.Len(t, f.endpoint.EventArms(), 1, "only the initial suspension armed")
	_, ok := f.conns.Get(42)
	assert.True(t, ok)
}

// Concurrent events for one socket must never interleave inside the
// processor; the request lock is the exclusion witness.
func TestEventSerializationPerSocket(t *testing.T) {
	proc := fake.NewProcessor().Script(fake.Step{State: api.StateLong})

	var inside, maxInside, calls atomic.Int32
	proc.EventFunc = func(api.Socket, api.SocketStatus) (api.SocketState, error) {
		n := inside.Add(1)
		for {
			m := maxInside.Load()
			if n <= m || maxInside.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inside.Add(-1)
		if calls.Add(1) == 1 {
			return api.StateLong, nil
		}
		return api.StateClosed, nil
	}

	f := newHandlerFixture(proc)
	require.Equal(t, api.StateLong, f.handler.Process(42))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.handler.Event(42, api.StatusDataReady)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load(), "event bodies interleaved for one socket")
	assert.Equal(t, 0, f.conns.Len())
}

// Distinct sockets proceed independently; a stuck connection must not
// serialize its neighbors.
func TestDistinctSocketsRunConcurrently(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	slow := fake.NewProcessor()
	slow.ProcessFunc = func(api.Socket) (api.SocketState, error) {
		close(started)
		<-release
		return api.StateClosed, nil
	}
	fast := fake.NewProcessor().Script(fake.Step{State: api.StateClosed})

	procs := []*fake.Processor{slow, fast}
	var next atomic.Int32
	endpoint := fake.NewEndpoint()
	endpoint.SetRunning(true)
	conns := registry.New(8)
	global := stats.NewGroup()
	factory := func(api.ProcessorConfig) api.Processor {
		return procs[next.Add(1)-1]
	}
	pool := protocol.NewProcessorPool(-1, factory, api.ProcessorConfig{}, global, fake.NewSink(), "ajp-test", nil)
	h := protocol.NewConnectionHandler(endpoint, pool, conns, global, nil)

	done := make(chan api.SocketState, 1)
	go func() { done <- h.Process(1) }()
	<-started

	// The fast socket completes while the slow one is still blocked.
	assert.Equal(t, api.StateClosed, h.Process(2))

	close(release)
	select {
	case st := <-done:
		assert.Equal(t, api.StateClosed, st)
	case <-time.After(5 * time.Second):
		t.Fatal("slow socket never completed")
	}
}
