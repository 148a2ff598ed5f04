// File: protocol/ajp.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// AjpProtocol drives the handler lifecycle: init binds the connection
// handler to the endpoint, start opens it for traffic, pause performs the
// bounded graceful drain, destroy releases shared resources only when the
// drain succeeded. Management registrations taken at start are released at
// destroy regardless of drain outcome.

package protocol

import (
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/momentics/hioload-ajp/api"
	"github.com/momentics/hioload-ajp/internal/registry"
	"github.com/momentics/hioload-ajp/stats"
)

// Defaults mirror the classic AJP connector configuration.
const (
	DefaultPort           = 8009
	DefaultPacketSize     = 8192
	DefaultProcessorCache = 128
	DefaultSoLinger       = -1
	DefaultTCPNoDelay     = true
	DefaultBacklog        = 100
	DefaultPollTime       = 2 * time.Millisecond
	DefaultPollerSize     = 8192

	// DefaultMaxPauseRetries bounds the graceful drain: pause gives
	// in-flight requests up to this many one-second grace periods.
	DefaultMaxPauseRetries = 30

	pauseInterval = time.Second
)

type lifecycleState int

const (
	stateUninit lifecycleState = iota
	stateInitialized
	stateRunning
	statePaused
	stateDestroyed
)

// Option customizes protocol construction.
type Option func(*AjpProtocol)

// WithLogger installs a structured logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *AjpProtocol) { p.log = log }
}

// WithSink installs the management sink registrations go to.
func WithSink(sink api.ManagementSink) Option {
	return func(p *AjpProtocol) { p.sink = sink }
}

// WithSleep replaces the drain sleep function. Tests inject a counting
// no-op here instead of waiting wall-clock seconds.
func WithSleep(sleep func(time.Duration)) Option {
	return func(p *AjpProtocol) { p.sleep = sleep }
}

// WithRegistryShards sets the connection registry shard count.
func WithRegistryShards(n int) Option {
	return func(p *AjpProtocol) { p.registryShards = n }
}

// AjpProtocol is the protocol lifecycle controller for one AJP handler
// instance. Several instances can coexist in a process; each owns its own
// pool, registry, and stats, and registers under a unique management name.
type AjpProtocol struct {
	endpoint api.Endpoint
	factory  api.ProcessorFactory
	sink     api.ManagementSink
	log      *zap.Logger
	sleep    func(time.Duration)

	mu         sync.Mutex
	state      lifecycleState
	canDestroy bool

	attrMu     sync.RWMutex
	attributes map[string]any

	// Configuration applied before Start.
	processorCache           int
	maxPauseRetries          int
	registryShards           int
	packetSize               int
	backlog                  int
	pollTime                 time.Duration
	pollerSize               int
	soTimeout                time.Duration
	soLinger                 int
	tcpNoDelay               bool
	keepAliveTimeout         time.Duration
	containerAuth            bool
	requiredSecret           string
	allowedRequestAttributes *regexp.Regexp
	adapter                  api.Adapter

	instanceID    string
	global        *stats.Group
	pool          *ProcessorPool
	connections   *registry.ConnectionRegistry
	handler       *ConnectionHandler
	registrations []string
}

// NewAjpProtocol builds a protocol handler over an externally owned
// endpoint. The factory constructs processors on pool misses.
func NewAjpProtocol(endpoint api.Endpoint, factory api.ProcessorFactory, opts ...Option) *AjpProtocol {
	p := &AjpProtocol{
		endpoint:        endpoint,
		factory:         factory,
		sink:            api.NopSink{},
		log:             zap.NewNop(),
		sleep:           time.Sleep,
		attributes:      make(map[string]any),
		processorCache:  DefaultProcessorCache,
		maxPauseRetries: DefaultMaxPauseRetries,
		registryShards:  16,
		packetSize:      DefaultPacketSize,
		backlog:         DefaultBacklog,
		pollTime:        DefaultPollTime,
		pollerSize:      DefaultPollerSize,
		soLinger:        DefaultSoLinger,
		tcpNoDelay:      DefaultTCPNoDelay,
		containerAuth:   true,
		instanceID:      uuid.NewString()[:8],
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Name identifies the handler by its listening side, e.g. "ajp-0.0.0.0:8009".
func (p *AjpProtocol) Name() string {
	return fmt.Sprintf("ajp-%s:%d", p.endpoint.Addr(), p.endpoint.Port())
}

// ManagementName extends Name with the instance id so several handlers on
// one process never collide in the sink.
func (p *AjpProtocol) ManagementName() string {
	return fmt.Sprintf("%s-%s", p.Name(), p.instanceID)
}

// Init constructs the connection handler and binds it to the endpoint.
// Endpoint construction failure is fatal and propagated unchanged.
func (p *AjpProtocol) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != stateUninit {
		return api.ErrAlreadyInitialized
	}

	p.global = stats.NewGroup()
	p.connections = registry.New(p.registryShards)
	p.pool = NewProcessorPool(p.processorCache, p.factory, p.processorConfig(),
		p.global, p.sink, p.ManagementName(), p.log)
	p.handler = NewConnectionHandler(p.endpoint, p.pool, p.connections, p.global, p.log)

	p.endpoint.SetHandler(p.handler)
	if err := p.endpoint.Init(); err != nil {
		p.log.Error("error initializing endpoint", zap.Error(err))
		return err
	}
	p.state = stateInitialized
	return nil
}

// Start registers pool and stats with the management sink (best effort)
// and opens the endpoint. Endpoint start failure is fatal and propagated.
func (p *AjpProtocol) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state {
	case stateUninit:
		return api.ErrNotInitialized
	case stateRunning:
		return api.ErrAlreadyStarted
	case stateDestroyed:
		return api.ErrAlreadyDestroyed
	}

	p.register(p.ManagementName()+"-threadpool", p.endpoint)
	p.register(p.ManagementName()+"-pool", p.pool)
	p.register(p.ManagementName()+"-global", p.global)

	if err := p.endpoint.Start(); err != nil {
		p.log.Error("error starting endpoint", zap.Error(err))
		return err
	}
	p.state = stateRunning
	p.log.Info("starting ajp protocol", zap.String("name", p.Name()))
	return nil
}

// Pause stops the endpoint accepting new work, then waits a bounded number
// of one-second grace periods for in-flight requests to leave the service
// stage. When the drain completes in budget the handler becomes safe to
// destroy; otherwise it proceeds in the degraded "not safe" state rather
// than blocking forever.
func (p *AjpProtocol) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != stateRunning {
		return api.ErrNotInitialized
	}
	if err := p.endpoint.Pause(); err != nil {
		p.log.Error("error pausing endpoint", zap.Error(err))
		return err
	}
	p.canDestroy = false
	for retry := 0; retry < p.maxPauseRetries; retry++ {
		if !p.anyInService() {
			p.canDestroy = true
			break
		}
		p.sleep(pauseInterval)
	}
	p.state = statePaused
	p.log.Info("pausing ajp protocol",
		zap.String("name", p.Name()), zap.Bool("drained", p.canDestroy))
	return nil
}

// Resume reopens the endpoint for traffic. A completed drain's "safe to
// destroy" state is deliberately left stale: the lifecycle only moves
// forward toward destroy in practice.
func (p *AjpProtocol) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != statePaused {
		return api.ErrNotInitialized
	}
	if err := p.endpoint.Resume(); err != nil {
		p.log.Error("error resuming endpoint", zap.Error(err))
		return err
	}
	p.state = stateRunning
	p.log.Info("resuming ajp protocol", zap.String("name", p.Name()))
	return nil
}

// Destroy releases endpoint resources and drains the pool when the pause
// drain completed. Otherwise resources are kept to avoid corrupting live
// requests, only diagnostics are logged, and the lifecycle state is left
// where it was so the operator can retry destroy once requests finish.
// Start-time management registrations are released either way.
func (p *AjpProtocol) Destroy() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == stateDestroyed {
		return api.ErrAlreadyDestroyed
	}
	if p.state == stateUninit {
		return api.ErrNotInitialized
	}
	p.log.Info("stopping ajp protocol", zap.String("name", p.Name()))

	// In-flight requests may have finished since the drain gave up;
	// re-check so a retried destroy can complete the job.
	if p.state == statePaused && !p.canDestroy && !p.anyInService() {
		p.canDestroy = true
	}

	if !p.canDestroy {
		active := 0
		for _, info := range p.global.Snapshot() {
			if info.Stage == api.StageService {
				active++
				p.log.Info("processor still in service stage",
					zap.String("name", p.Name()))
			}
		}
		p.log.Warn("cannot destroy ajp protocol, requests still active",
			zap.String("name", p.Name()), zap.Int("active", active))
		p.releaseRegistrations()
		return nil
	}

	destroyErr := p.endpoint.Destroy()
	if destroyErr != nil {
		p.log.Error("error destroying endpoint", zap.Error(destroyErr))
	}
	p.pool.Drain()
	p.releaseRegistrations()

	if destroyErr != nil {
		return destroyErr
	}
	p.state = stateDestroyed
	return nil
}

// releaseRegistrations unregisters the start-time sink registrations. Safe
// across destroy retries: the slice is cleared after the first pass.
func (p *AjpProtocol) releaseRegistrations() {
	for _, name := range p.registrations {
		if err := p.sink.Unregister(name); err != nil {
			p.log.Warn("component unregistration failed",
				zap.String("component", name), zap.Error(err))
		}
	}
	p.registrations = nil
}

// SafeToDestroy reports whether the last pause drained all in-flight work.
func (p *AjpProtocol) SafeToDestroy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.canDestroy
}

// Handler exposes the connection handler; the endpoint receives it via
// SetHandler during Init.
func (p *AjpProtocol) Handler() *ConnectionHandler { return p.handler }

// Pool exposes the processor pool for tests and metrics.
func (p *AjpProtocol) Pool() *ProcessorPool { return p.pool }

// Stats exposes the global request stats.
func (p *AjpProtocol) Stats() *stats.Group { return p.global }

func (p *AjpProtocol) register(name string, component any) {
	if err := p.sink.Register(name, component); err != nil {
		// Management visibility is not required for correct serving.
		p.log.Warn("component registration failed",
			zap.String("component", name), zap.Error(err))
		return
	}
	p.registrations = append(p.registrations, name)
}

func (p *AjpProtocol) anyInService() bool {
	for _, info := range p.global.Snapshot() {
		if info.Stage == api.StageService {
			return true
		}
	}
	return false
}

func (p *AjpProtocol) processorConfig() api.ProcessorConfig {
	return api.ProcessorConfig{
		PacketSize:               p.packetSize,
		Endpoint:                 p.endpoint,
		Adapter:                  p.adapter,
		ContainerAuth:            p.containerAuth,
		RequiredSecret:           p.requiredSecret,
		AllowedRequestAttributes: p.allowedRequestAttributes,
	}
}
