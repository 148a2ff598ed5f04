// File: protocol/settings.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Plain key/value and typed configuration surface. All settings are applied
// before Start; the engine itself only threads them through to processor
// construction and the endpoint.

package protocol

import (
	"regexp"
	"sort"
	"time"

	"github.com/momentics/hioload-ajp/api"
)

// SetAttribute stores an opaque configuration attribute.
func (p *AjpProtocol) SetAttribute(name string, value any) {
	p.attrMu.Lock()
	p.attributes[name] = value
	p.attrMu.Unlock()
}

// Attribute fetches an opaque configuration attribute.
func (p *AjpProtocol) Attribute(name string) any {
	p.attrMu.RLock()
	defer p.attrMu.RUnlock()
	return p.attributes[name]
}

// AttributeNames lists stored attribute names, sorted.
func (p *AjpProtocol) AttributeNames() []string {
	p.attrMu.RLock()
	defer p.attrMu.RUnlock()
	out := make([]string, 0, len(p.attributes))
	for name := range p.attributes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SetAdapter installs the request-servicing adapter handed to processors.
func (p *AjpProtocol) SetAdapter(a api.Adapter) { p.adapter = a }

// Adapter returns the installed adapter.
func (p *AjpProtocol) Adapter() api.Adapter { return p.adapter }

// ProcessorCache returns the pool capacity (-1 unbounded).
func (p *AjpProtocol) ProcessorCache() int { return p.processorCache }

// SetProcessorCache bounds the idle processor pool. -1 means unbounded.
func (p *AjpProtocol) SetProcessorCache(n int) { p.processorCache = n }

// PacketSize returns the maximum AJP packet size.
func (p *AjpProtocol) PacketSize() int { return p.packetSize }

// SetPacketSize sets the maximum AJP packet size.
func (p *AjpProtocol) SetPacketSize(n int) { p.packetSize = n }

// Backlog returns the listen backlog handed to the endpoint constructor.
// Pure passthrough, like Addr and Port; the engine never reads it.
func (p *AjpProtocol) Backlog() int { return p.backlog }

// SetBacklog sets the listen backlog.
func (p *AjpProtocol) SetBacklog(n int) { p.backlog = n }

// PollTime returns the endpoint poller interval. Passthrough.
func (p *AjpProtocol) PollTime() time.Duration { return p.pollTime }

// SetPollTime sets the endpoint poller interval.
func (p *AjpProtocol) SetPollTime(d time.Duration) { p.pollTime = d }

// PollerSize returns the endpoint poller capacity. Passthrough.
func (p *AjpProtocol) PollerSize() int { return p.pollerSize }

// SetPollerSize sets the endpoint poller capacity.
func (p *AjpProtocol) SetPollerSize(n int) { p.pollerSize = n }

// SoTimeout returns the per-connection socket timeout.
func (p *AjpProtocol) SoTimeout() time.Duration { return p.soTimeout }

// SetSoTimeout sets the per-connection socket timeout.
func (p *AjpProtocol) SetSoTimeout(d time.Duration) { p.soTimeout = d }

// SoLinger returns the linger value in seconds, -1 disabled.
func (p *AjpProtocol) SoLinger() int { return p.soLinger }

// SetSoLinger sets the linger value in seconds, -1 disabled.
func (p *AjpProtocol) SetSoLinger(n int) { p.soLinger = n }

// TCPNoDelay reports whether Nagle's algorithm is disabled.
func (p *AjpProtocol) TCPNoDelay() bool { return p.tcpNoDelay }

// SetTCPNoDelay toggles Nagle's algorithm.
func (p *AjpProtocol) SetTCPNoDelay(v bool) { p.tcpNoDelay = v }

// KeepAliveTimeout returns how long an idle kept-alive connection waits for
// a subsequent request before closing.
func (p *AjpProtocol) KeepAliveTimeout() time.Duration { return p.keepAliveTimeout }

// SetKeepAliveTimeout sets the keep-alive wait.
func (p *AjpProtocol) SetKeepAliveTimeout(d time.Duration) { p.keepAliveTimeout = d }

// ContainerAuth reports whether authentication happens in the container
// rather than the fronting web server.
func (p *AjpProtocol) ContainerAuth() bool { return p.containerAuth }

// SetContainerAuth selects container-side authentication.
func (p *AjpProtocol) SetContainerAuth(v bool) { p.containerAuth = v }

// SetRequiredSecret sets the shared secret the fronting server must send.
func (p *AjpProtocol) SetRequiredSecret(s string) { p.requiredSecret = s }

// AllowedRequestAttributesPattern returns the forwarded-attribute filter.
func (p *AjpProtocol) AllowedRequestAttributesPattern() *regexp.Regexp {
	return p.allowedRequestAttributes
}

// SetAllowedRequestAttributesPattern filters which request attributes the
// fronting server may forward.
func (p *AjpProtocol) SetAllowedRequestAttributesPattern(re *regexp.Regexp) {
	p.allowedRequestAttributes = re
}

// MaxPauseRetries returns the drain retry budget.
func (p *AjpProtocol) MaxPauseRetries() int { return p.maxPauseRetries }

// SetMaxPauseRetries bounds the graceful drain in one-second steps.
func (p *AjpProtocol) SetMaxPauseRetries(n int) { p.maxPauseRetries = n }
