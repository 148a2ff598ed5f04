// File: internal/registry/registry.go
// Package registry
// Author: momentics <momentics@gmail.com>
//
// Sharded, thread-safe registry of suspended connections. Maps a socket
// handle to the processor parked on it while the connection is in the long
// state.

package registry

import (
	"sync"

	"github.com/momentics/hioload-ajp/api"
)

// ConnectionRegistry stores the processor suspended on each socket. Entries
// exist only while a connection is in StateLong; they are removed exactly
// once when the suspension ends or the connection is forcibly closed.
type ConnectionRegistry struct {
	shards []*shard
	mask   uint64
}

type shard struct {
	mu    sync.RWMutex
	conns map[api.Socket]api.Processor
}

// New constructs a registry with shardCount shards, rounded up to a power
// of two for bitmask indexing.
func New(shardCount int) *ConnectionRegistry {
	if shardCount <= 0 {
		shardCount = 16
	}
	m := nextPowerOfTwo(uint32(shardCount))
	shards := make([]*shard, m)
	for i := range shards {
		shards[i] = &shard{conns: make(map[api.Socket]api.Processor)}
	}
	return &ConnectionRegistry{shards: shards, mask: uint64(m - 1)}
}

// shard picks the correct shard for a socket. Socket handles are already
// well-distributed integers, so the handle itself is the hash.
func (r *ConnectionRegistry) shard(s api.Socket) *shard {
	return r.shards[uint64(s)&r.mask]
}

// Put binds a processor to a suspended socket.
func (r *ConnectionRegistry) Put(s api.Socket, p api.Processor) {
	sh := r.shard(s)
	sh.mu.Lock()
	sh.conns[s] = p
	sh.mu.Unlock()
}

// Get fetches the processor suspended on s, if any.
func (r *ConnectionRegistry) Get(s api.Socket) (api.Processor, bool) {
	sh := r.shard(s)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	p, ok := sh.conns[s]
	return p, ok
}

// Remove drops the entry for s, reporting whether one existed.
func (r *ConnectionRegistry) Remove(s api.Socket) bool {
	sh := r.shard(s)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.conns[s]; !ok {
		return false
	}
	delete(sh.conns, s)
	return true
}

// Len returns the number of suspended connections.
func (r *ConnectionRegistry) Len() int {
	n := 0
	for _, sh := range r.shards {
		sh.mu.RLock()
		n += len(sh.conns)
		sh.mu.RUnlock()
	}
	return n
}

// Range applies fn to every suspended connection.
func (r *ConnectionRegistry) Range(fn func(api.Socket, api.Processor)) {
	for _, sh := range r.shards {
		sh.mu.RLock()
		for s, p := range sh.conns {
			fn(s, p)
		}
		sh.mu.RUnlock()
	}
}

// nextPowerOfTwo returns the next power-of-two >= v.
func nextPowerOfTwo(v uint32) uint32 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v++
	return v
}
