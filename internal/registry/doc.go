// Package registry
// Author: momentics <momentics@gmail.com>
//
// Sharded registry of suspended connections. Each entry maps a live
// socket to the processor parked on it between events.
//
// Sharding keeps lock contention low when many pollers report events
// concurrently. Socket handles distribute well by value, so the handle
// itself is the shard hash.
package registry
