// Package control
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Management-sink implementation backing component registration.
// Registered components become visible to operators by name; components
// implementing prometheus.Collector are additionally exported as metrics.
//
// Registration is concurrent-safe and name-keyed. Metric export is best
// effort so a collector collision never blocks component registration.
package control
