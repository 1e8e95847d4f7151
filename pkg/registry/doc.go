// Package registry holds the set of metrics this exporter publishes.
//
// Metrics are created through an idempotent get-or-create (Ensure) so that
// the set can grow as new rigs get discovered without ever resetting a value
// that's already being served. Nothing is ever unregistered: a metric keeps
// its last known value until something sets a new one.
//
package registry
