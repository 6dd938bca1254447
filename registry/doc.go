// Package registry maintains the table of known federated data nodes.
//
// The registry is an explicit object handed to the selector and the health
// monitor — never a global. Node identity fields are immutable after
// registration; availability and measured latency are mutated only by the
// health monitor through SetAvailability. Reads hand out clones so the query
// path operates on stable snapshots.
//
// The package also provides optional SQLite-backed persistence of node
// descriptors (Store) and discovery-endpoint bootstrap with health-checked
// admission (Discoverer).
package registry
