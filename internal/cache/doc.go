// Package cache provides the result cache of the matching engine.
//
// # LRU
//
// LRU maps a query key to its last result. The engine runs it with a
// capacity of one entry: repeated scans of the same swatch are answered
// without touching the catalog, and any other query overwrites the entry.
//
// Key features:
//   - Entry-bounded capacity with least-recently-used eviction
//   - Optional accounting of entry memory against a resource.Controller
//   - Hit and miss counters
package cache
