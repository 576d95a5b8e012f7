// Package index defines the nearest-colour search contract shared by the
// matching engine's indexes.
//
// Two implementations exist:
//
//   - kdtree: a memory-bounded 3-d tree over RGB for full catalogs
//   - flat: an exact scan over a small in-memory palette
//
// Both answer with a Hit that refers back to the record ordinal the point
// was built from; the caller owns the records.
package index
