// Package testutil provides testing utilities for colormatch.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random colours and catalogs, and
// computing exact nearest neighbours as ground truth.
//
// # Random Catalogs
//
//	rng := testutil.NewRNG(seed)
//	records := rng.Records(500)            // uniform RGB
//	records = rng.ClusteredRecords(500, 8) // paint-card style clusters
//	blob := testutil.EncodeCatalog(t, records)
//
// # Exact Search (Ground Truth)
//
//	best := testutil.BruteForceSquared(records, r, g, b)
//	best = testutil.BruteForcePerceptual(records, r, g, b)
package testutil
