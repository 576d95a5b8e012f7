// Package colormatch finds the closest named paint colour to a sensor reading.
//
// A catalog of a few thousand colours is read from a compact binary blob.
// At startup the matcher tries to load it into a memory-bounded spatial
// index; when memory is short it permanently falls back to a time-bounded
// linear scan of the catalog stream.
//
// # Quick Start
//
//	ctx := context.Background()
//	m, err := colormatch.Open(ctx, colormatch.FromFile("./data/paint.bin"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Close()
//
//	res, _ := m.Match(250, 248, 240)
//	fmt.Println(res.Label, res.Quality)
//
// Cloud mode:
//
//	store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("catalogs/"))
//	m, _ := colormatch.Open(ctx, colormatch.FromStore(store, "paint.bin"))
//
// # Strategies
//
//   - StrategyIndex: a 3-d tree over RGB, built once. Queries are exact
//     squared-RGB nearest neighbour over the indexed records.
//   - StrategyFallback: one catalog scan per new reading, CIEDE2000 for most
//     colours and Euclidean RGB when both colours are near white. A scan
//     stops at an excellent match or after its budget (2 s by default).
//   - StrategyEmergency: the built-in ten-colour palette, enabled with
//     WithEmergencyPalette when no catalog can be read.
//
// Every Result reports its ΔE00 distance and a Quality grade, whatever
// strategy produced it.
//
// # Memory
//
// Allocations are reserved from two pools (see package resource): a large
// auxiliary pool tried first and a small primary pool. Open checks the
// headroom before the bulk load, sizes the index from what remains and keeps
// a safety reserve free while building. Diagnostics reports the outcome.
package colormatch
