// Package fallback implements the linear-scan searcher used when the
// spatial index cannot be built.
//
// Every query rewinds the catalog stream and compares the target with each
// record in turn. Pairs where both colours are light (every channel above
// 200) are compared in Euclidean RGB, all others in CIEDE2000. A scan stops
// early on a close enough match, or when its wall-clock budget is spent.
// The last result is cached so a repeated reading costs nothing.
package fallback
