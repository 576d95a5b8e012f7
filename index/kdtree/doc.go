// Package kdtree implements the memory-bounded spatial index over RGB points.
//
// # Layout
//
// Nodes live in one flat array sized before allocation. Children are
// referenced by 1-based slot; slot 0 means "no child". The array never
// grows, so the index cannot exceed the memory it reserved up front.
//
// # Build
//
// Construction is breadth-first over an explicit FIFO of (slot, range, depth)
// tasks. Each task stably sorts its range on the axis for its depth (R, G, B
// cycling), stores the median, and schedules both halves on newly claimed
// slots. A half whose slot would exceed capacity is dropped: its points are
// not indexed and the tree reports Truncated. A build also stops early,
// keeping what it wrote, when the memory probe reports free auxiliary memory
// below the safety reserve.
//
// # Query
//
// Nearest walks the tree with an explicit, bounded stack and the standard
// hyperplane pruning rule on squared RGB distance.
//
//	n, err := kdtree.Size(kdtree.DefaultSizingConfig(), len(records), pools.FreeAuxiliary())
//	tree := kdtree.New()
//	err = tree.Build(points[:n], kdtree.WithAllocator(pools.Allocator()), kdtree.WithProbe(pools))
//	p, ok := tree.Nearest(r, g, b)
package kdtree
