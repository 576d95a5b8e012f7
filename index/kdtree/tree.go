package kdtree

import (
	"cmp"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/time/rate"

	"github.com/hupe1980/colormatch/index"
	"github.com/hupe1980/colormatch/internal/conv"
	"github.com/hupe1980/colormatch/resource"
)

// Point is an RGB coordinate with the ordinal of the record it stands for.
type Point struct {
	R, G, B uint8
	Ref     uint32
}

func (p Point) coord(axis uint8) uint8 {
	switch axis {
	case 0:
		return p.R
	case 1:
		return p.G
	default:
		return p.B
	}
}

// Node is one tree slot. Left and Right are 1-based slots, 0 means none.
type Node struct {
	Point
	Axis        uint8
	Left, Right uint32
}

// State is the lifecycle state of a Tree.
type State uint8

const (
	StateEmpty State = iota
	StateSizing
	StateBuilding
	StateBuilt
	StateBuildFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateSizing:
		return "sizing"
	case StateBuilding:
		return "building"
	case StateBuilt:
		return "built"
	case StateBuildFailed:
		return "build_failed"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// Defaults.
const (
	DefaultMaxStack      = 64
	DefaultProgressEvery = 500
	DefaultReserve       = 500 << 10
)

type options struct {
	allocator     *resource.Allocator
	probe         resource.Probe
	reserve       int64
	yield         func()
	logger        *slog.Logger
	nodeCapacity  int
	maxStack      int
	progressEvery int
}

// Option configures a Tree build.
type Option func(*options)

// WithAllocator reserves the node and working arrays through a.
func WithAllocator(a *resource.Allocator) Option {
	return func(o *options) { o.allocator = a }
}

// WithProbe sets the free-memory probe checked before every task.
func WithProbe(p resource.Probe) Option {
	return func(o *options) { o.probe = p }
}

// WithReserve sets the auxiliary memory that must stay free during a build.
func WithReserve(bytes int64) Option {
	return func(o *options) { o.reserve = bytes }
}

// WithYield sets the cooperative yield hook called every progress interval.
func WithYield(fn func()) Option {
	return func(o *options) {
		if fn != nil {
			o.yield = fn
		}
	}
}

// WithLogger sets the build logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithNodeCapacity caps the node array below the number of points.
// Points whose tasks do not fit are dropped.
func WithNodeCapacity(n int) Option {
	return func(o *options) { o.nodeCapacity = n }
}

// WithMaxStack bounds the query traversal stack.
func WithMaxStack(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxStack = n
		}
	}
}

// WithProgressEvery sets the yield and progress-log interval in nodes.
func WithProgressEvery(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.progressEvery = n
		}
	}
}

// Tree is an array-backed 3-d tree over RGB points.
//
// A Tree is safe for concurrent queries once built; Build and Clear must
// not run concurrently with anything else.
type Tree struct {
	mu        sync.RWMutex
	nodes     []Node
	count     int
	maxStack  int
	truncated bool
	dropped   int
	coverage  *roaring.Bitmap
	lease     *resource.Lease
	state     State
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{maxStack: DefaultMaxStack, coverage: roaring.New()}
}

type task struct {
	slot       uint32
	start, end int
	depth      int
}

// Build indexes points, replacing any previous contents.
//
// It reserves one node and one working point per input point (or per node
// of capacity, see WithNodeCapacity) before allocating. A build that writes
// at least one node succeeds, even when it was cut short.
func (t *Tree) Build(points []Point, opts ...Option) error {
	o := options{
		reserve:       DefaultReserve,
		yield:         runtime.Gosched,
		logger:        slog.New(slog.DiscardHandler),
		maxStack:      DefaultMaxStack,
		progressEvery: DefaultProgressEvery,
	}
	for _, opt := range opts {
		opt(&o)
	}

	t.Clear()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.maxStack = o.maxStack
	t.state = StateSizing

	n := len(points)
	if n == 0 {
		t.state = StateEmpty
		return ErrEmpty
	}

	capacity := n
	if o.nodeCapacity > 0 && o.nodeCapacity < n {
		capacity = o.nodeCapacity
	}
	if _, err := conv.IntToUint32(capacity); err != nil {
		t.state = StateEmpty
		return fmt.Errorf("kdtree: capacity %d: %w", capacity, err)
	}

	nodeLease, err := o.allocator.Reserve(int64(capacity) * NodeSize)
	if err != nil {
		t.state = StateEmpty
		return fmt.Errorf("%w: nodes: %w", ErrAllocation, err)
	}
	workLease, err := o.allocator.Reserve(int64(n) * PointSize)
	if err != nil {
		nodeLease.Release()
		t.state = StateEmpty
		return fmt.Errorf("%w: working points: %w", ErrAllocation, err)
	}
	defer workLease.Release()

	t.state = StateBuilding
	nodes := make([]Node, capacity)
	work := slices.Clone(points)

	o.logger.Info("kdtree build started", "points", n, "capacity", capacity, "bytes", nodeLease.Bytes()+workLease.Bytes())

	progress := rate.Sometimes{Every: o.progressEvery}
	limit := uint32(capacity) //nolint:gosec // checked above

	queue := make([]task, 0, min(capacity, 1024))
	queue = append(queue, task{slot: 1, start: 0, end: n})
	nextSlot := uint32(2)
	written := 0
	aborted := false

	for head := 0; head < len(queue); head++ {
		if o.probe != nil && o.probe.FreeAuxiliary() < o.reserve {
			aborted = true
			t.dropped += len(queue) - head
			o.logger.Warn("kdtree build aborted: memory reserve reached", "written", written, "pending", len(queue)-head)
			break
		}

		tk := queue[head]
		axis := uint8(tk.depth % 3) //nolint:gosec // 0..2
		span := work[tk.start:tk.end]
		slices.SortStableFunc(span, func(a, b Point) int {
			return cmp.Compare(a.coord(axis), b.coord(axis))
		})

		mid := tk.start + (tk.end-tk.start)/2
		node := &nodes[tk.slot-1]
		node.Point = work[mid]
		node.Axis = axis
		t.coverage.Add(node.Ref)
		written++

		if tk.start < mid {
			if nextSlot <= limit {
				node.Left = nextSlot
				queue = append(queue, task{slot: nextSlot, start: tk.start, end: mid, depth: tk.depth + 1})
				nextSlot++
			} else {
				t.dropped++
			}
		}
		if mid+1 < tk.end {
			if nextSlot <= limit {
				node.Right = nextSlot
				queue = append(queue, task{slot: nextSlot, start: mid + 1, end: tk.end, depth: tk.depth + 1})
				nextSlot++
			} else {
				t.dropped++
			}
		}

		progress.Do(func() {
			o.logger.Debug("kdtree build progress", "written", written, "points", n)
		})
		if written%o.progressEvery == 0 {
			o.yield()
		}
	}

	if aborted {
		// Slots are claimed and written in the same order, so [1, written]
		// holds every written node. Unlink children that were never written.
		bound := uint32(written) //nolint:gosec // written <= capacity
		for i := range nodes[:written] {
			if nodes[i].Left > bound {
				nodes[i].Left = 0
			}
			if nodes[i].Right > bound {
				nodes[i].Right = 0
			}
		}
	}

	t.truncated = t.dropped > 0

	if written == 0 {
		nodeLease.Release()
		t.coverage.Clear()
		t.dropped = 0
		t.truncated = false
		t.state = StateBuildFailed
		o.logger.Warn("kdtree build failed: no nodes written", "state", t.state)
		t.state = StateEmpty
		return fmt.Errorf("%w: no node could be built", ErrInsufficientMemory)
	}

	t.nodes = nodes
	t.count = written
	t.lease = nodeLease
	t.state = StateBuilt

	o.logger.Info("kdtree build completed",
		"nodes", written,
		"points", n,
		"truncated", t.truncated,
		"dropped", t.dropped,
		"bytes", nodeLease.Bytes(),
	)

	return nil
}

type frame struct {
	slot  uint32
	plane uint32 // squared distance to the splitting plane that led here
}

// Nearest returns the indexed point closest to (r, g, b) in squared RGB
// distance. It returns false when the tree is empty.
func (t *Tree) Nearest(r, g, b uint8) (Point, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.count == 0 {
		return Point{}, false
	}

	target := Point{R: r, G: g, B: b}
	var best Point
	var bestD uint32
	found := false

	stack := make([]frame, 0, t.maxStack)
	stack = append(stack, frame{slot: 1})

search:
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if found && f.plane >= bestD {
			continue
		}

		node := &t.nodes[f.slot-1]
		if d := squared(target, node.Point); !found || d < bestD {
			best, bestD, found = node.Point, d, true
		}

		diff := int(target.coord(node.Axis)) - int(node.coord(node.Axis))
		near, far := node.Right, node.Left
		if diff < 0 {
			near, far = node.Left, node.Right
		}
		plane := uint32(diff * diff) //nolint:gosec // at most 255²

		if far != 0 && plane < bestD {
			if len(stack) == t.maxStack {
				break search
			}
			stack = append(stack, frame{slot: far, plane: plane})
		}
		if near != 0 {
			if len(stack) == t.maxStack {
				break search
			}
			stack = append(stack, frame{slot: near})
		}
	}

	return best, found
}

func squared(a, b Point) uint32 {
	dr := int32(a.R) - int32(b.R)
	dg := int32(a.G) - int32(b.G)
	db := int32(a.B) - int32(b.B)
	return uint32(dr*dr + dg*dg + db*db) //nolint:gosec // non-negative
}

// NodeCount returns the number of nodes written.
func (t *Tree) NodeCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

// MemoryUsage returns the bytes reserved for the node array.
func (t *Tree) MemoryUsage() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lease.Bytes()
}

// Truncated reports whether points were left out of the tree.
func (t *Tree) Truncated() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.truncated
}

// Dropped returns the number of build tasks that were dropped.
func (t *Tree) Dropped() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dropped
}

// Coverage returns the refs of the indexed points.
func (t *Tree) Coverage() *roaring.Bitmap {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.coverage == nil {
		return roaring.New()
	}
	return t.coverage.Clone()
}

// State returns the lifecycle state.
func (t *Tree) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Clear drops the tree and releases its reservation. It is idempotent.
func (t *Tree) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lease.Release()
	t.lease = nil
	t.nodes = nil
	t.count = 0
	t.truncated = false
	t.dropped = 0
	if t.coverage == nil {
		t.coverage = roaring.New()
	}
	t.coverage.Clear()
	t.state = StateEmpty
}

var _ index.Index = (*Tree)(nil)

// Search implements index.Index. Distance is the squared RGB distance.
func (t *Tree) Search(r, g, b uint8) (index.Hit, bool) {
	p, ok := t.Nearest(r, g, b)
	if !ok {
		return index.Hit{}, false
	}
	return index.Hit{Ref: p.Ref, Distance: float64(squared(Point{R: r, G: g, B: b}, p))}, true
}

// Len implements index.Index.
func (t *Tree) Len() int { return t.NodeCount() }
