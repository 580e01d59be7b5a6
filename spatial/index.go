package spatial

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/arloliu/tafview/internal/options"
)

const (
	// DefaultNodeSize is the number of children per tree node.
	DefaultNodeSize = 16
	// DefaultMinXDistance is the density filter distance in pixels.
	DefaultMinXDistance = 0.5

	hilbertMax = 1<<16 - 1
)

// Index is a static packed R-tree over primitives. It is safe for concurrent
// reads.
type Index struct {
	items    []Primitive
	nodeSize int

	// boxes and indices hold every node, leaves first, then each upper level.
	// For a leaf, indices is the item id; for an inner node, the position of
	// its first child.
	boxes       []Box
	indices     []int
	levelBounds []int
}

// Config holds Build settings.
type Config struct {
	NodeSize     int
	MinXDistance float64
	// Unfiltered disables the density filter.
	Unfiltered bool
}

// Option configures Build.
type Option = options.Option[*Config]

// WithNodeSize sets the node fan-out; it must be between 2 and 65535.
func WithNodeSize(n int) Option {
	return options.New(func(c *Config) error {
		if n < 2 || n > math.MaxUint16 {
			return fmt.Errorf("node size must be in [2, 65535], got %d", n)
		}
		c.NodeSize = n

		return nil
	})
}

// WithMinXDistance sets the density filter distance.
func WithMinXDistance(d float64) Option {
	return options.New(func(c *Config) error {
		if d < 0 || math.IsNaN(d) {
			return fmt.Errorf("min x distance must be non-negative, got %v", d)
		}
		c.MinXDistance = d

		return nil
	})
}

// WithoutDensityFilter indexes every primitive.
func WithoutDensityFilter() Option {
	return options.NoError(func(c *Config) {
		c.Unfiltered = true
	})
}

// Build filters prims and bulk-loads the survivors, in order, into an Index.
// Item ids are positions in the filtered sequence.
func Build(prims []Primitive, opts ...Option) (*Index, error) {
	cfg := Config{NodeSize: DefaultNodeSize, MinXDistance: DefaultMinXDistance}
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	items := prims
	if !cfg.Unfiltered {
		items = Thin(prims, cfg.MinXDistance)
	}

	return pack(slices.Clone(items), cfg.NodeSize), nil
}

// Thin applies the density filter: a primitive is kept only if its MinX is
// more than minDistance away from the MinX of the last kept primitive.
// Insertions are always kept and reset the reference position.
func Thin(prims []Primitive, minDistance float64) []Primitive {
	out := make([]Primitive, 0, len(prims))
	lastX := math.Inf(-1)
	for _, p := range prims {
		if p.IsInsertion() || math.Abs(p.MinX-lastX) > minDistance {
			out = append(out, p)
			lastX = p.MinX
		}
	}

	return out
}

func pack(items []Primitive, nodeSize int) *Index {
	idx := &Index{items: items, nodeSize: nodeSize}
	n := len(items)
	if n == 0 {
		return idx
	}

	// level bounds: leaves, then at least one parent level up to the root
	count, numNodes := n, n
	idx.levelBounds = []int{n}
	for {
		count = (count + nodeSize - 1) / nodeSize
		numNodes += count
		idx.levelBounds = append(idx.levelBounds, numNodes)
		if count == 1 {
			break
		}
	}

	bounds := items[0].Box
	for _, it := range items[1:] {
		bounds = bounds.union(it.Box)
	}

	order := make([]int, n)
	hv := make([]uint32, n)
	w, h := bounds.MaxX-bounds.MinX, bounds.MaxY-bounds.MinY
	for i, it := range items {
		order[i] = i
		hv[i] = hilbert(scale(it.MinX+it.MaxX, 2*bounds.MinX, 2*w), scale(it.MinY+it.MaxY, 2*bounds.MinY, 2*h))
	}
	sort.SliceStable(order, func(a, b int) bool { return hv[order[a]] < hv[order[b]] })

	idx.boxes = make([]Box, 0, numNodes)
	idx.indices = make([]int, 0, numNodes)
	for _, id := range order {
		idx.boxes = append(idx.boxes, items[id].Box)
		idx.indices = append(idx.indices, id)
	}

	pos := 0
	for _, end := range idx.levelBounds[:len(idx.levelBounds)-1] {
		for pos < end {
			first := pos
			box := idx.boxes[pos]
			for j := 0; j < nodeSize && pos < end; j++ {
				box = box.union(idx.boxes[pos])
				pos++
			}
			idx.boxes = append(idx.boxes, box)
			idx.indices = append(idx.indices, first)
		}
	}

	return idx
}

// scale maps v from [lo, lo+span] onto [0, hilbertMax].
func scale(v, lo, span float64) uint32 {
	if span <= 0 {
		return 0
	}

	return uint32(math.Floor(hilbertMax * (v - lo) / span)) //nolint: gosec
}

// Len returns the number of indexed primitives.
func (idx *Index) Len() int {
	return len(idx.items)
}

// NodeSize returns the node fan-out.
func (idx *Index) NodeSize() int {
	return idx.nodeSize
}

// Item returns the primitive with id i.
func (idx *Index) Item(i int) Primitive {
	return idx.items[i]
}

// Items returns the indexed primitives in id order. The slice must not be
// modified.
func (idx *Index) Items() []Primitive {
	return idx.items
}

// Bounds returns the box covering every indexed primitive.
func (idx *Index) Bounds() (Box, bool) {
	if len(idx.boxes) == 0 {
		return Box{}, false
	}

	return idx.boxes[len(idx.boxes)-1], true
}

// Search returns the ids of primitives intersecting q in ascending order.
func (idx *Index) Search(q Box) []int {
	if len(idx.boxes) == 0 {
		return nil
	}

	var out []int
	n := len(idx.items)
	stack := []int{len(idx.boxes) - 1}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		end := min(node+idx.nodeSize, idx.upperBound(node))
		for pos := node; pos < end; pos++ {
			if !q.Intersects(idx.boxes[pos]) {
				continue
			}
			if node < n {
				out = append(out, idx.indices[pos])
			} else {
				stack = append(stack, idx.indices[pos])
			}
		}
	}
	slices.Sort(out)

	return out
}

// upperBound returns the end of the level containing node position p.
func (idx *Index) upperBound(p int) int {
	i := sort.SearchInts(idx.levelBounds, p+1)
	if i == len(idx.levelBounds) {
		return len(idx.boxes)
	}

	return idx.levelBounds[i]
}

// QueryPoint returns every primitive containing (x, y). Insertions come
// first, then the remaining hits, each group in id order.
func (idx *Index) QueryPoint(x, y float64) []Primitive {
	ids := idx.Search(Box{MinX: x, MinY: y, MaxX: x, MaxY: y})

	out := make([]Primitive, 0, len(ids))
	for _, id := range ids {
		if idx.items[id].IsInsertion() {
			out = append(out, idx.items[id])
		}
	}
	for _, id := range ids {
		if !idx.items[id].IsInsertion() {
			out = append(out, idx.items[id])
		}
	}

	return out
}

// Pick returns the primitive a click at (x, y) selects, preferring an
// insertion over a base.
func (idx *Index) Pick(x, y float64) (Primitive, bool) {
	hits := idx.QueryPoint(x, y)
	if len(hits) == 0 {
		return Primitive{}, false
	}

	return hits[0], true
}

// hilbert returns the position of (x, y) on a 16-bit Hilbert curve.
func hilbert(x, y uint32) uint32 {
	a := x ^ y
	b := 0xFFFF ^ a
	c := 0xFFFF ^ (x | y)
	d := x & (y ^ 0xFFFF)

	A := a | (b >> 1)
	B := (a >> 1) ^ a
	C := ((c >> 1) ^ (b & (d >> 1))) ^ c
	D := ((a & (c >> 1)) ^ (d >> 1)) ^ d

	a, b, c, d = A, B, C, D
	A = (a & (a >> 2)) ^ (b & (b >> 2))
	B = (a & (b >> 2)) ^ (b & ((a ^ b) >> 2))
	C ^= (a & (c >> 2)) ^ (b & (d >> 2))
	D ^= (b & (c >> 2)) ^ ((a ^ b) & (d >> 2))

	a, b, c, d = A, B, C, D
	A = (a & (a >> 4)) ^ (b & (b >> 4))
	B = (a & (b >> 4)) ^ (b & ((a ^ b) >> 4))
	C ^= (a & (c >> 4)) ^ (b & (d >> 4))
	D ^= (b & (c >> 4)) ^ ((a ^ b) & (d >> 4))

	a, b, c, d = A, B, C, D
	C ^= (a & (c >> 8)) ^ (b & (d >> 8))
	D ^= (b & (c >> 8)) ^ ((a ^ b) & (d >> 8))

	a = C ^ (C >> 1)
	b = D ^ (D >> 1)

	i0 := x ^ y
	i1 := b | (0xFFFF ^ (i0 | a))

	i0 = spread(i0)
	i1 = spread(i1)

	return (i1 << 1) | i0
}

// spread interleaves the low 16 bits of v with zeros.
func spread(v uint32) uint32 {
	v = (v | (v << 8)) & 0x00FF00FF
	v = (v | (v << 4)) & 0x0F0F0F0F
	v = (v | (v << 2)) & 0x33333333
	v = (v | (v << 1)) & 0x55555555

	return v
}
