package spatial

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/tafview/format"
)

func base(x, y float64, pos uint64) Primitive {
	return Primitive{
		Box:      Box{MinX: x, MinY: y, MaxX: x + 10.4, MaxY: y + 8},
		Pos:      pos,
		Chr:      "chr1",
		SampleID: "mm10",
		Base:     "A",
		Kind:     format.KindMismatch,
	}
}

func TestQueryPoint_InsertionFirst(t *testing.T) {
	prims := []Primitive{
		base(100, 0, 1010),
		base(110, 0, 1011),
		{
			Box:      Box{MinX: 107, MinY: 0, MaxX: 112, MaxY: 8},
			Pos:      1011,
			Chr:      "chr1",
			SampleID: "mm10",
			Base:     "TTGCA",
			Kind:     format.KindInsertion,
		},
	}
	idx, err := Build(prims)
	require.NoError(t, err)
	require.Equal(t, 3, idx.Len())

	hits := idx.QueryPoint(108, 4)
	require.Len(t, hits, 2)
	require.Equal(t, format.KindInsertion, hits[0].Kind)
	require.Equal(t, "TTGCA", hits[0].Base)
	require.Equal(t, format.KindMismatch, hits[1].Kind)
	require.Equal(t, uint64(1010), hits[1].Pos)

	picked, ok := idx.Pick(108, 4)
	require.True(t, ok)
	require.True(t, picked.IsInsertion())

	_, ok = idx.Pick(500, 4)
	require.False(t, ok)
	require.Empty(t, idx.QueryPoint(500, 4))
}

func TestBuild_DensityFilter(t *testing.T) {
	prims := []Primitive{
		base(0, 0, 1),
		base(0.3, 0, 2),
		base(0.6, 0, 3),
		{Box: Box{MinX: 0.7, MaxX: 1.7, MaxY: 8}, Kind: format.KindInsertion},
		base(0.9, 0, 4),
		base(1.3, 0, 5),
	}

	idx, err := Build(prims)
	require.NoError(t, err)
	var kept []uint64
	for _, p := range idx.Items() {
		kept = append(kept, p.Pos)
	}
	// 0.3 is too close to 0; 0.9 is too close to the insertion at 0.7.
	require.Equal(t, []uint64{1, 3, 0, 5}, kept)

	idx, err = Build(prims, WithoutDensityFilter())
	require.NoError(t, err)
	require.Equal(t, len(prims), idx.Len())

	idx, err = Build(prims, WithMinXDistance(0))
	require.NoError(t, err)
	require.Equal(t, len(prims), idx.Len())
}

func TestBuild_Options(t *testing.T) {
	_, err := Build(nil, WithNodeSize(1))
	require.Error(t, err)
	_, err = Build(nil, WithNodeSize(1<<16))
	require.Error(t, err)
	_, err = Build(nil, WithMinXDistance(-1))
	require.Error(t, err)

	idx, err := Build(nil, WithNodeSize(4))
	require.NoError(t, err)
	require.Equal(t, 4, idx.NodeSize())
}

func TestBuild_Empty(t *testing.T) {
	idx, err := Build(nil)
	require.NoError(t, err)
	require.Zero(t, idx.Len())
	require.Empty(t, idx.Search(Box{MaxX: 1e9, MaxY: 1e9}))

	_, ok := idx.Bounds()
	require.False(t, ok)
}

func TestBuild_SingleItem(t *testing.T) {
	idx, err := Build([]Primitive{base(5, 5, 9)})
	require.NoError(t, err)

	bounds, ok := idx.Bounds()
	require.True(t, ok)
	require.Equal(t, idx.Item(0).Box, bounds)
	require.Equal(t, []int{0}, idx.Search(Box{MinX: 6, MinY: 6, MaxX: 6, MaxY: 6}))
}

func randomPrimitives(rng *rand.Rand, n int) []Primitive {
	prims := make([]Primitive, n)
	for i := range prims {
		x, y := rng.Float64()*2000, rng.Float64()*400
		prims[i] = Primitive{
			Box:  Box{MinX: x, MinY: y, MaxX: x + rng.Float64()*20, MaxY: y + rng.Float64()*10},
			Pos:  uint64(i), //nolint: gosec
			Kind: format.PrimitiveKind(1 + rng.IntN(4)),
		}
	}

	return prims
}

func TestSearch_MatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))

	for _, nodeSize := range []int{2, 4, 16} {
		for _, n := range []int{1, 15, 16, 17, 300, 2000} {
			prims := randomPrimitives(rng, n)
			idx, err := Build(prims, WithoutDensityFilter(), WithNodeSize(nodeSize))
			require.NoError(t, err)

			for range 50 {
				x, y := rng.Float64()*2000, rng.Float64()*400
				q := Box{MinX: x, MinY: y, MaxX: x + rng.Float64()*200, MaxY: y + rng.Float64()*50}

				var want []int
				for i, p := range prims {
					if q.Intersects(p.Box) {
						want = append(want, i)
					}
				}
				require.Equal(t, want, idx.Search(q), "nodeSize=%d n=%d", nodeSize, n)
			}
		}
	}
}

func TestHilbert_Bijective(t *testing.T) {
	seen := make(map[uint32]struct{})
	for x := uint32(0); x < 64; x++ {
		for y := uint32(0); y < 64; y++ {
			seen[hilbert(x, y)] = struct{}{}
		}
	}
	require.Len(t, seen, 64*64)
}
