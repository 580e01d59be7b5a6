package render

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/tafview/adapter"
	"github.com/arloliu/tafview/format"
	"github.com/arloliu/tafview/internal/fixture"
	"github.com/arloliu/tafview/spatial"
)

// mm10 joins the block on line 2, so its row starts with two blank columns.
func TestRender_ReferenceRowInsertedMidBlock(t *testing.T) {
	f, err := fixture.Build("hg38.chr1", []fixture.Line{
		{Text: "A ; i 0 hg38.chr1 1000 + 100000", Coordinate: 1000, Indexed: true},
		{Text: "C"},
		{Text: "GA ; i 1 mm10.chr1 100 + 5000"},
		{Text: "TC"},
	})
	require.NoError(t, err)

	dir := t.TempDir()
	dataPath := filepath.Join(dir, "aln.taf.gz")
	indexPath := dataPath + ".tai"
	require.NoError(t, os.WriteFile(dataPath, f.TAF, 0o600))
	require.NoError(t, os.WriteFile(indexPath, f.TAI, 0o600))

	logger, _ := test.NewNullLogger()
	ad, err := adapter.NewTaffyAdapter(adapter.Config{
		TafGzLocation:   dataPath,
		TaiLocation:     indexPath,
		RefAssemblyName: "mm10",
	}, adapter.WithLogger(logger))
	require.NoError(t, err)
	defer ad.Close()

	ctx := context.Background()
	features, err := adapter.Collect(ad.Features(ctx, adapter.Region{RefName: "chr1", Start: 1000, End: 1004}))
	require.NoError(t, err)
	require.Len(t, features, 1)
	feat := features[0]
	require.Equal(t, "  AC", feat.ReferenceSequence)
	require.Equal(t, uint64(100), feat.Start)
	require.Equal(t, uint64(102), feat.End)

	vp := Viewport{
		Region:        adapter.Region{RefName: "chr1", Start: 100, End: 102},
		BpPerPx:       1,
		RowHeight:     10,
		RowProportion: 1,
		Samples:       samples("hg38", "mm10"),
	}
	out, err := newTestRenderer(t).Render(ctx, features, vp)
	require.NoError(t, err)

	byKind := func(sample string, kind format.PrimitiveKind) []spatial.Primitive {
		var got []spatial.Primitive
		for _, p := range out.Primitives {
			if p.SampleID == sample && p.Kind == kind {
				got = append(got, p)
			}
		}

		return got
	}

	matches := byKind("mm10", format.KindMatch)
	require.Len(t, matches, 2)
	for i, want := range []string{"A", "C"} {
		require.Equal(t, want, matches[i].Base)
		require.Equal(t, uint64(100+i), matches[i].Pos) //nolint: gosec
		require.InDelta(t, float64(i), matches[i].Box.MinX, 1e-9)
	}

	mismatches := byKind("hg38", format.KindMismatch)
	require.Len(t, mismatches, 2)
	require.Equal(t, uint64(100), mismatches[0].Pos)
	require.Equal(t, uint64(101), mismatches[1].Pos)

	// hg38 bases aligned to the blank columns precede the first mm10 base
	ins := byKind("hg38", format.KindInsertion)
	require.Len(t, ins, 1)
	require.Equal(t, "AC", ins[0].Base)
	require.Equal(t, uint64(100), ins[0].Pos)

	for _, p := range out.Primitives {
		require.Less(t, p.Pos, feat.End)
	}
}
