package adapter

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/tafview/errs"
)

const sampleMAF = `##maf version=1 scoring=tba.v8
# tba.v8 (((human chimp) baboon) (mouse rat))

a score=23262.0
s hg38.chr7             27578828 38 + 158545518 AAA-GGGAATGTTAACCAAATGA---ATTGTCTCTTACGGTG
s panTro4.chr6          28741140 38 + 161576975 AAA-GGGAATGTTAACCAAATGA---ATTGTCTCTTACGGTG
s GCA_000001635.2.chr6  53215344 38 + 151104725 -AATGGGAATGTTAAGCAAACGA---ATTGTCTCTCAGTGTG
i GCA_000001635.2.chr6  N 0 C 0

a score=5062.0
s hg38.chr7    27699739 6 + 158545518 TAAAGA
s panTro4.chr6 28862317 6 + 161576975 TAAAGA

a score=6636.0
s panTro4.chr1 100 13 - 161576975 gcagctgaaaaca
s hg38.chr1    200 13 + 248956422 gcagctgaaaaca
`

func writeMAF(t *testing.T, gzipped bool) string {
	t.Helper()

	data := []byte(sampleMAF)
	name := "sample.maf"
	if gzipped {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		_, err := gz.Write(data)
		require.NoError(t, err)
		require.NoError(t, gz.Close())
		data = buf.Bytes()
		name += ".gz"
	}

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return path
}

func newMaf(t *testing.T, cfg Config) AlignmentAdapter {
	t.Helper()

	logger, _ := test.NewNullLogger()
	cfg.Type = TypeMaf
	a, err := New(cfg, WithLogger(logger))
	require.NoError(t, err)

	return a
}

func TestMafAdapter_Features(t *testing.T) {
	for _, gzipped := range []bool{false, true} {
		t.Run(map[bool]string{false: "plain", true: "gzip"}[gzipped], func(t *testing.T) {
			a := newMaf(t, Config{MafLocation: writeMAF(t, gzipped), RefAssemblyName: "hg38"})
			ctx := context.Background()

			refs, err := a.RefNames(ctx)
			require.NoError(t, err)
			require.Equal(t, []string{"chr7", "chr1"}, refs)

			features, err := Collect(a.Features(ctx, Region{RefName: "chr7", Start: 27578800, End: 27578830}))
			require.NoError(t, err)
			require.Len(t, features, 1)

			f := features[0]
			require.Equal(t, uint64(27578828), f.Start)
			require.Equal(t, uint64(27578866), f.End)
			require.Equal(t, "hg38", f.RefAssembly)
			require.Equal(t, "AAA-GGGAATGTTAACCAAATGA---ATTGTCTCTTACGGTG", f.ReferenceSequence)
			require.Len(t, f.Alignments, 3)

			mouse := f.Alignments["GCA_000001635.2"]
			require.Equal(t, "chr6", mouse.Chr)
			require.Equal(t, uint64(53215344), mouse.Start)
			require.Equal(t, uint64(151104725), mouse.SrcSize)

			// reference row chosen by assembly, not by position
			features, err = Collect(a.Features(ctx, Region{RefName: "chr1", Start: 0, End: 1000}))
			require.NoError(t, err)
			require.Len(t, features, 1)
			require.Equal(t, uint64(200), features[0].Start)
			require.Equal(t, -1, features[0].Alignments["panTro4"].Strand)

			features, err = Collect(a.Features(ctx, Region{RefName: "chr7", Start: 0, End: 100}))
			require.NoError(t, err)
			require.Empty(t, features)

			features, err = Collect(a.Features(ctx, Region{RefName: "chr7", Start: 0, End: 30000000}))
			require.NoError(t, err)
			require.Len(t, features, 2)
			require.Less(t, features[0].Start, features[1].Start)
		})
	}
}

func TestMafAdapter_Samples(t *testing.T) {
	dir := t.TempDir()
	nh := filepath.Join(dir, "tree.nh")
	require.NoError(t, os.WriteFile(nh, []byte("((GCA_000001635.2:1,panTro4:0.1):0.2,hg38:0.1);"), 0o600))

	a := newMaf(t, Config{MafLocation: writeMAF(t, false), NhLocation: nh})
	set, err := a.Samples(context.Background(), Region{})
	require.NoError(t, err)
	require.NotNil(t, set.Tree)
	require.Equal(t, []Sample{
		{ID: "GCA_000001635.2", Label: "GCA_000001635.2"},
		{ID: "panTro4", Label: "panTro4"},
		{ID: "hg38", Label: "hg38"},
	}, set.Samples)

	a = newMaf(t, Config{MafLocation: writeMAF(t, false), Samples: []Sample{{ID: "hg38"}}})
	set, err = a.Samples(context.Background(), Region{})
	require.NoError(t, err)
	require.Nil(t, set.Tree)
	require.Equal(t, []Sample{{ID: "hg38", Label: "hg38"}}, set.Samples)
}

func TestMafAdapter_Errors(t *testing.T) {
	a := newMaf(t, Config{MafLocation: filepath.Join(t.TempDir(), "missing.maf")})
	_, err := Collect(a.Features(context.Background(), Region{RefName: "chr1", End: 10}))
	require.Error(t, err)

	_, err = parseMAF(strings.NewReader("a\ns hg38.chr1 10 x + 100 ACGT\n"), "")
	require.ErrorIs(t, err, errs.ErrInvalidMAF)
	_, err = parseMAF(strings.NewReader("a\ns hg38.chr1 10 4 +\n"), "")
	require.ErrorIs(t, err, errs.ErrInvalidMAF)
}

func TestMafAdapter_CancelledCallerDoesNotFailLoad(t *testing.T) {
	var hits atomic.Int32
	reached := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			close(reached)
		}
		<-release
		_, _ = w.Write([]byte(sampleMAF))
	}))
	defer srv.Close()

	a := newMaf(t, Config{MafLocation: srv.URL + "/sample.maf"})

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := a.RefNames(ctx)
		first <- err
	}()
	<-reached

	second := make(chan error, 1)
	var refs []string
	go func() {
		var err error
		refs, err = a.RefNames(context.Background())
		second <- err
	}()

	cancel()
	require.ErrorIs(t, <-first, context.Canceled)
	close(release)

	require.NoError(t, <-second)
	require.Equal(t, []string{"chr7", "chr1"}, refs)
	require.Equal(t, int32(1), hits.Load())
}

func TestSplitSourceName(t *testing.T) {
	tests := []struct{ src, asm, chr string }{
		{"hg38.chr1", "hg38", "chr1"},
		{"GCA_000001405.15.chr1", "GCA_000001405.15", "chr1"},
		{"hg38.chrUn.alt", "hg38", "chrUn.alt"},
		{"scaffold", "scaffold", ""},
	}
	for _, tt := range tests {
		asm, chr := SplitSourceName(tt.src)
		require.Equal(t, tt.asm, asm, tt.src)
		require.Equal(t, tt.chr, chr, tt.src)
	}
}
