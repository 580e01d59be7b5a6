package adapter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractColumns(t *testing.T) {
	tests := []struct {
		seq              string
		relStart, relEnd int
		start, end       int
	}{
		{"ACGTACGTAC", 0, 5, 0, 5},
		{"AC-TACGTAC", 0, 5, 0, 6},
		{"AC-TACGTAC", 2, 4, 2, 5},
		{"ACGT", 1, 100, 1, 4},
		{"ACGT", 4, 8, 4, 4},
		{"", 0, 3, 0, 0},
	}
	for _, tt := range tests {
		start, end := ExtractColumns(tt.seq, tt.relStart, tt.relEnd)
		require.Equal(t, tt.start, start, "%s %d-%d", tt.seq, tt.relStart, tt.relEnd)
		require.Equal(t, tt.end, end, "%s %d-%d", tt.seq, tt.relStart, tt.relEnd)
	}
}

func fastaFeature(ref, other string) Feature {
	return Feature{
		RefName:           "chr1",
		Start:             100,
		End:               110,
		ReferenceSequence: ref,
		Alignments: map[string]Alignment{
			"assembly1": {Chr: "chr1", Start: 100, Strand: 1, Sequence: ref},
			"assembly2": {Chr: "chr2", Start: 200, Strand: -1, Sequence: other},
		},
	}
}

func TestFeaturesToFASTA(t *testing.T) {
	f := fastaFeature("ACGTACGTAC", "AC-TTCGTAC")

	got := strings.Split(FeaturesToFASTA([]Feature{f}, &Region{RefName: "chr1", Start: 100, End: 105}, FASTAOptions{}), "\n")
	require.Equal(t, []string{">assembly1.chr1:100:+", "ACGTA", ">assembly2.chr2:200:-", "AC-TT", ""}, got)

	got = strings.Split(FeaturesToFASTA([]Feature{f}, &Region{RefName: "chr1", Start: 103, End: 200}, FASTAOptions{}), "\n")
	require.Equal(t, []string{">assembly1.chr1:103:+", "TACGTAC", ">assembly2.chr2:202:-", "TTCGTAC", ""}, got)

	full := FeaturesToFASTA([]Feature{f}, nil, FASTAOptions{})
	require.Equal(t, ">assembly1.chr1:100:+\nACGTACGTAC\n>assembly2.chr2:200:-\nAC-TTCGTAC\n", full)
}

func TestFeaturesToFASTA_ReferenceGap(t *testing.T) {
	f := fastaFeature("AC-TACGTAC", "ACGTTCGTAC")
	region := &Region{RefName: "chr1", Start: 100, End: 105}

	got := strings.Split(FeaturesToFASTA([]Feature{f}, region, FASTAOptions{}), "\n")
	require.Equal(t, "AC-TAC", got[1])
	require.Equal(t, "ACGTTC", got[3])

	got = strings.Split(FeaturesToFASTA([]Feature{f}, region, FASTAOptions{SkipReferenceGaps: true}), "\n")
	require.Equal(t, "ACTAC", got[1])
	require.Equal(t, "ACTTC", got[3])
}
