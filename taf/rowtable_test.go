package taf

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRowTable_Splice(t *testing.T) {
	var tbl RowTable

	require.True(t, tbl.Insert(0, Row{Assembly: "a"}))
	require.True(t, tbl.Insert(1, Row{Assembly: "c"}))
	require.True(t, tbl.Insert(1, Row{Assembly: "b"}))
	require.False(t, tbl.Insert(5, Row{Assembly: "z"}))
	require.False(t, tbl.Insert(-1, Row{Assembly: "z"}))
	require.Equal(t, []string{"a", "b", "c"}, assemblies(&tbl))

	require.True(t, tbl.Substitute(2, Row{Assembly: "d"}))
	require.False(t, tbl.Substitute(3, Row{Assembly: "z"}))
	require.Equal(t, []string{"a", "b", "d"}, assemblies(&tbl))

	require.True(t, tbl.Delete(0))
	require.False(t, tbl.Delete(2))
	require.Equal(t, []string{"b", "d"}, assemblies(&tbl))

	_, ok := tbl.At(2)
	require.False(t, ok)
	row, ok := tbl.At(1)
	require.True(t, ok)
	require.Equal(t, "d", row.Assembly)

	require.True(t, tbl.Apply(Instruction{Op: OpGap, Row: 99}))
	require.Equal(t, 2, tbl.Len())

	tbl.Reset()
	require.Zero(t, tbl.Len())
}

// Every successful insert grows the table by one and every successful delete
// shrinks it by one, whatever the interleaving.
func TestRowTable_LengthInvariant(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for trial := range 50 {
		var tbl RowTable
		inserts, deletes := 0, 0
		for range 200 {
			n := tbl.Len()
			switch rng.IntN(3) {
			case 0:
				if tbl.Apply(Instruction{Op: OpInsert, Row: rng.IntN(n + 2), Assembly: "x"}) {
					inserts++
				}
			case 1:
				if tbl.Apply(Instruction{Op: OpDelete, Row: rng.IntN(n + 2)}) {
					deletes++
				}
			default:
				tbl.Apply(Instruction{Op: OpSubstitute, Row: rng.IntN(n + 2), Assembly: "y"})
			}
			require.Equal(t, inserts-deletes, tbl.Len(), "trial %d", trial)
		}
	}
}

func assemblies(tbl *RowTable) []string {
	out := make([]string, 0, tbl.Len())
	for i := range tbl.Len() {
		row, _ := tbl.At(i)
		out = append(out, row.Assembly)
	}

	return out
}
