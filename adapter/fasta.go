package adapter

import (
	"sort"
	"strconv"
	"strings"
)

// FASTAOptions tunes FeaturesToFASTA.
type FASTAOptions struct {
	// SkipReferenceGaps drops columns where the reference row has a gap, so
	// every record is in reference coordinates.
	SkipReferenceGaps bool
}

// ExtractColumns maps the reference interval [relStart, relEnd), counted in
// reference bases from the start of seq, to alignment columns [startCol,
// endCol). Gap and blank columns do not count as bases.
func ExtractColumns(seq string, relStart, relEnd int) (startCol, endCol int) {
	startCol, endCol = len(seq), len(seq)
	bases := 0
	for i := range len(seq) {
		if bases == relStart && startCol == len(seq) {
			startCol = i
		}
		if bases == relEnd {
			endCol = i
			break
		}
		if c := seq[i]; c != '-' && c != ' ' {
			bases++
		}
	}
	if endCol < startCol {
		endCol = startCol
	}

	return startCol, endCol
}

// FeaturesToFASTA renders the alignments of features as FASTA text.
//
// With a nil region each alignment is written in full. Otherwise the columns
// covering region on the feature's reference are cut out, and the header
// carries the genomic start of the cut for that alignment:
//
//	>assembly.chr:start:strand
//
// Records are ordered by assembly id within a feature.
func FeaturesToFASTA(features []Feature, region *Region, opts FASTAOptions) string {
	var sb strings.Builder

	for _, f := range features {
		startCol, endCol := 0, len(f.ReferenceSequence)
		if region != nil {
			relStart := 0
			if region.Start > f.Start {
				relStart = int(region.Start - f.Start) //nolint: gosec
			}
			relEnd := int(min(region.End, f.End) - min(f.Start, region.End)) //nolint: gosec
			startCol, endCol = ExtractColumns(f.ReferenceSequence, relStart, relEnd)
		}

		names := make([]string, 0, len(f.Alignments))
		for name := range f.Alignments {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			aln := f.Alignments[name]
			cols := aln.Sequence[min(startCol, len(aln.Sequence)):min(endCol, len(aln.Sequence))]
			start := aln.Start + uint64(countResidues(aln.Sequence[:min(startCol, len(aln.Sequence))])) //nolint: gosec

			sb.WriteByte('>')
			sb.WriteString(name)
			sb.WriteByte('.')
			sb.WriteString(aln.Chr)
			sb.WriteByte(':')
			sb.WriteString(strconv.FormatUint(start, 10))
			sb.WriteByte(':')
			if aln.Strand == -1 {
				sb.WriteByte('-')
			} else {
				sb.WriteByte('+')
			}
			sb.WriteByte('\n')

			if opts.SkipReferenceGaps {
				for i := range len(cols) {
					col := startCol + i
					if col < len(f.ReferenceSequence) && f.ReferenceSequence[col] == '-' {
						continue
					}
					sb.WriteByte(cols[i])
				}
			} else {
				sb.WriteString(cols)
			}
			sb.WriteByte('\n')
		}
	}

	return sb.String()
}

func countResidues(s string) int {
	n := 0
	for i := range len(s) {
		if c := s[i]; c != '-' && c != ' ' {
			n++
		}
	}

	return n
}
