package taf

// Blank pads a sequence at columns where its row was not active.
const Blank = ' '

// Gap is the alignment gap character.
const Gap = '-'

// OrganismRecord is the reconstructed row of one assembly.
//
// Sequence has one byte per decoded line. Columns where the assembly had no
// active row hold Blank.
type OrganismRecord struct {
	Assembly string
	Chr      string
	Start    uint64
	Strand   int
	SrcSize  uint64
	Sequence string
	// Columns is the number of lines in which the assembly received a letter.
	Columns int
}

// Stats counts anomalies tolerated while decoding.
type Stats struct {
	// SkippedInstructions counts row instructions addressing a row outside the table.
	SkippedInstructions int
	// UnownedColumns counts letters at positions with no active row.
	UnownedColumns int
	// DuplicateColumns counts letters dropped because their assembly already
	// received a letter on the same line.
	DuplicateColumns int
	// MalformedLines counts lines whose instruction segment could not be parsed.
	MalformedLines int
}

// Block is the result of decoding a run of TAF lines.
type Block struct {
	Records map[string]*OrganismRecord
	// Order lists assembly ids in first-seen order.
	Order []string
	// Anchor is the assembly whose coordinates define the block's span, empty
	// when no row was ever introduced.
	Anchor string
	Lines  int
	Stats  Stats
}

// AnchorRecord returns the anchor's record, nil when there is no anchor.
func (b *Block) AnchorRecord() *OrganismRecord {
	if b == nil || b.Anchor == "" {
		return nil
	}

	return b.Records[b.Anchor]
}

// ReferenceSequence returns the anchor's aligned sequence.
func (b *Block) ReferenceSequence() string {
	if rec := b.AnchorRecord(); rec != nil {
		return rec.Sequence
	}

	return ""
}

// Span returns the reference interval [start, end) covered by the anchor.
// end - start is the number of reference bases, gaps and blanks excluded.
func (b *Block) Span() (start, end uint64) {
	rec := b.AnchorRecord()
	if rec == nil {
		return 0, 0
	}

	return rec.Start, rec.Start + uint64(CountBases(rec.Sequence)) //nolint: gosec
}

// CountBases returns the number of bytes in seq that are neither Gap nor Blank.
func CountBases(seq string) int {
	n := 0
	for i := range len(seq) {
		if c := seq[i]; c != Gap && c != Blank {
			n++
		}
	}

	return n
}
