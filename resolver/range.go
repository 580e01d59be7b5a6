package resolver

import "github.com/arloliu/tafview/tai"

// Range is the pair of index entries bounding the bytes decoded for a query.
type Range struct {
	First tai.Entry
	Next  tai.Entry
	// Bounded is false when no entry lies past the query end and Next is the
	// last entry of the reference; decoding then runs to the end of Next's
	// block.
	Bounded bool
}

// SelectRange picks the entries bounding the query [start, end).
//
// First is the entry immediately before the first entry whose coordinate is
// >= start, clamped to the first entry. Next is the first entry whose
// coordinate is > end, falling back to the last entry.
//
// Returns:
//   - Range: the bounding entries
//   - bool: false when the query lies outside the indexed content, that is
//     entirely before the first entry or starting after the last one
func SelectRange(entries []tai.Entry, start, end uint64) (Range, bool) {
	if len(entries) == 0 || end <= entries[0].Coordinate {
		return Range{}, false
	}

	firstIdx := -1
	for i, e := range entries {
		if e.Coordinate >= start {
			firstIdx = max(i-1, 0)
			break
		}
	}
	if firstIdx < 0 {
		return Range{}, false
	}

	r := Range{First: entries[firstIdx], Next: entries[len(entries)-1]}
	for _, e := range entries {
		if e.Coordinate > end {
			r.Next = e
			r.Bounded = true

			break
		}
	}

	return r, true
}

func (r Range) key() [5]uint64 {
	bounded := uint64(0)
	if r.Bounded {
		bounded = 1
	}

	return [5]uint64{r.First.Coordinate, uint64(r.First.Offset), r.Next.Coordinate, uint64(r.Next.Offset), bounded}
}
