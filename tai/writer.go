package tai

import (
	"bufio"
	"io"
	"strconv"
)

// Writer emits delta-encoded .tai lines from absolute entries.
//
// Consecutive entries of the same reference are written with the "*"
// continuation sentinel. Deltas are taken against the previous entry of the
// same canonical reference, mirroring what Parse reconstructs.
type Writer struct {
	w       *bufio.Writer
	lastRef string
	last    map[string]Entry
}

// NewWriter creates a Writer on w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:    bufio.NewWriter(w),
		last: make(map[string]Entry),
	}
}

// Write appends one entry for ref.
func (tw *Writer) Write(ref string, e Entry) error {
	key := CanonicalName(ref)
	prev := tw.last[key]

	name := ref
	if ref == tw.lastRef {
		name = ContinueRef
	}

	buf := make([]byte, 0, 64)
	buf = append(buf, name...)
	buf = append(buf, '\t')
	buf = appendDelta(buf, e.Coordinate, prev.Coordinate)
	buf = append(buf, '\t')
	buf = appendDelta(buf, uint64(e.Offset), uint64(prev.Offset))
	buf = append(buf, '\n')

	if _, err := tw.w.Write(buf); err != nil {
		return err
	}
	tw.last[key] = e
	tw.lastRef = ref

	return nil
}

// Flush writes any buffered data to the underlying writer.
func (tw *Writer) Flush() error {
	return tw.w.Flush()
}

func appendDelta(buf []byte, cur, prev uint64) []byte {
	if cur >= prev {
		return strconv.AppendUint(buf, cur-prev, 10)
	}

	return strconv.AppendInt(buf, -int64(prev-cur), 10) //nolint: gosec
}
