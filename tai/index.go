package tai

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/arloliu/tafview/errs"
)

// ContinueRef is the reference-name sentinel meaning "same reference as the previous line".
const ContinueRef = "*"

const maxLineSize = 1024 * 1024

// Index maps canonical reference names to their entries in increasing
// coordinate order. An Index is immutable after Parse returns and is safe for
// concurrent use.
type Index struct {
	entries map[string][]Entry
	names   []string
}

// totals holds the running sums for one canonical reference key.
type totals struct {
	coordinate uint64
	rawOffset  uint64
}

// Parse reads a .tai index from r.
//
// Returns:
//   - *Index: the decoded index, possibly empty
//   - error: *errs.MalformedIndexError for a line with fewer than three fields
//     or a non-numeric delta, or the underlying read error
func Parse(r io.Reader) (*Index, error) {
	idx := &Index{entries: make(map[string][]Entry)}
	running := make(map[string]*totals)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lastRef := ""
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, &errs.MalformedIndexError{Line: lineNo, Text: line, Reason: "expected 3 tab-separated fields"}
		}

		ref := fields[0]
		if ref == ContinueRef {
			if lastRef == "" {
				return nil, &errs.MalformedIndexError{Line: lineNo, Text: line, Reason: "continuation before any reference"}
			}
			ref = lastRef
		}
		key := CanonicalName(ref)

		deltaCoord, err := parseDelta(fields[1])
		if err != nil {
			return nil, &errs.MalformedIndexError{Line: lineNo, Text: line, Reason: "bad coordinate: " + err.Error()}
		}
		deltaOffset, err := parseDelta(fields[2])
		if err != nil {
			return nil, &errs.MalformedIndexError{Line: lineNo, Text: line, Reason: "bad offset: " + err.Error()}
		}

		t, ok := running[key]
		if !ok {
			t = &totals{}
			running[key] = t
			idx.names = append(idx.names, key)
		}

		// wrapping add keeps negative deltas exact in two's complement
		t.coordinate += deltaCoord
		t.rawOffset += deltaOffset

		idx.entries[key] = append(idx.entries[key], Entry{
			Coordinate: t.coordinate,
			Offset:     VirtualOffset(t.rawOffset),
		})
		lastRef = ref
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return idx, nil
}

// ParseBytes is Parse over an in-memory index file.
func ParseBytes(data []byte) (*Index, error) {
	return Parse(bytes.NewReader(data))
}

// CanonicalName returns the last dot-delimited token of a reference name.
func CanonicalName(ref string) string {
	if i := strings.LastIndexByte(ref, '.'); i >= 0 {
		return ref[i+1:]
	}

	return ref
}

func parseDelta(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		v, err := strconv.ParseInt(s, 10, 64)
		return uint64(v), err //nolint: gosec
	}

	return strconv.ParseUint(s, 10, 64)
}

// RefNames returns the canonical reference names in first-seen order.
func (idx *Index) RefNames() []string {
	out := make([]string, len(idx.names))
	copy(out, idx.names)

	return out
}

// Entries returns the entries of a canonical reference name, nil if unknown.
// The returned slice must not be modified.
func (idx *Index) Entries(ref string) []Entry {
	return idx.entries[ref]
}

// Len returns the total number of entries across all references.
func (idx *Index) Len() int {
	n := 0
	for _, e := range idx.entries {
		n += len(e)
	}

	return n
}
