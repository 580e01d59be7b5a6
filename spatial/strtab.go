package spatial

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// stringTable interns the strings of a serialized index. Each distinct string
// is stored once as [length:uvarint][bytes] and items refer to it by id.
type stringTable struct {
	ids     map[string]uint32
	strings []string
	size    int
}

func newStringTable() *stringTable {
	return &stringTable{ids: make(map[string]uint32)}
}

// id returns the id of s, adding it on first use.
func (t *stringTable) id(s string) uint32 {
	if id, ok := t.ids[s]; ok {
		return id
	}
	id := uint32(len(t.strings)) //nolint: gosec
	t.ids[s] = id
	t.strings = append(t.strings, s)
	t.size += varintLen(uint64(len(s))) + len(s)

	return id
}

// encodedLen returns the number of bytes appendTo writes.
func (t *stringTable) encodedLen() int {
	return varintLen(uint64(len(t.strings))) + t.size
}

// appendTo writes the string count followed by every string in id order.
func (t *stringTable) appendTo(b []byte) []byte {
	b = binary.AppendUvarint(b, uint64(len(t.strings)))
	for _, s := range t.strings {
		b = binary.AppendUvarint(b, uint64(len(s)))
		b = append(b, s...)
	}

	return b
}

// readStringTable decodes a table written by appendTo and returns the
// strings and the number of bytes consumed.
func readStringTable(data []byte) ([]string, int, error) {
	count, n := binary.Uvarint(data)
	if n <= 0 {
		return nil, 0, errors.New("string table: bad count")
	}
	// every entry takes at least one byte
	if count > uint64(len(data)-n) {
		return nil, 0, fmt.Errorf("string table: %d entries in %d bytes", count, len(data)-n)
	}

	out := make([]string, 0, count)
	off := n
	for i := range count {
		l, m := binary.Uvarint(data[off:])
		if m <= 0 || l > uint64(len(data)-off-m) {
			return nil, 0, fmt.Errorf("string table: entry %d truncated", i)
		}
		off += m
		out = append(out, string(data[off:off+int(l)]))
		off += int(l)
	}

	return out, off, nil
}

// varintLen returns the number of bytes needed to encode n as a uvarint.
func varintLen(n uint64) int {
	l := 1
	for n >= 0x80 {
		n >>= 7
		l++
	}

	return l
}
