// Package fixture builds bgzip-compressed TAF files and their .tai indexes
// in memory for tests.
package fixture

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/arloliu/tafview/compress"
	"github.com/arloliu/tafview/tai"
)

// Line is one TAF line to write.
type Line struct {
	Text string
	// Coordinate is the reference coordinate of the line's column, used when
	// Indexed is set.
	Coordinate uint64
	Indexed    bool
}

// File is a built TAF file.
type File struct {
	TAF     []byte
	TAI     []byte
	Entries []tai.Entry
}

// Build writes lines into a BGZF stream, recording an index entry under
// refName for every indexed line.
func Build(refName string, lines []Line) (*File, error) {
	var data, index bytes.Buffer
	bw := compress.NewBGZFWriter(&data)
	tw := tai.NewWriter(&index)

	f := &File{}
	for _, l := range lines {
		if l.Indexed {
			block, pos := bw.Offset()
			e := tai.Entry{Coordinate: l.Coordinate, Offset: tai.NewVirtualOffset(block, pos)}
			if err := tw.Write(refName, e); err != nil {
				return nil, err
			}
			f.Entries = append(f.Entries, e)
		}
		if _, err := bw.Write([]byte(l.Text + "\n")); err != nil {
			return nil, err
		}
	}
	if err := bw.Close(); err != nil {
		return nil, err
	}
	if err := tw.Flush(); err != nil {
		return nil, err
	}

	f.TAF = data.Bytes()
	f.TAI = index.Bytes()

	return f, nil
}

// Synthetic describes a generated alignment of an ungapped reference against
// other assemblies.
type Synthetic struct {
	Assemblies []string // first entry is the reference
	Chr        string
	Start      uint64
	Columns    int
	// Every is the distance in columns between lines repeating the row
	// coordinates; those lines are indexed.
	Every int
}

// RefBase returns the reference letter at coordinate pos.
func RefBase(pos uint64) byte {
	return "ACGT"[pos%4]
}

// RowBase returns the letter of row at coordinate pos: the reference letter
// with a mismatch every seventh position on rows other than 0.
func RowBase(row int, pos uint64) byte {
	if row > 0 && (pos+uint64(row))%7 == 0 { //nolint: gosec
		return "TGCA"[pos%4]
	}

	return RefBase(pos)
}

// Lines generates the TAF lines of s.
func (s Synthetic) Lines() []Line {
	size := s.Start + uint64(s.Columns) + 1000 //nolint: gosec
	out := make([]Line, 0, s.Columns)
	letters := make([]byte, len(s.Assemblies))

	for c := range s.Columns {
		pos := s.Start + uint64(c) //nolint: gosec
		for r := range s.Assemblies {
			letters[r] = RowBase(r, pos)
		}

		var sb strings.Builder
		sb.Write(letters)
		indexed := s.Every > 0 && c%s.Every == 0
		if c == 0 || indexed {
			op := "s"
			if c == 0 {
				op = "i"
			}
			sb.WriteString(" ;")
			for r, asm := range s.Assemblies {
				fmt.Fprintf(&sb, " %s %d %s.%s %d + %d", op, r, asm, s.Chr, pos, size)
			}
		}
		out = append(out, Line{Text: sb.String(), Coordinate: pos, Indexed: indexed || c == 0})
	}

	return out
}
