package taf

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/arloliu/tafview/internal/options"
)

const (
	defaultMaxLoggedAnomalies = 10
	cancelCheckInterval       = 4096
)

// Decoder reconstructs row-oriented alignments from TAF lines. A Decoder
// holds only configuration and is safe for concurrent use; every Decode call
// has its own row table.
type Decoder struct {
	logger             logrus.FieldLogger
	maxLoggedAnomalies int
	strict             bool
}

// Option configures a Decoder.
type Option = options.Option[*Decoder]

// WithLogger sets the logger for anomaly reports.
func WithLogger(logger logrus.FieldLogger) Option {
	return options.NoError(func(d *Decoder) {
		if logger != nil {
			d.logger = logger
		}
	})
}

// WithMaxLoggedAnomalies caps the anomaly log lines emitted per Decode call.
// Anomalies beyond the cap are still counted in Stats.
func WithMaxLoggedAnomalies(n int) Option {
	return options.New(func(d *Decoder) error {
		if n < 0 {
			return fmt.Errorf("max logged anomalies must be non-negative, got %d", n)
		}
		d.maxLoggedAnomalies = n

		return nil
	})
}

// WithStrict makes Decode fail on a malformed instruction segment instead of
// skipping the line's instructions.
func WithStrict(strict bool) Option {
	return options.NoError(func(d *Decoder) {
		d.strict = strict
	})
}

// NewDecoder creates a Decoder.
func NewDecoder(opts ...Option) (*Decoder, error) {
	d := &Decoder{
		logger:             logrus.StandardLogger(),
		maxLoggedAnomalies: defaultMaxLoggedAnomalies,
	}
	if err := options.Apply(d, opts...); err != nil {
		return nil, err
	}

	return d, nil
}

// accumulator collects the letters of one assembly.
type accumulator struct {
	rec *OrganismRecord
	seq []byte
}

type decodeState struct {
	d      *Decoder
	table  RowTable
	accums map[string]*accumulator
	block  *Block
	logged int
}

// Decode replays the TAF lines in buf.
//
// buf may start at any line of a TAF body. On the first line, a substitution
// addressing the row just past the end of the table appends it, so a block
// starting at a coordinate-restating line rebuilds the full row table.
//
// For every line the row instructions are applied first, then letter i is
// appended to the assembly owning row i. Letters at positions with no active
// row are dropped. Before a letter is appended the assembly's sequence is
// padded with Blank up to the current line, and after the last line every
// sequence is padded to the line count, so all sequences end up with
// exactly Lines bytes.
//
// Returns:
//   - *Block: the reconstructed alignment, with no records if buf holds no lines
//   - error: ctx.Err() on cancellation, or in strict mode a malformed
//     instruction error
func (d *Decoder) Decode(ctx context.Context, buf []byte) (*Block, error) {
	st := &decodeState{
		d:      d,
		accums: make(map[string]*accumulator),
		block:  &Block{Records: make(map[string]*OrganismRecord)},
	}

	err := ScanLines(buf, func(line []byte) error {
		if st.block.Lines%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		return st.line(line)
	})
	if err != nil {
		return nil, err
	}

	st.finish()
	if s := st.block.Stats; s != (Stats{}) {
		d.logger.WithFields(logrus.Fields{
			"lines":                st.block.Lines,
			"skipped_instructions": s.SkippedInstructions,
			"unowned_columns":      s.UnownedColumns,
			"duplicate_columns":    s.DuplicateColumns,
			"malformed_lines":      s.MalformedLines,
		}).Debug("decoded block with anomalies")
	}

	return st.block, nil
}

func (st *decodeState) line(line []byte) error {
	lineNo := st.block.Lines
	letters, segment := SplitLine(line)

	if len(segment) > 0 {
		instructions, err := ParseInstructions(string(segment))
		if err != nil {
			if st.d.strict {
				return fmt.Errorf("line %d: %w", lineNo, err)
			}
			st.block.Stats.MalformedLines++
			st.anomaly(lineNo, "skipping malformed instructions", logrus.Fields{"error": err})
		}
		for _, in := range instructions {
			st.apply(lineNo, in)
		}
	}

	for i, c := range letters {
		row, ok := st.table.At(i)
		if !ok {
			st.block.Stats.UnownedColumns++
			continue
		}

		acc := st.accumulator(row)
		if len(acc.seq) > lineNo {
			st.block.Stats.DuplicateColumns++
			continue
		}
		acc.seq = padTo(acc.seq, lineNo)
		acc.seq = append(acc.seq, c)
		acc.rec.Columns++
	}
	st.block.Lines++

	return nil
}

func (st *decodeState) apply(lineNo int, in Instruction) {
	// a decode entering mid-stream starts at a line restating every row with
	// substitutions; on that first line they seed the empty table
	if lineNo == 0 && in.Op == OpSubstitute && in.Row == st.table.Len() {
		in.Op = OpInsert
	}

	if !st.table.Apply(in) {
		st.block.Stats.SkippedInstructions++
		st.anomaly(lineNo, "skipping row instruction out of range", logrus.Fields{
			"op":   in.Op.String(),
			"row":  in.Row,
			"rows": st.table.Len(),
		})

		return
	}

	if (in.Op == OpInsert || in.Op == OpSubstitute) && in.Assembly != "" {
		st.accumulator(in.Descriptor())
		if st.block.Anchor == "" {
			st.block.Anchor = in.Assembly
		}
	}
}

// accumulator returns the accumulator for row's assembly, creating it from
// row on first sight.
func (st *decodeState) accumulator(row Row) *accumulator {
	acc, ok := st.accums[row.Assembly]
	if ok {
		return acc
	}

	acc = &accumulator{rec: &OrganismRecord{
		Assembly: row.Assembly,
		Chr:      row.Chr,
		Start:    row.Start,
		Strand:   row.Strand,
		SrcSize:  row.Length,
	}}
	st.accums[row.Assembly] = acc
	st.block.Records[row.Assembly] = acc.rec
	st.block.Order = append(st.block.Order, row.Assembly)

	return acc
}

func (st *decodeState) anomaly(lineNo int, msg string, fields logrus.Fields) {
	st.logged++
	if st.logged > st.d.maxLoggedAnomalies {
		return
	}

	entry := st.d.logger.WithFields(fields).WithField("line", lineNo)
	if st.logged == st.d.maxLoggedAnomalies {
		entry = entry.WithField("suppressed", true)
	}
	entry.Warn(msg)
}

func (st *decodeState) finish() {
	for _, acc := range st.accums {
		acc.rec.Sequence = string(padTo(acc.seq, st.block.Lines))
	}
}

func padTo(seq []byte, n int) []byte {
	for len(seq) < n {
		seq = append(seq, Blank)
	}

	return seq
}
