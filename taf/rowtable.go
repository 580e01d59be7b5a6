package taf

// Row describes the sequence owning one letter column of the current line.
type Row struct {
	Assembly string
	Chr      string
	Start    uint64
	Strand   int
	Length   uint64
}

// RowTable is the ordered set of active rows, addressed by position.
//
// Rows hold no references to each other; the position is the only handle, so
// splicing and removing keep every later index consistent. The zero value is
// an empty table ready for use. A RowTable is not safe for concurrent use.
type RowTable struct {
	rows []Row
}

// Len returns the number of active rows.
func (t *RowTable) Len() int {
	return len(t.rows)
}

// At returns the row at position i.
func (t *RowTable) At(i int) (Row, bool) {
	if i < 0 || i >= len(t.rows) {
		return Row{}, false
	}

	return t.rows[i], true
}

// Insert splices r in at position i, shifting later rows down. i may equal
// Len to append. It reports false and leaves the table unchanged when i is
// out of range.
func (t *RowTable) Insert(i int, r Row) bool {
	if i < 0 || i > len(t.rows) {
		return false
	}

	t.rows = append(t.rows, Row{})
	copy(t.rows[i+1:], t.rows[i:])
	t.rows[i] = r

	return true
}

// Substitute replaces the row at position i.
func (t *RowTable) Substitute(i int, r Row) bool {
	if i < 0 || i >= len(t.rows) {
		return false
	}
	t.rows[i] = r

	return true
}

// Delete removes the row at position i, shifting later rows up.
func (t *RowTable) Delete(i int) bool {
	if i < 0 || i >= len(t.rows) {
		return false
	}

	copy(t.rows[i:], t.rows[i+1:])
	t.rows[len(t.rows)-1] = Row{}
	t.rows = t.rows[:len(t.rows)-1]

	return true
}

// Apply executes one instruction. Gap instructions never change the table
// and always succeed.
func (t *RowTable) Apply(in Instruction) bool {
	switch in.Op {
	case OpInsert:
		return t.Insert(in.Row, in.Descriptor())
	case OpSubstitute:
		return t.Substitute(in.Row, in.Descriptor())
	case OpDelete:
		return t.Delete(in.Row)
	default:
		return true
	}
}

// Reset empties the table, keeping its capacity.
func (t *RowTable) Reset() {
	clear(t.rows)
	t.rows = t.rows[:0]
}
