package taf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/tafview/errs"
)

// Op is a row instruction op code.
type Op byte

const (
	OpInsert       Op = 'i'
	OpSubstitute   Op = 's'
	OpDelete       Op = 'd'
	OpGap          Op = 'g'
	OpGapSubstring Op = 'G'
)

func (op Op) String() string {
	switch op {
	case OpInsert:
		return "insert"
	case OpSubstitute:
		return "substitute"
	case OpDelete:
		return "delete"
	case OpGap:
		return "gap"
	case OpGapSubstring:
		return "gap-substring"
	default:
		return fmt.Sprintf("op(%q)", byte(op))
	}
}

// arity is the number of operand tokens following each op code.
var arity = map[Op]int{
	OpInsert:       5,
	OpSubstitute:   5,
	OpDelete:       1,
	OpGap:          2,
	OpGapSubstring: 2,
}

// Instruction is one parsed row instruction. Only the fields relevant to Op
// are set.
type Instruction struct {
	Op  Op
	Row int

	// insert, substitute
	Assembly string
	Chr      string
	Start    uint64
	Strand   int
	Length   uint64 // source sequence length

	// gap, gap substring
	GapLength uint64
	GapString string
}

// Descriptor returns the row descriptor carried by an insert or substitute.
func (in Instruction) Descriptor() Row {
	return Row{
		Assembly: in.Assembly,
		Chr:      in.Chr,
		Start:    in.Start,
		Strand:   in.Strand,
		Length:   in.Length,
	}
}

// ParseInstructions tokenizes the instruction segment of a TAF line.
//
// Returns:
//   - []Instruction: the instructions in line order
//   - error: wraps errs.ErrMalformedInstruction for an unknown op code, a
//     truncated operand list or a non-numeric operand
func ParseInstructions(s string) ([]Instruction, error) {
	tokens := strings.Fields(s)
	out := make([]Instruction, 0, len(tokens)/2)

	for i := 0; i < len(tokens); {
		tok := tokens[i]
		if len(tok) != 1 {
			return nil, fmt.Errorf("%w: op code %q at token %d", errs.ErrMalformedInstruction, tok, i)
		}
		op := Op(tok[0])
		n, ok := arity[op]
		if !ok {
			return nil, fmt.Errorf("%w: unknown op code %q at token %d", errs.ErrMalformedInstruction, tok, i)
		}
		if i+n >= len(tokens) {
			return nil, fmt.Errorf("%w: %s at token %d needs %d operands", errs.ErrMalformedInstruction, op, i, n)
		}

		operands := tokens[i+1 : i+1+n]
		in, err := parseOperands(op, operands)
		if err != nil {
			return nil, fmt.Errorf("%w: %s at token %d: %w", errs.ErrMalformedInstruction, op, i, err)
		}
		out = append(out, in)
		i += n + 1
	}

	return out, nil
}

func parseOperands(op Op, args []string) (Instruction, error) {
	row, err := strconv.Atoi(args[0])
	if err != nil {
		return Instruction{}, fmt.Errorf("row: %w", err)
	}
	in := Instruction{Op: op, Row: row}

	switch op {
	case OpInsert, OpSubstitute:
		in.Assembly, in.Chr = SplitName(args[1])
		if in.Start, err = strconv.ParseUint(args[2], 10, 64); err != nil {
			return Instruction{}, fmt.Errorf("start: %w", err)
		}
		in.Strand = 1
		if args[3] == "-" {
			in.Strand = -1
		}
		if in.Length, err = strconv.ParseUint(args[4], 10, 64); err != nil {
			return Instruction{}, fmt.Errorf("length: %w", err)
		}
	case OpGap:
		if in.GapLength, err = strconv.ParseUint(args[1], 10, 64); err != nil {
			return Instruction{}, fmt.Errorf("gap length: %w", err)
		}
	case OpGapSubstring:
		in.GapString = args[1]
	case OpDelete:
	}

	return in, nil
}

// SplitName splits a qualified "assembly.chr" sequence name on its last dot.
// A name without a dot is returned as the assembly with an empty chr.
func SplitName(name string) (assembly, chr string) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return name, ""
	}

	return name[:i], name[i+1:]
}
