package adapter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/tafview/errs"
)

// Tree is a node of a phylogenetic tree.
type Tree struct {
	Name     string
	Length   float64
	Children []*Tree
}

// Leaves returns the leaf names in left-to-right order.
func (t *Tree) Leaves() []string {
	if t == nil {
		return nil
	}
	if len(t.Children) == 0 {
		return []string{t.Name}
	}

	var out []string
	for _, c := range t.Children {
		out = append(out, c.Leaves()...)
	}

	return out
}

// ParseNewick parses a tree in Newick format, e.g. "((hg38:0.1,panTro4:0.2)hp:0.3,mm10:1);".
func ParseNewick(s string) (*Tree, error) {
	p := &newickParser{s: strings.TrimSpace(s)}
	if p.s == "" {
		return nil, p.errorf("empty tree")
	}
	t, err := p.node()
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	if p.peek() == ';' {
		p.pos++
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return nil, p.errorf("unexpected trailing input")
	}

	return t, nil
}

type newickParser struct {
	s   string
	pos int
}

func (p *newickParser) node() (*Tree, error) {
	t := &Tree{}
	p.skipSpace()

	if p.peek() == '(' {
		p.pos++
		for {
			child, err := p.node()
			if err != nil {
				return nil, err
			}
			t.Children = append(t.Children, child)

			p.skipSpace()
			switch p.peek() {
			case ',':
				p.pos++
				continue
			case ')':
				p.pos++
			default:
				return nil, p.errorf("expected ',' or ')'")
			}

			break
		}
	}

	t.Name = p.label()
	p.skipSpace()
	if p.peek() == ':' {
		p.pos++
		raw := p.label()
		length, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, p.errorf("bad branch length %q", raw)
		}
		t.Length = length
	}

	return t, nil
}

func (p *newickParser) label() string {
	p.skipSpace()
	if p.peek() == '\'' {
		p.pos++
		end := strings.IndexByte(p.s[p.pos:], '\'')
		if end < 0 {
			name := p.s[p.pos:]
			p.pos = len(p.s)

			return name
		}
		name := p.s[p.pos : p.pos+end]
		p.pos += end + 1

		return name
	}

	start := p.pos
	for p.pos < len(p.s) && !strings.ContainsRune("(),:;", rune(p.s[p.pos])) {
		p.pos++
	}

	return strings.TrimSpace(p.s[start:p.pos])
}

func (p *newickParser) peek() byte {
	if p.pos >= len(p.s) {
		return 0
	}

	return p.s[p.pos]
}

func (p *newickParser) skipSpace() {
	for p.pos < len(p.s) && strings.ContainsRune(" \t\r\n", rune(p.s[p.pos])) {
		p.pos++
	}
}

func (p *newickParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", errs.ErrInvalidNewick, p.pos, fmt.Sprintf(format, args...))
}
