package adapter

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/arloliu/tafview/blockstore"
	"github.com/arloliu/tafview/errs"
	"github.com/arloliu/tafview/internal/hash"
)

// MafAdapter serves features from a MAF file, plain or gzipped, loaded into
// memory on first use.
type MafAdapter struct {
	cfg    Config
	opts   *settings
	logger logrus.FieldLogger

	group singleflight.Group

	mu   sync.Mutex
	data *mafData
	tree *Tree
}

var _ AlignmentAdapter = (*MafAdapter)(nil)

// mafData holds the parsed blocks keyed by reference sequence name, each list
// sorted by start.
type mafData struct {
	blocks  map[string][]Feature
	refs    []string
	samples []string
}

func newMafAdapter(cfg Config, s *settings) (*MafAdapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &MafAdapter{
		cfg:    cfg,
		opts:   s,
		logger: s.logger.WithField("adapter", TypeMaf),
	}, nil
}

func (a *MafAdapter) setup(ctx context.Context) (*mafData, error) {
	a.mu.Lock()
	d := a.data
	a.mu.Unlock()
	if d != nil {
		return d, nil
	}

	ch := a.group.DoChan("setup", func() (any, error) {
		return a.load(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}

		return res.Val.(*mafData), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *MafAdapter) load(ctx context.Context) (*mafData, error) {
	raw, err := blockstore.ReadAll(ctx, a.cfg.MafLocation, a.opts.client)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", a.cfg.MafLocation, err)
	}

	var r io.Reader = bytes.NewReader(raw)
	if len(raw) >= 2 && raw[0] == 0x1f && raw[1] == 0x8b {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errs.ErrDecompress, err)
		}
		defer gz.Close()
		r = gz
	}

	data, err := parseMAF(r, a.cfg.RefAssemblyName)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.data = data
	a.mu.Unlock()
	a.logger.WithField("bytes", len(raw)).Debug("maf loaded")

	return data, nil
}

// RefNames implements AlignmentAdapter.
func (a *MafAdapter) RefNames(ctx context.Context) ([]string, error) {
	d, err := a.setup(ctx)
	if err != nil {
		return nil, err
	}

	return append([]string(nil), d.refs...), nil
}

// Features implements AlignmentAdapter. Blocks overlapping region are
// yielded in order of their start.
func (a *MafAdapter) Features(ctx context.Context, region Region) iter.Seq2[Feature, error] {
	d, err := a.setup(ctx)
	if err != nil {
		return failed(err)
	}

	return func(yield func(Feature, error) bool) {
		for _, f := range d.blocks[region.RefName] {
			if f.Start >= region.End {
				return
			}
			if f.End <= region.Start {
				continue
			}
			if err := ctx.Err(); err != nil {
				yield(Feature{}, err)
				return
			}
			if !yield(f, nil) {
				return
			}
		}
	}
}

// Samples implements AlignmentAdapter.
func (a *MafAdapter) Samples(ctx context.Context, _ Region) (SampleSet, error) {
	var tree *Tree
	if a.cfg.NhLocation != "" {
		a.mu.Lock()
		tree = a.tree
		a.mu.Unlock()
		if tree == nil {
			t, err := readTree(ctx, a.cfg.NhLocation, a.opts.client)
			if err != nil {
				return SampleSet{}, err
			}
			a.mu.Lock()
			a.tree, tree = t, t
			a.mu.Unlock()
		}
	}

	if len(a.cfg.Samples) > 0 {
		return SampleSet{Samples: NormalizeSamples(a.cfg.Samples), Tree: tree}, nil
	}

	d, err := a.setup(ctx)
	if err != nil {
		return SampleSet{}, err
	}
	set := SampleSet{Tree: tree}
	for _, id := range d.samples {
		set.Samples = append(set.Samples, Sample{ID: id, Label: id})
	}
	if tree != nil {
		set.Samples = orderByTree(set.Samples, tree)
	}

	return set, nil
}

// parseMAF reads MAF alignment blocks. The reference row of each block is the
// one whose assembly is refAssembly, or the first row when refAssembly is
// empty or absent from the block.
func parseMAF(r io.Reader, refAssembly string) (*mafData, error) {
	d := &mafData{blocks: make(map[string][]Feature)}
	seenSample := make(map[string]bool)

	var rows []mafRow
	flush := func() {
		if len(rows) == 0 {
			return
		}
		f := blockToFeature(rows, refAssembly)
		if _, ok := d.blocks[f.RefName]; !ok {
			d.refs = append(d.refs, f.RefName)
		}
		d.blocks[f.RefName] = append(d.blocks[f.RefName], f)
		for _, row := range rows {
			if !seenSample[row.assembly] {
				seenSample[row.assembly] = true
				d.samples = append(d.samples, row.assembly)
			}
		}
		rows = nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "" || line[0] == '#':
			flush()
		case line[0] == 'a' && (len(line) == 1 || line[1] == ' '):
			flush()
		case line[0] == 's' && len(line) > 1 && line[1] == ' ':
			row, err := parseMafRow(line)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", errs.ErrInvalidMAF, lineNo, err)
			}
			rows = append(rows, row)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	for _, blocks := range d.blocks {
		sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Start < blocks[j].Start })
	}

	return d, nil
}

type mafRow struct {
	assembly string
	aln      Alignment
	size     uint64
}

// parseMafRow parses "s src start size strand srcSize text".
func parseMafRow(line string) (mafRow, error) {
	f := strings.Fields(line)
	if len(f) != 7 {
		return mafRow{}, fmt.Errorf("expected 7 fields, got %d", len(f))
	}

	start, err := strconv.ParseUint(f[2], 10, 64)
	if err != nil {
		return mafRow{}, fmt.Errorf("start: %w", err)
	}
	size, err := strconv.ParseUint(f[3], 10, 64)
	if err != nil {
		return mafRow{}, fmt.Errorf("size: %w", err)
	}
	srcSize, err := strconv.ParseUint(f[5], 10, 64)
	if err != nil {
		return mafRow{}, fmt.Errorf("srcSize: %w", err)
	}
	strand := 1
	if f[4] == "-" {
		strand = -1
	}

	asm, chr := SplitSourceName(f[1])

	return mafRow{
		assembly: asm,
		size:     size,
		aln: Alignment{
			Chr:      chr,
			Start:    start,
			Strand:   strand,
			SrcSize:  srcSize,
			Sequence: f[6],
		},
	}, nil
}

// SplitSourceName splits a MAF source name into assembly and chromosome.
// A numeric second token is taken as an assembly version, so
// "GCA_000001405.15.chr1" is assembly "GCA_000001405.15", chr "chr1", while
// "hg38.chrUn.alt" is assembly "hg38", chr "chrUn.alt".
func SplitSourceName(src string) (assembly, chr string) {
	parts := strings.Split(src, ".")
	switch {
	case len(parts) == 1:
		return src, ""
	case len(parts) == 2:
		return parts[0], parts[1]
	case isNumber(parts[1]):
		return parts[0] + "." + parts[1], strings.Join(parts[2:], ".")
	default:
		return parts[0], strings.Join(parts[1:], ".")
	}
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func blockToFeature(rows []mafRow, refAssembly string) Feature {
	ref := rows[0]
	for _, row := range rows {
		if refAssembly != "" && row.assembly == refAssembly {
			ref = row
			break
		}
	}

	f := Feature{
		RefName:           ref.aln.Chr,
		Start:             ref.aln.Start,
		End:               ref.aln.Start + ref.size,
		Strand:            ref.aln.Strand,
		ReferenceSequence: ref.aln.Sequence,
		RefAssembly:       ref.assembly,
		Alignments:        make(map[string]Alignment, len(rows)),
	}
	f.ID = strconv.FormatUint(hash.Uint64s(hash.ID(f.RefName), f.Start, f.End), 16)
	for _, row := range rows {
		if _, dup := f.Alignments[row.assembly]; !dup {
			f.Alignments[row.assembly] = row.aln
		}
	}

	return f
}
