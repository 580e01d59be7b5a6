package adapter

import (
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/arloliu/tafview/blockstore"
	"github.com/arloliu/tafview/internal/hash"
	"github.com/arloliu/tafview/resolver"
	"github.com/arloliu/tafview/taf"
	"github.com/arloliu/tafview/tai"
)

// TaffyAdapter serves features from a bgzip TAF file and its .tai index.
//
// The index is loaded on first use. Concurrent first calls share one load; a
// failed load is not remembered, so the next call tries again.
type TaffyAdapter struct {
	cfg    Config
	opts   *settings
	logger logrus.FieldLogger

	group singleflight.Group

	mu       sync.Mutex
	resolver *resolver.Resolver
	closer   io.Closer
	tree     *Tree
	treeSet  bool
}

var _ AlignmentAdapter = (*TaffyAdapter)(nil)

func newTaffyAdapter(cfg Config, s *settings) (*TaffyAdapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &TaffyAdapter{
		cfg:    cfg,
		opts:   s,
		logger: s.logger.WithField("adapter", TypeBgzipTaffy),
	}, nil
}

// NewTaffyAdapter creates a TaffyAdapter from cfg, whose Type must be TypeBgzipTaffy.
func NewTaffyAdapter(cfg Config, opts ...Option) (*TaffyAdapter, error) {
	cfg.Type = TypeBgzipTaffy
	a, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}

	return a.(*TaffyAdapter), nil
}

func (a *TaffyAdapter) setup(ctx context.Context) (*resolver.Resolver, error) {
	a.mu.Lock()
	r := a.resolver
	a.mu.Unlock()
	if r != nil {
		return r, nil
	}

	ch := a.group.DoChan("setup", func() (any, error) {
		return a.load(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}

		return res.Val.(*resolver.Resolver), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *TaffyAdapter) load(ctx context.Context) (*resolver.Resolver, error) {
	a.mu.Lock()
	r := a.resolver
	a.mu.Unlock()
	if r != nil {
		return r, nil
	}

	text, err := blockstore.ReadAll(ctx, a.cfg.TaiLocation, a.opts.client)
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", a.cfg.TaiLocation, err)
	}
	idx, err := tai.ParseBytes(text)
	if err != nil {
		return nil, fmt.Errorf("parse index %s: %w", a.cfg.TaiLocation, err)
	}

	src, closer, err := blockstore.Open(a.cfg.TafGzLocation, a.opts.client)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", a.cfg.TafGzLocation, err)
	}
	store, err := blockstore.New(src, blockstore.WithLogger(a.logger))
	if err != nil {
		closer.Close()
		return nil, err
	}

	ropts := []resolver.Option{resolver.WithLogger(a.logger)}
	if a.cfg.CacheSize > 0 {
		ropts = append(ropts, resolver.WithCacheSize(a.cfg.CacheSize))
	}
	r, err = resolver.New(idx, store, ropts...)
	if err != nil {
		closer.Close()
		return nil, err
	}

	a.mu.Lock()
	a.resolver, a.closer = r, closer
	a.mu.Unlock()

	a.logger.WithFields(logrus.Fields{"refs": len(idx.RefNames()), "entries": idx.Len()}).Info("loaded index")

	return r, nil
}

// RefNames implements AlignmentAdapter.
func (a *TaffyAdapter) RefNames(ctx context.Context) ([]string, error) {
	r, err := a.setup(ctx)
	if err != nil {
		return nil, err
	}

	return r.Index().RefNames(), nil
}

// Features implements AlignmentAdapter. It yields at most one feature, the
// block decoded for region.
func (a *TaffyAdapter) Features(ctx context.Context, region Region) iter.Seq2[Feature, error] {
	r, err := a.setup(ctx)
	if err != nil {
		return failed(err)
	}

	return func(yield func(Feature, error) bool) {
		block, err := r.Resolve(ctx, region.RefName, region.Start, region.End)
		if err != nil {
			yield(Feature{}, err)
			return
		}

		f, ok := a.blockFeature(region, block)
		if !ok {
			return
		}
		yield(f, nil)
	}
}

func (a *TaffyAdapter) blockFeature(region Region, block *taf.Block) (Feature, bool) {
	if block == nil {
		return Feature{}, false
	}

	refAsm := block.Anchor
	if _, ok := block.Records[a.cfg.RefAssemblyName]; ok {
		refAsm = a.cfg.RefAssemblyName
	}
	ref := block.Records[refAsm]
	if ref == nil {
		return Feature{}, false
	}

	f := Feature{
		RefName:           region.RefName,
		Start:             ref.Start,
		End:               ref.Start + uint64(taf.CountBases(ref.Sequence)), //nolint: gosec
		Strand:            ref.Strand,
		ReferenceSequence: ref.Sequence,
		RefAssembly:       refAsm,
		Alignments:        make(map[string]Alignment, len(block.Records)),
	}
	f.ID = strconv.FormatUint(hash.Uint64s(hash.ID(region.RefName), f.Start, f.End), 16)
	for asm, rec := range block.Records {
		f.Alignments[asm] = Alignment{
			Chr:      rec.Chr,
			Start:    rec.Start,
			Strand:   rec.Strand,
			SrcSize:  rec.SrcSize,
			Sequence: rec.Sequence,
		}
	}

	return f, true
}

// Samples implements AlignmentAdapter. Configured samples are returned as
// is; without them the rows present in region are listed in first-seen order.
func (a *TaffyAdapter) Samples(ctx context.Context, region Region) (SampleSet, error) {
	tree, err := a.loadTree(ctx)
	if err != nil {
		return SampleSet{}, err
	}
	if len(a.cfg.Samples) > 0 {
		return SampleSet{Samples: NormalizeSamples(a.cfg.Samples), Tree: tree}, nil
	}

	r, err := a.setup(ctx)
	if err != nil {
		return SampleSet{}, err
	}
	block, err := r.Resolve(ctx, region.RefName, region.Start, region.End)
	if err != nil {
		return SampleSet{}, err
	}

	set := SampleSet{Tree: tree}
	if block != nil {
		for _, asm := range block.Order {
			set.Samples = append(set.Samples, Sample{ID: asm, Label: asm})
		}
	}
	if tree != nil {
		set.Samples = orderByTree(set.Samples, tree)
	}

	return set, nil
}

func (a *TaffyAdapter) loadTree(ctx context.Context) (*Tree, error) {
	a.mu.Lock()
	tree, ok := a.tree, a.treeSet
	a.mu.Unlock()
	if ok || a.cfg.NhLocation == "" {
		return tree, nil
	}

	v, err, _ := a.group.Do("tree", func() (any, error) {
		return readTree(ctx, a.cfg.NhLocation, a.opts.client)
	})
	if err != nil {
		return nil, err
	}

	tree = v.(*Tree)
	a.mu.Lock()
	a.tree, a.treeSet = tree, true
	a.mu.Unlock()

	return tree, nil
}

// Close releases the alignment file.
func (a *TaffyAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer, a.resolver = nil, nil

	return err
}

// orderByTree sorts samples by the position of their id among the tree
// leaves; samples missing from the tree keep their order after the leaves.
func orderByTree(samples []Sample, tree *Tree) []Sample {
	rank := make(map[string]int)
	for i, name := range tree.Leaves() {
		rank[name] = i
	}
	pos := func(s Sample) int {
		if r, ok := rank[s.ID]; ok {
			return r
		}

		return len(rank)
	}

	out := append([]Sample(nil), samples...)
	sort.SliceStable(out, func(i, j int) bool { return pos(out[i]) < pos(out[j]) })

	return out
}

func readTree(ctx context.Context, location string, client *http.Client) (*Tree, error) {
	data, err := blockstore.ReadAll(ctx, location, client)
	if err != nil {
		return nil, fmt.Errorf("read tree %s: %w", location, err)
	}

	return ParseNewick(string(data))
}
