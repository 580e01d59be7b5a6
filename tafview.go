// Package tafview reads multiple genome alignments and renders the rows of
// a reference region for interactive display.
//
// Two storage formats are supported: bgzip-compressed TAF files with a .tai
// index, read block by block, and MAF files, read whole. Both are exposed
// through adapter.AlignmentAdapter, so the renderer never sees the format.
//
// # Basic Usage
//
//	ad, _ := tafview.Open("hg38.447way.yaml")
//	region := adapter.Region{RefName: "chr1", Start: 12345, End: 12400}
//
//	vp := tafview.DefaultViewport(region)
//	vp.BpPerPx = 0.1
//	out, _ := tafview.Render(ctx, ad, vp)
//
//	_ = png.Encode(w, out.Image)
//	idx, _ := spatial.Encode(out.Index, spatial.WithCompression(format.CompressionZstd))
//
// Hit testing a click on the image:
//
//	if p, ok := out.Index.Pick(x, y); ok && p.IsInsertion() {
//	    fmt.Println("inserted bases:", p.Base)
//	}
//
// # Package Structure
//
// This package provides convenient top-level wrappers. For finer control use
// the packages directly: tai parses the index, blockstore reads BGZF blocks,
// taf decodes TAF text, resolver maps a query to a decoded block, adapter
// serves features, render draws them and spatial indexes the drawing.
package tafview

import (
	"context"
	"fmt"

	"github.com/arloliu/tafview/adapter"
	"github.com/arloliu/tafview/render"
)

// Default viewport settings.
const (
	DefaultBpPerPx       = 1
	DefaultRowHeight     = 15
	DefaultRowProportion = 0.8
)

// Open loads the YAML adapter config at configPath and creates its adapter.
func Open(configPath string, opts ...adapter.Option) (adapter.AlignmentAdapter, error) {
	cfg, err := adapter.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	return adapter.New(cfg, opts...)
}

// DefaultViewport returns a viewport over region with default sizes. Samples
// are left empty so Render fills them from the adapter.
func DefaultViewport(region adapter.Region) render.Viewport {
	return render.Viewport{
		Region:        region,
		BpPerPx:       DefaultBpPerPx,
		RowHeight:     DefaultRowHeight,
		RowProportion: DefaultRowProportion,
	}
}

// Query returns the features overlapping region and the rows to show them in.
func Query(ctx context.Context, ad adapter.AlignmentAdapter, region adapter.Region) ([]adapter.Feature, adapter.SampleSet, error) {
	features, err := adapter.Collect(ad.Features(ctx, region))
	if err != nil {
		return nil, adapter.SampleSet{}, fmt.Errorf("query %s:%d-%d: %w", region.RefName, region.Start, region.End, err)
	}
	set, err := ad.Samples(ctx, region)
	if err != nil {
		return nil, adapter.SampleSet{}, err
	}

	return features, set, nil
}

// Render queries vp.Region and draws it. When vp.Samples is empty the
// adapter's samples for the region are used.
func Render(ctx context.Context, ad adapter.AlignmentAdapter, vp render.Viewport, opts ...render.Option) (*render.Output, error) {
	features, set, err := Query(ctx, ad, vp.Region)
	if err != nil {
		return nil, err
	}
	if len(vp.Samples) == 0 {
		vp.Samples = set.Samples
	}

	r, err := render.NewRenderer(opts...)
	if err != nil {
		return nil, err
	}

	return r.Render(ctx, features, vp)
}
