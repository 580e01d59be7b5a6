package render

import (
	"context"
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/arloliu/tafview/adapter"
	"github.com/arloliu/tafview/errs"
	"github.com/arloliu/tafview/format"
	"github.com/arloliu/tafview/internal/options"
	"github.com/arloliu/tafview/spatial"
)

const (
	// DefaultMaxWidth and DefaultMaxHeight bound the image size in pixels.
	DefaultMaxWidth  = 1 << 15
	DefaultMaxHeight = 1 << 15

	// letterScale is the minimum pixels per base at which letters are drawn.
	letterScale = 10
	// cellOverlap widens base boxes so adjacent cells leave no seams.
	cellOverlap = 0.4

	insertionLineWidth   = 1
	insertionMarkerWidth = 2
	insertionPadding     = 2
	insertionBorderWidth = 5
	textBaselineOffset   = 3

	// largeInsertion is the run length above which an insertion is drawn as
	// a marker instead of a bar.
	largeInsertion = 10
	// markerBpPerPx is the zoom above which large insertions are a plain marker.
	markerBpPerPx = 10
	// borderBpPerPx is the zoom below which small insertions get borders.
	borderBpPerPx = 0.2
	// borderRowHeight is the minimum row height for insertion borders.
	borderRowHeight = 5
)

// Output is the result of one Render call.
type Output struct {
	Image *image.RGBA
	// Primitives lists every drawn element in draw order.
	Primitives []spatial.Primitive
	// Index holds the primitives kept by the density filter.
	Index   *spatial.Index
	Samples []adapter.Sample
}

// Renderer draws features for a viewport. It holds no per-call state and is
// safe for concurrent use.
type Renderer struct {
	logger    logrus.FieldLogger
	indexOpts []spatial.Option
	maxWidth  int
	maxHeight int
}

// Option configures a Renderer.
type Option = options.Option[*Renderer]

// WithLogger sets the renderer logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return options.NoError(func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	})
}

// WithIndexOptions sets the options used to build Output.Index.
func WithIndexOptions(opts ...spatial.Option) Option {
	return options.NoError(func(r *Renderer) {
		r.indexOpts = append(r.indexOpts, opts...)
	})
}

// WithMaxSize limits the image dimensions.
func WithMaxSize(width, height int) Option {
	return options.New(func(r *Renderer) error {
		if width <= 0 || height <= 0 {
			return fmt.Errorf("max size must be positive, got %dx%d", width, height)
		}
		r.maxWidth, r.maxHeight = width, height

		return nil
	})
}

// NewRenderer creates a Renderer.
func NewRenderer(opts ...Option) (*Renderer, error) {
	r := &Renderer{
		logger:    logrus.StandardLogger(),
		maxWidth:  DefaultMaxWidth,
		maxHeight: DefaultMaxHeight,
	}
	if err := options.Apply(r, opts...); err != nil {
		return nil, err
	}

	return r, nil
}

// Render draws features into a new image sized for vp.
//
// Samples missing from a feature leave their row empty; alignments for
// assemblies not listed in vp.Samples are not drawn.
//
// Returns:
//   - *Output: the image, the primitives and their spatial index
//   - error: an invalid viewport, an image over the size limit, or ctx's error
func (r *Renderer) Render(ctx context.Context, features []adapter.Feature, vp Viewport) (*Output, error) {
	if err := vp.Validate(); err != nil {
		return nil, err
	}
	// checked as floats: out-of-range values do not survive an int conversion
	fw, fh := math.Ceil(vp.canvasWidth()), math.Ceil(vp.rowsHeight())
	if fw > float64(r.maxWidth) || fh > float64(r.maxHeight) {
		return nil, fmt.Errorf("%w: %gx%g image exceeds %dx%d", errs.ErrInvalidViewport, fw, fh, r.maxWidth, r.maxHeight)
	}
	w, h := int(fw), int(fh)

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	p := newPainter(newCanvas(img, vp.canvasWidth()), vp)

	for i := range features {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.feature(&features[i], p.alignmentPass)
	}
	for i := range features {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.feature(&features[i], p.insertionPass)
	}

	idx, err := spatial.Build(p.prims, r.indexOpts...)
	if err != nil {
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"ref":        vp.Region.RefName,
		"start":      vp.Region.Start,
		"end":        vp.Region.End,
		"features":   len(features),
		"primitives": len(p.prims),
		"indexed":    idx.Len(),
	}).Debug("rendered region")

	return &Output{Image: img, Primitives: p.prims, Index: idx, Samples: vp.Samples}, nil
}

// row is one sample's alignment within a feature, prepared for drawing.
type row struct {
	feature *adapter.Feature
	sample  string
	// ref and seq are lowercased; orig keeps the sample's letter case.
	ref, seq, orig string
	top            float64
	left           float64
}

// painter carries the per-call drawing state.
type painter struct {
	c     *canvas
	vp    Viewport
	rows  map[string]int
	scale float64
	h     float64
	// offset centers base boxes vertically within a row.
	offset float64
	prims  []spatial.Primitive
}

func newPainter(c *canvas, vp Viewport) *painter {
	h := vp.RowHeight * vp.RowProportion

	return &painter{
		c:      c,
		vp:     vp,
		rows:   vp.rowIndex(),
		scale:  1 / vp.BpPerPx,
		h:      h,
		offset: (vp.RowHeight - h) / 2,
	}
}

// feature runs pass over every sample row of f, in viewport order.
func (p *painter) feature(f *adapter.Feature, pass func(*row)) {
	ref := lowerASCII(f.ReferenceSequence)
	left := (float64(f.Start) - float64(p.vp.Region.Start)) / p.vp.BpPerPx
	for i, s := range p.vp.Samples {
		aln, ok := f.Alignments[s.ID]
		if !ok || p.rows[s.ID] != i {
			continue
		}
		n := min(len(ref), len(aln.Sequence))
		pass(&row{
			feature: f,
			sample:  s.ID,
			ref:     ref[:n],
			seq:     lowerASCII(aln.Sequence[:n]),
			orig:    aln.Sequence[:n],
			top:     p.offset + p.vp.RowHeight*float64(p.rows[s.ID]),
			left:    left,
		})
	}
}

func (p *painter) alignmentPass(r *row) {
	p.gaps(r)
	p.matches(r)
	p.mismatches(r)
	p.letters(r)
}

func (p *painter) insertionPass(r *row) {
	p.insertions(r)
}

// lowerASCII lowercases ASCII letters byte by byte, keeping the length.
func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}

	return string(b)
}

// isRefBase reports whether a reference column holds a base. Gaps and the
// blank padding of rows inserted mid-block do not advance the coordinate.
func isRefBase(c byte) bool {
	return c != '-' && c != ' '
}

// eachRefColumn calls fn for every column where the reference has a base,
// with the number of reference bases before it.
func eachRefColumn(r *row, fn func(i, off int)) {
	off := 0
	for i := 0; i < len(r.ref); i++ {
		if !isRefBase(r.ref[i]) {
			continue
		}
		fn(i, off)
		off++
	}
}

func (p *painter) base(r *row, x float64, off int, letter string, kind format.PrimitiveKind) {
	p.prims = append(p.prims, spatial.Primitive{
		Box:       spatial.Box{MinX: x, MinY: r.top, MaxX: x + p.scale + cellOverlap, MaxY: r.top + p.h},
		Pos:       r.feature.Start + uint64(off), //nolint: gosec
		Chr:       r.feature.RefName,
		SampleID:  r.sample,
		Row:       p.rows[r.sample],
		Base:      letter,
		Kind:      kind,
		FeatureID: r.feature.ID,
	})
}

func (p *painter) gaps(r *row) {
	mid := r.top + p.vp.RowHeight/2
	eachRefColumn(r, func(i, off int) {
		if r.seq[i] != '-' {
			return
		}
		x := r.left + p.scale*float64(off)
		p.c.hline(x, x+p.scale+cellOverlap, mid, colorBlack)
		p.base(r, x, off, "-", format.KindGap)
	})
}

func (p *painter) matches(r *row) {
	if p.vp.ShowAllLetters {
		return
	}
	eachRefColumn(r, func(i, off int) {
		c := r.seq[i]
		if c != r.ref[i] || c == '-' || c == ' ' {
			return
		}
		x := r.left + p.scale*float64(off)
		p.c.fillRect(x, r.top, p.scale+cellOverlap, p.h, colorLightGrey)
		p.base(r, x, off, r.orig[i:i+1], format.KindMatch)
	})
}

func (p *painter) mismatches(r *row) {
	eachRefColumn(r, func(i, off int) {
		c := r.seq[i]
		if c == '-' || c == ' ' {
			return
		}
		x := r.left + p.scale*float64(off)
		switch {
		case c != r.ref[i]:
			col := colorOrange
			if p.vp.MismatchRendering {
				col = baseColor(c)
			}
			p.c.fillRect(x, r.top, p.scale+cellOverlap, p.h, col)
			p.base(r, x, off, r.orig[i:i+1], format.KindMismatch)
		case p.vp.ShowAllLetters:
			col := colorLightBlue
			if p.vp.MismatchRendering {
				col = baseColor(c)
			}
			p.c.fillRect(x, r.top, p.scale+cellOverlap, p.h, col)
			p.base(r, x, off, r.orig[i:i+1], format.KindMatch)
		}
	})
}

func (p *painter) letters(r *row) {
	if p.scale < letterScale || p.vp.RowHeight <= p.c.charHeight() {
		return
	}
	pad := (p.scale-p.c.charWidth())/2 + 1
	baseline := r.top + p.h/2 + textBaselineOffset
	eachRefColumn(r, func(i, off int) {
		c := r.seq[i]
		if c == '-' || c == ' ' || (!p.vp.ShowAllLetters && c == r.ref[i]) {
			return
		}
		col := colorBlack
		if p.vp.MismatchRendering {
			col = contrastColor(c)
		}
		letter := r.orig[i : i+1]
		if p.vp.ShowAsUpperCase {
			letter = strings.ToUpper(letter)
		}
		p.c.text(letter, r.left+p.scale*float64(off)+pad, baseline, col)
	})
}

func (p *painter) insertions(r *row) {
	n := len(r.ref)
	off := 0
	for i := 0; i < n; i++ {
		var run []byte
		for ; i < n && !isRefBase(r.ref[i]); i++ {
			if c := r.seq[i]; c != '-' && c != ' ' {
				run = append(run, r.orig[i])
			}
		}
		if len(run) > 0 {
			p.insertion(r, off, string(run))
		}
		off++
	}
}

// insertion draws the marker for an insertion before reference base off and
// records it with its drawn extent.
func (p *painter) insertion(r *row, off int, letters string) {
	xPos := r.left + p.scale*float64(off) - insertionLineWidth
	top := r.top
	var x, w float64

	switch {
	case len(letters) > largeInsertion && p.vp.BpPerPx > markerBpPerPx:
		x, w = xPos-insertionLineWidth, insertionMarkerWidth
		p.c.fillRect(x, top, w, p.h, colorPurple)
	case len(letters) > largeInsertion && p.h > p.c.charHeight():
		label := strconv.Itoa(len(letters))
		tw := p.c.measure(label)
		x, w = xPos-tw/2-insertionPadding, tw+2*insertionPadding
		p.c.fillRect(x, top, w, p.h, colorPurple)
		p.c.text(label, xPos-tw/2, top+p.h, colorWhite)
	case len(letters) > largeInsertion:
		x, w = xPos-insertionPadding, 2*insertionPadding
		p.c.fillRect(x, top, w, p.h, colorPurple)
	default:
		x, w = xPos, insertionLineWidth
		p.c.fillRect(x, top, w, p.h, colorPurple)
		if p.vp.BpPerPx < borderBpPerPx && p.vp.RowHeight > borderRowHeight {
			x, w = xPos-insertionMarkerWidth, insertionBorderWidth
			p.c.fillRect(x, top, w, insertionLineWidth, colorPurple)
			p.c.fillRect(x, top+p.h-insertionLineWidth, w, insertionLineWidth, colorPurple)
		}
	}

	p.prims = append(p.prims, spatial.Primitive{
		Box:       spatial.Box{MinX: x, MinY: top, MaxX: x + w, MaxY: top + p.h},
		Pos:       r.feature.Start + uint64(off), //nolint: gosec
		Chr:       r.feature.RefName,
		SampleID:  r.sample,
		Row:       p.rows[r.sample],
		Base:      letters,
		Kind:      format.KindInsertion,
		FeatureID: r.feature.ID,
	})
}
