package render

import (
	"fmt"
	"math"

	"github.com/arloliu/tafview/adapter"
	"github.com/arloliu/tafview/errs"
)

// Viewport describes the window being drawn.
type Viewport struct {
	Region adapter.Region
	// BpPerPx is the number of reference bases per pixel.
	BpPerPx float64
	// RowHeight is the pixel height of one sample row.
	RowHeight float64
	// RowProportion is the fraction of RowHeight used for base boxes.
	RowProportion float64
	// Samples assigns rows: the i-th sample is drawn on row i.
	Samples []adapter.Sample

	ShowAllLetters    bool
	MismatchRendering bool
	ShowAsUpperCase   bool
}

// Validate reports whether the viewport can be drawn.
func (vp Viewport) Validate() error {
	switch {
	case vp.Region.End <= vp.Region.Start:
		return fmt.Errorf("%w: empty region [%d, %d)", errs.ErrInvalidViewport, vp.Region.Start, vp.Region.End)
	case !(vp.BpPerPx > 0) || math.IsInf(vp.BpPerPx, 0):
		return fmt.Errorf("%w: bpPerPx %v", errs.ErrInvalidViewport, vp.BpPerPx)
	case !(vp.RowHeight > 0) || math.IsInf(vp.RowHeight, 0):
		return fmt.Errorf("%w: row height %v", errs.ErrInvalidViewport, vp.RowHeight)
	case !(vp.RowProportion > 0) || vp.RowProportion > 1:
		return fmt.Errorf("%w: row proportion %v", errs.ErrInvalidViewport, vp.RowProportion)
	}

	return nil
}

// Width returns the image width in pixels.
func (vp Viewport) Width() int {
	return int(math.Ceil(vp.canvasWidth()))
}

// Height returns the image height in pixels.
func (vp Viewport) Height() int {
	return int(math.Ceil(vp.rowsHeight()))
}

func (vp Viewport) rowsHeight() float64 {
	return vp.RowHeight * float64(len(vp.Samples))
}

func (vp Viewport) canvasWidth() float64 {
	return float64(vp.Region.End-vp.Region.Start) / vp.BpPerPx
}

// rowIndex maps sample ids to rows.
func (vp Viewport) rowIndex() map[string]int {
	rows := make(map[string]int, len(vp.Samples))
	for i, s := range vp.Samples {
		if _, dup := rows[s.ID]; !dup {
			rows[s.ID] = i
		}
	}

	return rows
}
