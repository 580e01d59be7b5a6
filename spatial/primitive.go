package spatial

import "github.com/arloliu/tafview/format"

// Box is an axis-aligned rectangle in pixel space. Bounds are inclusive.
type Box struct {
	MinX, MinY, MaxX, MaxY float64
}

// Contains reports whether the point (x, y) lies inside b.
func (b Box) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// Intersects reports whether b and o overlap.
func (b Box) Intersects(o Box) bool {
	return b.MinX <= o.MaxX && b.MaxX >= o.MinX && b.MinY <= o.MaxY && b.MaxY >= o.MinY
}

func (b Box) union(o Box) Box {
	return Box{
		MinX: min(b.MinX, o.MinX),
		MinY: min(b.MinY, o.MinY),
		MaxX: max(b.MaxX, o.MaxX),
		MaxY: max(b.MaxY, o.MaxY),
	}
}

// Primitive is one rendered element: a base, a gap marker or an insertion.
// Primitives are never modified after creation.
type Primitive struct {
	Box

	// Pos is the reference coordinate of the column; for an insertion it is
	// the coordinate of the reference base following it.
	Pos uint64
	// Chr is the reference sequence name.
	Chr      string
	SampleID string
	Row      int
	// Base is the sample letter, or the inserted letters of an insertion.
	Base      string
	Kind      format.PrimitiveKind
	FeatureID string
}

// IsInsertion reports whether p marks an insertion.
func (p Primitive) IsInsertion() bool {
	return p.Kind == format.KindInsertion
}
