// Package render rasterizes alignment features into an RGBA image and
// records every drawn element as a spatial.Primitive for hit testing.
//
// Rendering runs in two passes over the features. The first pass draws,
// for each sample row, gap markers where the reference has a base and the
// sample has a dash, match and mismatch rectangles, and base letters when
// the zoom level leaves room for a glyph. The second pass draws insertion
// markers on top so they are never covered by bases.
//
// Columns where the reference sequence is a gap do not advance the
// horizontal position; they are only visible as insertion markers.
package render
