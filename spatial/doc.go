// Package spatial indexes rendered alignment primitives for hit testing.
//
// Build bulk-loads primitives into a static, Hilbert-packed R-tree: leaves
// are sorted along a Hilbert curve over the primitives' centers and grouped
// into nodes of a fixed size, level by level, until a single root remains.
// The tree is never modified after Build.
//
// Build also thins dense input: a primitive is indexed only when its minimum
// x differs from that of the previously indexed primitive by more than a
// minimum distance (0.5px by default). Insertions bypass the filter so they
// stay individually clickable at any zoom.
//
// # Basic Usage
//
//	idx := spatial.Build(prims)
//	if p, ok := idx.Pick(x, y); ok {
//	    fmt.Println(p.Kind, p.Pos, p.Base)
//	}
//
// Encode serializes an Index for a hit-testing client; Decode restores it.
package spatial
