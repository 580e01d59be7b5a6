// Package tai parses the .tai companion index of a bgzip-compressed TAF file.
//
// A .tai file is tab separated text with one line per indexed alignment
// column:
//
//	refName	deltaCoordinate	deltaOffset
//
// Both numeric columns are delta-encoded against the previous line of the
// same reference, and a reference name of "*" continues the previous
// reference. The offset column is a BGZF virtual offset: the high 48 bits
// hold the compressed block position and the low 16 bits the position inside
// the decompressed block.
//
// # Basic Usage
//
//	idx, err := tai.Parse(f)
//	if err != nil {
//	    return err
//	}
//	for _, e := range idx.Entries("chr1") {
//	    fmt.Println(e.Coordinate, e.Offset.BlockPosition(), e.Offset.DataPosition())
//	}
//
// Reference names may be qualified as "assembly.chr" in the file; the index
// is keyed by the last dot-delimited token, so "hg38.chr1" and "chr1" share
// the key "chr1".
//
// All arithmetic is done on uint64. Block positions beyond 2^53 are exact.
package tai
