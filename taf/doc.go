// Package taf decodes the body of a TAF (transposed alignment format) file.
//
// A TAF body is column-major: each line carries one alignment column, with
// one letter per active row, optionally followed by row instructions that
// describe how the set of active rows changes before the letters apply:
//
//	letters[ ; instructions][ @ tags]
//
// Instructions are a space separated token stream of one-letter op codes,
// each followed by a fixed number of operands:
//
//	i row assembly.chr start strand length   insert a row
//	s row assembly.chr start strand length   substitute a row
//	d row                                    delete a row
//	g row gapLength                          gap (parsed, not applied)
//	G row gapSubstring                       gap substring (parsed, not applied)
//
// The Decoder replays the instruction stream against a RowTable and
// accumulates one row-oriented sequence per assembly, so a block of TAF
// lines becomes a conventional multiple alignment.
package taf
