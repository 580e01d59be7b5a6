// Package errs defines the sentinel errors returned by tafview packages.
//
// Callers should match errors with errors.Is; every error produced by the
// index, block store, decoder and spatial index code wraps one of the values
// below.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedIndex is matched by every *MalformedIndexError.
	ErrMalformedIndex = errors.New("malformed index")

	// ErrMalformedInstruction indicates a row instruction segment that cannot be tokenized.
	ErrMalformedInstruction = errors.New("malformed row instruction")

	// ErrFetch indicates the backing store could not serve a byte range.
	ErrFetch = errors.New("range fetch failed")
	// ErrDecompress indicates a compressed block could not be inflated.
	ErrDecompress = errors.New("block decompression failed")
	// ErrInvalidBlockHeader indicates bytes at a block position are not a BGZF block header.
	ErrInvalidBlockHeader = errors.New("invalid bgzf block header")

	ErrInvalidRange    = errors.New("invalid query range")
	ErrUnknownAdapter  = errors.New("unknown adapter type")
	ErrMissingLocation = errors.New("missing file location")
	ErrInvalidNewick   = errors.New("invalid newick tree")
	ErrInvalidMAF      = errors.New("invalid maf record")

	ErrInvalidViewport = errors.New("invalid viewport")

	ErrInvalidIndexHeader  = errors.New("invalid spatial index header")
	ErrInvalidIndexPayload = errors.New("invalid spatial index payload")
)

// MalformedIndexError describes a line of a .tai index that could not be parsed.
type MalformedIndexError struct {
	Line   int    // 1-based line number
	Text   string // the offending line
	Reason string
}

func (e *MalformedIndexError) Error() string {
	return fmt.Sprintf("malformed index line %d (%q): %s", e.Line, e.Text, e.Reason)
}

// Is reports whether target is ErrMalformedIndex.
func (e *MalformedIndexError) Is(target error) bool {
	return target == ErrMalformedIndex
}
