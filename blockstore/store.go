// Package blockstore moves bytes between a block-compressed alignment file
// and the decoder.
//
// A Store fetches raw byte ranges from a Source and inflates them with a
// compress.Decompressor, BGZF by default. It carries no business logic: the
// caller decides which range to read, the store only guarantees that reads
// are bounded by [start, start+length).
package blockstore

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/arloliu/tafview/compress"
	"github.com/arloliu/tafview/errs"
	"github.com/arloliu/tafview/internal/options"
)

// Store fetches and decompresses BGZF block ranges. It is safe for concurrent use.
type Store struct {
	src    Source
	codec  compress.Decompressor
	logger logrus.FieldLogger
}

// Option configures a Store.
type Option = options.Option[*Store]

// WithDecompressor overrides the block codec.
func WithDecompressor(d compress.Decompressor) Option {
	return options.New(func(s *Store) error {
		if d == nil {
			return fmt.Errorf("nil decompressor")
		}
		s.codec = d

		return nil
	})
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger logrus.FieldLogger) Option {
	return options.NoError(func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	})
}

// New creates a Store reading from src.
func New(src Source, opts ...Option) (*Store, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil source", errs.ErrFetch)
	}

	s := &Store{
		src:    src,
		codec:  compress.NewBGZFCodec(),
		logger: logrus.StandardLogger(),
	}
	if err := options.Apply(s, opts...); err != nil {
		return nil, err
	}

	return s, nil
}

// FetchRange returns the raw bytes in [start, start+length).
func (s *Store) FetchRange(ctx context.Context, start, length uint64) ([]byte, error) {
	raw, err := s.src.ReadRange(ctx, start, length)
	if err != nil {
		return nil, fmt.Errorf("%w: bytes %d+%d: %w", errs.ErrFetch, start, length, err)
	}

	s.logger.WithFields(logrus.Fields{"start": start, "length": length, "bytes": len(raw)}).Debug("fetched range")

	return raw, nil
}

// Decompress inflates raw block bytes.
func (s *Store) Decompress(raw []byte) ([]byte, error) {
	out, err := s.codec.Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrDecompress, err)
	}

	return out, nil
}

// BlockSize returns the compressed size of the block starting at blockPosition,
// or 0 when blockPosition is at or past the end of the file.
func (s *Store) BlockSize(ctx context.Context, blockPosition uint64) (uint64, error) {
	hdr, err := s.FetchRange(ctx, blockPosition, compress.BGZFHeaderSize)
	if err != nil {
		return 0, err
	}
	if len(hdr) == 0 {
		return 0, nil
	}

	size, err := compress.BGZFBlockSize(hdr)
	if err != nil {
		return 0, fmt.Errorf("block at %d: %w", blockPosition, err)
	}

	return uint64(size), nil //nolint: gosec
}

// ReadBlocks fetches [start, start+length) and decompresses it.
func (s *Store) ReadBlocks(ctx context.Context, start, length uint64) ([]byte, error) {
	raw, err := s.FetchRange(ctx, start, length)
	if err != nil {
		return nil, err
	}

	return s.Decompress(raw)
}
