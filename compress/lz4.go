package compress

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// lz4CompressorPool pools lz4.Compressor instances for reuse.
// The lz4.Compressor maintains a hash table that benefits from reuse.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

const (
	lz4FrameRaw   byte = 0x0
	lz4FrameBlock byte = 0x1

	lz4MaxDecodedSize = 256 * 1024 * 1024
)

var errLZ4Frame = errors.New("lz4: invalid frame header")

// LZ4Compressor provides LZ4 block compression.
//
// The raw LZ4 block format does not record the decoded size, so every
// payload is framed as:
//
//	[mode: 1 byte][decoded length: uvarint][block or raw bytes]
//
// Mode 0 stores incompressible input verbatim.
type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates a new LZ4 compressor.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress compresses the input data using LZ4 block compression.
//
// Parameters:
//   - data: Input data to compress
//
// Returns:
//   - []byte: Framed compressed data (nil if input is empty)
//   - error: Compression error if any
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	hdr := make([]byte, 1, 1+binary.MaxVarintLen64)
	hdr = binary.AppendUvarint(hdr, uint64(len(data)))

	dst := make([]byte, len(hdr)+lz4.CompressBlockBound(len(data)))
	copy(dst, hdr)

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst[len(hdr):])
	if err != nil {
		return nil, err
	}

	if n == 0 || n >= len(data) {
		hdr[0] = lz4FrameRaw
		return append(hdr, data...), nil
	}
	dst[0] = lz4FrameBlock

	return dst[:len(hdr)+n], nil
}

// Decompress decompresses a payload framed by Compress.
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	size, n := binary.Uvarint(data[1:])
	if n <= 0 || size > lz4MaxDecodedSize {
		return nil, errLZ4Frame
	}
	body := data[1+n:]

	switch data[0] {
	case lz4FrameRaw:
		if uint64(len(body)) != size {
			return nil, errLZ4Frame
		}
		out := make([]byte, len(body))
		copy(out, body)

		return out, nil
	case lz4FrameBlock:
		out := make([]byte, size)
		m, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompression failed: %w", err)
		}
		if uint64(m) != size {
			return nil, fmt.Errorf("lz4 decompression failed: got %d bytes, want %d", m, size)
		}

		return out, nil
	default:
		return nil, errLZ4Frame
	}
}
