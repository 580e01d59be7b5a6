package compress

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/biogo/hts/bgzf"
	"github.com/klauspost/compress/gzip"

	"github.com/arloliu/tafview/errs"
)

const (
	// BGZFHeaderSize is the size of a BGZF member header including the BC extra subfield.
	BGZFHeaderSize = 18
	// BGZFMaxBlockSize is the largest compressed BGZF member.
	BGZFMaxBlockSize = 64 * 1024
	// BGZFMaxBlockData is the uncompressed payload placed in one member.
	// It matches htslib and always leaves room for deflate overhead.
	BGZFMaxBlockData = 0xff00

	bgzfBSizeOffset = 16
)

// bgzfEOF is the empty member terminating every BGZF file.
var bgzfEOF = []byte{
	0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff, 0x06, 0x00, 0x42, 0x43,
	0x02, 0x00, 0x1b, 0x00, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// BGZFCodec compresses to and decompresses from the BGZF block container.
type BGZFCodec struct {
	level int
}

var _ Codec = (*BGZFCodec)(nil)

// NewBGZFCodec creates a BGZF codec using the default deflate level.
func NewBGZFCodec() BGZFCodec {
	return BGZFCodec{level: gzip.DefaultCompression}
}

// NewBGZFCodecLevel creates a BGZF codec with an explicit deflate level.
func NewBGZFCodecLevel(level int) BGZFCodec {
	return BGZFCodec{level: level}
}

// Compress splits data into BGZF members and appends the EOF marker.
func (c BGZFCodec) Compress(data []byte) ([]byte, error) {
	var out bytes.Buffer
	w := NewBGZFWriterLevel(&out, c.level)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

// Decompress inflates a run of complete BGZF members.
//
// The input does not need to start at the beginning of a file or end with
// the EOF marker; any [blockPosition, nextBlockPosition) slice of a BGZF
// file is accepted. A truncated trailing member is an error.
func (c BGZFCodec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	br, err := bgzf.NewReader(bytes.NewReader(data), 1)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrDecompress, err)
	}
	defer br.Close()

	out := bytes.NewBuffer(make([]byte, 0, len(data)*4))
	if _, err := io.Copy(out, br); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrDecompress, err)
	}

	return out.Bytes(), nil
}

// BGZFBlockSize returns the total compressed size of the BGZF member whose
// header starts at hdr[0].
//
// Returns:
//   - int: BSIZE+1, the member length in bytes
//   - error: errs.ErrInvalidBlockHeader if hdr is not a BGZF header
func BGZFBlockSize(hdr []byte) (int, error) {
	if len(hdr) < 12 || hdr[0] != 0x1f || hdr[1] != 0x8b || hdr[2] != 8 || hdr[3]&0x04 == 0 {
		return 0, errs.ErrInvalidBlockHeader
	}

	xlen := int(binary.LittleEndian.Uint16(hdr[10:12]))
	if len(hdr) < 12+xlen {
		return 0, fmt.Errorf("%w: extra field truncated", errs.ErrInvalidBlockHeader)
	}

	extra := hdr[12 : 12+xlen]
	for len(extra) >= 4 {
		slen := int(binary.LittleEndian.Uint16(extra[2:4]))
		if len(extra) < 4+slen {
			break
		}
		if extra[0] == 'B' && extra[1] == 'C' && slen == 2 {
			return int(binary.LittleEndian.Uint16(extra[4:6])) + 1, nil
		}
		extra = extra[4+slen:]
	}

	return 0, fmt.Errorf("%w: missing BC subfield", errs.ErrInvalidBlockHeader)
}

// BGZFWriter writes a BGZF stream and tracks the virtual position of the
// next uncompressed byte.
//
// Note: BGZFWriter is NOT thread-safe.
type BGZFWriter struct {
	w        io.Writer
	level    int
	pending  []byte
	blockPos uint64
	member   bytes.Buffer
	closed   bool
}

// NewBGZFWriter creates a BGZFWriter with the default deflate level.
func NewBGZFWriter(w io.Writer) *BGZFWriter {
	return NewBGZFWriterLevel(w, gzip.DefaultCompression)
}

// NewBGZFWriterLevel creates a BGZFWriter with an explicit deflate level.
func NewBGZFWriterLevel(w io.Writer, level int) *BGZFWriter {
	return &BGZFWriter{
		w:       w,
		level:   level,
		pending: make([]byte, 0, BGZFMaxBlockData),
	}
}

// Offset returns the compressed position of the current block and the
// position inside it at which the next written byte will land.
func (bw *BGZFWriter) Offset() (blockPosition uint64, dataPosition uint16) {
	return bw.blockPos, uint16(len(bw.pending)) //nolint: gosec
}

// Write buffers p, emitting a member each time BGZFMaxBlockData bytes are pending.
func (bw *BGZFWriter) Write(p []byte) (int, error) {
	if bw.closed {
		return 0, io.ErrClosedPipe
	}

	n := len(p)
	for len(p) > 0 {
		room := BGZFMaxBlockData - len(bw.pending)
		take := min(room, len(p))
		bw.pending = append(bw.pending, p[:take]...)
		p = p[take:]

		if len(bw.pending) == BGZFMaxBlockData {
			if err := bw.Flush(); err != nil {
				return n - len(p), err
			}
		}
	}

	return n, nil
}

// Flush ends the current member. Subsequent writes start a new block.
func (bw *BGZFWriter) Flush() error {
	if len(bw.pending) == 0 {
		return nil
	}

	bw.member.Reset()
	gz, err := gzip.NewWriterLevel(&bw.member, bw.level)
	if err != nil {
		return err
	}
	gz.Header.Extra = []byte{'B', 'C', 2, 0, 0, 0}
	gz.Header.OS = 0xff
	if _, err := gz.Write(bw.pending); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}

	block := bw.member.Bytes()
	if len(block) > BGZFMaxBlockSize {
		return fmt.Errorf("bgzf member of %d bytes exceeds %d", len(block), BGZFMaxBlockSize)
	}
	binary.LittleEndian.PutUint16(block[bgzfBSizeOffset:], uint16(len(block)-1)) //nolint: gosec

	if _, err := bw.w.Write(block); err != nil {
		return err
	}
	bw.blockPos += uint64(len(block))
	bw.pending = bw.pending[:0]

	return nil
}

// Close flushes pending data and writes the BGZF EOF marker.
func (bw *BGZFWriter) Close() error {
	if bw.closed {
		return nil
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	bw.closed = true

	_, err := bw.w.Write(bgzfEOF)

	return err
}
