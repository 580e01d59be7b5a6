package spatial

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/arloliu/tafview/compress"
	"github.com/arloliu/tafview/endian"
	"github.com/arloliu/tafview/errs"
	"github.com/arloliu/tafview/format"
	"github.com/arloliu/tafview/internal/options"
	"github.com/arloliu/tafview/internal/pool"
)

// Serialized index layout. The header is fixed size and written with the
// engine named by its flags byte:
//
//	[0:4]   magic "TVSX"
//	[4]     version
//	[5]     flags, bit 0 set for big endian
//	[6]     compression type
//	[7]     reserved
//	[8:10]  node size
//	[10:12] reserved
//	[12:16] item count
//	[16:20] node count
//	[20:24] level count
//	[24:28] compressed payload length
//	[28:32] raw payload length
//
// The payload holds the level bounds, every node (box and index), the string
// table, then every item. An item is its box, position, row and kind
// followed by the string ids of Chr, SampleID, Base and FeatureID.
const (
	HeaderSize = 32
	Version    = 1

	flagBigEndian = 0x1

	nodeRecordSize = 4*8 + 4
	minItemSize    = 4*8 + 8 + 4 + 1 + 4
	stringFields   = 4
)

var magic = [4]byte{'T', 'V', 'S', 'X'}

// EncodeConfig holds Encode settings.
type EncodeConfig struct {
	Compression format.CompressionType
	Engine      endian.EndianEngine
}

// EncodeOption configures Encode.
type EncodeOption = options.Option[*EncodeConfig]

// WithCompression sets the payload codec. BGZF is not accepted.
func WithCompression(c format.CompressionType) EncodeOption {
	return options.New(func(cfg *EncodeConfig) error {
		switch c {
		case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
			cfg.Compression = c
			return nil
		default:
			return fmt.Errorf("unsupported index compression: %s", c)
		}
	})
}

// WithBigEndian writes the index in big-endian byte order.
func WithBigEndian() EncodeOption {
	return options.NoError(func(cfg *EncodeConfig) {
		cfg.Engine = endian.GetBigEndianEngine()
	})
}

// Encode serializes idx.
//
// Returns:
//   - []byte: header followed by the compressed payload
//   - error: an invalid option or a compression failure
func Encode(idx *Index, opts ...EncodeOption) ([]byte, error) {
	cfg := EncodeConfig{Compression: format.CompressionNone, Engine: endian.GetLittleEndianEngine()}
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}
	codec, err := compress.GetCodec(cfg.Compression)
	if err != nil {
		return nil, err
	}

	tab := newStringTable()
	refs := make([][stringFields]uint32, len(idx.items))
	for i, it := range idx.items {
		refs[i] = [stringFields]uint32{tab.id(it.Chr), tab.id(it.SampleID), tab.id(it.Base), tab.id(it.FeatureID)}
	}

	buf := pool.GetIndexBuffer()
	defer pool.PutIndexBuffer(buf)
	buf.Grow(4*len(idx.levelBounds) + nodeRecordSize*len(idx.boxes) + tab.encodedLen() + (minItemSize+stringFields)*len(idx.items))

	e := cfg.Engine
	b := buf.B
	for _, lb := range idx.levelBounds {
		b = e.AppendUint32(b, uint32(lb)) //nolint: gosec
	}
	for i, box := range idx.boxes {
		b = appendBox(e, b, box)
		b = e.AppendUint32(b, uint32(idx.indices[i])) //nolint: gosec
	}
	b = tab.appendTo(b)
	for i, it := range idx.items {
		b = appendBox(e, b, it.Box)
		b = e.AppendUint64(b, it.Pos)
		b = e.AppendUint32(b, uint32(it.Row)) //nolint: gosec
		b = append(b, byte(it.Kind))
		for _, id := range refs[i] {
			b = binary.AppendUvarint(b, uint64(id))
		}
	}
	buf.B = b

	payload, err := codec.Compress(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("compress index payload: %w", err)
	}

	out := make([]byte, HeaderSize, HeaderSize+len(payload))
	copy(out[0:4], magic[:])
	out[4] = Version
	if endian.IsBigEndian(e) {
		out[5] = flagBigEndian
	}
	out[6] = byte(cfg.Compression)
	e.PutUint16(out[8:10], uint16(idx.nodeSize))          //nolint: gosec
	e.PutUint32(out[12:16], uint32(len(idx.items)))       //nolint: gosec
	e.PutUint32(out[16:20], uint32(len(idx.boxes)))       //nolint: gosec
	e.PutUint32(out[20:24], uint32(len(idx.levelBounds))) //nolint: gosec
	e.PutUint32(out[24:28], uint32(len(payload)))         //nolint: gosec
	e.PutUint32(out[28:32], uint32(buf.Len()))            //nolint: gosec

	return append(out, payload...), nil
}

// Decode restores an Index written by Encode.
func Decode(data []byte) (*Index, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", errs.ErrInvalidIndexHeader, len(data))
	}
	if [4]byte(data[0:4]) != magic {
		return nil, fmt.Errorf("%w: bad magic %q", errs.ErrInvalidIndexHeader, data[0:4])
	}
	if data[4] != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", errs.ErrInvalidIndexHeader, data[4])
	}

	e := endian.EngineFor(data[5]&flagBigEndian != 0)
	ct := format.CompressionType(data[6])
	nodeSize := int(e.Uint16(data[8:10]))
	numItems := int(e.Uint32(data[12:16]))
	numNodes := int(e.Uint32(data[16:20]))
	numLevels := int(e.Uint32(data[20:24]))
	payloadLen := int(e.Uint32(data[24:28]))
	rawLen := int(e.Uint32(data[28:32]))

	if len(data)-HeaderSize != payloadLen {
		return nil, fmt.Errorf("%w: payload is %d bytes, header says %d", errs.ErrInvalidIndexHeader, len(data)-HeaderSize, payloadLen)
	}
	if numItems > 0 && nodeSize < 2 {
		return nil, fmt.Errorf("%w: node size %d", errs.ErrInvalidIndexHeader, nodeSize)
	}

	if 4*numLevels+nodeRecordSize*numNodes+minItemSize*numItems > rawLen {
		return nil, fmt.Errorf("%w: counts exceed %d payload bytes", errs.ErrInvalidIndexHeader, rawLen)
	}

	codec, err := compress.GetCodec(ct)
	if err != nil || ct == format.CompressionBGZF {
		return nil, fmt.Errorf("%w: compression %s", errs.ErrInvalidIndexHeader, ct)
	}
	raw, err := codec.Decompress(data[HeaderSize:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidIndexPayload, err)
	}
	if len(raw) != rawLen {
		return nil, fmt.Errorf("%w: raw payload is %d bytes, header says %d", errs.ErrInvalidIndexPayload, len(raw), rawLen)
	}

	r := &reader{e: e, b: raw}
	idx := &Index{nodeSize: nodeSize}
	for range numLevels {
		idx.levelBounds = append(idx.levelBounds, int(r.uint32()))
	}
	idx.boxes = make([]Box, 0, min(numNodes, len(raw)/nodeRecordSize))
	idx.indices = make([]int, 0, cap(idx.boxes))
	for range numNodes {
		idx.boxes = append(idx.boxes, r.box())
		idx.indices = append(idx.indices, int(r.uint32()))
	}
	if r.err == nil {
		tab, n, err := readStringTable(raw[r.off:])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errs.ErrInvalidIndexPayload, err)
		}
		r.off += n
		r.strings = tab
	}
	idx.items = make([]Primitive, 0, min(numItems, len(raw)/minItemSize))
	for range numItems {
		p := Primitive{Box: r.box()}
		p.Pos = r.uint64()
		p.Row = int(r.uint32())
		p.Kind = format.PrimitiveKind(r.byte())
		p.Chr = r.string()
		p.SampleID = r.string()
		p.Base = r.string()
		p.FeatureID = r.string()
		idx.items = append(idx.items, p)
	}
	if r.err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidIndexPayload, r.err)
	}
	if r.off != len(raw) {
		return nil, fmt.Errorf("%w: %d trailing bytes", errs.ErrInvalidIndexPayload, len(raw)-r.off)
	}
	if err := idx.validate(); err != nil {
		return nil, err
	}

	return idx, nil
}

// validate checks the tree structure so that searches cannot index out of range.
func (idx *Index) validate() error {
	n := len(idx.items)
	if n == 0 {
		if len(idx.boxes) != 0 || len(idx.levelBounds) != 0 {
			return fmt.Errorf("%w: nodes without items", errs.ErrInvalidIndexPayload)
		}

		return nil
	}
	if len(idx.levelBounds) < 2 || idx.levelBounds[0] != n || idx.levelBounds[len(idx.levelBounds)-1] != len(idx.boxes) {
		return fmt.Errorf("%w: inconsistent level bounds", errs.ErrInvalidIndexPayload)
	}
	for i := 1; i < len(idx.levelBounds); i++ {
		if idx.levelBounds[i] <= idx.levelBounds[i-1] {
			return fmt.Errorf("%w: level bounds not increasing", errs.ErrInvalidIndexPayload)
		}
	}
	for pos, v := range idx.indices {
		if pos < n && v >= n {
			return fmt.Errorf("%w: leaf %d points to item %d", errs.ErrInvalidIndexPayload, pos, v)
		}
		if pos >= n && v >= pos {
			return fmt.Errorf("%w: node %d points forward to %d", errs.ErrInvalidIndexPayload, pos, v)
		}
	}

	return nil
}

func appendBox(e endian.EndianEngine, b []byte, box Box) []byte {
	b = e.AppendUint64(b, math.Float64bits(box.MinX))
	b = e.AppendUint64(b, math.Float64bits(box.MinY))
	b = e.AppendUint64(b, math.Float64bits(box.MaxX))

	return e.AppendUint64(b, math.Float64bits(box.MaxY))
}

// reader consumes payload fields, recording the first overrun.
type reader struct {
	e       endian.EndianEngine
	b       []byte
	off     int
	strings []string
	err     error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.b) {
		r.err = fmt.Errorf("truncated at offset %d, need %d bytes", r.off, n)
		return nil
	}
	p := r.b[r.off : r.off+n]
	r.off += n

	return p
}

func (r *reader) byte() byte {
	if p := r.take(1); p != nil {
		return p[0]
	}

	return 0
}

func (r *reader) uint32() uint32 {
	if p := r.take(4); p != nil {
		return r.e.Uint32(p)
	}

	return 0
}

func (r *reader) uint64() uint64 {
	if p := r.take(8); p != nil {
		return r.e.Uint64(p)
	}

	return 0
}

func (r *reader) box() Box {
	return Box{
		MinX: math.Float64frombits(r.uint64()),
		MinY: math.Float64frombits(r.uint64()),
		MaxX: math.Float64frombits(r.uint64()),
		MaxY: math.Float64frombits(r.uint64()),
	}
}

// string reads a string id and resolves it against the string table.
func (r *reader) string() string {
	if r.err != nil {
		return ""
	}
	id, n := binary.Uvarint(r.b[r.off:])
	if n <= 0 {
		r.err = fmt.Errorf("bad string id at offset %d", r.off)
		return ""
	}
	r.off += n
	if id >= uint64(len(r.strings)) {
		r.err = fmt.Errorf("string id %d out of range", id)
		return ""
	}

	return r.strings[id]
}
