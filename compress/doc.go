// Package compress provides the compression codecs used by tafview.
//
// Two very different payloads go through this package:
//
//  1. **Alignment blocks**: a .taf.gz file is a BGZF container, a series of
//     independently decompressible gzip members of at most 64KiB each. The
//     block store fetches a byte range covering whole members and inflates it
//     with BGZFCodec.
//  2. **Spatial index payloads**: the serialized hit-testing index handed to
//     the UI layer is optionally compressed with Zstd, S2 or LZ4.
//
// # Architecture
//
// The package defines three core interfaces:
//
//	type Compressor interface {
//	    Compress(data []byte) ([]byte, error)
//	}
//
//	type Decompressor interface {
//	    Decompress(data []byte) ([]byte, error)
//	}
//
//	type Codec interface {
//	    Compressor
//	    Decompressor
//	}
//
// # Supported Algorithms
//
// **BGZF** (format.CompressionBGZF)
//
//	codec := compress.NewBGZFCodec()
//	file, _ := codec.Compress(text)       // blocks + EOF marker
//	text, _ = codec.Decompress(file[a:b]) // any run of whole blocks
//
// Decompress accepts any concatenation of complete members, which is exactly
// what a [blockPosition, nextBlockPosition) range of a BGZF file is.
// BGZFWriter exposes the virtual offset of the next byte while writing, which
// is what an index builder needs.
//
// **NoOp** (format.CompressionNone), **Zstd** (format.CompressionZstd),
// **S2** (format.CompressionS2) and **LZ4** (format.CompressionLZ4) are
// general-purpose codecs for the spatial index payload. Zstd gives the
// smallest payload, LZ4 and S2 the cheapest decode on the UI side.
//
// # Thread Safety
//
// All codec implementations are stateless values and safe for concurrent
// use. Internal encoders and decoders are pooled. BGZFWriter is not safe for
// concurrent use.
package compress
