package format

type (
	CompressionType uint8
	PrimitiveKind   uint8
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
	CompressionBGZF CompressionType = 0x5 // CompressionBGZF represents blocked gzip (BGZF) compression.
)

const (
	KindMatch     PrimitiveKind = 0x1 // KindMatch is a base equal to the reference base.
	KindMismatch  PrimitiveKind = 0x2 // KindMismatch is a base different from the reference base.
	KindGap       PrimitiveKind = 0x3 // KindGap is a reference base deleted in the sample.
	KindInsertion PrimitiveKind = 0x4 // KindInsertion is a run of sample bases absent from the reference.
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	case CompressionBGZF:
		return "BGZF"
	default:
		return "Unknown"
	}
}

func (k PrimitiveKind) String() string {
	switch k {
	case KindMatch:
		return "match"
	case KindMismatch:
		return "mismatch"
	case KindGap:
		return "gap"
	case KindInsertion:
		return "insertion"
	default:
		return "unknown"
	}
}
