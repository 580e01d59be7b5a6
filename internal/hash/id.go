package hash

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// Uint64s computes the xxHash64 of the little-endian serialization of values.
//
// It is used to key caches by small fixed tuples, such as the pair of index
// entries bounding a decoded byte range.
func Uint64s(values ...uint64) uint64 {
	d := xxhash.New()
	var b [8]byte
	for _, v := range values {
		binary.LittleEndian.PutUint64(b[:], v)
		_, _ = d.Write(b[:])
	}

	return d.Sum64()
}
