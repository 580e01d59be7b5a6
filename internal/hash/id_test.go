package hash

import (
	"encoding/binary"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/require"
)

func TestID(t *testing.T) {
	tests := []struct {
		name string
		data string
		id   uint64
	}{
		{"empty string", "", 0xef46db3751d8e999},
		{"short string", "test", 0x4fdcca5ddb678139},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.id, ID(tt.data))
		})
	}
}

func TestUint64s(t *testing.T) {
	buf := make([]byte, 0, 24)
	buf = binary.LittleEndian.AppendUint64(buf, 1)
	buf = binary.LittleEndian.AppendUint64(buf, 1<<60)
	buf = binary.LittleEndian.AppendUint64(buf, 42)

	require.Equal(t, xxhash.Sum64(buf), Uint64s(1, 1<<60, 42))
	require.NotEqual(t, Uint64s(1, 2), Uint64s(2, 1))
	require.Equal(t, xxhash.Sum64(nil), Uint64s())
}
