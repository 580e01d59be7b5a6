package spatial

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/tafview/errs"
	"github.com/arloliu/tafview/format"
)

func TestEncode_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	prims := randomPrimitives(rng, 500)
	for i := range prims {
		prims[i].Chr = "chr1"
		prims[i].SampleID = "panTro4"
		prims[i].Base = "G"
		prims[i].FeatureID = "f00d"
	}
	idx, err := Build(prims, WithoutDensityFilter())
	require.NoError(t, err)

	compressions := []format.CompressionType{
		format.CompressionNone,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	}
	for _, ct := range compressions {
		for _, big := range []bool{false, true} {
			t.Run(ct.String(), func(t *testing.T) {
				opts := []EncodeOption{WithCompression(ct)}
				if big {
					opts = append(opts, WithBigEndian())
				}
				data, err := Encode(idx, opts...)
				require.NoError(t, err)
				require.Equal(t, "TVSX", string(data[:4]))
				require.Equal(t, byte(ct), data[6])

				got, err := Decode(data)
				require.NoError(t, err)
				require.Equal(t, idx.Items(), got.Items())
				require.Equal(t, idx.NodeSize(), got.NodeSize())

				q := Box{MinX: 500, MinY: 100, MaxX: 900, MaxY: 200}
				require.Equal(t, idx.Search(q), got.Search(q))
			})
		}
	}
}

func TestEncode_Empty(t *testing.T) {
	idx, err := Build(nil)
	require.NoError(t, err)

	data, err := Encode(idx)
	require.NoError(t, err)
	require.Len(t, data, HeaderSize+1) // empty string table

	got, err := Decode(data)
	require.NoError(t, err)
	require.Zero(t, got.Len())
}

func TestEncode_RejectsBGZF(t *testing.T) {
	idx, err := Build(nil)
	require.NoError(t, err)

	_, err = Encode(idx, WithCompression(format.CompressionBGZF))
	require.Error(t, err)
}

func TestDecode_Corrupt(t *testing.T) {
	idx, err := Build([]Primitive{base(1, 1, 1), base(30, 1, 2), base(60, 1, 3)})
	require.NoError(t, err)
	data, err := Encode(idx)
	require.NoError(t, err)

	mutate := func(fn func(b []byte) []byte) []byte {
		return fn(append([]byte(nil), data...))
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short", data[:10], errs.ErrInvalidIndexHeader},
		{"magic", mutate(func(b []byte) []byte { b[0] = 'X'; return b }), errs.ErrInvalidIndexHeader},
		{"version", mutate(func(b []byte) []byte { b[4] = 9; return b }), errs.ErrInvalidIndexHeader},
		{"compression", mutate(func(b []byte) []byte { b[6] = byte(format.CompressionBGZF); return b }), errs.ErrInvalidIndexHeader},
		{"truncated payload", data[:len(data)-4], errs.ErrInvalidIndexHeader},
		{"item count", mutate(func(b []byte) []byte { b[12]++; return b }), errs.ErrInvalidIndexHeader},
		{"leaf pointer", mutate(func(b []byte) []byte {
			// first leaf's item index follows the level bounds and its box
			off := HeaderSize + 4*len(idx.levelBounds) + 32
			b[off] = 200

			return b
		}), errs.ErrInvalidIndexPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStringTable(t *testing.T) {
	tab := newStringTable()
	require.Equal(t, uint32(0), tab.id("chr1"))
	require.Equal(t, uint32(1), tab.id(""))
	require.Equal(t, uint32(0), tab.id("chr1"))
	long := string(make([]byte, 300))
	require.Equal(t, uint32(2), tab.id(long))

	data := tab.appendTo(nil)
	require.Len(t, data, tab.encodedLen())

	got, n, err := readStringTable(append(data, 0xff))
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, []string{"chr1", "", long}, got)

	_, _, err = readStringTable(data[:len(data)-1])
	require.Error(t, err)
	_, _, err = readStringTable(nil)
	require.Error(t, err)
}
