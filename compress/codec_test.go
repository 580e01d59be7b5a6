package compress

import (
	"bytes"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/tafview/errs"
	"github.com/arloliu/tafview/format"
)

var allTypes = []format.CompressionType{
	format.CompressionNone,
	format.CompressionZstd,
	format.CompressionS2,
	format.CompressionLZ4,
	format.CompressionBGZF,
}

func tafLikeData(size int) []byte {
	pattern := []byte("ACGTACGTTTGA-CA ; s 2 mm39.chr1 100231 + 195154279\nACGTAAGTTTGA-CA\n")
	data := make([]byte, size)
	for i := range data {
		data[i] = pattern[i%len(pattern)]
	}

	return data
}

func randomData(size int) []byte {
	rng := rand.New(rand.NewSource(42))
	data := make([]byte, size)
	_, _ = rng.Read(data)

	return data
}

func TestCompressionType_String(t *testing.T) {
	require.Equal(t, "None", format.CompressionNone.String())
	require.Equal(t, "Zstd", format.CompressionZstd.String())
	require.Equal(t, "S2", format.CompressionS2.String())
	require.Equal(t, "LZ4", format.CompressionLZ4.String())
	require.Equal(t, "BGZF", format.CompressionBGZF.String())
	require.Equal(t, "Unknown", format.CompressionType(0xff).String())
}

func TestCreateCodec(t *testing.T) {
	for _, ct := range allTypes {
		codec, err := CreateCodec(ct, "test")
		require.NoError(t, err)
		require.NotNil(t, codec)

		builtin, err := GetCodec(ct)
		require.NoError(t, err)
		require.NotNil(t, builtin)
	}

	_, err := CreateCodec(format.CompressionType(0x42), "spatial index")
	require.ErrorContains(t, err, "invalid spatial index compression")

	_, err = GetCodec(format.CompressionType(0x42))
	require.Error(t, err)
}

func TestAllCodecs_RoundTrip(t *testing.T) {
	sizes := []int{1, 100, 4096, BGZFMaxBlockData, BGZFMaxBlockData*2 + 17}

	for _, ct := range allTypes {
		codec, err := GetCodec(ct)
		require.NoError(t, err)

		for _, size := range sizes {
			for name, data := range map[string][]byte{"taf": tafLikeData(size), "random": randomData(size)} {
				t.Run(fmt.Sprintf("%s/%s/%d", ct, name, size), func(t *testing.T) {
					compressed, err := codec.Compress(data)
					require.NoError(t, err)

					restored, err := codec.Decompress(compressed)
					require.NoError(t, err)
					require.Equal(t, data, restored)
				})
			}
		}
	}
}

func TestAllCodecs_EmptyData(t *testing.T) {
	for _, ct := range allTypes {
		codec, err := GetCodec(ct)
		require.NoError(t, err)

		restored, err := codec.Decompress(nil)
		require.NoError(t, err, ct.String())
		require.Empty(t, restored, ct.String())
	}
}

func TestAllCodecs_InvalidData(t *testing.T) {
	garbage := []byte{0x07, 0xde, 0xad, 0xbe, 0xef, 0x00, 0x11}

	for _, ct := range []format.CompressionType{format.CompressionZstd, format.CompressionLZ4, format.CompressionBGZF} {
		codec, err := GetCodec(ct)
		require.NoError(t, err)

		_, err = codec.Decompress(garbage)
		require.Error(t, err, ct.String())
	}
}

func TestAllCodecs_ConcurrentUsage(t *testing.T) {
	data := tafLikeData(20000)

	for _, ct := range allTypes {
		codec, err := GetCodec(ct)
		require.NoError(t, err)

		var wg sync.WaitGroup
		errCh := make(chan error, 8)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				compressed, err := codec.Compress(data)
				if err != nil {
					errCh <- err
					return
				}
				restored, err := codec.Decompress(compressed)
				if err != nil {
					errCh <- err
					return
				}
				if !bytes.Equal(data, restored) {
					errCh <- fmt.Errorf("%s: round trip mismatch", ct)
				}
			}()
		}
		wg.Wait()
		close(errCh)
		for err := range errCh {
			require.NoError(t, err)
		}
	}
}

func TestBGZFWriter_OffsetsAddressLines(t *testing.T) {
	var file bytes.Buffer
	w := NewBGZFWriter(&file)

	type mark struct {
		block uint64
		data  uint16
		line  string
	}
	var marks []mark
	for i := range 6000 {
		line := fmt.Sprintf("line %05d ACGTACGTACGT ; s 0 hg38.chr1 %d + 1000\n", i, i*10)
		if i%1000 == 0 {
			b, d := w.Offset()
			marks = append(marks, mark{block: b, data: d, line: line})
		}
		_, err := w.Write([]byte(line))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.True(t, bytes.HasSuffix(file.Bytes(), bgzfEOF))

	codec := NewBGZFCodec()
	raw := file.Bytes()
	for _, m := range marks {
		// decompress from the marked block to the end of the file
		text, err := codec.Decompress(raw[m.block:])
		require.NoError(t, err)
		require.True(t, bytes.HasPrefix(text[m.data:], []byte(m.line)), m.line)
	}
	require.Greater(t, marks[len(marks)-1].block, uint64(0))
}

func TestBGZFBlockSize(t *testing.T) {
	data := tafLikeData(BGZFMaxBlockData + 10)
	file, err := NewBGZFCodec().Compress(data)
	require.NoError(t, err)

	first, err := BGZFBlockSize(file[:BGZFHeaderSize])
	require.NoError(t, err)

	second, err := BGZFBlockSize(file[first : first+BGZFHeaderSize])
	require.NoError(t, err)

	eof, err := BGZFBlockSize(file[first+second:])
	require.NoError(t, err)
	require.Equal(t, len(bgzfEOF), eof)
	require.Equal(t, len(file), first+second+eof)

	// decompressing exactly the first member yields exactly one block of data
	text, err := NewBGZFCodec().Decompress(file[:first])
	require.NoError(t, err)
	require.Equal(t, data[:BGZFMaxBlockData], text)

	_, err = BGZFBlockSize([]byte("not a gzip header at all"))
	require.ErrorIs(t, err, errs.ErrInvalidBlockHeader)
}

func TestBGZFCodec_TruncatedMember(t *testing.T) {
	file, err := NewBGZFCodec().Compress(tafLikeData(5000))
	require.NoError(t, err)

	_, err = NewBGZFCodec().Decompress(file[:len(file)/2])
	require.ErrorIs(t, err, errs.ErrDecompress)
}
