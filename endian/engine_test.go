package endian

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEngineFor(t *testing.T) {
	require.Equal(t, binary.BigEndian, EngineFor(true))
	require.Equal(t, binary.LittleEndian, EngineFor(false))
}

func TestIsBigEndian(t *testing.T) {
	require.True(t, IsBigEndian(GetBigEndianEngine()))
	require.False(t, IsBigEndian(GetLittleEndianEngine()))
}

func TestEngine_AppendAndRead(t *testing.T) {
	for _, engine := range []EndianEngine{GetLittleEndianEngine(), GetBigEndianEngine()} {
		buf := engine.AppendUint64(nil, 1<<60+7)
		buf = engine.AppendUint32(buf, 0xCAFEBABE)
		buf = engine.AppendUint16(buf, 0xBEEF)

		require.Len(t, buf, 14)
		require.Equal(t, uint64(1<<60+7), engine.Uint64(buf[0:8]))
		require.Equal(t, uint32(0xCAFEBABE), engine.Uint32(buf[8:12]))
		require.Equal(t, uint16(0xBEEF), engine.Uint16(buf[12:14]))
	}
}
