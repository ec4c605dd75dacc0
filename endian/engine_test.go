package endian

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckEndiannessReturnType(t *testing.T) {
	switch CheckEndianness() {
	case binary.BigEndian, binary.LittleEndian:
	default:
		t.Fatalf("unexpected byte order %v", CheckEndianness())
	}
}

func TestFloat32sRoundTrip(t *testing.T) {
	values := []float32{0, -70.80388641, 1.5, float32(math.Inf(1)), math.MaxFloat32, -0.25}

	for _, tc := range []struct {
		name   string
		engine EndianEngine
	}{
		{"LittleEndian", GetLittleEndianEngine()},
		{"BigEndian", GetBigEndianEngine()},
	} {
		t.Run(tc.name, func(t *testing.T) {
			buf := AppendFloat32s(tc.engine, []byte{0xAA}, values)
			require.Len(t, buf, 1+4*len(values))
			require.Equal(t, byte(0xAA), buf[0])

			for i, v := range values {
				require.Equal(t, math.Float32bits(v), tc.engine.Uint32(buf[1+4*i:]))
			}

			decoded := make([]float32, len(values))
			DecodeFloat32s(tc.engine, decoded, buf[1:])
			require.Equal(t, values, decoded)
		})
	}
}

func TestFloat32sEmpty(t *testing.T) {
	engine := GetLittleEndianEngine()
	require.Nil(t, AppendFloat32s(engine, nil, nil))
	DecodeFloat32s(engine, nil, nil)
}

func TestAppendIntegers(t *testing.T) {
	engine := GetBigEndianEngine()

	buf := AppendUint32s(engine, nil, []uint32{1, 0x01020304})
	require.Equal(t, []byte{0, 0, 0, 1, 1, 2, 3, 4}, buf)

	buf = AppendUint64s(engine, nil, []uint64{0x0102030405060708})
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, buf)
}
