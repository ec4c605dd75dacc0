package hash

import (
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte("block")},
		{"binary", []byte{0, 1, 2, 3, 0xff, 0xfe}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum := Checksum(tt.data)
			require.Equal(t, xxhash.Sum64(tt.data), sum)
			require.True(t, Verify(tt.data, sum))
			require.False(t, Verify(append([]byte{1}, tt.data...), sum))
		})
	}
}

func BenchmarkChecksum(b *testing.B) {
	data := make([]byte, 1<<20)
	b.SetBytes(int64(len(data)))
	for b.Loop() {
		Checksum(data)
	}
}
