package report

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/arloliu/cellreport/errs"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	from := []uint64{324, 868, 30872, 75457, 82463}

	tests := []struct {
		name string
		to   []uint64
		want []int
	}{
		{"single", []uint64{30872}, []int{2}},
		{"single first", []uint64{324}, []int{0}},
		{"in order", []uint64{324, 868, 30872}, []int{0, 1, 2}},
		{"reversed", []uint64{82463, 75457, 324}, []int{4, 3, 0}},
		{"shuffled", []uint64{30872, 324, 82463, 868}, []int{2, 0, 4, 1}},
		{"duplicates", []uint64{868, 324, 868}, []int{1, 0, 1}},
		{"all", []uint64{324, 868, 30872, 75457, 82463}, []int{0, 1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(from, tt.to)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestResolveMissing(t *testing.T) {
	from := []uint64{324, 868, 30872}

	tests := []struct {
		name    string
		to      []uint64
		missing []uint64
	}{
		{"single below", []uint64{1}, []uint64{1}},
		{"single above", []uint64{99999}, []uint64{99999}},
		{"single between", []uint64{500}, []uint64{500}},
		{"several in request order", []uint64{99999, 324, 500, 868, 1}, []uint64{99999, 500, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(from, tt.to)
			require.ErrorIs(t, err, errs.ErrInvalidIdentifier)

			var idErr *errs.InvalidIdentifierError
			require.True(t, errors.As(err, &idErr))
			require.Equal(t, tt.missing, idErr.GIDs)
		})
	}
}

func TestResolveRandomSubsets(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	from := make([]uint64, 500)
	next := uint64(0)
	for i := range from {
		next += 1 + rng.Uint64N(50)
		from[i] = next
	}

	for range 50 {
		to := make([]uint64, 1+rng.IntN(100))
		for i := range to {
			to[i] = from[rng.IntN(len(from))]
		}

		indices, err := Resolve(from, to)
		require.NoError(t, err)
		for i, idx := range indices {
			require.Equal(t, to[i], from[idx])
		}
	}
}

func BenchmarkResolve(b *testing.B) {
	from := make([]uint64, 100000)
	for i := range from {
		from[i] = uint64(i * 3)
	}
	to := make([]uint64, 10000)
	for i := range to {
		to[i] = from[(i*7919)%len(from)]
	}

	for b.Loop() {
		_, _ = Resolve(from, to)
	}
}
