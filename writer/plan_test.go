package writer

import (
	"testing"

	"github.com/arloliu/cellreport/errs"
	"github.com/arloliu/cellreport/internal/testutil"
	"github.com/stretchr/testify/require"
)

func TestComputeFramesPerBlock(t *testing.T) {
	tests := []struct {
		name        string
		numValues   []uint32
		blockValues int
		ratio       float64
		want        int
	}{
		// median 98.5: floor(sqrt(262144/98.5)/0.25) = 206
		{"circuit 1MiB", testutil.CircuitFixture().NumValues, 262144, 0.25, 206},
		// 40 frames of 20 values under-fill 1000 values, so fill with 50 frames
		{"under-filled block", []uint32{10, 10}, 1000, 0.25, 50},
		{"odd count median", []uint32{100, 1, 2000}, 10000, 1, 10},
		{"cell wider than block", []uint32{5000}, 1000, 1, 1},
		{"no values", []uint32{0, 0}, 1000, 0.25, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ComputeFramesPerBlock(tt.numValues, tt.blockValues, tt.ratio))
		})
	}
}

func TestPlanChunks(t *testing.T) {
	chunks, err := PlanChunks([]uint32{4, 4, 2, 5, 1, 1, 8}, 2, 20)
	require.NoError(t, err)
	require.Equal(t, []Chunk{
		{FirstCell: 0, CellCount: 3, Width: 10},
		{FirstCell: 3, CellCount: 3, Width: 7},
		{FirstCell: 6, CellCount: 1, Width: 8},
	}, chunks)

	for _, chunk := range chunks {
		require.LessOrEqual(t, chunk.Width*2, 20)
	}

	chunks, err = PlanChunks(nil, 2, 20)
	require.NoError(t, err)
	require.Empty(t, chunks)

	_, err = PlanChunks([]uint32{4, 11, 2}, 2, 20)
	require.ErrorIs(t, err, errs.ErrCapacityExceeded)
}

func TestUtilization(t *testing.T) {
	// 10 frames in blocks of 4: two full blocks and one with 2 frames.
	require.InDelta(t, (0.5+0.5+0.25)/3, Utilization(50, 4, 400, 10), 1e-12)
	require.InDelta(t, 1.0, Utilization(100, 4, 400, 8), 1e-12)
	require.InDelta(t, 0.125, Utilization(50, 4, 400, 1), 1e-12)
	require.Zero(t, Utilization(50, 4, 400, 0))
}

func TestSubsample(t *testing.T) {
	gids := testutil.CircuitFixture().GIDs

	picked := Subsample(gids, 0.5, DefaultSeed)
	require.Len(t, picked, 5)
	require.IsIncreasing(t, picked)
	for _, gid := range picked {
		require.Contains(t, gids, gid)
	}

	require.Equal(t, picked, Subsample(gids, 0.5, DefaultSeed))
	require.Len(t, Subsample(gids, 0.35, 1), 3)
	require.Equal(t, gids, Subsample(gids, 1, 9))
	require.Empty(t, Subsample(gids, 0.05, 1))
}
