package container

import (
	"testing"

	"github.com/arloliu/cellreport/endian"
	"github.com/arloliu/cellreport/errs"
	"github.com/arloliu/cellreport/format"
	"github.com/stretchr/testify/require"
)

func blockMapping() *Mapping {
	return &Mapping{
		GIDs:      []uint64{1, 2, 3},
		NumValues: []uint32{2, 3, 1},
		Data:      []uint32{0, 1, 0, 0, 2, 5},
		Chunks:    []uint32{0, 0, 1},
	}
}

func TestMappingCounts(t *testing.T) {
	m := blockMapping()

	require.Equal(t, 3, m.CellCount())
	require.Equal(t, 6, m.ValueCount())
	require.Equal(t, 2, m.ChunkCount())
	require.Equal(t, []int{5, 1}, ChunkSizes(m))
	require.Equal(t, []uint64{0, 2, 5}, PrefixOffsets(m.NumValues))
}

func TestMappingValidate(t *testing.T) {
	tests := []struct {
		name   string
		layout format.Layout
		mutate func(m *Mapping)
		valid  bool
	}{
		{"valid block", format.LayoutBlock, func(*Mapping) {}, true},
		{"valid simple without chunks", format.LayoutSimple, func(m *Mapping) { m.Chunks = nil }, true},
		{"valid offsets", format.LayoutBlock, func(m *Mapping) { m.Offsets = []uint64{0, 2, 5} }, true},
		{"unsorted gids", format.LayoutSimple, func(m *Mapping) { m.GIDs[1] = 1 }, false},
		{"num_values length", format.LayoutSimple, func(m *Mapping) { m.NumValues = m.NumValues[:2] }, false},
		{"tag count", format.LayoutSimple, func(m *Mapping) { m.Data = m.Data[:5] }, false},
		{"decreasing tags", format.LayoutSimple, func(m *Mapping) { m.Data[3] = 3 }, false},
		{"missing chunks", format.LayoutBlock, func(m *Mapping) { m.Chunks = nil }, false},
		{"chunks not starting at zero", format.LayoutBlock, func(m *Mapping) { m.Chunks = []uint32{1, 1, 2} }, false},
		{"chunk gap", format.LayoutBlock, func(m *Mapping) { m.Chunks = []uint32{0, 0, 2} }, false},
		{"decreasing chunks", format.LayoutBlock, func(m *Mapping) { m.Chunks = []uint32{0, 1, 0} }, false},
		{"wrong offsets", format.LayoutBlock, func(m *Mapping) { m.Offsets = []uint64{0, 2, 4} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := blockMapping()
			tt.mutate(m)

			err := m.Validate(tt.layout)
			if tt.valid {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, errs.ErrInvalidMapping)
			}
		})
	}
}

func TestMappingSectionRoundTrip(t *testing.T) {
	for _, engine := range []endian.EndianEngine{endian.GetLittleEndianEngine(), endian.GetBigEndianEngine()} {
		m := blockMapping()
		raw := appendMapping(engine, nil, "mV", "ms", m, format.LayoutBlock)

		dataUnit, timeUnit, got, err := parseMapping(engine, raw, 3, 6, format.LayoutBlock)
		require.NoError(t, err)
		require.Equal(t, "mV", dataUnit)
		require.Equal(t, "ms", timeUnit)
		require.Equal(t, m.GIDs, got.GIDs)
		require.Equal(t, m.NumValues, got.NumValues)
		require.Equal(t, m.Data, got.Data)
		require.Equal(t, m.Chunks, got.Chunks)
		require.Equal(t, []uint64{0, 2, 5}, got.Offsets)

		_, _, _, err = parseMapping(engine, raw[:len(raw)-1], 3, 6, format.LayoutBlock)
		require.ErrorIs(t, err, errs.ErrInvalidMapping)
	}
}
