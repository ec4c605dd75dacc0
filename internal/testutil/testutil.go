// Package testutil builds deterministic report containers for tests.
package testutil

import (
	"testing"

	"github.com/arloliu/cellreport/container"
	"github.com/arloliu/cellreport/format"
	"github.com/stretchr/testify/require"
)

// Fixture is an in-memory report whose values are a pure function of frame and column.
type Fixture struct {
	GIDs       []uint64
	NumValues  []uint32
	Data       []uint32
	StartTime  float64
	TimeStep   float64
	FrameCount int
	DataUnit   string
	TimeUnit   string
}

// CircuitFixture returns a 10-cell, 10-frame report with uneven cell sizes.
func CircuitFixture() Fixture {
	fx := Fixture{
		GIDs:       []uint64{324, 868, 30872, 75457, 82463, 84347, 106208, 118620, 127768, 215203},
		NumValues:  []uint32{37, 120, 3, 832, 261, 54, 1, 410, 77, 190},
		StartTime:  0,
		TimeStep:   0.1,
		FrameCount: 10,
		DataUnit:   "mV",
		TimeUnit:   "ms",
	}

	for _, n := range fx.NumValues {
		for j := range n {
			fx.Data = append(fx.Data, j/4)
		}
	}

	return fx
}

// Value returns the value stored at frame and full-frame column.
func Value(frame, column int) float32 {
	return float32(frame*100000 + column)
}

// ValueCount returns the number of values of a full frame.
func (f Fixture) ValueCount() int {
	return len(f.Data)
}

// Offsets returns the first full-frame column of every cell.
func (f Fixture) Offsets() []int {
	offsets := make([]int, len(f.NumValues))
	acc := 0
	for i, n := range f.NumValues {
		offsets[i] = acc
		acc += int(n)
	}

	return offsets
}

// Frame returns full frame i.
func (f Fixture) Frame(i int) []float32 {
	frame := make([]float32, f.ValueCount())
	for c := range frame {
		frame[c] = Value(i, c)
	}

	return frame
}

// CellValues returns the values of gid in frame i.
func (f Fixture) CellValues(i int, gid uint64) []float32 {
	offsets := f.Offsets()
	for cell, g := range f.GIDs {
		if g == gid {
			return f.Frame(i)[offsets[cell] : offsets[cell]+int(f.NumValues[cell])]
		}
	}

	return nil
}

// CellTags returns the tags of gid.
func (f Fixture) CellTags(gid uint64) []uint32 {
	offsets := f.Offsets()
	for cell, g := range f.GIDs {
		if g == gid {
			return f.Data[offsets[cell] : offsets[cell]+int(f.NumValues[cell])]
		}
	}

	return nil
}

func (f Fixture) descriptor(layout format.Layout, framesPerBlock, blockValues int) container.Descriptor {
	return container.Descriptor{
		StartTime:      f.StartTime,
		TimeStep:       f.TimeStep,
		FrameCount:     f.FrameCount,
		DataUnit:       f.DataUnit,
		TimeUnit:       f.TimeUnit,
		Layout:         layout,
		FramesPerBlock: framesPerBlock,
		BlockValues:    blockValues,
	}
}

// WriteSimple writes f to path as a simple layout container with tiles of
// framesPerBlock rows and blockValues/framesPerBlock columns.
func WriteSimple(tb testing.TB, path string, f Fixture, framesPerBlock, blockValues int, opts ...container.WriterOption) {
	tb.Helper()

	mapping := &container.Mapping{GIDs: f.GIDs, NumValues: f.NumValues, Data: f.Data}
	w, err := container.Create(path, f.descriptor(format.LayoutSimple, framesPerBlock, blockValues), mapping, opts...)
	require.NoError(tb, err)

	for first := 0; first < f.FrameCount; first += framesPerBlock {
		rows := min(framesPerBlock, f.FrameCount-first)
		frames := make([]float32, 0, rows*f.ValueCount())
		for i := range rows {
			frames = append(frames, f.Frame(first+i)...)
		}
		require.NoError(tb, w.WriteFrames(frames, rows))
	}
	require.NoError(tb, w.Close())
}

// Chunks assigns cells to chunks greedily so that every chunk fits
// framesPerBlock frames in blockValues values.
func Chunks(numValues []uint32, framesPerBlock, blockValues int) []uint32 {
	chunks := make([]uint32, len(numValues))
	var chunk uint32
	width := 0
	for i, n := range numValues {
		if width > 0 && (width+int(n))*framesPerBlock > blockValues {
			chunk++
			width = 0
		}
		width += int(n)
		chunks[i] = chunk
	}

	return chunks
}

// WriteBlock writes f to path as a block layout container.
func WriteBlock(tb testing.TB, path string, f Fixture, framesPerBlock, blockValues int, opts ...container.WriterOption) {
	tb.Helper()

	mapping := &container.Mapping{
		GIDs:      f.GIDs,
		NumValues: f.NumValues,
		Data:      f.Data,
		Chunks:    Chunks(f.NumValues, framesPerBlock, blockValues),
	}
	w, err := container.Create(path, f.descriptor(format.LayoutBlock, framesPerBlock, blockValues), mapping, opts...)
	require.NoError(tb, err)

	sizes := container.ChunkSizes(mapping)
	offsets := f.Offsets()
	firstColumn := make([]int, len(sizes))
	for i := len(mapping.Chunks) - 1; i >= 0; i-- {
		firstColumn[mapping.Chunks[i]] = offsets[i]
	}

	id := 0
	for first := 0; first < f.FrameCount; first += framesPerBlock {
		for chunk, size := range sizes {
			block := make([]float32, blockValues)
			for i := range min(framesPerBlock, f.FrameCount-first) {
				frame := f.Frame(first + i)
				copy(block[i*size:(i+1)*size], frame[firstColumn[chunk]:firstColumn[chunk]+size])
			}
			require.NoError(tb, w.WriteBlock(id, block))
			id++
		}
	}
	require.NoError(tb, w.Close())
}
