package container

import (
	"encoding/binary"
	"fmt"

	"github.com/arloliu/cellreport/endian"
	"github.com/arloliu/cellreport/errs"
	"github.com/arloliu/cellreport/format"
)

// Mapping is the container-wide cell mapping.
type Mapping struct {
	// GIDs holds one sorted, unique identifier per cell.
	GIDs []uint64
	// NumValues holds the value count (compartments) of each cell.
	NumValues []uint32
	// Data holds the per-value tags, sliced per cell by the prefix sum of NumValues.
	Data []uint32
	// Chunks holds the chunk id of each cell (block layout only).
	Chunks []uint32
	// Offsets holds the global column offset of each cell (block layout only).
	// It is derived from NumValues when writing.
	Offsets []uint64
}

// CellCount returns the number of cells.
func (m *Mapping) CellCount() int {
	return len(m.GIDs)
}

// ValueCount returns the number of values of a full frame.
func (m *Mapping) ValueCount() int {
	total := 0
	for _, n := range m.NumValues {
		total += int(n)
	}

	return total
}

// ChunkCount returns the number of chunks referenced by Chunks.
func (m *Mapping) ChunkCount() int {
	if len(m.Chunks) == 0 {
		return 0
	}

	return int(m.Chunks[len(m.Chunks)-1]) + 1
}

// PrefixOffsets returns the starting column of each cell in a full frame.
func PrefixOffsets(numValues []uint32) []uint64 {
	offsets := make([]uint64, len(numValues))
	var acc uint64
	for i, n := range numValues {
		offsets[i] = acc
		acc += uint64(n)
	}

	return offsets
}

// Validate checks the mapping invariants for the given layout.
func (m *Mapping) Validate(layout format.Layout) error {
	cells := len(m.GIDs)
	if len(m.NumValues) != cells {
		return fmt.Errorf("%w: %d gids but %d num_values", errs.ErrInvalidMapping, cells, len(m.NumValues))
	}

	for i := 1; i < cells; i++ {
		if m.GIDs[i] <= m.GIDs[i-1] {
			return fmt.Errorf("%w: gids not strictly increasing at index %d", errs.ErrInvalidMapping, i)
		}
	}

	if total := m.ValueCount(); total != len(m.Data) {
		return fmt.Errorf("%w: %d tags for %d values", errs.ErrInvalidMapping, len(m.Data), total)
	}

	offset := 0
	for i, n := range m.NumValues {
		cell := m.Data[offset : offset+int(n)]
		for j := 1; j < len(cell); j++ {
			if cell[j] < cell[j-1] {
				return fmt.Errorf("%w: tags of gid %d decrease", errs.ErrInvalidMapping, m.GIDs[i])
			}
		}
		offset += int(n)
	}

	if layout != format.LayoutBlock {
		return nil
	}

	if len(m.Chunks) != cells {
		return fmt.Errorf("%w: %d chunk ids for %d cells", errs.ErrInvalidMapping, len(m.Chunks), cells)
	}
	for i, c := range m.Chunks {
		var prev uint32
		if i > 0 {
			prev = m.Chunks[i-1]
		}
		if (i == 0 && c != 0) || (i > 0 && c != prev && c != prev+1) {
			return fmt.Errorf("%w: chunk ids not contiguous at cell %d", errs.ErrInvalidMapping, i)
		}
	}

	if m.Offsets != nil {
		if len(m.Offsets) != cells {
			return fmt.Errorf("%w: %d offsets for %d cells", errs.ErrInvalidMapping, len(m.Offsets), cells)
		}
		for i, want := range PrefixOffsets(m.NumValues) {
			if m.Offsets[i] != want {
				return fmt.Errorf("%w: offset of cell %d is %d, expected %d",
					errs.ErrInvalidMapping, i, m.Offsets[i], want)
			}
		}
	}

	return nil
}

// appendMapping serializes units and mapping arrays.
func appendMapping(engine endian.EndianEngine, dst []byte, dataUnit, timeUnit string, m *Mapping, layout format.Layout) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(dataUnit)))
	dst = append(dst, dataUnit...)
	dst = binary.AppendUvarint(dst, uint64(len(timeUnit)))
	dst = append(dst, timeUnit...)

	dst = endian.AppendUint64s(engine, dst, m.GIDs)
	dst = endian.AppendUint32s(engine, dst, m.NumValues)
	dst = endian.AppendUint32s(engine, dst, m.Data)

	if layout == format.LayoutBlock {
		dst = endian.AppendUint32s(engine, dst, m.Chunks)
		dst = endian.AppendUint64s(engine, dst, PrefixOffsets(m.NumValues))
	}

	return dst
}

type mappingDecoder struct {
	engine endian.EndianEngine
	data   []byte
	pos    int
	err    error
}

func (d *mappingDecoder) need(n int) bool {
	if d.err != nil {
		return false
	}
	if n < 0 || d.pos+n > len(d.data) {
		d.err = fmt.Errorf("%w: mapping section truncated", errs.ErrInvalidMapping)
		return false
	}

	return true
}

func (d *mappingDecoder) string() string {
	if d.err != nil {
		return ""
	}
	n, read := binary.Uvarint(d.data[d.pos:])
	if read <= 0 {
		d.err = fmt.Errorf("%w: invalid unit length", errs.ErrInvalidMapping)
		return ""
	}
	d.pos += read
	if !d.need(int(n)) {
		return ""
	}
	s := string(d.data[d.pos : d.pos+int(n)])
	d.pos += int(n)

	return s
}

func (d *mappingDecoder) uint32s(count int) []uint32 {
	if !d.need(count * 4) {
		return nil
	}
	out := make([]uint32, count)
	for i := range out {
		out[i] = d.engine.Uint32(d.data[d.pos:])
		d.pos += 4
	}

	return out
}

func (d *mappingDecoder) uint64s(count int) []uint64 {
	if !d.need(count * 8) {
		return nil
	}
	out := make([]uint64, count)
	for i := range out {
		out[i] = d.engine.Uint64(d.data[d.pos:])
		d.pos += 8
	}

	return out
}

// parseMapping decodes the units and mapping section.
func parseMapping(engine endian.EndianEngine, data []byte, cells, values int, layout format.Layout) (dataUnit, timeUnit string, m *Mapping, err error) {
	d := &mappingDecoder{engine: engine, data: data}

	dataUnit = d.string()
	timeUnit = d.string()

	m = &Mapping{}
	m.GIDs = d.uint64s(cells)
	m.NumValues = d.uint32s(cells)
	m.Data = d.uint32s(values)
	if layout == format.LayoutBlock {
		m.Chunks = d.uint32s(cells)
		m.Offsets = d.uint64s(cells)
	}

	if d.err != nil {
		return "", "", nil, d.err
	}

	return dataUnit, timeUnit, m, nil
}
