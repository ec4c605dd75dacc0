package report

// Mapping describes the columns of the frames loaded through a View.
//
// Entry i describes the i-th requested cell: its values occupy columns
// [Offsets[i], Offsets[i]+NumValues[i]) of every loaded frame, and
// Data[Offsets[i]:Offsets[i]+NumValues[i]] holds their tags.
type Mapping struct {
	NumValues []uint32
	Offsets   []int
	Data      []uint32
}

// FrameSize returns the number of columns of a loaded frame.
func (m *Mapping) FrameSize() int {
	return len(m.Data)
}

// Columns returns the column range of the i-th cell.
func (m *Mapping) Columns(i int) (start, end int) {
	return m.Offsets[i], m.Offsets[i] + int(m.NumValues[i])
}

// reportOrder lists the requested cells in container order, which is the order
// their values are laid out in storage. Entry k is the k-th requested cell by
// ascending container index.
type reportOrder struct {
	cells      []int // container cell index
	numValues  []int
	outOffsets []int // output column
	inOffsets  []int // storage column, set by the read strategy
	frameSize  int
}

// buildMapping derives the view mapping and the report order bookkeeping for
// the container cells at indices, given in request order.
func buildMapping(r *Report, indices []int, fullFrame bool) (*Mapping, *reportOrder) {
	n := len(indices)
	src := r.file.Mapping()

	m := &Mapping{
		NumValues: make([]uint32, n),
		Offsets:   make([]int, n),
	}
	frameSize := 0
	for i, idx := range indices {
		m.NumValues[i] = src.NumValues[idx]
		m.Offsets[i] = frameSize
		frameSize += int(src.NumValues[idx])
	}

	order := &reportOrder{
		cells:      make([]int, n),
		numValues:  make([]int, n),
		outOffsets: make([]int, n),
		frameSize:  frameSize,
	}

	if fullFrame || n == 1 {
		for i, idx := range indices {
			order.cells[i] = idx
			order.numValues[i] = int(m.NumValues[i])
			order.outOffsets[i] = m.Offsets[i]
		}
	} else {
		for k, i := range argsort(indices) {
			order.cells[k] = indices[i]
			order.numValues[k] = int(m.NumValues[i])
			order.outOffsets[k] = m.Offsets[i]
		}
	}

	if fullFrame {
		m.Data = src.Data

		return m, order
	}

	m.Data = make([]uint32, frameSize)
	for i, idx := range indices {
		in := r.offsets[idx]
		copy(m.Data[m.Offsets[i]:], src.Data[in:in+int(m.NumValues[i])])
	}

	return m, order
}
