package report

// Metadata describes the time axis and units of a report.
type Metadata struct {
	StartTime  float64
	TimeStep   float64
	FrameCount int
	DataUnit   string
	TimeUnit   string
	CellCount  int
	ValueCount int
}

// EndTime returns the exclusive end of the time axis.
func (m Metadata) EndTime() float64 {
	return m.StartTime + float64(m.FrameCount)*m.TimeStep
}

// Timestamp returns the timestamp of frame.
func (m Metadata) Timestamp(frame int) float64 {
	return m.StartTime + float64(frame)*m.TimeStep
}

// Frames is a dense row-major frames x values buffer.
type Frames struct {
	Data []float32
	Rows int
	Cols int
}

func newFrames(rows, cols int) Frames {
	return Frames{
		Data: make([]float32, rows*cols),
		Rows: rows,
		Cols: cols,
	}
}

// Row returns frame i. The slice aliases Data.
func (f Frames) Row(i int) []float32 {
	return f.Data[i*f.Cols : (i+1)*f.Cols]
}

// At returns the value at row r, column c.
func (f Frames) At(r, c int) float32 {
	return f.Data[r*f.Cols+c]
}
