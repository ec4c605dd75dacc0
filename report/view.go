package report

import (
	"fmt"
	"math"

	"github.com/arloliu/cellreport/errs"
)

// View loads frames for a fixed list of cells. It borrows its Report.
type View struct {
	report   *Report
	gids     []uint64
	mapping  *Mapping
	strategy readStrategy
}

// GIDs returns the cells of the view in column order.
func (v *View) GIDs() []uint64 {
	return v.gids
}

// Mapping returns the column layout of the frames loaded by the view.
func (v *View) Mapping() *Mapping {
	return v.mapping
}

// frameNumber returns the frame containing timestamp t, clamped to the time axis.
func (v *View) frameNumber(t float64) int {
	md := v.report.metadata

	last := math.Nextafter(md.EndTime(), math.Inf(-1))
	t = max(min(t, last), md.StartTime) - md.StartTime
	frame := int(t / md.TimeStep)

	return min(max(frame, 0), md.FrameCount-1)
}

// Load loads the single frame containing timestamp t.
//
// Timestamps outside the time axis select the first or the last frame.
func (v *View) Load(t float64) ([]float64, Frames, error) {
	md := v.report.metadata
	if md.FrameCount == 0 {
		return nil, Frames{}, fmt.Errorf("%w: report has no frames", errs.ErrInvalidRange)
	}

	frame := v.frameNumber(t)
	frames, err := v.strategy.load(frame, frame+1)
	if err != nil {
		return nil, Frames{}, err
	}

	return []float64{md.Timestamp(frame)}, frames, nil
}

// LoadRange loads the frames whose timestamps fall in [start, end).
//
// The window is clipped to the time axis; it always yields at least one frame
// unless end <= start, which fails with errs.ErrInvalidRange.
func (v *View) LoadRange(start, end float64) ([]float64, Frames, error) {
	if !(end > start) {
		return nil, Frames{}, fmt.Errorf("%w: end %v not after start %v", errs.ErrInvalidRange, end, start)
	}

	md := v.report.metadata
	start = max(start, md.StartTime)
	end = math.Nextafter(min(end, md.EndTime()), math.Inf(-1))

	first := v.frameNumber(start)
	count := v.frameNumber(end) - first + 1
	if md.FrameCount == 0 || count <= 0 {
		return nil, Frames{}, fmt.Errorf("%w: [%v, %v) selects no frame", errs.ErrInvalidRange, start, end)
	}

	return v.loadFrames(first, first+count)
}

// LoadAll loads every frame of the report.
func (v *View) LoadAll() ([]float64, Frames, error) {
	md := v.report.metadata
	if md.FrameCount == 0 {
		return []float64{}, newFrames(0, v.mapping.FrameSize()), nil
	}

	return v.loadFrames(0, md.FrameCount)
}

// LoadFrames loads the frames with index in [first, last).
func (v *View) LoadFrames(first, last int) ([]float64, Frames, error) {
	if first < 0 || last <= first || last > v.report.metadata.FrameCount {
		return nil, Frames{}, fmt.Errorf("%w: frames [%d, %d) of %d",
			errs.ErrInvalidRange, first, last, v.report.metadata.FrameCount)
	}

	return v.loadFrames(first, last)
}

func (v *View) loadFrames(first, last int) ([]float64, Frames, error) {
	frames, err := v.strategy.load(first, last)
	if err != nil {
		return nil, Frames{}, err
	}

	md := v.report.metadata
	timestamps := make([]float64, last-first)
	for i := range timestamps {
		timestamps[i] = md.Timestamp(first + i)
	}

	return timestamps, frames, nil
}
