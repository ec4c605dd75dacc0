package writer

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/arloliu/cellreport/container"
	"github.com/arloliu/cellreport/errs"
	"github.com/arloliu/cellreport/format"
	"github.com/arloliu/cellreport/internal/options"
	"github.com/arloliu/cellreport/internal/pool"
	"github.com/arloliu/cellreport/internal/strided"
	"github.com/arloliu/cellreport/report"
)

// Source is a readable report. *report.Report implements it.
type Source interface {
	GIDs() []uint64
	Metadata() report.Metadata
	CreateView(gids []uint64) (*report.View, error)
}

var _ Source = (*report.Report)(nil)

// Stats summarizes the geometry of a written container.
type Stats struct {
	FramesPerBlock    int
	BlockValues       int
	BlockCount        int
	ChunkCount        int
	MeanCellsPerChunk float64
	// Utilization is the mean fraction of block values holding real data.
	Utilization float64
}

// plan is the output geometry computed before any byte is written.
type plan struct {
	gids           []uint64
	view           *report.View
	first, last    int
	framesPerBlock int
	blockValues    int
	chunks         []Chunk
}

// Write converts src into a new container at path.
//
// On error no file is left at path. ctx is checked between frame windows.
func Write(ctx context.Context, src Source, path string, opts ...Option) (Stats, error) {
	cfg := newConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return Stats{}, err
	}

	p, err := newPlan(src, cfg)
	if err != nil {
		return Stats{}, err
	}

	md := src.Metadata()
	mapping := p.view.Mapping()
	desc := container.Descriptor{
		StartTime:      md.StartTime + float64(p.first)*md.TimeStep,
		TimeStep:       md.TimeStep,
		FrameCount:     p.last - p.first,
		DataUnit:       md.DataUnit,
		TimeUnit:       md.TimeUnit,
		Layout:         cfg.layout,
		FramesPerBlock: p.framesPerBlock,
		BlockValues:    p.blockValues,
	}
	out := &container.Mapping{
		GIDs:      p.gids,
		NumValues: mapping.NumValues,
		Data:      mapping.Data,
	}
	if cfg.layout == format.LayoutBlock {
		out.Chunks = make([]uint32, len(p.gids))
		for id, chunk := range p.chunks {
			for i := range chunk.CellCount {
				out.Chunks[chunk.FirstCell+i] = uint32(id)
			}
		}
	}

	w, err := container.Create(path, desc, out, container.WithCompression(cfg.compression))
	if err != nil {
		return Stats{}, err
	}

	stats := p.stats(w, mapping.FrameSize())
	level.Info(cfg.logger).Log(
		"msg", "writing report",
		"path", path,
		"layout", cfg.layout,
		"cells", len(p.gids),
		"block_size", cfg.blockSize,
		"total_blocks", stats.BlockCount,
		"frames_per_block", stats.FramesPerBlock,
		"mean_cells_per_chunk", fmt.Sprintf("%.1f", stats.MeanCellsPerChunk),
		"utilization", fmt.Sprintf("%f", stats.Utilization),
	)

	if cfg.layout == format.LayoutBlock {
		err = p.writeBlocks(ctx, src, w, cfg)
	} else {
		err = p.writeChunked(ctx, w, cfg.logger)
	}
	if err == nil {
		err = w.Close()
	}
	if err != nil {
		w.Abort()
		return Stats{}, err
	}

	level.Info(cfg.logger).Log("msg", "report written", "path", path, "blocks", w.BlocksWritten())

	return stats, nil
}

func newPlan(src Source, cfg *Config) (*plan, error) {
	md := src.Metadata()

	p := &plan{first: 0, last: md.FrameCount}
	if cfg.frameRange != nil {
		p.first, p.last = cfg.frameRange[0], cfg.frameRange[1]
	}
	if p.first < 0 || p.last <= p.first || p.last > md.FrameCount {
		return nil, fmt.Errorf("%w: frames [%d, %d) of %d", errs.ErrInvalidRange, p.first, p.last, md.FrameCount)
	}

	var err error
	if cfg.fraction < 1 {
		p.gids = Subsample(src.GIDs(), cfg.fraction, cfg.seed)
		if len(p.gids) == 0 {
			return nil, fmt.Errorf("%w: fraction %v selects no cell of %d",
				errs.ErrInvalidIdentifier, cfg.fraction, len(src.GIDs()))
		}
		level.Info(cfg.logger).Log("msg", "subsampled cells", "picked", len(p.gids), "total", len(src.GIDs()))
		cfg.readFullFrames = false
		p.view, err = src.CreateView(p.gids)
	} else {
		p.gids = src.GIDs()
		p.view, err = src.CreateView(nil)
	}
	if err != nil {
		return nil, err
	}

	numValues := p.view.Mapping().NumValues
	p.blockValues = cfg.blockSize / 4
	p.framesPerBlock = ComputeFramesPerBlock(numValues, p.blockValues, cfg.cellsToFramesRatio)

	if cfg.layout == format.LayoutBlock {
		if p.chunks, err = PlanChunks(numValues, p.framesPerBlock, p.blockValues); err != nil {
			return nil, err
		}
	} else if p.framesPerBlock > p.blockValues {
		return nil, fmt.Errorf("%w: %d frames per block in %d values",
			errs.ErrCapacityExceeded, p.framesPerBlock, p.blockValues)
	}

	return p, nil
}

func (p *plan) stats(w *container.Writer, frameSize int) Stats {
	header := w.Header()
	stats := Stats{
		FramesPerBlock: p.framesPerBlock,
		BlockValues:    w.BlockValues(),
		BlockCount:     int(header.BlockCount),
		ChunkCount:     len(p.chunks),
	}

	frames := p.last - p.first
	if len(p.chunks) == 0 {
		if stats.BlockCount > 0 {
			stats.Utilization = float64(frames*frameSize) / float64(stats.BlockCount*stats.BlockValues)
		}

		return stats
	}

	for _, chunk := range p.chunks {
		stats.MeanCellsPerChunk += float64(chunk.CellCount)
		stats.Utilization += Utilization(chunk.Width, p.framesPerBlock, p.blockValues, frames)
	}
	stats.MeanCellsPerChunk /= float64(len(p.chunks))
	stats.Utilization /= float64(len(p.chunks))

	return stats
}

// writeBlocks streams frame windows in block id order. Each chunk's values of
// a window are packed frame-major into one zero-padded block.
func (p *plan) writeBlocks(ctx context.Context, src Source, w *container.Writer, cfg *Config) error {
	var chunkViews []*report.View
	if !cfg.readFullFrames {
		chunkViews = make([]*report.View, len(p.chunks))
		for i, chunk := range p.chunks {
			view, err := src.CreateView(p.gids[chunk.FirstCell : chunk.FirstCell+chunk.CellCount])
			if err != nil {
				return err
			}
			chunkViews[i] = view
		}
	}

	offsets := p.view.Mapping().Offsets
	block, release := pool.GetFloat32Slice(p.blockValues)
	defer release()

	id := 0
	for window := p.first; window < p.last; window += p.framesPerBlock {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(window+p.framesPerBlock, p.last)
		rows := end - window
		level.Debug(cfg.logger).Log("msg", "writing frames", "first", window-p.first, "last", end-p.first-1)

		var full report.Frames
		if cfg.readFullFrames {
			var err error
			if _, full, err = p.view.LoadFrames(window, end); err != nil {
				return err
			}
		}

		for i, chunk := range p.chunks {
			frames, column := full, 0
			if cfg.readFullFrames {
				column = offsets[chunk.FirstCell]
			} else {
				var err error
				if _, frames, err = chunkViews[i].LoadFrames(window, end); err != nil {
					return err
				}
			}

			clear(block)
			strided.Copy(block, 0, chunk.Width, frames.Data, column, frames.Cols, rows, chunk.Width)
			if err := w.WriteBlock(id, block); err != nil {
				return err
			}
			id++
		}
	}

	return nil
}

// writeChunked writes the selected frames as a simple layout, one row of
// tiles per frame window.
func (p *plan) writeChunked(ctx context.Context, w *container.Writer, logger log.Logger) error {
	for window := p.first; window < p.last; window += p.framesPerBlock {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(window+p.framesPerBlock, p.last)
		level.Debug(logger).Log("msg", "writing frames", "first", window-p.first, "last", end-p.first-1)

		_, frames, err := p.view.LoadFrames(window, end)
		if err != nil {
			return err
		}
		if err := w.WriteFrames(frames.Data, frames.Rows); err != nil {
			return err
		}
	}

	return nil
}

// Subsample returns floor(len(gids)*fraction) gids picked by a shuffle seeded
// with seed, sorted ascending. The same inputs always pick the same gids.
func Subsample(gids []uint64, fraction float64, seed uint64) []uint64 {
	picked := slices.Clone(gids)
	rng := rand.New(rand.NewPCG(seed, seed))
	rng.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})

	picked = picked[:int(float64(len(picked))*fraction)]
	slices.Sort(picked)

	return picked
}
