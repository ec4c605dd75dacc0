package report

import (
	"fmt"

	"github.com/arloliu/cellreport/cache"
	"github.com/arloliu/cellreport/container"
	"github.com/arloliu/cellreport/errs"
	"github.com/arloliu/cellreport/format"
	"github.com/arloliu/cellreport/internal/options"
)

// Report is an open compartment report. It is immutable after Open.
type Report struct {
	file     *container.File
	cache    *cache.BlockCache
	loader   cache.Loader
	metadata Metadata

	// offsets[i] is the first column of cell i in a full frame.
	offsets        []int
	framesPerBlock int

	// simple layout
	dataset *container.Dataset

	// block layout: chunkSizes[c] is the value width of chunk c and
	// dataOffsets[i] the column of cell i inside its chunk.
	chunkSizes  []int
	dataOffsets []int
}

// Open opens the report container at path.
func Open(path string, opts ...Option) (*Report, error) {
	cfg := newConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	file, err := container.Open(path)
	if err != nil {
		return nil, err
	}

	r, err := newReport(file, cfg)
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	return r, nil
}

// NewReport reads a report from an already open container. The Report takes
// ownership of file, which is closed if NewReport fails.
func NewReport(file *container.File, opts ...Option) (*Report, error) {
	cfg := newConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		_ = file.Close()
		return nil, err
	}

	r, err := newReport(file, cfg)
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	return r, nil
}

func newReport(file *container.File, cfg *Config) (*Report, error) {
	header := file.Header()
	mapping := file.Mapping()

	r := &Report{
		file:  file,
		cache: cache.NewBlockCache(file, cfg.cacheCapacity),
		metadata: Metadata{
			StartTime:  header.StartTime,
			TimeStep:   header.TimeStep,
			FrameCount: int(header.FrameCount),
			DataUnit:   file.DataUnit(),
			TimeUnit:   file.TimeUnit(),
			CellCount:  mapping.CellCount(),
			ValueCount: mapping.ValueCount(),
		},
		framesPerBlock: int(header.FramesPerBlock),
	}
	r.loader = r.cache
	if cfg.concurrent {
		r.loader = cache.NewLocked(r.cache)
	}

	if r.metadata.FrameCount > 0 && !(r.metadata.TimeStep > 0) {
		return nil, fmt.Errorf("%w: time step %v", errs.ErrInvalidRange, r.metadata.TimeStep)
	}

	r.offsets = make([]int, len(mapping.NumValues))
	acc := 0
	for i, n := range mapping.NumValues {
		r.offsets[i] = acc
		acc += int(n)
	}

	switch file.Layout() {
	case format.LayoutSimple:
		r.dataset = file.Dataset(r.loader)
	case format.LayoutBlock:
		r.chunkSizes = container.ChunkSizes(mapping)

		// A cell's in-chunk column is its global column minus the widths of
		// all preceding chunks.
		chunkStart := make([]int, len(r.chunkSizes))
		for c := 1; c < len(chunkStart); c++ {
			chunkStart[c] = chunkStart[c-1] + r.chunkSizes[c-1]
		}
		r.dataOffsets = make([]int, len(mapping.Chunks))
		for i, chunk := range mapping.Chunks {
			r.dataOffsets[i] = r.offsets[i] - chunkStart[chunk]
		}
	}

	return r, nil
}

// GIDs returns the sorted cell identifiers. The slice must not be modified.
func (r *Report) GIDs() []uint64 {
	return r.file.Mapping().GIDs
}

// Metadata returns the report time axis and units.
func (r *Report) Metadata() Metadata {
	return r.metadata
}

// Layout returns the storage layout of the container.
func (r *Report) Layout() format.Layout {
	return r.file.Layout()
}

// FramesPerBlock returns the number of frames grouped per storage block.
func (r *Report) FramesPerBlock() int {
	return r.framesPerBlock
}

// CacheStats returns the block cache counters. The snapshot is not
// synchronized with loads running on other goroutines.
func (r *Report) CacheStats() cache.Stats {
	return r.cache.Stats()
}

// CreateView creates a view over the given cells in the given order.
//
// A nil gids selects every cell in container order and loads full frames
// without rearranging columns. Unknown gids fail with an
// *errs.InvalidIdentifierError listing all of them.
func (r *Report) CreateView(gids []uint64) (*View, error) {
	fullFrame := gids == nil

	var indices []int
	if fullFrame {
		gids = r.GIDs()
		indices = make([]int, len(gids))
		for i := range indices {
			indices[i] = i
		}
	} else {
		if len(gids) == 0 {
			return nil, fmt.Errorf("%w: empty gid list", errs.ErrInvalidIdentifier)
		}

		var err error
		if indices, err = Resolve(r.GIDs(), gids); err != nil {
			return nil, err
		}
		gids = append([]uint64(nil), gids...)
	}

	mapping, order := buildMapping(r, indices, fullFrame)

	return &View{
		report:   r,
		gids:     gids,
		mapping:  mapping,
		strategy: newReadStrategy(r, order, fullFrame),
	}, nil
}

// Close releases the container file. Views of the report must not be used afterwards.
func (r *Report) Close() error {
	return r.file.Close()
}
