package writer

import (
	"fmt"

	"github.com/go-kit/log"

	"github.com/arloliu/cellreport/format"
	"github.com/arloliu/cellreport/internal/options"
)

const (
	// DefaultBlockSize is the default block byte budget.
	DefaultBlockSize = 1024 * 1024 // 1MiB
	// DefaultCellsToFramesRatio is the default cells-to-frames ratio.
	DefaultCellsToFramesRatio = 0.25
	// DefaultSeed seeds the cell subsampling shuffle.
	DefaultSeed = 5
)

// Config holds the conversion settings.
type Config struct {
	blockSize          int
	cellsToFramesRatio float64
	frameRange         *[2]int
	readFullFrames     bool
	fraction           float64
	seed               uint64
	layout             format.Layout
	compression        format.CompressionType
	logger             log.Logger
}

// Option configures Write.
type Option = options.Option[*Config]

func newConfig() *Config {
	return &Config{
		blockSize:          DefaultBlockSize,
		cellsToFramesRatio: DefaultCellsToFramesRatio,
		fraction:           1,
		seed:               DefaultSeed,
		layout:             format.LayoutBlock,
		compression:        format.CompressionNone,
		logger:             log.NewNopLogger(),
	}
}

// WithBlockSize sets the block byte budget. One value takes 4 bytes.
func WithBlockSize(bytes int) Option {
	return options.New(func(c *Config) error {
		if bytes < 4 {
			return fmt.Errorf("invalid block size: %d bytes", bytes)
		}
		c.blockSize = bytes

		return nil
	})
}

// WithCellsToFramesRatio sets the average share of cells per block relative to
// frames. Larger ratios give blocks with fewer frames and more cells.
func WithCellsToFramesRatio(ratio float64) Option {
	return options.New(func(c *Config) error {
		if !(ratio > 0) {
			return fmt.Errorf("invalid cells to frames ratio: %v", ratio)
		}
		c.cellsToFramesRatio = ratio

		return nil
	})
}

// WithFrameRange converts only the source frames [first, last).
func WithFrameRange(first, last int) Option {
	return options.NoError(func(c *Config) {
		c.frameRange = &[2]int{first, last}
	})
}

// WithReadFullFrames reads each frame window once for all chunks instead of
// once per chunk. It is ignored when cells are subsampled.
func WithReadFullFrames(enabled bool) Option {
	return options.NoError(func(c *Config) {
		c.readFullFrames = enabled
	})
}

// WithFraction keeps a random fraction of the cells, chosen deterministically from the seed.
func WithFraction(fraction float64) Option {
	return options.New(func(c *Config) error {
		if !(fraction > 0 && fraction <= 1) {
			return fmt.Errorf("invalid cell fraction: %v", fraction)
		}
		c.fraction = fraction

		return nil
	})
}

// WithSeed sets the subsampling seed.
func WithSeed(seed uint64) Option {
	return options.NoError(func(c *Config) {
		c.seed = seed
	})
}

// WithLayout selects the output layout. Defaults to format.LayoutBlock.
func WithLayout(layout format.Layout) Option {
	return options.New(func(c *Config) error {
		if !layout.IsValid() {
			return fmt.Errorf("invalid layout: %d", layout)
		}
		c.layout = layout

		return nil
	})
}

// WithCompression sets the codec of the output blocks.
func WithCompression(compression format.CompressionType) Option {
	return options.NoError(func(c *Config) {
		c.compression = compression
	})
}

// WithLogger sets the logger for progress and block statistics.
func WithLogger(logger log.Logger) Option {
	return options.NoError(func(c *Config) {
		if logger == nil {
			logger = log.NewNopLogger()
		}
		c.logger = logger
	})
}
