// Package cellreport reads and rewrites compartment reports: per-cell float32
// traces stored frame by frame in a blocked binary container.
//
// A report maps three coordinate spaces onto each other: stable cell
// identifiers (gids), the flattened per-frame value layout that concatenates
// the compartments of every cell, and the storage blocks that group cells and
// frames on disk. Queries pick any subset of cells in any order and any time
// window, and only touch the blocks that hold them.
//
// # Core Features
//
//   - Two storage layouts: a tiled [frame][value] array, or explicit blocks
//     that pack several frames of a chunk of consecutive cells
//   - Direct-mapped block cache keyed by block id
//   - Optional block compression (None, Zstd, S2, LZ4)
//   - xxHash64 checksum per stored block
//   - Conversion between layouts with a tunable block geometry
//
// # Basic Usage
//
// Reading two cells over a time window:
//
//	r, err := cellreport.Open("circuit.crf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	view, err := r.CreateView([]uint64{30872, 324})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	timestamps, frames, err := view.LoadRange(0.2, 0.5)
//
// Converting a report to 256KiB blocks:
//
//	stats, err := cellreport.Convert(ctx, r, "small-blocks.crf",
//	    writer.WithBlockSize(256*1024),
//	    writer.WithCompression(format.CompressionZstd),
//	)
//
// # Package Structure
//
// This package wraps the report and writer packages for the common cases. The
// container package exposes the file format, and cache the block cache.
package cellreport

import (
	"context"

	"github.com/arloliu/cellreport/report"
	"github.com/arloliu/cellreport/writer"
)

// Open opens the report container at path.
//
// Parameters:
//   - path: Container file to open
//   - opts: Optional reader settings (see report.Option)
//
// Returns:
//   - *report.Report: The open report; Close it when done.
//   - error: An error if the file can not be read or is not a valid container.
//
// Available options:
//   - report.WithCacheCapacity(n)
//   - report.WithConcurrentAccess()
func Open(path string, opts ...report.Option) (*report.Report, error) {
	return report.Open(path, opts...)
}

// Convert writes the cells and frames of src selected by opts into a new
// container at path.
//
// Parameters:
//   - ctx: Checked between frame windows; cancellation removes the partial output
//   - src: Source report, usually returned by Open
//   - path: Output container file
//   - opts: Optional conversion settings (see writer.Option)
//
// Returns:
//   - writer.Stats: The geometry of the written container.
//   - error: errs.ErrInvalidRange for a bad frame range, errs.ErrCapacityExceeded
//     when a single cell does not fit in a block, or any I/O failure.
//
// Example:
//
//	stats, err := cellreport.Convert(ctx, r, "out.crf",
//	    writer.WithFrameRange(100, 200),
//	    writer.WithLayout(format.LayoutSimple),
//	)
func Convert(ctx context.Context, src writer.Source, path string, opts ...writer.Option) (writer.Stats, error) {
	return writer.Write(ctx, src, path, opts...)
}
