package container

import (
	"bufio"
	"fmt"
	"os"

	"github.com/arloliu/cellreport/compress"
	"github.com/arloliu/cellreport/endian"
	"github.com/arloliu/cellreport/errs"
	"github.com/arloliu/cellreport/format"
	"github.com/arloliu/cellreport/internal/hash"
	"github.com/arloliu/cellreport/internal/options"
	"github.com/arloliu/cellreport/internal/pool"
	"github.com/arloliu/cellreport/internal/strided"
	"github.com/arloliu/cellreport/section"
)

// Descriptor describes the report and block geometry of a new container.
type Descriptor struct {
	StartTime  float64
	TimeStep   float64
	FrameCount int
	DataUnit   string
	TimeUnit   string

	Layout format.Layout
	// FramesPerBlock is the tile height (simple) or the frames packed per block (block).
	FramesPerBlock int
	// BlockValues is the float32 capacity of one block. For the simple layout it
	// is rounded down to a multiple of FramesPerBlock.
	BlockValues int
}

// Writer streams blocks into a new container file.
//
// Blocks must be written in ascending id order, starting at 0. The header and
// block index are written by Close.
type Writer struct {
	path   string
	file   *os.File
	buf    *bufio.Writer
	offset uint64

	header section.Header
	engine endian.EndianEngine
	codec  compress.Codec
	index  []section.BlockIndexEntry

	// simple layout row streaming state
	nextFrame int

	closed bool
}

// Create creates the container at path and writes its mapping section.
//
// The mapping is validated for desc.Layout; for the block layout its Offsets
// field is ignored and written as the prefix sum of NumValues.
func Create(path string, desc Descriptor, mapping *Mapping, opts ...WriterOption) (*Writer, error) {
	cfg := newWriterConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	if !desc.Layout.IsValid() {
		return nil, fmt.Errorf("invalid layout: %d", desc.Layout)
	}
	if desc.FrameCount < 0 || desc.FramesPerBlock < 1 || desc.BlockValues < desc.FramesPerBlock {
		return nil, fmt.Errorf("%w: %d frames per block in %d values",
			errs.ErrInvalidBlockSize, desc.FramesPerBlock, desc.BlockValues)
	}
	if desc.Layout == format.LayoutSimple {
		desc.BlockValues -= desc.BlockValues % desc.FramesPerBlock
	}

	check := *mapping
	check.Offsets = nil
	if err := check.Validate(desc.Layout); err != nil {
		return nil, err
	}

	header := section.NewHeader()
	header.Flag.Layout = desc.Layout
	header.Flag.Compression = cfg.compression
	if cfg.bigEndian {
		header.Flag.WithBigEndian()
	}
	header.StartTime = desc.StartTime
	header.TimeStep = desc.TimeStep
	header.FrameCount = uint32(desc.FrameCount)
	header.CellCount = uint32(mapping.CellCount())
	header.ValueCount = uint64(mapping.ValueCount())
	header.FramesPerBlock = uint32(desc.FramesPerBlock)
	header.BlockValues = uint32(desc.BlockValues)
	if desc.Layout == format.LayoutBlock {
		header.ChunkCount = uint32(mapping.ChunkCount())
		for chunk, width := range ChunkSizes(mapping) {
			if width*desc.FramesPerBlock > desc.BlockValues {
				return nil, fmt.Errorf("%w: chunk %d of width %d, %d frames per block, %d values per block",
					errs.ErrCapacityExceeded, chunk, width, desc.FramesPerBlock, desc.BlockValues)
			}
		}
	}
	header.BlockCount = uint32(blockCount(desc.Layout, desc.FrameCount, mapping.ValueCount(),
		desc.FramesPerBlock, desc.BlockValues, int(header.ChunkCount)))

	codec, err := compress.GetCodec(cfg.compression)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, errs.StorageFault("create container", err)
	}

	w := &Writer{
		path:   path,
		file:   f,
		buf:    bufio.NewWriterSize(f, pool.BlockBufferDefaultSize),
		header: *header,
		engine: header.Flag.GetEndianEngine(),
		codec:  codec,
		index:  make([]section.BlockIndexEntry, 0, header.BlockCount),
	}

	// The header is rewritten by Close once the index offset is known.
	prefix := header.Bytes()
	prefix = appendMapping(w.engine, prefix, desc.DataUnit, desc.TimeUnit, mapping, desc.Layout)
	if err := w.write(prefix); err != nil {
		w.Abort()
		return nil, err
	}

	return w, nil
}

// Header returns the header as it will be written by Close.
func (w *Writer) Header() section.Header {
	return w.header
}

// BlockValues returns the float32 width of one block.
func (w *Writer) BlockValues() int {
	return int(w.header.BlockValues)
}

// BlocksWritten returns the number of blocks written so far.
func (w *Writer) BlocksWritten() int {
	return len(w.index)
}

func (w *Writer) write(p []byte) error {
	n, err := w.buf.Write(p)
	w.offset += uint64(n)
	if err != nil {
		return errs.StorageFault("write container", err)
	}

	return nil
}

// WriteBlock encodes, compresses and appends the block with the given id.
//
// values must hold exactly BlockValues values.
func (w *Writer) WriteBlock(id int, values []float32) error {
	if w.closed {
		return errs.ErrWriterClosed
	}
	if id != len(w.index) || id >= int(w.header.BlockCount) {
		return fmt.Errorf("%w: got block %d, expected %d of %d",
			errs.ErrBlockOutOfOrder, id, len(w.index), w.header.BlockCount)
	}
	if len(values) != int(w.header.BlockValues) {
		return fmt.Errorf("%w: block %d has %d values, expected %d",
			errs.ErrInvalidBlockSize, id, len(values), w.header.BlockValues)
	}

	buf := pool.GetBlockBuffer()
	defer pool.PutBlockBuffer(buf)

	buf.Grow(len(values) * 4)
	buf.B = endian.AppendFloat32s(w.engine, buf.B, values)

	payload, err := w.codec.Compress(buf.B)
	if err != nil {
		return fmt.Errorf("compress block %d: %w", id, err)
	}

	entry := section.BlockIndexEntry{
		Offset:   w.offset,
		Size:     uint32(len(payload)),
		Checksum: hash.Checksum(payload),
	}
	if err := w.write(payload); err != nil {
		return err
	}
	w.index = append(w.index, entry)

	return nil
}

// WriteFrames writes rows full frames of a simple layout container.
//
// frames holds rows x ValueCount values, row-major. Every call except the last
// must pass exactly FramesPerBlock rows so that each call completes one row of
// tiles.
func (w *Writer) WriteFrames(frames []float32, rows int) error {
	if w.closed {
		return errs.ErrWriterClosed
	}
	if w.header.Flag.Layout != format.LayoutSimple {
		return fmt.Errorf("%w: frame rows can only be written to a simple layout", errs.ErrInvalidBlockSize)
	}

	fpb := int(w.header.FramesPerBlock)
	values := int(w.header.ValueCount)
	remaining := int(w.header.FrameCount) - w.nextFrame
	if rows < 1 || rows > remaining || (rows != fpb && rows != remaining) {
		return fmt.Errorf("%w: %d rows at frame %d, expected %d",
			errs.ErrInvalidRange, rows, w.nextFrame, min(fpb, remaining))
	}
	if len(frames) != rows*values {
		return fmt.Errorf("%w: %d values for %d rows of %d", errs.ErrInvalidBlockSize, len(frames), rows, values)
	}

	tileCols := int(w.header.BlockValues) / fpb
	tile, release := pool.GetFloat32Slice(int(w.header.BlockValues))
	defer release()

	for c0 := 0; c0 < values; c0 += tileCols {
		width := min(tileCols, values-c0)
		clear(tile)
		strided.Copy(tile, 0, tileCols, frames, c0, values, rows, width)
		if err := w.WriteBlock(len(w.index), tile); err != nil {
			return err
		}
	}
	w.nextFrame += rows

	return nil
}

// Close writes the block index and the final header.
//
// Close fails if fewer than BlockCount blocks were written; the partial file
// is left in place for the caller to Abort.
func (w *Writer) Close() error {
	if w.closed {
		return errs.ErrWriterClosed
	}

	if len(w.index) != int(w.header.BlockCount) {
		return fmt.Errorf("%w: %d of %d blocks written", errs.ErrInvalidBlockSize, len(w.index), w.header.BlockCount)
	}

	w.header.IndexOffset = w.offset
	indexBytes := make([]byte, 0, len(w.index)*section.BlockIndexEntrySize)
	for _, entry := range w.index {
		indexBytes = entry.AppendTo(w.engine, indexBytes)
	}
	if err := w.write(indexBytes); err != nil {
		return err
	}

	if err := w.buf.Flush(); err != nil {
		return errs.StorageFault("flush container", err)
	}
	if _, err := w.file.WriteAt(w.header.Bytes(), 0); err != nil {
		return errs.StorageFault("write header", err)
	}

	w.closed = true
	err := w.file.Close()
	w.file = nil
	if err != nil {
		return errs.StorageFault("close container", err)
	}

	return nil
}

// Abort closes and removes the partially written file.
func (w *Writer) Abort() {
	if w.file == nil {
		return
	}

	w.closed = true
	_ = w.file.Close()
	_ = os.Remove(w.path)
	w.file = nil
}

// IsClosed reports whether Close or Abort has been called.
func (w *Writer) IsClosed() bool {
	return w.closed
}
