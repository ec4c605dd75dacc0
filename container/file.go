package container

import (
	"fmt"
	"io"
	"os"

	"github.com/arloliu/cellreport/cache"
	"github.com/arloliu/cellreport/compress"
	"github.com/arloliu/cellreport/endian"
	"github.com/arloliu/cellreport/errs"
	"github.com/arloliu/cellreport/format"
	"github.com/arloliu/cellreport/internal/hash"
	"github.com/arloliu/cellreport/internal/pool"
	"github.com/arloliu/cellreport/section"
)

// File is an open, read-only report container.
//
// File implements cache.BlockStore. ReadBlock is safe for concurrent use as
// long as the underlying io.ReaderAt is.
type File struct {
	r      io.ReaderAt
	closer io.Closer

	header   section.Header
	engine   endian.EndianEngine
	codec    compress.Codec
	index    []section.BlockIndexEntry
	mapping  *Mapping
	dataUnit string
	timeUnit string
}

var _ cache.BlockStore = (*File)(nil)

// Open opens the container at path.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.StorageFault("open container", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errs.StorageFault("stat container", err)
	}

	file, err := OpenReader(f, info.Size())
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	file.closer = f

	return file, nil
}

// OpenReader reads the header, block index and mapping of a container of the
// given size from r.
func OpenReader(r io.ReaderAt, size int64) (*File, error) {
	headerBytes := make([]byte, section.HeaderSize)
	if size < section.HeaderSize {
		return nil, errs.ErrInvalidHeaderSize
	}
	if _, err := r.ReadAt(headerBytes, 0); err != nil {
		return nil, errs.StorageFault("read header", err)
	}

	header, err := section.ParseHeader(headerBytes)
	if err != nil {
		return nil, err
	}

	file := &File{
		r:      r,
		header: header,
		engine: header.Flag.GetEndianEngine(),
	}

	if file.codec, err = compress.GetCodec(header.Flag.Compression); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidHeaderFlags, err)
	}

	if err := file.readIndex(size); err != nil {
		return nil, err
	}

	if err := file.readMapping(); err != nil {
		return nil, err
	}

	if err := file.validateGeometry(); err != nil {
		return nil, err
	}

	return file, nil
}

func (f *File) readIndex(size int64) error {
	count := int64(f.header.BlockCount)
	indexEnd := int64(f.header.IndexOffset) + count*section.BlockIndexEntrySize
	if f.header.IndexOffset < section.HeaderSize || indexEnd > size {
		return fmt.Errorf("%w: block index [%d, %d) outside file of %d bytes",
			errs.ErrInvalidHeaderSize, f.header.IndexOffset, indexEnd, size)
	}

	raw := make([]byte, count*section.BlockIndexEntrySize)
	if _, err := f.r.ReadAt(raw, int64(f.header.IndexOffset)); err != nil {
		return errs.StorageFault("read block index", err)
	}

	index, err := section.ParseBlockIndex(f.engine, raw, int(count))
	if err != nil {
		return err
	}

	for i, entry := range index {
		if entry.Offset < section.MappingOffset || entry.Offset+uint64(entry.Size) > f.header.IndexOffset {
			return fmt.Errorf("%w: block %d outside the payload region", errs.ErrInvalidHeaderSize, i)
		}
	}
	f.index = index

	return nil
}

func (f *File) readMapping() error {
	end := f.header.IndexOffset
	if len(f.index) > 0 {
		end = f.index[0].Offset
	}

	raw := make([]byte, end-section.MappingOffset)
	if _, err := f.r.ReadAt(raw, section.MappingOffset); err != nil {
		return errs.StorageFault("read mapping", err)
	}

	dataUnit, timeUnit, mapping, err := parseMapping(f.engine, raw,
		int(f.header.CellCount), int(f.header.ValueCount), f.header.Flag.Layout)
	if err != nil {
		return err
	}

	if err := mapping.Validate(f.header.Flag.Layout); err != nil {
		return err
	}

	f.dataUnit = dataUnit
	f.timeUnit = timeUnit
	f.mapping = mapping

	return nil
}

func (f *File) validateGeometry() error {
	h := &f.header
	if h.FramesPerBlock == 0 || h.BlockValues == 0 {
		return fmt.Errorf("%w: empty block shape %dx%d", errs.ErrInvalidBlockSize, h.FramesPerBlock, h.BlockValues)
	}

	switch h.Flag.Layout {
	case format.LayoutSimple:
		if h.BlockValues%h.FramesPerBlock != 0 {
			return fmt.Errorf("%w: %d values per block not divisible by %d frames",
				errs.ErrInvalidBlockSize, h.BlockValues, h.FramesPerBlock)
		}
	case format.LayoutBlock:
		if int(h.ChunkCount) != f.mapping.ChunkCount() {
			return fmt.Errorf("%w: header declares %d chunks, mapping has %d",
				errs.ErrInvalidMapping, h.ChunkCount, f.mapping.ChunkCount())
		}
		for chunk, width := range ChunkSizes(f.mapping) {
			if uint64(width)*uint64(h.FramesPerBlock) > uint64(h.BlockValues) {
				return fmt.Errorf("%w: chunk %d of width %d does not fit %d frames in %d values",
					errs.ErrInvalidMapping, chunk, width, h.FramesPerBlock, h.BlockValues)
			}
		}
	}

	want := blockCount(h.Flag.Layout, int(h.FrameCount), int(h.ValueCount),
		int(h.FramesPerBlock), int(h.BlockValues), int(h.ChunkCount))
	if int(h.BlockCount) != want {
		return fmt.Errorf("%w: header declares %d blocks, geometry needs %d",
			errs.ErrInvalidBlockSize, h.BlockCount, want)
	}

	return nil
}

// ChunkSizes returns the value width of every chunk of a block layout mapping.
func ChunkSizes(m *Mapping) []int {
	sizes := make([]int, m.ChunkCount())
	for i, chunk := range m.Chunks {
		sizes[chunk] += int(m.NumValues[i])
	}

	return sizes
}

func blockCount(layout format.Layout, frames, values, framesPerBlock, blockValues, chunks int) int {
	frameBlocks := ceilDiv(frames, framesPerBlock)
	if layout == format.LayoutBlock {
		return frameBlocks * chunks
	}

	return frameBlocks * ceilDiv(values, blockValues/framesPerBlock)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// Header returns a copy of the container header.
func (f *File) Header() section.Header {
	return f.header
}

// Layout returns the storage layout.
func (f *File) Layout() format.Layout {
	return f.header.Flag.Layout
}

// Mapping returns the container mapping. It must be treated as read-only.
func (f *File) Mapping() *Mapping {
	return f.mapping
}

// DataUnit returns the unit of the stored values.
func (f *File) DataUnit() string {
	return f.dataUnit
}

// TimeUnit returns the unit of StartTime and TimeStep.
func (f *File) TimeUnit() string {
	return f.timeUnit
}

// BlockValues returns the number of float32 values of one block.
func (f *File) BlockValues() int {
	return int(f.header.BlockValues)
}

// BlockCount returns the number of stored blocks.
func (f *File) BlockCount() int {
	return len(f.index)
}

// ReadBlock reads, verifies and decodes the block with the given id.
func (f *File) ReadBlock(id int) ([]float32, error) {
	if id < 0 || id >= len(f.index) {
		return nil, errs.StorageFault("read block", fmt.Errorf("block id %d out of range [0, %d)", id, len(f.index)))
	}

	entry := f.index[id]

	buf := pool.GetBlockBuffer()
	defer pool.PutBlockBuffer(buf)

	buf.Grow(int(entry.Size))
	raw := buf.B[:entry.Size]
	if _, err := f.r.ReadAt(raw, int64(entry.Offset)); err != nil {
		return nil, errs.StorageFault("read block", err)
	}

	if !hash.Verify(raw, entry.Checksum) {
		return nil, errs.StorageFault("read block", fmt.Errorf("%w: block %d", errs.ErrChecksumMismatch, id))
	}

	blockBytes := int(f.header.BlockValues) * 4
	payload, err := f.codec.Decompress(raw, blockBytes)
	if err != nil {
		return nil, errs.StorageFault("decompress block", err)
	}
	if len(payload) != blockBytes {
		return nil, errs.StorageFault("decode block",
			fmt.Errorf("%w: block %d holds %d bytes, expected %d", errs.ErrInvalidBlockSize, id, len(payload), blockBytes))
	}

	block := make([]float32, f.header.BlockValues)
	endian.DecodeFloat32s(f.engine, block, payload)

	return block, nil
}

// Dataset returns the tiled 2D view of the stored data, reading blocks through loader.
//
// For the simple layout the array is [FrameCount][ValueCount] with tiles of
// FramesPerBlock x BlockValues/FramesPerBlock. For the block layout the array is
// [BlockCount][BlockValues] with one tile per row.
func (f *File) Dataset(loader cache.Loader) *Dataset {
	h := &f.header
	if h.Flag.Layout == format.LayoutSimple {
		fpb := int(h.FramesPerBlock)
		return NewDataset(loader, int(h.FrameCount), int(h.ValueCount), fpb, int(h.BlockValues)/fpb)
	}

	return NewDataset(loader, len(f.index), int(h.BlockValues), 1, int(h.BlockValues))
}

// Close releases the underlying file, if Open created it.
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}

	err := f.closer.Close()
	f.closer = nil

	return err
}
