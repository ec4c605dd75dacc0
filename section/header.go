package section

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/arloliu/cellreport/errs"
	"github.com/arloliu/cellreport/format"
)

// Header is the fixed-size section at the start of a report container.
type Header struct {
	// Flag is a packed field for the magic number, endianness, layout and codec.
	Flag Flag // byte offset 0-3
	// Version is the container format version.
	Version uint16 // byte offset 4-5
	// StartTime is the timestamp of frame 0.
	StartTime float64 // byte offset 8-15
	// TimeStep is the time between consecutive frames.
	TimeStep float64 // byte offset 16-23
	// FrameCount is the number of frames stored.
	FrameCount uint32 // byte offset 24-27
	// CellCount is the number of cells (gids) in the mapping.
	CellCount uint32 // byte offset 28-31
	// ValueCount is the number of values of a full frame (sum of num_values).
	ValueCount uint64 // byte offset 32-39
	// FramesPerBlock is the number of frame rows of a storage tile.
	FramesPerBlock uint32 // byte offset 40-43
	// BlockValues is the number of float32 values of one stored block.
	BlockValues uint32 // byte offset 44-47
	// BlockCount is the number of stored blocks.
	BlockCount uint32 // byte offset 48-51
	// ChunkCount is the number of cell chunks per frame block (block layout only).
	ChunkCount uint32 // byte offset 52-55
	// IndexOffset is the byte offset of the block index section.
	IndexOffset uint64 // byte offset 56-63
}

// NewHeader creates a header with a default flag and the current format version.
func NewHeader() *Header {
	return &Header{
		Flag:    NewFlag(),
		Version: FormatVersion,
	}
}

// Parse parses the header from a byte slice of exactly HeaderSize bytes.
func (h *Header) Parse(data []byte) error {
	if len(data) != HeaderSize {
		return errs.ErrInvalidHeaderSize
	}

	h.Flag.Options = binary.LittleEndian.Uint16(data[0:2])
	h.Flag.Layout = format.Layout(data[2])
	h.Flag.Compression = format.CompressionType(data[3])

	if err := h.Flag.Validate(); err != nil {
		return err
	}

	engine := h.Flag.GetEndianEngine()

	h.Version = engine.Uint16(data[4:6])
	h.StartTime = math.Float64frombits(engine.Uint64(data[8:16]))
	h.TimeStep = math.Float64frombits(engine.Uint64(data[16:24]))
	h.FrameCount = engine.Uint32(data[24:28])
	h.CellCount = engine.Uint32(data[28:32])
	h.ValueCount = engine.Uint64(data[32:40])
	h.FramesPerBlock = engine.Uint32(data[40:44])
	h.BlockValues = engine.Uint32(data[44:48])
	h.BlockCount = engine.Uint32(data[48:52])
	h.ChunkCount = engine.Uint32(data[52:56])
	h.IndexOffset = engine.Uint64(data[56:64])

	if h.Version != FormatVersion {
		return fmt.Errorf("%w: unsupported version %d", errs.ErrInvalidHeaderFlags, h.Version)
	}

	return nil
}

// Bytes serializes the header into a HeaderSize byte slice.
func (h *Header) Bytes() []byte {
	b := make([]byte, HeaderSize)

	engine := h.Flag.GetEndianEngine()

	binary.LittleEndian.PutUint16(b[0:2], h.Flag.Options)
	b[2] = uint8(h.Flag.Layout)
	b[3] = uint8(h.Flag.Compression)
	engine.PutUint16(b[4:6], h.Version)
	engine.PutUint64(b[8:16], math.Float64bits(h.StartTime))
	engine.PutUint64(b[16:24], math.Float64bits(h.TimeStep))
	engine.PutUint32(b[24:28], h.FrameCount)
	engine.PutUint32(b[28:32], h.CellCount)
	engine.PutUint64(b[32:40], h.ValueCount)
	engine.PutUint32(b[40:44], h.FramesPerBlock)
	engine.PutUint32(b[44:48], h.BlockValues)
	engine.PutUint32(b[48:52], h.BlockCount)
	engine.PutUint32(b[52:56], h.ChunkCount)
	engine.PutUint64(b[56:64], h.IndexOffset)

	return b
}

// ParseHeader parses a Header from the first HeaderSize bytes of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, errs.ErrInvalidHeaderSize
	}

	h := Header{}
	if err := h.Parse(data[:HeaderSize]); err != nil {
		return Header{}, err
	}

	return h, nil
}
