package section

import (
	"fmt"

	"github.com/arloliu/cellreport/endian"
	"github.com/arloliu/cellreport/errs"
	"github.com/arloliu/cellreport/format"
)

// Flag is the packed first word of the header.
type Flag struct {
	// Options holds the magic number in bits 4-15 and the endianness in bit 1.
	// Bits 0, 2 and 3 are reserved and must be zero.
	Options uint16
	// Layout selects the read strategy: simple tiled array or explicit blocks.
	Layout format.Layout
	// Compression is the codec applied to every stored block.
	Compression format.CompressionType
}

// NewFlag creates a little-endian, uncompressed block layout flag.
func NewFlag() Flag {
	return Flag{
		Options:     MagicReportV1Opt,
		Layout:      format.LayoutBlock,
		Compression: format.CompressionNone,
	}
}

// IsLittleEndian returns whether the data is little-endian.
func (f Flag) IsLittleEndian() bool {
	return (f.Options & EndiannessMask) == 0
}

// WithLittleEndian sets little-endian byte order.
func (f *Flag) WithLittleEndian() {
	f.Options &^= EndiannessMask
}

// WithBigEndian sets big-endian byte order.
func (f *Flag) WithBigEndian() {
	f.Options |= EndiannessMask
}

// GetMagicNumber returns the magic number from the Options field.
func (f Flag) GetMagicNumber() uint16 {
	return f.Options & MagicNumberMask
}

// GetEndianEngine returns the engine matching the endianness bit.
func (f Flag) GetEndianEngine() endian.EndianEngine {
	if f.IsLittleEndian() {
		return endian.GetLittleEndianEngine()
	}

	return endian.GetBigEndianEngine()
}

// Validate checks the magic number, reserved bits, layout and codec.
func (f Flag) Validate() error {
	if f.GetMagicNumber() != MagicReportV1Opt {
		return fmt.Errorf("%w: magic 0x%04X", errs.ErrInvalidHeaderFlags, f.GetMagicNumber())
	}
	if f.Options&^(MagicNumberMask|EndiannessMask) != 0 {
		return fmt.Errorf("%w: reserved bits set", errs.ErrInvalidHeaderFlags)
	}
	if !f.Layout.IsValid() {
		return fmt.Errorf("%w: layout %d", errs.ErrInvalidHeaderFlags, f.Layout)
	}

	switch f.Compression {
	case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
	default:
		return fmt.Errorf("%w: compression %d", errs.ErrInvalidHeaderFlags, f.Compression)
	}

	return nil
}
