package section

const (
	EndiannessMask  = 0x0002 // Mask for endianness bit (bit 1), 1 means big-endian
	MagicNumberMask = 0xFFF0 // Mask for magic number (bits 4-15)

	MagicReportV1Opt = 0xCE10 // MagicReportV1Opt identifies a version 1 report container.

	// FormatVersion is the container version written by this package.
	FormatVersion = 1
)

const (
	HeaderSize          = 64         // fixed header size in bytes
	BlockIndexEntrySize = 20         // fixed block index entry size in bytes
	MappingOffset       = HeaderSize // the units and mapping sections follow the header
)
