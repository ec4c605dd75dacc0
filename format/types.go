package format

type (
	Layout          uint8
	CompressionType uint8
)

const (
	// LayoutSimple stores one dense [frame][value] array tiled in native chunks.
	LayoutSimple Layout = 0x1
	// LayoutBlock stores explicit cell-group blocks of frames_per_block frames each.
	LayoutBlock Layout = 0x2

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (l Layout) String() string {
	switch l {
	case LayoutSimple:
		return "Simple"
	case LayoutBlock:
		return "Block"
	default:
		return "Unknown"
	}
}

// IsValid reports whether l is a known layout.
func (l Layout) IsValid() bool {
	return l == LayoutSimple || l == LayoutBlock
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseCompression converts a lower-case codec name into a CompressionType.
func ParseCompression(name string) (CompressionType, bool) {
	switch name {
	case "none", "":
		return CompressionNone, true
	case "zstd":
		return CompressionZstd, true
	case "s2":
		return CompressionS2, true
	case "lz4":
		return CompressionLZ4, true
	default:
		return 0, false
	}
}
