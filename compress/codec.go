package compress

import (
	"fmt"

	"github.com/arloliu/cellreport/format"
)

// Compressor compresses one encoded block payload.
//
// The returned slice is owned by the caller, except for the no-op codec which
// returns its input.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a block payload produced by the matching Compressor.
//
// hint is the expected decompressed size in bytes; codecs that do not record
// the original size use it to size their output buffer. A hint of zero is valid.
type Decompressor interface {
	Decompress(data []byte, hint int) ([]byte, error)
}

// Codec combines both directions.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec returns the built-in Codec for compressionType.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}
