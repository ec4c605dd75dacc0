package container

import (
	"fmt"

	"github.com/arloliu/cellreport/format"
	"github.com/arloliu/cellreport/internal/options"
)

// WriterConfig holds the encoding choices of a container Writer.
type WriterConfig struct {
	compression format.CompressionType
	bigEndian   bool
}

// WriterOption configures a container Writer.
type WriterOption = options.Option[*WriterConfig]

func newWriterConfig() *WriterConfig {
	return &WriterConfig{compression: format.CompressionNone}
}

// WithCompression sets the codec applied to every block. Defaults to no compression.
func WithCompression(compression format.CompressionType) WriterOption {
	return options.New(func(c *WriterConfig) error {
		switch compression {
		case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
			c.compression = compression
			return nil
		default:
			return fmt.Errorf("invalid compression type: %s", compression)
		}
	})
}

// WithBigEndian writes all multi-byte fields big-endian.
// It rarely needs to be used unless interoperability with big-endian systems is required.
func WithBigEndian() WriterOption {
	return options.NoError(func(c *WriterConfig) {
		c.bigEndian = true
	})
}
