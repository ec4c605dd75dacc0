package compress

// ZstdCompressor compresses blocks with Zstandard.
//
// The implementation is selected at build time: the pure-Go klauspost decoder
// by default, or the cgo gozstd binding with the "gozstd" build tag.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd codec.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
