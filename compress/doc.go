// Package compress provides the block codecs of the report container.
//
// Each stored block (a tile of float32 values) is encoded with the container
// byte order and then passed through the codec named in the container header.
// The codecs wrap third-party implementations:
//   - None: blocks are stored as-is (the default)
//   - Zstd: github.com/klauspost/compress/zstd, or github.com/valyala/gozstd when
//     built with the "gozstd" tag and cgo enabled
//   - S2: github.com/klauspost/compress/s2
//   - LZ4: github.com/pierrec/lz4/v4 block format
//
// All codecs are stateless values and safe for concurrent use.
package compress
