// Package hash computes the block checksums stored in the container block index.
package hash

import "github.com/cespare/xxhash/v2"

// Checksum returns the xxHash64 digest of a stored block payload.
func Checksum(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Verify reports whether data matches the expected digest.
func Verify(data []byte, expected uint64) bool {
	return xxhash.Sum64(data) == expected
}
