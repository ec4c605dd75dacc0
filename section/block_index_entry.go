package section

import (
	"github.com/arloliu/cellreport/endian"
	"github.com/arloliu/cellreport/errs"
)

// BlockIndexEntry locates one stored block inside the container file.
type BlockIndexEntry struct {
	// Offset is the absolute byte offset of the stored (possibly compressed) block.
	//
	// Offset: 0, Size: 8 bytes
	Offset uint64
	// Size is the stored byte length of the block.
	//
	// Offset: 8, Size: 4 bytes
	Size uint32
	// Checksum is the xxHash64 digest of the stored bytes.
	//
	// Offset: 12, Size: 8 bytes
	Checksum uint64
}

// AppendTo appends the serialized entry to dst.
func (e BlockIndexEntry) AppendTo(engine endian.EndianEngine, dst []byte) []byte {
	dst = engine.AppendUint64(dst, e.Offset)
	dst = engine.AppendUint32(dst, e.Size)

	return engine.AppendUint64(dst, e.Checksum)
}

// ParseBlockIndexEntry parses one entry from data.
func ParseBlockIndexEntry(engine endian.EndianEngine, data []byte) (BlockIndexEntry, error) {
	if len(data) < BlockIndexEntrySize {
		return BlockIndexEntry{}, errs.ErrInvalidHeaderSize
	}

	return BlockIndexEntry{
		Offset:   engine.Uint64(data[0:8]),
		Size:     engine.Uint32(data[8:12]),
		Checksum: engine.Uint64(data[12:20]),
	}, nil
}

// ParseBlockIndex parses count consecutive entries from data.
func ParseBlockIndex(engine endian.EndianEngine, data []byte, count int) ([]BlockIndexEntry, error) {
	if len(data) < count*BlockIndexEntrySize {
		return nil, errs.ErrInvalidHeaderSize
	}

	entries := make([]BlockIndexEntry, count)
	for i := range entries {
		entry, err := ParseBlockIndexEntry(engine, data[i*BlockIndexEntrySize:])
		if err != nil {
			return nil, err
		}
		entries[i] = entry
	}

	return entries, nil
}
