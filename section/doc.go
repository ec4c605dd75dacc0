// Package section defines the fixed-size binary sections of a report container:
// the header with its packed flag, and the block index entries.
//
// Container layout:
//
//	+---------------------+  offset 0
//	| Header (64 bytes)   |
//	+---------------------+  offset 64
//	| Units               |  data_unit, time_unit (uvarint length + bytes)
//	| Mapping             |  gids, num_values, data [, chunks, offsets]
//	+---------------------+
//	| Block payloads      |  one per block id, ascending
//	+---------------------+  Header.IndexOffset
//	| Block index         |  BlockCount x BlockIndexEntry (20 bytes)
//	+---------------------+
//
// The header Options field is always little-endian so the byte order of every
// other field can be read from it.
package section
