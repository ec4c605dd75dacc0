// Package container reads and writes report container files.
//
// A container stores the report metadata, the cell mapping and a sequence of
// fixed-width float32 blocks addressed by block id (see package section for
// the byte layout). Two layouts share the same block machinery:
//
//   - Simple: one [frame][value] array cut into native tiles of
//     FramesPerBlock rows by BlockValues/FramesPerBlock columns; tile id =
//     tileRow*tilesPerRow + tileColumn. Edge tiles are stored zero-padded.
//   - Block: a [block][BlockValues] array where block id =
//     frameBlock*ChunkCount + chunk and each block packs FramesPerBlock frames
//     of one cell chunk.
//
// File implements cache.BlockStore, and Dataset reads rectangular regions of
// the tiled array through a cache.Loader.
package container
