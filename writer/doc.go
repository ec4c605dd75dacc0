// Package writer converts a report into a new container with a chosen block
// geometry.
//
// The block shape is derived from a byte budget and a cells-to-frames ratio:
// ComputeFramesPerBlock picks how many frames share a block, and for the block
// layout PlanChunks groups consecutive cells into chunks whose values for that
// many frames fit in one block. The simple (chunked) layout instead tiles the
// [frame][value] array into FramesPerBlock x BlockValues/FramesPerBlock tiles.
//
// Write streams the source one frame window at a time and removes the partial
// output if anything fails, so a container either is complete or does not exist.
package writer
