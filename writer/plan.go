package writer

import (
	"fmt"
	"math"
	"slices"

	"github.com/arloliu/cellreport/errs"
)

// ComputeFramesPerBlock returns how many frames to pack per block of blockValues values.
//
// The frame count balances cells against frames around the median cell size:
// floor(sqrt(blockValues/median) / ratio). When that many frames of all cells
// together would not fill one block, the block is filled with as many full
// frames as fit instead. The result is at least 1.
func ComputeFramesPerBlock(numValues []uint32, blockValues int, ratio float64) int {
	total := 0
	for _, n := range numValues {
		total += int(n)
	}
	if total == 0 || blockValues < 1 {
		return 1
	}

	median := medianOf(numValues)
	if median < 1 {
		median = 1
	}

	even := math.Sqrt(float64(blockValues) / median)
	frames := int(min(math.Floor(even/ratio), float64(blockValues)))
	if frames*total-1 < blockValues {
		frames = blockValues / total
	}

	return max(1, frames)
}

func medianOf(values []uint32) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}

	return (float64(sorted[mid-1]) + float64(sorted[mid])) / 2
}

// Chunk is a run of consecutive cells stored in the same blocks.
type Chunk struct {
	FirstCell int
	CellCount int
	// Width is the number of values of one frame of the chunk.
	Width int
}

// PlanChunks groups cells into chunks whose width times framesPerBlock fits in blockValues.
//
// Cells are added to the current chunk until the next one would overflow it;
// chunk sizes are not rebalanced. A single cell wider than a block fails with
// errs.ErrCapacityExceeded.
func PlanChunks(numValues []uint32, framesPerBlock, blockValues int) ([]Chunk, error) {
	var chunks []Chunk
	first, width := 0, 0

	for i, n := range numValues {
		if int(n)*framesPerBlock > blockValues {
			return nil, fmt.Errorf("%w: cell %d has %d values, %d frames need %d of %d block values; "+
				"increase the block size or the cells to frames ratio",
				errs.ErrCapacityExceeded, i, n, framesPerBlock, int(n)*framesPerBlock, blockValues)
		}

		if (width+int(n))*framesPerBlock > blockValues {
			chunks = append(chunks, Chunk{FirstCell: first, CellCount: i - first, Width: width})
			first, width = i, 0
		}
		width += int(n)
	}

	if len(numValues) > 0 {
		chunks = append(chunks, Chunk{FirstCell: first, CellCount: len(numValues) - first, Width: width})
	}

	return chunks, nil
}

// Utilization returns the mean fraction of real data in the blocks of one chunk
// of width chunkSize, accounting for a final partially filled frame block.
func Utilization(chunkSize, framesPerBlock, blockValues, frameCount int) float64 {
	if frameCount <= 0 || blockValues <= 0 {
		return 0
	}

	fullBlocks := frameCount / framesPerBlock
	spareFrames := frameCount - fullBlocks*framesPerBlock

	utilization := float64(chunkSize*framesPerBlock) / float64(blockValues) * float64(fullBlocks)
	if spareFrames == 0 {
		return utilization / float64(fullBlocks)
	}

	utilization += float64(chunkSize*spareFrames) / float64(blockValues)

	return utilization / float64(fullBlocks+1)
}
