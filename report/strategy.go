package report

import (
	"github.com/arloliu/cellreport/cache"
	"github.com/arloliu/cellreport/container"
	"github.com/arloliu/cellreport/format"
	"github.com/arloliu/cellreport/internal/strided"
)

// readStrategy copies the frames [first, last) of the view cells into a new
// Frames buffer. Callers guarantee 0 <= first < last <= FrameCount.
type readStrategy interface {
	load(first, last int) (Frames, error)
}

func newReadStrategy(r *Report, order *reportOrder, fullFrame bool) readStrategy {
	if r.file.Layout() == format.LayoutSimple {
		return newSimpleStrategy(r, order, fullFrame)
	}

	return newBlockStrategy(r, order, fullFrame)
}

// simpleStrategy reads the [frame][value] array of a simple layout container.
type simpleStrategy struct {
	dataset        *container.Dataset
	order          *reportOrder
	fullFrame      bool
	framesPerBlock int
}

func newSimpleStrategy(r *Report, order *reportOrder, fullFrame bool) *simpleStrategy {
	order.inOffsets = make([]int, len(order.cells))
	for k, cell := range order.cells {
		order.inOffsets[k] = r.offsets[cell]
	}

	return &simpleStrategy{
		dataset:        r.dataset,
		order:          order,
		fullFrame:      fullFrame,
		framesPerBlock: r.framesPerBlock,
	}
}

func (s *simpleStrategy) load(first, last int) (Frames, error) {
	o := s.order
	out := newFrames(last-first, o.frameSize)

	if s.fullFrame {
		err := s.dataset.ReadRegion(first, last, 0, o.frameSize, out.Data, 0, o.frameSize)
		return out, err
	}

	if len(o.cells) == 1 {
		in := o.inOffsets[0]
		err := s.dataset.ReadRegion(first, last, in, in+o.numValues[0], out.Data, 0, o.frameSize)

		return out, err
	}

	// Walk the frames one tile row at a time so that the tiles of a row stay
	// cached while every cell is copied out of them.
	fpb := s.framesPerBlock
	for block := first / fpb; block <= (last-1)/fpb; block++ {
		start := max(first, block*fpb)
		end := min(last, (block+1)*fpb)
		row := (start - first) * o.frameSize

		for k := range o.cells {
			in := o.inOffsets[k]
			err := s.dataset.ReadRegion(start, end, in, in+o.numValues[k], out.Data, row+o.outOffsets[k], o.frameSize)
			if err != nil {
				return Frames{}, err
			}
		}
	}

	return out, nil
}

// blockStrategy reads a block layout container, where block
// frameBlock*chunksPerFrame+chunk packs framesPerBlock frames of one chunk of
// cells, each frame chunk-width values long.
type blockStrategy struct {
	loader         cache.Loader
	order          *reportOrder
	fullFrame      bool
	framesPerBlock int
	chunksPerFrame int

	// chunks lists the chunk ids holding requested cells, ascending.
	chunks []int
	// chunkSizes[i] is the value width of chunks[i].
	chunkSizes []int
	// chunkCells[i], chunkCells[i+1] is the report order entry range of chunks[i].
	chunkCells []int
}

func newBlockStrategy(r *Report, order *reportOrder, fullFrame bool) *blockStrategy {
	chunkOf := r.file.Mapping().Chunks

	s := &blockStrategy{
		loader:         r.loader,
		order:          order,
		fullFrame:      fullFrame,
		framesPerBlock: r.framesPerBlock,
		chunksPerFrame: len(r.chunkSizes),
	}

	order.inOffsets = make([]int, len(order.cells))
	for k, cell := range order.cells {
		order.inOffsets[k] = r.dataOffsets[cell]

		chunk := int(chunkOf[cell])
		if len(s.chunks) == 0 || s.chunks[len(s.chunks)-1] != chunk {
			s.chunks = append(s.chunks, chunk)
			s.chunkSizes = append(s.chunkSizes, r.chunkSizes[chunk])
			s.chunkCells = append(s.chunkCells, k)
		}
	}
	s.chunkCells = append(s.chunkCells, len(order.cells))

	return s
}

func (s *blockStrategy) load(first, last int) (Frames, error) {
	fpb := s.framesPerBlock

	ids := make([]int, 0, ((last-1)/fpb-first/fpb+1)*len(s.chunks))
	for frameBlock := first / fpb; frameBlock <= (last-1)/fpb; frameBlock++ {
		for _, chunk := range s.chunks {
			ids = append(ids, frameBlock*s.chunksPerFrame+chunk)
		}
	}

	blocks, err := s.loader.LoadBlocks(ids)
	if err != nil {
		return Frames{}, err
	}

	return s.blocksToOutput(blocks, ids, first, last), nil
}

// blocksToOutput copies the view cells out of blocks into a frames buffer
// covering [first, last).
//
// Inside a block, frame f of the block starts at f*chunkSize and a cell starts
// at its in-chunk offset; in the output, frame f starts at f*frameSize and a
// cell starts at its output column. Each cell is therefore a two-level strided
// copy: contiguous over the cell's values, strided over frames by chunkSize on
// the input side and by frameSize on the output side.
func (s *blockStrategy) blocksToOutput(blocks [][]float32, ids []int, first, last int) Frames {
	o := s.order
	fpb := s.framesPerBlock
	out := newFrames(last-first, o.frameSize)

	local := 0
	for i, id := range ids {
		block := blocks[i]

		// The first and last blocks may be partially outside [first, last).
		firstFrame := max(first, (id/s.chunksPerFrame)*fpb)
		lastFrame := min((firstFrame/fpb+1)*fpb, last)
		frameCount := lastFrame - firstFrame

		// Ids cycle through the chunks once per frame block, so the cursor
		// only moves forward until it wraps to the next frame block.
		chunk := id % s.chunksPerFrame
		if chunk < s.chunks[local] {
			local = 0
		}
		for s.chunks[local] != chunk {
			local++
		}

		chunkSize := s.chunkSizes[local]
		in := (firstFrame % fpb) * chunkSize
		row := (firstFrame - first) * o.frameSize
		lo, hi := s.chunkCells[local], s.chunkCells[local+1]

		if s.fullFrame {
			strided.Copy(out.Data, row+o.outOffsets[lo], o.frameSize, block, in, chunkSize, frameCount, chunkSize)
			continue
		}

		for k := lo; k < hi; k++ {
			strided.Copy(out.Data, row+o.outOffsets[k], o.frameSize,
				block, in+o.inOffsets[k], chunkSize, frameCount, o.numValues[k])
		}
	}

	return out
}
