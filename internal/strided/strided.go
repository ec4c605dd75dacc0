// Package strided copies rectangular regions between flat row-major float32 buffers.
package strided

// Copy copies a rows x cols rectangle from src to dst.
//
// Row r of the rectangle starts at src[srcOffset+r*srcStride] and lands at
// dst[dstOffset+r*dstStride]; the cols values of a row are contiguous on both
// sides. The strides are independent, which is what moves data between a block
// that packs frames every chunk-width values and an output buffer that packs
// frames every frame-width values:
//
//	block (srcStride = chunk width)      output (dstStride = frame width)
//	frame0: [..cell..|......]            frame0: [....|..cell..|.........]
//	frame1: [..cell..|......]            frame1: [....|..cell..|.........]
//
// A single-row copy is a plain copy. Strides smaller than cols would overlap
// rows and are a caller bug.
func Copy(dst []float32, dstOffset, dstStride int, src []float32, srcOffset, srcStride int, rows, cols int) {
	if rows <= 0 || cols <= 0 {
		return
	}

	if rows == 1 || (srcStride == cols && dstStride == cols) {
		n := rows * cols
		copy(dst[dstOffset:dstOffset+n], src[srcOffset:srcOffset+n])

		return
	}

	for r := 0; r < rows; r++ {
		copy(dst[dstOffset:dstOffset+cols], src[srcOffset:srcOffset+cols])
		srcOffset += srcStride
		dstOffset += dstStride
	}
}
