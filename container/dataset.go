package container

import (
	"fmt"

	"github.com/arloliu/cellreport/cache"
	"github.com/arloliu/cellreport/errs"
	"github.com/arloliu/cellreport/internal/strided"
)

// Dataset is a 2D float32 array stored as fixed-shape tiles.
//
// Tile (tileRow, tileCol) is the block with id tileRow*TileColumns()+tileCol.
// Every tile holds TileRows x TileCols values in row-major order; tiles on the
// right and bottom edges are zero-padded.
type Dataset struct {
	loader   cache.Loader
	rows     int
	cols     int
	tileRows int
	tileCols int
}

// NewDataset creates a rows x cols dataset over tiles of tileRows x tileCols read through loader.
func NewDataset(loader cache.Loader, rows, cols, tileRows, tileCols int) *Dataset {
	return &Dataset{
		loader:   loader,
		rows:     rows,
		cols:     cols,
		tileRows: tileRows,
		tileCols: tileCols,
	}
}

// Shape returns the array dimensions.
func (d *Dataset) Shape() (rows, cols int) {
	return d.rows, d.cols
}

// TileShape returns the tile dimensions.
func (d *Dataset) TileShape() (rows, cols int) {
	return d.tileRows, d.tileCols
}

// TileColumns returns the number of tiles per tile row.
func (d *Dataset) TileColumns() int {
	return ceilDiv(d.cols, d.tileCols)
}

// ReadRegion copies rows [r0, r1) and columns [c0, c1) into dst.
//
// Row r0+i of the region lands at dst[dstOffset+i*dstStride:], its columns
// contiguous. All tiles intersecting the region are fetched with one
// LoadBlocks call.
func (d *Dataset) ReadRegion(r0, r1, c0, c1 int, dst []float32, dstOffset, dstStride int) error {
	if r0 < 0 || c0 < 0 || r1 > d.rows || c1 > d.cols || r0 > r1 || c0 > c1 {
		return fmt.Errorf("%w: region [%d:%d, %d:%d] outside %dx%d",
			errs.ErrInvalidRange, r0, r1, c0, c1, d.rows, d.cols)
	}
	if r0 == r1 || c0 == c1 {
		return nil
	}

	tr0, tr1 := r0/d.tileRows, (r1-1)/d.tileRows
	tc0, tc1 := c0/d.tileCols, (c1-1)/d.tileCols
	perRow := d.TileColumns()

	ids := make([]int, 0, (tr1-tr0+1)*(tc1-tc0+1))
	for tr := tr0; tr <= tr1; tr++ {
		for tc := tc0; tc <= tc1; tc++ {
			ids = append(ids, tr*perRow+tc)
		}
	}

	tiles, err := d.loader.LoadBlocks(ids)
	if err != nil {
		return err
	}

	for i, id := range ids {
		tr, tc := id/perRow, id%perRow

		rowStart := max(r0, tr*d.tileRows)
		rowEnd := min(r1, (tr+1)*d.tileRows)
		colStart := max(c0, tc*d.tileCols)
		colEnd := min(c1, (tc+1)*d.tileCols)

		src := (rowStart-tr*d.tileRows)*d.tileCols + (colStart - tc*d.tileCols)
		out := dstOffset + (rowStart-r0)*dstStride + (colStart - c0)
		strided.Copy(dst, out, dstStride, tiles[i], src, d.tileCols, rowEnd-rowStart, colEnd-colStart)
	}

	return nil
}
