// Package report reads compartment reports.
//
// A report stores, for every frame, one float32 value per compartment of every
// cell. Cells are identified by gids; a frame is the concatenation of the
// per-cell value ranges in gid order. Open a container with Open, select the
// cells of interest with Report.CreateView and load frames by time window:
//
//	r, err := report.Open("circuit.crf")
//	if err != nil {
//		return err
//	}
//	defer r.Close()
//
//	view, err := r.CreateView([]uint64{30872, 324})
//	if err != nil {
//		return err
//	}
//	timestamps, frames, err := view.LoadRange(0.2, 0.5)
//
// The columns of the returned frames follow the order of the requested gids;
// View.Mapping tells which columns belong to which cell.
//
// Reads go through a direct-mapped block cache owned by the Report. A Report is
// not safe for concurrent use unless opened with WithConcurrentAccess.
package report
