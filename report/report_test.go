package report

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/arloliu/cellreport/container"
	"github.com/arloliu/cellreport/errs"
	"github.com/arloliu/cellreport/format"
	"github.com/arloliu/cellreport/internal/testutil"
	"github.com/stretchr/testify/require"
)

type layoutCase struct {
	name   string
	layout format.Layout
	write  func(tb testing.TB, path string, fx testutil.Fixture)
}

func layoutCases() []layoutCase {
	return []layoutCase{
		{"simple", format.LayoutSimple, func(tb testing.TB, path string, fx testutil.Fixture) {
			testutil.WriteSimple(tb, path, fx, 3, 768)
		}},
		{"simple single frame tiles lz4", format.LayoutSimple, func(tb testing.TB, path string, fx testutil.Fixture) {
			testutil.WriteSimple(tb, path, fx, 1, 500, container.WithCompression(format.CompressionLZ4))
		}},
		{"block", format.LayoutBlock, func(tb testing.TB, path string, fx testutil.Fixture) {
			testutil.WriteBlock(tb, path, fx, 3, 2500)
		}},
		{"block single frame zstd", format.LayoutBlock, func(tb testing.TB, path string, fx testutil.Fixture) {
			testutil.WriteBlock(tb, path, fx, 1, 1024, container.WithCompression(format.CompressionZstd))
		}},
	}
}

func openCase(t *testing.T, lc layoutCase, opts ...Option) (*Report, testutil.Fixture) {
	t.Helper()

	fx := testutil.CircuitFixture()
	path := filepath.Join(t.TempDir(), "report.crf")
	lc.write(t, path, fx)

	r, err := Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	return r, fx
}

// expectFrames checks that frames holds the values of gids, in column order,
// for the frames starting at first.
func expectFrames(t *testing.T, fx testutil.Fixture, gids []uint64, first int, frames Frames) {
	t.Helper()

	for i := range frames.Rows {
		var want []float32
		for _, gid := range gids {
			want = append(want, fx.CellValues(first+i, gid)...)
		}
		require.Equal(t, want, frames.Row(i), "frame %d", first+i)
	}
}

func TestMetadata(t *testing.T) {
	for _, lc := range layoutCases() {
		t.Run(lc.name, func(t *testing.T) {
			r, fx := openCase(t, lc)

			md := r.Metadata()
			require.Equal(t, 0.0, md.StartTime)
			require.Equal(t, 0.1, md.TimeStep)
			require.Equal(t, 10, md.FrameCount)
			require.InDelta(t, 1.0, md.EndTime(), 1e-12)
			require.Equal(t, "mV", md.DataUnit)
			require.Equal(t, "ms", md.TimeUnit)
			require.Equal(t, 10, md.CellCount)
			require.Equal(t, fx.ValueCount(), md.ValueCount)
			require.Equal(t, fx.GIDs, r.GIDs())
			require.Equal(t, lc.layout, r.Layout())
		})
	}
}

func TestFullFrameLoadAll(t *testing.T) {
	for _, lc := range layoutCases() {
		t.Run(lc.name, func(t *testing.T) {
			r, fx := openCase(t, lc)

			view, err := r.CreateView(nil)
			require.NoError(t, err)
			require.Equal(t, fx.GIDs, view.GIDs())

			m := view.Mapping()
			require.Equal(t, fx.NumValues, m.NumValues)
			require.Equal(t, fx.Offsets(), m.Offsets)
			require.Equal(t, fx.Data, m.Data)
			require.Same(t, &r.file.Mapping().Data[0], &m.Data[0])

			timestamps, frames, err := view.LoadAll()
			require.NoError(t, err)
			require.Equal(t, 10, frames.Rows)
			require.Equal(t, fx.ValueCount(), frames.Cols)
			require.Len(t, timestamps, 10)
			for i := range frames.Rows {
				require.InDelta(t, float64(i)*0.1, timestamps[i], 1e-12)
				require.Equal(t, fx.Frame(i), frames.Row(i))
			}
			require.Equal(t, testutil.Value(4, 1000), frames.At(4, 1000))
		})
	}
}

func TestViewSubsets(t *testing.T) {
	subsets := []struct {
		name string
		gids []uint64
	}{
		{"single small cell", []uint64{106208}},
		{"single large cell", []uint64{75457}},
		{"first cell", []uint64{324}},
		{"unordered", []uint64{127768, 324, 75457, 106208}},
		{"one per chunk", []uint64{215203, 82463, 75457, 868}},
		{"duplicates", []uint64{868, 30872, 868}},
		{"all reversed", []uint64{215203, 127768, 118620, 106208, 84347, 82463, 75457, 30872, 868, 324}},
		{"all in order", []uint64{324, 868, 30872, 75457, 82463, 84347, 106208, 118620, 127768, 215203}},
	}

	for _, lc := range layoutCases() {
		t.Run(lc.name, func(t *testing.T) {
			r, fx := openCase(t, lc)

			for _, tt := range subsets {
				t.Run(tt.name, func(t *testing.T) {
					view, err := r.CreateView(tt.gids)
					require.NoError(t, err)
					require.Equal(t, tt.gids, view.GIDs())

					m := view.Mapping()
					require.Equal(t, 0, m.Offsets[0])
					total := 0
					for i, gid := range tt.gids {
						require.Equal(t, total, m.Offsets[i])
						start, end := m.Columns(i)
						require.Equal(t, fx.CellTags(gid), m.Data[start:end])
						total += int(m.NumValues[i])
					}
					require.Equal(t, total, m.FrameSize())

					_, frames, err := view.LoadAll()
					require.NoError(t, err)
					require.Equal(t, total, frames.Cols)
					expectFrames(t, fx, tt.gids, 0, frames)

					_, frames, err = view.LoadRange(0.35, 0.75)
					require.NoError(t, err)
					require.Equal(t, 5, frames.Rows)
					expectFrames(t, fx, tt.gids, 3, frames)

					_, frames, err = view.LoadFrames(2, 9)
					require.NoError(t, err)
					expectFrames(t, fx, tt.gids, 2, frames)
				})
			}
		})
	}
}

func TestScenarioTwoOfThreeCells(t *testing.T) {
	for _, lc := range layoutCases() {
		t.Run(lc.name, func(t *testing.T) {
			fx := testutil.CircuitFixture()
			fx.GIDs = fx.GIDs[:3]
			fx.NumValues = fx.NumValues[:3]
			fx.Data = fx.Data[:37+120+3]

			path := filepath.Join(t.TempDir(), "report.crf")
			lc.write(t, path, fx)
			r, err := Open(path)
			require.NoError(t, err)
			defer r.Close()

			view, err := r.CreateView([]uint64{30872, 324})
			require.NoError(t, err)

			timestamps, frames, err := view.LoadRange(0.2, 0.5)
			require.NoError(t, err)
			require.Len(t, timestamps, 3)
			require.InDelta(t, 0.2, timestamps[0], 1e-12)
			require.InDelta(t, 0.3, timestamps[1], 1e-12)
			require.InDelta(t, 0.4, timestamps[2], 1e-12)
			require.Equal(t, 3, frames.Rows)
			require.Equal(t, 3+37, frames.Cols)
			require.Equal(t, []int{0, 3}, view.Mapping().Offsets)
			expectFrames(t, fx, []uint64{30872, 324}, 2, frames)
		})
	}
}

func TestOrderIndependence(t *testing.T) {
	for _, lc := range layoutCases() {
		t.Run(lc.name, func(t *testing.T) {
			r, _ := openCase(t, lc)

			a, b, c := uint64(868), uint64(82463), uint64(118620)
			v1, err := r.CreateView([]uint64{a, b, c})
			require.NoError(t, err)
			v2, err := r.CreateView([]uint64{c, a, b})
			require.NoError(t, err)

			_, f1, err := v1.LoadAll()
			require.NoError(t, err)
			_, f2, err := v2.LoadAll()
			require.NoError(t, err)

			columns := func(v *View, f Frames, cell, row int) []float32 {
				start, end := v.Mapping().Columns(cell)
				return f.Row(row)[start:end]
			}
			for row := range f1.Rows {
				require.Equal(t, columns(v1, f1, 0, row), columns(v2, f2, 1, row))
				require.Equal(t, columns(v1, f1, 1, row), columns(v2, f2, 2, row))
				require.Equal(t, columns(v1, f1, 2, row), columns(v2, f2, 0, row))
			}
		})
	}
}

func TestLoadSingleFrame(t *testing.T) {
	tests := []struct {
		name  string
		t     float64
		frame int
	}{
		{"inside", 0.35, 3},
		{"exact", 0.5, 5},
		{"before start", -5, 0},
		{"at end", 1.0, 9},
		{"after end", 100, 9},
	}

	for _, lc := range layoutCases() {
		t.Run(lc.name, func(t *testing.T) {
			r, fx := openCase(t, lc)
			gids := []uint64{118620, 30872}
			view, err := r.CreateView(gids)
			require.NoError(t, err)

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					timestamps, frames, err := view.Load(tt.t)
					require.NoError(t, err)
					require.Len(t, timestamps, 1)
					require.InDelta(t, float64(tt.frame)*0.1, timestamps[0], 1e-12)
					require.Equal(t, 1, frames.Rows)
					expectFrames(t, fx, gids, tt.frame, frames)
				})
			}
		})
	}
}

func TestLoadRangeClamping(t *testing.T) {
	tests := []struct {
		name       string
		start, end float64
		first      int
		count      int
	}{
		{"head clipped", -1, 0.25, 0, 3},
		{"tail clipped", 0.85, 50, 8, 2},
		{"whole axis", -10, 10, 0, 10},
		{"before start", -3, -2, 0, 1},
		{"after end", 5, 6, 9, 1},
	}

	for _, lc := range layoutCases() {
		t.Run(lc.name, func(t *testing.T) {
			r, fx := openCase(t, lc)
			view, err := r.CreateView(nil)
			require.NoError(t, err)

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					timestamps, frames, err := view.LoadRange(tt.start, tt.end)
					require.NoError(t, err)
					require.Len(t, timestamps, tt.count)
					require.Equal(t, tt.count, frames.Rows)
					require.InDelta(t, float64(tt.first)*0.1, timestamps[0], 1e-12)
					expectFrames(t, fx, fx.GIDs, tt.first, frames)
				})
			}

			_, _, err = view.LoadRange(0.5, 0.5)
			require.ErrorIs(t, err, errs.ErrInvalidRange)
			_, _, err = view.LoadRange(0.5, 0.4)
			require.ErrorIs(t, err, errs.ErrInvalidRange)
		})
	}
}

func TestTimestampsAreArithmetic(t *testing.T) {
	r, _ := openCase(t, layoutCases()[2])
	view, err := r.CreateView([]uint64{84347})
	require.NoError(t, err)

	timestamps, _, err := view.LoadRange(0.1, 0.95)
	require.NoError(t, err)
	require.Len(t, timestamps, 9)
	for i := 1; i < len(timestamps); i++ {
		require.Greater(t, timestamps[i], timestamps[i-1])
		require.InDelta(t, 0.1, timestamps[i]-timestamps[i-1], 1e-12)
	}
	require.GreaterOrEqual(t, timestamps[0], 0.0)
	require.Less(t, timestamps[len(timestamps)-1], r.Metadata().EndTime())
}

func TestLoadFramesBounds(t *testing.T) {
	r, _ := openCase(t, layoutCases()[0])
	view, err := r.CreateView(nil)
	require.NoError(t, err)

	for _, rng := range [][2]int{{-1, 2}, {3, 3}, {4, 2}, {0, 11}} {
		_, _, err := view.LoadFrames(rng[0], rng[1])
		require.ErrorIs(t, err, errs.ErrInvalidRange, "%v", rng)
	}

	_, frames, err := view.LoadFrames(9, 10)
	require.NoError(t, err)
	require.Equal(t, 1, frames.Rows)
}

func TestCreateViewErrors(t *testing.T) {
	r, _ := openCase(t, layoutCases()[2])

	_, err := r.CreateView([]uint64{324, 7, 868, 9})
	require.ErrorIs(t, err, errs.ErrInvalidIdentifier)
	var idErr *errs.InvalidIdentifierError
	require.ErrorAs(t, err, &idErr)
	require.Equal(t, []uint64{7, 9}, idErr.GIDs)

	_, err = r.CreateView([]uint64{})
	require.ErrorIs(t, err, errs.ErrInvalidIdentifier)
}

func TestCacheCapacity(t *testing.T) {
	for _, lc := range layoutCases() {
		t.Run(lc.name, func(t *testing.T) {
			r, fx := openCase(t, lc, WithCacheCapacity(1))
			gids := []uint64{215203, 324, 75457}
			view, err := r.CreateView(gids)
			require.NoError(t, err)

			for range 2 {
				_, frames, err := view.LoadAll()
				require.NoError(t, err)
				expectFrames(t, fx, gids, 0, frames)
			}
			require.Positive(t, r.CacheStats().Evictions)
		})
	}

	_, err := Open(filepath.Join(t.TempDir(), "unused.crf"), WithCacheCapacity(0))
	require.ErrorContains(t, err, "invalid cache capacity")
}

func TestRepeatedLoadsHitTheCache(t *testing.T) {
	for _, lc := range layoutCases() {
		t.Run(lc.name, func(t *testing.T) {
			r, _ := openCase(t, lc)
			view, err := r.CreateView(nil)
			require.NoError(t, err)

			_, first, err := view.LoadAll()
			require.NoError(t, err)
			misses := r.CacheStats().Misses
			require.Positive(t, misses)

			_, second, err := view.LoadAll()
			require.NoError(t, err)
			require.Equal(t, first, second)
			require.Equal(t, misses, r.CacheStats().Misses)
		})
	}
}

func TestConcurrentViews(t *testing.T) {
	for _, lc := range layoutCases() {
		t.Run(lc.name, func(t *testing.T) {
			r, fx := openCase(t, lc, WithConcurrentAccess(), WithCacheCapacity(3))

			var wg sync.WaitGroup
			failures := make(chan error, 8)
			for i := range 8 {
				gids := []uint64{fx.GIDs[i], fx.GIDs[9-i]}
				wg.Add(1)
				go func() {
					defer wg.Done()
					view, err := r.CreateView(gids)
					if err != nil {
						failures <- err
						return
					}
					for range 5 {
						if _, _, err := view.LoadAll(); err != nil {
							failures <- err
							return
						}
					}
				}()
			}
			wg.Wait()
			close(failures)

			for err := range failures {
				require.NoError(t, err)
			}
		})
	}
}

func TestStorageFaultPropagates(t *testing.T) {
	fx := testutil.CircuitFixture()
	path := filepath.Join(t.TempDir(), "report.crf")
	testutil.WriteBlock(t, path, fx, 3, 2500)

	f, err := container.Open(path)
	require.NoError(t, err)
	indexOffset := f.Header().IndexOffset
	require.NoError(t, f.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[indexOffset-1] ^= 0x01
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	view, err := r.CreateView(nil)
	require.NoError(t, err)

	_, _, err = view.LoadRange(0, 0.2)
	require.NoError(t, err)

	_, _, err = view.LoadAll()
	require.ErrorIs(t, err, errs.ErrStorageFault)
	require.ErrorIs(t, err, errs.ErrChecksumMismatch)
}

func BenchmarkLoadAll(b *testing.B) {
	fx := testutil.CircuitFixture()
	path := filepath.Join(b.TempDir(), "report.crf")
	testutil.WriteBlock(b, path, fx, 3, 2500)

	r, err := Open(path)
	require.NoError(b, err)
	defer r.Close()

	view, err := r.CreateView([]uint64{127768, 324, 75457})
	require.NoError(b, err)

	for b.Loop() {
		_, _, _ = view.LoadAll()
	}
}
