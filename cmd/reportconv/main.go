// Command reportconv rewrites a report container with a new block geometry.
//
//	reportconv [flags] <input>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/arloliu/cellreport"
	"github.com/arloliu/cellreport/format"
	"github.com/arloliu/cellreport/writer"
)

// sizeFlag parses a byte size with an optional B, K (KiB) or M (MiB) suffix.
type sizeFlag int

func (s *sizeFlag) String() string {
	return strconv.Itoa(int(*s))
}

func (s *sizeFlag) Set(value string) error {
	size, err := parseSize(value)
	if err != nil {
		return err
	}
	*s = sizeFlag(size)

	return nil
}

func parseSize(value string) (int, error) {
	multiplier := 1
	switch {
	case strings.HasSuffix(value, "M"):
		multiplier = 1024 * 1024
		value = strings.TrimSuffix(value, "M")
	case strings.HasSuffix(value, "K"):
		multiplier = 1024
		value = strings.TrimSuffix(value, "K")
	case strings.HasSuffix(value, "B"):
		value = strings.TrimSuffix(value, "B")
	}

	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("error parsing size %q", value)
	}

	return n * multiplier, nil
}

// frameRangeFlag parses "first,last".
type frameRangeFlag struct {
	first, last int
	set         bool
}

func (f *frameRangeFlag) String() string {
	if !f.set {
		return ""
	}

	return fmt.Sprintf("%d,%d", f.first, f.last)
}

func (f *frameRangeFlag) Set(value string) error {
	first, last, ok := strings.Cut(value, ",")
	if !ok {
		return fmt.Errorf("frame range must be first,last: %q", value)
	}

	var err error
	if f.first, err = strconv.Atoi(strings.TrimSpace(first)); err != nil {
		return fmt.Errorf("invalid first frame: %w", err)
	}
	if f.last, err = strconv.Atoi(strings.TrimSpace(last)); err != nil {
		return fmt.Errorf("invalid last frame: %w", err)
	}
	f.set = true

	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	os.Exit(run(ctx, os.Args[1:], os.Stderr))
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	var (
		out            string
		blockSize      = sizeFlag(writer.DefaultBlockSize)
		ratio          float64
		readFullFrames bool
		useChunking    bool
		frameRange     frameRangeFlag
		fraction       float64
		seed           uint64
		compression    string
		verbose        bool
	)

	fs := flag.NewFlagSet("reportconv", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: reportconv [-o filename] [options] <report>\n\n")
		fs.PrintDefaults()
	}
	fs.StringVar(&out, "o", "out.crf", "output file name")
	fs.Var(&blockSize, "b", "block size in bytes, KiB or MiB: size[B|K|M]")
	fs.Float64Var(&ratio, "r", writer.DefaultCellsToFramesRatio, "average fraction of cells per block compared to frames")
	fs.BoolVar(&readFullFrames, "read-full-frames", false, "read full frames during conversion")
	fs.BoolVar(&useChunking, "use-chunking", false, "write a tiled simple layout instead of explicit blocks")
	fs.Var(&frameRange, "frame-range", "frame range to convert as first,last (default all)")
	fs.Float64Var(&fraction, "fraction", 1, "random fraction of the cells to keep")
	fs.Uint64Var(&seed, "seed", writer.DefaultSeed, "seed of the cell subsampling")
	fs.StringVar(&compression, "compression", "none", "block compression: none, zstd, s2 or lz4")
	fs.BoolVar(&verbose, "v", false, "log per frame window progress")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}

		return 1
	}

	logger := log.NewLogfmtLogger(log.NewSyncWriter(stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	if verbose {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	if fs.NArg() != 1 {
		level.Error(logger).Log("msg", "exactly one input report is required")
		fs.Usage()
		return 1
	}

	codec, ok := format.ParseCompression(compression)
	if !ok {
		level.Error(logger).Log("msg", "unknown compression", "compression", compression)
		return 1
	}

	opts := []writer.Option{
		writer.WithBlockSize(int(blockSize)),
		writer.WithCellsToFramesRatio(ratio),
		writer.WithReadFullFrames(readFullFrames),
		writer.WithFraction(fraction),
		writer.WithSeed(seed),
		writer.WithCompression(codec),
		writer.WithLogger(logger),
	}
	if useChunking {
		opts = append(opts, writer.WithLayout(format.LayoutSimple))
	}
	if frameRange.set {
		opts = append(opts, writer.WithFrameRange(frameRange.first, frameRange.last))
	}

	input := fs.Arg(0)
	src, err := cellreport.Open(input)
	if err != nil {
		level.Error(logger).Log("msg", "failed to open report", "path", input, "err", err)
		return 1
	}
	defer src.Close()

	stats, err := cellreport.Convert(ctx, src, out, opts...)
	if err != nil {
		level.Error(logger).Log("msg", "conversion failed", "path", input, "err", err)
		return 1
	}

	level.Info(logger).Log(
		"msg", "conversion complete",
		"out", out,
		"block_kib", fmt.Sprintf("%.2f", float64(blockSize)/1024),
		"total_blocks", stats.BlockCount,
		"frames_per_block", stats.FramesPerBlock,
	)

	return 0
}
