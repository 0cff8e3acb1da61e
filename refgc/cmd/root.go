// Copyright © 2018-2020 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package cmd wires the refgc command line: flag parsing, logging, the
// FASTA/BED input pipeline, and the three output files.
package cmd

import (
	"fmt"
	"os"
	"runtime"

	humanize "github.com/dustin/go-humanize"
	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/shenwei356/refgc/betabin"
	"github.com/shenwei356/refgc/composition"
	"github.com/shenwei356/refgc/fastaio"
	"github.com/shenwei356/refgc/kmcv"
	"github.com/shenwei356/refgc/kmers"
	"github.com/shenwei356/refgc/pipeline"
	"github.com/shenwei356/refgc/regions"
	"github.com/shenwei356/refgc/rgerr"
)

// stdinSentinel is the positional value that selects stdin, matching the
// teacher's own convention for an unset/"-" input path.
const stdinSentinel = "-"

// Options bundles every CLI knob for one run.
type Options struct {
	Threads     int
	Threshold   float64
	Prefix      string
	Identifier  string
	ReadLengths []uint32
	Bisulfite   bool
	LogLevel    string
	Timestamp   bool
	Quiet       bool

	Input string // "-" (the default, set by getOptions) means stdin
	Bed   string // "" means no target-region catalogue
}

// RootCmd is refgc's single command: there are no subcommands, the root
// itself drives the whole pipeline.
var RootCmd = &cobra.Command{
	Use:   "refgc [INPUT] [BED]",
	Short: "reference-genome GC composition and k-mer catalogue toolkit",
	Long: fmt.Sprintf(`refgc - reference-genome GC composition and k-mer catalogue toolkit

Computes, per configured read length, the empirical joint distribution of
(AT, GC) window composition over a reference genome FASTA, optionally
tracking bisulfite-converted per-strand composition and, when a BED file of
target regions is supplied, building a compact k-mer catalogue (KMCV) of
on-target/off-target/low-multiplicity/highly-redundant k-mers.

Version: %s

Author: Wei Shen <shenwei356@gmail.com>
`, VERSION),
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt := getOptions(cmd, args)
		initLogging(opt.Timestamp, opt.LogLevel, opt.Quiet)
		return run(opt)
	},
}

// Execute runs RootCmd, exiting non-zero on any unrecovered error. The exit
// code reflects the failure's rgerr.Kind (InputIo=1, MalformedFasta=2, ...)
// when err carries one, and 1 otherwise.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		code := 1
		if kind, ok := rgerr.KindOf(err); ok {
			code = int(kind) + 1
		}
		os.Exit(code)
	}
}

// registerFlags declares refgc's flag set on fs. Split out from init() so
// tests can build an independent flag set without sharing RootCmd's.
func registerFlags(fs *pflag.FlagSet) {
	fs.IntP("threads", "t", runtime.NumCPU(), "number of worker goroutines (>=1)")
	fs.Float64P("threshold", "T", 0.8, "minimum fraction of non-gap bases required per window (0<x<=1)")
	fs.StringP("prefix", "p", "analyze_gc", "output file prefix")
	fs.StringP("identifier", "i", "", "run identifier recorded in the JSON output")
	fs.IntSliceP("read_lengths", "r", []int{50, 75, 100, 150, 200, 250, 300}, "read lengths to compute composition for")
	fs.Bool("no_bisulfite", false, "disable bisulfite per-strand composition tracking")
	fs.StringP("loglevel", "l", "info", "log level: critical, error, warning, notice, info, debug")
	fs.BoolP("timestamp", "X", false, "include a timestamp in log output")
	fs.Bool("quiet", false, "suppress all but error-level logging")
}

func init() {
	registerFlags(RootCmd.Flags())
}

// getOptions assembles Options from flags and positional args. INPUT is
// args[0] if present, defaulting to stdin ("-") otherwise; BED is args[1]
// if present and is omitted entirely (no k-mer catalogue) otherwise.
func getOptions(cmd *cobra.Command, args []string) *Options {
	threads := getFlagPositiveInt(cmd, "threads")
	threshold := getFlagFloat64(cmd, "threshold")
	rlInts := getFlagIntSlice(cmd, "read_lengths")
	if len(rlInts) == 0 {
		checkError(rgerr.New(rgerr.ConfigInvalid, "read_lengths must not be empty"))
	}
	readLengths := make([]uint32, len(rlInts))
	for i, l := range rlInts {
		if l <= 0 {
			checkError(rgerr.Newf(rgerr.ConfigInvalid, "read length %d must be positive", l))
		}
		readLengths[i] = uint32(l)
	}

	opt := &Options{
		Threads:     threads,
		Threshold:   threshold,
		Prefix:      getFlagString(cmd, "prefix"),
		Identifier:  getFlagString(cmd, "identifier"),
		ReadLengths: readLengths,
		Bisulfite:   !getFlagBool(cmd, "no_bisulfite"),
		LogLevel:    getFlagString(cmd, "loglevel"),
		Timestamp:   getFlagBool(cmd, "timestamp"),
		Quiet:       getFlagBool(cmd, "quiet"),
	}
	if len(args) >= 1 {
		opt.Input = args[0]
	} else {
		opt.Input = stdinSentinel // no positional given: read stdin, per the teacher's own isStdin("-") convention
	}
	if len(args) >= 2 {
		opt.Bed = args[1]
	}
	return opt
}

func maxReadLength(ls []uint32) uint32 {
	var m uint32
	for _, l := range ls {
		if l > m {
			m = l
		}
	}
	return m
}

func run(opt *Options) error {
	if opt.Threshold <= 0 || opt.Threshold > 1 {
		return rgerr.Newf(rgerr.ConfigInvalid, "threshold %v must be > 0 and <= 1", opt.Threshold)
	}

	in, err := openInput(opt.Input)
	if err != nil {
		return err
	}
	defer in.Close()

	var regs *regions.Regions
	var builder *kmers.Builder
	var index *kmers.Index
	if opt.Bed != "" {
		bedIn, err := openInput(opt.Bed)
		if err != nil {
			return err
		}
		regs, err = regions.ReadBED(bedIn)
		bedIn.Close()
		if err != nil {
			return err
		}
		builder = kmers.NewBuilder()
		index = kmers.NewIndex()
		log.Infof("loaded %d target region(s) across %d contig(s) from %s", regs.Len(), regs.NumContigs(), opt.Bed)
	}

	reader := fastaio.New(in, maxReadLength(opt.ReadLengths), regs, builder, index)

	res, err := pipeline.Run(reader, pipeline.Config{
		Threads:     opt.Threads,
		ReadLengths: opt.ReadLengths,
		Threshold:   opt.Threshold,
		Bisulfite:   opt.Bisulfite,
	})
	if err != nil {
		return err
	}

	if err := writeJSONOutput(opt, res); err != nil {
		return err
	}

	distFile, err := xopen.Wopen(opt.Prefix + "_dist.txt")
	if err != nil {
		return rgerr.Wrap(rgerr.OutputIo, err, "creating distribution output file")
	}
	defer distFile.Close()
	if err := betabin.WriteHist(distFile, opt.ReadLengths, res); err != nil {
		return rgerr.Wrap(rgerr.OutputIo, err, "writing distribution output file")
	}

	if index != nil {
		if err := writeKmcv(opt, regs, index); err != nil {
			return err
		}
	}

	logSummary(opt, index, res)
	return nil
}

func writeKmcv(opt *Options, regs *regions.Regions, index *kmers.Index) error {
	var contigs []string
	var targets []kmcv.Target
	regs.Each(func(contig string, cr *regions.ContigRegions) {
		contigID := uint32(len(contigs))
		contigs = append(contigs, contig)
		for _, r := range cr.Regions() {
			targets = append(targets, kmcv.Target{ContigID: contigID, Start: r.Start, End: r.End()})
		}
	})

	out, err := xopen.Wopen(opt.Prefix + "_kmers.km")
	if err != nil {
		return rgerr.Wrap(rgerr.OutputIo, err, "creating kmer catalogue output file")
	}
	defer out.Close()

	w, err := kmcv.NewWriter(out)
	if err != nil {
		return err
	}
	counters := kmcv.Counters{
		Mapped:          index.Mapped,
		OnTarget:        index.OnTarget,
		HighlyRedundant: index.HighlyRedundant,
		TotalHits:       index.TotalHits,
	}
	if err := w.WriteHeader(kmers.Length, kmers.MaxHits, uint32(len(contigs)), uint32(len(targets)), counters); err != nil {
		return err
	}
	if err := w.WriteContigs(contigs); err != nil {
		return err
	}
	if err := w.WriteTargets(targets); err != nil {
		return err
	}
	if err := w.WriteIndex(index, kmers.Length); err != nil {
		return err
	}
	return w.Close()
}

func logSummary(opt *Options, index *kmers.Index, res *composition.GcRes) {
	if index != nil {
		log.Infof("k-mer catalogue: %s mapped, %s on-target, %s highly redundant, %s total hits",
			humanize.Comma(int64(index.Mapped)),
			humanize.Comma(int64(index.OnTarget)),
			humanize.Comma(int64(index.HighlyRedundant)),
			humanize.Comma(int64(index.TotalHits)))
	}
	for i, l := range opt.ReadLengths {
		var windows uint64
		for _, n := range res.Primary[i] {
			windows += n
		}
		log.Infof("read length %d: %s windows passing threshold", l, humanize.Comma(int64(windows)))
	}
}
