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

// Package betabin projects per-read-length (AT,GC) histograms onto a
// Beta-Binomial posterior density over GC proportion, for the expected GC
// distribution output.
package betabin

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/shenwei356/refgc/composition"
)

// BINS is the number of grid points the density is projected onto.
const BINS = 1000

func lbeta(a, b float64) float64 {
	lg1, _ := math.Lgamma(a)
	lg2, _ := math.Lgamma(b)
	lg3, _ := math.Lgamma(a + b)
	return lg1 + lg2 - lg3
}

// grid caches ln(p_i) and ln(1-p_i) for every bin midpoint, shared across
// every histogram smoothed in one run.
type grid struct {
	p    [BINS]float64
	lnP  [BINS]float64
	lnP1 [BINS]float64
}

func newGrid() *grid {
	g := &grid{}
	inc := 1.0 / float64(BINS)
	for i := 0; i < BINS; i++ {
		x := inc * (0.5 + float64(i))
		g.p[i] = x
		g.lnP[i] = math.Log(x)
		g.lnP1[i] = math.Log(1 - x)
	}
	return g
}

// smoothOne projects a single histogram onto the grid, returning the
// unnormalized bin accumulator and the sum of all contributing x values.
func smoothOne(g *grid, hist composition.GcHist) (bins [BINS]float64, total float64) {
	q := make([]float64, BINS)
	for k, x := range hist {
		a := float64(k.GC)
		b := float64(k.AT)
		xf := float64(x)
		total += xf

		konst := lbeta(a+1, b+1)
		z := 0.0
		for i := 0; i < BINS; i++ {
			qi := math.Exp(a*g.lnP[i] + b*g.lnP1[i] - konst)
			q[i] = qi
			z += qi
		}
		if z == 0 {
			continue
		}
		for i := 0; i < BINS; i++ {
			bins[i] += xf * q[i] / z
		}
	}
	return bins, total
}

// WriteHist writes the TSV expected-GC-distribution file for res: a header
// row of read lengths followed by BINS rows of bin midpoint and normalized
// density per read length. When res carries bisulfite histograms, each read
// length gets a second bisulfite_read_len column.
func WriteHist(w io.Writer, readLengths []uint32, res *composition.GcRes) error {
	g := newGrid()
	bw := bufio.NewWriter(w)

	type column struct {
		bins  [BINS]float64
		total float64
	}
	primary := make([]column, len(readLengths))
	for i, h := range res.Primary {
		primary[i].bins, primary[i].total = smoothOne(g, h)
	}
	var bisulfite []column
	if res.Bisulfite != nil {
		bisulfite = make([]column, len(readLengths))
		for i, h := range res.Bisulfite {
			bisulfite[i].bins, bisulfite[i].total = smoothOne(g, h)
		}
	}

	if _, err := bw.WriteString("gc"); err != nil {
		return err
	}
	for _, l := range readLengths {
		if _, err := fmt.Fprintf(bw, "\tread_len:%dbp", l); err != nil {
			return err
		}
	}
	if bisulfite != nil {
		for _, l := range readLengths {
			if _, err := fmt.Fprintf(bw, "\tbisulfite_read_len:%dbp", l); err != nil {
				return err
			}
		}
	}
	if _, err := bw.WriteString("\n"); err != nil {
		return err
	}

	scale := float64(BINS)
	for i := 0; i < BINS; i++ {
		if _, err := fmt.Fprintf(bw, "%v", g.p[i]); err != nil {
			return err
		}
		for _, col := range primary {
			if _, err := fmt.Fprintf(bw, "\t%v", density(col.bins[i], col.total, scale)); err != nil {
				return err
			}
		}
		for _, col := range bisulfite {
			if _, err := fmt.Fprintf(bw, "\t%v", density(col.bins[i], col.total, scale)); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString("\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// density guards the empty-histogram case: Σ_x = 0 must emit zero, not NaN.
func density(bin, total, scale float64) float64 {
	if total == 0 {
		return 0
	}
	return bin * scale / total
}
