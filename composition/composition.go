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

// Package composition slides per-read-length (AT, GC) windows across a Seq
// and folds threshold-passing windows into a mergeable histogram.
package composition

import (
	"fmt"
	"math"

	"github.com/shenwei356/refgc/base"
	"github.com/shenwei356/refgc/fastaio"
)

// GcHistKey is the (at, gc) composition of one window.
type GcHistKey struct {
	AT uint32
	GC uint32
}

// GcHist maps a composition pair to its observation count.
type GcHist map[GcHistKey]uint64

func (h GcHist) add(k GcHistKey) {
	h[k]++
}

// merge adds other's counts into h in place.
func (h GcHist) merge(other GcHist) {
	for k, v := range other {
		h[k] += v
	}
}

// GcRes is the per-read-length result, optionally carrying a bisulfite
// per-strand histogram alongside the primary one.
type GcRes struct {
	ReadLengths []uint32
	Primary     []GcHist
	Bisulfite   []GcHist // nil unless bisulfite mode is enabled
}

// NewGcRes allocates an empty result for the given read lengths.
func NewGcRes(readLengths []uint32, bisulfite bool) *GcRes {
	r := &GcRes{
		ReadLengths: readLengths,
		Primary:     make([]GcHist, len(readLengths)),
	}
	for i := range r.Primary {
		r.Primary[i] = make(GcHist)
	}
	if bisulfite {
		r.Bisulfite = make([]GcHist, len(readLengths))
		for i := range r.Bisulfite {
			r.Bisulfite[i] = make(GcHist)
		}
	}
	return r
}

func (r *GcRes) addCount(ix int, k GcHistKey) {
	r.Primary[ix].add(k)
}

func (r *GcRes) addBisulfiteCount(ix int, strandT, strandA GcHistKey) {
	r.Bisulfite[ix].add(strandT)
	r.Bisulfite[ix].add(strandA)
}

// Merge folds other into r in place; both must share the same read-length
// key set in the same order, or this is a programming error.
func (r *GcRes) Merge(other *GcRes) {
	if len(r.Primary) != len(other.Primary) {
		panic(fmt.Sprintf("composition: merge of mismatched result sets (%d vs %d read lengths)", len(r.Primary), len(other.Primary)))
	}
	for i := range r.Primary {
		r.Primary[i].merge(other.Primary[i])
	}
	for i := range r.Bisulfite {
		r.Bisulfite[i].merge(other.Bisulfite[i])
	}
}

// counts is the per-window (at, gc) accumulator for one read length.
type counts struct {
	at, gc    uint32
	threshold uint32
}

func newCounts(threshold uint32) *counts {
	if threshold == 0 {
		panic("composition: threshold must be > 0")
	}
	return &counts{threshold: threshold}
}

// classify reports whether b contributes to AT/GC counting at all, and if
// so whether it counts as GC. N and Other bases never count.
func classify(b base.Base) (isGC bool, counts bool) {
	switch b {
	case base.C, base.G:
		return true, true
	case base.A, base.T:
		return false, true
	default:
		return false, false
	}
}

func (c *counts) removeBase(b base.Base) {
	gc, ok := classify(b)
	if !ok {
		return
	}
	if gc {
		c.gc--
	} else {
		c.at--
	}
}

func (c *counts) addBase(b base.Base) {
	gc, ok := classify(b)
	if !ok {
		return
	}
	if gc {
		c.gc++
	} else {
		c.at++
	}
}

func (c *counts) get() (at, gc uint32, ok bool) {
	if c.at+c.gc >= c.threshold {
		return c.at, c.gc, true
	}
	return 0, 0, false
}

// Threshold returns ceil(L * t) for t in (0,1], the minimum non-gap bases
// required within an L-length window for it to contribute a histogram point.
func Threshold(l uint32, t float64) uint32 {
	return uint32(math.Ceil(float64(l) * t))
}

// window is the O(1)-update ring buffer backing every read-length counter
// simultaneously, sized to the largest configured read length.
type window struct {
	buf []base.Base
	pos int
}

func newWindow(maxLen uint32) *window {
	w := &window{buf: make([]base.Base, maxLen)}
	for i := range w.buf {
		w.buf[i] = base.N
	}
	return w
}

func (w *window) reset() {
	for i := range w.buf {
		w.buf[i] = base.N
	}
	w.pos = 0
}

// evictee returns the base currently occupying the slot that a window of length
// l will evict on the next push.
func (w *window) evictee(l uint32) base.Base {
	n := len(w.buf)
	idx := ((w.pos-int(l))%n + n) % n
	return w.buf[idx]
}

func (w *window) push(b base.Base) {
	w.buf[w.pos] = b
	w.pos = (w.pos + 1) % len(w.buf)
}

// Worker runs the sliding-window counter for one goroutine, accumulating
// into its own GcRes across however many Seq values it is fed.
type Worker struct {
	readLengths []uint32
	bisulfite   bool
	win         *window
	counts      []*counts
	res         *GcRes
}

// NewWorker allocates per-worker state. threshold is the configured
// fraction T in (0,1]; the shared window is sized to the largest value in
// readLengths.
func NewWorker(readLengths []uint32, threshold float64, bisulfite bool) *Worker {
	var maxLen uint32
	for _, l := range readLengths {
		if l > maxLen {
			maxLen = l
		}
	}
	if maxLen == 0 {
		panic("composition: empty read length set")
	}
	cs := make([]*counts, len(readLengths))
	for i, l := range readLengths {
		cs[i] = newCounts(Threshold(l, threshold))
	}
	return &Worker{
		readLengths: readLengths,
		bisulfite:   bisulfite,
		win:         newWindow(maxLen),
		counts:      cs,
		res:         NewGcRes(readLengths, bisulfite),
	}
}

// Result returns the worker's accumulated GcRes.
func (w *Worker) Result() *GcRes { return w.res }

// ProcessSeq folds one Seq into the worker's running result, then resets
// its window to all-gap so sequences never leak composition into each
// other.
func (w *Worker) ProcessSeq(seq *fastaio.Seq) {
	for _, b := range seq.Bases {
		w.step(b)
	}
	for i := 0; i < len(w.win.buf); i++ {
		w.step(base.N)
	}
	w.win.reset()
}

func (w *Worker) step(b base.Base) {
	for i, l := range w.readLengths {
		w.counts[i].removeBase(w.win.evictee(l))
	}
	w.win.push(b)
	for i := range w.readLengths {
		w.counts[i].addBase(b)
		at, gc, ok := w.counts[i].get()
		if !ok {
			continue
		}
		if !w.bisulfite {
			w.res.addCount(i, GcHistKey{AT: at, GC: gc})
			continue
		}
		// Bisulfite: the primary histogram still receives the summed
		// (AT,GC) point; the per-strand histogram receives the window's
		// (T,C) and (A,G) points separately. Strand composition is
		// reconstructed from the window contents rather than tracked
		// independently, since T/C on the top strand and A/G on the
		// bottom strand partition the same AT/GC counts by base identity.
		tc, ag := w.strandCounts(l)
		w.res.addCount(i, GcHistKey{AT: at, GC: gc})
		w.res.addBisulfiteCount(i, GcHistKey{AT: tc.at, GC: tc.gc}, GcHistKey{AT: ag.at, GC: ag.gc})
	}
}

type strandPair struct{ at, gc uint32 }

// strandCounts re-derives (T,C) and (A,G) composition for the trailing
// l-length window by scanning it directly; called only on threshold-passing
// emissions, which are rare relative to total bases processed.
func (w *Worker) strandCounts(l uint32) (tc, ag strandPair) {
	n := len(w.win.buf)
	start := w.pos(l)
	for i := uint32(0); i < l; i++ {
		idx := (start + int(i)) % n
		switch w.win.buf[idx] {
		case base.T:
			tc.at++
		case base.C:
			tc.gc++
		case base.A:
			ag.at++
		case base.G:
			ag.gc++
		}
	}
	return tc, ag
}

func (w *Worker) pos(l uint32) int {
	n := len(w.win.buf)
	return (w.win.pos - int(l) + n) % n
}
