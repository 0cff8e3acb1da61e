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

package composition

import (
	"strings"
	"testing"

	"github.com/shenwei356/refgc/fastaio"
)

func seqsFromFasta(t *testing.T, fasta string, maxReadLength uint32) []*fastaio.Seq {
	t.Helper()
	r := fastaio.New(strings.NewReader(fasta), maxReadLength, nil, nil, nil)
	var seqs []*fastaio.Seq
	for {
		seq, err := r.NextSequence()
		if err != nil {
			t.Fatalf("NextSequence: %v", err)
		}
		if seq == nil {
			break
		}
		seqs = append(seqs, seq)
	}
	return seqs
}

func TestScenario1SimpleWindow(t *testing.T) {
	seqs := seqsFromFasta(t, ">c1\nACGTACGT\n", 4)
	w := NewWorker([]uint32{4}, 1.0, false)
	for _, s := range seqs {
		w.ProcessSeq(s)
	}
	hist := w.Result().Primary[0]
	if got := hist[GcHistKey{AT: 2, GC: 2}]; got != 5 {
		t.Fatalf("expected 5 windows of (2,2), got %d (hist=%v)", got, hist)
	}
	if len(hist) != 1 {
		t.Fatalf("expected exactly one distinct key, got %v", hist)
	}
}

func TestScenario2LeadingTrailingGapStripped(t *testing.T) {
	seqs := seqsFromFasta(t, ">c1\nNNNACGTNNN\n", 4)
	if len(seqs) != 1 || seqs[0].Len() != 4 {
		t.Fatalf("expected one length-4 seq, got %+v", seqs)
	}
	w := NewWorker([]uint32{4}, 1.0, false)
	for _, s := range seqs {
		w.ProcessSeq(s)
	}
	hist := w.Result().Primary[0]
	if len(hist) != 1 || hist[GcHistKey{AT: 2, GC: 2}] != 1 {
		t.Fatalf("expected single (2,2):1, got %v", hist)
	}
}

func TestScenario3ThreeBaseWindows(t *testing.T) {
	seqs := seqsFromFasta(t, ">c1\nAAACCCGGGTTT\n", 3)
	w := NewWorker([]uint32{3}, 1.0, false)
	for _, s := range seqs {
		w.ProcessSeq(s)
	}
	hist := w.Result().Primary[0]
	want := GcHist{
		{AT: 3, GC: 0}: 2,
		{AT: 2, GC: 1}: 2,
		{AT: 1, GC: 2}: 2,
		{AT: 0, GC: 3}: 4,
	}
	if len(hist) != len(want) {
		t.Fatalf("got %v, want %v", hist, want)
	}
	for k, v := range want {
		if hist[k] != v {
			t.Fatalf("key %+v: got %d want %d (hist=%v)", k, hist[k], v, hist)
		}
	}
}

func TestScenario4Bisulfite(t *testing.T) {
	seqs := seqsFromFasta(t, ">c1\nACGT\n", 4)
	w := NewWorker([]uint32{4}, 1.0, true)
	for _, s := range seqs {
		w.ProcessSeq(s)
	}
	res := w.Result()
	if got := res.Primary[0][GcHistKey{AT: 2, GC: 2}]; got != 1 {
		t.Fatalf("expected primary (2,2):1, got %d", got)
	}
	if got := res.Bisulfite[0][GcHistKey{AT: 1, GC: 1}]; got != 2 {
		t.Fatalf("expected bisulfite (1,1):2, got %d (hist=%v)", got, res.Bisulfite[0])
	}
}

func TestMergeSumsWorkerResults(t *testing.T) {
	seqs := seqsFromFasta(t, ">c1\nAAACCCGGGTTTACGTACGTNNNNACGT\n", 3)

	single := NewWorker([]uint32{3}, 1.0, false)
	for _, s := range seqs {
		single.ProcessSeq(s)
	}
	singleHist := single.Result().Primary[0]

	// Split the sequence's bases across two workers and merge: the union
	// of windows differs, so instead verify merge just sums disjoint
	// worker outputs without loss, by running the SAME seq through two
	// workers and checking 2x counts after merge.
	w1 := NewWorker([]uint32{3}, 1.0, false)
	w2 := NewWorker([]uint32{3}, 1.0, false)
	for _, s := range seqs {
		w1.ProcessSeq(s)
		w2.ProcessSeq(s)
	}
	merged := w1.Result()
	merged.Merge(w2.Result())
	for k, v := range singleHist {
		if merged.Primary[0][k] != 2*v {
			t.Fatalf("key %+v: merged=%d want %d", k, merged.Primary[0][k], 2*v)
		}
	}
}

func TestThresholdCeiling(t *testing.T) {
	if got := Threshold(75, 0.8); got != 60 {
		t.Fatalf("ceil(75*0.8)=60, got %d", got)
	}
	if got := Threshold(50, 1.0); got != 50 {
		t.Fatalf("ceil(50*1.0)=50, got %d", got)
	}
	if got := Threshold(3, 0.34); got != 2 {
		t.Fatalf("ceil(3*0.34)=2, got %d", got)
	}
}

func TestReadLengthLongerThanSeqYieldsNoEntries(t *testing.T) {
	seqs := seqsFromFasta(t, ">c1\nACGT\n", 10)
	w := NewWorker([]uint32{10}, 1.0, false)
	for _, s := range seqs {
		w.ProcessSeq(s)
	}
	if len(w.Result().Primary[0]) != 0 {
		t.Fatalf("expected zero histogram entries, got %v", w.Result().Primary[0])
	}
}
