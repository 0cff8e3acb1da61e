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

package cmd

import (
	"testing"

	"github.com/shenwei356/refgc/composition"
)

func TestHistKey(t *testing.T) {
	cases := []struct {
		k    composition.GcHistKey
		want string
	}{
		{composition.GcHistKey{AT: 0, GC: 0}, "0:0"},
		{composition.GcHistKey{AT: 12, GC: 38}, "12:38"},
	}
	for _, c := range cases {
		if got := histKey(c.k); got != c.want {
			t.Errorf("histKey(%+v) = %q, want %q", c.k, got, c.want)
		}
	}
}

func TestHistToMap(t *testing.T) {
	h := composition.GcHist{
		{AT: 1, GC: 2}: 5,
		{AT: 3, GC: 4}: 9,
	}
	m := histToMap(h)
	if len(m) != 2 {
		t.Fatalf("len(m) = %d, want 2", len(m))
	}
	if m["1:2"] != 5 || m["3:4"] != 9 {
		t.Errorf("unexpected map contents: %+v", m)
	}
}

func TestBuildJSOutput(t *testing.T) {
	readLengths := []uint32{50, 100}
	res := composition.NewGcRes(readLengths, true)
	res.Primary[0] = composition.GcHist{{AT: 10, GC: 40}: 3}
	res.Primary[1] = composition.GcHist{{AT: 20, GC: 30}: 7}
	res.Bisulfite[0] = composition.GcHist{{AT: 5, GC: 45}: 1}

	opt := &Options{
		Threads:     4,
		Threshold:   0.8,
		Identifier:  "run1",
		Input:       "ref.fa",
		ReadLengths: readLengths,
		Bisulfite:   true,
	}

	out := buildJSOutput(opt, res)

	if out.Program != "refgc" || out.Version != VERSION {
		t.Errorf("program/version mismatch: %+v", out)
	}
	if out.Identifier != "run1" || out.Input != "ref.fa" {
		t.Errorf("identifier/input not carried through: %+v", out)
	}
	if out.Threads != 4 || out.Threshold != 0.8 || !out.Bisulfite {
		t.Errorf("scalar options not carried through: %+v", out)
	}
	if len(out.ReadLengthSpecificCounts) != 2 {
		t.Fatalf("len(ReadLengthSpecificCounts) = %d, want 2", len(out.ReadLengthSpecificCounts))
	}

	lc50, ok := out.ReadLengthSpecificCounts["50"]
	if !ok {
		t.Fatalf("missing entry for read length 50")
	}
	if lc50.Counts["10:40"] != 3 {
		t.Errorf("lc50.Counts[10:40] = %d, want 3", lc50.Counts["10:40"])
	}
	if lc50.BisulfiteCounts["5:45"] != 1 {
		t.Errorf("lc50.BisulfiteCounts[5:45] = %d, want 1", lc50.BisulfiteCounts["5:45"])
	}

	lc100, ok := out.ReadLengthSpecificCounts["100"]
	if !ok {
		t.Fatalf("missing entry for read length 100")
	}
	if lc100.Counts["20:30"] != 7 {
		t.Errorf("lc100.Counts[20:30] = %d, want 7", lc100.Counts["20:30"])
	}
	if len(lc100.BisulfiteCounts) != 0 {
		t.Errorf("lc100.BisulfiteCounts = %+v, want empty (no bisulfite counts recorded for this read length)", lc100.BisulfiteCounts)
	}
}

func TestBuildJSOutputNoBisulfite(t *testing.T) {
	readLengths := []uint32{50}
	res := composition.NewGcRes(readLengths, false)
	opt := &Options{ReadLengths: readLengths}

	out := buildJSOutput(opt, res)
	lc := out.ReadLengthSpecificCounts["50"]
	if lc.BisulfiteCounts != nil {
		t.Errorf("BisulfiteCounts = %+v, want nil when bisulfite disabled", lc.BisulfiteCounts)
	}
}
