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

package pipeline

import (
	"errors"
	"strings"
	"testing"

	"github.com/shenwei356/refgc/fastaio"
)

// sliceReader replays a fixed slice of Seqs, then an optional terminal error.
type sliceReader struct {
	seqs []*fastaio.Seq
	err  error
	i    int
}

func (r *sliceReader) NextSequence() (*fastaio.Seq, error) {
	if r.i < len(r.seqs) {
		s := r.seqs[r.i]
		r.i++
		return s, nil
	}
	if r.err != nil {
		return nil, r.err
	}
	return nil, nil
}

func manyRecords(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString(">c\nAAACCCGGGTTT\n")
	}
	return b.String()
}

func TestRunMergesAcrossWorkersRegardlessOfThreadCount(t *testing.T) {
	const nSeqs = 40
	fasta := manyRecords(nSeqs)

	var want map[composition1Key]uint64
	for _, threads := range []int{1, 2, 8} {
		r := fastaio.New(strings.NewReader(fasta), 3, nil, nil, nil)
		var seqs []*fastaio.Seq
		for {
			s, err := r.NextSequence()
			if err != nil {
				t.Fatalf("NextSequence: %v", err)
			}
			if s == nil {
				break
			}
			seqs = append(seqs, s)
		}

		res, err := Run(&sliceReader{seqs: seqs}, Config{
			Threads:     threads,
			ReadLengths: []uint32{3},
			Threshold:   1.0,
		})
		if err != nil {
			t.Fatalf("threads=%d: Run: %v", threads, err)
		}
		got := make(map[composition1Key]uint64)
		for k, v := range res.Primary[0] {
			got[composition1Key{k.AT, k.GC}] = v
		}
		if want == nil {
			want = got
			continue
		}
		if len(want) != len(got) {
			t.Fatalf("threads=%d: histogram size mismatch got=%v want=%v", threads, got, want)
		}
		for k, v := range want {
			if got[k] != v {
				t.Fatalf("threads=%d: key %+v got=%d want=%d", threads, k, got[k], v)
			}
		}
	}
}

type composition1Key struct{ AT, GC uint32 }

func TestRunSurfacesReaderError(t *testing.T) {
	wantErr := errors.New("boom")
	r := &sliceReader{err: wantErr}
	_, err := Run(r, Config{Threads: 2, ReadLengths: []uint32{3}, Threshold: 1.0})
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestRunEmptyInputYieldsEmptyHistograms(t *testing.T) {
	r := &sliceReader{}
	res, err := Run(r, Config{Threads: 3, ReadLengths: []uint32{50, 100}, Threshold: 0.8})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, h := range res.Primary {
		if len(h) != 0 {
			t.Fatalf("read length index %d: expected empty histogram, got %v", i, h)
		}
	}
}
