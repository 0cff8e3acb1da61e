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

package kmers

import (
	"math/rand"
	"testing"

	"github.com/shenwei356/refgc/base"
)

func fillBuilder(b *Builder, seq string, tag uint32) {
	for i := 0; i < len(seq); i++ {
		b.AddBase(base.FromByte(seq[i]), tag)
	}
}

func TestBuilderKmersOnlyAfterFullValidWindow(t *testing.T) {
	b := NewBuilder()
	seq := "ACGTACGTACGTACG" // 15 bases, all valid
	if len(seq) != Length {
		t.Fatalf("test fixture must be %d bases", Length)
	}
	for i := 0; i < len(seq)-1; i++ {
		b.AddBase(base.FromByte(seq[i]), 0)
		if _, _, ok := b.Kmers(); ok {
			t.Fatalf("Kmers() should not be ready before %d bases", Length)
		}
	}
	b.AddBase(base.FromByte(seq[len(seq)-1]), 0)
	if _, _, ok := b.Kmers(); !ok {
		t.Fatalf("Kmers() should be ready after %d valid bases", Length)
	}
}

func TestBuilderInvalidatesOnGap(t *testing.T) {
	b := NewBuilder()
	fillBuilder(b, "ACGTACGTACGTACG", 0)
	if _, _, ok := b.Kmers(); !ok {
		t.Fatal("expected valid window")
	}
	b.AddBase(base.N, 0)
	if _, _, ok := b.Kmers(); ok {
		t.Fatal("a single N should invalidate the window")
	}
}

func TestHomogeneousRegion(t *testing.T) {
	b := NewBuilder()
	fillBuilder(b, "ACGTACGTACGTACG", 7)
	if r, ok := b.HomogeneousRegion(); !ok || r != 7 {
		t.Fatalf("expected homogeneous region 7, got %d ok=%v", r, ok)
	}

	b2 := NewBuilder()
	for i, c := range "ACGTACGTACGTACG" {
		tag := uint32(0)
		if i >= Length/2 {
			tag = 7
		}
		b2.AddBase(base.FromByte(byte(c)), tag)
	}
	if _, ok := b2.HomogeneousRegion(); ok {
		t.Fatal("mixed region tags must not be reported as homogeneous")
	}
}

func TestRevCompRoundTrip(t *testing.T) {
	rand.Seed(1)
	bases := []byte{'A', 'C', 'G', 'T'}
	for trial := 0; trial < 100; trial++ {
		seq := make([]byte, Length)
		for i := range seq {
			seq[i] = bases[rand.Intn(4)]
		}
		fwdB := NewBuilder()
		fillBuilder(fwdB, string(seq), 0)
		fwd, rev, ok := fwdB.Kmers()
		if !ok {
			t.Fatal("expected valid kmer")
		}

		revSeq := make([]byte, Length)
		comp := map[byte]byte{'A': 'T', 'T': 'A', 'C': 'G', 'G': 'C'}
		for i, c := range seq {
			revSeq[Length-1-i] = comp[c]
		}
		revB := NewBuilder()
		fillBuilder(revB, string(revSeq), 0)
		fwd2, _, ok2 := revB.Kmers()
		if !ok2 {
			t.Fatal("expected valid kmer")
		}
		if fwd2 != rev {
			t.Errorf("reverse complement mismatch: rev(fwd)=%d, fwd(revcomp seq)=%d", rev, fwd2)
		}
		_ = fwd
	}
}

func TestIndexUniqueOnTarget(t *testing.T) {
	idx := NewIndex()
	idx.AddKmer(42, 3) // on-target, region idx 3
	v, ok := idx.Get(42)
	if !ok || v[0] != 4 {
		t.Fatalf("expected slot0=4 (regionIdx+1), got %+v ok=%v", v, ok)
	}
	if idx.Mapped != 1 || idx.OnTarget != 1 {
		t.Fatalf("expected mapped=1 on_target=1, got %d %d", idx.Mapped, idx.OnTarget)
	}
}

func TestIndexUniqueOffTarget(t *testing.T) {
	idx := NewIndex()
	idx.AddKmer(42, 0)
	v, _ := idx.Get(42)
	if v[0] != 1 {
		t.Fatalf("expected slot0=1, got %+v", v)
	}
	if idx.Mapped != 1 || idx.OnTarget != 0 {
		t.Fatalf("expected mapped=1 on_target=0, got %d %d", idx.Mapped, idx.OnTarget)
	}
}

func TestIndexOffTargetThenOnTargetIncrementsOnTarget(t *testing.T) {
	idx := NewIndex()
	idx.AddKmer(1, 0) // off-target first
	idx.AddKmer(1, 5) // then on-target
	if idx.OnTarget != 1 {
		t.Fatalf("expected on_target=1 after off->on transition, got %d", idx.OnTarget)
	}
	if idx.TotalHits != 1 {
		t.Fatalf("expected total_hits=1, got %d", idx.TotalHits)
	}
}

func TestIndexDuplicateHitIgnored(t *testing.T) {
	idx := NewIndex()
	idx.AddKmer(1, 5)
	idx.AddKmer(1, 5)
	v, _ := idx.Get(1)
	if v[1] != 0 {
		t.Fatalf("duplicate hit should not occupy a new slot: %+v", v)
	}
}

func TestIndexSaturates(t *testing.T) {
	idx := NewIndex()
	for i := uint32(0); i < MaxHits+2; i++ {
		idx.AddKmer(9, i+1)
	}
	v, _ := idx.Get(9)
	if v[0] != HighMultiSentinel {
		t.Fatalf("expected saturation sentinel, got %+v", v)
	}
	if idx.HighlyRedundant != 1 {
		t.Fatalf("expected highly_redundant=1, got %d", idx.HighlyRedundant)
	}
}
