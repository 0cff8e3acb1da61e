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

// HighMultiSentinel is the slot-0 value marking a saturated (high
// multiplicity) k-mer vector; all other slots are zero when set.
const HighMultiSentinel uint32 = 0x80000000

// KmerVec is a fixed-capacity multi-hit vector. Slot 0 == 0 means empty;
// HighMultiSentinel in slot 0 means saturated; otherwise it holds a
// zero-terminated list of distinct values, each either 1 (off-target) or
// regionIdx+1 (on-target).
type KmerVec [MaxHits]uint32

// Index is the dense-by-intent, map-backed table of KmerVec keyed by the
// canonical 2*Length-bit packed k-mer code. A map is used instead of a flat
// 4^15-slot array: at k=15 the dense array is ~8GiB as spec.md itself notes
// is impractical, and the spec explicitly allows a hash map substitute
// provided slot semantics are preserved.
type Index struct {
	table map[uint32]*KmerVec

	Mapped          uint64
	OnTarget        uint64
	HighlyRedundant uint64
	TotalHits       uint64
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{table: make(map[uint32]*KmerVec)}
}

// AddKmer records one observation of kmer with the given region index
// (0 meaning off-target, else the 1-based region index from
// Builder.HomogeneousRegion).
func (idx *Index) AddKmer(kmer uint32, regionIdx uint32) {
	v := idx.table[kmer]
	if v == nil {
		v = &KmerVec{}
		idx.table[kmer] = v
	}
	slotVal := regionIdx + 1

	if v[0] == 0 {
		v[0] = slotVal
		idx.Mapped++
		if regionIdx != 0 {
			idx.OnTarget++
		}
		return
	}

	if v[0] == HighMultiSentinel {
		return
	}

	for _, x := range v {
		if x == slotVal {
			return
		}
	}

	for i, x := range v {
		if x == 0 {
			wasOffTargetOnly := i == 1 && v[0] == 1
			v[i] = slotVal
			idx.TotalHits++
			if wasOffTargetOnly && regionIdx != 0 {
				idx.OnTarget++
			}
			return
		}
	}

	// All MaxHits slots full: saturate.
	idx.TotalHits -= uint64(MaxHits)
	idx.HighlyRedundant++
	*v = KmerVec{HighMultiSentinel}
}

// Get returns the KmerVec stored for kmer, if any.
func (idx *Index) Get(kmer uint32) (KmerVec, bool) {
	v, ok := idx.table[kmer]
	if !ok {
		return KmerVec{}, false
	}
	return *v, true
}

// Len returns the number of distinct k-mer codes with at least one hit.
func (idx *Index) Len() int {
	return len(idx.table)
}
