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

// Package regions holds the per-contig target-interval catalogue used to tag
// reference positions as on- or off-target.
package regions

import "sort"

// Region is a half-open interval [Start, Start+Size) with a stable, globally
// unique Idx assigned by Normalize.
type Region struct {
	Start uint32
	Size  uint32
	Idx   uint32
}

// End returns the exclusive end of the interval.
func (r Region) End() uint32 {
	return r.Start + r.Size
}

// ContigRegions is the ordered set of Region belonging to one contig. After
// Normalize it is sorted by Start and non-overlapping.
type ContigRegions struct {
	regions []Region
}

// AddRegion appends r unsorted and unmerged.
func (c *ContigRegions) AddRegion(r Region) {
	c.regions = append(c.regions, r)
}

// Regions returns the current region slice. Callers must not retain it
// across a subsequent AddRegion/Normalize call.
func (c *ContigRegions) Regions() []Region {
	return c.regions
}

// Len returns the number of regions currently held.
func (c *ContigRegions) Len() int {
	return len(c.regions)
}

// At returns the region containing pos, if any. Regions must already be
// normalized: this does a linear scan since target lists per contig are
// typically small; a binary search would be a premature refinement here.
func (c *ContigRegions) At(pos uint32) (Region, bool) {
	for _, r := range c.regions {
		if pos >= r.Start && pos < r.End() {
			return r, true
		}
		if r.Start > pos {
			break
		}
	}
	return Region{}, false
}

func (c *ContigRegions) sortAndMerge(carry uint32) uint32 {
	if len(c.regions) == 0 {
		return carry
	}
	sort.Slice(c.regions, func(i, j int) bool {
		if c.regions[i].Start != c.regions[j].Start {
			return c.regions[i].Start < c.regions[j].Start
		}
		return c.regions[i].Size < c.regions[j].Size
	})

	merged := make([]Region, 0, len(c.regions))
	pending := c.regions[0]
	for _, r := range c.regions[1:] {
		if pending.End() >= r.Start {
			if pending.End() < r.End() {
				pending.Size = r.End() - pending.Start
			}
			continue
		}
		merged = append(merged, pending)
		pending = r
	}
	merged = append(merged, pending)

	for i := range merged {
		carry++
		merged[i].Idx = carry
	}
	c.regions = merged
	return carry
}

// Regions maps contig name to ContigRegions. contigOrder records the order in
// which contigs were first inserted, which is the deterministic iteration
// order observable to KMCV contig-id assignment.
type Regions struct {
	byName      map[string]*ContigRegions
	contigOrder []string
}

// New returns an empty Regions catalogue.
func New() *Regions {
	return &Regions{byName: make(map[string]*ContigRegions)}
}

// GetOrInsert returns the ContigRegions for contig, creating it (and
// recording insertion order) on first use.
func (r *Regions) GetOrInsert(contig string) *ContigRegions {
	if cr, ok := r.byName[contig]; ok {
		return cr
	}
	cr := &ContigRegions{}
	r.byName[contig] = cr
	r.contigOrder = append(r.contigOrder, contig)
	return cr
}

// Get returns the ContigRegions for contig, if present.
func (r *Regions) Get(contig string) (*ContigRegions, bool) {
	cr, ok := r.byName[contig]
	return cr, ok
}

// Normalize sorts and merges every contig's regions and reassigns dense,
// globally unique Idx values (1-based, carried across contigs in iteration
// order). It returns the total number of regions after merging.
func (r *Regions) Normalize() int {
	var carry uint32
	var total int
	for _, name := range r.contigOrder {
		cr := r.byName[name]
		carry = cr.sortAndMerge(carry)
		total += cr.Len()
	}
	return total
}

// Len returns the total number of regions across all contigs.
func (r *Regions) Len() int {
	var n int
	for _, name := range r.contigOrder {
		n += r.byName[name].Len()
	}
	return n
}

// IsEmpty reports whether no contig has any region.
func (r *Regions) IsEmpty() bool {
	return r.Len() == 0
}

// ContigIndex returns the 0-based iteration-order index for contig, which is
// the contig id carried by KMCV target blocks.
func (r *Regions) ContigIndex(contig string) (int, bool) {
	for i, name := range r.contigOrder {
		if name == contig {
			return i, true
		}
	}
	return 0, false
}

// Each calls fn once per contig in deterministic (insertion) order.
func (r *Regions) Each(fn func(contig string, cr *ContigRegions)) {
	for _, name := range r.contigOrder {
		fn(name, r.byName[name])
	}
}

// NumContigs returns the number of distinct contigs seen.
func (r *Regions) NumContigs() int {
	return len(r.contigOrder)
}
