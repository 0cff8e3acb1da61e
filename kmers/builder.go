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

// Package kmers rolls a fixed-length 2-bit-packed k-mer (and its reverse
// complement) across a base stream, tracks the homogeneous target region of
// the current window, and indexes the resulting k-mers into a bounded
// multi-hit table.
package kmers

import "github.com/shenwei356/refgc/base"

// Length is the fixed k-mer length (spec KMER_LENGTH).
const Length = 15

// MaxHits bounds the number of distinct hit slots tracked per k-mer.
const MaxHits = 8

const revShift = uint((Length - 1) * 2)

// Builder maintains the rolling forward/reverse-complement k-mer, a validity
// mask over the last Length bases, and a deque of region tags used to decide
// whether the current window lies entirely within one target region.
type Builder struct {
	tags      []uint32 // 0 = off-target/no-region, else the 1-based Region index
	kmer      uint32
	revKmer   uint32
	valid     uint32
	mask      uint32
	validMask uint32
	pos       int // next write position in the ring, mod Length
}

// NewBuilder returns a cleared Builder.
func NewBuilder() *Builder {
	b := &Builder{
		tags:      make([]uint32, Length),
		mask:      (1 << (2 * Length)) - 1,
		validMask: (1 << Length) - 1,
	}
	return b
}

// Clear resets the builder to its zero state, as done when a reader begins a
// new contig.
func (b *Builder) Clear() {
	for i := range b.tags {
		b.tags[i] = 0
	}
	b.kmer = 0
	b.revKmer = 0
	b.valid = 0
	b.pos = 0
}

// AddBase folds one base and its region tag into the rolling state.
// regionTag is 0 when the position is off-target, else the 1-based Region
// index (as assigned by regions.Regions.Normalize) covering it.
func (b *Builder) AddBase(bs base.Base, regionTag uint32) {
	b.tags[b.pos] = regionTag
	b.pos = (b.pos + 1) % Length

	x := uint32(bs) & 3
	var v uint32
	if !bs.IsGap() {
		v = 1
	}
	revX := (x + 2) & 3

	b.kmer = ((b.kmer << 2) & b.mask) | x
	b.revKmer = (b.revKmer >> 2) | (revX << revShift)
	b.valid = ((b.valid << 1) & b.validMask) | v
}

// Kmers returns the forward and reverse-complement packed k-mers, and ok=true
// only when the last Length bases were all non-gap.
func (b *Builder) Kmers() (fwd, rev uint32, ok bool) {
	if b.valid != b.validMask {
		return 0, 0, false
	}
	return b.kmer, b.revKmer, true
}

// HomogeneousRegion returns (regionIdx, true) iff every tag in the current
// window is the same non-zero region index, meaning all Length bases lie in
// one target region. Otherwise it returns (0, false): either the window
// spans a region boundary or no position in it is on target.
func (b *Builder) HomogeneousRegion() (uint32, bool) {
	first := b.tags[0]
	if first == 0 {
		return 0, false
	}
	for _, t := range b.tags[1:] {
		if t != first {
			return 0, false
		}
	}
	return first, true
}
