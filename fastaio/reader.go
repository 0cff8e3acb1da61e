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

// Package fastaio streams a FASTA byte source one byte at a time, splitting
// it into Seq records at long gap runs while driving a k-mer builder/index
// with the correct per-position target tag.
package fastaio

import (
	"bufio"
	"io"
	"strings"

	"github.com/shenwei356/refgc/base"
	"github.com/shenwei356/refgc/kmers"
	"github.com/shenwei356/refgc/regions"
	"github.com/shenwei356/refgc/rgerr"
)

// Seq is an immutable contiguous run of bases with no leading or trailing
// gap base.
type Seq struct {
	Bases []base.Base
}

func (s Seq) Len() int { return len(s.Bases) }

type state int

const (
	stStart state = iota
	stStartSeqID
	stInSeqID
	stStartSeq
	stStartSeqAfterNewLine
	stStartGap
	stInGap
	stInGapAfterNewLine
	stInSeq
	stInSeqAfterNewLine
	stInLongGap
	stInLongGapAfterNewLine
)

// Reader is the byte-at-a-time FASTA state machine.
type Reader struct {
	r             *bufio.Reader
	state         state
	seqID         []byte
	contig        string
	maxReadLength uint32
	pos           uint32

	regs    *regions.Regions
	curRegs *regions.ContigRegions
	builder *kmers.Builder
	index   *kmers.Index

	v      []base.Base
	gapLen uint32
}

// New returns a Reader over r. regs may be nil (no target-region tagging,
// every position treated as on-target). builder/index may both be nil to
// skip k-mer cataloguing entirely.
func New(r io.Reader, maxReadLength uint32, regs *regions.Regions, builder *kmers.Builder, index *kmers.Index) *Reader {
	return NewSize(r, maxReadLength, regs, builder, index, 64*1024)
}

// NewSize is New with an explicit internal buffer size; bufSize has no
// effect on parsing results since bufio.Reader.ReadByte/UnreadByte hide
// refill boundaries from the state machine.
func NewSize(r io.Reader, maxReadLength uint32, regs *regions.Regions, builder *kmers.Builder, index *kmers.Index, bufSize int) *Reader {
	return &Reader{
		r:             bufio.NewReaderSize(r, bufSize),
		state:         stStart,
		maxReadLength: maxReadLength,
		regs:          regs,
		builder:       builder,
		index:         index,
	}
}

func isGraphic(c byte) bool {
	return c > 0x20 && c < 0x7f
}

func isIDChar(c byte) bool {
	return c == '\t' || (c >= 0x20 && c < 0x7f)
}

// onTarget reports whether the current position lies within a loaded target
// region (true unconditionally when no Regions were supplied).
func (r *Reader) onTarget() bool {
	if r.regs == nil {
		return true
	}
	if r.curRegs == nil {
		return false
	}
	_, ok := r.curRegs.At(r.pos)
	return ok
}

func (r *Reader) effectiveBase(c byte, onTarget bool) base.Base {
	if onTarget {
		return base.FromByte(c)
	}
	return base.N
}

func (r *Reader) appendAndDrive(gc base.Base, tag uint32) {
	r.v = append(r.v, gc)
	if r.index != nil {
		r.builder.AddBase(gc, tag)
		if fwd, rev, ok := r.builder.Kmers(); ok {
			var homTag uint32
			if hom, homOK := r.builder.HomogeneousRegion(); homOK {
				homTag = hom
			}
			r.index.AddKmer(fwd, homTag)
			r.index.AddKmer(rev, homTag)
		}
	}
}

func (r *Reader) newContig() {
	r.pos = 0
	if r.index != nil {
		r.builder.Clear()
	}
	r.curRegs = nil
	if r.regs != nil {
		if cr, ok := r.regs.Get(r.contig); ok {
			r.curRegs = cr
		}
	}
}

// NextSequence returns the next Seq, or (nil, nil) at end of input.
func (r *Reader) NextSequence() (*Seq, error) {
	for {
		c, err := r.r.ReadByte()
		if err == io.EOF {
			for len(r.v) > 0 && r.v[len(r.v)-1].IsGap() {
				r.v = r.v[:len(r.v)-1]
			}
			r.gapLen = 0
			if len(r.v) == 0 {
				return nil, nil
			}
			seq := &Seq{Bases: r.v}
			r.v = nil
			return seq, nil
		}
		if err != nil {
			return nil, rgerr.Wrap(rgerr.InputIo, err, "reading FASTA input")
		}

		ot := r.onTarget()

		switch r.state {
		case stStart:
			if c != '>' {
				return nil, rgerr.New(rgerr.MalformedFasta, "bad FASTA format: expected '>'")
			}
			r.state = stStartSeqID

		case stStartSeqID:
			r.seqID = r.seqID[:0]
			if err := r.consumeIDByte(c); err != nil {
				return nil, err
			}

		case stInSeqID:
			if err := r.consumeIDByte(c); err != nil {
				return nil, err
			}

		case stStartSeq:
			if done, seq, err := r.consumeStartSeq(c, ot); err != nil {
				return nil, err
			} else if done {
				return seq, nil
			}

		case stStartSeqAfterNewLine:
			if c == '>' {
				if seq := r.finishAtRecordBoundary(); seq != nil {
					return seq, nil
				}
				continue
			}
			if done, seq, err := r.consumeStartSeq(c, ot); err != nil {
				return nil, err
			} else if done {
				return seq, nil
			}

		case stInSeq:
			r.gapLen = 0
			if done, seq, err := r.consumeInSeq(c, ot); err != nil {
				return nil, err
			} else if done {
				return seq, nil
			}

		case stInSeqAfterNewLine:
			if c == '>' {
				if seq := r.finishAtRecordBoundary(); seq != nil {
					return seq, nil
				}
				continue
			}
			if done, seq, err := r.consumeInSeq(c, ot); err != nil {
				return nil, err
			} else if done {
				return seq, nil
			}

		case stStartGap, stInGap:
			if r.state == stInGap {
				r.gapLen++
				if r.gapLen >= r.maxReadLength {
					r.v = r.v[:len(r.v)-int(r.gapLen)]
					r.gapLen = 0
					if done, seq, err := r.consumeLongGap(c, ot); err != nil {
						return nil, err
					} else if done {
						return seq, nil
					}
					continue
				}
			}
			if done, seq, err := r.consumeGap(c, ot); err != nil {
				return nil, err
			} else if done {
				return seq, nil
			}

		case stInGapAfterNewLine:
			if c == '>' {
				if seq := r.finishAtRecordBoundary(); seq != nil {
					return seq, nil
				}
				continue
			}
			if done, seq, err := r.consumeGap(c, ot); err != nil {
				return nil, err
			} else if done {
				return seq, nil
			}

		case stInLongGap:
			if done, seq, err := r.consumeLongGap(c, ot); err != nil {
				return nil, err
			} else if done {
				return seq, nil
			}

		case stInLongGapAfterNewLine:
			if c == '>' {
				if seq := r.finishAtRecordBoundary(); seq != nil {
					return seq, nil
				}
				continue
			}
			if done, seq, err := r.consumeLongGap(c, ot); err != nil {
				return nil, err
			} else if done {
				return seq, nil
			}
		}
	}
}

func (r *Reader) consumeIDByte(c byte) error {
	if c == '\n' {
		if i := strings.IndexAny(string(r.seqID), " \t"); i >= 0 {
			r.seqID = r.seqID[:i]
		}
		r.contig = string(r.seqID)
		r.newContig()
		r.state = stStartSeq
		return nil
	}
	if !isIDChar(c) {
		return rgerr.New(rgerr.MalformedFasta, "illegal character in sequence id")
	}
	r.seqID = append(r.seqID, c)
	r.state = stInSeqID
	return nil
}

// finishAtRecordBoundary is called once a mid-record '>' has been consumed.
// It returns the pending Seq (with trailing gap bases removed) if one exists,
// and always primes the state machine to read the next record's id starting
// from the next byte.
func (r *Reader) finishAtRecordBoundary() *Seq {
	r.state = stStartSeqID
	for len(r.v) > 0 && r.v[len(r.v)-1].IsGap() {
		r.v = r.v[:len(r.v)-1]
	}
	r.gapLen = 0
	if len(r.v) == 0 {
		return nil
	}
	seq := &Seq{Bases: r.v}
	r.v = nil
	return seq
}

// consumeStartSeq handles bytes before the first real (non-gap) base of a
// contig or of a run following a long gap split: leading gap bases are
// dropped entirely (position still advances, nothing is appended or fed to
// the k-mer builder) until the first genuine base starts the run.
func (r *Reader) consumeStartSeq(c byte, onTarget bool) (done bool, seq *Seq, err error) {
	if c == '\n' {
		r.state = stStartSeqAfterNewLine
		return false, nil, nil
	}
	if !isGraphic(c) {
		return false, nil, rgerr.New(rgerr.MalformedFasta, "illegal character in sequence")
	}
	gc := r.effectiveBase(c, onTarget)
	if gc.IsGap() {
		r.pos++
		r.state = stStartSeq
		return false, nil, nil
	}
	r.appendOneBase(c, onTarget)
	r.state = stInSeq
	return false, nil, nil
}

func (r *Reader) consumeInSeq(c byte, onTarget bool) (done bool, seq *Seq, err error) {
	if c == '\n' {
		r.state = stInSeqAfterNewLine
		return false, nil, nil
	}
	if !isGraphic(c) {
		return false, nil, rgerr.New(rgerr.MalformedFasta, "illegal character in sequence")
	}
	gc := r.appendOneBase(c, onTarget)
	if gc.IsGap() {
		r.gapLen = 1
		r.state = stStartGap
	} else {
		r.state = stInSeq
	}
	return false, nil, nil
}

func (r *Reader) consumeGap(c byte, onTarget bool) (done bool, seq *Seq, err error) {
	if c == '\n' {
		r.state = stInGapAfterNewLine
		return false, nil, nil
	}
	if !isGraphic(c) {
		return false, nil, rgerr.New(rgerr.MalformedFasta, "illegal character in sequence")
	}
	gc := r.appendOneBase(c, onTarget)
	if gc.IsGap() {
		r.state = stInGap
	} else {
		r.state = stInSeq
	}
	return false, nil, nil
}

// appendOneBase appends the base for c at the current position, drives the
// k-mer builder/index, and advances pos.
func (r *Reader) appendOneBase(c byte, onTarget bool) base.Base {
	var tag uint32
	if onTarget && r.curRegs != nil {
		if reg, ok := r.curRegs.At(r.pos); ok {
			tag = reg.Idx
		}
	}
	gc := r.effectiveBase(c, onTarget)
	r.pos++
	r.appendAndDrive(gc, tag)
	return gc
}

// consumeLongGap processes a byte while past the long-gap threshold: bases
// are not appended to the pending Seq and do not drive the k-mer builder.
// A genuine (non-gap) base ends the gap, completing the pending Seq (if
// any) and reprocessing this same byte as the start of the next one.
func (r *Reader) consumeLongGap(c byte, onTarget bool) (done bool, seq *Seq, err error) {
	if c == '\n' {
		r.state = stInLongGapAfterNewLine
		return false, nil, nil
	}
	if !isGraphic(c) {
		return false, nil, rgerr.New(rgerr.MalformedFasta, "illegal character in sequence")
	}
	gc := r.effectiveBase(c, onTarget)
	if gc.IsGap() {
		r.pos++
		r.state = stInLongGap
		return false, nil, nil
	}

	if err := r.r.UnreadByte(); err != nil {
		return false, nil, rgerr.Wrap(rgerr.InputIo, err, "rewinding FASTA reader")
	}
	r.state = stStartSeq
	if len(r.v) == 0 {
		return false, nil, nil
	}
	out := &Seq{Bases: r.v}
	r.v = nil
	return true, out, nil
}

