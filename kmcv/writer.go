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

// Package kmcv writes the compact k-mer catalogue format: a 52-byte header,
// contig and target tables, a run-length-skipped stream of per-kmer hit
// records, and a truncation-detecting EOF block, all Zstd-compressed.
package kmcv

import (
	"io"
	"math/rand"
	"runtime"

	"github.com/klauspost/compress/zstd"
	"github.com/shenwei356/refgc/kmers"
	"github.com/shenwei356/refgc/rgerr"
)

const (
	magic    = "KMCV"
	eofMagic = "VCMK"

	majorVersion = 2
	minorVersion = 0

	headerSize = 52

	// MaxNameLength is the largest UTF-8 contig name this format can carry.
	MaxNameLength = 0xFFFF
)

// Counters mirrors kmers.Index's running totals, copied in rather than
// referencing the index directly so the header can be written before the
// (potentially very large) k-mer block stream is emitted.
type Counters struct {
	Mapped          uint64
	OnTarget        uint64
	HighlyRedundant uint64
	TotalHits       uint64
}

// Target is one BED-derived region, in the global emission order assigned by
// regions.Regions.Normalize (region.Idx 1..N maps to Target index Idx-1).
type Target struct {
	ContigID uint32 // 0-based, matching the Contigs list order
	Start    uint32
	End      uint32
}

// Writer serializes one KMCV file to an underlying Zstd stream.
type Writer struct {
	enc   *zstd.Encoder
	rndID uint32

	wroteHeader bool
	skip        uint64 // unmapped k-mers seen since the last emitted record
}

// NewWriter wraps w with a Zstd encoder, using a multi-threaded compressor
// when more than one core is available.
func NewWriter(w io.Writer) (*Writer, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(runtime.GOMAXPROCS(0)))
	if err != nil {
		return nil, rgerr.Wrap(rgerr.OutputIo, err, "creating zstd encoder for kmcv output")
	}
	return &Writer{enc: enc, rndID: rand.Uint32()}, nil
}

func (w *Writer) write(p []byte) error {
	if _, err := w.enc.Write(p); err != nil {
		return rgerr.Wrap(rgerr.OutputIo, err, "writing kmcv stream")
	}
	return nil
}

// WriteHeader writes the 52-byte fixed header. It must be called exactly
// once, before any contig, target, or k-mer block.
func (w *Writer) WriteHeader(k, maxHits uint8, nContigs, nTargets uint32, c Counters) error {
	buf := make([]byte, 0, headerSize)
	buf = append(buf, magic...)
	buf = append(buf, majorVersion, minorVersion, k, maxHits)
	buf = appendLE32(buf, w.rndID)
	buf = appendLE32(buf, nContigs)
	buf = appendLE32(buf, nTargets)
	buf = appendLE64(buf, c.Mapped)
	buf = appendLE64(buf, c.OnTarget)
	buf = appendLE64(buf, c.HighlyRedundant)
	buf = appendLE64(buf, c.TotalHits)
	if len(buf) != headerSize {
		panic("kmcv: header size drifted from 52 bytes")
	}
	w.wroteHeader = true
	return w.write(buf)
}

// WriteContigs writes one contig block per name, in Regions iteration order.
func (w *Writer) WriteContigs(names []string) error {
	for _, name := range names {
		if len(name) > MaxNameLength {
			return rgerr.Newf(rgerr.ContigNameTooLong, "contig name %q is %d bytes, exceeds %d", name, len(name), MaxNameLength)
		}
		buf := make([]byte, 0, 2+len(name))
		buf = appendLE16(buf, uint16(len(name)))
		buf = append(buf, name...)
		if err := w.write(buf); err != nil {
			return err
		}
	}
	return nil
}

// WriteTargets writes one target block per region, in global Idx order.
func (w *Writer) WriteTargets(targets []Target) error {
	for _, t := range targets {
		buf := make([]byte, 0, 12)
		buf = appendLE32(buf, t.ContigID)
		buf = appendLE32(buf, t.Start)
		buf = appendLE32(buf, t.End)
		if err := w.write(buf); err != nil {
			return err
		}
	}
	return nil
}

// kmerClass classifies a KmerVec into its serialized low nibble and, for the
// on-target classes, the slot values to emit as target ids.
//
// Slot value 0 means empty. Slot value 1 is the off-target marker: it
// contributes to the total hit count but carries no target id, so it is
// never emitted as a slot word (there is no matching entry in the target
// table for "off-target"). Slot value v>=2 means on-target with target id
// v-2 (Region.Idx is 1-based and index.AddKmer adds one more on top, so the
// 0-based target id recovers two less). The nibble is the number of
// on-target ids present (1..7 emit that many slot words; 8 means 8 or more,
// folded into the same bucket as the saturated sentinel since both carry no
// further per-target information); a kmer seen only off-target gets 9 with
// no slot words.
func kmerClass(v kmers.KmerVec) (nibble byte, slots []uint32) {
	if v[0] == kmers.HighMultiSentinel {
		return 8, nil
	}
	var filled int
	hasOffTarget := false
	onTargetIDs := make([]uint32, 0, kmers.MaxHits)
	for _, x := range v {
		if x == 0 {
			continue
		}
		filled++
		if x == 1 {
			hasOffTarget = true
			continue
		}
		onTargetIDs = append(onTargetIDs, x-2)
	}
	m := len(onTargetIDs)
	switch {
	case filled == 0:
		return 15, nil
	case m == 0 && hasOffTarget:
		return 9, nil
	case m >= 8:
		return 8, nil
	default:
		return byte(m), onTargetIDs
	}
}

// PutKmer emits (or folds into the pending skip run) the record for one
// k-mer in canonical index order. Callers must invoke it for every index
// 0..4^k-1 in order, including unmapped ones (vec==nil).
func (w *Writer) PutKmer(vec *kmers.KmerVec) error {
	if vec == nil {
		w.skip++
		return nil
	}
	nibble, slots := kmerClass(*vec)
	if nibble == 15 {
		w.skip++
		return nil
	}

	var buf []byte
	if w.skip < 15 {
		buf = append(buf, byte(w.skip)<<4|nibble)
	} else {
		buf = append(buf, 0xF0|nibble)
		buf = putSkipExt(buf, w.skip-15)
	}
	w.skip = 0
	for _, id := range slots {
		buf = appendLE32(buf, id)
	}
	return w.write(buf)
}

// WriteIndex visits every canonical k-mer code 0..4^k-1 in ascending order,
// looking each up in idx and calling PutKmer, folding the overwhelming
// majority of absent codes into skip runs. k must match the Builder/Index
// this Index was populated with.
func (w *Writer) WriteIndex(idx *kmers.Index, k uint8) error {
	n := uint64(1) << (2 * uint64(k))
	for code := uint64(0); code < n; code++ {
		vec, ok := idx.Get(uint32(code))
		if !ok {
			if err := w.PutKmer(nil); err != nil {
				return err
			}
			continue
		}
		if err := w.PutKmer(&vec); err != nil {
			return err
		}
	}
	return nil
}

// Close writes the EOF block and flushes/closes the underlying Zstd stream.
func (w *Writer) Close() error {
	buf := make([]byte, 0, 8)
	buf = appendLE32(buf, w.rndID)
	buf = append(buf, eofMagic...)
	if err := w.write(buf); err != nil {
		return err
	}
	if err := w.enc.Close(); err != nil {
		return rgerr.Wrap(rgerr.OutputIo, err, "closing kmcv zstd stream")
	}
	return nil
}

func appendLE64(buf []byte, v uint64) []byte {
	return append(buf,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}
