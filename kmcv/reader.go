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

package kmcv

import (
	"bufio"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/shenwei356/refgc/rgerr"
)

// Header is the decoded fixed 52-byte KMCV header.
type Header struct {
	Major, Minor     uint8
	K, MaxHits       uint8
	RndID            uint32
	NContigs         uint32
	NTargets         uint32
	Mapped           uint64
	OnTarget         uint64
	HighlyRedundant  uint64
	TotalHits        uint64
}

// Record is one decoded k-mer block entry.
type Record struct {
	Skip   uint64
	Nibble byte
	Slots  []uint32
}

// Reader decodes a KMCV stream written by Writer.
type Reader struct {
	dec   *zstd.Decoder
	br    *bufio.Reader
	rndID uint32 // set once ReadHeader succeeds; used by Done to spot the EOF block
}

// NewReader wraps r with a Zstd decoder.
func NewReader(r io.Reader) (*Reader, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, rgerr.Wrap(rgerr.InputIo, err, "creating zstd decoder for kmcv input")
	}
	return &Reader{dec: dec, br: bufio.NewReader(dec)}, nil
}

func (r *Reader) readFull(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.br, buf); err != nil {
		return nil, rgerr.Wrap(rgerr.InputIo, err, "reading kmcv stream")
	}
	return buf, nil
}

// ReadHeader decodes the fixed header.
func (r *Reader) ReadHeader() (Header, error) {
	buf, err := r.readFull(headerSize)
	if err != nil {
		return Header{}, err
	}
	if string(buf[0:4]) != magic {
		return Header{}, rgerr.New(rgerr.InputIo, "kmcv: bad magic in header")
	}
	h := Header{
		Major:   buf[4],
		Minor:   buf[5],
		K:       buf[6],
		MaxHits: buf[7],
	}
	h.RndID = le32(buf[8:12])
	h.NContigs = le32(buf[12:16])
	h.NTargets = le32(buf[16:20])
	h.Mapped = le64(buf[20:28])
	h.OnTarget = le64(buf[28:36])
	h.HighlyRedundant = le64(buf[36:44])
	h.TotalHits = le64(buf[44:52])
	r.rndID = h.RndID
	return h, nil
}

// Done reports whether the k-mer block stream is exhausted: a trailing run
// of unmapped k-mers carries no record (there is nothing to say about them),
// so the stream can end in the EOF block before the caller's own count of
// processed k-mers reaches 4^k. Done peeks for the EOF block's rnd_id+magic
// without consuming it, so callers can still call ReadEOF afterward.
func (r *Reader) Done() (bool, error) {
	peek, err := r.br.Peek(8)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return false, rgerr.Wrap(rgerr.InputIo, err, "kmcv: stream truncated before EOF block")
		}
		return false, rgerr.Wrap(rgerr.InputIo, err, "peeking kmcv stream")
	}
	return le32(peek[0:4]) == r.rndID && string(peek[4:8]) == eofMagic, nil
}

// ReadContigs decodes n contig blocks.
func (r *Reader) ReadContigs(n uint32) ([]string, error) {
	names := make([]string, n)
	for i := range names {
		lbuf, err := r.readFull(2)
		if err != nil {
			return nil, err
		}
		l := int(uint16(lbuf[0]) | uint16(lbuf[1])<<8)
		nameBuf, err := r.readFull(l)
		if err != nil {
			return nil, err
		}
		names[i] = string(nameBuf)
	}
	return names, nil
}

// ReadTargets decodes n target blocks.
func (r *Reader) ReadTargets(n uint32) ([]Target, error) {
	targets := make([]Target, n)
	for i := range targets {
		buf, err := r.readFull(12)
		if err != nil {
			return nil, err
		}
		targets[i] = Target{
			ContigID: le32(buf[0:4]),
			Start:    le32(buf[4:8]),
			End:      le32(buf[8:12]),
		}
	}
	return targets, nil
}

// NextRecord decodes one k-mer block record. Callers should check Done
// before each call and switch to ReadEOF once it reports true.
func (r *Reader) NextRecord() (Record, error) {
	b, err := r.br.ReadByte()
	if err != nil {
		return Record{}, rgerr.Wrap(rgerr.InputIo, err, "reading kmcv record byte")
	}
	nibble := b & 0x0F
	skipNibble := b >> 4

	var skip uint64
	if skipNibble < 15 {
		skip = uint64(skipNibble)
	} else {
		ext, err := readSkipExt(r.br)
		if err != nil {
			return Record{}, rgerr.Wrap(rgerr.InputIo, err, "reading kmcv skip extension")
		}
		skip = 15 + ext
	}

	var slots []uint32
	if nibble >= 1 && nibble <= 7 {
		n := int(nibble)
		slots = make([]uint32, 0, n)
		// nibble 1..7 is itself the count of trailing on-target slot words.
		for i := 0; i < n; i++ {
			buf, err := r.readFull(4)
			if err != nil {
				return Record{}, err
			}
			slots = append(slots, le32(buf))
		}
	}

	return Record{Skip: skip, Nibble: nibble, Slots: slots}, nil
}

// ReadEOF decodes the trailing 8-byte block.
func (r *Reader) ReadEOF() (rndID uint32, err error) {
	buf, err := r.readFull(8)
	if err != nil {
		return 0, err
	}
	if string(buf[4:8]) != eofMagic {
		return 0, rgerr.New(rgerr.InputIo, "kmcv: bad EOF magic")
	}
	return le32(buf[0:4]), nil
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func le64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}
