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

// Package base classifies reference-genome bytes into the six-value alphabet
// the rest of the toolkit builds on.
package base

// Base is a classified reference nucleotide. The numeric assignment is
// load-bearing: the low two bits are the 2-bit packed code used by the k-mer
// builder, and the third bit (value 4) marks a gap base.
type Base uint8

const (
	A     Base = 0
	C     Base = 1
	T     Base = 2
	G     Base = 3
	N     Base = 4
	Other Base = 5
)

// FromByte classifies one input byte.
func FromByte(b byte) Base {
	switch b {
	case 'A', 'a':
		return A
	case 'C', 'c':
		return C
	case 'G', 'g':
		return G
	case 'T', 't':
		return T
	case 'N', 'n':
		return N
	default:
		return Other
	}
}

// IsGap reports whether b is N or Other.
func (b Base) IsGap() bool {
	return b >= N
}

// Code2bit returns the low two bits used in k-mer packing. Only meaningful
// for non-gap bases; callers must check IsGap first.
func (b Base) Code2bit() uint64 {
	return uint64(b) & 3
}

// Complement returns the complementary base under the 2-bit code, i.e.
// (code+2)&3 re-mapped back to a Base. Only meaningful for non-gap bases.
func (b Base) Complement() Base {
	return byteTo2bitBase[(uint64(b)+2)&3]
}

var byteTo2bitBase = [4]Base{A, C, T, G}

// Byte returns the canonical uppercase ASCII byte for b.
func (b Base) Byte() byte {
	switch b {
	case A:
		return 'A'
	case C:
		return 'C'
	case G:
		return 'G'
	case T:
		return 'T'
	case N:
		return 'N'
	default:
		return 'O'
	}
}

func (b Base) String() string {
	return string(b.Byte())
}
