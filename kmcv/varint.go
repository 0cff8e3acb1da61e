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

// The skip-extension suffix is a 0xFF-escape cascade over 1, 2 and 4 bytes,
// the same style of escalating width escape as uvarint.go's putUvarint but
// keyed on the byte/field being saturated rather than a leading high-bit run:
// a byte (or 16-bit field) value of all-ones means "read the next, wider
// field instead". It encodes ext = skip - 15.

// putSkipExt appends the variable-width encoding of ext to buf and returns
// the resulting slice.
func putSkipExt(buf []byte, ext uint64) []byte {
	if ext < 0xFF {
		return append(buf, byte(ext))
	}
	rem := ext - 0xFF
	if rem < 0xFFFF {
		buf = append(buf, 0xFF)
		return appendLE16(buf, uint16(rem))
	}
	rem -= 0xFFFF
	buf = append(buf, 0xFF)
	buf = appendLE16(buf, 0xFFFF)
	return appendLE32(buf, uint32(rem))
}

func appendLE16(buf []byte, v uint16) []byte {
	return append(buf, byte(v), byte(v>>8))
}

func appendLE32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// readSkipExt reads a skip extension from r, returning ext = skip - 15.
func readSkipExt(r byteReader) (uint64, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if b < 0xFF {
		return uint64(b), nil
	}
	v16, err := readLE16(r)
	if err != nil {
		return 0, err
	}
	if v16 < 0xFFFF {
		return 0xFF + uint64(v16), nil
	}
	v32, err := readLE32(r)
	if err != nil {
		return 0, err
	}
	return 0xFF + 0xFFFF + uint64(v32), nil
}

type byteReader interface {
	ReadByte() (byte, error)
}

func readLE16(r byteReader) (uint16, error) {
	b0, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	b1, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	return uint16(b0) | uint16(b1)<<8, nil
}

func readLE32(r byteReader) (uint32, error) {
	var v uint32
	for i := uint(0); i < 4; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= uint32(b) << (8 * i)
	}
	return v, nil
}
