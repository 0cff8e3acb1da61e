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

package regions

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/shenwei356/refgc/rgerr"
)

// ReadBED reads tab-separated contig/start/end triples from r, adds one
// Region per line and normalizes the result before returning it.
func ReadBED(r io.Reader) (*Regions, error) {
	regs := New()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r\n")
		if text == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < 3 {
			return nil, rgerr.Newf(rgerr.MalformedBed, "missing field(s) at line %d", line)
		}

		start, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, rgerr.Wrapf(rgerr.MalformedBed, err, "bad start value at line %d", line)
		}
		end, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return nil, rgerr.Wrapf(rgerr.MalformedBed, err, "bad end value at line %d", line)
		}
		if end <= start {
			return nil, rgerr.Newf(rgerr.MalformedBed, "end value must be larger than start value at line %d", line)
		}

		regs.GetOrInsert(fields[0]).AddRegion(Region{Start: uint32(start), Size: uint32(end - start)})
	}
	if err := scanner.Err(); err != nil {
		return nil, rgerr.Wrap(rgerr.InputIo, err, "reading BED file")
	}

	regs.Normalize()
	return regs, nil
}
