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

package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shenwei356/xopen"

	"github.com/shenwei356/refgc/composition"
	"github.com/shenwei356/refgc/rgerr"
)

// lengthCounts is the per-read-length entry in the JSON output's
// read_length_specific_counts map.
type lengthCounts struct {
	Counts          map[string]uint64 `json:"counts"`
	BisulfiteCounts map[string]uint64 `json:"bisulfite_counts,omitempty"`
}

// jsOutput is the {prefix}.json top-level shape.
type jsOutput struct {
	Program                  string                  `json:"program"`
	Version                  string                  `json:"version"`
	Date                     string                  `json:"date"`
	Identifier               string                  `json:"identifier,omitempty"`
	Input                    string                  `json:"input,omitempty"`
	Threads                  int                     `json:"threads"`
	Threshold                float64                 `json:"threshold"`
	Bisulfite                bool                    `json:"bisulfite"`
	ReadLengths              []uint32                `json:"read_lengths"`
	ReadLengthSpecificCounts map[string]lengthCounts `json:"read_length_specific_counts"`
}

func histKey(k composition.GcHistKey) string {
	return fmt.Sprintf("%d:%d", k.AT, k.GC)
}

func histToMap(h composition.GcHist) map[string]uint64 {
	m := make(map[string]uint64, len(h))
	for k, v := range h {
		m[histKey(k)] = v
	}
	return m
}

func buildJSOutput(opt *Options, res *composition.GcRes) *jsOutput {
	out := &jsOutput{
		Program:                  "refgc",
		Version:                  VERSION,
		Date:                     time.Now().Format(time.RFC1123Z), // RFC1123Z and RFC 2822 share the same layout
		Identifier:               opt.Identifier,
		Input:                    opt.Input,
		Threads:                  opt.Threads,
		Threshold:                opt.Threshold,
		Bisulfite:                opt.Bisulfite,
		ReadLengths:              opt.ReadLengths,
		ReadLengthSpecificCounts: make(map[string]lengthCounts, len(opt.ReadLengths)),
	}
	for i, l := range opt.ReadLengths {
		lc := lengthCounts{Counts: histToMap(res.Primary[i])}
		if res.Bisulfite != nil {
			lc.BisulfiteCounts = histToMap(res.Bisulfite[i])
		}
		out.ReadLengthSpecificCounts[fmt.Sprintf("%d", l)] = lc
	}
	return out
}

// writeJSONOutput writes {prefix}.json.
func writeJSONOutput(opt *Options, res *composition.GcRes) error {
	f, err := xopen.Wopen(opt.Prefix + ".json")
	if err != nil {
		return rgerr.Wrap(rgerr.OutputIo, err, "creating JSON output file")
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(buildJSOutput(opt, res)); err != nil {
		return rgerr.Wrap(rgerr.OutputIo, err, "writing JSON output file")
	}
	return nil
}
