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

// Package pipeline runs the single reader-producer / N worker-consumer
// orchestration that turns a fastaio.Reader into a merged composition.GcRes.
package pipeline

import (
	"sync"

	"github.com/shenwei356/refgc/composition"
	"github.com/shenwei356/refgc/fastaio"
	"github.com/shenwei356/refgc/rgerr"
)

// Reader is the subset of fastaio.Reader the pipeline drives; satisfied by
// *fastaio.Reader, and narrowed here so tests can feed a fake producer.
type Reader interface {
	NextSequence() (*fastaio.Seq, error)
}

// Config bundles the knobs needed to spin up workers.
type Config struct {
	Threads     int
	ReadLengths []uint32
	Threshold   float64
	Bisulfite   bool
}

// Run reads every Seq from r, fans it out across cfg.Threads worker
// goroutines each running its own composition.Worker, and returns the
// pointwise merge of their results. A reader error is surfaced once the
// queue has drained; partial results are discarded in that case, per the
// no-partial-output-on-error policy.
func Run(r Reader, cfg Config) (*composition.GcRes, error) {
	n := cfg.Threads
	if n < 1 {
		n = 1
	}

	queue := make(chan *fastaio.Seq, 4*n)
	results := make(chan *composition.GcRes, n)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			w := composition.NewWorker(cfg.ReadLengths, cfg.Threshold, cfg.Bisulfite)
			for seq := range queue {
				w.ProcessSeq(seq)
			}
			results <- w.Result()
		}()
	}

	var readErr error
	for {
		seq, err := r.NextSequence()
		if err != nil {
			readErr = rgerr.Wrap(rgerr.ProcessingFailure, err, "reading input")
			break
		}
		if seq == nil {
			break
		}
		queue <- seq
	}
	close(queue)

	wg.Wait()
	close(results)

	if readErr != nil {
		return nil, readErr
	}

	merged := composition.NewGcRes(cfg.ReadLengths, cfg.Bisulfite)
	for res := range results {
		merged.Merge(res)
	}
	return merged, nil
}
