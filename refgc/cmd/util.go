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
	"bufio"
	"io"
	"os"
	"runtime"

	"github.com/klauspost/compress/zstd"
	colorable "github.com/mattn/go-colorable"
	"github.com/shenwei356/go-logging"
	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"

	"github.com/shenwei356/refgc/rgerr"
)

// VERSION is the refgc release this binary reports in its JSON output.
const VERSION = "1.0.0"

var log = logging.MustGetLogger("refgc")

var logFormat = logging.MustStringFormatter(
	`%{time:15:04:05.000} %{color}[%{level:.4s}]%{color:reset} %{message}`,
)

var logFormatNoTime = logging.MustStringFormatter(
	`%{color}[%{level:.4s}]%{color:reset} %{message}`,
)

// initLogging wires the go-logging backend, honoring --timestamp,
// --loglevel and --quiet exactly as unikmer/main.go wires its own backend,
// but driven from flags instead of being fixed at package init.
func initLogging(withTimestamp bool, level string, quiet bool) {
	var stderr io.Writer = os.Stderr
	if runtime.GOOS == "windows" {
		stderr = colorable.NewColorableStderr()
	}
	backend := logging.NewLogBackend(stderr, "", 0)
	format := logFormatNoTime
	if withTimestamp {
		format = logFormat
	}
	backendFormatter := logging.NewBackendFormatter(backend, format)
	logging.SetBackend(backendFormatter)

	if quiet {
		logging.SetLevel(logging.ERROR, "refgc")
		return
	}
	lvl, err := logging.LogLevel(level)
	if err != nil {
		checkError(rgerr.Newf(rgerr.ConfigInvalid, "invalid --loglevel %q", level))
	}
	logging.SetLevel(lvl, "refgc")
}

// checkError reports a fatal error and exits, mirroring unikmer's own
// checkError convention.
func checkError(err error) {
	if err == nil {
		return
	}
	log.Error(err)
	os.Exit(1)
}

func getFlagString(cmd *cobra.Command, flag string) string {
	v, err := cmd.Flags().GetString(flag)
	checkError(err)
	return v
}

func getFlagInt(cmd *cobra.Command, flag string) int {
	v, err := cmd.Flags().GetInt(flag)
	checkError(err)
	return v
}

func getFlagPositiveInt(cmd *cobra.Command, flag string) int {
	v := getFlagInt(cmd, flag)
	if v <= 0 {
		checkError(rgerr.Newf(rgerr.ConfigInvalid, "flag --%s must be a positive integer", flag))
	}
	return v
}

func getFlagFloat64(cmd *cobra.Command, flag string) float64 {
	v, err := cmd.Flags().GetFloat64(flag)
	checkError(err)
	return v
}

func getFlagBool(cmd *cobra.Command, flag string) bool {
	v, err := cmd.Flags().GetBool(flag)
	checkError(err)
	return v
}

func getFlagIntSlice(cmd *cobra.Command, flag string) []int {
	v, err := cmd.Flags().GetIntSlice(flag)
	checkError(err)
	return v
}

var zstdMagic = [4]byte{0x28, 0xB5, 0x2F, 0xFD}

// openInput opens path (or stdin when path is "" or "-"), letting xopen
// sniff and transparently decompress gzip/bzip2/xz, then layers a Zstd
// sniff on top of xopen's single resulting stream (xopen has no Zstd
// support of its own). Everything funnels through one bufio.Reader wrapping
// xopen's Reader, so there is exactly one buffered peek against one
// underlying stream, whether that stream is a regular file or stdin.
func openInput(path string) (io.ReadCloser, error) {
	if path == "" {
		path = stdinSentinel
	}
	xr, err := xopen.Ropen(path)
	if err != nil {
		return nil, rgerr.Wrap(rgerr.InputIo, err, "opening input")
	}

	br := bufio.NewReaderSize(xr, 64*1024)
	magic, _ := br.Peek(4)
	if len(magic) == 4 && [4]byte{magic[0], magic[1], magic[2], magic[3]} == zstdMagic {
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, rgerr.Wrap(rgerr.InputIo, err, "creating zstd decoder for input")
		}
		return &zstdInputCloser{zr: zr, xr: xr}, nil
	}
	return &rawInputCloser{r: br, xr: xr}, nil
}

type zstdInputCloser struct {
	zr *zstd.Decoder
	xr *xopen.Reader
}

func (z *zstdInputCloser) Read(p []byte) (int, error) { return z.zr.Read(p) }
func (z *zstdInputCloser) Close() error {
	z.zr.Close()
	return z.xr.Close()
}

type rawInputCloser struct {
	r  *bufio.Reader
	xr *xopen.Reader
}

func (r *rawInputCloser) Read(p []byte) (int, error) { return r.r.Read(p) }
func (r *rawInputCloser) Close() error                { return r.xr.Close() }
