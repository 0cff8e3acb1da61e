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

// Package rgerr defines the typed error kinds shared by every stage of the
// pipeline, each carrying a human-readable context chain via
// github.com/pkg/errors.
package rgerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failure for top-level reporting and exit-code purposes.
type Kind int

const (
	InputIo Kind = iota
	MalformedFasta
	MalformedBed
	ConfigInvalid
	ContigNameTooLong
	OutputIo
	ProcessingFailure
)

func (k Kind) String() string {
	switch k {
	case InputIo:
		return "InputIo"
	case MalformedFasta:
		return "MalformedFasta"
	case MalformedBed:
		return "MalformedBed"
	case ConfigInvalid:
		return "ConfigInvalid"
	case ContigNameTooLong:
		return "ContigNameTooLong"
	case OutputIo:
		return "OutputIo"
	case ProcessingFailure:
		return "ProcessingFailure"
	default:
		return "Unknown"
	}
}

// Error is a typed, context-wrapped error.
type Error struct {
	Kind Kind
	err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.err)
}

func (e *Error) Unwrap() error {
	return e.err
}

// New builds a Kind-tagged error from a message.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, err: errors.New(msg)}
}

// Newf builds a Kind-tagged error from a format string.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, err: errors.Errorf(format, args...)}
}

// Wrap tags err with kind and a context message, preserving the chain.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, err: errors.Wrap(err, msg)}
}

// Wrapf tags err with kind and a formatted context message.
func Wrapf(kind Kind, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, err: errors.Wrapf(err, format, args...)}
}

// KindOf extracts the Kind from err, if it (or something it wraps) is a
// *Error; ok is false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
