// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package gifload

import (
	"errors"
	"fmt"
)

// ErrInvalidFormat is the sentinel wrapped by every *FormatError: a
// read past the end of the input, a bad minimum LZW code size, a
// missing clear code, an empty first sub-block, an invalid LZW code,
// or an unknown block tag. Load itself returns it only when the global
// palette is cut short; a bad signature yields (0, nil), and a frame
// that cannot be decoded ends the walk with a *TruncatedError.
var ErrInvalidFormat = errors.New("gifload: invalid format")

// ErrTruncated is the sentinel wrapped by TruncatedError.
var ErrTruncated = errors.New("gifload: truncated input")

// errStop is the cause recorded when the walk meets a byte that is not
// a known block tag: cursor.stop panics with a *FormatError carrying
// it, which unwinds the walk to its recover boundary without threading
// an error return through every call.
var errStop = errors.New("gifload: stop")

// FormatError reports a malformed-input condition at a specific byte
// offset into the input buffer.
type FormatError struct {
	Offset int
	Cause  error
}

func newFormatError(offset int, cause error) *FormatError {
	return &FormatError{Offset: offset, Cause: cause}
}

func newFormatErrorf(offset int, format string, args ...any) *FormatError {
	return &FormatError{Offset: offset, Cause: fmt.Errorf(format, args...)}
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("gifload: invalid format at offset %d: %v", e.Offset, e.Cause)
}

func (e *FormatError) Unwrap() error {
	return ErrInvalidFormat
}

// TruncatedError reports that the walk stopped short of a clean 0x3B
// trailer: the input buffer ended early, or a frame could not be
// decoded (no palette, a malformed LZW stream, or a rectangle rejected
// by Options.ClipFrameBounds). Count is the number of frames delivered
// to the frame sink before the walk stopped, plus Options.Skip; it is
// always >= 0 (the sign-overloading of the original C return value is
// replaced by this typed error plus a positive Load return count).
type TruncatedError struct {
	count int
}

func newTruncatedError(count int) *TruncatedError {
	return &TruncatedError{count: count}
}

// Count returns the frame count described on TruncatedError,
// Options.Skip included.
func (e *TruncatedError) Count() int {
	return e.count
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("gifload: input truncated after %d frame(s)", e.count)
}

func (e *TruncatedError) Unwrap() error {
	return ErrTruncated
}
