// go-k0risp
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-k0risp.
//
// go-k0risp is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-k0risp is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-k0risp; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package frame

import (
	"errors"
	"fmt"
)

// ErrFrameTooLong is reported when a response declares more payload than the
// receive buffer holds.
var ErrFrameTooLong = errors.New("frame exceeds receive buffer")

// Decoder assembles a response frame one byte at a time.
//
// The first mismatch marks the frame invalid, but the decoder keeps counting
// bytes until the length declared in the frame header (or the buffer capacity
// when no header was seen) is consumed, so a receive loop always has a bound.
type Decoder struct {
	err    error
	buf    []byte
	n      int
	length int
}

// NewDecoder creates a decoder whose scratch buffer holds payloads of up to
// capacity bytes.
func NewDecoder(capacity int) *Decoder {
	d := &Decoder{buf: make([]byte, capacity+Overhead)}
	d.Reset()
	return d
}

// Reset discards any partially received frame.
func (d *Decoder) Reset() {
	d.err = nil
	d.n = 0
	d.length = -1
}

// expected returns the number of bytes the current frame occupies.
func (d *Decoder) expected() int {
	if d.length < 0 {
		return len(d.buf)
	}
	return d.length + Overhead
}

// Done reports whether all bytes of the current frame have been consumed.
func (d *Decoder) Done() bool {
	return d.n >= d.expected()
}

// Len returns the number of bytes consumed so far.
func (d *Decoder) Len() int {
	return d.n
}

// Feed consumes one received byte and reports whether the frame is complete.
func (d *Decoder) Feed(b byte) bool {
	if d.Done() {
		return true
	}

	i := d.n
	if i < len(d.buf) {
		d.buf[i] = b
	}
	d.n++

	if d.err != nil {
		return d.Done()
	}

	switch {
	case i == 0:
		if b != STX {
			d.err = fmt.Errorf("%w: 0x%02X", ErrStartMarker, b)
		}
	case i == 1:
		d.length = int(b)
		if d.length+Overhead > len(d.buf) {
			d.err = fmt.Errorf("%w: %d bytes", ErrFrameTooLong, d.length)
		}
	case i == d.length+2:
		if sum := Checksum(d.buf[2 : 2+d.length]); b != sum {
			d.err = fmt.Errorf("%w: got 0x%02X, want 0x%02X", ErrChecksum, b, sum)
		}
	case i == d.length+3:
		if b != ETX && b != ETB {
			d.err = fmt.Errorf("%w: 0x%02X", ErrEndMarker, b)
		}
	}

	return d.Done()
}

// Frame returns the assembled frame, or the first error seen while decoding.
func (d *Decoder) Frame() (Frame, error) {
	if d.err != nil {
		return Frame{}, d.err
	}
	if !d.Done() || d.length < 0 {
		return Frame{}, ErrShortFrame
	}
	return Frame{
		Start:   d.buf[0],
		Payload: append([]byte(nil), d.buf[2:2+d.length]...),
		End:     d.buf[d.length+3],
	}, nil
}

// Bytes returns a copy of the raw bytes received for the current frame.
func (d *Decoder) Bytes() []byte {
	n := d.n
	if n > len(d.buf) {
		n = len(d.buf)
	}
	return append([]byte(nil), d.buf[:n]...)
}
