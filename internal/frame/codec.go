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

// Frame errors
var (
	ErrPayloadTooLarge = errors.New("frame payload too large")
	ErrShortFrame      = errors.New("frame truncated")
	ErrStartMarker     = errors.New("invalid frame start marker")
	ErrEndMarker       = errors.New("invalid frame end marker")
	ErrChecksum        = errors.New("frame checksum mismatch")
)

// Frame is a decoded protocol frame.
type Frame struct {
	Payload []byte
	Start   byte
	End     byte
}

// Final reports whether the frame carries the final terminator.
func (f Frame) Final() bool {
	return f.End == ETX
}

// Checksum returns the two's complement of the sum of the length byte and all
// payload bytes, truncated to 8 bits.
func Checksum(payload []byte) byte {
	sum := byte(len(payload))
	for _, b := range payload {
		sum += b
	}
	return ^sum + 1
}

// Encode builds a frame: start, length, payload, checksum, terminator.
// The terminator is ETX when final is set and ETB otherwise.
func Encode(start byte, payload []byte, final bool) ([]byte, error) {
	if len(payload) > MaxPayloadLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}

	end := byte(ETB)
	if final {
		end = ETX
	}

	frm := make([]byte, 0, len(payload)+Overhead)
	frm = append(frm, start, byte(len(payload)))
	frm = append(frm, payload...)
	frm = append(frm, Checksum(payload), end)
	return frm, nil
}

// Decode validates a complete response frame. The length byte is taken
// literally, so only frames of up to 255 payload bytes round-trip.
func Decode(raw []byte) (Frame, error) {
	if len(raw) < Overhead {
		return Frame{}, ErrShortFrame
	}
	if raw[0] != STX && raw[0] != SOH {
		return Frame{}, fmt.Errorf("%w: 0x%02X", ErrStartMarker, raw[0])
	}

	length := int(raw[1])
	if len(raw) < length+Overhead {
		return Frame{}, ErrShortFrame
	}

	payload := raw[2 : 2+length]
	if sum := Checksum(payload); raw[2+length] != sum {
		return Frame{}, fmt.Errorf("%w: got 0x%02X, want 0x%02X", ErrChecksum, raw[2+length], sum)
	}

	end := raw[3+length]
	if end != ETX && end != ETB {
		return Frame{}, fmt.Errorf("%w: 0x%02X", ErrEndMarker, end)
	}

	return Frame{
		Start:   raw[0],
		Payload: append([]byte(nil), payload...),
		End:     end,
	}, nil
}
