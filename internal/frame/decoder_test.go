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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedAll(d *Decoder, raw []byte) int {
	for i, b := range raw {
		if d.Feed(b) {
			return i + 1
		}
	}
	return len(raw)
}

func TestDecoder_StatusFrame(t *testing.T) {
	t.Parallel()

	d := NewDecoder(ReceiveCapacity)
	consumed := feedAll(d, []byte{0x02, 0x01, 0x06, 0xF9, 0x03, 0xAA, 0xBB})

	assert.Equal(t, 5, consumed, "decoder must stop at the declared frame length")
	require.True(t, d.Done())

	frm, err := d.Frame()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x06}, frm.Payload)
	assert.True(t, frm.Final())
}

func TestDecoder_Incomplete(t *testing.T) {
	t.Parallel()

	d := NewDecoder(ReceiveCapacity)
	feedAll(d, []byte{0x02, 0x02, 0x06})

	assert.False(t, d.Done())
	_, err := d.Frame()
	assert.ErrorIs(t, err, ErrShortFrame)
}

func TestDecoder_InvalidKeepsBound(t *testing.T) {
	t.Parallel()

	// Bad checksum: the frame is invalid but the declared length still
	// bounds how many bytes are consumed.
	d := NewDecoder(ReceiveCapacity)
	consumed := feedAll(d, []byte{0x02, 0x01, 0x06, 0x00, 0x03, 0x02})

	assert.Equal(t, 5, consumed)
	_, err := d.Frame()
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestDecoder_BadStartConsumesCapacity(t *testing.T) {
	t.Parallel()

	const capacity = 8
	d := NewDecoder(capacity)

	raw := make([]byte, 32)
	raw[0] = 0x55
	consumed := feedAll(d, raw)

	assert.Equal(t, capacity+Overhead, consumed)
	_, err := d.Frame()
	assert.ErrorIs(t, err, ErrStartMarker)
}

func TestDecoder_TooLong(t *testing.T) {
	t.Parallel()

	d := NewDecoder(4)
	d.Feed(STX)
	d.Feed(0x10)

	_, err := d.Frame()
	assert.ErrorIs(t, err, ErrFrameTooLong)
}

func TestDecoder_Reset(t *testing.T) {
	t.Parallel()

	d := NewDecoder(ReceiveCapacity)
	feedAll(d, []byte{0x02, 0x01, 0x06, 0x00, 0x03})
	d.Reset()

	feedAll(d, []byte{0x02, 0x02, 0x06, 0x1C, 0xDC, 0x03})
	frm, err := d.Frame()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x06, 0x1C}, frm.Payload)
	assert.Equal(t, 6, d.Len())
}
