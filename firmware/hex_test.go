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

package firmware

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rec formats an Intel HEX record with a valid checksum
func rec(address uint16, kind byte, data ...byte) string {
	raw := []byte{byte(len(data)), byte(address >> 8), byte(address), kind}
	raw = append(raw, data...)
	var sum byte
	for _, b := range raw {
		sum += b
	}
	raw = append(raw, ^sum+1)
	return fmt.Sprintf(":%X", raw)
}

func hexFile(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func TestRecordHelper(t *testing.T) {
	t.Parallel()

	// Well known record from the format description
	assert.Equal(t, ":00000001FF", rec(0, recordEOF))
}

func TestParse(t *testing.T) {
	t.Parallel()

	input := hexFile(
		rec(0x0000, recordData, 0x01, 0x02, 0x03, 0x04),
		"",
		rec(0x0010, recordData, 0xAA, 0xBB),
		rec(0x0000, recordStartLinear, 0x00, 0x00, 0x00, 0xD8),
		rec(0x0000, recordEOF),
	)

	img, err := Parse(strings.NewReader(input), 0x40)
	require.NoError(t, err)

	assert.Equal(t, uint32(0x40), img.Size())
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0xFF}, img.Data[:5])
	assert.Equal(t, []byte{0xAA, 0xBB}, img.Data[0x10:0x12])
	assert.Equal(t, byte(Erased), img.Data[0x3F])
	assert.Equal(t, uint32(0x12), img.End)
	assert.Equal(t, 6, img.DataBytes)
}

func TestParse_ExtendedAddresses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		base    string
		address uint32
	}{
		{name: "Linear", base: rec(0, recordExtLinear, 0x00, 0x01), address: 0x10020},
		{name: "Segment", base: rec(0, recordExtSegment, 0x10, 0x00), address: 0x10020},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			input := hexFile(tt.base, rec(0x0020, recordData, 0x5A), rec(0, recordEOF))
			img, err := Parse(strings.NewReader(input), 0x20000)
			require.NoError(t, err)
			assert.Equal(t, byte(0x5A), img.Data[tt.address])
			assert.Equal(t, tt.address+1, img.End)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	good := rec(0, recordData, 0x01)
	badSum := good[:len(good)-2] + "00"

	tests := []struct {
		want  error
		name  string
		input string
	}{
		{name: "Checksum", input: hexFile(badSum, rec(0, recordEOF)), want: ErrChecksum},
		{name: "No_Start_Code", input: hexFile("0100000001FE"), want: ErrSyntax},
		{name: "Not_Hex", input: hexFile(":01000000ZZFE"), want: ErrSyntax},
		{name: "Length_Mismatch", input: hexFile(":0200000001FD"), want: ErrSyntax},
		{name: "Unknown_Type", input: hexFile(rec(0, 0x06), rec(0, recordEOF)), want: ErrRecordType},
		{name: "Missing_EOF", input: hexFile(good), want: ErrMissingEOF},
		{name: "Empty_File", input: "", want: ErrMissingEOF},
		{
			name:  "Beyond_Flash",
			input: hexFile(rec(0x003E, recordData, 1, 2, 3), rec(0, recordEOF)),
			want:  ErrOutsideFlash,
		},
		{
			name:  "Bad_Address_Record",
			input: hexFile(rec(0, recordExtLinear, 0x01), rec(0, recordEOF)),
			want:  ErrSyntax,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			img, err := Parse(strings.NewReader(tt.input), 0x40)
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, img)
		})
	}
}

func TestParse_ZeroFlash(t *testing.T) {
	t.Parallel()

	_, err := Parse(strings.NewReader(hexFile(rec(0, recordEOF))), 0)
	require.ErrorIs(t, err, ErrFlashSize)
}

func TestParse_StopsAtEOF(t *testing.T) {
	t.Parallel()

	input := hexFile(rec(0, recordEOF), "garbage after end")
	img, err := Parse(strings.NewReader(input), 0x40)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{Erased}, 0x40), img.Data)
}

func TestImage_IsBlank(t *testing.T) {
	t.Parallel()

	input := hexFile(rec(0x0404, recordData, 0x00), rec(0, recordEOF))
	img, err := Parse(strings.NewReader(input), 0x1000)
	require.NoError(t, err)

	assert.True(t, img.IsBlank(0, 0x400))
	assert.False(t, img.IsBlank(0x400, 0x400))
	assert.True(t, img.IsBlank(0xC00, 0x800), "range is clipped to the image")
	assert.True(t, img.IsBlank(0x2000, 0x400))
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "app.hex")
	content := hexFile(rec(0, recordData, 0xDE, 0xAD), rec(0, recordEOF))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	img, err := Load(path, 0x100)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xDE, 0xAD}, img.Data[:2])

	_, err = Load(filepath.Join(dir, "missing.hex"), 0x100)
	require.Error(t, err)
}
