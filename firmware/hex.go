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

// Package firmware loads Intel HEX files into flash images.
package firmware

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Erased is the value of an erased flash byte
const Erased = 0xFF

// Record types
const (
	recordData           = 0x00
	recordEOF            = 0x01
	recordExtSegment     = 0x02
	recordStartSegment   = 0x03
	recordExtLinear      = 0x04
	recordStartLinear    = 0x05
	minRecordLength      = 5 // count, address (2), type, checksum
	maxLineLength        = 1 + 2*(minRecordLength+255)
	segmentAddressFactor = 16
)

// Parse errors
var (
	ErrSyntax       = errors.New("malformed hex record")
	ErrChecksum     = errors.New("hex record checksum mismatch")
	ErrRecordType   = errors.New("unsupported hex record type")
	ErrMissingEOF   = errors.New("missing end of file record")
	ErrOutsideFlash = errors.New("data outside flash")
	ErrFlashSize    = errors.New("flash size must be positive")
)

// Image is a complete flash image. Bytes not defined by the file are erased.
type Image struct {
	// Data holds one byte per flash address
	Data []byte
	// End is one past the highest address written by the file
	End uint32
	// DataBytes counts the bytes defined by data records
	DataBytes int
}

// Size returns the image size in bytes
func (img *Image) Size() uint32 {
	return uint32(len(img.Data))
}

// IsBlank reports whether every byte from start to start+length-1 is erased
func (img *Image) IsBlank(start, length uint32) bool {
	if start >= img.Size() {
		return true
	}
	end := start + length
	if end > img.Size() || end < start {
		end = img.Size()
	}
	for _, b := range img.Data[start:end] {
		if b != Erased {
			return false
		}
	}
	return true
}

// Load reads an Intel HEX file into an image of flashSize bytes
func Load(path string, flashSize uint32) (*Image, error) {
	f, err := os.Open(path) //nolint:gosec // path is chosen by the user
	if err != nil {
		return nil, fmt.Errorf("failed to open firmware: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, err := Parse(f, flashSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Parse reads Intel HEX records from r into an image of flashSize bytes
func Parse(r io.Reader, flashSize uint32) (*Image, error) {
	if flashSize == 0 {
		return nil, ErrFlashSize
	}

	img := &Image{Data: make([]byte, flashSize)}
	for i := range img.Data {
		img.Data[i] = Erased
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, maxLineLength+2), maxLineLength+2)

	var base uint32
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		rec, err := decodeRecord(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		switch rec.kind {
		case recordData:
			if err := img.store(base+uint32(rec.address), rec.data); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		case recordEOF:
			return img, nil
		case recordExtSegment, recordExtLinear:
			if len(rec.data) != 2 {
				return nil, fmt.Errorf("line %d: %w: address record length %d", line, ErrSyntax, len(rec.data))
			}
			value := uint32(rec.data[0])<<8 | uint32(rec.data[1])
			if rec.kind == recordExtSegment {
				base = value * segmentAddressFactor
			} else {
				base = value << 16
			}
		case recordStartSegment, recordStartLinear:
			// Entry points mean nothing to the bootloader
		default:
			return nil, fmt.Errorf("line %d: %w 0x%02X", line, ErrRecordType, rec.kind)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read firmware: %w", err)
	}

	return nil, ErrMissingEOF
}

func (img *Image) store(address uint32, data []byte) error {
	end := uint64(address) + uint64(len(data))
	if end > uint64(len(img.Data)) {
		return fmt.Errorf("%w: 0x%X-0x%X exceeds %d bytes",
			ErrOutsideFlash, address, end-1, len(img.Data))
	}

	copy(img.Data[address:], data)
	img.DataBytes += len(data)
	if uint32(end) > img.End {
		img.End = uint32(end)
	}
	return nil
}

type record struct {
	data    []byte
	address uint16
	kind    byte
}

// decodeRecord parses one ":LLAAAATT<data>CC" line
func decodeRecord(text string) (record, error) {
	if text[0] != ':' {
		return record{}, fmt.Errorf("%w: missing start code", ErrSyntax)
	}

	raw, err := hex.DecodeString(text[1:])
	if err != nil {
		return record{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if len(raw) < minRecordLength || len(raw) != int(raw[0])+minRecordLength {
		return record{}, fmt.Errorf("%w: length mismatch", ErrSyntax)
	}

	var sum byte
	for _, b := range raw {
		sum += b
	}
	if sum != 0 {
		return record{}, ErrChecksum
	}

	return record{
		address: uint16(raw[1])<<8 | uint16(raw[2]),
		kind:    raw[3],
		data:    raw[4 : len(raw)-1],
	}, nil
}
