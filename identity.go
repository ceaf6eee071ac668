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

package k0risp

import (
	"bytes"
	"fmt"
	"strings"
)

// DeviceIDLength is the size of the device name field in the silicon
// signature.
const DeviceIDLength = 10

// Identity is the device information read from the silicon signature.
type Identity struct {
	FlashSize uint32
	DeviceID  [DeviceIDLength]byte
}

// Name returns the device id as a string with padding removed.
func (i Identity) Name() string {
	id := bytes.TrimRight(i.DeviceID[:], "\x00")
	return strings.TrimSpace(string(id))
}

// String returns a human readable representation of the identity
func (i Identity) String() string {
	return fmt.Sprintf("%s (%d bytes flash)", i.Name(), i.FlashSize)
}

// signatureLayout describes one observed shape of the silicon signature
// response. Offsets index the raw frame, where offset 0 is the start marker.
type signatureLayout struct {
	name            string
	frameLength     int
	flashSizeOffset int
	deviceIDOffset  int
}

// signatureLayouts lists the accepted signature response shapes. Some parts
// (e.g. 79F9211) answer with 31 bytes instead of the documented 28, with
// every field shifted by one.
var signatureLayouts = []signatureLayout{
	{name: "standard", frameLength: 28, flashSizeOffset: 7, deviceIDOffset: 10},
	{name: "extended", frameLength: 31, flashSizeOffset: 8, deviceIDOffset: 11},
}

// layoutFor selects the signature layout matching a raw response length
func layoutFor(length int) (signatureLayout, bool) {
	for _, layout := range signatureLayouts {
		if layout.frameLength == length {
			return layout, true
		}
	}
	return signatureLayout{}, false
}

// parse extracts the identity using the layout's field offsets. The flash
// size field holds the last flash address, low byte first.
func (l signatureLayout) parse(raw []byte) Identity {
	off := l.flashSizeOffset
	lastAddress := uint32(raw[off+2])<<16 | uint32(raw[off+1])<<8 | uint32(raw[off])

	var id Identity
	id.FlashSize = lastAddress + 1
	copy(id.DeviceID[:], raw[l.deviceIDOffset:l.deviceIDOffset+DeviceIDLength])
	return id
}

// parseSignature parses a complete silicon signature response frame
func parseSignature(raw []byte) (Identity, string, error) {
	layout, ok := layoutFor(len(raw))
	if !ok {
		return Identity{}, "", fmt.Errorf("unexpected signature length %d", len(raw))
	}
	return layout.parse(raw), layout.name, nil
}
