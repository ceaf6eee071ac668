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

package testing

// Status codes as sent by the target
const (
	StatusOK               = 0x06
	StatusInvalidCommand   = 0x04
	StatusInvalidParameter = 0x05
	StatusChecksum         = 0x07
	StatusVerify           = 0x0F
	StatusProtected        = 0x10
	StatusWrite            = 0x1C
	StatusBusy             = 0xFF
)

// Command bytes for reference
const (
	CmdReset      = 0x00
	CmdChipErase  = 0x20
	CmdWriteBegin = 0x40
	CmdSignature  = 0xC0
)

// Signature response lengths
const (
	SignatureLength         = 28
	SignatureLengthExtended = 31
)

// BuildFrame wraps payload in an STX ... ETX response frame
func BuildFrame(payload []byte) []byte {
	frm := []byte{0x02, byte(len(payload))}
	frm = append(frm, payload...)

	sum := byte(len(payload))
	for _, b := range payload {
		sum += b
	}
	return append(frm, ^sum+1, 0x03)
}

// BuildStatusFrame creates a single status response
func BuildStatusFrame(status byte) []byte {
	return BuildFrame([]byte{status})
}

// BuildDualStatusFrame creates a data acknowledgement with two statuses
func BuildDualStatusFrame(first, second byte) []byte {
	return BuildFrame([]byte{first, second})
}

// BuildSignatureFrame creates a silicon signature data frame of the given
// total length (28 or 31). lastAddress is the last flash address, stored
// low byte first; deviceID is padded with spaces to 10 bytes.
func BuildSignatureFrame(length int, lastAddress uint32, deviceID string) []byte {
	payload := make([]byte, length-4)
	payload[0] = 0x10 // vendor code
	payload[1] = 0x7F // id code
	payload[2] = 0x04 // extension code

	// Field offsets in the raw frame are two more than in the payload
	flashOff, idOff := 5, 8
	if length == SignatureLengthExtended {
		flashOff, idOff = 6, 9
	}

	payload[flashOff] = byte(lastAddress)
	payload[flashOff+1] = byte(lastAddress >> 8)
	payload[flashOff+2] = byte(lastAddress >> 16)

	id := []byte(deviceID)
	for i := 0; i < 10; i++ {
		if i < len(id) {
			payload[idOff+i] = id[i]
		} else {
			payload[idOff+i] = ' '
		}
	}

	return BuildFrame(payload)
}

// Common identities for testing
const (
	TestDeviceID    = "ABCDEFGHIJ"
	TestLastAddress = 0x00FFFF // 64 KiB part
)
