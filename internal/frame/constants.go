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

// Package frame provides frame encoding, decoding and protocol constants for
// the 78K0R flash programming UART protocol.
package frame

// Frame markers
const (
	SOH = 0x01 // Start of a command frame (host to target)
	STX = 0x02 // Start of a data or response frame
	ETX = 0x03 // End of a final frame
	ETB = 0x17 // End of a non-final data frame
)

// Frame size limits
const (
	// Overhead is the number of bytes a frame adds around its payload
	// (start marker, length, checksum, end marker).
	Overhead = 4

	// MaxPayloadLength is the largest payload a single frame can carry.
	// A 256-byte data frame is encoded with a length byte of 0x00.
	MaxPayloadLength = 256

	// ReceiveCapacity is the size of the receive scratch buffer. Responses
	// longer than this are never produced by the target.
	ReceiveCapacity = 64
)
