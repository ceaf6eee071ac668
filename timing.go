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

import "time"

// BlockSize is the flash block size used to scale erase and verify
// deadlines. It is not visible on the wire.
const BlockSize = 1024

// MaxChunkSize is the largest data chunk a single write frame may carry
const MaxChunkSize = 256

// InitialBaudRate is the fixed baud rate the bootloader starts with
const InitialBaudRate = 9600

// Response deadlines (datasheet worst case values)
const (
	// DefaultTimeout applies when nothing more specific is known
	DefaultTimeout = 3000 * time.Millisecond

	// EraseBaseTimeout and EraseBlockTimeout make up the chip erase deadline
	EraseBaseTimeout  = 1112 * time.Millisecond
	EraseBlockTimeout = 141 * time.Millisecond

	// WriteChunkTimeout covers one data chunk acknowledgement. The documented
	// value is 47.2ms, which is too short at the initial baud rate.
	WriteChunkTimeout = 100 * time.Millisecond

	// VerifyBlockTimeout is the post-write verify time per block
	VerifyBlockTimeout = 860 * time.Millisecond

	// FrameGuard is the minimum gap after a response before the next command
	FrameGuard = 145 * time.Microsecond
)

// EraseTimeout returns the chip erase deadline for a flash of flashSize bytes
func EraseTimeout(flashSize uint32) time.Duration {
	return EraseBaseTimeout + EraseBlockTimeout*time.Duration(flashSize/BlockSize)
}

// VerifyTimeout returns the post-write verify deadline for a write session
// declared from start to end. Spans shorter than a block still get one
// block of verify time.
func VerifyTimeout(start, end uint32) time.Duration {
	return VerifyBlockTimeout * time.Duration(blockCount(start, end))
}

// blockCount returns the number of whole blocks spanned by a write session,
// at least one
func blockCount(start, end uint32) uint32 {
	if end < start || end-start < BlockSize {
		return 1
	}
	return (end - start) / BlockSize
}
