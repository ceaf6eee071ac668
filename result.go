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

import "fmt"

// Result is a status code reported by the target's flash bootloader.
//
// Result implements error so it can be matched with errors.Is. ResultOK is
// never returned as an error; operations return nil on success.
type Result byte

// Status codes. ResultTimeout is synthesized locally and never appears on
// the wire.
const (
	ResultOK               Result = 0x06
	ResultTimeout          Result = 0x01
	ResultInvalidCommand   Result = 0x04
	ResultInvalidParameter Result = 0x05
	ResultChecksum         Result = 0x07
	ResultVerify           Result = 0x0F
	ResultProtected        Result = 0x10
	ResultNotAccepted      Result = 0x15
	ResultEraseVerify      Result = 0x1A
	ResultInternalVerify   Result = 0x1B
	ResultWrite            Result = 0x1C
	ResultBusy             Result = 0xFF
)

var resultNames = map[Result]string{
	ResultOK:               "ok",
	ResultTimeout:          "timeout",
	ResultInvalidCommand:   "invalid command",
	ResultInvalidParameter: "invalid parameter",
	ResultChecksum:         "checksum error",
	ResultVerify:           "verify error",
	ResultProtected:        "write protected",
	ResultNotAccepted:      "not accepted",
	ResultEraseVerify:      "erase verify error",
	ResultInternalVerify:   "internal verify error",
	ResultWrite:            "write error",
	ResultBusy:             "busy",
}

// String returns a human readable name for the status code
func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("unknown status 0x%02X", byte(r))
}

// Error implements the error interface
func (r Result) Error() string {
	return r.String()
}

// Known reports whether r is one of the defined status codes
func (r Result) Known() bool {
	_, ok := resultNames[r]
	return ok
}

// firstFailure combines the two statuses of a dual-status acknowledgement.
// The first non-OK value wins.
func firstFailure(a, b Result) Result {
	if a != ResultOK {
		return a
	}
	return b
}
