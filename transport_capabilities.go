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

// LineController is implemented by links whose transmit line is shared with
// the receive line (single-wire or driver-enable wiring). The driver acquires
// the line before sending a frame and releases it once the frame has been
// drained, so the target can answer on a free line.
type LineController interface {
	AcquireLine() error
	ReleaseLine() error
}

// acquireLine enables the transmitter when the link supports turnaround
func (d *Driver) acquireLine() error {
	if lc, ok := d.link.(LineController); ok {
		return lc.AcquireLine()
	}
	return nil
}

// releaseLine yields the line when the link supports turnaround
func (d *Driver) releaseLine() error {
	if lc, ok := d.link.(LineController); ok {
		return lc.ReleaseLine()
	}
	return nil
}
