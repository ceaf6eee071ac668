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
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Link defines the byte-level UART connection to the target.
// This can be implemented by a serial port or by a simulated target.
type Link interface {
	// Open opens (or reconfigures) the link at the given baud rate
	Open(baudRate int) error

	// Close closes the link. Closing a closed link is not an error.
	Close() error

	// Write transmits p
	Write(p []byte) (int, error)

	// Read reads received bytes. It returns 0 and a nil error when nothing
	// arrived within the link's poll interval.
	Read(p []byte) (int, error)

	// Drain blocks until every written byte has left the transmitter
	Drain() error

	// ResetInputBuffer discards received bytes that were not read yet
	ResetInputBuffer() error
}

// OutputPin is a digital output driving one of the target's control lines.
// periph.io gpio.PinOut implementations satisfy it.
type OutputPin interface {
	Out(l gpio.Level) error
}

// Clock is the time source used for bring-up delays and response deadlines
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// Hardware bundles everything a Driver exclusively owns. Each Driver
// needs its own Hardware; nothing here is shared between instances.
type Hardware struct {
	// Link is the UART connected to the target's TOOL0 line
	Link Link
	// Reset drives the target's RESET input (active low)
	Reset OutputPin
	// FLMD drives the target's FLMD0 input (high selects flash programming)
	FLMD OutputPin
	// Clock defaults to the system clock when nil
	Clock Clock
}

// SystemClock is the wall-clock implementation of Clock
type SystemClock struct{}

// Now returns the current monotonic time
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Sleep pauses the calling goroutine for d
func (SystemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
