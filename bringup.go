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
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Bring-up delays. These follow the device's documented mode entry timing
// and are not adaptive.
const (
	resetSettleDelay = 13 * time.Millisecond
	identifyDelay    = 10 * time.Millisecond
)

// syncByte is sent twice after reset to let the bootloader detect the
// single-wire UART mode
const syncByte = 0x00

// bringUpStep is one action of the programming mode entry sequence followed
// by a fixed delay.
type bringUpStep struct {
	action func(d *Driver) error
	name   string
	delay  time.Duration
}

// bringUpSequence drives the target into flash programming mode: RESET and
// FLMD0 low, FLMD0 high while in reset, open the UART, release RESET, then
// two sync pulses on the serial line.
var bringUpSequence = []bringUpStep{
	{
		name: "hold reset",
		action: func(d *Driver) error {
			if err := d.flmd.Out(gpio.Low); err != nil {
				return err
			}
			return d.reset.Out(gpio.Low)
		},
		delay: 10 * time.Millisecond,
	},
	{
		name:   "select flash mode",
		action: func(d *Driver) error { return d.flmd.Out(gpio.High) },
	},
	{
		name:   "open uart",
		action: func(d *Driver) error { return d.link.Open(InitialBaudRate) },
		delay:  10 * time.Millisecond,
	},
	{
		name:   "release reset",
		action: func(d *Driver) error { return d.reset.Out(gpio.High) },
		delay:  10 * time.Millisecond,
	},
	{
		name:   "sync",
		action: func(d *Driver) error { return d.writeRaw([]byte{syncByte}) },
		delay:  2 * time.Millisecond,
	},
	{
		name:   "sync",
		action: func(d *Driver) error { return d.writeRaw([]byte{syncByte}) },
		delay:  10 * time.Millisecond,
	},
}

// resetAndBringUp runs the mode entry sequence from a closed link
func (d *Driver) resetAndBringUp() error {
	if err := d.link.Close(); err != nil {
		return fmt.Errorf("failed to close link: %w", err)
	}

	for _, step := range bringUpSequence {
		if err := step.action(d); err != nil {
			return fmt.Errorf("bring-up step %q failed: %w", step.name, err)
		}
		if step.delay > 0 {
			d.clock.Sleep(step.delay)
		}
	}
	return nil
}

// leaveProgramMode resets the target with FLMD0 low so it starts the user
// program, then closes the link. Pins backed by modem lines of the link need
// the port open, so the link is closed last.
func (d *Driver) leaveProgramMode() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	keep(d.reset.Out(gpio.Low))
	keep(d.flmd.Out(gpio.Low))
	keep(d.reset.Out(gpio.High))
	keep(d.link.Close())
	return firstErr
}
