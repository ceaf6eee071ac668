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

// Package pins opens host GPIO lines used to drive the target's RESET and
// FLMD0 inputs.
package pins

import (
	"errors"
	"fmt"
	"strings"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// ErrPinNotFound is returned when no GPIO line matches the requested name
var ErrPinNotFound = errors.New("gpio pin not found")

// Open initializes the periph host drivers and returns the named pin,
// e.g. "GPIO17" on a Raspberry Pi.
func Open(name string) (gpio.PinIO, error) {
	return lookup(name, func() error {
		_, err := host.Init()
		return err
	}, gpioreg.ByName)
}

func lookup(name string, initHost func() error, byName func(string) gpio.PinIO) (gpio.PinIO, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrPinNotFound)
	}
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	pin := byName(name)
	if pin == nil {
		return nil, fmt.Errorf("%w: %s", ErrPinNotFound, name)
	}
	return pin, nil
}

// Output is the subset of gpio.PinOut the driver needs
type Output interface {
	Out(l gpio.Level) error
}

// inverted flips every level written to the wrapped pin
type inverted struct {
	pin Output
}

// Invert returns a pin that writes the opposite level to pin, for wiring
// through an inverting transistor or buffer.
func Invert(pin Output) Output {
	return inverted{pin: pin}
}

// Out writes the inverted level
func (p inverted) Out(l gpio.Level) error {
	return p.pin.Out(!l)
}
