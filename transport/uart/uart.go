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

// Package uart provides the serial port link to a 78K0R bootloader
package uart

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
	"periph.io/x/conn/v3/gpio"
)

// DefaultPollInterval bounds how long a single Read waits for data
const DefaultPollInterval = 5 * time.Millisecond

// ErrNotOpen is returned for I/O on a closed transport
var ErrNotOpen = errors.New("serial port is not open")

// openFunc opens a serial port; replaced in tests
type openFunc func(name string, mode *serial.Mode) (serial.Port, error)

// OutputPin is a digital output such as a periph.io gpio.PinOut
type OutputPin interface {
	Out(l gpio.Level) error
}

// Transport is a serial port link to the target's TOOL0 line. It implements
// the k0risp Link and LineController interfaces.
type Transport struct {
	port         serial.Port
	driverEnable OutputPin
	open         openFunc
	portName     string
	pollInterval time.Duration
	baudRate     int
	mu           sync.Mutex
}

// Option configures a Transport
type Option func(*Transport)

// WithPollInterval sets the read timeout applied to the port
func WithPollInterval(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.pollInterval = d
		}
	}
}

// WithDriverEnable sets a pin that enables the line driver while a frame is
// transmitted, for RS-485 style or single-wire wiring.
func WithDriverEnable(pin OutputPin) Option {
	return func(t *Transport) {
		t.driverEnable = pin
	}
}

// New creates a transport for portName. The port is not opened until Open.
func New(portName string, opts ...Option) *Transport {
	t := &Transport{
		portName:     portName,
		pollInterval: DefaultPollInterval,
		open:         serial.Open,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// PortName returns the configured serial port name
func (t *Transport) PortName() string {
	return t.portName
}

// BaudRate returns the baud rate of the last Open
func (t *Transport) BaudRate() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.baudRate
}

// IsOpen reports whether the port is open
func (t *Transport) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil
}

func mode(baudRate int) *serial.Mode {
	return &serial.Mode{
		BaudRate: baudRate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
}

// Open opens the port at baudRate with 8N1 framing. An open port is
// reconfigured instead.
func (t *Transport) Open(baudRate int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.openLocked(baudRate)
}

func (t *Transport) openLocked(baudRate int) error {
	if t.port != nil {
		if err := t.port.SetMode(mode(baudRate)); err != nil {
			return fmt.Errorf("failed to set baud rate %d on %s: %w", baudRate, t.portName, err)
		}
		t.baudRate = baudRate
		return nil
	}

	port, err := t.open(t.portName, mode(baudRate))
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", t.portName, err)
	}
	if err := port.SetReadTimeout(t.pollInterval); err != nil {
		_ = port.Close()
		return fmt.Errorf("failed to set read timeout: %w", err)
	}

	t.port = port
	t.baudRate = baudRate
	return nil
}

// Close closes the port. Closing a closed transport is a no-op.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	if err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}
	return nil
}

// Write transmits p
func (t *Transport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return 0, ErrNotOpen
	}

	n, err := t.port.Write(p)
	if err != nil {
		return n, fmt.Errorf("serial write failed: %w", err)
	}
	return n, nil
}

// Read reads available bytes, returning 0 and nil after the poll interval
// when nothing arrived
func (t *Transport) Read(p []byte) (int, error) {
	t.mu.Lock()
	port := t.port
	t.mu.Unlock()
	if port == nil {
		return 0, ErrNotOpen
	}

	n, err := port.Read(p)
	if err != nil {
		return n, fmt.Errorf("serial read failed: %w", err)
	}
	return n, nil
}

// Drain waits until all written bytes have been transmitted
func (t *Transport) Drain() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return ErrNotOpen
	}
	return t.port.Drain()
}

// ResetInputBuffer discards unread received bytes
func (t *Transport) ResetInputBuffer() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return ErrNotOpen
	}
	return t.port.ResetInputBuffer()
}

// AcquireLine enables the line driver before a transmission
func (t *Transport) AcquireLine() error {
	if t.driverEnable == nil {
		return nil
	}
	return t.driverEnable.Out(gpio.High)
}

// ReleaseLine disables the line driver so the target can answer
func (t *Transport) ReleaseLine() error {
	if t.driverEnable == nil {
		return nil
	}
	return t.driverEnable.Out(gpio.Low)
}

// ModemLine selects a modem control output of the serial port
type ModemLine int

const (
	// DTR is the data terminal ready output
	DTR ModemLine = iota
	// RTS is the request to send output
	RTS
)

// String returns the line name
func (l ModemLine) String() string {
	if l == RTS {
		return "RTS"
	}
	return "DTR"
}

// ModemPin drives one of the target's control inputs from a modem control
// line of the same serial port, the usual wiring for USB serial adapters.
//
// The control lines are only valid while the port is open, so Out opens the
// port at the last used baud rate (or 9600) when needed. A pin driven after
// Close reopens the port; callers that want it closed drive their pins
// first, as Driver.End does.
type ModemPin struct {
	t    *Transport
	line ModemLine
	// inverted makes gpio.High clear the line. TTL adapters output a low
	// level while DTR or RTS is asserted.
	inverted bool
}

// ModemPin returns an output pin backed by line. With inverted set,
// gpio.High deasserts the line.
func (t *Transport) ModemPin(line ModemLine, inverted bool) *ModemPin {
	return &ModemPin{t: t, line: line, inverted: inverted}
}

// Out sets the line level
func (p *ModemPin) Out(l gpio.Level) error {
	p.t.mu.Lock()
	defer p.t.mu.Unlock()

	if p.t.port == nil {
		baud := p.t.baudRate
		if baud == 0 {
			baud = 9600
		}
		if err := p.t.openLocked(baud); err != nil {
			return err
		}
	}

	asserted := bool(l)
	if p.inverted {
		asserted = !asserted
	}

	var err error
	if p.line == RTS {
		err = p.t.port.SetRTS(asserted)
	} else {
		err = p.t.port.SetDTR(asserted)
	}
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", p.line, err)
	}
	return nil
}

// String returns the pin description
func (p *ModemPin) String() string {
	if p.inverted {
		return p.line.String() + " (inverted)"
	}
	return p.line.String()
}
