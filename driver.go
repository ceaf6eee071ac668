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

	"github.com/ZaparooProject/go-k0risp/internal/frame"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
)

// State is the programming session state of a Driver
type State int

const (
	// StateIdle means no device is identified (initial state and after End)
	StateIdle State = iota
	// StateIdentified means Begin succeeded and the identity is known
	StateIdentified
	// StateWriteOpen means a write session is in progress
	StateWriteOpen
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateIdentified:
		return "identified"
	case StateWriteOpen:
		return "write open"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// writeSession tracks an open write session
type writeSession struct {
	// remaining counts bytes still expected; it may go negative when the
	// final chunk overshoots the declared span
	remaining int64
	verify    time.Duration
}

// Driver programs the flash of a 78K0R microcontroller through its
// bootloader.
//
// Thread Safety: Driver is NOT thread-safe. The protocol is strictly
// half-duplex and every method blocks until its exchange completes or times
// out. Use one Driver per physical link from a single goroutine.
type Driver struct {
	link     Link
	reset    OutputPin
	flmd     OutputPin
	clock    Clock
	log      logrus.FieldLogger
	config   *Config
	decoder  *frame.Decoder
	session  writeSession
	identity Identity
	state    State
}

// New creates a Driver owning the given hardware. The control pins are
// driven high so the target keeps running until Begin is called.
func New(hw Hardware, opts ...Option) (*Driver, error) {
	if hw.Link == nil || hw.Reset == nil || hw.FLMD == nil {
		return nil, ErrNilHardware
	}

	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	clock := hw.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	d := &Driver{
		link:    hw.Link,
		reset:   hw.Reset,
		flmd:    hw.FLMD,
		clock:   clock,
		log:     config.Logger,
		config:  config,
		decoder: frame.NewDecoder(frame.ReceiveCapacity),
		state:   StateIdle,
	}

	if err := d.flmd.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("failed to initialize flmd pin: %w", err)
	}
	if err := d.reset.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("failed to initialize reset pin: %w", err)
	}

	return d, nil
}

// State returns the current session state
func (d *Driver) State() State {
	return d.state
}

// Identity returns the identity read by Begin. ok is false until a Begin
// succeeds.
func (d *Driver) Identity() (id Identity, ok bool) {
	return d.identity, d.state != StateIdle
}

// FlashSize returns the flash size in bytes, or 0 when not identified
func (d *Driver) FlashSize() uint32 {
	return d.identity.FlashSize
}

// DeviceID returns the device name with NUL and space padding
// stripped, or an empty string when not identified. Identity().DeviceID
// holds the raw 10-byte field.
func (d *Driver) DeviceID() string {
	return d.identity.Name()
}

// clear forgets the identity and any open write session
func (d *Driver) clear() {
	d.identity = Identity{}
	d.session = writeSession{}
	d.state = StateIdle
}

// Begin resets the target into flash programming mode and reads its
// silicon signature. On success the Driver is identified.
func (d *Driver) Begin() error {
	const op = "Begin"
	d.clear()

	if err := d.resetAndBringUp(); err != nil {
		return timeoutError(op, err)
	}

	if err := d.command("Reset", []byte{cmdReset}, DefaultTimeout); err != nil {
		if d.config.StrictReset {
			return err
		}
		d.log.WithError(err).Warn("reset not acknowledged, continuing with identification")
	}

	d.clock.Sleep(resetSettleDelay)
	d.clock.Sleep(identifyDelay)

	id, err := d.identify()
	if err != nil {
		return err
	}

	d.identity = id
	d.state = StateIdentified
	return nil
}

// identify sends the silicon signature command and parses the data frame
// that follows its status
func (d *Driver) identify() (Identity, error) {
	const op = "Identify"

	if err := d.command(op, []byte{cmdSignature}, DefaultTimeout); err != nil {
		return Identity{}, err
	}

	raw, err := d.receive(DefaultTimeout)
	if err != nil {
		return Identity{}, timeoutError(op, err)
	}

	id, layout, err := parseSignature(raw)
	if err != nil {
		return Identity{}, timeoutError(op, err)
	}

	d.log.WithFields(logrus.Fields{
		"device":     id.Name(),
		"flash_size": id.FlashSize,
		"layout":     layout,
	}).Info("device identified")
	return id, nil
}

// End closes the link and releases the target into normal run mode. The
// Driver always returns to the idle state.
func (d *Driver) End() error {
	d.clear()
	if err := d.leaveProgramMode(); err != nil {
		return fmt.Errorf("failed to leave programming mode: %w", err)
	}
	return nil
}

// requireIdentified checks that op may start a new exchange
func (d *Driver) requireIdentified(op string) error {
	switch d.state {
	case StateIdentified:
		return nil
	case StateWriteOpen:
		return stateError(op, ErrWriteSessionOpen)
	default:
		return stateError(op, ErrNotIdentified)
	}
}

// EraseFlash erases the whole flash. The deadline scales with the flash
// size reported by the signature.
func (d *Driver) EraseFlash() error {
	const op = "EraseFlash"
	if err := d.requireIdentified(op); err != nil {
		return err
	}
	return d.command(op, []byte{cmdChipErase}, EraseTimeout(d.identity.FlashSize))
}

// BeginWrite opens a write session covering start to end. Both addresses
// are sent as 24-bit big-endian values.
func (d *Driver) BeginWrite(start, end uint32) error {
	const op = "BeginWrite"
	if err := d.requireIdentified(op); err != nil {
		return err
	}
	if end < start {
		return newError(op, ResultInvalidParameter, ErrInvalidRange)
	}
	if end > 0xFFFFFF {
		return newError(op, ResultInvalidParameter, fmt.Errorf("address 0x%X exceeds 24 bits", end))
	}

	cmd := []byte{
		cmdWriteBegin,
		byte(start >> 16), byte(start >> 8), byte(start),
		byte(end >> 16), byte(end >> 8), byte(end),
	}
	if err := d.command(op, cmd, DefaultTimeout); err != nil {
		return err
	}

	d.session = writeSession{
		remaining: int64(end - start),
		verify:    VerifyTimeout(start, end),
	}
	d.state = StateWriteOpen
	return nil
}

// WriteFlash sends one data chunk of at most 256 bytes. The chunk that
// exhausts the declared span is sent as the final frame. The session stays
// open whatever the outcome.
func (d *Driver) WriteFlash(data []byte) error {
	const op = "WriteFlash"
	if d.state != StateWriteOpen {
		return stateError(op, ErrNoWriteSession)
	}
	if len(data) > MaxChunkSize {
		return newError(op, ResultInvalidParameter, ErrChunkTooLarge)
	}
	if len(data) == 0 {
		return newError(op, ResultInvalidParameter, ErrEmptyChunk)
	}

	d.session.remaining -= int64(len(data))
	final := d.session.remaining <= 0

	d.log.WithFields(logrus.Fields{
		"op":        op,
		"bytes":     len(data),
		"remaining": d.session.remaining,
		"final":     final,
	}).Debug("sending data chunk")

	if err := d.sendFrame(frame.STX, data, final); err != nil {
		return timeoutError(op, err)
	}
	return d.readDualStatus(op, WriteChunkTimeout)
}

// EndWrite waits for the verify result the target sends after the final
// chunk and closes the write session.
func (d *Driver) EndWrite() error {
	const op = "EndWrite"
	if d.state != StateWriteOpen {
		return stateError(op, ErrNoWriteSession)
	}

	timeout := d.session.verify
	d.session = writeSession{}
	d.state = StateIdentified
	return d.readStatus(op, timeout)
}
