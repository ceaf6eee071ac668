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
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-k0risp/internal/frame"
	"github.com/ZaparooProject/go-k0risp/internal/transport"
	"github.com/sirupsen/logrus"
)

// Command codes
const (
	cmdReset      = 0x00
	cmdChipErase  = 0x20
	cmdWriteBegin = 0x40
	cmdSignature  = 0xC0
)

// Response frame sizes including markers, length and checksum
const (
	statusFrameLength     = 5 // STX LEN ST1 SUM ETX
	dualStatusFrameLength = 6 // STX LEN ST1 ST2 SUM ETX
)

// writeRaw transmits p with the line acquired for the duration of the write
func (d *Driver) writeRaw(p []byte) error {
	if err := d.acquireLine(); err != nil {
		return fmt.Errorf("failed to acquire line: %w", err)
	}

	_, werr := d.link.Write(p)
	if werr == nil {
		werr = d.link.Drain()
	}

	// Always yield the line, even after a failed write
	if err := d.releaseLine(); err != nil && werr == nil {
		werr = fmt.Errorf("failed to release line: %w", err)
	}
	return werr
}

// sendFrame encodes and transmits one frame, then discards anything already
// sitting in the receive buffer (stale bytes and local echo)
func (d *Driver) sendFrame(start byte, payload []byte, final bool) error {
	raw, err := frame.Encode(start, payload, final)
	if err != nil {
		return err
	}

	if err := d.writeRaw(raw); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	if err := d.link.ResetInputBuffer(); err != nil {
		return fmt.Errorf("failed to clear receive buffer: %w", err)
	}
	return nil
}

// receive reads one response frame byte by byte until it is complete or
// timeout elapses, then observes the inter-frame guard time
func (d *Driver) receive(timeout time.Duration) ([]byte, error) {
	d.decoder.Reset()

	var one [1]byte
	err := transport.Poll(d.clock, timeout, 0, func() (bool, error) {
		n, err := d.link.Read(one[:])
		if err != nil {
			return false, err
		}
		if n == 0 {
			return false, nil
		}
		return d.decoder.Feed(one[0]), nil
	})

	d.clock.Sleep(FrameGuard)

	if err != nil {
		if errors.Is(err, transport.ErrDeadline) {
			return nil, fmt.Errorf("no complete frame within %v (%d bytes received): %w",
				timeout, d.decoder.Len(), err)
		}
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if _, err := d.decoder.Frame(); err != nil {
		return nil, err
	}
	return d.decoder.Bytes(), nil
}

// command sends a command frame and reads its single status response
func (d *Driver) command(op string, payload []byte, timeout time.Duration) error {
	d.log.WithFields(logrus.Fields{
		"op":      op,
		"command": fmt.Sprintf("0x%02X", payload[0]),
		"timeout": timeout,
	}).Debug("sending command")

	if err := d.sendFrame(frame.SOH, payload, true); err != nil {
		return timeoutError(op, err)
	}
	return d.readStatus(op, timeout)
}

// readStatus reads a single-status response frame
func (d *Driver) readStatus(op string, timeout time.Duration) error {
	raw, err := d.receive(timeout)
	if err != nil {
		return timeoutError(op, err)
	}
	if len(raw) != statusFrameLength {
		return timeoutError(op, fmt.Errorf("unexpected status frame length %d", len(raw)))
	}

	result := Result(raw[2])
	d.log.WithFields(logrus.Fields{"op": op, "status": result}).Debug("status received")
	return statusError(op, result)
}

// readDualStatus reads a data acknowledgement carrying two statuses
func (d *Driver) readDualStatus(op string, timeout time.Duration) error {
	raw, err := d.receive(timeout)
	if err != nil {
		return timeoutError(op, err)
	}
	if len(raw) != dualStatusFrameLength {
		return timeoutError(op, fmt.Errorf("unexpected acknowledgement length %d", len(raw)))
	}

	result := firstFailure(Result(raw[2]), Result(raw[3]))
	d.log.WithFields(logrus.Fields{"op": op, "status": result}).Debug("acknowledgement received")
	return statusError(op, result)
}
