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

package testing

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ZaparooProject/go-k0risp/internal/frame"
)

// ErrPortClosed is returned for I/O on a closed virtual target
var ErrPortClosed = errors.New("virtual target link is closed")

// VirtualTarget simulates a 78K0R bootloader behind a UART link. It
// implements the driver's Link interface.
//
// Responses become readable only on the first Read after the frame that
// caused them, the way a real target answers after the host has cleared
// its receive buffer.
type VirtualTarget struct {
	// ReadErr is returned by Read when set
	ReadErr error
	// Log receives "open", "close" and "tx" events when set
	Log *EventLog

	DeviceID string
	flash    []byte
	txbuf    []byte
	pending  []byte
	rx       []byte
	frames   []frame.Frame

	LastAddress     uint32
	SignatureLength int
	PollInterval    time.Duration
	BaudRate        int
	SyncBytes       int

	writeAddr uint32
	writeEnd  uint32
	mu        sync.Mutex

	ResetStatus      byte
	SignatureStatus  byte
	EraseStatus      byte
	WriteBeginStatus byte
	ChunkStatus      [2]byte
	VerifyStatus     byte

	// Silent drops every response, as if the target were not connected
	Silent bool
	// DropSignatureData answers the signature command without its data frame
	DropSignatureData bool

	open    bool
	writing bool
}

// NewVirtualTarget creates a target that acknowledges every command
func NewVirtualTarget() *VirtualTarget {
	return &VirtualTarget{
		DeviceID:         TestDeviceID,
		LastAddress:      TestLastAddress,
		SignatureLength:  SignatureLength,
		PollInterval:     time.Millisecond,
		ResetStatus:      StatusOK,
		SignatureStatus:  StatusOK,
		EraseStatus:      StatusOK,
		WriteBeginStatus: StatusOK,
		ChunkStatus:      [2]byte{StatusOK, StatusOK},
		VerifyStatus:     StatusOK,
	}
}

// Open opens the virtual link
func (v *VirtualTarget) Open(baudRate int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.open = true
	v.BaudRate = baudRate
	v.Log.Add("open %d", baudRate)
	return nil
}

// Close closes the virtual link and drops buffered data
func (v *VirtualTarget) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.open {
		v.Log.Add("close")
	}
	v.open = false
	v.txbuf = nil
	v.pending = nil
	v.rx = nil
	return nil
}

// IsOpen reports whether the link is open
func (v *VirtualTarget) IsOpen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.open
}

// Write receives bytes from the host and queues the target's answers
func (v *VirtualTarget) Write(p []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.open {
		return 0, ErrPortClosed
	}

	v.Log.Add("tx % X", p)
	v.txbuf = append(v.txbuf, p...)
	v.parse()
	return len(p), nil
}

// Read returns received bytes, or 0 after PollInterval when none are ready
func (v *VirtualTarget) Read(p []byte) (int, error) {
	v.mu.Lock()
	if v.ReadErr != nil {
		v.mu.Unlock()
		return 0, v.ReadErr
	}
	if !v.open {
		v.mu.Unlock()
		return 0, ErrPortClosed
	}
	if len(v.rx) == 0 && len(v.pending) > 0 {
		v.rx = append(v.rx, v.pending...)
		v.pending = nil
	}
	if len(v.rx) == 0 {
		interval := v.PollInterval
		v.mu.Unlock()
		time.Sleep(interval)
		return 0, nil
	}

	n := copy(p, v.rx)
	v.rx = v.rx[n:]
	v.mu.Unlock()
	return n, nil
}

// Drain is a no-op; writes complete immediately
func (*VirtualTarget) Drain() error {
	return nil
}

// ResetInputBuffer discards bytes already delivered to the host side
func (v *VirtualTarget) ResetInputBuffer() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rx = nil
	return nil
}

// Frames returns the frames received from the host
func (v *VirtualTarget) Frames() []frame.Frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]frame.Frame(nil), v.frames...)
}

// Commands returns the command bytes of all received SOH frames
func (v *VirtualTarget) Commands() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	var cmds []byte
	for _, f := range v.frames {
		if f.Start == frame.SOH && len(f.Payload) > 0 {
			cmds = append(cmds, f.Payload[0])
		}
	}
	return cmds
}

// Flash returns a copy of the simulated flash contents
func (v *VirtualTarget) Flash() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ensureFlash()
	return append([]byte(nil), v.flash...)
}

// Inject queues raw bytes for the host to read
func (v *VirtualTarget) Inject(raw []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pending = append(v.pending, raw...)
}

func (v *VirtualTarget) ensureFlash() {
	size := int(v.LastAddress) + 1
	if len(v.flash) == size {
		return
	}
	v.flash = make([]byte, size)
	for i := range v.flash {
		v.flash[i] = 0xFF
	}
}

// respond queues a response unless the target is silent
func (v *VirtualTarget) respond(raw []byte) {
	if v.Silent {
		return
	}
	v.pending = append(v.pending, raw...)
}

// parse consumes complete frames from the transmit buffer
func (v *VirtualTarget) parse() {
	for len(v.txbuf) > 0 {
		start := v.txbuf[0]
		if start != frame.SOH && start != frame.STX {
			if start == 0x00 {
				v.SyncBytes++
			}
			v.txbuf = v.txbuf[1:]
			continue
		}
		if len(v.txbuf) < 2 {
			return
		}

		length := int(v.txbuf[1])
		if start == frame.STX && length == 0 {
			length = frame.MaxPayloadLength
		}
		total := length + frame.Overhead
		if len(v.txbuf) < total {
			return
		}

		raw := v.txbuf[:total]
		v.txbuf = v.txbuf[total:]
		v.handleRaw(start, raw, length)
	}
}

func (v *VirtualTarget) handleRaw(start byte, raw []byte, length int) {
	payload := append([]byte(nil), raw[2:2+length]...)
	frm := frame.Frame{Start: start, Payload: payload, End: raw[len(raw)-1]}
	v.frames = append(v.frames, frm)

	if raw[2+length] != frame.Checksum(payload) {
		if start == frame.STX {
			v.respond(BuildDualStatusFrame(StatusChecksum, StatusChecksum))
		} else {
			v.respond(BuildStatusFrame(StatusChecksum))
		}
		return
	}

	if start == frame.SOH {
		v.handleCommand(payload)
		return
	}
	v.handleData(frm)
}

func (v *VirtualTarget) handleCommand(payload []byte) {
	if len(payload) == 0 {
		v.respond(BuildStatusFrame(StatusInvalidCommand))
		return
	}

	switch payload[0] {
	case CmdReset:
		v.respond(BuildStatusFrame(v.ResetStatus))
	case CmdSignature:
		v.respond(BuildStatusFrame(v.SignatureStatus))
		if v.SignatureStatus == StatusOK && !v.DropSignatureData {
			v.respond(BuildSignatureFrame(v.SignatureLength, v.LastAddress, v.DeviceID))
		}
	case CmdChipErase:
		if v.EraseStatus == StatusOK {
			v.flash = nil
			v.ensureFlash()
		}
		v.respond(BuildStatusFrame(v.EraseStatus))
	case CmdWriteBegin:
		if len(payload) != 7 {
			v.respond(BuildStatusFrame(StatusInvalidParameter))
			return
		}
		if v.WriteBeginStatus == StatusOK {
			v.writeAddr = uint32(payload[1])<<16 | uint32(payload[2])<<8 | uint32(payload[3])
			v.writeEnd = uint32(payload[4])<<16 | uint32(payload[5])<<8 | uint32(payload[6])
			v.writing = true
		}
		v.respond(BuildStatusFrame(v.WriteBeginStatus))
	default:
		v.respond(BuildStatusFrame(StatusInvalidCommand))
	}
}

func (v *VirtualTarget) handleData(frm frame.Frame) {
	if !v.writing {
		v.respond(BuildDualStatusFrame(StatusInvalidCommand, StatusInvalidCommand))
		return
	}

	v.ensureFlash()
	for _, b := range frm.Payload {
		if v.writeAddr <= v.writeEnd && int(v.writeAddr) < len(v.flash) {
			v.flash[v.writeAddr] = b
		}
		v.writeAddr++
	}
	v.respond(BuildDualStatusFrame(v.ChunkStatus[0], v.ChunkStatus[1]))

	if frm.Final() {
		v.writing = false
		v.respond(BuildStatusFrame(v.VerifyStatus))
	}
}

// String describes the target for test output
func (v *VirtualTarget) String() string {
	return fmt.Sprintf("virtual 78K0R %q (last address 0x%06X)", v.DeviceID, v.LastAddress)
}
