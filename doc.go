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

/*
Package k0risp provides a pure Go driver for the flash programming
bootloader of Renesas 78K0R microcontrollers.

The bootloader is entered by holding FLMD0 high while the target leaves
reset. It then talks a half-duplex framed protocol over a single-wire UART
(TOOL0) at 9600 baud. This package drives the control lines, runs the mode
entry sequence and exposes the flash commands needed to program a device.

Features:
  - Programming mode entry over any serial port plus two output pins
  - Silicon signature decoding (device name and flash size)
  - Chip erase with a deadline scaled to the flash size
  - Block writes in chunks of up to 256 bytes with verification
  - Every failure maps to exactly one Result code

Basic Usage:

	import (
	    "github.com/ZaparooProject/go-k0risp"
	    "github.com/ZaparooProject/go-k0risp/transport/uart"
	)

	link := uart.New("/dev/ttyUSB0")
	defer link.Close()

	driver, err := k0risp.New(k0risp.Hardware{
	    Link:  link,
	    Reset: link.ModemPin(uart.DTR, true),
	    FLMD:  link.ModemPin(uart.RTS, true),
	})
	if err != nil {
	    log.Fatal(err)
	}

	if err := driver.Begin(); err != nil {
	    log.Fatal(err)
	}
	defer driver.End()

	fmt.Printf("%s, %d bytes flash\n", driver.DeviceID(), driver.FlashSize())

	if err := driver.EraseFlash(); err != nil {
	    log.Fatal(err)
	}

	// One write session per 1 KiB block
	if err := driver.BeginWrite(0x0000, 0x03FF); err != nil {
	    log.Fatal(err)
	}
	for off := 0; off < 1024; off += 128 {
	    if err := driver.WriteFlash(block[off : off+128]); err != nil {
	        log.Fatal(err)
	    }
	}
	if err := driver.EndWrite(); err != nil {
	    log.Fatal(err)
	}

The programmer package wraps this sequence for whole Intel HEX images.

Error Handling:

Operations return nil on success and an *Error otherwise. Errors match their
Result with errors.Is:

	if errors.Is(err, k0risp.ResultProtected) {
	    // The flash is write protected
	}

	if k0risp.IsTimeout(err) {
	    // No valid response arrived in time
	}

Thread Safety:

Driver operations are not thread-safe. The protocol is strictly sequential;
use one Driver per target from a single goroutine.
*/
package k0risp
