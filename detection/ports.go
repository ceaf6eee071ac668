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

// Package detection lists the serial ports a programming adapter may be
// attached to.
package detection

import (
	"fmt"
	"sort"

	"go.bug.st/serial/enumerator"
)

// Port describes a serial port found on the host
type Port struct {
	Path         string
	VIDPID       string
	Product      string
	SerialNumber string
	IsUSB        bool
}

// String returns a one-line description of the port
func (p Port) String() string {
	if !p.IsUSB {
		return p.Path
	}
	s := fmt.Sprintf("%s [%s]", p.Path, p.VIDPID)
	if p.Product != "" {
		s += " " + p.Product
	}
	if p.SerialNumber != "" {
		s += " (serial " + p.SerialNumber + ")"
	}
	return s
}

// Options filters the port list
type Options struct {
	// Blocklist excludes USB devices by VID:PID
	Blocklist []string
	// IgnorePaths excludes ports by device path
	IgnorePaths []string
	// USBOnly drops ports that are not USB serial adapters
	USBOnly bool
}

// DefaultOptions returns options using the default blocklist
func DefaultOptions() Options {
	return Options{Blocklist: DefaultBlocklist()}
}

// ListPorts enumerates the host's serial ports, sorted by path
func ListPorts(opts Options) ([]Port, error) {
	return listPorts(enumerator.GetDetailedPortsList, opts)
}

func listPorts(enumerate func() ([]*enumerator.PortDetails, error), opts Options) ([]Port, error) {
	if err := ValidateBlocklist(opts.Blocklist); err != nil {
		return nil, err
	}

	details, err := enumerate()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	ports := make([]Port, 0, len(details))
	for _, d := range details {
		if d == nil || IsPathIgnored(d.Name, opts.IgnorePaths) {
			continue
		}
		if opts.USBOnly && !d.IsUSB {
			continue
		}

		port := Port{
			Path:  d.Name,
			IsUSB: d.IsUSB,
		}
		if d.IsUSB {
			port.VIDPID = FormatVIDPID(d.VID, d.PID)
			port.Product = d.Product
			port.SerialNumber = d.SerialNumber
			if IsBlocked(port.VIDPID, opts.Blocklist) {
				continue
			}
		}
		ports = append(ports, port)
	}

	sort.Slice(ports, func(i, j int) bool { return ports[i].Path < ports[j].Path })
	return ports, nil
}
