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

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ZaparooProject/go-k0risp"
	"github.com/ZaparooProject/go-k0risp/detection"
	"github.com/ZaparooProject/go-k0risp/transport/pins"
	"github.com/ZaparooProject/go-k0risp/transport/uart"
	"github.com/sirupsen/logrus"
)

func parseModemLine(name string) (uart.ModemLine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dtr":
		return uart.DTR, nil
	case "rts":
		return uart.RTS, nil
	default:
		return 0, fmt.Errorf("invalid modem line %q, want dtr or rts", name)
	}
}

// selectPort returns the configured port or the only USB serial adapter
func selectPort(configured string, list func(detection.Options) ([]detection.Port, error)) (string, error) {
	if configured != "" {
		return configured, nil
	}

	opts := detection.DefaultOptions()
	opts.USBOnly = true
	ports, err := list(opts)
	if err != nil {
		return "", err
	}

	switch len(ports) {
	case 0:
		return "", errors.New("no USB serial adapter found, use --port")
	case 1:
		logrus.WithField("port", ports[0].Path).Info("auto-selected serial port")
		return ports[0].Path, nil
	default:
		names := make([]string, 0, len(ports))
		for _, p := range ports {
			names = append(names, p.Path)
		}
		return "", fmt.Errorf("several serial adapters found (%s), use --port", strings.Join(names, ", "))
	}
}

// pinOpener resolves GPIO names; replaced in tests
type pinOpener func(name string) (pins.Output, error)

func openGPIO(name string) (pins.Output, error) {
	return pins.Open(name)
}

// connect builds the driver described by s. The returned link must be
// closed by the caller.
func connect(s settings, openPin pinOpener) (*k0risp.Driver, *uart.Transport, error) {
	if err := s.validate(); err != nil {
		return nil, nil, err
	}
	port, err := selectPort(s.Port, detection.ListPorts)
	if err != nil {
		return nil, nil, err
	}

	var linkOpts []uart.Option
	if s.DEPin != "" {
		de, err := openPin(s.DEPin)
		if err != nil {
			return nil, nil, fmt.Errorf("driver enable pin: %w", err)
		}
		linkOpts = append(linkOpts, uart.WithDriverEnable(de))
	}
	link := uart.New(port, linkOpts...)

	reset, flmd, err := controlPins(s, link, openPin)
	if err != nil {
		return nil, nil, err
	}

	driver, err := k0risp.New(k0risp.Hardware{
		Link:  link,
		Reset: reset,
		FLMD:  flmd,
	}, k0risp.WithLogger(logrus.StandardLogger()))
	if err != nil {
		_ = link.Close()
		return nil, nil, err
	}
	return driver, link, nil
}

// controlPins returns the RESET and FLMD0 outputs for the configured backend
func controlPins(s settings, link *uart.Transport, openPin pinOpener) (reset, flmd pins.Output, err error) {
	switch s.Pins {
	case backendModem:
		resetLine, err := parseModemLine(s.ResetPin)
		if err != nil {
			return nil, nil, err
		}
		flmdLine, err := parseModemLine(s.FLMDPin)
		if err != nil {
			return nil, nil, err
		}
		// TTL adapters drive a low level while a modem line is asserted
		reset = link.ModemPin(resetLine, true)
		flmd = link.ModemPin(flmdLine, true)
	case backendGPIO:
		if reset, err = openPin(s.ResetPin); err != nil {
			return nil, nil, fmt.Errorf("reset pin: %w", err)
		}
		if flmd, err = openPin(s.FLMDPin); err != nil {
			return nil, nil, fmt.Errorf("flmd pin: %w", err)
		}
	default:
		return nil, nil, fmt.Errorf("unknown pin backend %q", s.Pins)
	}

	if s.InvertReset {
		reset = pins.Invert(reset)
	}
	if s.InvertFLMD {
		flmd = pins.Invert(flmd)
	}
	return reset, flmd, nil
}
