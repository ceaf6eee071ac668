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
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZaparooProject/go-k0risp/detection"
	"github.com/ZaparooProject/go-k0risp/programmer"
	"github.com/ZaparooProject/go-k0risp/transport/pins"
	"github.com/ZaparooProject/go-k0risp/transport/uart"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
)

// These tests change the global logrus logger and must not run in parallel.

func execute(t *testing.T, args ...string) (*cli, string, error) {
	t.Helper()
	root, c := buildRoot()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.Execute()
	return c, out.String(), err
}

func TestVersionCommand(t *testing.T) {
	_, out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "k0rflash ")
}

func TestResolveSettings_Defaults(t *testing.T) {
	c, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, defaultSettings(), c.settings)
}

func TestResolveSettings_ProfileAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	profile := []byte(`port: /dev/ttyAMA0
pins: GPIO
reset_pin: GPIO17
flmd_pin: GPIO27
invert_reset: true
retries: 2
chunk_size: 64
`)
	require.NoError(t, os.WriteFile(path, profile, 0o600))

	c, _, err := execute(t, "--config", path, "--flmd-pin", "GPIO22", "version")
	require.NoError(t, err)

	assert.Equal(t, settings{
		Port:        "/dev/ttyAMA0",
		Pins:        backendGPIO,
		ResetPin:    "GPIO17",
		FLMDPin:     "GPIO22",
		InvertReset: true,
		ChunkSize:   64,
		Retries:     2,
	}, c.settings)
}

func TestResolveSettings_BadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retries: [1, 2"), 0o600))

	_, _, err := execute(t, "--config", path, "version")
	require.Error(t, err)

	_, _, err = execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "version")
	require.Error(t, err)
}

func TestSetupLogging(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)

	c := &cli{logLevel: "debug", logFormat: "json"}
	require.NoError(t, c.setupLogging(&bytes.Buffer{}))
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	stderr := &bytes.Buffer{}
	c = &cli{logLevel: "loud", logFormat: "text"}
	require.Error(t, c.setupLogging(stderr))
	assert.Contains(t, stderr.String(), "--log-level")

	c = &cli{logLevel: "info", logFormat: "xml"}
	require.Error(t, c.setupLogging(&bytes.Buffer{}))
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*settings)
		wantErr bool
	}{
		{name: "Defaults", mutate: func(*settings) {}},
		{name: "Modem_Swapped", mutate: func(s *settings) { s.ResetPin, s.FLMDPin = "RTS", "DTR" }},
		{name: "Modem_Same_Line", mutate: func(s *settings) { s.FLMDPin = "dtr" }, wantErr: true},
		{name: "Modem_Bad_Line", mutate: func(s *settings) { s.ResetPin = "cts" }, wantErr: true},
		{name: "GPIO", mutate: func(s *settings) { s.Pins, s.ResetPin, s.FLMDPin = backendGPIO, "GPIO17", "GPIO27" }},
		{name: "GPIO_Missing_Pin", mutate: func(s *settings) { s.Pins, s.FLMDPin = backendGPIO, "" }, wantErr: true},
		{name: "Unknown_Backend", mutate: func(s *settings) { s.Pins = "ftdi" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := defaultSettings()
			tt.mutate(&s)
			if tt.wantErr {
				require.Error(t, s.validate())
			} else {
				require.NoError(t, s.validate())
			}
		})
	}
}

type fakePin struct {
	name   string
	levels []gpio.Level
}

func (p *fakePin) Out(l gpio.Level) error {
	p.levels = append(p.levels, l)
	return nil
}

func TestControlPins_GPIO(t *testing.T) {
	opened := map[string]*fakePin{}
	open := func(name string) (pins.Output, error) {
		if name == "GPIO99" {
			return nil, errors.New("not found")
		}
		p := &fakePin{name: name}
		opened[name] = p
		return p, nil
	}

	s := settings{Pins: backendGPIO, ResetPin: "GPIO17", FLMDPin: "GPIO27", InvertFLMD: true}
	reset, flmd, err := controlPins(s, uart.New("/dev/null"), open)
	require.NoError(t, err)

	require.NoError(t, reset.Out(gpio.High))
	require.NoError(t, flmd.Out(gpio.High))
	assert.Equal(t, []gpio.Level{gpio.High}, opened["GPIO17"].levels)
	assert.Equal(t, []gpio.Level{gpio.Low}, opened["GPIO27"].levels)

	s.FLMDPin = "GPIO99"
	_, _, err = controlPins(s, uart.New("/dev/null"), open)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flmd pin")
}

func TestControlPins_Modem(t *testing.T) {
	link := uart.New("/dev/ttyUSB0")
	reset, flmd, err := controlPins(defaultSettings(), link, nil)
	require.NoError(t, err)

	assert.Equal(t, "DTR (inverted)", reset.(*uart.ModemPin).String())
	assert.Equal(t, "RTS (inverted)", flmd.(*uart.ModemPin).String())
}

func TestSelectPort(t *testing.T) {
	list := func(ports ...string) func(detection.Options) ([]detection.Port, error) {
		return func(opts detection.Options) ([]detection.Port, error) {
			assert.True(t, opts.USBOnly)
			var out []detection.Port
			for _, p := range ports {
				out = append(out, detection.Port{Path: p, IsUSB: true})
			}
			return out, nil
		}
	}

	port, err := selectPort("COM4", list())
	require.NoError(t, err)
	assert.Equal(t, "COM4", port)

	port, err = selectPort("", list("/dev/ttyUSB0"))
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", port)

	_, err = selectPort("", list())
	require.Error(t, err)

	_, err = selectPort("", list("/dev/ttyUSB0", "/dev/ttyUSB1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/dev/ttyUSB1")
}

func TestProgressPrinter(t *testing.T) {
	out := &bytes.Buffer{}
	report := progressPrinter(out)

	report(programmer.Progress{Phase: programmer.PhaseConnect})
	report(programmer.Progress{Phase: programmer.PhaseErase})
	report(programmer.Progress{Phase: programmer.PhaseWrite, Blocks: 2, Total: 2048})
	report(programmer.Progress{Phase: programmer.PhaseWrite, Block: 1, Blocks: 2, Written: 1024, Total: 2048})
	report(programmer.Progress{Phase: programmer.PhaseWrite, Block: 2, Blocks: 2, Written: 2048, Total: 2048})
	report(programmer.Progress{Phase: programmer.PhaseDone})

	assert.Equal(t, "connect...\nerase...\nwrite...\n"+
		"\rwrite block 1/2 1024/2048 bytes (50%)"+
		"\rwrite block 2/2 2048/2048 bytes (100%)\n"+
		"done...\n", out.String())
}

func TestPrintPorts(t *testing.T) {
	out := &bytes.Buffer{}
	printPorts(out, nil)
	assert.Equal(t, "No serial ports found\n", out.String())

	out.Reset()
	printPorts(out, []detection.Port{{Path: "/dev/ttyS0"}})
	assert.Equal(t, "/dev/ttyS0\n", out.String())
}
