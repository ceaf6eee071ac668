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
	"io"
	"os"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// settings holds everything the commands need to reach the target
type settings struct {
	Port        string `yaml:"port"`
	Pins        string `yaml:"pins"`
	ResetPin    string `yaml:"reset_pin"`
	FLMDPin     string `yaml:"flmd_pin"`
	DEPin       string `yaml:"de_pin"`
	InvertReset bool   `yaml:"invert_reset"`
	InvertFLMD  bool   `yaml:"invert_flmd"`
	ChunkSize   int    `yaml:"chunk_size"`
	Retries     int    `yaml:"retries"`
	SkipBlank   bool   `yaml:"skip_blank"`
}

// Pin backends
const (
	backendModem = "modem"
	backendGPIO  = "gpio"
)

func defaultSettings() settings {
	return settings{
		Pins:      backendModem,
		ResetPin:  "dtr",
		FLMDPin:   "rts",
		ChunkSize: 128,
	}
}

func (s settings) validate() error {
	switch s.Pins {
	case backendModem:
		for _, name := range []string{s.ResetPin, s.FLMDPin} {
			if _, err := parseModemLine(name); err != nil {
				return err
			}
		}
		if strings.EqualFold(s.ResetPin, s.FLMDPin) {
			return errors.New("reset and flmd need separate modem lines")
		}
	case backendGPIO:
		if s.ResetPin == "" || s.FLMDPin == "" {
			return errors.New("gpio backend needs --reset-pin and --flmd-pin")
		}
	default:
		return fmt.Errorf("unknown pin backend %q, want %s or %s", s.Pins, backendModem, backendGPIO)
	}
	return nil
}

// loadProfile reads a YAML board profile over the defaults in s
func loadProfile(path string, s *settings) error {
	data, err := os.ReadFile(path) //nolint:gosec // user supplied profile
	if err != nil {
		return fmt.Errorf("failed to read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	return nil
}

type cli struct {
	settings   settings
	flags      settings
	configPath string
	logLevel   string
	logFormat  string
	verbose    bool
}

func newRootCommand() *cobra.Command {
	root, _ := buildRoot()
	return root
}

// buildRoot returns the command tree and the state its flags write to
func buildRoot() (*cobra.Command, *cli) {
	c := &cli{flags: defaultSettings()}

	root := &cobra.Command{
		Use:           "k0rflash",
		Short:         "Renesas 78K0R flash programmer",
		Long:          "k0rflash erases and programs the flash of Renesas 78K0R microcontrollers over their single-wire UART bootloader.",
		Example:       "  k0rflash --port /dev/ttyUSB0 flash firmware.hex",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.setupLogging(cmd.ErrOrStderr()); err != nil {
				return err
			}
			return c.resolveSettings(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&c.flags.Port, "port", "p", "", "serial port of the programming adapter, empty to auto-select")
	pf.StringVar(&c.flags.Pins, "pins", c.flags.Pins, "control line backend, can be {modem|gpio}")
	pf.StringVar(&c.flags.ResetPin, "reset-pin", c.flags.ResetPin, "RESET line: dtr/rts for modem, pin name (e.g. GPIO17) for gpio")
	pf.StringVar(&c.flags.FLMDPin, "flmd-pin", c.flags.FLMDPin, "FLMD0 line: dtr/rts for modem, pin name for gpio")
	pf.StringVar(&c.flags.DEPin, "de-pin", "", "GPIO enabling the line driver while transmitting")
	pf.BoolVar(&c.flags.InvertReset, "invert-reset", false, "invert the RESET line level")
	pf.BoolVar(&c.flags.InvertFLMD, "invert-flmd", false, "invert the FLMD0 line level")
	pf.StringVar(&c.configPath, "config", "", "YAML board profile; flags override its values")
	pf.StringVar(&c.logFormat, "log-format", "text", "The output format for the logs, can be {text|json}.")
	pf.StringVar(&c.logLevel, "log-level", "info",
		"Messages with this level and above will be logged. Valid levels are: trace, debug, info, warn, error, fatal, panic")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "Print the logs on the standard output.")

	root.AddCommand(
		newInfoCommand(c),
		newEraseCommand(c),
		newFlashCommand(c),
		newPortsCommand(),
		newVersionCommand(),
	)
	return root, c
}

// setupLogging configures the standard logrus logger used by the driver
func (c *cli) setupLogging(stderr io.Writer) error {
	if c.verbose {
		logrus.SetOutput(colorable.NewColorableStdout())
		logrus.SetFormatter(&logrus.TextFormatter{ForceColors: true})
	} else {
		logrus.SetOutput(io.Discard)
	}

	switch strings.ToLower(c.logFormat) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
	default:
		return fmt.Errorf("invalid option for --log-format: %s", c.logFormat)
	}

	level, err := logrus.ParseLevel(c.logLevel)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Invalid option for --log-level: %s\n", c.logLevel)
		return err
	}
	logrus.SetLevel(level)
	return nil
}

// resolveSettings layers defaults, the profile and explicitly set flags
func (c *cli) resolveSettings(cmd *cobra.Command) error {
	s := defaultSettings()
	if c.configPath != "" {
		if err := loadProfile(c.configPath, &s); err != nil {
			return err
		}
	}

	flags := cmd.Flags()
	override := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	override("port", func() { s.Port = c.flags.Port })
	override("pins", func() { s.Pins = c.flags.Pins })
	override("reset-pin", func() { s.ResetPin = c.flags.ResetPin })
	override("flmd-pin", func() { s.FLMDPin = c.flags.FLMDPin })
	override("de-pin", func() { s.DEPin = c.flags.DEPin })
	override("invert-reset", func() { s.InvertReset = c.flags.InvertReset })
	override("invert-flmd", func() { s.InvertFLMD = c.flags.InvertFLMD })
	override("chunk-size", func() { s.ChunkSize = c.flags.ChunkSize })
	override("retries", func() { s.Retries = c.flags.Retries })
	override("skip-blank", func() { s.SkipBlank = c.flags.SkipBlank })

	s.Pins = strings.ToLower(s.Pins)
	c.settings = s
	return nil
}
