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
	"fmt"
	"io"
	"runtime/debug"

	"github.com/ZaparooProject/go-k0risp"
	"github.com/ZaparooProject/go-k0risp/detection"
	"github.com/ZaparooProject/go-k0risp/programmer"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = ""

// newProgrammer connects to the target and wraps it in a Programmer
func (c *cli) newProgrammer(out io.Writer) (*programmer.Programmer, func(), error) {
	driver, link, err := connect(c.settings, openGPIO)
	if err != nil {
		return nil, nil, err
	}

	config := programmer.DefaultConfig()
	config.Logger = logrus.StandardLogger()
	config.ChunkSize = c.settings.ChunkSize
	config.Retries = c.settings.Retries
	config.SkipBlank = c.settings.SkipBlank
	config.OnProgress = progressPrinter(out)

	p, err := programmer.New(driver, config)
	if err != nil {
		_ = link.Close()
		return nil, nil, err
	}
	return p, func() { _ = link.Close() }, nil
}

// progressPrinter prints phase changes and every written block
func progressPrinter(out io.Writer) func(programmer.Progress) {
	last := programmer.Phase(-1)
	return func(p programmer.Progress) {
		if p.Phase == programmer.PhaseWrite && p.Block > 0 {
			_, _ = fmt.Fprintf(out, "\r%s", p)
			if p.Block == p.Blocks {
				_, _ = fmt.Fprintln(out)
			}
			return
		}
		if p.Phase != last {
			_, _ = fmt.Fprintf(out, "%s...\n", p.Phase)
			last = p.Phase
		}
	}
}

func newInfoCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the device name and flash size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, done, err := c.newProgrammer(io.Discard)
			if err != nil {
				return err
			}
			defer done()

			id, err := p.Identify(cmd.Context())
			if err != nil {
				return err
			}
			printIdentity(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func printIdentity(out io.Writer, id k0risp.Identity) {
	_, _ = fmt.Fprintf(out, "Device:     %s\n", id.Name())
	_, _ = fmt.Fprintf(out, "Flash size: %d bytes (%d blocks)\n", id.FlashSize, id.FlashSize/k0risp.BlockSize)
}

func newEraseCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "erase",
		Short: "Erase the whole flash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, done, err := c.newProgrammer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer done()

			if err := p.Erase(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Flash erased")
			return nil
		},
	}
}

func newFlashCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flash FILE.hex",
		Short: "Erase the flash and program an Intel HEX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, done, err := c.newProgrammer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer done()

			if err := p.Program(cmd.Context(), programmer.FromFile(args[0])); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Operation completed: success")
			return nil
		},
	}

	cmd.Flags().BoolVar(&c.flags.SkipBlank, "skip-blank", false, "do not write blocks that are entirely 0xFF")
	cmd.Flags().IntVar(&c.flags.ChunkSize, "chunk-size", c.flags.ChunkSize, "bytes per write frame (2-256)")
	cmd.Flags().IntVar(&c.flags.Retries, "retries", 0, "number of retries from reset in case of failure")
	return cmd
}

func newPortsCommand() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := detection.DefaultOptions()
			opts.USBOnly = !all
			ports, err := detection.ListPorts(opts)
			if err != nil {
				return err
			}
			printPorts(cmd.OutOrStdout(), ports)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include ports that are not USB adapters")
	return cmd
}

func printPorts(out io.Writer, ports []detection.Port) {
	if len(ports) == 0 {
		_, _ = fmt.Fprintln(out, "No serial ports found")
		return
	}
	for _, p := range ports {
		_, _ = fmt.Fprintln(out, p)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "k0rflash %s\n", buildVersion())
		},
	}
}

func buildVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}
