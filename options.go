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
	"github.com/sirupsen/logrus"
)

// Config contains configuration options for the Driver
type Config struct {
	// Logger receives driver diagnostics
	Logger logrus.FieldLogger
	// StrictReset makes Begin fail when the reset command is not acknowledged.
	// By default the failure is logged and identification continues, since
	// the signature exchange that follows decides whether the link works.
	StrictReset bool
}

// DefaultConfig returns default driver configuration
func DefaultConfig() *Config {
	return &Config{
		Logger: logrus.StandardLogger(),
	}
}

// Option is a functional option for configuring a Driver
type Option func(*Config) error

// WithLogger sets the logger used for driver diagnostics
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Config) error {
		if logger == nil {
			logger = logrus.StandardLogger()
		}
		c.Logger = logger
		return nil
	}
}

// WithStrictReset makes a failed reset acknowledgement abort Begin
func WithStrictReset(strict bool) Option {
	return func(c *Config) error {
		c.StrictReset = strict
		return nil
	}
}
