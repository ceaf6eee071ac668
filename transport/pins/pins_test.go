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

package pins

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	gpio17 := &gpiotest.Pin{N: "GPIO17", Num: 17}
	registry := func(name string) gpio.PinIO {
		if name == "GPIO17" {
			return gpio17
		}
		return nil
	}
	okInit := func() error { return nil }

	tests := []struct {
		initHost func() error
		wantErr  error
		name     string
		pin      string
	}{
		{name: "Found", pin: "GPIO17", initHost: okInit},
		{name: "Trimmed", pin: " GPIO17 ", initHost: okInit},
		{name: "Missing", pin: "GPIO99", initHost: okInit, wantErr: ErrPinNotFound},
		{name: "Empty", pin: "", initHost: okInit, wantErr: ErrPinNotFound},
		{
			name:     "Host_Failure",
			pin:      "GPIO17",
			initHost: func() error { return errors.New("no gpiochip") },
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pin, err := lookup(tt.pin, tt.initHost, registry)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, pin)
			case tt.name == "Host_Failure":
				require.Error(t, err)
				assert.Contains(t, err.Error(), "no gpiochip")
			default:
				require.NoError(t, err)
				assert.Equal(t, "GPIO17", pin.Name())
			}
		})
	}
}

func TestInvert(t *testing.T) {
	t.Parallel()

	pin := &gpiotest.Pin{N: "GPIO27"}
	inv := Invert(pin)

	require.NoError(t, inv.Out(gpio.High))
	assert.Equal(t, gpio.Low, pin.Read())
	require.NoError(t, inv.Out(gpio.Low))
	assert.Equal(t, gpio.High, pin.Read())
}
