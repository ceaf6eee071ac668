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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		want   string
		result Result
		known  bool
	}{
		{name: "OK", result: ResultOK, want: "ok", known: true},
		{name: "Timeout", result: ResultTimeout, want: "timeout", known: true},
		{name: "Protected", result: ResultProtected, want: "write protected", known: true},
		{name: "Busy", result: ResultBusy, want: "busy", known: true},
		{name: "Unknown", result: Result(0x42), want: "unknown status 0x42", known: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.result.String())
			assert.Equal(t, tt.want, tt.result.Error())
			assert.Equal(t, tt.known, tt.result.Known())
		})
	}
}

func TestResult_WireValues(t *testing.T) {
	t.Parallel()

	assert.Equal(t, byte(0x06), byte(ResultOK))
	assert.Equal(t, byte(0x01), byte(ResultTimeout))
	assert.Equal(t, byte(0x04), byte(ResultInvalidCommand))
	assert.Equal(t, byte(0x05), byte(ResultInvalidParameter))
	assert.Equal(t, byte(0x07), byte(ResultChecksum))
	assert.Equal(t, byte(0x0F), byte(ResultVerify))
	assert.Equal(t, byte(0x10), byte(ResultProtected))
	assert.Equal(t, byte(0x15), byte(ResultNotAccepted))
	assert.Equal(t, byte(0x1A), byte(ResultEraseVerify))
	assert.Equal(t, byte(0x1B), byte(ResultInternalVerify))
	assert.Equal(t, byte(0x1C), byte(ResultWrite))
	assert.Equal(t, byte(0xFF), byte(ResultBusy))
}

func TestFirstFailure(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ResultOK, firstFailure(ResultOK, ResultOK))
	assert.Equal(t, ResultWrite, firstFailure(ResultOK, ResultWrite))
	assert.Equal(t, ResultVerify, firstFailure(ResultVerify, ResultOK))
	assert.Equal(t, ResultVerify, firstFailure(ResultVerify, ResultWrite))
}

func TestResultOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want Result
	}{
		{name: "Nil", err: nil, want: ResultOK},
		{name: "Status_Error", err: statusError("op", ResultProtected), want: ResultProtected},
		{name: "Wrapped_Status_Error", err: fmt.Errorf("flash: %w", statusError("op", ResultBusy)), want: ResultBusy},
		{name: "Bare_Result", err: ResultChecksum, want: ResultChecksum},
		{name: "Timeout_Error", err: timeoutError("op", errors.New("silence")), want: ResultTimeout},
		{name: "State_Error", err: stateError("op", ErrNotIdentified), want: ResultNotAccepted},
		{name: "Foreign_Error", err: errors.New("port vanished"), want: ResultTimeout},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ResultOf(tt.err))
		})
	}
}

func TestStatusError_OK(t *testing.T) {
	t.Parallel()
	require.NoError(t, statusError("op", ResultOK))
}

func TestError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("no complete frame")
	err := timeoutError("EraseFlash", cause)

	require.ErrorIs(t, err, ErrTimeout)
	require.ErrorIs(t, err, cause)
	assert.True(t, IsTimeout(err))
	assert.False(t, IsTimeout(nil))
	assert.False(t, IsTimeout(statusError("op", ResultBusy)))

	var opErr *Error
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "EraseFlash", opErr.Op)
	assert.Equal(t, "EraseFlash: timeout: no complete frame", err.Error())
}

func TestError_Message(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want string
	}{
		{name: "Status_Only", err: statusError("BeginWrite", ResultProtected), want: "BeginWrite: write protected"},
		{
			name: "With_Cause",
			err:  newError("WriteFlash", ResultInvalidParameter, ErrChunkTooLarge),
			want: "WriteFlash: invalid parameter: write chunk exceeds 256 bytes",
		},
		{
			name: "Cause_Is_Result",
			err:  newError("Identify", ResultBusy, ResultBusy),
			want: "Identify: busy",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}
