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
)

// Driver errors
var (
	// ErrTimeout matches every error caused by a missing or malformed response.
	ErrTimeout error = ResultTimeout

	ErrNilHardware      = errors.New("link, reset pin and flmd pin are required")
	ErrNotIdentified    = errors.New("device not identified")
	ErrNoWriteSession   = errors.New("no write session open")
	ErrWriteSessionOpen = errors.New("write session already open")
	ErrChunkTooLarge    = errors.New("write chunk exceeds 256 bytes")
	ErrInvalidRange     = errors.New("end address before start address")
	ErrEmptyChunk       = errors.New("write chunk is empty")
)

// Error is returned by every failing driver operation. It carries exactly
// one Result, plus the local cause when there is one.
type Error struct {
	Err    error
	Op     string
	Result Result
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil && !errors.Is(e.Err, e.Result) {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Result, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Result)
}

// Unwrap exposes both the Result and the underlying cause
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Result}
	}
	return []error{e.Result, e.Err}
}

// newError builds an *Error for op
func newError(op string, result Result, err error) *Error {
	return &Error{Op: op, Result: result, Err: err}
}

// statusError converts a wire status into an error, nil for ResultOK
func statusError(op string, result Result) error {
	if result == ResultOK {
		return nil
	}
	return newError(op, result, nil)
}

// timeoutError reports a missing or structurally invalid response
func timeoutError(op string, cause error) error {
	return newError(op, ResultTimeout, cause)
}

// stateError reports an operation invoked out of order
func stateError(op string, cause error) error {
	return newError(op, ResultNotAccepted, cause)
}

// ResultOf maps an error returned by the driver to its Result.
// nil maps to ResultOK; errors that carry no Result (link I/O failures)
// map to ResultTimeout since no valid response was obtained.
func ResultOf(err error) Result {
	if err == nil {
		return ResultOK
	}

	var opErr *Error
	if errors.As(err, &opErr) {
		return opErr.Result
	}

	var result Result
	if errors.As(err, &result) {
		return result
	}

	return ResultTimeout
}

// IsTimeout reports whether err is a timeout-class failure
func IsTimeout(err error) bool {
	return err != nil && ResultOf(err) == ResultTimeout
}
