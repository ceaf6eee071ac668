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

// Package transport provides internal timing and retry utilities
package transport

import (
	"errors"
	"fmt"
	"time"
)

// ErrDeadline is returned by Poll when the deadline elapses before the
// operation reports completion.
var ErrDeadline = errors.New("deadline elapsed")

// Clock is the time source used for deadlines and delays.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// PollOperation performs one attempt and reports whether polling is done.
// A non-nil error stops polling immediately.
type PollOperation func() (done bool, err error)

// Poll runs operation until it reports done, fails, or timeout elapses.
// The deadline is checked before every attempt, so a blocking operation
// overshoots it by at most one attempt.
func Poll(clock Clock, timeout, interval time.Duration, operation PollOperation) error {
	deadline := clock.Now().Add(timeout)

	for clock.Now().Before(deadline) {
		done, err := operation()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if interval > 0 {
			clock.Sleep(interval)
		}
	}

	return ErrDeadline
}

// RetryOperation represents a function that can be retried
type RetryOperation[T any] func() (T, error)

// RetryConfig configures retry behavior
type RetryConfig struct {
	// Retryable decides whether an error may be retried. Nil retries all errors.
	Retryable func(error) bool
	// OnRetry runs before every retry with the attempt number (1-based)
	// and the error that caused it. A non-nil return aborts.
	OnRetry     func(attempt int, err error) error
	Description string
	MaxRetries  int
	RetryDelay  time.Duration
}

// WithRetry executes an operation with retry logic
func WithRetry[T any](config RetryConfig, operation RetryOperation[T]) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result, err := operation()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if config.Retryable != nil && !config.Retryable(err) {
			return zero, err
		}

		// If we should retry but we're at max attempts, break
		if attempt >= config.MaxRetries {
			break
		}

		if config.OnRetry != nil {
			if cbErr := config.OnRetry(attempt+1, err); cbErr != nil {
				return zero, cbErr
			}
		}

		if config.RetryDelay > 0 {
			time.Sleep(config.RetryDelay)
		}
	}

	return zero, handleRetriesExhausted(config, lastErr)
}

// handleRetriesExhausted wraps the last error once all attempts are spent
func handleRetriesExhausted(config RetryConfig, lastErr error) error {
	desc := config.Description
	if desc == "" {
		desc = "operation"
	}
	if config.MaxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("%s failed after %d attempts: %w", desc, config.MaxRetries+1, lastErr)
}
