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

package testing

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// EventLog records hardware events in order so tests can assert sequences
type EventLog struct {
	events []string
	mu     sync.Mutex
}

// Add appends a formatted event
func (l *EventLog) Add(format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

// Events returns a copy of the recorded events
func (l *EventLog) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// Reset clears the log
func (l *EventLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

// RecordingPin is an output pin that remembers its level and logs changes
type RecordingPin struct {
	Err    error
	Log    *EventLog
	Name   string
	Level  gpio.Level
	Writes int
}

// NewRecordingPin creates a pin named name that records into log
func NewRecordingPin(name string, log *EventLog) *RecordingPin {
	return &RecordingPin{Name: name, Log: log}
}

// Out sets the pin level
func (p *RecordingPin) Out(l gpio.Level) error {
	if p.Err != nil {
		return p.Err
	}
	p.Level = l
	p.Writes++
	level := "low"
	if l == gpio.High {
		level = "high"
	}
	p.Log.Add("%s=%s", p.Name, level)
	return nil
}

// FakeClock is a manual clock. Sleep advances time instantly; Now advances
// by Step on every call so polling loops always terminate.
type FakeClock struct {
	now   time.Time
	Log   *EventLog
	Slept time.Duration
	Step  time.Duration
	mu    sync.Mutex
}

// NewFakeClock creates a clock starting at the Unix epoch
func NewFakeClock(log *EventLog) *FakeClock {
	return &FakeClock{
		now:  time.Unix(0, 0),
		Step: time.Millisecond,
		Log:  log,
	}
}

// Now returns the current fake time and advances it by Step
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.Step)
	return now
}

// Current returns the current fake time without advancing it
func (c *FakeClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// SleptTotal returns the sum of all Sleep calls
func (c *FakeClock) SleptTotal() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Slept
}

// Sleep advances the clock by d without blocking
func (c *FakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.Slept += d
	c.mu.Unlock()
	c.Log.Add("sleep %v", d)
}
