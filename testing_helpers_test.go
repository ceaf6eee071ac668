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
	"io"
	"testing"

	testutil "github.com/ZaparooProject/go-k0risp/internal/testing"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// testRig bundles a Driver with the simulated hardware behind it
type testRig struct {
	driver *Driver
	target *testutil.VirtualTarget
	log    *testutil.EventLog
	clock  *testutil.FakeClock
	reset  *testutil.RecordingPin
	flmd   *testutil.RecordingPin
}

// quietLogger discards driver output
func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// newTestRig creates a Driver on a fake clock talking to target. Polling
// does not sleep in real time.
func newTestRig(t *testing.T, target *testutil.VirtualTarget, opts ...Option) *testRig {
	t.Helper()

	log := &testutil.EventLog{}
	target.Log = log
	target.PollInterval = 0

	rig := &testRig{
		target: target,
		log:    log,
		clock:  testutil.NewFakeClock(log),
		reset:  testutil.NewRecordingPin("RESET", log),
		flmd:   testutil.NewRecordingPin("FLMD", log),
	}

	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	driver, err := New(Hardware{
		Link:  target,
		Reset: rig.reset,
		FLMD:  rig.flmd,
		Clock: rig.clock,
	}, opts...)
	require.NoError(t, err)
	rig.driver = driver
	log.Reset()
	return rig
}

// newIdentifiedRig returns a rig whose driver has completed Begin
func newIdentifiedRig(t *testing.T, target *testutil.VirtualTarget, opts ...Option) *testRig {
	t.Helper()
	rig := newTestRig(t, target, opts...)
	require.NoError(t, rig.driver.Begin())
	return rig
}
