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

package programmer

import (
	"fmt"
	"time"
)

// Phase is a stage of a programming run
type Phase int

const (
	// PhaseConnect covers reset and identification
	PhaseConnect Phase = iota
	// PhaseErase covers the chip erase
	PhaseErase
	// PhaseWrite covers block writes
	PhaseWrite
	// PhaseDone is reported once before the target is released
	PhaseDone
)

// String returns the phase name
func (p Phase) String() string {
	switch p {
	case PhaseConnect:
		return "connect"
	case PhaseErase:
		return "erase"
	case PhaseWrite:
		return "write"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Progress is a snapshot of a running operation
type Progress struct {
	Phase   Phase
	Block   int
	Blocks  int
	Skipped int
	Written int
	Total   int
	Elapsed time.Duration
}

// Percent returns the share of the image handled so far
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		if p.Phase == PhaseDone {
			return 100
		}
		return 0
	}
	return float64(p.Written) * 100 / float64(p.Total)
}

// String formats the progress for terminal output
func (p Progress) String() string {
	if p.Phase != PhaseWrite {
		return p.Phase.String()
	}
	return fmt.Sprintf("write block %d/%d %d/%d bytes (%.0f%%)",
		p.Block, p.Blocks, p.Written, p.Total, p.Percent())
}

type progressTracker struct {
	started time.Time
	report  func(Progress)
	now     func() time.Time
	current Phase
	block   int
	blocks  int
	skipped int
	written int
	total   int
}

func (t *progressTracker) phase(p Phase) {
	t.current = p
	t.emit()
}

func (t *progressTracker) emit() {
	if t.report == nil {
		return
	}
	t.report(Progress{
		Phase:   t.current,
		Block:   t.block,
		Blocks:  t.blocks,
		Skipped: t.skipped,
		Written: t.written,
		Total:   t.total,
		Elapsed: t.now().Sub(t.started),
	})
}
