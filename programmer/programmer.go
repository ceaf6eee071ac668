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

// Package programmer writes complete firmware images to a 78K0R target
// through a k0risp.Driver.
package programmer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-k0risp"
	"github.com/ZaparooProject/go-k0risp/firmware"
	"github.com/ZaparooProject/go-k0risp/internal/transport"
	"github.com/sirupsen/logrus"
)

// Programmer errors
var (
	ErrNilTarget     = errors.New("target cannot be nil")
	ErrChunkSize     = errors.New("chunk size must be between 2 and 256")
	ErrImageSize     = errors.New("image does not match flash size")
	ErrUnknownFlash  = errors.New("target reported no flash")
	ErrNoImageSource = errors.New("image source cannot be nil")
	errImageSource   = errors.New("image source failed")
)

// Target is the driver API the programmer needs. *k0risp.Driver implements it.
type Target interface {
	Begin() error
	End() error
	Identity() (k0risp.Identity, bool)
	EraseFlash() error
	BeginWrite(start, end uint32) error
	WriteFlash(data []byte) error
	EndWrite() error
}

// Source produces the image to write once the flash size is known
type Source func(flashSize uint32) (*firmware.Image, error)

// FromFile returns a Source that loads an Intel HEX file
func FromFile(path string) Source {
	return func(flashSize uint32) (*firmware.Image, error) {
		return firmware.Load(path, flashSize)
	}
}

// FromImage returns a Source for an image already in memory
func FromImage(img *firmware.Image) Source {
	return func(uint32) (*firmware.Image, error) {
		return img, nil
	}
}

// Config holds configuration options for the Programmer
type Config struct {
	// Logger receives progress and retry messages
	Logger logrus.FieldLogger
	// OnProgress is called after every phase change and written block
	OnProgress func(Progress)

	// ChunkSize is the number of bytes per write frame
	ChunkSize int
	// Retries re-runs a failed operation from Begin this many times
	Retries    int
	RetryDelay time.Duration

	// SkipBlank leaves blocks that contain only 0xFF untouched after erase
	SkipBlank bool
}

// DefaultConfig returns default programmer configuration
func DefaultConfig() *Config {
	return &Config{
		Logger:     logrus.StandardLogger(),
		ChunkSize:  128,
		RetryDelay: 500 * time.Millisecond,
	}
}

// Programmer runs complete identify, erase and write sequences
type Programmer struct {
	target Target
	config *Config
	now    func() time.Time
}

// New creates a programmer for target. A nil config uses DefaultConfig.
func New(target Target, config *Config) (*Programmer, error) {
	if target == nil {
		return nil, ErrNilTarget
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.ChunkSize < 2 || config.ChunkSize > k0risp.MaxChunkSize {
		return nil, fmt.Errorf("%w: %d", ErrChunkSize, config.ChunkSize)
	}
	if config.Logger == nil {
		config.Logger = logrus.StandardLogger()
	}

	return &Programmer{target: target, config: config, now: time.Now}, nil
}

// Identify enters programming mode, reads the device identity and leaves
func (p *Programmer) Identify(ctx context.Context) (k0risp.Identity, error) {
	var id k0risp.Identity
	err := p.run(ctx, "identify", func(ctx context.Context, _ *progressTracker) error {
		id, _ = p.target.Identity()
		return nil
	})
	return id, err
}

// Erase erases the whole flash
func (p *Programmer) Erase(ctx context.Context) error {
	return p.run(ctx, "erase", func(_ context.Context, tr *progressTracker) error {
		return p.erase(tr)
	})
}

// Program erases the flash and writes the image produced by source
func (p *Programmer) Program(ctx context.Context, source Source) error {
	if source == nil {
		return ErrNoImageSource
	}

	return p.run(ctx, "program", func(ctx context.Context, tr *progressTracker) error {
		id, _ := p.target.Identity()
		img, err := source(id.FlashSize)
		if err != nil {
			return fmt.Errorf("%w: %w", errImageSource, err)
		}
		if img.Size() != id.FlashSize {
			return fmt.Errorf("%w: image %d bytes, flash %d bytes", ErrImageSize, img.Size(), id.FlashSize)
		}

		if err := p.erase(tr); err != nil {
			return err
		}
		return p.write(ctx, tr, img)
	})
}

// run wraps op between Begin and End and retries the whole sequence
func (p *Programmer) run(ctx context.Context, name string, op func(context.Context, *progressTracker) error) error {
	log := p.config.Logger.WithField("operation", name)

	_, err := transport.WithRetry(transport.RetryConfig{
		Description: name,
		MaxRetries:  p.config.Retries,
		RetryDelay:  p.config.RetryDelay,
		Retryable:   retryable,
		OnRetry: func(attempt int, err error) error {
			log.WithError(err).WithField("attempt", attempt).Warn("retrying from reset")
			return ctx.Err()
		},
	}, func() (struct{}, error) {
		return struct{}{}, p.attempt(ctx, op)
	})
	if err != nil {
		return err
	}

	log.Info("completed")
	return nil
}

// attempt runs one Begin, op, End sequence. End always runs once Begin
// was tried so the target is released into normal mode.
func (p *Programmer) attempt(ctx context.Context, op func(context.Context, *progressTracker) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	tr := &progressTracker{report: p.config.OnProgress, now: p.now, started: p.now()}
	tr.phase(PhaseConnect)

	defer func() {
		if endErr := p.target.End(); endErr != nil && err == nil {
			err = endErr
		}
	}()

	if err := p.target.Begin(); err != nil {
		return fmt.Errorf("failed to enter programming mode: %w", err)
	}
	id, ok := p.target.Identity()
	if !ok || id.FlashSize == 0 {
		return ErrUnknownFlash
	}
	p.config.Logger.WithFields(logrus.Fields{
		"device":     id.Name(),
		"flash_size": id.FlashSize,
	}).Debug("target connected")

	if err := op(ctx, tr); err != nil {
		return err
	}

	tr.phase(PhaseDone)
	return nil
}

func (p *Programmer) erase(tr *progressTracker) error {
	tr.phase(PhaseErase)
	if err := p.target.EraseFlash(); err != nil {
		return fmt.Errorf("failed to erase flash: %w", err)
	}
	return nil
}

// write programs img block by block. The context is checked between blocks
// so a write session is never left half sent.
func (p *Programmer) write(ctx context.Context, tr *progressTracker, img *firmware.Image) error {
	size := img.Size()
	tr.total = int(size)
	tr.blocks = blockTotal(size)
	tr.phase(PhaseWrite)

	for block := 0; block < tr.blocks; block++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := uint32(block) * k0risp.BlockSize
		length := uint32(k0risp.BlockSize)
		if start+length > size {
			length = size - start
		}

		if p.config.SkipBlank && img.IsBlank(start, length) {
			tr.skipped++
		} else if err := p.writeBlock(img.Data[start:start+length], start); err != nil {
			return fmt.Errorf("block %d at 0x%06X: %w", block, start, err)
		}

		tr.block = block + 1
		tr.written += int(length)
		tr.emit()
	}
	return nil
}

// writeBlock sends one write session covering data at start
func (p *Programmer) writeBlock(data []byte, start uint32) error {
	end := start + uint32(len(data)) - 1
	if err := p.target.BeginWrite(start, end); err != nil {
		return err
	}

	for _, n := range chunkSizes(len(data), p.config.ChunkSize) {
		if err := p.target.WriteFlash(data[:n]); err != nil {
			return err
		}
		data = data[n:]
	}
	return p.target.EndWrite()
}

// chunkSizes splits length into chunks of at most size bytes. The final
// terminator is chosen once at most one byte remains undeclared, so a
// trailing single byte chunk is avoided by shortening its predecessor.
func chunkSizes(length, size int) []int {
	var sizes []int
	for length > 0 {
		n := size
		if n > length {
			n = length
		}
		if length-n == 1 {
			n--
		}
		sizes = append(sizes, n)
		length -= n
	}
	return sizes
}

func blockTotal(size uint32) int {
	return int((size + k0risp.BlockSize - 1) / k0risp.BlockSize)
}

// retryable reports whether a failure may succeed after a fresh reset
func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, errImageSource), errors.Is(err, ErrImageSize):
		return false
	case errors.Is(err, k0risp.ResultProtected):
		return false
	}
	return true
}
