// go-xbee
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-xbee.
//
// go-xbee is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-xbee is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-xbee; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package resetpin drives an XBee's active-low RESET line from a host GPIO,
// implementing xbee.ResetPin.
package resetpin

import (
	"context"
	"fmt"
	"time"

	xbee "github.com/ZaparooProject/go-xbee"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// DefaultPulseWidth is how long RESET is held low
const DefaultPulseWidth = 100 * time.Millisecond

// Pin pulses a GPIO output to reset the module
type Pin struct {
	out   gpio.PinOut
	width time.Duration
}

var _ xbee.ResetPin = (*Pin)(nil)

// Option configures a Pin
type Option func(*Pin)

// WithPulseWidth changes how long the line is held low
func WithPulseWidth(d time.Duration) Option {
	return func(p *Pin) {
		if d > 0 {
			p.width = d
		}
	}
}

// Open initializes the host drivers and looks up a GPIO by name, e.g. "GPIO17".
// The line is driven high (released) before returning.
func Open(name string, opts ...Option) (*Pin, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	out := gpioreg.ByName(name)
	if out == nil {
		return nil, fmt.Errorf("gpio %q not found: %w", name, xbee.ErrInvalidArgument)
	}
	p := New(out, opts...)
	if err := out.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("release %s: %w", name, err)
	}
	return p, nil
}

// New wraps an already configured output
func New(out gpio.PinOut, opts ...Option) *Pin {
	p := &Pin{out: out, width: DefaultPulseWidth}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Pulse holds RESET low for the pulse width, then releases it. The line is
// released even when ctx is canceled mid-pulse.
func (p *Pin) Pulse(ctx context.Context) error {
	if err := p.out.Out(gpio.Low); err != nil {
		return fmt.Errorf("assert reset on %s: %w", p.out, err)
	}

	timer := time.NewTimer(p.width)
	var waitErr error
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
		waitErr = ctx.Err()
	}

	if err := p.out.Out(gpio.High); err != nil {
		return fmt.Errorf("release reset on %s: %w", p.out, err)
	}
	return waitErr
}

// String names the underlying pin
func (p *Pin) String() string {
	return p.out.String()
}
